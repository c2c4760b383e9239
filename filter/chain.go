package filter

import (
	"context"
	"log/slog"
	"time"
)

// Decision is the outcome of evaluating a query against the chain.
// A blocked query is a named control outcome, not an error: the caller
// needs the rule name to explain the rejection.
type Decision struct {
	Allowed bool
	Rule    string // name of the rule that blocked; empty when allowed
}

// AuditSink receives a record of every blocked query attempt.
type AuditSink interface {
	RecordBlocked(ctx context.Context, submitter, query, rule string, at time.Time) error
}

// Chain evaluates admission rules in a fixed order, first match wins.
type Chain struct {
	rules  []Rule
	audit  AuditSink
	logger *slog.Logger
}

// Option configures a Chain.
type Option func(*Chain) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chain) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// WithAuditSink sets the sink that records blocked attempts.
// Default is no auditing.
func WithAuditSink(sink AuditSink) Option {
	return func(c *Chain) error {
		c.audit = sink
		return nil
	}
}

// WithRules replaces the default rule sequence.
// Rules are evaluated in the order given.
func WithRules(rules ...Rule) Option {
	return func(c *Chain) error {
		c.rules = rules
		return nil
	}
}

// NewChain creates a chain with the default rule order: denylist,
// excessive-caps, excessive-repetition, too-short.
func NewChain(denylist *DenylistCache, opts ...Option) (*Chain, error) {
	if denylist == nil {
		return nil, ErrDenylistRequired
	}

	c := &Chain{
		rules: []Rule{
			DenylistRule(denylist),
			ExcessiveCapsRule(),
			ExcessiveRepetitionRule(),
			TooShortRule(),
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Evaluate runs the query through the rule chain.
// The first rule that matches blocks the query; a rule that fails with an
// error is skipped (fail open) and evaluation continues. Blocked attempts
// are written to the audit sink.
func (c *Chain) Evaluate(ctx context.Context, submitter, query string) Decision {
	for _, rule := range c.rules {
		blocked, err := rule.Blocks(query)
		if err != nil {
			c.logger.Warn("filter rule failed, continuing", "rule", rule.Name, "err", err)
			continue
		}
		if !blocked {
			continue
		}

		c.logger.Info("query blocked", "rule", rule.Name, "submitter", submitter)
		if c.audit != nil {
			if err := c.audit.RecordBlocked(ctx, submitter, query, rule.Name, time.Now().UTC()); err != nil {
				c.logger.Error("failed to audit blocked query", "rule", rule.Name, "err", err)
			}
		}
		return Decision{Allowed: false, Rule: rule.Name}
	}

	return Decision{Allowed: true}
}
