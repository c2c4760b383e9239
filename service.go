// Copyright 2025 Textflock
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package refind

import (
	"context"
	"errors"
	"log/slog"

	"github.com/textflock/refind/ai"
	"github.com/textflock/refind/ai/openai"
	"github.com/textflock/refind/core"
	"github.com/textflock/refind/feedback"
	"github.com/textflock/refind/filter"
	"github.com/textflock/refind/search"
	"github.com/textflock/refind/storage"
	"github.com/textflock/refind/storage/badger"
)

// ErrNoBackupConfigured is returned by Reconcile when the service was opened
// without a feedback backup log.
var ErrNoBackupConfigured = errors.New("no feedback backup log configured")

// Service wires the full retrieval stack: storage, embedder, admission
// chain, feedback ledger and searcher.
type Service struct {
	backend       *badger.Backend
	documentRepo  storage.DocumentRepository
	feedbackRepo  storage.FeedbackRepository
	denylistRepo  storage.DenylistRepository
	embedder      ai.Embedder
	denylistCache *filter.DenylistCache
	chain         *filter.Chain
	ledger        *feedback.Ledger
	searcher      *search.Searcher
	auditLog      *filter.BlockedQueryLog
	backupLog     *feedback.BackupLog
	logger        *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	aiConfig      *ai.Config
	embedder      ai.Embedder
	inMemory      bool
	auditLogPath  string
	backupLogPath string
	logger        *slog.Logger
}

// WithAIConfig sets the embedding provider configuration.
func WithAIConfig(config *ai.Config) ServiceOption {
	return func(o *serviceOptions) {
		o.aiConfig = config
	}
}

// WithEmbedder injects an embedder directly, bypassing the provider
// configuration. Used in tests.
func WithEmbedder(embedder ai.Embedder) ServiceOption {
	return func(o *serviceOptions) {
		o.embedder = embedder
	}
}

// WithInMemoryStore keeps all data in memory instead of on disk.
func WithInMemoryStore() ServiceOption {
	return func(o *serviceOptions) {
		o.inMemory = true
	}
}

// WithAuditLog appends blocked queries to a JSONL file at path.
func WithAuditLog(path string) ServiceOption {
	return func(o *serviceOptions) {
		o.auditLogPath = path
	}
}

// WithFeedbackBackup dual-writes feedback records to a JSONL file at path.
func WithFeedbackBackup(path string) ServiceOption {
	return func(o *serviceOptions) {
		o.backupLogPath = path
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// Open creates a Service over the store at filePath.
func Open(filePath string, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	documentRepo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	feedbackRepo := badger.NewFeedbackRepository(backend)
	denylistRepo := badger.NewDenylistRepository(backend)

	closeAll := func() {
		documentRepo.Close()
		feedbackRepo.Close()
		denylistRepo.Close()
		backend.Close()
	}

	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			closeAll()
			return nil, err
		}
	}

	s := &Service{
		backend:      backend,
		documentRepo: documentRepo,
		feedbackRepo: feedbackRepo,
		denylistRepo: denylistRepo,
		embedder:     embedder,
		logger:       options.logger,
	}

	s.denylistCache = filter.NewDenylistCache(denylistRepo)
	if err := s.denylistCache.Refresh(context.Background()); err != nil {
		// The chain runs with an empty denylist until the next refresh.
		s.logger.Warn("initial denylist refresh failed", "err", err)
	}

	chainOpts := []filter.Option{filter.WithLogger(s.logger)}
	if options.auditLogPath != "" {
		auditLog, err := filter.OpenBlockedQueryLog(options.auditLogPath)
		if err != nil {
			closeAll()
			return nil, err
		}
		s.auditLog = auditLog
		chainOpts = append(chainOpts, filter.WithAuditSink(auditLog))
	}
	s.chain, err = filter.NewChain(s.denylistCache, chainOpts...)
	if err != nil {
		s.closeLogs()
		closeAll()
		return nil, err
	}

	ledgerOpts := []feedback.Option{feedback.WithLogger(s.logger)}
	if options.backupLogPath != "" {
		backupLog, err := feedback.OpenBackupLog(options.backupLogPath)
		if err != nil {
			s.closeLogs()
			closeAll()
			return nil, err
		}
		s.backupLog = backupLog
		ledgerOpts = append(ledgerOpts, feedback.WithBackup(backupLog))
	}
	s.ledger, err = feedback.NewLedger(feedbackRepo, ledgerOpts...)
	if err != nil {
		s.closeLogs()
		closeAll()
		return nil, err
	}

	s.searcher, err = search.NewSearcher(documentRepo, s.ledger, embedder, search.WithLogger(s.logger))
	if err != nil {
		s.closeLogs()
		closeAll()
		return nil, err
	}

	return s, nil
}

// QueryOutcome is the result of one query: either a block decision or a
// search response, never both.
type QueryOutcome struct {
	// Blocked is true when the admission chain rejected the query.
	Blocked bool

	// Rule names the rule that blocked the query. Empty when allowed.
	Rule string

	// Response holds the search results when the query was admitted.
	Response *search.Response
}

// Query runs the admission chain and, if the query is admitted, the
// searcher. A blocked query is a normal outcome, not an error.
func (s *Service) Query(ctx context.Context, submitter, query string, opts search.Options) (*QueryOutcome, error) {
	decision := s.chain.Evaluate(ctx, submitter, query)
	if !decision.Allowed {
		return &QueryOutcome{Blocked: true, Rule: decision.Rule}, nil
	}

	response, err := s.searcher.Search(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	return &QueryOutcome{Response: response}, nil
}

// Feedback records one vote on a displayed document.
func (s *Service) Feedback(ctx context.Context, query, documentText string, vote core.Vote, submitter string) (*core.FeedbackRecord, error) {
	return s.ledger.Record(ctx, query, documentText, vote, submitter)
}

// RefreshDenylist reloads the denylist cache from storage. Call after
// adding or removing phrases so the chain sees the change.
func (s *Service) RefreshDenylist(ctx context.Context) error {
	return s.denylistCache.Refresh(ctx)
}

// Reconcile replays feedback backup records missing from the primary store.
func (s *Service) Reconcile(ctx context.Context) (*feedback.ReconcileReport, error) {
	if s.backupLog == nil {
		return nil, ErrNoBackupConfigured
	}
	reconciler, err := feedback.NewReconciler(s.feedbackRepo, s.backupLog, s.logger)
	if err != nil {
		return nil, err
	}
	return reconciler.Reconcile(ctx)
}

// DocumentRepository exposes the document store.
func (s *Service) DocumentRepository() storage.DocumentRepository {
	return s.documentRepo
}

// FeedbackRepository exposes the primary feedback store.
func (s *Service) FeedbackRepository() storage.FeedbackRepository {
	return s.feedbackRepo
}

// DenylistRepository exposes the denylist store.
func (s *Service) DenylistRepository() storage.DenylistRepository {
	return s.denylistRepo
}

// Ledger exposes the feedback ledger.
func (s *Service) Ledger() *feedback.Ledger {
	return s.ledger
}

// Embedder exposes the configured embedder.
func (s *Service) Embedder() ai.Embedder {
	return s.embedder
}

func (s *Service) closeLogs() {
	if s.auditLog != nil {
		if err := s.auditLog.Close(); err != nil {
			s.logger.Error("error closing audit log", "err", err)
		}
	}
	if s.backupLog != nil {
		if err := s.backupLog.Close(); err != nil {
			s.logger.Error("error closing feedback backup log", "err", err)
		}
	}
}

// Close releases the searcher pool, log files, repositories and backend.
func (s *Service) Close() error {
	if s.searcher != nil {
		s.searcher.Release()
	}
	s.closeLogs()

	if err := s.denylistRepo.Close(); err != nil {
		s.logger.Error("error closing denylist repository", "err", err)
		return err
	}
	if err := s.feedbackRepo.Close(); err != nil {
		s.logger.Error("error closing feedback repository", "err", err)
		return err
	}
	if err := s.documentRepo.Close(); err != nil {
		s.logger.Error("error closing document repository", "err", err)
		return err
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
