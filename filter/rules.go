package filter

import (
	"strings"
	"unicode"
)

// Rule is a named admission predicate over a query string.
// Rules must be pure: no side effects, no retained state.
type Rule struct {
	// Name identifies the rule in decisions and audit entries.
	Name string

	// Blocks reports whether the query should be rejected.
	// A returned error makes the rule fail open: the chain logs it and
	// continues with the remaining rules.
	Blocks func(query string) (bool, error)
}

// Rule names, in chain evaluation order.
const (
	RuleDenylist            = "denylist"
	RuleExcessiveCaps       = "excessive-caps"
	RuleExcessiveRepetition = "excessive-repetition"
	RuleTooShort            = "too-short"
)

// DenylistRule blocks queries containing any cached phrase as a
// case-insensitive substring.
func DenylistRule(cache *DenylistCache) Rule {
	return Rule{
		Name: RuleDenylist,
		Blocks: func(query string) (bool, error) {
			return cache.Matches(query), nil
		},
	}
}

// ExcessiveCapsRule blocks queries of trimmed length >= 10 whose
// uppercase-letter ratio exceeds 0.7.
func ExcessiveCapsRule() Rule {
	return Rule{
		Name: RuleExcessiveCaps,
		Blocks: func(query string) (bool, error) {
			trimmed := strings.TrimSpace(query)
			runes := []rune(trimmed)
			if len(runes) < 10 {
				return false, nil
			}
			upper := 0
			for _, r := range runes {
				if unicode.IsUpper(r) {
					upper++
				}
			}
			return float64(upper)/float64(len(runes)) > 0.7, nil
		},
	}
}

// ExcessiveRepetitionRule blocks queries where any word longer than 5
// characters contains three consecutive identical characters.
func ExcessiveRepetitionRule() Rule {
	return Rule{
		Name: RuleExcessiveRepetition,
		Blocks: func(query string) (bool, error) {
			for _, word := range strings.Fields(query) {
				runes := []rune(word)
				if len(runes) <= 5 {
					continue
				}
				for i := 0; i+2 < len(runes); i++ {
					if runes[i] == runes[i+1] && runes[i] == runes[i+2] {
						return true, nil
					}
				}
			}
			return false, nil
		},
	}
}

// TooShortRule blocks queries whose trimmed length is under 3 characters.
func TooShortRule() Rule {
	return Rule{
		Name: RuleTooShort,
		Blocks: func(query string) (bool, error) {
			return len([]rune(strings.TrimSpace(query))) < 3, nil
		},
	}
}
