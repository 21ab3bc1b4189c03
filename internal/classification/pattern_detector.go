// Package classification provides rule-based categorization of spending and the
// business/personal classification of income sources.
package classification

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/Veraticus/spice-forecast/internal/model"
)

// RuleConfidence is the confidence reported when no rule matches and the
// fallback category is returned.
const RuleConfidence = 0.3

// Pattern maps a merchant/description regex to a spending category.
type Pattern struct {
	Name       string
	Category   string
	Regex      string
	Priority   int     // Higher priority patterns are checked first
	Confidence float64 // Base confidence when pattern matches (0.0-1.0)
}

// CompiledPattern holds a compiled regex pattern with metadata.
type CompiledPattern struct {
	compiledRegex *regexp.Regexp
	Pattern
}

// Match represents a pattern match result.
type Match struct {
	PatternName string
	Category    string
	Confidence  float64
}

// RuleCategorizer categorizes transactions with priority-ordered regex patterns.
type RuleCategorizer struct {
	patterns []CompiledPattern
	mu       sync.RWMutex
}

// NewRuleCategorizer creates a categorizer with the given patterns.
func NewRuleCategorizer(patterns []Pattern) (*RuleCategorizer, error) {
	compiled, err := compilePatterns(patterns)
	if err != nil {
		return nil, err
	}
	return &RuleCategorizer{patterns: compiled}, nil
}

// NewDefaultRuleCategorizer creates a categorizer loaded with DefaultPatterns.
func NewDefaultRuleCategorizer() (*RuleCategorizer, error) {
	return NewRuleCategorizer(DefaultPatterns())
}

func compilePatterns(patterns []Pattern) ([]CompiledPattern, error) {
	compiled := make([]CompiledPattern, 0, len(patterns))

	for _, p := range patterns {
		category := model.NormalizeCategory(p.Category)
		if !model.IsKnownCategory(category) {
			return nil, fmt.Errorf("pattern %s: unknown category %q", p.Name, p.Category)
		}
		p.Category = category

		regexStr := p.Regex
		if !strings.HasPrefix(regexStr, "(?i)") {
			regexStr = "(?i)" + regexStr // Make case-insensitive by default
		}

		regex, err := regexp.Compile(regexStr)
		if err != nil {
			return nil, fmt.Errorf("failed to compile pattern %s: %w", p.Name, err)
		}

		compiled = append(compiled, CompiledPattern{
			Pattern:       p,
			compiledRegex: regex,
		})
	}

	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].Priority > compiled[j].Priority
	})

	return compiled, nil
}

// Match returns the highest-priority pattern matching the merchant or raw text,
// or nil when nothing matches.
func (rc *RuleCategorizer) Match(merchant, rawText string) *Match {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	searchText := strings.TrimSpace(merchant + " " + rawText)
	if searchText == "" {
		return nil
	}
	lowered := strings.ToLower(searchText)

	for _, pattern := range rc.patterns {
		if !pattern.compiledRegex.MatchString(searchText) {
			continue
		}
		confidence := pattern.Confidence

		// Boost confidence when the merchant is named after the pattern
		if strings.Contains(lowered, strings.ToLower(pattern.Name)) {
			confidence = min(confidence+0.1, 1.0)
		}

		// Longer patterns are more specific
		if len(pattern.Regex) > 20 {
			confidence = min(confidence+0.05, 1.0)
		}

		return &Match{
			PatternName: pattern.Name,
			Category:    pattern.Category,
			Confidence:  confidence,
		}
	}

	return nil
}

// Categorize returns the matching category, or OTHER with a low confidence
// when no pattern matches. Credits are always OTHER.
func (rc *RuleCategorizer) Categorize(ctx context.Context, merchant string, _ float64, rawText string, txnType model.TransactionType) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	if txnType == model.TypeCredit {
		return model.CategoryOther, RuleConfidence, nil
	}
	if m := rc.Match(merchant, rawText); m != nil {
		return m.Category, m.Confidence, nil
	}
	return model.CategoryOther, RuleConfidence, nil
}

// UpdatePatterns replaces the loaded patterns.
func (rc *RuleCategorizer) UpdatePatterns(patterns []Pattern) error {
	compiled, err := compilePatterns(patterns)
	if err != nil {
		return err
	}

	rc.mu.Lock()
	rc.patterns = compiled
	rc.mu.Unlock()

	return nil
}

// PatternCount returns the number of loaded patterns.
func (rc *RuleCategorizer) PatternCount() int {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return len(rc.patterns)
}
