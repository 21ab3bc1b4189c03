package classification

import (
	"strings"

	"github.com/Veraticus/spice-forecast/internal/model"
)

// SourceClassifier decides whether an income source is business or personal income.
type SourceClassifier interface {
	Classify(text string) model.IncomeType
}

// KeywordSourceClassifier classifies income sources by substring keywords.
// A source is business income only when a business keyword matches and no
// personal keyword does.
type KeywordSourceClassifier struct {
	business []string
	personal []string
}

// DefaultBusinessKeywords are terms that indicate client or gig income.
func DefaultBusinessKeywords() []string {
	return []string{
		"client", "project", "upwork", "fiverr", "freelance",
		"consulting", "contractor", "gig", "invoice", "payment for",
	}
}

// DefaultPersonalKeywords are terms that indicate wages, gifts or refunds.
func DefaultPersonalKeywords() []string {
	return []string{
		"gift", "refund", "cashback", "bonus", "salary",
		"payroll", "dividend", "interest", "tax refund",
	}
}

// NewKeywordSourceClassifier creates a classifier from keyword lists.
// Nil lists fall back to the defaults.
func NewKeywordSourceClassifier(business, personal []string) *KeywordSourceClassifier {
	if business == nil {
		business = DefaultBusinessKeywords()
	}
	if personal == nil {
		personal = DefaultPersonalKeywords()
	}
	return &KeywordSourceClassifier{
		business: lowerAll(business),
		personal: lowerAll(personal),
	}
}

// Classify returns the income type for the combined source and message text.
func (c *KeywordSourceClassifier) Classify(text string) model.IncomeType {
	lowered := strings.ToLower(text)
	if containsAny(lowered, c.business) && !containsAny(lowered, c.personal) {
		return model.IncomeBusiness
	}
	return model.IncomePersonal
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
