package engine

import (
	"context"
	"time"

	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/stats"
)

// IncomeInsights pairs the income/expense ratio with income pattern analysis.
type IncomeInsights struct {
	LastIncomeDate *time.Time               `json:"last_income_date,omitempty"`
	Ratio          stats.IncomeExpenseRatio `json:"income_expense_ratio"`
	Patterns       stats.IncomePatterns     `json:"income_patterns"`
	DaysSinceLast  *int                     `json:"days_since_last_income,omitempty"`
	UserID         int64                    `json:"user_id"`
}

// IncomeInsights analyzes the user's recorded income. It wraps
// common.ErrNotFound when no credit has been processed yet.
func (e *Engine) IncomeInsights(ctx context.Context, userID int64) (*IncomeInsights, error) {
	m, err := e.loadModel(ctx, userID)
	if err != nil {
		return nil, err
	}
	if m.IncomeStats == nil || m.IncomeStats.Count == 0 {
		return nil, common.NotFoundf("no income recorded for user %d", userID)
	}

	insights := &IncomeInsights{
		UserID:   userID,
		Ratio:    stats.CalculateIncomeExpenseRatio(m.IncomeStats.CategoryStats, m.CategoryStats),
		Patterns: stats.AnalyzeIncomePatterns(m.IncomeStats),
	}
	if last := m.IncomeStats.LastIncomeDate; last != nil {
		t := *last
		days := int(e.now().Sub(t).Hours() / 24)
		insights.LastIncomeDate = &t
		insights.DaysSinceLast = &days
	}
	return insights, nil
}
