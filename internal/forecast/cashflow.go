// Package forecast turns a user's transaction history into cash-flow
// periods, detects lean periods in that history, and projects the next few
// months of income, expenses and balance.
package forecast

import (
	"fmt"
	"slices"
	"time"

	"github.com/Veraticus/spice-forecast/internal/model"
)

const (
	// DefaultHistoryMonths is how many 30-day months of history feed the monthly view.
	DefaultHistoryMonths = 6
	// DefaultHistoryWeeks is how many weeks of history feed the weekly view.
	DefaultHistoryWeeks = 12

	daysPerMonth = 30
	monthKey     = "2006-01"
)

// CashFlowPeriod aggregates the income and expenses of one month or ISO week.
type CashFlowPeriod struct {
	StartDate     *time.Time `json:"start_date,omitempty"`
	Period        string     `json:"period"`
	Income        float64    `json:"income"`
	Expenses      float64    `json:"expenses"`
	NetFlow       float64    `json:"net_flow"`
	IncomeCount   int        `json:"income_count"`
	ExpenseCount  int        `json:"expense_count"`
	IncomeSources int        `json:"income_sources"`
}

// MonthlyCashFlow groups transactions from the last months·30 days into
// calendar months keyed "2006-01", oldest first.
func MonthlyCashFlow(txns []model.Transaction, now time.Time, months int) []CashFlowPeriod {
	cutoff := now.AddDate(0, 0, -months*daysPerMonth)
	return aggregate(txns, cutoff, func(t time.Time) string {
		return t.Format(monthKey)
	})
}

// WeeklyCashFlow groups transactions from the last weeks·7 days into ISO
// weeks keyed "2006-W01", oldest first.
func WeeklyCashFlow(txns []model.Transaction, now time.Time, weeks int) []CashFlowPeriod {
	cutoff := now.AddDate(0, 0, -weeks*7)
	return aggregate(txns, cutoff, isoWeekKey)
}

func isoWeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// aggregate buckets transactions at or after cutoff. Transactions without a
// timestamp or with a zero amount are skipped. Credits count as income and
// every other type as an expense.
func aggregate(txns []model.Transaction, cutoff time.Time, key func(time.Time) string) []CashFlowPeriod {
	ordered := make([]model.Transaction, 0, len(txns))
	for _, txn := range txns {
		if txn.Timestamp.IsZero() || txn.Amount == 0 || txn.Timestamp.Before(cutoff) {
			continue
		}
		ordered = append(ordered, txn)
	}
	slices.SortStableFunc(ordered, func(a, b model.Transaction) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	periods := make(map[string]*CashFlowPeriod)
	sources := make(map[string]map[string]struct{})
	for _, txn := range ordered {
		ts := txn.Timestamp.UTC()
		k := key(ts)

		p, ok := periods[k]
		if !ok {
			start := ts
			p = &CashFlowPeriod{Period: k, StartDate: &start}
			periods[k] = p
			sources[k] = make(map[string]struct{})
		}

		if txn.Type == model.TypeCredit {
			p.Income += txn.Amount
			p.IncomeCount++
			if txn.Merchant != "" {
				sources[k][txn.Merchant] = struct{}{}
			}
			continue
		}
		p.Expenses += txn.Amount
		p.ExpenseCount++
	}

	keys := make([]string, 0, len(periods))
	for k := range periods {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]CashFlowPeriod, 0, len(keys))
	for _, k := range keys {
		p := periods[k]
		p.NetFlow = p.Income - p.Expenses
		p.IncomeSources = len(sources[k])
		out = append(out, *p)
	}
	return out
}

// incomes returns the income of each period in order.
func incomes(history []CashFlowPeriod) []float64 {
	out := make([]float64, len(history))
	for i, p := range history {
		out[i] = p.Income
	}
	return out
}

func expenses(history []CashFlowPeriod) []float64 {
	out := make([]float64, len(history))
	for i, p := range history {
		out[i] = p.Expenses
	}
	return out
}
