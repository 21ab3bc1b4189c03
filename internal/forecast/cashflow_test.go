package forecast

import (
	"testing"
	"time"

	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cashFlowNow = time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)

func at(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 10, 0, 0, 0, time.UTC)
}

func txn(ts time.Time, typ model.TransactionType, amount float64, merchant string) model.Transaction {
	return model.Transaction{UserID: 1, Timestamp: ts, Type: typ, Amount: amount, Merchant: merchant}
}

func cashFlowFixture() []model.Transaction {
	return []model.Transaction{
		txn(at(2025, 2, 15), model.TypeCredit, 1000, "Beta LLC"),
		txn(at(2025, 1, 5), model.TypeCredit, 3000, "Acme Corp"),
		txn(at(2025, 1, 6), model.TypeCredit, 500, "Acme Corp"),
		txn(at(2025, 1, 10), model.TypeDebit, 1200, "Landlord"),
		txn(at(2025, 2, 3), model.TypeDebit, 200, "Grocer"),
		txn(at(2025, 3, 1), model.TypeDebit, 0, "Zero"),
		txn(at(2024, 8, 1), model.TypeCredit, 9999, "Too Old"),
		txn(time.Time{}, model.TypeCredit, 50, "No Date"),
	}
}

func TestMonthlyCashFlow(t *testing.T) {
	got := MonthlyCashFlow(cashFlowFixture(), cashFlowNow, DefaultHistoryMonths)
	require.Len(t, got, 2)

	jan := got[0]
	assert.Equal(t, "2025-01", jan.Period)
	assert.Equal(t, 3500.0, jan.Income)
	assert.Equal(t, 1200.0, jan.Expenses)
	assert.Equal(t, 2300.0, jan.NetFlow)
	assert.Equal(t, 2, jan.IncomeCount)
	assert.Equal(t, 1, jan.ExpenseCount)
	assert.Equal(t, 1, jan.IncomeSources)
	require.NotNil(t, jan.StartDate)
	assert.Equal(t, at(2025, 1, 5), *jan.StartDate)

	feb := got[1]
	assert.Equal(t, "2025-02", feb.Period)
	assert.Equal(t, 800.0, feb.NetFlow)
	assert.Equal(t, at(2025, 2, 3), *feb.StartDate)
}

func TestWeeklyCashFlow(t *testing.T) {
	got := WeeklyCashFlow(cashFlowFixture(), cashFlowNow, DefaultHistoryWeeks)

	keys := make([]string, len(got))
	nets := make([]float64, len(got))
	for i, p := range got {
		keys[i] = p.Period
		nets[i] = p.NetFlow
	}
	assert.Equal(t, []string{"2025-W01", "2025-W02", "2025-W06", "2025-W07"}, keys)
	assert.Equal(t, []float64{3000, -700, -200, 1000}, nets)
}

func TestISOWeekKeyAcrossYearBoundary(t *testing.T) {
	assert.Equal(t, "2025-W01", isoWeekKey(at(2024, 12, 30)))
	assert.Equal(t, "2020-W53", isoWeekKey(at(2020, 12, 31)))
}

func TestCashFlowEmpty(t *testing.T) {
	assert.Empty(t, MonthlyCashFlow(nil, cashFlowNow, DefaultHistoryMonths))
	assert.Empty(t, WeeklyCashFlow(nil, cashFlowNow, DefaultHistoryWeeks))
}
