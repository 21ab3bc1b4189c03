package stats

import (
	"testing"

	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/stretchr/testify/assert"
)

func expenseMeans(means map[string]float64) map[string]model.CategoryStats {
	out := make(map[string]model.CategoryStats, len(means))
	for cat, m := range means {
		out[cat] = model.CategoryStats{Count: 1, Mean: m, Sum: m}
	}
	return out
}

func TestCalculateIncomeExpenseRatio(t *testing.T) {
	tests := []struct {
		name               string
		income             model.CategoryStats
		expenses           map[string]float64
		wantAvgExpenses    float64
		wantSustainability string
		wantRisk           string
		wantBuffer         float64
	}{
		{
			name:   "comfortable freelancer",
			income: model.CategoryStats{Mean: 5000, StdDev: 1000},
			expenses: map[string]float64{
				model.CategoryHousing:         1200,
				model.CategoryGroceries:       400,
				model.CategoryUtilities:       200,
				model.CategoryBusinessExpense: 300,
			},
			wantAvgExpenses:    2100,
			wantSustainability: SustainabilityExcellent,
			wantRisk:           RiskLow,
			wantBuffer:         6300,
		},
		{
			name:   "volatile income barely covering costs",
			income: model.CategoryStats{Mean: 3000, StdDev: 1500},
			expenses: map[string]float64{
				model.CategoryHousing:         1200,
				model.CategoryGroceries:       400,
				model.CategoryUtilities:       200,
				model.CategoryBusinessExpense: 500,
				model.CategoryDining:          300,
			},
			wantAvgExpenses:    2600,
			wantSustainability: SustainabilityChallenging,
			wantRisk:           RiskVeryHigh,
			wantBuffer:         (2600 - 750) * 6,
		},
		{
			name:               "no income",
			income:             model.CategoryStats{},
			expenses:           map[string]float64{model.CategoryHousing: 1200},
			wantAvgExpenses:    1200,
			wantSustainability: SustainabilityCritical,
			wantRisk:           RiskVeryHigh,
			wantBuffer:         7200,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := CalculateIncomeExpenseRatio(tt.income, expenseMeans(tt.expenses))

			assert.Equal(t, tt.income.Mean, r.AvgIncome)
			assert.InDelta(t, tt.wantAvgExpenses, r.AvgExpenses, 1e-9)
			assert.Equal(t, tt.wantSustainability, r.Sustainability)
			assert.Equal(t, tt.wantRisk, r.RiskLevel)
			assert.InDelta(t, tt.wantBuffer, r.RecommendedBuffer, 1e-6)
		})
	}
}

func TestCalculateIncomeExpenseRatioNoExpenses(t *testing.T) {
	r := CalculateIncomeExpenseRatio(model.CategoryStats{Mean: 1000}, nil)

	assert.Zero(t, r.AvgRatio)
	assert.Zero(t, r.WorstCaseRatio)
	assert.Zero(t, r.RecommendedBuffer)
}

func TestAnalyzeIncomePatterns(t *testing.T) {
	t.Run("diverse stable income", func(t *testing.T) {
		p := AnalyzeIncomePatterns(&model.IncomeStats{
			VolatilityCoefficient: 0.2,
			IncomeFrequencyDays:   []int{7, 14, 10, 8, 12, 9, 11},
			Sources: map[string]model.SourceStats{
				"Client A": {Count: 3, Total: 3000},
				"Client B": {Count: 2, Total: 2000},
				"Client C": {Count: 2, Total: 2000},
				"Client D": {Count: 2, Total: 2000},
				"Client E": {Count: 1, Total: 1000},
			},
		})

		assert.Equal(t, 5, p.IncomeSources)
		assert.Equal(t, DiversityExcellent, p.DiversityLevel)
		assert.Equal(t, StabilityStable, p.Stability)
		assert.InDelta(t, 0.3, p.ClientConcentration, 1e-9)
		assert.InDelta(t, 10.142857142857142, p.PaymentFrequencyDays, 1e-9)
		assert.Equal(t, 14, p.LongestGapDays)
		assert.Equal(t, 7, p.ShortestGapDays)
	})

	t.Run("concentrated volatile income", func(t *testing.T) {
		p := AnalyzeIncomePatterns(&model.IncomeStats{
			VolatilityCoefficient: 0.6,
			IncomeFrequencyDays:   []int{30, 45, 28, 32},
			Sources: map[string]model.SourceStats{
				"Client A": {Count: 8, Total: 20000},
				"Client B": {Count: 2, Total: 5000},
			},
		})

		assert.Equal(t, 2, p.IncomeSources)
		assert.Equal(t, DiversityLow, p.DiversityLevel)
		assert.Equal(t, StabilityHighlyVariable, p.Stability)
		assert.InDelta(t, 0.8, p.ClientConcentration, 1e-9)
	})

	t.Run("no income", func(t *testing.T) {
		for _, in := range []*model.IncomeStats{nil, {}} {
			p := AnalyzeIncomePatterns(in)

			assert.Zero(t, p.IncomeSources)
			assert.Zero(t, p.PaymentFrequencyDays)
			assert.Zero(t, p.LongestGapDays)
			assert.Zero(t, p.ShortestGapDays)
		}
	})

	t.Run("business share", func(t *testing.T) {
		p := AnalyzeIncomePatterns(&model.IncomeStats{
			BusinessIncome: model.IncomeBucket{Sum: 750},
			PersonalIncome: model.IncomeBucket{Sum: 250},
		})
		assert.InDelta(t, 0.75, p.BusinessShare, 1e-12)
	})
}
