package stats

import (
	"math"
	"slices"

	"github.com/Veraticus/spice-forecast/internal/model"
)

// Sustainability levels for the income/expense ratio.
const (
	SustainabilityExcellent   = "excellent"
	SustainabilityGood        = "good"
	SustainabilityModerate    = "moderate"
	SustainabilityChallenging = "challenging"
	SustainabilityCritical    = "critical"
)

// Risk levels for the worst-case income/expense ratio.
const (
	RiskLow      = "low"
	RiskModerate = "moderate"
	RiskHigh     = "high"
	RiskVeryHigh = "very_high"
)

// Income stability labels.
const (
	StabilityStable         = "stable"
	StabilityVariable       = "variable"
	StabilityHighlyVariable = "highly_variable"
)

// Source diversity labels.
const (
	DiversityExcellent = "excellent"
	DiversityGood      = "good"
	DiversityModerate  = "moderate"
	DiversityLow       = "low"
)

const (
	emergencyMonths          = 3
	deficitBufferMonths      = 6
	highConcentrationCeiling = 0.7
)

// IncomeExpenseRatio compares average and worst-case income against expenses.
type IncomeExpenseRatio struct {
	Sustainability    string  `json:"sustainability"`
	RiskLevel         string  `json:"risk_level"`
	AvgIncome         float64 `json:"avg_income"`
	AvgExpenses       float64 `json:"avg_expenses"`
	WorstCaseIncome   float64 `json:"worst_case_income"`
	AvgRatio          float64 `json:"avg_ratio"`
	WorstCaseRatio    float64 `json:"worst_case_ratio"`
	RecommendedBuffer float64 `json:"recommended_buffer"`
}

// CalculateIncomeExpenseRatio rates how well income covers spending.
// Expenses are the sum of per-category mean amounts.
func CalculateIncomeExpenseRatio(income model.CategoryStats, expenses map[string]model.CategoryStats) IncomeExpenseRatio {
	r := IncomeExpenseRatio{
		AvgIncome:       income.Mean,
		WorstCaseIncome: math.Max(0, income.Mean-BaselineK*income.StdDev),
	}
	for _, s := range expenses {
		r.AvgExpenses += s.Mean
	}

	if r.AvgExpenses > 0 && r.AvgIncome > 0 {
		r.AvgRatio = r.AvgIncome / r.AvgExpenses
		r.WorstCaseRatio = r.WorstCaseIncome / r.AvgExpenses
	}

	switch {
	case r.WorstCaseRatio >= 1.2 && r.AvgRatio >= 2:
		r.Sustainability = SustainabilityExcellent
	case r.WorstCaseRatio >= 1 && r.AvgRatio >= 1.5:
		r.Sustainability = SustainabilityGood
	case r.AvgRatio >= 1.2:
		r.Sustainability = SustainabilityModerate
	case r.AvgRatio >= 1:
		r.Sustainability = SustainabilityChallenging
	default:
		r.Sustainability = SustainabilityCritical
	}

	switch {
	case r.WorstCaseRatio >= 1:
		r.RiskLevel = RiskLow
	case r.WorstCaseRatio >= 0.7:
		r.RiskLevel = RiskModerate
	case r.WorstCaseRatio >= 0.4:
		r.RiskLevel = RiskHigh
	default:
		r.RiskLevel = RiskVeryHigh
	}

	if r.WorstCaseRatio < 1 {
		r.RecommendedBuffer = math.Max(0, r.AvgExpenses-r.WorstCaseIncome) * deficitBufferMonths
	} else {
		r.RecommendedBuffer = r.AvgExpenses * emergencyMonths
	}

	return r
}

// IncomePatterns summarizes source diversity and payment regularity.
type IncomePatterns struct {
	DiversityLevel        string  `json:"diversity_level"`
	Stability             string  `json:"stability"`
	IncomeSources         int     `json:"income_sources"`
	ClientConcentration   float64 `json:"client_concentration"`
	VolatilityCoefficient float64 `json:"volatility_coefficient"`
	PaymentFrequencyDays  float64 `json:"payment_frequency_days"`
	LongestGapDays        int     `json:"longest_gap_days"`
	ShortestGapDays       int     `json:"shortest_gap_days"`
	BusinessShare         float64 `json:"business_share"`
}

// AnalyzeIncomePatterns reports on income diversity and payment gaps.
// A nil input yields an empty report.
func AnalyzeIncomePatterns(income *model.IncomeStats) IncomePatterns {
	p := IncomePatterns{
		DiversityLevel: DiversityLow,
		Stability:      StabilityStable,
	}
	if income == nil {
		return p
	}

	p.IncomeSources = len(income.Sources)
	p.VolatilityCoefficient = income.VolatilityCoefficient

	var total, largest float64
	for _, src := range income.Sources {
		total += src.Total
		largest = math.Max(largest, src.Total)
	}
	if total > 0 {
		p.ClientConcentration = largest / total
	}

	switch {
	case p.IncomeSources >= 5 && p.ClientConcentration <= 0.3:
		p.DiversityLevel = DiversityExcellent
	case p.IncomeSources >= 3 && p.ClientConcentration <= 0.5:
		p.DiversityLevel = DiversityGood
	case p.IncomeSources >= 2 && p.ClientConcentration <= highConcentrationCeiling:
		p.DiversityLevel = DiversityModerate
	default:
		p.DiversityLevel = DiversityLow
	}

	switch {
	case p.VolatilityCoefficient < 0.3:
		p.Stability = StabilityStable
	case p.VolatilityCoefficient < 0.5:
		p.Stability = StabilityVariable
	default:
		p.Stability = StabilityHighlyVariable
	}

	if gaps := income.IncomeFrequencyDays; len(gaps) > 0 {
		sum := 0
		for _, g := range gaps {
			sum += g
		}
		p.PaymentFrequencyDays = float64(sum) / float64(len(gaps))
		p.LongestGapDays = slices.Max(gaps)
		p.ShortestGapDays = slices.Min(gaps)
	}

	if all := income.BusinessIncome.Sum + income.PersonalIncome.Sum; all > 0 {
		p.BusinessShare = income.BusinessIncome.Sum / all
	}

	return p
}
