package forecast

import (
	"fmt"

	"github.com/Veraticus/spice-forecast/internal/stats"
)

const (
	// DefaultBufferMonths is the emergency fund target in months of expenses.
	DefaultBufferMonths = 3

	goodMonthSurplusRatio = 0.1
	maxSaveRate           = 0.5
	defaultSaveRate       = 0.3
	frequentLeanRatio     = 0.3
	largeFundGap          = 5000
	lowVolatility         = 0.2
	moderateVolatility    = 0.4
)

// Smoothing statuses.
const (
	SmoothingOK               = "ok"
	SmoothingInsufficientData = "insufficient_data"
)

// SmoothingStrategy is the narrative part of an income smoothing plan.
type SmoothingStrategy struct {
	VolatilityLevel string   `json:"volatility_level"`
	StrategySummary string   `json:"strategy_summary"`
	Recommendations []string `json:"recommendations"`
	ActionItems     []string `json:"action_items"`
	LeanFrequency   float64  `json:"lean_frequency"`
}

// IncomeSmoothing recommends how much of good months to save toward an
// emergency fund sized in months of average expenses.
type IncomeSmoothing struct {
	MonthsToTarget      *float64           `json:"months_to_target"`
	Strategy            *SmoothingStrategy `json:"strategy,omitempty"`
	Status              string             `json:"status"`
	Message             string             `json:"message,omitempty"`
	CurrentBalance      float64            `json:"current_balance"`
	TargetEmergencyFund float64            `json:"target_emergency_fund"`
	EmergencyFundGap    float64            `json:"emergency_fund_gap"`
	AvgMonthlyIncome    float64            `json:"avg_monthly_income"`
	AvgMonthlyExpenses  float64            `json:"avg_monthly_expenses"`
	IncomeVolatility    float64            `json:"income_volatility"`
	RecommendedSaveRate float64            `json:"recommended_save_rate"`
	MonthlySaveAmount   float64            `json:"monthly_save_amount"`
	GoodMonthsCount     int                `json:"good_months_count"`
	LeanMonthsCount     int                `json:"lean_months_count"`
}

// CalculateIncomeSmoothing sizes the emergency fund and the save rate that
// closes the gap within a year of good months. Good months net more than 10%
// of average income; lean months net below zero.
func CalculateIncomeSmoothing(history []CashFlowPeriod, balance float64, bufferMonths int) IncomeSmoothing {
	if len(history) == 0 {
		return IncomeSmoothing{
			Status:  SmoothingInsufficientData,
			Message: "Need transaction history to provide recommendations",
		}
	}

	avgIncome, incomeStd := stats.MeanStd(incomes(history))
	avgExpenses, _ := stats.MeanStd(expenses(history))
	volatility := stats.CoefficientOfVariation(avgIncome, incomeStd)

	var good, lean int
	var goodSurplus, goodIncome float64
	for _, p := range history {
		if p.NetFlow > avgIncome*goodMonthSurplusRatio {
			good++
			goodSurplus += p.NetFlow
			goodIncome += p.Income
		}
		if p.NetFlow < 0 {
			lean++
		}
	}

	target := avgExpenses * float64(bufferMonths)
	gap := max(0, target-balance)

	rate := defaultSaveRate
	if good > 0 {
		if avgSurplus := goodSurplus / float64(good); avgSurplus > 0 {
			rate = min(maxSaveRate, gap/(avgSurplus*12))
		}
	}

	save := avgIncome * defaultSaveRate
	if good > 0 {
		save = goodIncome / float64(good) * rate
	}

	result := IncomeSmoothing{
		Status:              SmoothingOK,
		CurrentBalance:      stats.Round(balance, 2),
		TargetEmergencyFund: stats.Round(target, 2),
		EmergencyFundGap:    stats.Round(gap, 2),
		AvgMonthlyIncome:    stats.Round(avgIncome, 2),
		AvgMonthlyExpenses:  stats.Round(avgExpenses, 2),
		IncomeVolatility:    stats.Round(volatility, 3),
		GoodMonthsCount:     good,
		LeanMonthsCount:     lean,
		RecommendedSaveRate: stats.Round(rate, 3),
		MonthlySaveAmount:   stats.Round(save, 2),
	}
	if save > 0 {
		months := stats.Round(gap/save, 1)
		result.MonthsToTarget = &months
	}

	strategy := smoothingStrategy(volatility, good, lean, len(history), gap)
	result.Strategy = &strategy
	return result
}

func smoothingStrategy(volatility float64, good, lean, total int, gap float64) SmoothingStrategy {
	var leanFrequency float64
	if total > 0 {
		leanFrequency = float64(lean) / float64(total)
	}

	s := SmoothingStrategy{LeanFrequency: stats.Round(leanFrequency, 2)}
	switch {
	case volatility < lowVolatility:
		s.VolatilityLevel = "low"
		s.StrategySummary = "Your income is relatively stable. Focus on consistent monthly savings."
	case volatility < moderateVolatility:
		s.VolatilityLevel = "moderate"
		s.StrategySummary = "Your income varies moderately. Save aggressively during good months."
	default:
		s.VolatilityLevel = "high"
		s.StrategySummary = "Your income is highly variable. Prioritize building a large emergency fund."
	}

	if leanFrequency > frequentLeanRatio {
		s.Recommendations = append(s.Recommendations,
			"You experience lean periods frequently (>30% of months). Build 6 months of expenses as emergency fund.")
	} else {
		s.Recommendations = append(s.Recommendations,
			"Lean periods are occasional. Maintain 3-4 months of expenses as buffer.")
	}
	if good > 0 {
		s.Recommendations = append(s.Recommendations,
			fmt.Sprintf("You had %d good months in the last %d months. Use these to build reserves.", good, total))
	}
	switch {
	case gap > largeFundGap:
		s.Recommendations = append(s.Recommendations,
			fmt.Sprintf("Emergency fund gap is %s. Make this your top priority.", dollars(gap)))
	case gap > 0:
		s.Recommendations = append(s.Recommendations,
			fmt.Sprintf("You're close to your target. Just %s more needed.", dollars(gap)))
	default:
		s.Recommendations = append(s.Recommendations, "Emergency fund target reached! Consider investing surplus.")
	}

	s.ActionItems = []string{
		"Set up automatic transfer to savings account on income days",
		"Track good vs lean months to refine your savings pattern",
		"Review and adjust monthly after 3 months",
	}
	if volatility > moderateVolatility {
		s.ActionItems = append([]string{"Diversify income sources to reduce volatility"}, s.ActionItems...)
	}
	return s
}
