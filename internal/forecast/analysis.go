package forecast

import (
	"time"

	"github.com/Veraticus/spice-forecast/internal/model"
)

// HistoryWindow is how far back a complete analysis needs transactions.
const HistoryWindow = DefaultHistoryMonths * daysPerMonth * 24 * time.Hour

// Summary is the headline of a complete lean analysis.
type Summary struct {
	NextMonthDailyBudget    *float64 `json:"next_month_daily_budget"`
	RiskLevel               string   `json:"risk_level"`
	RiskMessage             string   `json:"risk_message"`
	RiskFactors             []string `json:"risk_factors"`
	RiskScore               int      `json:"risk_score"`
	RecommendedDailySpend   float64  `json:"recommended_daily_spend"`
	CurrentMonthDailyBudget float64  `json:"current_month_daily_budget"`
	ImmediateActionNeeded   bool     `json:"immediate_action_needed"`
}

// HistoricalAnalysis holds lean analyses at monthly and weekly granularity.
type HistoricalAnalysis struct {
	Monthly LeanAnalysis `json:"monthly"`
	Weekly  LeanAnalysis `json:"weekly"`
}

// CompleteAnalysis combines history, forecast and smoothing advice.
type CompleteAnalysis struct {
	GeneratedAt        time.Time          `json:"generated_at"`
	Summary            Summary            `json:"summary"`
	HistoricalAnalysis HistoricalAnalysis `json:"historical_analysis"`
	CashFlowForecast   CashFlowForecast   `json:"cash_flow_forecast"`
	IncomeSmoothing    IncomeSmoothing    `json:"income_smoothing"`
}

// Analyzer runs cash-flow analyses relative to an injected clock.
// It holds no mutable state and is safe for concurrent use.
type Analyzer struct {
	now func() time.Time
}

// NewAnalyzer creates an Analyzer. A nil clock uses time.Now.
func NewAnalyzer(now func() time.Time) *Analyzer {
	if now == nil {
		now = time.Now
	}
	return &Analyzer{now: now}
}

// MonthlyHistory returns the default six months of monthly cash flow.
func (a *Analyzer) MonthlyHistory(txns []model.Transaction) []CashFlowPeriod {
	return MonthlyCashFlow(txns, a.now(), DefaultHistoryMonths)
}

// ForecastCashFlow projects periods months from the transactions' monthly history.
func (a *Analyzer) ForecastCashFlow(txns []model.Transaction, periods int, balance float64) CashFlowForecast {
	return ForecastCashFlow(a.MonthlyHistory(txns), periods, balance)
}

// IncomeSmoothing builds a smoothing plan from the transactions' monthly history.
func (a *Analyzer) IncomeSmoothing(txns []model.Transaction, balance float64) IncomeSmoothing {
	return CalculateIncomeSmoothing(a.MonthlyHistory(txns), balance, DefaultBufferMonths)
}

// CompleteLeanAnalysis runs every analysis over txns with the given balance.
func (a *Analyzer) CompleteLeanAnalysis(txns []model.Transaction, balance float64) *CompleteAnalysis {
	now := a.now()
	monthly := MonthlyCashFlow(txns, now, DefaultHistoryMonths)
	weekly := WeeklyCashFlow(txns, now, DefaultHistoryWeeks)

	monthlyLean := IdentifyLeanPeriods(monthly, MonthlyLeanPercentile)
	weeklyLean := IdentifyLeanPeriods(weekly, WeeklyLeanPercentile)
	fc := ForecastCashFlow(monthly, DefaultForecastPeriods, balance)
	smoothing := CalculateIncomeSmoothing(monthly, balance, DefaultBufferMonths)
	risk := AssessRisk(monthlyLean, fc, smoothing)

	summary := Summary{
		RiskLevel:             risk.Level,
		RiskMessage:           risk.Message,
		RiskScore:             risk.Score,
		RiskFactors:           risk.Factors,
		ImmediateActionNeeded: risk.ImmediateAction,
	}
	if len(fc.Forecasts) > 0 {
		summary.CurrentMonthDailyBudget = fc.Forecasts[0].DailyBudget
		summary.RecommendedDailySpend = fc.Forecasts[0].DailyBudget
	}
	if len(fc.Forecasts) > 1 {
		next := fc.Forecasts[1].DailyBudget
		summary.NextMonthDailyBudget = &next
	}

	return &CompleteAnalysis{
		Summary:            summary,
		HistoricalAnalysis: HistoricalAnalysis{Monthly: monthlyLean, Weekly: weeklyLean},
		CashFlowForecast:   fc,
		IncomeSmoothing:    smoothing,
		GeneratedAt:        now.UTC(),
	}
}
