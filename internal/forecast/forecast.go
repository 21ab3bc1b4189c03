package forecast

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Veraticus/spice-forecast/internal/stats"
)

const (
	// DefaultForecastPeriods is the number of months projected by a complete analysis.
	DefaultForecastPeriods = 3

	minForecastHistory = 2
	incomeUpsideK      = 0.5
	incomeDownsideK    = 1.5
	expenseBestRatio   = 0.9
	expenseWorstRatio  = 1.1
	reserveDrawRatio   = 0.1

	criticalMarker = "CRITICAL"
)

// InsufficientHistoryWarning is returned when fewer than two months of history exist.
const InsufficientHistoryWarning = "Insufficient transaction history for accurate forecasting"

// en formats amounts with English thousands separators.
func en() *message.Printer {
	return message.NewPrinter(language.English)
}

// Band holds the best, likely and worst value of a forecast quantity.
type Band struct {
	Best   float64 `json:"best"`
	Likely float64 `json:"likely"`
	Worst  float64 `json:"worst"`
}

func (b Band) rounded() Band {
	return Band{Best: stats.Round(b.Best, 2), Likely: stats.Round(b.Likely, 2), Worst: stats.Round(b.Worst, 2)}
}

// ForecastPeriod is one projected month.
type ForecastPeriod struct {
	Income           Band    `json:"income"`
	Expenses         Band    `json:"expenses"`
	NetCashFlow      Band    `json:"net_cash_flow"`
	ProjectedBalance Band    `json:"projected_balance"`
	DailyIdealSpend  Band    `json:"daily_ideal_spend"`
	Period           int     `json:"period"`
	MonthOffset      int     `json:"month_offset"`
	DailyBudget      float64 `json:"daily_budget"`
	IsLeanPeriod     bool    `json:"is_lean_period"`
	BalanceAtRisk    bool    `json:"balance_at_risk"`
}

// CashFlowForecast is the projection of the next few months.
type CashFlowForecast struct {
	Forecasts             []ForecastPeriod `json:"forecasts"`
	Warnings              []string         `json:"warnings"`
	RecommendedDailySpend float64          `json:"recommended_daily_spend"`
	Confidence            float64          `json:"confidence"`
	IncomeVolatility      float64          `json:"income_volatility"`
	AvgMonthlyIncome      float64          `json:"avg_monthly_income"`
	AvgMonthlyExpenses    float64          `json:"avg_monthly_expenses"`
}

// HasCriticalWarning reports whether any month may end with a negative balance.
func (f CashFlowForecast) HasCriticalWarning() bool {
	for _, w := range f.Warnings {
		if strings.Contains(w, criticalMarker) {
			return true
		}
	}
	return false
}

// ForecastCashFlow projects periods months from the monthly history. Income
// comes from exponential smoothing widened by income volatility, expenses
// from the historical average ±10%. The likely balance carries forward.
func ForecastCashFlow(history []CashFlowPeriod, periods int, balance float64) CashFlowForecast {
	if len(history) < minForecastHistory {
		return CashFlowForecast{
			Forecasts: []ForecastPeriod{},
			Warnings:  []string{InsufficientHistoryWarning},
		}
	}

	avgIncome, incomeStd := stats.MeanStd(incomes(history))
	avgExpenses, _ := stats.MeanStd(expenses(history))
	volatility := stats.CoefficientOfVariation(avgIncome, incomeStd)
	incomeForecast, confidence := ExponentialSmoothingForecast(incomes(history))

	income := Band{
		Best:   incomeForecast * (1 + volatility*incomeUpsideK),
		Likely: incomeForecast,
		Worst:  math.Max(0, incomeForecast*(1-volatility*incomeDownsideK)),
	}
	spend := Band{
		Best:   avgExpenses * expenseBestRatio,
		Likely: avgExpenses,
		Worst:  avgExpenses * expenseWorstRatio,
	}
	net := Band{
		Best:   income.Best - spend.Best,
		Likely: income.Likely - spend.Likely,
		Worst:  income.Worst - spend.Worst,
	}

	result := CashFlowForecast{
		Forecasts:          make([]ForecastPeriod, 0, periods),
		Warnings:           []string{},
		Confidence:         confidence,
		IncomeVolatility:   stats.Round(volatility, 3),
		AvgMonthlyIncome:   stats.Round(avgIncome, 2),
		AvgMonthlyExpenses: stats.Round(avgExpenses, 2),
	}

	running := balance
	for i := 0; i < periods; i++ {
		month := i + 1
		projected := Band{
			Best:   running + net.Best,
			Likely: running + net.Likely,
			Worst:  running + net.Worst,
		}
		isLean := net.Worst < 0
		atRisk := projected.Worst < 0

		if isLean {
			result.Warnings = append(result.Warnings, en().Sprintf(
				"Month %d: Potential lean period - worst case deficit of $%.2f", month, math.Abs(net.Worst)))
		}
		if atRisk {
			result.Warnings = append(result.Warnings, en().Sprintf(
				"Month %d: %s - Balance may go negative ($%.2f)", month, criticalMarker, projected.Worst))
		}

		daily := Band{
			Best:   spend.Likely / daysPerMonth,
			Likely: math.Min(spend.Likely, income.Likely+math.Max(0, running*reserveDrawRatio)) / daysPerMonth,
			Worst:  math.Min(income.Worst, spend.Best) / daysPerMonth,
		}

		var budget float64
		switch {
		case atRisk:
			budget = daily.Worst
		case isLean:
			budget = (daily.Likely + daily.Worst) / 2
		default:
			budget = daily.Likely
		}

		result.Forecasts = append(result.Forecasts, ForecastPeriod{
			Period:           month,
			MonthOffset:      month,
			Income:           income.rounded(),
			Expenses:         spend.rounded(),
			NetCashFlow:      net.rounded(),
			ProjectedBalance: projected.rounded(),
			DailyIdealSpend:  daily.rounded(),
			DailyBudget:      stats.Round(budget, 2),
			IsLeanPeriod:     isLean,
			BalanceAtRisk:    atRisk,
		})

		running = projected.Likely
	}

	if len(result.Forecasts) > 0 {
		result.RecommendedDailySpend = result.Forecasts[0].DailyBudget
	}
	return result
}

// dollars formats v with thousands separators and cents, like "$12,345.67".
func dollars(v float64) string {
	return en().Sprintf("$%.2f", v)
}
