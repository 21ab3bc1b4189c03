package forecast

import (
	"math"

	"github.com/Veraticus/spice-forecast/internal/stats"
)

const (
	// SmoothingAlpha weights the newest month in the exponential smoothing forecast.
	SmoothingAlpha = 0.3

	fullHistoryMonths  = 6
	maxForecastConf    = 0.95
	trendGrowthCutoff  = 0.1
	runwayDownsideK    = 1.5
	runwayExpenseRatio = 1.1
)

// Income trend labels.
const (
	TrendGrowing          = "growing"
	TrendStable           = "stable"
	TrendDeclining        = "declining"
	TrendInsufficientData = "insufficient_data"
)

// ExponentialSmoothingForecast returns the next-month income forecast and a
// confidence in [0, 0.95]. Confidence grows with history length up to six
// months and shrinks with the coefficient of variation.
func ExponentialSmoothingForecast(history []float64) (forecast, confidence float64) {
	if len(history) == 0 {
		return 0, 0
	}

	level := history[0]
	for _, v := range history[1:] {
		level = SmoothingAlpha*v + (1-SmoothingAlpha)*level
	}

	mean, std := stats.MeanStd(history)
	cv := math.Min(stats.CoefficientOfVariation(mean, std), 1)
	coverage := math.Min(1, float64(len(history))/fullHistoryMonths)
	confidence = stats.Clamp(coverage*(1-cv), 0, maxForecastConf)

	return level, stats.Round(confidence, 2)
}

// IncomeTrend is the direction of income across a history.
type IncomeTrend struct {
	Trend      string  `json:"trend"`
	GrowthRate float64 `json:"growth_rate"`
}

// AnalyzeIncomeTrend compares the mean of the later half of the history
// against the earlier half. A first half with no income yields zero growth.
func AnalyzeIncomeTrend(history []float64) IncomeTrend {
	if len(history) < 2 {
		return IncomeTrend{Trend: TrendInsufficientData}
	}

	half := len(history) / 2
	first, _ := stats.MeanStd(history[:half])
	second, _ := stats.MeanStd(history[half:])

	var growth float64
	if first > 0 {
		growth = (second - first) / first
	}

	trend := TrendStable
	switch {
	case growth > trendGrowthCutoff:
		trend = TrendGrowing
	case growth < -trendGrowthCutoff:
		trend = TrendDeclining
	}
	return IncomeTrend{Trend: trend, GrowthRate: stats.Round(growth, 3)}
}

// Runway is how long a balance lasts under worst-case monthly cash flow.
type Runway struct {
	RunwayMonths *float64 `json:"runway_months"`
	WorstCaseNet float64  `json:"worst_case_net"`
	Sustainable  bool     `json:"sustainable"`
}

// CalculateRunway assumes income falls by 1.5 volatilities and expenses rise
// 10%. A non-negative worst case is sustainable and has no runway limit.
func CalculateRunway(balance, avgIncome, avgExpenses, volatility float64) Runway {
	worstIncome := math.Max(0, avgIncome*(1-runwayDownsideK*volatility))
	net := worstIncome - avgExpenses*runwayExpenseRatio

	r := Runway{WorstCaseNet: stats.Round(net, 2)}
	if net >= 0 {
		r.Sustainable = true
		return r
	}

	months := 0.0
	if balance > 0 {
		months = stats.Round(balance/math.Abs(net), 1)
	}
	r.RunwayMonths = &months
	return r
}
