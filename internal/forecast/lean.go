package forecast

import (
	"slices"

	"github.com/Veraticus/spice-forecast/internal/stats"
)

const (
	// MonthlyLeanPercentile marks the lowest quarter of months as lean.
	MonthlyLeanPercentile = 0.25
	// WeeklyLeanPercentile marks the lowest fifth of weeks as lean.
	WeeklyLeanPercentile = 0.2

	minPatternPeriods = 3
	maxPatternStdDays = 7
)

// PatternType names a recurring position of lean periods within the month.
type PatternType string

const (
	PatternMonthStart PatternType = "month_start"
	PatternMonthEnd   PatternType = "month_end"
)

// LeanPeriod is a historical period whose net flow fell at or below the threshold.
type LeanPeriod struct {
	CashFlowPeriod
	Severity float64 `json:"severity"`
}

// LeanPattern describes whether lean periods cluster on certain days of the month.
type LeanPattern struct {
	PatternType PatternType `json:"pattern_type,omitempty"`
	Description string      `json:"description"`
	HasPattern  bool        `json:"has_pattern"`
}

// LeanAnalysis summarizes the lean periods in a cash-flow history.
type LeanAnalysis struct {
	PatternDetected LeanPattern  `json:"pattern_detected"`
	LeanPeriods     []LeanPeriod `json:"lean_periods"`
	LeanFrequency   float64      `json:"lean_frequency"`
	AvgLeanSeverity float64      `json:"avg_lean_severity"`
	Threshold       float64      `json:"threshold"`
}

// IdentifyLeanPeriods flags every period whose net flow is at or below the
// net flow found at the given percentile of the sorted history.
func IdentifyLeanPeriods(history []CashFlowPeriod, percentile float64) LeanAnalysis {
	if len(history) == 0 {
		return LeanAnalysis{
			LeanPeriods:     []LeanPeriod{},
			PatternDetected: LeanPattern{Description: "No data available"},
		}
	}

	flows := make([]float64, len(history))
	for i, p := range history {
		flows[i] = p.NetFlow
	}
	slices.Sort(flows)

	idx := int(float64(len(flows)) * percentile)
	if idx < 0 || idx >= len(flows) {
		idx = 0
	}
	threshold := flows[idx]

	lean := make([]LeanPeriod, 0, len(history))
	var severity float64
	for _, p := range history {
		if p.NetFlow > threshold {
			continue
		}
		lp := LeanPeriod{CashFlowPeriod: p}
		if p.NetFlow < 0 {
			lp.Severity = -p.NetFlow
		}
		severity += lp.Severity
		lean = append(lean, lp)
	}

	analysis := LeanAnalysis{
		LeanPeriods:     lean,
		LeanFrequency:   float64(len(lean)) / float64(len(history)),
		Threshold:       threshold,
		PatternDetected: detectPattern(lean),
	}
	if len(lean) > 0 {
		analysis.AvgLeanSeverity = severity / float64(len(lean))
	}
	return analysis
}

// detectPattern looks for lean periods that start near the same day of the month.
func detectPattern(lean []LeanPeriod) LeanPattern {
	if len(lean) < minPatternPeriods {
		return LeanPattern{Description: "Insufficient data"}
	}

	days := make([]float64, 0, len(lean))
	for _, p := range lean {
		if p.StartDate == nil {
			return noPattern()
		}
		days = append(days, float64(p.StartDate.Day()))
	}

	mean, std := stats.MeanStd(days)
	if std >= maxPatternStdDays {
		return noPattern()
	}
	switch {
	case mean >= 1 && mean <= 7:
		return LeanPattern{
			HasPattern:  true,
			PatternType: PatternMonthStart,
			Description: "Lean periods typically occur at the beginning of the month",
		}
	case mean >= 23 && mean <= 31:
		return LeanPattern{
			HasPattern:  true,
			PatternType: PatternMonthEnd,
			Description: "Lean periods typically occur at the end of the month",
		}
	}
	return noPattern()
}

func noPattern() LeanPattern {
	return LeanPattern{Description: "No clear pattern detected"}
}
