package simulation

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/Veraticus/spice-forecast/internal/stats"
)

const (
	maxProjectionMonths = 24
	firstMonthConfident = 0.95
	confidenceStep      = 0.025
	confidenceFloor     = 0.3
	trendThreshold      = 0.01
)

// ProjectionConfidence is the confidence assigned to month m of a projection.
// It never increases with m.
func ProjectionConfidence(month int) float64 {
	return math.Max(confidenceFloor, firstMonthConfident-confidenceStep*float64(month-1))
}

// ProjectFutureSpending projects monthly spending with constant per-category
// percentage changes applied to each category's current monthly spend.
func (e *Engine) ProjectFutureSpending(m *model.BehaviorModel, req ProjectionRequest) (*ProjectionResult, error) {
	if req.Months < 1 || req.Months > maxProjectionMonths {
		return nil, common.Validationf("projection_months must be in [1, %d], got %d", maxProjectionMonths, req.Months)
	}
	if err := validatePeriod(req.PeriodDays); err != nil {
		return nil, err
	}
	for cat, pct := range req.BehavioralChanges {
		if !stats.IsFinite(pct) || pct < -100 {
			return nil, common.Validationf("behavioral change for %s must be a finite percentage of at least -100, got %v", cat, pct)
		}
	}
	if err := requireModel(m); err != nil {
		return nil, err
	}

	cats, err := snapshot(m, nil, req.PeriodDays)
	if err != nil {
		return nil, err
	}

	changes, err := scenarioChanges(cats, req)
	if err != nil {
		return nil, err
	}

	var ignored []string
	for raw, pct := range req.BehavioralChanges {
		name := model.NormalizeCategory(raw)
		if _, ok := m.CategoryStats[name]; !ok {
			ignored = append(ignored, name)
			continue
		}
		changes[name] = pct
	}
	slices.Sort(ignored)
	ignored = slices.Compact(ignored)

	var baseline, projected float64
	breakdown := make(map[string]float64, len(cats))
	for _, c := range cats {
		amount := c.monthly * (1 + changes[c.name]/100)
		baseline += c.monthly
		projected += amount
		breakdown[c.name] = money(amount)
	}
	if err := checkFinite("projection", baseline, projected); err != nil {
		return nil, err
	}
	monthlyChange := projected - baseline

	result := &ProjectionResult{
		ScenarioID:        req.ScenarioID,
		ProjectionMonths:  req.Months,
		BaselineMonthly:   money(baseline),
		IgnoredCategories: ignored,
	}

	start := e.now()
	first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location())
	var cumulative, confidenceSum float64
	for month := 1; month <= req.Months; month++ {
		cumulative += monthlyChange
		confidence := ProjectionConfidence(month)
		confidenceSum += confidence
		label := first.AddDate(0, month, 0).Format("Jan 2006")

		result.MonthlyProjections = append(result.MonthlyProjections, MonthlyProjection{
			Month:             month,
			MonthLabel:        label,
			ProjectedSpending: money(projected),
			CategoryBreakdown: breakdown,
			CumulativeChange:  money(cumulative),
			Confidence:        roundTo(confidence, 3),
		})

		result.ProjectionChart.Labels = append(result.ProjectionChart.Labels, label)
		result.ProjectionChart.Baseline = append(result.ProjectionChart.Baseline, money(baseline))
		result.ProjectionChart.Projected = append(result.ProjectionChart.Projected, money(projected))
		result.ProjectionChart.CumulativeChange = append(result.ProjectionChart.CumulativeChange, money(cumulative))
		result.ProjectionChart.Confidence = append(result.ProjectionChart.Confidence, roundTo(confidence, 3))
	}

	months := float64(req.Months)
	result.TotalBaseline = money(baseline * months)
	result.TotalProjected = money(projected * months)
	result.CumulativeChange = money(cumulative)
	result.AnnualImpact = money(monthlyChange * 12)
	result.Trend = trendLabel(monthlyChange, baseline)
	result.TrendAnalysis = trendAnalysis(result.Trend, monthlyChange, baseline)
	result.ConfidenceLevel = confidenceLevel(confidenceSum / months)
	result.KeyInsights = projectionInsights(result, cats, changes, ignored)

	return result, nil
}

// scenarioChanges replays a scenario id into per-category percentage changes.
func scenarioChanges(cats []categorySnapshot, req ProjectionRequest) (map[string]float64, error) {
	changes := make(map[string]float64, len(cats))
	if req.ScenarioID == "" {
		return changes, nil
	}

	typ, pct, err := ParseScenarioID(req.ScenarioID)
	if err != nil {
		return nil, err
	}
	sim, err := simulate(cats, ScenarioRequest{Type: typ, TargetPercent: pct, PeriodDays: req.PeriodDays})
	if err != nil {
		return nil, err
	}

	sign := -1.0
	if typ == ScenarioIncrease {
		sign = 1.0
	}
	for name, a := range sim.CategoryBreakdown {
		changes[name] = sign * a.AchievablePct
	}
	return changes, nil
}

func trendLabel(monthlyChange, baseline float64) string {
	threshold := math.Abs(baseline) * trendThreshold
	switch {
	case monthlyChange < -threshold:
		return TrendDecreasing
	case monthlyChange > threshold:
		return TrendIncreasing
	default:
		return TrendStable
	}
}

func trendAnalysis(trend string, monthlyChange, baseline float64) string {
	pct := 0.0
	if baseline > 0 {
		pct = monthlyChange / baseline * 100
	}
	switch trend {
	case TrendDecreasing:
		return fmt.Sprintf("Spending is projected to fall by $%.2f/month (%.1f%%)", -monthlyChange, -pct)
	case TrendIncreasing:
		return fmt.Sprintf("Spending is projected to rise by $%.2f/month (%.1f%%)", monthlyChange, pct)
	default:
		return "Spending is projected to stay roughly level"
	}
}

func confidenceLevel(avg float64) string {
	switch {
	case avg >= 0.8:
		return "high"
	case avg >= 0.6:
		return "medium"
	default:
		return "low"
	}
}

func projectionInsights(r *ProjectionResult, cats []categorySnapshot, changes map[string]float64, ignored []string) []string {
	var insights []string

	switch r.Trend {
	case TrendDecreasing:
		insights = append(insights, fmt.Sprintf("Over %d months you would spend $%.2f less", r.ProjectionMonths, -r.CumulativeChange))
	case TrendIncreasing:
		insights = append(insights, fmt.Sprintf("Over %d months you would spend $%.2f more", r.ProjectionMonths, r.CumulativeChange))
	default:
		insights = append(insights, "No meaningful change from your current spending")
	}

	var biggest string
	var biggestImpact float64
	for _, c := range cats {
		impact := math.Abs(c.monthly * changes[c.name] / 100)
		if impact > biggestImpact {
			biggest, biggestImpact = c.name, impact
		}
	}
	if biggest != "" {
		insights = append(insights, fmt.Sprintf("%s drives the largest change at $%.2f/month", biggest, biggestImpact))
	}

	if r.ProjectionMonths > 12 {
		insights = append(insights, "Months beyond the first year carry lower confidence")
	}
	if len(ignored) > 0 {
		insights = append(insights, "Ignored changes for categories with no history: "+strings.Join(ignored, ", "))
	}

	return insights
}
