package simulation

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/model"
)

func validateScenario(req ScenarioRequest) error {
	if !req.Type.IsValid() {
		return common.Validationf("scenario_type must be %q or %q, got %q", ScenarioReduction, ScenarioIncrease, req.Type)
	}
	if math.IsNaN(req.TargetPercent) || req.TargetPercent <= 0 || req.TargetPercent > 100 {
		return common.Validationf("target_percent must be in (0, 100], got %v", req.TargetPercent)
	}
	return validatePeriod(req.PeriodDays)
}

// SimulateSpendingScenario estimates what a percentage change in spending looks
// like once each category's elasticity caps how far it can move.
func (e *Engine) SimulateSpendingScenario(m *model.BehaviorModel, req ScenarioRequest) (*SimulationResult, error) {
	if err := validateScenario(req); err != nil {
		return nil, err
	}
	if err := requireModel(m); err != nil {
		return nil, err
	}

	cats, err := snapshot(m, req.TargetCategories, req.PeriodDays)
	if err != nil {
		return nil, err
	}

	return simulate(cats, req)
}

func simulate(cats []categorySnapshot, req ScenarioRequest) (*SimulationResult, error) {
	sign := -1.0
	if req.Type == ScenarioIncrease {
		sign = 1.0
	}

	result := &SimulationResult{
		ScenarioType:      req.Type,
		TargetPercent:     req.TargetPercent,
		PeriodDays:        req.PeriodDays,
		CategoryBreakdown: make(map[string]CategoryAnalysis, len(cats)),
	}
	if len(req.TargetCategories) > 0 {
		for _, c := range cats {
			result.TargetedCategories = append(result.TargetedCategories, c.name)
		}
		slices.Sort(result.TargetedCategories)
	}

	var baseline, weighted float64
	recs := make([]Recommendation, 0, len(cats))
	for _, c := range cats {
		maxPct := c.elasticity * 100
		achievable := math.Min(req.TargetPercent, maxPct)
		change := sign * c.monthly * achievable / 100
		difficulty := difficultyFor(c.elasticity)

		baseline += c.monthly
		weighted += c.monthly * achievable

		result.CategoryBreakdown[c.name] = CategoryAnalysis{
			CurrentMonthly:   money(c.monthly),
			MaxChangePct:     roundTo(maxPct, 2),
			AchievablePct:    roundTo(achievable, 2),
			MonthlyChange:    money(change),
			Confidence:       roundTo(math.Min(1, c.stats.Count/fullConfidenceTxns), 2),
			Difficulty:       difficulty,
			Elasticity:       roundTo(c.elasticity, 3),
			TransactionCount: roundTo(c.stats.Count, 2),
		}

		if change != 0 {
			recs = append(recs, recommendationFor(c.name, req.Type, achievable, change, difficulty))
		}
	}

	achievable := 0.0
	if baseline > 0 {
		achievable = weighted / baseline
	}
	projected := baseline * (1 + sign*achievable/100)
	total := projected - baseline

	if err := checkFinite("spending scenario", baseline, achievable, projected); err != nil {
		return nil, err
	}

	result.AchievablePercent = math.Min(roundTo(achievable, 2), req.TargetPercent)
	result.BaselineMonthly = money(baseline)
	result.ProjectedMonthly = money(projected)
	result.TotalChange = money(total)
	result.AnnualImpact = money(total * 12)
	result.Feasibility = feasibilityFor(achievable, req.TargetPercent)

	slices.SortStableFunc(recs, func(a, b Recommendation) int {
		return cmp.Compare(math.Abs(b.MonthlyImpact), math.Abs(a.MonthlyImpact))
	})
	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	result.Recommendations = recs

	return result, nil
}

func recommendationFor(category string, typ ScenarioType, pct, change float64, difficulty string) Recommendation {
	rec := Recommendation{
		Category:      category,
		Difficulty:    difficulty,
		MonthlyImpact: money(change),
	}
	if typ == ScenarioIncrease {
		rec.Action = "increase"
		rec.Message = fmt.Sprintf("Increase %s spending by %.1f%% (+$%.2f/month)", category, pct, change)
		return rec
	}
	rec.Action = "reduce"
	rec.Message = fmt.Sprintf("Reduce %s spending by %.1f%% to save $%.2f/month (%s)", category, pct, -change, difficulty)
	return rec
}
