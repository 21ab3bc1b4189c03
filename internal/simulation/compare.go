package simulation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/Veraticus/spice-forecast/internal/stats"
)

const (
	minScenarios  = 2
	maxScenarios  = 5
	topCategories = 3
)

type preset struct {
	name    string
	percent float64
}

var presets = map[int][]preset{
	2: {{"Conservative", 10}, {"Aggressive", 25}},
	3: {{"Conservative", 10}, {"Moderate", 20}, {"Aggressive", 30}},
	4: {{"Conservative", 5}, {"Moderate", 15}, {"Ambitious", 25}, {"Aggressive", 35}},
	5: {{"Minimal", 5}, {"Conservative", 10}, {"Moderate", 20}, {"Ambitious", 30}, {"Aggressive", 40}},
}

var feasibilityWeight = map[string]float64{
	FeasibilityHighlyAchievable: 1.0,
	FeasibilityAchievable:       0.8,
	FeasibilityChallenging:      0.5,
	FeasibilityUnrealistic:      0.2,
}

// ScenarioID returns the stable identifier of a preset scenario, such as "reduction-20".
func ScenarioID(typ ScenarioType, percent float64) string {
	return fmt.Sprintf("%s-%s", typ, strconv.FormatFloat(percent, 'f', -1, 64))
}

// ParseScenarioID splits an identifier produced by ScenarioID.
func ParseScenarioID(id string) (ScenarioType, float64, error) {
	typ, pct, ok := strings.Cut(strings.TrimSpace(id), "-")
	if !ok {
		return "", 0, common.Validationf("malformed scenario_id %q", id)
	}
	t := ScenarioType(typ)
	if !t.IsValid() {
		return "", 0, common.Validationf("scenario_id %q has unknown type %q", id, typ)
	}
	percent, err := strconv.ParseFloat(pct, 64)
	if err != nil || percent <= 0 || percent > 100 {
		return "", 0, common.Validationf("scenario_id %q has invalid percent %q", id, pct)
	}
	return t, percent, nil
}

// CompareScenarios runs a conservative-to-aggressive ladder of preset scenarios
// and recommends the one with the best feasibility-weighted achievable change.
func (e *Engine) CompareScenarios(m *model.BehaviorModel, req CompareRequest) (*ComparisonResult, error) {
	if !req.Type.IsValid() {
		return nil, common.Validationf("scenario_type must be %q or %q, got %q", ScenarioReduction, ScenarioIncrease, req.Type)
	}
	if req.NumScenarios < minScenarios || req.NumScenarios > maxScenarios {
		return nil, common.Validationf("num_scenarios must be in [%d, %d], got %d", minScenarios, maxScenarios, req.NumScenarios)
	}
	if err := validatePeriod(req.PeriodDays); err != nil {
		return nil, err
	}
	if err := requireModel(m); err != nil {
		return nil, err
	}

	cats, err := snapshot(m, nil, req.PeriodDays)
	if err != nil {
		return nil, err
	}

	result := &ComparisonResult{
		ScenarioType: req.Type,
		PeriodDays:   req.PeriodDays,
	}

	bestScore := math.Inf(-1)
	for _, p := range presets[req.NumScenarios] {
		sim, err := simulate(cats, ScenarioRequest{
			Type:          req.Type,
			TargetPercent: p.percent,
			PeriodDays:    req.PeriodDays,
		})
		if err != nil {
			return nil, err
		}

		summary := summarize(p, sim)
		result.Scenarios = append(result.Scenarios, summary)
		result.BaselineMonthly = sim.BaselineMonthly

		// Presets ascend by target, so strict comparison keeps the lower target on ties.
		if summary.Score > bestScore {
			bestScore = summary.Score
			result.RecommendedScenarioID = summary.ScenarioID
		}

		result.ComparisonChart.Labels = append(result.ComparisonChart.Labels, p.name)
		result.ComparisonChart.TargetPercent = append(result.ComparisonChart.TargetPercent, sim.TargetPercent)
		result.ComparisonChart.Achievable = append(result.ComparisonChart.Achievable, sim.AchievablePercent)
		result.ComparisonChart.MonthlyChange = append(result.ComparisonChart.MonthlyChange, sim.TotalChange)
		result.ComparisonChart.AnnualImpact = append(result.ComparisonChart.AnnualImpact, sim.AnnualImpact)
	}

	result.Insights = comparisonInsights(result, cats)
	return result, nil
}

func summarize(p preset, sim *SimulationResult) ScenarioSummary {
	difficulty := 1.0
	if sim.TargetPercent > 0 {
		difficulty = stats.Clamp(1-sim.AchievablePercent/sim.TargetPercent, 0, 1)
	}

	top := make([]string, 0, topCategories)
	for _, rec := range sim.Recommendations {
		if len(top) == topCategories {
			break
		}
		top = append(top, rec.Category)
	}

	verb := "Cut"
	if sim.ScenarioType == ScenarioIncrease {
		verb = "Raise"
	}

	return ScenarioSummary{
		ScenarioID:        ScenarioID(sim.ScenarioType, p.percent),
		Name:              p.name,
		Description:       fmt.Sprintf("%s spending by %g%% across all categories", verb, p.percent),
		ScenarioType:      sim.ScenarioType,
		TargetPercent:     sim.TargetPercent,
		AchievablePercent: sim.AchievablePercent,
		BaselineMonthly:   sim.BaselineMonthly,
		ProjectedMonthly:  sim.ProjectedMonthly,
		TotalChange:       sim.TotalChange,
		AnnualImpact:      sim.AnnualImpact,
		Feasibility:       sim.Feasibility,
		DifficultyScore:   roundTo(difficulty, 3),
		Score:             roundTo(sim.AchievablePercent*feasibilityWeight[sim.Feasibility], 3),
		TopCategories:     top,
		KeyInsight:        keyInsight(sim),
	}
}

func keyInsight(sim *SimulationResult) string {
	if sim.ScenarioType == ScenarioIncrease {
		return fmt.Sprintf("About %.1f%% more spending is supported, adding $%.2f per year", sim.AchievablePercent, sim.AnnualImpact)
	}
	switch sim.Feasibility {
	case FeasibilityHighlyAchievable, FeasibilityAchievable:
		return fmt.Sprintf("Saves about $%.2f per year with changes your history supports", -sim.AnnualImpact)
	case FeasibilityChallenging:
		return fmt.Sprintf("Only %.1f%% of the %g%% target is realistic; expect real trade-offs", sim.AchievablePercent, sim.TargetPercent)
	default:
		return fmt.Sprintf("A %g%% cut exceeds the flexibility in your spending", sim.TargetPercent)
	}
}

func comparisonInsights(result *ComparisonResult, cats []categorySnapshot) []string {
	var insights []string

	for _, s := range result.Scenarios {
		if s.ScenarioID == result.RecommendedScenarioID {
			insights = append(insights, fmt.Sprintf("%s offers the best balance: %.1f%% achievable of a %g%% target (%s)",
				s.Name, s.AchievablePercent, s.TargetPercent, s.Feasibility))
			break
		}
	}

	for _, s := range result.Scenarios {
		if s.Feasibility == FeasibilityChallenging || s.Feasibility == FeasibilityUnrealistic {
			insights = append(insights, fmt.Sprintf("Targets of %g%% or more go beyond what your spending flexibility supports", s.TargetPercent))
			break
		}
	}

	var flexible []string
	for _, c := range cats {
		if difficultyFor(c.elasticity) == DifficultyEasy {
			flexible = append(flexible, c.name)
		}
	}
	if len(flexible) > 0 {
		if len(flexible) > topCategories {
			flexible = flexible[:topCategories]
		}
		insights = append(insights, "Most flexible categories: "+strings.Join(flexible, ", "))
	} else {
		insights = append(insights, "No category shows high flexibility; small changes across several categories work best")
	}

	return insights
}
