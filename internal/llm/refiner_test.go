package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/Veraticus/spice-forecast/internal/simulation"
)

func TestRefiner_RefineScenario(t *testing.T) {
	client := &fakeClient{replies: []string{"  **Cut dining first.** It is your most flexible category.\n"}}
	r := NewRefiner(client, nil)

	sim := &simulation.SimulationResult{
		ScenarioType:      simulation.ScenarioReduction,
		TargetPercent:     20,
		AchievablePercent: 18.5,
		BaselineMonthly:   2500,
		ProjectedMonthly:  2037.5,
		TotalChange:       -462.5,
		AnnualImpact:      -5550,
		Feasibility:       simulation.FeasibilityHighlyAchievable,
		CategoryBreakdown: map[string]simulation.CategoryAnalysis{
			model.CategoryShopping: {},
			model.CategoryDining:   {},
		},
	}

	insight, err := r.RefineScenario(context.Background(), sim)
	require.NoError(t, err)
	assert.Equal(t, "**Cut dining first.** It is your most flexible category.", insight)

	require.Equal(t, 1, client.calls())
	prompt := client.prompts[0]
	assert.Contains(t, prompt, "- Scenario: reduction")
	assert.Contains(t, prompt, "- Achievable: 18.5%")
	assert.Contains(t, prompt, "- Categories: DINING, SHOPPING")
}

func TestRefiner_RefineComparison(t *testing.T) {
	client := &fakeClient{replies: []string{"Go with the moderate plan."}}
	r := NewRefiner(client, nil)

	cmp := &simulation.ComparisonResult{
		BaselineMonthly:       2500,
		PeriodDays:            30,
		RecommendedScenarioID: "reduction-10",
		Scenarios: []simulation.ScenarioSummary{
			{Name: "Conservative Savings", ScenarioType: simulation.ScenarioReduction, TargetPercent: 5, TopCategories: []string{"DINING", "SHOPPING", "TRAVEL"}},
			{Name: "Moderate Savings", ScenarioType: simulation.ScenarioReduction, TargetPercent: 10, TopCategories: []string{"DINING"}},
		},
	}

	insight, err := r.RefineComparison(context.Background(), cmp)
	require.NoError(t, err)
	assert.Equal(t, "Go with the moderate plan.", insight)

	prompt := client.prompts[0]
	assert.Contains(t, prompt, "- Recommended scenario: reduction-10")
	assert.Contains(t, prompt, "affects DINING, SHOPPING\n")
	assert.NotContains(t, prompt, "TRAVEL")
}

func TestRefiner_Errors(t *testing.T) {
	r := NewRefiner(&fakeClient{err: errors.New("down")}, nil)

	_, err := r.RefineScenario(context.Background(), &simulation.SimulationResult{})
	require.Error(t, err)

	_, err = r.RefineScenario(context.Background(), nil)
	require.Error(t, err)

	_, err = r.RefineComparison(context.Background(), nil)
	require.Error(t, err)
}
