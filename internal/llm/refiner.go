package llm

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/Veraticus/spice-forecast/internal/simulation"
)

const refineSystemPrompt = "You are a financial insights expert. Analyze the provided simulation or comparison data " +
	"and generate a concise, actionable insight in 2-4 sentences formatted in markdown. " +
	"Use **bold** for emphasis. Focus on the most important findings and practical recommendations. " +
	"Use plain language an everyday user understands."

// Refiner turns simulation results into a short narrative insight.
type Refiner struct {
	client Client
	logger *slog.Logger
}

// NewRefiner creates a refiner backed by client.
func NewRefiner(client Client, logger *slog.Logger) *Refiner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refiner{client: client, logger: logger}
}

// RefineScenario summarizes a single scenario simulation.
func (r *Refiner) RefineScenario(ctx context.Context, sim *simulation.SimulationResult) (string, error) {
	if sim == nil {
		return "", fmt.Errorf("no simulation to refine")
	}
	return r.complete(ctx, scenarioPrompt(sim))
}

// RefineComparison summarizes a scenario comparison.
func (r *Refiner) RefineComparison(ctx context.Context, cmp *simulation.ComparisonResult) (string, error) {
	if cmp == nil {
		return "", fmt.Errorf("no comparison to refine")
	}
	return r.complete(ctx, comparisonPrompt(cmp))
}

func (r *Refiner) complete(ctx context.Context, prompt string) (string, error) {
	reply, err := r.client.Complete(ctx, refineSystemPrompt, prompt)
	if err != nil {
		r.logger.Warn("Insight refinement failed", "error", err)
		return "", fmt.Errorf("failed to refine insight: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

func scenarioPrompt(sim *simulation.SimulationResult) string {
	cats := make([]string, 0, len(sim.CategoryBreakdown))
	for c := range sim.CategoryBreakdown {
		cats = append(cats, c)
	}
	slices.Sort(cats)

	var sb strings.Builder
	sb.WriteString("Analyze this budget simulation:\n")
	fmt.Fprintf(&sb, "- Scenario: %s\n", sim.ScenarioType)
	fmt.Fprintf(&sb, "- Target: %.1f%% change\n", sim.TargetPercent)
	fmt.Fprintf(&sb, "- Achievable: %.1f%%\n", sim.AchievablePercent)
	fmt.Fprintf(&sb, "- Monthly baseline: $%.2f\n", sim.BaselineMonthly)
	fmt.Fprintf(&sb, "- Projected monthly: $%.2f\n", sim.ProjectedMonthly)
	fmt.Fprintf(&sb, "- Total change: $%.2f\n", sim.TotalChange)
	fmt.Fprintf(&sb, "- Annual impact: $%.2f\n", sim.AnnualImpact)
	fmt.Fprintf(&sb, "- Feasibility: %s\n", sim.Feasibility)
	fmt.Fprintf(&sb, "- Categories: %s\n", strings.Join(cats, ", "))
	sb.WriteString("\nProvide a clear, actionable insight in 2-4 sentences using markdown formatting.")
	return sb.String()
}

func comparisonPrompt(cmp *simulation.ComparisonResult) string {
	var sb strings.Builder
	sb.WriteString("Analyze this scenario comparison:\n")
	fmt.Fprintf(&sb, "- Baseline monthly: $%.2f\n", cmp.BaselineMonthly)
	fmt.Fprintf(&sb, "- Time period: %d days\n", cmp.PeriodDays)
	fmt.Fprintf(&sb, "- Number of scenarios: %d\n", len(cmp.Scenarios))
	fmt.Fprintf(&sb, "- Recommended scenario: %s\n", cmp.RecommendedScenarioID)
	sb.WriteString("\nScenarios:\n")
	for _, s := range cmp.Scenarios {
		top := s.TopCategories
		if len(top) > 2 {
			top = top[:2]
		}
		fmt.Fprintf(&sb, "- %s (%s): %.1f%% change, %s feasibility, $%.2f monthly change, affects %s\n",
			s.Name, s.ScenarioType, s.TargetPercent, s.Feasibility, s.TotalChange, strings.Join(top, ", "))
	}
	sb.WriteString("\nProvide a clear, actionable insight in 2-4 sentences comparing these scenarios using markdown formatting.")
	return sb.String()
}
