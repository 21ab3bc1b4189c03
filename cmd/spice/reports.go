package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-forecast/internal/cli"
	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/Veraticus/spice-forecast/internal/simulation"
)

const defaultPeriodDays = 90

func addPeriodFlag(cmd *cobra.Command) {
	cmd.Flags().Int("period", defaultPeriodDays, "days of history the model represents")
}

func periodFlag(cmd *cobra.Command) int {
	days, _ := cmd.Flags().GetInt("period")
	return days
}

func modelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "model",
		Short: "Show the learned behavior model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(a *app) error {
				m, err := a.engine.GetBehaviorModel(cmd.Context(), userFlag(cmd))
				if err != nil {
					return err
				}
				return emit(cmd, m, func() string { return cli.RenderBehaviorModel(m) })
			})
		},
	}
}

func simulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate PERCENT",
		Short: "Simulate cutting or raising spending by a percentage",
		Long: `Estimate how much of a spending change is realistic, category by category,
given how often and how impulsively you spend.

Examples:
  spice simulate 20
  spice simulate 10 --categories DINING,SHOPPING
  spice simulate 15 --increase`,
		Args: cobra.ExactArgs(1),
		RunE: runSimulate,
	}

	cmd.Flags().Bool("increase", false, "simulate an increase instead of a reduction")
	cmd.Flags().StringSlice("categories", nil, "limit the scenario to these categories")
	cmd.Flags().Bool("refine", false, "ask the LLM for a narrative insight")
	addPeriodFlag(cmd)

	return cmd
}

func scenarioTypeFlag(cmd *cobra.Command) simulation.ScenarioType {
	if increase, _ := cmd.Flags().GetBool("increase"); increase {
		return simulation.ScenarioIncrease
	}
	return simulation.ScenarioReduction
}

func runSimulate(cmd *cobra.Command, args []string) error {
	pct, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "%"), 64)
	if err != nil {
		return common.Validationf("invalid percent %q", args[0])
	}
	categories, _ := cmd.Flags().GetStringSlice("categories")
	refine, _ := cmd.Flags().GetBool("refine")

	req := simulation.ScenarioRequest{
		Type:             scenarioTypeFlag(cmd),
		TargetCategories: upperAll(categories),
		TargetPercent:    pct,
		PeriodDays:       periodFlag(cmd),
	}
	return withApp(cmd, func(a *app) error {
		out, err := a.engine.SimulateSpendingScenario(cmd.Context(), userFlag(cmd), req, refine)
		if err != nil {
			return err
		}
		return emit(cmd, out, func() string { return cli.RenderScenario(out) })
	})
}

func compareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare a ladder of scenarios and recommend one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, _ := cmd.Flags().GetInt("scenarios")
			refine, _ := cmd.Flags().GetBool("refine")
			req := simulation.CompareRequest{
				Type:         scenarioTypeFlag(cmd),
				PeriodDays:   periodFlag(cmd),
				NumScenarios: n,
			}
			return withApp(cmd, func(a *app) error {
				out, err := a.engine.CompareScenarios(cmd.Context(), userFlag(cmd), req, refine)
				if err != nil {
					return err
				}
				return emit(cmd, out, func() string { return cli.RenderComparison(out) })
			})
		},
	}

	cmd.Flags().Bool("increase", false, "compare increases instead of reductions")
	cmd.Flags().Int("scenarios", 3, "number of scenarios (2-5)")
	cmd.Flags().Bool("refine", false, "ask the LLM for a narrative insight")
	addPeriodFlag(cmd)

	return cmd
}

func reallocateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reallocate",
		Short: "Move monthly money between categories",
		Long: `Check whether moving money between categories is realistic. Monthly
deltas must sum to zero.

Example:
  spice reallocate --move DINING=-100 --move GROCERIES=+100`,
		Args: cobra.NoArgs,
		RunE: runReallocate,
	}

	cmd.Flags().StringArray("move", nil, "CATEGORY=DELTA monthly change, repeatable")
	_ = cmd.MarkFlagRequired("move")
	addPeriodFlag(cmd)

	return cmd
}

func runReallocate(cmd *cobra.Command, _ []string) error {
	moves, _ := cmd.Flags().GetStringArray("move")
	deltas, err := parseDeltas(moves)
	if err != nil {
		return err
	}

	req := simulation.ReallocationRequest{Reallocations: deltas, PeriodDays: periodFlag(cmd)}
	return withApp(cmd, func(a *app) error {
		res, err := a.engine.SimulateReallocation(cmd.Context(), userFlag(cmd), req)
		if err != nil {
			return err
		}
		return emit(cmd, res, func() string { return cli.RenderReallocation(res) })
	})
}

func projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project spending month by month",
		Long: `Project future spending from the behavior model, optionally replaying a
comparison scenario or applying per-category percentage changes.

Examples:
  spice project --months 12
  spice project --scenario reduction-10
  spice project --change DINING=-20 --change SHOPPING=-10`,
		Args: cobra.NoArgs,
		RunE: runProject,
	}

	cmd.Flags().Int("months", 6, "months to project (1-24)")
	cmd.Flags().String("scenario", "", "scenario ID to replay, such as reduction-20")
	cmd.Flags().StringArray("change", nil, "CATEGORY=PERCENT change, repeatable")
	addPeriodFlag(cmd)

	return cmd
}

func runProject(cmd *cobra.Command, _ []string) error {
	months, _ := cmd.Flags().GetInt("months")
	scenario, _ := cmd.Flags().GetString("scenario")
	changes, _ := cmd.Flags().GetStringArray("change")

	req := simulation.ProjectionRequest{
		ScenarioID: scenario,
		Months:     months,
		PeriodDays: periodFlag(cmd),
	}
	if len(changes) > 0 {
		deltas, err := parseDeltas(changes)
		if err != nil {
			return err
		}
		req.BehavioralChanges = deltas
	}

	return withApp(cmd, func(a *app) error {
		res, err := a.engine.ProjectFutureSpending(cmd.Context(), userFlag(cmd), req)
		if err != nil {
			return err
		}
		return emit(cmd, res, func() string { return cli.RenderProjection(res) })
	})
}

func leanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lean",
		Short: "Forecast lean months, runway and risk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			balance, _ := cmd.Flags().GetFloat64("balance")
			return withApp(cmd, func(a *app) error {
				res, err := a.engine.GetCompleteLeanAnalysis(cmd.Context(), userFlag(cmd), balance)
				if err != nil {
					return err
				}
				return emit(cmd, res, func() string { return cli.RenderLeanAnalysis(res) })
			})
		},
	}

	cmd.Flags().Float64("balance", 0, "current account balance")

	return cmd
}

func incomeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "income",
		Short: "Show income patterns and the income/expense ratio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(a *app) error {
				res, err := a.engine.IncomeInsights(cmd.Context(), userFlag(cmd))
				if err != nil {
					return err
				}
				return emit(cmd, res, func() string { return cli.RenderIncomeInsights(res) })
			})
		},
	}
}

// parseDeltas parses CATEGORY=NUMBER pairs. Categories are upper-cased and
// repeated categories add up.
func parseDeltas(pairs []string) (map[string]float64, error) {
	deltas := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		cat, raw, ok := strings.Cut(pair, "=")
		cat = model.NormalizeCategory(cat)
		if !ok || cat == "" {
			return nil, common.Validationf("expected CATEGORY=NUMBER, got %q", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, common.Validationf("invalid number in %q", pair)
		}
		if !model.IsKnownCategory(cat) {
			return nil, common.Validationf("unknown category %q", cat)
		}
		deltas[cat] += v
	}
	return deltas, nil
}

func upperAll(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = model.NormalizeCategory(s)
	}
	return out
}
