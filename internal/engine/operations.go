package engine

import (
	"context"

	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/forecast"
	"github.com/Veraticus/spice-forecast/internal/simulation"
	"github.com/Veraticus/spice-forecast/internal/stats"
)

// ScenarioOutcome is a simulation plus an optional narrative insight.
type ScenarioOutcome struct {
	*simulation.SimulationResult
	RefinedInsight string `json:"refined_insight,omitempty"`
}

// ComparisonOutcome is a comparison plus an optional narrative insight.
type ComparisonOutcome struct {
	*simulation.ComparisonResult
	RefinedInsight string `json:"refined_insight,omitempty"`
}

// SimulateSpendingScenario runs one scenario against the user's model.
// With refine set and a refiner configured, a narrative insight is attached;
// refinement failures are logged and leave the insight empty.
func (e *Engine) SimulateSpendingScenario(ctx context.Context, userID int64, req simulation.ScenarioRequest, refine bool) (*ScenarioOutcome, error) {
	m, err := e.loadModel(ctx, userID)
	if err != nil {
		return nil, err
	}
	sim, err := e.sims.SimulateSpendingScenario(m, req)
	if err != nil {
		return nil, err
	}

	out := &ScenarioOutcome{SimulationResult: sim}
	if refine && e.refiner != nil {
		if insight, err := e.refiner.RefineScenario(ctx, sim); err == nil {
			out.RefinedInsight = insight
		} else {
			e.logger.Warn("Scenario insight unavailable", "user_id", userID, "error", err)
		}
	}
	return out, nil
}

// CompareScenarios evaluates the preset ladder for one scenario type.
func (e *Engine) CompareScenarios(ctx context.Context, userID int64, req simulation.CompareRequest, refine bool) (*ComparisonOutcome, error) {
	m, err := e.loadModel(ctx, userID)
	if err != nil {
		return nil, err
	}
	cmp, err := e.sims.CompareScenarios(m, req)
	if err != nil {
		return nil, err
	}

	out := &ComparisonOutcome{ComparisonResult: cmp}
	if refine && e.refiner != nil {
		if insight, err := e.refiner.RefineComparison(ctx, cmp); err == nil {
			out.RefinedInsight = insight
		} else {
			e.logger.Warn("Comparison insight unavailable", "user_id", userID, "error", err)
		}
	}
	return out, nil
}

// SimulateReallocation tests moving money between categories.
func (e *Engine) SimulateReallocation(ctx context.Context, userID int64, req simulation.ReallocationRequest) (*simulation.ReallocationResult, error) {
	m, err := e.loadModel(ctx, userID)
	if err != nil {
		return nil, err
	}
	return e.sims.SimulateReallocation(m, req)
}

// ProjectFutureSpending projects monthly spending under behavioral changes.
func (e *Engine) ProjectFutureSpending(ctx context.Context, userID int64, req simulation.ProjectionRequest) (*simulation.ProjectionResult, error) {
	m, err := e.loadModel(ctx, userID)
	if err != nil {
		return nil, err
	}
	return e.sims.ProjectFutureSpending(m, req)
}

// GetCompleteLeanAnalysis runs the lean-period and cash-flow analysis over the
// user's transactions from the last forecast.HistoryWindow. A user with no
// transactions in that window gets common.ErrNotFound.
func (e *Engine) GetCompleteLeanAnalysis(ctx context.Context, userID int64, currentBalance float64) (*forecast.CompleteAnalysis, error) {
	if userID <= 0 {
		return nil, common.Validationf("user_id must be positive, got %d", userID)
	}
	if err := requireFinite("current_balance", currentBalance); err != nil {
		return nil, err
	}

	end := e.now()
	txns, err := e.store.GetTransactionsInRange(ctx, userID, end.Add(-forecast.HistoryWindow), end)
	if err != nil {
		return nil, err
	}
	if len(txns) == 0 {
		return nil, common.NotFoundf("no transaction history for user %d", userID)
	}
	return e.analyzer.CompleteLeanAnalysis(txns, currentBalance), nil
}

func requireFinite(name string, v float64) error {
	if !stats.IsFinite(v) {
		return common.Validationf("%s must be a finite number", name)
	}
	return nil
}
