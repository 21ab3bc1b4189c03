package simulation

import (
	"fmt"
	"math"
	"slices"

	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/Veraticus/spice-forecast/internal/stats"
)

// BalanceTolerance is the largest net change a reallocation may carry.
const BalanceTolerance = 0.01

const comfortableIncreasePct = 50

var changeLevels = []string{ChangeComfortable, ChangeModerate, ChangeDifficult, ChangeUnrealistic}

// ValidateReallocations checks that deltas are finite and sum to zero.
func ValidateReallocations(deltas map[string]float64) error {
	if len(deltas) == 0 {
		return common.Validationf("reallocations must not be empty")
	}
	var total float64
	for cat, d := range deltas {
		if !stats.IsFinite(d) {
			return common.Validationf("reallocation for %s is not a finite number", cat)
		}
		total += d
	}
	if math.Abs(total) > BalanceTolerance {
		return common.Validationf("reallocations must sum to zero (net: %.2f); money must be moved, not created or destroyed", total)
	}
	return nil
}

// SimulateReallocation moves monthly budget between categories and rates each move.
// Categories absent from the model, such as a new SAVINGS bucket, start at zero.
func (e *Engine) SimulateReallocation(m *model.BehaviorModel, req ReallocationRequest) (*ReallocationResult, error) {
	if err := ValidateReallocations(req.Reallocations); err != nil {
		return nil, err
	}
	if err := validatePeriod(req.PeriodDays); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, common.NotFoundf("no behavior model")
	}

	deltas := make(map[string]float64, len(req.Reallocations))
	for raw, d := range req.Reallocations {
		name := model.NormalizeCategory(raw)
		if _, ok := m.CategoryStats[name]; !ok && !model.IsKnownCategory(name) {
			return nil, common.NotFoundf("category %s is neither known nor present in behavior model", name)
		}
		deltas[name] += d
	}

	names := make([]string, 0, len(deltas))
	for name := range deltas {
		names = append(names, name)
	}
	slices.Sort(names)

	result := &ReallocationResult{IsBalanced: true}
	for _, c := range m.Categories() {
		result.BaselineMonthly += monthlyAmount(m.CategoryStats[c].Sum, req.PeriodDays)
	}

	worst := 0
	for _, name := range names {
		view := categoryView(m, name, m.CategoryStats[name], req.PeriodDays)
		realloc, level := rateReallocation(view, deltas[name])
		if level > worst {
			worst = level
		}
		result.Reallocations = append(result.Reallocations, realloc)

		if realloc.NewMonthly < view.floor && deltas[name] < 0 {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"%s would drop to $%.2f/month, below its baseline of $%.2f/month",
				name, realloc.NewMonthly, money(view.floor)))
		}
		if rec := reallocationAdvice(view, realloc); rec != "" {
			result.Recommendations = append(result.Recommendations, rec)
		}

		result.VisualData.Categories = append(result.VisualData.Categories, name)
		result.VisualData.Current = append(result.VisualData.Current, realloc.CurrentMonthly)
		result.VisualData.Proposed = append(result.VisualData.Proposed, realloc.NewMonthly)
	}

	var net float64
	for _, d := range deltas {
		net += d
	}
	projected := result.BaselineMonthly + net
	if err := checkFinite("reallocation", result.BaselineMonthly, projected); err != nil {
		return nil, err
	}
	result.BaselineMonthly = money(result.BaselineMonthly)
	result.ProjectedMonthly = money(projected)
	result.FeasibilityAssessment = assessment(changeLevels[worst])
	if len(result.Recommendations) == 0 {
		result.Recommendations = append(result.Recommendations, "Track the new amounts for a month to confirm they hold")
	}

	return result, nil
}

func rateReallocation(view categorySnapshot, delta float64) (CategoryReallocation, int) {
	current := view.monthly
	next := current + delta

	r := CategoryReallocation{
		Category:       view.name,
		CurrentMonthly: money(current),
		ChangeAmount:   money(delta),
		NewMonthly:     money(next),
		BaselineFloor:  money(view.floor),
	}

	switch {
	case current > 0:
		r.ChangePercent = roundTo(delta/current*100, 2)
	case delta > 0:
		r.ChangePercent = 100
	}

	var level int
	switch {
	case delta >= 0:
		if r.ChangePercent > comfortableIncreasePct && current > 0 {
			level = 1
		}
		r.ImpactNote = fmt.Sprintf("Add $%.2f/month", delta)
		if current == 0 {
			r.ImpactNote = fmt.Sprintf("New allocation of $%.2f/month", delta)
		}
	case current <= 0 || next < 0:
		level = 3
		r.ImpactNote = fmt.Sprintf("Cannot cut $%.2f/month from $%.2f/month of spending", -delta, current)
	default:
		reductionPct := -delta / current * 100
		ratio := reductionPct / math.Max(view.elasticity*100, 1)
		switch {
		case ratio <= 0.5:
			level = 0
		case ratio <= 1.0:
			level = 1
		case ratio <= 1.5:
			level = 2
		default:
			level = 3
		}
		if next < view.floor && level < 3 {
			level++
		}
		r.ImpactNote = fmt.Sprintf("Cut $%.2f/month (%.1f%%)", -delta, reductionPct)
	}

	r.Feasibility = changeLevels[level]
	return r, level
}

func reallocationAdvice(view categorySnapshot, r CategoryReallocation) string {
	if r.ChangeAmount >= 0 {
		if view.name == model.CategorySavings {
			return fmt.Sprintf("Automate the $%.2f/month transfer to SAVINGS on income days", r.ChangeAmount)
		}
		return ""
	}
	if r.Feasibility != ChangeDifficult && r.Feasibility != ChangeUnrealistic {
		return ""
	}
	comfortable := view.monthly * view.elasticity / 2
	return fmt.Sprintf("Consider a smaller cut to %s: about $%.2f/month fits your usual flexibility", view.name, comfortable)
}

func assessment(worst string) string {
	switch worst {
	case ChangeComfortable:
		return "Highly feasible: every change fits your spending patterns"
	case ChangeModerate:
		return "Feasible with some discipline"
	case ChangeDifficult:
		return "Challenging: some cuts exceed your typical flexibility"
	default:
		return "Unrealistic: at least one change is beyond what your history supports"
	}
}
