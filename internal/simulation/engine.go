package simulation

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/Veraticus/spice-forecast/internal/stats"
)

const (
	daysPerMonth       = 30
	maxPeriodDays      = 365
	fullConfidenceTxns = 10
	easyElasticity     = 0.6
	moderateElasticity = 0.35
	maxRecommendations = 5
)

// Engine runs scenarios against behavior model snapshots.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	now func() time.Time
}

// NewEngine creates an Engine. A nil clock uses time.Now.
func NewEngine(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now}
}

// categorySnapshot is the monthly view of one category used by every simulation.
type categorySnapshot struct {
	name       string
	stats      model.CategoryStats
	monthly    float64
	elasticity float64
	floor      float64
}

func requireModel(m *model.BehaviorModel) error {
	if m == nil {
		return common.NotFoundf("no behavior model")
	}
	if len(m.CategoryStats) == 0 {
		return common.NotFoundf("behavior model for user %d has no spending history", m.UserID)
	}
	return nil
}

func validatePeriod(periodDays int) error {
	if periodDays <= 0 || periodDays > maxPeriodDays {
		return common.Validationf("time_period_days must be in (0, %d], got %d", maxPeriodDays, periodDays)
	}
	return nil
}

// snapshot returns the monthly view of the named categories, or of every
// category in the model when names is empty. Names are normalized; a name the
// model has no stats for is a not-found error.
func snapshot(m *model.BehaviorModel, names []string, periodDays int) ([]categorySnapshot, error) {
	if len(names) == 0 {
		names = m.Categories()
	}

	seen := make(map[string]bool, len(names))
	out := make([]categorySnapshot, 0, len(names))
	for _, raw := range names {
		name := model.NormalizeCategory(raw)
		if seen[name] {
			continue
		}
		seen[name] = true

		s, ok := m.CategoryStats[name]
		if !ok {
			return nil, common.NotFoundf("category %s not present in behavior model", name)
		}
		out = append(out, categoryView(m, name, s, periodDays))
	}

	slices.SortFunc(out, func(a, b categorySnapshot) int {
		switch {
		case a.monthly > b.monthly:
			return -1
		case a.monthly < b.monthly:
			return 1
		default:
			return cmp.Compare(a.name, b.name)
		}
	})
	return out, nil
}

func categoryView(m *model.BehaviorModel, name string, s model.CategoryStats, periodDays int) categorySnapshot {
	elasticity, ok := m.Elasticity[name]
	if !ok {
		elasticity = stats.Elasticity(name, s)
	}

	monthly := monthlyAmount(s.Sum, periodDays)
	floor := 0.0
	if baseline, ok := m.Baselines[name]; ok && s.Mean > 0 {
		floor = monthly * math.Min(1, baseline/s.Mean)
	}

	return categorySnapshot{
		name:       name,
		stats:      s,
		monthly:    monthly,
		elasticity: stats.Clamp(elasticity, 0, 1),
		floor:      floor,
	}
}

// monthlyAmount scales an amount observed over periodDays to a 30-day month.
func monthlyAmount(sum float64, periodDays int) float64 {
	if periodDays <= 0 {
		return 0
	}
	return sum * daysPerMonth / float64(periodDays)
}

func difficultyFor(elasticity float64) string {
	switch {
	case elasticity >= easyElasticity:
		return DifficultyEasy
	case elasticity >= moderateElasticity:
		return DifficultyModerate
	default:
		return DifficultyChallenging
	}
}

func feasibilityFor(achievable, target float64) string {
	if target <= 0 {
		return FeasibilityUnrealistic
	}
	ratio := achievable / target
	switch {
	case ratio >= 0.9:
		return FeasibilityHighlyAchievable
	case ratio >= 0.6:
		return FeasibilityAchievable
	case ratio >= 0.3:
		return FeasibilityChallenging
	default:
		return FeasibilityUnrealistic
	}
}

// money rounds to cents.
func money(v float64) float64 {
	return roundTo(v, 2)
}

func roundTo(v float64, places int32) float64 {
	return stats.Round(v, places)
}

func checkFinite(label string, values ...float64) error {
	for _, v := range values {
		if !stats.IsFinite(v) {
			return common.Computationf("%s produced a non-finite value", label)
		}
	}
	return nil
}
