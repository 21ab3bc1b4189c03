package stats

import (
	"math"
	"time"

	"github.com/Veraticus/spice-forecast/internal/model"
)

const (
	// ImpulseK is the number of standard deviations above the mean that marks an outlier.
	ImpulseK = 2.0
	// ImpulseMinCount is the number of observations needed before outliers are judged.
	ImpulseMinCount = 3
	// BaselineK is the number of standard deviations subtracted from the mean for a floor.
	BaselineK = 1.5
	// ImpulseDecay is the weight kept by the impulse score on each update.
	ImpulseDecay = 0.9

	lateNightEnd       = 5
	rareHourShare      = 0.05
	minElasticity      = 0.05
	priorWeight        = 0.6
	variabilityWeight  = 0.4
	essentialPrior     = 0.2
	semiFlexiblePrior  = 0.5
	discretionaryPrior = 0.8
)

// ElasticityPrior returns the prior compressibility of a category.
func ElasticityPrior(category string) float64 {
	switch model.CategoryFlexibility(category) {
	case model.FlexibilityEssential:
		return essentialPrior
	case model.FlexibilityDiscretionary:
		return discretionaryPrior
	default:
		return semiFlexiblePrior
	}
}

// Elasticity scores how compressible spending in a category is.
// The category prior is blended with the observed coefficient of variation,
// so irregular spending reads as more elastic.
func Elasticity(category string, s model.CategoryStats) float64 {
	cv := math.Min(CoefficientOfVariation(s.Mean, s.StdDev), 1)
	return Clamp(priorWeight*ElasticityPrior(category)+variabilityWeight*cv, minElasticity, 1)
}

// BaselineCandidate returns the floor estimate mean - 1.5·std, never negative.
func BaselineCandidate(s model.CategoryStats) float64 {
	return math.Max(0, s.Mean-BaselineK*s.StdDev)
}

// TightenBaseline returns the stored baseline after observing candidate.
// Baselines only move down.
func TightenBaseline(existing float64, ok bool, candidate float64) float64 {
	if !ok {
		return candidate
	}
	return math.Min(existing, candidate)
}

// IsImpulse reports whether amount is anomalous for a category whose stats
// already include it. An amount is anomalous when it exceeds mean + k·std, or
// when it is above the mean and lands in a late-night hour the user rarely
// transacts in.
func IsImpulse(amount float64, at time.Time, s model.CategoryStats, habits model.Habits) bool {
	if s.Count < ImpulseMinCount {
		return false
	}

	if s.StdDev > 0 && amount > s.Mean+ImpulseK*s.StdDev {
		return true
	}

	if at.IsZero() || amount <= s.Mean {
		return false
	}
	hour := at.Hour()
	if hour >= lateNightEnd {
		return false
	}
	total := habits.Total()
	if total == 0 {
		return false
	}
	return float64(habits.HourlyDistribution[hour])/float64(total) < rareHourShare
}

// NextImpulseScore blends an impulse flag into the running score.
func NextImpulseScore(score float64, impulse bool) float64 {
	flag := 0.0
	if impulse {
		flag = 1
	}
	return Clamp(ImpulseDecay*score+(1-ImpulseDecay)*flag, 0, 1)
}
