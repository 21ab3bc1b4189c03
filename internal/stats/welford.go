// Package stats implements the streaming statistics the behavior model is built on:
// Welford moments with decay, elasticity, baselines, impulse detection, and
// income analysis.
//
// Decay scales Count, Sum and M2 by the same factor before the next observation
// is merged. Mean and variance are left unchanged by the scaling itself; only the
// relative weight of the next observation grows. This approximates exponentially
// weighted moments but is not an exact exponential moving variance, so Variance
// should be read as a smoothed spread estimate once decay has been applied
// repeatedly.
package stats

import (
	"math"

	"github.com/Veraticus/spice-forecast/internal/model"
)

// DecayFactor is the default weight kept by history before each merge.
const DecayFactor = 0.95

// Update merges one observation into s using Welford's recurrence.
// The caller guarantees v is finite.
func Update(s model.CategoryStats, v float64) model.CategoryStats {
	if s.Count <= 0 {
		s.Min = v
		s.Max = v
	}

	s.Count++
	delta := v - s.Mean
	s.Mean += delta / s.Count
	delta2 := v - s.Mean
	s.M2 += delta * delta2
	if s.M2 < 0 {
		s.M2 = 0
	}
	s.Variance = s.M2 / s.Count
	s.StdDev = math.Sqrt(s.Variance)
	s.Sum += v
	s.Min = math.Min(s.Min, v)
	s.Max = math.Max(s.Max, v)

	return s
}

// Decay scales the accumulated weight of s by factor.
// A factor outside (0,1] leaves s unchanged. Min and Max are all-time extremes and
// are never decayed.
func Decay(s model.CategoryStats, factor float64) model.CategoryStats {
	if factor <= 0 || factor >= 1 || s.Count <= 0 {
		return s
	}

	s.Count *= factor
	s.Sum *= factor
	s.M2 *= factor
	s.Variance = s.M2 / s.Count
	s.StdDev = math.Sqrt(s.Variance)

	return s
}

// FromValues builds stats by streaming values through Update with no decay.
func FromValues(values []float64) model.CategoryStats {
	var s model.CategoryStats
	for _, v := range values {
		s = Update(s, v)
	}
	return s
}

// MeanStd returns the population mean and standard deviation of values.
func MeanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

// CoefficientOfVariation returns std/mean, or 0 when mean is not positive.
func CoefficientOfVariation(mean, std float64) float64 {
	if mean <= 0 {
		return 0
	}
	return std / mean
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
