package stats

import (
	"math"
	"testing"

	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdate(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		wantMean float64
		wantVar  float64
		wantStd  float64
		wantMin  float64
		wantMax  float64
		wantSum  float64
	}{
		{
			name:     "single value",
			values:   []float64{1000},
			wantMean: 1000,
			wantMin:  1000,
			wantMax:  1000,
			wantSum:  1000,
		},
		{
			name:     "three values",
			values:   []float64{10, 20, 30},
			wantMean: 20,
			wantVar:  66.66666666666667,
			wantStd:  8.16496580927726,
			wantMin:  10,
			wantMax:  30,
			wantSum:  60,
		},
		{
			name:     "income credits",
			values:   []float64{3500, 2200, 1500},
			wantMean: 2400,
			wantVar:  686666.6666666666,
			wantStd:  828.6535263104035,
			wantMin:  1500,
			wantMax:  3500,
			wantSum:  7200,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := FromValues(tt.values)

			assert.InDelta(t, float64(len(tt.values)), s.Count, 1e-12)
			assert.InDelta(t, tt.wantMean, s.Mean, 1e-9)
			assert.InDelta(t, tt.wantVar, s.Variance, 1e-6)
			assert.InDelta(t, tt.wantStd, s.StdDev, 1e-6)
			assert.InDelta(t, tt.wantSum, s.Sum, 1e-9)
			assert.Equal(t, tt.wantMin, s.Min)
			assert.Equal(t, tt.wantMax, s.Max)
		})
	}
}

func TestUpdateMatchesBatch(t *testing.T) {
	values := []float64{12.5, 99.99, 3.2, 47, 47, 1500.75, 0.01, 260, 18.4, 73.3}

	s := FromValues(values)
	mean, std := MeanStd(values)

	assert.InEpsilon(t, mean, s.Mean, 1e-9)
	assert.InEpsilon(t, std, s.StdDev, 1e-9)
	assert.InEpsilon(t, std*std, s.Variance, 1e-9)
}

func TestDecay(t *testing.T) {
	s := FromValues([]float64{10, 20, 30})

	t.Run("scales weight and keeps extremes", func(t *testing.T) {
		d := Decay(s, DecayFactor)

		assert.InDelta(t, 3*DecayFactor, d.Count, 1e-12)
		assert.InDelta(t, 60*DecayFactor, d.Sum, 1e-9)
		assert.InDelta(t, s.M2*DecayFactor, d.M2, 1e-9)
		assert.InDelta(t, s.Mean, d.Mean, 1e-12)
		assert.InDelta(t, s.Variance, d.Variance, 1e-9)
		assert.Equal(t, 10.0, d.Min)
		assert.Equal(t, 30.0, d.Max)
	})

	t.Run("out of range factor is a no-op", func(t *testing.T) {
		for _, factor := range []float64{0, -0.5, 1, 1.5} {
			assert.Equal(t, s, Decay(s, factor), "factor %v", factor)
		}
	})

	t.Run("empty stats unchanged", func(t *testing.T) {
		assert.Equal(t, model.CategoryStats{}, Decay(model.CategoryStats{}, DecayFactor))
	})

	t.Run("decayed history gives new values more weight", func(t *testing.T) {
		plain := Update(s, 100)
		decayed := Update(Decay(s, 0.5), 100)

		assert.Greater(t, decayed.Mean, plain.Mean)
		assert.GreaterOrEqual(t, decayed.Variance, 0.0)
	})
}

func TestDecayKeepsMomentsNonNegative(t *testing.T) {
	var s model.CategoryStats
	for i := 0; i < 500; i++ {
		s = Decay(s, DecayFactor)
		s = Update(s, float64((i*37)%113)+0.5)

		require.GreaterOrEqual(t, s.Variance, 0.0)
		require.GreaterOrEqual(t, s.StdDev, 0.0)
		require.False(t, math.IsNaN(s.Mean))
	}
	assert.Equal(t, 0.5, s.Min)
	assert.Equal(t, 112.5, s.Max)
}

func TestCoefficientOfVariation(t *testing.T) {
	assert.Equal(t, 0.0, CoefficientOfVariation(0, 10))
	assert.Equal(t, 0.0, CoefficientOfVariation(-5, 10))
	assert.InDelta(t, 0.5, CoefficientOfVariation(200, 100), 1e-12)
}

func TestMeanStdEmpty(t *testing.T) {
	mean, std := MeanStd(nil)
	assert.Zero(t, mean)
	assert.Zero(t, std)
}
