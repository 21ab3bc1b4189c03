package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExponentialSmoothingForecast(t *testing.T) {
	tests := []struct {
		name           string
		history        []float64
		wantForecast   float64
		wantConfidence float64
	}{
		{name: "empty", history: nil, wantForecast: 0, wantConfidence: 0},
		{name: "two months", history: []float64{1000, 2000}, wantForecast: 1300, wantConfidence: 0.22},
		{name: "steady income", history: []float64{2000, 2000, 2000, 2000, 2000, 2000}, wantForecast: 2000, wantConfidence: 0.95},
		{name: "no income", history: []float64{0, 0, 0}, wantForecast: 0, wantConfidence: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forecast, confidence := ExponentialSmoothingForecast(tt.history)
			assert.InDelta(t, tt.wantForecast, forecast, 1e-9)
			assert.Equal(t, tt.wantConfidence, confidence)
		})
	}
}

func TestAnalyzeIncomeTrend(t *testing.T) {
	tests := []struct {
		name       string
		history    []float64
		wantTrend  string
		wantGrowth float64
	}{
		{name: "single month", history: []float64{1000}, wantTrend: TrendInsufficientData},
		{name: "growing", history: []float64{1000, 1000, 1500, 1500}, wantTrend: TrendGrowing, wantGrowth: 0.5},
		{name: "declining", history: []float64{2000, 2000, 1000, 1000}, wantTrend: TrendDeclining, wantGrowth: -0.5},
		{name: "stable", history: []float64{1000, 1050}, wantTrend: TrendStable, wantGrowth: 0.05},
		{name: "no early income", history: []float64{0, 0, 500, 500}, wantTrend: TrendStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnalyzeIncomeTrend(tt.history)
			assert.Equal(t, tt.wantTrend, got.Trend)
			assert.Equal(t, tt.wantGrowth, got.GrowthRate)
		})
	}
}

func TestCalculateRunway(t *testing.T) {
	t.Run("deficit", func(t *testing.T) {
		r := CalculateRunway(6000, 3000, 3000, 0.2)
		assert.False(t, r.Sustainable)
		assert.Equal(t, -1200.0, r.WorstCaseNet)
		require.NotNil(t, r.RunwayMonths)
		assert.Equal(t, 5.0, *r.RunwayMonths)
	})

	t.Run("sustainable", func(t *testing.T) {
		r := CalculateRunway(1000, 5000, 2000, 0.1)
		assert.True(t, r.Sustainable)
		assert.Nil(t, r.RunwayMonths)
		assert.Equal(t, 2050.0, r.WorstCaseNet)
	})

	t.Run("no balance", func(t *testing.T) {
		r := CalculateRunway(0, 1000, 2000, 0)
		require.NotNil(t, r.RunwayMonths)
		assert.Zero(t, *r.RunwayMonths)
	})

	t.Run("income cannot go negative", func(t *testing.T) {
		r := CalculateRunway(2200, 1000, 1000, 1)
		assert.Equal(t, -1100.0, r.WorstCaseNet)
		assert.Equal(t, 2.0, *r.RunwayMonths)
	})
}
