package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-forecast/internal/model"
)

func TestParseCategorization(t *testing.T) {
	tests := []struct {
		name           string
		content        string
		wantCategory   string
		wantConfidence float64
		wantErr        bool
	}{
		{
			name:           "plain JSON",
			content:        `{"category":"DINING","confidence":0.8,"reasoning":"restaurant"}`,
			wantCategory:   model.CategoryDining,
			wantConfidence: 0.8,
		},
		{
			name:           "markdown fence and prose",
			content:        "Sure! Here you go:\n```json\n{\"category\": \"travel\", \"confidence\": 0.65}\n```",
			wantCategory:   model.CategoryTravel,
			wantConfidence: 0.65,
		},
		{
			name:           "spaced category name",
			content:        `{"category":"Personal Care","confidence":0.7}`,
			wantCategory:   model.CategoryPersonalCare,
			wantConfidence: 0.7,
		},
		{
			name:           "percent confidence",
			content:        `{"category":"UTILITIES","confidence":90}`,
			wantCategory:   model.CategoryUtilities,
			wantConfidence: 0.9,
		},
		{
			name:           "negative confidence clamps",
			content:        `{"category":"OTHER","confidence":-1}`,
			wantCategory:   model.CategoryOther,
			wantConfidence: 0,
		},
		{name: "unknown category", content: `{"category":"PETS","confidence":0.9}`, wantErr: true},
		{name: "missing category", content: `{"confidence":0.9}`, wantErr: true},
		{name: "not JSON", content: `DINING 0.9`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCategorization(tt.content)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCategory, got.Category)
			assert.InDelta(t, tt.wantConfidence, got.Confidence, 1e-9)
		})
	}
}
