package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Veraticus/spice-forecast/internal/model"
)

// Categorization is the model's answer for one merchant.
type Categorization struct {
	Category   string  `json:"category"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

// cleanMarkdownWrapper strips ``` fences and any prose around the JSON object.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return content
}

// parseCategorization decodes and validates a categorization reply.
func parseCategorization(content string) (Categorization, error) {
	var c Categorization
	if err := json.Unmarshal([]byte(cleanMarkdownWrapper(content)), &c); err != nil {
		return Categorization{}, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	c.Category = model.NormalizeCategory(strings.ReplaceAll(c.Category, " ", "_"))
	if c.Category == "" {
		return Categorization{}, fmt.Errorf("no category found in response")
	}
	if !model.IsKnownCategory(c.Category) {
		return Categorization{}, fmt.Errorf("unknown category %q in response", c.Category)
	}

	// Some models answer in percent.
	if c.Confidence > 1 && c.Confidence <= 100 {
		c.Confidence /= 100
	}
	c.Confidence = min(max(c.Confidence, 0), 1)

	return c, nil
}
