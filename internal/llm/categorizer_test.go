package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-forecast/internal/classification"
	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/model"
)

// fakeClient replays canned replies and records prompts.
type fakeClient struct {
	err     error
	replies []string
	prompts []string
	mu      sync.Mutex
}

func (f *fakeClient) Complete(_ context.Context, _, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", errors.New("no reply queued")
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return reply, nil
}

func (f *fakeClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func testConfig() Config {
	return Config{MaxRetries: 2, RetryDelay: time.Millisecond, RateLimit: 1000}
}

func newRules(t *testing.T) *classification.RuleCategorizer {
	t.Helper()
	rules, err := classification.NewDefaultRuleCategorizer()
	require.NoError(t, err)
	return rules
}

func TestCategorizer_RuleShortCircuit(t *testing.T) {
	client := &fakeClient{replies: []string{`{"category":"SHOPPING","confidence":0.9}`}}
	c := NewCategorizer(newRules(t), client, testConfig(), nil)

	rules := newRules(t)
	match := rules.Match("NETFLIX.COM", "")
	require.NotNil(t, match, "default patterns should recognize Netflix")
	require.GreaterOrEqual(t, match.Confidence, DefaultRuleThreshold)

	category, confidence, err := c.Categorize(context.Background(), "NETFLIX.COM", 15.49, "", model.TypeDebit)
	require.NoError(t, err)
	assert.Equal(t, match.Category, category)
	assert.InDelta(t, match.Confidence, confidence, 1e-9)
	assert.Zero(t, client.calls(), "a confident rule match skips the model")
}

func TestCategorizer_FallsThroughToModel(t *testing.T) {
	client := &fakeClient{replies: []string{"```json\n{\"category\": \"dining\", \"confidence\": 0.72, \"reasoning\": \"Cafe name\"}\n```"}}
	c := NewCategorizer(newRules(t), client, testConfig(), nil)

	category, confidence, err := c.Categorize(context.Background(), "Blue Door Bistro", 42, "POS BLUE DOOR", model.TypeDebit)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryDining, category)
	assert.InDelta(t, 0.72, confidence, 1e-9)

	require.Equal(t, 1, client.calls())
	assert.Contains(t, client.prompts[0], "Merchant: Blue Door Bistro")
	assert.Contains(t, client.prompts[0], "Bank description: POS BLUE DOOR")
	assert.Contains(t, client.prompts[0], model.CategoryBusinessExpense)

	// Second lookup for the same merchant is served from cache.
	category, _, err = c.Categorize(context.Background(), "blue door bistro", 18, "", model.TypeDebit)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryDining, category)
	assert.Equal(t, 1, client.calls())
}

func TestCategorizer_RetriesBadReplies(t *testing.T) {
	client := &fakeClient{replies: []string{"I think it's food", `{"category":"GROCERIES","confidence":88}`}}
	c := NewCategorizer(nil, client, testConfig(), nil)

	category, confidence, err := c.Categorize(context.Background(), "Corner Market", 30, "", model.TypeDebit)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryGroceries, category)
	assert.InDelta(t, 0.88, confidence, 1e-9)
	assert.Equal(t, 2, client.calls())
}

func TestCategorizer_Failures(t *testing.T) {
	tests := []struct {
		client *fakeClient
		name   string
	}{
		{name: "provider error", client: &fakeClient{err: errors.New("connection refused")}},
		{name: "unknown category", client: &fakeClient{replies: []string{`{"category":"PETS","confidence":0.9}`}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCategorizer(nil, tt.client, testConfig(), nil)
			_, _, err := c.Categorize(context.Background(), "Mystery", 10, "", model.TypeDebit)
			require.ErrorIs(t, err, common.ErrCategorizerUnavailable)
			assert.Equal(t, 2, tt.client.calls(), "every attempt is used before giving up")
		})
	}
}

func TestCategorizer_NonRetryableStopsEarly(t *testing.T) {
	client := &fakeClient{err: &common.RetryableError{Err: errors.New("bad key"), Retryable: false}}
	c := NewCategorizer(nil, client, testConfig(), nil)

	_, _, err := c.Categorize(context.Background(), "Mystery", 10, "", model.TypeDebit)
	require.ErrorIs(t, err, common.ErrCategorizerUnavailable)
	assert.Equal(t, 1, client.calls())
}

func TestCategorizer_RulesOnly(t *testing.T) {
	c := NewCategorizer(newRules(t), nil, testConfig(), nil)

	category, confidence, err := c.Categorize(context.Background(), "Unrecognizable LLC", 10, "", model.TypeDebit)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryOther, category)
	assert.InDelta(t, classification.RuleConfidence, confidence, 1e-9)
}

func TestCategorizer_CancelledContext(t *testing.T) {
	client := &fakeClient{replies: []string{`{"category":"DINING","confidence":0.9}`}}
	c := NewCategorizer(newRules(t), client, testConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := c.Categorize(ctx, "Blue Door Bistro", 42, "", model.TypeDebit)
	require.ErrorIs(t, err, common.ErrCategorizerUnavailable)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, client.calls())
}
