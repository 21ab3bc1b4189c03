package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnthropicClient(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "valid config", config: Config{APIKey: "test-key"}},
		{name: "missing API key", config: Config{APIKey: ""}, wantErr: true},
		{
			name: "custom model and settings",
			config: Config{
				APIKey:      "test-key",
				Model:       "claude-3-opus-20240229",
				Temperature: 0.5,
				MaxTokens:   200,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := newAnthropicClient(tt.config)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, client)
			}
		})
	}
}

func TestAnthropicClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "be brief", body["system"])

		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{\"category\":"},{"type":"text","text":"\"DINING\"}"}]}`))
	}))
	defer server.Close()

	client, err := newAnthropicClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	reply, err := client.Complete(context.Background(), "be brief", "classify")
	require.NoError(t, err)
	assert.Equal(t, `{"category":"DINING"}`, reply)
}

func TestAnthropicClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
		status  int
	}{
		{name: "API error", status: http.StatusInternalServerError, body: `{"error":"overloaded"}`, wantErr: "status 500"},
		{name: "empty content", status: http.StatusOK, body: `{"content":[]}`, wantErr: "no content"},
		{name: "invalid JSON", status: http.StatusOK, body: `not json`, wantErr: "failed to parse response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := newAnthropicClient(Config{APIKey: "k", BaseURL: server.URL})
			require.NoError(t, err)

			_, err = client.Complete(context.Background(), "s", "p")
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNewClient(t *testing.T) {
	c, err := NewClient(Config{Provider: "OpenAI", APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &openAIClient{}, c)

	c, err = NewClient(Config{Provider: ProviderAnthropic, APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &anthropicClient{}, c)

	_, err = NewClient(Config{Provider: ProviderRules})
	assert.Error(t, err)
}
