package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/llm"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("SPICE_TEST_DIR", "/srv/spice")

	tests := []struct {
		input string
		want  string
	}{
		{input: "", want: ""},
		{input: "~", want: home},
		{input: "~/data/spice.db", want: filepath.Join(home, "data/spice.db")},
		{input: "$SPICE_TEST_DIR/spice.db", want: "/srv/spice/spice.db"},
		{input: "/abs/path.db", want: "/abs/path.db"},
		{input: "~other/path", want: "~other/path"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.input))
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "/home/tester/.local/share/spice/spice.db", cfg.DatabasePath)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, llm.ProviderRules, cfg.LLM.Provider)
	assert.Equal(t, 3, cfg.LLM.MaxRetries)
	assert.Equal(t, 24*time.Hour, cfg.LLM.CacheTTL)
	assert.InDelta(t, 0.95, cfg.Behavior.DecayFactor, 1e-9)
	assert.Equal(t, 5*time.Second, cfg.Behavior.CategorizerTimeout)
	assert.Equal(t, LockMemory, cfg.Lock.Backend)
	assert.Equal(t, 30*time.Second, cfg.Lock.TTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")

	v := viper.New()
	v.Set("database.path", "/tmp/spice.db")
	v.Set("logging.level", "debug")
	v.Set("logging.format", "json")
	v.Set("llm.provider", "openai")
	v.Set("llm.model", "gpt-4o")
	v.Set("lock.backend", "redis")
	v.Set("redis.addr", "cache:6379")
	v.Set("behavior.decay_factor", 0.9)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/spice.db", cfg.DatabasePath)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "sk-env", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, LockRedis, cfg.Lock.Backend)
	assert.Equal(t, "cache:6379", cfg.Lock.RedisAddr)
	assert.InDelta(t, 0.9, cfg.Behavior.DecayFactor, 1e-9)

	v.Set("llm.openai_api_key", "sk-config")
	cfg, err = Load(v)
	require.NoError(t, err)
	assert.Equal(t, "sk-config", cfg.LLM.APIKey, "config wins over the environment")
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	tests := []struct {
		settings map[string]any
		wantErr  error
		name     string
	}{
		{name: "log level", settings: map[string]any{"logging.level": "loud"}, wantErr: common.ErrInvalidConfig},
		{name: "log format", settings: map[string]any{"logging.format": "xml"}, wantErr: common.ErrInvalidConfig},
		{name: "decay factor", settings: map[string]any{"behavior.decay_factor": 1.5}, wantErr: common.ErrInvalidConfig},
		{name: "categorizer timeout", settings: map[string]any{"behavior.categorizer_timeout": "0s"}, wantErr: common.ErrInvalidConfig},
		{name: "lock backend", settings: map[string]any{"lock.backend": "etcd"}, wantErr: common.ErrInvalidConfig},
		{name: "provider", settings: map[string]any{"llm.provider": "palm"}, wantErr: common.ErrInvalidConfig},
		{name: "missing key", settings: map[string]any{"llm.provider": "anthropic"}, wantErr: common.ErrMissingConfig},
		{name: "empty database path", settings: map[string]any{"database.path": ""}, wantErr: common.ErrMissingConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			for k, val := range tt.settings {
				v.Set(k, val)
			}
			_, err := Load(v)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}
