package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/spice-forecast/internal/behavior"
	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/llm"
	"github.com/Veraticus/spice-forecast/internal/lock"
	"github.com/Veraticus/spice-forecast/internal/stats"
)

// Lock backends.
const (
	LockMemory = "memory"
	LockRedis  = "redis"
)

// DefaultDatabasePath is used when database.path is unset.
const DefaultDatabasePath = "$HOME/.local/share/spice/spice.db"

// Config is the typed view of the viper settings.
type Config struct {
	DatabasePath string
	LogFormat    string
	LogLevel     slog.Level
	LLM          llm.Config
	Behavior     behavior.Config
	Lock         LockConfig
	ServerAddr   string
}

// LockConfig selects the per-user lock backend.
type LockConfig struct {
	Backend       string
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("llm.provider", llm.ProviderRules)
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 150)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay", time.Second)
	v.SetDefault("llm.cache_ttl", 24*time.Hour)
	v.SetDefault("llm.rate_limit", 60)
	v.SetDefault("llm.rule_threshold", llm.DefaultRuleThreshold)

	v.SetDefault("behavior.decay_factor", stats.DecayFactor)
	v.SetDefault("behavior.categorizer_timeout", behavior.DefaultCategorizerTimeout)

	v.SetDefault("lock.backend", LockMemory)
	v.SetDefault("lock.ttl", lock.DefaultTTL)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("server.addr", ":8080")
}

// Load reads the settings from v, applying defaults and validating enums.
// API keys fall back to OPENAI_API_KEY and ANTHROPIC_API_KEY.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	level, err := common.ParseLevel(v.GetString("logging.level"))
	if err != nil {
		return nil, err
	}
	format := v.GetString("logging.format")
	if format != "console" && format != "json" {
		return nil, fmt.Errorf("%w: log format %q (want console or json)", common.ErrInvalidConfig, format)
	}

	cfg := &Config{
		DatabasePath: ExpandPath(v.GetString("database.path")),
		LogLevel:     level,
		LogFormat:    format,
		ServerAddr:   v.GetString("server.addr"),
		Behavior: behavior.Config{
			DecayFactor:        v.GetFloat64("behavior.decay_factor"),
			CategorizerTimeout: v.GetDuration("behavior.categorizer_timeout"),
		},
		Lock: LockConfig{
			Backend:       v.GetString("lock.backend"),
			TTL:           v.GetDuration("lock.ttl"),
			RedisAddr:     v.GetString("redis.addr"),
			RedisPassword: v.GetString("redis.password"),
			RedisDB:       v.GetInt("redis.db"),
		},
	}
	if cfg.DatabasePath == "" {
		return nil, fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	if f := cfg.Behavior.DecayFactor; f <= 0 || f > 1 {
		return nil, fmt.Errorf("%w: behavior.decay_factor must be in (0, 1], got %v", common.ErrInvalidConfig, f)
	}
	if cfg.Behavior.CategorizerTimeout <= 0 {
		return nil, fmt.Errorf("%w: behavior.categorizer_timeout must be positive", common.ErrInvalidConfig)
	}
	switch cfg.Lock.Backend {
	case LockMemory, LockRedis:
	default:
		return nil, fmt.Errorf("%w: lock.backend %q (want memory or redis)", common.ErrInvalidConfig, cfg.Lock.Backend)
	}

	cfg.LLM, err = loadLLM(v)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadLLM(v *viper.Viper) (llm.Config, error) {
	cfg := llm.Config{
		Provider:      v.GetString("llm.provider"),
		Model:         v.GetString("llm.model"),
		BaseURL:       v.GetString("llm.base_url"),
		Temperature:   v.GetFloat64("llm.temperature"),
		MaxTokens:     v.GetInt("llm.max_tokens"),
		MaxRetries:    v.GetInt("llm.max_retries"),
		RetryDelay:    v.GetDuration("llm.retry_delay"),
		CacheTTL:      v.GetDuration("llm.cache_ttl"),
		RateLimit:     v.GetInt("llm.rate_limit"),
		RuleThreshold: v.GetFloat64("llm.rule_threshold"),
	}

	switch cfg.Provider {
	case llm.ProviderRules:
	case llm.ProviderOpenAI:
		cfg.APIKey = firstNonEmpty(v.GetString("llm.openai_api_key"), os.Getenv("OPENAI_API_KEY"))
	case llm.ProviderAnthropic:
		cfg.APIKey = firstNonEmpty(v.GetString("llm.anthropic_api_key"), os.Getenv("ANTHROPIC_API_KEY"))
	default:
		return cfg, fmt.Errorf("%w: llm.provider %q (want openai, anthropic or rules)", common.ErrInvalidConfig, cfg.Provider)
	}
	if cfg.Provider != llm.ProviderRules && cfg.APIKey == "" {
		return cfg, fmt.Errorf("%w: API key for llm provider %s", common.ErrMissingConfig, cfg.Provider)
	}
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
