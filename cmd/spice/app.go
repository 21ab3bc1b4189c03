package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-forecast/internal/behavior"
	"github.com/Veraticus/spice-forecast/internal/classification"
	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/config"
	"github.com/Veraticus/spice-forecast/internal/engine"
	"github.com/Veraticus/spice-forecast/internal/llm"
	"github.com/Veraticus/spice-forecast/internal/lock"
	"github.com/Veraticus/spice-forecast/internal/storage"
)

// app holds the services one command invocation needs.
type app struct {
	store  *storage.SQLiteStorage
	engine *engine.Engine
	logger *slog.Logger
	redis  *redis.Client
}

// newApp opens and migrates the database and wires the engine from appConfig.
func newApp(ctx context.Context) (*app, error) {
	cfg := appConfig
	logger := slog.Default()

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	a := &app{store: store, logger: logger}

	categorizer, refiner, err := buildCategorizer(cfg.LLM, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	locker, err := a.buildLocker(ctx, cfg.Lock)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	updater := behavior.NewUpdater(categorizer, cfg.Behavior, behavior.WithLogger(logger))
	opts := []engine.Option{engine.WithLogger(logger)}
	if refiner != nil {
		opts = append(opts, engine.WithRefiner(refiner))
	}
	a.engine = engine.New(store, updater, locker, nil, nil, opts...)
	return a, nil
}

// buildCategorizer returns the rule categorizer, optionally backed by an LLM.
// The refiner is nil when no LLM provider is configured.
func buildCategorizer(cfg llm.Config, logger *slog.Logger) (*llm.Categorizer, *llm.Refiner, error) {
	rules, err := classification.NewDefaultRuleCategorizer()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load categorization rules: %w", err)
	}
	if cfg.Provider == llm.ProviderRules {
		return llm.NewCategorizer(rules, nil, cfg, logger), nil, nil
	}

	client, err := llm.NewClient(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	logger.Debug("LLM categorizer enabled", "provider", cfg.Provider, "model", cfg.Model)
	return llm.NewCategorizer(rules, client, cfg, logger), llm.NewRefiner(client, logger), nil
}

func (a *app) buildLocker(ctx context.Context, cfg config.LockConfig) (lock.Locker, error) {
	if cfg.Backend != config.LockRedis {
		return lock.NewMemoryLocker(), nil
	}

	a.redis = redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := a.redis.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	a.logger.Info("Using redis user locks", "addr", cfg.RedisAddr, "ttl", cfg.TTL)
	return lock.NewRedisLocker(a.redis, cfg.TTL, a.logger), nil
}

// Close releases the database and redis connections.
func (a *app) Close() error {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	return a.store.Close()
}

// withApp runs fn with a fully wired app and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(a *app) error) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	return explain(fn(a))
}

// explain attaches a next step to errors a user can act on. Errors that
// already carry a user message pass through.
func explain(err error) error {
	var userErr *common.UserError
	if errors.As(err, &userErr) {
		return err
	}
	if errors.Is(err, common.ErrNotFound) {
		return common.NewUserError("nothing recorded for this user yet; run 'spice import-ofx' or 'spice add' first", err)
	}
	return err
}

func userFlag(cmd *cobra.Command) int64 {
	id, _ := cmd.Flags().GetInt64("user")
	return id
}

// emit prints v as indented JSON under --json, otherwise the rendered text.
func emit(cmd *cobra.Command, v any, render func() string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	return writeOutput(cmd.OutOrStdout(), asJSON, v, render)
}

func writeOutput(w io.Writer, asJSON bool, v any, render func() string) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(w, render())
	return err
}
