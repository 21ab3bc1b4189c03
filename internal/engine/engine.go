// Package engine wires storage, the behavior updater, locking, simulations and
// forecasts into the operations exposed to the CLI and HTTP API.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/spice-forecast/internal/behavior"
	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/forecast"
	"github.com/Veraticus/spice-forecast/internal/lock"
	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/Veraticus/spice-forecast/internal/service"
	"github.com/Veraticus/spice-forecast/internal/simulation"
)

// Engine is built once at startup and shared by request handlers.
type Engine struct {
	store    service.Storage
	updater  *behavior.Updater
	locker   lock.Locker
	sims     *simulation.Engine
	analyzer *forecast.Analyzer
	refiner  InsightRefiner
	logger   *slog.Logger
	now      func() time.Time
}

// InsightRefiner turns simulation results into narrative text.
type InsightRefiner interface {
	RefineScenario(ctx context.Context, sim *simulation.SimulationResult) (string, error)
	RefineComparison(ctx context.Context, cmp *simulation.ComparisonResult) (string, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithClock overrides the clock used to pick the lean-analysis window.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRefiner enables narrative insights on scenario results.
func WithRefiner(r InsightRefiner) Option {
	return func(e *Engine) { e.refiner = r }
}

// New creates an Engine. A nil locker serializes users in process only.
func New(store service.Storage, updater *behavior.Updater, locker lock.Locker, sims *simulation.Engine, analyzer *forecast.Analyzer, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		updater:  updater,
		locker:   locker,
		sims:     sims,
		analyzer: analyzer,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.locker == nil {
		e.locker = lock.NewMemoryLocker()
	}
	if e.sims == nil {
		e.sims = simulation.NewEngine(e.now)
	}
	if e.analyzer == nil {
		e.analyzer = forecast.NewAnalyzer(e.now)
	}
	return e
}

// ProcessResult reports what happened to one ingested transaction.
type ProcessResult struct {
	Transaction      model.Transaction `json:"transaction"`
	Duplicate        bool              `json:"duplicate"`
	TransactionCount int               `json:"transaction_count"`
}

// ProcessTransaction folds txn into its user's behavior model and stores both.
// The user's lock is held from model load to commit. A transaction with no
// timestamp is stamped with the current time. One whose hash or source ID is
// already stored is reported as a duplicate before the categorizer runs and
// leaves the model untouched.
func (e *Engine) ProcessTransaction(ctx context.Context, txn model.Transaction) (*ProcessResult, error) {
	if txn.UserID <= 0 {
		return nil, common.Validationf("user_id must be positive, got %d", txn.UserID)
	}
	if !txn.Type.IsValid() {
		return nil, common.Validationf("transaction type must be debit or credit, got %q", txn.Type)
	}
	if txn.Timestamp.IsZero() {
		txn.Timestamp = e.now().UTC()
	}
	if txn.Hash == "" {
		txn.Hash = txn.GenerateHash()
	}

	release, err := e.locker.Acquire(ctx, lock.UserKey(txn.UserID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock user %d: %w", txn.UserID, err)
	}
	defer release()

	current, err := e.loadModel(ctx, txn.UserID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	exists, err := e.store.TransactionExists(ctx, txn.ID, txn.Hash)
	if err != nil {
		return nil, err
	}
	if exists {
		return e.duplicate(txn, current), nil
	}

	next, err := e.updater.Update(ctx, current, &txn)
	if err != nil {
		return nil, err
	}

	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.SaveTransaction(ctx, &txn); err != nil {
		if errors.Is(err, common.ErrDuplicateEntry) {
			return e.duplicate(txn, current), nil
		}
		return nil, err
	}
	if err := tx.SaveModel(ctx, next); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	e.logger.Debug("Processed transaction",
		"user_id", txn.UserID,
		"transaction_id", txn.ID,
		"category", txn.Category,
		"transaction_count", next.TransactionCount)

	return &ProcessResult{Transaction: txn, TransactionCount: next.TransactionCount}, nil
}

func (e *Engine) duplicate(txn model.Transaction, current *model.BehaviorModel) *ProcessResult {
	e.logger.Debug("Skipping duplicate transaction", "user_id", txn.UserID, "transaction_id", txn.ID, "hash", txn.Hash)
	count := 0
	if current != nil {
		count = current.TransactionCount
	}
	return &ProcessResult{Transaction: txn, Duplicate: true, TransactionCount: count}
}

// RecategorizeTransaction forces a fresh categorizer call for one of the
// user's stored debits, stores the new category and rebuilds the behavior
// model by replaying the user's history oldest first. Rebuilding keeps the
// transaction counted once under its new category. An ID that does not exist
// or belongs to another user is reported as not found.
func (e *Engine) RecategorizeTransaction(ctx context.Context, userID int64, id string) (*model.Transaction, error) {
	if userID <= 0 {
		return nil, common.Validationf("user_id must be positive, got %d", userID)
	}
	if strings.TrimSpace(id) == "" {
		return nil, common.Validationf("transaction id is required")
	}

	release, err := e.locker.Acquire(ctx, lock.UserKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock user %d: %w", userID, err)
	}
	defer release()

	txn, err := e.store.GetTransactionByID(ctx, id)
	if errors.Is(err, common.ErrNotFound) || (err == nil && txn.UserID != userID) {
		return nil, common.NotFoundf("transaction %s not found for user %d", id, userID)
	}
	if err != nil {
		return nil, err
	}

	category, err := e.updater.Recategorize(ctx, txn)
	if err != nil {
		return nil, fmt.Errorf("failed to recategorize transaction %s: %w", id, err)
	}
	previous := txn.Category
	txn.Category = category

	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.UpdateTransactionCategory(ctx, id, category); err != nil {
		return nil, err
	}
	rebuilt, err := e.rebuildModel(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if err := tx.SaveModel(ctx, rebuilt); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	e.logger.Info("Recategorized transaction",
		"user_id", userID,
		"transaction_id", id,
		"previous_category", previous,
		"category", category,
		"transaction_count", rebuilt.TransactionCount)
	return txn, nil
}

// rebuildModel replays every stored transaction of the user into a new model.
// Stored debits already carry a category, so the categorizer is not called.
func (e *Engine) rebuildModel(ctx context.Context, store service.TransactionStore, userID int64) (*model.BehaviorModel, error) {
	history, err := store.GetTransactions(ctx, service.TransactionFilter{UserID: userID})
	if err != nil {
		return nil, err
	}

	var m *model.BehaviorModel
	for i := range history {
		next, err := e.updater.Update(ctx, m, &history[i])
		if err != nil {
			return nil, fmt.Errorf("failed to replay transaction %s: %w", history[i].ID, err)
		}
		m = next
	}
	if m == nil {
		return nil, common.NotFoundf("no transaction history for user %d", userID)
	}
	return m, nil
}

// BatchSummary counts the outcome of ProcessTransactions.
type BatchSummary struct {
	Processed  int `json:"processed"`
	Duplicates int `json:"duplicates"`
	Invalid    int `json:"invalid"`
}

// ProcessTransactions replays txns in order. Invalid transactions are logged
// and skipped; any other failure stops the replay. progress, if non-nil, is
// called once per input transaction.
func (e *Engine) ProcessTransactions(ctx context.Context, txns []model.Transaction, progress func()) (BatchSummary, error) {
	var summary BatchSummary
	for i := range txns {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		res, err := e.ProcessTransaction(ctx, txns[i])
		switch {
		case errors.Is(err, common.ErrValidation):
			summary.Invalid++
			e.logger.Warn("Skipping invalid transaction", "index", i, "error", err)
		case err != nil:
			return summary, fmt.Errorf("transaction %d: %w", i, err)
		case res.Duplicate:
			summary.Duplicates++
		default:
			summary.Processed++
		}

		if progress != nil {
			progress()
		}
	}

	e.logger.Info("Processed transaction batch",
		"processed", summary.Processed,
		"duplicates", summary.Duplicates,
		"invalid", summary.Invalid)
	return summary, nil
}

func (e *Engine) loadModel(ctx context.Context, userID int64) (*model.BehaviorModel, error) {
	if userID <= 0 {
		return nil, common.Validationf("user_id must be positive, got %d", userID)
	}
	return e.store.LoadModel(ctx, userID)
}

// GetBehaviorModel returns the stored model. It wraps common.ErrNotFound when
// the user has no transactions yet.
func (e *Engine) GetBehaviorModel(ctx context.Context, userID int64) (*model.BehaviorModel, error) {
	return e.loadModel(ctx, userID)
}

// GetTransactions lists a user's stored transactions.
func (e *Engine) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	txns, err := e.store.GetTransactions(ctx, filter)
	if err != nil {
		return nil, err
	}
	if txns == nil {
		txns = []model.Transaction{}
	}
	return txns, nil
}
