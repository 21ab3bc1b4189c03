// Package testutil provides test utilities for the spice-forecast project.
// It offers an in-memory database with migrations applied and a fluent builder
// for transaction histories.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/Veraticus/spice-forecast/internal/service"
	"github.com/Veraticus/spice-forecast/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// SetupTestDB creates a new migrated in-memory test database.
// Cleanup is registered with t.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	db.MustSaveTransactions(testutil.NewTransactionBuilder(1).
//		Debit("Trader Joe's", model.CategoryGroceries, 84.10, ts).
//		Build())
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, service.Storage) error
	Transactions   []model.Transaction
	SkipMigrations bool
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(storage.MemoryPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	ctx := context.Background()

	// Run migrations unless skipped
	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	if len(opts.Transactions) > 0 {
		if err := saveTransactions(ctx, store, opts.Transactions); err != nil {
			t.Fatalf("failed to seed transactions: %v", err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{
		Storage: store,
		t:       t,
	}
}

// MustSaveTransactions stores the transactions or fails the test.
// Duplicates are skipped.
func (db *TestDB) MustSaveTransactions(txns []model.Transaction) {
	db.t.Helper()
	if err := saveTransactions(context.Background(), db.Storage, txns); err != nil {
		db.t.Fatalf("failed to save transactions: %v", err)
	}
}

func saveTransactions(ctx context.Context, store service.TransactionStore, txns []model.Transaction) error {
	for i := range txns {
		err := store.SaveTransaction(ctx, &txns[i])
		if err != nil && !errors.Is(err, common.ErrDuplicateEntry) {
			return fmt.Errorf("transaction %d: %w", i, err)
		}
	}
	return nil
}

// MustLoadModel returns the user's behavior model or fails the test.
func (db *TestDB) MustLoadModel(userID int64) *model.BehaviorModel {
	db.t.Helper()
	m, err := db.Storage.LoadModel(context.Background(), userID)
	if err != nil {
		db.t.Fatalf("failed to load model for user %d: %v", userID, err)
	}
	return m
}

// WithTransaction executes the given function within a database transaction.
// The transaction is automatically rolled back after the function completes.
func (db *TestDB) WithTransaction(fn func(tx service.Transaction) error) error {
	ctx := context.Background()
	tx, err := db.Storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	return fn(tx)
}
