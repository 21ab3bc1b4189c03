// Package service defines the interfaces shared between the engine and its collaborators.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/spice-forecast/internal/model"
)

// Categorizer assigns a spending category to a transaction.
// Implementations may be slow or fail; callers bound them with a timeout.
type Categorizer interface {
	Categorize(ctx context.Context, merchant string, amount float64, rawText string, txnType model.TransactionType) (category string, confidence float64, err error)
}

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	UserID    int64
	Limit     int
	Offset    int
}

// ModelStore loads and saves behavior models.
type ModelStore interface {
	// LoadModel returns common.ErrNotFound when the user has no model yet.
	LoadModel(ctx context.Context, userID int64) (*model.BehaviorModel, error)
	SaveModel(ctx context.Context, m *model.BehaviorModel) error
}

// TransactionStore persists and queries raw transactions.
type TransactionStore interface {
	// SaveTransaction inserts one transaction, assigning Hash and ID when empty.
	// It returns common.ErrDuplicateEntry when the hash or ID is already stored.
	SaveTransaction(ctx context.Context, txn *model.Transaction) error
	// TransactionExists reports whether the hash, or a non-empty id, is stored.
	TransactionExists(ctx context.Context, id, hash string) (bool, error)
	// UpdateTransactionCategory returns common.ErrNotFound for an unknown id.
	UpdateTransactionCategory(ctx context.Context, id, category string) error
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	GetTransactionsInRange(ctx context.Context, userID int64, start, end time.Time) ([]model.Transaction, error)
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	TransactionStore
	ModelStore

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	TransactionStore
	ModelStore
}
