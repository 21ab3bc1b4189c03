package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/Veraticus/spice-forecast/internal/service"
)

const transactionColumns = `id, user_id, hash, timestamp, merchant, raw_text, amount, type, category, account_id`

// SaveTransaction saves one transaction. It fills in Hash and ID when they
// are empty and returns common.ErrDuplicateEntry if the hash or ID already
// exists. The hash is taken before an ID is generated, so only caller
// supplied IDs take part in duplicate detection.
func (s *SQLiteStorage) SaveTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}
	return s.saveTransactionTx(ctx, s.db, txn)
}

func (s *SQLiteStorage) saveTransactionTx(ctx context.Context, q queryable, txn *model.Transaction) error {
	if txn.Hash == "" {
		txn.Hash = txn.GenerateHash()
	}
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}

	ts := sql.NullTime{Time: txn.Timestamp.UTC(), Valid: !txn.Timestamp.IsZero()}
	_, err := q.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		txn.ID,
		txn.UserID,
		txn.Hash,
		ts,
		txn.Merchant,
		txn.RawText,
		txn.Amount,
		string(txn.Type),
		txn.Category,
		txn.AccountID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: transaction %s", common.ErrDuplicateEntry, txn.Hash)
	}
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// TransactionExists reports whether a transaction with the given hash, or
// the given non-empty ID, is already stored.
func (s *SQLiteStorage) TransactionExists(ctx context.Context, id, hash string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(hash, "hash"); err != nil {
		return false, err
	}
	return s.transactionExistsTx(ctx, s.db, id, hash)
}

func (s *SQLiteStorage) transactionExistsTx(ctx context.Context, q queryable, id, hash string) (bool, error) {
	var found int
	err := q.QueryRowContext(ctx, `
		SELECT 1 FROM transactions
		WHERE hash = ? OR (? <> '' AND id = ?)
		LIMIT 1
	`, hash, id, id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check for duplicate transaction: %w", err)
	}
	return true, nil
}

// UpdateTransactionCategory overwrites the category of a stored transaction.
func (s *SQLiteStorage) UpdateTransactionCategory(ctx context.Context, id, category string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if err := validateString(category, "category"); err != nil {
		return err
	}
	return s.updateTransactionCategoryTx(ctx, s.db, id, category)
}

func (s *SQLiteStorage) updateTransactionCategoryTx(ctx context.Context, q queryable, id, category string) error {
	res, err := q.ExecContext(ctx, `UPDATE transactions SET category = ? WHERE id = ?`, category, id)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: transaction %s", common.ErrNotFound, id)
	}
	return nil
}

// GetTransactionByID retrieves a single transaction by ID.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getTransactionByIDTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getTransactionByIDTx(ctx context.Context, q queryable, id string) (*model.Transaction, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	defer func() { _ = rows.Close() }()

	txns, err := scanTransactions(rows)
	if err != nil {
		return nil, err
	}
	if len(txns) == 0 {
		return nil, fmt.Errorf("%w: transaction %s", common.ErrNotFound, id)
	}
	return &txns[0], nil
}

// GetTransactions retrieves a user's transactions matching the filter, oldest first.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	return s.getTransactionsTx(ctx, s.db, filter)
}

// GetTransactionsInRange retrieves a user's transactions with timestamps in [start, end].
func (s *SQLiteStorage) GetTransactionsInRange(ctx context.Context, userID int64, start, end time.Time) ([]model.Transaction, error) {
	return s.GetTransactions(ctx, service.TransactionFilter{UserID: userID, StartDate: &start, EndDate: &end})
}

func (s *SQLiteStorage) getTransactionsTx(ctx context.Context, q queryable, filter service.TransactionFilter) ([]model.Transaction, error) {
	var query strings.Builder
	query.WriteString(`SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = ?`)
	args := []any{filter.UserID}

	if filter.StartDate != nil {
		query.WriteString(` AND timestamp >= ?`)
		args = append(args, filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		query.WriteString(` AND timestamp <= ?`)
		args = append(args, filter.EndDate.UTC())
	}
	query.WriteString(` ORDER BY timestamp ASC, rowid ASC`)

	switch {
	case filter.Limit > 0:
		query.WriteString(` LIMIT ? OFFSET ?`)
		args = append(args, filter.Limit, filter.Offset)
	case filter.Offset > 0:
		query.WriteString(` LIMIT -1 OFFSET ?`)
		args = append(args, filter.Offset)
	}

	rows, err := q.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// scanTransactions scans rows selected with transactionColumns.
func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var transactions []model.Transaction
	for rows.Next() {
		var txn model.Transaction
		var ts sql.NullTime
		var txType string

		err := rows.Scan(
			&txn.ID,
			&txn.UserID,
			&txn.Hash,
			&ts,
			&txn.Merchant,
			&txn.RawText,
			&txn.Amount,
			&txType,
			&txn.Category,
			&txn.AccountID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		if ts.Valid {
			txn.Timestamp = ts.Time.UTC()
		}
		txn.Type = model.TransactionType(txType)

		transactions = append(transactions, txn)
	}

	return transactions, rows.Err()
}

// queryable is an interface satisfied by both *sql.DB and *sql.Tx.
type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
