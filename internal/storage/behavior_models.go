package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/model"
)

// LoadModel retrieves a user's behavior model. It returns common.ErrNotFound
// when the user has none.
func (s *SQLiteStorage) LoadModel(ctx context.Context, userID int64) (*model.BehaviorModel, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	return s.loadModelTx(ctx, s.db, userID)
}

func (s *SQLiteStorage) loadModelTx(ctx context.Context, q queryable, userID int64) (*model.BehaviorModel, error) {
	var payload string
	err := q.QueryRowContext(ctx, `SELECT payload FROM behavior_models WHERE user_id = ?`, userID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no behavior model for user %d", common.ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load behavior model: %w", err)
	}

	var m model.BehaviorModel
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return nil, fmt.Errorf("%w: behavior model for user %d: %w", common.ErrDatabaseCorrupted, userID, err)
	}
	// Clone restores any maps the payload left null.
	return m.Clone(), nil
}

// SaveModel writes the whole behavior model, replacing any previous version.
func (s *SQLiteStorage) SaveModel(ctx context.Context, m *model.BehaviorModel) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateModel(m); err != nil {
		return err
	}
	return s.saveModelTx(ctx, s.db, m)
}

func (s *SQLiteStorage) saveModelTx(ctx context.Context, q queryable, m *model.BehaviorModel) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode behavior model: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO behavior_models (user_id, payload, transaction_count, last_updated, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			payload = excluded.payload,
			transaction_count = excluded.transaction_count,
			last_updated = excluded.last_updated
	`,
		m.UserID,
		string(payload),
		m.TransactionCount,
		m.LastUpdated.UTC(),
		m.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save behavior model for user %d: %w", m.UserID, err)
	}
	return nil
}
