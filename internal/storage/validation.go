// Package storage provides the SQLite persistence layer for transactions and behavior models.
package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/Veraticus/spice-forecast/internal/service"
)

// Validation errors. Every one of them matches common.ErrValidation.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = fmt.Errorf("%w: string parameter cannot be empty", common.ErrValidation)
	ErrNilParameter       = fmt.Errorf("%w: parameter cannot be nil", common.ErrValidation)
	ErrInvalidDateRange   = fmt.Errorf("%w: start date must be before end date", common.ErrValidation)
	ErrInvalidTransaction = fmt.Errorf("%w: invalid transaction", common.ErrValidation)
	ErrInvalidModel       = fmt.Errorf("%w: invalid behavior model", common.ErrValidation)
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateUserID(userID int64) error {
	if userID <= 0 {
		return fmt.Errorf("%w: user_id must be positive, got %d", common.ErrValidation, userID)
	}
	return nil
}

// validateTransaction validates a single transaction.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.UserID <= 0 {
		return fmt.Errorf("%w: missing user ID", ErrInvalidTransaction)
	}
	if !txn.Type.IsValid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, txn.Type)
	}
	if math.IsNaN(txn.Amount) || math.IsInf(txn.Amount, 0) || txn.Amount < 0 {
		return fmt.Errorf("%w: amount must be a non-negative number", ErrInvalidTransaction)
	}
	if strings.TrimSpace(txn.Merchant) == "" && strings.TrimSpace(txn.RawText) == "" {
		return fmt.Errorf("%w: missing merchant and raw text", ErrInvalidTransaction)
	}
	return nil
}

func validateModel(m *model.BehaviorModel) error {
	if m == nil {
		return fmt.Errorf("%w: behavior model", ErrNilParameter)
	}
	if m.UserID <= 0 {
		return fmt.Errorf("%w: missing user ID", ErrInvalidModel)
	}
	return nil
}

func validateFilter(filter service.TransactionFilter) error {
	if err := validateUserID(filter.UserID); err != nil {
		return err
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return ErrInvalidDateRange
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return fmt.Errorf("%w: limit and offset must not be negative", common.ErrValidation)
	}
	return nil
}
