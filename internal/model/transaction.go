package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// TransactionType indicates the direction of money movement.
type TransactionType string

const (
	// TypeDebit represents money leaving the account (spending).
	TypeDebit TransactionType = "debit"
	// TypeCredit represents money entering the account (income).
	TypeCredit TransactionType = "credit"
)

// IsValid reports whether the type is one the behavior model understands.
func (t TransactionType) IsValid() bool {
	return t == TypeDebit || t == TypeCredit
}

// Transaction represents a single financial transaction for a user.
type Transaction struct {
	Timestamp time.Time       `json:"timestamp"`
	ID        string          `json:"id"`
	Merchant  string          `json:"merchant"`
	Category  string          `json:"category,omitempty"` // Empty until classified
	RawText   string          `json:"raw_text,omitempty"` // Raw bank message or description
	AccountID string          `json:"account_id,omitempty"`
	Hash      string          `json:"hash,omitempty"`
	Type      TransactionType `json:"type"`
	UserID    int64           `json:"user_id"`
	Amount    float64         `json:"amount"`
}

// IsClassified reports whether the transaction already carries a category.
func (t *Transaction) IsClassified() bool {
	return t.Category != ""
}

// GenerateHash creates a unique hash for duplicate detection. A caller
// supplied ID (an OFX FITID, for example) is part of the hash, so two
// identical purchases in the same minute stay distinct when their source
// tells them apart.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%d:%s:%.2f:%s:%s:%s",
		t.UserID,
		t.Timestamp.Format("2006-01-02T15:04"),
		t.Amount,
		t.Merchant,
		t.Type,
		t.AccountID)
	if t.ID != "" {
		data += ":id=" + t.ID
	}
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
