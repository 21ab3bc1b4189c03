package testutil

import (
	"fmt"
	"time"

	"github.com/Veraticus/spice-forecast/internal/model"
)

// TransactionBuilder provides a fluent interface for constructing
// transaction histories for a single user.
type TransactionBuilder struct {
	txns    []model.Transaction
	userID  int64
	account string
}

// NewTransactionBuilder starts a history for the given user.
func NewTransactionBuilder(userID int64) *TransactionBuilder {
	return &TransactionBuilder{userID: userID, account: "checking"}
}

// WithAccount sets the account ID for transactions added afterwards.
func (b *TransactionBuilder) WithAccount(accountID string) *TransactionBuilder {
	b.account = accountID
	return b
}

// Debit adds a categorized spending transaction.
func (b *TransactionBuilder) Debit(merchant, category string, amount float64, ts time.Time) *TransactionBuilder {
	return b.add(model.TypeDebit, merchant, category, amount, ts)
}

// Credit adds an income transaction.
func (b *TransactionBuilder) Credit(source string, amount float64, ts time.Time) *TransactionBuilder {
	return b.add(model.TypeCredit, source, "", amount, ts)
}

// MonthlyIncome adds one credit per month starting at start, cycling
// through amounts.
func (b *TransactionBuilder) MonthlyIncome(source string, start time.Time, amounts ...float64) *TransactionBuilder {
	for i, amount := range amounts {
		b.Credit(source, amount, start.AddDate(0, i, 0))
	}
	return b
}

// MonthlySpending adds one debit per month starting at start.
func (b *TransactionBuilder) MonthlySpending(merchant, category string, start time.Time, amounts ...float64) *TransactionBuilder {
	for i, amount := range amounts {
		b.Debit(merchant, category, amount, start.AddDate(0, i, 0))
	}
	return b
}

func (b *TransactionBuilder) add(typ model.TransactionType, merchant, category string, amount float64, ts time.Time) *TransactionBuilder {
	txn := model.Transaction{
		ID:        fmt.Sprintf("u%d-txn-%03d", b.userID, len(b.txns)+1),
		UserID:    b.userID,
		Timestamp: ts,
		Merchant:  merchant,
		RawText:   merchant,
		Category:  category,
		Amount:    amount,
		AccountID: b.account,
		Type:      typ,
	}
	txn.Hash = txn.GenerateHash()
	b.txns = append(b.txns, txn)
	return b
}

// Build returns a copy of the accumulated transactions.
func (b *TransactionBuilder) Build() []model.Transaction {
	return append([]model.Transaction(nil), b.txns...)
}
