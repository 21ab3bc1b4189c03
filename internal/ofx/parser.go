// Package ofx reads OFX/QFX bank and credit card statements into debit and
// credit transactions.
package ofx

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/Veraticus/spice-forecast/internal/model"
)

var (
	severityRe = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// Opening tags at end of line with no closing bracket.
	unclosedTagRe = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	// Leading "MM/DD " date stamps some banks put before the merchant.
	datePrefixRe = regexp.MustCompile(`^\d{2}/\d{2}\s+`)
)

var merchantPrefixes = []string{
	"POS PURCHASE ",
	"PURCHASE AUTHORIZED ON ",
	"DEBIT CARD PURCHASE ",
	"ACH DEBIT ",
	"ACH CREDIT ",
	"CHECK CARD ",
	"VISA PURCHASE ",
	"MC PURCHASE ",
	"DEBIT PURCHASE ",
	"DIRECT DEP ",
}

var genericDescriptions = map[string]bool{
	"DEBIT":           true,
	"CREDIT":          true,
	"PURCHASE":        true,
	"PAYMENT":         true,
	"DEPOSIT":         true,
	"POS TRANSACTION": true,
	"CARD PURCHASE":   true,
}

// Parser converts OFX statements for one user.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new OFX parser. A nil logger uses slog.Default.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// preprocessOFX fixes common formatting issues in OFX files.
func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRe.ReplaceAllStringFunc(content, strings.ToUpper)
	return unclosedTagRe.ReplaceAllString(content, "$1>")
}

func parse(reader io.Reader) (*ofxgo.Response, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}
	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}
	return resp, nil
}

// ParseFile returns the statement transactions for userID, oldest first.
// Negative amounts become debits and positive amounts credits; zero-amount
// rows are dropped. Categories are left empty for the categorizer.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader, userID int64) ([]model.Transaction, error) {
	resp, err := parse(reader)
	if err != nil {
		return nil, err
	}

	var transactions []model.Transaction
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			bankStmts++
			transactions = p.appendStatement(transactions, stmt.BankTranList.Transactions, string(stmt.BankAcctFrom.AcctID), userID)
		}
	}

	for _, msg := range resp.CreditCard {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			ccStmts++
			transactions = p.appendStatement(transactions, stmt.BankTranList.Transactions, string(stmt.CCAcctFrom.AcctID), userID)
		}
	}

	// Replay order matters for income gaps and decay.
	slices.SortStableFunc(transactions, func(a, b model.Transaction) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	p.logger.Info("Parsed OFX file",
		"total_transactions", len(transactions),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return transactions, nil
}

func (p *Parser) appendStatement(dst []model.Transaction, txns []ofxgo.Transaction, accountID string, userID int64) []model.Transaction {
	for _, ofxTx := range txns {
		txn, ok := p.convertTransaction(ofxTx, accountID, userID)
		if !ok {
			continue
		}
		dst = append(dst, txn)
	}
	return dst
}

// convertTransaction converts an OFX transaction to our model.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction, accountID string, userID int64) (model.Transaction, bool) {
	amount, _ := ofxTx.TrnAmt.Float64()
	if amount == 0 {
		p.logger.Debug("Skipping zero-amount OFX transaction", "fitid", ofxTx.FiTID, "account", accountID)
		return model.Transaction{}, false
	}

	txType := model.TypeCredit
	if amount < 0 {
		txType = model.TypeDebit
		amount = -amount
	}

	raw := strings.TrimSpace(string(ofxTx.Name))
	if memo := strings.TrimSpace(string(ofxTx.Memo)); memo != "" {
		raw = strings.TrimSpace(raw + " " + memo)
	}

	txn := model.Transaction{
		ID:        transactionID(userID, accountID, string(ofxTx.FiTID)),
		UserID:    userID,
		Timestamp: ofxTx.DtPosted.Time.UTC(),
		Merchant:  extractMerchantName(ofxTx),
		RawText:   raw,
		Amount:    amount,
		Type:      txType,
		AccountID: accountID,
	}
	txn.Hash = txn.GenerateHash()
	return txn, true
}

// transactionID keeps re-imports of the same statement row on the same ID.
// Rows without a FITID get a storage-assigned ID instead.
func transactionID(userID int64, accountID, fitID string) string {
	if fitID == "" {
		return ""
	}
	return fmt.Sprintf("ofx-%d-%s-%s", userID, accountID, fitID)
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func extractMerchantName(tx ofxgo.Transaction) string {
	// PAYEE is the cleanest source when the bank provides it.
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := strings.TrimSpace(string(tx.Name))
	if tx.Memo != "" && genericDescriptions[strings.ToUpper(name)] {
		name = strings.TrimSpace(string(tx.Memo))
	}

	upper := strings.ToUpper(name)
	for _, prefix := range merchantPrefixes {
		if strings.HasPrefix(upper, prefix) {
			name = name[len(prefix):]
			break
		}
	}

	return strings.TrimSpace(datePrefixRe.ReplaceAllString(name, ""))
}

// GetAccounts returns the sorted account IDs present in the OFX file.
func (p *Parser) GetAccounts(ctx context.Context, reader io.Reader) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := parse(reader)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankAcctFrom.AcctID != "" {
			seen[string(stmt.BankAcctFrom.AcctID)] = true
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.CCAcctFrom.AcctID != "" {
			seen[string(stmt.CCAcctFrom.AcctID)] = true
		}
	}

	accounts := make([]string, 0, len(seen))
	for acct := range seen {
		accounts = append(accounts, acct)
	}
	slices.SortFunc(accounts, cmp.Compare[string])
	return accounts, nil
}
