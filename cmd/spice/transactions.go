package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-forecast/internal/cli"
	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/Veraticus/spice-forecast/internal/service"
)

const dateLayout = "2006-01-02"

func addCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record transactions",
		Long: `Record a single transaction from flags, or a JSON array of transactions
with --file (use - for stdin). Debits without a category are categorized
automatically.

Examples:
  spice add --merchant "Blue Bottle" --amount 6.25 --date 2025-03-14
  spice add --type credit --merchant "Acme Corp" --amount 4000
  spice add --file transactions.json`,
		Args: cobra.NoArgs,
		RunE: runAdd,
	}

	cmd.Flags().String("merchant", "", "merchant or income source")
	cmd.Flags().Float64("amount", 0, "amount, always positive")
	cmd.Flags().String("type", string(model.TypeDebit), "debit or credit")
	cmd.Flags().String("category", "", "spending category (blank to auto-categorize)")
	cmd.Flags().String("date", "", "date as YYYY-MM-DD or RFC 3339 (default: now)")
	cmd.Flags().String("raw", "", "raw statement text")
	cmd.Flags().String("account", "", "account identifier")
	cmd.Flags().StringP("file", "f", "", "JSON file of transactions")

	return cmd
}

func runAdd(cmd *cobra.Command, _ []string) error {
	userID := userFlag(cmd)

	if path, _ := cmd.Flags().GetString("file"); path != "" {
		txns, err := readTransactionsFile(cmd, path, userID)
		if err != nil {
			return err
		}
		return withApp(cmd, func(a *app) error {
			summary, err := a.engine.ProcessTransactions(cmd.Context(), txns, nil)
			if err != nil {
				return err
			}
			return emit(cmd, summary, func() string { return cli.RenderBatchSummary(summary) })
		})
	}

	txn, err := transactionFromFlags(cmd, userID)
	if err != nil {
		return err
	}
	return withApp(cmd, func(a *app) error {
		res, err := a.engine.ProcessTransaction(cmd.Context(), txn)
		if err != nil {
			return err
		}
		return emit(cmd, res, func() string { return cli.RenderProcessResult(res) })
	})
}

func transactionFromFlags(cmd *cobra.Command, userID int64) (model.Transaction, error) {
	merchant, _ := cmd.Flags().GetString("merchant")
	amount, _ := cmd.Flags().GetFloat64("amount")
	txType, _ := cmd.Flags().GetString("type")
	category, _ := cmd.Flags().GetString("category")
	date, _ := cmd.Flags().GetString("date")
	raw, _ := cmd.Flags().GetString("raw")
	account, _ := cmd.Flags().GetString("account")

	ts := time.Now().UTC()
	if date != "" {
		parsed, err := parseDate(date)
		if err != nil {
			return model.Transaction{}, err
		}
		ts = parsed
	}

	return model.Transaction{
		UserID:    userID,
		Timestamp: ts,
		Merchant:  merchant,
		RawText:   raw,
		Amount:    amount,
		Type:      model.TransactionType(txType),
		Category:  category,
		AccountID: account,
	}, nil
}

func readTransactionsFile(cmd *cobra.Command, path string, userID int64) ([]model.Transaction, error) {
	f, err := readSource(cmd, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var txns []model.Transaction
	if err := json.NewDecoder(f).Decode(&txns); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", common.ErrValidation, path, err)
	}
	for i := range txns {
		txns[i].UserID = userID
	}
	return txns, nil
}

// parseDate accepts a calendar date (midnight UTC) or an RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, common.Validationf("invalid date %q (want YYYY-MM-DD or RFC 3339)", s)
	}
	return t.UTC(), nil
}

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"txns"},
		Short:   "List recorded transactions",
		Args:    cobra.NoArgs,
		RunE:    runTransactions,
	}

	cmd.Flags().String("start", "", "earliest date, inclusive")
	cmd.Flags().String("end", "", "latest date, inclusive")
	cmd.Flags().Int("limit", 50, "maximum rows (0 for all)")
	cmd.Flags().Int("offset", 0, "rows to skip")

	return cmd
}

func runTransactions(cmd *cobra.Command, _ []string) error {
	filter := service.TransactionFilter{UserID: userFlag(cmd)}
	filter.Limit, _ = cmd.Flags().GetInt("limit")
	filter.Offset, _ = cmd.Flags().GetInt("offset")

	var err error
	if filter.StartDate, err = dateFlag(cmd, "start", false); err != nil {
		return err
	}
	if filter.EndDate, err = dateFlag(cmd, "end", true); err != nil {
		return err
	}

	return withApp(cmd, func(a *app) error {
		txns, err := a.engine.GetTransactions(cmd.Context(), filter)
		if err != nil {
			return err
		}
		if txns == nil {
			txns = []model.Transaction{}
		}
		return emit(cmd, txns, func() string { return cli.RenderTransactions(txns) })
	})
}

func recategorizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recategorize ID",
		Short: "Ask the categorizer again for a recorded debit",
		Long: `Ignore the stored category of a debit, ask the categorizer for a new one
and rebuild the behavior model with it. Find IDs with 'spice transactions --json'.`,
		Args: cobra.ExactArgs(1),
		RunE: runRecategorize,
	}
}

func runRecategorize(cmd *cobra.Command, args []string) error {
	userID := userFlag(cmd)
	return withApp(cmd, func(a *app) error {
		txn, err := a.engine.RecategorizeTransaction(cmd.Context(), userID, args[0])
		if errors.Is(err, common.ErrNotFound) {
			return common.NewUserError(fmt.Sprintf("user %d has no transaction %s; list them with 'spice transactions --json'", userID, args[0]), err)
		}
		if err != nil {
			return err
		}
		return emit(cmd, txn, func() string { return cli.RenderTransactions([]model.Transaction{*txn}) })
	})
}

// dateFlag parses an optional date flag. A bare end date covers its whole day.
func dateFlag(cmd *cobra.Command, name string, endOfDay bool) (*time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return nil, nil
	}
	t, err := parseDate(raw)
	if err != nil {
		return nil, err
	}
	if endOfDay && len(raw) == len(dateLayout) {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
