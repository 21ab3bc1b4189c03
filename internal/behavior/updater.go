// Package behavior folds transactions into a user's BehaviorModel.
package behavior

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Veraticus/spice-forecast/internal/classification"
	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/Veraticus/spice-forecast/internal/service"
	"github.com/Veraticus/spice-forecast/internal/stats"
)

const (
	// DefaultCategorizerTimeout bounds a single categorizer call.
	DefaultCategorizerTimeout = 5 * time.Second
	// UnknownSource names income with no merchant.
	UnknownSource = "Unknown Source"
)

// Config controls how the Updater weighs history.
type Config struct {
	DecayFactor        float64
	CategorizerTimeout time.Duration
}

// DefaultConfig returns the standard decay factor and categorizer timeout.
func DefaultConfig() Config {
	return Config{
		DecayFactor:        stats.DecayFactor,
		CategorizerTimeout: DefaultCategorizerTimeout,
	}
}

// Updater applies transactions to behavior models.
// It holds no per-user state and is safe for concurrent use; callers must still
// serialize updates for a single user.
type Updater struct {
	categorizer service.Categorizer
	sources     classification.SourceClassifier
	logger      *slog.Logger
	now         func() time.Time
	cfg         Config
}

// Option configures an Updater.
type Option func(*Updater)

// WithClock overrides the clock used for LastUpdated and new models.
func WithClock(now func() time.Time) Option {
	return func(u *Updater) { u.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(u *Updater) { u.logger = logger }
}

// WithSourceClassifier replaces the keyword income classifier.
func WithSourceClassifier(c classification.SourceClassifier) Option {
	return func(u *Updater) { u.sources = c }
}

// NewUpdater creates an Updater. A nil categorizer leaves every uncategorized
// debit in OTHER.
func NewUpdater(categorizer service.Categorizer, cfg Config, opts ...Option) *Updater {
	if cfg.DecayFactor <= 0 || cfg.DecayFactor > 1 {
		cfg.DecayFactor = stats.DecayFactor
	}
	if cfg.CategorizerTimeout <= 0 {
		cfg.CategorizerTimeout = DefaultCategorizerTimeout
	}

	u := &Updater{
		categorizer: categorizer,
		sources:     classification.NewKeywordSourceClassifier(nil, nil),
		logger:      slog.Default(),
		now:         time.Now,
		cfg:         cfg,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Update returns a copy of m with txn applied. m is never mutated, so a caller
// whose commit fails simply drops the returned model. A nil m starts a new model
// for txn.UserID. The category assigned to an uncategorized debit is written
// back onto txn.
func (u *Updater) Update(ctx context.Context, m *model.BehaviorModel, txn *model.Transaction) (*model.BehaviorModel, error) {
	if txn == nil {
		return nil, common.Validationf("transaction is required")
	}
	if !stats.IsFinite(txn.Amount) || txn.Amount < 0 {
		return nil, common.Validationf("transaction amount must be a non-negative finite number, got %v", txn.Amount)
	}

	var next *model.BehaviorModel
	if m == nil {
		next = model.NewBehaviorModel(txn.UserID, u.now())
	} else {
		if m.UserID != txn.UserID {
			return nil, common.Validationf("transaction for user %d applied to model of user %d", txn.UserID, m.UserID)
		}
		next = m.Clone()
	}

	switch txn.Type {
	case model.TypeCredit:
		u.applyIncome(next, txn)
	case model.TypeDebit:
		if err := u.applyExpense(ctx, next, txn); err != nil {
			return nil, err
		}
	default:
		u.logger.Debug("Ignoring transaction with unsupported type",
			"transaction_id", txn.ID,
			"type", txn.Type)
		return next, nil
	}

	next.TransactionCount++
	next.LastUpdated = u.now()
	return next, nil
}

func (u *Updater) applyExpense(ctx context.Context, m *model.BehaviorModel, txn *model.Transaction) error {
	category := model.NormalizeCategory(txn.Category)
	if category == "" {
		category = u.categorize(ctx, txn)
	}
	txn.Category = category

	current, seen := m.CategoryStats[category]
	if seen {
		current = stats.Decay(current, u.cfg.DecayFactor)
	}
	updated := stats.Update(current, txn.Amount)
	if !stats.IsFinite(updated.Mean) || !stats.IsFinite(updated.Variance) {
		return common.Computationf("non-finite statistics for category %s after amount %v", category, txn.Amount)
	}
	m.CategoryStats[category] = updated

	m.Elasticity[category] = stats.Elasticity(category, updated)

	existing, ok := m.Baselines[category]
	m.Baselines[category] = stats.TightenBaseline(existing, ok, stats.BaselineCandidate(updated))

	impulse := stats.IsImpulse(txn.Amount, txn.Timestamp, updated, m.Habits)
	m.ImpulseScore = stats.NextImpulseScore(m.ImpulseScore, impulse)

	if !txn.Timestamp.IsZero() {
		m.Habits.HourlyDistribution[txn.Timestamp.Hour()]++
		m.Habits.WeeklyDistribution[mondayIndex(txn.Timestamp.Weekday())]++
	}

	return nil
}

// categorize asks the categorizer for a category, degrading to OTHER on any failure.
func (u *Updater) categorize(ctx context.Context, txn *model.Transaction) string {
	if u.categorizer == nil {
		return model.CategoryOther
	}

	category, err := u.requestCategory(ctx, txn)
	if err != nil {
		u.logger.Warn("Categorizer failed, using fallback category",
			"transaction_id", txn.ID,
			"merchant", txn.Merchant,
			"fallback", model.CategoryOther,
			"error", err)
		return model.CategoryOther
	}
	return category
}

// Recategorize asks the categorizer for a fresh category for a stored debit,
// ignoring the category it already carries. Unlike Update it does not fall
// back to OTHER: a failed call returns an error wrapping
// common.ErrCategorizerUnavailable.
func (u *Updater) Recategorize(ctx context.Context, txn *model.Transaction) (string, error) {
	if txn == nil {
		return "", common.Validationf("transaction is required")
	}
	if txn.Type != model.TypeDebit {
		return "", common.Validationf("only debit transactions carry a spending category, got %q", txn.Type)
	}
	if u.categorizer == nil {
		return "", fmt.Errorf("%w: no categorizer configured", common.ErrCategorizerUnavailable)
	}
	return u.requestCategory(ctx, txn)
}

func (u *Updater) requestCategory(ctx context.Context, txn *model.Transaction) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, u.cfg.CategorizerTimeout)
	defer cancel()

	category, confidence, err := u.categorizer.Categorize(cctx, txn.Merchant, txn.Amount, txn.RawText, txn.Type)
	if err == nil && category == "" {
		err = errors.New("empty category")
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrCategorizerUnavailable, err)
	}

	category = model.NormalizeCategory(category)
	u.logger.Debug("Categorized transaction",
		"transaction_id", txn.ID,
		"merchant", txn.Merchant,
		"category", category,
		"confidence", confidence)
	return category, nil
}

func (u *Updater) applyIncome(m *model.BehaviorModel, txn *model.Transaction) {
	source := txn.Merchant
	if source == "" {
		source = UnknownSource
	}
	incomeType := u.sources.Classify(source + "\n" + txn.RawText)

	if m.IncomeStats == nil {
		m.IncomeStats = &model.IncomeStats{}
	}
	in := m.IncomeStats

	in.CategoryStats = stats.Update(in.CategoryStats, txn.Amount)

	if in.Sources == nil {
		in.Sources = make(map[string]model.SourceStats)
	}
	src, ok := in.Sources[source]
	if !ok {
		src.Type = incomeType
	}
	src.Count++
	src.Total += txn.Amount
	in.Sources[source] = src

	bucket := in.Bucket(incomeType)
	bucket.Count++
	bucket.Sum += txn.Amount
	bucket.Mean = bucket.Sum / float64(bucket.Count)
	if bucket.Sources == nil {
		bucket.Sources = make(map[string]model.SourceTotals)
	}
	totals := bucket.Sources[source]
	totals.Count++
	totals.Total += txn.Amount
	bucket.Sources[source] = totals

	if !txn.Timestamp.IsZero() {
		at := txn.Timestamp.UTC()
		if in.LastIncomeDate != nil {
			gap := int(math.Floor(at.Sub(*in.LastIncomeDate).Hours() / 24))
			in.IncomeFrequencyDays = append(in.IncomeFrequencyDays, gap)
			if n := len(in.IncomeFrequencyDays); n > model.MaxIncomeGaps {
				in.IncomeFrequencyDays = in.IncomeFrequencyDays[n-model.MaxIncomeGaps:]
			}
		}
		in.LastIncomeDate = &at
	}

	in.VolatilityCoefficient = stats.CoefficientOfVariation(in.Mean, in.StdDev)
}

// mondayIndex maps time.Weekday (Sunday=0) to Monday=0 ... Sunday=6.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}
