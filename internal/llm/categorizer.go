package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/Veraticus/spice-forecast/internal/service"
)

// DefaultRuleThreshold is the rule confidence at which the model is skipped.
const DefaultRuleThreshold = 0.85

const categorizeSystemPrompt = "You are a financial transaction classifier. You MUST respond with ONLY a valid JSON object. " +
	"Do not include any explanatory text, markdown formatting, or commentary before or after the JSON. " +
	"Start your response directly with { and end with }."

// Categorizer implements service.Categorizer: a rule stage first, then an LLM.
type Categorizer struct {
	rules      service.Categorizer
	client     Client
	cache      *categoryCache
	limiter    *rateLimiter
	logger     *slog.Logger
	retryOpts  common.RetryOptions
	ruleCutoff float64
}

var _ service.Categorizer = (*Categorizer)(nil)

// NewCategorizer creates a categorizer. rules may be nil to always ask the
// model; client may be nil to use the rules alone.
func NewCategorizer(rules service.Categorizer, client Client, cfg Config, logger *slog.Logger) *Categorizer {
	if logger == nil {
		logger = slog.Default()
	}

	retryOpts := common.RetryOptions{
		Logger:       logger,
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	cutoff := cfg.RuleThreshold
	if cutoff <= 0 {
		cutoff = DefaultRuleThreshold
	}

	return &Categorizer{
		rules:      rules,
		client:     client,
		cache:      newCategoryCache(cfg.CacheTTL),
		limiter:    newRateLimiter(cfg.RateLimit),
		logger:     logger,
		retryOpts:  retryOpts,
		ruleCutoff: cutoff,
	}
}

// Categorize returns a known category and a confidence in [0, 1].
// Errors wrap common.ErrCategorizerUnavailable.
func (c *Categorizer) Categorize(ctx context.Context, merchant string, amount float64, rawText string, txnType model.TransactionType) (string, float64, error) {
	ruleCategory, ruleConfidence := model.CategoryOther, 0.0
	if c.rules != nil {
		cat, conf, err := c.rules.Categorize(ctx, merchant, amount, rawText, txnType)
		if err != nil {
			return "", 0, fmt.Errorf("%w: %w", common.ErrCategorizerUnavailable, err)
		}
		ruleCategory, ruleConfidence = cat, conf
		if conf >= c.ruleCutoff {
			return cat, conf, nil
		}
	}

	if c.client == nil {
		return ruleCategory, ruleConfidence, nil
	}

	key := cacheKey(merchant, txnType)
	if cached, ok := c.cache.get(key); ok {
		c.logger.Debug("Cache hit for merchant", "merchant", merchant, "category", cached.Category)
		return cached.Category, cached.Confidence, nil
	}

	if err := c.limiter.wait(ctx); err != nil {
		return "", 0, fmt.Errorf("%w: %w", common.ErrCategorizerUnavailable, err)
	}

	var result Categorization
	err := common.WithRetry(ctx, func() error {
		reply, err := c.client.Complete(ctx, categorizeSystemPrompt, buildCategorizePrompt(merchant, amount, rawText, txnType))
		if err != nil {
			return err
		}
		result, err = parseCategorization(reply)
		return err
	}, c.retryOpts)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %w", common.ErrCategorizerUnavailable, err)
	}

	c.logger.Debug("Merchant categorized",
		"merchant", merchant,
		"category", result.Category,
		"confidence", result.Confidence,
		"reasoning", result.Reasoning)

	c.cache.set(key, result)
	return result.Category, result.Confidence, nil
}

func buildCategorizePrompt(merchant string, amount float64, rawText string, txnType model.TransactionType) string {
	var sb strings.Builder
	sb.WriteString("Categorize this transaction into exactly one spending category.\n\n")
	fmt.Fprintf(&sb, "Merchant: %s\n", merchant)
	fmt.Fprintf(&sb, "Amount: $%.2f\n", amount)
	fmt.Fprintf(&sb, "Type: %s\n", txnType)
	if rawText != "" && rawText != merchant {
		fmt.Fprintf(&sb, "Bank description: %s\n", rawText)
	}
	sb.WriteString("\nCategories: ")
	sb.WriteString(strings.Join(model.AllCategories(), ", "))
	sb.WriteString("\n\nRespond with JSON: {\"category\": \"<one of the categories>\", ")
	sb.WriteString("\"confidence\": <0.0-1.0>, \"reasoning\": \"<one sentence>\"}")
	return sb.String()
}
