// Package model defines the core domain models used throughout the application.
package model

import (
	"maps"
	"time"
)

// MaxIncomeGaps is the number of most recent inter-income gaps kept.
const MaxIncomeGaps = 20

// CategoryStats holds streaming (Welford) moments for one category.
// Variance is the population variance M2/Count.
type CategoryStats struct {
	Count    float64 `json:"count"`
	Sum      float64 `json:"sum"`
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	StdDev   float64 `json:"std_dev"`
	M2       float64 `json:"m2"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// Habits tracks when a user spends.
type Habits struct {
	// HourlyDistribution counts transactions per hour of day (0-23).
	HourlyDistribution [24]int `json:"hourly_distribution"`
	// WeeklyDistribution counts transactions per weekday, Monday=0 ... Sunday=6.
	WeeklyDistribution [7]int `json:"weekly_distribution"`
}

// Total returns the number of transactions recorded in the hourly histogram.
func (h Habits) Total() int {
	total := 0
	for _, n := range h.HourlyDistribution {
		total += n
	}
	return total
}

// IncomeType distinguishes business income from personal income.
type IncomeType string

const (
	// IncomeBusiness covers client, project and gig payments.
	IncomeBusiness IncomeType = "business"
	// IncomePersonal covers salary, gifts, refunds and everything else.
	IncomePersonal IncomeType = "personal"
)

// SourceTotals counts payments received from one source.
type SourceTotals struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// SourceStats counts payments from one source along with its income type.
type SourceStats struct {
	Type  IncomeType `json:"type"`
	Count int        `json:"count"`
	Total float64    `json:"total"`
}

// IncomeBucket aggregates one partition (business or personal) of income.
type IncomeBucket struct {
	Sources map[string]SourceTotals `json:"sources"`
	Count   int                     `json:"count"`
	Sum     float64                 `json:"sum"`
	Mean    float64                 `json:"mean"`
}

// IncomeStats tracks credit transactions for users with irregular income.
type IncomeStats struct {
	LastIncomeDate        *time.Time             `json:"last_income_date,omitempty"`
	Sources               map[string]SourceStats `json:"sources"`
	BusinessIncome        IncomeBucket           `json:"business_income"`
	PersonalIncome        IncomeBucket           `json:"personal_income"`
	IncomeFrequencyDays   []int                  `json:"income_frequency_days"`
	CategoryStats                                // aggregate Welford moments over credit amounts
	VolatilityCoefficient float64                `json:"volatility_coefficient"`
}

// Bucket returns the bucket for the given income type.
func (s *IncomeStats) Bucket(t IncomeType) *IncomeBucket {
	if t == IncomeBusiness {
		return &s.BusinessIncome
	}
	return &s.PersonalIncome
}

// BehaviorModel is the per-user statistical snapshot of spending and income.
type BehaviorModel struct {
	LastUpdated      time.Time                `json:"last_updated"`
	CreatedAt        time.Time                `json:"created_at"`
	CategoryStats    map[string]CategoryStats `json:"category_stats"`
	Elasticity       map[string]float64       `json:"elasticity"`
	Baselines        map[string]float64       `json:"baselines"`
	IncomeStats      *IncomeStats             `json:"income_stats,omitempty"`
	Habits           Habits                   `json:"habits"`
	UserID           int64                    `json:"user_id"`
	TransactionCount int                      `json:"transaction_count"`
	ImpulseScore     float64                  `json:"impulse_score"`
}

// NewBehaviorModel creates an empty model for a user.
func NewBehaviorModel(userID int64, now time.Time) *BehaviorModel {
	return &BehaviorModel{
		UserID:        userID,
		CategoryStats: make(map[string]CategoryStats),
		Elasticity:    make(map[string]float64),
		Baselines:     make(map[string]float64),
		CreatedAt:     now,
		LastUpdated:   now,
	}
}

// Categories returns the categories that have statistics.
func (m *BehaviorModel) Categories() []string {
	cats := make([]string, 0, len(m.CategoryStats))
	for c := range m.CategoryStats {
		cats = append(cats, c)
	}
	return cats
}

// Clone returns a deep copy so updates can be discarded if a commit fails.
func (m *BehaviorModel) Clone() *BehaviorModel {
	if m == nil {
		return nil
	}
	c := *m
	c.CategoryStats = maps.Clone(m.CategoryStats)
	c.Elasticity = maps.Clone(m.Elasticity)
	c.Baselines = maps.Clone(m.Baselines)
	if c.CategoryStats == nil {
		c.CategoryStats = make(map[string]CategoryStats)
	}
	if c.Elasticity == nil {
		c.Elasticity = make(map[string]float64)
	}
	if c.Baselines == nil {
		c.Baselines = make(map[string]float64)
	}
	if m.IncomeStats != nil {
		c.IncomeStats = m.IncomeStats.clone()
	}
	return &c
}

func (s *IncomeStats) clone() *IncomeStats {
	c := *s
	c.Sources = maps.Clone(s.Sources)
	c.BusinessIncome.Sources = maps.Clone(s.BusinessIncome.Sources)
	c.PersonalIncome.Sources = maps.Clone(s.PersonalIncome.Sources)
	c.IncomeFrequencyDays = append([]int(nil), s.IncomeFrequencyDays...)
	if s.LastIncomeDate != nil {
		t := *s.LastIncomeDate
		c.LastIncomeDate = &t
	}
	return &c
}
