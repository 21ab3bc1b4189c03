// Package simulation answers what-if questions against a BehaviorModel snapshot:
// percentage scenarios, scenario comparison, zero-sum reallocation, and
// multi-month projection. Every function is pure over its inputs.
package simulation

// ScenarioType is the direction of a spending scenario.
type ScenarioType string

const (
	// ScenarioReduction lowers spending.
	ScenarioReduction ScenarioType = "reduction"
	// ScenarioIncrease raises spending.
	ScenarioIncrease ScenarioType = "increase"
)

// IsValid reports whether t is a supported scenario type.
func (t ScenarioType) IsValid() bool {
	return t == ScenarioReduction || t == ScenarioIncrease
}

// Feasibility of a whole scenario.
const (
	FeasibilityHighlyAchievable = "highly_achievable"
	FeasibilityAchievable       = "achievable"
	FeasibilityChallenging      = "challenging"
	FeasibilityUnrealistic      = "unrealistic"
)

// Difficulty of changing one category.
const (
	DifficultyEasy        = "easy"
	DifficultyModerate    = "moderate"
	DifficultyChallenging = "challenging"
)

// Feasibility of a single reallocation.
const (
	ChangeComfortable = "comfortable"
	ChangeModerate    = "moderate"
	ChangeDifficult   = "difficult"
	ChangeUnrealistic = "unrealistic"
)

// Projection trend labels.
const (
	TrendDecreasing = "decreasing"
	TrendIncreasing = "increasing"
	TrendStable     = "stable"
)

// Values used for request fields an API caller leaves out.
const (
	DefaultPeriodDays   = 30
	DefaultNumScenarios = 3
)

// DefaultScenarioRequest returns a reduction over DefaultPeriodDays with no target.
func DefaultScenarioRequest() ScenarioRequest {
	return ScenarioRequest{Type: ScenarioReduction, PeriodDays: DefaultPeriodDays}
}

// DefaultCompareRequest returns DefaultNumScenarios reductions over DefaultPeriodDays.
func DefaultCompareRequest() CompareRequest {
	return CompareRequest{Type: ScenarioReduction, PeriodDays: DefaultPeriodDays, NumScenarios: DefaultNumScenarios}
}

// DefaultReallocationRequest returns an empty reallocation over DefaultPeriodDays.
func DefaultReallocationRequest() ReallocationRequest {
	return ReallocationRequest{PeriodDays: DefaultPeriodDays}
}

// DefaultProjectionRequest sets only the period. projection_months has no default.
func DefaultProjectionRequest() ProjectionRequest {
	return ProjectionRequest{PeriodDays: DefaultPeriodDays}
}

// ScenarioRequest asks for a single percentage scenario.
type ScenarioRequest struct {
	Type             ScenarioType `json:"scenario_type"`
	TargetCategories []string     `json:"target_categories,omitempty"`
	TargetPercent    float64      `json:"target_percent"`
	PeriodDays       int          `json:"time_period_days"`
}

// CategoryAnalysis is the per-category part of a scenario result.
type CategoryAnalysis struct {
	Difficulty       string  `json:"difficulty"`
	CurrentMonthly   float64 `json:"current_monthly"`
	MaxChangePct     float64 `json:"max_change_pct"`
	AchievablePct    float64 `json:"achievable_change_pct"`
	MonthlyChange    float64 `json:"monthly_change"`
	Confidence       float64 `json:"confidence"`
	Elasticity       float64 `json:"elasticity"`
	TransactionCount float64 `json:"transaction_count"`
}

// Recommendation is one ranked suggestion attached to a scenario.
type Recommendation struct {
	Category      string  `json:"category"`
	Action        string  `json:"action"`
	Difficulty    string  `json:"difficulty"`
	Message       string  `json:"message"`
	MonthlyImpact float64 `json:"monthly_impact"`
}

// SimulationResult is the outcome of a single scenario.
type SimulationResult struct {
	CategoryBreakdown  map[string]CategoryAnalysis `json:"category_breakdown"`
	ScenarioType       ScenarioType                `json:"scenario_type"`
	Feasibility        string                      `json:"feasibility"`
	Recommendations    []Recommendation            `json:"recommendations"`
	TargetedCategories []string                    `json:"targeted_categories,omitempty"`
	TargetPercent      float64                     `json:"target_percent"`
	AchievablePercent  float64                     `json:"achievable_percent"`
	BaselineMonthly    float64                     `json:"baseline_monthly"`
	ProjectedMonthly   float64                     `json:"projected_monthly"`
	TotalChange        float64                     `json:"total_change"`
	AnnualImpact       float64                     `json:"annual_impact"`
	PeriodDays         int                         `json:"time_period_days"`
}

// CompareRequest asks for a set of preset scenarios.
type CompareRequest struct {
	Type         ScenarioType `json:"scenario_type"`
	PeriodDays   int          `json:"time_period_days"`
	NumScenarios int          `json:"num_scenarios"`
}

// ScenarioSummary describes one scenario within a comparison.
type ScenarioSummary struct {
	ScenarioID        string       `json:"scenario_id"`
	Name              string       `json:"name"`
	Description       string       `json:"description"`
	ScenarioType      ScenarioType `json:"scenario_type"`
	Feasibility       string       `json:"feasibility"`
	KeyInsight        string       `json:"key_insight"`
	TopCategories     []string     `json:"top_categories"`
	TargetPercent     float64      `json:"target_percent"`
	AchievablePercent float64      `json:"achievable_percent"`
	BaselineMonthly   float64      `json:"baseline_monthly"`
	ProjectedMonthly  float64      `json:"projected_monthly"`
	TotalChange       float64      `json:"total_change"`
	AnnualImpact      float64      `json:"annual_impact"`
	DifficultyScore   float64      `json:"difficulty_score"`
	Score             float64      `json:"score"`
}

// ComparisonChart holds chart-ready series, one entry per scenario.
type ComparisonChart struct {
	Labels        []string  `json:"labels"`
	TargetPercent []float64 `json:"target_percent"`
	Achievable    []float64 `json:"achievable_percent"`
	MonthlyChange []float64 `json:"monthly_change"`
	AnnualImpact  []float64 `json:"annual_impact"`
}

// ComparisonResult is the outcome of comparing preset scenarios.
type ComparisonResult struct {
	ScenarioType          ScenarioType      `json:"scenario_type"`
	RecommendedScenarioID string            `json:"recommended_scenario_id"`
	Scenarios             []ScenarioSummary `json:"scenarios"`
	Insights              []string          `json:"insights"`
	ComparisonChart       ComparisonChart   `json:"comparison_chart"`
	BaselineMonthly       float64           `json:"baseline_monthly"`
	PeriodDays            int               `json:"time_period_days"`
}

// ReallocationRequest moves money between categories. Deltas are monthly
// amounts and must sum to zero.
type ReallocationRequest struct {
	Reallocations map[string]float64 `json:"reallocations"`
	PeriodDays    int                `json:"time_period_days"`
}

// CategoryReallocation is the per-category part of a reallocation.
type CategoryReallocation struct {
	Category       string  `json:"category"`
	Feasibility    string  `json:"feasibility"`
	ImpactNote     string  `json:"impact_note"`
	CurrentMonthly float64 `json:"current_monthly"`
	ChangeAmount   float64 `json:"change_amount"`
	NewMonthly     float64 `json:"new_monthly"`
	ChangePercent  float64 `json:"change_percent"`
	BaselineFloor  float64 `json:"baseline_floor"`
}

// ReallocationChart holds chart-ready current and proposed amounts.
type ReallocationChart struct {
	Categories []string  `json:"categories"`
	Current    []float64 `json:"current"`
	Proposed   []float64 `json:"proposed"`
}

// ReallocationResult is the outcome of a reallocation.
type ReallocationResult struct {
	FeasibilityAssessment string                 `json:"feasibility_assessment"`
	Reallocations         []CategoryReallocation `json:"reallocations"`
	Warnings              []string               `json:"warnings"`
	Recommendations       []string               `json:"recommendations"`
	VisualData            ReallocationChart      `json:"visual_data"`
	BaselineMonthly       float64                `json:"baseline_monthly"`
	ProjectedMonthly      float64                `json:"projected_monthly"`
	IsBalanced            bool                   `json:"is_balanced"`
}

// ProjectionRequest asks for a month-by-month projection. BehavioralChanges are
// per-category percentage deltas. ScenarioID replays a comparison scenario such
// as "reduction-20"; explicit changes override the replayed ones.
type ProjectionRequest struct {
	BehavioralChanges map[string]float64 `json:"behavioral_changes,omitempty"`
	ScenarioID        string             `json:"scenario_id,omitempty"`
	Months            int                `json:"projection_months"`
	PeriodDays        int                `json:"time_period_days"`
}

// MonthlyProjection is one projected month.
type MonthlyProjection struct {
	CategoryBreakdown map[string]float64 `json:"category_breakdown"`
	MonthLabel        string             `json:"month_label"`
	Month             int                `json:"month"`
	ProjectedSpending float64            `json:"projected_spending"`
	CumulativeChange  float64            `json:"cumulative_change"`
	Confidence        float64            `json:"confidence"`
}

// ProjectionChart holds chart-ready projection series.
type ProjectionChart struct {
	Labels           []string  `json:"labels"`
	Baseline         []float64 `json:"baseline"`
	Projected        []float64 `json:"projected"`
	CumulativeChange []float64 `json:"cumulative_change"`
	Confidence       []float64 `json:"confidence"`
}

// ProjectionResult is the outcome of a projection.
type ProjectionResult struct {
	Trend              string              `json:"trend"`
	TrendAnalysis      string              `json:"trend_analysis"`
	ConfidenceLevel    string              `json:"confidence_level"`
	ScenarioID         string              `json:"scenario_id,omitempty"`
	MonthlyProjections []MonthlyProjection `json:"monthly_projections"`
	KeyInsights        []string            `json:"key_insights"`
	ProjectionChart    ProjectionChart     `json:"projection_chart"`
	BaselineMonthly    float64             `json:"baseline_monthly"`
	TotalProjected     float64             `json:"total_projected"`
	TotalBaseline      float64             `json:"total_baseline"`
	CumulativeChange   float64             `json:"cumulative_change"`
	AnnualImpact       float64             `json:"annual_impact"`
	ProjectionMonths   int                 `json:"projection_months"`
	// IgnoredCategories lists behavioral_changes keys with no spending history.
	IgnoredCategories []string `json:"ignored_categories,omitempty"`
}
