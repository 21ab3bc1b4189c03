package forecast

// Risk levels, from most to least severe.
const (
	RiskCritical = "CRITICAL"
	RiskHigh     = "HIGH"
	RiskModerate = "MODERATE"
	RiskLow      = "LOW"
	RiskMinimal  = "MINIMAL"
)

// RiskAssessment is the overall cash-flow risk of a user.
type RiskAssessment struct {
	Level           string   `json:"level"`
	Message         string   `json:"message"`
	Factors         []string `json:"risk_factors"`
	Score           int      `json:"risk_score"`
	ImmediateAction bool     `json:"immediate_action"`
}

type riskBand struct {
	minScore  int
	level     string
	message   string
	immediate bool
}

var riskBands = []riskBand{
	{7, RiskCritical, "Immediate action required to avoid cash crisis", true},
	{5, RiskHigh, "Significant financial stress - urgent attention needed", true},
	{3, RiskModerate, "Some financial challenges - proactive management recommended", false},
	{1, RiskLow, "Minor concerns - continue monitoring", false},
	{0, RiskMinimal, "Financial situation appears stable", false},
}

// AssessRisk scores lean frequency, forecast warnings, emergency fund
// coverage and income volatility, then buckets the score into a level.
func AssessRisk(lean LeanAnalysis, fc CashFlowForecast, sm IncomeSmoothing) RiskAssessment {
	score := 0
	factors := []string{}
	add := func(points int, factor string) {
		score += points
		factors = append(factors, factor)
	}

	switch {
	case lean.LeanFrequency > 0.4:
		add(3, "High frequency of lean periods")
	case lean.LeanFrequency > 0.25:
		add(2, "Moderate lean period frequency")
	}

	switch {
	case fc.HasCriticalWarning():
		add(4, "Critical cash flow issues forecasted")
	case len(fc.Warnings) > 0:
		add(2, "Potential cash flow challenges ahead")
	}

	// Without smoothing data the fund counts as fully covered.
	target, gap := 1.0, 0.0
	if sm.Status == SmoothingOK {
		target, gap = sm.TargetEmergencyFund, sm.EmergencyFundGap
	}
	coverage := 0.0
	if target > 0 {
		coverage = (target - gap) / target
	}
	switch {
	case coverage < 0.3:
		add(3, "Insufficient emergency fund (<30% of target)")
	case coverage < 0.6:
		add(1, "Emergency fund needs improvement")
	}

	switch {
	case sm.IncomeVolatility > 0.5:
		add(2, "Very high income volatility")
	case sm.IncomeVolatility > 0.3:
		add(1, "Elevated income volatility")
	}

	for _, b := range riskBands {
		if score >= b.minScore {
			return RiskAssessment{
				Level:           b.level,
				Message:         b.message,
				ImmediateAction: b.immediate,
				Score:           score,
				Factors:         factors,
			}
		}
	}
	return RiskAssessment{Level: RiskMinimal, Score: score, Factors: factors}
}
