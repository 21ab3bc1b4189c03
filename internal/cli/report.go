package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Veraticus/spice-forecast/internal/engine"
	"github.com/Veraticus/spice-forecast/internal/forecast"
	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/Veraticus/spice-forecast/internal/simulation"
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(SubtleStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			return TableCellStyle
		})
}

func kv(b *strings.Builder, key, value string) {
	fmt.Fprintf(b, "%s %s\n", SubtleStyle.Render(key+":"), value)
}

func bullets(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n" + SubtitleStyle.Render(title) + "\n")
	for _, item := range items {
		b.WriteString("  • " + item + "\n")
	}
}

// RenderBatchSummary reports an ingestion run.
func RenderBatchSummary(s engine.BatchSummary) string {
	var b strings.Builder
	b.WriteString(FormatSuccess(fmt.Sprintf("Processed %d transactions", s.Processed)) + "\n")
	if s.Duplicates > 0 {
		b.WriteString(FormatInfo(fmt.Sprintf("Skipped %d duplicates", s.Duplicates)) + "\n")
	}
	if s.Invalid > 0 {
		b.WriteString(FormatWarning(fmt.Sprintf("Skipped %d invalid transactions", s.Invalid)) + "\n")
	}
	return b.String()
}

// RenderProcessResult reports a single ingested transaction.
func RenderProcessResult(res *engine.ProcessResult) string {
	txn := res.Transaction
	if res.Duplicate {
		return FormatInfo(fmt.Sprintf("Duplicate transaction %s ignored (model has %d transactions)", txn.Hash[:min(12, len(txn.Hash))], res.TransactionCount)) + "\n"
	}
	label := txn.Category
	if txn.Type == model.TypeCredit {
		label = "income"
	}
	return FormatSuccess(fmt.Sprintf("%s %s at %s → %s (model has %d transactions)",
		txn.Type, Money(txn.Amount), txn.Merchant, label, res.TransactionCount)) + "\n"
}

// RenderTransactions lists transactions oldest first.
func RenderTransactions(txns []model.Transaction) string {
	if len(txns) == 0 {
		return FormatInfo("No transactions recorded") + "\n"
	}
	t := newTable("Date", "Merchant", "Type", "Category", "Amount")
	for _, txn := range txns {
		date := "-"
		if !txn.Timestamp.IsZero() {
			date = txn.Timestamp.Format("2006-01-02")
		}
		amount := Money(txn.Amount)
		if txn.Type == model.TypeDebit {
			amount = Money(-txn.Amount)
		}
		t.Row(date, txn.Merchant, string(txn.Type), txn.Category, amount)
	}
	return t.Render() + "\n"
}

// RenderBehaviorModel summarizes a model with a per-category table.
func RenderBehaviorModel(m *model.BehaviorModel) string {
	var b strings.Builder
	b.WriteString(FormatTitle(fmt.Sprintf("Behavior model for user %d", m.UserID)) + "\n")
	kv(&b, "Transactions", fmt.Sprint(m.TransactionCount))
	kv(&b, "Impulse score", fmt.Sprintf("%.2f", m.ImpulseScore))
	kv(&b, "Last updated", m.LastUpdated.Format("2006-01-02 15:04"))

	cats := m.Categories()
	slices.SortFunc(cats, func(a, c string) int {
		// Largest spend first.
		switch sa, sc := m.CategoryStats[a].Sum, m.CategoryStats[c].Sum; {
		case sa > sc:
			return -1
		case sa < sc:
			return 1
		default:
			return strings.Compare(a, c)
		}
	})

	if len(cats) > 0 {
		t := newTable("Category", "Count", "Mean", "Std dev", "Total", "Elasticity", "Baseline")
		for _, c := range cats {
			s := m.CategoryStats[c]
			t.Row(c,
				fmt.Sprintf("%.1f", s.Count),
				Money(s.Mean),
				Money(s.StdDev),
				Money(s.Sum),
				fmt.Sprintf("%.2f", m.Elasticity[c]),
				Money(m.Baselines[c]))
		}
		b.WriteString("\n" + t.String() + "\n")
	}

	if inc := m.IncomeStats; inc != nil && inc.Count > 0 {
		b.WriteString("\n" + SubtitleStyle.Render(MoneyIcon+" Income") + "\n")
		kv(&b, "Payments", fmt.Sprintf("%.0f", inc.Count))
		kv(&b, "Average", Money(inc.Mean))
		kv(&b, "Volatility", fmt.Sprintf("%.2f", inc.VolatilityCoefficient))
		kv(&b, "Business / personal", fmt.Sprintf("%s / %s", Money(inc.BusinessIncome.Sum), Money(inc.PersonalIncome.Sum)))
	}
	return b.String()
}

// RenderScenario renders a single-scenario simulation.
func RenderScenario(out *engine.ScenarioOutcome) string {
	sim := out.SimulationResult
	var b strings.Builder
	b.WriteString(FormatTitle(fmt.Sprintf("%s scenario: %s target", title(string(sim.ScenarioType)), Percent(sim.TargetPercent))) + "\n")
	kv(&b, "Feasibility", FeasibilityStyle(sim.Feasibility).Render(Humanize(sim.Feasibility)))
	kv(&b, "Achievable", Percent(sim.AchievablePercent))
	kv(&b, "Monthly spending", fmt.Sprintf("%s → %s (%s)", Money(sim.BaselineMonthly), Money(sim.ProjectedMonthly), SignedMoney(sim.TotalChange)))
	kv(&b, "Annual impact", SignedMoney(sim.AnnualImpact))

	cats := make([]string, 0, len(sim.CategoryBreakdown))
	for c := range sim.CategoryBreakdown {
		cats = append(cats, c)
	}
	slices.Sort(cats)
	if len(cats) > 0 {
		t := newTable("Category", "Monthly", "Change", "Achievable", "Difficulty")
		for _, c := range cats {
			a := sim.CategoryBreakdown[c]
			t.Row(c, Money(a.CurrentMonthly), SignedMoney(a.MonthlyChange), Percent(a.AchievablePct),
				FeasibilityStyle(a.Difficulty).Render(a.Difficulty))
		}
		b.WriteString("\n" + t.String() + "\n")
	}

	recs := make([]string, 0, len(sim.Recommendations))
	for _, r := range sim.Recommendations {
		recs = append(recs, r.Message)
	}
	bullets(&b, "Recommendations", recs)

	if out.RefinedInsight != "" {
		b.WriteString("\n" + RenderBox("Insight", out.RefinedInsight) + "\n")
	}
	return b.String()
}

// RenderComparison renders a scenario comparison.
func RenderComparison(out *engine.ComparisonOutcome) string {
	cmp := out.ComparisonResult
	var b strings.Builder
	b.WriteString(FormatTitle(fmt.Sprintf("Comparing %s scenarios", cmp.ScenarioType)) + "\n")
	kv(&b, "Baseline", Money(cmp.BaselineMonthly)+"/month")

	t := newTable("", "Scenario", "Target", "Achievable", "Monthly", "Annual", "Feasibility")
	for _, s := range cmp.Scenarios {
		marker := ""
		if s.ScenarioID == cmp.RecommendedScenarioID {
			marker = "★"
		}
		t.Row(marker, s.Name, Percent(s.TargetPercent), Percent(s.AchievablePercent),
			SignedMoney(s.TotalChange), SignedMoney(s.AnnualImpact),
			FeasibilityStyle(s.Feasibility).Render(Humanize(s.Feasibility)))
	}
	b.WriteString("\n" + t.String() + "\n")

	bullets(&b, "Insights", cmp.Insights)
	if out.RefinedInsight != "" {
		b.WriteString("\n" + RenderBox("Insight", out.RefinedInsight) + "\n")
	}
	return b.String()
}

// RenderReallocation renders a zero-sum reallocation.
func RenderReallocation(r *simulation.ReallocationResult) string {
	var b strings.Builder
	b.WriteString(FormatTitle("Budget reallocation") + "\n")
	kv(&b, "Assessment", FeasibilityStyle(r.FeasibilityAssessment).Render(Humanize(r.FeasibilityAssessment)))

	t := newTable("Category", "Current", "Change", "New", "Floor", "Feasibility")
	for _, c := range r.Reallocations {
		t.Row(c.Category, Money(c.CurrentMonthly), SignedMoney(c.ChangeAmount), Money(c.NewMonthly),
			Money(c.BaselineFloor), FeasibilityStyle(c.Feasibility).Render(c.Feasibility))
	}
	b.WriteString("\n" + t.String() + "\n")

	warnings := make([]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		warnings = append(warnings, WarningStyle.Render(w))
	}
	bullets(&b, "Warnings", warnings)
	bullets(&b, "Recommendations", r.Recommendations)
	return b.String()
}

// RenderProjection renders a month-by-month projection.
func RenderProjection(p *simulation.ProjectionResult) string {
	var b strings.Builder
	b.WriteString(FormatTitle(fmt.Sprintf("%d-month spending projection", p.ProjectionMonths)) + "\n")
	kv(&b, "Trend", fmt.Sprintf("%s (%s confidence)", p.Trend, p.ConfidenceLevel))
	kv(&b, "Baseline", Money(p.BaselineMonthly)+"/month")
	kv(&b, "Cumulative change", SignedMoney(p.CumulativeChange))
	if len(p.IgnoredCategories) > 0 {
		kv(&b, "Ignored (no history)", strings.Join(p.IgnoredCategories, ", "))
	}

	t := newTable("Month", "Projected", "Cumulative", "Confidence")
	for _, m := range p.MonthlyProjections {
		t.Row(m.MonthLabel, Money(m.ProjectedSpending), SignedMoney(m.CumulativeChange), Ratio(m.Confidence))
	}
	b.WriteString("\n" + t.String() + "\n")
	bullets(&b, "Key insights", p.KeyInsights)
	return b.String()
}

// RenderLeanAnalysis renders the complete lean-period analysis.
func RenderLeanAnalysis(a *forecast.CompleteAnalysis) string {
	s := a.Summary
	var b strings.Builder
	b.WriteString(FormatTitle("Cash-flow outlook") + "\n")
	kv(&b, "Risk", fmt.Sprintf("%s (score %d)", RiskStyle(s.RiskLevel).Render(s.RiskLevel), s.RiskScore))
	if s.RiskMessage != "" {
		b.WriteString(s.RiskMessage + "\n")
	}
	if s.ImmediateActionNeeded {
		b.WriteString(FormatError("Immediate action needed") + "\n")
	}
	kv(&b, "Daily budget this month", Money(s.CurrentMonthDailyBudget))
	if s.NextMonthDailyBudget != nil {
		kv(&b, "Daily budget next month", Money(*s.NextMonthDailyBudget))
	}
	bullets(&b, "Risk factors", s.RiskFactors)

	if fc := a.CashFlowForecast; len(fc.Forecasts) > 0 {
		t := newTable("Month", "Income (likely)", "Expenses (likely)", "Balance worst", "Balance likely", "Lean")
		for _, f := range fc.Forecasts {
			lean := ""
			if f.IsLeanPeriod {
				lean = WarningStyle.Render("yes")
			}
			worst := Money(f.ProjectedBalance.Worst)
			if f.BalanceAtRisk {
				worst = ErrorStyle.Render(worst)
			}
			t.Row(fmt.Sprintf("+%d", f.MonthOffset), Money(f.Income.Likely), Money(f.Expenses.Likely),
				worst, Money(f.ProjectedBalance.Likely), lean)
		}
		b.WriteString("\n" + t.String() + "\n")
	}
	bullets(&b, "Forecast warnings", a.CashFlowForecast.Warnings)

	if lean := a.HistoricalAnalysis.Monthly; len(lean.LeanPeriods) > 0 {
		periods := make([]string, 0, len(lean.LeanPeriods))
		for _, p := range lean.LeanPeriods {
			periods = append(periods, fmt.Sprintf("%s: net %s", p.Period, SignedMoney(p.NetFlow)))
		}
		bullets(&b, fmt.Sprintf("Lean months (%s of history)", Ratio(lean.LeanFrequency)), periods)
		if lean.PatternDetected.HasPattern {
			b.WriteString(FormatInfo(lean.PatternDetected.Description) + "\n")
		}
	}

	sm := a.IncomeSmoothing
	b.WriteString("\n" + SubtitleStyle.Render(MoneyIcon+" Emergency fund") + "\n")
	if sm.Message != "" {
		b.WriteString(sm.Message + "\n")
	}
	if sm.TargetEmergencyFund > 0 {
		kv(&b, "Target", Money(sm.TargetEmergencyFund))
		kv(&b, "Gap", Money(sm.EmergencyFundGap))
		kv(&b, "Save per good month", Money(sm.MonthlySaveAmount))
	}
	return b.String()
}

// RenderIncomeInsights renders income ratio and pattern analysis.
func RenderIncomeInsights(in *engine.IncomeInsights) string {
	var b strings.Builder
	b.WriteString(FormatTitle(fmt.Sprintf("Income insights for user %d", in.UserID)) + "\n")

	r := in.Ratio
	kv(&b, "Sustainability", r.Sustainability)
	kv(&b, "Risk", r.RiskLevel)
	kv(&b, "Average income / expenses", fmt.Sprintf("%s / %s (ratio %.2f)", Money(r.AvgIncome), Money(r.AvgExpenses), r.AvgRatio))
	kv(&b, "Worst case income", fmt.Sprintf("%s (ratio %.2f)", Money(r.WorstCaseIncome), r.WorstCaseRatio))
	kv(&b, "Recommended buffer", Money(r.RecommendedBuffer))

	p := in.Patterns
	b.WriteString("\n" + SubtitleStyle.Render(ChartIcon+" Patterns") + "\n")
	kv(&b, "Sources", fmt.Sprintf("%d (%s diversity, top client %s)", p.IncomeSources, p.DiversityLevel, Ratio(p.ClientConcentration)))
	kv(&b, "Stability", fmt.Sprintf("%s (volatility %.2f)", p.Stability, p.VolatilityCoefficient))
	if p.PaymentFrequencyDays > 0 {
		kv(&b, "Days between payments", fmt.Sprintf("avg %.0f, range %d-%d", p.PaymentFrequencyDays, p.ShortestGapDays, p.LongestGapDays))
	}
	kv(&b, "Business share", Ratio(p.BusinessShare))
	if in.DaysSinceLast != nil {
		kv(&b, "Days since last income", fmt.Sprint(*in.DaysSinceLast))
	}
	return b.String()
}
