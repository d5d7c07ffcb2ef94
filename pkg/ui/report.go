package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bidlens/bidlens/pkg/bidreport"
)

// FormatReportLine formats one report as a single listing line.
// Output: [12] Rail Siding Extension  Port Authority  $300,000 - $450,000  5 mo  risk 4.0  [MAYBE]
func FormatReportLine(r bidreport.Report) string {
	var parts []string

	parts = append(parts, BracketStyle.Render("[")+StatValueStyle.Render(strconv.Itoa(r.ID))+BracketStyle.Render("]"))
	parts = append(parts, ConfigValueStyle.Render(r.Project))
	if r.Client != "" {
		parts = append(parts, StatLabelStyle.Render(r.Client))
	}
	parts = append(parts, MoneyStyle.Render(FormatBudgetRange(r.BudgetMin, r.BudgetMax)))
	parts = append(parts, StatLabelStyle.Render(FormatMonths(r.DurationMonths)))
	parts = append(parts, StatLabelStyle.Render("risk ")+RiskValueText(r.RiskScore))
	parts = append(parts, BracketStyle.Render("[")+RecommendationStyle(r.Recommendation).Render(r.Recommendation)+BracketStyle.Render("]"))
	if n := r.RedFlagCount(); n > 0 {
		parts = append(parts, WarnStyle.Render(fmt.Sprintf("%d flag(s)", n)))
	}

	return strings.Join(parts, "  ")
}

// RiskValueText colors a numeric risk score by magnitude.
func RiskValueText(risk float64) string {
	style := StatValueStyle
	switch {
	case risk >= 7:
		style = WorstStyle
	case risk >= 4:
		style = WarnStyle
	default:
		style = BestStyle
	}
	return style.Render(FormatRisk(risk))
}

// FormatReportPanel formats a full single-report detail panel.
func FormatReportPanel(r bidreport.Report) string {
	var b strings.Builder

	b.WriteString("  " + TitleStyle.Render(r.Project) + "\n\n")

	row := func(label, value string) {
		b.WriteString(fmt.Sprintf("    %s %s\n",
			ConfigLabelStyle.Render(label+":"),
			value,
		))
	}

	row("ID", StatValueStyle.Render(strconv.Itoa(r.ID)))
	if r.Client != "" {
		row("Client", ConfigValueStyle.Render(r.Client))
	}
	if r.Location != "" {
		row("Location", ConfigValueStyle.Render(r.Location))
	}
	row("Budget", MoneyStyle.Render(FormatBudgetRange(r.BudgetMin, r.BudgetMax))+
		StatLabelStyle.Render(" (midpoint "+FormatMoney(r.BudgetMidpoint())+")"))
	row("Duration", ConfigValueStyle.Render(FormatMonths(r.DurationMonths)))
	if !r.DeadlineDate.IsZero() {
		row("Deadline", ConfigValueStyle.Render(r.DeadlineDate.Format("2006-01-02")))
	}

	risk := RiskValueText(r.RiskScore)
	if r.RiskLevel != "" {
		risk += " " + RiskStyle(r.RiskLevel).Render(strings.ToUpper(r.RiskLevel))
	}
	row("Risk", risk)
	row("Recommendation", RecommendationStyle(r.Recommendation).Render(r.Recommendation))

	if n := r.RedFlagCount(); n > 0 {
		row("Red Flags", WarnStyle.Render(strconv.Itoa(n)))
		for _, flag := range r.RiskAssessment.RedFlags {
			b.WriteString("      " + FailStyle.Render("- ") + ConfigValueStyle.Render(flag) + "\n")
		}
	} else {
		row("Red Flags", PassStyle.Render("none"))
	}

	if r.RiskAssessment.Notes != "" {
		row("Notes", SubtitleStyle.Render(truncateString(r.RiskAssessment.Notes, 120)))
	}

	return b.String()
}

// FormatRankLine formats one ranked report for console ranking output.
// Output: #1  Harbor Crane Refit  score 0  [YES]
func FormatRankLine(rank int, r bidreport.Report, score float64, best bool) string {
	var parts []string

	parts = append(parts, RankStyle(rank).Render("#"+strconv.Itoa(rank)))
	parts = append(parts, ConfigValueStyle.Render(r.Project))
	parts = append(parts, StatLabelStyle.Render("score ")+RankStyle(rank).Render(FormatScore(score)))
	parts = append(parts, BracketStyle.Render("[")+RecommendationStyle(r.Recommendation).Render(r.Recommendation)+BracketStyle.Render("]"))
	if best {
		parts = append(parts, BestStyle.Render("<- best opportunity"))
	}

	return "  " + strings.Join(parts, "  ")
}

// truncateString truncates a string with ellipsis
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
