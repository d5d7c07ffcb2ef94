// Package writers provides output writers for various formats.
package writers

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/bidlens/bidlens/pkg/output/dispatcher"
	"github.com/bidlens/bidlens/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*MarkdownWriter)(nil)

// MarkdownConfig configures the Markdown report writer.
type MarkdownConfig struct {
	// Title is the report title (default: "Bid Comparison Report")
	Title string

	// Flavor sets the Markdown flavor: "github", "gitlab", or "standard" (default: "github")
	Flavor string

	// SortBy sets the row order: "rank", "risk", "budget", or "project" (default: "rank")
	// Can be overridden by MARKDOWN_EXPORT_SORT_MODE environment variable.
	SortBy string

	// IncludeTOC includes a table of contents
	IncludeTOC bool

	// IncludeMatrix includes the per-metric comparison matrix
	IncludeMatrix bool

	// IncludeFindings includes red flags and analyst notes per report
	IncludeFindings bool

	// CollapseSections uses details/summary for collapsible sections
	CollapseSections bool

	// ShowExecutiveSummary includes an executive summary section with key figures
	ShowExecutiveSummary bool

	// ShowScoreBars includes visual ASCII score distribution bars
	ShowScoreBars bool

	// UseEmojis includes classification/recommendation emojis in the report
	UseEmojis bool

	// MaxNotesLen truncates analyst notes display to this length (default: 400)
	MaxNotesLen int
}

// MarkdownWriter writes events as a Markdown comparison report.
// It buffers all events in memory and renders the complete Markdown document on Close.
// The writer is safe for concurrent use.
type MarkdownWriter struct {
	w       io.Writer
	mu      sync.Mutex
	config  MarkdownConfig
	results []*events.ResultEvent
	summary *events.SummaryEvent
}

// NewMarkdownWriter creates a new Markdown report writer.
// The writer buffers all events and writes a complete Markdown report on Close.
func NewMarkdownWriter(w io.Writer, config MarkdownConfig) *MarkdownWriter {
	if config.Title == "" {
		config.Title = "Bid Comparison Report"
	}
	if config.Flavor == "" {
		config.Flavor = "github"
	}
	// Environment variable override for sort mode
	if envSort := os.Getenv("MARKDOWN_EXPORT_SORT_MODE"); envSort != "" {
		config.SortBy = envSort
	}
	if config.SortBy == "" {
		config.SortBy = "rank"
	}
	if config.MaxNotesLen == 0 {
		config.MaxNotesLen = 400
	}
	return &MarkdownWriter{
		w:       w,
		config:  config,
		results: make([]*events.ResultEvent, 0),
	}
}

// Write buffers an event for later Markdown output.
func (mw *MarkdownWriter) Write(event events.Event) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	switch e := event.(type) {
	case *events.ResultEvent:
		mw.results = append(mw.results, e)
	case *events.SummaryEvent:
		mw.summary = e
	}
	return nil
}

// Flush is a no-op for Markdown writer.
// All events are written as a single Markdown document on Close.
func (mw *MarkdownWriter) Flush() error {
	return nil
}

// Close renders and writes the complete Markdown report.
func (mw *MarkdownWriter) Close() error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	sb := &strings.Builder{}
	mw.renderMarkdown(sb)

	if _, err := io.WriteString(mw.w, sb.String()); err != nil {
		return fmt.Errorf("failed to write Markdown: %w", err)
	}

	if closer, ok := mw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SupportsEvent returns true for result and summary events.
func (mw *MarkdownWriter) SupportsEvent(eventType events.EventType) bool {
	switch eventType {
	case events.EventTypeResult, events.EventTypeSummary:
		return true
	default:
		return false
	}
}

// classificationEmoji returns the emoji icon for a metric classification.
func classificationEmoji(c events.Classification) string {
	switch c {
	case events.ClassificationBest:
		return "🟢"
	case events.ClassificationWorst:
		return "🔴"
	default:
		return "⚪"
	}
}

// recommendationEmoji returns the emoji icon for an analyst recommendation.
func recommendationEmoji(rec string) string {
	switch rec {
	case "YES":
		return "✅"
	case "NO":
		return "❌"
	case "MAYBE":
		return "⚠️"
	default:
		return "ℹ️"
	}
}

// rankEmoji returns the medal icon for a ranking position.
func rankEmoji(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return ""
	}
}

// moneyPrinter groups thousands per English locale conventions.
var moneyPrinter = message.NewPrinter(language.English)

// formatMoney renders a currency amount like $1,250,000.
func formatMoney(v float64) string {
	return moneyPrinter.Sprintf("$%.0f", v)
}

// formatMonths renders a duration in months without trailing zeros.
func formatMonths(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + " mo"
}

// renderScoreBars generates a text-based score comparison with bars.
// Shorter bars are better; the best opportunity is marked.
func renderScoreBars(results []*events.ResultEvent) string {
	if len(results) == 0 {
		return "*No reports to chart.*\n"
	}

	maxScore := results[0].Score.Value
	for _, r := range results {
		if r.Score.Value > maxScore {
			maxScore = r.Score.Value
		}
	}

	sb := &strings.Builder{}
	sb.WriteString("```\n")

	const maxBarLen = 20
	for _, r := range results {
		barLen := maxBarLen
		if maxScore > 0 {
			barLen = int(r.Score.Value / maxScore * float64(maxBarLen))
		}
		if barLen == 0 && r.Score.Value > 0 {
			barLen = 1
		}

		bar := strings.Repeat("█", barLen) + strings.Repeat("░", maxBarLen-barLen)
		marker := ""
		if r.Score.Best {
			marker = "  <- best"
		}
		sb.WriteString(fmt.Sprintf("%-24s %s %.1f%s\n", truncateString(r.Report.Project, 24), bar, r.Score.Value, marker))
	}
	sb.WriteString("```\n")

	return sb.String()
}

func (mw *MarkdownWriter) renderMarkdown(sb *strings.Builder) {
	// Sort results based on config
	sortedResults := mw.sortResults()

	// Render title
	sb.WriteString(fmt.Sprintf("# %s\n\n", mw.config.Title))
	sb.WriteString(fmt.Sprintf("*Generated: %s*\n\n", time.Now().Format("2006-01-02 15:04:05 MST")))

	// Render Table of Contents
	if mw.config.IncludeTOC {
		mw.renderTOC(sb)
	}

	// Render executive summary
	if mw.config.ShowExecutiveSummary {
		mw.renderExecutiveSummary(sb, sortedResults)
	}

	// Render summary section
	mw.renderSummary(sb)

	// Render score distribution bars
	if mw.config.ShowScoreBars {
		sb.WriteString("## Score Distribution\n\n")
		sb.WriteString("Lower composite scores are more favorable.\n\n")
		sb.WriteString(renderScoreBars(sortedResults))
		sb.WriteString("\n")
	}

	// Render ranking table
	mw.renderRanking(sb, sortedResults)

	// Render comparison matrix
	if mw.config.IncludeMatrix {
		mw.renderMatrix(sb, sortedResults)
	}

	// Render per-report detail
	mw.renderReports(sb, sortedResults)
}

func (mw *MarkdownWriter) renderTOC(sb *strings.Builder) {
	sb.WriteString("## Table of Contents\n\n")
	if mw.config.ShowExecutiveSummary {
		sb.WriteString("- [Executive Summary](#executive-summary)\n")
	}
	sb.WriteString("- [Summary](#summary)\n")
	if mw.config.ShowScoreBars {
		sb.WriteString("- [Score Distribution](#score-distribution)\n")
	}
	sb.WriteString("- [Ranking](#ranking)\n")
	if mw.config.IncludeMatrix {
		sb.WriteString("- [Comparison Matrix](#comparison-matrix)\n")
	}
	sb.WriteString("- [Report Details](#report-details)\n")
	sb.WriteString("\n")
}

// renderExecutiveSummary renders a high-level executive summary section.
func (mw *MarkdownWriter) renderExecutiveSummary(sb *strings.Builder, results []*events.ResultEvent) {
	sb.WriteString("## Executive Summary\n\n")

	// Key figures table
	sb.WriteString("| Figure | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Reports Compared | %d |\n", len(results)))

	if mw.summary != nil {
		best := mw.summary.Best
		sb.WriteString(fmt.Sprintf("| Best Opportunity | **%s** (report %d) |\n", best.Project, best.ReportID))
		sb.WriteString(fmt.Sprintf("| Best Score | %.1f |\n", best.Score))
		sb.WriteString(fmt.Sprintf("| Average Risk | %.2f |\n", mw.summary.Averages.Risk))
		sb.WriteString(fmt.Sprintf("| Average Budget | %s |\n", formatMoney(mw.summary.Averages.Budget)))
		sb.WriteString(fmt.Sprintf("| Total Red Flags | %d |\n", mw.summary.Totals.RedFlags))
	}
	sb.WriteString("\n")

	// Key observations
	sb.WriteString("### Key Observations\n\n")

	observations := mw.generateObservations(results)
	for i, obs := range observations {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, obs))
	}
	sb.WriteString("\n")
}

// generateObservations derives context-aware observations from the run.
func (mw *MarkdownWriter) generateObservations(results []*events.ResultEvent) []string {
	observations := make([]string, 0, 5)

	// Lead with the winner
	if mw.summary != nil {
		best := mw.summary.Best
		observations = append(observations,
			fmt.Sprintf("**%s** ranks first with a composite score of %.1f", best.Project, best.Score))
		if best.Recommendation == "YES" {
			observations = append(observations,
				"The top-ranked bid also carries an analyst YES recommendation")
		}
	}

	// Flag the risk outliers
	var flagged, advisedAgainst int
	for _, r := range results {
		if len(r.Report.RedFlags) > 0 {
			flagged++
		}
		if r.Report.Recommendation == "NO" {
			advisedAgainst++
		}
	}
	if flagged > 0 {
		observations = append(observations,
			fmt.Sprintf("%d of %d bids carry red flags; review the report details below", flagged, len(results)))
	}
	if advisedAgainst > 0 {
		observations = append(observations,
			fmt.Sprintf("%d bid(s) carry a NO recommendation and rank accordingly", advisedAgainst))
	}

	// Risk posture
	if mw.summary != nil {
		switch risk := mw.summary.Averages.Risk; {
		case risk >= 7:
			observations = append(observations,
				"Average risk across the selection is high; consider widening the candidate pool")
		case risk <= 3:
			observations = append(observations,
				"The selection is low risk overall")
		}
	}

	if len(observations) == 0 {
		observations = append(observations, "No notable outliers in this selection")
	}

	return observations
}

func (mw *MarkdownWriter) renderSummary(sb *strings.Builder) {
	sb.WriteString("## Summary\n\n")

	if mw.summary != nil {
		sb.WriteString(fmt.Sprintf("**Source:** %s (%s)\n\n", mw.summary.Source.Detail, mw.summary.Source.Kind))

		sb.WriteString("| Figure | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Reports | %d |\n", mw.summary.Totals.Reports))
		sb.WriteString(fmt.Sprintf("| Average Risk | %.2f |\n", mw.summary.Averages.Risk))
		sb.WriteString(fmt.Sprintf("| Average Budget | %s |\n", formatMoney(mw.summary.Averages.Budget)))
		sb.WriteString(fmt.Sprintf("| Average Duration | %d months |\n", mw.summary.Averages.DurationMonths))
		sb.WriteString(fmt.Sprintf("| Total Red Flags | %d |\n", mw.summary.Totals.RedFlags))
		sb.WriteString(fmt.Sprintf("| Duration | %.2fs |\n", mw.summary.Timing.DurationSec))
		sb.WriteString("\n")

		// Per-metric extremes
		if len(mw.summary.Extremes) > 0 {
			sb.WriteString("### Metric Extremes\n\n")
			sb.WriteString("| Metric | Best | Worst |\n")
			sb.WriteString("|--------|------|-------|\n")
			for _, ex := range mw.summary.Extremes {
				sb.WriteString(fmt.Sprintf("| %s | report %s | report %s |\n",
					ex.Metric, joinIDs(ex.BestIDs), joinIDs(ex.WorstIDs)))
			}
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString(fmt.Sprintf("**Total Reports:** %d\n\n", len(mw.results)))
	}
}

// joinIDs renders an id list like "3, 7".
func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ", ")
}

func (mw *MarkdownWriter) renderRanking(sb *strings.Builder, results []*events.ResultEvent) {
	sb.WriteString("## Ranking\n\n")

	if len(results) == 0 {
		sb.WriteString("*No reports to rank.*\n\n")
		return
	}

	sb.WriteString("| Rank | Project | Score | Risk | Budget | Duration | Recommendation |\n")
	sb.WriteString("|------|---------|-------|------|--------|----------|----------------|\n")

	ranked := make([]*events.ResultEvent, len(results))
	copy(ranked, results)
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Score.Rank < ranked[j].Score.Rank })

	for _, r := range ranked {
		medal := ""
		recEmoji := ""
		if mw.config.UseEmojis {
			medal = rankEmoji(r.Score.Rank) + " "
			recEmoji = recommendationEmoji(r.Report.Recommendation) + " "
		}
		project := r.Report.Project
		if r.Score.Best {
			project = "**" + project + "**"
		}
		sb.WriteString(fmt.Sprintf("| %s%d | %s | %.1f | %.1f | %s - %s | %s | %s%s |\n",
			medal,
			r.Score.Rank,
			project,
			r.Score.Value,
			r.Report.RiskScore,
			formatMoney(r.Report.BudgetMin),
			formatMoney(r.Report.BudgetMax),
			formatMonths(r.Report.DurationMonths),
			recEmoji,
			r.Report.Recommendation,
		))
	}
	sb.WriteString("\n")
}

// renderMatrix renders the per-metric comparison matrix: one row per
// metric, one column per report, winners bold and losers italic.
func (mw *MarkdownWriter) renderMatrix(sb *strings.Builder, results []*events.ResultEvent) {
	sb.WriteString("## Comparison Matrix\n\n")

	if len(results) == 0 {
		sb.WriteString("*No reports to compare.*\n\n")
		return
	}

	// Column order follows input order so the matrix matches the service
	header := "| Metric |"
	divider := "|--------|"
	for _, r := range results {
		header += fmt.Sprintf(" %s |", truncateString(r.Report.Project, 20))
		divider += "--------|"
	}
	sb.WriteString(header + "\n")
	sb.WriteString(divider + "\n")

	// Metric row order follows the first report's cells
	for i, cell := range results[0].Metrics {
		row := fmt.Sprintf("| %s |", cell.Metric)
		for _, r := range results {
			if i >= len(r.Metrics) {
				row += " |"
				continue
			}
			c := r.Metrics[i]
			value := formatMetricValue(c.Metric, c.Value)
			switch c.Classification {
			case events.ClassificationBest:
				value = "**" + value + "**"
			case events.ClassificationWorst:
				value = "*" + value + "*"
			}
			if mw.config.UseEmojis {
				value = classificationEmoji(c.Classification) + " " + value
			}
			row += fmt.Sprintf(" %s |", value)
		}
		sb.WriteString(row + "\n")
	}
	sb.WriteString("\nBold marks the winning value, italic the losing value.\n\n")
}

// formatMetricValue picks a display format per metric name.
func formatMetricValue(metricName string, v float64) string {
	switch metricName {
	case "budget_min", "budget_max":
		return formatMoney(v)
	case "duration_months":
		return formatMonths(v)
	case "red_flags":
		return strconv.Itoa(int(v))
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}

func (mw *MarkdownWriter) renderReports(sb *strings.Builder, results []*events.ResultEvent) {
	sb.WriteString("## Report Details\n\n")

	if len(results) == 0 {
		sb.WriteString("*No reports to detail.*\n\n")
		return
	}

	for _, r := range results {
		if mw.config.CollapseSections && mw.supportsCollapsible() {
			openAttr := ""
			if r.Score.Best {
				openAttr = " open"
			}
			sb.WriteString(fmt.Sprintf("<details%s>\n", openAttr))
			sb.WriteString(fmt.Sprintf("<summary><strong>#%d %s</strong> (score %.1f)</summary>\n\n",
				r.Score.Rank, r.Report.Project, r.Score.Value))
			mw.renderReportContent(sb, r)
			sb.WriteString("</details>\n\n")
		} else {
			sb.WriteString(fmt.Sprintf("### #%d %s\n\n", r.Score.Rank, r.Report.Project))
			mw.renderReportContent(sb, r)
		}
	}
}

func (mw *MarkdownWriter) supportsCollapsible() bool {
	return mw.config.Flavor == "github" || mw.config.Flavor == "gitlab"
}

// renderReportContent renders the detail block for a single report.
func (mw *MarkdownWriter) renderReportContent(sb *strings.Builder, r *events.ResultEvent) {
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Report ID | %d |\n", r.Report.ID))
	if r.Report.Client != "" {
		sb.WriteString(fmt.Sprintf("| Client | %s |\n", r.Report.Client))
	}
	if r.Report.Location != "" {
		sb.WriteString(fmt.Sprintf("| Location | %s |\n", r.Report.Location))
	}
	sb.WriteString(fmt.Sprintf("| Budget | %s - %s |\n",
		formatMoney(r.Report.BudgetMin), formatMoney(r.Report.BudgetMax)))
	sb.WriteString(fmt.Sprintf("| Duration | %s |\n", formatMonths(r.Report.DurationMonths)))
	sb.WriteString(fmt.Sprintf("| Risk | %.1f (%s) |\n", r.Report.RiskScore, r.Report.RiskLevel))
	sb.WriteString(fmt.Sprintf("| Recommendation | %s |\n", r.Report.Recommendation))
	if !r.Report.DeadlineDate.IsZero() {
		sb.WriteString(fmt.Sprintf("| Deadline | %s |\n", r.Report.DeadlineDate.Format("2006-01-02")))
	}
	sb.WriteString("\n")

	if !mw.config.IncludeFindings {
		return
	}

	if len(r.Report.RedFlags) > 0 {
		sb.WriteString("**Red Flags:**\n\n")
		for _, flag := range r.Report.RedFlags {
			if mw.config.UseEmojis {
				sb.WriteString(fmt.Sprintf("- 🚩 %s\n", flag))
			} else {
				sb.WriteString(fmt.Sprintf("- %s\n", flag))
			}
		}
		sb.WriteString("\n")
	}

	if r.Report.Notes != "" {
		notes := r.Report.Notes
		if len(notes) > mw.config.MaxNotesLen {
			notes = notes[:mw.config.MaxNotesLen] + "..."
		}
		sb.WriteString("**Analyst Notes:**\n\n")
		sb.WriteString(fmt.Sprintf("> %s\n\n", notes))
	}
}

func (mw *MarkdownWriter) sortResults() []*events.ResultEvent {
	results := make([]*events.ResultEvent, len(mw.results))
	copy(results, mw.results)

	switch mw.config.SortBy {
	case "rank":
		sort.Slice(results, func(i, j int) bool {
			return results[i].Score.Rank < results[j].Score.Rank
		})
	case "risk":
		sort.Slice(results, func(i, j int) bool {
			if results[i].Report.RiskScore != results[j].Report.RiskScore {
				return results[i].Report.RiskScore < results[j].Report.RiskScore
			}
			return results[i].Score.Rank < results[j].Score.Rank
		})
	case "budget":
		sort.Slice(results, func(i, j int) bool {
			if results[i].Report.BudgetMax != results[j].Report.BudgetMax {
				return results[i].Report.BudgetMax > results[j].Report.BudgetMax
			}
			return results[i].Score.Rank < results[j].Score.Rank
		})
	case "project":
		sort.Slice(results, func(i, j int) bool {
			if results[i].Report.Project != results[j].Report.Project {
				return results[i].Report.Project < results[j].Report.Project
			}
			return results[i].Score.Rank < results[j].Score.Rank
		})
	}

	return results
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// capitalizeFirst capitalizes the first letter of a string.
// This is a simple replacement for the deprecated strings.Title function.
func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
