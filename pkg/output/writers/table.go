// Package writers provides output writers for various formats.
package writers

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bidlens/bidlens/pkg/output/dispatcher"
	"github.com/bidlens/bidlens/pkg/output/events"
	"golang.org/x/term"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*TableWriter)(nil)

// ANSI color constants for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[91m"
	colorGreen  = "\033[92m"
	colorYellow = "\033[93m"
	colorBlue   = "\033[94m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

// colorEnabled controls whether ANSI color codes are emitted.
var colorEnabled = true

// ansiSprint wraps text in an ANSI escape code, respecting colorEnabled.
func ansiSprint(code string, a ...interface{}) string {
	s := fmt.Sprint(a...)
	if !colorEnabled {
		return s
	}
	return code + s + "\033[0m"
}

// Color functions using ANSI escape codes for terminal colorization.
var (
	// Risk level colors
	fmtLowRisk    = func(a ...interface{}) string { return ansiSprint("\033[92m", a...) }
	fmtMediumRisk = func(a ...interface{}) string { return ansiSprint("\033[33m", a...) }
	fmtHighRisk   = func(a ...interface{}) string { return ansiSprint("\033[1;91m", a...) }

	// Recommendation colors
	fmtYes   = func(a ...interface{}) string { return ansiSprint("\033[32m", a...) }
	fmtNo    = func(a ...interface{}) string { return ansiSprint("\033[31m", a...) }
	fmtMaybe = func(a ...interface{}) string { return ansiSprint("\033[33m", a...) }

	// Formatting helpers
	fmtBold = func(a ...interface{}) string { return ansiSprint("\033[1m", a...) }
	fmtDim  = func(a ...interface{}) string { return ansiSprint("\033[2m", a...) }
)

// colorRisk returns a colorized risk level string.
func colorRisk(level string) string {
	switch strings.ToLower(level) {
	case "low":
		return fmtLowRisk(level)
	case "medium":
		return fmtMediumRisk(level)
	case "high":
		return fmtHighRisk(level)
	default:
		return fmtDim(level)
	}
}

// colorRecommendation returns a colorized recommendation string.
func colorRecommendation(rec string) string {
	switch rec {
	case "YES":
		return fmtYes(rec)
	case "NO":
		return fmtNo(rec)
	case "MAYBE":
		return fmtMaybe(rec)
	default:
		return rec
	}
}

// riskColors maps risk levels to ANSI color codes for table rows.
var riskColors = map[string]string{
	"low":    "\033[92m",        // bright green
	"medium": "\033[93m",        // bright yellow
	"high":   "\033[91m\033[1m", // bright red + bold
}

// recColors maps recommendations to ANSI color codes for table rows.
var recColors = map[string]string{
	"YES":   colorGreen,
	"MAYBE": colorYellow,
	"NO":    colorRed,
}

// boxChars contains Unicode box-drawing characters.
var boxChars = struct {
	TopLeft, TopRight, BottomLeft, BottomRight, Horizontal, Vertical string
}{
	"┌", "┐", "└", "┘", "─", "│",
}

// asciiChars contains ASCII fallback characters for box drawing.
var asciiChars = struct {
	TopLeft, TopRight, BottomLeft, BottomRight, Horizontal, Vertical string
}{
	"+", "+", "+", "+", "-", "|",
}

// TableConfig configures the table writer behavior.
type TableConfig struct {
	// Mode controls the output detail level: "summary", "detailed", "minimal", "streaming"
	Mode string

	// ColorEnabled enables ANSI color output.
	// If not explicitly set, auto-detected based on terminal.
	ColorEnabled bool

	// NoColor forces color off regardless of terminal detection.
	NoColor bool

	// DisableUnicode switches box drawing to the ASCII fallback set.
	DisableUnicode bool

	// BestOnly filters output to show only the best-ranked report.
	BestOnly bool

	// MaxResults limits the number of results displayed (0 = unlimited).
	MaxResults int

	// Width sets the table width (0 = auto-detect from terminal).
	Width int

	// MaxWidth sets the maximum table width (0 = no maximum, use terminal width).
	MaxWidth int

	// ShowTimestamps adds timestamps to each streamed row.
	ShowTimestamps bool

	// ShowLegend displays a color legend at the end of output.
	ShowLegend bool
}

// TableWriter writes events as formatted ASCII/Unicode tables to a terminal.
// It supports streaming mode for real-time output and batch mode for final reports.
// The writer is safe for concurrent use.
type TableWriter struct {
	w       io.Writer
	mu      sync.Mutex
	config  TableConfig
	results []*events.ResultEvent
	summary *events.SummaryEvent
	chars   *struct {
		TopLeft, TopRight, BottomLeft, BottomRight, Horizontal, Vertical string
	}
	resultCount  int
	columnWidths columnWidths // cached responsive column widths
}

// columnWidths stores calculated column widths for responsive table layout.
type columnWidths struct {
	rank    int
	project int
	score   int
	risk    int
	budget  int
	rec     int
}

// NewTableWriter creates a new table writer with the specified configuration.
// If ColorEnabled is not explicitly set, it auto-detects terminal support.
func NewTableWriter(w io.Writer, config TableConfig) *TableWriter {
	// Auto-detect color support if not explicitly configured
	if config.NoColor {
		config.ColorEnabled = false
	} else if !config.ColorEnabled {
		config.ColorEnabled = detectColorSupport(w)
	}

	// Configure color output based on our color detection
	colorEnabled = config.ColorEnabled

	// Default mode to summary
	if config.Mode == "" {
		config.Mode = "summary"
	}

	// Select box-drawing character set, falling back to ASCII when the
	// console cannot render UTF-8
	chars := &boxChars
	if config.DisableUnicode || !unicodeSupported(w) {
		chars = &asciiChars
	}

	tw := &TableWriter{
		w:       w,
		config:  config,
		results: make([]*events.ResultEvent, 0),
		chars:   chars,
	}

	// Calculate responsive column widths
	tw.calculateColumnWidths()

	return tw
}

// detectColorSupport checks if the writer supports ANSI colors.
func detectColorSupport(w io.Writer) bool {
	// Check for NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	// Check for FORCE_COLOR environment variable
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}

	// Check if output is a terminal
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}

	return false
}

// Write processes an event and outputs it according to the configured mode.
func (tw *TableWriter) Write(event events.Event) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	switch e := event.(type) {
	case *events.ResultEvent:
		return tw.handleResultEvent(e)
	case *events.SummaryEvent:
		tw.summary = e
		return nil
	}
	return nil
}

// handleResultEvent processes a result event based on the mode.
func (tw *TableWriter) handleResultEvent(e *events.ResultEvent) error {
	// Filter to the best report only if configured
	if tw.config.BestOnly && !e.Score.Best {
		return nil
	}

	// Check max results limit
	if tw.config.MaxResults > 0 && tw.resultCount >= tw.config.MaxResults {
		return nil
	}

	tw.resultCount++

	// In streaming mode, output immediately
	if tw.config.Mode == "streaming" {
		return tw.writeStreamingResult(e)
	}

	// Otherwise buffer for later
	tw.results = append(tw.results, e)
	return nil
}

// writeStreamingResult outputs a single result in streaming mode.
func (tw *TableWriter) writeStreamingResult(e *events.ResultEvent) error {
	line := tw.formatResultLine(e)
	_, err := fmt.Fprintln(tw.w, line)
	return err
}

// formatResultLine formats a single result for streaming output.
func (tw *TableWriter) formatResultLine(e *events.ResultEvent) string {
	// Build optional prefix components
	var prefix string

	// Add timestamp if enabled
	if tw.config.ShowTimestamps {
		prefix = fmt.Sprintf("[%s] ", time.Now().Format("15:04:05"))
	}

	project := truncateWithMarker(e.Report.Project, 24)

	var marker string
	if e.Score.Best {
		marker = " <- best"
	}

	if tw.config.ColorEnabled {
		return fmt.Sprintf("%s#%-3d %-24s score %7.1f  risk %4.1f %-8s [%s]%s",
			prefix,
			e.Score.Rank,
			project,
			e.Score.Value,
			e.Report.RiskScore,
			colorRisk(e.Report.RiskLevel),
			colorRecommendation(e.Report.Recommendation),
			fmtBold(marker),
		)
	}

	return fmt.Sprintf("%s#%-3d %-24s score %7.1f  risk %4.1f %-8s [%s]%s",
		prefix,
		e.Score.Rank,
		project,
		e.Score.Value,
		e.Report.RiskScore,
		e.Report.RiskLevel,
		e.Report.Recommendation,
		marker,
	)
}

// Flush ensures all buffered events are written.
// For streaming mode, this is typically a no-op.
func (tw *TableWriter) Flush() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	return nil
}

// Close renders and writes the complete table output.
func (tw *TableWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	var err error

	switch tw.config.Mode {
	case "streaming":
		// Write final newline and summary
		fmt.Fprintln(tw.w)
		if tw.summary != nil {
			err = tw.writeSummaryTable()
		}
	case "minimal":
		err = tw.writeMinimalOutput()
	case "detailed":
		err = tw.writeDetailedTable()
	default: // "summary"
		err = tw.writeSummaryTable()
	}

	if err != nil {
		return fmt.Errorf("table: write: %w", err)
	}

	// Render legend if enabled
	if tw.config.ShowLegend && tw.config.ColorEnabled {
		tw.renderLegend()
	}

	if closer, ok := tw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SupportsEvent returns true for result and summary events.
func (tw *TableWriter) SupportsEvent(eventType events.EventType) bool {
	switch eventType {
	case events.EventTypeResult, events.EventTypeSummary:
		return true
	default:
		return false
	}
}

// writeSummaryTable renders a summary-focused table.
func (tw *TableWriter) writeSummaryTable() error {
	sb := &strings.Builder{}

	// Header
	tw.writeTableHeader(sb, "Bid Comparison Summary")

	// Best opportunity callout and totals
	if tw.summary != nil {
		tw.writeBestOpportunity(sb)
		tw.writeTotalsTable(sb)
	} else {
		// Generate stats from buffered results
		tw.writeResultsStats(sb)
	}

	// Top of the ranking (limited)
	tw.writeTopRanking(sb, 5)

	// Footer
	tw.writeTableFooter(sb)

	_, err := io.WriteString(tw.w, sb.String())
	return err
}

// writeDetailedTable renders a detailed table with all results.
func (tw *TableWriter) writeDetailedTable() error {
	sb := &strings.Builder{}

	// Header
	tw.writeTableHeader(sb, "Bid Comparison - Detailed")

	// All results table
	tw.writeRankingTable(sb)

	// Per-metric extremes and summary if available
	if tw.summary != nil {
		tw.writeExtremesLines(sb)
		tw.writeBestOpportunity(sb)
		tw.writeTotalsTable(sb)
	}

	// Footer
	tw.writeTableFooter(sb)

	_, err := io.WriteString(tw.w, sb.String())
	return err
}

// writeMinimalOutput renders a minimal single-line summary.
func (tw *TableWriter) writeMinimalOutput() error {
	var total, flags int
	var avgRisk float64
	var bestProject string
	var bestScore float64

	if tw.summary != nil {
		total = tw.summary.Totals.Reports
		flags = tw.summary.Totals.RedFlags
		avgRisk = tw.summary.Averages.Risk
		bestProject = tw.summary.Best.Project
		bestScore = tw.summary.Best.Score
	} else {
		for _, r := range tw.results {
			total++
			flags += len(r.Report.RedFlags)
			avgRisk += r.Report.RiskScore
			if r.Score.Best {
				bestProject = r.Report.Project
				bestScore = r.Score.Value
			}
		}
		if total > 0 {
			avgRisk /= float64(total)
		}
	}

	line := fmt.Sprintf("Reports: %d | Best: %s (%.1f) | Avg Risk: %.1f | Red Flags: %d",
		total, bestProject, bestScore, avgRisk, flags)

	if tw.config.ColorEnabled {
		color := colorGreen
		if flags > 0 {
			color = colorYellow
		}
		if avgRisk >= 7 {
			color = colorRed
		}
		line = fmt.Sprintf("%s%s%s", color, line, colorReset)
	}

	_, err := fmt.Fprintln(tw.w, line)
	return err
}

// writeTableHeader writes the table header with title.
func (tw *TableWriter) writeTableHeader(sb *strings.Builder, title string) {
	width := tw.getWidth()
	chars := tw.chars

	// Top border
	sb.WriteString(chars.TopLeft)
	sb.WriteString(strings.Repeat(chars.Horizontal, width-2))
	sb.WriteString(chars.TopRight)
	sb.WriteString("\n")

	// Title line
	titleLine := tw.centerText(title, width-4)
	sb.WriteString(chars.Vertical)
	sb.WriteString(" ")
	if tw.config.ColorEnabled {
		sb.WriteString(colorBold)
	}
	sb.WriteString(titleLine)
	if tw.config.ColorEnabled {
		sb.WriteString(colorReset)
	}
	sb.WriteString(" ")
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	// Separator
	sb.WriteString(chars.Vertical)
	sb.WriteString(strings.Repeat(chars.Horizontal, width-2))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")
}

// writeTableFooter writes the table footer.
func (tw *TableWriter) writeTableFooter(sb *strings.Builder) {
	width := tw.getWidth()
	chars := tw.chars

	sb.WriteString(chars.BottomLeft)
	sb.WriteString(strings.Repeat(chars.Horizontal, width-2))
	sb.WriteString(chars.BottomRight)
	sb.WriteString("\n")
}

// writeBestOpportunity displays the best opportunity with a risk gauge.
func (tw *TableWriter) writeBestOpportunity(sb *strings.Builder) {
	if tw.summary == nil {
		return
	}

	best := tw.summary.Best
	chars := tw.chars
	width := tw.getWidth()

	// Callout line
	bestLine := fmt.Sprintf("Best Opportunity: %s (score %.1f, %s)",
		best.Project, best.Score, best.Recommendation)

	if tw.config.ColorEnabled {
		bestLine = fmt.Sprintf("%sBest Opportunity: %s (score %.1f, %s)%s",
			colorGreen, best.Project, best.Score, best.Recommendation, colorReset)
	}

	sb.WriteString(chars.Vertical)
	sb.WriteString(" ")
	sb.WriteString(bestLine)
	sb.WriteString(pad(width - 4 - len(stripANSI(bestLine))))
	sb.WriteString(" ")
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	// Risk gauge on a 0-10 scale
	risk := tw.summary.Averages.Risk
	if risk < 0 {
		risk = 0
	}
	if risk > 10 {
		risk = 10
	}

	barWidth := width - 8
	filledWidth := int(risk / 10 * float64(barWidth))
	if filledWidth > barWidth {
		filledWidth = barWidth
	}
	if filledWidth < 0 {
		filledWidth = 0
	}

	bar := strings.Repeat("█", filledWidth) + strings.Repeat("░", barWidth-filledWidth)

	sb.WriteString(chars.Vertical)
	sb.WriteString("  [")
	if tw.config.ColorEnabled {
		sb.WriteString(tw.riskBandColor(risk))
	}
	sb.WriteString(bar)
	if tw.config.ColorEnabled {
		sb.WriteString(colorReset)
	}
	sb.WriteString("]  ")
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	// Gauge caption
	riskLine := fmt.Sprintf("Average Risk: %.1f / 10", risk)
	sb.WriteString(chars.Vertical)
	sb.WriteString(" ")
	if tw.config.ColorEnabled {
		sb.WriteString(colorDim)
	}
	sb.WriteString(riskLine)
	sb.WriteString(pad(width - 4 - len(riskLine)))
	if tw.config.ColorEnabled {
		sb.WriteString(colorReset)
	}
	sb.WriteString(" ")
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	// Separator
	sb.WriteString(chars.Vertical)
	sb.WriteString(strings.Repeat(chars.Horizontal, width-2))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")
}

// writeTotalsTable writes the run totals as a table row.
func (tw *TableWriter) writeTotalsTable(sb *strings.Builder) {
	if tw.summary == nil {
		return
	}

	chars := tw.chars
	width := tw.getWidth()
	totals := tw.summary.Totals
	averages := tw.summary.Averages

	// Header row
	header := "  Reports | Red Flags | Avg Budget   | Avg Months"
	sb.WriteString(chars.Vertical)
	sb.WriteString(header)
	sb.WriteString(pad(width - 2 - len(header)))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	// Values row
	valuesLine := fmt.Sprintf("  %-7d | %-9d | %-12s | %-10d",
		totals.Reports, totals.RedFlags, formatMoney(averages.Budget), averages.DurationMonths)

	sb.WriteString(chars.Vertical)
	if tw.config.ColorEnabled {
		// Color the red flags count
		parts := strings.Split(valuesLine, "|")
		for i, part := range parts {
			if i == 1 && totals.RedFlags > 0 { // Red flags column
				sb.WriteString(colorRed)
				sb.WriteString(part)
				sb.WriteString(colorReset)
			} else {
				sb.WriteString(part)
			}
			if i < len(parts)-1 {
				sb.WriteString("|")
			}
		}
	} else {
		sb.WriteString(valuesLine)
	}
	sb.WriteString(pad(width - 2 - len(valuesLine)))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	// Separator
	sb.WriteString(chars.Vertical)
	sb.WriteString(strings.Repeat(chars.Horizontal, width-2))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")
}

// writeResultsStats writes stats calculated from buffered results.
func (tw *TableWriter) writeResultsStats(sb *strings.Builder) {
	chars := tw.chars
	width := tw.getWidth()

	var yes, maybe, no, flags int
	for _, r := range tw.results {
		switch r.Report.Recommendation {
		case "YES":
			yes++
		case "NO":
			no++
		default:
			maybe++
		}
		flags += len(r.Report.RedFlags)
	}

	total := len(tw.results)

	// Recommendation spread line
	recLine := fmt.Sprintf("Reports: %d (YES: %d, MAYBE: %d, NO: %d)", total, yes, maybe, no)
	sb.WriteString(chars.Vertical)
	sb.WriteString(" ")
	if tw.config.ColorEnabled {
		color := colorGreen
		if no > 0 {
			color = colorYellow
		}
		sb.WriteString(color)
	}
	sb.WriteString(recLine)
	if tw.config.ColorEnabled {
		sb.WriteString(colorReset)
	}
	sb.WriteString(pad(width - 4 - len(recLine)))
	sb.WriteString(" ")
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	// Stats line
	statsLine := fmt.Sprintf("Red Flags: %d", flags)
	sb.WriteString(chars.Vertical)
	sb.WriteString(" ")
	sb.WriteString(statsLine)
	sb.WriteString(pad(width - 4 - len(statsLine)))
	sb.WriteString(" ")
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	// Separator
	sb.WriteString(chars.Vertical)
	sb.WriteString(strings.Repeat(chars.Horizontal, width-2))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")
}

// writeTopRanking writes the top N ranked reports.
func (tw *TableWriter) writeTopRanking(sb *strings.Builder, limit int) {
	chars := tw.chars
	width := tw.getWidth()

	ranked := make([]*events.ResultEvent, len(tw.results))
	copy(ranked, tw.results)
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].Score.Rank < ranked[j].Score.Rank
	})

	// Fall back to the summary ranking when no results were buffered
	if len(ranked) == 0 && tw.summary != nil && len(tw.summary.Ranking) > 0 {
		sb.WriteString(chars.Vertical)
		sb.WriteString(" Ranking:")
		sb.WriteString(pad(width - 11))
		sb.WriteString(chars.Vertical)
		sb.WriteString("\n")

		for i, entry := range tw.summary.Ranking {
			if i >= limit {
				break
			}
			line := fmt.Sprintf("  %d. %s - %.1f", entry.Rank, entry.Project, entry.Score)
			if len(line) > width-4 {
				line = line[:width-7] + "..."
			}

			sb.WriteString(chars.Vertical)
			if tw.config.ColorEnabled && entry.Rank == 1 {
				sb.WriteString(colorGreen)
			}
			sb.WriteString(line)
			if tw.config.ColorEnabled && entry.Rank == 1 {
				sb.WriteString(colorReset)
			}
			sb.WriteString(pad(width - 2 - len(line)))
			sb.WriteString(chars.Vertical)
			sb.WriteString("\n")
		}
		return
	}

	if len(ranked) == 0 {
		sb.WriteString(chars.Vertical)
		sb.WriteString(" No reports to display")
		sb.WriteString(pad(width - 24))
		sb.WriteString(chars.Vertical)
		sb.WriteString("\n")
		return
	}

	sb.WriteString(chars.Vertical)
	sb.WriteString(" Ranking:")
	sb.WriteString(pad(width - 11))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	for i, r := range ranked {
		if i >= limit {
			break
		}

		line := fmt.Sprintf("  %d. %s - %.1f [%s]",
			r.Score.Rank, r.Report.Project, r.Score.Value, r.Report.Recommendation)
		if len(line) > width-4 {
			line = line[:width-7] + "..."
		}

		sb.WriteString(chars.Vertical)
		if tw.config.ColorEnabled {
			recColor := recColors[r.Report.Recommendation]
			sb.WriteString(recColor)
		}
		sb.WriteString(line)
		if tw.config.ColorEnabled {
			sb.WriteString(colorReset)
		}
		sb.WriteString(pad(width - 2 - len(line)))
		sb.WriteString(chars.Vertical)
		sb.WriteString("\n")
	}
}

// writeRankingTable writes all buffered results as a table.
func (tw *TableWriter) writeRankingTable(sb *strings.Builder) {
	chars := tw.chars
	width := tw.getWidth()

	if len(tw.results) == 0 {
		sb.WriteString(chars.Vertical)
		sb.WriteString(" No reports to display")
		sb.WriteString(pad(width - 24))
		sb.WriteString(chars.Vertical)
		sb.WriteString("\n")
		return
	}

	pw := tw.columnWidths.project

	// Table header
	header := fmt.Sprintf(" %-4s | %-*s | %-7s | %-4s | %-13s | %-5s",
		"Rank", pw, "Project", "Score", "Risk", "Budget", "Rec")
	sb.WriteString(chars.Vertical)
	sb.WriteString(header)
	sb.WriteString(pad(width - 2 - len(header)))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	// Separator
	sb.WriteString(chars.Vertical)
	sb.WriteString(strings.Repeat("-", width-2))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	// Rows in rank order
	ranked := make([]*events.ResultEvent, len(tw.results))
	copy(ranked, tw.results)
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].Score.Rank < ranked[j].Score.Rank
	})

	for _, r := range ranked {
		project := r.Report.Project
		if len(project) > pw {
			project = project[:pw-3] + "..."
		}
		project = fmt.Sprintf("%-*s", pw, project)

		rank := fmt.Sprintf("%-4d", r.Score.Rank)
		score := fmt.Sprintf("%-7.1f", r.Score.Value)
		risk := fmt.Sprintf("%-4.1f", r.Report.RiskScore)
		budget := fmt.Sprintf("%-13s", formatMoney(r.Report.BudgetMax))
		rec := fmt.Sprintf("%-5s", r.Report.Recommendation)

		line := fmt.Sprintf(" %s | %s | %s | %s | %s | %s", rank, project, score, risk, budget, rec)

		sb.WriteString(chars.Vertical)
		if tw.config.ColorEnabled {
			// Apply colors
			riskColor := riskColors[strings.ToLower(r.Report.RiskLevel)]
			recColor := recColors[r.Report.Recommendation]
			if r.Score.Best {
				project = fmt.Sprintf("%s%s%s", colorBold, project, colorReset)
			}
			coloredLine := fmt.Sprintf(" %s | %s | %s | %s%s%s | %s | %s%s%s",
				rank, project, score,
				riskColor, risk, colorReset,
				budget,
				recColor, rec, colorReset)
			sb.WriteString(coloredLine)
			// Pad without colors
			sb.WriteString(pad(width - 2 - len(line)))
		} else {
			sb.WriteString(line)
			sb.WriteString(pad(width - 2 - len(line)))
		}
		sb.WriteString(chars.Vertical)
		sb.WriteString("\n")
	}

	// Separator
	sb.WriteString(chars.Vertical)
	sb.WriteString(strings.Repeat(chars.Horizontal, width-2))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")
}

// writeExtremesLines writes per-metric best/worst lines from the summary.
func (tw *TableWriter) writeExtremesLines(sb *strings.Builder) {
	if tw.summary == nil || len(tw.summary.Extremes) == 0 {
		return
	}

	chars := tw.chars
	width := tw.getWidth()

	sb.WriteString(chars.Vertical)
	sb.WriteString(" Metric Extremes:")
	sb.WriteString(pad(width - 19))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")

	for _, ex := range tw.summary.Extremes {
		line := fmt.Sprintf("  %-15s best #%s (%s) / worst #%s (%s)",
			ex.Metric,
			joinIDs(ex.BestIDs), formatMetricValue(ex.Metric, ex.BestValue),
			joinIDs(ex.WorstIDs), formatMetricValue(ex.Metric, ex.WorstValue))
		if len(line) > width-4 {
			line = line[:width-7] + "..."
		}

		sb.WriteString(chars.Vertical)
		if tw.config.ColorEnabled {
			sb.WriteString(colorDim)
		}
		sb.WriteString(line)
		if tw.config.ColorEnabled {
			sb.WriteString(colorReset)
		}
		sb.WriteString(pad(width - 2 - len(line)))
		sb.WriteString(chars.Vertical)
		sb.WriteString("\n")
	}

	// Separator
	sb.WriteString(chars.Vertical)
	sb.WriteString(strings.Repeat(chars.Horizontal, width-2))
	sb.WriteString(chars.Vertical)
	sb.WriteString("\n")
}

// getWidth returns the configured or auto-detected terminal width.
func (tw *TableWriter) getWidth() int {
	if tw.config.Width > 0 {
		return tw.config.Width
	}

	// Try to detect terminal width
	width := getTerminalWidth(tw.w)

	// Apply MaxWidth constraint if set
	if tw.config.MaxWidth > 0 && width > tw.config.MaxWidth {
		return tw.config.MaxWidth
	}

	return width
}

// getTerminalWidth detects the terminal width from the writer or returns default.
func getTerminalWidth(w io.Writer) int {
	// Try from provided writer
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}

	// Try stdout directly
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}

	// Default width for non-terminal or detection failure
	return 120
}

// calculateColumnWidths calculates responsive column widths based on terminal size.
// The project column absorbs extra space; the numeric columns stay fixed.
func (tw *TableWriter) calculateColumnWidths() {
	termWidth := tw.getWidth()

	// Minimum widths for each column
	const (
		minRank    = 4
		minProject = 20
		minScore   = 7
		minRisk    = 4
		minBudget  = 13
		minRec     = 5
		separators = 19 // space for separators and padding
	)

	// Start with minimum widths
	tw.columnWidths = columnWidths{
		rank:    minRank,
		project: minProject,
		score:   minScore,
		risk:    minRisk,
		budget:  minBudget,
		rec:     minRec,
	}

	// Calculate available extra space
	usedWidth := minRank + minProject + minScore + minRisk + minBudget + minRec + separators
	extraSpace := termWidth - usedWidth

	if extraSpace <= 0 {
		return // Use minimum widths
	}

	// Give the project column the extra space, capped to keep the table compact
	if extraSpace > 40 {
		extraSpace = 40
	}
	tw.columnWidths.project += extraSpace
}

// renderLegend renders a color legend.
func (tw *TableWriter) renderLegend() {
	if !tw.config.ColorEnabled {
		return
	}

	fmt.Fprintf(tw.w, "\nRisk:           %s %s %s\n",
		fmtLowRisk("●Low"),
		fmtMediumRisk("●Medium"),
		fmtHighRisk("●High"))

	fmt.Fprintf(tw.w, "Recommendation: %s %s %s\n",
		fmtYes("●YES"),
		fmtMaybe("●MAYBE"),
		fmtNo("●NO"))
}

// riskBandColor returns the ANSI color for a risk value band.
func (tw *TableWriter) riskBandColor(risk float64) string {
	switch {
	case risk <= 3:
		return colorGreen
	case risk < 7:
		return colorYellow
	default:
		return colorRed
	}
}

// truncateWithMarker truncates a string and adds a clear truncation marker.
func truncateWithMarker(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= 5 {
		return s[:maxLen]
	}
	return s[:maxLen-5] + "[...]"
}

// centerText centers text within a given width.
func (tw *TableWriter) centerText(text string, width int) string {
	if len(text) >= width {
		return text[:width]
	}
	padding := (width - len(text)) / 2
	return strings.Repeat(" ", padding) + text + strings.Repeat(" ", width-len(text)-padding)
}

// pad returns n spaces, clamped at zero for overlong lines.
func pad(n int) string {
	if n < 0 {
		return ""
	}
	return strings.Repeat(" ", n)
}

// stripANSI removes ANSI escape codes from a string for length calculation.
func stripANSI(s string) string {
	// Simple ANSI stripper - handles common escape sequences
	result := s
	// Remove color codes like \033[...m
	for {
		start := strings.Index(result, "\033[")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "m")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+1:]
	}
	return result
}
