// Package writers provides output writers for various formats.
package writers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/bidlens/bidlens/pkg/output/dispatcher"
	"github.com/bidlens/bidlens/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*CSVWriter)(nil)

// UTF-8 BOM for Excel compatibility.
const utf8BOM = "\xEF\xBB\xBF"

// Default timestamp format (RFC3339).
const defaultTimestampFormat = "2006-01-02T15:04:05Z07:00"

// CSVWriter writes events as CSV rows.
// Each row represents a single ranked report, making it ideal for
// data analysis in tools like Excel, pandas, or database imports.
//
// Features:
//   - 20 column format covering identity, money, schedule, and risk
//   - Excel compatibility with UTF-8 BOM
//   - CSV injection prevention (formula sanitization)
//   - Summary row support
type CSVWriter struct {
	w             io.Writer
	csvWriter     *csv.Writer
	mu            sync.Mutex
	opts          CSVOptions
	headerWritten bool
	summary       *events.SummaryEvent // Store summary for Close()
}

// CSVOptions configures the CSV writer behavior.
type CSVOptions struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool

	// Delimiter sets the field delimiter character.
	// Default is comma when zero value.
	Delimiter rune

	// ExcelCompatible adds UTF-8 BOM for Excel compatibility.
	// This ensures proper display of Unicode characters in Excel.
	ExcelCompatible bool

	// SanitizeFormulas prevents CSV injection by prefixing dangerous characters.
	// Dangerous characters: = + - @ TAB CR
	SanitizeFormulas bool

	// TimestampFormat sets the timestamp format (default: RFC3339).
	TimestampFormat string

	// TruncateAt limits field length (0 = no limit).
	TruncateAt int
}

// csvColumns defines the CSV column headers.
// Order optimized for bid analyst workflow: ranking first, then
// identity, money, schedule, risk, and scoring detail.
var csvColumns = []string{
	// Ranking
	"rank",      // 1-based position, best first
	"report_id", // Reporting service id
	"project",   // Project name
	"client",    // Client name
	"location",  // Project location

	// Money
	"budget_min",      // Budget floor
	"budget_max",      // Budget ceiling
	"budget_midpoint", // (min+max)/2, the figure the summary averages

	// Schedule
	"duration_months", // Projected duration
	"deadline",        // Submission deadline

	// Risk
	"risk_score",     // Analyst risk score, lower is safer
	"risk_level",     // Display label (Low/Medium/High)
	"recommendation", // YES/NO/MAYBE
	"red_flag_count", // Number of red flags raised
	"red_flags",      // Red flag text, joined with ;

	// Scoring
	"score",         // Composite opportunity score, lower is better
	"best",          // true when this row is the best opportunity
	"best_metrics",  // Metrics this report wins, joined with ;
	"worst_metrics", // Metrics this report loses, joined with ;

	// Metadata
	"timestamp", // Event timestamp
}

// sanitizeForCSV prevents CSV injection by prefixing dangerous characters.
// This is a SECURITY feature to prevent formula execution in spreadsheets.
func sanitizeForCSV(s string) string {
	if len(s) == 0 {
		return s
	}
	// Characters that can trigger formula execution in spreadsheets
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s // Prefix with single quote
	}
	return s
}

// truncateField truncates a field to the specified length.
func truncateField(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen > 3 {
		return string(runes[:maxLen-3]) + "..."
	}
	return string(runes[:maxLen])
}

// NewCSVWriter creates a new CSV writer.
// If IncludeHeader is true, a header row is written immediately.
// If ExcelCompatible is true, a UTF-8 BOM is written for proper Excel display.
// The writer is safe for concurrent use.
func NewCSVWriter(w io.Writer, opts CSVOptions) *CSVWriter {
	// Set defaults
	if opts.TimestampFormat == "" {
		opts.TimestampFormat = defaultTimestampFormat
	}

	// Write UTF-8 BOM for Excel compatibility
	if opts.ExcelCompatible {
		_, _ = w.Write([]byte(utf8BOM))
	}

	csvWriter := csv.NewWriter(w)
	if opts.Delimiter != 0 {
		csvWriter.Comma = opts.Delimiter
	}

	cw := &CSVWriter{
		w:         w,
		csvWriter: csvWriter,
		opts:      opts,
	}

	// Write header by default
	if opts.IncludeHeader {
		_ = csvWriter.Write(csvColumns)
		csvWriter.Flush()
		cw.headerWritten = true
	}

	return cw
}

// Write writes a result event as a CSV row with all columns.
// Summary events are captured for output on Close().
// Other event types are silently skipped.
func (cw *CSVWriter) Write(event events.Event) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	switch e := event.(type) {
	case *events.ResultEvent:
		return cw.writeResult(e)
	case *events.SummaryEvent:
		cw.summary = e
		return nil
	default:
		return nil // Skip other event types
	}
}

// writeResult writes a single result event as a CSV row.
func (cw *CSVWriter) writeResult(re *events.ResultEvent) error {
	// Collect the metrics this report wins and loses
	var bestMetrics, worstMetrics []string
	for _, cell := range re.Metrics {
		switch cell.Classification {
		case events.ClassificationBest:
			bestMetrics = append(bestMetrics, cell.Metric)
		case events.ClassificationWorst:
			worstMetrics = append(worstMetrics, cell.Metric)
		}
	}

	deadline := ""
	if !re.Report.DeadlineDate.IsZero() {
		deadline = re.Report.DeadlineDate.Format(cw.opts.TimestampFormat)
	}

	// Build row with all columns (matches csvColumns order)
	row := []string{
		strconv.Itoa(re.Score.Rank),     // rank
		strconv.Itoa(re.Report.ID),      // report_id
		re.Report.Project,               // project
		re.Report.Client,                // client
		re.Report.Location,              // location
		formatAmount(re.Report.BudgetMin),                                  // budget_min
		formatAmount(re.Report.BudgetMax),                                  // budget_max
		formatAmount((re.Report.BudgetMin + re.Report.BudgetMax) / 2),      // budget_midpoint
		strconv.FormatFloat(re.Report.DurationMonths, 'f', -1, 64),         // duration_months
		deadline,                                                           // deadline
		strconv.FormatFloat(re.Report.RiskScore, 'f', -1, 64),              // risk_score
		re.Report.RiskLevel,                                                // risk_level
		re.Report.Recommendation,                                           // recommendation
		strconv.Itoa(len(re.Report.RedFlags)),                              // red_flag_count
		strings.Join(re.Report.RedFlags, ";"),                              // red_flags
		strconv.FormatFloat(re.Score.Value, 'f', -1, 64),                   // score
		strconv.FormatBool(re.Score.Best),                                  // best
		strings.Join(bestMetrics, ";"),                                     // best_metrics
		strings.Join(worstMetrics, ";"),                                    // worst_metrics
		re.Timestamp().Format(cw.opts.TimestampFormat),                     // timestamp
	}

	// Apply sanitization and truncation
	for i, field := range row {
		if cw.opts.SanitizeFormulas {
			field = sanitizeForCSV(field)
		}
		if cw.opts.TruncateAt > 0 {
			field = truncateField(field, cw.opts.TruncateAt)
		}
		row[i] = field
	}

	return cw.csvWriter.Write(row)
}

// formatAmount renders a currency amount with two decimals.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Flush flushes the CSV writer's internal buffer.
func (cw *CSVWriter) Flush() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.csvWriter.Flush()
	return cw.csvWriter.Error()
}

// Close flushes the CSV writer and writes summary if available.
// If the underlying writer implements io.Closer, it will be closed.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	// Write summary if available
	if cw.summary != nil {
		cw.writeSummaryLocked()
	}

	cw.csvWriter.Flush()
	if err := cw.csvWriter.Error(); err != nil {
		return fmt.Errorf("csv: flush: %w", err)
	}

	if closer, ok := cw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// writeSummaryLocked writes a summary section at the end of the CSV.
// Must be called with mu held.
func (cw *CSVWriter) writeSummaryLocked() {
	if cw.summary == nil {
		return
	}

	// Write blank row as separator
	_ = cw.csvWriter.Write([]string{})

	// Write summary rows
	_ = cw.csvWriter.Write([]string{"# SUMMARY"})
	_ = cw.csvWriter.Write([]string{"Reports Compared", strconv.Itoa(cw.summary.Totals.Reports)})
	_ = cw.csvWriter.Write([]string{"Total Red Flags", strconv.Itoa(cw.summary.Totals.RedFlags)})
	_ = cw.csvWriter.Write([]string{"Avg Risk", fmt.Sprintf("%.2f", cw.summary.Averages.Risk)})
	_ = cw.csvWriter.Write([]string{"Avg Budget", formatAmount(cw.summary.Averages.Budget)})
	_ = cw.csvWriter.Write([]string{"Avg Duration (months)", strconv.Itoa(cw.summary.Averages.DurationMonths)})
	_ = cw.csvWriter.Write([]string{"Best Opportunity", cw.summary.Best.Project, strconv.Itoa(cw.summary.Best.ReportID)})
	_ = cw.csvWriter.Write([]string{"Best Score", strconv.FormatFloat(cw.summary.Best.Score, 'f', -1, 64)})
}

// SupportsEvent returns true for result and summary events.
// CSV format supports tabular result data and summary statistics.
func (cw *CSVWriter) SupportsEvent(eventType events.EventType) bool {
	return eventType == events.EventTypeResult || eventType == events.EventTypeSummary
}
