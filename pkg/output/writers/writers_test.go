package writers

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/bidlens/bidlens/pkg/output/events"
)

// makeTestResultEvent creates a ranked result event for writer tests.
// Timestamps are fixed so format assertions are deterministic.
func makeTestResultEvent(id int, project string, rank int, best bool) *events.ResultEvent {
	return &events.ResultEvent{
		BaseEvent: events.BaseEvent{
			Type: events.EventTypeResult,
			Time: time.Date(2026, 2, 15, 10, 30, 0, 0, time.UTC),
			Run:  "test-run-123",
		},
		Report: events.ReportInfo{
			ID:             id,
			Project:        project,
			Client:         "Port Authority",
			Location:       "Rotterdam",
			BudgetMin:      1200000,
			BudgetMax:      2500000,
			DurationMonths: 14,
			RiskScore:      3.5,
			RiskLevel:      "Medium",
			Recommendation: "YES",
			RedFlags:       []string{"unsigned contract addendum"},
			Notes:          "Strong local subcontractor network.",
			DeadlineDate:   time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		Score: events.ScoreInfo{
			Value: 25.0 * float64(rank),
			Rank:  rank,
			Best:  best,
		},
		Metrics: []events.MetricCell{
			{Metric: "risk_score", Value: 3.5, Classification: events.ClassificationBest},
			{Metric: "budget_max", Value: 2500000, Classification: events.ClassificationWorst},
		},
	}
}

// makeTestSummaryEvent creates a run summary for writer tests.
func makeTestSummaryEvent() *events.SummaryEvent {
	return &events.SummaryEvent{
		BaseEvent: events.BaseEvent{
			Type: events.EventTypeSummary,
			Time: time.Date(2026, 2, 15, 10, 30, 2, 0, time.UTC),
			Run:  "test-run-123",
		},
		Totals: events.SummaryTotals{
			Reports:  3,
			RedFlags: 4,
		},
		Averages: events.SummaryAverages{
			Risk:           4.2,
			Budget:         1850000,
			DurationMonths: 15,
		},
		Best: events.BestOpportunity{
			ReportID:       1,
			Project:        "Harbor Expansion",
			Score:          25.0,
			Recommendation: "YES",
		},
	}
}

// TestJSONLWriter tests JSONL streaming output.
func TestJSONLWriter(t *testing.T) {
	t.Run("writes one JSON per line", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewJSONLWriter(buf, JSONLOptions{})

		testEvents := []*events.ResultEvent{
			makeTestResultEvent(1, "Harbor Expansion", 1, true),
			makeTestResultEvent(2, "Bridge Retrofit", 2, false),
		}

		for _, e := range testEvents {
			if err := w.Write(e); err != nil {
				t.Fatalf("write failed: %v", err)
			}
		}
		if err := w.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 2 {
			t.Errorf("expected 2 lines, got %d", len(lines))
		}

		// Verify each line is valid JSON
		for i, line := range lines {
			var obj map[string]interface{}
			if err := json.Unmarshal([]byte(line), &obj); err != nil {
				t.Errorf("line %d is not valid JSON: %v", i+1, err)
			}
		}
	})

	t.Run("BestOnly keeps only the winning report", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewJSONLWriter(buf, JSONLOptions{BestOnly: true})

		winner := makeTestResultEvent(1, "Harbor Expansion", 1, true)
		runnerUp := makeTestResultEvent(2, "Bridge Retrofit", 2, false)

		if err := w.Write(runnerUp); err != nil {
			t.Fatalf("write runner-up failed: %v", err)
		}
		if err := w.Write(winner); err != nil {
			t.Fatalf("write winner failed: %v", err)
		}
		// Summary is not a result event, so it must be skipped too
		if err := w.Write(makeTestSummaryEvent()); err != nil {
			t.Fatalf("write summary failed: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		output := strings.TrimSpace(buf.String())
		if output == "" {
			t.Fatal("expected at least one line of output")
		}
		lines := strings.Split(output, "\n")
		if len(lines) != 1 {
			t.Fatalf("expected 1 line (best only), got %d", len(lines))
		}

		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(lines[0]), &obj); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		report, ok := obj["report"].(map[string]interface{})
		if !ok {
			t.Fatal("line should carry a report object")
		}
		if report["project"] != "Harbor Expansion" {
			t.Errorf("expected the winning report, got %v", report["project"])
		}
	})

	t.Run("OmitFindings strips red flags and notes", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewJSONLWriter(buf, JSONLOptions{OmitFindings: true})

		e := makeTestResultEvent(1, "Harbor Expansion", 1, true)
		if err := w.Write(e); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		w.Close()

		var result map[string]interface{}
		if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}

		report, ok := result["report"].(map[string]interface{})
		if !ok {
			t.Fatal("output should carry a report object")
		}
		if _, hasFlags := report["red_flags"]; hasFlags {
			t.Error("red flags should be omitted")
		}
		if _, hasNotes := report["notes"]; hasNotes {
			t.Error("notes should be omitted")
		}

		// The original event must not be mutated by the filtering
		if len(e.Report.RedFlags) != 1 {
			t.Errorf("original event red flags were mutated: %v", e.Report.RedFlags)
		}
		if e.Report.Notes == "" {
			t.Error("original event notes were mutated")
		}
	})

	t.Run("Pretty emits indented output", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewJSONLWriter(buf, JSONLOptions{Pretty: true})

		if err := w.Write(makeTestResultEvent(1, "Harbor Expansion", 1, true)); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		w.Close()

		if strings.Count(buf.String(), "\n") <= 1 {
			t.Error("pretty output should span multiple lines")
		}
	})

	t.Run("SupportsEvent returns true for all types", func(t *testing.T) {
		w := NewJSONLWriter(&bytes.Buffer{}, JSONLOptions{})
		for _, et := range []events.EventType{
			events.EventTypeStart,
			events.EventTypeResult,
			events.EventTypeError,
			events.EventTypeSummary,
			events.EventTypeComplete,
		} {
			if !w.SupportsEvent(et) {
				t.Errorf("should support %s events", et)
			}
		}
	})

	t.Run("Flush is no-op", func(t *testing.T) {
		w := NewJSONLWriter(&bytes.Buffer{}, JSONLOptions{})
		if err := w.Flush(); err != nil {
			t.Errorf("Flush should not fail: %v", err)
		}
	})
}

// TestJSONWriter tests JSON array output.
func TestJSONWriter(t *testing.T) {
	t.Run("writes JSON array on Close", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewJSONWriter(buf, JSONOptions{})

		e1 := makeTestResultEvent(1, "Harbor Expansion", 1, true)
		e2 := makeTestResultEvent(2, "Bridge Retrofit", 2, false)

		if err := w.Write(e1); err != nil {
			t.Fatalf("write e1 failed: %v", err)
		}
		if err := w.Write(e2); err != nil {
			t.Fatalf("write e2 failed: %v", err)
		}

		// Before Close, buffer should be empty
		if buf.Len() > 0 {
			t.Error("expected no output before Close")
		}

		if err := w.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		// After Close, should have JSON array
		var arr []map[string]interface{}
		if err := json.Unmarshal(buf.Bytes(), &arr); err != nil {
			t.Fatalf("output is not valid JSON array: %v", err)
		}

		if len(arr) != 2 {
			t.Errorf("expected 2 elements, got %d", len(arr))
		}
	})

	t.Run("writes empty array when no events", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewJSONWriter(buf, JSONOptions{})
		w.Close()

		var arr []interface{}
		if err := json.Unmarshal(buf.Bytes(), &arr); err != nil {
			t.Fatalf("output is not valid JSON array: %v", err)
		}

		if len(arr) != 0 {
			t.Errorf("expected empty array, got %d elements", len(arr))
		}
	})

	t.Run("Pretty option adds indentation", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewJSONWriter(buf, JSONOptions{Pretty: true})

		w.Write(makeTestResultEvent(1, "Harbor Expansion", 1, true))
		w.Close()

		output := buf.String()
		if !strings.Contains(output, "\n") {
			t.Error("pretty output should contain newlines")
		}
		if !strings.Contains(output, "\n  {") {
			t.Error("default indent should be two spaces")
		}
	})

	t.Run("IndentSize is configurable", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewJSONWriter(buf, JSONOptions{Pretty: true, IndentSize: 4})

		w.Write(makeTestResultEvent(1, "Harbor Expansion", 1, true))
		w.Close()

		if !strings.Contains(buf.String(), "\n    {") {
			t.Error("expected four-space indentation")
		}
	})

	t.Run("SupportsEvent filters correctly", func(t *testing.T) {
		w := NewJSONWriter(&bytes.Buffer{}, JSONOptions{})
		if !w.SupportsEvent(events.EventTypeResult) {
			t.Error("should support result events")
		}
		if !w.SupportsEvent(events.EventTypeSummary) {
			t.Error("should support summary events")
		}
		if w.SupportsEvent(events.EventTypeStart) {
			t.Error("should not support start events")
		}
		if w.SupportsEvent(events.EventTypeError) {
			t.Error("should not support error events")
		}
		if w.SupportsEvent(events.EventTypeComplete) {
			t.Error("should not support complete events")
		}
	})

	t.Run("Flush is no-op", func(t *testing.T) {
		w := NewJSONWriter(&bytes.Buffer{}, JSONOptions{})
		if err := w.Flush(); err != nil {
			t.Errorf("Flush should not fail: %v", err)
		}
	})
}

// TestCSVWriter tests CSV tabular output.
func TestCSVWriter(t *testing.T) {
	t.Run("writes header and rows", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewCSVWriter(buf, CSVOptions{IncludeHeader: true})

		e := makeTestResultEvent(1, "Harbor Expansion", 1, true)
		if err := w.Write(e); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		if err := w.Flush(); err != nil {
			t.Fatalf("flush failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 2 {
			t.Errorf("expected 2 lines (header + 1 row), got %d", len(lines))
		}

		// Verify header contains expected columns
		header := lines[0]
		for _, col := range []string{"rank", "report_id", "budget_midpoint", "risk_score", "recommendation", "timestamp"} {
			if !strings.Contains(header, col) {
				t.Errorf("header should contain %q", col)
			}
		}
	})

	t.Run("no header when IncludeHeader is false", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewCSVWriter(buf, CSVOptions{IncludeHeader: false})

		w.Write(makeTestResultEvent(1, "Harbor Expansion", 1, true))
		w.Flush()

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 1 {
			t.Errorf("expected 1 line (no header), got %d", len(lines))
		}
	})

	t.Run("row contains correct data", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewCSVWriter(buf, CSVOptions{IncludeHeader: false})

		w.Write(makeTestResultEvent(1, "Harbor Expansion", 1, true))
		w.Flush()

		row := buf.String()
		checks := []string{
			"Harbor Expansion",
			"Port Authority",
			"Rotterdam",
			"1200000.00",             // budget_min, two decimals
			"2500000.00",             // budget_max
			"1850000.00",             // budget_midpoint
			"Medium",                 // risk level
			"YES",                    // recommendation
			"unsigned contract addendum",
			"risk_score",             // winning metric
			"budget_max",             // losing metric
			"2026-03-15T00:00:00Z",   // deadline in RFC3339
			"2026-02-15T10:30:00Z",   // event timestamp
		}
		for _, want := range checks {
			if !strings.Contains(row, want) {
				t.Errorf("row should contain %q", want)
			}
		}
		if !strings.Contains(row, ",true,") {
			t.Error("row should mark the best opportunity")
		}
	})

	t.Run("columns align with header", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewCSVWriter(buf, CSVOptions{IncludeHeader: true})

		w.Write(makeTestResultEvent(1, "Harbor Expansion", 1, true))
		w.Flush()

		records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
		if err != nil {
			t.Fatalf("output is not parseable CSV: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("expected header + 1 row, got %d records", len(records))
		}
		if len(records[0]) != len(csvColumns) {
			t.Fatalf("expected %d columns, got %d", len(csvColumns), len(records[0]))
		}

		byColumn := make(map[string]string, len(records[0]))
		for i, col := range records[0] {
			byColumn[col] = records[1][i]
		}

		want := map[string]string{
			"rank":            "1",
			"report_id":       "1",
			"project":         "Harbor Expansion",
			"budget_midpoint": "1850000.00",
			"duration_months": "14",
			"risk_score":      "3.5",
			"red_flag_count":  "1",
			"score":           "25",
			"best":            "true",
		}
		for col, v := range want {
			if byColumn[col] != v {
				t.Errorf("column %s = %q, want %q", col, byColumn[col], v)
			}
		}
	})

	t.Run("joins multiple red flags with semicolons", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewCSVWriter(buf, CSVOptions{IncludeHeader: false})

		e := makeTestResultEvent(1, "Harbor Expansion", 1, true)
		e.Report.RedFlags = []string{"unsigned contract addendum", "missing performance bond"}
		w.Write(e)
		w.Flush()

		row := buf.String()
		if !strings.Contains(row, "unsigned contract addendum;missing performance bond") {
			t.Error("red flags should be joined with semicolons")
		}
		if !strings.Contains(row, "YES,2,") {
			t.Error("red flag count should reflect both flags")
		}
	})

	t.Run("custom delimiter", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewCSVWriter(buf, CSVOptions{IncludeHeader: true, Delimiter: ';'})

		w.Write(makeTestResultEvent(1, "Harbor Expansion", 1, true))
		w.Flush()

		if !strings.Contains(buf.String(), "rank;report_id") {
			t.Error("output should use semicolon delimiter")
		}
	})

	t.Run("ExcelCompatible adds UTF-8 BOM", func(t *testing.T) {
		buf := &bytes.Buffer{}
		NewCSVWriter(buf, CSVOptions{IncludeHeader: true, ExcelCompatible: true})

		if !bytes.HasPrefix(buf.Bytes(), []byte(utf8BOM)) {
			t.Error("output should start with UTF-8 BOM")
		}

		plain := &bytes.Buffer{}
		NewCSVWriter(plain, CSVOptions{IncludeHeader: true})
		if bytes.HasPrefix(plain.Bytes(), []byte(utf8BOM)) {
			t.Error("BOM should only be written when requested")
		}
	})

	t.Run("sanitizes formula injection", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewCSVWriter(buf, CSVOptions{IncludeHeader: false, SanitizeFormulas: true})

		e := makeTestResultEvent(1, "=SUM(A1:A9)", 1, true)
		e.Report.Client = "@import"
		w.Write(e)
		w.Flush()

		row := buf.String()
		if !strings.Contains(row, "'=SUM(A1:A9)") {
			t.Error("formula project name should be prefixed")
		}
		if !strings.Contains(row, "'@import") {
			t.Error("at-sign client name should be prefixed")
		}
	})

	t.Run("truncates long fields", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewCSVWriter(buf, CSVOptions{IncludeHeader: false, TruncateAt: 12})

		w.Write(makeTestResultEvent(1, "An Extremely Long Project Name", 1, true))
		w.Flush()

		row := buf.String()
		if !strings.Contains(row, "An Extrem...") {
			t.Error("long project name should be truncated with ellipsis")
		}
		if strings.Contains(row, "Extremely") {
			t.Error("full project name should not survive truncation")
		}
	})

	t.Run("custom timestamp format", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewCSVWriter(buf, CSVOptions{IncludeHeader: false, TimestampFormat: "2006-01-02"})

		w.Write(makeTestResultEvent(1, "Harbor Expansion", 1, true))
		w.Flush()

		row := buf.String()
		if !strings.Contains(row, "2026-02-15") {
			t.Error("timestamp should use the custom format")
		}
		if !strings.Contains(row, "2026-03-15") {
			t.Error("deadline should use the custom format")
		}
		if strings.Contains(row, "T10:30") {
			t.Error("time portion should not appear with date-only format")
		}
	})

	t.Run("omits zero deadline", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewCSVWriter(buf, CSVOptions{IncludeHeader: false})

		e := makeTestResultEvent(1, "Harbor Expansion", 1, true)
		e.Report.DeadlineDate = time.Time{}
		w.Write(e)
		w.Flush()

		if strings.Contains(buf.String(), "0001-01-01") {
			t.Error("zero deadline should render as an empty field")
		}
	})

	t.Run("SupportsEvent for results and summary", func(t *testing.T) {
		w := NewCSVWriter(&bytes.Buffer{}, CSVOptions{})
		if !w.SupportsEvent(events.EventTypeResult) {
			t.Error("should support result events")
		}
		if !w.SupportsEvent(events.EventTypeSummary) {
			t.Error("should support summary events")
		}
		if w.SupportsEvent(events.EventTypeStart) {
			t.Error("should not support start events")
		}
		if w.SupportsEvent(events.EventTypeError) {
			t.Error("should not support error events")
		}
	})

	t.Run("skips non-result events", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewCSVWriter(buf, CSVOptions{IncludeHeader: false})

		baseEvent := &events.BaseEvent{
			Type: events.EventTypeComplete,
			Time: time.Now(),
			Run:  "test-run-123",
		}

		// This should be silently skipped
		if err := w.Write(baseEvent); err != nil {
			t.Errorf("write should not fail for non-result events: %v", err)
		}
		w.Flush()

		if buf.Len() > 0 {
			t.Error("non-result events should be skipped")
		}
	})

	t.Run("writes summary block on Close", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewCSVWriter(buf, CSVOptions{IncludeHeader: false})

		w.Write(makeTestResultEvent(1, "Harbor Expansion", 1, true))
		w.Write(makeTestSummaryEvent())
		w.Flush()

		// Summary is held back until Close
		if strings.Contains(buf.String(), "# SUMMARY") {
			t.Fatal("summary should not be written before Close")
		}

		if err := w.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		output := buf.String()
		checks := []string{
			"# SUMMARY",
			"Reports Compared,3",
			"Total Red Flags,4",
			"Avg Risk,4.20",
			"Avg Budget,1850000.00",
			"Avg Duration (months),15",
			"Best Opportunity,Harbor Expansion,1",
			"Best Score,25",
		}
		for _, want := range checks {
			if !strings.Contains(output, want) {
				t.Errorf("summary block should contain %q", want)
			}
		}
	})

	t.Run("Close flushes and returns no error", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewCSVWriter(buf, CSVOptions{IncludeHeader: true})

		w.Write(makeTestResultEvent(1, "Harbor Expansion", 1, true))

		if err := w.Close(); err != nil {
			t.Errorf("close should not fail: %v", err)
		}

		// Verify data was flushed
		if !strings.Contains(buf.String(), "Harbor Expansion") {
			t.Error("data should be flushed on Close")
		}
	})
}

// TestSanitizeForCSV verifies spreadsheet formula injection prevention.
func TestSanitizeForCSV(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"equals sign", "=SUM(A1:A9)", "'=SUM(A1:A9)"},
		{"plus sign", "+1200000", "'+1200000"},
		{"minus sign", "-cmd", "'-cmd"},
		{"at sign", "@import", "'@import"},
		{"tab", "\tvalue", "'\tvalue"},
		{"carriage return", "\rvalue", "'\rvalue"},
		{"plain text", "Harbor Expansion", "Harbor Expansion"},
		{"interior equals", "a=b", "a=b"},
		{"empty string", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeForCSV(tt.input); got != tt.want {
				t.Errorf("sanitizeForCSV(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestTruncateField verifies rune-aware field truncation.
func TestTruncateField(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"no limit", "Harbor Expansion", 0, "Harbor Expansion"},
		{"under limit", "Harbor", 10, "Harbor"},
		{"at limit", "Harbor", 6, "Harbor"},
		{"over limit", "Harbor Expansion", 9, "Harbor..."},
		{"tiny limit skips ellipsis", "Harbor", 3, "Har"},
		{"multibyte runes", "héllo wörld", 8, "héllo..."},
		{"multibyte under rune limit", "héllo", 5, "héllo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateField(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncateField(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

// TestWritersImplementInterface exercises every writer through the full
// dispatcher.Writer method set. The compile-time var _ checks in each
// file guarantee the signatures; this verifies the calls do not panic.
func TestWritersImplementInterface(t *testing.T) {
	t.Run("JSONLWriter has all interface methods", func(t *testing.T) {
		w := NewJSONLWriter(&bytes.Buffer{}, JSONLOptions{})
		_ = w.Write(makeTestResultEvent(1, "Harbor Expansion", 1, true))
		_ = w.Flush()
		_ = w.Close()
		_ = w.SupportsEvent(events.EventTypeResult)
	})

	t.Run("JSONWriter has all interface methods", func(t *testing.T) {
		w := NewJSONWriter(&bytes.Buffer{}, JSONOptions{})
		_ = w.Write(makeTestResultEvent(1, "Harbor Expansion", 1, true))
		_ = w.Flush()
		_ = w.Close()
		_ = w.SupportsEvent(events.EventTypeResult)
	})

	t.Run("CSVWriter has all interface methods", func(t *testing.T) {
		w := NewCSVWriter(&bytes.Buffer{}, CSVOptions{})
		_ = w.Write(makeTestResultEvent(1, "Harbor Expansion", 1, true))
		_ = w.Flush()
		_ = w.Close()
		_ = w.SupportsEvent(events.EventTypeResult)
	})

	t.Run("MarkdownWriter has all interface methods", func(t *testing.T) {
		w := NewMarkdownWriter(&bytes.Buffer{}, MarkdownConfig{})
		_ = w.Write(makeTestResultEvent(1, "Harbor Expansion", 1, true))
		_ = w.Flush()
		_ = w.Close()
		_ = w.SupportsEvent(events.EventTypeResult)
	})

	t.Run("TableWriter has all interface methods", func(t *testing.T) {
		w := NewTableWriter(&bytes.Buffer{}, TableConfig{})
		_ = w.Write(makeTestResultEvent(1, "Harbor Expansion", 1, true))
		_ = w.Flush()
		_ = w.Close()
		_ = w.SupportsEvent(events.EventTypeResult)
	})

	t.Run("TemplateWriter has all interface methods", func(t *testing.T) {
		w, err := NewTemplateWriter(&bytes.Buffer{}, TemplateConfig{TemplateString: "ok"})
		if err != nil {
			t.Fatalf("constructor failed: %v", err)
		}
		_ = w.Write(makeTestResultEvent(1, "Harbor Expansion", 1, true))
		_ = w.Flush()
		_ = w.Close()
		_ = w.SupportsEvent(events.EventTypeResult)
	})

	t.Run("PDFWriter has all interface methods", func(t *testing.T) {
		w := NewPDFWriter(&bytes.Buffer{}, PDFConfig{})
		_ = w.Write(makeTestResultEvent(1, "Harbor Expansion", 1, true))
		_ = w.Flush()
		_ = w.Close()
		_ = w.SupportsEvent(events.EventTypeResult)
	})
}

// TestMultipleWrites verifies writers handle multiple events correctly.
func TestMultipleWrites(t *testing.T) {
	t.Run("JSONL handles many events", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewJSONLWriter(buf, JSONLOptions{})

		for i := 0; i < 100; i++ {
			e := makeTestResultEvent(i+1, "Harbor Expansion", i+1, i == 0)
			if err := w.Write(e); err != nil {
				t.Fatalf("write %d failed: %v", i, err)
			}
		}
		w.Close()

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 100 {
			t.Errorf("expected 100 lines, got %d", len(lines))
		}
	})

	t.Run("JSON handles many events", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewJSONWriter(buf, JSONOptions{})

		for i := 0; i < 100; i++ {
			e := makeTestResultEvent(i+1, "Harbor Expansion", i+1, i == 0)
			if err := w.Write(e); err != nil {
				t.Fatalf("write %d failed: %v", i, err)
			}
		}
		w.Close()

		var arr []interface{}
		if err := json.Unmarshal(buf.Bytes(), &arr); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(arr) != 100 {
			t.Errorf("expected 100 elements, got %d", len(arr))
		}
	})

	t.Run("CSV handles many events", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := NewCSVWriter(buf, CSVOptions{IncludeHeader: true})

		for i := 0; i < 100; i++ {
			e := makeTestResultEvent(i+1, "Harbor Expansion", i+1, i == 0)
			if err := w.Write(e); err != nil {
				t.Fatalf("write %d failed: %v", i, err)
			}
		}
		w.Close()

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 101 {
			t.Errorf("expected header plus 100 rows, got %d lines", len(lines))
		}
	})
}
