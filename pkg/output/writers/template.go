// Package writers provides output writers for various formats.
package writers

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/bidlens/bidlens/pkg/output/dispatcher"
	"github.com/bidlens/bidlens/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*TemplateWriter)(nil)

// TemplateConfig configures the template writer.
type TemplateConfig struct {
	// TemplatePath is the path to a custom template file.
	TemplatePath string

	// TemplateString is an inline template string (alternative to TemplatePath).
	TemplateString string

	// BuiltIn is the name of a built-in template: "csv", "text-summary", "best".
	BuiltIn string
}

// builtInTemplates contains pre-defined templates for common output formats.
var builtInTemplates = map[string]string{
	"csv": `Rank,ReportID,Project,Client,RiskScore,RiskLevel,BudgetMin,BudgetMax,DurationMonths,RedFlags,Recommendation,Score
{{- range .Results }}
{{ .Score.Rank }},{{ .Report.ID }},{{ escapeCSV .Report.Project }},{{ escapeCSV .Report.Client }},{{ printf "%.1f" .Report.RiskScore }},{{ .Report.RiskLevel }},{{ printf "%.0f" .Report.BudgetMin }},{{ printf "%.0f" .Report.BudgetMax }},{{ .Report.DurationMonths }},{{ .Report.RedFlagCount }},{{ .Report.Recommendation }},{{ printf "%.1f" .Score.Value }}
{{- end }}`,

	"text-summary": `Bid Comparison Summary
======================
Source: {{ .Source }}
Generated: {{ .Timestamp }}
Duration: {{ printf "%.2f" .Duration }}s

Results:
  Reports: {{ .TotalReports }}
  Red Flags: {{ .TotalRedFlags }}
  Avg Risk: {{ printf "%.2f" .AvgRisk }}
  Avg Budget: {{ money .AvgBudget }}
  Highest Risk: {{ .HighestRisk | default "n/a" }}
{{ if .Best }}
Best Opportunity: {{ .Best.Report.Project }} (score {{ printf "%.1f" .Best.Score.Value }}, {{ .Best.Report.Recommendation }})
{{ end }}
{{- if gt .TotalReports 0 }}
Recommendations:
{{- range $rec, $count := .RecommendationCounts }}
  {{ recommendationIcon $rec }} {{ $rec }}: {{ $count }}
{{- end }}
{{ end }}`,

	"best": `{{ if .Best -}}
Best Opportunity: {{ .Best.Report.Project }} (report {{ .Best.Report.ID }})
Score: {{ printf "%.1f" .Best.Score.Value }} (rank {{ .Best.Score.Rank }})
Risk: {{ printf "%.1f" .Best.Report.RiskScore }} ({{ .Best.Report.RiskLevel }})
Budget: {{ money .Best.Report.BudgetMin }} - {{ money .Best.Report.BudgetMax }}
Recommendation: {{ .Best.Report.Recommendation }}
{{- if .Best.Report.RedFlags }}
Red Flags:
{{- range .Best.Report.RedFlags }}
  - {{ . }}
{{- end }}
{{- end }}
{{ else -}}
No best opportunity available.
{{ end -}}`,
}

// TemplateWriter renders events using Go templates.
// It buffers all events in memory and renders the template on Close.
// The writer supports custom templates, inline templates, and built-in templates.
// Sprig functions and bid-specific functions are available in templates.
type TemplateWriter struct {
	w         io.Writer
	mu        sync.Mutex
	config    TemplateConfig
	tmpl      *template.Template
	results   []*events.ResultEvent
	summary   *events.SummaryEvent
	runID     string
	startTime time.Time
}

// NewTemplateWriter creates a new template writer.
// It parses the template immediately and returns an error if the template is invalid.
// The writer buffers all events and writes the rendered template on Close.
func NewTemplateWriter(w io.Writer, config TemplateConfig) (*TemplateWriter, error) {
	tw := &TemplateWriter{
		w:         w,
		config:    config,
		results:   make([]*events.ResultEvent, 0),
		startTime: time.Now(),
	}

	// Parse template
	if err := tw.parseTemplate(); err != nil {
		return nil, fmt.Errorf("template parse error: %w", err)
	}

	return tw, nil
}

// parseTemplate parses the template from config (path, string, or built-in).
func (tw *TemplateWriter) parseTemplate() error {
	var templateContent string

	// Determine template source
	switch {
	case tw.config.TemplatePath != "":
		content, err := os.ReadFile(tw.config.TemplatePath)
		if err != nil {
			return fmt.Errorf("failed to read template file: %w", err)
		}
		templateContent = string(content)

	case tw.config.TemplateString != "":
		templateContent = tw.config.TemplateString

	case tw.config.BuiltIn != "":
		content, ok := builtInTemplates[tw.config.BuiltIn]
		if !ok {
			return fmt.Errorf("unknown built-in template: %s (available: csv, text-summary, best)", tw.config.BuiltIn)
		}
		templateContent = content

	default:
		return fmt.Errorf("no template specified: set TemplatePath, TemplateString, or BuiltIn")
	}

	// Create function map with Sprig functions
	funcMap := sprig.TxtFuncMap()

	// Add bid-specific functions
	funcMap["escapeCSV"] = tmplEscapeCSV
	funcMap["escapeXML"] = tmplEscapeXML
	funcMap["recommendationIcon"] = recommendationEmoji
	funcMap["classificationIcon"] = tmplClassificationIcon
	funcMap["money"] = formatMoney
	funcMap["json"] = tmplToJSON
	funcMap["prettyJSON"] = tmplPrettyJSON

	// Parse template with all functions
	tmpl, err := template.New("bidlens").Funcs(funcMap).Parse(templateContent)
	if err != nil {
		return fmt.Errorf("parse output template: %w", err)
	}

	tw.tmpl = tmpl
	return nil
}

// Write buffers an event for later template rendering.
func (tw *TemplateWriter) Write(event events.Event) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	// Capture run ID from first event
	if tw.runID == "" {
		tw.runID = event.RunID()
	}

	switch e := event.(type) {
	case *events.ResultEvent:
		tw.results = append(tw.results, e)
	case *events.SummaryEvent:
		tw.summary = e
	}
	return nil
}

// Flush is a no-op for template writer.
// All events are rendered as a single document on Close.
func (tw *TemplateWriter) Flush() error {
	return nil
}

// Close renders the template with all buffered events and writes to the output.
func (tw *TemplateWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	data := tw.buildTemplateData()

	var buf bytes.Buffer
	if err := tw.tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("template execution error: %w", err)
	}

	if _, err := tw.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write error: %w", err)
	}

	if closer, ok := tw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SupportsEvent returns true for result and summary events.
func (tw *TemplateWriter) SupportsEvent(eventType events.EventType) bool {
	switch eventType {
	case events.EventTypeResult, events.EventTypeSummary:
		return true
	default:
		return false
	}
}

// tmplData holds all data available to templates.
type tmplData struct {
	// Basic info
	RunID     string
	Source    string
	Timestamp string
	Duration  float64

	// Results in rank order plus the winner
	Results []*tmplResultData
	Best    *tmplResultData

	// Summary figures
	TotalReports  int
	TotalRedFlags int
	AvgRisk       float64
	AvgBudget     float64
	AvgMonths     int

	// Breakdown
	RecommendationCounts map[string]int
	RiskLevelCounts      map[string]int
	HighestRisk          string
}

// tmplResultData is a flattened view of ResultEvent for easier template access.
type tmplResultData struct {
	Report  events.ReportInfo
	Score   events.ScoreInfo
	Metrics []events.MetricCell
}

// buildTemplateData constructs the data object for template rendering.
func (tw *TemplateWriter) buildTemplateData() *tmplData {
	data := &tmplData{
		RunID:                tw.runID,
		Timestamp:            time.Now().UTC().Format(time.RFC3339),
		Results:              make([]*tmplResultData, 0, len(tw.results)),
		RecommendationCounts: make(map[string]int),
		RiskLevelCounts:      make(map[string]int),
	}

	var riskSum, budgetSum, monthsSum float64

	// Process results
	for _, r := range tw.results {
		rd := &tmplResultData{
			Report:  r.Report,
			Score:   r.Score,
			Metrics: r.Metrics,
		}
		data.Results = append(data.Results, rd)

		if r.Score.Best {
			data.Best = rd
		}

		data.TotalRedFlags += len(r.Report.RedFlags)
		riskSum += r.Report.RiskScore
		budgetSum += r.Report.BudgetMidpoint()
		monthsSum += r.Report.DurationMonths

		// Count by recommendation and risk level
		data.RecommendationCounts[r.Report.Recommendation]++
		level := r.Report.RiskLevel
		data.RiskLevelCounts[level]++

		// Track highest risk level
		if isHigherRisk(level, data.HighestRisk) {
			data.HighestRisk = level
		}
	}

	data.TotalReports = len(tw.results)

	// Calculate averages from buffered results
	if data.TotalReports > 0 {
		data.AvgRisk = riskSum / float64(data.TotalReports)
		data.AvgBudget = budgetSum / float64(data.TotalReports)
		data.AvgMonths = int(monthsSum / float64(data.TotalReports))
	}

	// Extract summary data if available
	if tw.summary != nil {
		data.Source = tw.summary.Source.Detail
		data.Duration = tw.summary.Timing.DurationSec
		data.TotalRedFlags = tw.summary.Totals.RedFlags
		data.AvgRisk = tw.summary.Averages.Risk
		data.AvgBudget = tw.summary.Averages.Budget
		data.AvgMonths = tw.summary.Averages.DurationMonths
	}

	return data
}

// isHigherRisk returns true if level is higher than current.
func isHigherRisk(level, current string) bool {
	order := map[string]int{
		"high":   3,
		"medium": 2,
		"low":    1,
	}
	return order[strings.ToLower(level)] > order[strings.ToLower(current)]
}

// Template helper functions

// tmplEscapeCSV escapes a string for CSV output.
// It wraps the value in quotes if it contains commas, quotes, or newlines.
func tmplEscapeCSV(s string) string {
	if s == "" {
		return ""
	}
	needsQuote := strings.ContainsAny(s, ",\"\n\r")
	if needsQuote {
		escaped := strings.ReplaceAll(s, "\"", "\"\"")
		return "\"" + escaped + "\""
	}
	return s
}

// tmplEscapeXML escapes a string for XML output.
func tmplEscapeXML(s string) string {
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return s
	}
	return buf.String()
}

// tmplClassificationIcon returns an emoji icon for a metric classification.
func tmplClassificationIcon(c events.Classification) string {
	return classificationEmoji(c)
}

// tmplToJSON converts a value to a JSON string.
func tmplToJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(b)
}

// tmplPrettyJSON converts a value to a formatted JSON string.
func tmplPrettyJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(b)
}
