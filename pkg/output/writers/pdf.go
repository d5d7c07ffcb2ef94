package writers

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	gofpdf "github.com/go-pdf/fpdf"
	"github.com/bidlens/bidlens/pkg/output/dispatcher"
	"github.com/bidlens/bidlens/pkg/output/events"
)

// Compile-time interface check
var _ dispatcher.Writer = (*PDFWriter)(nil)

// pdfRiskColors maps risk levels to RGB colors for PDF rendering.
var pdfRiskColors = map[string][]int{
	"low":    {22, 163, 74},   // Green
	"medium": {202, 138, 4},   // Amber
	"high":   {220, 38, 38},   // Red
}

// pdfClassificationColors maps metric classifications to RGB colors.
var pdfClassificationColors = map[events.Classification][]int{
	events.ClassificationBest:    {22, 163, 74},   // Green
	events.ClassificationWorst:   {220, 38, 38},   // Red
	events.ClassificationNeutral: {100, 116, 139}, // Slate
}

// pdfRecommendationColors maps analyst recommendations to RGB colors.
var pdfRecommendationColors = map[string][]int{
	"YES":   {22, 163, 74},
	"MAYBE": {202, 138, 4},
	"NO":    {220, 38, 38},
}

// PDFConfig contains configuration for the PDF writer.
type PDFConfig struct {
	// Title is the report title on the cover page.
	Title string

	// CompanyName appears on the cover page.
	CompanyName string

	// Author appears in the PDF metadata and cover page.
	Author string

	// Classification renders a document classification badge
	// (e.g. "CONFIDENTIAL", "INTERNAL") on the cover page.
	Classification string

	// WatermarkText renders diagonal watermark text on every page.
	WatermarkText string

	// FooterText overrides the default page footer.
	FooterText string

	// IncludeDetails adds a per-report detail card section with
	// red flags and analyst notes.
	IncludeDetails bool

	// IncludeTOC adds a table of contents page.
	IncludeTOC bool

	// PageSize is the page format: "A4" (default) or "Letter".
	PageSize string

	// Orientation is "P" for portrait (default) or "L" for landscape.
	Orientation string
}

// PDFWriter generates a polished PDF comparison report.
// It buffers all events and renders the document on Close.
type PDFWriter struct {
	w       io.Writer
	mu      sync.Mutex
	config  PDFConfig
	start   *events.StartEvent
	results []*events.ResultEvent
	summary *events.SummaryEvent

	// noCompress disables stream compression so rendered text is
	// byte-searchable; used by tests.
	noCompress bool
}

// NewPDFWriter creates a new PDF report writer.
// String fields get defaults when empty; boolean fields are respected
// as given, so callers must opt in to optional sections.
func NewPDFWriter(w io.Writer, config PDFConfig) *PDFWriter {
	if config.Title == "" {
		config.Title = "BidLens Comparison Report"
	}
	if config.PageSize == "" {
		config.PageSize = "A4"
	}
	if config.Orientation == "" {
		config.Orientation = "P"
	}

	return &PDFWriter{
		w:       w,
		config:  config,
		results: make([]*events.ResultEvent, 0),
	}
}

// Write buffers an event for rendering on Close.
func (pw *PDFWriter) Write(event events.Event) error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	switch e := event.(type) {
	case *events.StartEvent:
		pw.start = e
	case *events.ResultEvent:
		pw.results = append(pw.results, e)
	case *events.SummaryEvent:
		pw.summary = e
	}
	return nil
}

// Flush is a no-op; the document is rendered on Close.
func (pw *PDFWriter) Flush() error {
	return nil
}

// SupportsEvent returns true for start, result, and summary events.
// The start event feeds the run configuration appendix.
func (pw *PDFWriter) SupportsEvent(eventType events.EventType) bool {
	switch eventType {
	case events.EventTypeStart, events.EventTypeResult, events.EventTypeSummary:
		return true
	default:
		return false
	}
}

// Close renders the complete PDF document and writes it out.
func (pw *PDFWriter) Close() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	pdf := pw.render()
	if err := pdf.Output(pw.w); err != nil {
		return fmt.Errorf("pdf: render: %w", err)
	}

	if closer, ok := pw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// render builds the full document section by section.
func (pw *PDFWriter) render() *gofpdf.Fpdf {
	pdf := gofpdf.New(pw.config.Orientation, "mm", pw.config.PageSize, "")
	pdf.SetCompression(!pw.noCompress)
	pdf.SetTitle(pw.config.Title, false)
	if pw.config.Author != "" {
		pdf.SetAuthor(pw.config.Author, false)
	}
	pdf.SetCreator("BidLens", false)
	pdf.SetAutoPageBreak(true, 20)

	// Watermark on every page, drawn before body content.
	if pw.config.WatermarkText != "" {
		pdf.SetHeaderFunc(func() {
			pw.drawWatermark(pdf)
		})
	}

	// Page footer with generator line and page number.
	footer := pw.config.FooterText
	if footer == "" {
		footer = "Generated by BidLens"
	}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, footer, "", 0, "L", false, 0, "")
		pdf.SetY(-15)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pw.addCoverPage(pdf)
	if pw.config.IncludeTOC {
		pw.addTableOfContents(pdf)
	}
	pw.addExecutiveSummary(pdf)
	pw.addOpportunityRanking(pdf)
	pw.addMetricMatrix(pdf)
	if pw.config.IncludeDetails && len(pw.results) > 0 {
		pw.addReportDetails(pdf)
	}
	pw.addRedFlagReview(pdf)
	pw.addComparisonInsights(pdf)
	pw.addRunConfiguration(pdf)
	pw.addMethodology(pdf)

	return pdf
}

// drawWatermark renders diagonal light-gray watermark text across the page.
func (pw *PDFWriter) drawWatermark(pdf *gofpdf.Fpdf) {
	pageW, pageH := pdf.GetPageSize()

	pdf.SetFont("Helvetica", "B", 48)
	pdf.SetTextColor(232, 232, 232)

	pdf.TransformBegin()
	pdf.TransformRotate(45, pageW/2, pageH/2)
	textW := pdf.GetStringWidth(pw.config.WatermarkText)
	pdf.Text((pageW-textW)/2, pageH/2, pw.config.WatermarkText)
	pdf.TransformEnd()
}

// addSectionHeader renders a dark banner section title.
func (pw *PDFWriter) addSectionHeader(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFillColor(30, 41, 59)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 12, "  "+title, "", 1, "L", true, 0, "")
	pdf.Ln(6)
}

// addCoverPage renders the title page with run metadata.
func (pw *PDFWriter) addCoverPage(pdf *gofpdf.Fpdf) {
	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()

	// Classification badge in the top-right corner.
	if pw.config.Classification != "" {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetTextColor(220, 38, 38)
		pdf.SetDrawColor(220, 38, 38)
		badgeW := pdf.GetStringWidth(pw.config.Classification) + 8
		pdf.SetXY(pageW-15-badgeW, 15)
		pdf.CellFormat(badgeW, 8, pw.config.Classification, "1", 1, "C", false, 0, "")
	}

	// Title block.
	pdf.SetY(70)
	pdf.SetFont("Helvetica", "B", 28)
	pdf.SetTextColor(30, 41, 59)
	pdf.MultiCell(0, 12, pw.config.Title, "", "C", false)

	if pw.config.CompanyName != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "", 14)
		pdf.SetTextColor(100, 116, 139)
		pdf.CellFormat(0, 8, pw.config.CompanyName, "", 1, "C", false, 0, "")
	}

	// Divider.
	pdf.Ln(8)
	pdf.SetDrawColor(30, 41, 59)
	pdf.SetLineWidth(0.8)
	pdf.Line(pageW/2-40, pdf.GetY(), pageW/2+40, pdf.GetY())
	pdf.Ln(12)

	// Run metadata rows.
	coverRow := func(label, value string) {
		if value == "" {
			return
		}
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetTextColor(100, 116, 139)
		pdf.CellFormat(70, 8, label, "", 0, "R", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(30, 41, 59)
		pdf.CellFormat(0, 8, "  "+value, "", 1, "L", false, 0, "")
	}

	if pw.summary != nil {
		coverRow("Source", pw.summary.Source.Detail)
		coverRow("Reports Compared", fmt.Sprintf("%d", pw.summary.Totals.Reports))
		if pw.summary.Best.Project != "" {
			coverRow("Best Opportunity", fmt.Sprintf("%s  score %.1f", pw.summary.Best.Project, pw.summary.Best.Score))
		}
		if pw.summary.Timing.DurationSec > 0 {
			coverRow("Analysis Duration", formatDuration(pw.summary.Timing.DurationSec))
		}
		if !pw.summary.Timing.StartedAt.IsZero() {
			coverRow("Date", pw.summary.Timing.StartedAt.Format("2006-01-02 15:04 MST"))
		}
	} else if pw.start != nil {
		coverRow("Source", pw.start.Source.Detail)
		coverRow("Reports Selected", fmt.Sprintf("%d", pw.start.SelectionSize))
	}

	if pw.config.Author != "" {
		pdf.Ln(20)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.SetTextColor(100, 116, 139)
		pdf.CellFormat(0, 8, "Prepared by "+pw.config.Author, "", 1, "C", false, 0, "")
	}
}

// tocSections returns the section titles that will actually render,
// in document order. Used to build the table of contents.
func (pw *PDFWriter) tocSections() []string {
	sections := []string{
		"Executive Summary",
		"Opportunity Ranking",
	}
	if pw.hasMetrics() {
		sections = append(sections, "Metric Comparison Matrix")
	}
	if pw.config.IncludeDetails && len(pw.results) > 0 {
		sections = append(sections, "Report Details")
	}
	if pw.hasRedFlags() {
		sections = append(sections, "Red Flag Review")
	}
	sections = append(sections,
		"Comparison Insights",
		"Appendix: Run Configuration",
		"Appendix: Scoring Methodology",
	)
	return sections
}

// addTableOfContents renders the TOC as a single page.
func (pw *PDFWriter) addTableOfContents(pdf *gofpdf.Fpdf) {
	pdf.AddPage()
	pw.addSectionHeader(pdf, "Table of Contents")

	pdf.SetFont("Helvetica", "", 11)
	for i, section := range pw.tocSections() {
		pdf.SetTextColor(30, 41, 59)
		pdf.CellFormat(10, 9, fmt.Sprintf("%d.", i+1), "", 0, "R", false, 0, "")
		pdf.CellFormat(0, 9, "  "+section, "", 1, "L", false, 0, "")
	}
}

// addExecutiveSummary renders headline figures and the best opportunity.
func (pw *PDFWriter) addExecutiveSummary(pdf *gofpdf.Fpdf) {
	pdf.AddPage()
	pw.addSectionHeader(pdf, "Executive Summary")

	if pw.summary == nil {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 8, "No summary data available for this run.", "", 1, "L", false, 0, "")
		return
	}

	s := pw.summary
	pageW, _ := pdf.GetPageSize()
	cardW := (pageW - 30 - 15) / 4

	// Headline stat cards.
	stats := []struct {
		label string
		value string
		color []int
	}{
		{"Reports", fmt.Sprintf("%d", s.Totals.Reports), []int{30, 41, 59}},
		{"Red Flags", fmt.Sprintf("%d", s.Totals.RedFlags), []int{220, 38, 38}},
		{"Avg Risk", fmt.Sprintf("%.1f", s.Averages.Risk), riskBandRGB(s.Averages.Risk)},
		{"Avg Budget", formatMoney(s.Averages.Budget), []int{30, 41, 59}},
	}

	startY := pdf.GetY()
	for i, stat := range stats {
		x := 15 + float64(i)*(cardW+5)
		pdf.SetXY(x, startY)
		pdf.SetFillColor(248, 250, 252)
		pdf.SetDrawColor(226, 232, 240)
		pdf.Rect(x, startY, cardW, 22, "FD")

		pdf.SetXY(x, startY+3)
		pdf.SetFont("Helvetica", "B", 14)
		pdf.SetTextColor(stat.color[0], stat.color[1], stat.color[2])
		pdf.CellFormat(cardW, 8, stat.value, "", 1, "C", false, 0, "")

		pdf.SetX(x)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(100, 116, 139)
		pdf.CellFormat(cardW, 6, stat.label, "", 1, "C", false, 0, "")
	}
	pdf.SetY(startY + 28)

	// Best opportunity callout.
	if s.Best.Project != "" {
		pdf.SetFillColor(240, 253, 244)
		pdf.SetDrawColor(22, 163, 74)
		calloutY := pdf.GetY()
		pdf.Rect(15, calloutY, pageW-30, 18, "FD")

		pdf.SetXY(18, calloutY+2)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetTextColor(22, 163, 74)
		pdf.CellFormat(0, 7, "Best Opportunity: "+s.Best.Project, "", 1, "L", false, 0, "")

		pdf.SetX(18)
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(0, 7, fmt.Sprintf("Report #%d scores %.1f with a %s recommendation.",
			s.Best.ReportID, s.Best.Score, s.Best.Recommendation), "", 1, "L", false, 0, "")
		pdf.SetY(calloutY + 24)
	}

	// Average risk gauge on a 0-10 scale.
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(0, 8, "Average Risk Level", "", 1, "L", false, 0, "")

	gaugeY := pdf.GetY()
	gaugeW := pageW - 30
	risk := s.Averages.Risk
	if risk < 0 {
		risk = 0
	}
	if risk > 10 {
		risk = 10
	}
	fillW := gaugeW * risk / 10

	pdf.SetFillColor(241, 245, 249)
	pdf.Rect(15, gaugeY, gaugeW, 6, "F")
	rgb := riskBandRGB(risk)
	pdf.SetFillColor(rgb[0], rgb[1], rgb[2])
	if fillW > 0 {
		pdf.Rect(15, gaugeY, fillW, 6, "F")
	}
	pdf.SetY(gaugeY + 8)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(100, 116, 139)
	pdf.CellFormat(0, 6, fmt.Sprintf("%.1f of 10", risk), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// Averages and timing lines.
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(0, 7, fmt.Sprintf("Average project duration: %d months", s.Averages.DurationMonths), "", 1, "L", false, 0, "")
	if s.Timing.DurationSec > 0 {
		pdf.CellFormat(0, 7, "Analysis completed in "+formatDuration(s.Timing.DurationSec), "", 1, "L", false, 0, "")
	}

	// Recommendation spread from buffered results.
	if len(pw.results) > 0 {
		var yes, maybe, no int
		for _, r := range pw.results {
			switch r.Report.Recommendation {
			case "YES":
				yes++
			case "NO":
				no++
			default:
				maybe++
			}
		}
		pdf.CellFormat(0, 7, fmt.Sprintf("Analyst recommendations: %d YES, %d MAYBE, %d NO", yes, maybe, no), "", 1, "L", false, 0, "")
	}
}

// addOpportunityRanking renders the full ranking table.
func (pw *PDFWriter) addOpportunityRanking(pdf *gofpdf.Fpdf) {
	pdf.AddPage()
	pw.addSectionHeader(pdf, "Opportunity Ranking")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.MultiCell(0, 5, "Reports ordered by composite opportunity score. "+
		"Lower scores indicate stronger opportunities after weighting risk, budget, duration, and red flags.", "", "L", false)
	pdf.Ln(5)

	if len(pw.results) > 0 {
		pw.renderRankingTable(pdf)
		return
	}

	// Fall back to the summary ranking when no results were buffered.
	if pw.summary != nil && len(pw.summary.Ranking) > 0 {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(30, 41, 59)
		pdf.SetTextColor(255, 255, 255)
		pdf.CellFormat(15, 8, "Rank", "1", 0, "C", true, 0, "")
		pdf.CellFormat(90, 8, "Project", "1", 0, "L", true, 0, "")
		pdf.CellFormat(30, 8, "Score", "1", 1, "C", true, 0, "")

		pdf.SetFont("Helvetica", "", 10)
		for _, entry := range pw.summary.Ranking {
			pdf.SetTextColor(60, 60, 60)
			pdf.CellFormat(15, 7, fmt.Sprintf("%d", entry.Rank), "1", 0, "C", false, 0, "")
			pdf.CellFormat(90, 7, truncateString(entry.Project, 50), "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 7, fmt.Sprintf("%.1f", entry.Score), "1", 1, "C", false, 0, "")
		}
		return
	}

	pdf.SetFont("Helvetica", "I", 10)
	pdf.SetTextColor(128, 128, 128)
	pdf.CellFormat(0, 8, "No reports to rank in this run.", "", 1, "L", false, 0, "")
}

// renderRankingTable renders the detailed ranking table from buffered results.
func (pw *PDFWriter) renderRankingTable(pdf *gofpdf.Fpdf) {
	ranked := make([]*events.ResultEvent, len(pw.results))
	copy(ranked, pw.results)
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].Score.Rank < ranked[j].Score.Rank
	})

	// Header row.
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(30, 41, 59)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(12, 8, "Rank", "1", 0, "C", true, 0, "")
	pdf.CellFormat(52, 8, "Project", "1", 0, "L", true, 0, "")
	pdf.CellFormat(18, 8, "Score", "1", 0, "C", true, 0, "")
	pdf.CellFormat(18, 8, "Risk", "1", 0, "C", true, 0, "")
	pdf.CellFormat(42, 8, "Budget", "1", 0, "C", true, 0, "")
	pdf.CellFormat(20, 8, "Months", "1", 0, "C", true, 0, "")
	pdf.CellFormat(18, 8, "Rec", "1", 1, "C", true, 0, "")

	for i, r := range ranked {
		if i%2 == 0 {
			pdf.SetFillColor(248, 250, 252)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}

		style := ""
		if r.Score.Best {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 9)
		pdf.SetTextColor(60, 60, 60)

		pdf.CellFormat(12, 7, fmt.Sprintf("%d", r.Score.Rank), "1", 0, "C", true, 0, "")
		pdf.CellFormat(52, 7, truncateString(r.Report.Project, 30), "1", 0, "L", true, 0, "")
		pdf.CellFormat(18, 7, fmt.Sprintf("%.1f", r.Score.Value), "1", 0, "C", true, 0, "")

		riskRGB := riskLevelRGB(r.Report.RiskLevel)
		pdf.SetTextColor(riskRGB[0], riskRGB[1], riskRGB[2])
		pdf.CellFormat(18, 7, fmt.Sprintf("%.1f", r.Report.RiskScore), "1", 0, "C", true, 0, "")

		pdf.SetTextColor(60, 60, 60)
		budget := formatMoney(r.Report.BudgetMin) + " - " + formatMoney(r.Report.BudgetMax)
		pdf.CellFormat(42, 7, budget, "1", 0, "C", true, 0, "")
		pdf.CellFormat(20, 7, fmt.Sprintf("%.0f", r.Report.DurationMonths), "1", 0, "C", true, 0, "")

		recRGB := recommendationRGB(r.Report.Recommendation)
		pdf.SetTextColor(recRGB[0], recRGB[1], recRGB[2])
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(18, 7, r.Report.Recommendation, "1", 1, "C", true, 0, "")
	}
}

// addReportDetails renders a detail card for each report.
func (pw *PDFWriter) addReportDetails(pdf *gofpdf.Fpdf) {
	pdf.AddPage()
	pw.addSectionHeader(pdf, "Report Details")

	ranked := make([]*events.ResultEvent, len(pw.results))
	copy(ranked, pw.results)
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].Score.Rank < ranked[j].Score.Rank
	})

	_, pageH := pdf.GetPageSize()
	pageBreakY := pageH - 50

	for i, r := range ranked {
		// Each card needs roughly 70mm; break before starting a card
		// that will not fit.
		if i > 0 && pdf.GetY()+70 > pageBreakY {
			pdf.AddPage()
		}
		pw.renderReportCard(pdf, r)
		pdf.Ln(6)
	}
}

// renderReportCard renders a single report detail card.
func (pw *PDFWriter) renderReportCard(pdf *gofpdf.Fpdf, r *events.ResultEvent) {
	rep := r.Report

	// Card header bar.
	pdf.SetFillColor(241, 245, 249)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(30, 41, 59)
	header := fmt.Sprintf("  #%d %s", rep.ID, rep.Project)
	pdf.CellFormat(150, 9, header, "1", 0, "L", true, 0, "")

	if r.Score.Best {
		pdf.SetTextColor(22, 163, 74)
		pdf.CellFormat(0, 9, "BEST PICK", "1", 1, "C", true, 0, "")
	} else {
		pdf.SetTextColor(100, 116, 139)
		pdf.CellFormat(0, 9, fmt.Sprintf("Rank %d", r.Score.Rank), "1", 1, "C", true, 0, "")
	}

	// Field rows.
	fieldRow := func(label, value string) {
		if value == "" {
			return
		}
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetTextColor(100, 116, 139)
		pdf.CellFormat(35, 6, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(0, 6, value, "", 1, "L", false, 0, "")
	}

	pdf.Ln(2)
	fieldRow("Client", rep.Client)
	fieldRow("Location", rep.Location)
	fieldRow("Budget", formatMoney(rep.BudgetMin)+" - "+formatMoney(rep.BudgetMax))
	fieldRow("Duration", fmt.Sprintf("%.0f months", rep.DurationMonths))
	fieldRow("Score", fmt.Sprintf("%.1f", r.Score.Value))

	// Risk with colored level.
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(100, 116, 139)
	pdf.CellFormat(35, 6, "Risk", "", 0, "L", false, 0, "")
	riskRGB := riskLevelRGB(rep.RiskLevel)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(riskRGB[0], riskRGB[1], riskRGB[2])
	pdf.CellFormat(0, 6, fmt.Sprintf("%.1f %s", rep.RiskScore, rep.RiskLevel), "", 1, "L", false, 0, "")

	// Recommendation with color.
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(100, 116, 139)
	pdf.CellFormat(35, 6, "Recommendation", "", 0, "L", false, 0, "")
	recRGB := recommendationRGB(rep.Recommendation)
	pdf.SetTextColor(recRGB[0], recRGB[1], recRGB[2])
	pdf.CellFormat(0, 6, rep.Recommendation, "", 1, "L", false, 0, "")

	if !rep.DeadlineDate.IsZero() {
		fieldRow("Deadline", rep.DeadlineDate.Format("2006-01-02"))
	}

	// Red flags.
	if len(rep.RedFlags) > 0 {
		pdf.Ln(1)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetTextColor(220, 38, 38)
		pdf.CellFormat(0, 6, fmt.Sprintf("Red Flags: %d", len(rep.RedFlags)), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		for _, flag := range rep.RedFlags {
			pdf.SetTextColor(153, 27, 27)
			pdf.CellFormat(0, 5, "   ! "+flag, "", 1, "L", false, 0, "")
		}
	}

	// Analyst notes.
	if rep.Notes != "" {
		pdf.Ln(1)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetTextColor(100, 116, 139)
		pdf.CellFormat(0, 6, "Analyst Notes", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "I", 9)
		pdf.SetTextColor(80, 80, 80)
		pdf.MultiCell(0, 5, rep.Notes, "", "L", false)
	}
}

// addRunConfiguration renders the run configuration appendix.
// Zero-value settings are skipped.
func (pw *PDFWriter) addRunConfiguration(pdf *gofpdf.Fpdf) {
	pdf.AddPage()
	pw.addSectionHeader(pdf, "Appendix: Run Configuration")

	configRow := func(label, value string) {
		if value == "" {
			return
		}
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(248, 250, 252)
		pdf.SetTextColor(100, 116, 139)
		pdf.CellFormat(55, 7, "  "+label, "1", 0, "L", true, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(0, 7, "  "+value, "1", 1, "L", false, 0, "")
	}

	if pw.start != nil {
		configRow("Source", pw.start.Source.Detail)
		configRow("Operation", pw.start.Operation)
		if len(pw.start.ReportIDs) > 0 {
			configRow("Report IDs", joinIDs(pw.start.ReportIDs))
		}
		if pw.start.SelectionSize > 0 {
			configRow("Selection Size", fmt.Sprintf("%d", pw.start.SelectionSize))
		}
		if pw.start.Config.Concurrency > 0 {
			configRow("Concurrency", fmt.Sprintf("%d", pw.start.Config.Concurrency))
		}
		if pw.start.Config.Timeout > 0 {
			configRow("Timeout", fmt.Sprintf("%ds", pw.start.Config.Timeout))
		}
		configRow("Filter", pw.start.Config.Filter)
		if len(pw.start.Config.Exports) > 0 {
			configRow("Exports", strings.Join(pw.start.Config.Exports, ", "))
		}
	}

	if pw.summary != nil {
		if pw.start == nil {
			configRow("Source", pw.summary.Source.Detail)
			configRow("Operation", pw.summary.Operation)
			if len(pw.summary.Selection) > 0 {
				configRow("Report IDs", joinIDs(pw.summary.Selection))
			}
		}
		configRow("Version", pw.summary.Version)
		configRow("Exit Reason", pw.summary.ExitReason)
		if !pw.summary.Timing.StartedAt.IsZero() {
			configRow("Started", pw.summary.Timing.StartedAt.Format("2006-01-02 15:04:05 MST"))
		}
		if pw.summary.Timing.DurationSec > 0 {
			configRow("Duration", formatDuration(pw.summary.Timing.DurationSec))
		}
	}

	if pw.start == nil && pw.summary == nil {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 8, "No configuration data recorded for this run.", "", 1, "L", false, 0, "")
	}
}

// addMethodology renders the scoring methodology appendix.
func (pw *PDFWriter) addMethodology(pdf *gofpdf.Fpdf) {
	pdf.AddPage()
	pw.addSectionHeader(pdf, "Appendix: Scoring Methodology")

	steps := []struct {
		name string
		body string
	}{
		{"1. METRIC EXTRACTION", "Each bid report contributes one value per comparison metric: risk score, budget bounds, project duration, and red flag count. Missing optional fields fall back to neutral values so partial reports remain comparable."},
		{"2. BEST AND WORST CLASSIFICATION", "For every metric, the engine marks the report holding the most favorable value as best and the least favorable as worst. Ties share the classification. All remaining reports are neutral for that metric."},
		{"3. WEIGHTED SCORING", "Metric values are combined into a composite opportunity score using the configured weights. Each value is scaled against the selection before weighting, so no single metric dominates on raw magnitude alone. Lower composite scores indicate stronger opportunities."},
		{"4. RANKING", "Reports are ordered by ascending composite score. The rank 1 report is the best opportunity in the selection. Ties are broken by report identifier for a stable ordering."},
		{"5. RISK CLASSIFICATION", "Risk scores map to three bands used throughout this report. The bands drive cell coloring in the ranking table and the matrix."},
	}

	for _, step := range steps {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetTextColor(30, 41, 59)
		pdf.CellFormat(0, 8, step.name, "", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(80, 80, 80)
		pdf.MultiCell(0, 5, step.body, "", "L", false)
		pdf.Ln(3)
	}

	// Risk band scale.
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(30, 41, 59)
	pdf.CellFormat(0, 8, "Risk Band Scale", "", 1, "L", false, 0, "")

	bands := []struct {
		label string
		rng   string
		color []int
	}{
		{"Low", "0.0 - 3.9", pdfRiskColors["low"]},
		{"Medium", "4.0 - 6.9", pdfRiskColors["medium"]},
		{"High", "7.0 - 10.0", pdfRiskColors["high"]},
	}
	pdf.SetFont("Helvetica", "B", 9)
	for _, band := range bands {
		pdf.SetTextColor(band.color[0], band.color[1], band.color[2])
		pdf.CellFormat(25, 7, band.label, "1", 0, "C", false, 0, "")
		pdf.SetTextColor(60, 60, 60)
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(35, 7, band.rng, "1", 1, "C", false, 0, "")
		pdf.SetFont("Helvetica", "B", 9)
	}
}

// hasRedFlags reports whether any buffered report carries red flags.
func (pw *PDFWriter) hasRedFlags() bool {
	for _, r := range pw.results {
		if len(r.Report.RedFlags) > 0 {
			return true
		}
	}
	return false
}

// hasMetrics reports whether any buffered result carries metric cells.
func (pw *PDFWriter) hasMetrics() bool {
	for _, r := range pw.results {
		if len(r.Metrics) > 0 {
			return true
		}
	}
	return false
}

// riskLevelRGB returns the RGB color for a named risk level.
func riskLevelRGB(level string) []int {
	if rgb, ok := pdfRiskColors[strings.ToLower(level)]; ok {
		return rgb
	}
	return []int{100, 116, 139}
}

// riskBandRGB returns the RGB color for a numeric risk value band.
func riskBandRGB(risk float64) []int {
	switch {
	case risk < 4:
		return pdfRiskColors["low"]
	case risk < 7:
		return pdfRiskColors["medium"]
	default:
		return pdfRiskColors["high"]
	}
}

// recommendationRGB returns the RGB color for an analyst recommendation.
func recommendationRGB(rec string) []int {
	if rgb, ok := pdfRecommendationColors[rec]; ok {
		return rgb
	}
	return []int{100, 116, 139}
}

// formatDuration renders seconds as a compact human-readable duration.
func formatDuration(seconds float64) string {
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", seconds)
	}
	total := int(seconds)
	if total < 3600 {
		return fmt.Sprintf("%dm %ds", total/60, total%60)
	}
	return fmt.Sprintf("%dh %dm %ds", total/3600, (total%3600)/60, total%60)
}

// groupByRecommendation groups results by analyst recommendation.
func (pw *PDFWriter) groupByRecommendation(results []*events.ResultEvent) map[string][]*events.ResultEvent {
	grouped := make(map[string][]*events.ResultEvent)
	for _, r := range results {
		rec := r.Report.Recommendation
		if rec == "" {
			rec = "UNRATED"
		}
		grouped[rec] = append(grouped[rec], r)
	}
	return grouped
}
