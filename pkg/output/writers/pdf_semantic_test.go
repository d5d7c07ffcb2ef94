package writers

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/bidlens/bidlens/pkg/output/events"
)

// pdfResult holds a generated PDF and provides semantic assertions.
type pdfResult struct {
	t      *testing.T
	raw    []byte
	reader *bytes.Reader
}

func generatePDF(t *testing.T, config PDFConfig, results []*events.ResultEvent, summary *events.SummaryEvent) pdfResult {
	t.Helper()
	buf := &bytes.Buffer{}
	w := NewPDFWriter(buf, config)
	w.noCompress = true // disable stream compression so text is searchable in raw bytes

	for _, r := range results {
		if err := w.Write(r); err != nil {
			t.Fatalf("Write result: %v", err)
		}
	}
	if summary != nil {
		if err := w.Write(summary); err != nil {
			t.Fatalf("Write summary: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw := buf.Bytes()
	return pdfResult{t: t, raw: raw, reader: bytes.NewReader(raw)}
}

// assertValid validates the PDF structure using pdfcpu.
func (p *pdfResult) assertValid() {
	p.t.Helper()
	if err := pdfapi.Validate(p.reader, nil); err != nil {
		p.t.Errorf("PDF validation failed: %v", err)
	}
	p.reader.Seek(0, 0)
}

// assertPageCountAtLeast checks minimum page count.
func (p *pdfResult) assertPageCountAtLeast(min int) {
	p.t.Helper()
	p.reader.Seek(0, 0)
	count, err := pdfapi.PageCount(p.reader, nil)
	if err != nil {
		p.t.Fatalf("PageCount failed: %v", err)
	}
	if count < min {
		p.t.Errorf("page count = %d, want at least %d", count, min)
	}
}

// assertContainsText checks that the raw PDF bytes contain the given text.
// fpdf encodes Helvetica text as literal bytes in PDF content streams.
func (p *pdfResult) assertContainsText(text string) {
	p.t.Helper()
	if !bytes.Contains(p.raw, []byte(text)) {
		p.t.Errorf("PDF does not contain text %q", text)
	}
}

// assertNotContainsText checks that the raw PDF bytes do NOT contain the given text.
func (p *pdfResult) assertNotContainsText(text string) {
	p.t.Helper()
	if bytes.Contains(p.raw, []byte(text)) {
		p.t.Errorf("PDF unexpectedly contains text %q", text)
	}
}

// assertMinSize checks the PDF is at least n bytes.
func (p *pdfResult) assertMinSize(n int) {
	p.t.Helper()
	if len(p.raw) < n {
		p.t.Errorf("PDF size = %d bytes, want at least %d", len(p.raw), n)
	}
}

// --- Helper factories ---

func makeFlaggedReport(id int, project string, rank int, score float64, best bool, rec string) *events.ResultEvent {
	return makePDFTestResultEvent(id, project, rank, score, best, rec)
}

func makeCleanReport(id int, project string, rank int, score float64, best bool, rec string) *events.ResultEvent {
	r := makePDFTestResultEvent(id, project, rank, score, best, rec)
	r.Report.RedFlags = nil
	return r
}

// --- Helpers ---

// pageCount returns the page count of a generated PDF, failing the test on error.
func pageCount(t *testing.T, p pdfResult) int {
	t.Helper()
	p.reader.Seek(0, 0)
	count, err := pdfapi.PageCount(p.reader, nil)
	if err != nil {
		t.Fatalf("PageCount failed: %v", err)
	}
	return count
}

// --- Semantic tests ---

func TestPDF_Structural_ValidPDF(t *testing.T) {
	t.Parallel()
	results := []*events.ResultEvent{
		makeFlaggedReport(1, "Harbor Expansion", 1, 25.0, true, "YES"),
		makeCleanReport(2, "Bridge Retrofit", 2, 61.5, false, "MAYBE"),
	}
	p := generatePDF(t, PDFConfig{
		Title:          "Structural Test",
		IncludeDetails: true,
		IncludeTOC:     true,
	}, results, makePDFTestSummaryEvent())

	p.assertValid()
	p.assertMinSize(5000)
}

func TestPDF_PageCount_WithTOC(t *testing.T) {
	t.Parallel()
	// With TOC: Cover + TOC + ExecSummary + Ranking + Matrix + RedFlags + Insights + RunConfig + Methodology
	results := []*events.ResultEvent{
		makeFlaggedReport(1, "Harbor Expansion", 1, 25.0, true, "YES"),
	}
	withTOC := generatePDF(t, PDFConfig{IncludeTOC: true}, results, makePDFTestSummaryEvent())
	withTOC.assertValid()
	withTOC.assertPageCountAtLeast(9)

	// Without TOC should be exactly 1 page less.
	withoutTOC := generatePDF(t, PDFConfig{IncludeTOC: false}, results, makePDFTestSummaryEvent())
	withoutTOC.assertValid()

	withCount := pageCount(t, withTOC)
	withoutCount := pageCount(t, withoutTOC)
	if withCount != withoutCount+1 {
		t.Errorf("TOC should add exactly 1 page: with=%d, without=%d", withCount, withoutCount)
	}
}

func TestPDF_PageCount_WithoutTOC(t *testing.T) {
	t.Parallel()
	// Without TOC: Cover + ExecSummary + Ranking + Matrix + RedFlags + Insights + RunConfig + Methodology
	results := []*events.ResultEvent{
		makeFlaggedReport(1, "Harbor Expansion", 1, 25.0, true, "YES"),
	}
	p := generatePDF(t, PDFConfig{IncludeTOC: false}, results, makePDFTestSummaryEvent())
	p.assertValid()
	p.assertPageCountAtLeast(8)
}

func TestPDF_PageCount_MoreReportsMorePages(t *testing.T) {
	t.Parallel()
	// More reports with details enabled means more detail cards, which
	// spill across pages. Both summaries are nil to isolate card growth.
	two := []*events.ResultEvent{
		makeFlaggedReport(1, "Harbor Expansion", 1, 25.0, true, "YES"),
		makeFlaggedReport(2, "Bridge Retrofit", 2, 61.5, false, "MAYBE"),
	}
	six := []*events.ResultEvent{
		makeFlaggedReport(1, "Harbor Expansion", 1, 25.0, true, "YES"),
		makeFlaggedReport(2, "Bridge Retrofit", 2, 61.5, false, "MAYBE"),
		makeFlaggedReport(3, "Metro Tunnel", 3, 128.0, false, "MAYBE"),
		makeFlaggedReport(4, "Airport Terminal", 4, 190.2, false, "NO"),
		makeFlaggedReport(5, "Water Treatment Plant", 5, 240.8, false, "NO"),
		makeFlaggedReport(6, "Solar Farm Phase II", 6, 310.4, false, "NO"),
	}

	p2 := generatePDF(t, PDFConfig{IncludeTOC: true, IncludeDetails: true}, two, nil)
	p6 := generatePDF(t, PDFConfig{IncludeTOC: true, IncludeDetails: true}, six, nil)
	p2.assertValid()
	p6.assertValid()

	c2 := pageCount(t, p2)
	c6 := pageCount(t, p6)
	if c6 <= c2 {
		t.Errorf("6 reports (%d pages) should produce more pages than 2 reports (%d pages)", c6, c2)
	}
}

func TestPDF_PageCount_NoDetailsFewerPages(t *testing.T) {
	t.Parallel()
	// Disabling detail cards drops the whole section, so the document
	// must shrink by at least one page.
	results := []*events.ResultEvent{
		makeFlaggedReport(1, "Harbor Expansion", 1, 25.0, true, "YES"),
		makeFlaggedReport(2, "Bridge Retrofit", 2, 61.5, false, "MAYBE"),
	}

	pWithout := generatePDF(t, PDFConfig{IncludeTOC: true}, results, makePDFTestSummaryEvent())
	pWith := generatePDF(t, PDFConfig{IncludeTOC: true, IncludeDetails: true}, results, makePDFTestSummaryEvent())
	pWithout.assertValid()
	pWith.assertValid()

	cWithout := pageCount(t, pWithout)
	cWith := pageCount(t, pWith)
	if cWithout >= cWith {
		t.Errorf("no-details (%d pages) should have fewer pages than with details (%d pages)", cWithout, cWith)
	}
}

func TestPDF_ContainsSectionHeaders(t *testing.T) {
	t.Parallel()
	results := []*events.ResultEvent{
		makeFlaggedReport(1, "Harbor Expansion", 1, 25.0, true, "YES"),
	}
	p := generatePDF(t, PDFConfig{IncludeTOC: true}, results, makePDFTestSummaryEvent())

	p.assertContainsText("Executive Summary")
	p.assertContainsText("Opportunity Ranking")
	p.assertContainsText("Metric Comparison Matrix")
	p.assertContainsText("Table of Contents")
	p.assertContainsText("Scoring Methodology")
}

func TestPDF_ContainsCoverPageInfo(t *testing.T) {
	t.Parallel()
	results := []*events.ResultEvent{
		makeFlaggedReport(1, "Harbor Expansion", 1, 25.0, true, "YES"),
	}
	p := generatePDF(t, PDFConfig{
		Title:          "Meridian Bid Review",
		CompanyName:    "Meridian Infrastructure Group",
		Author:         "Dana Keller",
		Classification: "INTERNAL",
	}, results, makePDFTestSummaryEvent())

	p.assertContainsText("Meridian Bid Review")
	p.assertContainsText("Meridian Infrastructure Group")
	p.assertContainsText("Dana Keller")
	p.assertContainsText("INTERNAL")
	p.assertContainsText("http://localhost:8420")
}

func TestPDF_ContainsBestOpportunity(t *testing.T) {
	t.Parallel()
	p := generatePDF(t, PDFConfig{}, nil, makePDFTestSummaryEvent())

	p.assertContainsText("Best Opportunity: Harbor Expansion")
	p.assertContainsText("YES recommendation")
}

func TestPDF_ContainsRankingEntries(t *testing.T) {
	t.Parallel()
	// With no buffered results the ranking falls back to the summary ranking.
	p := generatePDF(t, PDFConfig{}, nil, makePDFTestSummaryEvent())

	p.assertContainsText("Harbor Expansion")
	p.assertContainsText("Bridge Retrofit")
	p.assertContainsText("Metro Tunnel")
	p.assertContainsText("61.5")
	p.assertContainsText("128.0")
}

func TestPDF_RankingTable_FromResults(t *testing.T) {
	t.Parallel()
	results := []*events.ResultEvent{
		makeFlaggedReport(2, "Bridge Retrofit", 2, 61.5, false, "MAYBE"),
		makeFlaggedReport(1, "Harbor Expansion", 1, 25.0, true, "YES"),
	}
	p := generatePDF(t, PDFConfig{}, results, makePDFTestSummaryEvent())

	p.assertContainsText("Rank")
	p.assertContainsText("Budget")
	p.assertContainsText("Harbor Expansion")
	p.assertContainsText("$1,200,000 - $2,500,000")
}

func TestPDF_DetailsPresenceControlled(t *testing.T) {
	t.Parallel()

	result := makeFlaggedReport(1, "Harbor Expansion", 1, 25.0, true, "YES")
	result.Report.Notes = "Strong local subcontractor network."

	// With details
	pWith := generatePDF(t, PDFConfig{IncludeDetails: true}, []*events.ResultEvent{result}, makePDFTestSummaryEvent())
	pWith.assertContainsText("Report Details")
	pWith.assertContainsText("Analyst Notes")
	pWith.assertContainsText("Strong local subcontractor network.")
	pWith.assertContainsText("BEST PICK")

	// Without details the notes must not appear
	pWithout := generatePDF(t, PDFConfig{IncludeDetails: false}, []*events.ResultEvent{result}, makePDFTestSummaryEvent())
	pWithout.assertNotContainsText("Report Details")
	pWithout.assertNotContainsText("Strong local subcontractor network.")
}

func TestPDF_MetricMatrix_CellValues(t *testing.T) {
	t.Parallel()
	results := []*events.ResultEvent{
		makeFlaggedReport(1, "Harbor Expansion", 1, 25.0, true, "YES"),
	}
	p := generatePDF(t, PDFConfig{}, results, makePDFTestSummaryEvent())

	p.assertValid()
	p.assertContainsText("Metric Comparison Matrix")
	p.assertContainsText("Risk Score")
	p.assertContainsText("Budget Max")
	p.assertContainsText("Best value")
	p.assertContainsText("Worst value")
}

func TestPDF_MetricMatrix_SkippedWithoutMetrics(t *testing.T) {
	t.Parallel()
	r := makeFlaggedReport(1, "Harbor Expansion", 1, 25.0, true, "YES")
	r.Metrics = nil
	p := generatePDF(t, PDFConfig{}, []*events.ResultEvent{r}, makePDFTestSummaryEvent())

	p.assertValid()
	p.assertNotContainsText("Metric Comparison Matrix")
}

func TestPDF_RedFlagReview(t *testing.T) {
	t.Parallel()
	results := []*events.ResultEvent{
		makeFlaggedReport(1, "Harbor Expansion", 1, 25.0, true, "YES"),
	}
	p := generatePDF(t, PDFConfig{}, results, makePDFTestSummaryEvent())

	p.assertValid()
	p.assertContainsText("Red Flag Review")
	p.assertContainsText("Contract and Documentation: 1")
	p.assertContainsText("fully executed copies")
	p.assertContainsText("unsigned contract addendum")
}

func TestPDF_RedFlagReview_SkippedWhenClean(t *testing.T) {
	t.Parallel()
	results := []*events.ResultEvent{
		makeCleanReport(1, "Harbor Expansion", 1, 25.0, true, "YES"),
	}
	p := generatePDF(t, PDFConfig{}, results, makePDFTestSummaryEvent())

	p.assertValid()
	p.assertNotContainsText("Red Flag Review")
}

func TestPDF_RedFlagReview_CleanSheetNote(t *testing.T) {
	t.Parallel()
	results := []*events.ResultEvent{
		makeFlaggedReport(1, "Harbor Expansion", 1, 25.0, true, "YES"),
		makeCleanReport(2, "Bridge Retrofit", 2, 61.5, false, "MAYBE"),
	}
	p := generatePDF(t, PDFConfig{}, results, makePDFTestSummaryEvent())

	p.assertValid()
	p.assertContainsText("1 of 2 reports carry no red flags.")
}

func TestPDF_RedFlagReview_GroupsCategories(t *testing.T) {
	t.Parallel()
	r1 := makeFlaggedReport(1, "Harbor Expansion", 1, 25.0, true, "YES")
	r1.Report.RedFlags = []string{"unsigned contract addendum", "budget overrun on previous phase"}
	r2 := makeFlaggedReport(2, "Bridge Retrofit", 2, 61.5, false, "MAYBE")
	r2.Report.RedFlags = []string{"permit approval still pending"}

	p := generatePDF(t, PDFConfig{}, []*events.ResultEvent{r1, r2}, makePDFTestSummaryEvent())

	p.assertValid()
	p.assertContainsText("Contract and Documentation: 1")
	p.assertContainsText("Financial Exposure: 1")
	p.assertContainsText("Permits and Compliance: 1")
}

func TestPDF_ComparisonInsights(t *testing.T) {
	t.Parallel()
	results := []*events.ResultEvent{
		makeFlaggedReport(1, "Harbor Expansion", 1, 25.0, true, "YES"),
	}
	p := generatePDF(t, PDFConfig{}, results, makePDFTestSummaryEvent())

	p.assertValid()
	p.assertContainsText("Comparison Insights")
	p.assertContainsText("Risk posture")
	// Summary ranking has 25.0 vs 61.5, a lead well above 25%.
	p.assertContainsText("Clear front-runner")
}

func TestPDF_Insights_NoData(t *testing.T) {
	t.Parallel()
	// No summary and no results should show the fallback.
	p := generatePDF(t, PDFConfig{}, nil, nil)
	p.assertValid()
	p.assertContainsText("Comparison Insights")
	p.assertContainsText("No notable insights")
}

func TestPDF_Insights_AnalystObjections(t *testing.T) {
	t.Parallel()
	results := []*events.ResultEvent{
		makeFlaggedReport(1, "Harbor Expansion", 1, 25.0, true, "YES"),
		makeFlaggedReport(2, "Bridge Retrofit", 2, 61.5, false, "NO"),
	}
	p := generatePDF(t, PDFConfig{}, results, makePDFTestSummaryEvent())

	p.assertValid()
	p.assertContainsText("Analyst objections on file")
}

func TestPDF_WatermarkText(t *testing.T) {
	t.Parallel()
	p := generatePDF(t, PDFConfig{WatermarkText: "DRAFT REPORT"}, nil, makePDFTestSummaryEvent())
	p.assertContainsText("DRAFT REPORT")
}

func TestPDF_ClassificationBadge(t *testing.T) {
	t.Parallel()

	for _, class := range []string{"CONFIDENTIAL", "INTERNAL", "PUBLIC"} {
		t.Run(class, func(t *testing.T) {
			t.Parallel()
			p := generatePDF(t, PDFConfig{Classification: class}, nil, makePDFTestSummaryEvent())
			p.assertContainsText(class)
		})
	}
}

func TestPDF_LetterLandscape_Valid(t *testing.T) {
	t.Parallel()
	results := []*events.ResultEvent{
		makeFlaggedReport(1, "Harbor Expansion", 1, 25.0, true, "YES"),
	}
	p := generatePDF(t, PDFConfig{
		PageSize:    "Letter",
		Orientation: "L",
		IncludeTOC:  true,
	}, results, makePDFTestSummaryEvent())

	p.assertValid()
	// Every rendered section starts its own page, so the count never
	// drops below the portrait baseline.
	p.assertPageCountAtLeast(8)
}

func TestPDF_ManyReports_PageOverflow(t *testing.T) {
	t.Parallel()

	// Enough reports to force detail cards across multiple pages.
	var results []*events.ResultEvent
	for i := 0; i < 30; i++ {
		r := makeFlaggedReport(i+1, fmt.Sprintf("Project %02d", i+1), i+1, float64(10*(i+1)), i == 0, "MAYBE")
		results = append(results, r)
	}

	p := generatePDF(t, PDFConfig{
		IncludeDetails: true,
		IncludeTOC:     true,
	}, results, makePDFTestSummaryEvent())

	p.assertValid()
	p.assertPageCountAtLeast(12)
}

func TestPDF_NoResults_NoSummary(t *testing.T) {
	t.Parallel()
	// Completely empty run: no results, no summary.
	p := generatePDF(t, PDFConfig{IncludeTOC: true}, nil, nil)

	p.assertValid()
	// Cover + TOC + Summary + Ranking + Insights + RunConfig + Methodology
	p.assertPageCountAtLeast(7)
	p.assertContainsText("No summary data available")
	p.assertContainsText("No reports to rank")
	p.assertContainsText("No configuration data recorded")
}

func TestPDF_FooterCustomization(t *testing.T) {
	t.Parallel()
	p := generatePDF(t, PDFConfig{FooterText: "Custom Footer Corp"}, nil, makePDFTestSummaryEvent())
	p.assertContainsText("Custom Footer Corp")
}

func TestPDF_DefaultFooter(t *testing.T) {
	t.Parallel()
	p := generatePDF(t, PDFConfig{}, nil, makePDFTestSummaryEvent())
	p.assertContainsText("Generated by BidLens")
}

func TestPDF_TOCSectionTitles_MatchRenderedSections(t *testing.T) {
	t.Parallel()

	results := []*events.ResultEvent{
		makeFlaggedReport(1, "Harbor Expansion", 1, 25.0, true, "YES"),
	}
	p := generatePDF(t, PDFConfig{IncludeTOC: true}, results, makePDFTestSummaryEvent())

	// Every section title in the TOC should also appear in the rendered body
	expectedSections := []string{
		"Executive Summary",
		"Opportunity Ranking",
		"Metric Comparison Matrix",
		"Red Flag Review",
		"Comparison Insights",
		"Appendix: Scoring Methodology",
	}

	for _, section := range expectedSections {
		// TOC mention + actual section header = at least 2
		count := bytes.Count(p.raw, []byte(section))
		if count < 2 {
			t.Errorf("section %q appears %d time(s), want >=2 (TOC + body)", section, count)
		}
	}
}

func TestPDF_TOC_SkipsAbsentSections(t *testing.T) {
	t.Parallel()
	// A clean selection without metrics renders neither the matrix nor
	// the red flag review, and the TOC must not list them.
	r := makeCleanReport(1, "Harbor Expansion", 1, 25.0, true, "YES")
	r.Metrics = nil
	p := generatePDF(t, PDFConfig{IncludeTOC: true}, []*events.ResultEvent{r}, makePDFTestSummaryEvent())

	p.assertValid()
	p.assertNotContainsText("Metric Comparison Matrix")
	p.assertNotContainsText("Red Flag Review")
}

func TestPDF_MethodologyContent(t *testing.T) {
	t.Parallel()
	p := generatePDF(t, PDFConfig{}, nil, makePDFTestSummaryEvent())

	// The methodology appendix should contain key scoring steps
	p.assertContainsText("METRIC EXTRACTION")
	p.assertContainsText("BEST AND WORST CLASSIFICATION")
	p.assertContainsText("WEIGHTED SCORING")
	p.assertContainsText("RANKING")
	p.assertContainsText("RISK CLASSIFICATION")
	p.assertContainsText("Risk Band Scale")
}

func TestPDF_SummaryStatistics(t *testing.T) {
	t.Parallel()
	summary := makePDFTestSummaryEvent()
	summary.Totals.Reports = 250
	summary.Totals.RedFlags = 17
	summary.Averages.Budget = 1850000

	p := generatePDF(t, PDFConfig{}, nil, summary)

	// Stat values should appear in the exec summary
	p.assertContainsText("250")
	p.assertContainsText("17")
	p.assertContainsText("$1,850,000")
}

func TestPDF_TimingInfo(t *testing.T) {
	t.Parallel()
	summary := makePDFTestSummaryEvent()
	summary.Timing.StartedAt = time.Date(2026, 2, 15, 14, 30, 0, 0, time.UTC)

	p := generatePDF(t, PDFConfig{}, nil, summary)
	p.assertContainsText("2026-02-15")
}

func TestPDF_CoverPageDuration(t *testing.T) {
	t.Parallel()
	summary := makePDFTestSummaryEvent()
	summary.Timing.DurationSec = 3723 // 1h 2m 3s
	p := generatePDF(t, PDFConfig{}, nil, summary)

	p.assertContainsText("1h 2m 3s")
}

func TestPDF_RunConfig_FromSummary(t *testing.T) {
	t.Parallel()
	summary := makePDFTestSummaryEvent()
	p := generatePDF(t, PDFConfig{}, nil, summary)

	p.assertContainsText("Appendix: Run Configuration")
	p.assertContainsText("http://localhost:8420")
	p.assertContainsText("1, 2, 3")  // report selection
	p.assertContainsText("completed") // exit reason
}

func TestPDF_RunConfig_WithStartEvent(t *testing.T) {
	t.Parallel()
	start := &events.StartEvent{
		BaseEvent: events.BaseEvent{Type: events.EventTypeStart, Time: time.Now(), Run: "test-run-pdf-123"},
		Operation: "compare",
		Source:    events.SourceInfo{Kind: events.SourceService, Detail: "http://localhost:8420"},
		ReportIDs: []int{4, 7, 9},
		Config: events.RunConfig{
			Concurrency: 10,
			Timeout:     30,
			Filter:      "recommendation=YES",
			Exports:     []string{"json", "csv", "pdf"},
		},
	}

	buf := &bytes.Buffer{}
	w := NewPDFWriter(buf, PDFConfig{})
	w.noCompress = true
	w.Write(start)
	w.Write(makePDFTestSummaryEvent())
	w.Close()

	p := pdfResult{t: t, raw: buf.Bytes(), reader: bytes.NewReader(buf.Bytes())}
	p.assertContainsText("Appendix: Run Configuration")
	p.assertContainsText("4, 7, 9")
	p.assertContainsText("recommendation=YES")
	p.assertContainsText("json, csv, pdf")
}

func TestPDF_RunConfig_SkipsZeroTimeout(t *testing.T) {
	t.Parallel()
	start := &events.StartEvent{
		BaseEvent: events.BaseEvent{Type: events.EventTypeStart},
		Config: events.RunConfig{
			Concurrency: 5,
			Timeout:     0, // not populated
		},
	}
	summary := makePDFTestSummaryEvent()
	// Use a duration that doesn't contain "0s" as a substring.
	summary.Timing.DurationSec = 125.0 // "2m 5s"

	buf := &bytes.Buffer{}
	w := NewPDFWriter(buf, PDFConfig{})
	w.noCompress = true
	w.Write(start)
	w.Write(summary)
	w.Close()

	p := pdfResult{t: t, raw: buf.Bytes(), reader: bytes.NewReader(buf.Bytes())}
	// With Timeout=0, no "0s" should appear in the run config table.
	// The summary duration is "2m 5s" which doesn't contain "0s".
	p.assertNotContainsText("0s")
}

func TestPDF_RunConfig_SkipsZeroConcurrency(t *testing.T) {
	t.Parallel()
	start := &events.StartEvent{
		BaseEvent: events.BaseEvent{Type: events.EventTypeStart},
		Config:    events.RunConfig{Concurrency: 0},
	}
	buf := &bytes.Buffer{}
	w := NewPDFWriter(buf, PDFConfig{})
	w.noCompress = true
	w.Write(start)
	w.Write(makePDFTestSummaryEvent())
	w.Close()

	p := pdfResult{t: t, raw: buf.Bytes(), reader: bytes.NewReader(buf.Bytes())}
	// "Concurrency" row should not appear for zero value
	p.assertNotContainsText("Concurrency")
}

func TestPDF_RunConfig_ShowsPopulatedTimeout(t *testing.T) {
	t.Parallel()
	start := &events.StartEvent{
		BaseEvent: events.BaseEvent{Type: events.EventTypeStart},
		Config: events.RunConfig{
			Concurrency: 10,
			Timeout:     30,
		},
	}
	buf := &bytes.Buffer{}
	w := NewPDFWriter(buf, PDFConfig{})
	w.noCompress = true
	w.Write(start)
	w.Write(makePDFTestSummaryEvent())
	w.Close()

	p := pdfResult{t: t, raw: buf.Bytes(), reader: bytes.NewReader(buf.Bytes())}
	p.assertContainsText("30s")
	p.assertContainsText("Concurrency")
}

func TestPDF_FormatDuration(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected string
	}{
		{0, "0.0s"},
		{5.3, "5.3s"},
		{59.9, "59.9s"},
		{60, "1m 0s"},
		{125, "2m 5s"},
		{3600, "1h 0m 0s"},
		{3723, "1h 2m 3s"},
		{7325, "2h 2m 5s"},
	}

	for _, tc := range tests {
		result := formatDuration(tc.seconds)
		if result != tc.expected {
			t.Errorf("formatDuration(%v) = %q, want %q", tc.seconds, result, tc.expected)
		}
	}
}

func TestPDF_TOCIncludesConditionalSections(t *testing.T) {
	t.Parallel()
	results := []*events.ResultEvent{
		makeFlaggedReport(1, "Harbor Expansion", 1, 25.0, true, "YES"),
	}
	p := generatePDF(t, PDFConfig{IncludeTOC: true, IncludeDetails: true}, results, makePDFTestSummaryEvent())

	p.assertContainsText("Metric Comparison Matrix")
	p.assertContainsText("Report Details")
	p.assertContainsText("Red Flag Review")
	p.assertContainsText("Appendix: Run Configuration")
}
