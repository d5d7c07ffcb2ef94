// Package writers provides output writers for various formats.
package writers

import (
	"fmt"
	"sort"
	"strings"
	"time"

	gofpdf "github.com/go-pdf/fpdf"

	"github.com/bidlens/bidlens/pkg/output/events"
)

// addMetricMatrix renders the per-metric comparison matrix. Each row is
// one report, each column one metric, with best and worst cells colored.
func (pw *PDFWriter) addMetricMatrix(pdf *gofpdf.Fpdf) {
	if !pw.hasMetrics() {
		return
	}

	pdf.AddPage()
	pw.addSectionHeader(pdf, "Metric Comparison Matrix")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.MultiCell(0, 5, "Each column compares one metric across the selection. Green cells hold the most "+
		"favorable value for that metric, red cells the least favorable.", "", "L", false)
	pdf.Ln(4)

	ranked := make([]*events.ResultEvent, len(pw.results))
	copy(ranked, pw.results)
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].Score.Rank < ranked[j].Score.Rank
	})

	// Column order follows first appearance across the selection.
	var metricOrder []string
	seen := make(map[string]bool)
	for _, r := range ranked {
		for _, cell := range r.Metrics {
			if !seen[cell.Metric] {
				seen[cell.Metric] = true
				metricOrder = append(metricOrder, cell.Metric)
			}
		}
	}

	pageW, _ := pdf.GetPageSize()
	projectW := 48.0
	colW := (pageW - 30 - projectW) / float64(len(metricOrder))

	// Header row.
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(30, 41, 59)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(projectW, 8, "  Project", "1", 0, "L", true, 0, "")
	for _, name := range metricOrder {
		pdf.CellFormat(colW, 8, metricDisplayName(name), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	for _, r := range ranked {
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetFillColor(255, 255, 255)
		pdf.SetTextColor(60, 60, 60)
		label := fmt.Sprintf("  #%d %s", r.Report.ID, truncateString(r.Report.Project, 22))
		pdf.CellFormat(projectW, 7, label, "1", 0, "L", true, 0, "")

		cells := make(map[string]events.MetricCell, len(r.Metrics))
		for _, cell := range r.Metrics {
			cells[cell.Metric] = cell
		}

		for _, name := range metricOrder {
			cell, ok := cells[name]
			if !ok {
				pdf.SetFont("Helvetica", "", 8)
				pdf.SetFillColor(255, 255, 255)
				pdf.SetTextColor(180, 180, 180)
				pdf.CellFormat(colW, 7, "-", "1", 0, "C", true, 0, "")
				continue
			}
			switch cell.Classification {
			case events.ClassificationBest:
				pdf.SetFont("Helvetica", "B", 8)
				pdf.SetFillColor(240, 253, 244)
				pdf.SetTextColor(22, 163, 74)
			case events.ClassificationWorst:
				pdf.SetFont("Helvetica", "B", 8)
				pdf.SetFillColor(254, 242, 242)
				pdf.SetTextColor(220, 38, 38)
			default:
				pdf.SetFont("Helvetica", "", 8)
				pdf.SetFillColor(255, 255, 255)
				pdf.SetTextColor(60, 60, 60)
			}
			pdf.CellFormat(colW, 7, formatMetricValue(cell.Metric, cell.Value), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}

	// Legend.
	pdf.Ln(5)
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetFillColor(240, 253, 244)
	pdf.SetTextColor(22, 163, 74)
	pdf.CellFormat(22, 6, "Best value", "1", 0, "C", true, 0, "")
	pdf.SetFillColor(254, 242, 242)
	pdf.SetTextColor(220, 38, 38)
	pdf.CellFormat(24, 6, "Worst value", "1", 0, "C", true, 0, "")
	pdf.SetFillColor(255, 255, 255)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(20, 6, "Neutral", "1", 1, "C", true, 0, "")
}

// addRedFlagReview groups every red flag in the selection by category
// and renders due-diligence guidance for each. Skipped when the whole
// selection is clean.
func (pw *PDFWriter) addRedFlagReview(pdf *gofpdf.Fpdf) {
	if !pw.hasRedFlags() {
		return
	}

	pdf.AddPage()
	pw.addSectionHeader(pdf, "Red Flag Review")

	type flagOccurrence struct {
		reportID int
		project  string
		flag     string
	}

	byCategory := make(map[string][]flagOccurrence)
	for _, r := range pw.results {
		for _, flag := range r.Report.RedFlags {
			category := classifyRedFlag(flag)
			byCategory[category] = append(byCategory[category], flagOccurrence{
				reportID: r.Report.ID,
				project:  r.Report.Project,
				flag:     flag,
			})
		}
	}

	// Largest categories first, name as tiebreak.
	categories := make([]string, 0, len(byCategory))
	for category := range byCategory {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool {
		ci, cj := len(byCategory[categories[i]]), len(byCategory[categories[j]])
		if ci != cj {
			return ci > cj
		}
		return categories[i] < categories[j]
	})

	_, pageH := pdf.GetPageSize()

	for _, category := range categories {
		occurrences := byCategory[category]
		info := flagCategoryFor(category)

		// Keep the header and guidance block together.
		if pdf.GetY()+35 > pageH-47 {
			pdf.AddPage()
		}

		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(220, 38, 38)
		pdf.CellFormat(0, 8, fmt.Sprintf("%s: %d", info.Title, len(occurrences)), "", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(80, 80, 80)
		pdf.MultiCell(0, 5, info.Guidance, "", "L", false)
		pdf.Ln(1)

		pdf.SetFont("Helvetica", "I", 9)
		pdf.SetTextColor(153, 27, 27)
		for _, occ := range occurrences {
			pdf.MultiCell(0, 5, fmt.Sprintf("   #%d %s: %s", occ.reportID, occ.project, occ.flag), "", "L", false)
		}
		pdf.Ln(4)
	}

	// Reports with a clean sheet.
	var clean []string
	for _, r := range pw.results {
		if len(r.Report.RedFlags) == 0 {
			clean = append(clean, fmt.Sprintf("#%d %s", r.Report.ID, r.Report.Project))
		}
	}
	if len(clean) > 0 {
		if pdf.GetY()+20 > pageH-47 {
			pdf.AddPage()
		}
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetTextColor(22, 163, 74)
		pdf.CellFormat(0, 8, fmt.Sprintf("%d of %d reports carry no red flags.", len(clean), len(pw.results)), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(60, 60, 60)
		pdf.MultiCell(0, 5, strings.Join(clean, ", "), "", "L", false)
	}
}

// insight is one derived observation in the insights section.
type insight struct {
	marker string
	title  string
	body   string
}

// addComparisonInsights renders observations derived from the run data.
func (pw *PDFWriter) addComparisonInsights(pdf *gofpdf.Fpdf) {
	pdf.AddPage()
	pw.addSectionHeader(pdf, "Comparison Insights")

	insights := pw.deriveInsights()
	if len(insights) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 8, "No notable insights from this comparison.", "", 1, "L", false, 0, "")
		return
	}

	_, pageH := pdf.GetPageSize()
	for _, ins := range insights {
		if pdf.GetY()+25 > pageH-47 {
			pdf.AddPage()
		}

		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetFillColor(30, 41, 59)
		pdf.SetTextColor(255, 255, 255)
		pdf.CellFormat(10, 10, ins.marker, "1", 0, "C", true, 0, "")

		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetTextColor(30, 41, 59)
		pdf.CellFormat(0, 10, "  "+ins.title, "", 1, "L", false, 0, "")

		pdf.SetX(27)
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(80, 80, 80)
		pdf.MultiCell(0, 5, ins.body, "", "L", false)
		pdf.Ln(4)
	}
}

// deriveInsights computes the observations for the insights section.
func (pw *PDFWriter) deriveInsights() []insight {
	var insights []insight

	// Front-runner margin.
	if pw.summary != nil && len(pw.summary.Ranking) >= 2 {
		best := pw.summary.Ranking[0]
		second := pw.summary.Ranking[1]
		if second.Score > 0 {
			lead := (second.Score - best.Score) / second.Score * 100
			switch {
			case lead >= 25:
				insights = append(insights, insight{">", "Clear front-runner", fmt.Sprintf(
					"%s scores %.1f against %.1f for the runner-up, a %.0f%% lead. The ranking is unlikely "+
						"to change under modest weight adjustments.", best.Project, best.Score, second.Score, lead)})
			case lead < 10:
				insights = append(insights, insight{">", "Close race at the top", fmt.Sprintf(
					"%s and %s are separated by less than 10%% on composite score. Re-run the comparison "+
						"with adjusted weights before committing to either.", best.Project, second.Project)})
			}
		}
	}

	// Risk posture.
	if pw.summary != nil && pw.summary.Totals.Reports > 0 {
		insights = append(insights, insight{"i", "Risk posture", riskPostureSummary(pw.summary.Averages.Risk)})
	}

	// Red flag density.
	if pw.summary != nil && pw.summary.Totals.Reports > 0 {
		perReport := float64(pw.summary.Totals.RedFlags) / float64(pw.summary.Totals.Reports)
		if pw.summary.Totals.RedFlags == 0 {
			insights = append(insights, insight{"+", "Clean selection",
				"No red flags were raised across the selection. Standard due diligence still applies before award."})
		} else if perReport >= 2 {
			insights = append(insights, insight{"!", "High red flag density", fmt.Sprintf(
				"The selection averages %.1f red flags per report. Work through the red flag review "+
					"before shortlisting.", perReport)})
		}
	}

	// Budget spread.
	if len(pw.results) >= 2 {
		minMid, maxMid := pw.results[0].Report.BudgetMidpoint(), pw.results[0].Report.BudgetMidpoint()
		for _, r := range pw.results[1:] {
			mid := r.Report.BudgetMidpoint()
			if mid < minMid {
				minMid = mid
			}
			if mid > maxMid {
				maxMid = mid
			}
		}
		if minMid > 0 && maxMid/minMid >= 2 {
			insights = append(insights, insight{"$", "Wide budget spread", fmt.Sprintf(
				"Budget midpoints range from %s to %s, a %.1fx spread. Confirm the bids price a "+
					"comparable scope.", formatMoney(minMid), formatMoney(maxMid), maxMid/minMid)})
		}
	}

	// Duration outlier.
	if len(pw.results) >= 2 {
		minD, maxD := pw.results[0].Report.DurationMonths, pw.results[0].Report.DurationMonths
		for _, r := range pw.results[1:] {
			d := r.Report.DurationMonths
			if d < minD {
				minD = d
			}
			if d > maxD {
				maxD = d
			}
		}
		if minD > 0 && maxD >= minD*2 {
			insights = append(insights, insight{"i", "Duration outlier", fmt.Sprintf(
				"Proposed durations range from %.0f to %.0f months. Verify that the longer schedules "+
					"reflect scope rather than capacity.", minD, maxD)})
		}
	}

	// Recommendation consensus.
	if len(pw.results) > 0 {
		yes, no := 0, 0
		for _, r := range pw.results {
			switch r.Report.Recommendation {
			case "YES":
				yes++
			case "NO":
				no++
			}
		}
		if yes == len(pw.results) {
			insights = append(insights, insight{"+", "Unanimous analyst support", fmt.Sprintf(
				"All %d reports carry a YES recommendation. The scoring separates otherwise "+
					"comparable bids.", yes)})
		} else if no > 0 {
			insights = append(insights, insight{"!", "Analyst objections on file", fmt.Sprintf(
				"%d of %d reports carry a NO recommendation. Exclude them or document the override "+
					"before award.", no, len(pw.results))})
		}
	}

	// Deadline spread.
	if len(pw.results) >= 2 {
		var earliest, latest time.Time
		for _, r := range pw.results {
			d := r.Report.DeadlineDate
			if d.IsZero() {
				continue
			}
			if earliest.IsZero() || d.Before(earliest) {
				earliest = d
			}
			if latest.IsZero() || d.After(latest) {
				latest = d
			}
		}
		if !earliest.IsZero() && latest.Sub(earliest) > 60*24*time.Hour {
			insights = append(insights, insight{"i", "Staggered deadlines", fmt.Sprintf(
				"Submission deadlines span from %s to %s. Sequence the award decisions so the "+
					"earliest deadline is not missed.", earliest.Format("2006-01-02"), latest.Format("2006-01-02"))})
		}
	}

	return insights
}

// riskPostureSummary describes the average risk band in one sentence.
func riskPostureSummary(avg float64) string {
	switch {
	case avg < 4:
		return fmt.Sprintf("Average risk across the selection is low at %.1f of 10. The field is broadly "+
			"investable and the decision can weigh price and schedule more heavily.", avg)
	case avg < 7:
		return fmt.Sprintf("Average risk across the selection is moderate at %.1f of 10. Individual red "+
			"flags deserve attention before award.", avg)
	default:
		return fmt.Sprintf("Average risk across the selection is high at %.1f of 10. Treat every "+
			"shortlisted bid as conditional on the red flag review.", avg)
	}
}
