package compare

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/bidlens/bidlens/pkg/bidreport"
	"github.com/bidlens/bidlens/pkg/metric"
)

// testReports returns a three-bid set with known extremes on every
// metric.
func testReports() []bidreport.Report {
	return []bidreport.Report{
		{
			ID: 1, Project: "Harbor Expansion",
			BudgetMin: 100, BudgetMax: 200, DurationMonths: 6,
			RiskScore: 2, Recommendation: bidreport.RecommendationYes,
		},
		{
			ID: 2, Project: "Metro Tunnel",
			BudgetMin: 300, BudgetMax: 900, DurationMonths: 24,
			RiskScore: 8, Recommendation: bidreport.RecommendationNo,
			RiskAssessment: bidreport.RiskAssessment{RedFlags: []string{"permits", "funding", "staffing"}},
		},
		{
			ID: 3, Project: "Bridge Retrofit",
			BudgetMin: 200, BudgetMax: 500, DurationMonths: 12,
			RiskScore: 5, Recommendation: bidreport.RecommendationMaybe,
			RiskAssessment: bidreport.RiskAssessment{RedFlags: []string{"schedule"}},
		},
	}
}

func TestCompareFullResult(t *testing.T) {
	result, err := Compare(testReports())
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if len(result.Reports) != 3 {
		t.Fatalf("len(Reports) = %d, want 3", len(result.Reports))
	}

	// Rows follow canonical metric order and cells parallel the
	// report list.
	wantMetrics := metric.All()
	if len(result.Metrics) != len(wantMetrics) {
		t.Fatalf("len(Metrics) = %d, want %d", len(result.Metrics), len(wantMetrics))
	}
	for i, row := range result.Metrics {
		if row.Metric != wantMetrics[i] {
			t.Errorf("Metrics[%d] = %s, want %s", i, row.Metric, wantMetrics[i])
		}
		if len(row.Cells) != len(result.Reports) {
			t.Errorf("Metrics[%d] has %d cells, want %d", i, len(row.Cells), len(result.Reports))
		}
		for j, cell := range row.Cells {
			if cell.ReportID != result.Reports[j].ID {
				t.Errorf("Metrics[%d].Cells[%d].ReportID = %d, want %d",
					i, j, cell.ReportID, result.Reports[j].ID)
			}
		}
	}

	// budget_max row: best 900 (ceiling wins high), worst 200.
	var budgetMax MetricComparison
	for _, row := range result.Metrics {
		if row.Metric == metric.BudgetMax {
			budgetMax = row
		}
	}
	if budgetMax.Best != 900 || budgetMax.Worst != 200 {
		t.Errorf("budget_max extremes = best %v worst %v, want best 900 worst 200",
			budgetMax.Best, budgetMax.Worst)
	}
	wantClasses := []metric.Classification{metric.Worst, metric.Best, metric.Neutral}
	for i, cell := range budgetMax.Cells {
		if cell.Classification != wantClasses[i] {
			t.Errorf("budget_max cell %d = %v, want %v", i, cell.Classification, wantClasses[i])
		}
	}

	// Scores: #1 = 2*10-20 = 0, #2 = 8*10+15+50 = 145, #3 = 5*10+5 = 55.
	wantRankIDs := []int{1, 3, 2}
	wantScores := []float64{0, 55, 145}
	for i, entry := range result.Ranking {
		if entry.Report.ID != wantRankIDs[i] {
			t.Errorf("Ranking[%d] = report %d, want %d", i, entry.Report.ID, wantRankIDs[i])
		}
		if entry.Score != wantScores[i] {
			t.Errorf("Ranking[%d].Score = %v, want %v", i, entry.Score, wantScores[i])
		}
		if entry.Rank != i+1 {
			t.Errorf("Ranking[%d].Rank = %d, want %d", i, entry.Rank, i+1)
		}
	}
	if result.BestOpportunity.Report.ID != 1 {
		t.Errorf("BestOpportunity = report %d, want 1", result.BestOpportunity.Report.ID)
	}

	// Summary: risk (2+8+5)/3 = 5; midpoints 150,600,350 → 1100/3;
	// durations (6+24+12)/3 = 14; 4 red flags total.
	if result.Summary.AvgRisk != 5 {
		t.Errorf("Summary.AvgRisk = %v, want 5", result.Summary.AvgRisk)
	}
	if want := 1100.0 / 3.0; result.Summary.AvgBudget != want {
		t.Errorf("Summary.AvgBudget = %v, want %v", result.Summary.AvgBudget, want)
	}
	if result.Summary.AvgDurationMonths != 14 {
		t.Errorf("Summary.AvgDurationMonths = %v, want 14", result.Summary.AvgDurationMonths)
	}
	if result.Summary.TotalRedFlags != 4 {
		t.Errorf("Summary.TotalRedFlags = %v, want 4", result.Summary.TotalRedFlags)
	}
}

// TestCompareIdempotent verifies repeated comparisons over identical
// input are deeply equal — Result carries no ids, clocks, or map
// ordering.
func TestCompareIdempotent(t *testing.T) {
	first, err := Compare(testReports())
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	for i := 0; i < 10; i++ {
		again, err := Compare(testReports())
		if err != nil {
			t.Fatalf("Compare() error = %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d: results differ:\nfirst: %+v\nagain: %+v", i, first, again)
		}
	}
}

func TestCompareSelectionSize(t *testing.T) {
	reports := testReports()

	// Exactly 2 distinct reports is a valid selection.
	if _, err := Compare(reports[:2]); err != nil {
		t.Errorf("Compare(2 reports) error = %v, want nil", err)
	}

	// 1 report is not.
	if _, err := Compare(reports[:1]); !errors.Is(err, ErrInsufficientSelection) {
		t.Errorf("Compare(1 report) error = %v, want ErrInsufficientSelection", err)
	}

	// Neither is none.
	if _, err := Compare(nil); !errors.Is(err, ErrInsufficientSelection) {
		t.Errorf("Compare(nil) error = %v, want ErrInsufficientSelection", err)
	}

	// Duplicates collapse before the distinctness check: the same
	// report twice is still a single selection.
	dup := []bidreport.Report{reports[0], reports[0]}
	if _, err := Compare(dup); !errors.Is(err, ErrInsufficientSelection) {
		t.Errorf("Compare(same report twice) error = %v, want ErrInsufficientSelection", err)
	}
}

func TestCompareCollapsesDuplicates(t *testing.T) {
	reports := testReports()
	withDup := []bidreport.Report{reports[0], reports[1], reports[0], reports[2], reports[1]}

	result, err := Compare(withDup)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	wantIDs := []int{1, 2, 3}
	if len(result.Reports) != len(wantIDs) {
		t.Fatalf("len(Reports) = %d, want %d", len(result.Reports), len(wantIDs))
	}
	for i, want := range wantIDs {
		if result.Reports[i].ID != want {
			t.Errorf("Reports[%d].ID = %d, want %d (first-occurrence order)", i, result.Reports[i].ID, want)
		}
	}
}

func TestCompareDoesNotMutateInput(t *testing.T) {
	reports := testReports()
	if _, err := Compare(reports); err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if !reflect.DeepEqual(reports, testReports()) {
		t.Error("Compare() mutated its input slice")
	}
}

func TestDistinctIDs(t *testing.T) {
	tests := []struct {
		name string
		ids  []int
		want []int
	}{
		{"no duplicates", []int{3, 1, 2}, []int{3, 1, 2}},
		{"duplicates collapse to first", []int{5, 2, 5, 2, 7}, []int{5, 2, 7}},
		{"all same", []int{4, 4, 4}, []int{4}},
		{"empty", nil, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistinctIDs(tt.ids)
			if len(got) != len(tt.want) {
				t.Fatalf("DistinctIDs(%v) = %v, want %v", tt.ids, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("DistinctIDs(%v)[%d] = %d, want %d", tt.ids, i, got[i], tt.want[i])
				}
			}
		})
	}
}

// fakeSource serves reports from a map and records every batch call.
type fakeSource struct {
	reports map[int]bidreport.Report
	calls   [][]int
	err     error
}

func (f *fakeSource) ReportsByID(_ context.Context, ids []int) ([]bidreport.Report, error) {
	f.calls = append(f.calls, append([]int(nil), ids...))
	if f.err != nil {
		return nil, f.err
	}
	out := make([]bidreport.Report, 0, len(ids))
	for _, id := range ids {
		if r, ok := f.reports[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func newFakeSource() *fakeSource {
	src := &fakeSource{reports: make(map[int]bidreport.Report)}
	for _, r := range testReports() {
		src.reports[r.ID] = r
	}
	return src
}

func TestCompareByID(t *testing.T) {
	src := newFakeSource()

	result, err := CompareByID(context.Background(), src, []int{2, 1})
	if err != nil {
		t.Fatalf("CompareByID() error = %v", err)
	}
	if len(result.Reports) != 2 {
		t.Fatalf("len(Reports) = %d, want 2", len(result.Reports))
	}
	// Retrieval order is the (deduped) selection order.
	if result.Reports[0].ID != 2 || result.Reports[1].ID != 1 {
		t.Errorf("Reports order = [%d %d], want [2 1]", result.Reports[0].ID, result.Reports[1].ID)
	}
}

// TestCompareByIDValidatesBeforeFetch verifies an insufficient
// selection never reaches the source.
func TestCompareByIDValidatesBeforeFetch(t *testing.T) {
	src := newFakeSource()

	_, err := CompareByID(context.Background(), src, []int{1, 1, 1})
	if !errors.Is(err, ErrInsufficientSelection) {
		t.Fatalf("CompareByID() error = %v, want ErrInsufficientSelection", err)
	}
	if len(src.calls) != 0 {
		t.Errorf("source was called %d times before validation, want 0", len(src.calls))
	}
}

func TestCompareByIDDedupsBeforeFetch(t *testing.T) {
	src := newFakeSource()

	if _, err := CompareByID(context.Background(), src, []int{1, 2, 1, 2}); err != nil {
		t.Fatalf("CompareByID() error = %v", err)
	}
	if len(src.calls) != 1 {
		t.Fatalf("source called %d times, want 1", len(src.calls))
	}
	got := src.calls[0]
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("source received ids %v, want [1 2]", got)
	}
}

func TestCompareByIDWrapsSourceError(t *testing.T) {
	srcErr := errors.New("service down")
	src := &fakeSource{err: srcErr}

	_, err := CompareByID(context.Background(), src, []int{1, 2})
	if !errors.Is(err, srcErr) {
		t.Errorf("CompareByID() error = %v, want wrapped source error", err)
	}
}
