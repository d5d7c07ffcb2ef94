package reportsvc

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bidlens/bidlens/pkg/bidreport"
	"github.com/bidlens/bidlens/pkg/compare"
)

func writeReportsFile(t *testing.T, reports []bidreport.Report) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reports.json")
	if err := os.WriteFile(path, mustJSON(t, reports), 0o644); err != nil {
		t.Fatalf("write reports file: %v", err)
	}
	return path
}

func TestNewFileSource(t *testing.T) {
	src, err := NewFileSource(writeReportsFile(t, sampleReports()))
	if err != nil {
		t.Fatalf("NewFileSource: %v", err)
	}

	reports, err := src.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(reports) != 3 {
		t.Fatalf("len = %d, want 3", len(reports))
	}
	// File order preserved.
	if reports[0].ID != 1 || reports[1].ID != 3 || reports[2].ID != 12 {
		t.Errorf("order = %v, want [1 3 12]", ids(reports))
	}
}

func TestNewFileSource_MissingFile(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want wrapped os.ErrNotExist", err)
	}
}

func TestNewFileSource_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewFileSource(path)
	if !errors.Is(err, ErrDecode) {
		t.Errorf("err = %v, want ErrDecode", err)
	}
}

func TestFileSource_Report(t *testing.T) {
	src, err := NewFileSource(writeReportsFile(t, sampleReports()))
	if err != nil {
		t.Fatal(err)
	}

	rep, err := src.Report(context.Background(), 3)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if rep.Project != "Depot Automation" {
		t.Errorf("Project = %q", rep.Project)
	}

	_, err = src.Report(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("missing id err = %v, want ErrNotFound", err)
	}
}

// Handed-out reports are deep copies: mutating one must never leak back
// into the store.
func TestFileSource_CallersCannotMutateStore(t *testing.T) {
	src, err := NewFileSource(writeReportsFile(t, sampleReports()))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	rep, _ := src.Report(ctx, 3)
	rep.Project = "tampered"
	rep.RiskAssessment.RedFlags[0] = "tampered flag"

	fresh, _ := src.Report(ctx, 3)
	if fresh.Project != "Depot Automation" {
		t.Error("scalar mutation leaked into the store")
	}
	if fresh.RiskAssessment.RedFlags[0] != "unbonded subcontractor" {
		t.Error("red-flag slice shared with caller")
	}

	listed, _ := src.List(ctx)
	listed[1].RiskAssessment.RedFlags[1] = "also tampered"
	fresh2, _ := src.Report(ctx, 3)
	if fresh2.RiskAssessment.RedFlags[1] != "penalty clause" {
		t.Error("List handed out shared red-flag slices")
	}
}

func TestFileSource_ReportsByID(t *testing.T) {
	src, err := NewFileSource(writeReportsFile(t, sampleReports()))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	got, err := src.ReportsByID(ctx, []int{12, 1})
	if err != nil {
		t.Fatalf("ReportsByID: %v", err)
	}
	if len(got) != 2 || got[0].ID != 12 || got[1].ID != 1 {
		t.Errorf("order = %v, want [12 1]", ids(got))
	}

	// Empty selection resolves to nothing.
	if reports, err := src.ReportsByID(ctx, nil); err != nil || reports != nil {
		t.Errorf("empty ids: got (%v, %v), want (nil, nil)", reports, err)
	}

	// Missing ids fail the whole call, naming every absent id.
	_, err = src.ReportsByID(ctx, []int{1, 40, 41})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), "40") || !strings.Contains(err.Error(), "41") {
		t.Errorf("err = %v, want both missing ids named", err)
	}
}

// A comparison straight off a report file: the worked scoring example
// (risk 2, no flags, YES → 0 vs risk 8, 3 flags, NO → 145) must pick
// the low-risk bid.
func TestFileSource_DrivesComparison(t *testing.T) {
	reports := []bidreport.Report{
		{
			ID: 1, Project: "Low Risk", BudgetMin: 100, BudgetMax: 200,
			DurationMonths: 6, RiskScore: 2,
			Recommendation: bidreport.RecommendationYes,
		},
		{
			ID: 2, Project: "High Risk", BudgetMin: 100, BudgetMax: 300,
			DurationMonths: 9, RiskScore: 8,
			Recommendation: bidreport.RecommendationNo,
			RiskAssessment: bidreport.RiskAssessment{
				RedFlags: []string{"a", "b", "c"},
			},
		},
	}
	src, err := NewFileSource(writeReportsFile(t, reports))
	if err != nil {
		t.Fatal(err)
	}

	result, err := compare.CompareByID(context.Background(), src, []int{1, 2})
	if err != nil {
		t.Fatalf("CompareByID: %v", err)
	}

	if result.BestOpportunity.Report.ID != 1 {
		t.Errorf("best opportunity = %d, want 1", result.BestOpportunity.Report.ID)
	}
	if result.BestOpportunity.Score != 0 {
		t.Errorf("best score = %v, want 0", result.BestOpportunity.Score)
	}
	if result.Ranking[1].Score != 145 {
		t.Errorf("worst score = %v, want 145", result.Ranking[1].Score)
	}

	// Too few distinct ids never touch the source.
	_, err = compare.CompareByID(context.Background(), src, []int{1, 1})
	if !errors.Is(err, compare.ErrInsufficientSelection) {
		t.Errorf("err = %v, want ErrInsufficientSelection", err)
	}
}
