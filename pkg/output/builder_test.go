package output

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/bidlens/bidlens/pkg/bidreport"
	"github.com/bidlens/bidlens/pkg/compare"
	"github.com/bidlens/bidlens/pkg/history"
	"github.com/bidlens/bidlens/pkg/output/events"
)

// buildTestReports returns two distinct reports where the first beats
// the second on every metric, so ranking and classifications are
// predictable in assertions.
func buildTestReports() []bidreport.Report {
	return []bidreport.Report{
		{
			ID:             1,
			Project:        "Harbor Expansion",
			Client:         "Port Authority",
			Location:       "Rotterdam",
			BudgetMin:      1_000_000,
			BudgetMax:      5_000_000,
			DurationMonths: 10,
			RiskScore:      2.0,
			RiskLevel:      "Low",
			Recommendation: "YES",
		},
		{
			ID:             2,
			Project:        "Tunnel Retrofit",
			Client:         "Transit Board",
			Location:       "Lyon",
			BudgetMin:      2_000_000,
			BudgetMax:      3_000_000,
			DurationMonths: 18,
			RiskScore:      6.5,
			RiskLevel:      "High",
			Recommendation: "NO",
			RiskAssessment: bidreport.RiskAssessment{
				RedFlags: []string{"unsigned contract addendum", "missing insurance certificate"},
			},
		},
	}
}

// buildTestResult runs the real comparison over the fixture reports.
func buildTestResult(t *testing.T) *compare.Result {
	t.Helper()
	result, err := compare.Compare(buildTestReports())
	if err != nil {
		t.Fatalf("Compare() error: %v", err)
	}
	return result
}

func TestActiveExports(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want []string
	}{
		{
			name: "none enabled",
			cfg:  Config{},
			want: nil,
		},
		{
			name: "all enabled",
			cfg: Config{
				JSONExport:     "a.json",
				JSONLExport:    "a.jsonl",
				CSVExport:      "a.csv",
				MDExport:       "a.md",
				PDFExport:      "a.pdf",
				TemplateExport: "a.txt",
			},
			want: []string{"json", "jsonl", "csv", "markdown", "pdf", "template"},
		},
		{
			name: "subset keeps canonical order",
			cfg: Config{
				PDFExport:  "a.pdf",
				JSONExport: "a.json",
			},
			want: []string{"json", "pdf"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cfg.ActiveExports()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ActiveExports() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildDispatcher_NoOutputs(t *testing.T) {
	d, err := BuildDispatcher(Config{Silent: true})
	if err != nil {
		t.Fatalf("BuildDispatcher() error: %v", err)
	}
	if d == nil {
		t.Fatal("expected non-nil dispatcher")
	}
	if err := d.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestBuildDispatcher_FileExports(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		JSONExport:     filepath.Join(dir, "out.json"),
		JSONLExport:    filepath.Join(dir, "out.jsonl"),
		CSVExport:      filepath.Join(dir, "out.csv"),
		MDExport:       filepath.Join(dir, "out.md"),
		PDFExport:      filepath.Join(dir, "out.pdf"),
		TemplateExport: filepath.Join(dir, "out.txt"),
		TemplateName:   "best",
		Silent:         true,
	}

	d, err := BuildDispatcher(cfg)
	if err != nil {
		t.Fatalf("BuildDispatcher() error: %v", err)
	}

	if _, err := EmitRun(context.Background(), d, buildTestResult(t), EmitOptions{
		Operation: "compare",
		Source:    events.SourceInfo{Kind: events.SourceFile, Detail: "testdata/reports.json"},
	}); err != nil {
		t.Fatalf("EmitRun() error: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	// Text-based exports should all mention the winning project.
	for _, path := range []string{cfg.JSONExport, cfg.JSONLExport, cfg.CSVExport, cfg.MDExport, cfg.TemplateExport} {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading %s: %v", path, err)
		}
		if !strings.Contains(string(data), "Harbor Expansion") {
			t.Errorf("%s missing winning project name", filepath.Base(path))
		}
	}

	pdf, err := os.ReadFile(cfg.PDFExport)
	if err != nil {
		t.Fatalf("reading pdf: %v", err)
	}
	if !strings.HasPrefix(string(pdf), "%PDF") {
		t.Error("pdf export missing %PDF header")
	}
}

func TestBuildDispatcher_InvalidExportPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no-such-dir", "out.json")
	_, err := BuildDispatcher(Config{JSONExport: path, Silent: true})
	if err == nil {
		t.Fatal("expected error for unwritable export path")
	}
	if !strings.Contains(err.Error(), "failed to create output file") {
		t.Errorf("unexpected error: %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error should name the offending path: %v", err)
	}
}

func TestBuildDispatcher_FailureAfterPartialOpen(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		JSONExport: filepath.Join(dir, "ok.json"),
		CSVExport:  filepath.Join(dir, "no-such-dir", "out.csv"),
		Silent:     true,
	}

	_, err := BuildDispatcher(cfg)
	if err == nil {
		t.Fatal("expected error when a later export path fails")
	}
	if !strings.Contains(err.Error(), cfg.CSVExport) {
		t.Errorf("error should name the failing path: %v", err)
	}
}

func TestBuildDispatcher_UnknownTemplate(t *testing.T) {
	cfg := Config{
		TemplateExport: filepath.Join(t.TempDir(), "out.txt"),
		TemplateName:   "no-such-template",
		Silent:         true,
	}

	_, err := BuildDispatcher(cfg)
	if err == nil {
		t.Fatal("expected error for unknown built-in template")
	}
	if !strings.Contains(err.Error(), "template") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestBuildDispatcher_HistoryHook(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "history")
	cfg := Config{
		Silent:      true,
		HistoryPath: storePath,
		HistoryTags: []string{"ci"},
	}

	d, err := BuildDispatcher(cfg)
	if err != nil {
		t.Fatalf("BuildDispatcher() error: %v", err)
	}
	if _, err := EmitRun(context.Background(), d, buildTestResult(t), EmitOptions{
		Operation: "compare",
		Source:    events.SourceInfo{Kind: events.SourceService, Detail: "http://localhost:8420"},
	}); err != nil {
		t.Fatalf("EmitRun() error: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	store, err := history.Open(storePath)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	entries := store.List(0)
	if len(entries) != 1 {
		t.Fatalf("expected 1 archived run, got %d", len(entries))
	}
	if entries[0].BestReportID != 1 {
		t.Errorf("BestReportID = %d, want 1", entries[0].BestReportID)
	}
	if !reflect.DeepEqual(entries[0].Tags, []string{"ci"}) {
		t.Errorf("Tags = %v, want [ci]", entries[0].Tags)
	}
}

func TestBuildDispatcher_InvalidHistoryPath(t *testing.T) {
	// A regular file where the store directory should go.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := BuildDispatcher(Config{Silent: true, HistoryPath: blocker})
	if err == nil {
		t.Fatal("expected error for unusable history path")
	}
	if !strings.Contains(err.Error(), "history") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestBuildDispatcher_WebhookHook(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := Config{
		Silent:     true,
		WebhookURL: server.URL,
		WebhookAll: true,
	}

	d, err := BuildDispatcher(cfg)
	if err != nil {
		t.Fatalf("BuildDispatcher() error: %v", err)
	}
	if _, err := EmitRun(context.Background(), d, buildTestResult(t), EmitOptions{Operation: "compare"}); err != nil {
		t.Fatalf("EmitRun() error: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	// start + 2 results + summary + complete
	if got := atomic.LoadInt32(&requestCount); got != 5 {
		t.Errorf("webhook deliveries = %d, want 5", got)
	}
}

func TestBuildDispatcher_WebhookBestOnlyByDefault(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := Config{
		Silent:     true,
		WebhookURL: server.URL,
	}

	d, err := BuildDispatcher(cfg)
	if err != nil {
		t.Fatalf("BuildDispatcher() error: %v", err)
	}
	if _, err := EmitRun(context.Background(), d, buildTestResult(t), EmitOptions{Operation: "compare"}); err != nil {
		t.Fatalf("EmitRun() error: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	// Without WebhookAll only the winning result is delivered.
	if got := atomic.LoadInt32(&requestCount); got != 1 {
		t.Errorf("webhook deliveries = %d, want 1", got)
	}
}
