package ui

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/bidlens/bidlens/pkg/bidreport"
	"github.com/bidlens/bidlens/pkg/defaults"
)

func TestMain(m *testing.M) {
	// Force plain output so rendered strings are directly assertable.
	SetNoColor(true)
	os.Exit(m.Run())
}

func sampleReport() bidreport.Report {
	return bidreport.Report{
		ID: 1, Project: "Harbor Crane Refit", Client: "Port Authority",
		Location: "Rotterdam", BudgetMin: 800000, BudgetMax: 1200000,
		DurationMonths: 10, RiskScore: 2, RiskLevel: "LOW",
		Recommendation: bidreport.RecommendationYes,
		DeadlineDate:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func flaggedReport() bidreport.Report {
	return bidreport.Report{
		ID: 3, Project: "Depot Automation", Client: "Freightline",
		BudgetMin: 500000, BudgetMax: 900000, DurationMonths: 7,
		RiskScore: 8, RiskLevel: "HIGH",
		Recommendation: bidreport.RecommendationNo,
		RiskAssessment: bidreport.RiskAssessment{
			RedFlags: []string{"unbonded subcontractor", "penalty clause"},
			Notes:    "client disputes on two prior contracts",
		},
	}
}

func TestUserAgent(t *testing.T) {
	ua := UserAgent()
	if !strings.HasPrefix(ua, defaults.ToolName+"/") {
		t.Errorf("UserAgent() = %q, want %q prefix", ua, defaults.ToolName+"/")
	}
	if !strings.Contains(ua, Version) {
		t.Errorf("UserAgent() = %q, missing version %q", ua, Version)
	}

	ctx := UserAgentWithContext("Updater")
	if !strings.HasSuffix(ctx, "(Updater)") {
		t.Errorf("UserAgentWithContext() = %q, want (Updater) suffix", ctx)
	}
}

func TestSilentMode(t *testing.T) {
	if IsSilent() {
		t.Fatal("silent mode on by default")
	}
	SetSilent(true)
	if !IsSilent() {
		t.Error("SetSilent(true) not reflected")
	}
	SetSilent(false)
	if IsSilent() {
		t.Error("SetSilent(false) not reflected")
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{1200000, "$1,200,000"},
		{850000, "$850,000"},
		{375000.5, "$375,000.50"},
		{900, "$900"},
		{0, "$0"},
	}
	for _, tt := range tests {
		if got := FormatMoney(tt.amount); got != tt.want {
			t.Errorf("FormatMoney(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestFormatBudgetRange(t *testing.T) {
	got := FormatBudgetRange(800000, 1200000)
	if got != "$800,000 - $1,200,000" {
		t.Errorf("FormatBudgetRange = %q", got)
	}
}

func TestFormatScore(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{145, "145"},
		{62.5, "62.5"},
		{0, "0"},
		{-20, "-20"},
	}
	for _, tt := range tests {
		if got := FormatScore(tt.score); got != tt.want {
			t.Errorf("FormatScore(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestFormatRisk(t *testing.T) {
	if got := FormatRisk(4); got != "4.0" {
		t.Errorf("FormatRisk(4) = %q, want 4.0", got)
	}
	if got := FormatRisk(7.25); got != "7.2" {
		t.Errorf("FormatRisk(7.25) = %q, want 7.2", got)
	}
}

func TestFormatMonths(t *testing.T) {
	if got := FormatMonths(10); got != "10 mo" {
		t.Errorf("FormatMonths(10) = %q", got)
	}
	if got := FormatMonths(7.5); got != "7.5 mo" {
		t.Errorf("FormatMonths(7.5) = %q", got)
	}
}

func TestRiskStyle(t *testing.T) {
	if got := RiskStyle("LOW").GetBackground(); got != RiskLowColor {
		t.Errorf("LOW background = %v", got)
	}
	// Case-insensitive
	if got := RiskStyle("high").GetBackground(); got != RiskHighColor {
		t.Errorf("high background = %v", got)
	}
	if got := RiskStyle("CRITICAL").GetBackground(); got != RiskCriticalColor {
		t.Errorf("CRITICAL background = %v", got)
	}
	if got := RiskStyle("whatever").GetForeground(); got != Muted {
		t.Errorf("unknown level foreground = %v", got)
	}
}

func TestRecommendationStyle(t *testing.T) {
	tests := []struct {
		rec  string
		want interface{}
	}{
		{"YES", Success},
		{"NO", Error},
		{"MAYBE", Warning},
		{"", Muted},
	}
	for _, tt := range tests {
		if got := RecommendationStyle(tt.rec).GetForeground(); got != tt.want {
			t.Errorf("RecommendationStyle(%q) foreground = %v, want %v", tt.rec, got, tt.want)
		}
	}
}

func TestClassificationStyle(t *testing.T) {
	if got := ClassificationStyle("best").GetForeground(); got != BestColor {
		t.Errorf("best foreground = %v", got)
	}
	if got := ClassificationStyle("worst").GetForeground(); got != WorstColor {
		t.Errorf("worst foreground = %v", got)
	}
	if got := ClassificationStyle("neutral").GetForeground(); got != NeutralColor {
		t.Errorf("neutral foreground = %v", got)
	}
}

func TestFormatReportLine(t *testing.T) {
	line := FormatReportLine(sampleReport())

	for _, want := range []string{"[1]", "Harbor Crane Refit", "Port Authority", "$800,000 - $1,200,000", "10 mo", "2.0", "[YES]"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
	if strings.Contains(line, "flag") {
		t.Errorf("clean report line mentions flags: %q", line)
	}

	flagged := FormatReportLine(flaggedReport())
	if !strings.Contains(flagged, "2 flag(s)") {
		t.Errorf("flagged line %q missing flag count", flagged)
	}
}

func TestFormatReportPanel(t *testing.T) {
	panel := FormatReportPanel(flaggedReport())

	for _, want := range []string{
		"Depot Automation", "Freightline",
		"$500,000 - $900,000", "midpoint $700,000",
		"7 mo", "8.0", "HIGH", "NO",
		"unbonded subcontractor", "penalty clause",
		"client disputes",
	} {
		if !strings.Contains(panel, want) {
			t.Errorf("panel missing %q:\n%s", want, panel)
		}
	}
}

func TestFormatReportPanel_NoFlags(t *testing.T) {
	panel := FormatReportPanel(sampleReport())
	if !strings.Contains(panel, "none") {
		t.Errorf("panel missing 'none' for zero flags:\n%s", panel)
	}
	if !strings.Contains(panel, "2026-03-01") {
		t.Errorf("panel missing deadline:\n%s", panel)
	}
}

func TestFormatRankLine(t *testing.T) {
	top := FormatRankLine(1, sampleReport(), 0, true)
	for _, want := range []string{"#1", "Harbor Crane Refit", "score 0", "best opportunity"} {
		if !strings.Contains(top, want) {
			t.Errorf("rank line %q missing %q", top, want)
		}
	}

	second := FormatRankLine(2, flaggedReport(), 145, false)
	if strings.Contains(second, "best opportunity") {
		t.Errorf("non-best line claims best: %q", second)
	}
	if !strings.Contains(second, "score 145") {
		t.Errorf("rank line %q missing score", second)
	}
}

func TestTruncateString(t *testing.T) {
	if got := truncateString("short", 10); got != "short" {
		t.Errorf("truncateString(short) = %q", got)
	}
	got := truncateString("a very long note that should be cut", 10)
	if len(got) != 10 || !strings.HasSuffix(got, "...") {
		t.Errorf("truncateString long = %q", got)
	}
}
