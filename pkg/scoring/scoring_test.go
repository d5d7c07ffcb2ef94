package scoring

import (
	"errors"
	"testing"

	"github.com/bidlens/bidlens/pkg/bidreport"
)

func flags(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "flag"
	}
	return out
}

// TestScoreWorkedExample pins the canonical example: a safe approved
// bid scores 0, a risky rejected bid scores 145.
func TestScoreWorkedExample(t *testing.T) {
	a := bidreport.Report{
		ID:             1,
		RiskScore:      2,
		Recommendation: bidreport.RecommendationYes,
	}
	b := bidreport.Report{
		ID:             2,
		RiskScore:      8,
		Recommendation: bidreport.RecommendationNo,
		RiskAssessment: bidreport.RiskAssessment{RedFlags: flags(3)},
	}

	if got := Score(&a); got != 0 {
		t.Errorf("Score(A) = %v, want 0 (2*10 - 20)", got)
	}
	if got := Score(&b); got != 145 {
		t.Errorf("Score(B) = %v, want 145 (8*10 + 3*5 + 50)", got)
	}

	best, err := BestOpportunity([]bidreport.Report{b, a})
	if err != nil {
		t.Fatalf("BestOpportunity() error = %v", err)
	}
	if best.Report.ID != 1 {
		t.Errorf("BestOpportunity() = report %d, want report 1", best.Report.ID)
	}
}

// TestScoreRecommendationPenalties verifies the penalty table: NO adds
// 50, YES subtracts 20, everything else is neutral.
func TestScoreRecommendationPenalties(t *testing.T) {
	tests := []struct {
		name           string
		recommendation string
		want           float64
	}{
		{"no", bidreport.RecommendationNo, 100},
		{"yes", bidreport.RecommendationYes, 30},
		{"maybe", bidreport.RecommendationMaybe, 50},
		{"empty", "", 50},
		{"unrecognized", "DEFER", 50},
		{"lowercase not special", "no", 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := bidreport.Report{RiskScore: 5, Recommendation: tt.recommendation}
			if got := Score(&r); got != tt.want {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestRankAscending verifies lower scores rank first and ranks are
// 1-based.
func TestRankAscending(t *testing.T) {
	reports := []bidreport.Report{
		{ID: 1, RiskScore: 8},
		{ID: 2, RiskScore: 2},
		{ID: 3, RiskScore: 5},
	}

	ranked, err := Rank(reports)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	wantOrder := []int{2, 3, 1}
	for i, want := range wantOrder {
		if ranked[i].Report.ID != want {
			t.Errorf("ranked[%d] = report %d, want report %d", i, ranked[i].Report.ID, want)
		}
		if ranked[i].Rank != i+1 {
			t.Errorf("ranked[%d].Rank = %d, want %d", i, ranked[i].Rank, i+1)
		}
	}
}

// TestRankStable verifies equal scores preserve input order, including
// their distinct 1-based ranks.
func TestRankStable(t *testing.T) {
	reports := []bidreport.Report{
		{ID: 10, RiskScore: 5},
		{ID: 20, RiskScore: 5},
		{ID: 30, RiskScore: 1},
		{ID: 40, RiskScore: 5},
	}

	ranked, err := Rank(reports)
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	wantOrder := []int{30, 10, 20, 40}
	for i, want := range wantOrder {
		if ranked[i].Report.ID != want {
			t.Errorf("ranked[%d] = report %d, want report %d (stable tie order)", i, ranked[i].Report.ID, want)
		}
	}
}

// TestRankDoesNotMutateInput verifies the input slice order survives
// ranking.
func TestRankDoesNotMutateInput(t *testing.T) {
	reports := []bidreport.Report{
		{ID: 1, RiskScore: 9},
		{ID: 2, RiskScore: 1},
	}

	if _, err := Rank(reports); err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if reports[0].ID != 1 || reports[1].ID != 2 {
		t.Error("Rank() reordered the caller's slice")
	}
}

func TestRankEmptyInput(t *testing.T) {
	if _, err := Rank(nil); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("Rank(nil) error = %v, want ErrEmptyInput", err)
	}
	if _, err := BestOpportunity([]bidreport.Report{}); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("BestOpportunity(empty) error = %v, want ErrEmptyInput", err)
	}
}

func TestScoreNegativeTotal(t *testing.T) {
	// A zero-risk YES bid goes negative; ranking still handles it.
	r := bidreport.Report{RiskScore: 0, Recommendation: bidreport.RecommendationYes}
	if got := Score(&r); got != -20 {
		t.Errorf("Score() = %v, want -20", got)
	}
}
