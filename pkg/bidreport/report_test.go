package bidreport

import (
	"testing"
	"time"
)

func TestRedFlagCount(t *testing.T) {
	tests := []struct {
		name  string
		flags []string
		want  int
	}{
		{"nil flags", nil, 0},
		{"empty flags", []string{}, 0},
		{"three flags", []string{"late permits", "thin margin", "new client"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Report{RiskAssessment: RiskAssessment{RedFlags: tt.flags}}
			if got := r.RedFlagCount(); got != tt.want {
				t.Errorf("RedFlagCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBudgetMidpoint(t *testing.T) {
	tests := []struct {
		name     string
		min, max float64
		want     float64
	}{
		{"simple", 100, 200, 150},
		{"equal bounds", 500, 500, 500},
		{"zero", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Report{BudgetMin: tt.min, BudgetMax: tt.max}
			if got := r.BudgetMidpoint(); got != tt.want {
				t.Errorf("BudgetMidpoint() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := &Report{
		ID:             7,
		Project:        "Harbor Expansion",
		BudgetMin:      1_000_000,
		BudgetMax:      1_500_000,
		DurationMonths: 18,
		RiskScore:      4.5,
		Recommendation: RecommendationMaybe,
		RiskAssessment: RiskAssessment{RedFlags: []string{"tight deadline"}},
		DeadlineDate:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	c := orig.Clone()
	c.RiskAssessment.RedFlags[0] = "mutated"
	c.Project = "changed"

	if orig.RiskAssessment.RedFlags[0] != "tight deadline" {
		t.Error("Clone shares red-flag backing array with original")
	}
	if orig.Project != "Harbor Expansion" {
		t.Error("Clone mutation leaked into original")
	}
}

func TestCloneSliceNil(t *testing.T) {
	if got := CloneSlice(nil); got != nil {
		t.Errorf("CloneSlice(nil) = %v, want nil", got)
	}
}
