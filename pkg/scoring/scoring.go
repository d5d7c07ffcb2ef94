package scoring

import (
	"errors"
	"sort"

	"github.com/bidlens/bidlens/pkg/bidreport"
)

// ErrEmptyInput indicates a ranking operation was invoked with zero
// reports; there is no best opportunity in an empty set. Callers
// should use errors.Is() to check for it.
var ErrEmptyInput = errors.New("scoring: empty report set")

// Score weights. Risk dominates, red flags amplify, the analyst
// recommendation nudges.
const (
	riskWeight    = 10.0
	redFlagWeight = 5.0
)

// recommendationPenalties adjusts the score by recommendation. A "NO"
// pushes the bid down the ranking, a "YES" pulls it up, and anything
// else — including "MAYBE" and unrecognized labels — is neutral.
var recommendationPenalties = map[string]float64{
	bidreport.RecommendationNo:  50,
	bidreport.RecommendationYes: -20,
}

// ScoredReport is one ranked entry: the report, its composite score,
// and its 1-based position after sorting.
type ScoredReport struct {
	Report bidreport.Report `json:"report"`
	Score  float64          `json:"score"`
	Rank   int              `json:"rank"`
}

// Score computes the composite opportunity score. Lower = more
// favorable:
//
//	score = risk_score*10 + redFlagCount*5 + penalty(recommendation)
func Score(r *bidreport.Report) float64 {
	score := r.RiskScore*riskWeight + float64(r.RedFlagCount())*redFlagWeight
	return score + recommendationPenalties[r.Recommendation]
}

// Rank scores every report and sorts ascending by score. The sort is
// stable: reports with equal scores keep their input order. Ranks are
// 1-based positions after the sort, so ties receive distinct ranks in
// input order.
func Rank(reports []bidreport.Report) ([]ScoredReport, error) {
	if len(reports) == 0 {
		return nil, ErrEmptyInput
	}

	scored := make([]ScoredReport, len(reports))
	for i := range reports {
		scored[i] = ScoredReport{
			Report: reports[i],
			Score:  Score(&reports[i]),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score < scored[j].Score
	})

	for i := range scored {
		scored[i].Rank = i + 1
	}
	return scored, nil
}

// BestOpportunity returns the top-ranked report — the lowest composite
// score, first in input order among ties.
func BestOpportunity(reports []bidreport.Report) (ScoredReport, error) {
	ranked, err := Rank(reports)
	if err != nil {
		return ScoredReport{}, err
	}
	return ranked[0], nil
}
