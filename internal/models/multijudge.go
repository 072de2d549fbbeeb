package models

import (
	"fmt"
	"math"
)

// AggregationMode selects how per-judge totals are combined.
type AggregationMode string

const (
	AggregationAverage AggregationMode = "average"
	AggregationMedian  AggregationMode = "median"

	// AggregationConsensus is implemented identically to median. The
	// original system never defined a distinct agreement protocol, so the
	// behavior is preserved as documented rather than invented.
	AggregationConsensus AggregationMode = "consensus"
)

// ParseAggregationMode converts a flag/config value to an AggregationMode.
func ParseAggregationMode(s string) (AggregationMode, error) {
	switch AggregationMode(s) {
	case AggregationAverage, AggregationMedian, AggregationConsensus:
		return AggregationMode(s), nil
	case "":
		return AggregationMedian, nil
	}
	return "", fmt.Errorf("invalid aggregation mode %q: must be average, median, or consensus", s)
}

// DefaultDisagreementThreshold is the total-score spread above which judge
// disagreement is flagged.
const DefaultDisagreementThreshold = 15.0

// MultiJudgeScore is the arbitrated verdict across several judges.
type MultiJudgeScore struct {
	IndividualScores     map[string]*AbsoluteScore `json:"individual_scores"`
	FinalScore           float64                   `json:"final_score"`
	AggregatedDimensions map[string]float64        `json:"aggregated_dimensions"`
	DisagreementFlag     bool                      `json:"disagreement_flag"`
	Spread               float64                   `json:"spread"`
	JudgesUsed           []string                  `json:"judges_used"`
	AggregationMode      AggregationMode           `json:"aggregation_mode"`
	DimensionSpreads     map[string]float64        `json:"dimension_spreads"`
	TotalJudgeTokens     int                       `json:"total_judge_tokens"`
	TotalJudgeCost       float64                   `json:"total_judge_cost"`
}

// ToAbsolute collapses the aggregated dimensions back into a single
// AbsoluteScore so downstream aggregation can treat multi-judge and
// single-judge output uniformly. Dimension scores are rounded to the
// nearest integer.
func (m *MultiJudgeScore) ToAbsolute() *AbsoluteScore {
	dim := func(name string) DimensionScore {
		return DimensionScore{
			Score:  int(math.Round(m.AggregatedDimensions[name])),
			Reason: fmt.Sprintf("%s of %d judges", m.AggregationMode, len(m.JudgesUsed)),
		}
	}
	return &AbsoluteScore{
		Executes:           dim("executes"),
		FeaturesComplete:   dim("features_complete"),
		OutputQuality:      dim("output_quality"),
		DirectionFollowing: dim("direction_following"),
		CodeQuality:        dim("code_quality"),
	}
}
