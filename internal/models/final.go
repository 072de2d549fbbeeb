package models

import (
	"encoding/json"
	"math"
)

// ScoreSource identifies which scoring signal produced a dimension result.
type ScoreSource string

const (
	SourceAuto     ScoreSource = "auto"
	SourceStatic   ScoreSource = "static"
	SourceJudge    ScoreSource = "judge"
	SourceCombined ScoreSource = "combined"
	SourceMetrics  ScoreSource = "metrics"
)

// FinalDimensions lists the eight aggregated dimensions in canonical order.
var FinalDimensions = []string{
	"executes",
	"test_pass_rate",
	"features_complete",
	"edge_cases",
	"code_quality",
	"efficiency",
	"direction_following",
	"robustness",
}

// FinalWeights maps each aggregated dimension to its share of the final
// score. The weights sum to 1.0.
var FinalWeights = map[string]float64{
	"executes":            0.15,
	"test_pass_rate":      0.20,
	"features_complete":   0.20,
	"edge_cases":          0.10,
	"code_quality":        0.10,
	"efficiency":          0.05,
	"direction_following": 0.10,
	"robustness":          0.10,
}

// DimensionResult is one aggregated dimension's contribution to the final
// score.
type DimensionResult struct {
	Score  int         `json:"score"`
	Weight float64     `json:"weight"`
	Source ScoreSource `json:"source"`
	Reason string      `json:"reason"`
}

// WeightedContribution is this dimension's share of the 0-100 total.
func (d DimensionResult) WeightedContribution() float64 {
	return float64(d.Score) / 10.0 * d.Weight * 100
}

// FinalScore combines every scoring source into one weighted 0-100 score.
type FinalScore struct {
	Dimensions     map[string]DimensionResult
	ExecutionGated bool
}

// TotalScore sums the weighted contributions, capped by the execution gate
// when it applied.
func (f *FinalScore) TotalScore() float64 {
	total := 0.0
	for _, dim := range f.Dimensions {
		total += dim.WeightedContribution()
	}
	if f.ExecutionGated {
		total = math.Min(total, ExecutionGateCap)
	}
	return Round1(total)
}

type finalDimensionJSON struct {
	Score                int         `json:"score"`
	Weight               float64     `json:"weight"`
	WeightedContribution float64     `json:"weighted_contribution"`
	Source               ScoreSource `json:"source"`
	Reason               string      `json:"reason"`
}

type finalScoreJSON struct {
	TotalScore     float64                       `json:"total_score"`
	ExecutionGated bool                          `json:"execution_gated"`
	Dimensions     map[string]finalDimensionJSON `json:"dimensions"`
}

// MarshalJSON emits the persisted schema, including the derived total and
// per-dimension weighted contributions.
func (f *FinalScore) MarshalJSON() ([]byte, error) {
	dims := make(map[string]finalDimensionJSON, len(f.Dimensions))
	for name, dim := range f.Dimensions {
		dims[name] = finalDimensionJSON{
			Score:                dim.Score,
			Weight:               dim.Weight,
			WeightedContribution: Round1(dim.WeightedContribution()),
			Source:               dim.Source,
			Reason:               dim.Reason,
		}
	}
	return json.Marshal(finalScoreJSON{
		TotalScore:     f.TotalScore(),
		ExecutionGated: f.ExecutionGated,
		Dimensions:     dims,
	})
}

// UnmarshalJSON rebuilds the dimensions; derived values are recomputed.
func (f *FinalScore) UnmarshalJSON(data []byte) error {
	var raw finalScoreJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.ExecutionGated = raw.ExecutionGated
	f.Dimensions = make(map[string]DimensionResult, len(raw.Dimensions))
	for name, dim := range raw.Dimensions {
		f.Dimensions[name] = DimensionResult{
			Score:  dim.Score,
			Weight: dim.Weight,
			Source: dim.Source,
			Reason: dim.Reason,
		}
	}
	return nil
}
