package models

import (
	"encoding/json"
	"math"
)

// DimensionScore is one independently-scored 0-10 axis with its rationale.
type DimensionScore struct {
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// Execution gate: scores from artifacts that don't run are capped,
// regardless of how well the other dimensions scored.
const (
	ExecutionGateThreshold = 3
	ExecutionGateCap       = 30.0
)

// AbsoluteDimensions lists the five judge dimensions in canonical order.
// An earlier six-dimension variant included "elegance"; it was dropped as
// too subjective and the weights were rebalanced.
var AbsoluteDimensions = []string{
	"executes",
	"features_complete",
	"output_quality",
	"direction_following",
	"code_quality",
}

// AbsoluteWeights maps each judge dimension to its contribution out of 100.
var AbsoluteWeights = map[string]int{
	"executes":            25,
	"features_complete":   30,
	"output_quality":      20,
	"direction_following": 10,
	"code_quality":        15,
}

// AbsoluteScore is a judge's complete verdict on one workspace: five
// dimension scores plus optional API usage metrics.
type AbsoluteScore struct {
	Executes           DimensionScore
	FeaturesComplete   DimensionScore
	OutputQuality      DimensionScore
	DirectionFollowing DimensionScore
	CodeQuality        DimensionScore

	JudgeMetrics *JudgeMetrics
}

// ZeroAbsoluteScore returns an all-zero score carrying reason on the
// executes dimension. Used when a judge fails so aggregation always has a
// uniform-shaped input set.
func ZeroAbsoluteScore(reason string) *AbsoluteScore {
	return &AbsoluteScore{
		Executes:           DimensionScore{Score: 0, Reason: reason},
		FeaturesComplete:   DimensionScore{Score: 0, Reason: "No score"},
		OutputQuality:      DimensionScore{Score: 0, Reason: "No score"},
		DirectionFollowing: DimensionScore{Score: 0, Reason: "No score"},
		CodeQuality:        DimensionScore{Score: 0, Reason: "No score"},
	}
}

// Dimension returns the named dimension score. Unknown names return a zero
// value.
func (s *AbsoluteScore) Dimension(name string) DimensionScore {
	switch name {
	case "executes":
		return s.Executes
	case "features_complete":
		return s.FeaturesComplete
	case "output_quality":
		return s.OutputQuality
	case "direction_following":
		return s.DirectionFollowing
	case "code_quality":
		return s.CodeQuality
	}
	return DimensionScore{}
}

// TotalScore computes the weighted 0-100 total with the execution gate
// applied.
func (s *AbsoluteScore) TotalScore() float64 {
	total := 0.0
	for name, weight := range AbsoluteWeights {
		total += float64(s.Dimension(name).Score) / 10.0 * float64(weight)
	}
	if s.ExecutionGated() {
		total = math.Min(total, ExecutionGateCap)
	}
	return Round1(total)
}

// ExecutionGated reports whether the execution gate capped the total.
func (s *AbsoluteScore) ExecutionGated() bool {
	return s.Executes.Score < ExecutionGateThreshold
}

type absoluteScoreJSON struct {
	Executes           DimensionScore `json:"executes"`
	FeaturesComplete   DimensionScore `json:"features_complete"`
	OutputQuality      DimensionScore `json:"output_quality"`
	DirectionFollowing DimensionScore `json:"direction_following"`
	CodeQuality        DimensionScore `json:"code_quality"`
	TotalScore         float64        `json:"total_score"`
	ExecutionGated     bool           `json:"execution_gated"`
	JudgeMetrics       *JudgeMetrics  `json:"judge_metrics,omitempty"`
}

// MarshalJSON includes the derived total_score and execution_gated fields
// in the persisted form.
func (s *AbsoluteScore) MarshalJSON() ([]byte, error) {
	return json.Marshal(absoluteScoreJSON{
		Executes:           s.Executes,
		FeaturesComplete:   s.FeaturesComplete,
		OutputQuality:      s.OutputQuality,
		DirectionFollowing: s.DirectionFollowing,
		CodeQuality:        s.CodeQuality,
		TotalScore:         s.TotalScore(),
		ExecutionGated:     s.ExecutionGated(),
		JudgeMetrics:       s.JudgeMetrics,
	})
}

// UnmarshalJSON discards the derived fields; they are recomputed from the
// dimension scores so a round-trip reproduces identical totals.
func (s *AbsoluteScore) UnmarshalJSON(data []byte) error {
	var raw absoluteScoreJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Executes = raw.Executes
	s.FeaturesComplete = raw.FeaturesComplete
	s.OutputQuality = raw.OutputQuality
	s.DirectionFollowing = raw.DirectionFollowing
	s.CodeQuality = raw.CodeQuality
	s.JudgeMetrics = raw.JudgeMetrics
	return nil
}

// Round1 rounds to one decimal place. All score arithmetic routes through
// here so equal inputs always serialize to equal outputs.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
