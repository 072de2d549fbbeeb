package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func uniformFinal(score int, gated bool) *FinalScore {
	dims := make(map[string]DimensionResult, len(FinalDimensions))
	for _, name := range FinalDimensions {
		dims[name] = DimensionResult{
			Score:  score,
			Weight: FinalWeights[name],
			Source: SourceAuto,
			Reason: "test",
		}
	}
	return &FinalScore{Dimensions: dims, ExecutionGated: gated}
}

func TestFinalWeights_SumToOne(t *testing.T) {
	sum := 0.0
	for _, name := range FinalDimensions {
		w, ok := FinalWeights[name]
		require.True(t, ok, "dimension %s has no weight", name)
		sum += w
	}
	require.InDelta(t, 1.0, sum, 1e-9)
	require.Len(t, FinalWeights, len(FinalDimensions))
}

func TestFinalScore_TotalScore(t *testing.T) {
	tests := []struct {
		name  string
		score *FinalScore
		want  float64
	}{
		{"all tens", uniformFinal(10, false), 100.0},
		{"all fives", uniformFinal(5, false), 50.0},
		{"all zeros", uniformFinal(0, true), 0.0},
		{"gate caps perfect dimensions", uniformFinal(10, true), ExecutionGateCap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.score.TotalScore())
		})
	}
}

func TestDimensionResult_WeightedContribution(t *testing.T) {
	d := DimensionResult{Score: 8, Weight: 0.20}
	require.InDelta(t, 16.0, d.WeightedContribution(), 1e-9)
}

func TestFinalScore_JSONRoundTrip(t *testing.T) {
	orig := uniformFinal(7, false)

	data, err := json.Marshal(orig)
	require.NoError(t, err)

	var back FinalScore
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, orig.TotalScore(), back.TotalScore())
	require.Equal(t, orig.ExecutionGated, back.ExecutionGated)
	require.Len(t, back.Dimensions, len(FinalDimensions))
	for name, dim := range orig.Dimensions {
		require.Equal(t, dim, back.Dimensions[name], "dimension %s", name)
	}

	// Marshaling the reloaded score reproduces identical bytes.
	again, err := json.Marshal(&back)
	require.NoError(t, err)
	require.JSONEq(t, string(data), string(again))
}

func TestParseAggregationMode(t *testing.T) {
	tests := []struct {
		input   string
		want    AggregationMode
		wantErr bool
	}{
		{"average", AggregationAverage, false},
		{"median", AggregationMedian, false},
		{"consensus", AggregationConsensus, false},
		{"", AggregationMedian, false},
		{"mode", "", true},
	}
	for _, tt := range tests {
		t.Run("input_"+tt.input, func(t *testing.T) {
			got, err := ParseAggregationMode(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestMultiJudgeScore_ToAbsolute(t *testing.T) {
	m := &MultiJudgeScore{
		AggregatedDimensions: map[string]float64{
			"executes":            8.4,
			"features_complete":   7.5,
			"output_quality":      6.0,
			"direction_following": 9.6,
			"code_quality":        5.0,
		},
		AggregationMode: AggregationMedian,
		JudgesUsed:      []string{"a", "b", "c"},
	}
	abs := m.ToAbsolute()
	require.Equal(t, 8, abs.Executes.Score)
	require.Equal(t, 8, abs.FeaturesComplete.Score)
	require.Equal(t, 6, abs.OutputQuality.Score)
	require.Equal(t, 10, abs.DirectionFollowing.Score)
	require.Equal(t, 5, abs.CodeQuality.Score)
	require.Equal(t, "median of 3 judges", abs.Executes.Reason)
}

func TestJudgeMetrics_EstimatedCost(t *testing.T) {
	m := &JudgeMetrics{InputTokens: 1_000_000, OutputTokens: 1_000_000, JudgeModel: "openai/gpt-4o"}
	require.Equal(t, 13.0, m.EstimatedCost())
	require.Equal(t, 2_000_000, m.TotalTokens())

	unknown := &JudgeMetrics{InputTokens: 500_000, OutputTokens: 100_000, JudgeModel: "mystery/model"}
	require.InDelta(t, 3.0, unknown.EstimatedCost(), 1e-9)
}

func TestExecutionReport_Clamped(t *testing.T) {
	long := make([]byte, PersistedOutputLimit+100)
	for i := range long {
		long[i] = 'x'
	}
	r := ExecutionReport{Stdout: string(long), Stderr: "short"}
	c := r.Clamped()
	require.Len(t, c.Stdout, PersistedOutputLimit)
	require.Equal(t, "short", c.Stderr)
	// Original untouched.
	require.Len(t, r.Stdout, PersistedOutputLimit+100)
}

func TestTestRunResult_Score(t *testing.T) {
	r := &TestRunResult{PassRate: 0.75}
	require.True(t, math.Abs(r.Score()-7.5) < 1e-9)
}
