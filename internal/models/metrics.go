package models

import "strings"

// JudgeMetrics tracks one judge call's API usage.
type JudgeMetrics struct {
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	JudgeModel   string `json:"judge_model"`
}

// judgePricing maps judge model IDs to (input, output) USD per 1M tokens.
var judgePricing = map[string][2]float64{
	"anthropic/claude-opus-4.5":  {5.0, 25.0},
	"anthropic/claude-sonnet-4":  {3.0, 15.0},
	"openai/gpt-4o":              {3.0, 10.0},
	"google/gemini-3-flash":      {0.075, 0.3},
	"google/gemini-2.0-flash":    {0.075, 0.3},
}

// defaultJudgePricing assumes a mid-tier model when the ID is unknown.
var defaultJudgePricing = [2]float64{3.0, 15.0}

// TotalTokens is input + output tokens.
func (m *JudgeMetrics) TotalTokens() int {
	return m.InputTokens + m.OutputTokens
}

// EstimatedCost estimates the call's USD cost from the pricing table,
// rounded to six decimal places.
func (m *JudgeMetrics) EstimatedCost() float64 {
	rates, ok := judgePricing[strings.ToLower(m.JudgeModel)]
	if !ok {
		rates = defaultJudgePricing
	}
	cost := float64(m.InputTokens)/1_000_000*rates[0] +
		float64(m.OutputTokens)/1_000_000*rates[1]
	return round6(cost)
}

func round6(v float64) float64 {
	const scale = 1e6
	if v < 0 {
		return -round6(-v)
	}
	return float64(int64(v*scale+0.5)) / scale
}
