// Package judge scores workspaces with one or more LLM judges and
// arbitrates their verdicts. Judges are network collaborators behind the
// Client interface; the arbitrator fans out to all of them concurrently
// and aggregates with a configurable statistic.
package judge

import (
	"context"
	"fmt"

	"github.com/spboyer/vibeval/internal/models"
)

// DefaultJudges are the model IDs used when none are configured. All
// route through OpenRouter.
var DefaultJudges = []string{
	"anthropic/claude-opus-4.5",
	"openai/gpt-4o",
	"google/gemini-3-flash-preview",
}

// Client is one scoring judge. Implementations are LLM transport
// adapters; the arbitrator only depends on this interface.
type Client interface {
	// ID identifies the judge in results, usually the model ID.
	ID() string

	// Score rates the given files against the task spec on the five
	// absolute dimensions. criteria is optional extra guidance.
	Score(ctx context.Context, spec string, files map[string]string, criteria string) (*models.AbsoluteScore, error)
}

// Completion is the raw result of one LLM call.
type Completion struct {
	Content      string
	InputTokens  int
	OutputTokens int
}

// Completer is a minimal single-prompt LLM transport. LLMJudge builds on
// it so provider adapters stay thin.
type Completer interface {
	Complete(ctx context.Context, prompt string) (*Completion, error)
	Model() string
}

// LLMJudge is a Client backed by a Completer. Parsing failures degrade to
// an all-zero score carrying the parse error; token usage is tracked
// either way.
type LLMJudge struct {
	completer Completer
}

// NewLLMJudge wraps a transport in a scoring judge.
func NewLLMJudge(c Completer) *LLMJudge {
	return &LLMJudge{completer: c}
}

// ID returns the underlying model ID.
func (j *LLMJudge) ID() string {
	return j.completer.Model()
}

// Score prompts the model and parses its JSON verdict.
func (j *LLMJudge) Score(ctx context.Context, spec string, files map[string]string, criteria string) (*models.AbsoluteScore, error) {
	if len(files) == 0 {
		return noFilesScore(), nil
	}

	resp, err := j.completer.Complete(ctx, BuildPrompt(spec, files, criteria))
	if err != nil {
		return nil, fmt.Errorf("judge %s: %w", j.ID(), err)
	}

	metrics := &models.JudgeMetrics{
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		JudgeModel:   j.ID(),
	}

	score, err := ParseAbsoluteScore(resp.Content)
	if err != nil {
		// Tokens were spent even when the verdict is garbage.
		bad := models.ZeroAbsoluteScore(fmt.Sprintf("Judge parsing error: %v", err))
		bad.JudgeMetrics = metrics
		return bad, nil
	}
	score.JudgeMetrics = metrics
	return score, nil
}

func noFilesScore() *models.AbsoluteScore {
	return &models.AbsoluteScore{
		Executes:           models.DimensionScore{Score: 0, Reason: "No files were generated"},
		FeaturesComplete:   models.DimensionScore{Score: 0, Reason: "No implementation"},
		OutputQuality:      models.DimensionScore{Score: 0, Reason: "No output"},
		DirectionFollowing: models.DimensionScore{Score: 0, Reason: "No attempt"},
		CodeQuality:        models.DimensionScore{Score: 0, Reason: "No code"},
	}
}
