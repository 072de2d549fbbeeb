package judge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spboyer/vibeval/internal/models"
)

// fakeJudge returns a fixed score or error.
type fakeJudge struct {
	id    string
	score *models.AbsoluteScore
	err   error
}

func (f *fakeJudge) ID() string { return f.id }

func (f *fakeJudge) Score(ctx context.Context, spec string, files map[string]string, criteria string) (*models.AbsoluteScore, error) {
	return f.score, f.err
}

func uniformScore(n int) *models.AbsoluteScore {
	d := models.DimensionScore{Score: n, Reason: "test"}
	return &models.AbsoluteScore{
		Executes:           d,
		FeaturesComplete:   d,
		OutputQuality:      d,
		DirectionFollowing: d,
		CodeQuality:        d,
	}
}

func TestAggregate_Median(t *testing.T) {
	scores := map[string]*models.AbsoluteScore{
		"judge-a": uniformScore(7),
		"judge-b": uniformScore(8),
		"judge-c": uniformScore(9),
	}
	out := Aggregate(scores, models.AggregationMedian, 15.0)

	require.Equal(t, 80.0, out.FinalScore)
	require.Equal(t, 20.0, out.Spread)
	require.True(t, out.DisagreementFlag)
	require.Equal(t, []string{"judge-a", "judge-b", "judge-c"}, out.JudgesUsed)
	require.Equal(t, 8.0, out.AggregatedDimensions["executes"])
	require.Equal(t, 2.0, out.DimensionSpreads["executes"])
}

func TestAggregate_Average(t *testing.T) {
	scores := map[string]*models.AbsoluteScore{
		"judge-a": uniformScore(7),
		"judge-b": uniformScore(8),
		"judge-c": uniformScore(9),
	}
	out := Aggregate(scores, models.AggregationAverage, 25.0)

	require.Equal(t, 80.0, out.FinalScore)
	require.Equal(t, 20.0, out.Spread)
	require.False(t, out.DisagreementFlag)
	require.Equal(t, 8.0, out.AggregatedDimensions["code_quality"])
}

func TestAggregate_ConsensusMatchesMedian(t *testing.T) {
	scores := map[string]*models.AbsoluteScore{
		"judge-a": uniformScore(4),
		"judge-b": uniformScore(9),
	}
	median := Aggregate(scores, models.AggregationMedian, 15.0)
	consensus := Aggregate(scores, models.AggregationConsensus, 15.0)
	require.Equal(t, median.FinalScore, consensus.FinalScore)
	require.Equal(t, median.AggregatedDimensions, consensus.AggregatedDimensions)
}

func TestAggregate_SingleJudge(t *testing.T) {
	out := Aggregate(map[string]*models.AbsoluteScore{"only": uniformScore(6)}, models.AggregationMedian, 15.0)
	require.Equal(t, 60.0, out.FinalScore)
	require.Equal(t, 0.0, out.Spread)
	require.False(t, out.DisagreementFlag)
	require.Equal(t, []string{"only"}, out.JudgesUsed)
}

func TestAggregate_Empty(t *testing.T) {
	out := Aggregate(map[string]*models.AbsoluteScore{}, models.AggregationMedian, 15.0)
	require.Equal(t, 0.0, out.FinalScore)
	require.True(t, out.DisagreementFlag)
	require.Empty(t, out.JudgesUsed)
}

func TestAggregate_Deterministic(t *testing.T) {
	scores := map[string]*models.AbsoluteScore{
		"zeta":  uniformScore(3),
		"alpha": uniformScore(9),
		"mid":   uniformScore(6),
	}
	first := Aggregate(scores, models.AggregationMedian, 15.0)
	second := Aggregate(scores, models.AggregationMedian, 15.0)
	require.Equal(t, first, second)
	require.Equal(t, []string{"alpha", "mid", "zeta"}, first.JudgesUsed)
}

func TestAggregate_MetricsOnlyFromRealScores(t *testing.T) {
	scored := uniformScore(8)
	scored.JudgeMetrics = &models.JudgeMetrics{
		InputTokens:  1000,
		OutputTokens: 500,
		JudgeModel:   "openai/gpt-4o",
	}
	failed := models.ZeroAbsoluteScore("Judge error: timeout")

	out := Aggregate(map[string]*models.AbsoluteScore{
		"good": scored,
		"bad":  failed,
	}, models.AggregationMedian, 15.0)

	require.Equal(t, 1500, out.TotalJudgeTokens)
	require.Equal(t, scored.JudgeMetrics.EstimatedCost(), out.TotalJudgeCost)
}

func TestArbitrator_Score(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"), []byte("print('hi')\n"), 0o644))

	judges := []Client{
		&fakeJudge{id: "judge-a", score: uniformScore(7)},
		&fakeJudge{id: "judge-b", score: uniformScore(8)},
		&fakeJudge{id: "judge-c", err: errors.New("connection refused")},
	}
	arb := NewArbitrator(judges, WithMode(models.AggregationMedian))

	out := arb.Score(context.Background(), "build a thing", dir, "")
	require.Equal(t, []string{"judge-a", "judge-b", "judge-c"}, out.JudgesUsed)
	require.Equal(t, 70.0, out.FinalScore)

	failed := out.IndividualScores["judge-c"]
	require.NotNil(t, failed)
	require.Equal(t, 0, failed.Executes.Score)
	require.Contains(t, failed.Executes.Reason, "Judge error")
}

func TestArbitrator_ScoreNoJudges(t *testing.T) {
	arb := NewArbitrator(nil)
	out := arb.Score(context.Background(), "spec", t.TempDir(), "")
	require.Equal(t, 0.0, out.FinalScore)
	require.True(t, out.DisagreementFlag)
}

// fakeCompleter is a canned LLM transport.
type fakeCompleter struct {
	model   string
	content string
	err     error
}

func (f *fakeCompleter) Model() string { return f.model }

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (*Completion, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &Completion{Content: f.content, InputTokens: 100, OutputTokens: 50}, nil
}

func validVerdict() string {
	dims := ""
	for i, name := range models.AbsoluteDimensions {
		if i > 0 {
			dims += ","
		}
		dims += fmt.Sprintf(`%q: {"score": 8, "reason": "solid"}`, name)
	}
	return "```json\n{" + dims + "}\n```"
}

func TestLLMJudge_Score(t *testing.T) {
	j := NewLLMJudge(&fakeCompleter{model: "openai/gpt-4o", content: validVerdict()})

	score, err := j.Score(context.Background(), "spec", map[string]string{"main.py": "print(1)"}, "")
	require.NoError(t, err)
	require.Equal(t, 8, score.Executes.Score)
	require.NotNil(t, score.JudgeMetrics)
	require.Equal(t, 150, score.JudgeMetrics.TotalTokens())
	require.Equal(t, "openai/gpt-4o", j.ID())
}

func TestLLMJudge_NoFiles(t *testing.T) {
	j := NewLLMJudge(&fakeCompleter{model: "m", err: errors.New("should not be called")})

	score, err := j.Score(context.Background(), "spec", nil, "")
	require.NoError(t, err)
	require.Equal(t, 0.0, score.TotalScore())
	require.Equal(t, "No files were generated", score.Executes.Reason)
}

func TestLLMJudge_TransportError(t *testing.T) {
	j := NewLLMJudge(&fakeCompleter{model: "m", err: errors.New("boom")})

	_, err := j.Score(context.Background(), "spec", map[string]string{"a.py": "x"}, "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "judge m")
}

func TestLLMJudge_ParseFailure(t *testing.T) {
	j := NewLLMJudge(&fakeCompleter{model: "m", content: "I refuse to answer in JSON."})

	score, err := j.Score(context.Background(), "spec", map[string]string{"a.py": "x"}, "")
	require.NoError(t, err)
	require.Equal(t, 0.0, score.TotalScore())
	require.Contains(t, score.Executes.Reason, "Judge parsing error")
	require.NotNil(t, score.JudgeMetrics)
}
