package reporting

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spboyer/vibeval/internal/models"
)

func TestSummarize(t *testing.T) {
	run := sampleRun()
	run.Results[1].Final.ExecutionGated = true
	run.Results[2].MultiJudge = &models.MultiJudgeScore{
		DisagreementFlag: true,
		TotalJudgeCost:   0.0421,
	}

	summaries := Summarize(run)
	require.Len(t, summaries, 2)

	// Ranked by mean score descending.
	require.Equal(t, "anthropic/claude-opus-4.5", summaries[0].Model)
	require.Equal(t, 80.0, summaries[0].MeanScore)
	require.Equal(t, 1, summaries[0].Disagreements)
	require.Equal(t, 0.0421, summaries[0].JudgeCost)

	require.Equal(t, "openai/gpt-4o", summaries[1].Model)
	require.Equal(t, 2, summaries[1].Cases)
	require.Equal(t, 1, summaries[1].Gated)
}

func TestSummarize_Deterministic(t *testing.T) {
	run := sampleRun()
	first := Summarize(run)
	second := Summarize(run)
	require.Equal(t, first, second)
}

func TestRenderTable(t *testing.T) {
	table := RenderTable(Summarize(sampleRun()))
	lines := strings.Split(strings.TrimRight(table, "\n"), "\n")

	// Header, rule, one row per model.
	require.Len(t, lines, 4)
	require.Contains(t, lines[0], "Rank")
	require.Contains(t, lines[0], "Model")
	require.True(t, strings.HasPrefix(lines[1], "----"))
	require.Contains(t, lines[2], "anthropic/claude-opus-4.5")
	require.Contains(t, lines[3], "openai/gpt-4o")
}

func TestRenderMarkdown(t *testing.T) {
	run := sampleRun()
	md := RenderMarkdown(run, Summarize(run))

	require.Contains(t, md, "# Evaluation Run 20260823-120000")
	require.Contains(t, md, "## Leaderboard")
	require.Contains(t, md, "## Scores by case")
	require.Contains(t, md, "| calculator |")
	require.Contains(t, md, "| todo-app |")
	require.Contains(t, md, "| 1 | anthropic/claude-opus-4.5 |")
}

func TestRenderMarkdown_MissingPairShowsDash(t *testing.T) {
	run := sampleRun()
	run.Results = run.Results[:3] // drop claude/todo-app

	md := RenderMarkdown(run, Summarize(run))
	require.Contains(t, md, " - |")
}

func TestRenderHTML(t *testing.T) {
	run := sampleRun()
	doc, err := RenderHTML(run, Summarize(run))
	require.NoError(t, err)

	html := string(doc)
	require.Contains(t, html, "<!DOCTYPE html>")
	require.Contains(t, html, "<table>")
	require.Contains(t, html, "Evaluation Run 20260823-120000")
}
