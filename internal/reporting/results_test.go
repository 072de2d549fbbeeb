package reporting

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spboyer/vibeval/internal/models"
)

func sampleFinal(score int) *models.FinalScore {
	dims := map[string]models.DimensionResult{}
	for _, name := range models.FinalDimensions {
		dims[name] = models.DimensionResult{
			Score:  score,
			Weight: models.FinalWeights[name],
			Source: models.SourceAuto,
			Reason: "test",
		}
	}
	return &models.FinalScore{Dimensions: dims}
}

func sampleRun() *EvalRun {
	return &EvalRun{
		RunID:     "20260823-120000",
		Timestamp: time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC),
		Models:    []string{"openai/gpt-4o", "anthropic/claude-opus-4.5"},
		Cases:     []string{"calculator", "todo-app"},
		Results: []CaseResult{
			{Model: "openai/gpt-4o", Case: "calculator", Final: sampleFinal(8)},
			{Model: "openai/gpt-4o", Case: "todo-app", Final: sampleFinal(6)},
			{Model: "anthropic/claude-opus-4.5", Case: "calculator", Final: sampleFinal(9)},
			{Model: "anthropic/claude-opus-4.5", Case: "todo-app", Final: sampleFinal(7)},
		},
	}
}

func TestStore_SaveAndLoadRun(t *testing.T) {
	store := NewStore(t.TempDir())
	run := sampleRun()
	run.Results[0].Execution = &models.ExecutionReport{
		Executed: true,
		Stdout:   strings.Repeat("x", models.PersistedOutputLimit+500),
		FileType: models.FileTypePython,
	}

	require.NoError(t, store.SaveRun(run))

	back, err := store.LoadRun(run.RunID)
	require.NoError(t, err)
	require.Equal(t, run.RunID, back.RunID)
	require.Equal(t, run.Models, back.Models)
	require.Len(t, back.Results, 4)

	// Results come back sorted by model then case.
	require.Equal(t, "anthropic/claude-opus-4.5", back.Results[0].Model)
	require.Equal(t, "calculator", back.Results[0].Case)
	require.Equal(t, "openai/gpt-4o", back.Results[2].Model)

	// Totals survive the round trip.
	for _, r := range back.Results {
		require.Greater(t, r.TotalScore(), 0.0)
	}

	// Execution output was clamped on write.
	for _, r := range back.Results {
		if r.Case == "calculator" && r.Model == "openai/gpt-4o" {
			require.Len(t, r.Execution.Stdout, models.PersistedOutputLimit)
		}
	}
}

func TestStore_ResultFileNamesAreSafe(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	run := &EvalRun{
		RunID:   "r1",
		Models:  []string{"openai/gpt-4o"},
		Cases:   []string{"calc"},
		Results: []CaseResult{{Model: "openai/gpt-4o", Case: "calc", Final: sampleFinal(5)}},
	}
	require.NoError(t, store.SaveRun(run))

	_, err := os.Stat(filepath.Join(dir, "r1", "openai_gpt-4o__calc.json"))
	require.NoError(t, err)
}

func TestStore_ListRuns(t *testing.T) {
	store := NewStore(t.TempDir())

	runs, err := store.ListRuns()
	require.NoError(t, err)
	require.Empty(t, runs)

	for _, id := range []string{"20260823-2", "20260823-1"} {
		require.NoError(t, store.SaveRun(&EvalRun{RunID: id}))
	}
	runs, err = store.ListRuns()
	require.NoError(t, err)
	require.Equal(t, []string{"20260823-1", "20260823-2"}, runs)
}

func TestStore_TranscriptRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	transcript := strings.Repeat("turn 1: wrote main.py\nturn 2: ran tests\n", 100)

	require.NoError(t, store.SaveTranscript("r1", "openai/gpt-4o", "calc", transcript))

	back, err := store.LoadTranscript("r1", "openai/gpt-4o", "calc")
	require.NoError(t, err)
	require.Equal(t, transcript, back)
}

func TestCaseResult_TotalScore(t *testing.T) {
	r := &CaseResult{}
	require.Equal(t, 0.0, r.TotalScore())

	r.Final = sampleFinal(10)
	require.Equal(t, 100.0, r.TotalScore())
}
