// Package reporting persists evaluation results and renders leaderboards.
// Each run lives under results/<run-id>/: a run.json summary, one JSON
// file per (model, case) result, and zstd-compressed raw transcripts.
// Written JSON reloads to identical totals; derived values are recomputed
// from the persisted dimensions.
package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/spboyer/vibeval/internal/models"
	"github.com/spboyer/vibeval/internal/scoring"
)

// CaseResult is the persisted outcome of one (model, case) evaluation.
type CaseResult struct {
	Model      string                   `json:"model"`
	Case       string                   `json:"case"`
	DurationMS int64                    `json:"duration_ms"`
	Execution  *models.ExecutionReport  `json:"execution,omitempty"`
	Auto       *scoring.AutoScore       `json:"auto_score,omitempty"`
	Static     *scoring.StaticReport    `json:"static_report,omitempty"`
	MultiJudge *models.MultiJudgeScore  `json:"multi_judge,omitempty"`
	Final      *models.FinalScore       `json:"final_score,omitempty"`
	Metrics    *models.AgentMetrics     `json:"agent_metrics,omitempty"`
	Error      string                   `json:"error,omitempty"`
}

// TotalScore is the result's final 0-100 score, 0 when scoring never ran.
func (r *CaseResult) TotalScore() float64 {
	if r.Final == nil {
		return 0
	}
	return r.Final.TotalScore()
}

// EvalRun is one complete evaluation across models and cases.
type EvalRun struct {
	RunID     string       `json:"run_id"`
	Timestamp time.Time    `json:"timestamp"`
	Models    []string     `json:"models"`
	Cases     []string     `json:"cases"`
	Results   []CaseResult `json:"results"`
}

// Store reads and writes runs under a results root directory.
type Store struct {
	root string
}

// NewStore creates a store rooted at root, typically the configured
// results directory.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// SaveRun persists the run summary and every per-result file. Execution
// output is clamped to the persisted limit before writing.
func (s *Store) SaveRun(run *EvalRun) error {
	dir := filepath.Join(s.root, run.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating run dir %q: %w", dir, err)
	}

	for i := range run.Results {
		r := run.Results[i]
		if r.Execution != nil {
			clamped := r.Execution.Clamped()
			r.Execution = &clamped
		}
		if err := writeJSON(filepath.Join(dir, resultFileName(r.Model, r.Case)), &r); err != nil {
			return err
		}
	}

	summary := *run
	summary.Results = nil
	return writeJSON(filepath.Join(dir, "run.json"), &summary)
}

// LoadRun reloads a persisted run, results included.
func (s *Store) LoadRun(runID string) (*EvalRun, error) {
	dir := filepath.Join(s.root, runID)

	var run EvalRun
	if err := readJSON(filepath.Join(dir, "run.json"), &run); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading run dir %q: %w", dir, err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == "run.json" || !strings.HasSuffix(name, ".json") {
			continue
		}
		var result CaseResult
		if err := readJSON(filepath.Join(dir, name), &result); err != nil {
			return nil, err
		}
		run.Results = append(run.Results, result)
	}

	sort.Slice(run.Results, func(i, j int) bool {
		if run.Results[i].Model != run.Results[j].Model {
			return run.Results[i].Model < run.Results[j].Model
		}
		return run.Results[i].Case < run.Results[j].Case
	})
	return &run, nil
}

// ListRuns returns persisted run IDs, newest name last.
func (s *Store) ListRuns() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading results root %q: %w", s.root, err)
	}
	var runs []string
	for _, entry := range entries {
		if entry.IsDir() {
			runs = append(runs, entry.Name())
		}
	}
	sort.Strings(runs)
	return runs, nil
}

// SaveTranscript stores a raw session transcript zstd-compressed next to
// the run's results.
func (s *Store) SaveTranscript(runID, model, caseName, transcript string) error {
	dir := filepath.Join(s.root, runID, "transcripts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating transcripts dir: %w", err)
	}

	path := filepath.Join(dir, sanitize(model)+"__"+sanitize(caseName)+".txt.zst")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating transcript %q: %w", path, err)
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}
	if _, err := enc.Write([]byte(transcript)); err != nil {
		enc.Close()
		return fmt.Errorf("writing transcript: %w", err)
	}
	return enc.Close()
}

// LoadTranscript decompresses a stored transcript.
func (s *Store) LoadTranscript(runID, model, caseName string) (string, error) {
	path := filepath.Join(s.root, runID, "transcripts",
		sanitize(model)+"__"+sanitize(caseName)+".txt.zst")
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening transcript %q: %w", path, err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("creating zstd reader: %w", err)
	}
	defer dec.Close()

	data, err := io.ReadAll(dec)
	if err != nil {
		return "", fmt.Errorf("reading transcript: %w", err)
	}
	return string(data), nil
}

func resultFileName(model, caseName string) string {
	return sanitize(model) + "__" + sanitize(caseName) + ".json"
}

// sanitize makes a model/case name filesystem-safe. Model IDs carry
// provider slashes.
func sanitize(name string) string {
	replacer := strings.NewReplacer("/", "_", ":", "_", " ", "_")
	return replacer.Replace(name)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %q: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %q: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %q: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %q: %w", path, err)
	}
	return nil
}
