// Package orchestration runs full evaluations: every configured model
// against every loaded case, in parallel, scoring each workspace with
// all available sources. One shared browser pool serves the whole run;
// everything else is per-pair state. A single failed pair never aborts
// the batch.
package orchestration

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/spboyer/vibeval/internal/browser"
	"github.com/spboyer/vibeval/internal/config"
	"github.com/spboyer/vibeval/internal/functest"
	"github.com/spboyer/vibeval/internal/judge"
	"github.com/spboyer/vibeval/internal/models"
	"github.com/spboyer/vibeval/internal/reporting"
	"github.com/spboyer/vibeval/internal/scoring"
	"github.com/spboyer/vibeval/internal/validation"
)

// Generator produces the candidate workspace for one (model, case) pair.
// It is the boundary to the agent engine; implementations write the
// model's generated files into workspaceDir and report loop metrics.
type Generator interface {
	Generate(ctx context.Context, model string, c *config.Case, workspaceDir string) (*models.AgentMetrics, error)
}

// ProgressListener receives progress updates.
type ProgressListener func(event ProgressEvent)

// EventType identifies a progress event.
type EventType string

const (
	EventRunStart     EventType = "run_start"
	EventRunComplete  EventType = "run_complete"
	EventCaseStart    EventType = "case_start"
	EventCaseComplete EventType = "case_complete"
)

// ProgressEvent is one progress update.
type ProgressEvent struct {
	EventType  EventType
	Model      string
	Case       string
	PairNum    int
	TotalPairs int
	Score      float64
	DurationMS int64
	Err        string
}

// Runner evaluates models against cases.
type Runner struct {
	cfg    *config.ProjectConfig
	gen    Generator
	judges []judge.Client

	progressMu sync.Mutex
	listeners  []ProgressListener
}

// NewRunner creates a runner. judges may be empty to disable judge
// scoring.
func NewRunner(cfg *config.ProjectConfig, gen Generator, judges []judge.Client) *Runner {
	return &Runner{cfg: cfg, gen: gen, judges: judges}
}

// OnProgress registers a progress listener.
func (r *Runner) OnProgress(listener ProgressListener) {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	r.listeners = append(r.listeners, listener)
}

func (r *Runner) notifyProgress(event ProgressEvent) {
	r.progressMu.Lock()
	listeners := make([]ProgressListener, len(r.listeners))
	copy(listeners, r.listeners)
	r.progressMu.Unlock()
	for _, l := range listeners {
		l(event)
	}
}

// Run evaluates every (model, case) pair and returns the collected run.
// Pairs execute concurrently, bounded by the configured worker count.
func (r *Runner) Run(ctx context.Context, modelIDs []string, cases []*config.Case) (*reporting.EvalRun, error) {
	if len(modelIDs) == 0 {
		return nil, fmt.Errorf("no models to evaluate")
	}
	if len(cases) == 0 {
		return nil, fmt.Errorf("no cases to evaluate")
	}

	pool := r.newPool()
	defer pool.Close()

	type pair struct {
		model string
		c     *config.Case
	}
	var pairs []pair
	caseNames := make([]string, 0, len(cases))
	for _, c := range cases {
		caseNames = append(caseNames, c.Name)
	}
	for _, model := range modelIDs {
		for _, c := range cases {
			pairs = append(pairs, pair{model: model, c: c})
		}
	}

	run := &reporting.EvalRun{
		RunID:     time.Now().UTC().Format("20060102-150405"),
		Timestamp: time.Now().UTC(),
		Models:    modelIDs,
		Cases:     caseNames,
		Results:   make([]reporting.CaseResult, len(pairs)),
	}

	r.notifyProgress(ProgressEvent{EventType: EventRunStart, TotalPairs: len(pairs)})

	workers := r.cfg.Defaults.Workers
	if workers <= 0 {
		workers = config.DefaultWorkers
	}
	semaphore := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, p := range pairs {
		wg.Add(1)
		go func(idx int, model string, c *config.Case) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			r.notifyProgress(ProgressEvent{
				EventType:  EventCaseStart,
				Model:      model,
				Case:       c.Name,
				PairNum:    idx + 1,
				TotalPairs: len(pairs),
			})

			start := time.Now()
			result := r.evaluatePair(ctx, pool, model, c)
			result.DurationMS = time.Since(start).Milliseconds()
			run.Results[idx] = result

			r.notifyProgress(ProgressEvent{
				EventType:  EventCaseComplete,
				Model:      model,
				Case:       c.Name,
				PairNum:    idx + 1,
				TotalPairs: len(pairs),
				Score:      result.TotalScore(),
				DurationMS: result.DurationMS,
				Err:        result.Error,
			})
		}(i, p.model, p.c)
	}
	wg.Wait()

	r.notifyProgress(ProgressEvent{EventType: EventRunComplete, TotalPairs: len(pairs)})
	return run, nil
}

// evaluatePair generates and scores one workspace. All failures are
// captured in the returned result.
func (r *Runner) evaluatePair(ctx context.Context, pool *browser.Pool, model string, c *config.Case) reporting.CaseResult {
	result := reporting.CaseResult{Model: model, Case: c.Name}

	workspaceDir, err := os.MkdirTemp("", "vibeval_")
	if err != nil {
		result.Error = fmt.Sprintf("creating workspace: %v", err)
		result.Final = minimumScore()
		return result
	}
	defer os.RemoveAll(workspaceDir)

	metrics, err := r.gen.Generate(ctx, model, c, workspaceDir)
	if err != nil {
		slog.Warn("generation failed", "model", model, "case", c.Name, "error", err)
		result.Error = fmt.Sprintf("generation failed: %v", err)
		result.Final = minimumScore()
		return result
	}
	result.Metrics = metrics

	report, final, multi := r.EvaluateWorkspace(ctx, pool, workspaceDir, c, metrics)
	result.Execution = report
	result.Final = final
	result.MultiJudge = multi
	return result
}

// EvaluateWorkspace validates and scores an existing workspace against a
// case. Exposed so single-workspace scoring (the score command) shares
// the run pipeline.
func (r *Runner) EvaluateWorkspace(ctx context.Context, pool *browser.Pool, workspaceDir string, c *config.Case, metrics *models.AgentMetrics) (*models.ExecutionReport, *models.FinalScore, *models.MultiJudgeScore) {
	timeout := time.Duration(r.cfg.Defaults.Timeout) * time.Second
	if c.Timeout > 0 {
		timeout = time.Duration(c.Timeout) * time.Second
	}

	validator := validation.NewValidator(pool,
		validation.WithTimeout(timeout),
		validation.WithScreenshot(r.cfg.Browser.Screenshot != nil && *r.cfg.Browser.Screenshot),
	)
	report := validator.Validate(ctx, workspaceDir)

	var suite *functest.Suite
	if len(c.Checks) > 0 {
		built, err := functest.BuildSuite(c.Checks)
		if err != nil {
			slog.Warn("invalid check suite", "case", c.Name, "error", err)
		} else {
			suite = built
		}
	}

	runner := functest.NewRunner(pool, functest.WithTimeout(timeout))
	auto := scoring.NewAutoScorer(runner, validator)

	var arbitrator *judge.Arbitrator
	if len(r.judges) > 0 && (r.cfg.Defaults.UseJudge == nil || *r.cfg.Defaults.UseJudge) {
		mode, err := models.ParseAggregationMode(r.cfg.Defaults.Aggregation)
		if err != nil {
			mode = models.AggregationMedian
		}
		arbitrator = judge.NewArbitrator(r.judges,
			judge.WithMode(mode),
			judge.WithThreshold(r.cfg.Defaults.DisagreementThreshold),
		)
	}

	aggregator := scoring.NewAggregator(auto, arbitrator)
	final, multi := aggregator.ScoreWorkspace(ctx, workspaceDir, c.Spec, c.Criteria, suite, metrics)
	return report, final, multi
}

// newPool builds the run's shared browser pool from config.
func (r *Runner) newPool() *browser.Pool {
	var opts []browser.PoolOption
	if r.cfg.Browser.ExecPath != "" {
		opts = append(opts, browser.WithExecPath(r.cfg.Browser.ExecPath))
	}
	if r.cfg.Browser.NavTimeoutMS > 0 {
		opts = append(opts, browser.WithNavTimeout(time.Duration(r.cfg.Browser.NavTimeoutMS)*time.Millisecond))
	}
	return browser.NewPool(opts...)
}

// minimumScore is the all-sources-missing final score used when a pair
// could not be evaluated at all.
func minimumScore() *models.FinalScore {
	return scoring.NewAggregator(nil, nil).Aggregate(&scoring.AutoScore{}, nil, nil, nil)
}
