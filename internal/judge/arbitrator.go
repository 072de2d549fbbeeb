package judge

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spboyer/vibeval/internal/models"
	"github.com/spboyer/vibeval/internal/statistics"
)

// DefaultJudgeTimeout bounds one judge call. A slow judge loses its vote;
// the others keep theirs.
const DefaultJudgeTimeout = 120 * time.Second

// Arbitrator fans a scoring request out to every configured judge and
// aggregates the verdicts. Failed judges are replaced with all-zero
// scores so aggregation always sees a uniform-shaped input set.
type Arbitrator struct {
	judges    []Client
	mode      models.AggregationMode
	threshold float64
	timeout   time.Duration
	maxFiles  int
}

// ArbitratorOption configures an Arbitrator.
type ArbitratorOption func(*Arbitrator)

// WithMode selects the aggregation statistic.
func WithMode(mode models.AggregationMode) ArbitratorOption {
	return func(a *Arbitrator) {
		if mode != "" {
			a.mode = mode
		}
	}
}

// WithThreshold overrides the disagreement spread threshold.
func WithThreshold(t float64) ArbitratorOption {
	return func(a *Arbitrator) {
		if t > 0 {
			a.threshold = t
		}
	}
}

// WithJudgeTimeout overrides the per-judge call timeout.
func WithJudgeTimeout(d time.Duration) ArbitratorOption {
	return func(a *Arbitrator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithMaxFiles overrides how many workspace files judges see.
func WithMaxFiles(n int) ArbitratorOption {
	return func(a *Arbitrator) {
		if n > 0 {
			a.maxFiles = n
		}
	}
}

// NewArbitrator creates an arbitrator over the given judges.
func NewArbitrator(judges []Client, opts ...ArbitratorOption) *Arbitrator {
	a := &Arbitrator{
		judges:    judges,
		mode:      models.AggregationMedian,
		threshold: models.DefaultDisagreementThreshold,
		timeout:   DefaultJudgeTimeout,
		maxFiles:  DefaultMaxFiles,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Score collects workspace files once, dispatches all judges concurrently
// with independent timeouts, and aggregates whatever comes back. Score
// never fails; judge errors become zero scores.
func (a *Arbitrator) Score(ctx context.Context, spec, workspaceDir, criteria string) *models.MultiJudgeScore {
	files, err := CollectCodeFiles(workspaceDir, a.maxFiles)
	if err != nil {
		slog.Warn("could not collect code files for judging", "workspace", workspaceDir, "error", err)
		files = nil
	}

	scores := make(map[string]*models.AbsoluteScore, len(a.judges))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, client := range a.judges {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, a.timeout)
			defer cancel()

			score, err := client.Score(callCtx, spec, files, criteria)
			if err != nil {
				slog.Warn("judge failed", "judge", client.ID(), "error", err)
				score = models.ZeroAbsoluteScore(fmt.Sprintf("Judge error: %v", err))
			}

			mu.Lock()
			scores[client.ID()] = score
			mu.Unlock()
			return nil
		})
	}
	// Goroutines only return nil; Wait is a join.
	_ = g.Wait()

	return Aggregate(scores, a.mode, a.threshold)
}

// Aggregate combines per-judge verdicts into one MultiJudgeScore. It is
// pure and deterministic: judges are processed in sorted ID order and
// equal inputs always yield identical output. An empty input set yields a
// zero final score with the disagreement flag raised.
func Aggregate(scores map[string]*models.AbsoluteScore, mode models.AggregationMode, threshold float64) *models.MultiJudgeScore {
	out := &models.MultiJudgeScore{
		IndividualScores:     scores,
		AggregatedDimensions: map[string]float64{},
		DimensionSpreads:     map[string]float64{},
		JudgesUsed:           []string{},
		AggregationMode:      mode,
	}
	if len(scores) == 0 {
		out.DisagreementFlag = true
		return out
	}

	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out.JudgesUsed = ids

	totals := make([]float64, 0, len(ids))
	for _, id := range ids {
		totals = append(totals, scores[id].TotalScore())
	}

	out.FinalScore = models.Round1(central(mode, totals))
	out.Spread = models.Round1(statistics.Spread(totals))
	out.DisagreementFlag = out.Spread > threshold

	for _, name := range models.AbsoluteDimensions {
		dims := make([]float64, 0, len(ids))
		for _, id := range ids {
			dims = append(dims, float64(scores[id].Dimension(name).Score))
		}
		out.AggregatedDimensions[name] = models.Round1(central(mode, dims))
		out.DimensionSpreads[name] = statistics.Spread(dims)
	}

	// Only judges that actually answered carry metrics; substituted zero
	// scores contribute nothing here.
	cost := 0.0
	for _, id := range ids {
		if m := scores[id].JudgeMetrics; m != nil {
			out.TotalJudgeTokens += m.TotalTokens()
			cost += m.EstimatedCost()
		}
	}
	out.TotalJudgeCost = math.Round(cost*1e6) / 1e6

	return out
}

// central applies the mode's statistic. Consensus is implemented as
// median.
func central(mode models.AggregationMode, values []float64) float64 {
	if mode == models.AggregationAverage {
		return statistics.Mean(values)
	}
	return statistics.Median(values)
}
