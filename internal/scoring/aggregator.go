package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/spboyer/vibeval/internal/functest"
	"github.com/spboyer/vibeval/internal/judge"
	"github.com/spboyer/vibeval/internal/models"
)

// neutralScore is the fallback for dimensions whose source is missing.
// Partial input degrades the score, it never fails the aggregation.
const neutralScore = 5

// Aggregator combines every scoring source into a FinalScore.
type Aggregator struct {
	auto       *AutoScorer
	analyzer   *StaticAnalyzer
	arbitrator *judge.Arbitrator
}

// NewAggregator creates an aggregator. arbitrator may be nil when judge
// scoring is disabled; judge-sourced dimensions then use their defaults.
func NewAggregator(auto *AutoScorer, arbitrator *judge.Arbitrator) *Aggregator {
	return &Aggregator{
		auto:       auto,
		analyzer:   NewStaticAnalyzer(),
		arbitrator: arbitrator,
	}
}

// Aggregate maps the available sources onto the eight final dimensions.
// Any of the inputs may be nil.
func (g *Aggregator) Aggregate(auto *AutoScore, static *StaticReport, judgeScore *models.AbsoluteScore, metrics *models.AgentMetrics) *models.FinalScore {
	final := &models.FinalScore{Dimensions: map[string]models.DimensionResult{}}

	executes := neutralScore
	if auto != nil {
		executes = auto.ExecutionScore()
	}
	final.Dimensions["executes"] = models.DimensionResult{
		Score:  executes,
		Weight: models.FinalWeights["executes"],
		Source: models.SourceAuto,
		Reason: "Based on execution validation",
	}

	testScore := 0.0
	testReason := "No tests"
	if auto != nil {
		testScore = auto.TestScore()
		testReason = fmt.Sprintf("%d/%d tests passed", auto.TestsPassed, auto.TestsTotal)
	}
	final.Dimensions["test_pass_rate"] = models.DimensionResult{
		Score:  int(math.Round(testScore)),
		Weight: models.FinalWeights["test_pass_rate"],
		Source: models.SourceAuto,
		Reason: testReason,
	}

	features := neutralScore
	featuresReason := "No judge score"
	if judgeScore != nil {
		features = judgeScore.FeaturesComplete.Score
		featuresReason = judgeScore.FeaturesComplete.Reason
	}
	final.Dimensions["features_complete"] = models.DimensionResult{
		Score:  features,
		Weight: models.FinalWeights["features_complete"],
		Source: models.SourceJudge,
		Reason: featuresReason,
	}

	// Edge cases lean on tests when the case has any, otherwise on the
	// judge's output-quality read.
	edge := neutralScore
	if auto != nil && auto.TestsTotal > 0 {
		edge = int(math.Round(auto.TestScore()))
	} else if judgeScore != nil {
		edge = judgeScore.OutputQuality.Score
	}
	final.Dimensions["edge_cases"] = models.DimensionResult{
		Score:  edge,
		Weight: models.FinalWeights["edge_cases"],
		Source: models.SourceCombined,
		Reason: "Based on test results and output quality",
	}

	quality := neutralScore
	qualitySource := models.SourceCombined
	switch {
	case static != nil && judgeScore != nil:
		quality = (static.QualityScore() + judgeScore.CodeQuality.Score) / 2
	case static != nil:
		quality = static.QualityScore()
		qualitySource = models.SourceStatic
	case judgeScore != nil:
		quality = judgeScore.CodeQuality.Score
		qualitySource = models.SourceJudge
	}
	final.Dimensions["code_quality"] = models.DimensionResult{
		Score:  quality,
		Weight: models.FinalWeights["code_quality"],
		Source: qualitySource,
		Reason: "Based on static analysis and code review",
	}

	efficiency := 7
	efficiencyReason := "No metrics"
	if metrics != nil {
		switch {
		case metrics.Turns == 1:
			efficiency = 10
		case metrics.Turns <= 3:
			efficiency = 8
		case metrics.Turns <= 5:
			efficiency = 6
		default:
			efficiency = max(3, 10-metrics.Turns)
		}
		efficiency = max(0, efficiency-metrics.BacktrackCount)
		efficiencyReason = fmt.Sprintf("Based on %d turns", metrics.Turns)
	}
	final.Dimensions["efficiency"] = models.DimensionResult{
		Score:  efficiency,
		Weight: models.FinalWeights["efficiency"],
		Source: models.SourceMetrics,
		Reason: efficiencyReason,
	}

	direction := neutralScore
	directionReason := "No judge score"
	if judgeScore != nil {
		direction = judgeScore.DirectionFollowing.Score
		directionReason = judgeScore.DirectionFollowing.Reason
	}
	final.Dimensions["direction_following"] = models.DimensionResult{
		Score:  direction,
		Weight: models.FinalWeights["direction_following"],
		Source: models.SourceJudge,
		Reason: directionReason,
	}

	robustness := neutralScore
	if auto != nil {
		robustness = int(math.Round(auto.TestScore()))
	}
	if static != nil && static.HasErrorHandling {
		robustness = min(10, robustness+1)
	}
	final.Dimensions["robustness"] = models.DimensionResult{
		Score:  robustness,
		Weight: models.FinalWeights["robustness"],
		Source: models.SourceCombined,
		Reason: "Based on test coverage and error handling",
	}

	if executes < models.ExecutionGateThreshold {
		final.ExecutionGated = true
	}
	if auto != nil && auto.TestsTotal > 0 && testScore < models.ExecutionGateThreshold {
		final.ExecutionGated = true
	}

	return final
}

// ScoreWorkspace runs every available scoring source against a workspace
// and aggregates the result. suite carries the case's functional tests
// (nil when it has none); judge scoring runs only when an arbitrator is
// configured and spec is non-empty. The multi-judge detail is returned
// alongside the final score for persistence; it is nil when judging was
// skipped.
func (g *Aggregator) ScoreWorkspace(ctx context.Context, workspaceDir, spec, criteria string, suite *functest.Suite, metrics *models.AgentMetrics) (*models.FinalScore, *models.MultiJudgeScore) {
	var auto *AutoScore
	if g.auto != nil {
		auto = g.auto.Score(ctx, workspaceDir, suite)
	}

	static := g.analyzer.Analyze(workspaceDir)

	var multi *models.MultiJudgeScore
	var judgeScore *models.AbsoluteScore
	if g.arbitrator != nil && spec != "" {
		multi = g.arbitrator.Score(ctx, spec, workspaceDir, criteria)
		judgeScore = multi.ToAbsolute()
	}

	return g.Aggregate(auto, static, judgeScore, metrics), multi
}
