package reporting

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/spboyer/vibeval/internal/models"
	"github.com/spboyer/vibeval/internal/statistics"
)

// ModelSummary aggregates one model's results across every case in a run.
type ModelSummary struct {
	Model         string                        `json:"model"`
	Cases         int                           `json:"cases"`
	MeanScore     float64                       `json:"mean_score"`
	CI            statistics.ConfidenceInterval `json:"confidence_interval"`
	Gated         int                           `json:"gated"`
	Disagreements int                           `json:"disagreements"`
	JudgeCost     float64                       `json:"judge_cost"`
}

// Summarize computes per-model summaries from a run, ranked by mean final
// score descending. Bootstrap CIs are seeded so repeated reports over the
// same run agree.
func Summarize(run *EvalRun) []ModelSummary {
	byModel := map[string][]CaseResult{}
	for _, r := range run.Results {
		byModel[r.Model] = append(byModel[r.Model], r)
	}

	summaries := make([]ModelSummary, 0, len(byModel))
	for model, results := range byModel {
		s := ModelSummary{Model: model, Cases: len(results)}

		scores := make([]float64, 0, len(results))
		for _, r := range results {
			scores = append(scores, r.TotalScore())
			if r.Final != nil && r.Final.ExecutionGated {
				s.Gated++
			}
			if r.MultiJudge != nil {
				if r.MultiJudge.DisagreementFlag {
					s.Disagreements++
				}
				s.JudgeCost += r.MultiJudge.TotalJudgeCost
			}
		}
		s.MeanScore = models.Round1(statistics.Mean(scores))
		s.CI = statistics.BootstrapCIWithSeed(scores, 0.95, 1)
		summaries = append(summaries, s)
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].MeanScore != summaries[j].MeanScore {
			return summaries[i].MeanScore > summaries[j].MeanScore
		}
		return summaries[i].Model < summaries[j].Model
	})
	return summaries
}

// RenderTable renders the leaderboard as an aligned terminal table.
func RenderTable(summaries []ModelSummary) string {
	headers := []string{"Rank", "Model", "Score", "95% CI", "Cases", "Gated", "Disagree", "Judge $"}
	rows := make([][]string, 0, len(summaries))
	for i, s := range summaries {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			s.Model,
			fmt.Sprintf("%.1f", s.MeanScore),
			fmt.Sprintf("[%.1f, %.1f]", s.CI.Lower, s.CI.Upper),
			fmt.Sprintf("%d", s.Cases),
			fmt.Sprintf("%d", s.Gated),
			fmt.Sprintf("%d", s.Disagreements),
			fmt.Sprintf("%.4f", s.JudgeCost),
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(runewidth.FillRight(cell, widths[i]))
		}
		b.WriteString("\n")
	}

	writeRow(headers)
	for i, w := range widths {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(strings.Repeat("-", w))
	}
	b.WriteString("\n")
	for _, row := range rows {
		writeRow(row)
	}
	return b.String()
}

// RenderMarkdown renders the run as a markdown report: the leaderboard
// plus a per-case score matrix.
func RenderMarkdown(run *EvalRun, summaries []ModelSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Evaluation Run %s\n\n", run.RunID)
	fmt.Fprintf(&b, "Date: %s  \nModels: %d  \nCases: %d\n\n",
		run.Timestamp.Format("2006-01-02 15:04"), len(run.Models), len(run.Cases))

	b.WriteString("## Leaderboard\n\n")
	b.WriteString("| Rank | Model | Score | 95% CI | Cases | Gated | Disagreements | Judge cost |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|\n")
	for i, s := range summaries {
		fmt.Fprintf(&b, "| %d | %s | %.1f | [%.1f, %.1f] | %d | %d | %d | $%.4f |\n",
			i+1, s.Model, s.MeanScore, s.CI.Lower, s.CI.Upper,
			s.Cases, s.Gated, s.Disagreements, s.JudgeCost)
	}

	b.WriteString("\n## Scores by case\n\n")
	b.WriteString("| Case |")
	for _, s := range summaries {
		fmt.Fprintf(&b, " %s |", s.Model)
	}
	b.WriteString("\n|---|")
	b.WriteString(strings.Repeat("---|", len(summaries)))
	b.WriteString("\n")

	scores := map[string]map[string]float64{}
	for _, r := range run.Results {
		if scores[r.Case] == nil {
			scores[r.Case] = map[string]float64{}
		}
		scores[r.Case][r.Model] = r.TotalScore()
	}

	caseNames := make([]string, 0, len(scores))
	for name := range scores {
		caseNames = append(caseNames, name)
	}
	sort.Strings(caseNames)

	for _, name := range caseNames {
		fmt.Fprintf(&b, "| %s |", name)
		for _, s := range summaries {
			if score, ok := scores[name][s.Model]; ok {
				fmt.Fprintf(&b, " %.1f |", score)
			} else {
				b.WriteString(" - |")
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}

// RenderHTML converts the markdown report to a standalone HTML document.
func RenderHTML(run *EvalRun, summaries []ModelSummary) ([]byte, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.Table),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)

	var body bytes.Buffer
	if err := md.Convert([]byte(RenderMarkdown(run, summaries)), &body); err != nil {
		return nil, fmt.Errorf("rendering report HTML: %w", err)
	}

	var doc bytes.Buffer
	fmt.Fprintf(&doc, `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Evaluation Run %s</title>
<style>
body { font-family: sans-serif; max-width: 960px; margin: 2em auto; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: left; }
</style>
</head>
<body>
%s</body>
</html>
`, run.RunID, body.String())
	return doc.Bytes(), nil
}
