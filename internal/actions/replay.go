package actions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spboyer/vibeval/internal/config"
	"github.com/spboyer/vibeval/internal/models"
	"github.com/spboyer/vibeval/internal/sandbox"
)

// turnDelimiterRe splits a transcript into turns. A delimiter is a line
// of three or more equals signs on its own.
var turnDelimiterRe = regexp.MustCompile(`(?m)^===+\s*$`)

// ReplayGenerator materializes workspaces by replaying recorded agent
// transcripts. The transcripts directory holds one file per (model,
// case) pair:
//
//	transcripts/<model>/<case>.txt
//
// Each file is the agent's tagged responses for that session, turns
// separated by a line of equals signs. Replaying applies every turn's
// actions through the sandbox and stops after a turn that signals done.
type ReplayGenerator struct {
	root string
}

func NewReplayGenerator(root string) *ReplayGenerator {
	return &ReplayGenerator{root: root}
}

func (g *ReplayGenerator) Generate(ctx context.Context, model string, c *config.Case, workspaceDir string) (*models.AgentMetrics, error) {
	path := filepath.Join(g.root, model, c.Name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("no transcript for %s/%s: %w", model, c.Name, err)
	}

	exec, err := sandbox.NewExecutor(workspaceDir)
	if err != nil {
		return nil, err
	}

	metrics := &models.AgentMetrics{}
	written := map[string]bool{}

	for _, turn := range turnDelimiterRe.Split(string(data), -1) {
		acts := Parse(turn)
		if len(acts) == 0 {
			continue
		}
		metrics.Turns++

		// Rewriting a file from an earlier turn counts as a backtrack.
		for _, act := range acts {
			if w, ok := act.(WriteFile); ok {
				rel := filepath.Clean(w.Path)
				if written[rel] {
					metrics.BacktrackCount++
				}
				written[rel] = true
			}
		}

		result := Apply(ctx, exec, acts)
		if result.Done {
			break
		}
		if err := ctx.Err(); err != nil {
			return metrics, err
		}
	}

	if metrics.Turns == 0 && strings.TrimSpace(string(data)) != "" {
		return metrics, fmt.Errorf("transcript for %s/%s contains no actions", model, c.Name)
	}
	return metrics, nil
}
