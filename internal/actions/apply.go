package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/spboyer/vibeval/internal/sandbox"
)

// Observation is the feedback from applying one action, fed back to the
// agent on the next turn.
type Observation struct {
	Action string `json:"action"`
	Output string `json:"output,omitempty"`
	Err    string `json:"error,omitempty"`
}

// ApplyResult summarizes one turn's worth of applied actions.
type ApplyResult struct {
	Observations []Observation
	FilesWritten []string
	Done         bool
	DoneMessage  string
}

// Apply executes actions against the sandbox in source order. A Done
// signal never short-circuits: every other action in the turn is applied
// first, then Done is reported. Per-action failures become observations,
// not errors.
func Apply(ctx context.Context, exec *sandbox.Executor, acts []Action) *ApplyResult {
	result := &ApplyResult{}

	for _, act := range acts {
		switch a := act.(type) {
		case WriteFile:
			obs := Observation{Action: fmt.Sprintf("write_file %s", a.Path)}
			if _, err := exec.WriteFile(a.Path, a.Content); err != nil {
				obs.Err = err.Error()
			} else {
				result.FilesWritten = append(result.FilesWritten, a.Path)
			}
			result.Observations = append(result.Observations, obs)

		case RunCommand:
			obs := Observation{Action: fmt.Sprintf("run_command %s", a.Command)}
			r := exec.Run(ctx, a.Command)
			obs.Output = r.Stdout
			if !r.Success {
				obs.Err = r.Stderr
			}
			result.Observations = append(result.Observations, obs)

		case ReadFile:
			obs := Observation{Action: fmt.Sprintf("read_file %s", a.Path)}
			content, err := exec.ReadFile(a.Path)
			if err != nil {
				obs.Err = err.Error()
			} else {
				obs.Output = content
			}
			result.Observations = append(result.Observations, obs)

		case ListFiles:
			obs := Observation{Action: "list_files"}
			files, err := exec.ListFiles()
			if err != nil {
				obs.Err = err.Error()
			} else {
				obs.Output = strings.Join(files, "\n")
			}
			result.Observations = append(result.Observations, obs)

		case Done:
			result.Done = true
			result.DoneMessage = a.Message
		}
	}

	return result
}
