// Package actions parses the tagged tool calls a coding agent emits in
// its responses and applies them to a sandbox workspace. Actions keep
// their source order; a done signal only takes effect after every other
// action in the same turn has been applied.
package actions

import (
	"regexp"
	"sort"
	"strings"
)

// Action is one parsed agent instruction.
type Action interface {
	isAction()
}

// WriteFile writes content to a workspace-relative path.
type WriteFile struct {
	Path    string
	Content string
}

// RunCommand runs a shell command in the workspace.
type RunCommand struct {
	Command string
}

// ReadFile requests a file's content back as an observation.
type ReadFile struct {
	Path string
}

// ListFiles requests a workspace listing back as an observation.
type ListFiles struct {
	Path string
}

// Done signals the agent considers the task complete.
type Done struct {
	Message string
}

func (WriteFile) isAction()  {}
func (RunCommand) isAction() {}
func (ReadFile) isAction()   {}
func (ListFiles) isAction()  {}
func (Done) isAction()       {}

var (
	writeFileRe  = regexp.MustCompile(`(?s)<write_file\s+path="([^"]+)">(.*?)</write_file>`)
	runCommandRe = regexp.MustCompile(`(?s)<run_command>(.*?)</run_command>`)
	readFileRe   = regexp.MustCompile(`<read_file\s+path="([^"]+)"\s*/>`)
	listFilesRe  = regexp.MustCompile(`<list_files\s+path="([^"]+)"\s*/>`)
	doneRe       = regexp.MustCompile(`(?s)<done>(.*?)</done>`)
	doneBareRe   = regexp.MustCompile(`<done\s*/>`)
)

type located struct {
	pos    int
	action Action
}

// Parse extracts every tagged action from a model response, preserving
// source order. Unrecognized text is ignored; an empty response parses to
// no actions.
func Parse(response string) []Action {
	var found []located

	for _, m := range writeFileRe.FindAllStringSubmatchIndex(response, -1) {
		found = append(found, located{
			pos: m[0],
			action: WriteFile{
				Path:    response[m[2]:m[3]],
				Content: strings.TrimSpace(response[m[4]:m[5]]),
			},
		})
	}
	for _, m := range runCommandRe.FindAllStringSubmatchIndex(response, -1) {
		command := strings.TrimSpace(response[m[2]:m[3]])
		if command == "" {
			continue
		}
		found = append(found, located{pos: m[0], action: RunCommand{Command: command}})
	}
	for _, m := range readFileRe.FindAllStringSubmatchIndex(response, -1) {
		found = append(found, located{pos: m[0], action: ReadFile{Path: response[m[2]:m[3]]}})
	}
	for _, m := range listFilesRe.FindAllStringSubmatchIndex(response, -1) {
		found = append(found, located{pos: m[0], action: ListFiles{Path: response[m[2]:m[3]]}})
	}
	if m := doneRe.FindStringSubmatchIndex(response); m != nil {
		found = append(found, located{
			pos:    m[0],
			action: Done{Message: strings.TrimSpace(response[m[2]:m[3]])},
		})
	} else if m := doneBareRe.FindStringIndex(response); m != nil {
		found = append(found, located{pos: m[0], action: Done{}})
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].pos < found[j].pos })

	out := make([]Action, 0, len(found))
	for _, f := range found {
		out = append(out, f.action)
	}
	return out
}
