// Package workspace scans an evaluation workspace (one model's generated
// files for one case) and resolves the primary entry point using a
// priority-based search shared by the validator and the test runner.
package workspace

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Entry-point priority lists. The first name found wins; otherwise a
// root-level file, otherwise the first file discovered.
var (
	pythonPriority = []string{"main.py", "app.py", "index.py", "run.py", "server.py"}
	htmlPriority   = []string{"index.html", "main.html", "app.html"}
)

// Layout is the scanned content of one workspace directory.
type Layout struct {
	Root   string
	Python []string // absolute paths, sorted
	HTML   []string // absolute paths, sorted
}

// Scan walks root and collects Python and HTML artifacts.
func Scan(root string) (*Layout, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace path: %w", err)
	}

	l := &Layout{Root: abs}
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != abs {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".py":
			l.Python = append(l.Python, path)
		case ".html":
			l.HTML = append(l.HTML, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning workspace %q: %w", root, err)
	}

	sort.Strings(l.Python)
	sort.Strings(l.HTML)
	return l, nil
}

// Empty reports whether the workspace has no recognized artifacts.
func (l *Layout) Empty() bool {
	return len(l.Python) == 0 && len(l.HTML) == 0
}

// MainPython resolves the Python entry point.
func (l *Layout) MainPython() (string, bool) {
	if len(l.Python) == 0 {
		return "", false
	}
	for _, name := range pythonPriority {
		for _, f := range l.Python {
			if filepath.Base(f) == name {
				return f, true
			}
		}
	}
	// Prefer a root-level file over one buried in a subdirectory.
	for _, f := range l.Python {
		if filepath.Dir(f) == l.Root {
			return f, true
		}
	}
	return l.Python[0], true
}

// MainHTML resolves the HTML entry point.
func (l *Layout) MainHTML() (string, bool) {
	if len(l.HTML) == 0 {
		return "", false
	}
	for _, name := range htmlPriority {
		for _, f := range l.HTML {
			if filepath.Base(f) == name {
				return f, true
			}
		}
	}
	return l.HTML[0], true
}
