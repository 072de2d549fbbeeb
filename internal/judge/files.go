package judge

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// File collection limits for judge prompts.
const (
	DefaultMaxFiles  = 20
	maxFileChars     = 100000
	truncationMarker = "\n\n... (truncated)"
)

// codeExtensions are the file types worth showing a judge.
var codeExtensions = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".jsx": true, ".tsx": true,
	".html": true, ".css": true, ".json": true, ".yaml": true, ".yml": true,
	".toml": true, ".md": true, ".txt": true, ".sh": true, ".bash": true,
	".sql": true, ".go": true, ".rs": true, ".java": true,
}

// CollectCodeFiles gathers up to maxFiles code files from the workspace,
// keyed by path relative to it. Walk order is lexical, so the selection
// is deterministic. Oversized files are truncated.
func CollectCodeFiles(workspaceDir string, maxFiles int) (map[string]string, error) {
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}

	abs, err := filepath.Abs(workspaceDir)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace path: %w", err)
	}

	files := make(map[string]string)
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
		if len(files) >= maxFiles {
			return fs.SkipAll
		}
		if !codeExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			// Unreadable files are skipped, not fatal.
			return nil
		}
		text := string(content)
		if len(text) > maxFileChars {
			text = text[:maxFileChars] + truncationMarker
		}

		rel, err := filepath.Rel(abs, path)
		if err != nil {
			return err
		}
		files[rel] = text
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collecting code files from %q: %w", workspaceDir, err)
	}
	return files, nil
}
