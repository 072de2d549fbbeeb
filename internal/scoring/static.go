package scoring

import (
	"encoding/json"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spboyer/vibeval/internal/pysrc"
)

// Issue is one noteworthy finding from static analysis.
type Issue struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// StaticReport carries code-quality metrics gathered without executing
// anything.
type StaticReport struct {
	FilesAnalyzed int
	TotalLines    int

	AvgFunctionLength float64
	MaxFunctionLength int

	HasDocstrings     bool
	DocstringCoverage float64
	HasTypeHints      bool
	TypeHintCoverage  float64

	SyntaxErrors int
	LongLines    int
	TodoCount    int
	ConsoleLogs  int

	HasErrorHandling bool
	TryExceptCount   int

	Issues []Issue
}

// QualityScore computes the 0-10 quality score from fixed penalties.
func (r *StaticReport) QualityScore() int {
	score := 10.0

	if r.SyntaxErrors > 0 {
		score -= math.Min(5, float64(r.SyntaxErrors)*2)
	}
	if r.DocstringCoverage < 0.5 {
		score -= 1
	}
	if r.MaxFunctionLength > 100 {
		score -= 1
	} else if r.MaxFunctionLength > 50 {
		score -= 0.5
	}
	if !r.HasErrorHandling && r.FilesAnalyzed > 0 {
		score -= 0.5
	}
	if r.ConsoleLogs > 5 {
		score -= 1
	}
	if r.TodoCount > 3 {
		score -= 0.5
	}
	if r.LongLines > 10 {
		score -= 0.5
	}

	return int(math.Max(0, math.Min(10, math.Round(score))))
}

type staticReportJSON struct {
	FilesAnalyzed     int     `json:"files_analyzed"`
	TotalLines        int     `json:"total_lines"`
	AvgFunctionLength float64 `json:"avg_function_length"`
	MaxFunctionLength int     `json:"max_function_length"`
	DocstringCoverage float64 `json:"docstring_coverage"`
	TypeHintCoverage  float64 `json:"type_hint_coverage"`
	HasErrorHandling  bool    `json:"has_error_handling"`
	SyntaxErrors      int     `json:"syntax_errors"`
	LongLines         int     `json:"long_lines"`
	TodoCount         int     `json:"todo_count"`
	ConsoleLogs       int     `json:"console_logs"`
	QualityScore      int     `json:"quality_score"`
	Issues            []Issue `json:"issues"`
}

// MarshalJSON includes the derived quality score and caps recorded
// issues.
func (r *StaticReport) MarshalJSON() ([]byte, error) {
	issues := r.Issues
	if len(issues) > 20 {
		issues = issues[:20]
	}
	return json.Marshal(staticReportJSON{
		FilesAnalyzed:     r.FilesAnalyzed,
		TotalLines:        r.TotalLines,
		AvgFunctionLength: math.Round(r.AvgFunctionLength*10) / 10,
		MaxFunctionLength: r.MaxFunctionLength,
		DocstringCoverage: math.Round(r.DocstringCoverage*100) / 100,
		TypeHintCoverage:  math.Round(r.TypeHintCoverage*100) / 100,
		HasErrorHandling:  r.HasErrorHandling,
		SyntaxErrors:      r.SyntaxErrors,
		LongLines:         r.LongLines,
		TodoCount:         r.TodoCount,
		ConsoleLogs:       r.ConsoleLogs,
		QualityScore:      r.QualityScore(),
		Issues:            issues,
	})
}

var consoleLogRe = regexp.MustCompile(`console\.(log|error|warn|debug)\s*\(`)

// StaticAnalyzer measures code quality across Python, HTML, and JS files.
type StaticAnalyzer struct{}

// NewStaticAnalyzer creates an analyzer.
func NewStaticAnalyzer() *StaticAnalyzer {
	return &StaticAnalyzer{}
}

// Analyze scans every code file in the workspace. File-level problems are
// recorded as issues; Analyze itself always returns a report.
func (s *StaticAnalyzer) Analyze(workspaceDir string) *StaticReport {
	report := &StaticReport{}

	var pyFiles, webFiles []string
	_ = filepath.WalkDir(workspaceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".py":
			pyFiles = append(pyFiles, path)
		case ".html", ".js":
			webFiles = append(webFiles, path)
		}
		return nil
	})

	var funcLengths []int
	var funcsTotal, withDocstring, withHints int

	for _, path := range pyFiles {
		content, err := os.ReadFile(path)
		if err != nil {
			report.Issues = append(report.Issues, Issue{
				File: filepath.Base(path), Type: "analysis_error", Message: err.Error(),
			})
			continue
		}

		a := pysrc.Analyze(string(content))
		report.TotalLines += a.TotalLines

		if a.Unterminated {
			report.SyntaxErrors++
			report.Issues = append(report.Issues, Issue{
				File: filepath.Base(path), Type: "syntax_error",
				Message: "unterminated string literal",
			})
			continue
		}

		for _, fn := range a.Functions {
			funcLengths = append(funcLengths, fn.Length)
			if fn.HasDocstring {
				withDocstring++
			}
			if fn.HasTypeHint {
				withHints++
			}
		}
		funcsTotal += len(a.Functions)

		report.TryExceptCount += a.TryCount
		if a.TryCount > 0 {
			report.HasErrorHandling = true
		}
		report.LongLines += a.LongLines
		report.TodoCount += a.TodoCount
		report.ConsoleLogs += a.DebugPrints
	}

	for _, path := range webFiles {
		s.analyzeWeb(path, report)
	}

	if len(funcLengths) > 0 {
		sum := 0
		for _, l := range funcLengths {
			sum += l
			if l > report.MaxFunctionLength {
				report.MaxFunctionLength = l
			}
		}
		report.AvgFunctionLength = float64(sum) / float64(len(funcLengths))
	}
	if funcsTotal > 0 {
		report.DocstringCoverage = float64(withDocstring) / float64(funcsTotal)
		report.TypeHintCoverage = float64(withHints) / float64(funcsTotal)
		report.HasDocstrings = withDocstring > 0
		report.HasTypeHints = withHints > 0
	}

	report.FilesAnalyzed = len(pyFiles) + len(webFiles)
	return report
}

func (s *StaticAnalyzer) analyzeWeb(path string, report *StaticReport) {
	content, err := os.ReadFile(path)
	if err != nil {
		report.Issues = append(report.Issues, Issue{
			File: filepath.Base(path), Type: "analysis_error", Message: err.Error(),
		})
		return
	}
	text := string(content)
	lines := strings.Split(text, "\n")
	report.TotalLines += len(lines)

	report.ConsoleLogs += len(consoleLogRe.FindAllString(text, -1))
	report.TodoCount += strings.Count(text, "TODO") + strings.Count(text, "FIXME")

	for _, line := range lines {
		if len(line) > 120 {
			report.LongLines++
		}
	}

	if strings.Contains(text, "try") && strings.Contains(text, "catch") {
		report.HasErrorHandling = true
	}

	if strings.EqualFold(filepath.Ext(path), ".html") &&
		!strings.Contains(strings.ToLower(text), "<html") {
		report.Issues = append(report.Issues, Issue{
			File: filepath.Base(path), Type: "warning", Message: "Missing <html> tag",
		})
	}
}
