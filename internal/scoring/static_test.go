package scoring

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStaticReport_QualityScore(t *testing.T) {
	tests := []struct {
		name   string
		report StaticReport
		want   int
	}{
		{
			name: "clean code",
			report: StaticReport{
				FilesAnalyzed:     1,
				DocstringCoverage: 0.9,
				HasErrorHandling:  true,
			},
			want: 10,
		},
		{
			name:   "empty workspace keeps perfect score",
			report: StaticReport{},
			want:   9,
		},
		{
			name: "syntax errors capped at five points",
			report: StaticReport{
				FilesAnalyzed:     1,
				SyntaxErrors:      4,
				DocstringCoverage: 0.9,
				HasErrorHandling:  true,
			},
			want: 5,
		},
		{
			name: "stacked penalties",
			report: StaticReport{
				FilesAnalyzed:     2,
				SyntaxErrors:      1,
				DocstringCoverage: 0.1,
				MaxFunctionLength: 120,
				ConsoleLogs:       8,
				TodoCount:         5,
				LongLines:         15,
			},
			// 10 - 2 - 1 - 1 - 0.5 - 1 - 0.5 - 0.5 = 3.5, rounds to 4
			want: 4,
		},
		{
			name: "floor at zero",
			report: StaticReport{
				FilesAnalyzed:     1,
				SyntaxErrors:      10,
				MaxFunctionLength: 200,
				ConsoleLogs:       20,
				TodoCount:         20,
				LongLines:         20,
			},
			want: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.report.QualityScore())
		})
	}
}

func TestStaticAnalyzer_AnalyzePython(t *testing.T) {
	dir := t.TempDir()
	source := `import json

def parse(raw: str) -> dict:
    """Parses raw JSON."""
    try:
        return json.loads(raw)
    except ValueError:
        return {}

def helper(x):
    return x
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"), []byte(source), 0o644))

	report := NewStaticAnalyzer().Analyze(dir)
	require.Equal(t, 1, report.FilesAnalyzed)
	require.True(t, report.HasErrorHandling)
	require.Equal(t, 1, report.TryExceptCount)
	require.Equal(t, 0.5, report.DocstringCoverage)
	require.Equal(t, 0.5, report.TypeHintCoverage)
	require.True(t, report.HasDocstrings)
	require.Equal(t, 0, report.SyntaxErrors)
	require.Greater(t, report.MaxFunctionLength, 0)
}

func TestStaticAnalyzer_SyntaxErrorSkipsMetrics(t *testing.T) {
	dir := t.TempDir()
	source := "def broken():\n    x = \"\"\"never closed\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.py"), []byte(source), 0o644))

	report := NewStaticAnalyzer().Analyze(dir)
	require.Equal(t, 1, report.SyntaxErrors)
	require.Len(t, report.Issues, 1)
	require.Equal(t, "syntax_error", report.Issues[0].Type)
	require.Equal(t, 0, report.MaxFunctionLength)
}

func TestStaticAnalyzer_AnalyzeWeb(t *testing.T) {
	dir := t.TempDir()
	html := `<html><body>
<script>
try { run(); } catch (e) { console.log(e); }
console.log("debug");
</script>
</body></html>`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(html), 0o644))

	fragment := "<div>no document element</div>"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "partial.html"), []byte(fragment), 0o644))

	report := NewStaticAnalyzer().Analyze(dir)
	require.Equal(t, 2, report.FilesAnalyzed)
	require.Equal(t, 2, report.ConsoleLogs)
	require.True(t, report.HasErrorHandling)
	require.Len(t, report.Issues, 1)
	require.Equal(t, "Missing <html> tag", report.Issues[0].Message)
}

func TestStaticAnalyzer_EmptyWorkspace(t *testing.T) {
	report := NewStaticAnalyzer().Analyze(t.TempDir())
	require.Equal(t, 0, report.FilesAnalyzed)
	require.Equal(t, 9, report.QualityScore())
}

func TestStaticReport_MarshalJSON(t *testing.T) {
	report := &StaticReport{
		FilesAnalyzed:     1,
		AvgFunctionLength: 7.4444,
		DocstringCoverage: 0.6666,
		Issues:            make([]Issue, 30),
	}
	data, err := json.Marshal(report)
	require.NoError(t, err)

	text := string(data)
	require.Contains(t, text, `"avg_function_length":7.4`)
	require.Contains(t, text, `"docstring_coverage":0.67`)
	require.Equal(t, 20, strings.Count(text, `"file"`))
}
