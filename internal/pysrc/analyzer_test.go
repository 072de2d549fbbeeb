package pysrc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnalyze_Imports(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{
			name:   "plain imports",
			source: "import json\nimport os\nimport sys\n",
			want:   []string{"json", "os", "sys"},
		},
		{
			name:   "comma separated with alias",
			source: "import json, os as operating_system\n",
			want:   []string{"json", "os"},
		},
		{
			name:   "from import keeps top module",
			source: "from collections.abc import Mapping\n",
			want:   []string{"collections"},
		},
		{
			name:   "relative imports are local",
			source: "from . import helpers\nfrom .models import User\n",
			want:   nil,
		},
		{
			name:   "imports inside strings are masked",
			source: "text = \"import pandas\"\n# import numpy\n",
			want:   nil,
		},
		{
			name:   "duplicates collapse",
			source: "import os\nimport os.path\n",
			want:   []string{"os"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Analyze(tt.source).Imports)
		})
	}
}

func TestAudit(t *testing.T) {
	tests := []struct {
		name        string
		source      string
		wantValid   bool
		wantIllegal []string
	}{
		{"stdlib only", "import json, os, sys\n", true, nil},
		{"third party", "import pandas\n", false, []string{"pandas"}},
		{"mixed", "import os\nimport requests\nimport numpy\n", false, []string{"numpy", "requests"}},
		{"empty source", "", true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, illegal := Audit(tt.source)
			require.Equal(t, tt.wantValid, valid)
			require.Equal(t, tt.wantIllegal, illegal)
		})
	}
}

func TestAnalyze_Functions(t *testing.T) {
	source := `def documented(x: int) -> int:
    """Adds one."""
    return x + 1

def bare(y):
    return y * 2

async def fetch(url: str):
    pass
`
	a := Analyze(source)
	require.Len(t, a.Functions, 3)

	require.Equal(t, "documented", a.Functions[0].Name)
	require.True(t, a.Functions[0].HasDocstring)
	require.True(t, a.Functions[0].HasTypeHint)

	require.Equal(t, "bare", a.Functions[1].Name)
	require.False(t, a.Functions[1].HasDocstring)
	require.False(t, a.Functions[1].HasTypeHint)

	require.Equal(t, "fetch", a.Functions[2].Name)
	require.True(t, a.Functions[2].HasTypeHint)

	require.InDelta(t, 1.0/3.0, a.DocstringCoverage(), 1e-9)
	require.InDelta(t, 2.0/3.0, a.TypeHintCoverage(), 1e-9)
}

func TestAnalyze_FunctionLength(t *testing.T) {
	source := `def long_one():
    a = 1
    b = 2
    c = 3
    return a + b + c

x = long_one()
`
	a := Analyze(source)
	require.Len(t, a.Functions, 1)
	require.Equal(t, 5, a.Functions[0].Length)
}

func TestAnalyze_TextureCounters(t *testing.T) {
	source := strings.Join([]string{
		"import os",
		"try:",
		"    print(os.getcwd())",
		"except OSError:",
		"    pass",
		"# TODO: handle permissions",
		strings.Repeat("x", 130) + " = 1",
	}, "\n")

	a := Analyze(source)
	require.Equal(t, 1, a.TryCount)
	require.Equal(t, 1, a.DebugPrints)
	require.Equal(t, 1, a.TodoCount)
	require.Equal(t, 1, a.LongLines)
	require.Equal(t, 7, a.TotalLines)
}

func TestAnalyze_UnterminatedTripleQuote(t *testing.T) {
	a := Analyze("x = \"\"\"never closed\nimport pandas\n")
	require.True(t, a.Unterminated)
	// Content inside the open string never counts as code.
	require.Empty(t, a.Imports)
}

func TestIsStdlib(t *testing.T) {
	require.True(t, IsStdlib("json"))
	require.True(t, IsStdlib("collections"))
	require.False(t, IsStdlib("pandas"))
	require.False(t, IsStdlib("requests"))
}
