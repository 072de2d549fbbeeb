// Package pysrc extracts structural facts from Python source: imported
// module names, per-function metrics, and error-handling presence. It is
// the static-analysis adapter behind the import auditor and the code
// quality analyzer.
//
// The extraction is scanner-based rather than a full parser. The contract
// is the extracted fields, not parse fidelity: string and comment content
// is masked before any pattern matching, which is enough for the
// generated-code reality this engine sees. Syntax validity is decided
// elsewhere, by the interpreter itself.
package pysrc

import (
	"regexp"
	"sort"
	"strings"
)

// FunctionInfo describes one function definition.
type FunctionInfo struct {
	Name         string
	Length       int // lines, def line through last body line
	HasDocstring bool
	HasTypeHint  bool
}

// SourceAnalysis holds everything extracted from one Python file.
type SourceAnalysis struct {
	Imports     []string // sorted unique top-level module names
	Functions   []FunctionInfo
	TryCount    int
	TotalLines  int
	LongLines   int // lines > 120 chars
	TodoCount   int // TODO/FIXME markers
	DebugPrints int // print( calls outside comments and strings

	// Unterminated is set when a triple-quoted string never closes; the
	// best syntax signal a scanner can give.
	Unterminated bool
}

var (
	importRe     = regexp.MustCompile(`^\s*import\s+(.+)$`)
	fromImportRe = regexp.MustCompile(`^\s*from\s+([.\w]+)\s+import\b`)
	defRe        = regexp.MustCompile(`^(\s*)(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(`)
	tryRe        = regexp.MustCompile(`^\s*try\s*:`)
	printRe      = regexp.MustCompile(`\bprint\s*\(`)
	typeHintRe   = regexp.MustCompile(`(?:\(|,)\s*\*{0,2}[A-Za-z_]\w*\s*:`)
)

// Analyze extracts a SourceAnalysis from Python source text.
func Analyze(source string) *SourceAnalysis {
	rawLines := strings.Split(source, "\n")
	masked, inTriple, unterminated := maskStrings(rawLines)

	a := &SourceAnalysis{
		TotalLines:   len(rawLines),
		Unterminated: unterminated,
	}

	imports := map[string]struct{}{}

	for i, raw := range rawLines {
		if len(raw) > 120 {
			a.LongLines++
		}
		if strings.Contains(raw, "TODO") || strings.Contains(raw, "FIXME") {
			a.TodoCount++
		}

		// Everything below only applies to real code lines.
		if inTriple[i] {
			continue
		}
		code := masked[i]

		if printRe.MatchString(code) {
			a.DebugPrints++
		}
		if tryRe.MatchString(code) {
			a.TryCount++
		}

		if m := importRe.FindStringSubmatch(code); m != nil {
			for _, part := range strings.Split(m[1], ",") {
				name := strings.TrimSpace(part)
				if idx := strings.Index(name, " as "); idx >= 0 {
					name = name[:idx]
				}
				name = strings.TrimSpace(name)
				if top := topModule(name); top != "" {
					imports[top] = struct{}{}
				}
			}
		} else if m := fromImportRe.FindStringSubmatch(code); m != nil {
			// Relative imports are local, not dependencies.
			if !strings.HasPrefix(m[1], ".") {
				if top := topModule(m[1]); top != "" {
					imports[top] = struct{}{}
				}
			}
		}

		if m := defRe.FindStringSubmatch(code); m != nil {
			a.Functions = append(a.Functions, analyzeFunction(rawLines, masked, inTriple, i, len(m[1]), m[2]))
		}
	}

	for name := range imports {
		a.Imports = append(a.Imports, name)
	}
	sort.Strings(a.Imports)

	return a
}

// IllegalImports returns the imported names not on the stdlib allow-list,
// sorted.
func (a *SourceAnalysis) IllegalImports() []string {
	var illegal []string
	for _, name := range a.Imports {
		if !IsStdlib(name) {
			illegal = append(illegal, name)
		}
	}
	return illegal
}

// Audit parses source and checks its imports against the stdlib
// allow-list. It reports (valid, illegal imports sorted).
func Audit(source string) (bool, []string) {
	illegal := Analyze(source).IllegalImports()
	return len(illegal) == 0, illegal
}

// DocstringCoverage returns the fraction of functions with docstrings, or
// 0 when there are none.
func (a *SourceAnalysis) DocstringCoverage() float64 {
	if len(a.Functions) == 0 {
		return 0.0
	}
	n := 0
	for _, f := range a.Functions {
		if f.HasDocstring {
			n++
		}
	}
	return float64(n) / float64(len(a.Functions))
}

// TypeHintCoverage returns the fraction of functions with annotations, or
// 0 when there are none.
func (a *SourceAnalysis) TypeHintCoverage() float64 {
	if len(a.Functions) == 0 {
		return 0.0
	}
	n := 0
	for _, f := range a.Functions {
		if f.HasTypeHint {
			n++
		}
	}
	return float64(n) / float64(len(a.Functions))
}

func topModule(dotted string) string {
	dotted = strings.TrimSpace(dotted)
	if dotted == "" || strings.HasPrefix(dotted, ".") {
		return ""
	}
	if idx := strings.Index(dotted, "."); idx >= 0 {
		dotted = dotted[:idx]
	}
	return dotted
}

// analyzeFunction measures one function starting at defLine with the given
// indent width.
func analyzeFunction(raw, masked []string, inTriple []bool, defLine, indent int, name string) FunctionInfo {
	fi := FunctionInfo{Name: name, Length: 1}

	// Walk the signature until the parameter parens balance out.
	sigEnd := defLine
	balance := 0
	opened := false
	var sig strings.Builder
	for i := defLine; i < len(masked); i++ {
		sig.WriteString(masked[i])
		for _, c := range masked[i] {
			switch c {
			case '(':
				balance++
				opened = true
			case ')':
				balance--
			}
		}
		sigEnd = i
		if opened && balance <= 0 {
			break
		}
	}
	signature := sig.String()
	fi.HasTypeHint = strings.Contains(signature, "->") || typeHintRe.MatchString(signature)

	// First statement after the signature decides the docstring.
	for i := sigEnd + 1; i < len(raw); i++ {
		trimmed := strings.TrimSpace(raw[i])
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		lit := strings.TrimLeft(trimmed, "rbufRBUF")
		fi.HasDocstring = strings.HasPrefix(lit, `"""`) || strings.HasPrefix(lit, "'''") ||
			strings.HasPrefix(lit, `"`) || strings.HasPrefix(lit, `'`)
		break
	}

	// Body extends while lines are blank, deeper-indented, or inside a
	// multi-line string.
	last := sigEnd
	for i := sigEnd + 1; i < len(raw); i++ {
		trimmed := strings.TrimSpace(raw[i])
		if trimmed == "" {
			continue
		}
		if !inTriple[i] && indentWidth(raw[i]) <= indent {
			break
		}
		last = i
	}
	fi.Length = last - defLine + 1

	return fi
}

func indentWidth(line string) int {
	n := 0
	for _, c := range line {
		if c == ' ' || c == '\t' {
			n++
			continue
		}
		break
	}
	return n
}

// maskStrings blanks out string literal and comment content so pattern
// matching only sees code. Returns the masked lines, a per-line flag for
// lines that begin inside a triple-quoted string, and whether a triple
// quote was left unterminated.
func maskStrings(lines []string) (masked []string, inTriple []bool, unterminated bool) {
	masked = make([]string, len(lines))
	inTriple = make([]bool, len(lines))

	// State carried across lines: the active triple-quote delimiter, or
	// empty when outside any multi-line string.
	tripleDelim := ""

	for i, line := range lines {
		inTriple[i] = tripleDelim != ""
		out := []byte(line)

		j := 0
		quote := byte(0) // active single-line quote char
		for j < len(line) {
			switch {
			case tripleDelim != "":
				if strings.HasPrefix(line[j:], tripleDelim) {
					out[j], out[j+1], out[j+2] = ' ', ' ', ' '
					j += 3
					tripleDelim = ""
					continue
				}
				out[j] = ' '
				j++
			case quote != 0:
				if line[j] == '\\' && j+1 < len(line) {
					out[j] = ' '
					out[j+1] = ' '
					j += 2
					continue
				}
				if line[j] == quote {
					out[j] = ' '
					quote = 0
					j++
					continue
				}
				out[j] = ' '
				j++
			default:
				c := line[j]
				if c == '#' {
					for k := j; k < len(line); k++ {
						out[k] = ' '
					}
					j = len(line)
					continue
				}
				if c == '"' || c == '\'' {
					delim := line[j : j+1]
					if strings.HasPrefix(line[j:], delim+delim+delim) {
						tripleDelim = delim + delim + delim
						out[j], out[j+1], out[j+2] = ' ', ' ', ' '
						j += 3
						continue
					}
					quote = c
					out[j] = ' '
					j++
					continue
				}
				j++
			}
		}
		masked[i] = string(out)
	}

	return masked, inTriple, tripleDelim != ""
}
