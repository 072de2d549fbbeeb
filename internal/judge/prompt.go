package judge

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/spboyer/vibeval/internal/models"
)

// scoringPrompt is the judging contract. The response shape at the bottom
// is what ParseAbsoluteScore expects.
const scoringPrompt = `You are a STRICT code reviewer evaluating generated code. Your job is to find problems and score harshly but fairly.

## Original Spec:
%s
%s
## Generated Code:
%s

## CRITICAL: Scoring Guidelines

Score STRICTLY on a 0-10 scale. Most implementations should score 4-7. Only exceptional, production-ready code gets 8+.

**Score anchors:**
- 0-2: Broken, won't run, or completely wrong approach
- 3-4: Partially works but has significant issues or missing features
- 5-6: Works for basic cases but has bugs, edge cases fail, or missing features
- 7-8: Solid implementation, works correctly, minor issues only
- 9-10: Production-quality, handles edge cases, excellent code - RARE

**Be harsh on:**
- Missing error handling: penalize heavily
- Missing features from spec: each missing feature = -2 points minimum
- Code that looks plausible but wouldn't actually work: low EXECUTES score
- Hardcoded values or shortcuts that bypass the real requirement
- Incomplete implementations (e.g., TODO comments, placeholder functions)
- External dependencies (pip install, npm install): AUTOMATIC score of 0 for EXECUTES

## Dimensions to score (5 dimensions):

1. EXECUTES (0-10): Would this ACTUALLY run without errors? Check imports, syntax, API usage.
   - If obvious runtime errors, score 3 or less
   - If uses external packages not in the Python stdlib, score 0
   - CRITICAL: This dimension has the highest weight (25%%)

2. FEATURES_COMPLETE (0-10): Check EACH feature in the spec.
   - Missing ANY feature = max score of 6
   - Missing HALF = max score of 3

3. OUTPUT_QUALITY (0-10): Would output actually match expectations?
   - Verify the logic produces correct results

4. DIRECTION_FOLLOWING (0-10): Did they build EXACTLY what was asked?
   - Wrong framework, extra unwanted features, or misinterpreting the spec = penalize

5. CODE_QUALITY (0-10): Is it readable, well-organized, idiomatic?
   - No error handling = max 5
   - Poor structure = max 6

Respond ONLY with JSON:
{
  "executes": {"score": N, "reason": "..."},
  "features_complete": {"score": N, "reason": "..."},
  "output_quality": {"score": N, "reason": "..."},
  "direction_following": {"score": N, "reason": "..."},
  "code_quality": {"score": N, "reason": "..."}
}`

// BuildPrompt assembles the judging prompt for one workspace.
func BuildPrompt(spec string, files map[string]string, criteria string) string {
	criteriaSection := "\n"
	if criteria != "" {
		criteriaSection = fmt.Sprintf("\n## Additional Evaluation Criteria:\n%s\n\n", criteria)
	}
	return fmt.Sprintf(scoringPrompt, spec, criteriaSection, FormatCodeFiles(files))
}

// FormatCodeFiles renders files as fenced blocks in sorted path order so
// equal inputs always produce the identical prompt.
func FormatCodeFiles(files map[string]string) string {
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	parts := make([]string, 0, len(paths))
	for _, path := range paths {
		parts = append(parts, fmt.Sprintf("### %s\n```\n%s\n```", path, files[path]))
	}
	return strings.Join(parts, "\n\n")
}

var (
	fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")
	rawJSONRe    = regexp.MustCompile(`(?s)\{.*\}`)
)

// ExtractJSON pulls a JSON payload out of a model response, tolerating
// markdown fences and surrounding prose.
func ExtractJSON(text string) string {
	if m := fencedJSONRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := rawJSONRe.FindString(text); m != "" {
		return m
	}
	return text
}

// ParseAbsoluteScore decodes a judge response into an AbsoluteScore. All
// five dimensions must be present.
func ParseAbsoluteScore(text string) (*models.AbsoluteScore, error) {
	var raw map[string]models.DimensionScore
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &raw); err != nil {
		return nil, fmt.Errorf("decoding judge response: %w", err)
	}

	score := &models.AbsoluteScore{}
	for _, name := range models.AbsoluteDimensions {
		dim, ok := raw[name]
		if !ok {
			return nil, fmt.Errorf("judge response missing dimension %q", name)
		}
		switch name {
		case "executes":
			score.Executes = dim
		case "features_complete":
			score.FeaturesComplete = dim
		case "output_quality":
			score.OutputQuality = dim
		case "direction_following":
			score.DirectionFollowing = dim
		case "code_quality":
			score.CodeQuality = dim
		}
	}
	return score, nil
}
