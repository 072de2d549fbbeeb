package config

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/spboyer/vibeval/internal/functest"
)

//go:embed case.schema.json
var schemaFS embed.FS

// defaultPrinter formats schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

// caseSchema is the compiled JSON Schema for case.yaml files.
var caseSchema *jsonschema.Schema

func init() {
	raw, err := schemaFS.ReadFile("case.schema.json")
	if err != nil {
		panic(fmt.Sprintf("reading embedded case schema: %v", err))
	}

	var schemaDoc any
	if err := json.Unmarshal(raw, &schemaDoc); err != nil {
		panic(fmt.Sprintf("parsing embedded case schema: %v", err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("case.schema.json", schemaDoc); err != nil {
		panic(fmt.Sprintf("adding case schema resource: %v", err))
	}
	caseSchema, err = compiler.Compile("case.schema.json")
	if err != nil {
		panic(fmt.Sprintf("compiling case schema: %v", err))
	}
}

// Case is one evaluation case: the task spec given to candidate models,
// optional extra judge criteria, and optional declarative checks.
type Case struct {
	Name     string
	Spec     string
	Criteria string
	Timeout  int // seconds, 0 means project default
	Checks   []functest.CheckConfig
}

// caseYAML is the case.yaml wire form.
type caseYAML struct {
	Name    string                 `yaml:"name"`
	Timeout int                    `yaml:"timeout"`
	Checks  []functest.CheckConfig `yaml:"checks"`
}

// LoadCase reads one case directory. spec.md is required; case.yaml and
// judge_criteria.md are optional. An invalid case.yaml fails the load.
func LoadCase(caseDir string) (*Case, error) {
	spec, err := os.ReadFile(filepath.Join(caseDir, "spec.md"))
	if err != nil {
		return nil, fmt.Errorf("case %q: no spec.md: %w", filepath.Base(caseDir), err)
	}

	c := &Case{
		Name: filepath.Base(caseDir),
		Spec: string(spec),
	}

	if criteria, err := os.ReadFile(filepath.Join(caseDir, "judge_criteria.md")); err == nil {
		c.Criteria = string(criteria)
	}

	data, err := os.ReadFile(filepath.Join(caseDir, "case.yaml"))
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("case %q: reading case.yaml: %w", c.Name, err)
	}

	if errs := ValidateCaseBytes(data); len(errs) > 0 {
		return nil, fmt.Errorf("case %q: invalid case.yaml: %s", c.Name, strings.Join(errs, "; "))
	}

	var cy caseYAML
	if err := yaml.Unmarshal(data, &cy); err != nil {
		return nil, fmt.Errorf("case %q: parsing case.yaml: %w", c.Name, err)
	}
	if cy.Name != "" {
		c.Name = cy.Name
	}
	c.Timeout = cy.Timeout
	c.Checks = cy.Checks
	return c, nil
}

// LoadCases loads every case directory under casesDir, sorted by name.
// filter (when non-empty) selects directory names to include. Broken
// cases are returned as errors keyed by directory name, not fatal.
func LoadCases(casesDir string, filter []string) ([]*Case, map[string]error, error) {
	entries, err := os.ReadDir(casesDir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading cases dir %q: %w", casesDir, err)
	}

	include := map[string]bool{}
	for _, name := range filter {
		include[name] = true
	}

	var cases []*Case
	broken := map[string]error{}
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if len(include) > 0 && !include[entry.Name()] {
			continue
		}
		c, err := LoadCase(filepath.Join(casesDir, entry.Name()))
		if err != nil {
			broken[entry.Name()] = err
			continue
		}
		cases = append(cases, c)
	}

	sort.Slice(cases, func(i, j int) bool { return cases[i].Name < cases[j].Name })
	return cases, broken, nil
}

// ValidateCaseBytes validates raw case.yaml bytes against the case
// schema, returning one message per violation.
func ValidateCaseBytes(data []byte) []string {
	var yamlDoc any
	if err := yaml.Unmarshal(data, &yamlDoc); err != nil {
		return []string{fmt.Sprintf("YAML parse error: %v", err)}
	}

	err := caseSchema.Validate(convertToJSONCompatible(yamlDoc))
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var errs []string
	collectSchemaErrors(ve, &errs)
	return errs
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}

// convertToJSONCompatible normalizes YAML-decoded values for schema
// validation.
func convertToJSONCompatible(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v2 := range val {
			result[k] = convertToJSONCompatible(v2)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, v2 := range val {
			result[i] = convertToJSONCompatible(v2)
		}
		return result
	default:
		return val
	}
}
