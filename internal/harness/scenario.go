package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/abidiff/internal/report"
)

// Scenario defines one end-to-end comparison.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Old and New are paths to reference dumps.
	// Relative paths are resolved against the scenario file location.
	Old string `yaml:"old"`
	New string `yaml:"new"`

	Options Options `yaml:"options,omitempty"`

	// Expect lists what the report must contain.
	Expect Expect `yaml:"expect"`

	// Path is the file the scenario was loaded from, if any.
	Path string `yaml:"-"`
}

// Options mirror the compare command flags.
type Options struct {
	CheckAllAPIs bool `yaml:"check_all_apis"`
}

// Expect holds report assertions. A nil list is not checked.
type Expect struct {
	// Status is the expected compatibility status, e.g. "INCOMPATIBLE".
	Status string `yaml:"status,omitempty"`

	Breaking *bool `yaml:"breaking,omitempty"`

	// Name lists, compared in report order.
	FunctionsRemoved []string `yaml:"functions_removed,omitempty"`
	RecordTypeDiffs  []string `yaml:"record_type_diffs,omitempty"`
	EnumTypeDiffs    []string `yaml:"enum_type_diffs,omitempty"`
	FunctionDiffs    []string `yaml:"function_diffs,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "expects:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve dump paths relative to the scenario BEFORE validation
	base := filepath.Dir(path)
	scenario.Old = resolve(base, scenario.Old)
	scenario.New = resolve(base, scenario.New)
	scenario.Path = path

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Old == "" {
		return fmt.Errorf("old dump is required")
	}

	if s.New == "" {
		return fmt.Errorf("new dump is required")
	}

	for _, dump := range []string{s.Old, s.New} {
		if _, err := os.Stat(dump); os.IsNotExist(err) {
			return fmt.Errorf("dump file not found: %s", dump)
		}
	}

	if s.Expect.Status != "" {
		if _, err := report.ParseStatus(s.Expect.Status); err != nil {
			return fmt.Errorf("expect.status: %w", err)
		}
	}

	return nil
}
