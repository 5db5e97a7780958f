package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// defaultGoldenDir holds golden files of scenarios built in code.
const defaultGoldenDir = "testdata/golden"

// GoldenPath returns the golden file of the scenario stored at
// scenarioFile: a sibling golden/ directory, named after the file.
func GoldenPath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// Snapshot returns the canonical JSON of the result's report.
func Snapshot(result *Result) ([]byte, error) {
	data, err := result.Report.Canonical()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return data, nil
}

// RunWithGolden executes a scenario, fails t on unmet expectations and
// compares the report against the scenario's golden file.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, e := range result.Errors {
		t.Errorf("%s: %s", scenario.Name, e)
	}

	dir, name := defaultGoldenDir, scenario.Name
	if scenario.Path != "" {
		golden := GoldenPath(scenario.Path)
		dir = filepath.Dir(golden)
		name = strings.TrimSuffix(filepath.Base(golden), ".golden")
	}
	return assertGolden(t, dir, name, result)
}

// AssertGolden compares an existing result against
// testdata/golden/<name>.golden without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()
	return assertGolden(t, defaultGoldenDir, name, result)
}

func assertGolden(t *testing.T, dir, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(dir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}

// UpdateGolden writes the result's report as the golden file at path.
func UpdateGolden(path string, result *Result) error {
	data, err := Snapshot(result)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// CompareGolden reports whether the golden file at path holds exactly the
// result's report.
func CompareGolden(path string, result *Result) (bool, error) {
	golden, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}
	current, err := Snapshot(result)
	if err != nil {
		return false, err
	}
	return bytes.Equal(golden, current), nil
}
