package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/abidiff/internal/diff"
	"github.com/roach88/abidiff/internal/dump"
	"github.com/roach88/abidiff/internal/ir"
	"github.com/roach88/abidiff/internal/report"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation matched.
	Pass bool `json:"pass"`

	// Report is the comparison report the expectations ran against.
	Report *report.Report `json:"report"`

	// Errors contains one message per failed expectation.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(r *report.Report) *Result {
	return &Result{Pass: true, Report: r, Errors: []string{}}
}

// AddError adds a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Run executes a scenario and returns the result.
//
// An error means the scenario could not be executed at all (a dump failed
// to load or the diff hit a dangling reference). Unmet expectations are
// reported through Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunContext is Run with an explicit context and logger.
func RunContext(ctx context.Context, scenario *Scenario, logger *slog.Logger) (*Result, error) {
	old, err := loadGraph(scenario.Old)
	if err != nil {
		return nil, fmt.Errorf("old dump: %w", err)
	}
	new, err := loadGraph(scenario.New)
	if err != nil {
		return nil, fmt.Errorf("new dump: %w", err)
	}

	lib, arch := old.Module().LibName, old.Module().Arch
	if lib == "" {
		lib, arch = new.Module().LibName, new.Module().Arch
	}

	r, err := diff.Run(ctx, old, new, diff.Options{
		CheckAllAPIs: scenario.Options.CheckAllAPIs,
		LibName:      lib,
		Arch:         arch,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("comparison failed: %w", err)
	}

	result := NewResult(r)
	for _, msg := range EvaluateExpect(r, scenario.Expect) {
		result.AddError(msg)
	}
	return result, nil
}

func loadGraph(path string) (*ir.Graph, error) {
	m, err := dump.Load(path)
	if err != nil {
		return nil, err
	}
	return ir.NewGraph(m)
}

// EvaluateExpect checks r against every expectation that is set and
// returns one message per mismatch.
func EvaluateExpect(r *report.Report, expect Expect) []string {
	var errs []string

	if expect.Status != "" && expect.Status != r.CompatibilityStatus.String() {
		errs = append(errs, fmt.Sprintf("status: expected %s, got %s", expect.Status, r.CompatibilityStatus))
	}
	if expect.Breaking != nil && *expect.Breaking != r.Breaking() {
		errs = append(errs, fmt.Sprintf("breaking: expected %t, got %t", *expect.Breaking, r.Breaking()))
	}

	lists := []struct {
		key  string
		want []string
		got  func() []string
	}{
		{"functions_removed", expect.FunctionsRemoved, func() []string { return functionNames(r.FunctionsRemoved) }},
		{"record_type_diffs", expect.RecordTypeDiffs, func() []string { return recordDiffNames(r.RecordTypeDiffs) }},
		{"enum_type_diffs", expect.EnumTypeDiffs, func() []string { return enumDiffNames(r.EnumTypeDiffs) }},
		{"function_diffs", expect.FunctionDiffs, func() []string { return functionDiffNames(r.FunctionDiffs) }},
	}
	for _, l := range lists {
		if l.want == nil {
			continue
		}
		if d := cmp.Diff(l.want, l.got()); d != "" {
			errs = append(errs, fmt.Sprintf("%s mismatch (-want +got):\n%s", l.key, d))
		}
	}
	return errs
}

func functionNames(fns []ir.Function) []string {
	out := make([]string, 0, len(fns))
	for _, f := range fns {
		out = append(out, f.FunctionName)
	}
	return out
}

func recordDiffNames(diffs []report.RecordTypeDiff) []string {
	out := make([]string, 0, len(diffs))
	for _, d := range diffs {
		out = append(out, d.Name)
	}
	return out
}

func enumDiffNames(diffs []report.EnumTypeDiff) []string {
	out := make([]string, 0, len(diffs))
	for _, d := range diffs {
		out = append(out, d.Name)
	}
	return out
}

func functionDiffNames(diffs []report.FunctionDeclDiff) []string {
	out := make([]string, 0, len(diffs))
	for _, d := range diffs {
		out = append(out, d.Name)
	}
	return out
}
