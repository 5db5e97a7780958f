package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/abidiff/internal/dump"
)

// DumpValidation is the validation outcome of one dump.
type DumpValidation struct {
	Path     string                 `json:"path"`
	Valid    bool                   `json:"valid"`
	Errors   []dump.ValidationError `json:"errors,omitempty"`
	Dangling []string               `json:"dangling_references,omitempty"`
	Cycles   []dump.TypeCycle       `json:"recursive_types,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Dumps []DumpValidation `json:"dumps"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <dump>...",
		Short: "Check dumps against the schema without comparing",
		Long: `Validate dumps against the dump schema and check their consistency.

Every consistency error of a dump is listed, not just the first one.
Type references that no type in the dump defines are reported as
warnings: a comparison fails on them only if it reaches them.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if err := checkInputs(paths...); err != nil {
		return failLoad(formatter, err)
	}

	result := ValidationResult{Valid: true, Dumps: make([]DumpValidation, 0, len(paths))}
	for _, path := range paths {
		formatter.VerboseLog("Validating %s", path)
		v, err := validateDump(path)
		if err != nil {
			return failLoad(formatter, err)
		}
		if !v.Valid {
			result.Valid = false
		}
		result.Dumps = append(result.Dumps, v)
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// validateDump runs the schema check and every consistency check on one
// dump. Schema and syntax problems stop the checks and are returned as a
// single error entry; unreadable files are returned as errors.
func validateDump(path string) (DumpValidation, error) {
	v := DumpValidation{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		return v, &LoadError{Code: dump.ErrCodeReadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}

	m, err := dump.Parse(data, path)
	if err != nil {
		var loadErr *dump.LoadError
		if !errors.As(err, &loadErr) {
			return v, err
		}
		v.Errors = []dump.ValidationError{{
			Field:   positionField(path, loadErr),
			Message: loadErr.Message,
			Code:    loadErr.Code,
		}}
		return v, nil
	}

	v.Errors = dump.Validate(m)
	v.Valid = len(v.Errors) == 0
	v.Dangling = dump.DanglingReferences(m)
	v.Cycles = dump.AnalyzeCycles(m)
	return v, nil
}

// positionField names where a load error happened, line and column
// included when the schema check knows them.
func positionField(path string, err *dump.LoadError) string {
	if err.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d", path, err.Pos.Line(), err.Pos.Column())
	}
	return path
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	for _, d := range result.Dumps {
		fmt.Fprintf(formatter.Writer, "✓ %s\n", d.Path)
		writeWarnings(formatter, d)
	}
	fmt.Fprintln(formatter.Writer, "✓ All dumps valid")
	return nil
}

// outputValidationErrors outputs every error of every invalid dump.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	count := 0
	var first *dump.ValidationError
	for _, d := range result.Dumps {
		count += len(d.Errors)
		if first == nil && len(d.Errors) > 0 {
			first = &d.Errors[0]
		}
	}

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    first.Code,
				Message: first.Message,
			},
		}
		if err := writeJSON(formatter.Writer, response); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("validation failed with %d error(s)", count))
	}

	// Text format
	for _, d := range result.Dumps {
		if d.Valid {
			fmt.Fprintf(formatter.Writer, "✓ %s\n", d.Path)
			writeWarnings(formatter, d)
			continue
		}
		fmt.Fprintf(formatter.Writer, "✗ %s\n", d.Path)
		for _, e := range d.Errors {
			fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n", e.Code, e.Field, e.Message)
		}
		writeWarnings(formatter, d)
	}
	fmt.Fprintln(formatter.Writer)
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")

	// Malformed dumps are fatal input errors.
	return NewExitError(ExitCommandError, fmt.Sprintf("validation failed with %d error(s)", count))
}

func writeWarnings(formatter *OutputFormatter, d DumpValidation) {
	for _, id := range d.Dangling {
		fmt.Fprintf(formatter.Writer, "  warning: undefined type %q\n", id)
	}
	for _, c := range d.Cycles {
		formatter.VerboseLog("  %s", c.Message)
	}
}
