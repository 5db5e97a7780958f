package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // No breaking difference, or --advice-only
	ExitFailure      = 1 // ABI break found, or scenarios failed
	ExitCommandError = 2 // Fatal input or consistency error (missing file, malformed dump, dangling reference)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil and ExitCommandError (2) if the error is not
// an ExitError: exit code 1 is reserved for reported ABI breaks.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// OutputFormatter renders command results as text for a terminal or as a
// single JSON document for scripts (--format json). Diagnostics never go
// to Writer in JSON mode.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // verbose diagnostics; nil means Writer
	Verbose   bool
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status string      `json:"status"`           // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`   // command result
	Error  *CLIError   `json:"error,omitempty"`  // set when Status is "error"
	RunID  string      `json:"run_id,omitempty"` // archived run, if any
}

// CLIError describes why a command could not produce a result.
// Code is one of the ErrCode constants in loader.go or a dump load code.
type CLIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"` // e.g. the validation errors of a dump
}

// Success writes data: a compact JSON envelope, or data's text form.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error writes a failure. In text mode the details are printed only with
// --verbose, one line per element when details is a slice of strings.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "✗ %s: %s\n", code, message)
	if !f.Verbose || details == nil {
		return nil
	}
	if lines, ok := details.([]string); ok {
		for _, line := range lines {
			fmt.Fprintf(f.Writer, "  %s\n", line)
		}
		return nil
	}
	fmt.Fprintf(f.Writer, "  %v\n", details)
	return nil
}

// VerboseLog writes a progress line with --verbose, to ErrWriter when set
// so that JSON on Writer stays parseable.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// writeJSON encodes v as indented JSON. Used for reports, which are read
// by people as often as by tools.
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
