package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"cuelang.org/go/cue/token"

	"github.com/roach88/abidiff/internal/diff"
	"github.com/roach88/abidiff/internal/dump"
	"github.com/roach88/abidiff/internal/elfsym"
	"github.com/roach88/abidiff/internal/ir"
)

// LoadError represents an error that occurred while loading an input.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // dump position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
// Dump codes (E1xx consistency, E2xx load) come from package dump.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeNotFile     = "E008" // Path is a directory
	ErrCodeBadBinary   = "E010" // Binary is not a parsable ELF shared object
	ErrCodeDangling    = "E020" // Type reference the dump does not define
	ErrCodeInternal    = "E021" // Internal consistency error in the diff
	ErrCodeDatabase    = "E030" // Archive could not be opened, read or written
)

// checkInputs fails fast on the first path that does not name a regular
// file, before any input is parsed.
func checkInputs(paths ...string) error {
	for _, path := range paths {
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			return &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("input not found: %s", path)}
		}
		if err != nil {
			return &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing %s: %v", path, err)}
		}
		if info.IsDir() {
			return &LoadError{Code: ErrCodeNotFile, Message: fmt.Sprintf("not a file: %s", path)}
		}
	}
	return nil
}

// loadDump loads and validates a dump, translating dump errors into
// LoadErrors that keep their code and position.
func loadDump(path string) (*ir.Module, error) {
	m, err := dump.Load(path)
	if err != nil {
		var dumpErr *dump.LoadError
		if errors.As(err, &dumpErr) {
			return nil, &LoadError{Code: dumpErr.Code, Message: fmt.Sprintf("%s: %s", path, dumpErr.Message), Pos: dumpErr.Pos}
		}
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("%s: %v", path, err)}
	}
	for _, cycle := range dump.AnalyzeCycles(m) {
		slog.Debug("recursive type", "path", path, "cycle", cycle.Message)
	}
	return m, nil
}

// extractSymbols reads the exported symbols of a binary. A file that is
// not a usable ELF shared object is fatal here.
func extractSymbols(path string) (*ir.ExportedSymbolSet, error) {
	syms, err := elfsym.Extract(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}
	if syms == nil {
		return nil, &LoadError{Code: ErrCodeBadBinary, Message: fmt.Sprintf("unusable binary: %s is not an ELF shared object", path)}
	}
	slog.Debug("symbols extracted", "path", path, "functions", len(syms.Functions), "objects", len(syms.Objects))
	return syms, nil
}

// newGraph indexes a loaded dump.
func newGraph(path string, m *ir.Module) (*ir.Graph, error) {
	g, err := ir.NewGraph(m)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInternal, Message: fmt.Sprintf("%s: %v", path, err)}
	}
	return g, nil
}

// diffErrorCode maps a comparison error to its CLI error code.
func diffErrorCode(err error) string {
	if diff.IsDanglingReference(err) {
		return ErrCodeDangling
	}
	return ErrCodeInternal
}

// loadErrorCode returns the code of a LoadError, or ErrCodeGeneric.
func loadErrorCode(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	return ErrCodeGeneric
}
