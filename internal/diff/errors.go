package diff

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/abidiff/internal/ir"
)

// ErrorCode categorizes diff errors.
type ErrorCode string

const (
	// ErrCodeDanglingReference means a type id could not be resolved in its
	// own graph. The dump is corrupt; the comparison cannot continue.
	ErrCodeDanglingReference ErrorCode = "DANGLING_REFERENCE"

	// ErrCodeInconsistentReport means the report assembler rejected a diff
	// message. This is a bug in the engine.
	ErrCodeInconsistentReport ErrorCode = "INCONSISTENT_REPORT"
)

// Error is a fatal comparison failure. Path is the chain of entity and type
// names being compared when it happened, outermost first.
type Error struct {
	Code    ErrorCode
	Message string
	Path    []string
	Err     error
}

func (e *Error) Error() string {
	if len(e.Path) > 0 {
		return fmt.Sprintf("%s: %s (at %s)", e.Code, e.Message, strings.Join(e.Path, " -> "))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsDanglingReference reports whether err was caused by an unresolvable
// type id. Uses errors.As to handle wrapped errors.
func IsDanglingReference(err error) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == ErrCodeDanglingReference
	}
	var dr *ir.DanglingReferenceError
	return errors.As(err, &dr)
}

func newDanglingError(side string, cause error, path []string) *Error {
	return &Error{
		Code:    ErrCodeDanglingReference,
		Message: fmt.Sprintf("%s dump: %v", side, cause),
		Path:    append([]string(nil), path...),
		Err:     cause,
	}
}
