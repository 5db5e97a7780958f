// Package dump reads, validates and writes abidiff type-graph dumps.
//
// Dumps are JSON documents produced by the header front end. They are
// checked against an embedded CUE schema before decoding, so malformed
// input is reported with a file position instead of surfacing later as a
// confusing diff.
package dump

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/roach88/abidiff/internal/ir"
)

//go:embed schema.cue
var schemaCUE string

// Load error codes (E200-E299). Consistency codes live in validate.go.
const (
	ErrCodeReadFailed  = "E201" // dump file could not be read
	ErrCodeParseFailed = "E202" // dump is not valid JSON
	ErrCodeSchema      = "E203" // dump violates the schema
	ErrCodeDecode      = "E204" // dump could not be decoded into the model
)

// LoadError represents an error that occurred while loading a dump.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // position in the dump, if known
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load reads the dump at path and fails on the first schema or
// consistency problem. A malformed dump is never partially loaded.
func Load(path string) (*ir.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading dump: %v", err)}
	}

	m, err := Parse(data, path)
	if err != nil {
		return nil, err
	}

	if verrs := Validate(m); len(verrs) > 0 {
		for _, v := range verrs[1:] {
			slog.Debug("additional dump inconsistency", "path", path, "error", v.Error())
		}
		return nil, &LoadError{Code: verrs[0].Code, Message: fmt.Sprintf("%s: %s", verrs[0].Field, verrs[0].Message)}
	}

	slog.Debug("dump loaded",
		"path", path,
		"records", len(m.RecordTypes),
		"enums", len(m.EnumTypes),
		"functions", len(m.Functions),
		"global_vars", len(m.GlobalVars))
	return m, nil
}

// Parse checks data against the dump schema and decodes it.
// Missing defaults are filled in (see applyDefaults). Parse does not run
// Validate so callers can collect every consistency error themselves.
func Parse(data []byte, filename string) (*ir.Module, error) {
	expr, err := cuejson.Extract(filename, data)
	if err != nil {
		return nil, loadErrorFromCUE(ErrCodeParseFailed, filename, err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling dump schema: %w", err)
	}

	value := ctx.BuildExpr(expr)
	if err := value.Err(); err != nil {
		return nil, loadErrorFromCUE(ErrCodeParseFailed, filename, err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Dump")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, loadErrorFromCUE(ErrCodeSchema, filename, err)
	}

	var m ir.Module
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&m); err != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Message: err.Error()}
	}

	applyDefaults(&m)
	return &m, nil
}

// loadErrorFromCUE keeps the first CUE error. Its position in the dump is
// preferred over positions inside the embedded schema.
func loadErrorFromCUE(code, filename string, err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}

	first := errs[0]
	loadErr := &LoadError{Code: code, Message: first.Error()}
	for _, pos := range errors.Positions(first) {
		if pos.Filename() == filename {
			loadErr.Pos = pos
			break
		}
	}
	return loadErr
}

// applyDefaults fills in values that older dumps leave out:
// access defaults to public, record kind to struct, ELF binding to global,
// a missing linker_set_key to the type name and a missing self_type to the
// linker_set_key (older dumps address types by name).
func applyDefaults(m *ir.Module) {
	for _, t := range m.Types() {
		info := t.Info()
		if info.LinkerSetKey == "" {
			info.LinkerSetKey = info.Name
		}
		if info.SelfType == "" {
			info.SelfType = info.LinkerSetKey
		}
	}

	for i := range m.RecordTypes {
		r := &m.RecordTypes[i]
		r.Access = defaultAccess(r.Access)
		if r.RecordKind == "" {
			r.RecordKind = ir.RecordStruct
		}
		for j := range r.Fields {
			r.Fields[j].Access = defaultAccess(r.Fields[j].Access)
		}
		for j := range r.BaseSpecifiers {
			r.BaseSpecifiers[j].Access = defaultAccess(r.BaseSpecifiers[j].Access)
		}
	}
	for i := range m.EnumTypes {
		m.EnumTypes[i].Access = defaultAccess(m.EnumTypes[i].Access)
	}
	for i := range m.Functions {
		m.Functions[i].Access = defaultAccess(m.Functions[i].Access)
	}
	for i := range m.GlobalVars {
		m.GlobalVars[i].Access = defaultAccess(m.GlobalVars[i].Access)
	}
	for i := range m.ElfFunctions {
		if m.ElfFunctions[i].Binding == "" {
			m.ElfFunctions[i].Binding = ir.BindingGlobal
		}
	}
	for i := range m.ElfObjects {
		if m.ElfObjects[i].Binding == "" {
			m.ElfObjects[i].Binding = ir.BindingGlobal
		}
	}
}

func defaultAccess(a ir.AccessSpecifier) ir.AccessSpecifier {
	if a == "" {
		return ir.AccessPublic
	}
	return a
}
