package dump

import (
	"fmt"
	"slices"

	"github.com/roach88/abidiff/internal/ir"
)

// Consistency error codes (E100-E199)
const (
	ErrMissingSelfType     = "E101" // type has no self_type after defaults
	ErrDuplicateSelfType   = "E102" // two types share a self_type
	ErrDuplicateLinkerKey  = "E103" // two entities share a linker_set_key in one namespace
	ErrMissingFunctionName = "E104" // function without a name
	ErrMissingLinkerKey    = "E105" // record or enum without a linker_set_key
	ErrSymbolKindConflict  = "E106" // ELF symbol listed as function and object
	ErrDuplicateElfSymbol  = "E107" // ELF symbol listed twice
	ErrInvalidAccess       = "E108" // unknown access specifier
	ErrInvalidRecordKind   = "E109" // unknown record kind
)

// ValidationError represents a dump consistency error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks the internal consistency of a decoded dump.
// Returns all errors found (does not fail-fast).
//
// Dangling type references are not checked here: they are reported by
// DanglingReferences and are fatal only when the diff reaches them.
func Validate(m *ir.Module) []ValidationError {
	var errs []ValidationError

	selfTypes := make(map[string]bool)
	for _, t := range m.Types() {
		info := t.Info()
		field := fmt.Sprintf("%s %q", t.Kind(), info.Name)
		if info.SelfType == "" {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "self_type is required",
				Code:    ErrMissingSelfType,
			})
			continue
		}
		if selfTypes[info.SelfType] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate self_type: %q", info.SelfType),
				Code:    ErrDuplicateSelfType,
			})
		}
		selfTypes[info.SelfType] = true
	}

	recordKeys := make(map[string]bool)
	for i, r := range m.RecordTypes {
		field := fmt.Sprintf("record_types[%d]", i)
		errs = append(errs, checkTypeKey(field, r.TypeInfo, recordKeys)...)
		errs = append(errs, checkAccess(field+".access", r.Access)...)
		if !ir.ValidRecordKinds[r.RecordKind] {
			errs = append(errs, ValidationError{
				Field:   field + ".record_kind",
				Message: fmt.Sprintf("unknown record kind: %q", r.RecordKind),
				Code:    ErrInvalidRecordKind,
			})
		}
		for j, f := range r.Fields {
			errs = append(errs, checkAccess(fmt.Sprintf("%s.fields[%d].access", field, j), f.Access)...)
		}
	}

	enumKeys := make(map[string]bool)
	for i, e := range m.EnumTypes {
		field := fmt.Sprintf("enum_types[%d]", i)
		errs = append(errs, checkTypeKey(field, e.TypeInfo, enumKeys)...)
		errs = append(errs, checkAccess(field+".access", e.Access)...)
	}

	functionKeys := make(map[string]bool)
	for i := range m.Functions {
		f := &m.Functions[i]
		field := fmt.Sprintf("functions[%d]", i)
		if f.FunctionName == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".function_name",
				Message: "function_name is required",
				Code:    ErrMissingFunctionName,
			})
			continue
		}
		if functionKeys[f.Key()] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate function linker_set_key: %q", f.Key()),
				Code:    ErrDuplicateLinkerKey,
			})
		}
		functionKeys[f.Key()] = true
		errs = append(errs, checkAccess(field+".access", f.Access)...)
	}

	varKeys := make(map[string]bool)
	for i := range m.GlobalVars {
		v := &m.GlobalVars[i]
		field := fmt.Sprintf("global_vars[%d]", i)
		if varKeys[v.Key()] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate global variable linker_set_key: %q", v.Key()),
				Code:    ErrDuplicateLinkerKey,
			})
		}
		varKeys[v.Key()] = true
		errs = append(errs, checkAccess(field+".access", v.Access)...)
	}

	errs = append(errs, checkElfSymbols(m)...)
	return errs
}

func checkTypeKey(field string, info ir.TypeInfo, seen map[string]bool) []ValidationError {
	if info.LinkerSetKey == "" {
		return []ValidationError{{
			Field:   field + ".type_info.linker_set_key",
			Message: "linker_set_key is required",
			Code:    ErrMissingLinkerKey,
		}}
	}
	if seen[info.LinkerSetKey] {
		return []ValidationError{{
			Field:   field,
			Message: fmt.Sprintf("duplicate linker_set_key: %q", info.LinkerSetKey),
			Code:    ErrDuplicateLinkerKey,
		}}
	}
	seen[info.LinkerSetKey] = true
	return nil
}

func checkAccess(field string, a ir.AccessSpecifier) []ValidationError {
	if ir.ValidAccess[a] {
		return nil
	}
	return []ValidationError{{
		Field:   field,
		Message: fmt.Sprintf("unknown access specifier: %q", a),
		Code:    ErrInvalidAccess,
	}}
}

func checkElfSymbols(m *ir.Module) []ValidationError {
	var errs []ValidationError

	functions := make(map[string]bool)
	for i, s := range m.ElfFunctions {
		if functions[s.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("elf_functions[%d]", i),
				Message: fmt.Sprintf("duplicate symbol: %q", s.Name),
				Code:    ErrDuplicateElfSymbol,
			})
		}
		functions[s.Name] = true
	}

	objects := make(map[string]bool)
	for i, s := range m.ElfObjects {
		field := fmt.Sprintf("elf_objects[%d]", i)
		if objects[s.Name] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate symbol: %q", s.Name),
				Code:    ErrDuplicateElfSymbol,
			})
		}
		objects[s.Name] = true
		if functions[s.Name] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("symbol %q is listed as both function and object", s.Name),
				Code:    ErrSymbolKindConflict,
			})
		}
	}
	return errs
}

// DanglingReferences returns every type id referenced somewhere in m that
// no type in m defines, sorted and deduplicated.
func DanglingReferences(m *ir.Module) []string {
	defined := make(map[string]bool)
	for _, t := range m.Types() {
		defined[t.Info().SelfType] = true
	}

	missing := make(map[string]bool)
	for _, ref := range references(m) {
		if ref.to != "" && !defined[ref.to] {
			missing[ref.to] = true
		}
	}

	out := make([]string, 0, len(missing))
	for id := range missing {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
