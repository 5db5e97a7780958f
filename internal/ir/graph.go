package ir

import (
	"fmt"
)

// UnexportedTypeName is shown in reports for a type id the graph cannot name.
const UnexportedTypeName = "type-unexported"

// DanglingReferenceError reports a type id that is absent from its own
// graph. It means the dump is corrupt or truncated and is always fatal.
type DanglingReferenceError struct {
	ID string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("dangling type reference %q", e.ID)
}

// GraphError reports a structural problem found while indexing a module.
type GraphError struct {
	Kind    string // "record", "enum", "function", "global_var", "type"
	Key     string
	Message string
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Kind, e.Key, e.Message)
}

// EntityKind tags the variant held by an Entity.
type EntityKind int

const (
	EntityRecord EntityKind = iota
	EntityEnum
	EntityFunction
	EntityGlobalVar
)

func (k EntityKind) String() string {
	switch k {
	case EntityRecord:
		return "record"
	case EntityEnum:
		return "enum"
	case EntityFunction:
		return "function"
	case EntityGlobalVar:
		return "global_var"
	}
	return "unknown"
}

// Entity is a top level named entity: exactly one of the pointers is set,
// matching Kind.
type Entity struct {
	Kind      EntityKind
	Record    *RecordType
	Enum      *EnumType
	Function  *Function
	GlobalVar *GlobalVar
}

// LinkerSetKey returns the cross-dump join key of the entity.
func (e Entity) LinkerSetKey() string {
	switch e.Kind {
	case EntityRecord:
		return e.Record.TypeInfo.LinkerSetKey
	case EntityEnum:
		return e.Enum.TypeInfo.LinkerSetKey
	case EntityFunction:
		return e.Function.Key()
	case EntityGlobalVar:
		return e.GlobalVar.Key()
	}
	return ""
}

// Name returns the human readable name of the entity.
func (e Entity) Name() string {
	switch e.Kind {
	case EntityRecord:
		return e.Record.TypeInfo.Name
	case EntityEnum:
		return e.Enum.TypeInfo.Name
	case EntityFunction:
		return e.Function.FunctionName
	case EntityGlobalVar:
		return e.GlobalVar.Name
	}
	return ""
}

// Graph is an immutable index over a Module.
//
// Types are addressed by self type; records, enums, functions and global
// variables by linker_set_key. Each namespace is separate because C allows
// a struct and a function to share a name.
type Graph struct {
	module *Module

	types      map[string]Type
	records    map[string]*RecordType
	enums      map[string]*EnumType
	functions  map[string]*Function
	globalVars map[string]*GlobalVar

	symbols *ExportedSymbolSet
}

// NewGraph indexes m. The module must not be modified afterwards.
//
// Returns a *GraphError for an empty or duplicate self type, or a linker
// key used twice within one namespace.
func NewGraph(m *Module) (*Graph, error) {
	g := &Graph{
		module:     m,
		types:      make(map[string]Type),
		records:    make(map[string]*RecordType),
		enums:      make(map[string]*EnumType),
		functions:  make(map[string]*Function),
		globalVars: make(map[string]*GlobalVar),
		symbols:    m.ExportedSymbols(),
	}

	for _, t := range m.Types() {
		info := t.Info()
		if info.SelfType == "" {
			return nil, &GraphError{Kind: "type", Key: info.Name, Message: "missing self_type"}
		}
		if _, dup := g.types[info.SelfType]; dup {
			return nil, &GraphError{Kind: "type", Key: info.SelfType, Message: "duplicate self_type"}
		}
		g.types[info.SelfType] = t
	}

	for i := range m.RecordTypes {
		r := &m.RecordTypes[i]
		key := r.TypeInfo.LinkerSetKey
		if _, dup := g.records[key]; dup {
			return nil, &GraphError{Kind: "record", Key: key, Message: "duplicate linker_set_key"}
		}
		g.records[key] = r
	}
	for i := range m.EnumTypes {
		e := &m.EnumTypes[i]
		key := e.TypeInfo.LinkerSetKey
		if _, dup := g.enums[key]; dup {
			return nil, &GraphError{Kind: "enum", Key: key, Message: "duplicate linker_set_key"}
		}
		g.enums[key] = e
	}
	for i := range m.Functions {
		f := &m.Functions[i]
		key := f.Key()
		if _, dup := g.functions[key]; dup {
			return nil, &GraphError{Kind: "function", Key: key, Message: "duplicate linker_set_key"}
		}
		g.functions[key] = f
	}
	for i := range m.GlobalVars {
		v := &m.GlobalVars[i]
		key := v.Key()
		if _, dup := g.globalVars[key]; dup {
			return nil, &GraphError{Kind: "global_var", Key: key, Message: "duplicate linker_set_key"}
		}
		g.globalVars[key] = v
	}

	return g, nil
}

// MustGraph is like NewGraph but panics on error. Intended for tests.
func MustGraph(m *Module) *Graph {
	g, err := NewGraph(m)
	if err != nil {
		panic(err)
	}
	return g
}

// Module returns the indexed module.
func (g *Graph) Module() *Module { return g.module }

// Symbols returns the exported ELF symbols recorded in the dump.
func (g *Graph) Symbols() *ExportedSymbolSet { return g.symbols }

// Resolve returns the type with the given self type id.
// A missing id yields *DanglingReferenceError.
func (g *Graph) Resolve(selfTypeID string) (Type, error) {
	t, ok := g.types[selfTypeID]
	if !ok {
		return nil, &DanglingReferenceError{ID: selfTypeID}
	}
	return t, nil
}

// TypeName returns the name of the type with the given id for display.
// Unknown ids yield UnexportedTypeName; an empty id yields "".
func (g *Graph) TypeName(selfTypeID string) string {
	if selfTypeID == "" {
		return ""
	}
	if t, ok := g.types[selfTypeID]; ok {
		return t.Info().Name
	}
	return UnexportedTypeName
}

// LookupByLinkerKey finds a top level entity by linker_set_key, searching
// records, enums, functions and global variables in that order.
func (g *Graph) LookupByLinkerKey(key string) (Entity, bool) {
	for _, kind := range []EntityKind{EntityRecord, EntityEnum, EntityFunction, EntityGlobalVar} {
		if e, ok := g.Lookup(kind, key); ok {
			return e, true
		}
	}
	return Entity{}, false
}

// Lookup finds the entity of the given kind with the given linker_set_key.
// Only the namespace of kind is searched.
func (g *Graph) Lookup(kind EntityKind, key string) (Entity, bool) {
	switch kind {
	case EntityRecord:
		if r, ok := g.records[key]; ok {
			return Entity{Kind: EntityRecord, Record: r}, true
		}
	case EntityEnum:
		if e, ok := g.enums[key]; ok {
			return Entity{Kind: EntityEnum, Enum: e}, true
		}
	case EntityFunction:
		if f, ok := g.functions[key]; ok {
			return Entity{Kind: EntityFunction, Function: f}, true
		}
	case EntityGlobalVar:
		if v, ok := g.globalVars[key]; ok {
			return Entity{Kind: EntityGlobalVar, GlobalVar: v}, true
		}
	}
	return Entity{}, false
}

// UserTypes returns the records then the enums of the dump, in dump order.
func (g *Graph) UserTypes() []Entity {
	m := g.module
	out := make([]Entity, 0, len(m.RecordTypes)+len(m.EnumTypes))
	for i := range m.RecordTypes {
		out = append(out, Entity{Kind: EntityRecord, Record: &m.RecordTypes[i]})
	}
	for i := range m.EnumTypes {
		out = append(out, Entity{Kind: EntityEnum, Enum: &m.EnumTypes[i]})
	}
	return out
}

// Record returns the record with the given linker_set_key.
func (g *Graph) Record(key string) (*RecordType, bool) {
	r, ok := g.records[key]
	return r, ok
}

// Enum returns the enum with the given linker_set_key.
func (g *Graph) Enum(key string) (*EnumType, bool) {
	e, ok := g.enums[key]
	return e, ok
}

// Function returns the function with the given linker_set_key.
func (g *Graph) Function(key string) (*Function, bool) {
	f, ok := g.functions[key]
	return f, ok
}

// GlobalVar returns the global variable with the given linker_set_key.
func (g *Graph) GlobalVar(key string) (*GlobalVar, bool) {
	v, ok := g.globalVars[key]
	return v, ok
}
