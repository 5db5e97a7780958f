package ir

import (
	"maps"
	"slices"
)

// Module is the decoded form of one dump.
//
// Entries keep the order they had in the dump, which is the declaration
// order the front end saw. Reports are emitted in this order.
type Module struct {
	LibName string `json:"lib_name,omitempty"`
	Arch    string `json:"arch,omitempty"`

	RecordTypes          []RecordType          `json:"record_types,omitempty"`
	EnumTypes            []EnumType            `json:"enum_types,omitempty"`
	BuiltinTypes         []BuiltinType         `json:"builtin_types,omitempty"`
	PointerTypes         []PointerType         `json:"pointer_types,omitempty"`
	QualifiedTypes       []QualifiedType       `json:"qualified_types,omitempty"`
	ArrayTypes           []ArrayType           `json:"array_types,omitempty"`
	LvalueReferenceTypes []LvalueReferenceType `json:"lvalue_reference_types,omitempty"`
	RvalueReferenceTypes []RvalueReferenceType `json:"rvalue_reference_types,omitempty"`
	TypedefTypes         []TypedefType         `json:"typedef_types,omitempty"`
	FunctionTypes        []FunctionType        `json:"function_types,omitempty"`

	Functions  []Function  `json:"functions,omitempty"`
	GlobalVars []GlobalVar `json:"global_vars,omitempty"`

	ElfFunctions []ElfSymbol `json:"elf_functions,omitempty"`
	ElfObjects   []ElfSymbol `json:"elf_objects,omitempty"`
}

// Types returns every type in the module, grouped by kind in a fixed
// order and in dump order within a kind.
func (m *Module) Types() []Type {
	var out []Type
	for i := range m.RecordTypes {
		out = append(out, &m.RecordTypes[i])
	}
	for i := range m.EnumTypes {
		out = append(out, &m.EnumTypes[i])
	}
	for i := range m.BuiltinTypes {
		out = append(out, &m.BuiltinTypes[i])
	}
	for i := range m.PointerTypes {
		out = append(out, &m.PointerTypes[i])
	}
	for i := range m.QualifiedTypes {
		out = append(out, &m.QualifiedTypes[i])
	}
	for i := range m.ArrayTypes {
		out = append(out, &m.ArrayTypes[i])
	}
	for i := range m.LvalueReferenceTypes {
		out = append(out, &m.LvalueReferenceTypes[i])
	}
	for i := range m.RvalueReferenceTypes {
		out = append(out, &m.RvalueReferenceTypes[i])
	}
	for i := range m.TypedefTypes {
		out = append(out, &m.TypedefTypes[i])
	}
	for i := range m.FunctionTypes {
		out = append(out, &m.FunctionTypes[i])
	}
	return out
}

// ExportedSymbols returns the ELF symbols recorded in the dump.
func (m *Module) ExportedSymbols() *ExportedSymbolSet {
	set := NewExportedSymbolSet()
	for _, s := range m.ElfFunctions {
		set.Functions[s.Name] = s
	}
	for _, s := range m.ElfObjects {
		set.Objects[s.Name] = s
	}
	return set
}

// SetExportedSymbols replaces the dump's ELF symbol lists, sorted by name.
func (m *Module) SetExportedSymbols(set *ExportedSymbolSet) {
	m.ElfFunctions = set.SortedFunctions()
	m.ElfObjects = set.SortedObjects()
}

// ExportedSymbolSet holds the exported dynamic symbols of one binary,
// split into functions and objects. A name appears in at most one map.
type ExportedSymbolSet struct {
	Functions map[string]ElfSymbol
	Objects   map[string]ElfSymbol
}

// NewExportedSymbolSet creates an empty set.
func NewExportedSymbolSet() *ExportedSymbolSet {
	return &ExportedSymbolSet{
		Functions: make(map[string]ElfSymbol),
		Objects:   make(map[string]ElfSymbol),
	}
}

// Len returns the total number of symbols.
func (s *ExportedSymbolSet) Len() int {
	return len(s.Functions) + len(s.Objects)
}

// SortedFunctions returns function symbols ordered by name.
func (s *ExportedSymbolSet) SortedFunctions() []ElfSymbol {
	return sortedSymbols(s.Functions)
}

// SortedObjects returns object symbols ordered by name.
func (s *ExportedSymbolSet) SortedObjects() []ElfSymbol {
	return sortedSymbols(s.Objects)
}

func sortedSymbols(m map[string]ElfSymbol) []ElfSymbol {
	out := make([]ElfSymbol, 0, len(m))
	for _, name := range slices.Sorted(maps.Keys(m)) {
		out = append(out, m[name])
	}
	return out
}
