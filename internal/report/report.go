// Package report assembles the result of one ABI comparison.
//
// The diff engine hands every finding to an Assembler, which copies the
// old and new snapshots with graph-local type ids replaced by type names.
// A Report can therefore be read, archived and compared on its own. Lists
// keep insertion order; the engine inserts in declaration order, so equal
// inputs give byte-identical canonical output.
package report

import (
	"github.com/roach88/abidiff/internal/ir"
)

// Report is the outcome of comparing two dumps.
// Every list is always present, empty when nothing changed.
type Report struct {
	LibName             string              `json:"lib_name"`
	Arch                string              `json:"arch"`
	CompatibilityStatus CompatibilityStatus `json:"compatibility_status"`

	RecordTypeDiffs []RecordTypeDiff    `json:"record_type_diffs"`
	EnumTypeDiffs   []EnumTypeDiff      `json:"enum_type_diffs"`
	FunctionDiffs   []FunctionDeclDiff  `json:"function_diffs"`
	GlobalVarDiffs  []GlobalVarDeclDiff `json:"global_var_diffs"`

	FunctionsRemoved  []ir.Function  `json:"functions_removed"`
	FunctionsAdded    []ir.Function  `json:"functions_added"`
	GlobalVarsRemoved []ir.GlobalVar `json:"global_vars_removed"`
	GlobalVarsAdded   []ir.GlobalVar `json:"global_vars_added"`

	RemovedElfFunctions []ir.ElfSymbol `json:"removed_elf_functions"`
	AddedElfFunctions   []ir.ElfSymbol `json:"added_elf_functions"`
	RemovedElfObjects   []ir.ElfSymbol `json:"removed_elf_objects"`
	AddedElfObjects     []ir.ElfSymbol `json:"added_elf_objects"`

	UnreferencedRecordTypeDiffs []RecordTypeDiff `json:"unreferenced_record_type_diffs"`
	UnreferencedEnumTypeDiffs   []EnumTypeDiff   `json:"unreferenced_enum_type_diffs"`
	RecordTypesRemoved          []ir.RecordType  `json:"record_types_removed"`
	EnumTypesRemoved            []ir.EnumType    `json:"enum_types_removed"`
}

// New returns an empty report with every list allocated.
func New(libName, arch string) *Report {
	return &Report{
		LibName:                     libName,
		Arch:                        arch,
		RecordTypeDiffs:             []RecordTypeDiff{},
		EnumTypeDiffs:               []EnumTypeDiff{},
		FunctionDiffs:               []FunctionDeclDiff{},
		GlobalVarDiffs:              []GlobalVarDeclDiff{},
		FunctionsRemoved:            []ir.Function{},
		FunctionsAdded:              []ir.Function{},
		GlobalVarsRemoved:           []ir.GlobalVar{},
		GlobalVarsAdded:             []ir.GlobalVar{},
		RemovedElfFunctions:         []ir.ElfSymbol{},
		AddedElfFunctions:           []ir.ElfSymbol{},
		RemovedElfObjects:           []ir.ElfSymbol{},
		AddedElfObjects:             []ir.ElfSymbol{},
		UnreferencedRecordTypeDiffs: []RecordTypeDiff{},
		UnreferencedEnumTypeDiffs:   []EnumTypeDiff{},
		RecordTypesRemoved:          []ir.RecordType{},
		EnumTypesRemoved:            []ir.EnumType{},
	}
}

// RecordTypeDiff is a changed record as reported.
type RecordTypeDiff struct {
	Name         string `json:"name"`
	LinkerSetKey string `json:"linker_set_key"`
	TypeStack    string `json:"type_stack"`

	TypeInfoDiff     *TypeInfoDiff     `json:"type_info_diff,omitempty"`
	AccessDiff       *AccessDiff       `json:"access_diff,omitempty"`
	RecordKindDiff   *RecordKindDiff   `json:"record_kind_diff,omitempty"`
	VTableLayoutDiff *VTableLayoutDiff `json:"vtable_layout_diff,omitempty"`
	BasesDiff        *BasesDiff        `json:"bases_diff,omitempty"`
	TemplateDiff     *TemplateDiff     `json:"template_diff,omitempty"`

	FieldsDiff    []RecordFieldDiff `json:"fields_diff"`
	FieldsRemoved []ir.RecordField  `json:"fields_removed"`
	FieldsAdded   []ir.RecordField  `json:"fields_added"`
}

// SizeAlignment is the layout part of a type_info.
type SizeAlignment struct {
	Size      int64 `json:"size"`
	Alignment int64 `json:"alignment"`
}

// TypeInfoDiff records a size or alignment change.
type TypeInfoDiff struct {
	OldTypeInfo SizeAlignment `json:"old_type_info"`
	NewTypeInfo SizeAlignment `json:"new_type_info"`
}

// AccessDiff records an access specifier change.
type AccessDiff struct {
	OldAccess ir.AccessSpecifier `json:"old_access"`
	NewAccess ir.AccessSpecifier `json:"new_access"`
}

// RecordKindDiff records a struct/class/union change.
type RecordKindDiff struct {
	OldKind ir.RecordKind `json:"old_kind"`
	NewKind ir.RecordKind `json:"new_kind"`
}

// VTableLayoutDiff carries both vtables whole.
type VTableLayoutDiff struct {
	OldVTable ir.VTableLayout `json:"old_vtable"`
	NewVTable ir.VTableLayout `json:"new_vtable"`
}

// BasesDiff carries both base specifier lists whole.
type BasesDiff struct {
	OldBases []ir.BaseSpecifier `json:"old_bases"`
	NewBases []ir.BaseSpecifier `json:"new_bases"`
}

// TemplateDiff carries both template argument lists whole.
type TemplateDiff struct {
	OldElements []ir.TemplateElement `json:"old_elements"`
	NewElements []ir.TemplateElement `json:"new_elements"`
}

// RecordFieldDiff is one field position that changed.
type RecordFieldDiff struct {
	OldField ir.RecordField `json:"old_field"`
	NewField ir.RecordField `json:"new_field"`
}

// EnumTypeDiff is a changed enum as reported.
type EnumTypeDiff struct {
	Name         string `json:"name"`
	LinkerSetKey string `json:"linker_set_key"`
	TypeStack    string `json:"type_stack"`

	UnderlyingTypeDiff *UnderlyingTypeDiff `json:"underlying_type_diff,omitempty"`

	FieldsDiff    []EnumFieldDiff `json:"fields_diff"`
	FieldsRemoved []ir.EnumField  `json:"fields_removed"`
	FieldsAdded   []ir.EnumField  `json:"fields_added"`
}

// UnderlyingTypeDiff records a change of an enum's underlying type.
type UnderlyingTypeDiff struct {
	OldType string `json:"old_type"`
	NewType string `json:"new_type"`
}

// EnumFieldDiff is one enumerator position that changed.
type EnumFieldDiff struct {
	OldField ir.EnumField `json:"old_field"`
	NewField ir.EnumField `json:"new_field"`
}

// FunctionDeclDiff is a changed function with both declarations.
type FunctionDeclDiff struct {
	Name         string      `json:"name"`
	LinkerSetKey string      `json:"linker_set_key"`
	TypeStack    string      `json:"type_stack"`
	Old          ir.Function `json:"old"`
	New          ir.Function `json:"new"`
}

// GlobalVarDeclDiff is a changed global variable with both declarations.
type GlobalVarDeclDiff struct {
	Name         string       `json:"name"`
	LinkerSetKey string       `json:"linker_set_key"`
	TypeStack    string       `json:"type_stack"`
	Old          ir.GlobalVar `json:"old"`
	New          ir.GlobalVar `json:"new"`
}

// Breaking reports whether the report describes an ABI break.
func (r *Report) Breaking() bool {
	return r.CompatibilityStatus.Breaking()
}

// Len returns the total number of entries across all lists.
func (r *Report) Len() int {
	return len(r.RecordTypeDiffs) + len(r.EnumTypeDiffs) + len(r.FunctionDiffs) + len(r.GlobalVarDiffs) +
		len(r.FunctionsRemoved) + len(r.FunctionsAdded) + len(r.GlobalVarsRemoved) + len(r.GlobalVarsAdded) +
		len(r.RemovedElfFunctions) + len(r.AddedElfFunctions) + len(r.RemovedElfObjects) + len(r.AddedElfObjects) +
		len(r.UnreferencedRecordTypeDiffs) + len(r.UnreferencedEnumTypeDiffs) +
		len(r.RecordTypesRemoved) + len(r.EnumTypesRemoved)
}

// ComputeStatus derives the compatibility status from the lists.
//
// Removed or changed exported entities make the report incompatible;
// otherwise removed ELF symbols make it ELF-incompatible. Only a report
// that is neither collects the extension and unreferenced-changes flags.
func (r *Report) ComputeStatus() CompatibilityStatus {
	if len(r.FunctionsRemoved) > 0 || len(r.GlobalVarsRemoved) > 0 ||
		len(r.FunctionDiffs) > 0 || len(r.GlobalVarDiffs) > 0 ||
		len(r.EnumTypeDiffs) > 0 || len(r.RecordTypeDiffs) > 0 {
		return Incompatible
	}
	if len(r.RemovedElfFunctions) > 0 || len(r.RemovedElfObjects) > 0 {
		return ElfIncompatible
	}

	status := Compatible
	if len(r.FunctionsAdded) > 0 || len(r.GlobalVarsAdded) > 0 ||
		len(r.AddedElfFunctions) > 0 || len(r.AddedElfObjects) > 0 {
		status |= Extension
	}
	if len(r.UnreferencedRecordTypeDiffs) > 0 || len(r.UnreferencedEnumTypeDiffs) > 0 ||
		len(r.RecordTypesRemoved) > 0 || len(r.EnumTypesRemoved) > 0 {
		status |= UnreferencedChanges
	}
	return status
}

// Canonical returns the RFC 8785 form of the report.
func (r *Report) Canonical() ([]byte, error) {
	return ir.MarshalCanonical(r)
}

// Digest returns the content hash of the report's canonical form.
func (r *Report) Digest() (string, error) {
	data, err := r.Canonical()
	if err != nil {
		return "", err
	}
	return ir.ReportDigest(data), nil
}
