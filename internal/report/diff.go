package report

import "github.com/roach88/abidiff/internal/ir"

// DiffKind says where a diff message belongs in the report.
type DiffKind int

const (
	// Referenced diffs were reached from an exported function or variable.
	Referenced DiffKind = iota
	// Unreferenced diffs were found only by comparing all types.
	Unreferenced
	// Removed entities exist only in the old dump.
	Removed
	// Added entities exist only in the new dump.
	Added
)

func (k DiffKind) String() string {
	switch k {
	case Referenced:
		return "referenced"
	case Unreferenced:
		return "unreferenced"
	case Removed:
		return "removed"
	case Added:
		return "added"
	}
	return "unknown"
}

// Diff is one message handed to the Assembler by the diff engine.
// Snapshots still carry graph-local type ids; the Assembler replaces them.
type Diff interface {
	// linkerKeys returns the keys of the old and new side; "" for a
	// side that is absent.
	linkerKeys() (old, new string)
}

// RecordDiff describes a changed, removed or added record.
type RecordDiff struct {
	Old, New *ir.RecordType

	FieldDiffs    []FieldPair
	FieldsRemoved []ir.RecordField
	FieldsAdded   []ir.RecordField

	TypeInfoChanged   bool // size or alignment
	AccessChanged     bool
	RecordKindChanged bool
	VTableChanged     bool
	BasesChanged      bool
	TemplateChanged   bool
}

// FieldPair is a field position whose declaration changed.
type FieldPair struct {
	Old, New ir.RecordField
}

// Changed reports whether the diff carries anything worth reporting.
func (d *RecordDiff) Changed() bool {
	return len(d.FieldDiffs) > 0 || len(d.FieldsRemoved) > 0 || len(d.FieldsAdded) > 0 ||
		d.TypeInfoChanged || d.AccessChanged || d.RecordKindChanged ||
		d.VTableChanged || d.BasesChanged || d.TemplateChanged
}

// Anonymous records are keyed by source location, which moves with
// unrelated edits. A diff of two records where either is anonymous is
// filed under the old key alone.
func (d *RecordDiff) linkerKeys() (string, string) {
	if d.Old != nil && d.New != nil && (d.Old.IsAnonymous || d.New.IsAnonymous) {
		key := recordKey(d.Old)
		return key, key
	}
	return recordKey(d.Old), recordKey(d.New)
}

func recordKey(r *ir.RecordType) string {
	if r == nil {
		return ""
	}
	return r.TypeInfo.LinkerSetKey
}

// EnumDiff describes a changed or removed enum.
type EnumDiff struct {
	Old, New *ir.EnumType

	UnderlyingChanged bool
	FieldDiffs        []EnumFieldPair
	FieldsRemoved     []ir.EnumField
	FieldsAdded       []ir.EnumField
}

// EnumFieldPair is an enumerator position whose name or value changed.
type EnumFieldPair struct {
	Old, New ir.EnumField
}

// Changed reports whether the diff carries anything worth reporting.
func (d *EnumDiff) Changed() bool {
	return d.UnderlyingChanged || len(d.FieldDiffs) > 0 || len(d.FieldsRemoved) > 0 || len(d.FieldsAdded) > 0
}

func (d *EnumDiff) linkerKeys() (string, string) {
	var o, n string
	if d.Old != nil {
		o = d.Old.TypeInfo.LinkerSetKey
	}
	if d.New != nil {
		n = d.New.TypeInfo.LinkerSetKey
	}
	return o, n
}

// FunctionDiff describes a changed, removed or added function.
type FunctionDiff struct {
	Old, New *ir.Function
}

func (d *FunctionDiff) linkerKeys() (string, string) {
	var o, n string
	if d.Old != nil {
		o = d.Old.Key()
	}
	if d.New != nil {
		n = d.New.Key()
	}
	return o, n
}

// GlobalVarDiff describes a changed, removed or added global variable.
type GlobalVarDiff struct {
	Old, New *ir.GlobalVar
}

func (d *GlobalVarDiff) linkerKeys() (string, string) {
	var o, n string
	if d.Old != nil {
		o = d.Old.Key()
	}
	if d.New != nil {
		n = d.New.Key()
	}
	return o, n
}

// ElfSymbolDiff is an ELF symbol without function or variable IR that
// appeared or disappeared.
type ElfSymbolDiff struct {
	Symbol ir.ElfSymbol
	Object bool // false for STT_FUNC
}

func (d *ElfSymbolDiff) linkerKeys() (string, string) {
	return d.Symbol.Name, d.Symbol.Name
}
