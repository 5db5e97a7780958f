package report

import (
	"log/slog"
	"strings"

	"github.com/roach88/abidiff/internal/ir"
)

// TypeStackSeparator joins the entries of a diff path.
const TypeStackSeparator = "-> "

// Assembler collects diff messages into a Report.
// It is owned by one diff session and is not safe for concurrent use.
type Assembler struct {
	old, new *ir.Graph
	report   *Report
}

// NewAssembler creates an assembler for a comparison of old against new.
// Snapshots of old entities are named through old, of new ones through new.
func NewAssembler(old, new *ir.Graph, libName, arch string) *Assembler {
	return &Assembler{old: old, new: new, report: New(libName, arch)}
}

// AddDiffMessage appends d to the list selected by its type and kind.
//
// path is the stack of enclosing entity names, outermost first. Returns
// false, appending nothing, when d is inconsistent: the two sides carry
// different linker_set_keys, a side required by kind is missing, or kind
// does not apply to d. These are caller bugs, not ABI differences.
func (a *Assembler) AddDiffMessage(d Diff, path []string, kind DiffKind) bool {
	oldKey, newKey := d.linkerKeys()
	if oldKey != "" && newKey != "" && oldKey != newKey {
		slog.Debug("rejecting diff message with mismatched linker keys", "old", oldKey, "new", newKey)
		return false
	}

	stack := strings.Join(path, TypeStackSeparator)
	r := a.report

	switch d := d.(type) {
	case *RecordDiff:
		switch kind {
		case Referenced, Unreferenced:
			if d.Old == nil || d.New == nil {
				return false
			}
			entry := a.recordTypeDiff(d, stack)
			if kind == Referenced {
				r.RecordTypeDiffs = append(r.RecordTypeDiffs, entry)
			} else {
				r.UnreferencedRecordTypeDiffs = append(r.UnreferencedRecordTypeDiffs, entry)
			}
			return true
		case Removed:
			if d.Old == nil {
				return false
			}
			r.RecordTypesRemoved = append(r.RecordTypesRemoved, recordSnapshot(a.old, d.Old))
			return true
		}

	case *EnumDiff:
		switch kind {
		case Referenced, Unreferenced:
			if d.Old == nil || d.New == nil {
				return false
			}
			entry := a.enumTypeDiff(d, stack)
			if kind == Referenced {
				r.EnumTypeDiffs = append(r.EnumTypeDiffs, entry)
			} else {
				r.UnreferencedEnumTypeDiffs = append(r.UnreferencedEnumTypeDiffs, entry)
			}
			return true
		case Removed:
			if d.Old == nil {
				return false
			}
			r.EnumTypesRemoved = append(r.EnumTypesRemoved, enumSnapshot(a.old, d.Old))
			return true
		}

	case *FunctionDiff:
		switch kind {
		case Referenced, Unreferenced:
			if d.Old == nil || d.New == nil {
				return false
			}
			r.FunctionDiffs = append(r.FunctionDiffs, FunctionDeclDiff{
				Name:         d.Old.FunctionName,
				LinkerSetKey: d.Old.Key(),
				TypeStack:    stack,
				Old:          functionSnapshot(a.old, d.Old),
				New:          functionSnapshot(a.new, d.New),
			})
			return true
		case Removed:
			if d.Old == nil {
				return false
			}
			r.FunctionsRemoved = append(r.FunctionsRemoved, functionSnapshot(a.old, d.Old))
			return true
		case Added:
			if d.New == nil {
				return false
			}
			r.FunctionsAdded = append(r.FunctionsAdded, functionSnapshot(a.new, d.New))
			return true
		}

	case *GlobalVarDiff:
		switch kind {
		case Referenced, Unreferenced:
			if d.Old == nil || d.New == nil {
				return false
			}
			r.GlobalVarDiffs = append(r.GlobalVarDiffs, GlobalVarDeclDiff{
				Name:         d.Old.Name,
				LinkerSetKey: d.Old.Key(),
				TypeStack:    stack,
				Old:          globalVarSnapshot(a.old, d.Old),
				New:          globalVarSnapshot(a.new, d.New),
			})
			return true
		case Removed:
			if d.Old == nil {
				return false
			}
			r.GlobalVarsRemoved = append(r.GlobalVarsRemoved, globalVarSnapshot(a.old, d.Old))
			return true
		case Added:
			if d.New == nil {
				return false
			}
			r.GlobalVarsAdded = append(r.GlobalVarsAdded, globalVarSnapshot(a.new, d.New))
			return true
		}

	case *ElfSymbolDiff:
		switch {
		case kind == Removed && !d.Object:
			r.RemovedElfFunctions = append(r.RemovedElfFunctions, d.Symbol)
		case kind == Added && !d.Object:
			r.AddedElfFunctions = append(r.AddedElfFunctions, d.Symbol)
		case kind == Removed && d.Object:
			r.RemovedElfObjects = append(r.RemovedElfObjects, d.Symbol)
		case kind == Added && d.Object:
			r.AddedElfObjects = append(r.AddedElfObjects, d.Symbol)
		default:
			return false
		}
		return true
	}

	slog.Debug("rejecting diff message", "type", diffTypeName(d), "kind", kind.String())
	return false
}

// Report finalises and returns the assembled report.
func (a *Assembler) Report() *Report {
	a.report.CompatibilityStatus = a.report.ComputeStatus()
	return a.report
}

func (a *Assembler) recordTypeDiff(d *RecordDiff, stack string) RecordTypeDiff {
	entry := RecordTypeDiff{
		Name:          d.Old.TypeInfo.Name,
		LinkerSetKey:  d.Old.TypeInfo.LinkerSetKey,
		TypeStack:     stack,
		FieldsDiff:    make([]RecordFieldDiff, 0, len(d.FieldDiffs)),
		FieldsRemoved: fieldSnapshots(a.old, d.FieldsRemoved),
		FieldsAdded:   fieldSnapshots(a.new, d.FieldsAdded),
	}
	for _, fp := range d.FieldDiffs {
		entry.FieldsDiff = append(entry.FieldsDiff, RecordFieldDiff{
			OldField: fieldSnapshot(a.old, fp.Old),
			NewField: fieldSnapshot(a.new, fp.New),
		})
	}

	if d.TypeInfoChanged {
		entry.TypeInfoDiff = &TypeInfoDiff{
			OldTypeInfo: SizeAlignment{Size: d.Old.TypeInfo.Size, Alignment: d.Old.TypeInfo.Alignment},
			NewTypeInfo: SizeAlignment{Size: d.New.TypeInfo.Size, Alignment: d.New.TypeInfo.Alignment},
		}
	}
	if d.AccessChanged {
		entry.AccessDiff = &AccessDiff{OldAccess: d.Old.Access, NewAccess: d.New.Access}
	}
	if d.RecordKindChanged {
		entry.RecordKindDiff = &RecordKindDiff{OldKind: d.Old.RecordKind, NewKind: d.New.RecordKind}
	}
	if d.VTableChanged {
		entry.VTableLayoutDiff = &VTableLayoutDiff{OldVTable: vtableSnapshot(d.Old), NewVTable: vtableSnapshot(d.New)}
	}
	if d.BasesChanged {
		entry.BasesDiff = &BasesDiff{
			OldBases: baseSnapshots(a.old, d.Old.BaseSpecifiers),
			NewBases: baseSnapshots(a.new, d.New.BaseSpecifiers),
		}
	}
	if d.TemplateChanged {
		entry.TemplateDiff = &TemplateDiff{
			OldElements: templateSnapshots(a.old, d.Old.TemplateInfo),
			NewElements: templateSnapshots(a.new, d.New.TemplateInfo),
		}
	}
	return entry
}

func (a *Assembler) enumTypeDiff(d *EnumDiff, stack string) EnumTypeDiff {
	entry := EnumTypeDiff{
		Name:          d.Old.TypeInfo.Name,
		LinkerSetKey:  d.Old.TypeInfo.LinkerSetKey,
		TypeStack:     stack,
		FieldsDiff:    make([]EnumFieldDiff, 0, len(d.FieldDiffs)),
		FieldsRemoved: append([]ir.EnumField{}, d.FieldsRemoved...),
		FieldsAdded:   append([]ir.EnumField{}, d.FieldsAdded...),
	}
	for _, fp := range d.FieldDiffs {
		entry.FieldsDiff = append(entry.FieldsDiff, EnumFieldDiff{OldField: fp.Old, NewField: fp.New})
	}
	if d.UnderlyingChanged {
		entry.UnderlyingTypeDiff = &UnderlyingTypeDiff{
			OldType: a.old.TypeName(d.Old.UnderlyingType),
			NewType: a.new.TypeName(d.New.UnderlyingType),
		}
	}
	return entry
}

func diffTypeName(d Diff) string {
	switch d.(type) {
	case *RecordDiff:
		return "record"
	case *EnumDiff:
		return "enum"
	case *FunctionDiff:
		return "function"
	case *GlobalVarDiff:
		return "global_var"
	case *ElfSymbolDiff:
		return "elf_symbol"
	}
	return "unknown"
}
