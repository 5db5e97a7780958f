package diff

import (
	"github.com/roach88/abidiff/internal/ir"
	"github.com/roach88/abidiff/internal/report"
)

// CompareTypes compares the old type oldID with the new type newID.
//
// Both ids must resolve in their own graph; a dangling id is returned as a
// fatal *Error. Records and enums that changed are reported to the sink
// along the way.
func (s *Session) CompareTypes(oldID, newID string) (DiffStatus, error) {
	if oldID == "" || newID == "" {
		if oldID == newID {
			return NoDiff, nil
		}
		return DirectDiff, nil
	}

	pair := typePair{old: oldID, new: newID}
	if status, seen := s.visited.lookup(pair); seen {
		return status, nil
	}

	oldType, err := s.old.Resolve(oldID)
	if err != nil {
		return NoDiff, newDanglingError("old", err, s.path)
	}
	newType, err := s.new.Resolve(newID)
	if err != nil {
		return NoDiff, newDanglingError("new", err, s.path)
	}

	s.visited.enter(pair)
	s.push(oldType.Info().Name)
	status, err := s.compareResolved(oldType, newType)
	s.pop()
	if err != nil {
		s.visited.abandon(pair)
		return NoDiff, err
	}
	s.visited.finish(pair, status)
	return status, nil
}

func (s *Session) compareResolved(oldType, newType ir.Type) (DiffStatus, error) {
	if oldType.Kind() != newType.Kind() {
		return DirectDiff, nil
	}

	switch o := oldType.(type) {
	case *ir.BuiltinType:
		return compareBuiltins(o, newType.(*ir.BuiltinType)), nil
	case *ir.QualifiedType:
		n := newType.(*ir.QualifiedType)
		if o.IsConst != n.IsConst || o.IsVolatile != n.IsVolatile || o.IsRestricted != n.IsRestricted {
			return DirectDiff, nil
		}
		return s.CompareTypes(o.TypeInfo.ReferencedType, n.TypeInfo.ReferencedType)
	case *ir.ArrayType:
		n := newType.(*ir.ArrayType)
		if o.TypeInfo.Size != n.TypeInfo.Size {
			return DirectDiff, nil
		}
		return s.CompareTypes(o.TypeInfo.ReferencedType, n.TypeInfo.ReferencedType)
	case *ir.PointerType, *ir.LvalueReferenceType, *ir.RvalueReferenceType, *ir.TypedefType:
		return s.CompareTypes(oldType.Info().ReferencedType, newType.Info().ReferencedType)
	case *ir.RecordType:
		return s.compareRecordTypes(o, newType.(*ir.RecordType))
	case *ir.EnumType:
		return s.compareEnumTypes(o, newType.(*ir.EnumType))
	case *ir.FunctionType:
		n := newType.(*ir.FunctionType)
		params, err := s.compareParameters(o.Parameters, n.Parameters)
		if err != nil {
			return NoDiff, err
		}
		ret, err := s.CompareTypes(o.ReturnType, n.ReturnType)
		if err != nil {
			return NoDiff, err
		}
		return worse(params, ret), nil
	}
	return NoDiff, nil
}

func compareBuiltins(o, n *ir.BuiltinType) DiffStatus {
	if o.TypeInfo.Name != n.TypeInfo.Name ||
		o.TypeInfo.Size != n.TypeInfo.Size ||
		o.TypeInfo.Alignment != n.TypeInfo.Alignment ||
		o.IsUnsigned != n.IsUnsigned ||
		o.IsIntegral != n.IsIntegral {
		return DirectDiff
	}
	return NoDiff
}

// compareParameters compares parameter types by position. A count change
// is a direct diff and nothing is recursed into. Names and default
// argument flags are not part of the ABI.
func (s *Session) compareParameters(old, new []ir.Parameter) (DiffStatus, error) {
	if len(old) != len(new) {
		return DirectDiff, nil
	}
	status := NoDiff
	for i := range old {
		st, err := s.CompareTypes(old[i].FieldType, new[i].FieldType)
		if err != nil {
			return NoDiff, err
		}
		status = worse(status, st)
	}
	return status, nil
}

func (s *Session) compareTemplates(old, new *ir.TemplateInfo) (DiffStatus, error) {
	var oldElems, newElems []ir.TemplateElement
	if old != nil {
		oldElems = old.Elements
	}
	if new != nil {
		newElems = new.Elements
	}
	if len(oldElems) != len(newElems) {
		return DirectDiff, nil
	}
	status := NoDiff
	for i := range oldElems {
		st, err := s.CompareTypes(oldElems[i].ReferencedType, newElems[i].ReferencedType)
		if err != nil {
			return NoDiff, err
		}
		status = worse(status, st)
	}
	return status, nil
}

// compareRecordTypes compares two records reached through the type graph.
// Changes are reported as a record diff at the current path; the referrer
// only learns that something below changed.
func (s *Session) compareRecordTypes(o, n *ir.RecordType) (DiffStatus, error) {
	if !o.IsAnonymous && !n.IsAnonymous && o.TypeInfo.LinkerSetKey != n.TypeInfo.LinkerSetKey {
		// A different record occupies the slot; there is nothing to diff.
		return DirectDiff, nil
	}

	d := &report.RecordDiff{
		Old:               o,
		New:               n,
		AccessChanged:     o.Access != n.Access,
		TypeInfoChanged:   o.TypeInfo.Size != n.TypeInfo.Size || o.TypeInfo.Alignment != n.TypeInfo.Alignment,
		RecordKindChanged: o.RecordKind != n.RecordKind,
		VTableChanged:     !vtablePrefix(o.VTableLayout, n.VTableLayout),
	}

	nested, err := s.compareFields(o.Fields, n.Fields, d)
	if err != nil {
		return NoDiff, err
	}

	bases, err := s.compareBases(o.BaseSpecifiers, n.BaseSpecifiers)
	if err != nil {
		return NoDiff, err
	}
	d.BasesChanged = bases

	tmpl, err := s.compareTemplates(o.TemplateInfo, n.TemplateInfo)
	if err != nil {
		return NoDiff, err
	}
	d.TemplateChanged = tmpl == DirectDiff
	nested = worse(nested, tmpl)

	if d.Changed() {
		if err := s.emit(d); err != nil {
			return NoDiff, err
		}
		return IndirectDiff, nil
	}
	if nested != NoDiff {
		return IndirectDiff, nil
	}
	return NoDiff, nil
}

// compareFields pairs fields by index. A field is reported when its offset
// or access changed or its type is no longer the same type. Trailing
// fields are removed or added. The returned status is the worst status of
// the field types that were not reported.
func (s *Session) compareFields(old, new []ir.RecordField, d *report.RecordDiff) (DiffStatus, error) {
	common := min(len(old), len(new))
	nested := NoDiff
	for i := 0; i < common; i++ {
		st, err := s.CompareTypes(old[i].ReferencedType, new[i].ReferencedType)
		if err != nil {
			return NoDiff, err
		}
		if st == DirectDiff || old[i].FieldOffset != new[i].FieldOffset || old[i].Access != new[i].Access {
			d.FieldDiffs = append(d.FieldDiffs, report.FieldPair{Old: old[i], New: new[i]})
			continue
		}
		nested = worse(nested, st)
	}
	d.FieldsRemoved = append(d.FieldsRemoved, old[common:]...)
	d.FieldsAdded = append(d.FieldsAdded, new[common:]...)
	return nested, nil
}

// compareBases reports whether the base specifier lists differ by
// position, virtuality, access or a direct type change.
func (s *Session) compareBases(old, new []ir.BaseSpecifier) (bool, error) {
	if len(old) != len(new) {
		return true, nil
	}
	changed := false
	for i := range old {
		st, err := s.CompareTypes(old[i].ReferencedType, new[i].ReferencedType)
		if err != nil {
			return false, err
		}
		if st == DirectDiff || old[i].Access != new[i].Access || old[i].IsVirtual != new[i].IsVirtual {
			changed = true
		}
	}
	return changed, nil
}

// vtablePrefix reports whether the old vtable is a prefix of the new one.
// Appending virtual functions keeps existing slot indices valid.
func vtablePrefix(old, new *ir.VTableLayout) bool {
	var oldComps, newComps []ir.VTableComponent
	if old != nil {
		oldComps = old.Components
	}
	if new != nil {
		newComps = new.Components
	}
	if len(oldComps) > len(newComps) {
		return false
	}
	for i, c := range oldComps {
		nc := newComps[i]
		if c.MangledComponentName != nc.MangledComponentName || c.ComponentValue != nc.ComponentValue || c.Kind != nc.Kind {
			return false
		}
	}
	return true
}

// compareEnumTypes compares enumerators by position. Any change is
// reported as an enum diff at the current path.
func (s *Session) compareEnumTypes(o, n *ir.EnumType) (DiffStatus, error) {
	if o.TypeInfo.LinkerSetKey != n.TypeInfo.LinkerSetKey {
		return DirectDiff, nil
	}

	d := &report.EnumDiff{
		Old:               o,
		New:               n,
		UnderlyingChanged: s.old.TypeName(o.UnderlyingType) != s.new.TypeName(n.UnderlyingType),
	}
	common := min(len(o.Fields), len(n.Fields))
	for i := 0; i < common; i++ {
		if o.Fields[i] != n.Fields[i] {
			d.FieldDiffs = append(d.FieldDiffs, report.EnumFieldPair{Old: o.Fields[i], New: n.Fields[i]})
		}
	}
	d.FieldsRemoved = append(d.FieldsRemoved, o.Fields[common:]...)
	d.FieldsAdded = append(d.FieldsAdded, n.Fields[common:]...)

	if !d.Changed() {
		return NoDiff, nil
	}
	if err := s.emit(d); err != nil {
		return NoDiff, err
	}
	return IndirectDiff, nil
}

// CompareFunctions compares two declarations of the same exported function
// and reports a function diff when its parameters, return type or template
// arguments changed directly, or its access changed.
func (s *Session) CompareFunctions(old, new *ir.Function) error {
	return s.withKind(report.Referenced, func() error {
		s.push(old.FunctionName)
		defer s.pop()

		params, err := s.compareParameters(old.Parameters, new.Parameters)
		if err != nil {
			return err
		}
		ret, err := s.CompareTypes(old.ReturnType, new.ReturnType)
		if err != nil {
			return err
		}
		tmpl, err := s.compareTemplates(old.TemplateInfo, new.TemplateInfo)
		if err != nil {
			return err
		}

		if params == DirectDiff || ret == DirectDiff || tmpl == DirectDiff || old.Access != new.Access {
			return s.emit(&report.FunctionDiff{Old: old, New: new})
		}
		return nil
	})
}

// CompareGlobalVars compares two declarations of the same exported global
// variable by type and access.
func (s *Session) CompareGlobalVars(old, new *ir.GlobalVar) error {
	return s.withKind(report.Referenced, func() error {
		s.push(old.Name)
		defer s.pop()

		st, err := s.CompareTypes(old.ReferencedType, new.ReferencedType)
		if err != nil {
			return err
		}
		if st == DirectDiff || old.Access != new.Access {
			return s.emit(&report.GlobalVarDiff{Old: old, New: new})
		}
		return nil
	})
}

// CompareRecords compares two top level records with the same
// linker_set_key. Diffs already reached from a function or variable are
// not reported again; new ones are reported as unreferenced.
func (s *Session) CompareRecords(old, new *ir.RecordType) (DiffStatus, error) {
	var status DiffStatus
	err := s.withKind(report.Unreferenced, func() error {
		var err error
		status, err = s.CompareTypes(old.TypeInfo.SelfType, new.TypeInfo.SelfType)
		return err
	})
	return status, err
}

// CompareEnums is the enum counterpart of CompareRecords.
func (s *Session) CompareEnums(old, new *ir.EnumType) (DiffStatus, error) {
	var status DiffStatus
	err := s.withKind(report.Unreferenced, func() error {
		var err error
		status, err = s.CompareTypes(old.TypeInfo.SelfType, new.TypeInfo.SelfType)
		return err
	})
	return status, err
}
