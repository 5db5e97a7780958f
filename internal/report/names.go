package report

import "github.com/roach88/abidiff/internal/ir"

// Snapshot helpers copy IR entities with every type id replaced by the
// name of that type in g. self_type is dropped because it only has meaning
// inside the dump it came from.

func typeInfoSnapshot(g *ir.Graph, info ir.TypeInfo) ir.TypeInfo {
	info.ReferencedType = g.TypeName(info.ReferencedType)
	info.SelfType = ""
	return info
}

func fieldSnapshot(g *ir.Graph, f ir.RecordField) ir.RecordField {
	f.ReferencedType = g.TypeName(f.ReferencedType)
	return f
}

func fieldSnapshots(g *ir.Graph, fields []ir.RecordField) []ir.RecordField {
	out := make([]ir.RecordField, 0, len(fields))
	for _, f := range fields {
		out = append(out, fieldSnapshot(g, f))
	}
	return out
}

func baseSnapshots(g *ir.Graph, bases []ir.BaseSpecifier) []ir.BaseSpecifier {
	out := make([]ir.BaseSpecifier, 0, len(bases))
	for _, b := range bases {
		b.ReferencedType = g.TypeName(b.ReferencedType)
		out = append(out, b)
	}
	return out
}

func templateSnapshots(g *ir.Graph, info *ir.TemplateInfo) []ir.TemplateElement {
	if info == nil {
		return []ir.TemplateElement{}
	}
	out := make([]ir.TemplateElement, 0, len(info.Elements))
	for _, e := range info.Elements {
		out = append(out, ir.TemplateElement{ReferencedType: g.TypeName(e.ReferencedType)})
	}
	return out
}

func templateInfoSnapshot(g *ir.Graph, info *ir.TemplateInfo) *ir.TemplateInfo {
	if info == nil {
		return nil
	}
	return &ir.TemplateInfo{Elements: templateSnapshots(g, info)}
}

func vtableSnapshot(r *ir.RecordType) ir.VTableLayout {
	if r.VTableLayout == nil {
		return ir.VTableLayout{Components: []ir.VTableComponent{}}
	}
	return ir.VTableLayout{Components: append([]ir.VTableComponent{}, r.VTableLayout.Components...)}
}

func recordSnapshot(g *ir.Graph, r *ir.RecordType) ir.RecordType {
	out := *r
	out.TypeInfo = typeInfoSnapshot(g, r.TypeInfo)
	if len(r.Fields) > 0 {
		out.Fields = fieldSnapshots(g, r.Fields)
	}
	if len(r.BaseSpecifiers) > 0 {
		out.BaseSpecifiers = baseSnapshots(g, r.BaseSpecifiers)
	}
	if r.VTableLayout != nil {
		vt := vtableSnapshot(r)
		out.VTableLayout = &vt
	}
	out.TemplateInfo = templateInfoSnapshot(g, r.TemplateInfo)
	return out
}

func enumSnapshot(g *ir.Graph, e *ir.EnumType) ir.EnumType {
	out := *e
	out.TypeInfo = typeInfoSnapshot(g, e.TypeInfo)
	out.UnderlyingType = g.TypeName(e.UnderlyingType)
	out.Fields = append([]ir.EnumField(nil), e.Fields...)
	return out
}

func functionSnapshot(g *ir.Graph, f *ir.Function) ir.Function {
	out := *f
	out.ReturnType = g.TypeName(f.ReturnType)
	if len(f.Parameters) > 0 {
		out.Parameters = make([]ir.Parameter, 0, len(f.Parameters))
		for _, p := range f.Parameters {
			p.FieldType = g.TypeName(p.FieldType)
			out.Parameters = append(out.Parameters, p)
		}
	}
	out.TemplateInfo = templateInfoSnapshot(g, f.TemplateInfo)
	return out
}

func globalVarSnapshot(g *ir.Graph, v *ir.GlobalVar) ir.GlobalVar {
	out := *v
	out.ReferencedType = g.TypeName(v.ReferencedType)
	return out
}
