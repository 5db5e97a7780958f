package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/roach88/abidiff/internal/ir"
)

// palette holds the colors used by WriteText.
type palette struct {
	red, green, yellow, bold func(a ...interface{}) string
}

func newPalette(colorize bool) palette {
	mk := func(attrs ...color.Attribute) func(a ...interface{}) string {
		c := color.New(attrs...)
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return palette{
		red:    mk(color.FgRed),
		green:  mk(color.FgGreen),
		yellow: mk(color.FgYellow),
		bold:   mk(color.Bold),
	}
}

// WriteText renders r for a terminal. Only non-empty sections are written.
func WriteText(w io.Writer, r *Report, colorize bool) error {
	p := newPalette(colorize)
	tw := &textWriter{w: w}

	status := r.CompatibilityStatus.String()
	switch {
	case r.Breaking():
		status = p.red(status)
	case r.CompatibilityStatus == Compatible:
		status = p.green(status)
	default:
		status = p.yellow(status)
	}
	tw.printf("%s %s (%s): %s\n", p.bold("ABI report for"), r.LibName, r.Arch, status)

	tw.section(p, "Removed functions", len(r.FunctionsRemoved), func() {
		for _, f := range r.FunctionsRemoved {
			tw.printf("  %s %s\n", p.red("-"), functionSignature(f))
		}
	})
	tw.section(p, "Removed global variables", len(r.GlobalVarsRemoved), func() {
		for _, v := range r.GlobalVarsRemoved {
			tw.printf("  %s %s %s\n", p.red("-"), v.ReferencedType, v.Name)
		}
	})
	tw.section(p, "Removed ELF symbols", len(r.RemovedElfFunctions)+len(r.RemovedElfObjects), func() {
		for _, s := range r.RemovedElfFunctions {
			tw.printf("  %s %s (function, %s)\n", p.red("-"), s.Name, s.Binding)
		}
		for _, s := range r.RemovedElfObjects {
			tw.printf("  %s %s (object, %s)\n", p.red("-"), s.Name, s.Binding)
		}
	})
	tw.section(p, "Changed functions", len(r.FunctionDiffs), func() {
		for _, d := range r.FunctionDiffs {
			tw.printf("  %s\n", d.Name)
			tw.printf("    %s %s\n", p.red("-"), functionSignature(d.Old))
			tw.printf("    %s %s\n", p.green("+"), functionSignature(d.New))
		}
	})
	tw.section(p, "Changed global variables", len(r.GlobalVarDiffs), func() {
		for _, d := range r.GlobalVarDiffs {
			tw.printf("  %s\n", d.Name)
			tw.printf("    %s %s (%s)\n", p.red("-"), d.Old.ReferencedType, d.Old.Access)
			tw.printf("    %s %s (%s)\n", p.green("+"), d.New.ReferencedType, d.New.Access)
		}
	})
	tw.section(p, "Changed records", len(r.RecordTypeDiffs), func() {
		for _, d := range r.RecordTypeDiffs {
			writeRecordDiff(tw, p, d)
		}
	})
	tw.section(p, "Changed enums", len(r.EnumTypeDiffs), func() {
		for _, d := range r.EnumTypeDiffs {
			writeEnumDiff(tw, p, d)
		}
	})
	tw.section(p, "Added functions", len(r.FunctionsAdded), func() {
		for _, f := range r.FunctionsAdded {
			tw.printf("  %s %s\n", p.green("+"), functionSignature(f))
		}
	})
	tw.section(p, "Added global variables", len(r.GlobalVarsAdded), func() {
		for _, v := range r.GlobalVarsAdded {
			tw.printf("  %s %s %s\n", p.green("+"), v.ReferencedType, v.Name)
		}
	})
	tw.section(p, "Added ELF symbols", len(r.AddedElfFunctions)+len(r.AddedElfObjects), func() {
		for _, s := range r.AddedElfFunctions {
			tw.printf("  %s %s (function, %s)\n", p.green("+"), s.Name, s.Binding)
		}
		for _, s := range r.AddedElfObjects {
			tw.printf("  %s %s (object, %s)\n", p.green("+"), s.Name, s.Binding)
		}
	})
	tw.section(p, "Unreferenced record changes", len(r.UnreferencedRecordTypeDiffs), func() {
		for _, d := range r.UnreferencedRecordTypeDiffs {
			writeRecordDiff(tw, p, d)
		}
	})
	tw.section(p, "Unreferenced enum changes", len(r.UnreferencedEnumTypeDiffs), func() {
		for _, d := range r.UnreferencedEnumTypeDiffs {
			writeEnumDiff(tw, p, d)
		}
	})
	tw.section(p, "Removed types", len(r.RecordTypesRemoved)+len(r.EnumTypesRemoved), func() {
		for _, t := range r.RecordTypesRemoved {
			tw.printf("  %s %s\n", p.red("-"), t.TypeInfo.Name)
		}
		for _, t := range r.EnumTypesRemoved {
			tw.printf("  %s %s\n", p.red("-"), t.TypeInfo.Name)
		}
	})

	if r.Len() == 0 {
		tw.printf("No differences.\n")
	}
	return tw.err
}

// textWriter remembers the first write error so rendering code stays flat.
type textWriter struct {
	w   io.Writer
	err error
}

func (tw *textWriter) printf(format string, args ...interface{}) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.w, format, args...)
}

func (tw *textWriter) section(p palette, title string, n int, body func()) {
	if n == 0 {
		return
	}
	tw.printf("\n%s (%d)\n", p.bold(title), n)
	body()
}

func writeRecordDiff(tw *textWriter, p palette, d RecordTypeDiff) {
	tw.printf("  %s\n", d.Name)
	if d.TypeStack != "" {
		tw.printf("    via %s\n", d.TypeStack)
	}
	if d.TypeInfoDiff != nil {
		tw.printf("    size/alignment: %d/%d -> %d/%d\n",
			d.TypeInfoDiff.OldTypeInfo.Size, d.TypeInfoDiff.OldTypeInfo.Alignment,
			d.TypeInfoDiff.NewTypeInfo.Size, d.TypeInfoDiff.NewTypeInfo.Alignment)
	}
	if d.AccessDiff != nil {
		tw.printf("    access: %s -> %s\n", d.AccessDiff.OldAccess, d.AccessDiff.NewAccess)
	}
	if d.RecordKindDiff != nil {
		tw.printf("    kind: %s -> %s\n", d.RecordKindDiff.OldKind, d.RecordKindDiff.NewKind)
	}
	if d.VTableLayoutDiff != nil {
		tw.printf("    vtable: %d -> %d components\n",
			len(d.VTableLayoutDiff.OldVTable.Components), len(d.VTableLayoutDiff.NewVTable.Components))
	}
	if d.BasesDiff != nil {
		tw.printf("    bases: %s -> %s\n", baseNames(d.BasesDiff.OldBases), baseNames(d.BasesDiff.NewBases))
	}
	if d.TemplateDiff != nil {
		tw.printf("    template arguments: %s -> %s\n",
			templateNames(d.TemplateDiff.OldElements), templateNames(d.TemplateDiff.NewElements))
	}
	for _, f := range d.FieldsDiff {
		tw.printf("    %s %s\n", p.red("-"), fieldLine(f.OldField))
		tw.printf("    %s %s\n", p.green("+"), fieldLine(f.NewField))
	}
	for _, f := range d.FieldsRemoved {
		tw.printf("    %s %s\n", p.red("-"), fieldLine(f))
	}
	for _, f := range d.FieldsAdded {
		tw.printf("    %s %s\n", p.green("+"), fieldLine(f))
	}
}

func writeEnumDiff(tw *textWriter, p palette, d EnumTypeDiff) {
	tw.printf("  %s\n", d.Name)
	if d.TypeStack != "" {
		tw.printf("    via %s\n", d.TypeStack)
	}
	if d.UnderlyingTypeDiff != nil {
		tw.printf("    underlying type: %s -> %s\n", d.UnderlyingTypeDiff.OldType, d.UnderlyingTypeDiff.NewType)
	}
	for _, f := range d.FieldsDiff {
		tw.printf("    %s %s = %d\n", p.red("-"), f.OldField.Name, f.OldField.Value)
		tw.printf("    %s %s = %d\n", p.green("+"), f.NewField.Name, f.NewField.Value)
	}
	for _, f := range d.FieldsRemoved {
		tw.printf("    %s %s = %d\n", p.red("-"), f.Name, f.Value)
	}
	for _, f := range d.FieldsAdded {
		tw.printf("    %s %s = %d\n", p.green("+"), f.Name, f.Value)
	}
}

func functionSignature(f ir.Function) string {
	params := make([]string, 0, len(f.Parameters))
	for _, p := range f.Parameters {
		if p.IsThisPtr {
			continue
		}
		params = append(params, p.FieldType)
	}
	return fmt.Sprintf("%s %s(%s)", f.ReturnType, f.FunctionName, strings.Join(params, ", "))
}

func fieldLine(f ir.RecordField) string {
	return fmt.Sprintf("%s %s @%d", f.ReferencedType, f.FieldName, f.FieldOffset)
}

func baseNames(bases []ir.BaseSpecifier) string {
	names := make([]string, len(bases))
	for i, b := range bases {
		names[i] = b.ReferencedType
	}
	return "[" + strings.Join(names, ", ") + "]"
}

func templateNames(elems []ir.TemplateElement) string {
	names := make([]string, len(elems))
	for i, e := range elems {
		names[i] = e.ReferencedType
	}
	return "<" + strings.Join(names, ", ") + ">"
}
