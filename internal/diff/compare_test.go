package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/abidiff/internal/ir"
	"github.com/roach88/abidiff/internal/report"
	"github.com/roach88/abidiff/internal/testutil"
)

func newTestSession(old, new *ir.Graph) (*Session, *report.Assembler) {
	asm := report.NewAssembler(old, new, "lib", "arch")
	return NewSession(old, new, asm, discardLogger()), asm
}

func TestCompareTypes_Builtins(t *testing.T) {
	mod := func(unsigned bool) *ir.Graph {
		m := testutil.NewModule("lib").Builtin("int", 4).Builtin("long", 8).Builtin("int32_t", 4).Module()
		m.BuiltinTypes[0].IsUnsigned = unsigned
		return ir.MustGraph(m)
	}
	old, signedAgain, unsigned := mod(false), mod(false), mod(true)

	tests := []struct {
		name     string
		new      *ir.Graph
		oldID    string
		newID    string
		expected DiffStatus
	}{
		{"same", signedAgain, "int", "int", NoDiff},
		{"size", signedAgain, "int", "long", DirectDiff},
		{"name only", signedAgain, "int", "int32_t", DirectDiff},
		{"signedness", unsigned, "int", "int", DirectDiff},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestSession(old, tt.new)
			status, err := s.CompareTypes(tt.oldID, tt.newID)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, status)
		})
	}
}

func TestCompareTypes_Wrappers(t *testing.T) {
	old := testutil.NewModule("lib").Builtin("int", 4).Builtin("long", 8).
		Typedef("handle_t", "int", 4).Array("int", 4, 16).Array("long", 4, 32).
		Graph()
	new := testutil.NewModule("lib").Builtin("int", 4).Builtin("long", 8).
		Typedef("handle_t", "long", 8).Array("int", 4, 16).Array("long", 4, 32).
		Graph()

	s, _ := newTestSession(old, new)

	status, err := s.CompareTypes("handle_t", "handle_t")
	require.NoError(t, err)
	assert.Equal(t, DirectDiff, status, "typedef target changed")

	status, err = s.CompareTypes("int[4]", "int[4]")
	require.NoError(t, err)
	assert.Equal(t, NoDiff, status)

	status, err = s.CompareTypes("int[4]", "long[4]")
	require.NoError(t, err)
	assert.Equal(t, DirectDiff, status, "array size changed")
}

func TestCompareTypes_EmptyIDs(t *testing.T) {
	g := testutil.NewModule("lib").Builtin("int", 4).Graph()
	s, _ := newTestSession(g, g)

	status, err := s.CompareTypes("", "")
	require.NoError(t, err)
	assert.Equal(t, NoDiff, status)

	status, err = s.CompareTypes("int", "")
	require.NoError(t, err)
	assert.Equal(t, DirectDiff, status)
}

func TestCompareTypes_CycleTerminates(t *testing.T) {
	// A <-> B through pointers in both directions.
	build := func() *ir.Graph {
		return testutil.NewModule("lib").
			Record("A", field("b", "B *", 0)).
			Record("B", field("a", "A *", 0)).
			Pointer("A").Pointer("B").
			Graph()
	}
	s, asm := newTestSession(build(), build())

	status, err := s.CompareTypes("A", "A")
	require.NoError(t, err)
	assert.Equal(t, NoDiff, status)
	assert.Equal(t, 4, s.Compared())
	assert.Equal(t, 0, asm.Report().Len())
}

func TestCompareTypes_MemoReturnsEarlierResult(t *testing.T) {
	old := testutil.NewModule("lib").Builtin("int", 4).Builtin("long", 8).Record("S", field("x", "int", 0)).Graph()
	new := testutil.NewModule("lib").Builtin("int", 4).Builtin("long", 8).Record("S", field("x", "long", 0)).Graph()
	s, asm := newTestSession(old, new)

	first, err := s.CompareTypes("S", "S")
	require.NoError(t, err)
	second, err := s.CompareTypes("S", "S")
	require.NoError(t, err)

	assert.Equal(t, IndirectDiff, first)
	assert.Equal(t, first, second)
	assert.Len(t, asm.Report().RecordTypeDiffs, 1, "the diff is emitted once")
}

func TestCompareTypes_RecordInSlotReplaced(t *testing.T) {
	old := testutil.NewModule("lib").Builtin("int", 4).Record("S", field("x", "int", 0)).Graph()
	new := testutil.NewModule("lib").Builtin("int", 4).Record("T", field("x", "int", 0)).Graph()
	s, asm := newTestSession(old, new)

	status, err := s.CompareTypes("S", "T")
	require.NoError(t, err)
	assert.Equal(t, DirectDiff, status)
	assert.Equal(t, 0, asm.Report().Len(), "no message for an unrelated record")
}

func TestCompareTypes_RecordIdentity(t *testing.T) {
	build := func(anonymous bool, name, member string) *ir.Graph {
		b := testutil.NewModule("lib").Builtin("int", 4).Builtin("long", 8)
		if anonymous {
			return b.AnonymousRecord(name, field("x", member, 0)).Graph()
		}
		return b.Record(name, field("x", member, 0)).Graph()
	}

	tests := []struct {
		name     string
		old, new *ir.Graph
		oldID    string
		newID    string
		want     DiffStatus
		messages int
	}{
		{"anonymous moved and changed", build(true, "anon@3", "int"), build(true, "anon@4", "long"), "anon@3", "anon@4", IndirectDiff, 1},
		{"anonymous moved only", build(true, "anon@3", "int"), build(true, "anon@4", "int"), "anon@3", "anon@4", NoDiff, 0},
		{"named record replaced", build(false, "S", "int"), build(false, "T", "long"), "S", "T", DirectDiff, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, asm := newTestSession(tt.old, tt.new)
			status, err := s.CompareTypes(tt.oldID, tt.newID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
			assert.Len(t, asm.Report().RecordTypeDiffs, tt.messages)
		})
	}
}

func TestCompareTypes_DanglingNewSide(t *testing.T) {
	old := testutil.NewModule("lib").Builtin("int", 4).Graph()
	new := testutil.NewModule("lib").Graph()
	s, _ := newTestSession(old, new)

	_, err := s.CompareTypes("int", "int")
	require.Error(t, err)
	assert.True(t, IsDanglingReference(err))
	assert.Contains(t, err.Error(), "new dump")
	assert.Equal(t, 0, s.Compared(), "failed pairs are not remembered")
}

func TestCompareRecords_RecordDetails(t *testing.T) {
	vtable := func(names ...string) *ir.VTableLayout {
		vt := &ir.VTableLayout{}
		for _, n := range names {
			vt.Components = append(vt.Components, ir.VTableComponent{Kind: "FunctionPointer", MangledComponentName: n})
		}
		return vt
	}
	base := func(mutate func(r *ir.RecordType)) *ir.Graph {
		m := testutil.NewModule("lib").Builtin("int", 4).
			Record("Base", field("x", "int", 0)).
			Record("Other", field("y", "int", 0)).
			Record("S", field("x", "int", 0)).
			Module()
		s := &m.RecordTypes[2]
		s.BaseSpecifiers = []ir.BaseSpecifier{{ReferencedType: "Base", Access: ir.AccessPublic}}
		s.VTableLayout = vtable("_ZN1S1fEv")
		if mutate != nil {
			mutate(s)
		}
		return ir.MustGraph(m)
	}

	tests := []struct {
		name   string
		mutate func(r *ir.RecordType)
		check  func(t *testing.T, d report.RecordTypeDiff)
	}{
		{"vtable append is compatible", func(r *ir.RecordType) { r.VTableLayout = vtable("_ZN1S1fEv", "_ZN1S1gEv") }, nil},
		{"vtable slot replaced", func(r *ir.RecordType) { r.VTableLayout = vtable("_ZN1S1gEv") }, func(t *testing.T, d report.RecordTypeDiff) {
			assert.NotNil(t, d.VTableLayoutDiff)
		}},
		{"base replaced", func(r *ir.RecordType) { r.BaseSpecifiers[0].ReferencedType = "Other" }, func(t *testing.T, d report.RecordTypeDiff) {
			require.NotNil(t, d.BasesDiff)
			assert.Equal(t, "Other", d.BasesDiff.NewBases[0].ReferencedType)
		}},
		{"base made virtual", func(r *ir.RecordType) { r.BaseSpecifiers[0].IsVirtual = true }, func(t *testing.T, d report.RecordTypeDiff) {
			assert.NotNil(t, d.BasesDiff)
		}},
		{"record kind", func(r *ir.RecordType) { r.RecordKind = ir.RecordUnion }, func(t *testing.T, d report.RecordTypeDiff) {
			assert.Equal(t, &report.RecordKindDiff{OldKind: ir.RecordStruct, NewKind: ir.RecordUnion}, d.RecordKindDiff)
		}},
		{"access", func(r *ir.RecordType) { r.Access = ir.AccessPrivate }, func(t *testing.T, d report.RecordTypeDiff) {
			assert.NotNil(t, d.AccessDiff)
		}},
		{"field access", func(r *ir.RecordType) { r.Fields[0].Access = ir.AccessPrivate }, func(t *testing.T, d report.RecordTypeDiff) {
			assert.Len(t, d.FieldsDiff, 1)
		}},
		{"field removed", func(r *ir.RecordType) { r.Fields = nil }, func(t *testing.T, d report.RecordTypeDiff) {
			assert.Equal(t, []ir.RecordField{field("x", "int", 0)}, d.FieldsRemoved)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			old, new := base(nil), base(tt.mutate)
			s, asm := newTestSession(old, new)
			or, _ := old.Record("S")
			nr, _ := new.Record("S")

			_, err := s.CompareRecords(or, nr)
			require.NoError(t, err)
			r := asm.Report()
			if tt.check == nil {
				assert.Equal(t, 0, r.Len())
				return
			}
			require.Len(t, r.UnreferencedRecordTypeDiffs, 1)
			tt.check(t, r.UnreferencedRecordTypeDiffs[0])
		})
	}
}

func TestCompareRecords_TemplateArguments(t *testing.T) {
	build := func(arg string) *ir.Graph {
		m := testutil.NewModule("lib").Builtin("int", 4).Builtin("long", 8).
			Record("vector<T>", field("n", "int", 0)).Module()
		m.RecordTypes[0].TemplateInfo = &ir.TemplateInfo{Elements: []ir.TemplateElement{{ReferencedType: arg}}}
		return ir.MustGraph(m)
	}
	old, new := build("int"), build("long")
	s, asm := newTestSession(old, new)
	or, _ := old.Record("vector<T>")
	nr, _ := new.Record("vector<T>")

	status, err := s.CompareRecords(or, nr)
	require.NoError(t, err)
	assert.Equal(t, IndirectDiff, status)
	d := asm.Report().UnreferencedRecordTypeDiffs[0]
	require.NotNil(t, d.TemplateDiff)
	assert.Equal(t, []ir.TemplateElement{{ReferencedType: "long"}}, d.TemplateDiff.NewElements)
}

func TestVTablePrefix(t *testing.T) {
	c := func(name string, value int64) ir.VTableComponent {
		return ir.VTableComponent{Kind: "FunctionPointer", MangledComponentName: name, ComponentValue: value}
	}
	tests := []struct {
		name string
		old  *ir.VTableLayout
		new  *ir.VTableLayout
		want bool
	}{
		{"both absent", nil, nil, true},
		{"added vtable", nil, &ir.VTableLayout{Components: []ir.VTableComponent{c("f", 0)}}, true},
		{"removed vtable", &ir.VTableLayout{Components: []ir.VTableComponent{c("f", 0)}}, nil, false},
		{"value changed", &ir.VTableLayout{Components: []ir.VTableComponent{c("f", 0)}}, &ir.VTableLayout{Components: []ir.VTableComponent{c("f", 8)}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, vtablePrefix(tt.old, tt.new))
		})
	}
}

func TestDiffStatus_String(t *testing.T) {
	assert.Equal(t, "no_diff", NoDiff.String())
	assert.Equal(t, "indirect_diff", IndirectDiff.String())
	assert.Equal(t, "direct_diff", DirectDiff.String())
	assert.Equal(t, DirectDiff, worse(IndirectDiff, DirectDiff))
	assert.Equal(t, IndirectDiff, worse(IndirectDiff, NoDiff))
}
