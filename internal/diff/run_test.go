package diff

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/abidiff/internal/ir"
	"github.com/roach88/abidiff/internal/report"
	"github.com/roach88/abidiff/internal/testutil"
)

var field = testutil.Field

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runDiff(t *testing.T, old, new *ir.Graph, opts Options) *report.Report {
	t.Helper()
	opts.Logger = discardLogger()
	r, err := Run(context.Background(), old, new, opts)
	require.NoError(t, err)
	return r
}

func hello(extra ...ir.RecordField) *testutil.ModuleBuilder {
	fields := append([]ir.RecordField{field("foo", "int", 0), field("bar", "int", 32)}, extra...)
	return testutil.NewModule("libhello.so").
		Builtin("int", 4).Builtin("void", 0).
		Record("Hello", fields...).
		Pointer("Hello").
		Function("hello_init", "void", "Hello *").
		GlobalVar("hello_count", "int")
}

func TestRun_Reflexive(t *testing.T) {
	builders := map[string]*testutil.ModuleBuilder{
		"hello": hello(),
		"node": testutil.NewModule("libnode.so").Builtin("int", 4).
			Record("Node", field("next", "Node *", 0), field("value", "int", 64)).
			Pointer("Node").
			Function("node_len", "int", "Node *"),
		"plain symbols": testutil.NewModule("lib").ElfFunction("f").ElfObject("o"),
	}
	for name, b := range builders {
		t.Run(name, func(t *testing.T) {
			g := b.Graph()
			r := runDiff(t, g, g, Options{CheckAllAPIs: true})
			assert.Equal(t, 0, r.Len())
			assert.Equal(t, report.Compatible, r.CompatibilityStatus)
		})
	}
}

func TestRun_AddedField(t *testing.T) {
	old := hello().Graph()
	new := hello(field("baz", "int", 64)).Graph()

	r := runDiff(t, old, new, Options{})
	require.Len(t, r.RecordTypeDiffs, 1)
	d := r.RecordTypeDiffs[0]
	assert.Equal(t, "Hello", d.Name)
	assert.Equal(t, "hello_init-> Hello *-> Hello", d.TypeStack)
	assert.Equal(t, []ir.RecordField{field("baz", "int", 64)}, d.FieldsAdded)
	require.NotNil(t, d.TypeInfoDiff)
	assert.Equal(t, int64(12), d.TypeInfoDiff.NewTypeInfo.Size)

	assert.Empty(t, r.FunctionDiffs, "a pointer to a changed record is not a function change")
	assert.Empty(t, r.UnreferencedRecordTypeDiffs, "referenced diffs are not repeated")
	assert.Equal(t, report.Incompatible, r.CompatibilityStatus)
	assert.True(t, r.Breaking())
}

func TestRun_PositionalSwap(t *testing.T) {
	build := func(fields ...ir.RecordField) *ir.Graph {
		return testutil.NewModule("lib").Builtin("int", 4).Builtin("float", 4).Builtin("void", 0).
			Record("S", fields...).Pointer("S").
			Function("use", "void", "S *").
			Graph()
	}
	old := build(field("a", "int", 0), field("b", "float", 32))
	new := build(field("b", "float", 0), field("a", "int", 32))

	r := runDiff(t, old, new, Options{})
	require.Len(t, r.RecordTypeDiffs, 1)
	d := r.RecordTypeDiffs[0]
	assert.Equal(t, "S", d.Name)
	require.Len(t, d.FieldsDiff, 2)
	assert.Equal(t, "a", d.FieldsDiff[0].OldField.FieldName)
	assert.Equal(t, "b", d.FieldsDiff[0].NewField.FieldName)
	assert.Nil(t, d.TypeInfoDiff)
}

func TestRun_FieldRenameIsNotADiff(t *testing.T) {
	old := hello().Graph()
	new := testutil.NewModule("libhello.so").
		Builtin("int", 4).Builtin("void", 0).
		Record("Hello", field("first", "int", 0), field("second", "int", 32)).
		Pointer("Hello").
		Function("hello_init", "void", "Hello *").
		GlobalVar("hello_count", "int").
		Graph()

	r := runDiff(t, old, new, Options{})
	assert.Equal(t, 0, r.Len())
}

func nodeModule(valueType string) *testutil.ModuleBuilder {
	return testutil.NewModule("libnode.so").Builtin("int", 4).Builtin("long", 8).
		Record("Node", field("next", "Node *", 0), field("value", valueType, 64)).
		Pointer("Node").
		Function("node_len", "int", "Node *")
}

func TestRun_SelfReferentialRecord(t *testing.T) {
	t.Run("identical", func(t *testing.T) {
		r := runDiff(t, nodeModule("int").Graph(), nodeModule("int").Graph(), Options{})
		assert.Equal(t, 0, r.Len())
	})

	t.Run("changed", func(t *testing.T) {
		r := runDiff(t, nodeModule("int").Graph(), nodeModule("long").Graph(), Options{})
		require.Len(t, r.RecordTypeDiffs, 1)
		d := r.RecordTypeDiffs[0]
		assert.Equal(t, "node_len-> Node *-> Node", d.TypeStack)
		require.Len(t, d.FieldsDiff, 1)
		assert.Equal(t, "int", d.FieldsDiff[0].OldField.ReferencedType)
		assert.Equal(t, "long", d.FieldsDiff[0].NewField.ReferencedType)
		assert.Empty(t, r.UnreferencedRecordTypeDiffs)
	})
}

func TestRun_NestedRecordPropagation(t *testing.T) {
	build := func(xType string) *ir.Graph {
		return testutil.NewModule("lib").Builtin("int", 4).Builtin("long", 4).Builtin("void", 0).
			Record("B", field("x", xType, 0)).
			Record("A", field("b", "B", 0), field("y", "int", 32)).
			Pointer("A").
			Function("f", "void", "A *").
			Graph()
	}

	r := runDiff(t, build("int"), build("long"), Options{})
	require.Len(t, r.RecordTypeDiffs, 1)
	d := r.RecordTypeDiffs[0]
	assert.Equal(t, "B", d.Name)
	assert.Equal(t, "f-> A *-> A-> B", d.TypeStack)
	assert.Empty(t, r.UnreferencedRecordTypeDiffs)
	assert.Equal(t, report.Incompatible, r.CompatibilityStatus)
}

// outerModule wraps an anonymous member struct declared at line in a
// record reached from f(Outer *).
func outerModule(line, memberType string) *testutil.ModuleBuilder {
	anon := "(anonymous struct at a.h:" + line + ")"
	return testutil.NewModule("libouter.so").
		Builtin("int", 4).Builtin("long", 8).Builtin("void", 0).
		AnonymousRecord(anon, field("x", memberType, 0)).
		Record("Outer", field("inner", anon, 0)).
		Pointer("Outer").
		Function("f", "void", "Outer *")
}

func TestRun_AnonymousRecords(t *testing.T) {
	t.Run("moved and changed", func(t *testing.T) {
		r := runDiff(t, outerModule("3", "int").Graph(), outerModule("4", "long").Graph(), Options{})

		require.Len(t, r.RecordTypeDiffs, 1)
		d := r.RecordTypeDiffs[0]
		assert.Equal(t, "(anonymous struct at a.h:3)", d.Name)
		assert.Equal(t, "(anonymous struct at a.h:3)", d.LinkerSetKey)
		assert.Equal(t, "f-> Outer *-> Outer-> (anonymous struct at a.h:3)", d.TypeStack)
		require.Len(t, d.FieldsDiff, 1)
		assert.Equal(t, "long", d.FieldsDiff[0].NewField.ReferencedType)
		assert.Empty(t, r.FunctionDiffs)
		assert.Equal(t, report.Incompatible, r.CompatibilityStatus)
	})

	t.Run("moved only", func(t *testing.T) {
		r := runDiff(t, outerModule("3", "int").Graph(), outerModule("4", "int").Graph(), Options{})
		assert.Empty(t, r.RecordTypeDiffs)
		assert.Empty(t, r.FunctionDiffs)
		assert.Equal(t, report.Compatible, r.CompatibilityStatus)
	})

	t.Run("named record replaced", func(t *testing.T) {
		old := testutil.NewModule("lib").Builtin("int", 4).Builtin("void", 0).
			Record("A", field("x", "int", 0)).Record("B", field("x", "int", 0)).
			Pointer("A").Pointer("B").
			Function("f", "void", "A *")
		new := testutil.NewModule("lib").Builtin("int", 4).Builtin("void", 0).
			Record("A", field("x", "int", 0)).Record("B", field("x", "int", 0)).
			Pointer("A").Pointer("B").
			Function("f", "void", "B *")

		r := runDiff(t, old.Graph(), new.Graph(), Options{})
		assert.Empty(t, r.RecordTypeDiffs, "an unrelated record is not diffed")
		require.Len(t, r.FunctionDiffs, 1)
		assert.Equal(t, report.Incompatible, r.CompatibilityStatus)
	})
}

func TestRun_EnumValueChange(t *testing.T) {
	build := func(first, second int64) *ir.Graph {
		return testutil.NewModule("lib").Builtin("int", 4).Builtin("void", 0).
			Enum("Foo_s", "int", testutil.Enumerator("foosball", first), testutil.Enumerator("foosbat", second)).
			Function("set_foo", "void", "Foo_s").
			Graph()
	}

	r := runDiff(t, build(10, 11), build(11, 12), Options{})
	require.Len(t, r.EnumTypeDiffs, 1)
	d := r.EnumTypeDiffs[0]
	assert.Equal(t, "Foo_s", d.Name)
	assert.Equal(t, "set_foo-> Foo_s", d.TypeStack)
	require.Len(t, d.FieldsDiff, 2)
	assert.Equal(t, testutil.Enumerator("foosball", 10), d.FieldsDiff[0].OldField)
	assert.Equal(t, testutil.Enumerator("foosball", 11), d.FieldsDiff[0].NewField)
	assert.Nil(t, d.UnderlyingTypeDiff)
	assert.Empty(t, r.FunctionDiffs)
}

func TestRun_EnumReorderIsADiff(t *testing.T) {
	old := testutil.NewModule("lib").Builtin("int", 4).
		Enum("E", "int", testutil.Enumerator("A", 0), testutil.Enumerator("B", 1)).Graph()
	new := testutil.NewModule("lib").Builtin("int", 4).
		Enum("E", "int", testutil.Enumerator("B", 1), testutil.Enumerator("A", 0)).Graph()

	r := runDiff(t, old, new, Options{})
	require.Len(t, r.UnreferencedEnumTypeDiffs, 1)
	assert.Len(t, r.UnreferencedEnumTypeDiffs[0].FieldsDiff, 2)
	assert.Equal(t, report.UnreferencedChanges, r.CompatibilityStatus)
}

func TestRun_EnumAppend(t *testing.T) {
	old := testutil.NewModule("lib").Builtin("int", 4).
		Enum("E", "int", testutil.Enumerator("A", 0)).Graph()
	new := testutil.NewModule("lib").Builtin("int", 4).
		Enum("E", "int", testutil.Enumerator("A", 0), testutil.Enumerator("B", 1)).Graph()

	r := runDiff(t, old, new, Options{})
	require.Len(t, r.UnreferencedEnumTypeDiffs, 1)
	d := r.UnreferencedEnumTypeDiffs[0]
	assert.Empty(t, d.FieldsDiff)
	assert.Equal(t, []ir.EnumField{testutil.Enumerator("B", 1)}, d.FieldsAdded)
}

func TestRun_ReturnTypeChange(t *testing.T) {
	build := func(ret string) *ir.Graph {
		return testutil.NewModule("lib").Builtin("float", 4).Builtin("void", 0).
			Function("test_float", ret, "float").
			Graph()
	}

	r := runDiff(t, build("void"), build("float"), Options{})
	require.Len(t, r.FunctionDiffs, 1)
	d := r.FunctionDiffs[0]
	assert.Equal(t, "test_float", d.Name)
	assert.Equal(t, "test_float", d.TypeStack)
	assert.Equal(t, "void", d.Old.ReturnType)
	assert.Equal(t, "float", d.New.ReturnType)
	assert.Equal(t, report.Incompatible, r.CompatibilityStatus)
}

func TestRun_FunctionChanges(t *testing.T) {
	base := func() *testutil.ModuleBuilder {
		return testutil.NewModule("lib").Builtin("int", 4).Builtin("void", 0).Pointer("int").Const("int", 4)
	}
	volatile := func(b *testutil.ModuleBuilder) *ir.Graph {
		m := b.Module()
		m.QualifiedTypes[0].IsVolatile = true
		return ir.MustGraph(m)
	}

	tests := []struct {
		name    string
		old     *ir.Graph
		new     *ir.Graph
		changed bool
	}{
		{"parameter kind change", base().Function("f", "void", "int").Graph(), base().Function("f", "void", "int *").Graph(), true},
		{"parameter added", base().Function("f", "void", "int").Graph(), base().Function("f", "void", "int", "int").Graph(), true},
		{"qualifier change", base().Function("f", "void", "const int").Graph(), volatile(base().Function("f", "void", "const int")), true},
		{"default argument", base().Function("f", "void", "int").Graph(), base().AddFunction(ir.Function{
			FunctionName: "f", LinkerSetKey: "f", ReturnType: "void", Access: ir.AccessPublic,
			Parameters: []ir.Parameter{{FieldType: "int", DefaultArg: true, FieldName: "renamed"}},
		}).Graph(), false},
		{"access change", base().Function("f", "void").Graph(), base().AddFunction(ir.Function{
			FunctionName: "f", LinkerSetKey: "f", ReturnType: "void", Access: ir.AccessProtected,
		}).Graph(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := runDiff(t, tt.old, tt.new, Options{})
			if tt.changed {
				assert.Len(t, r.FunctionDiffs, 1)
			} else {
				assert.Equal(t, 0, r.Len())
			}
		})
	}
}

func TestRun_GlobalVarTypeChange(t *testing.T) {
	build := func(typ string) *ir.Graph {
		return testutil.NewModule("lib").Builtin("int", 4).Builtin("long", 8).GlobalVar("counter", typ).Graph()
	}

	r := runDiff(t, build("int"), build("long"), Options{})
	require.Len(t, r.GlobalVarDiffs, 1)
	assert.Equal(t, "counter", r.GlobalVarDiffs[0].Name)
	assert.Equal(t, "long", r.GlobalVarDiffs[0].New.ReferencedType)
}

func TestRun_AddedAndRemoved(t *testing.T) {
	old := testutil.NewModule("lib").Builtin("int", 4).
		Function("test_int", "int").Function("kept", "int").GlobalVar("gone_var", "int").
		Graph()
	new := testutil.NewModule("lib").Builtin("int", 4).
		Function("kept", "int").Function("fresh", "int").GlobalVar("new_var", "int").
		Graph()

	r := runDiff(t, old, new, Options{})
	require.Len(t, r.FunctionsRemoved, 1)
	assert.Equal(t, "test_int", r.FunctionsRemoved[0].FunctionName)
	require.Len(t, r.FunctionsAdded, 1)
	assert.Equal(t, "fresh", r.FunctionsAdded[0].FunctionName)
	require.Len(t, r.GlobalVarsRemoved, 1)
	require.Len(t, r.GlobalVarsAdded, 1)

	// Entities with declarations are never double counted as plain symbols.
	assert.Empty(t, r.RemovedElfFunctions)
	assert.Empty(t, r.AddedElfFunctions)
	assert.Empty(t, r.RemovedElfObjects)
	assert.Equal(t, report.Incompatible, r.CompatibilityStatus)
}

func TestRun_OnlyAdditions(t *testing.T) {
	old := testutil.NewModule("lib").Builtin("int", 4).Function("kept", "int").Graph()
	new := testutil.NewModule("lib").Builtin("int", 4).Function("kept", "int").Function("fresh", "int").
		ElfObject("table").Graph()

	r := runDiff(t, old, new, Options{})
	assert.Len(t, r.FunctionsAdded, 1)
	assert.Len(t, r.AddedElfObjects, 1)
	assert.Equal(t, report.Extension, r.CompatibilityStatus)
	assert.False(t, r.Breaking())
}

func TestRun_RemovedDeclarationStillExported(t *testing.T) {
	old := testutil.NewModule("lib").Builtin("int", 4).Function("f", "int").Function("g", "int").Graph()
	new := testutil.NewModule("lib").Builtin("int", 4).Function("f", "int").ElfFunction("g").Graph()

	r := runDiff(t, old, new, Options{})
	assert.Equal(t, 0, r.Len())
}

func TestRun_PlainElfSymbols(t *testing.T) {
	old := testutil.NewModule("lib").ElfFunction("legacy").ElfObject("table").ElfFunction("stable").Graph()
	new := testutil.NewModule("lib").ElfFunction("stable").Graph()

	r := runDiff(t, old, new, Options{})
	assert.Equal(t, []ir.ElfSymbol{{Name: "legacy", Binding: ir.BindingGlobal}}, r.RemovedElfFunctions)
	assert.Equal(t, []ir.ElfSymbol{{Name: "table", Binding: ir.BindingGlobal}}, r.RemovedElfObjects)
	assert.Equal(t, report.ElfIncompatible, r.CompatibilityStatus)
	assert.True(t, r.Breaking())
}

func TestRun_UnreferencedRecord(t *testing.T) {
	build := func(size int64) *ir.Graph {
		return testutil.NewModule("lib").Builtin("int", 4).
			RecordSized("Internal", size, field("x", "int", 0)).
			Graph()
	}

	r := runDiff(t, build(4), build(8), Options{})
	require.Len(t, r.UnreferencedRecordTypeDiffs, 1)
	d := r.UnreferencedRecordTypeDiffs[0]
	assert.Equal(t, "Internal", d.TypeStack)
	assert.NotNil(t, d.TypeInfoDiff)
	assert.Empty(t, r.RecordTypeDiffs)
	assert.Equal(t, report.UnreferencedChanges, r.CompatibilityStatus)
}

func TestRun_CheckAllAPIs(t *testing.T) {
	old := testutil.NewModule("lib").Builtin("int", 4).
		Record("Gone", field("x", "int", 0)).
		Enum("GoneEnum", "int", testutil.Enumerator("A", 0)).
		Graph()
	new := testutil.NewModule("lib").Builtin("int", 4).Graph()

	r := runDiff(t, old, new, Options{})
	assert.Equal(t, 0, r.Len())

	r = runDiff(t, old, new, Options{CheckAllAPIs: true})
	require.Len(t, r.RecordTypesRemoved, 1)
	assert.Equal(t, "Gone", r.RecordTypesRemoved[0].TypeInfo.Name)
	require.Len(t, r.EnumTypesRemoved, 1)
	assert.Equal(t, report.UnreferencedChanges, r.CompatibilityStatus)
}

func TestRun_DanglingReference(t *testing.T) {
	g := testutil.NewModule("lib").Builtin("void", 0).Function("f", "void", "ghost").Graph()

	_, err := Run(context.Background(), g, g, Options{Logger: discardLogger()})
	require.Error(t, err)
	assert.True(t, IsDanglingReference(err))

	var dangling *ir.DanglingReferenceError
	require.True(t, errors.As(err, &dangling))
	assert.Equal(t, "ghost", dangling.ID)

	var de *Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, []string{"f"}, de.Path)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := hello().Graph()
	_, err := Run(ctx, g, g, Options{Logger: discardLogger()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_Deterministic(t *testing.T) {
	old := hello().Function("a", "int").Function("b", "int").ElfFunction("z").ElfFunction("y").Graph()
	new := hello(field("baz", "int", 64)).Function("c", "int").Graph()

	first, err := runDiff(t, old, new, Options{CheckAllAPIs: true}).Canonical()
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := runDiff(t, old, new, Options{CheckAllAPIs: true}).Canonical()
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}
