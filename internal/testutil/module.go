package testutil

import (
	"strconv"

	"github.com/roach88/abidiff/internal/ir"
)

// ModuleBuilder assembles small dumps for tests.
//
// Types are keyed by name: self_type and linker_set_key both equal the
// type name, as in dumps written by older front ends. Functions and
// global variables are also recorded as exported ELF symbols.
type ModuleBuilder struct {
	m ir.Module
}

// NewModule starts a dump for lib.
func NewModule(lib string) *ModuleBuilder {
	return &ModuleBuilder{m: ir.Module{LibName: lib, Arch: "x86_64"}}
}

func typeInfo(name string, size, align int64, ref string) ir.TypeInfo {
	return ir.TypeInfo{
		Name:           name,
		Size:           size,
		Alignment:      align,
		ReferencedType: ref,
		LinkerSetKey:   name,
		SelfType:       name,
	}
}

// Builtin adds a signed integral builtin of the given size in bytes.
// "void" is added with size 0 and not integral.
func (b *ModuleBuilder) Builtin(name string, size int64) *ModuleBuilder {
	b.m.BuiltinTypes = append(b.m.BuiltinTypes, ir.BuiltinType{
		TypeInfo:   typeInfo(name, size, size, ""),
		IsIntegral: name != "void" && name != "float" && name != "double",
	})
	return b
}

// Pointer adds "<to> *".
func (b *ModuleBuilder) Pointer(to string) *ModuleBuilder {
	b.m.PointerTypes = append(b.m.PointerTypes, ir.PointerType{TypeInfo: typeInfo(to+" *", 8, 8, to)})
	return b
}

// Const adds "const <to>".
func (b *ModuleBuilder) Const(to string, size int64) *ModuleBuilder {
	b.m.QualifiedTypes = append(b.m.QualifiedTypes, ir.QualifiedType{
		TypeInfo: typeInfo("const "+to, size, size, to),
		IsConst:  true,
	})
	return b
}

// Typedef adds name as an alias of to.
func (b *ModuleBuilder) Typedef(name, to string, size int64) *ModuleBuilder {
	b.m.TypedefTypes = append(b.m.TypedefTypes, ir.TypedefType{TypeInfo: typeInfo(name, size, size, to)})
	return b
}

// Array adds "<elem>[n]" with the given total size.
func (b *ModuleBuilder) Array(elem string, n, size int64) *ModuleBuilder {
	name := elem + "[" + strconv.FormatInt(n, 10) + "]"
	b.m.ArrayTypes = append(b.m.ArrayTypes, ir.ArrayType{TypeInfo: typeInfo(name, size, size/max(n, 1), elem)})
	return b
}

// Record adds a public struct. Its size is the end of the last field
// rounded up to 4 bytes, assuming 4 byte fields when the offset is unknown.
func (b *ModuleBuilder) Record(name string, fields ...ir.RecordField) *ModuleBuilder {
	var size int64
	for _, f := range fields {
		size = max(size, f.FieldOffset/8+4)
	}
	return b.RecordSized(name, size, fields...)
}

// RecordSized adds a public struct with an explicit size in bytes.
func (b *ModuleBuilder) RecordSized(name string, size int64, fields ...ir.RecordField) *ModuleBuilder {
	b.m.RecordTypes = append(b.m.RecordTypes, ir.RecordType{
		TypeInfo:   typeInfo(name, size, 4, ""),
		Fields:     fields,
		Access:     ir.AccessPublic,
		RecordKind: ir.RecordStruct,
	})
	return b
}

// AnonymousRecord adds an unnamed struct. Front ends name and key such
// records by source location, so name doubles as the key here too.
func (b *ModuleBuilder) AnonymousRecord(name string, fields ...ir.RecordField) *ModuleBuilder {
	b.Record(name, fields...)
	b.m.RecordTypes[len(b.m.RecordTypes)-1].IsAnonymous = true
	return b
}

// Field is a public data member at offset bits.
func Field(name, typ string, offset int64) ir.RecordField {
	return ir.RecordField{FieldName: name, ReferencedType: typ, FieldOffset: offset, Access: ir.AccessPublic}
}

// Enum adds a public enum.
func (b *ModuleBuilder) Enum(name, underlying string, fields ...ir.EnumField) *ModuleBuilder {
	b.m.EnumTypes = append(b.m.EnumTypes, ir.EnumType{
		TypeInfo:       typeInfo(name, 4, 4, ""),
		UnderlyingType: underlying,
		Fields:         fields,
		Access:         ir.AccessPublic,
	})
	return b
}

// Enumerator is one enum field.
func Enumerator(name string, value int64) ir.EnumField {
	return ir.EnumField{Name: name, Value: value}
}

// Function adds an exported C function returning ret with the given
// parameter types.
func (b *ModuleBuilder) Function(name, ret string, params ...string) *ModuleBuilder {
	f := ir.Function{FunctionName: name, LinkerSetKey: name, ReturnType: ret, Access: ir.AccessPublic}
	for _, p := range params {
		f.Parameters = append(f.Parameters, ir.Parameter{FieldType: p})
	}
	return b.AddFunction(f)
}

// AddFunction adds f and exports its key as an ELF function.
func (b *ModuleBuilder) AddFunction(f ir.Function) *ModuleBuilder {
	b.m.Functions = append(b.m.Functions, f)
	return b.ElfFunction(f.Key())
}

// GlobalVar adds an exported global variable of type typ.
func (b *ModuleBuilder) GlobalVar(name, typ string) *ModuleBuilder {
	b.m.GlobalVars = append(b.m.GlobalVars, ir.GlobalVar{
		Name:           name,
		LinkerSetKey:   name,
		ReferencedType: typ,
		Access:         ir.AccessPublic,
	})
	return b.ElfObject(name)
}

// ElfFunction exports a function symbol without declaring it.
func (b *ModuleBuilder) ElfFunction(name string) *ModuleBuilder {
	b.m.ElfFunctions = append(b.m.ElfFunctions, ir.ElfSymbol{Name: name, Binding: ir.BindingGlobal})
	return b
}

// ElfObject exports an object symbol without declaring it.
func (b *ModuleBuilder) ElfObject(name string) *ModuleBuilder {
	b.m.ElfObjects = append(b.m.ElfObjects, ir.ElfSymbol{Name: name, Binding: ir.BindingGlobal})
	return b
}

// Module returns a copy of the module built so far.
func (b *ModuleBuilder) Module() *ir.Module {
	m := b.m
	return &m
}

// Graph indexes the module built so far. Panics on an invalid module.
func (b *ModuleBuilder) Graph() *ir.Graph {
	return ir.MustGraph(b.Module())
}
