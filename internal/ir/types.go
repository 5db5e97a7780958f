package ir

// AccessSpecifier is the C++ access level of a type, field or function.
type AccessSpecifier string

const (
	AccessPublic    AccessSpecifier = "public_access"
	AccessProtected AccessSpecifier = "protected_access"
	AccessPrivate   AccessSpecifier = "private_access"
)

// ValidAccess defines allowed access specifiers.
var ValidAccess = map[AccessSpecifier]bool{
	AccessPublic:    true,
	AccessProtected: true,
	AccessPrivate:   true,
}

// RecordKind distinguishes struct, class and union records.
type RecordKind string

const (
	RecordStruct RecordKind = "struct_kind"
	RecordClass  RecordKind = "class_kind"
	RecordUnion  RecordKind = "union_kind"
)

// ValidRecordKinds defines allowed record kinds.
var ValidRecordKinds = map[RecordKind]bool{
	RecordStruct: true,
	RecordClass:  true,
	RecordUnion:  true,
}

// TypeKind tags the concrete variant behind a Type.
type TypeKind int

const (
	KindRecord TypeKind = iota
	KindEnum
	KindBuiltin
	KindPointer
	KindQualified
	KindArray
	KindLvalueReference
	KindRvalueReference
	KindTypedef
	KindFunctionType
)

var typeKindNames = [...]string{
	KindRecord:          "record",
	KindEnum:            "enum",
	KindBuiltin:         "builtin",
	KindPointer:         "pointer",
	KindQualified:       "qualified",
	KindArray:           "array",
	KindLvalueReference: "lvalue_reference",
	KindRvalueReference: "rvalue_reference",
	KindTypedef:         "typedef",
	KindFunctionType:    "function_type",
}

func (k TypeKind) String() string {
	if int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return "unknown"
}

// Type is implemented by every type variant stored in a graph.
type Type interface {
	Info() *TypeInfo
	Kind() TypeKind
}

// TypeInfo carries the attributes shared by all type variants.
type TypeInfo struct {
	Name           string `json:"name"`
	Size           int64  `json:"size"`
	Alignment      int64  `json:"alignment"`
	ReferencedType string `json:"referenced_type,omitempty"` // self type of the wrapped type
	SourceFile     string `json:"source_file,omitempty"`
	LinkerSetKey   string `json:"linker_set_key,omitempty"` // cross-dump join key
	SelfType       string `json:"self_type,omitempty"`      // graph-local id
}

// RecordField is one data member, in declaration order.
type RecordField struct {
	ReferencedType string          `json:"referenced_type"`
	FieldOffset    int64           `json:"field_offset"` // bits
	FieldName      string          `json:"field_name"`
	Access         AccessSpecifier `json:"access"`
}

// BaseSpecifier is one direct base class of a record.
type BaseSpecifier struct {
	ReferencedType string          `json:"referenced_type"`
	IsVirtual      bool            `json:"is_virtual"`
	Access         AccessSpecifier `json:"access"`
}

// VTableComponent is one vtable slot.
type VTableComponent struct {
	Kind                 string `json:"kind"` // "FunctionPointer", "RTTI", "OffsetToTop", ...
	MangledComponentName string `json:"mangled_component_name"`
	ComponentValue       int64  `json:"component_value"`
	IsPure               bool   `json:"is_pure,omitempty"`
}

// VTableLayout lists the vtable slots of a dynamic class.
type VTableLayout struct {
	Components []VTableComponent `json:"vtable_components"`
}

// TemplateElement is one template argument.
type TemplateElement struct {
	ReferencedType string `json:"referenced_type"`
}

// TemplateInfo lists template arguments in order.
type TemplateInfo struct {
	Elements []TemplateElement `json:"elements"`
}

// RecordType describes a struct, class or union.
type RecordType struct {
	TypeInfo       TypeInfo        `json:"type_info"`
	Fields         []RecordField   `json:"fields,omitempty"`
	BaseSpecifiers []BaseSpecifier `json:"base_specifiers,omitempty"`
	VTableLayout   *VTableLayout   `json:"vtable_layout,omitempty"`
	TemplateInfo   *TemplateInfo   `json:"template_info,omitempty"`
	Access         AccessSpecifier `json:"access"`
	RecordKind     RecordKind      `json:"record_kind"`
	IsAnonymous    bool            `json:"is_anonymous,omitempty"`
}

func (t *RecordType) Info() *TypeInfo { return &t.TypeInfo }
func (t *RecordType) Kind() TypeKind  { return KindRecord }

// EnumField is one enumerator, in declaration order.
type EnumField struct {
	Name  string `json:"name"`
	Value int64  `json:"enum_field_value"`
}

// EnumType describes an enumeration.
type EnumType struct {
	TypeInfo       TypeInfo        `json:"type_info"`
	UnderlyingType string          `json:"underlying_type"`
	Fields         []EnumField     `json:"enum_fields,omitempty"`
	Access         AccessSpecifier `json:"access"`
}

func (t *EnumType) Info() *TypeInfo { return &t.TypeInfo }
func (t *EnumType) Kind() TypeKind  { return KindEnum }

// BuiltinType describes a fundamental type such as int or void.
type BuiltinType struct {
	TypeInfo   TypeInfo `json:"type_info"`
	IsUnsigned bool     `json:"is_unsigned"`
	IsIntegral bool     `json:"is_integral"`
}

func (t *BuiltinType) Info() *TypeInfo { return &t.TypeInfo }
func (t *BuiltinType) Kind() TypeKind  { return KindBuiltin }

// PointerType wraps TypeInfo.ReferencedType.
type PointerType struct {
	TypeInfo TypeInfo `json:"type_info"`
}

func (t *PointerType) Info() *TypeInfo { return &t.TypeInfo }
func (t *PointerType) Kind() TypeKind  { return KindPointer }

// QualifiedType adds cv/restrict qualifiers to TypeInfo.ReferencedType.
type QualifiedType struct {
	TypeInfo     TypeInfo `json:"type_info"`
	IsConst      bool     `json:"is_const"`
	IsVolatile   bool     `json:"is_volatile"`
	IsRestricted bool     `json:"is_restricted"`
}

func (t *QualifiedType) Info() *TypeInfo { return &t.TypeInfo }
func (t *QualifiedType) Kind() TypeKind  { return KindQualified }

// ArrayType is a fixed-size array of TypeInfo.ReferencedType.
type ArrayType struct {
	TypeInfo TypeInfo `json:"type_info"`
}

func (t *ArrayType) Info() *TypeInfo { return &t.TypeInfo }
func (t *ArrayType) Kind() TypeKind  { return KindArray }

// LvalueReferenceType is T&.
type LvalueReferenceType struct {
	TypeInfo TypeInfo `json:"type_info"`
}

func (t *LvalueReferenceType) Info() *TypeInfo { return &t.TypeInfo }
func (t *LvalueReferenceType) Kind() TypeKind  { return KindLvalueReference }

// RvalueReferenceType is T&&.
type RvalueReferenceType struct {
	TypeInfo TypeInfo `json:"type_info"`
}

func (t *RvalueReferenceType) Info() *TypeInfo { return &t.TypeInfo }
func (t *RvalueReferenceType) Kind() TypeKind  { return KindRvalueReference }

// TypedefType names TypeInfo.ReferencedType.
type TypedefType struct {
	TypeInfo TypeInfo `json:"type_info"`
}

func (t *TypedefType) Info() *TypeInfo { return &t.TypeInfo }
func (t *TypedefType) Kind() TypeKind  { return KindTypedef }

// FunctionType is the pointee of a function pointer.
type FunctionType struct {
	TypeInfo   TypeInfo    `json:"type_info"`
	ReturnType string      `json:"return_type"`
	Parameters []Parameter `json:"parameters,omitempty"`
}

func (t *FunctionType) Info() *TypeInfo { return &t.TypeInfo }
func (t *FunctionType) Kind() TypeKind  { return KindFunctionType }

// Parameter is one function parameter, in declaration order.
type Parameter struct {
	FieldName  string `json:"field_name,omitempty"`
	FieldType  string `json:"field_type"`
	DefaultArg bool   `json:"default_arg"`
	IsThisPtr  bool   `json:"is_this_ptr,omitempty"`
}

// Function describes an exported function.
type Function struct {
	FunctionName        string          `json:"function_name"`
	MangledFunctionName string          `json:"mangled_function_name,omitempty"`
	LinkerSetKey        string          `json:"linker_set_key,omitempty"`
	SourceFile          string          `json:"source_file,omitempty"`
	Parameters          []Parameter     `json:"parameters,omitempty"`
	ReturnType          string          `json:"return_type"`
	Access              AccessSpecifier `json:"access"`
	TemplateKind        string          `json:"template_kind,omitempty"`
	TemplateInfo        *TemplateInfo   `json:"template_info,omitempty"`
}

// Key returns the linker_set_key, falling back to the mangled name and
// then the plain name (C functions are not mangled).
func (f *Function) Key() string {
	switch {
	case f.LinkerSetKey != "":
		return f.LinkerSetKey
	case f.MangledFunctionName != "":
		return f.MangledFunctionName
	}
	return f.FunctionName
}

// GlobalVar describes an exported global variable.
type GlobalVar struct {
	Name           string          `json:"name"`
	LinkerSetKey   string          `json:"linker_set_key,omitempty"`
	SourceFile     string          `json:"source_file,omitempty"`
	ReferencedType string          `json:"referenced_type"`
	Access         AccessSpecifier `json:"access"`
}

// Key returns the linker_set_key, falling back to the name.
func (v *GlobalVar) Key() string {
	if v.LinkerSetKey != "" {
		return v.LinkerSetKey
	}
	return v.Name
}

// ElfBinding is the binding of an exported ELF symbol.
type ElfBinding string

const (
	BindingGlobal ElfBinding = "global"
	BindingWeak   ElfBinding = "weak"
)

// ElfSymbol is one exported dynamic symbol.
type ElfSymbol struct {
	Name    string     `json:"name"`
	Binding ElfBinding `json:"binding"`
}
