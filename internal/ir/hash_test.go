package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func helloModule(fooType string) *Module {
	return &Module{
		RecordTypes: []RecordType{{
			TypeInfo: TypeInfo{Name: "Hello", Size: 8, Alignment: 4, LinkerSetKey: "Hello", SelfType: "Hello"},
			Fields: []RecordField{
				{ReferencedType: fooType, FieldOffset: 0, FieldName: "foo", Access: AccessPublic},
			},
			Access:     AccessPublic,
			RecordKind: RecordStruct,
		}},
		BuiltinTypes: []BuiltinType{
			{TypeInfo: TypeInfo{Name: "int", Size: 4, Alignment: 4, LinkerSetKey: "int", SelfType: "int"}, IsIntegral: true},
			{TypeInfo: TypeInfo{Name: "float", Size: 4, Alignment: 4, LinkerSetKey: "float", SelfType: "float"}},
		},
	}
}

func TestDumpDigestDeterminism(t *testing.T) {
	d1, err := DumpDigest(helloModule("int"))
	require.NoError(t, err)
	d2, err := DumpDigest(helloModule("int"))
	require.NoError(t, err)

	assert.Equal(t, d1, d2, "DumpDigest must be deterministic")
	assert.Len(t, d1, 64, "SHA-256 hex is 64 characters")
}

func TestDumpDigestChangesWithContent(t *testing.T) {
	assert.NotEqual(t, MustDumpDigest(helloModule("int")), MustDumpDigest(helloModule("float")))
}

func TestDomainSeparation(t *testing.T) {
	data := []byte(`{}`)
	assert.NotEqual(t, hashWithDomain(DomainDump, data), hashWithDomain(DomainReport, data))
	assert.Equal(t, hashWithDomain(DomainReport, data), ReportDigest(data))
}
