package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/abidiff/internal/dump"
	"github.com/roach88/abidiff/internal/testutil"
)

func runValidateCmd(t *testing.T, format string, paths ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(paths)
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidateValidDumps(t *testing.T) {
	out, err := runValidateCmd(t, "text", fixtureDump("libtest_v1.json"), fixtureDump("hello_v1.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+fixtureDump("hello_v1.json"))
	assert.Contains(t, out, "✓ All dumps valid")
}

func TestValidateValidDumpsJSON(t *testing.T) {
	out, err := runValidateCmd(t, "json", fixtureDump("libtest_v1.json"))
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestValidateNonExistentFile(t *testing.T) {
	out, err := runValidateCmd(t, "text", "/nonexistent/dump.json")
	requireExitCode(t, err, ExitCommandError)
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, out, "not found")
}

func TestValidateDirectory(t *testing.T) {
	_, err := runValidateCmd(t, "text", t.TempDir())
	requireExitCode(t, err, ExitCommandError)
	assert.Contains(t, err.Error(), ErrCodeNotFile)
}

func TestValidateSchemaError(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{\n  \"functions\": [{\"function_name\": 7}]\n}\n"), 0o644))

	out, err := runValidateCmd(t, "text", bad)
	requireExitCode(t, err, ExitCommandError)
	assert.Contains(t, out, "✗ "+bad)
	assert.Contains(t, out, dump.ErrCodeSchema)
	assert.Contains(t, out, bad+":2:")
}

func TestValidateReportsEveryConsistencyError(t *testing.T) {
	m := testutil.NewModule("libdup.so").
		Builtin("int", 4).
		Function("f", "int").
		Function("f", "int").
		ElfObject("f").
		Module()
	path := writeDump(t, "dup.json", m)

	out, err := runValidateCmd(t, "json", path)
	requireExitCode(t, err, ExitCommandError)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.Len(t, resp.Data.Dumps, 1)

	var codes []string
	for _, e := range resp.Data.Dumps[0].Errors {
		codes = append(codes, e.Code)
	}
	assert.Contains(t, codes, dump.ErrDuplicateLinkerKey)
	assert.Contains(t, codes, dump.ErrDuplicateElfSymbol)
	assert.Contains(t, codes, dump.ErrSymbolKindConflict)
	assert.Equal(t, resp.Data.Dumps[0].Errors[0].Code, resp.Error.Code)
}

func TestValidateWarnsAboutDanglingReferences(t *testing.T) {
	m := testutil.NewModule("libghost.so").Function("ghost_init", "ghost").Module()
	path := writeDump(t, "ghost.json", m)

	out, err := runValidateCmd(t, "text", path)
	require.NoError(t, err, "dangling references are warnings")
	assert.Contains(t, out, `warning: undefined type "ghost"`)
}

func TestValidateListsRecursiveTypes(t *testing.T) {
	m := testutil.NewModule("liblist.so").
		Pointer("Node").
		Record("Node", testutil.Field("next", "Node *", 0)).
		Module()
	path := writeDump(t, "list.json", m)

	out, err := runValidateCmd(t, "json", path)
	require.NoError(t, err)

	var resp struct {
		Data ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Dumps, 1)
	require.Len(t, resp.Data.Dumps[0].Cycles, 1)
	assert.Equal(t, []string{"Node", "Node *", "Node"}, resp.Data.Dumps[0].Cycles[0].Path)
}

func TestValidateDumpMixedResults(t *testing.T) {
	good := fixtureDump("libtest_v1.json")
	m := testutil.NewModule("libdup.so").ElfFunction("f").ElfFunction("f").Module()
	bad := writeDump(t, "dup.json", m)

	out, err := runValidateCmd(t, "text", good, bad)
	requireExitCode(t, err, ExitCommandError)
	assert.Contains(t, out, "✓ "+good)
	assert.Contains(t, out, "✗ "+bad)
	assert.Contains(t, out, "✗ Validation failed")
}
