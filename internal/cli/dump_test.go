package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/abidiff/internal/dump"
	"github.com/roach88/abidiff/internal/ir"
	"github.com/roach88/abidiff/internal/testutil"
)

func runDumpCmd(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewDumpCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestDumpLinksAgainstBinary(t *testing.T) {
	header := testutil.NewModule("libtest.so").
		Builtin("int", 4).
		Function("test_int", "int").
		Function("test_static", "int").
		GlobalVar("g_count", "int").
		Module()
	headerPath := writeDump(t, "libtest.hdump.json", header)
	so := writeSharedObject(t, "test_int", "test_extra")
	out := filepath.Join(t.TempDir(), "libtest.abi.json")

	text, err := runDumpCmd(t, "text", headerPath, "--so", so, "-o", out)
	require.NoError(t, err)
	assert.Contains(t, text, "✓ Wrote "+out)
	assert.Contains(t, text, "Functions: 1 (1 not exported)")
	assert.Contains(t, text, "Global variables: 0 (1 not exported)")

	linked, err := dump.Load(out)
	require.NoError(t, err)
	require.Len(t, linked.Functions, 1)
	assert.Equal(t, "test_int", linked.Functions[0].FunctionName)
	assert.Empty(t, linked.GlobalVars)
	assert.Equal(t, []ir.ElfSymbol{
		{Name: "test_extra", Binding: ir.BindingGlobal},
		{Name: "test_int", Binding: ir.BindingGlobal},
	}, linked.ElfFunctions)
}

func TestDumpRequiresFlags(t *testing.T) {
	_, err := runDumpCmd(t, "text", fixtureDump("libtest_v1.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestDumpMissingBinary(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.json")
	_, err := runDumpCmd(t, "text", fixtureDump("libtest_v1.json"), "--so", "/nonexistent/lib.so", "-o", out)
	requireExitCode(t, err, ExitCommandError)
	assert.Contains(t, err.Error(), ErrCodeNotFound)
}

func TestDumpUnwritableOutput(t *testing.T) {
	so := writeSharedObject(t, "test_int")
	out := filepath.Join(t.TempDir(), "missing-dir", "out.json")

	_, err := runDumpCmd(t, "json", fixtureDump("libtest_v1.json"), "--so", so, "-o", out)
	requireExitCode(t, err, ExitCommandError)
	assert.Contains(t, err.Error(), ErrCodeWriteFailed)
}
