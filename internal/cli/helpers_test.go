package cli

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/abidiff/internal/dump"
	"github.com/roach88/abidiff/internal/ir"
	"github.com/roach88/abidiff/internal/testutil"
)

// scenariosDir holds the end-to-end scenarios shared with the harness.
var scenariosDir = filepath.Join("..", "harness", "testdata", "scenarios")

func fixtureDump(name string) string {
	return filepath.Join(scenariosDir, "dumps", name)
}

// executeRoot runs the full command tree with args and returns stdout,
// stderr and the command error. The process logger is restored afterwards.
func executeRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// writeDump writes m as a dump file in a temp directory.
func writeDump(t *testing.T, name string, m *ir.Module) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, dump.Write(path, m))
	return path
}

// writeSharedObject writes a minimal ELF shared object exporting functions.
func writeSharedObject(t *testing.T, functions ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "libtest.so")
	require.NoError(t, os.WriteFile(path, testutil.SharedObject(functions, nil), 0o644))
	return path
}

func requireExitCode(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, GetExitCode(err), "error: %v", err)
}
