package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/abidiff/internal/ir"
	"github.com/roach88/abidiff/internal/report"
	"github.com/roach88/abidiff/internal/testutil"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestDump creates a small dump with one function per name.
func createTestDump(lib string, functions ...string) *ir.Module {
	b := testutil.NewModule(lib).Builtin("int", 4)
	for _, name := range functions {
		b.Function(name, "int")
	}
	return b.Module()
}

// createTestReport creates an empty report with the given status.
func createTestReport(lib string, status report.CompatibilityStatus) *report.Report {
	r := report.New(lib, "x86_64")
	r.CompatibilityStatus = status
	return r
}

// writeTestRun archives two dumps and a run referencing them.
func writeTestRun(t *testing.T, s *Store, id, lib string, seq int64) Run {
	t.Helper()
	ctx := t.Context()

	oldDigest, err := s.WriteDump(ctx, createTestDump(lib, "f"))
	if err != nil {
		t.Fatalf("WriteDump() failed: %v", err)
	}
	newDigest, err := s.WriteDump(ctx, createTestDump(lib, "f", "g"))
	if err != nil {
		t.Fatalf("WriteDump() failed: %v", err)
	}

	run := Run{
		ID:           id,
		Seq:          seq,
		LibName:      lib,
		Arch:         "x86_64",
		OldDigest:    oldDigest,
		NewDigest:    newDigest,
		Status:       report.Extension,
		Report:       "{}",
		ReportDigest: ir.ReportDigest([]byte("{}")),
	}
	run.Seq, err = s.WriteRun(ctx, run)
	if err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	return run
}
