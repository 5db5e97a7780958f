package store

import (
	"database/sql"
	"errors"
	"reflect"
	"testing"

	"github.com/roach88/abidiff/internal/ir"
	"github.com/roach88/abidiff/internal/report"
)

func TestReadDump_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	m := createTestDump("libhello.so", "hello_init", "hello_count")

	digest, err := s.WriteDump(t.Context(), m)
	if err != nil {
		t.Fatalf("WriteDump() failed: %v", err)
	}

	got, err := s.ReadDump(t.Context(), digest)
	if err != nil {
		t.Fatalf("ReadDump() failed: %v", err)
	}
	if ir.MustDumpDigest(got) != digest {
		t.Error("read dump does not hash to its digest")
	}
	if !reflect.DeepEqual(got.Functions, m.Functions) {
		t.Errorf("functions = %+v, expected %+v", got.Functions, m.Functions)
	}
}

func TestReadDump_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadDump(t.Context(), "nope")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, expected sql.ErrNoRows", err)
	}
}

func TestReadRun(t *testing.T) {
	s := createTestStore(t)
	want := writeTestRun(t, s, "run-a", "libhello.so", 0)

	got, err := s.ReadRun(t.Context(), "run-a")
	if err != nil {
		t.Fatalf("ReadRun() failed: %v", err)
	}
	if got != want {
		t.Errorf("ReadRun() = %+v, expected %+v", got, want)
	}
	if got.Status != report.Extension {
		t.Errorf("status = %s, expected EXTENSION", got.Status)
	}
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRun(t.Context(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, expected sql.ErrNoRows", err)
	}
}

func TestListRuns_Ordering(t *testing.T) {
	s := createTestStore(t)

	// Inserted out of seq order; ties broken by id.
	writeTestRun(t, s, "run-c", "libhello.so", 2)
	writeTestRun(t, s, "run-b", "libhello.so", 1)
	writeTestRun(t, s, "run-a", "libother.so", 3)

	runs, err := s.ListRuns(t.Context(), "")
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}

	var ids []string
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	expected := []string{"run-b", "run-c", "run-a"}
	if !reflect.DeepEqual(ids, expected) {
		t.Errorf("ids = %v, expected %v", ids, expected)
	}
}

func TestListRuns_FilterByLib(t *testing.T) {
	s := createTestStore(t)
	writeTestRun(t, s, "run-a", "libhello.so", 0)
	writeTestRun(t, s, "run-b", "libother.so", 0)

	runs, err := s.ListRuns(t.Context(), "libother.so")
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "run-b" {
		t.Errorf("runs = %+v, expected only run-b", runs)
	}
}

func TestListRuns_Empty(t *testing.T) {
	s := createTestStore(t)

	runs, err := s.ListRuns(t.Context(), "libhello.so")
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if runs == nil {
		t.Error("ListRuns() returned nil, expected empty slice")
	}
	if len(runs) != 0 {
		t.Errorf("len = %d, expected 0", len(runs))
	}
}
