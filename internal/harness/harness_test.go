package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/abidiff/internal/diff"
	"github.com/roach88/abidiff/internal/report"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_Scenarios(t *testing.T) {
	tests := []struct {
		name   string
		status report.CompatibilityStatus
		len    int
	}{
		{"identical_dumps", report.Compatible, 0},
		{"record_add_field", report.Incompatible, 1},
		{"removed_symbol", report.Incompatible, 1},
		{"enum_value_change", report.Incompatible, 1},
		{"function_return_type", report.Incompatible, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Run(loadTestScenario(t, tt.name))
			require.NoError(t, err)

			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
			assert.Equal(t, tt.status, result.Report.CompatibilityStatus)
			assert.Equal(t, tt.len, result.Report.Len())
		})
	}
}

func TestRun_RecordDiffDetails(t *testing.T) {
	result, err := Run(loadTestScenario(t, "record_add_field"))
	require.NoError(t, err)

	require.Len(t, result.Report.RecordTypeDiffs, 1)
	d := result.Report.RecordTypeDiffs[0]
	assert.Equal(t, "hello_init-> Hello *-> Hello", d.TypeStack)
	require.Len(t, d.FieldsAdded, 1)
	assert.Equal(t, "baz", d.FieldsAdded[0].FieldName)
	assert.Equal(t, int64(64), d.FieldsAdded[0].FieldOffset)
	assert.Empty(t, d.FieldsRemoved)
}

func TestRun_ReportsUnmetExpectations(t *testing.T) {
	s := loadTestScenario(t, "record_add_field")
	breaking := false
	s.Expect = Expect{
		Status:          "COMPATIBLE",
		Breaking:        &breaking,
		RecordTypeDiffs: []string{},
		FunctionDiffs:   []string{"hello_init"},
	}

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "status: expected COMPATIBLE, got INCOMPATIBLE")
	assert.Contains(t, result.Errors[1], "breaking: expected false, got true")
	assert.Contains(t, result.Errors[2], "record_type_diffs mismatch")
	assert.Contains(t, result.Errors[2], "Hello")
	assert.Contains(t, result.Errors[3], "function_diffs mismatch")
}

func TestRun_LoadFailure(t *testing.T) {
	s := loadTestScenario(t, "identical_dumps")
	s.New = filepath.Join(t.TempDir(), "missing.json")

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "new dump")
}

func TestRun_DanglingReferenceIsFatal(t *testing.T) {
	dir := t.TempDir()
	dangling := writeScenario(t, dir, "dangling.json", `{
  "lib_name": "libhello.so",
  "functions": [{"function_name": "hello_init", "return_type": "ghost"}],
  "elf_functions": [{"name": "hello_init"}]
}`)

	s := &Scenario{Name: "dangling", Old: dangling, New: dangling}
	_, err := Run(s)
	require.Error(t, err)
	assert.True(t, diff.IsDanglingReference(err))
}

func TestEvaluateExpect_UncheckedLists(t *testing.T) {
	r := report.New("libhello.so", "x86_64")
	assert.Empty(t, EvaluateExpect(r, Expect{}))
}
