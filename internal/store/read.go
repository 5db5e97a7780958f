package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/abidiff/internal/ir"
	"github.com/roach88/abidiff/internal/report"
)

const runColumns = `id, seq, lib_name, arch, old_digest, new_digest, status, breaking, report, report_digest`

// ReadDump returns the archived dump with the given digest.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadDump(ctx context.Context, digest string) (*ir.Module, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM dumps WHERE digest = ?`, digest).Scan(&body)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("read dump: %w", err)
	}
	return unmarshalDump(body)
}

// ReadRun returns a single run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return Run{}, sql.ErrNoRows
		}
		return Run{}, fmt.Errorf("read run: %w", err)
	}
	return run, nil
}

// ListRuns returns archived runs, oldest first. An empty lib lists every
// library.
//
// Returns empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context, lib string) ([]Run, error) {
	return s.QueryRuns(ctx, RunFilter{LibName: lib})
}

// QueryRuns returns the runs matching filter.
// Ordering is deterministic: ORDER BY seq ASC, id ASC COLLATE BINARY.
func (s *Store) QueryRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query, params, err := compileRunQuery(filter.Predicate())
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// scanner abstracts sql.Row and sql.Rows for scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run    Run
		status string
	)
	err := sc.Scan(
		&run.ID,
		&run.Seq,
		&run.LibName,
		&run.Arch,
		&run.OldDigest,
		&run.NewDigest,
		&status,
		&run.Breaking,
		&run.Report,
		&run.ReportDigest,
	)
	if err != nil {
		return Run{}, err
	}

	run.Status, err = report.ParseStatus(status)
	if err != nil {
		return Run{}, fmt.Errorf("scan run %s: %w", run.ID, err)
	}
	return run, nil
}
