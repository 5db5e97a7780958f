package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/abidiff/internal/ir"
	"github.com/roach88/abidiff/internal/report"
)

// Run is one archived comparison.
type Run struct {
	ID           string
	Seq          int64
	LibName      string
	Arch         string
	OldDigest    string
	NewDigest    string
	Status       report.CompatibilityStatus
	Breaking     bool
	Report       string // canonical report JSON
	ReportDigest string
}

// WriteDump archives a dump and returns its digest.
// Uses ON CONFLICT(digest) DO NOTHING for idempotency - the same dump
// written twice is stored once.
func (s *Store) WriteDump(ctx context.Context, m *ir.Module) (string, error) {
	body, digest, err := marshalDump(m)
	if err != nil {
		return "", fmt.Errorf("write dump: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO dumps (digest, lib_name, arch, body)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(digest) DO NOTHING
	`, digest, m.LibName, m.Arch, body)
	if err != nil {
		return "", fmt.Errorf("write dump: %w", err)
	}

	return digest, nil
}

// WriteRun inserts a run record. A zero Seq is replaced by the next
// sequence number; the assigned value is returned.
//
// Note: OldDigest and NewDigest must reference archived dumps (foreign key constraint).
func (s *Store) WriteRun(ctx context.Context, run Run) (int64, error) {
	if run.ID == "" {
		return 0, errors.New("write run: id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write run: %w", err)
	}
	defer tx.Rollback()

	if run.Seq == 0 {
		var last sql.NullInt64
		if err := tx.QueryRowContext(ctx, `SELECT MAX(seq) FROM runs`).Scan(&last); err != nil {
			return 0, fmt.Errorf("write run: next seq: %w", err)
		}
		run.Seq = last.Int64 + 1
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, lib_name, arch, old_digest, new_digest, status, breaking, report, report_digest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Seq,
		run.LibName,
		run.Arch,
		run.OldDigest,
		run.NewDigest,
		run.Status.String(),
		run.Breaking,
		run.Report,
		run.ReportDigest,
	)
	if err != nil {
		return 0, fmt.Errorf("write run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write run: commit: %w", err)
	}
	return run.Seq, nil
}

// RecordComparison archives both dumps and the report of one comparison
// under a fresh id from gen.
func (s *Store) RecordComparison(ctx context.Context, gen IDGenerator, old, new *ir.Module, r *report.Report) (Run, error) {
	oldDigest, err := s.WriteDump(ctx, old)
	if err != nil {
		return Run{}, err
	}
	newDigest, err := s.WriteDump(ctx, new)
	if err != nil {
		return Run{}, err
	}

	canonical, err := r.Canonical()
	if err != nil {
		return Run{}, fmt.Errorf("record comparison: %w", err)
	}

	run := Run{
		ID:           gen.Generate(),
		LibName:      r.LibName,
		Arch:         r.Arch,
		OldDigest:    oldDigest,
		NewDigest:    newDigest,
		Status:       r.CompatibilityStatus,
		Breaking:     r.Breaking(),
		Report:       string(canonical),
		ReportDigest: ir.ReportDigest(canonical),
	}
	run.Seq, err = s.WriteRun(ctx, run)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}
