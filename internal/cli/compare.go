package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/abidiff/internal/diff"
	"github.com/roach88/abidiff/internal/dump"
	"github.com/roach88/abidiff/internal/ir"
	"github.com/roach88/abidiff/internal/report"
	"github.com/roach88/abidiff/internal/store"
)

// CompareOptions holds flags for the compare command.
type CompareOptions struct {
	*RootOptions
	SharedObject string
	ReportPath   string
	Database     string
	LibName      string
	Arch         string
	CheckAllAPIs bool
	AdviceOnly   bool

	// IDGenerator names archived runs. Nil uses UUIDv7.
	IDGenerator store.IDGenerator
}

// CompareResult is the JSON payload of the compare command.
type CompareResult struct {
	Status   string         `json:"status"`
	Breaking bool           `json:"breaking"`
	Report   *report.Report `json:"report"`
}

// NewCompareCommand creates the compare command.
func NewCompareCommand(rootOpts *RootOptions) *cobra.Command {
	return newCompareCommand(&CompareOptions{RootOptions: rootOpts})
}

func newCompareCommand(opts *CompareOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <reference-dump> <current-dump>",
		Short: "Compare a library build against its reference dump",
		Long: `Compare the ABI described by two dumps.

With --so the current dump is first linked against the exported symbols
of the given shared object, as the dump command would do.

Exit codes:
  0 - No breaking difference (or --advice-only)
  1 - ABI break found
  2 - Fatal input error (missing file, malformed dump, dangling reference)

Examples:
  abidiff compare libfoo.abi.json libfoo.hdump.json --so libfoo.so
  abidiff compare old.json new.json --report diff.json --db abi.db
  abidiff compare old.json new.json --check-all-apis --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.applyConfig(cmd)
			return runCompare(cmd.Context(), opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SharedObject, "so", "", "link the current dump against this shared object first")
	cmd.Flags().StringVar(&opts.ReportPath, "report", "", "write the canonical JSON report to this file")
	cmd.Flags().StringVar(&opts.Database, "db", "", "archive the dumps and report in this SQLite database")
	cmd.Flags().StringVar(&opts.LibName, "lib-name", "", "library name for the report (default: from the reference dump)")
	cmd.Flags().StringVar(&opts.Arch, "arch", "", "architecture for the report (default: from the reference dump)")
	cmd.Flags().BoolVar(&opts.CheckAllAPIs, "check-all-apis", false, "also report records and enums removed without being reachable")
	cmd.Flags().BoolVar(&opts.AdviceOnly, "advice-only", false, "report breaks without failing")

	return cmd
}

// applyConfig fills flags the user did not set from the config file.
func (opts *CompareOptions) applyConfig(cmd *cobra.Command) {
	cfg := opts.config()
	flags := cmd.Flags()
	if !flags.Changed("lib-name") {
		opts.LibName = cfg.LibName
	}
	if !flags.Changed("arch") {
		opts.Arch = cfg.Arch
	}
	if !flags.Changed("check-all-apis") {
		opts.CheckAllAPIs = cfg.CheckAllAPIs
	}
	if !flags.Changed("advice-only") {
		opts.AdviceOnly = cfg.AdviceOnly
	}
	if !flags.Changed("db") {
		opts.Database = cfg.Database
	}
}

// compareInputs are the loaded inputs of one comparison.
type compareInputs struct {
	old, new *ir.Module
	syms     *ir.ExportedSymbolSet
}

// loadCompareInputs loads both dumps and the binary concurrently and
// returns the first error.
func loadCompareInputs(oldPath, newPath, soPath string) (*compareInputs, error) {
	in := &compareInputs{}
	var g errgroup.Group
	g.Go(func() error {
		m, err := loadDump(oldPath)
		in.old = m
		return err
	})
	g.Go(func() error {
		m, err := loadDump(newPath)
		in.new = m
		return err
	})
	if soPath != "" {
		g.Go(func() error {
			syms, err := extractSymbols(soPath)
			in.syms = syms
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return in, nil
}

func runCompare(ctx context.Context, opts *CompareOptions, oldPath, newPath string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	if err := checkInputs(oldPath, newPath, opts.SharedObject); err != nil {
		return failLoad(formatter, err)
	}

	in, err := loadCompareInputs(oldPath, newPath, opts.SharedObject)
	if err != nil {
		return failLoad(formatter, err)
	}
	if in.syms != nil {
		in.new = dump.Link(in.new, in.syms)
		formatter.VerboseLog("Linked %s against %s", newPath, opts.SharedObject)
	}

	oldG, err := newGraph(oldPath, in.old)
	if err != nil {
		return failLoad(formatter, err)
	}
	newG, err := newGraph(newPath, in.new)
	if err != nil {
		return failLoad(formatter, err)
	}

	libName, arch := opts.LibName, opts.Arch
	if libName == "" {
		libName = in.old.LibName
	}
	if arch == "" {
		arch = in.old.Arch
	}

	r, err := diff.Run(ctx, oldG, newG, diff.Options{
		CheckAllAPIs: opts.CheckAllAPIs,
		LibName:      libName,
		Arch:         arch,
		Logger:       slog.Default(),
	})
	if err != nil {
		return failWith(formatter, ExitCommandError, diffErrorCode(err), err.Error(), nil)
	}

	if opts.ReportPath != "" {
		if err := writeReport(opts.ReportPath, r); err != nil {
			return failWith(formatter, ExitCommandError, ErrCodeWriteFailed, err.Error(), nil)
		}
		formatter.VerboseLog("Wrote report to %s", opts.ReportPath)
	}

	var runID string
	if opts.Database != "" {
		runID, err = archiveComparison(ctx, opts, in.old, in.new, r)
		if err != nil {
			return failWith(formatter, ExitCommandError, ErrCodeDatabase, err.Error(), nil)
		}
	}

	if err := outputCompare(cmd, opts, r, runID); err != nil {
		return err
	}

	if r.Breaking() && !opts.AdviceOnly {
		return NewExitError(ExitFailure, fmt.Sprintf("ABI break: %s", r.CompatibilityStatus))
	}
	return nil
}

// writeReport writes the canonical JSON form of r.
func writeReport(path string, r *report.Report) error {
	data, err := r.Canonical()
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// archiveComparison stores both dumps and the report and returns the run id.
func archiveComparison(ctx context.Context, opts *CompareOptions, old, new *ir.Module, r *report.Report) (string, error) {
	st, err := store.Open(opts.Database)
	if err != nil {
		return "", err
	}
	defer func() { _ = st.Close() }()

	gen := opts.IDGenerator
	if gen == nil {
		gen = store.UUIDv7Generator{}
	}
	run, err := st.RecordComparison(ctx, gen, old, new, r)
	if err != nil {
		return "", err
	}
	slog.Info("comparison archived", "db", opts.Database, "run_id", run.ID, "seq", run.Seq)
	return run.ID, nil
}

func outputCompare(cmd *cobra.Command, opts *CompareOptions, r *report.Report, runID string) error {
	w := cmd.OutOrStdout()
	if opts.Format == "json" {
		return writeJSON(w, CLIResponse{
			Status: "ok",
			Data: CompareResult{
				Status:   r.CompatibilityStatus.String(),
				Breaking: r.Breaking(),
				Report:   r,
			},
			RunID: runID,
		})
	}

	if err := report.WriteText(w, r, opts.useColor(w)); err != nil {
		return err
	}
	if runID != "" {
		fmt.Fprintf(w, "Archived as run %s\n", runID)
	}
	if r.Breaking() && opts.AdviceOnly {
		fmt.Fprintln(w, "Advice only: ABI break not treated as failure")
	}
	return nil
}
