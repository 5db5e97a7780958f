package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/abidiff/internal/report"
	"github.com/roach88/abidiff/internal/store"
)

// ArchiveOptions holds flags shared by the history and show commands.
type ArchiveOptions struct {
	*RootOptions
	Database     string
	LibName      string
	Arch         string
	Status       string
	BreakingOnly bool
}

// RunSummary is an archived run as printed by history and show.
type RunSummary struct {
	ID           string          `json:"id"`
	Seq          int64           `json:"seq"`
	LibName      string          `json:"lib_name"`
	Arch         string          `json:"arch"`
	Status       string          `json:"status"`
	Breaking     bool            `json:"breaking"`
	OldDigest    string          `json:"old_digest"`
	NewDigest    string          `json:"new_digest"`
	ReportDigest string          `json:"report_digest"`
	Report       json.RawMessage `json:"report,omitempty"`
}

func summarize(run store.Run, withReport bool) RunSummary {
	s := RunSummary{
		ID:           run.ID,
		Seq:          run.Seq,
		LibName:      run.LibName,
		Arch:         run.Arch,
		Status:       run.Status.String(),
		Breaking:     run.Breaking,
		OldDigest:    run.OldDigest,
		NewDigest:    run.NewDigest,
		ReportDigest: run.ReportDigest,
	}
	if withReport {
		s.Report = json.RawMessage(run.Report)
	}
	return s
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ArchiveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived comparisons",
		Long: `List the comparisons archived with compare --db, oldest first.

Examples:
  abidiff history --db abi.db
  abidiff history --db abi.db --lib libfoo.so
  abidiff history --db abi.db --breaking --arch arm64`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.applyConfig(cmd)
			return runHistory(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "archive database (default: database from the config file)")
	cmd.Flags().StringVar(&opts.LibName, "lib", "", "only list runs of this library")
	cmd.Flags().StringVar(&opts.Arch, "arch", "", "only list runs for this architecture")
	cmd.Flags().StringVar(&opts.Status, "status", "", "only list runs with this status (e.g. INCOMPATIBLE)")
	cmd.Flags().BoolVar(&opts.BreakingOnly, "breaking", false, "only list runs that found an ABI break")

	return cmd
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ArchiveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print an archived comparison report",
		Long: `Print the report of one archived comparison.

Examples:
  abidiff show --db abi.db 01920c1e-7c3a-7b4e-9d1f-3c2a5e6b7d80`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.applyConfig(cmd)
			return runShow(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "archive database (default: database from the config file)")

	return cmd
}

func (opts *ArchiveOptions) applyConfig(cmd *cobra.Command) {
	if !cmd.Flags().Changed("db") && opts.Database == "" {
		opts.Database = opts.config().Database
	}
}

// openArchive opens an existing archive. A missing file is an input error,
// not an empty archive.
func (opts *ArchiveOptions) openArchive(f *OutputFormatter) (*store.Store, error) {
	if opts.Database == "" {
		return nil, failWith(f, ExitCommandError, ErrCodeGeneric, "no archive database given (use --db)", nil)
	}
	if err := checkInputs(opts.Database); err != nil {
		return nil, failLoad(f, err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, failWith(f, ExitCommandError, ErrCodeDatabase, err.Error(), nil)
	}
	return st, nil
}

func runHistory(ctx context.Context, opts *ArchiveOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	filter := store.RunFilter{LibName: opts.LibName, Arch: opts.Arch, BreakingOnly: opts.BreakingOnly}
	if opts.Status != "" {
		status, err := report.ParseStatus(opts.Status)
		if err != nil {
			return failWith(formatter, ExitCommandError, ErrCodeGeneric, err.Error(), nil)
		}
		filter.Status = &status
	}

	st, err := opts.openArchive(formatter)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	runs, err := st.QueryRuns(ctx, filter)
	if err != nil {
		return failWith(formatter, ExitCommandError, ErrCodeDatabase, err.Error(), nil)
	}

	summaries := make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, summarize(run, false))
	}
	if opts.Format == "json" {
		return formatter.Success(summaries)
	}

	w := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No archived runs.")
		return nil
	}
	for _, s := range summaries {
		fmt.Fprintf(w, "%4d  %s  %s (%s)  %s\n", s.Seq, s.ID, s.LibName, s.Arch, s.Status)
	}
	return nil
}

func runShow(ctx context.Context, opts *ArchiveOptions, id string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	st, err := opts.openArchive(formatter)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	run, err := st.ReadRun(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return failWith(formatter, ExitCommandError, ErrCodeNotFound, fmt.Sprintf("run not found: %s", id), nil)
	}
	if err != nil {
		return failWith(formatter, ExitCommandError, ErrCodeDatabase, err.Error(), nil)
	}

	if opts.Format == "json" {
		return formatter.Success(summarize(run, true))
	}

	var r report.Report
	if err := json.Unmarshal([]byte(run.Report), &r); err != nil {
		return failWith(formatter, ExitCommandError, ErrCodeDatabase, fmt.Sprintf("decoding archived report: %v", err), nil)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Run %s (#%d)\n", run.ID, run.Seq)
	return report.WriteText(w, &r, opts.useColor(w))
}
