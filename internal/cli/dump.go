package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/abidiff/internal/dump"
)

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	*RootOptions
	SharedObject string
	Output       string
}

// DumpResult summarizes a generated reference dump.
type DumpResult struct {
	Output          string `json:"output"`
	Functions       int    `json:"functions"`
	GlobalVars      int    `json:"global_vars"`
	DroppedFuncs    int    `json:"dropped_functions"`
	DroppedVars     int    `json:"dropped_global_vars"`
	ElfFunctions    int    `json:"elf_functions"`
	ElfObjects      int    `json:"elf_objects"`
	RecursiveGroups int    `json:"recursive_type_groups"`
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dump <header-dump>",
		Short: "Generate a reference dump for a built library",
		Long: `Link a header dump against the exported symbols of a shared object.

Functions and global variables the binary does not export are dropped and
the binary's dynamic symbols are recorded as elf_functions and
elf_objects. The result is the reference dump that later builds are
compared against.

Examples:
  abidiff dump libfoo.hdump.json --so libfoo.so -o libfoo.abi.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SharedObject, "so", "", "shared object to read exported symbols from (required)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "reference dump to write (required)")
	_ = cmd.MarkFlagRequired("so")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runDump(opts *DumpOptions, headerDump string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if err := checkInputs(headerDump, opts.SharedObject); err != nil {
		return failLoad(formatter, err)
	}

	m, err := loadDump(headerDump)
	if err != nil {
		return failLoad(formatter, err)
	}
	syms, err := extractSymbols(opts.SharedObject)
	if err != nil {
		return failLoad(formatter, err)
	}

	linked := dump.Link(m, syms)
	cycles := dump.AnalyzeCycles(linked)
	for _, c := range cycles {
		formatter.VerboseLog("%s", c.Message)
	}

	if err := dump.Write(opts.Output, linked); err != nil {
		return failWith(formatter, ExitCommandError, ErrCodeWriteFailed, err.Error(), nil)
	}
	slog.Info("reference dump written",
		"path", opts.Output,
		"functions", len(linked.Functions),
		"global_vars", len(linked.GlobalVars))

	result := DumpResult{
		Output:          opts.Output,
		Functions:       len(linked.Functions),
		GlobalVars:      len(linked.GlobalVars),
		DroppedFuncs:    len(m.Functions) - len(linked.Functions),
		DroppedVars:     len(m.GlobalVars) - len(linked.GlobalVars),
		ElfFunctions:    len(linked.ElfFunctions),
		ElfObjects:      len(linked.ElfObjects),
		RecursiveGroups: len(cycles),
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "✓ Wrote %s\n", opts.Output)
	fmt.Fprintf(w, "  Functions: %d (%d not exported)\n", result.Functions, result.DroppedFuncs)
	fmt.Fprintf(w, "  Global variables: %d (%d not exported)\n", result.GlobalVars, result.DroppedVars)
	fmt.Fprintf(w, "  ELF symbols: %d functions, %d objects\n", result.ElfFunctions, result.ElfObjects)
	return nil
}

// failLoad reports an input error and exits with ExitCommandError.
func failLoad(f *OutputFormatter, err error) error {
	return failWith(f, ExitCommandError, loadErrorCode(err), err.Error(), nil)
}
