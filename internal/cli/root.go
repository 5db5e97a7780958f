package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/roach88/abidiff/internal/config"
	"github.com/roach88/abidiff/internal/ir"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Color      string // "auto" | "always" | "never"

	// Config is the loaded config file merged over defaults. Set by the
	// root command before any subcommand runs.
	Config *config.Config
}

// NewRootCommand creates the root command for the abidiff CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "abidiff",
		Short: "abidiff - ABI compatibility checker",
		Long: `Compare the ABI of two builds of a shared library.

abidiff reads type-graph dumps of a library's public headers, links them
against the exported symbols of the built .so and reports every change
that breaks, extends or leaves unaffected the binary interface.`,
		Version:       ir.ToolVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.prepare(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default: abidiff.yaml or abidiff.toml in the working directory)")
	cmd.PersistentFlags().StringVar(&opts.Color, "color", "auto", "colorize text output (auto|always|never)")

	// Add subcommands
	cmd.AddCommand(NewDumpCommand(opts))
	cmd.AddCommand(NewCompareCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))

	return cmd
}

// prepare loads the config file, applies it under explicitly set flags and
// installs the process logger.
func (opts *RootOptions) prepare(cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading config", err)
	}

	flags := cmd.Flags()
	if !flags.Changed("format") && cfg.Format != "" {
		opts.Format = cfg.Format
	}
	if !flags.Changed("color") && cfg.Color != "" {
		opts.Color = cfg.Color
	}
	cfg.Format = opts.Format
	cfg.Color = opts.Color
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid options", err)
	}
	opts.Config = cfg

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	return nil
}

// loadConfig reads the explicit config path, or the first config file
// found in the working directory, or falls back to defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	found := config.Find(".")
	if found == "" {
		return config.Default(), nil
	}
	slog.Debug("using config file", "path", found)
	return config.Load(found)
}

// config returns the loaded config, or defaults when the command was run
// without the root command (as in tests).
func (opts *RootOptions) config() *config.Config {
	if opts.Config == nil {
		return config.Default()
	}
	return opts.Config
}

// useColor decides whether text written to w is colorized.
func (opts *RootOptions) useColor(w io.Writer) bool {
	switch opts.Color {
	case "always":
		return true
	case "never":
		return false
	}
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// formatter builds the output formatter for cmd.
func (opts *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// failWith writes an error response and returns the matching exit error.
func failWith(f *OutputFormatter, code int, errCode, message string, details interface{}) error {
	if err := f.Error(errCode, message, details); err != nil {
		return err
	}
	return NewExitError(code, fmt.Sprintf("%s: %s", errCode, message))
}
