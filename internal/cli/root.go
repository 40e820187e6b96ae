package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/roach88/hostbridge/internal/config"
	"github.com/roach88/hostbridge/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the hostbridge CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "hostbridge",
		Short: "hostbridge - scriptable document search",
		Long: `Run Lua scripts against a SQLite-backed document store with chunking,
embeddings and vector search, inspect configuration maps, and check pipeline
scenarios.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logging)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// logLevel resolves the process log level: debug with --verbose, otherwise
// HOSTBRIDGE_LOG_LEVEL.
func (o *RootOptions) logLevel(settings config.Settings) (zapcore.Level, error) {
	if o.Verbose {
		return zapcore.DebugLevel, nil
	}
	return logging.ParseLevel(settings.LogLevel)
}
