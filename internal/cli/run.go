package cli

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/hostbridge/internal/config"
	"github.com/roach88/hostbridge/internal/engine"
	"github.com/roach88/hostbridge/internal/executor"
	"github.com/roach88/hostbridge/internal/logging"
	"github.com/roach88/hostbridge/internal/luahost"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string

	// Runtime overrides the process runtime (for testing).
	// If nil, scripts use executor.Default().
	Runtime *executor.Runtime

	// IDGenerator overrides collection and document id generation (for
	// testing). If nil, ids are UUIDv7.
	IDGenerator engine.IDGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}
	return newRunCommand(opts)
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script.lua>",
		Short: "Run a Lua script with the hostbridge module",
		Long: `Run a Lua script with the hostbridge module registered.

hostbridge.Database() with no argument opens the database given by --db,
falling back to HOSTBRIDGE_DATABASE (default hostbridge.db).

Example:
  hostbridge run ingest.lua --db ./docs.db
  hostbridge run search.lua --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default $HOSTBRIDGE_DATABASE)")

	return cmd
}

func runScript(opts *RunOptions, script string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	settings, err := config.LoadSettings()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeSettings, "invalid settings", err)
	}
	level, err := opts.logLevel(settings)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeSettings, "invalid log level", err)
	}

	if _, err := os.Stat(script); errors.Is(err, fs.ErrNotExist) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, "script not found: "+script, nil)
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = settings.Database
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	luaOpts := []luahost.Option{
		luahost.WithContext(ctx),
		luahost.WithDatabasePath(dbPath),
		luahost.WithStdout(cmd.OutOrStdout()),
		luahost.WithLogLevel(level),
	}
	if opts.Runtime != nil {
		luaOpts = append(luaOpts, luahost.WithRuntime(opts.Runtime))
	}
	if opts.IDGenerator != nil {
		luaOpts = append(luaOpts, luahost.WithEngineOptions(engine.WithIDGenerator(opts.IDGenerator)))
	}

	formatter.VerboseLog("running %s (db %s)", script, dbPath)
	if err := luahost.RunFile(script, luaOpts...); err != nil {
		logging.Logger().Error("script failed", zap.String("script", script), zap.Error(err))
		return formatter.Fail(ExitFailure, errorCode(err, ErrCodeScriptFailed), "script failed", err)
	}
	logging.Logger().Debug("script finished", zap.String("script", script))

	return formatter.Result(map[string]string{
		"script":   script,
		"database": dbPath,
	}, "")
}
