package cli

import (
	"encoding/json"
	"errors"
	"io/fs"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/hostbridge/internal/config"
	"github.com/roach88/hostbridge/internal/logging"
	"github.com/roach88/hostbridge/internal/value"
)

// ConfigOptions holds flags for the config command.
type ConfigOptions struct {
	*RootOptions
	Canonical bool
}

// ConfigResult is the JSON payload of the config command.
type ConfigResult struct {
	Config      json.RawMessage `json:"config"`
	Fingerprint string          `json:"fingerprint,omitempty"`
}

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConfigOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "config <file>",
		Short: "Load and print a configuration map",
		Long: `Load a configuration map from a JSON, YAML or CUE file and print it as
JSON in document order.

With --canonical the map is printed as canonical JSON (sorted keys) followed
by its content fingerprint, which is what splitter and model registrations
deduplicate on.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Canonical, "canonical", false, "print canonical JSON and fingerprint")

	return cmd
}

func runConfig(opts *ConfigOptions, path string, cmd *cobra.Command) error {
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
	if !logging.Install(level) {
		logging.SetLevel(level)
	}

	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, "config not found: "+path, nil)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, errorCode(err, ErrCodeLoadFailed), "failed to load config", err)
	}
	formatter.VerboseLog("loaded %d key(s) from %s", cfg.Len(), path)
	logging.Logger().Debug("config loaded", zap.String("path", path), zap.Int("keys", cfg.Len()))

	obj := config.ToValue(cfg)
	if !opts.Canonical {
		data, err := value.Marshal(obj)
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeGeneric, "failed to encode config", err)
		}
		return formatter.Result(ConfigResult{Config: data}, string(data))
	}

	data, err := value.MarshalCanonical(obj)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, "failed to encode config", err)
	}
	fp, err := value.Fingerprint(value.DomainConfig, obj)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, "failed to fingerprint config", err)
	}
	return formatter.Result(
		ConfigResult{Config: data, Fingerprint: fp},
		string(data)+"\nfingerprint: "+fp,
	)
}
