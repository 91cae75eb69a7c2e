package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runger/vselect/internal/config"
	"github.com/runger/vselect/internal/logging"
)

// Exit codes.
// These match the expectations of shell scripts:
//
//	0 = selection made (use the result)
//	1 = cancelled by user (keep original input)
//	2 = fallback (no TTY, error, etc.)
const (
	ExitSuccess   = 0
	ExitCancelled = 1
	ExitFallback  = 2
)

// ErrCancelled is returned by pick when the user dismisses the list.
var ErrCancelled = errors.New("selection cancelled")

// skipSetup marks commands that run without loading config or logging.
const skipSetup = "vselect.skip-setup"

var (
	configPath string
	debugMode  bool

	appConfig *config.Config
	logResult *logging.Result
)

var rootCmd = &cobra.Command{
	Use:   "vselect",
	Short: "searchable dropdown for long option lists",
	Long: `vselect - a searchable dropdown for long option lists
  - rows wrap to their full label, only the visible window is drawn
  - the chosen key is printed to stdout`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupCommand,
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx.
func ExecuteContext(ctx context.Context) error {
	defer closeLogging()
	return rootCmd.ExecuteContext(ctx)
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrCancelled):
		return ExitCancelled
	default:
		return ExitFallback
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/vselect/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "log at debug level to stderr")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "color output: auto, always, never")

	rootCmd.AddCommand(pickCmd)
	rootCmd.AddCommand(measureCmd)
	rootCmd.AddCommand(forgetCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func setupCommand(cmd *cobra.Command, _ []string) error {
	applyColorMode()
	if _, ok := cmd.Annotations[skipSetup]; ok {
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	appConfig = cfg
	setupLogging(cmd, cfg)
	return nil
}

// loadConfig loads --config when set, or the default config file.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// setupLogging builds the logger for cfg and stores it in the command context.
// The picker draws on the terminal, so logs go to a file unless --debug is set.
func setupLogging(cmd *cobra.Command, cfg *config.Config) {
	logCfg := logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: logging.OutputFile,
		File:   cfg.Log.File,
	}
	if logCfg.File == "" {
		logCfg.File = config.DefaultPaths().LogFile()
	}
	if debugMode {
		logCfg.Level = "debug"
		logCfg.Format = logging.FormatConsole
		logCfg.Output = logging.OutputStderr
	}

	logResult = logging.New(logCfg)
	if logResult.FallbackUsed {
		fmt.Fprintf(cmd.ErrOrStderr(), "%sWarning:%s logging disabled: %s\n",
			colorYellow, colorReset, logResult.FallbackReason)
	}

	logger := logging.Component(logResult.Logger, "cli")
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.WithContext(ctx, logger))

	logger.Debug().Str("command", cmd.Name()).Str("log_file", logResult.FilePath).Msg("command started")
}

func closeLogging() {
	if logResult != nil {
		_ = logResult.Close()
		logResult = nil
	}
}
