package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runger/vselect/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set vselect configuration values.

Without arguments, lists all configuration keys.
With one argument, shows the value of that key.
With two arguments, sets the key to the value.

Configuration is stored in ~/.config/vselect/config.yaml (XDG compliant).
A config.toml in the same directory is used when no YAML file exists.

Keys are in the format: section.key
Sections: list, style, log, storage

Examples:
  vselect config                          # List all keys
  vselect config list.overscan            # Get list.overscan value
  vselect config list.max_height 15       # Show up to 15 rows
  vselect config list.measurer wrap       # Measure with word wrapping`,
	Args:        cobra.MaximumNArgs(2),
	Annotations: map[string]string{skipSetup: ""},
	RunE:        runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	paths := config.DefaultPaths()
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	out := cmd.OutOrStdout()
	switch len(args) {
	case 0:
		return listConfig(out, cfg, configFilePath(paths))
	case 1:
		return getConfig(out, cfg, args[0])
	case 2:
		return setConfig(out, cfg, paths, args[0], args[1])
	}

	return nil
}

// configFilePath returns --config when set, or the default config file.
func configFilePath(paths *config.Paths) string {
	if configPath != "" {
		return configPath
	}
	return paths.ConfigFile()
}

func listConfig(out io.Writer, cfg *config.Config, file string) error {
	fmt.Fprintf(out, "%sConfiguration Keys%s\n", colorBold, colorReset)
	fmt.Fprintln(out, strings.Repeat("-", 40))
	fmt.Fprintln(out)

	var failedKeys []string
	for _, key := range config.ListKeys() {
		value, err := cfg.Get(key)
		if err != nil {
			failedKeys = append(failedKeys, key)
			continue
		}

		displayValue := value
		if displayValue == "" {
			displayValue = colorDim + "(not set)" + colorReset
		}

		fmt.Fprintf(out, "  %s%s%s = %s\n", colorCyan, key, colorReset, displayValue)
	}

	if len(failedKeys) > 0 {
		fmt.Fprintf(out, "\n%sWarning:%s Failed to retrieve keys: %s\n", colorYellow, colorReset, strings.Join(failedKeys, ", "))
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Config file: %s\n", file)

	return nil
}

func getConfig(out io.Writer, cfg *config.Config, key string) error {
	value, err := cfg.Get(key)
	if err != nil {
		return err
	}

	if value == "" {
		fmt.Fprintf(out, "%s(not set)%s\n", colorDim, colorReset)
	} else {
		fmt.Fprintln(out, value)
	}

	return nil
}

func setConfig(out io.Writer, cfg *config.Config, paths *config.Paths, key, value string) error {
	if err := cfg.Set(key, value); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	file := configFilePath(paths)
	if configPath == "" {
		if err := paths.EnsureDirectories(); err != nil {
			return fmt.Errorf("failed to create directories: %w", err)
		}
	}

	if err := cfg.SaveToFile(file); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s%s%s = %s\n", colorCyan, key, colorReset, value)
	fmt.Fprintf(out, "Saved to: %s\n", file)

	return nil
}
