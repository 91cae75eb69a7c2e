package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// resetGlobals restores every flag variable to its default and puts the
// previous values back when the test ends.
func resetGlobals(t *testing.T) {
	t.Helper()
	type saved struct {
		configPath, colorMode                                        string
		debugMode, pickDisabled                                      bool
		pickItems, pickFormat, pickCmdline, pickSelected, pickListID string
		pickPlaceholder, pickQuery                                   string
		measureWidth                                                 int
	}
	old := saved{
		configPath: configPath, colorMode: colorMode, debugMode: debugMode,
		pickItems: pickItems, pickFormat: pickFormat, pickCmdline: pickCmdline,
		pickSelected: pickSelected, pickListID: pickListID, pickPlaceholder: pickPlaceholder,
		pickQuery: pickQuery, pickDisabled: pickDisabled, measureWidth: measureWidth,
	}

	configPath, colorMode, debugMode = "", "auto", false
	pickItems, pickFormat, pickCmdline = "", "lines", ""
	pickSelected, pickListID, pickPlaceholder, pickQuery = "", "", "", ""
	pickDisabled, measureWidth = false, 0
	appConfig = nil

	t.Cleanup(func() {
		configPath, colorMode, debugMode = old.configPath, old.colorMode, old.debugMode
		pickItems, pickFormat, pickCmdline = old.pickItems, old.pickFormat, old.pickCmdline
		pickSelected, pickListID, pickPlaceholder = old.pickSelected, old.pickListID, old.pickPlaceholder
		pickQuery, pickDisabled, measureWidth = old.pickQuery, old.pickDisabled, old.measureWidth
		appConfig = nil
		applyColorMode()
	})
}

// isolateEnv points every vselect directory at a temporary one.
func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	for _, env := range []string{"VSELECT_DEBUG", "VSELECT_LOG_LEVEL", "VSELECT_OVERSCAN", "VSELECT_MAX_HEIGHT"} {
		t.Setenv(env, "")
	}
	return dir
}

// writeConfig writes a config file into dir and returns its path.
func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// executeCommand runs the root command with args and returns what it wrote.
func executeCommand(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--color", "never"}, args...))
	t.Cleanup(func() {
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := ExecuteContext(context.Background())
	return out.String(), err
}
