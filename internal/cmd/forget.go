package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runger/vselect/internal/config"
	"github.com/runger/vselect/internal/storage"
)

var forgetCmd = &cobra.Command{
	Use:   "forget <list-id>",
	Short: "Forget the remembered choice of a list",
	Args:  cobra.ExactArgs(1),
	RunE:  runForget,
}

func runForget(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	path := cfg.Storage.DBPath
	if path == "" {
		path = config.DefaultPaths().DatabaseFile()
	}

	store, err := storage.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	listID := args[0]
	sel, err := store.GetSelection(ctx, listID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Fprintf(cmd.OutOrStdout(), "%sNothing remembered for %s%s\n", colorDim, listID, colorReset)
			return nil
		}
		return err
	}
	if err := store.ForgetSelection(ctx, listID); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%sForgot%s %s%s%s (was %q, chosen %d times)\n",
		colorGreen, colorReset, colorCyan, listID, colorReset, sel.Key, sel.ChooseCount)
	return nil
}
