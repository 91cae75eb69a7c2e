package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/runger/vselect/internal/config"
	"github.com/runger/vselect/internal/logging"
	"github.com/runger/vselect/internal/measure"
	"github.com/runger/vselect/internal/option"
	"github.com/runger/vselect/internal/picker"
	"github.com/runger/vselect/internal/storage"
	"github.com/runger/vselect/internal/termsize"
)

// minTermWidth is the narrowest terminal the picker draws in.
const minTermWidth = 20

var (
	pickItems       string
	pickFormat      string
	pickCmdline     string
	pickSelected    string
	pickListID      string
	pickPlaceholder string
	pickQuery       string
	pickDisabled    bool
)

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Choose one option from a searchable list",
	Long: `Open a searchable dropdown on the terminal and print the chosen key.

Options are read from --items (a file, or - for stdin) or from the output of
--cmd. Line input is one label per line, or key<TAB>label. Files ending in
.yaml, .yml or .json hold a list of {value, label} mappings.

With --list-id the choice is remembered, and the next pick of the same list
opens scrolled to it.

Exit status is 0 when an option was chosen, 1 when the list was dismissed
and 2 when the picker could not run.

Examples:
  ls | vselect pick
  vselect pick --items countries.yaml --list-id country
  vselect pick --cmd "git branch --format=%(refname:short)" --selected main`,
	Args: cobra.NoArgs,
	RunE: runPick,
}

func init() {
	pickCmd.Flags().StringVar(&pickItems, "items", "", "items file, or - for stdin (default stdin)")
	pickCmd.Flags().StringVar(&pickFormat, "format", string(option.FormatLines), "stdin format: lines, yaml, json")
	pickCmd.Flags().StringVar(&pickCmdline, "cmd", "", "command whose output lists the options")
	pickCmd.Flags().StringVar(&pickSelected, "selected", "", "key of the currently selected option")
	pickCmd.Flags().StringVar(&pickListID, "list-id", "", "remember the choice under this name")
	pickCmd.Flags().StringVar(&pickPlaceholder, "placeholder", "", "text shown in the empty search field")
	pickCmd.Flags().StringVar(&pickQuery, "query", "", "initial search query")
	pickCmd.Flags().BoolVar(&pickDisabled, "disabled", false, "show the list without accepting a choice")
}

func runPick(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := appConfig
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := logging.FromContext(ctx)

	provider, err := newProvider(cmd.InOrStdin())
	if err != nil {
		return err
	}

	tty, err := termsize.OpenTTY()
	if err != nil {
		return err
	}
	defer tty.Close()

	if err := checkTERM(os.Getenv("TERM")); err != nil {
		return err
	}
	cols, _, err := termsize.Size(tty)
	if err != nil {
		return fmt.Errorf("cannot determine terminal width: %w", err)
	}
	if err := checkTermWidth(cols); err != nil {
		return err
	}

	store := openStore(cfg, logger)
	if store != nil {
		defer store.Close()
	}

	value := resolveInitialValue(ctx, store, pickSelected, pickListID, logger)
	estimator := newEstimator(cfg, termsize.Container{File: tty}, logger)
	model := picker.NewModel(provider, estimator, pickerOptions(cfg, value, logger)...)

	// SetColorProfile modifies the existing default renderer in-place so
	// package-level styles already created in picker/model.go pick it up.
	lipgloss.SetColorProfile(termenv.NewOutput(tty).ColorProfile())

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithInput(tty),
		tea.WithOutput(tty),
		tea.WithContext(ctx),
	)
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("picker failed: %w", err)
	}

	m, ok := final.(picker.Model)
	if !ok {
		return fmt.Errorf("picker returned unexpected model %T", final)
	}
	item, chosen := m.Result()
	if !chosen {
		logger.Debug().Bool("cancelled", m.IsCancelled()).Msg("no option chosen")
		return ErrCancelled
	}

	fmt.Fprintln(cmd.OutOrStdout(), item.Key)
	rememberChoice(ctx, store, pickListID, item.Key, logger)
	return nil
}

// newProvider builds the option provider named by the pick flags.
func newProvider(in io.Reader) (picker.Provider, error) {
	switch {
	case pickCmdline != "" && pickItems != "":
		return nil, errors.New("--items and --cmd are mutually exclusive")
	case pickCmdline != "":
		return picker.NewCommandProvider(pickCmdline, 0), nil
	case pickItems == "" || pickItems == "-":
		items, err := option.Read(in, option.Format(pickFormat))
		if err != nil {
			return nil, fmt.Errorf("failed to read items: %w", err)
		}
		return picker.NewStaticProvider(items), nil
	default:
		items, err := option.LoadFile(pickItems)
		if err != nil {
			return nil, err
		}
		return picker.NewStaticProvider(items), nil
	}
}

// newEstimator builds the row height estimator described by cfg.
func newEstimator(cfg *config.Config, container measure.Container, logger zerolog.Logger) *measure.Estimator {
	return measure.NewEstimator(measure.NewLayout(cfg.List.Measurer),
		measure.WithParams(cfg.MeasureParams()),
		measure.WithStyle(cfg.MeasureStyle()),
		measure.WithContainer(container),
		measure.WithLogger(logging.Component(logger, "measure")),
	)
}

func pickerOptions(cfg *config.Config, value string, logger zerolog.Logger) []picker.Option {
	return []picker.Option{
		picker.WithValue(value),
		picker.WithQuery(pickQuery),
		picker.WithPlaceholder(pickPlaceholder),
		picker.WithDisabled(pickDisabled),
		picker.WithMaxHeight(cfg.List.MaxHeight),
		picker.WithOverscan(cfg.List.Overscan),
		picker.WithLabelLimit(cfg.List.LabelMaxWidth),
		picker.WithLogger(logging.Component(logger, "picker")),
	}
}

// openStore opens the selections database, or returns nil when remembering
// is off or the database cannot be opened. A broken database never stops the
// picker.
func openStore(cfg *config.Config, logger zerolog.Logger) storage.Store {
	if !cfg.Storage.RememberSelection || pickListID == "" {
		return nil
	}
	path := cfg.Storage.DBPath
	if path == "" {
		path = config.DefaultPaths().DatabaseFile()
	}
	store, err := storage.NewSQLiteStore(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("selections database unavailable")
		return nil
	}
	return store
}

// resolveInitialValue returns the explicit selection, or the remembered one
// for listID.
func resolveInitialValue(ctx context.Context, store storage.Store, selected, listID string, logger zerolog.Logger) string {
	if selected != "" || store == nil || listID == "" {
		return selected
	}
	key, err := store.LastSelection(ctx, listID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Warn().Err(err).Str("list_id", listID).Msg("failed to read remembered selection")
		}
		return ""
	}
	logger.Debug().Str("list_id", listID).Str("key", key).Msg("opening at remembered selection")
	return key
}

func rememberChoice(ctx context.Context, store storage.Store, listID, key string, logger zerolog.Logger) {
	if store == nil || listID == "" {
		return
	}
	if err := store.RememberSelection(ctx, listID, key); err != nil {
		logger.Warn().Err(err).Str("list_id", listID).Msg("failed to remember selection")
	}
}

// checkTERM verifies the terminal can draw the picker.
func checkTERM(term string) error {
	if term == "dumb" {
		return errors.New("TERM is \"dumb\"")
	}
	return nil
}

// checkTermWidth verifies the terminal is at least minTermWidth columns.
func checkTermWidth(cols int) error {
	if cols < minTermWidth {
		return fmt.Errorf("terminal too narrow (%d columns, need %d)", cols, minTermWidth)
	}
	return nil
}
