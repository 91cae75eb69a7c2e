package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/runger/vselect/internal/config"
	"github.com/runger/vselect/internal/logging"
	"github.com/runger/vselect/internal/measure"
	"github.com/runger/vselect/internal/option"
	"github.com/runger/vselect/internal/termsize"
)

var measureWidth int

var measureCmd = &cobra.Command{
	Use:   "measure [label...]",
	Short: "Print the estimated row height of each label",
	Long: `Print the row height the picker would give each label, one per line as
height<TAB>label, followed by the total.

Labels are read from stdin, one per line, when none are given. Without
--width the terminal width is used, falling back to list.fallback_width.

Examples:
  vselect measure --width 40 "a short label" "a much longer label that wraps"
  ls | vselect measure`,
	RunE: runMeasure,
}

func init() {
	measureCmd.Flags().IntVar(&measureWidth, "width", 0, "container width in columns (default terminal width)")
}

func runMeasure(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if measureWidth < 0 {
		return fmt.Errorf("--width must be >= 0 (got %d)", measureWidth)
	}

	labels := args
	if len(labels) == 0 {
		items, err := option.Read(cmd.InOrStdin(), option.FormatLines)
		if err != nil {
			return fmt.Errorf("failed to read labels: %w", err)
		}
		for _, it := range items {
			labels = append(labels, it.Label)
		}
	}

	var container measure.Container = termsize.Container{File: os.Stdout}
	if measureWidth > 0 {
		container = measure.FixedWidth(measureWidth)
	}
	estimator := newEstimator(cfg, container, logging.FromContext(cmd.Context()))

	out := cmd.OutOrStdout()
	total := 0
	for _, label := range labels {
		h := estimator.Estimate(label)
		total += h
		fmt.Fprintf(out, "%d\t%s\n", h, label)
	}
	fmt.Fprintf(out, "%stotal%s\t%d\n", colorDim, colorReset, total)
	return nil
}
