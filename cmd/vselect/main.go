// Package main is the entry point for the vselect CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/runger/vselect/internal/cmd"
)

func main() {
	os.Exit(run())
}

// run executes the CLI and returns the process exit code.
func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, cmd.ErrCancelled) {
		fmt.Fprintf(os.Stderr, "vselect: %v\n", err)
	}
	return cmd.ExitCode(err)
}
