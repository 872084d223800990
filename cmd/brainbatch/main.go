// Command brainbatch is the entrypoint for the brainbatch CLI. It renders
// glass-brain images and runs cluster extraction over a study's statistical
// maps, and prints the study's score and classifier summaries.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// version and commit are set at build time via -ldflags.
var (
	version = "1.0.0-dev"
	commit  = "unknown"
)

// errReported marks failures already logged to the user; main exits 1
// without printing them again.
var errReported = errors.New("reported")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "brainbatch: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}
