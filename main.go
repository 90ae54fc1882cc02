// The main package for the pageharvest executable.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jfaulkner/pageharvest/cmd"
)

// main wires interrupt handling and defers execution to the Cobra CLI.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
