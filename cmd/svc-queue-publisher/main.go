package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/architeacher/svc-queue-client/internal/cmd"
	"github.com/architeacher/svc-queue-client/internal/runtime"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := cmd.NewRootCommand(func(ctx context.Context) error {
		return runtime.New().Run(ctx)
	}, nil)

	err := rootCmd.ExecuteContext(ctx)

	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
