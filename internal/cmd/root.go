// Package cmd holds the Cobra commands of the svc-queue-publisher binary.
package cmd

import (
	"context"

	"github.com/architeacher/svc-queue-client/internal/config"
	"github.com/architeacher/svc-queue-client/internal/infrastructure"
	"github.com/architeacher/svc-queue-client/pkg/queue"
	"github.com/spf13/cobra"
)

// QueueFactory builds the client used by the queue subcommands.
type QueueFactory func(cfg config.QueueConfig, logger infrastructure.Logger) infrastructure.Queue

// ServeFunc runs the HTTP service until ctx is cancelled.
type ServeFunc func(ctx context.Context) error

func defaultQueueFactory(cfg config.QueueConfig, logger infrastructure.Logger) infrastructure.Queue {
	return infrastructure.NewQueue(cfg, logger, queue.NoOpMetrics{})
}

// NewRootCommand wires the serve command and the queue command group.
func NewRootCommand(serve ServeFunc, factory QueueFactory) *cobra.Command {
	if factory == nil {
		factory = defaultQueueFactory
	}

	root := &cobra.Command{
		Use:           "svc-queue-publisher",
		Short:         "Publish to a RabbitMQ queue over HTTP or from the shell",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCommand(serve),
		NewQueueCommand(factory),
	)

	return root
}

func newServeCommand(serve ServeFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP publisher service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}
