package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/architeacher/svc-queue-client/internal/config"
	"github.com/architeacher/svc-queue-client/internal/domain"
	"github.com/architeacher/svc-queue-client/internal/infrastructure"
	"github.com/spf13/cobra"
)

const closeTimeout = 5 * time.Second

// NewQueueCommand constructs the `queue` command group. Each subcommand opens
// its own connection and closes it before returning.
func NewQueueCommand(factory QueueFactory) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:     "queue",
		Aliases: []string{"q"},
		Short:   "One-shot queue operations",
		Long: `One-shot queue operations against the configured broker.

Flags override the RABBITMQ_* environment.

  insert    Publish a JSON payload (argument, or stdin when omitted or "-")
  purge     Remove every buffered message
  destroy   Delete the queue
  state     Connect, open the channel and print the client state`,
	}

	queueCmd.PersistentFlags().String("url", "", "Broker URL for the selected profile")
	queueCmd.PersistentFlags().String("profile", "", "Connection profile name")
	queueCmd.PersistentFlags().String("queue", "", "Queue name")
	queueCmd.PersistentFlags().String("log-level", "warn", "Log level: debug|info|warn|error")

	queueCmd.AddCommand(
		newInsertCommand(factory),
		newPurgeCommand(factory),
		newDestroyCommand(factory),
		newStateCommand(factory),
	)

	return queueCmd
}

func newInsertCommand(factory QueueFactory) *cobra.Command {
	insertCmd := &cobra.Command{
		Use:   "insert [payload|-]",
		Short: "Publish a JSON payload",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readPayload(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			groupBy, _ := cmd.Flags().GetString("group-by")

			return withChannel(cmd, factory, func(ctx context.Context, q infrastructure.Queue) (any, error) {
				var (
					accepted bool
					err      error
				)

				if groupBy != "" {
					accepted, err = q.InsertWithGroupBy(ctx, groupBy, payload)
				} else {
					accepted, err = q.Insert(ctx, payload)
				}

				if err != nil {
					return nil, err
				}

				return domain.InsertResult{Queue: q.QueueName(), Accepted: accepted}, nil
			})
		},
	}

	insertCmd.Flags().String("group-by", "", "Group key sent in the groupBy header")

	return insertCmd
}

func newPurgeCommand(factory QueueFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Remove every buffered message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withChannel(cmd, factory, func(ctx context.Context, q infrastructure.Queue) (any, error) {
				n, err := q.Purge(ctx)
				if err != nil {
					return nil, err
				}

				return domain.PurgeResult{Queue: q.QueueName(), Purged: n}, nil
			})
		},
	}
}

func newDestroyCommand(factory QueueFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "destroy",
		Short: "Delete the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withChannel(cmd, factory, func(ctx context.Context, q infrastructure.Queue) (any, error) {
				n, err := q.Destroy(ctx)
				if err != nil {
					return nil, err
				}

				return domain.DestroyResult{Queue: q.QueueName(), Deleted: n}, nil
			})
		},
	}
}

func newStateCommand(factory QueueFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print the client state after opening the channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withChannel(cmd, factory, func(_ context.Context, q infrastructure.Queue) (any, error) {
				return domain.QueueStatus{Queue: q.QueueName(), ClientState: q.State().String()}, nil
			})
		},
	}
}

// withChannel resolves the configuration, opens the channel, runs op and
// prints its result as JSON.
func withChannel(cmd *cobra.Command, factory QueueFactory, op func(ctx context.Context, q infrastructure.Queue) (any, error)) error {
	cfg, logger, err := loadQueueConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	q := factory(cfg, logger)

	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()

		if err := q.CloseConnection(closeCtx); err != nil {
			logger.Warn().Err(err).Msg("failed to close broker connection")
		}
	}()

	if _, err := q.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	if _, err := q.CreateChannel(ctx); err != nil {
		return fmt.Errorf("create channel: %w", err)
	}

	result, err := op(ctx, q)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")

	return encoder.Encode(result)
}

func loadQueueConfig(cmd *cobra.Command) (config.QueueConfig, infrastructure.Logger, error) {
	cfg, err := config.Init()
	if err != nil {
		return config.QueueConfig{}, infrastructure.Logger{}, err
	}

	flags := cmd.Flags()

	if profile, _ := flags.GetString("profile"); profile != "" {
		cfg.Queue.Profile = profile
	}

	// --url targets the selected profile, whatever the environment says.
	if url, _ := flags.GetString("url"); url != "" {
		cfg.Queue.BindURL(url)
	}

	if queueName, _ := flags.GetString("queue"); queueName != "" {
		cfg.Queue.QueueName = queueName
	}

	if cfg.Queue.QueueName == "" {
		return config.QueueConfig{}, infrastructure.Logger{}, errors.New("queue name is required, set --queue or RABBITMQ_QUEUE_NAME")
	}

	level, _ := flags.GetString("log-level")
	logger := infrastructure.NewWithWriter(config.LoggingConfig{Level: level, Format: "text"}, cmd.ErrOrStderr())

	return cfg.Queue, logger, nil
}

func readPayload(stdin io.Reader, args []string) (json.RawMessage, error) {
	var raw []byte

	if len(args) == 1 && args[0] != "-" {
		raw = []byte(args[0])
	} else {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read payload from stdin: %w", err)
		}

		raw = data
	}

	raw = []byte(strings.TrimSpace(string(raw)))

	if len(raw) == 0 {
		return nil, errors.New("payload is required")
	}

	if !json.Valid(raw) {
		return nil, errors.New("payload must be valid JSON")
	}

	return json.RawMessage(raw), nil
}
