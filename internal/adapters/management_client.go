package adapters

import (
	"context"
	"fmt"
	"net/http"

	"github.com/architeacher/svc-queue-client/internal/config"
	"github.com/architeacher/svc-queue-client/internal/domain"
	"github.com/architeacher/svc-queue-client/internal/infrastructure"
	"github.com/architeacher/svc-queue-client/internal/ports"
	"github.com/go-resty/resty/v2"
)

const queueStatsPath = "/api/queues/{vhost}/{queue}"

type ManagementClient struct {
	client *resty.Client
	vhost  string
	logger infrastructure.Logger
}

var _ ports.ManagementClient = (*ManagementClient)(nil)

func NewManagementClient(cfg config.ManagementConfig, logger infrastructure.Logger) *ManagementClient {
	client := resty.New()

	client.SetBaseURL(cfg.URL).
		SetTimeout(cfg.Timeout).
		SetBasicAuth(cfg.Username, cfg.Password).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(cfg.RetryWaitTime).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() >= http.StatusInternalServerError
		})

	return &ManagementClient{
		client: client,
		vhost:  cfg.Vhost,
		logger: logger,
	}
}

// QueueStats reads the broker view of a queue. The vhost is path escaped,
// so the default "/" vhost is sent as %2F.
func (c *ManagementClient) QueueStats(ctx context.Context, queue string) (*domain.QueueStats, error) {
	stats := &domain.QueueStats{}

	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"vhost": c.vhost,
			"queue": queue,
		}).
		SetResult(stats).
		Get(queueStatsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to query management API for queue %s: %w", queue, err)
	}

	if resp.IsError() {
		c.logger.Debug().
			Str("queue", queue).
			Int("status_code", resp.StatusCode()).
			Msg("management API rejected queue stats request")

		return nil, fmt.Errorf("management API returned %d for queue %s", resp.StatusCode(), queue)
	}

	return stats, nil
}
