package queue

import (
	"context"
)

type (
	// Metrics records cache and publishing events. Implementations are called
	// inline on every operation, including from the dead-channel monitor.
	Metrics interface {
		RecordConnection(ctx context.Context, profile string, success bool)
		RecordChannel(ctx context.Context, queue string, success bool)
		RecordChannelEviction(ctx context.Context, queue, reason string)
		RecordQueueAssertion(ctx context.Context, queue string, success bool)
		RecordPublish(ctx context.Context, queue string, grouped, accepted bool)
	}

	NoOpMetrics struct{}
)

const (
	evictionTerminated = "terminated"
	evictionExplicit   = "explicit"
	evictionFailed     = "failed"
)

func (NoOpMetrics) RecordConnection(_ context.Context, _ string, _ bool) {}

func (NoOpMetrics) RecordChannel(_ context.Context, _ string, _ bool) {}

func (NoOpMetrics) RecordChannelEviction(_ context.Context, _, _ string) {}

func (NoOpMetrics) RecordQueueAssertion(_ context.Context, _ string, _ bool) {}

func (NoOpMetrics) RecordPublish(_ context.Context, _ string, _, _ bool) {}
