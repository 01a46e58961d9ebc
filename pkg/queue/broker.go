package queue

import (
	"context"
	"io"

	amqp "github.com/rabbitmq/amqp091-go"
)

type (
	// Dialer opens broker connections.
	Dialer interface {
		Dial(ctx context.Context, url string, opts DialOptions) (Connection, error)
	}

	// DialOptions carries per-dial settings derived from the profile URL.
	DialOptions struct {
		ServerName string
	}

	// Connection is shared by every channel derived from it.
	Connection interface {
		io.Closer

		Channel(ctx context.Context) (Channel, error)

		// OnTermination registers fn to be called once when the broker or the
		// transport closes the connection. Close does not trigger it.
		OnTermination(fn func()) (cancel func())
	}

	// Channel is the set of queue primitives the client relies on.
	Channel interface {
		io.Closer

		AssertQueue(ctx context.Context, name string, opts QueueOptions) (QueueInfo, error)
		SendToQueue(ctx context.Context, name string, body []byte, opts SendOptions) (bool, error)
		PurgeQueue(ctx context.Context, name string) (int, error)
		DeleteQueue(ctx context.Context, name string) (int, error)

		// OnTermination registers fn to be called once when the broker closes the
		// channel or its connection drops. If the channel is already terminated fn
		// runs immediately. The returned func cancels the registration.
		OnTermination(fn func()) (cancel func())
	}

	QueueOptions struct {
		Durable bool
	}

	QueueInfo struct {
		Name      string
		Messages  int
		Consumers int
	}

	SendOptions struct {
		Headers amqp.Table
	}
)
