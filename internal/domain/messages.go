package domain

import (
	"encoding/json"
)

type (
	// Message is a payload bound for the configured queue. GroupBy, when set,
	// travels as the groupBy header.
	Message struct {
		Payload json.RawMessage
		GroupBy *string
	}

	InsertResult struct {
		Queue    string `json:"queue"`
		Accepted bool   `json:"accepted"`
	}

	PurgeResult struct {
		Queue  string `json:"queue"`
		Purged int    `json:"purged"`
	}

	DestroyResult struct {
		Queue   string `json:"queue"`
		Deleted int    `json:"deleted"`
	}

	// QueueStats is the broker side view reported by the management API.
	QueueStats struct {
		Name      string `json:"name"`
		Vhost     string `json:"vhost"`
		Durable   bool   `json:"durable"`
		Messages  int    `json:"messages"`
		Consumers int    `json:"consumers"`
		State     string `json:"state"`
	}

	QueueStatus struct {
		Queue       string      `json:"queue"`
		ClientState string      `json:"client_state"`
		Stats       *QueueStats `json:"stats,omitempty"`
	}
)
