package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// GroupByHeader carries the partition key set by InsertWithGroupBy.
	GroupByHeader = "groupBy"

	contentTypeJSON = "application/json"
)

func encodePayload(data any) ([]byte, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("could not marshal message: %w", err)
	}

	return content, nil
}

func groupByHeaders(key any) amqp.Table {
	return amqp.Table{
		GroupByHeader: key,
	}
}

func newPublishing(body []byte, headers amqp.Table) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  contentTypeJSON,
		DeliveryMode: amqp.Transient,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Headers:      headers,
		Body:         body,
	}
}
