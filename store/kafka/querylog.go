package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/kochabx/eplq/errors"
	"github.com/kochabx/eplq/store"
)

// QueryLog implements store.QueryLogSink, one JSON message per entry keyed by query id
type QueryLog struct {
	writer *kafka.Writer
}

var _ store.QueryLogSink = (*QueryLog)(nil)

func NewQueryLog(c *Client) *QueryLog {
	return &QueryLog{writer: c.Producer(c.config.Topic)}
}

func message(entry store.QueryLogEntry) (kafka.Message, error) {
	value, err := json.Marshal(entry)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(entry.QueryID),
		Value: value,
		Time:  entry.Timestamp,
	}, nil
}

func (q *QueryLog) LogQuery(ctx context.Context, entry store.QueryLogEntry) error {
	const op = "kafka.LogQuery"

	msg, err := message(entry)
	if err != nil {
		return errors.Internal(op, err)
	}
	if err := q.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, errors.KindInternal, op, "failed to publish entry %s", entry.QueryID)
	}
	return nil
}

// Close is a no-op; the Client owns the writer
func (q *QueryLog) Close(context.Context) error {
	return nil
}
