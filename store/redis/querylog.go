package redis

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/kochabx/eplq/errors"
	"github.com/kochabx/eplq/store"
)

// QueryLog implements store.QueryLogSink as a capped list, newest at the head
type QueryLog struct {
	client redis.UniversalClient
	config *Config
}

var _ store.QueryLogSink = (*QueryLog)(nil)

func NewQueryLog(c *Client) *QueryLog {
	return &QueryLog{client: c.client, config: c.config}
}

func (q *QueryLog) LogQuery(ctx context.Context, entry store.QueryLogEntry) error {
	const op = "redis.LogQuery"

	data, err := json.Marshal(entry)
	if err != nil {
		return errors.Internal(op, err)
	}

	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, q.config.QueryLogKey, data)
		pipe.LTrim(ctx, q.config.QueryLogKey, 0, q.config.QueryLogMax-1)
		if q.config.QueryLogTTL > 0 {
			pipe.Expire(ctx, q.config.QueryLogKey, q.config.QueryLogTTL)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, errors.KindInternal, op, "failed to append entry %s", entry.QueryID)
	}
	return nil
}

// Recent returns up to n entries, newest first
func (q *QueryLog) Recent(ctx context.Context, n int64) ([]store.QueryLogEntry, error) {
	const op = "redis.Recent"
	if n <= 0 {
		return nil, nil
	}

	raw, err := q.client.LRange(ctx, q.config.QueryLogKey, 0, n-1).Result()
	if err != nil {
		return nil, errors.Retrieval(op, err)
	}

	out := make([]store.QueryLogEntry, 0, len(raw))
	for _, r := range raw {
		var e store.QueryLogEntry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			return nil, errors.Retrieval(op, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Close is a no-op; the Client owns the connection
func (q *QueryLog) Close(context.Context) error {
	return nil
}
