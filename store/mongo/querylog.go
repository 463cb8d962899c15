package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kochabx/eplq/errors"
	"github.com/kochabx/eplq/store"
)

// QueryLog writes query log entries to a collection
type QueryLog struct {
	coll *mongo.Collection
}

var _ store.QueryLogSink = (*QueryLog)(nil)

// NewQueryLog opens the log collection, expiring entries after
// Config.QueryLogTTL when it is set.
func NewQueryLog(ctx context.Context, c *Client) (*QueryLog, error) {
	coll := c.Database().Collection(c.config.QueryLogCollection)

	index := mongo.IndexModel{Keys: bson.D{{Key: "timestamp", Value: -1}}}
	if ttl := c.config.QueryLogTTL; ttl > 0 {
		index.Options = options.Index().SetExpireAfterSeconds(int32(ttl.Seconds()))
	}
	if _, err := coll.Indexes().CreateOne(ctx, index); err != nil {
		return nil, errors.Wrap(err, errors.KindInternal, "mongo.NewQueryLog", "failed to create index")
	}
	return &QueryLog{coll: coll}, nil
}

func (l *QueryLog) LogQuery(ctx context.Context, entry store.QueryLogEntry) error {
	if _, err := l.coll.InsertOne(ctx, entry); err != nil {
		return errors.Wrap(err, errors.KindInternal, "mongo.LogQuery", "failed to insert log entry")
	}
	return nil
}

// Close is a no-op; the Client owns the connection
func (l *QueryLog) Close(context.Context) error {
	return nil
}
