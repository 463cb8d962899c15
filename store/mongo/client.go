// Package mongo stores sealed points and query logs in MongoDB.
package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/kochabx/eplq/errors"
	"github.com/kochabx/eplq/log"
)

// Client wraps a connected mongo client
type Client struct {
	client *mongo.Client
	config *Config
	logger *log.Logger
}

// Option configures a Client
type Option func(*Client)

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New connects and pings the server
func New(ctx context.Context, config *Config, opts ...Option) (*Client, error) {
	const op = "mongo.New"

	if config == nil {
		return nil, errors.InvalidArgument(op, "config is required")
	}
	if err := config.Init(); err != nil {
		return nil, errors.Internal(op, err)
	}

	c := &Client{config: config, logger: log.G}
	for _, opt := range opts {
		opt(c)
	}

	clientOpts := options.Client().
		ApplyURI(config.uri()).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetBSONOptions(&options.BSONOptions{NilSliceAsEmpty: true}).
		SetMaxPoolSize(uint64(config.MaxPoolSize)).
		SetConnectTimeout(config.Timeout).
		SetServerSelectionTimeout(config.Timeout)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindInternal, op, "failed to connect to mongodb")
	}
	c.client = client

	pingCtx, cancel := context.WithTimeout(ctx, config.Timeout)
	defer cancel()
	if err := c.Ping(pingCtx); err != nil {
		_ = c.Close(ctx)
		return nil, errors.Wrap(err, errors.KindInternal, op, "mongodb ping failed")
	}

	c.logger.Info().Str("database", config.Database).Msg("connected to mongodb")
	return c, nil
}

// Ping checks the primary is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// Close disconnects
func (c *Client) Close(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Disconnect(ctx)
}

// Database returns the configured database
func (c *Client) Database() *mongo.Database {
	return c.client.Database(c.config.Database)
}
