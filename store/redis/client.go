// Package redis keeps a capped list of recent query log entries.
package redis

import (
	"context"
	"runtime"

	"github.com/redis/go-redis/v9"

	"github.com/kochabx/eplq/errors"
	"github.com/kochabx/eplq/log"
)

// Client wraps a universal client, picking the mode from Config
type Client struct {
	client redis.UniversalClient
	config *Config
	logger *log.Logger
}

// New connects and pings. cfg is initialised in place.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Client, error) {
	const op = "redis.New"

	if cfg == nil {
		return nil, errors.InvalidArgument(op, "config is nil")
	}
	if err := cfg.Init(); err != nil {
		return nil, err
	}

	o := &clientOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	logger := o.logger
	if logger == nil {
		logger = log.G.Component("redis")
	}

	c := &Client{
		client: redis.NewUniversalClient(universalOptions(cfg)),
		config: cfg,
		logger: logger,
	}
	for _, h := range o.hooks {
		c.client.AddHook(h)
	}
	if o.enableDebug {
		c.client.AddHook(NewDebugHook(logger, o.slowQueryThresh))
	}

	if err := c.Ping(ctx); err != nil {
		_ = c.client.Close()
		return nil, errors.Wrap(err, errors.KindInitialization, op, "ping %v", cfg.Addrs)
	}

	logger.Debug().Str("mode", cfg.mode()).Strs("addrs", cfg.Addrs).Msg("redis client created")
	return c, nil
}

func universalOptions(cfg *Config) *redis.UniversalOptions {
	poolSize := cfg.PoolSize
	if poolSize == 0 {
		poolSize = 10 * runtime.GOMAXPROCS(0)
	}

	return &redis.UniversalOptions{
		Addrs:      cfg.Addrs,
		MasterName: cfg.MasterName,
		Username:   cfg.Username,
		Password:   cfg.Password,
		DB:         cfg.DB,
		Protocol:   cfg.Protocol,

		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,

		PoolSize:        poolSize,
		MinIdleConns:    cfg.MinIdleConns,
		ConnMaxIdleTime: cfg.MaxIdleTime,
		PoolTimeout:     cfg.PoolTimeout,
		MaxRetries:      cfg.MaxRetries,
	}
}

// UniversalClient exposes the underlying client
func (c *Client) UniversalClient() redis.UniversalClient {
	return c.client
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Client) Close() error {
	err := c.client.Close()
	c.logger.Debug().Msg("redis client closed")
	return err
}

func (c *Client) Stats() *redis.PoolStats {
	return c.client.PoolStats()
}
