// Package db keeps sealed points in a relational database through gorm.
package db

import (
	"context"
	"database/sql"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kochabx/eplq/errors"
	"github.com/kochabx/eplq/log"
)

// Client owns one gorm connection pool
type Client struct {
	config  *Config
	db      *gorm.DB
	sqlDB   *sql.DB
	options *clientOptions
	logger  *log.Logger
}

// New connects and pings. cfg is initialised in place.
func New(cfg *Config, opts ...Option) (*Client, error) {
	const op = "db.New"

	if cfg == nil {
		return nil, errors.InvalidArgument(op, "config is nil")
	}
	if err := cfg.Init(); err != nil {
		return nil, err
	}

	options := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	c := &Client{
		config:  cfg,
		options: options,
		logger:  options.logger,
	}
	if c.logger == nil {
		c.logger = log.G.Component("db")
	}

	if err := c.connect(); err != nil {
		return nil, errors.Wrap(err, errors.KindInitialization, op, "failed to open %s", cfg.Driver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), options.connectTimeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, errors.Wrap(err, errors.KindInitialization, op, "ping %s", cfg.Driver)
	}

	c.logger.Debug().Str("driver", cfg.Driver.String()).Msg("database client created")
	return c, nil
}

func (c *Client) connect() error {
	dialector, err := c.dialector()
	if err != nil {
		return err
	}

	db, err := gorm.Open(dialector, c.gormConfig())
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	pool := c.config.Pool
	sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	for _, plugin := range c.options.plugins {
		if err := db.Use(plugin); err != nil {
			_ = sqlDB.Close()
			return err
		}
	}

	c.db = db
	c.sqlDB = sqlDB
	return nil
}

func (c *Client) dialector() (gorm.Dialector, error) {
	dsn, err := c.config.DSN()
	if err != nil {
		return nil, err
	}
	switch c.config.Driver {
	case DriverMySQL:
		return mysql.Open(dsn), nil
	case DriverPostgres:
		return postgres.Open(dsn), nil
	default:
		return sqlite.Open(dsn), nil
	}
}

func (c *Client) gormConfig() *gorm.Config {
	if c.options.gormConfig != nil {
		return c.options.gormConfig
	}

	lc := logger.Config{
		LogLevel:                  c.config.LogLevel(),
		IgnoreRecordNotFoundError: true,
	}
	if c.options.slowQueryThresh > 0 {
		lc.SlowThreshold = c.options.slowQueryThresh
	}
	return &gorm.Config{Logger: logger.New(gormLogWriter{c.logger}, lc)}
}

func (c *Client) DB() *gorm.DB {
	return c.db
}

func (c *Client) Ping(ctx context.Context) error {
	if c.sqlDB == nil {
		return errors.NotInitialized("db.Ping")
	}
	return c.sqlDB.PingContext(ctx)
}

func (c *Client) Close() error {
	if c.sqlDB == nil {
		return nil
	}
	return c.sqlDB.Close()
}

// Stats of the underlying pool
func (c *Client) Stats() sql.DBStats {
	if c.sqlDB == nil {
		return sql.DBStats{}
	}
	return c.sqlDB.Stats()
}

// gormLogWriter adapts log.Logger to logger.Writer
type gormLogWriter struct {
	logger *log.Logger
}

func (w gormLogWriter) Printf(format string, args ...any) {
	w.logger.Info().Msgf(format, args...)
}
