package db

import (
	"time"

	"gorm.io/gorm"

	"github.com/kochabx/eplq/log"
)

// Option configures a Client
type Option func(*clientOptions)

type clientOptions struct {
	logger          *log.Logger
	plugins         []gorm.Plugin
	connectTimeout  time.Duration
	slowQueryThresh time.Duration
	gormConfig      *gorm.Config
}

func defaultOptions() *clientOptions {
	return &clientOptions{
		connectTimeout: 10 * time.Second,
	}
}

func WithLogger(l *log.Logger) Option {
	return func(o *clientOptions) {
		o.logger = l
	}
}

func WithPlugins(plugins ...gorm.Plugin) Option {
	return func(o *clientOptions) {
		o.plugins = append(o.plugins, plugins...)
	}
}

// WithConnectTimeout bounds the initial ping
func WithConnectTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		if d > 0 {
			o.connectTimeout = d
		}
	}
}

// WithSlowQuery logs statements slower than threshold; zero disables.
func WithSlowQuery(threshold time.Duration) Option {
	return func(o *clientOptions) {
		o.slowQueryThresh = threshold
	}
}

// WithGormConfig replaces the generated gorm config entirely
func WithGormConfig(cfg *gorm.Config) Option {
	return func(o *clientOptions) {
		o.gormConfig = cfg
	}
}
