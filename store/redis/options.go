package redis

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kochabx/eplq/log"
)

// Option configures a Client
type Option func(*clientOptions)

type clientOptions struct {
	hooks           []redis.Hook
	enableDebug     bool
	logger          *log.Logger
	slowQueryThresh time.Duration
}

// WithHooks adds go-redis hooks
func WithHooks(hooks ...redis.Hook) Option {
	return func(o *clientOptions) {
		o.hooks = append(o.hooks, hooks...)
	}
}

// WithDebug logs every command; commands slower than the optional
// threshold are logged at warn.
func WithDebug(slowQueryThreshold ...time.Duration) Option {
	return func(o *clientOptions) {
		o.enableDebug = true
		if len(slowQueryThreshold) > 0 {
			o.slowQueryThresh = slowQueryThreshold[0]
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}
