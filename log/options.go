package log

import (
	"github.com/rs/zerolog"

	"github.com/kochabx/eplq/log/desensitize"
)

// Option configures a Logger
type Option func(*Logger)

// WithLevel sets the minimum level
func WithLevel(level zerolog.Level) Option {
	return func(l *Logger) {
		l.Logger = l.Logger.Level(level)
	}
}

// WithCaller adds file:line of the call site
func WithCaller() Option {
	return func(l *Logger) {
		l.Logger = l.Logger.With().Caller().Logger()
	}
}

// WithDesensitize filters output through hook
func WithDesensitize(hook *desensitize.Hook) Option {
	return func(l *Logger) {
		l.desensitizeHook = hook
	}
}
