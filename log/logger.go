package log

import (
	"fmt"
	"io"
	"time"

	"github.com/creasty/defaults"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"

	"github.com/kochabx/eplq/log/desensitize"
	"github.com/kochabx/eplq/log/writer"
)

// Logger wraps zerolog with an optional desensitizing writer
type Logger struct {
	zerolog.Logger
	desensitizeHook *desensitize.Hook
	level           *levelHook
	writer          io.Writer
	closer          io.Closer
}

// GetDesensitizeHook returns the hook applied to output, if any
func (l *Logger) GetDesensitizeHook() *desensitize.Hook {
	return l.desensitizeHook
}

// Close releases file writers
func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
}

func newLogger(w io.Writer, opts ...Option) *Logger {
	logger := &Logger{
		writer: w,
		Logger: zerolog.New(w).With().Timestamp().Logger(),
	}

	for _, opt := range opts {
		opt(logger)
	}

	// The hook wraps the writer, so the zerolog logger is rebuilt and the
	// options are applied a second time on top of it.
	if logger.desensitizeHook != nil {
		dw := desensitize.NewWriter(w, logger.desensitizeHook)
		logger.Logger = zerolog.New(dw).With().Timestamp().Logger()

		for _, opt := range opts {
			opt(logger)
		}
	}

	return logger
}

// New creates a console Logger
func New(opts ...Option) *Logger {
	return newLogger(writer.Console(nil), opts...)
}

// NewWriter creates a Logger emitting JSON lines to w
func NewWriter(w io.Writer, opts ...Option) *Logger {
	return newLogger(w, opts...)
}

// Nop returns a Logger that discards everything
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// NewFile creates a Logger writing to a rotated file
func NewFile(c FileConfig, opts ...Option) (*Logger, error) {
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	w, err := writer.File(c.toWriterConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create file writer: %w", err)
	}

	logger := newLogger(w, opts...)
	if closer, ok := w.(io.Closer); ok {
		logger.closer = closer
	}

	return logger, nil
}

// NewMulti creates a Logger writing to both a rotated file and the console
func NewMulti(c FileConfig, opts ...Option) (*Logger, error) {
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	fw, err := writer.File(c.toWriterConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create file writer: %w", err)
	}

	multi := zerolog.MultiLevelWriter(fw, writer.Console(nil))
	logger := newLogger(multi, opts...)
	if closer, ok := fw.(io.Closer); ok {
		logger.closer = closer
	}

	return logger, nil
}

// FromConfig builds a Logger from c. Coordinates are always desensitized
// according to c.CoordinatePrecision.
func FromConfig(c Config) (*Logger, error) {
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	hook := desensitize.NewHook()
	hook.AddBuiltin(desensitize.CoordinateRules(c.CoordinatePrecision)...)
	hook.AddBuiltin(desensitize.BuiltinRules()...)

	opts := []Option{WithDynamicLevel(c.ZerologLevel()), WithDesensitize(hook)}
	if c.Caller {
		opts = append(opts, WithCaller())
	}

	switch {
	case c.File == nil:
		return New(opts...), nil
	case c.File.Console:
		return NewMulti(*c.File, opts...)
	default:
		return NewFile(*c.File, opts...)
	}
}

// Component returns a child logger tagged with the component name
func (l *Logger) Component(name string) *Logger {
	return &Logger{
		Logger:          l.Logger.With().Str("component", name).Logger(),
		desensitizeHook: l.desensitizeHook,
		level:           l.level,
		writer:          l.writer,
	}
}
