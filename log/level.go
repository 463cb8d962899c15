package log

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

// levelHook drops events below a minimum that can change after the logger
// and its components were built. Components share the hook of their parent.
type levelHook struct {
	min atomic.Int32
}

func newLevelHook(level zerolog.Level) *levelHook {
	h := &levelHook{}
	h.set(level)
	return h
}

func (h *levelHook) set(level zerolog.Level) {
	h.min.Store(int32(level))
}

func (h *levelHook) get() zerolog.Level {
	return zerolog.Level(h.min.Load())
}

func (h *levelHook) Run(e *zerolog.Event, level zerolog.Level, _ string) {
	if level < h.get() {
		e.Discard()
	}
}

// WithDynamicLevel sets a minimum level that SetLevel can change later
func WithDynamicLevel(level zerolog.Level) Option {
	return func(l *Logger) {
		if l.level == nil {
			l.level = newLevelHook(level)
		}
		l.Logger = l.Logger.Level(zerolog.TraceLevel).Hook(l.level)
	}
}

// SetLevel changes the minimum level of l and of every component derived
// from it. Loggers built without WithDynamicLevel are changed alone.
func (l *Logger) SetLevel(level zerolog.Level) {
	if l.level != nil {
		l.level.set(level)
		return
	}
	l.Logger = l.Logger.Level(level)
}

// GetLevel returns the minimum level currently applied
func (l *Logger) GetLevel() zerolog.Level {
	if l.level != nil {
		return l.level.get()
	}
	return l.Logger.GetLevel()
}
