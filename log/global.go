package log

import (
	"github.com/rs/zerolog"
)

var (
	// G is the process wide logger used when a component is given none
	G *Logger
)

func init() {
	G = New()
}

// SetGlobalLogger replaces G
func SetGlobalLogger(logger *Logger) {
	G = logger
}

// SetGlobalLevel sets the level of G and the components taken from it
func SetGlobalLevel(level zerolog.Level) {
	G.SetLevel(level)
}

func Debug() *zerolog.Event {
	return G.Debug()
}

func Info() *zerolog.Event {
	return G.Info()
}

func Warn() *zerolog.Event {
	return G.Warn()
}

// Error returns an error level event with stack
func Error() *zerolog.Event {
	return G.Error().Stack()
}

// Fatal returns a fatal level event with stack
func Fatal() *zerolog.Event {
	return G.Fatal().Stack()
}
