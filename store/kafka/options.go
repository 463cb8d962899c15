package kafka

import (
	"github.com/segmentio/kafka-go"

	"github.com/kochabx/eplq/log"
)

type Option func(*clientOptions)

type clientOptions struct {
	dialer *kafka.Dialer
	logger *log.Logger
}

// WithDialer replaces the dialer used by readers
func WithDialer(dialer *kafka.Dialer) Option {
	return func(o *clientOptions) {
		o.dialer = dialer
	}
}

func WithLogger(l *log.Logger) Option {
	return func(o *clientOptions) {
		o.logger = l
	}
}
