package kafka

import (
	"time"

	"github.com/creasty/defaults"
	"github.com/segmentio/kafka-go"

	"github.com/kochabx/eplq/errors"
)

// Balancer picks a partition for each message
type Balancer string

const (
	BalancerLeastBytes Balancer = "least_bytes"
	BalancerHash       Balancer = "hash"
)

type Config struct {
	Brokers  []string `json:"brokers" default:"[\"localhost:9092\"]"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	// Topic receiving query log entries
	Topic string `json:"topic" default:"eplq.query_log"`
	// Balancer defaults to hash so entries of one query id share a partition
	Balancer               Balancer `json:"balancer" default:"hash" validate:"oneof=least_bytes hash"`
	AllowAutoTopicCreation bool     `json:"allow_auto_topic_creation"`
	// Async writes return before the broker acknowledges
	Async        bool          `json:"async"`
	BatchTimeout time.Duration `json:"batch_timeout" default:"100ms"`
	Timeout      time.Duration `json:"timeout" default:"3s"`
	CloseTimeout time.Duration `json:"close_timeout" default:"5s"`

	MinBytes int `json:"min_bytes" default:"1024"`
	MaxBytes int `json:"max_bytes" default:"1048576"`
}

func (c *Config) Init() error {
	if err := defaults.Set(c); err != nil {
		return errors.Wrap(err, errors.KindInternal, "kafka.Config.Init", "apply defaults")
	}
	if len(c.Brokers) == 0 {
		return errors.InvalidArgument("kafka.Config.Init", "no brokers")
	}
	return nil
}

func (c *Config) balancer() kafka.Balancer {
	if c.Balancer == BalancerLeastBytes {
		return &kafka.LeastBytes{}
	}
	return &kafka.Hash{}
}
