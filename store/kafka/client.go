// Package kafka publishes query log entries to a topic.
package kafka

import (
	"context"
	"sync"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
	"golang.org/x/sync/errgroup"

	"github.com/kochabx/eplq/errors"
	"github.com/kochabx/eplq/log"
)

// Client caches one writer per topic and every reader it hands out
type Client struct {
	config    *Config
	dialer    *kafka.Dialer
	transport *kafka.Transport
	logger    *log.Logger

	mu        sync.Mutex
	producers map[string]*kafka.Writer
	consumers map[string]*kafka.Reader
}

// New does not dial; brokers are contacted on first write or read
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("kafka.New", "config is nil")
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

	c := &Client{
		config:    cfg,
		logger:    o.logger,
		producers: make(map[string]*kafka.Writer),
		consumers: make(map[string]*kafka.Reader),
	}
	if c.logger == nil {
		c.logger = log.G.Component("kafka")
	}

	c.dialer = o.dialer
	if c.dialer == nil {
		c.dialer = &kafka.Dialer{Timeout: cfg.Timeout, DualStack: true}
		if m, ok := c.mechanism(); ok {
			c.dialer.SASLMechanism = m
		}
	}
	c.transport = &kafka.Transport{DialTimeout: cfg.Timeout}
	if m, ok := c.mechanism(); ok {
		c.transport.SASL = m
	}
	return c, nil
}

func (c *Client) mechanism() (plain.Mechanism, bool) {
	if c.config.Username == "" || c.config.Password == "" {
		return plain.Mechanism{}, false
	}
	return plain.Mechanism{Username: c.config.Username, Password: c.config.Password}, true
}

func (c *Client) newWriter(topic string) *kafka.Writer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(c.config.Brokers...),
		Topic:                  topic,
		Balancer:               c.config.balancer(),
		Transport:              c.transport,
		AllowAutoTopicCreation: c.config.AllowAutoTopicCreation,
		Async:                  c.config.Async,
		BatchTimeout:           c.config.BatchTimeout,
		RequiredAcks:           kafka.RequireOne,
	}
	if c.config.Async {
		w.Completion = func(messages []kafka.Message, err error) {
			if err != nil {
				c.logger.Warn().Err(err).Str("topic", topic).Int("messages", len(messages)).Msg("async write failed")
			}
		}
	}
	return w
}

// Producer returns the shared writer for topic
func (c *Client) Producer(topic string) *kafka.Writer {
	c.mu.Lock()
	defer c.mu.Unlock()

	if w, ok := c.producers[topic]; ok {
		return w
	}
	w := c.newWriter(topic)
	c.producers[topic] = w
	return w
}

// ConsumerGroup returns the shared reader for topic within groupID
func (c *Client) ConsumerGroup(topic, groupID string) *kafka.Reader {
	key := topic + "-" + groupID

	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.consumers[key]; ok {
		return r
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     c.config.Brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    c.config.MinBytes,
		MaxBytes:    c.config.MaxBytes,
		Dialer:      c.dialer,
		StartOffset: kafka.FirstOffset,
	})
	c.consumers[key] = r
	return r
}

// Close flushes writers and closes readers concurrently
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.config.CloseTimeout)
	defer cancel()

	eg, _ := errgroup.WithContext(ctx)
	for _, w := range c.producers {
		eg.Go(w.Close)
	}
	for _, r := range c.consumers {
		eg.Go(r.Close)
	}

	done := make(chan error, 1)
	go func() { done <- eg.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), errors.KindInternal, "kafka.Close", "timed out after %s", c.config.CloseTimeout)
	}
}
