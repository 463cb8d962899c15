package config

import (
	"github.com/kochabx/eplq/log"
	"github.com/kochabx/eplq/store/db"
	"github.com/kochabx/eplq/store/kafka"
	"github.com/kochabx/eplq/store/leveldb"
	"github.com/kochabx/eplq/store/mongo"
	"github.com/kochabx/eplq/store/redis"
)

// Point store drivers
const (
	StoreLevelDB = "leveldb"
	StoreMongo   = "mongo"
	StoreSQL     = "sql"
)

// Query log sinks
const (
	SinkNone  = "none"
	SinkMongo = "mongo"
	SinkRedis = "redis"
	SinkKafka = "kafka"
)

// Settings is the application configuration of cmd/eplq
type Settings struct {
	Log      log.Config     `json:"log"`
	Index    IndexSettings  `json:"index"`
	Query    QuerySettings  `json:"query"`
	Store    StoreSettings  `json:"store"`
	QueryLog QueryLog       `json:"querylog"`
	Metrics  MetricsSetting `json:"metrics"`
	// Watch reapplies log.level whenever the settings file changes
	Watch bool `json:"watch"`
}

type IndexSettings struct {
	// Precision is the spatial index length in characters
	Precision int `json:"precision" default:"8" validate:"gte=1,lte=12"`
}

type QuerySettings struct {
	MaxCandidates int `json:"max_candidates" default:"1000" validate:"gte=1"`
	MaxResults    int `json:"max_results" default:"50" validate:"gte=1"`
	// Parallelism above 1 decrypts candidates on a worker pool
	Parallelism int `json:"parallelism" validate:"gte=0"`
	// CategoryPrefilter publishes point categories in clear and filters on them
	CategoryPrefilter bool `json:"category_prefilter"`
	// SpatialPrefilter narrows candidates to cells around the query center
	SpatialPrefilter bool `json:"spatial_prefilter"`
	// PublishCategory stores categories in clear without filtering on them
	PublishCategory bool `json:"publish_category"`
}

type StoreSettings struct {
	Driver  string         `json:"driver" default:"leveldb" validate:"oneof=leveldb mongo sql"`
	LevelDB leveldb.Config `json:"leveldb"`
	Mongo   mongo.Config   `json:"mongo"`
	SQL     db.Config      `json:"sql"`
}

type QueryLog struct {
	Sink  string       `json:"sink" default:"none" validate:"oneof=none mongo redis kafka"`
	Redis redis.Config `json:"redis"`
	Kafka kafka.Config `json:"kafka"`
}

type MetricsSetting struct {
	Enabled   bool   `json:"enabled"`
	Namespace string `json:"namespace" default:"eplq"`
	// Addr serves /metrics when set, e.g. ":9090"
	Addr string `json:"addr"`
}

// LoadSettings reads name from paths into a fresh Settings
func LoadSettings(name string, paths ...string) (*Settings, *Config, error) {
	s := &Settings{}
	c := New(s, WithFile(name, paths...))
	if err := c.Load(); err != nil {
		return nil, nil, err
	}
	return s, c, nil
}

// WatchSettings loads name into a Settings owned by the returned Config and
// calls fn with it after every successful reload of the file. fn runs on the
// watcher goroutine under the read lock, so it must not call Load.
func WatchSettings(name string, paths []string, fn func(*Settings), opts ...Option) (*Config, error) {
	s := &Settings{}
	c := New(s, append([]Option{WithFile(name, paths...)}, opts...)...)
	if err := c.Load(); err != nil {
		return nil, err
	}
	c.OnChange(func() {
		c.Read(func(any) { fn(s) })
	})
	if err := c.Watch(); err != nil {
		return nil, err
	}
	return c, nil
}
