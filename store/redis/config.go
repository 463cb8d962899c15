package redis

import (
	"time"

	"github.com/creasty/defaults"

	"github.com/kochabx/eplq/errors"
)

// Config for a single, cluster or sentinel deployment.
//
//	single:   addrs: ["localhost:6379"]
//	cluster:  addrs: ["node1:6379", "node2:6379"]
//	sentinel: addrs: ["sentinel1:26379"], master_name: mymaster
type Config struct {
	Addrs      []string `json:"addrs" default:"[\"localhost:6379\"]"`
	MasterName string   `json:"master_name"`
	Username   string   `json:"username"`
	Password   string   `json:"password"`
	// DB is ignored in cluster mode
	DB       int `json:"db"`
	Protocol int `json:"protocol" default:"3"`

	DialTimeout  time.Duration `json:"dial_timeout" default:"5s"`
	ReadTimeout  time.Duration `json:"read_timeout" default:"3s"`
	WriteTimeout time.Duration `json:"write_timeout" default:"3s"`

	// PoolSize zero means 10 per GOMAXPROCS
	PoolSize     int           `json:"pool_size"`
	MinIdleConns int           `json:"min_idle_conns"`
	MaxIdleTime  time.Duration `json:"max_idle_time" default:"5m"`
	PoolTimeout  time.Duration `json:"pool_timeout" default:"4s"`
	MaxRetries   int           `json:"max_retries"`

	// Key of the capped query log list
	QueryLogKey string `json:"query_log_key" default:"eplq:query_log"`
	// QueryLogMax entries are kept, oldest dropped first
	QueryLogMax int64 `json:"query_log_max" default:"10000"`
	// QueryLogTTL expires the whole list when idle; zero keeps it
	QueryLogTTL time.Duration `json:"query_log_ttl"`
}

// Init applies defaults and checks the result
func (c *Config) Init() error {
	if err := defaults.Set(c); err != nil {
		return errors.Wrap(err, errors.KindInternal, "redis.Config.Init", "apply defaults")
	}
	return c.Validate()
}

func (c *Config) Validate() error {
	const op = "redis.Config.Validate"
	if len(c.Addrs) == 0 {
		return errors.InvalidArgument(op, "no addresses")
	}
	if c.DialTimeout < 0 || c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return errors.InvalidArgument(op, "negative timeout")
	}
	if c.QueryLogMax <= 0 {
		return errors.InvalidArgument(op, "query_log_max must be positive")
	}
	return nil
}

func (c *Config) IsSentinel() bool {
	return c.MasterName != ""
}

func (c *Config) IsCluster() bool {
	return len(c.Addrs) > 1 && c.MasterName == ""
}

func (c *Config) mode() string {
	switch {
	case c.IsSentinel():
		return "sentinel"
	case c.IsCluster():
		return "cluster"
	default:
		return "single"
	}
}
