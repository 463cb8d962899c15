package mongo

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
)

// Config mongodb connection and collection settings
type Config struct {
	// URI overrides Host, Port, User and Password when set
	URI         string        `json:"uri"`
	Host        string        `json:"host" default:"localhost"`
	Port        int           `json:"port" default:"27017"`
	User        string        `json:"user"`
	Password    string        `json:"password"`
	Database    string        `json:"database" default:"eplq"`
	MaxPoolSize int           `json:"max_pool_size" default:"10"`
	Timeout     time.Duration `json:"timeout" default:"3s"`

	PointsCollection   string `json:"points_collection" default:"points"`
	QueryLogCollection string `json:"query_log_collection" default:"query_logs"`
	// QueryLogTTL expires log entries; zero keeps them forever
	QueryLogTTL time.Duration `json:"query_log_ttl"`
}

// Init applies defaults
func (c *Config) Init() error {
	return defaults.Set(c)
}

func (c *Config) uri() string {
	if c.URI != "" {
		return c.URI
	}

	var builder strings.Builder
	builder.Grow(128)

	builder.WriteString("mongodb://")
	if c.User != "" && c.Password != "" {
		builder.WriteString(url.QueryEscape(c.User))
		builder.WriteByte(':')
		builder.WriteString(url.QueryEscape(c.Password))
		builder.WriteByte('@')
	}

	builder.WriteString(c.Host)
	builder.WriteByte(':')
	builder.WriteString(strconv.Itoa(c.Port))
	builder.WriteString("/?maxPoolSize=")
	builder.WriteString(strconv.Itoa(c.MaxPoolSize))

	return builder.String()
}
