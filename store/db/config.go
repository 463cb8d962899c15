package db

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gorm.io/gorm/logger"

	"github.com/kochabx/eplq/errors"
)

// Driver names a gorm dialect
type Driver string

const (
	DriverMySQL    Driver = "mysql"
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

func (d Driver) String() string {
	return string(d)
}

// PoolConfig tunes database/sql pooling
type PoolConfig struct {
	MaxIdleConns    int           `json:"max_idle_conns" default:"10"`
	MaxOpenConns    int           `json:"max_open_conns" default:"100"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" default:"1h"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time" default:"10m"`
}

// Config selects one of the dialect blocks by Driver.
type Config struct {
	Driver Driver `json:"driver" default:"sqlite" validate:"oneof=sqlite mysql postgres"`
	// Table holding the sealed points
	Table string `json:"table" default:"encrypted_points"`
	// Level is the gorm log level: silent, error, warn or info
	Level string `json:"level" default:"silent"`

	Pool     PoolConfig     `json:"pool"`
	SQLite   SQLiteConfig   `json:"sqlite"`
	MySQL    MySQLConfig    `json:"mysql"`
	Postgres PostgresConfig `json:"postgres"`
}

// Init applies defaults. SQLite pools collapse to one connection.
func (c *Config) Init() error {
	if err := defaults.Set(c); err != nil {
		return errors.Wrap(err, errors.KindInternal, "db.Config.Init", "apply defaults")
	}
	if c.Driver == DriverSQLite {
		c.Pool.MaxIdleConns = 1
		c.Pool.MaxOpenConns = 1
	}
	return nil
}

// DSN for the selected driver
func (c *Config) DSN() (string, error) {
	switch c.Driver {
	case DriverSQLite:
		return c.SQLite.dsn(), nil
	case DriverMySQL:
		return c.MySQL.dsn(), nil
	case DriverPostgres:
		return c.Postgres.dsn(), nil
	default:
		return "", errors.InvalidArgument("db.Config.DSN", "unsupported driver %q", c.Driver)
	}
}

// LogLevel maps Level onto gorm's levels, silent when unknown.
func (c *Config) LogLevel() logger.LogLevel {
	switch strings.ToLower(c.Level) {
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return logger.Silent
	}
}

type SQLiteConfig struct {
	FilePath    string `json:"file_path" default:"data/eplq.db"`
	JournalMode string `json:"journal_mode" default:"WAL"`
	BusyTimeout int    `json:"busy_timeout" default:"5000"`
	SyncMode    string `json:"sync_mode" default:"NORMAL"`
}

func (c *SQLiteConfig) dsn() string {
	var b strings.Builder
	b.Grow(96)
	b.WriteString("file:")
	b.WriteString(c.FilePath)
	b.WriteString("?_journal_mode=")
	b.WriteString(c.JournalMode)
	b.WriteString("&_busy_timeout=")
	b.WriteString(strconv.Itoa(c.BusyTimeout))
	b.WriteString("&_synchronous=")
	b.WriteString(c.SyncMode)
	return b.String()
}

type MySQLConfig struct {
	Host      string        `json:"host" default:"localhost"`
	Port      int           `json:"port" default:"3306"`
	User      string        `json:"user" default:"root"`
	Password  string        `json:"password"`
	Database  string        `json:"database" default:"eplq"`
	Charset   string        `json:"charset" default:"utf8mb4"`
	Collation string        `json:"collation" default:"utf8mb4_unicode_ci"`
	Loc       string        `json:"loc" default:"UTC"`
	Timeout   time.Duration `json:"timeout" default:"10s"`
}

func (c *MySQLConfig) dsn() string {
	var b strings.Builder
	b.Grow(128)
	b.WriteString(c.User)
	b.WriteByte(':')
	b.WriteString(c.Password)
	b.WriteString("@tcp(")
	b.WriteString(c.Host)
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(c.Port))
	b.WriteString(")/")
	b.WriteString(c.Database)
	b.WriteString("?charset=")
	b.WriteString(c.Charset)
	b.WriteString("&collation=")
	b.WriteString(c.Collation)
	b.WriteString("&parseTime=true&loc=")
	b.WriteString(url.QueryEscape(c.Loc))
	b.WriteString("&timeout=")
	b.WriteString(c.Timeout.String())
	return b.String()
}

type PostgresConfig struct {
	Host           string `json:"host" default:"localhost"`
	Port           int    `json:"port" default:"5432"`
	User           string `json:"user" default:"postgres"`
	Password       string `json:"password"`
	Database       string `json:"database" default:"eplq"`
	SSLMode        string `json:"sslmode" default:"disable"`
	TimeZone       string `json:"timezone" default:"UTC"`
	ConnectTimeout int    `json:"connect_timeout" default:"10"`
}

func (c *PostgresConfig) dsn() string {
	var b strings.Builder
	b.Grow(128)
	b.WriteString("host=")
	b.WriteString(c.Host)
	b.WriteString(" port=")
	b.WriteString(strconv.Itoa(c.Port))
	b.WriteString(" user=")
	b.WriteString(c.User)
	b.WriteString(" password=")
	b.WriteString(c.Password)
	b.WriteString(" dbname=")
	b.WriteString(c.Database)
	b.WriteString(" sslmode=")
	b.WriteString(c.SSLMode)
	b.WriteString(" TimeZone=")
	b.WriteString(c.TimeZone)
	b.WriteString(" connect_timeout=")
	b.WriteString(strconv.Itoa(c.ConnectTimeout))
	return b.String()
}
