package config

import (
	"github.com/spf13/viper"

	"github.com/kochabx/eplq/core/validator"
	"github.com/kochabx/eplq/log"
)

// Option configures a Config
type Option func(*Config)

// WithViper sets a custom viper instance
func WithViper(v *viper.Viper) Option {
	return func(c *Config) {
		c.viper = v
	}
}

// WithValidator sets the validator used after unmarshal
func WithValidator(v validator.Validator) Option {
	return func(c *Config) {
		c.validate = v
	}
}

// WithLoader sets the configuration loader
func WithLoader(loader Loader) Option {
	return func(c *Config) {
		c.loader = loader
	}
}

// WithFile loads name from the given search paths
func WithFile(name string, paths ...string) Option {
	return func(c *Config) {
		if len(paths) == 0 {
			paths = []string{"."}
		}
		c.loader = NewFileLoader(name, paths, c.viper, c.validate)
	}
}

// WithLogger sets the logger used for reload messages
func WithLogger(logger *log.Logger) Option {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithOnChange registers fn to run after every successful reload
func WithOnChange(fn func()) Option {
	return func(c *Config) {
		c.onChange = append(c.onChange, fn)
	}
}
