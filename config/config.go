package config

import (
	"reflect"
	"sync"

	"github.com/spf13/viper"

	"github.com/kochabx/eplq/core/validator"
	"github.com/kochabx/eplq/log"
)

// Config loads a target struct and optionally keeps it in sync with its source
type Config struct {
	mu       sync.RWMutex
	viper    *viper.Viper
	validate validator.Validator
	target   any
	loader   Loader
	logger   *log.Logger
	onChange []func()
}

// New creates a Config for target.
// Without WithLoader, "config.yaml" is looked up in the working directory.
func New(target any, opts ...Option) *Config {
	c := &Config{
		viper:    viper.New(),
		validate: validator.Validate,
		target:   target,
		logger:   log.G,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.loader == nil {
		c.loader = NewFileLoader("config.yaml", []string{"."}, c.viper, c.validate)
	}

	return c
}

// Load reads the configuration into the target. A pointer target is filled
// from scratch and replaced only on success, so keys removed from the source
// fall back to their defaults and a failed reload leaves it untouched.
func (c *Config) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := reflect.ValueOf(c.target)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return c.loader.Load(c.target)
	}
	fresh := reflect.New(v.Elem().Type())
	if err := c.loader.Load(fresh.Interface()); err != nil {
		return err
	}
	v.Elem().Set(fresh.Elem())
	return nil
}

// Reload re-reads the configuration into the same target
func (c *Config) Reload() error {
	return c.Load()
}

// Read runs fn while holding the read lock, so fn never observes a half
// applied reload.
func (c *Config) Read(fn func(target any)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn(c.target)
}

// Watch reloads the target whenever the source changes
func (c *Config) Watch() error {
	return c.loader.Watch(func() {
		c.logger.Info().Msg("config change detected")

		if err := c.Reload(); err != nil {
			c.logger.Error().Err(err).Msg("failed to reload config after change")
			return
		}

		c.mu.RLock()
		callbacks := append([]func(){}, c.onChange...)
		c.mu.RUnlock()
		for _, fn := range callbacks {
			fn()
		}
		c.logger.Info().Msg("config reloaded successfully")
	})
}

// OnChange registers fn to run after every successful reload
func (c *Config) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = append(c.onChange, fn)
}

// GetViper returns the underlying viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.viper
}
