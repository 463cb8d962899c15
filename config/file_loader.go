package config

import (
	"path/filepath"
	"strings"

	"github.com/creasty/defaults"
	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/kochabx/eplq/core/validator"
	"github.com/kochabx/eplq/errors"
)

// FileLoader loads configuration from a file, with environment overrides
type FileLoader struct {
	viper    *viper.Viper
	validate validator.Validator
	name     string
	paths    []string
}

// NewFileLoader creates a loader for name; the config type follows the
// file extension. Environment variables override keys, with "." mapped to "_".
func NewFileLoader(name string, paths []string, v *viper.Viper, validate validator.Validator) *FileLoader {
	configType := strings.TrimPrefix(filepath.Ext(name), ".")

	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetConfigName(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
	v.SetConfigType(configType)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &FileLoader{
		viper:    v,
		paths:    paths,
		name:     name,
		validate: validate,
	}
}

func jsonTag(dc *mapstructure.DecoderConfig) {
	dc.TagName = "json"
}

// Load implements Loader
func (l *FileLoader) Load(target any) error {
	const op = "config.Load"

	// defaults first so keys missing from the file keep them
	if err := defaults.Set(target); err != nil {
		return errors.Wrap(err, errors.KindInternal, op, "failed to apply defaults")
	}

	if err := l.viper.ReadInConfig(); err != nil {
		return errors.Wrap(err, errors.KindInvalidArgument, op, "config file %s not readable", l.name)
	}

	if err := l.viper.Unmarshal(target, jsonTag); err != nil {
		return errors.Wrap(err, errors.KindInvalidArgument, op, "config parse error")
	}

	if l.validate != nil {
		if err := l.validate.Struct(target); err != nil {
			return errors.Wrap(err, errors.KindInvalidArgument, op, "config validation failed")
		}
	}

	return nil
}

// Watch implements Loader
func (l *FileLoader) Watch(callback func()) error {
	l.viper.OnConfigChange(func(fsnotify.Event) {
		if callback != nil {
			callback()
		}
	})

	l.viper.WatchConfig()
	return nil
}
