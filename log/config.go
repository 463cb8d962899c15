package log

import (
	"github.com/rs/zerolog"

	"github.com/kochabx/eplq/log/writer"
)

// Config selects the level and outputs of a Logger.
type Config struct {
	Level  string      `json:"level" default:"info" validate:"oneof=trace debug info warn error disabled"`
	Caller bool        `json:"caller"`
	File   *FileConfig `json:"file"`
	// CoordinatePrecision is the number of decimals kept for coordinate fields
	// in log output; negative values mask them completely.
	CoordinatePrecision int `json:"coordinate_precision" default:"1"`
}

// FileConfig log file settings
type FileConfig struct {
	Filepath         string            `json:"filepath" default:"log"`
	Filename         string            `json:"filename" default:"eplq"`
	FileExt          string            `json:"file_ext" default:"log"`
	RotateMode       writer.RotateMode `json:"rotate_mode"`
	RotatelogsConfig RotatelogsConfig  `json:"rotatelogs_config"`
	LumberjackConfig LumberjackConfig  `json:"lumberjack_config"`
	// Console also mirrors file output to stdout.
	Console bool `json:"console"`
}

// RotatelogsConfig time based rotation, in hours
type RotatelogsConfig struct {
	MaxAge       int `json:"max_age" default:"24"`
	RotationTime int `json:"rotation_time" default:"1"`
}

// LumberjackConfig size based rotation
type LumberjackConfig struct {
	MaxSize    int  `json:"max_size" default:"100"`
	MaxBackups int  `json:"max_backups" default:"5"`
	MaxAge     int  `json:"max_age" default:"30"`
	Compress   bool `json:"compress" default:"false"`
}

func (c *FileConfig) toWriterConfig() writer.RotateConfig {
	return writer.RotateConfig{
		Filepath: c.Filepath,
		Filename: c.Filename,
		FileExt:  c.FileExt,
		Mode:     c.RotateMode,
		TimeRotateConfig: writer.TimeRotateConfig{
			MaxAge:       c.RotatelogsConfig.MaxAge,
			RotationTime: c.RotatelogsConfig.RotationTime,
		},
		SizeRotateConfig: writer.SizeRotateConfig{
			MaxSize:    c.LumberjackConfig.MaxSize,
			MaxBackups: c.LumberjackConfig.MaxBackups,
			MaxAge:     c.LumberjackConfig.MaxAge,
			Compress:   c.LumberjackConfig.Compress,
		},
	}
}

// ZerologLevel parses Level, falling back to info.
func (c *Config) ZerologLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.Level)
	if err != nil || c.Level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
