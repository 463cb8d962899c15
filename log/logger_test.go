package log

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/eplq/log/desensitize"
	"github.com/kochabx/eplq/log/writer"
)

func TestNewWriterLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, WithLevel(zerolog.WarnLevel))

	logger.Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn().Msg("kept")
	assert.Contains(t, buf.String(), `"message":"kept"`)
}

func TestDynamicLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, WithDynamicLevel(zerolog.InfoLevel), WithDesensitize(desensitize.NewHook()))
	child := logger.Component("service")

	child.Debug().Msg("dropped")
	assert.Zero(t, buf.Len())
	assert.Equal(t, zerolog.InfoLevel, child.GetLevel())

	logger.SetLevel(zerolog.DebugLevel)
	child.Debug().Msg("kept")
	assert.Contains(t, buf.String(), `"message":"kept"`)
	assert.Equal(t, zerolog.DebugLevel, child.GetLevel())

	buf.Reset()
	logger.SetLevel(zerolog.Disabled)
	child.Error().Msg("dropped")
	assert.Zero(t, buf.Len())
}

func TestSetLevelStatic(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, WithLevel(zerolog.WarnLevel))
	logger.SetLevel(zerolog.InfoLevel)
	logger.Info().Msg("kept")
	assert.Contains(t, buf.String(), `"message":"kept"`)
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf).Component("evaluator")
	logger.Info().Msg("x")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "evaluator", entry["component"])
}

func TestNewFileSizeRotation(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewFile(FileConfig{
		Filepath:   dir,
		Filename:   "test",
		RotateMode: writer.RotateModeSize,
	})
	require.NoError(t, err)

	logger.Info().Msg("to file")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(filepath.Join(dir, "test.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestFromConfigDefaults(t *testing.T) {
	logger, err := FromConfig(Config{Level: "debug"})
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
	require.NotNil(t, logger.GetDesensitizeHook())
	assert.Greater(t, logger.GetDesensitizeHook().RuleCount(), 0)
}

func TestConfigLevelFallback(t *testing.T) {
	c := Config{Level: "nonsense"}
	assert.Equal(t, zerolog.InfoLevel, c.ZerologLevel())
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Info().Msg("nothing")
	})
}
