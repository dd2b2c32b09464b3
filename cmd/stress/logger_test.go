package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLoggerRejectsInvalidLevel(t *testing.T) {
	t.Parallel()

	_, err := newLogger(logConfig{Level: "not-a-level"})
	require.ErrorIs(t, err, errInvalidLogLevel)
}

func TestNewLoggerAppliesLevel(t *testing.T) {
	t.Parallel()

	logger, err := newLogger(logConfig{Level: "debug"})
	require.NoError(t, err)

	defer func() {
		_ = logger.Sync()
	}()

	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestNewLoggerDefaultsToInfo(t *testing.T) {
	t.Parallel()

	logger, err := newLogger(logConfig{})
	require.NoError(t, err)

	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
}

func TestNewLoggerWritesRotatingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stress.log")

	logger, err := newLogger(logConfig{Level: "info", File: path, MaxSizeMB: 1, MaxBackups: 1})
	require.NoError(t, err)

	logger.Info("hello", zap.Int("workers", 2))
	require.NoError(t, logger.Sync())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"message":"hello"`)
	assert.Contains(t, string(content), `"workers":2`)
}
