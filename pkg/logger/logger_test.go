package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_FileOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "metricdeck.log")
	require.NoError(t, Init(Config{Level: "debug", OutputFile: path}))
	t.Cleanup(func() { _ = Close() })

	assert.Equal(t, path, GetCurrentLogFile())
	assert.Equal(t, logrus.DebugLevel, Logger.GetLevel())

	logrus.WithField("module", "test").Info("hello from package logger")
	Infof("count=%d", 3)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from package logger")
	assert.Contains(t, string(data), "count=3")
}

func TestInit_BadLevelFallsBackToInfo(t *testing.T) {
	require.NoError(t, Init(Config{Level: "chatty"}))
	assert.Equal(t, logrus.InfoLevel, Logger.GetLevel())
	assert.Equal(t, "", GetCurrentLogFile())
	assert.NoError(t, Close())
}
