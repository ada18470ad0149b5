package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/siteauditor/site-auditor/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_LevelAndFormat(t *testing.T) {
	log := New(config.LoggingConfig{Level: "debug", Format: "json"})
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log = New(config.LoggingConfig{Level: "nonsense", Format: "text"})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestNew_FileTee(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	log := New(config.LoggingConfig{Level: "info", Format: "json", File: path})

	log.WithField("url", "https://example.com").Info("audit started")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "audit started")
	assert.Contains(t, string(data), "https://example.com")
}
