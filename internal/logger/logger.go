package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/siteauditor/site-auditor/internal/config"
	"github.com/sirupsen/logrus"
)

// New builds a logrus logger from the logging section. Logs go to stderr so
// that formatted reports on stdout stay clean; when a file is configured
// they are teed into it as well.
func New(cfg config.LoggingConfig) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.WithError(err).WithField("file", cfg.File).Error("Could not open log file")
		} else {
			log.SetOutput(io.MultiWriter(os.Stderr, file))
		}
	}

	return log
}

// Discard returns a logger that drops everything, for tests and library use.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
