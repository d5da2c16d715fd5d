package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

// InitLogger builds the CLI logger. Diagnostics go to stderr so stdout stays
// free for command output. An empty level falls back to LOG_LEVEL, then to
// debug in development and info elsewhere.
func InitLogger(logLevel string, isDevelopment bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(resolveLevel(logLevel, isDevelopment))

	if isDevelopment && !strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.DateTime})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	}

	Logger = log
	return log
}

func resolveLevel(name string, isDevelopment bool) logrus.Level {
	if name == "" {
		name = os.Getenv("LOG_LEVEL")
	}
	if name == "" && isDevelopment {
		return logrus.DebugLevel
	}
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// GetLogger returns the global logger instance
func GetLogger() *logrus.Logger {
	if Logger == nil {
		return InitLogger("info", false)
	}
	return Logger
}

// SetOutput redirects the global logger, mostly useful to silence tests.
func SetOutput(w io.Writer) {
	GetLogger().SetOutput(w)
}

// WithComponent creates a logger scoped to one pipeline component
func WithComponent(component string) *logrus.Entry {
	return GetLogger().WithField("component", component)
}

// WithRunID creates a logger for a single training run. The generated run id
// is returned so callers can surface it alongside their diagnostics.
func WithRunID(component string) (*logrus.Entry, string) {
	runID := uuid.NewString()
	return GetLogger().WithFields(logrus.Fields{
		"component": component,
		"run_id":    runID,
	}), runID
}

// WithPlayer creates a logger with player lookup context
func WithPlayer(component, query string) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"component": component,
		"player":    query,
	})
}

// WithDataset creates a logger with dataset context
func WithDataset(path string, rows int) *logrus.Entry {
	fields := logrus.Fields{"rows": rows}
	if path != "" {
		fields["path"] = path
	}
	return GetLogger().WithFields(fields)
}
