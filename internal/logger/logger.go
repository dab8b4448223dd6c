package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide logger. Use GetLogger or WithComponent.
var Logger *logrus.Logger

// Config selects level (debug, info, warn, error) and format (text, json).
type Config struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Init builds the process-wide logger from cfg, writing to stdout.
func Init(cfg Config) {
	InitWithOutput(cfg, os.Stdout)
}

// InitWithOutput is Init with an explicit sink.
func InitWithOutput(cfg Config, out io.Writer) {
	l := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if cfg.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05.000",
		})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: "2006-01-02 15:04:05.000",
			FullTimestamp:   true,
		})
	}
	l.SetOutput(out)
	Logger = l
}

// GetLogger returns the process-wide logger, initializing it from
// LOG_LEVEL and LOG_FORMAT on first use.
func GetLogger() *logrus.Logger {
	if Logger == nil {
		Init(Config{Level: os.Getenv("LOG_LEVEL"), Format: os.Getenv("LOG_FORMAT")})
	}
	return Logger
}

// WithComponent returns an entry tagged with the component name.
func WithComponent(component string) *logrus.Entry {
	return GetLogger().WithField("component", component)
}
