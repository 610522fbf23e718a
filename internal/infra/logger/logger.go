// internal/infra/logger/logger.go
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"homework_status_bot/internal/infra/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the global logger instance
var Log = logrus.New()

// Init initializes the global logger based on application configuration.
// It returns the rotating file sink (nil if file logging is unavailable) so
// the caller can close it on shutdown.
func Init(cfg *config.AppConfig) io.Closer {
	return configure(Log, cfg, os.Stdout)
}

func configure(l *logrus.Logger, cfg *config.AppConfig, stdout io.Writer) io.Closer {
	var sink *lumberjack.Logger
	out := stdout

	// The file sink is optional: a log directory we cannot create must not stop the bot.
	var fileErr error
	if cfg.LogFile != "" {
		fileErr = os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755)
		if fileErr == nil {
			sink = &lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    cfg.LogMaxSizeMB,
				MaxBackups: cfg.LogMaxBackups,
			}
			out = io.MultiWriter(stdout, sink)
		}
	}
	l.SetOutput(out)

	// Set Log Level
	level, err := logrus.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		l.Warnf("Invalid log level '%s', defaulting to 'info'. Error: %v", cfg.LogLevel, err)
		l.SetLevel(logrus.InfoLevel)
	} else {
		l.SetLevel(level)
	}

	// Set Log Formatter
	if cfg.Environment == "production" || cfg.Environment == "staging" {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00", // ISO8601
		})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	if fileErr != nil {
		l.WithError(fileErr).WithField("log_file", cfg.LogFile).Warn("Log file unavailable, logging to stdout only")
	}
	l.Debugf("Log level set to: %s", l.GetLevel().String())

	if sink == nil {
		return nil
	}
	return sink
}

// Component returns an entry tagged with the component name.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
