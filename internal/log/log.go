package log

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Himanshujchavan/GROQPILOT/internal/config"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger *logrus.Logger

func init() {
	logger = logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logger.SetLevel(level)
	}
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

// GetLogger returns the shared logger instance
func GetLogger() *logrus.Logger {
	return logger
}

// Configure applies level, format and output to the shared logger. File
// output is rotated by lumberjack.
func Configure(cfg config.LogConfig) error {
	return apply(logger, cfg, os.Stdout)
}

func apply(l *logrus.Logger, cfg config.LogConfig, stdout io.Writer) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		l.Warnf("Invalid log level '%s', using 'info'", cfg.Level)
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	}

	switch strings.ToLower(cfg.Output) {
	case "file":
		w, err := rotating(cfg)
		if err != nil {
			return err
		}
		l.SetOutput(w)
	case "both":
		w, err := rotating(cfg)
		if err != nil {
			return err
		}
		l.SetOutput(io.MultiWriter(stdout, w))
	default:
		l.SetOutput(stdout)
	}
	return nil
}

func rotating(cfg config.LogConfig) (*lumberjack.Logger, error) {
	if dir := filepath.Dir(cfg.FilePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}, nil
}
