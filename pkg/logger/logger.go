package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type Config struct {
	Level string
}

type Logger struct {
	logger *slog.Logger
}

func NewLogger(cfg *Config) *Logger {
	return newLogger(os.Stdout, cfg)
}

func newLogger(w io.Writer, cfg *Config) *Logger {
	opts := &slog.HandlerOptions{
		Level: getLoggerLevel(cfg.Level),
	}
	return &Logger{
		logger: slog.New(slog.NewJSONHandler(w, opts)),
	}
}

func (l *Logger) Error(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}
func (l *Logger) Warn(format string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, v...))
}
func (l *Logger) Info(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}
func (l *Logger) Debug(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}

func getLoggerLevel(logLevel string) slog.Level {
	switch strings.ToLower(logLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
