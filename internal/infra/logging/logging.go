package logging

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"telegram-lang-bot/internal/config"
)

// New creates a zerolog logger configured from config.
// Supports "trace" | "debug" | "info" | "warn" | "error" levels
// and "json" | "console" formats.
func New(cfg config.LogConfig, dev bool) *zerolog.Logger {
	level, _ := zerolog.ParseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	var base zerolog.Logger
	if strings.ToLower(cfg.Format) == "console" || dev {
		out := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		base = zerolog.New(out).With().Timestamp().Logger()
	} else {
		base = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	return &base
}

// NewUnhandled builds the logger for the unhandled-update stream. With a log
// directory configured the stream also goes to its own rotating file, so it
// can be tailed and filtered apart from the main output.
func NewUnhandled(cfg config.LogConfig, base *zerolog.Logger) *zerolog.Logger {
	if cfg.Dir == "" {
		l := base.With().Str("stream", "unhandled").Logger()
		return &l
	}
	file := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, "unhandled.log"),
		MaxSize:    100, // megabytes
		MaxBackups: 3,
	}
	l := zerolog.New(zerolog.MultiLevelWriter(os.Stdout, file)).
		With().Timestamp().Str("stream", "unhandled").Logger()
	return &l
}

// TraceDuration logs start and end with elapsed duration at TRACE level.
// Usage: defer logging.TraceDuration(logger, "UserUC.SetLocale")()
func TraceDuration(logger *zerolog.Logger, name string) func() {
	start := time.Now()
	logger.Trace().Str("method", name).Msg("start")
	return func() {
		logger.Trace().Str("method", name).Dur("duration", time.Since(start)).Msg("finish")
	}
}
