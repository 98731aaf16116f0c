package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Bootstrap installs a console logger used until the config is loaded.
func Bootstrap() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// Setup reconfigures the global zerolog logger. The returned Closer flushes
// the rotating log file, if any.
func Setup(cfg config.LogConfig) (io.Closer, error) {
	w, closer, err := writer(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return closer, nil
}

func writer(cfg config.LogConfig, stderr io.Writer) (io.Writer, io.Closer, error) {
	var out io.Writer = stderr
	switch strings.ToLower(cfg.Format) {
	case "", "console":
		out = zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.TimeOnly}
	case "json":
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	if cfg.File == "" {
		return out, nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	// the file always gets JSON lines, the terminal keeps its format
	return zerolog.MultiLevelWriter(out, file), file, nil
}

func ParseLevel(raw string) (zerolog.Level, error) {
	if raw == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log level %q: %w", raw, err)
	}
	return level, nil
}
