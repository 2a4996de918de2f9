// Package logging builds the process logger from config.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"youdo/internal/config"
)

const (
	// MaxSizeMB is the size at which the log file is rotated.
	MaxSizeMB = 10

	// MaxBackups is the number of rotated files kept.
	MaxBackups = 3
)

// New returns a logger for cfg and a closer for any file it opened.
// --debug sends debug logs to errOut; YOUDO_LOG_FILE adds a rotating JSON
// file. With neither, logs are discarded.
func New(cfg *config.Config, errOut io.Writer) (*slog.Logger, io.Closer, error) {
	var writers []io.Writer
	var closer io.Closer = nopCloser{}
	format := "text"

	if cfg.Debug {
		writers = append(writers, errOut)
	}

	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0700); err != nil {
			return nil, nil, err
		}
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    MaxSizeMB,
			MaxBackups: MaxBackups,
		}
		writers = append(writers, fileWriter)
		closer = fileWriter
		format = "json"
	}

	if len(writers) == 0 {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), closer, nil
	}

	var writer io.Writer
	if len(writers) == 1 {
		writer = writers[0]
	} else {
		writer = io.MultiWriter(writers...)
	}

	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}
	return slog.New(handler), closer, nil
}

// Discard returns a logger that drops everything. Used as the default for
// components constructed without one.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
