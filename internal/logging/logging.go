// Package logging wires up the process-wide slog logger: a JSON handler
// over a rotating log file, with the capsule.log level vocabulary
// (none, quiet, verbose, debug) mapped onto slog levels.
package logging

import (
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level is the capsule.log vocabulary from §6: none, quiet (default),
// verbose, debug.
type Level string

const (
	LevelNone    Level = "none"
	LevelQuiet   Level = "quiet"
	LevelVerbose Level = "verbose"
	LevelDebug   Level = "debug"
)

// slogLevel maps the capsule.log vocabulary onto slog's levels. "none"
// suppresses everything by setting a threshold above slog's highest
// built-in level.
func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelVerbose:
		return slog.LevelInfo
	case LevelNone:
		return slog.Level(1 << 20)
	default: // quiet
		return slog.LevelWarn
	}
}

// Config controls where and how the logger writes.
type Config struct {
	Level Level

	// LogFile is the destination path. Empty uses a process-temp file,
	// matching the teacher CLI's "leave empty for a random tmp/ path"
	// default. Rotation (size/age/backups) always applies once a
	// destination is chosen.
	LogFile string

	MaxSizeMB  int // default 20
	MaxBackups int // default 5
	MaxAgeDays int // default 28
}

// Init creates the process-wide slog logger and installs it via
// slog.SetDefault, returning the log file path actually used.
func Init(cfg Config) (string, error) {
	logFile := cfg.LogFile
	if logFile == "" {
		f, err := os.CreateTemp("", "capsule-log-*")
		if err != nil {
			return "", err
		}
		logFile = f.Name()
		f.Close()
	} else if dir := filepath.Dir(logFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}

	maxSize := cfg.MaxSizeMB
	if maxSize == 0 {
		maxSize = 20
	}
	maxBackups := cfg.MaxBackups
	if maxBackups == 0 {
		maxBackups = 5
	}
	maxAge := cfg.MaxAgeDays
	if maxAge == 0 {
		maxAge = 28
	}

	writer := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
	}

	logger := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: cfg.Level.slogLevel(),
	}))
	slog.SetDefault(logger)
	slog.Info("logging initialized", "level", string(cfg.Level), "file", logFile)
	return logFile, nil
}
