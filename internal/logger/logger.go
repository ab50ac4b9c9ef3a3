package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

var logFile *os.File

// Init installs the default slog logger. Logs go to a file unless
// FIREWALLCTL_LOG_STDERR=1, in which case a colored handler writes to stderr
// when it is a terminal.
func Init(levelOverride string) error {
	level := slog.LevelInfo
	if os.Getenv("FIREWALLCTL_DEBUG") == "1" {
		level = slog.LevelDebug
	}
	if levelOverride != "" {
		parsed, err := ParseLevel(levelOverride)
		if err != nil {
			return err
		}
		level = parsed
	}

	if os.Getenv("FIREWALLCTL_LOG_STDERR") != "1" {
		if path := resolveLogPath(); path != "" {
			if file, err := openLogFile(path); err == nil {
				logFile = file
				slog.SetDefault(slog.New(newHandler(file, level, false)))
				return nil
			}
		}
	}

	tty := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	slog.SetDefault(slog.New(newHandler(os.Stderr, level, tty)))
	return nil
}

func newHandler(w io.Writer, level slog.Level, tty bool) slog.Handler {
	if tty {
		return tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05.000",
		})
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})
}

// Close flushes and closes the log file, if one was opened.
func Close() error {
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

func ParseLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	case "":
		return slog.LevelInfo, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %q (use debug|info|warn|error)", value)
	}
}

func resolveLogPath() string {
	if path := os.Getenv("FIREWALLCTL_LOG_FILE"); path != "" {
		return path
	}
	if xdg.StateHome == "" {
		return ""
	}
	return filepath.Join(xdg.StateHome, "firewallctl", "firewallctl.log")
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}
