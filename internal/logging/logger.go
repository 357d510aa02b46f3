package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	defaultMaxLogSize    = 10 << 20
	defaultMaxLogBackups = 5
)

// New builds the application logger. Records go to stdout and, when path is
// set, to a rotating log file. The returned closer releases the file.
func New(level, path string) (*slog.Logger, io.Closer, error) {
	out := io.Writer(os.Stdout)
	closer := io.Closer(nopCloser{})

	if path != "" {
		fw, err := NewRotatingFileWriter(path, defaultMaxLogSize, defaultMaxLogBackups)
		if err != nil {
			return nil, nil, err
		}
		out = io.MultiWriter(os.Stdout, fw)
		closer = fw
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: ParseLevel(level)})
	return slog.New(handler), closer, nil
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops everything; used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
