// ABOUTME: Structured logger construction for the CLI and MCP server
// ABOUTME: Writes to stderr and optionally to a size-rotated log file
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where and how much the logger writes.
type Options struct {
	Level  string // debug, info, warn, error
	File   string // optional rotating log file
	Prefix string
	Quiet  bool // suppress stderr output (MCP stdio mode)
}

// New builds a logger from opts. The returned closer releases the log file.
func New(opts Options) (*log.Logger, io.Closer) {
	var writers []io.Writer
	if !opts.Quiet {
		writers = append(writers, os.Stderr)
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		_ = os.MkdirAll(filepath.Dir(opts.File), 0755)
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		writers = append(writers, rotator)
		closer = rotator
	}

	var out io.Writer = io.Discard
	if len(writers) > 0 {
		out = io.MultiWriter(writers...)
	}

	logger := log.NewWithOptions(out, log.Options{
		Level:           ParseLevel(opts.Level),
		Prefix:          opts.Prefix,
		ReportTimestamp: true,
	})
	return logger, closer
}

// Discard returns a logger that drops everything. Used as the default in
// components constructed without a logger.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// ParseLevel maps a level name to a log level, defaulting to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
