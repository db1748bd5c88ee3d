package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// EnvLevel overrides Config.Level when set.
const EnvLevel = "SLAYERGIT_LOG_LEVEL"

var (
	root      = newRoot()
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex

	sinkMu sync.Mutex
	sink   io.Closer
)

func newRoot() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetFormatter(&TextFormatter{})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// NewLogger returns the logger for a component. Loggers are cached per
// component and share one underlying logrus.Logger, so Configure applies to
// loggers created before it was called.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}
	entry := root.WithField("component", component)
	loggers[component] = entry
	return entry
}

// Configure applies cfg to every component logger. The returned function
// closes the file sink, if any.
func Configure(cfg Config) (func() error, error) {
	levelStr := "info"
	if env := strings.TrimSpace(os.Getenv(EnvLevel)); env != "" {
		levelStr = env
	} else if cfg.Level != "" {
		levelStr = cfg.Level
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q", levelStr)
	}

	var formatter logrus.Formatter
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "text":
		formatter = &TextFormatter{}
	case "json":
		formatter = &logrus.JSONFormatter{}
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	var writers []io.Writer
	var file *os.File
	if path := expandPath(strings.TrimSpace(cfg.File)); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		file, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, file)
	}

	toStderr, err := shouldLogToStderr(cfg.Stderr, level)
	if err != nil {
		if file != nil {
			_ = file.Close()
		}
		return nil, err
	}
	if toStderr {
		writers = append(writers, os.Stderr)
	}

	var out io.Writer
	switch len(writers) {
	case 0:
		out = io.Discard
	case 1:
		out = writers[0]
	default:
		out = io.MultiWriter(writers...)
	}

	root.SetLevel(level)
	root.SetFormatter(formatter)
	root.SetReportCaller(cfg.ReportCaller)
	root.SetOutput(out)

	sinkMu.Lock()
	prev := sink
	sink = nil
	if file != nil {
		sink = file
	}
	sinkMu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}

	return closeSink, nil
}

func closeSink() error {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	if sink == nil {
		return nil
	}
	root.SetOutput(io.Discard)
	err := sink.Close()
	sink = nil
	return err
}

// SetOutput redirects every component logger to w. Tests use it to capture
// output.
func SetOutput(w io.Writer) {
	root.SetOutput(w)
}

// SetLevel changes the minimum level of every component logger.
func SetLevel(level logrus.Level) {
	root.SetLevel(level)
}

func shouldLogToStderr(mode string, level logrus.Level) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case StderrAlways:
		return true, nil
	case StderrNever:
		return false, nil
	case "", StderrAuto:
		if level >= logrus.DebugLevel {
			return true, nil
		}
		fd := os.Stderr.Fd()
		return !(isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)), nil
	}
	return false, fmt.Errorf("invalid stderr mode %q", mode)
}

// DefaultFile is the log path used when none is configured.
func DefaultFile() string {
	if state := os.Getenv("XDG_STATE_HOME"); state != "" {
		return filepath.Join(state, "slayergit", "slayergit.log")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "slayergit", "slayergit.log")
}

func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
