package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	apperrors "github.com/five82/slayergit/internal/errors"
	"github.com/five82/slayergit/internal/logging"
)

// Config holds everything slayergit reads from config.toml.
type Config struct {
	RepoPath           string
	GitBinary          string
	FetchTimeout       time.Duration
	MaxParallelFetches int
	CommitLimit        int
	ReflogLimit        int
	PollInterval       time.Duration
	Watch              bool
	WatchDebounce      time.Duration
	Log                logging.Config
}

const (
	defaultConfigPath    = "~/.config/slayergit/config.toml"
	defaultRepoPath      = "."
	defaultGitBinary     = "git"
	defaultFetchTimeout  = 10 * time.Second
	defaultMaxParallel   = 7
	defaultCommitLimit   = 200
	defaultReflogLimit   = 100
	defaultWatchDebounce = 250 * time.Millisecond
	defaultLogLevel      = "info"
	defaultLogFormat     = "text"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		RepoPath:           mustExpand(defaultRepoPath),
		GitBinary:          defaultGitBinary,
		FetchTimeout:       defaultFetchTimeout,
		MaxParallelFetches: defaultMaxParallel,
		CommitLimit:        defaultCommitLimit,
		ReflogLimit:        defaultReflogLimit,
		Watch:              true,
		WatchDebounce:      defaultWatchDebounce,
		Log: logging.Config{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
			File:   logging.DefaultFile(),
			Stderr: logging.StderrAuto,
		},
	}
}

type rawConfig struct {
	RepoPath           string `toml:"repo_path"`
	GitBinary          string `toml:"git_binary"`
	FetchTimeout       string `toml:"fetch_timeout"`
	MaxParallelFetches int    `toml:"max_parallel_fetches"`
	CommitLimit        int    `toml:"commit_limit"`
	ReflogLimit        int    `toml:"reflog_limit"`
	PollInterval       string `toml:"poll_interval"`
	Watch              *bool  `toml:"watch"`
	WatchDebounce      string `toml:"watch_debounce"`
	LogLevel           string `toml:"log_level"`
	LogFile            string `toml:"log_file"`
	LogFormat          string `toml:"log_format"`
	LogToStderr        string `toml:"log_to_stderr"`
}

// Load reads the config at path (the default location when empty). A missing
// file yields Default(); empty values fall back to their defaults.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.RepoPath); v != "" {
		cfg.RepoPath = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.GitBinary); v != "" {
		cfg.GitBinary = v
	}
	if cfg.FetchTimeout, err = parseDuration("fetch_timeout", raw.FetchTimeout, cfg.FetchTimeout); err != nil {
		return Config{}, err
	}
	if cfg.PollInterval, err = parseDuration("poll_interval", raw.PollInterval, cfg.PollInterval); err != nil {
		return Config{}, err
	}
	if cfg.WatchDebounce, err = parseDuration("watch_debounce", raw.WatchDebounce, cfg.WatchDebounce); err != nil {
		return Config{}, err
	}
	if raw.MaxParallelFetches != 0 {
		cfg.MaxParallelFetches = raw.MaxParallelFetches
	}
	if raw.CommitLimit != 0 {
		cfg.CommitLimit = raw.CommitLimit
	}
	if raw.ReflogLimit != 0 {
		cfg.ReflogLimit = raw.ReflogLimit
	}
	if raw.Watch != nil {
		cfg.Watch = *raw.Watch
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.LogFormat); v != "" {
		cfg.Log.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.Log.File = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogToStderr); v != "" {
		cfg.Log.Stderr = strings.ToLower(v)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first out-of-range value.
func (c Config) Validate() error {
	switch {
	case c.MaxParallelFetches < 1 || c.MaxParallelFetches > defaultMaxParallel:
		return apperrors.ConfigInvalid(fmt.Sprintf("max_parallel_fetches must be between 1 and %d, got %d", defaultMaxParallel, c.MaxParallelFetches))
	case c.CommitLimit < 1:
		return apperrors.ConfigInvalid(fmt.Sprintf("commit_limit must be positive, got %d", c.CommitLimit))
	case c.ReflogLimit < 1:
		return apperrors.ConfigInvalid(fmt.Sprintf("reflog_limit must be positive, got %d", c.ReflogLimit))
	case c.FetchTimeout < 0:
		return apperrors.ConfigInvalid("fetch_timeout must not be negative")
	case c.PollInterval < 0:
		return apperrors.ConfigInvalid("poll_interval must not be negative")
	case c.WatchDebounce < 0:
		return apperrors.ConfigInvalid("watch_debounce must not be negative")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return apperrors.ConfigInvalid(fmt.Sprintf("log_format must be text or json, got %q", c.Log.Format))
	}
	switch c.Log.Stderr {
	case logging.StderrAuto, logging.StderrAlways, logging.StderrNever:
	default:
		return apperrors.ConfigInvalid(fmt.Sprintf("log_to_stderr must be auto, always or never, got %q", c.Log.Stderr))
	}
	return nil
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

// parseDuration accepts Go duration strings; "0" disables.
func parseDuration(key, value string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return fallback, nil
	}
	if v == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, apperrors.ConfigInvalid(fmt.Sprintf("%s: %v", key, err))
	}
	return d, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
