package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/slayergit/internal/config"
	"github.com/five82/slayergit/internal/git"
	"github.com/five82/slayergit/internal/logging"
	"github.com/five82/slayergit/internal/prefs"
	"github.com/five82/slayergit/internal/refresh"
	"github.com/five82/slayergit/internal/state"
	"github.com/five82/slayergit/internal/ui"
	"github.com/five82/slayergit/internal/watch"
)

// Options configure the slayergit application. Non-zero values override the
// config file.
type Options struct {
	ConfigPath   string
	PrefsPath    string // empty uses default ~/.config/slayergit/prefs.toml
	RepoPath     string
	PollInterval time.Duration
	Verbose      bool
}

// engine is the refresh stack shared by the TUI and headless runs.
type engine struct {
	cfg         config.Config
	repo        *git.CLI
	layout      git.Layout
	store       *state.Store
	registry    *refresh.Registry
	coordinator *refresh.Coordinator
	closeLog    func() error
}

// Run boots the TUI and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	e, err := start(ctx, opts, true)
	if err != nil {
		return err
	}
	defer e.stop(cancel)

	logger := logging.NewLogger("app")
	userPrefs, _ := prefs.Load(opts.PrefsPath)

	if e.cfg.Watch {
		w, err := watch.New(e.layout.GitDir, e.cfg.WatchDebounce, func(kinds state.KindSet) {
			e.coordinator.Trigger(kinds)
		})
		if err != nil {
			logger.WithError(err).Warn("filesystem watcher disabled")
		} else {
			go func() {
				if err := w.Run(ctx); err != nil {
					logger.WithError(err).Warn("filesystem watcher stopped")
				}
			}()
		}
	}

	StartPoller(ctx, e.coordinator, e.cfg.PollInterval)

	return ui.Run(ui.Options{
		Context:       ctx,
		Repo:          e.repo,
		Store:         e.store,
		Registry:      e.registry,
		Refresher:     e.coordinator,
		RepoRoot:      e.layout.Root,
		LogPath:       e.cfg.Log.File,
		ThemeName:     userPrefs.Theme,
		FocusedWindow: userPrefs.FocusedWindow,
		PrefsPath:     opts.PrefsPath,
	})
}

// RunRefresh runs one synchronous cycle for kinds without a UI and reports
// what it fetched.
func RunRefresh(ctx context.Context, opts Options, kinds state.KindSet) (Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	e, err := start(ctx, opts, false)
	if err != nil {
		return Report{}, err
	}
	defer e.stop(cancel)

	out, err := e.coordinator.Refresh(ctx, kinds)
	if err != nil {
		return Report{}, err
	}
	return NewReport(out, e.store.Snapshot()), nil
}

// start wires config, logging, backend, store, registry and coordinator, and
// starts the coordinator loop. Interactive runs never log to stderr.
func start(ctx context.Context, opts Options, interactive bool) (*engine, error) {
	cfg, err := loadConfig(opts, interactive)
	if err != nil {
		return nil, err
	}

	closeLog, err := logging.Configure(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}

	repo, err := git.NewCLI(git.Options{
		Dir:         cfg.RepoPath,
		Binary:      cfg.GitBinary,
		CommitLimit: cfg.CommitLimit,
		ReflogLimit: cfg.ReflogLimit,
	})
	if err != nil {
		_ = closeLog()
		return nil, err
	}
	layout, err := repo.Open(ctx)
	if err != nil {
		_ = closeLog()
		return nil, err
	}

	store := state.NewStore()
	registry := refresh.NewRegistry()
	coordinator := refresh.New(repo, store, registry, refresh.Options{
		MaxParallel:  cfg.MaxParallelFetches,
		FetchTimeout: cfg.FetchTimeout,
	})
	coordinator.Start(ctx)

	logging.NewLogger("app").WithFields(logrus.Fields{
		"root":    layout.Root,
		"git_dir": layout.GitDir,
	}).Info("repository opened")

	return &engine{
		cfg:         cfg,
		repo:        repo,
		layout:      layout,
		store:       store,
		registry:    registry,
		coordinator: coordinator,
		closeLog:    closeLog,
	}, nil
}

// stop cancels the run context, waits for the coordinator loop to exit and
// closes the log sink.
func (e *engine) stop(cancel context.CancelFunc) {
	cancel()
	<-e.coordinator.Done()
	_ = e.closeLog()
}

func loadConfig(opts Options, interactive bool) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if opts.RepoPath != "" {
		cfg.RepoPath = opts.RepoPath
	}
	if opts.PollInterval > 0 {
		cfg.PollInterval = opts.PollInterval
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	if interactive {
		cfg.Log.Stderr = logging.StderrNever
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
