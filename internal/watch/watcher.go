package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/five82/slayergit/internal/logging"
	"github.com/five82/slayergit/internal/state"
)

// DefaultDebounce is how long the watcher waits for the repository to go
// quiet before requesting a refresh.
const DefaultDebounce = 250 * time.Millisecond

// headKinds are affected whenever HEAD moves.
var headKinds = state.NewKindSet(state.Status, state.Commits, state.Reflog, state.LocalBranches)

// refKinds can all be stored in packed-refs.
var refKinds = state.NewKindSet(state.LocalBranches, state.RemoteBranches, state.Tags)

// KindsForPath maps a path inside gitDir to the kinds a change to it can
// affect. Lock files and unrelated paths map to the empty set.
func KindsForPath(gitDir, path string) state.KindSet {
	rel, err := filepath.Rel(gitDir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return 0
	}
	rel = filepath.ToSlash(rel)
	if strings.HasSuffix(rel, ".lock") {
		return 0
	}

	switch rel {
	case "index":
		return state.NewKindSet(state.Status)
	case "HEAD", "logs/HEAD", "ORIG_HEAD":
		return headKinds
	case "MERGE_HEAD", "CHERRY_PICK_HEAD", "REVERT_HEAD", "REBASE_HEAD":
		return state.NewKindSet(state.Status)
	case "packed-refs":
		return refKinds
	case "refs/stash", "logs/refs/stash":
		return state.NewKindSet(state.Stashes)
	}

	switch {
	case strings.HasPrefix(rel, "refs/heads/"), strings.HasPrefix(rel, "logs/refs/heads/"):
		return state.NewKindSet(state.LocalBranches)
	case strings.HasPrefix(rel, "refs/remotes/"), strings.HasPrefix(rel, "logs/refs/remotes/"):
		return state.NewKindSet(state.RemoteBranches)
	case strings.HasPrefix(rel, "refs/tags/"):
		return state.NewKindSet(state.Tags)
	}
	return 0
}

// Watcher turns filesystem activity under a git directory into refresh
// requests. Bursts of events are merged and delivered once the directory has
// been quiet for the debounce interval.
type Watcher struct {
	fs       *fsnotify.Watcher
	gitDir   string
	debounce time.Duration
	trigger  func(state.KindSet)
	logger   *logrus.Entry
}

// New starts watching gitDir. trigger runs on the Run goroutine.
func New(gitDir string, debounce time.Duration, trigger func(state.KindSet)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{
		fs:       fsw,
		gitDir:   filepath.Clean(gitDir),
		debounce: debounce,
		trigger:  trigger,
		logger:   logging.NewLogger("watch"),
	}

	if err := fsw.Add(w.gitDir); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	for _, sub := range []string{"refs", "logs"} {
		w.addTree(filepath.Join(w.gitDir, sub))
	}
	w.logger.WithField("git_dir", w.gitDir).Debug("watching repository")
	return w, nil
}

// addTree watches dir and every directory below it. Missing directories are
// skipped; git creates refs/ and logs/ lazily.
func (w *Watcher) addTree(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if addErr := w.fs.Add(path); addErr != nil {
			w.logger.WithError(addErr).WithField("dir", path).Debug("watch failed")
		}
		return nil
	})
}

// Run delivers debounced refresh requests until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fs.Close() }()

	var pending state.KindSet
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			kinds := w.handle(event)
			if kinds.Empty() {
				continue
			}
			pending = pending.Union(kinds)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.logger.WithField("kinds", pending.Strings()).Debug("repository changed")
			if w.trigger != nil {
				w.trigger(pending)
			}
			pending = 0

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("watcher error")
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) state.KindSet {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			// Files may land in the new directory before it is watched.
			w.addTree(event.Name)
			return KindsForPath(w.gitDir, event.Name)
		}
	}
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) {
		return 0
	}
	return KindsForPath(w.gitDir, event.Name)
}
