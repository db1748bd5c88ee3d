package git

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "github.com/five82/slayergit/internal/errors"
)

const (
	defaultBinary      = "git"
	defaultCommitLimit = 200
	defaultReflogLimit = 100
)

// Options configure a CLI backend.
type Options struct {
	// Dir is any path inside the work tree.
	Dir         string
	Binary      string
	CommitLimit int
	ReflogLimit int
	Executor    Executor
}

// CLI implements Repository by shelling out to the git executable.
type CLI struct {
	run         runner
	commitLimit int
	reflogLimit int
}

// NewCLI builds a CLI backend. It does not touch the repository; call Open
// to verify the directory is a work tree.
func NewCLI(opts Options) (*CLI, error) {
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve repository path: %w", err)
	}
	c := &CLI{
		run: runner{
			binary: opts.Binary,
			dir:    abs,
			exec:   opts.Executor,
		},
		commitLimit: opts.CommitLimit,
		reflogLimit: opts.ReflogLimit,
	}
	if strings.TrimSpace(c.run.binary) == "" {
		c.run.binary = defaultBinary
	}
	if c.run.exec == nil {
		c.run.exec = RealExecutor{}
	}
	if c.commitLimit <= 0 {
		c.commitLimit = defaultCommitLimit
	}
	if c.reflogLimit <= 0 {
		c.reflogLimit = defaultReflogLimit
	}
	return c, nil
}

// Layout describes where a work tree and its git directory live.
type Layout struct {
	Root   string
	GitDir string
}

// Open verifies the backend points into a work tree and returns its layout.
func (c *CLI) Open(ctx context.Context) (Layout, error) {
	out, err := c.run.run(ctx, "rev-parse", "--show-toplevel", "--absolute-git-dir")
	if err != nil {
		if apperrors.Is(err, apperrors.ErrCodeGitNotInstalled) {
			return Layout{}, err
		}
		if strings.Contains(stderrOf(err), "not a git repository") {
			return Layout{}, apperrors.NotARepository(c.run.dir)
		}
		return Layout{}, err
	}
	lines := splitLines(out)
	if len(lines) != 2 {
		return Layout{}, apperrors.NotARepository(c.run.dir)
	}
	return Layout{Root: strings.TrimSpace(lines[0]), GitDir: strings.TrimSpace(lines[1])}, nil
}

// Dir returns the absolute directory commands run in.
func (c *CLI) Dir() string {
	return c.run.dir
}

// FetchStatus returns the working-tree status.
func (c *CLI) FetchStatus(ctx context.Context) (Status, error) {
	out, err := c.run.run(ctx, "status", "--porcelain=v2", "--branch", "-z", "--untracked-files=all")
	if err != nil {
		return Status{}, err
	}
	return parseStatus(out)
}

// FetchLocalBranches lists refs/heads.
func (c *CLI) FetchLocalBranches(ctx context.Context) ([]Branch, error) {
	out, err := c.run.run(ctx, "for-each-ref", "--format="+branchFormat, "refs/heads")
	if err != nil {
		return nil, err
	}
	return parseBranches(out, false)
}

// FetchRemoteBranches lists refs/remotes as last reported by the repository.
func (c *CLI) FetchRemoteBranches(ctx context.Context) ([]Branch, error) {
	out, err := c.run.run(ctx, "for-each-ref", "--format="+branchFormat, "refs/remotes")
	if err != nil {
		return nil, err
	}
	return parseBranches(out, true)
}

// FetchCommits returns up to the configured number of commits reachable from HEAD.
func (c *CLI) FetchCommits(ctx context.Context) ([]Commit, error) {
	out, err := c.run.run(ctx, "log", "--max-count="+strconv.Itoa(c.commitLimit), "--format="+commitFormat, "HEAD")
	if err != nil {
		if isUnbornHead(err) {
			return nil, nil
		}
		return nil, err
	}
	return parseCommits(out)
}

// FetchReflog returns recent HEAD reflog entries.
func (c *CLI) FetchReflog(ctx context.Context) ([]ReflogEntry, error) {
	out, err := c.run.run(ctx, "reflog", "show", "--max-count="+strconv.Itoa(c.reflogLimit), "--format="+reflogFormat, "HEAD")
	if err != nil {
		if isUnbornHead(err) {
			return nil, nil
		}
		return nil, err
	}
	return parseReflog(out)
}

// FetchStashes returns the stash list, newest first.
func (c *CLI) FetchStashes(ctx context.Context) ([]Stash, error) {
	out, err := c.run.run(ctx, "stash", "list", "--format="+stashFormat)
	if err != nil {
		return nil, err
	}
	return parseStashes(out)
}

// FetchTags returns tags, newest first.
func (c *CLI) FetchTags(ctx context.Context) ([]Tag, error) {
	out, err := c.run.run(ctx, "for-each-ref", "--sort=-creatordate", "--format="+tagFormat, "refs/tags")
	if err != nil {
		return nil, err
	}
	return parseTags(out)
}

// isUnbornHead reports whether err comes from a repository with no commits yet.
func isUnbornHead(err error) bool {
	stderr := stderrOf(err)
	return strings.Contains(stderr, "does not have any commits yet") ||
		strings.Contains(stderr, "unknown revision or path not in the working tree") ||
		strings.Contains(stderr, "bad default revision 'HEAD'")
}
