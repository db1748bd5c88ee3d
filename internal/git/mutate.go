package git

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var validBranch = regexp.MustCompile(`^[a-zA-Z0-9/_.+-]+$`)

// Stage adds path to the index.
func (c *CLI) Stage(ctx context.Context, path string) error {
	if err := validatePath(path); err != nil {
		return err
	}
	_, err := c.run.run(ctx, "add", "--all", "--", path)
	return err
}

// Unstage resets path in the index to HEAD, or removes it from the index
// when there is no HEAD yet.
func (c *CLI) Unstage(ctx context.Context, path string) error {
	if err := validatePath(path); err != nil {
		return err
	}
	_, err := c.run.run(ctx, "restore", "--staged", "--", path)
	if err != nil && isUnbornHead(err) {
		_, err = c.run.run(ctx, "rm", "--cached", "--quiet", "--", path)
	}
	return err
}

// Commit records the index with message.
func (c *CLI) Commit(ctx context.Context, message string) error {
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("commit message cannot be empty")
	}
	_, err := c.run.run(ctx, "commit", "--quiet", "-m", message)
	return err
}

// Checkout switches to branch. Remote branches such as "origin/topic" are
// checked out as a new local tracking branch.
func (c *CLI) Checkout(ctx context.Context, branch string) error {
	if err := validateBranch(branch); err != nil {
		return err
	}
	_, err := c.run.run(ctx, "switch", "--quiet", branch)
	if err != nil && strings.Contains(stderrOf(err), "a branch is expected") {
		_, err = c.run.run(ctx, "switch", "--quiet", "--track", branch)
	}
	return err
}

// StashPush stashes working tree and index changes, including untracked files.
func (c *CLI) StashPush(ctx context.Context, message string) error {
	args := []string{"stash", "push", "--quiet", "--include-untracked"}
	if msg := strings.TrimSpace(message); msg != "" {
		args = append(args, "-m", msg)
	}
	_, err := c.run.run(ctx, args...)
	return err
}

// StashDrop removes stash@{index}.
func (c *CLI) StashDrop(ctx context.Context, index int) error {
	if index < 0 {
		return fmt.Errorf("invalid stash index %d", index)
	}
	_, err := c.run.run(ctx, "stash", "drop", "--quiet", "stash@{"+strconv.Itoa(index)+"}")
	return err
}

func validatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("file path cannot be empty")
	}
	return nil
}

func validateBranch(name string) error {
	if name == "" {
		return fmt.Errorf("branch name cannot be empty")
	}
	if strings.HasPrefix(name, "-") || strings.Contains(name, "..") || !validBranch.MatchString(name) {
		return fmt.Errorf("invalid branch name: %s", name)
	}
	return nil
}
