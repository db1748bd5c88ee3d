package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/five82/slayergit/internal/errors"
)

// runGitCommand is a test helper to execute git commands.
func runGitCommand(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %s failed with output: %s", strings.Join(args, " "), string(output))
}

// setupGitRepo creates a test git repository with a deterministic identity.
func setupGitRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	runGitCommand(t, dir, "init", "--initial-branch=main")
	runGitCommand(t, dir, "config", "user.email", "test@example.com")
	runGitCommand(t, dir, "config", "user.name", "Test User")
	runGitCommand(t, dir, "config", "commit.gpgsign", "false")
	runGitCommand(t, dir, "config", "tag.gpgsign", "false")
	return dir
}

func commitFile(t *testing.T, dir, name, content, message string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	runGitCommand(t, dir, "add", name)
	runGitCommand(t, dir, "commit", "-m", message)
}

func newTestCLI(t *testing.T, dir string) *CLI {
	t.Helper()
	cli, err := NewCLI(Options{Dir: dir})
	require.NoError(t, err)
	return cli
}

func TestCLI_Open(t *testing.T) {
	t.Run("non-git directory", func(t *testing.T) {
		if _, err := exec.LookPath("git"); err != nil {
			t.Skip("git not installed")
		}
		cli := newTestCLI(t, t.TempDir())
		_, err := cli.Open(context.Background())
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotARepository), "got %v", err)
	})

	t.Run("missing binary", func(t *testing.T) {
		cli, err := NewCLI(Options{Dir: t.TempDir(), Binary: "definitely-not-git-xyz"})
		require.NoError(t, err)
		_, err = cli.Open(context.Background())
		assert.True(t, apperrors.Is(err, apperrors.ErrCodeGitNotInstalled), "got %v", err)
	})

	t.Run("repository", func(t *testing.T) {
		dir := setupGitRepo(t)
		layout, err := newTestCLI(t, dir).Open(context.Background())
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(layout.Root, ".git"), layout.GitDir)
	})
}

func TestCLI_EmptyRepository(t *testing.T) {
	dir := setupGitRepo(t)
	cli := newTestCLI(t, dir)
	ctx := context.Background()

	status, err := cli.FetchStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "main", status.Branch)
	assert.False(t, status.IsDirty())

	commits, err := cli.FetchCommits(ctx)
	require.NoError(t, err)
	assert.Empty(t, commits)

	reflog, err := cli.FetchReflog(ctx)
	require.NoError(t, err)
	assert.Empty(t, reflog)

	branches, err := cli.FetchLocalBranches(ctx)
	require.NoError(t, err)
	assert.Empty(t, branches)
}

func TestCLI_FetchAllKinds(t *testing.T) {
	dir := setupGitRepo(t)
	ctx := context.Background()
	commitFile(t, dir, "a.txt", "one", "first")
	commitFile(t, dir, "b.txt", "two", "second")
	runGitCommand(t, dir, "tag", "-a", "v1.0.0", "-m", "release one")
	runGitCommand(t, dir, "tag", "light")
	runGitCommand(t, dir, "branch", "topic")
	runGitCommand(t, dir, "update-ref", "refs/remotes/origin/main", "HEAD")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("changed"), 0o644))
	runGitCommand(t, dir, "stash", "push", "-m", "parked")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("new"), 0o644))

	cli := newTestCLI(t, dir)

	status, err := cli.FetchStatus(ctx)
	require.NoError(t, err)
	require.Len(t, status.Files, 1)
	assert.True(t, status.Files[0].Untracked)

	local, err := cli.FetchLocalBranches(ctx)
	require.NoError(t, err)
	require.Len(t, local, 2)
	assert.Equal(t, "main", local[0].Name)
	assert.True(t, local[0].Current)
	assert.Equal(t, "topic", local[1].Name)

	remote, err := cli.FetchRemoteBranches(ctx)
	require.NoError(t, err)
	require.Len(t, remote, 1)
	assert.Equal(t, "origin/main", remote[0].Name)
	assert.Equal(t, "origin", remote[0].Remote)

	commits, err := cli.FetchCommits(ctx)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "second", commits[0].Subject)
	assert.Equal(t, "Test User", commits[0].Author)

	reflog, err := cli.FetchReflog(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, reflog)
	assert.Equal(t, "HEAD@{0}", reflog[0].Selector)

	stashes, err := cli.FetchStashes(ctx)
	require.NoError(t, err)
	require.Len(t, stashes, 1)
	assert.Equal(t, 0, stashes[0].Index)
	assert.Contains(t, stashes[0].Message, "parked")

	tags, err := cli.FetchTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	byName := map[string]Tag{}
	for _, tag := range tags {
		byName[tag.Name] = tag
	}
	assert.True(t, byName["v1.0.0"].Annotated)
	assert.Equal(t, commits[0].Hash, byName["v1.0.0"].Hash)
	assert.False(t, byName["light"].Annotated)
}

func TestCLI_Mutations(t *testing.T) {
	dir := setupGitRepo(t)
	ctx := context.Background()
	commitFile(t, dir, "a.txt", "one", "first")
	runGitCommand(t, dir, "branch", "topic")
	cli := newTestCLI(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("two"), 0o644))
	require.NoError(t, cli.Stage(ctx, "a.txt"))
	status, err := cli.FetchStatus(ctx)
	require.NoError(t, err)
	require.Len(t, status.Staged(), 1)

	require.NoError(t, cli.Unstage(ctx, "a.txt"))
	status, err = cli.FetchStatus(ctx)
	require.NoError(t, err)
	assert.Empty(t, status.Staged())
	assert.Len(t, status.Unstaged(), 1)

	require.NoError(t, cli.Stage(ctx, "a.txt"))
	require.NoError(t, cli.Commit(ctx, "second"))
	commits, err := cli.FetchCommits(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", commits[0].Subject)

	assert.Error(t, cli.Commit(ctx, "   "))

	require.NoError(t, cli.Checkout(ctx, "topic"))
	status, err = cli.FetchStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "topic", status.Branch)

	assert.Error(t, cli.Checkout(ctx, "--orphan"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("dirty"), 0o644))
	require.NoError(t, cli.StashPush(ctx, "keep"))
	stashes, err := cli.FetchStashes(ctx)
	require.NoError(t, err)
	require.Len(t, stashes, 1)
	require.NoError(t, cli.StashDrop(ctx, 0))
	stashes, err = cli.FetchStashes(ctx)
	require.NoError(t, err)
	assert.Empty(t, stashes)
}

func TestCLI_CommandFailureCarriesStderr(t *testing.T) {
	dir := setupGitRepo(t)
	cli := newTestCLI(t, dir)

	err := cli.Checkout(context.Background(), "does-not-exist")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeCommandFailed))
	assert.NotEmpty(t, stderrOf(err))
}
