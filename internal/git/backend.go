package git

import "context"

// Backend exposes one blocking fetch per data kind. Each call may be slow;
// callers are expected to run them off the UI loop and may run them
// concurrently with each other.
type Backend interface {
	FetchStatus(ctx context.Context) (Status, error)
	FetchLocalBranches(ctx context.Context) ([]Branch, error)
	FetchRemoteBranches(ctx context.Context) ([]Branch, error)
	FetchCommits(ctx context.Context) ([]Commit, error)
	FetchReflog(ctx context.Context) ([]ReflogEntry, error)
	FetchStashes(ctx context.Context) ([]Stash, error)
	FetchTags(ctx context.Context) ([]Tag, error)
}

// Mutator performs the repository-changing operations the UI offers.
type Mutator interface {
	Stage(ctx context.Context, path string) error
	Unstage(ctx context.Context, path string) error
	Commit(ctx context.Context, message string) error
	Checkout(ctx context.Context, branch string) error
	StashPush(ctx context.Context, message string) error
	StashDrop(ctx context.Context, index int) error
}

// Repository is a Backend that can also be mutated.
type Repository interface {
	Backend
	Mutator
}

// Ensure CLI implements Repository at compile time.
var _ Repository = (*CLI)(nil)
