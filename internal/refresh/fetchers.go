package refresh

import (
	"context"

	"github.com/five82/slayergit/internal/git"
	"github.com/five82/slayergit/internal/state"
)

// FetchFunc performs one blocking fetch and returns the value to store.
type FetchFunc func(ctx context.Context) (any, error)

// fetchers maps every kind onto the backend call that produces it.
func fetchers(b git.Backend) map[state.Kind]FetchFunc {
	return map[state.Kind]FetchFunc{
		state.Status: func(ctx context.Context) (any, error) {
			return b.FetchStatus(ctx)
		},
		state.LocalBranches: func(ctx context.Context) (any, error) {
			return b.FetchLocalBranches(ctx)
		},
		state.RemoteBranches: func(ctx context.Context) (any, error) {
			return b.FetchRemoteBranches(ctx)
		},
		state.Commits: func(ctx context.Context) (any, error) {
			return b.FetchCommits(ctx)
		},
		state.Reflog: func(ctx context.Context) (any, error) {
			return b.FetchReflog(ctx)
		},
		state.Stashes: func(ctx context.Context) (any, error) {
			return b.FetchStashes(ctx)
		},
		state.Tags: func(ctx context.Context) (any, error) {
			return b.FetchTags(ctx)
		},
	}
}
