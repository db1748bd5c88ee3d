package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/five82/slayergit/internal/git"
	"github.com/five82/slayergit/internal/state"
)

// fakeBackend returns sample values for every kind. Individual kinds can be
// made to fail, panic or block on a gate.
type fakeBackend struct {
	mu     sync.Mutex
	fail   map[state.Kind]error
	panics map[state.Kind]bool
	gates  map[state.Kind]chan struct{}
	calls  map[state.Kind]int
	// seq makes every Status fetch return a distinct branch name.
	seq atomic.Int64

	active    atomic.Int32
	maxActive atomic.Int32
	started   chan state.Kind
	delay     time.Duration
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		fail:    map[state.Kind]error{},
		panics:  map[state.Kind]bool{},
		gates:   map[state.Kind]chan struct{}{},
		calls:   map[state.Kind]int{},
		started: make(chan state.Kind, 64),
	}
}

func (f *fakeBackend) failWith(k state.Kind, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[k] = err
}

// block makes fetches of k wait until the returned function is called.
func (f *fakeBackend) block(k state.Kind) (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gates[k] = gate
	f.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

func (f *fakeBackend) callCount(k state.Kind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[k]
}

func (f *fakeBackend) enter(ctx context.Context, k state.Kind) error {
	f.mu.Lock()
	f.calls[k]++
	err := f.fail[k]
	gate := f.gates[k]
	shouldPanic := f.panics[k]
	f.mu.Unlock()

	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		prev := f.maxActive.Load()
		if n <= prev || f.maxActive.CompareAndSwap(prev, n) {
			break
		}
	}

	select {
	case f.started <- k:
	default:
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if shouldPanic {
		panic(fmt.Sprintf("%s exploded", k))
	}
	return err
}

func (f *fakeBackend) FetchStatus(ctx context.Context) (git.Status, error) {
	if err := f.enter(ctx, state.Status); err != nil {
		return git.Status{}, err
	}
	return git.Status{Branch: fmt.Sprintf("main-%d", f.seq.Add(1))}, nil
}

func (f *fakeBackend) FetchLocalBranches(ctx context.Context) ([]git.Branch, error) {
	if err := f.enter(ctx, state.LocalBranches); err != nil {
		return nil, err
	}
	return []git.Branch{{Name: "main", Current: true}, {Name: "topic"}}, nil
}

func (f *fakeBackend) FetchRemoteBranches(ctx context.Context) ([]git.Branch, error) {
	if err := f.enter(ctx, state.RemoteBranches); err != nil {
		return nil, err
	}
	return []git.Branch{{Name: "origin/main", Remote: "origin"}}, nil
}

func (f *fakeBackend) FetchCommits(ctx context.Context) ([]git.Commit, error) {
	if err := f.enter(ctx, state.Commits); err != nil {
		return nil, err
	}
	return []git.Commit{{Hash: "c2", Subject: "second"}, {Hash: "c1", Subject: "first"}}, nil
}

func (f *fakeBackend) FetchReflog(ctx context.Context) ([]git.ReflogEntry, error) {
	if err := f.enter(ctx, state.Reflog); err != nil {
		return nil, err
	}
	return []git.ReflogEntry{{Hash: "c2", Selector: "HEAD@{0}", Action: "commit"}}, nil
}

func (f *fakeBackend) FetchStashes(ctx context.Context) ([]git.Stash, error) {
	if err := f.enter(ctx, state.Stashes); err != nil {
		return nil, err
	}
	return []git.Stash{{Index: 0, Message: "WIP"}}, nil
}

func (f *fakeBackend) FetchTags(ctx context.Context) ([]git.Tag, error) {
	if err := f.enter(ctx, state.Tags); err != nil {
		return nil, err
	}
	return []git.Tag{{Name: "v1.0.0", Hash: "c1"}}, nil
}

var errBoom = errors.New("boom")

// startCoordinator builds and starts a coordinator stopped at test cleanup.
func startCoordinator(t *testing.T, backend git.Backend, opts Options) *Coordinator {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	c := New(backend, state.NewStore(), NewRegistry(), opts)
	c.Start(ctx)
	t.Cleanup(func() {
		cancel()
		select {
		case <-c.Done():
		case <-time.After(5 * time.Second):
			t.Error("coordinator did not stop")
		}
	})
	return c
}

// waitStarted consumes start events until every kind in want has begun.
func waitStarted(t *testing.T, f *fakeBackend, want ...state.Kind) {
	t.Helper()
	pending := state.NewKindSet(want...)
	deadline := time.After(2 * time.Second)
	for !pending.Empty() {
		select {
		case k := <-f.started:
			pending = pending.Remove(k)
		case <-deadline:
			require.FailNowf(t, "fetch not started", "waiting for %s", pending)
		}
	}
}
