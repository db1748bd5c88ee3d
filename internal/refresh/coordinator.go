package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/five82/slayergit/internal/errors"
	"github.com/five82/slayergit/internal/git"
	"github.com/five82/slayergit/internal/logging"
	"github.com/five82/slayergit/internal/state"
)

// DefaultMaxParallel bounds concurrent fetches when Options leaves it unset.
const DefaultMaxParallel = 7

// Options tune a Coordinator.
type Options struct {
	// MaxParallel caps how many fetches of one cycle run at once.
	MaxParallel int
	// FetchTimeout, when positive, fails a kind whose fetch has not settled in
	// time. The fetch itself keeps running detached; its result is dropped.
	FetchTimeout time.Duration
}

// Coordinator runs refresh cycles one at a time on a single loop goroutine.
// Requests submitted while a cycle is running are queued in FIFO order.
type Coordinator struct {
	store    *state.Store
	registry *Registry
	fetch    map[state.Kind]FetchFunc
	opts     Options
	log      *logrus.Entry

	mu       sync.Mutex
	queue    []*job
	inFlight *job
	started  bool
	stopped  bool
	wake     chan struct{}
	done     chan struct{}
}

type job struct {
	kinds   state.KindSet
	handle  *Handle
	trigger bool
}

type fetchResult struct {
	kind  state.Kind
	value any
	err   error
}

// New returns a coordinator that fetches from backend into store and notifies
// registry. Call Start before expecting any request to complete.
func New(backend git.Backend, store *state.Store, registry *Registry, opts Options) *Coordinator {
	if opts.MaxParallel <= 0 || opts.MaxParallel > DefaultMaxParallel {
		opts.MaxParallel = DefaultMaxParallel
	}
	if registry == nil {
		registry = NewRegistry()
	}
	return &Coordinator{
		store:    store,
		registry: registry,
		fetch:    fetchers(backend),
		opts:     opts,
		log:      logging.NewLogger("refresh"),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Store returns the snapshot store the coordinator writes to.
func (c *Coordinator) Store() *state.Store { return c.store }

// Registry returns the observer registry notified after each cycle.
func (c *Coordinator) Registry() *Registry { return c.registry }

// IsBusy reports whether a cycle is in progress.
func (c *Coordinator) IsBusy() bool { return c.store.Busy().IsBusy() }

// LastDurationMillis is the wall time of the last completed cycle.
func (c *Coordinator) LastDurationMillis() int64 { return c.store.Busy().LastDurationMillis() }

// Start launches the loop goroutine. It returns immediately; the loop exits
// when ctx is cancelled, after the cycle in progress (if any) settles.
func (c *Coordinator) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	go c.loop(ctx)
}

// Done is closed once the loop goroutine has exited.
func (c *Coordinator) Done() <-chan struct{} { return c.done }

// Refresh runs a cycle for kinds and waits for it to settle. Fetch failures
// are reported in the Outcome, not as an error; the error is non-nil only
// for an empty request, a stopped coordinator or a cancelled ctx.
func (c *Coordinator) Refresh(ctx context.Context, kinds state.KindSet) (Outcome, error) {
	return c.RefreshAsync(kinds).Wait(ctx)
}

// RefreshAsync queues a cycle for kinds and returns immediately.
func (c *Coordinator) RefreshAsync(kinds state.KindSet) *Handle {
	h, _ := c.enqueue(kinds, false, false)
	return h
}

// TryRefresh is RefreshAsync that refuses to queue behind other work: it
// fails with REFRESH_CONFLICT when a cycle is running or already queued.
func (c *Coordinator) TryRefresh(kinds state.KindSet) (*Handle, error) {
	return c.enqueue(kinds, true, false)
}

// Trigger queues kinds without waiting. Consecutive triggers that have not
// started yet are merged into one cycle.
func (c *Coordinator) Trigger(kinds state.KindSet) *Handle {
	h, _ := c.enqueue(kinds, false, true)
	return h
}

func (c *Coordinator) enqueue(kinds state.KindSet, exclusive, trigger bool) (*Handle, error) {
	kinds = kinds.Intersect(state.All)
	if kinds.Empty() {
		h := newHandle()
		err := apperrors.InvalidRequest("no kinds requested")
		h.complete(Outcome{}, err)
		return h, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		h := newHandle()
		err := apperrors.CoordinatorStopped(nil)
		h.complete(Outcome{}, err)
		return h, err
	}
	if exclusive && (c.inFlight != nil || len(c.queue) > 0) {
		busy := "queued"
		if c.inFlight != nil {
			busy = c.inFlight.kinds.String()
		}
		return nil, apperrors.RefreshConflict(busy)
	}
	if trigger && len(c.queue) > 0 {
		if last := c.queue[len(c.queue)-1]; last.trigger {
			last.kinds = last.kinds.Union(kinds)
			return last.handle, nil
		}
	}

	j := &job{kinds: kinds, handle: newHandle(), trigger: trigger}
	c.queue = append(c.queue, j)
	select {
	case c.wake <- struct{}{}:
	default:
	}
	return j.handle, nil
}

// next pops the oldest queued job and marks it in flight.
func (c *Coordinator) next() *job {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return nil
	}
	j := c.queue[0]
	c.queue[0] = nil
	c.queue = c.queue[1:]
	c.inFlight = j
	return j
}

func (c *Coordinator) finish() {
	c.mu.Lock()
	c.inFlight = nil
	c.mu.Unlock()
}

func (c *Coordinator) loop(ctx context.Context) {
	defer close(c.done)
	defer c.shutdown(ctx)

	c.log.WithField("max_parallel", c.opts.MaxParallel).Debug("refresh loop started")
	for {
		// Queued jobs are left for shutdown once ctx is done, even if wake
		// won the select below.
		for ctx.Err() == nil {
			j := c.next()
			if j == nil {
				break
			}
			out := c.runCycle(ctx, j.kinds)
			c.finish()
			j.handle.complete(out, nil)
		}
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-c.wake:
		}
	}
}

func (c *Coordinator) shutdown(ctx context.Context) {
	c.mu.Lock()
	c.stopped = true
	pending := c.queue
	c.queue = nil
	c.mu.Unlock()

	for _, j := range pending {
		j.handle.complete(Outcome{}, apperrors.CoordinatorStopped(ctx.Err()))
	}
	c.log.WithField("dropped", len(pending)).Debug("refresh loop stopped")
}

// runCycle is one complete cycle: busy, concurrent fetches, per-kind writes as
// results arrive, join, idle, notify.
func (c *Coordinator) runCycle(ctx context.Context, kinds state.KindSet) Outcome {
	out := Outcome{
		Cycle:     uuid.NewString(),
		Requested: kinds,
		Errors:    map[state.Kind]error{},
	}
	log := c.log.WithFields(logrus.Fields{"cycle": out.Cycle, "kinds": kinds.Strings()})
	log.Debug("refresh started")

	out.Started = c.store.Busy().Begin()

	list := kinds.Kinds()
	results := make(chan fetchResult, len(list))
	go func() {
		var g errgroup.Group
		g.SetLimit(c.opts.MaxParallel)
		for _, k := range list {
			g.Go(func() error {
				results <- c.fetchKind(ctx, k)
				return nil
			})
		}
		_ = g.Wait()
	}()

	// Join: exactly one result per launched task, written as it arrives.
	for range list {
		r := <-results
		if r.err == nil {
			r.err = c.store.Write(r.kind, r.value)
		}
		if r.err != nil {
			c.store.MarkFailed(r.kind, r.err)
			out.Failed = out.Failed.Add(r.kind)
			out.Errors[r.kind] = r.err
			log.WithFields(logrus.Fields{"kind": r.kind.String(), "error": r.err}).Warn("fetch failed")
			continue
		}
		out.Changed = out.Changed.Add(r.kind)
	}

	out.Duration = c.store.Busy().End()
	log.WithFields(logrus.Fields{
		"changed":     out.Changed.Strings(),
		"failed":      out.Failed.Strings(),
		"duration_ms": out.DurationMillis(),
	}).Info("refresh complete")

	c.registry.Notify(out)
	return out
}

// fetchKind runs one fetch, bounded by FetchTimeout when set. A timed-out
// fetch is left running; its result goes to a channel nobody reads.
func (c *Coordinator) fetchKind(ctx context.Context, k state.Kind) fetchResult {
	fn, ok := c.fetch[k]
	if !ok {
		return fetchResult{kind: k, err: apperrors.FetchFailed(k.String(), fmt.Errorf("no fetcher registered"))}
	}
	if c.opts.FetchTimeout <= 0 {
		return call(ctx, k, fn)
	}

	ch := make(chan fetchResult, 1)
	go func() { ch <- call(ctx, k, fn) }()

	timer := time.NewTimer(c.opts.FetchTimeout)
	defer timer.Stop()
	select {
	case r := <-ch:
		return r
	case <-timer.C:
		return fetchResult{kind: k, err: apperrors.FetchTimeout(k.String(), c.opts.FetchTimeout)}
	}
}

func call(ctx context.Context, k state.Kind, fn FetchFunc) (r fetchResult) {
	r.kind = k
	defer func() {
		if p := recover(); p != nil {
			r.value = nil
			r.err = apperrors.FetchFailed(k.String(), fmt.Errorf("panic: %v", p))
		}
	}()
	v, err := fn(ctx)
	if err != nil {
		r.err = apperrors.FetchFailed(k.String(), err)
		return r
	}
	r.value = v
	return r
}

// Handle tracks one queued or running cycle.
type Handle struct {
	done    chan struct{}
	outcome Outcome
	err     error
}

func newHandle() *Handle {
	return &Handle{done: make(chan struct{})}
}

func (h *Handle) complete(out Outcome, err error) {
	h.outcome = out
	h.err = err
	close(h.done)
}

// Done is closed when the cycle has settled and observers were notified.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Result returns the outcome once Done is closed.
func (h *Handle) Result() (Outcome, error) {
	select {
	case <-h.done:
		return h.outcome, h.err
	default:
		return Outcome{}, fmt.Errorf("refresh still pending")
	}
}

// Wait blocks until the cycle settles or ctx is done. Cancelling ctx does not
// cancel the cycle.
func (h *Handle) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-h.done:
		return h.outcome, h.err
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}
