package state

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/five82/slayergit/internal/git"
)

// Record is the stored state of one kind.
type Record struct {
	// Value is the last successfully fetched payload, nil until the first
	// successful write. Its concrete type is fixed per kind (see Write).
	Value     any
	Version   uint64
	Stale     bool
	Err       error
	UpdatedAt time.Time
}

// Meta is a Record without its payload.
type Meta struct {
	Version   uint64
	Stale     bool
	Err       error
	UpdatedAt time.Time
}

// Snapshot is a consistent copy of the whole store taken under one lock.
type Snapshot struct {
	Status         git.Status
	LocalBranches  []git.Branch
	RemoteBranches []git.Branch
	Commits        []git.Commit
	Reflog         []git.ReflogEntry
	Stashes        []git.Stash
	Tags           []git.Tag

	Meta         [numKinds]Meta
	Busy         bool
	BusySince    time.Time
	LastDuration time.Duration
}

// Of returns the metadata for k.
func (s Snapshot) Of(k Kind) Meta {
	if !k.Valid() {
		return Meta{}
	}
	return s.Meta[k]
}

// Loaded reports whether k has been written at least once.
func (s Snapshot) Loaded(k Kind) bool {
	return s.Of(k).Version > 0
}

// StaleKinds returns the kinds whose last fetch failed.
func (s Snapshot) StaleKinds() KindSet {
	var set KindSet
	for _, k := range Kinds() {
		if s.Meta[k].Stale {
			set = set.Add(k)
		}
	}
	return set
}

// Set replaces k's payload and metadata with rec, as returned by Store.Read.
func (s *Snapshot) Set(k Kind, rec Record) {
	if !k.Valid() {
		return
	}
	s.Meta[k] = Meta{Version: rec.Version, Stale: rec.Stale, Err: rec.Err, UpdatedAt: rec.UpdatedAt}
	switch k {
	case Status:
		s.Status, _ = rec.Value.(git.Status)
	case LocalBranches:
		s.LocalBranches, _ = rec.Value.([]git.Branch)
	case RemoteBranches:
		s.RemoteBranches, _ = rec.Value.([]git.Branch)
	case Commits:
		s.Commits, _ = rec.Value.([]git.Commit)
	case Reflog:
		s.Reflog, _ = rec.Value.([]git.ReflogEntry)
	case Stashes:
		s.Stashes, _ = rec.Value.([]git.Stash)
	case Tags:
		s.Tags, _ = rec.Value.([]git.Tag)
	}
}

// Store holds the latest value of every kind. All mutation happens under a
// single lock; reads never wait on a fetch.
type Store struct {
	mu      sync.RWMutex
	records [numKinds]Record
	busy    Tracker
	now     func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

func (s *Store) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

// Busy returns the busy-state tracker owned by the store.
func (s *Store) Busy() *Tracker {
	return &s.busy
}

// Read returns the last committed record for k.
func (s *Store) Read(k Kind) Record {
	if !k.Valid() {
		return Record{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec := s.records[k]
	rec.Value = cloneValue(rec.Value)
	return rec
}

// Write replaces k's value, bumps its version and clears its failure state.
// value must have the concrete type listed in ValueType for k.
func (s *Store) Write(k Kind, value any) error {
	if err := checkType(k, value); err != nil {
		return err
	}
	value = cloneValue(value)

	s.mu.Lock()
	defer s.mu.Unlock()
	rec := &s.records[k]
	rec.Value = value
	rec.Version++
	rec.Stale = false
	rec.Err = nil
	rec.UpdatedAt = s.clock()
	return nil
}

// MarkFailed flags k as stale and records err. The previous value and its
// version are retained.
func (s *Store) MarkFailed(k Kind, err error) {
	if !k.Valid() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[k].Stale = true
	s.records[k].Err = err
}

// Snapshot returns a copy of every record plus the busy state. The busy
// flag is sampled under the record lock. The coordinator only writes between
// Begin and End, so a copy with Busy=false never holds a half-applied cycle.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	busy, since := s.busy.State()
	snap := Snapshot{
		Busy:         busy,
		BusySince:    since,
		LastDuration: s.busy.LastDuration(),
	}
	for k, rec := range s.records {
		snap.Meta[k] = Meta{Version: rec.Version, Stale: rec.Stale, Err: rec.Err, UpdatedAt: rec.UpdatedAt}
	}
	if v, ok := s.records[Status].Value.(git.Status); ok {
		snap.Status = cloneStatus(v)
	}
	snap.LocalBranches = cloneSlice[git.Branch](s.records[LocalBranches].Value)
	snap.RemoteBranches = cloneSlice[git.Branch](s.records[RemoteBranches].Value)
	snap.Commits = cloneSlice[git.Commit](s.records[Commits].Value)
	snap.Reflog = cloneSlice[git.ReflogEntry](s.records[Reflog].Value)
	snap.Stashes = cloneSlice[git.Stash](s.records[Stashes].Value)
	snap.Tags = cloneSlice[git.Tag](s.records[Tags].Value)
	return snap
}

// ValueType names the concrete Go type stored for k.
func ValueType(k Kind) string {
	switch k {
	case Status:
		return "git.Status"
	case LocalBranches, RemoteBranches:
		return "[]git.Branch"
	case Commits:
		return "[]git.Commit"
	case Reflog:
		return "[]git.ReflogEntry"
	case Stashes:
		return "[]git.Stash"
	case Tags:
		return "[]git.Tag"
	}
	return ""
}

func checkType(k Kind, value any) error {
	var ok bool
	switch k {
	case Status:
		_, ok = value.(git.Status)
	case LocalBranches, RemoteBranches:
		_, ok = value.([]git.Branch)
	case Commits:
		_, ok = value.([]git.Commit)
	case Reflog:
		_, ok = value.([]git.ReflogEntry)
	case Stashes:
		_, ok = value.([]git.Stash)
	case Tags:
		_, ok = value.([]git.Tag)
	default:
		return fmt.Errorf("write: unknown kind %v", k)
	}
	if !ok {
		return fmt.Errorf("write %s: got %T, want %s", k, value, ValueType(k))
	}
	return nil
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case git.Status:
		return cloneStatus(val)
	case []git.Branch:
		return slices.Clone(val)
	case []git.Commit:
		out := slices.Clone(val)
		for i := range out {
			out[i].Parents = slices.Clone(out[i].Parents)
			out[i].Refs = slices.Clone(out[i].Refs)
		}
		return out
	case []git.ReflogEntry:
		return slices.Clone(val)
	case []git.Stash:
		return slices.Clone(val)
	case []git.Tag:
		return slices.Clone(val)
	}
	return v
}

func cloneStatus(s git.Status) git.Status {
	s.Files = slices.Clone(s.Files)
	return s
}

func cloneSlice[T any](v any) []T {
	items, ok := v.([]T)
	if !ok || len(items) == 0 {
		return nil
	}
	if cloned, ok := cloneValue(items).([]T); ok {
		return cloned
	}
	return slices.Clone(items)
}
