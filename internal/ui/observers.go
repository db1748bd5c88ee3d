package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/slayergit/internal/refresh"
	"github.com/five82/slayergit/internal/state"
)

// Subscribe registers one observer per data tab plus the status bar observer.
// Observers run on the refresh goroutine, so they only hand a message to the
// UI loop via send and never touch the model.
func Subscribe(reg *refresh.Registry, send func(tea.Msg)) error {
	for tab := Tab(0); tab < numTabs; tab++ {
		kinds := tab.Kinds()
		if kinds.Empty() {
			continue
		}
		tab := tab
		name := strings.ToLower(tab.String()) + " tab"
		err := reg.Subscribe(name, kinds, refresh.ObserverFunc(func(n refresh.Notification) error {
			send(refreshedMsg{tab: tab, note: n})
			return nil
		}))
		if err != nil {
			return err
		}
	}
	return reg.Subscribe("status bar", state.All, refresh.ObserverFunc(func(n refresh.Notification) error {
		send(cycleMsg(n))
		return nil
	}))
}

// panel is the per-tab view state. rows is rebuilt only when the tab is
// dirty; failed and errs come from the tab's own notifications.
type panel struct {
	rows   []row
	dirty  bool
	failed state.KindSet
	errs   map[state.Kind]error
}

// applyTabRefresh updates only what tab renders: its kinds in the snapshot,
// its failure record and its rows.
func (m *Model) applyTabRefresh(tab Tab, n refresh.Notification) {
	if tab < 0 || tab >= numTabs {
		return
	}
	kinds := tab.Kinds()
	if m.store != nil {
		for _, k := range n.Kinds.Intersect(kinds).Kinds() {
			m.snapshot.Set(k, m.store.Read(k))
		}
	}

	p := &m.panels[tab]
	failed := n.Failed.Intersect(kinds)
	p.failed = p.failed.Without(n.Changed).Union(failed)
	errs := make(map[state.Kind]error, p.failed.Len())
	for _, k := range p.failed.Kinds() {
		if err := n.Errors[k]; failed.Has(k) && err != nil {
			errs[k] = err
		} else if prev := p.errs[k]; prev != nil {
			errs[k] = prev
		}
	}
	p.errs = errs
	p.dirty = true
	m.syncPanel(tab)
}

// takeSnapshot replaces the whole snapshot and rebuilds the panels whose
// kinds moved since the previous one.
func (m *Model) takeSnapshot() {
	if m.store == nil {
		return
	}
	prev := m.snapshot
	m.snapshot = m.store.Snapshot()
	m.invalidate(changedKinds(prev, m.snapshot))
}

// invalidate marks every panel rendering one of kinds dirty and rebuilds it.
func (m *Model) invalidate(kinds state.KindSet) {
	stale := m.snapshot.StaleKinds()
	for tab := Tab(0); tab < numTabs; tab++ {
		if tab.Kinds().Intersect(kinds).Empty() {
			continue
		}
		p := &m.panels[tab]
		p.failed = p.failed.Intersect(stale)
		p.dirty = true
		m.syncPanel(tab)
	}
}

func (m *Model) syncPanel(tab Tab) {
	p := &m.panels[tab]
	if p.dirty {
		p.rows = tabRows(tab, m.snapshot)
		p.dirty = false
	}
	m.clampCursor(tab)
}

// panelError is the error shown in tab's stale badge, or nil.
func (m Model) panelError(tab Tab) error {
	p := m.panels[tab]
	for _, k := range tab.Kinds().Kinds() {
		if !p.failed.Has(k) {
			continue
		}
		if err := p.errs[k]; err != nil {
			return err
		}
		return fmt.Errorf("%s refresh failed", k)
	}
	return staleError(tab, m.snapshot)
}

func changedKinds(prev, next state.Snapshot) state.KindSet {
	var set state.KindSet
	for _, k := range state.Kinds() {
		a, b := prev.Meta[k], next.Meta[k]
		if a.Version != b.Version || a.Stale != b.Stale || !a.UpdatedAt.Equal(b.UpdatedAt) {
			set = set.Add(k)
		}
	}
	return set
}
