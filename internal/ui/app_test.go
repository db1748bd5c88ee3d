package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/slayergit/internal/git"
	"github.com/five82/slayergit/internal/prefs"
	"github.com/five82/slayergit/internal/refresh"
	"github.com/five82/slayergit/internal/state"
)

type fakeRepo struct {
	mu        sync.Mutex
	staged    []string
	unstaged  []string
	commits   []string
	checkouts []string
	stashes   []string
	dropped   []int
	err       error
}

func (f *fakeRepo) record(list *[]string, v string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	*list = append(*list, v)
	return f.err
}

func (f *fakeRepo) Stage(_ context.Context, path string) error   { return f.record(&f.staged, path) }
func (f *fakeRepo) Unstage(_ context.Context, path string) error { return f.record(&f.unstaged, path) }
func (f *fakeRepo) Commit(_ context.Context, msg string) error   { return f.record(&f.commits, msg) }
func (f *fakeRepo) Checkout(_ context.Context, b string) error   { return f.record(&f.checkouts, b) }
func (f *fakeRepo) StashPush(_ context.Context, msg string) error {
	return f.record(&f.stashes, msg)
}
func (f *fakeRepo) StashDrop(_ context.Context, index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dropped = append(f.dropped, index)
	return f.err
}

type fakeRefresher struct {
	mu       sync.Mutex
	triggers []state.KindSet
}

func (f *fakeRefresher) Trigger(kinds state.KindSet) *refresh.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers = append(f.triggers, kinds)
	return nil
}

func (f *fakeRefresher) last() state.KindSet {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.triggers) == 0 {
		return 0
	}
	return f.triggers[len(f.triggers)-1]
}

type harness struct {
	model     Model
	repo      *fakeRepo
	refresher *fakeRefresher
	store     *state.Store
	prefsPath string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := state.NewStore()
	status := git.Status{
		Branch: "main",
		OID:    "abc123",
		Files: []git.FileStatus{
			{Path: "a.txt", Index: '.', Worktree: 'M'},
			{Path: "b.txt", Index: 'A', Worktree: '.'},
		},
	}
	mustWrite(t, store, state.Status, status)
	mustWrite(t, store, state.LocalBranches, []git.Branch{
		{Name: "main", Current: true, Subject: "init"},
		{Name: "topic", Ahead: 2, Subject: "wip"},
	})
	mustWrite(t, store, state.Stashes, []git.Stash{
		{Index: 0, Ref: "stash@{0}", Message: "On main: parked"},
		{Index: 1, Ref: "stash@{1}", Message: "On main: older"},
	})

	h := &harness{
		repo:      &fakeRepo{},
		refresher: &fakeRefresher{},
		store:     store,
		prefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	}
	h.model = New(Options{
		Repo:      h.repo,
		Store:     store,
		Refresher: h.refresher,
		PrefsPath: h.prefsPath,
	})
	return h
}

func changed(kinds ...state.Kind) refresh.Notification {
	set := state.NewKindSet(kinds...)
	return refresh.Notification{Kinds: set, Changed: set}
}

func mustWrite(t *testing.T, s *state.Store, k state.Kind, v any) {
	t.Helper()
	if err := s.Write(k, v); err != nil {
		t.Fatalf("Write(%s): %v", k, err)
	}
}

func (h *harness) press(keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "f5":
			msg = tea.KeyMsg{Type: tea.KeyF5}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, c := h.model.Update(msg)
		h.model = next.(Model)
		cmd = c
	}
	return cmd
}

func (h *harness) send(msg tea.Msg) {
	next, _ := h.model.Update(msg)
	h.model = next.(Model)
}

// run executes a command and feeds its message back into the model.
func (h *harness) run(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg := cmd()
	h.send(msg)
	return msg
}

func TestModel_FocusKeysPersistWindow(t *testing.T) {
	h := newHarness(t)

	h.press("2")
	if h.model.layout.Focused() != 2 || h.model.layout.ActiveTab() != TabCommits {
		t.Fatalf("focus = %d/%s, want 2/Commits", h.model.layout.Focused(), h.model.layout.ActiveTab())
	}
	h.press("2")
	if h.model.layout.ActiveTab() != TabBranches {
		t.Fatalf("tab = %s, want Branches", h.model.layout.ActiveTab())
	}

	p, err := prefs.Load(h.prefsPath)
	if err != nil {
		t.Fatalf("prefs.Load: %v", err)
	}
	if p.FocusedWindow != 2 {
		t.Fatalf("saved FocusedWindow = %d, want 2", p.FocusedWindow)
	}
}

func TestModel_StartsOnSavedWindow(t *testing.T) {
	m := New(Options{FocusedWindow: 3, PrefsPath: filepath.Join(t.TempDir(), "p.toml")})
	if m.layout.Focused() != 3 {
		t.Fatalf("Focused() = %d, want 3", m.layout.Focused())
	}
	m = New(Options{FocusedWindow: 7, PrefsPath: filepath.Join(t.TempDir(), "p.toml")})
	if m.layout.Focused() != 1 {
		t.Fatalf("Focused() with out-of-range pref = %d, want 1", m.layout.Focused())
	}
}

func TestModel_ThemeCyclePersists(t *testing.T) {
	h := newHarness(t)
	h.press("T")
	if h.model.theme.Name != "Slate" {
		t.Fatalf("theme = %s, want Slate", h.model.theme.Name)
	}
	p, err := prefs.Load(h.prefsPath)
	if err != nil {
		t.Fatalf("prefs.Load: %v", err)
	}
	if p.Theme != "Slate" {
		t.Fatalf("saved theme = %q, want Slate", p.Theme)
	}
}

func TestModel_StageTriggersStatusRefresh(t *testing.T) {
	h := newHarness(t)

	msg := h.run(t, h.press("enter"))
	done, ok := msg.(mutationDoneMsg)
	if !ok || done.err != nil {
		t.Fatalf("msg = %#v, want successful mutationDoneMsg", msg)
	}
	if len(h.repo.staged) != 1 || h.repo.staged[0] != "a.txt" {
		t.Fatalf("staged = %v, want [a.txt]", h.repo.staged)
	}
	if got := h.refresher.last(); got != stageKinds {
		t.Fatalf("triggered %s, want %s", got, stageKinds)
	}
	if h.model.message != "stage a.txt done" || h.model.messageErr {
		t.Fatalf("message = %q (err=%v)", h.model.message, h.model.messageErr)
	}
}

func TestModel_UnstageFromStagedTab(t *testing.T) {
	h := newHarness(t)
	h.press("tab")
	h.run(t, h.press("enter"))
	if len(h.repo.unstaged) != 1 || h.repo.unstaged[0] != "b.txt" {
		t.Fatalf("unstaged = %v, want [b.txt]", h.repo.unstaged)
	}
}

func TestModel_FailedMutationStillRefreshes(t *testing.T) {
	h := newHarness(t)
	h.repo.err = errors.New("index.lock exists\nmore detail")

	h.run(t, h.press("enter"))
	if got := h.refresher.last(); got != stageKinds {
		t.Fatalf("triggered %s, want %s", got, stageKinds)
	}
	if !h.model.messageErr || h.model.message != "stage a.txt failed: index.lock exists" {
		t.Fatalf("message = %q (err=%v)", h.model.message, h.model.messageErr)
	}
}

func TestModel_CommitFlow(t *testing.T) {
	h := newHarness(t)

	h.press("c")
	if h.model.input != inputCommit {
		t.Fatalf("input = %v, want commit prompt", h.model.input)
	}
	// Keys go to the prompt, not the key map.
	h.press("q", "u", "i", "c", "k")
	if h.model.input != inputCommit {
		t.Fatal("typing in the prompt triggered a global binding")
	}

	h.run(t, h.press("enter"))
	if len(h.repo.commits) != 1 || h.repo.commits[0] != "quick" {
		t.Fatalf("commits = %v, want [quick]", h.repo.commits)
	}
	if got := h.refresher.last(); got != commitKinds {
		t.Fatalf("triggered %s, want %s", got, commitKinds)
	}
}

func TestModel_CommitCancelled(t *testing.T) {
	h := newHarness(t)
	h.press("c", "x", "esc")
	if h.model.input != inputNone {
		t.Fatal("esc did not close the prompt")
	}
	if len(h.repo.commits) != 0 {
		t.Fatalf("commits = %v, want none", h.repo.commits)
	}
}

func TestModel_CommitNeedsStagedChanges(t *testing.T) {
	h := newHarness(t)
	mustWrite(t, h.store, state.Status, git.Status{Branch: "main"})
	h.send(refreshedMsg{tab: TabStatus, note: changed(state.Status)})

	h.press("c")
	if h.model.input != inputNone || !h.model.messageErr {
		t.Fatalf("input = %v, message = %q; want an error and no prompt", h.model.input, h.model.message)
	}
}

func TestModel_CheckoutBranch(t *testing.T) {
	h := newHarness(t)
	h.press("2", "2") // Branches

	// Cursor starts on the current branch.
	if cmd := h.press("enter"); cmd != nil {
		t.Fatal("checking out the current branch should be a no-op")
	}

	h.press("j")
	h.run(t, h.press("enter"))
	if len(h.repo.checkouts) != 1 || h.repo.checkouts[0] != "topic" {
		t.Fatalf("checkouts = %v, want [topic]", h.repo.checkouts)
	}
	if got := h.refresher.last(); got != checkoutKinds {
		t.Fatalf("triggered %s, want %s", got, checkoutKinds)
	}
}

func TestModel_StashPushAndDrop(t *testing.T) {
	h := newHarness(t)

	h.press("s")
	h.run(t, h.press("enter"))
	if len(h.repo.stashes) != 1 || h.repo.stashes[0] != "" {
		t.Fatalf("stashes = %q, want one push with an empty message", h.repo.stashes)
	}
	if got := h.refresher.last(); got != stashKinds {
		t.Fatalf("triggered %s, want %s", got, stashKinds)
	}

	h.press("3", "G")
	h.run(t, h.press("d"))
	if len(h.repo.dropped) != 1 || h.repo.dropped[0] != 1 {
		t.Fatalf("dropped = %v, want [1]", h.repo.dropped)
	}
}

func TestModel_DropIgnoredOutsideStashTab(t *testing.T) {
	h := newHarness(t)
	if cmd := h.press("d"); cmd != nil {
		t.Fatal("d outside the Stashes tab should do nothing")
	}
}

func TestModel_RefreshKeyTriggersAll(t *testing.T) {
	h := newHarness(t)
	cmd := h.press("f5")
	if h.model.message != refreshingMessage {
		t.Fatalf("message = %q, want %q", h.model.message, refreshingMessage)
	}
	cmd()
	if got := h.refresher.last(); got != state.All {
		t.Fatalf("triggered %s, want all", got)
	}

	h.send(cycleMsg(refresh.Notification{Changed: state.All, Kinds: state.All}))
	if h.model.message != "" {
		t.Fatalf("message after cycle = %q, want cleared", h.model.message)
	}
}

func TestModel_CycleMsgTakesSnapshot(t *testing.T) {
	h := newHarness(t)
	mustWrite(t, h.store, state.Commits, []git.Commit{{Hash: "deadbeef", ShortHash: "deadbee", Subject: "later"}})
	h.store.MarkFailed(state.Tags, errors.New("tags broke"))

	h.send(cycleMsg(refresh.Notification{
		Changed:   state.NewKindSet(state.Commits),
		Failed:    state.NewKindSet(state.Tags),
		AnyFailed: true,
		Duration:  12 * time.Millisecond,
	}))

	if len(h.model.snapshot.Commits) != 1 {
		t.Fatalf("snapshot commits = %d, want 1", len(h.model.snapshot.Commits))
	}
	if err := h.model.panelError(TabTags); err == nil || !strings.Contains(err.Error(), "tags broke") {
		t.Fatalf("panelError(Tags) = %v, want tags broke", err)
	}
	if h.model.lastCycle == nil || h.model.lastCycle.Duration != 12*time.Millisecond {
		t.Fatalf("lastCycle = %+v", h.model.lastCycle)
	}
}

func TestModel_CursorClampedAfterShrink(t *testing.T) {
	h := newHarness(t)
	h.press("3", "G")
	if h.model.cursors[TabStashes] != 1 {
		t.Fatalf("cursor = %d, want 1", h.model.cursors[TabStashes])
	}
	mustWrite(t, h.store, state.Stashes, []git.Stash{{Index: 0, Message: "only"}})
	h.send(refreshedMsg{tab: TabStashes, note: changed(state.Stashes)})
	if h.model.cursors[TabStashes] != 0 {
		t.Fatalf("cursor after shrink = %d, want 0", h.model.cursors[TabStashes])
	}
}

func TestModel_BusyMsgStartsSpinner(t *testing.T) {
	h := newHarness(t)
	next, cmd := h.model.Update(busyMsg(true))
	h.model = next.(Model)
	if !h.model.busy || cmd == nil {
		t.Fatal("busy=true should start the spinner")
	}
	h.send(busyMsg(false))
	if h.model.busy {
		t.Fatal("busy=false not applied")
	}
}

func TestModel_ViewRendersWindows(t *testing.T) {
	h := newHarness(t)
	if got := h.model.View(); got != "Loading..." {
		t.Fatalf("View before size = %q", got)
	}
	h.send(tea.WindowSizeMsg{Width: 120, Height: 30})

	view := h.model.View()
	for _, want := range []string{"slayergit", "Status", "Commits", "Stashes", "a.txt", "main"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	h.press("?")
	if !strings.Contains(h.model.View(), "Keyboard Shortcuts") {
		t.Fatal("help overlay not shown")
	}
	h.press("x")
	if h.model.showHelp {
		t.Fatal("any key should close help")
	}
}

func TestModel_LogLines(t *testing.T) {
	h := newHarness(t)
	h.send(tea.WindowSizeMsg{Width: 120, Height: 30})
	h.send(logLinesMsg{lines: []string{"2025-10-08 21:01:05 [INFO] [refresh] refresh complete cycle=abc"}})
	if !strings.Contains(h.model.renderLogLines(), "refresh complete") {
		t.Fatal("log line not rendered")
	}
}

func TestCycleSummary(t *testing.T) {
	tests := []struct {
		failed state.KindSet
		want   string
	}{
		{0, "last refresh: 5ms"},
		{state.NewKindSet(state.Tags), "last refresh: 5ms, 1 kind failed"},
		{state.NewKindSet(state.Tags, state.Reflog), "last refresh: 5ms, 2 kinds failed"},
	}
	for _, tt := range tests {
		got := cycleSummary(refresh.Notification{Failed: tt.failed, Duration: 5 * time.Millisecond})
		if got != tt.want {
			t.Errorf("cycleSummary(%s) = %q, want %q", tt.failed, got, tt.want)
		}
	}
}

func TestModel_TabRefreshTouchesOnlyItsKinds(t *testing.T) {
	h := newHarness(t)
	mustWrite(t, h.store, state.Status, git.Status{Branch: "changed-elsewhere"})
	mustWrite(t, h.store, state.Tags, []git.Tag{{Name: "v1.0.0"}})

	h.send(refreshedMsg{tab: TabTags, note: changed(state.Tags)})

	if h.model.snapshot.Status.Branch != "main" {
		t.Fatalf("status branch = %q, want main until the status tab is notified", h.model.snapshot.Status.Branch)
	}
	if rows := h.model.panels[TabTags].rows; len(rows) != 1 || rows[0].key != "v1.0.0" {
		t.Fatalf("tags rows = %+v, want v1.0.0", rows)
	}
	if rows := h.model.panels[TabStatus].rows; len(rows) != 1 || rows[0].key != "a.txt" {
		t.Fatalf("status rows = %+v, want the original a.txt row", rows)
	}
}

func TestModel_TabRecordsItsFailures(t *testing.T) {
	h := newHarness(t)
	tags := state.NewKindSet(state.Tags)
	h.send(refreshedMsg{tab: TabTags, note: refresh.Notification{
		Kinds:     tags,
		Failed:    tags,
		AnyFailed: true,
		Errors:    map[state.Kind]error{state.Tags: errors.New("tags broke")},
	}})

	if err := h.model.panelError(TabTags); err == nil || err.Error() != "tags broke" {
		t.Fatalf("panelError(Tags) = %v, want tags broke", err)
	}
	if err := h.model.panelError(TabCommits); err != nil {
		t.Fatalf("panelError(Commits) = %v, want nil", err)
	}

	mustWrite(t, h.store, state.Tags, []git.Tag{{Name: "v2"}})
	h.send(refreshedMsg{tab: TabTags, note: changed(state.Tags)})
	if err := h.model.panelError(TabTags); err != nil {
		t.Fatalf("panelError after recovery = %v, want nil", err)
	}
}

func TestSubscribe_RoutesKindsToTabs(t *testing.T) {
	reg := refresh.NewRegistry()
	var msgs []tea.Msg
	if err := Subscribe(reg, func(msg tea.Msg) { msgs = append(msgs, msg) }); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	reg.Notify(refresh.Outcome{Cycle: "c1", Changed: state.NewKindSet(state.Tags)})
	if len(msgs) != 2 {
		t.Fatalf("got %d messages for a tags-only cycle, want 2: %+v", len(msgs), msgs)
	}
	tm, ok := msgs[0].(refreshedMsg)
	if !ok || tm.tab != TabTags || tm.note.Changed != state.NewKindSet(state.Tags) {
		t.Fatalf("first message = %+v, want the tags tab", msgs[0])
	}
	if cm, ok := msgs[1].(cycleMsg); !ok || cm.Cycle != "c1" {
		t.Fatalf("second message = %+v, want the status bar cycle", msgs[1])
	}

	msgs = nil
	reg.Notify(refresh.Outcome{Cycle: "c2", Changed: state.NewKindSet(state.Status)})
	var tabs []Tab
	for _, msg := range msgs {
		if tm, ok := msg.(refreshedMsg); ok {
			tabs = append(tabs, tm.tab)
		}
	}
	if len(tabs) != 2 || tabs[0] != TabStatus || tabs[1] != TabStaged {
		t.Fatalf("status cycle reached tabs %v, want [Status Staged]", tabs)
	}
	if _, ok := msgs[len(msgs)-1].(cycleMsg); !ok {
		t.Fatal("status bar not notified last")
	}
}
