package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/slayergit/internal/git"
	"github.com/five82/slayergit/internal/logtail"
	"github.com/five82/slayergit/internal/prefs"
	"github.com/five82/slayergit/internal/refresh"
	"github.com/five82/slayergit/internal/state"
)

// Kinds refreshed after each mutating command.
var (
	stageKinds    = state.NewKindSet(state.Status)
	commitKinds   = state.NewKindSet(state.Status, state.Commits, state.Reflog, state.LocalBranches)
	checkoutKinds = state.NewKindSet(state.Status, state.LocalBranches, state.Commits, state.Reflog)
	stashKinds    = state.NewKindSet(state.Status, state.Stashes, state.Reflog)
)

// logTailLines bounds how much of the application log the Log tab loads.
const logTailLines = 500

// Refresher schedules refresh cycles without waiting for them.
type Refresher interface {
	Trigger(kinds state.KindSet) *refresh.Handle
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Repo      git.Mutator
	Store     *state.Store
	Registry  *refresh.Registry
	Refresher Refresher
	RepoRoot  string
	LogPath   string
	ThemeName string
	// FocusedWindow is the 1-based window focused on startup.
	FocusedWindow int
	PrefsPath     string
}

type inputMode int

const (
	inputNone inputMode = iota
	inputCommit
	inputStash
)

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	repo      git.Mutator
	store     *state.Store
	refresher Refresher
	repoRoot  string
	logPath   string
	prefsPath string

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	theme   Theme
	layout  layout
	width   int
	height  int
	ready   bool

	snapshot  state.Snapshot
	panels    [numTabs]panel
	cursors   [numTabs]int
	busy      bool
	busySince time.Time
	lastCycle *refresh.Notification

	message    string
	messageErr bool
	showHelp   bool

	input     inputMode
	textInput textinput.Model

	logViewport viewport.Model
	logLines    []string
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = prefs.Defaults().Theme
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	l := defaultLayout()
	if n := opts.FocusedWindow; n >= 1 && n <= len(l.windows) {
		l.focused = n - 1
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ti := textinput.New()
	ti.CharLimit = 500

	m := Model{
		ctx:         ctx,
		repo:        opts.Repo,
		store:       opts.Store,
		refresher:   opts.Refresher,
		repoRoot:    opts.RepoRoot,
		logPath:     opts.LogPath,
		prefsPath:   prefsPath,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		spinner:     sp,
		theme:       GetTheme(themeName),
		layout:      l,
		textInput:   ti,
		logViewport: viewport.New(0, 0),
	}
	if m.store != nil {
		m.snapshot = m.store.Snapshot()
		m.busy, m.busySince = m.snapshot.Busy, m.snapshot.BusySince
	}
	m.invalidate(state.All)
	return m
}

// Init implements tea.Model. It schedules the first full refresh.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.triggerCmd(state.All),
		m.loadLogCmd(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.resizeLogViewport()
		return m, nil

	case refreshedMsg:
		m.applyTabRefresh(msg.tab, msg.note)
		return m, nil

	case cycleMsg:
		n := refresh.Notification(msg)
		m.lastCycle = &n
		m.takeSnapshot()
		if m.message == refreshingMessage {
			m.message = ""
		}
		if m.layout.Visible(TabLog) {
			return m, m.loadLogCmd()
		}
		return m, nil

	case busyMsg:
		m.busy = bool(msg)
		if m.busy {
			m.busySince = time.Now()
			if m.store != nil {
				_, m.busySince = m.store.Busy().State()
			}
			return m, m.spinner.Tick
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case mutationDoneMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("%s failed: %s", msg.label, firstLine(msg.err.Error())))
		} else {
			m.setMessage(msg.label + " done")
		}
		return m, nil

	case logLinesMsg:
		if msg.err != nil {
			m.logLines = []string{"cannot read log: " + msg.err.Error()}
		} else {
			m.logLines = msg.lines
		}
		m.logViewport.SetContent(m.renderLogLines())
		m.logViewport.GotoBottom()
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

func (m *Model) setMessage(text string) {
	m.message = text
	m.messageErr = false
}

func (m *Model) setError(text string) {
	m.message = text
	m.messageErr = true
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.input != inputNone {
		return m.handleInputKey(msg)
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.setMessage(refreshingMessage)
		return m, m.triggerCmd(state.All)

	case key.Matches(msg, m.keys.FocusWindow):
		n, _ := strconv.Atoi(msg.String())
		m.layout.FocusWindow(n)
		cmd := m.afterFocusChange()
		return m, cmd

	case key.Matches(msg, m.keys.NextWindow):
		m.layout.NextWindow()
		cmd := m.afterFocusChange()
		return m, cmd

	case key.Matches(msg, m.keys.PrevWindow):
		m.layout.PrevWindow()
		cmd := m.afterFocusChange()
		return m, cmd

	case key.Matches(msg, m.keys.NextTab):
		m.layout.NextTab()
		cmd := m.afterFocusChange()
		return m, cmd

	case key.Matches(msg, m.keys.PrevTab):
		m.layout.PrevTab()
		cmd := m.afterFocusChange()
		return m, cmd
	}

	if m.layout.ActiveTab() == TabLog {
		var cmd tea.Cmd
		m.logViewport, cmd = m.logViewport.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Top):
		m.cursors[m.layout.ActiveTab()] = 0
	case key.Matches(msg, m.keys.Bottom):
		m.moveCursor(len(m.panels[m.layout.ActiveTab()].rows))
	case key.Matches(msg, m.keys.HalfPageDown):
		m.moveCursor(m.pageSize() / 2)
	case key.Matches(msg, m.keys.HalfPageUp):
		m.moveCursor(-m.pageSize() / 2)
	case key.Matches(msg, m.keys.Select):
		return m.handleSelect()
	case key.Matches(msg, m.keys.Commit):
		if len(m.snapshot.Status.Staged()) == 0 {
			m.setError("nothing staged to commit")
			return m, nil
		}
		cmd := m.startInput(inputCommit, "commit message")
		return m, cmd
	case key.Matches(msg, m.keys.StashPush):
		if !m.snapshot.Status.IsDirty() {
			m.setError("no local changes to stash")
			return m, nil
		}
		cmd := m.startInput(inputStash, "stash message (optional)")
		return m, cmd
	case key.Matches(msg, m.keys.StashDrop):
		return m.handleStashDrop()
	}
	return m, nil
}

// afterFocusChange loads the log when the Log tab becomes visible.
func (m *Model) afterFocusChange() tea.Cmd {
	m.savePrefs()
	if m.layout.ActiveTab() == TabLog {
		return m.loadLogCmd()
	}
	return nil
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := prefs.Prefs{Theme: m.theme.Name, FocusedWindow: m.layout.Focused()}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.setError("save preferences: " + err.Error())
	}
}

func (m *Model) moveCursor(delta int) {
	tab := m.layout.ActiveTab()
	m.cursors[tab] += delta
	m.clampCursor(tab)
}

func (m *Model) clampCursor(tab Tab) {
	n := len(m.panels[tab].rows)
	switch {
	case n == 0 || m.cursors[tab] < 0:
		m.cursors[tab] = 0
	case m.cursors[tab] >= n:
		m.cursors[tab] = n - 1
	}
}

// selected returns the row under the cursor of the active tab.
func (m Model) selected() (row, bool) {
	tab := m.layout.ActiveTab()
	rows := m.panels[tab].rows
	i := m.cursors[tab]
	if i < 0 || i >= len(rows) {
		return row{}, false
	}
	return rows[i], true
}

func (m Model) handleSelect() (tea.Model, tea.Cmd) {
	r, ok := m.selected()
	if !ok || m.repo == nil {
		return m, nil
	}
	path := r.key
	switch m.layout.ActiveTab() {
	case TabStatus:
		return m, m.mutateCmd("stage "+path, stageKinds, func(ctx context.Context) error {
			return m.repo.Stage(ctx, path)
		})
	case TabStaged:
		return m, m.mutateCmd("unstage "+path, stageKinds, func(ctx context.Context) error {
			return m.repo.Unstage(ctx, path)
		})
	case TabBranches:
		if path == m.snapshot.Status.Branch {
			m.setMessage("already on " + path)
			return m, nil
		}
		return m, m.mutateCmd("checkout "+path, checkoutKinds, func(ctx context.Context) error {
			return m.repo.Checkout(ctx, path)
		})
	}
	return m, nil
}

func (m Model) handleStashDrop() (tea.Model, tea.Cmd) {
	if m.layout.ActiveTab() != TabStashes || m.repo == nil {
		return m, nil
	}
	r, ok := m.selected()
	if !ok {
		return m, nil
	}
	index, err := strconv.Atoi(r.key)
	if err != nil {
		return m, nil
	}
	return m, m.mutateCmd(fmt.Sprintf("drop stash@{%d}", index), stashKinds, func(ctx context.Context) error {
		return m.repo.StashDrop(ctx, index)
	})
}

func (m *Model) startInput(mode inputMode, placeholder string) tea.Cmd {
	m.input = mode
	m.textInput.Reset()
	m.textInput.Placeholder = placeholder
	return m.textInput.Focus()
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.input = inputNone
		m.textInput.Blur()
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		text := strings.TrimSpace(m.textInput.Value())
		mode := m.input
		m.input = inputNone
		m.textInput.Blur()
		if m.repo == nil {
			return m, nil
		}
		switch mode {
		case inputCommit:
			if text == "" {
				m.setError("empty commit message")
				return m, nil
			}
			return m, m.mutateCmd("commit", commitKinds, func(ctx context.Context) error {
				return m.repo.Commit(ctx, text)
			})
		case inputStash:
			return m, m.mutateCmd("stash", stashKinds, func(ctx context.Context) error {
				return m.repo.StashPush(ctx, text)
			})
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *Model) resizeLogViewport() {
	w, h := m.windowSize(2)
	m.logViewport.Width = max(w-2, 0)
	m.logViewport.Height = max(h-3, 0)
	m.logViewport.SetContent(m.renderLogLines())
}

func (m Model) pageSize() int {
	_, h := m.windowSize(m.layout.focused)
	return max(h-3, 2)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Messages

const refreshingMessage = "Refreshing repository data..."

// refreshedMsg carries the part of a cycle's outcome one tab subscribed to.
type refreshedMsg struct {
	tab  Tab
	note refresh.Notification
}

// cycleMsg carries the full outcome of a finished cycle.
type cycleMsg refresh.Notification

type busyMsg bool

type mutationDoneMsg struct {
	label string
	err   error
}

type logLinesMsg struct {
	lines []string
	err   error
}

// Commands

func (m Model) triggerCmd(kinds state.KindSet) tea.Cmd {
	r := m.refresher
	if r == nil {
		return nil
	}
	return func() tea.Msg {
		r.Trigger(kinds)
		return nil
	}
}

// mutateCmd runs fn off the UI loop, then asks for a refresh of kinds. The
// refresh is requested even when fn fails since git may have partially
// applied the change.
func (m Model) mutateCmd(label string, kinds state.KindSet, fn func(context.Context) error) tea.Cmd {
	ctx, r := m.ctx, m.refresher
	return func() tea.Msg {
		err := fn(ctx)
		if r != nil {
			r.Trigger(kinds)
		}
		return mutationDoneMsg{label: label, err: err}
	}
}

func (m Model) loadLogCmd() tea.Cmd {
	path := m.logPath
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		lines, err := logtail.Read(path, logTailLines)
		return logLinesMsg{lines: lines, err: err}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// is cancelled.
func Run(opts Options) error {
	InitializeTUI()

	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))

	if opts.Registry != nil {
		if err := Subscribe(opts.Registry, p.Send); err != nil {
			return err
		}
	}
	if opts.Store != nil {
		opts.Store.Busy().OnChange(func(busy bool) { p.Send(busyMsg(busy)) })
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
