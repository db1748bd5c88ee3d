package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/slayergit/internal/logtail"
)

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the width below which key hints are hidden.
	LayoutCompactWidth = 100

	// leftColumnMin is the minimum width of the Files/Stash column.
	leftColumnMin = 30
)

// renderMain lays out window 1 above window 3 on the left and window 2 on
// the right, with the status bar below.
func (m Model) renderMain() string {
	left := lipgloss.JoinVertical(lipgloss.Left, m.renderWindow(0), m.renderWindow(2))
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, m.renderWindow(1))
	return body + "\n" + m.renderStatusBar()
}

// windowSize returns the outer size of window idx, borders included.
func (m Model) windowSize(idx int) (int, int) {
	height := max(m.height-1, 2)
	left := m.width * 2 / 5
	if left < leftColumnMin {
		left = min(leftColumnMin, m.width)
	}
	top := height / 2
	switch idx {
	case 0:
		return left, top
	case 1:
		return max(m.width-left, 0), height
	default:
		return left, height - top
	}
}

func (m Model) renderWindow(idx int) string {
	styles := m.theme.Styles()
	w, h := m.windowSize(idx)
	innerW, innerH := max(w-2, 1), max(h-2, 1)

	win := m.layout.windows[idx]
	focused := idx == m.layout.focused
	tab := win.activeTab()

	lines := []string{m.renderTabBar(idx, win, styles)}
	if err := m.panelError(tab); err != nil {
		badge := styles.Badge("stale").Render("stale")
		lines = append(lines, badge+" "+styles.DangerText.Render(truncate(firstLine(err.Error()), innerW-8)))
	}
	bodyH := max(innerH-len(lines), 0)

	if tab == TabLog {
		lines = append(lines, m.logViewport.View())
	} else {
		lines = append(lines, m.renderRows(tab, focused, innerW, bodyH, styles)...)
	}

	frame := styles.Window
	if focused {
		frame = styles.FocusedWindow
	}
	return frame.Width(innerW).Height(innerH).MaxHeight(h).Render(strings.Join(lines, "\n"))
}

func (m Model) renderTabBar(idx int, win window, styles Styles) string {
	parts := []string{styles.AccentText.Render(fmt.Sprintf("[%d]", idx+1))}
	for i, t := range win.tabs {
		if i == win.active {
			parts = append(parts, styles.ActiveTab.Render(t.String()))
		} else {
			parts = append(parts, styles.InactiveTab.Render(t.String()))
		}
	}
	return strings.Join(parts, "")
}

// renderRows renders the visible slice of the tab's rows, scrolled so the
// cursor stays on screen.
func (m Model) renderRows(tab Tab, focused bool, width, height int, styles Styles) []string {
	rows := m.panels[tab].rows
	if len(rows) == 0 {
		return []string{styles.MutedText.Render(emptyText(tab, m.snapshot))}
	}

	cursor := m.cursors[tab]
	start := max(cursor-height+1, 0)
	end := min(start+height, len(rows))

	out := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		if focused && i == cursor {
			out = append(out, styles.Selected.Render(padRight(truncate(rows[i].plain(), width), width)))
			continue
		}
		out = append(out, renderRow(rows[i], width, styles))
	}
	return out
}

func renderRow(r row, width int, styles Styles) string {
	var b strings.Builder
	remaining := width
	for i, s := range r.spans {
		if remaining <= 0 {
			break
		}
		if i > 0 {
			b.WriteString(" ")
			remaining--
		}
		text := truncate(s.text, remaining)
		remaining -= len([]rune(text))
		if s.role == "" {
			b.WriteString(styles.Text.Render(text))
		} else {
			b.WriteString(styles.Role(s.role).Render(text))
		}
	}
	return b.String()
}

// renderLogLines styles the tail of the application log for the Log tab.
func (m Model) renderLogLines() string {
	if len(m.logLines) == 0 {
		return m.theme.Styles().MutedText.Render("No log output yet")
	}
	styles := m.theme.Styles()
	out := make([]string, 0, len(m.logLines))
	for _, raw := range m.logLines {
		l := logtail.Parse(raw)
		if l.Level == "" {
			out = append(out, styles.Text.Render(l.Raw))
			continue
		}
		parts := make([]string, 0, 5)
		if l.Timestamp != "" {
			ts := l.Timestamp
			if len(ts) > 11 {
				ts = ts[11:]
			}
			parts = append(parts, styles.FaintText.Render(ts))
		}
		parts = append(parts, levelStyle(l.Level, styles).Render(padRight(l.Level, 5)))
		if l.Component != "" {
			parts = append(parts, styles.AccentText.Render(l.Component))
		}
		parts = append(parts, styles.Text.Render(l.Message))
		if l.Fields != "" {
			parts = append(parts, styles.MutedText.Render(l.Fields))
		}
		out = append(out, strings.Join(parts, " "))
	}
	return strings.Join(out, "\n")
}

func levelStyle(level string, styles Styles) lipgloss.Style {
	switch level {
	case "ERROR", "FATAL", "PANIC":
		return styles.DangerText
	case "WARN":
		return styles.WarningText
	case "INFO":
		return styles.InfoText
	}
	return styles.MutedText
}
