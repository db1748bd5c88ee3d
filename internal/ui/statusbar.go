package ui

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/five82/slayergit/internal/refresh"
	"github.com/five82/slayergit/internal/state"
)

// renderStatusBar renders the bottom line: branch, refresh state, the last
// message and key hints. While a prompt is open it shows the prompt instead.
func (m Model) renderStatusBar() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	if m.input != inputNone {
		label := "Commit:"
		if m.input == inputStash {
			label = "Stash:"
		}
		return styles.StatusBar.Width(m.width).Render(
			bg.Render(label, styles.AccentText.Bold(true)) + bg.Spaces(1) + m.textInput.View(),
		)
	}

	parts := []string{
		bg.Render("slayergit", styles.Logo),
		m.repoLabel(bg, styles),
		m.branchLabel(bg, styles),
		m.refreshLabel(bg, styles),
	}
	if m.message != "" {
		style := styles.InfoText
		if m.messageErr {
			style = styles.DangerText
		}
		parts = append(parts, bg.Render(truncate(m.message, 60), style))
	}
	if m.width >= LayoutCompactWidth {
		parts = append(parts, m.help.ShortHelpView(m.keys.ShortHelp()))
	}
	return styles.StatusBar.Width(m.width).MaxHeight(1).Render(bg.Join(parts, "  "))
}

func (m Model) repoLabel(bg BgStyle, styles Styles) string {
	if m.repoRoot == "" {
		return ""
	}
	return bg.Render(truncateMiddle(filepath.Base(m.repoRoot), 24), styles.MutedText)
}

func (m Model) branchLabel(bg BgStyle, styles Styles) string {
	if !m.snapshot.Loaded(state.Status) {
		return ""
	}
	st := m.snapshot.Status
	label := bg.Render(st.Branch, styles.Role("current"))
	switch {
	case st.Ahead > 0 && st.Behind > 0:
		label += bg.Render(fmt.Sprintf(" ↑%d ↓%d", st.Ahead, st.Behind), styles.Role("remote"))
	case st.Ahead > 0:
		label += bg.Render(fmt.Sprintf(" ↑%d", st.Ahead), styles.Role("remote"))
	case st.Behind > 0:
		label += bg.Render(fmt.Sprintf(" ↓%d", st.Behind), styles.Role("remote"))
	}
	return label
}

func (m Model) refreshLabel(bg BgStyle, styles Styles) string {
	if m.busy {
		elapsed := time.Duration(0)
		if !m.busySince.IsZero() {
			elapsed = time.Since(m.busySince)
		}
		return bg.Render(m.spinner.View()+" loading "+humanizeDuration(elapsed), styles.WarningText)
	}
	if m.lastCycle == nil {
		return ""
	}
	style := styles.MutedText
	if m.lastCycle.AnyFailed {
		style = styles.DangerText
	}
	return bg.Render(cycleSummary(*m.lastCycle), style)
}

// cycleSummary renders "last refresh: 12ms" with a failure count when any
// kind failed.
func cycleSummary(n refresh.Notification) string {
	s := fmt.Sprintf("last refresh: %dms", n.Duration.Milliseconds())
	switch failed := n.Failed.Len(); {
	case failed == 1:
		s += ", 1 kind failed"
	case failed > 1:
		s += fmt.Sprintf(", %d kinds failed", failed)
	}
	return s
}
