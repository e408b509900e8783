package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/tOgg1/wirewave/internal/messenger"
)

func (m *Model) renderHeader(top screen) string {
	left := "WireWave · " + top.title()
	right := m.self()
	if m.inbox != nil {
		if n := m.inbox.UnreadTotal(); n > 0 {
			right = fmt.Sprintf("%d unread  %s", n, right)
		}
	}
	return m.st.header.Width(max(0, m.width)).Render(joinEnds(left, right, max(0, m.width-2)))
}

func (m *Model) renderFooter(top screen) string {
	if m.toastShown {
		style := m.st.success
		switch m.toast.Level {
		case messenger.LevelError:
			style = m.st.failure
		case messenger.LevelInfo:
			style = m.st.accent
		}
		return m.st.footer.Width(max(0, m.width)).Render(style.Render(clip(m.toast.Text, max(0, m.width-2))))
	}
	return m.st.footer.Width(max(0, m.width)).Render(clip(top.help(), max(0, m.width-2)))
}

// joinEnds places left and right at the two ends of a width-wide line.
func joinEnds(left, right string, width int) string {
	if width <= 0 {
		return left
	}
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return clip(left, width)
	}
	return left + strings.Repeat(" ", gap) + right
}

// clip truncates s to width display columns.
func clip(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// window returns the [start, end) range of n rows that keeps cursor
// visible within height rows.
func window(n, cursor, height int) (int, int) {
	if height <= 0 || n <= height {
		return 0, n
	}
	start := cursor - height/2
	start = max(0, min(start, n-height))
	return start, start + height
}
