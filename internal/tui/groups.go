package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tOgg1/wirewave/internal/messenger"
)

type groupsScreen struct {
	cursor int

	creating bool
	focus    int
	name     textInput
	members  textInput
}

func newGroupsScreen() *groupsScreen { return &groupsScreen{} }

func (s *groupsScreen) title() string { return "Groups" }

func (s *groupsScreen) help() string {
	if s.creating {
		return "tab switch field · enter create · esc cancel"
	}
	return "↑↓ move · enter open · c create · r refresh · esc back"
}

func (s *groupsScreen) update(m *Model, msg tea.KeyMsg) tea.Cmd {
	if m.groups == nil {
		return nil
	}
	if s.creating {
		return s.updateCreate(m, msg)
	}
	list := m.groups.List()
	switch msg.String() {
	case "esc", "q":
		m.pop()
	case "up", "k":
		s.cursor = max(0, s.cursor-1)
	case "down", "j":
		s.cursor = min(max(0, len(list)-1), s.cursor+1)
	case "enter":
		if s.cursor < len(list) {
			return m.openGroup(m.groups.Open(m.ctx, list[s.cursor]))
		}
	case "c":
		s.creating = true
		s.focus = 0
	case "r":
		m.groups.Trigger()
	}
	return nil
}

func (s *groupsScreen) updateCreate(m *Model, msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		s.creating = false
		return nil
	case tea.KeyTab, tea.KeyShiftTab:
		s.focus = 1 - s.focus
		return nil
	case tea.KeyEnter:
		name := strings.TrimSpace(s.name.String())
		if name == "" {
			return m.showToast(messenger.Notification{Level: messenger.LevelError, Text: "Group name is required"})
		}
		members := s.members.String()
		groups := m.groups
		var chat *messenger.GroupChat
		return m.action(func(ctx context.Context) error {
			var err error
			chat, err = groups.Create(ctx, name, members)
			return err
		}, func(m *Model) tea.Cmd {
			if chat == nil {
				return nil
			}
			s.creating = false
			s.name.Reset()
			s.members.Reset()
			return m.openGroup(chat)
		})
	}
	if s.focus == 0 {
		s.name.handle(msg)
	} else {
		s.members.handle(msg)
	}
	return nil
}

// openGroup pushes the screen of an opened group chat.
func (m *Model) openGroup(chat *messenger.GroupChat) tea.Cmd {
	m.push(newGroupChatScreen(chat))
	return tea.Batch(listenGroupChat(chat), m.action(func(ctx context.Context) error {
		_, err := chat.Info(ctx)
		return err
	}, nil))
}

func (s *groupsScreen) view(m *Model, width, height int) string {
	if m.groups == nil {
		return ""
	}
	if s.creating {
		label := func(i int, text string) string {
			if s.focus == i {
				return m.st.accent.Render("› " + text)
			}
			return m.st.muted.Render("  " + text)
		}
		return m.st.border.Width(min(64, max(20, width-4))).Render(strings.Join([]string{
			label(0, "Name"),
			"  " + s.name.view(s.focus == 0),
			"",
			label(1, "Members (comma or space separated emails)"),
			"  " + s.members.view(s.focus == 1),
		}, "\n"))
	}

	list := m.groups.List()
	if len(list) == 0 {
		if !m.groups.Loaded() {
			return m.st.muted.Render("Loading…")
		}
		return m.st.muted.Render("No groups yet. Press c to create one.")
	}
	s.cursor = max(0, min(s.cursor, len(list)-1))
	self := m.self()
	var rows []string
	start, end := window(len(list), s.cursor, height)
	for i := start; i < end; i++ {
		g := list[i]
		owner := ""
		if g.OwnerEmail == self {
			owner = m.st.star.Render(" ★ owner")
		}
		line := senderStyle(g.DisplayName()).Render("# ") + g.DisplayName() + owner
		line = joinEnds(line, m.st.muted.Render(g.OwnerEmail), max(0, width-2))
		if i == s.cursor {
			line = m.st.selected.Render(line)
		}
		rows = append(rows, line)
	}
	return strings.Join(rows, "\n")
}
