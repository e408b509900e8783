package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func key(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func TestTextInputEditing(t *testing.T) {
	var in textInput
	require.True(t, in.Blank())

	require.True(t, in.handle(runes("héllo")))
	require.True(t, in.handle(key(tea.KeySpace)))
	require.True(t, in.handle(runes("world")))
	require.Equal(t, "héllo world", in.String())

	require.True(t, in.handle(key(tea.KeyBackspace)))
	require.Equal(t, "héllo worl", in.String())

	require.True(t, in.handle(key(tea.KeyCtrlW)))
	require.Equal(t, "héllo ", in.String())

	require.True(t, in.handle(key(tea.KeyCtrlU)))
	require.Equal(t, "", in.String())
	require.False(t, in.handle(key(tea.KeyBackspace)))
	require.False(t, in.handle(key(tea.KeyEnter)))
}

func TestTextInputLimitAndSecret(t *testing.T) {
	in := textInput{limit: 3, secret: true}
	require.True(t, in.handle(runes("abc")))
	require.False(t, in.handle(runes("d")))
	require.Equal(t, "•••", in.view(false))
	require.Equal(t, "•••▏", in.view(true))
}

func TestSlashCommand(t *testing.T) {
	name, arg, ok := slashCommand("  /Rename  Team Rocket ")
	require.True(t, ok)
	require.Equal(t, "rename", name)
	require.Equal(t, "Team Rocket", arg)

	name, arg, ok = slashCommand("/leave")
	require.True(t, ok)
	require.Equal(t, "leave", name)
	require.Empty(t, arg)

	_, _, ok = slashCommand("hello /there")
	require.False(t, ok)
	_, _, ok = slashCommand("//escaped")
	require.False(t, ok)
	_, _, ok = slashCommand("/")
	require.False(t, ok)
}
