package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// textInput is a single-line editor fed with key messages.
type textInput struct {
	value  []rune
	secret bool
	limit  int
}

func (t *textInput) String() string { return string(t.value) }

func (t *textInput) Set(s string) { t.value = []rune(s) }

func (t *textInput) Reset() { t.value = t.value[:0] }

func (t *textInput) Blank() bool { return strings.TrimSpace(string(t.value)) == "" }

// handle applies an editing key and reports whether the value changed.
func (t *textInput) handle(msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyBackspace:
		if len(t.value) == 0 {
			return false
		}
		t.value = t.value[:len(t.value)-1]
		return true
	case tea.KeyCtrlU:
		if len(t.value) == 0 {
			return false
		}
		t.value = t.value[:0]
		return true
	case tea.KeyCtrlW:
		s := strings.TrimRight(string(t.value), " ")
		if i := strings.LastIndex(s, " "); i >= 0 {
			s = s[:i+1]
		} else {
			s = ""
		}
		changed := s != string(t.value)
		t.value = []rune(s)
		return changed
	case tea.KeySpace:
		return t.insert([]rune{' '})
	case tea.KeyRunes:
		return t.insert(msg.Runes)
	}
	return false
}

func (t *textInput) insert(r []rune) bool {
	if len(r) == 0 {
		return false
	}
	if t.limit > 0 && len(t.value)+len(r) > t.limit {
		return false
	}
	t.value = append(t.value, r...)
	return true
}

// view renders the value with a cursor; secrets are masked.
func (t *textInput) view(focused bool) string {
	s := string(t.value)
	if t.secret {
		s = strings.Repeat("•", len(t.value))
	}
	if focused {
		s += "▏"
	}
	return s
}

// slashCommand splits "/name arg" input. ok is false for plain text.
func slashCommand(input string) (name, arg string, ok bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") || strings.HasPrefix(input, "//") {
		return "", "", false
	}
	name, arg, _ = strings.Cut(input[1:], " ")
	return strings.ToLower(name), strings.TrimSpace(arg), name != ""
}
