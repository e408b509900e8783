package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme names accepted by the tui.theme setting.
const (
	ThemeDefault      = "default"
	ThemeHighContrast = "high-contrast"
)

// palette holds the ANSI-256 color tokens of a theme.
type palette struct {
	Background string
	Foreground string
	Muted      string
	Accent     string
	Border     string
	Header     string
	Footer     string
	Selected   string
	Own        string
	System     string
	Unread     string
	Star       string
	Success    string
	Error      string
}

var palettes = map[string]palette{
	ThemeDefault: {
		Background: "234",
		Foreground: "252",
		Muted:      "245",
		Accent:     "75",
		Border:     "240",
		Header:     "24",
		Footer:     "236",
		Selected:   "237",
		Own:        "81",
		System:     "214",
		Unread:     "203",
		Star:       "220",
		Success:    "41",
		Error:      "203",
	},
	ThemeHighContrast: {
		Background: "16",
		Foreground: "231",
		Muted:      "250",
		Accent:     "51",
		Border:     "231",
		Header:     "21",
		Footer:     "16",
		Selected:   "238",
		Own:        "51",
		System:     "226",
		Unread:     "196",
		Star:       "226",
		Success:    "46",
		Error:      "196",
	},
}

func paletteFor(theme string) palette {
	if p, ok := palettes[theme]; ok {
		return p
	}
	return palettes[ThemeDefault]
}

// styles are the rendered lipgloss styles of one palette.
type styles struct {
	p palette

	header   lipgloss.Style
	footer   lipgloss.Style
	muted    lipgloss.Style
	accent   lipgloss.Style
	selected lipgloss.Style
	own      lipgloss.Style
	system   lipgloss.Style
	unread   lipgloss.Style
	star     lipgloss.Style
	border   lipgloss.Style
	success  lipgloss.Style
	failure  lipgloss.Style
}

func newStyles(theme string) styles {
	p := paletteFor(theme)
	fg := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }
	return styles{
		p: p,
		header: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Foreground)).
			Background(lipgloss.Color(p.Header)).
			Bold(true).
			Padding(0, 1),
		footer: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Muted)).
			Background(lipgloss.Color(p.Footer)).
			Padding(0, 1),
		muted:    fg(p.Muted),
		accent:   fg(p.Accent).Bold(true),
		selected: lipgloss.NewStyle().Background(lipgloss.Color(p.Selected)).Bold(true),
		own:      fg(p.Own),
		system:   fg(p.System).Italic(true),
		unread:   fg(p.Unread).Bold(true),
		star:     fg(p.Star),
		border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(p.Border)).
			Padding(0, 1),
		success: fg(p.Success).Bold(true),
		failure: fg(p.Error).Bold(true),
	}
}

// senderHue hashes a sender address into a hue in [0, 360).
func senderHue(email string) int {
	var h uint32
	for _, c := range email {
		h = h*31 + uint32(c)
	}
	return int(h % 360)
}

// SenderColor returns the stable display color for a sender:
// hsl(hue, 55%, 70%) as a hex string.
func SenderColor(email string) string {
	return hslToHex(float64(senderHue(strings.ToLower(strings.TrimSpace(email)))), 0.55, 0.70)
}

func hslToHex(h, s, l float64) string {
	c := (1 - math.Abs(2*l-1)) * s
	hp := h / 60
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))
	var r, g, b float64
	switch {
	case hp < 1:
		r, g, b = c, x, 0
	case hp < 2:
		r, g, b = x, c, 0
	case hp < 3:
		r, g, b = 0, c, x
	case hp < 4:
		r, g, b = 0, x, c
	case hp < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	m := l - c/2
	to := func(v float64) int { return int(math.Round((v + m) * 255)) }
	return fmt.Sprintf("#%02x%02x%02x", to(r), to(g), to(b))
}

func senderStyle(email string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(SenderColor(email))).Bold(true)
}
