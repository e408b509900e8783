package tui

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSenderHue(t *testing.T) {
	require.Equal(t, 0, senderHue(""))
	require.Equal(t, 97, senderHue("a"))
	require.Equal(t, 225, senderHue("ab"))
}

func TestSenderColorIsStable(t *testing.T) {
	hex := regexp.MustCompile(`^#[0-9a-f]{6}$`)
	a := SenderColor("alice@x.io")
	require.Regexp(t, hex, a)
	require.Equal(t, a, SenderColor("  Alice@X.io "))
	require.NotEqual(t, a, SenderColor("bob@x.io"))
}

func TestHSLToHex(t *testing.T) {
	require.Equal(t, "#ff0000", hslToHex(0, 1, 0.5))
	require.Equal(t, "#00ff00", hslToHex(120, 1, 0.5))
	require.Equal(t, "#0000ff", hslToHex(240, 1, 0.5))
	require.Equal(t, "#ffffff", hslToHex(200, 0.55, 1))
}

func TestPaletteFallsBackToDefault(t *testing.T) {
	require.Equal(t, palettes[ThemeDefault], paletteFor("neon"))
	require.Equal(t, palettes[ThemeHighContrast], paletteFor(ThemeHighContrast))
}
