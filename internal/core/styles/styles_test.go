package styles

import (
	"testing"

	lipgloss "github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestGroupStyle_FallsBackOnInvalidHex(t *testing.T) {
	valid := GroupStyle("#779BE7")
	assert.Equal(t, lipgloss.Color("#779BE7"), valid.GetForeground())

	invalid := GroupStyle("blue-ish")
	assert.Equal(t, CurrentPalette.Primary, invalid.GetForeground())
}

func TestGlamourStyle_UsesPalette(t *testing.T) {
	cfg := GlamourStyle()
	if assert.NotNil(t, cfg.H2.Color) {
		assert.Equal(t, string(Default.Primary), *cfg.H2.Color)
	}
}
