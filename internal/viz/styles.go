package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Meter and annunciator colors
var (
	meterLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	meterMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	meterHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	meterDim  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	annLitStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("16")).Background(lipgloss.Color("203")).Padding(0, 1)
	annDarkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238")).Padding(0, 1)
)

// PowerBar renders a meter colored by how close the channel sits to the
// overpower limit.
func PowerBar(frac float64, width int) string {
	bar := barRunes(frac, width)
	switch {
	case frac > 1.0:
		return meterHigh.Render(bar)
	case frac > 0.9:
		return meterMid.Render(bar)
	}
	return meterLow.Render(bar)
}

// Meter renders a neutral position meter, used for rod banks and flow.
func Meter(frac float64, width int) string {
	return meterDim.Render(barRunes(frac, width))
}

func barRunes(frac float64, width int) string {
	filled := int(frac * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// Annunciator renders one alarm tile, backlit when the alarm is in.
func Annunciator(label string, lit bool) string {
	if lit {
		return annLitStyle.Render(label)
	}
	return annDarkStyle.Render(label)
}

// Separator renders a thin horizontal rule.
func Separator(width int) string {
	return meterDim.Render(strings.Repeat("─", width))
}
