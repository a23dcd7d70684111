package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

// SpinnerFrames defines the half-circle animation (◐ ◓ ◑ ◒) for Bubble Tea
// programs, matching SymbolProgress in static output.
var SpinnerFrames = spinner.Spinner{
	Frames: []string{"◐", "◓", "◑", "◒"},
	FPS:    time.Second / 8,
}

// NewTeaSpinner returns a bubbles spinner styled for the dashboard's loading
// states. Callers own its Tick loop.
func NewTeaSpinner() spinner.Model {
	sp := spinner.New()
	sp.Spinner = SpinnerFrames
	sp.Style = lipgloss.NewStyle().Foreground(ColorNeonCyan)
	return sp
}
