package bubbletea

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/sdr"
)

// Styles maps a Theme to lipgloss styles for TUI rendering.
type Styles struct {
	Assistant   lipgloss.Style
	Counterpart lipgloss.Style
	Handoff     lipgloss.Style
	Online      lipgloss.Style
	Error       lipgloss.Style
	Muted       lipgloss.Style
	Accent      lipgloss.Style
	Selected    lipgloss.Style
}

// NewStyles creates Styles from a Theme.
func NewStyles(t sdr.Theme) Styles {
	return Styles{
		Assistant:   lipgloss.NewStyle().Foreground(ansiColor(t.Assistant)).Bold(true),
		Counterpart: lipgloss.NewStyle().Foreground(ansiColor(t.Counterpart)).Bold(true),
		Handoff:     lipgloss.NewStyle().Foreground(ansiColor(t.Handoff)).Bold(true),
		Online:      lipgloss.NewStyle().Foreground(ansiColor(t.Online)),
		Error:       lipgloss.NewStyle().Foreground(ansiColor(t.Error)),
		Muted:       lipgloss.NewStyle().Foreground(ansiColor(t.Muted)).Faint(true),
		Accent:      lipgloss.NewStyle().Foreground(ansiColor(t.Accent)).Bold(true),
		Selected:    lipgloss.NewStyle().Foreground(ansiColor(t.Accent)).Reverse(true),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}
