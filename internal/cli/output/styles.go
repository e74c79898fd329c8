package output

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles holds the lipgloss styles used in text mode.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Muted   lipgloss.Style
	Key     lipgloss.Style
	SQL     lipgloss.Style
}

// NewStyles builds styles bound to r. Without a TTY every style renders
// plain text.
func NewStyles(r *lipgloss.Renderer, isTTY bool) Styles {
	if !isTTY {
		r.SetColorProfile(termenv.Ascii)
	}
	return Styles{
		Header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Success: r.NewStyle().Foreground(lipgloss.Color("10")),
		Error:   r.NewStyle().Foreground(lipgloss.Color("9")),
		Warning: r.NewStyle().Foreground(lipgloss.Color("11")),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		Key:     r.NewStyle().Bold(true),
		SQL:     r.NewStyle().Foreground(lipgloss.Color("14")),
	}
}
