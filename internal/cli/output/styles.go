package output

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Color palette.
const (
	ColorPrimary = lipgloss.Color("#7C3AED")
	ColorMuted   = lipgloss.Color("#6B7280")
	ColorWarning = lipgloss.Color("#F59E0B")
	ColorAccent  = lipgloss.Color("#3B82F6")
)

// Styles holds the lipgloss styles used in text mode.
type Styles struct {
	Header    lipgloss.Style
	Subheader lipgloss.Style
	Muted     lipgloss.Style
	Warning   lipgloss.Style
	Kind      lipgloss.Style
}

// NewStyles returns styles for a terminal, or plain styles that render text
// unchanged when color is false or NO_COLOR is set.
func NewStyles(color bool) *Styles {
	if !color || termenv.EnvNoColor() {
		plain := lipgloss.NewStyle()
		return &Styles{Header: plain, Subheader: plain, Muted: plain, Warning: plain, Kind: plain}
	}
	return &Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary),
		Subheader: lipgloss.NewStyle().Bold(true),
		Muted:     lipgloss.NewStyle().Foreground(ColorMuted),
		Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
		Kind:      lipgloss.NewStyle().Foreground(ColorAccent),
	}
}
