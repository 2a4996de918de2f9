package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"

	"youdo/internal/service"
	"youdo/internal/urgency"
)

// Themes accepted by NewStyles.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Styles holds the text styles for one output stream. Styles render plain
// text when the stream is not a color terminal.
type Styles struct {
	Overdue lipgloss.Style
	Soon    lipgloss.Style
	High    lipgloss.Style
	Medium  lipgloss.Style
	Low     lipgloss.Style
	Done    lipgloss.Style
	Muted   lipgloss.Style
}

type palette struct {
	overdue, soon, high, medium, low, muted string
}

var palettes = map[string]palette{
	ThemeLight: {overdue: "#b31d28", soon: "#b08800", high: "#d73a4a", medium: "#6f42c1", low: "#22863a", muted: "#6a737d"},
	ThemeDark:  {overdue: "#f97583", soon: "#ffdf5d", high: "#ff7b72", medium: "#d2a8ff", low: "#7ee787", muted: "#8b949e"},
}

// NewStyles returns the styles for theme bound to w. Unknown themes fall
// back to light.
func NewStyles(w io.Writer, theme string) Styles {
	p, ok := palettes[theme]
	if !ok {
		p = palettes[ThemeLight]
	}
	r := lipgloss.NewRenderer(w)
	color := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}
	return Styles{
		Overdue: color(p.overdue).Bold(true),
		Soon:    color(p.soon),
		High:    color(p.high).Bold(true),
		Medium:  color(p.medium),
		Low:     color(p.low),
		Done:    color(p.muted).Strikethrough(true),
		Muted:   color(p.muted),
	}
}

// ValidTheme reports whether theme is known.
func ValidTheme(theme string) bool {
	_, ok := palettes[theme]
	return ok
}

func (s Styles) priority(p service.Priority) lipgloss.Style {
	switch p {
	case service.PriorityHigh:
		return s.High
	case service.PriorityLow:
		return s.Low
	default:
		return s.Medium
	}
}

func (s Styles) badge(u urgency.Urgency) lipgloss.Style {
	if u.Days < 0 {
		return s.Overdue
	}
	return s.Soon
}
