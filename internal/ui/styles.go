package ui

import (
	"github.com/charmbracelet/lipgloss"

	"shelf-reader/internal/domain"
)

// Theme holds the resolved colors for the active reading theme.
type Theme struct {
	Primary    lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Accent     lipgloss.Color
	Error      lipgloss.Color
}

// ThemeFor resolves the theme named in the reading settings.
func ThemeFor(settings *domain.ReadingSettings) Theme {
	switch settings.Theme {
	case "dark":
		return Theme{
			Primary:    lipgloss.Color("#7C3AED"),
			Foreground: lipgloss.Color("#F9FAFB"),
			Muted:      lipgloss.Color("#6B7280"),
			Accent:     lipgloss.Color("#06B6D4"),
			Error:      lipgloss.Color("#EF4444"),
		}
	case "sepia":
		return Theme{
			Primary:    lipgloss.Color("#92400E"),
			Foreground: lipgloss.Color("#44403C"),
			Muted:      lipgloss.Color("#A8A29E"),
			Accent:     lipgloss.Color("#B45309"),
			Error:      lipgloss.Color("#B91C1C"),
		}
	default: // light
		return Theme{
			Primary:    lipgloss.Color("#5B21B6"),
			Foreground: lipgloss.Color("#111827"),
			Muted:      lipgloss.Color("#9CA3AF"),
			Accent:     lipgloss.Color("#0E7490"),
			Error:      lipgloss.Color("#DC2626"),
		}
	}
}

// Styles are the prebuilt lipgloss styles for one theme.
type Styles struct {
	TitleBar  lipgloss.Style
	StatusBar lipgloss.Style
	Help      lipgloss.Style
	MutedText lipgloss.Style
	ErrorText lipgloss.Style

	ListItem         lipgloss.Style
	ListItemSelected lipgloss.Style

	ReaderText    lipgloss.Style
	SelectionMark lipgloss.Style

	highlightStyles map[domain.HighlightColor]lipgloss.Style
}

// NewStyles builds the style set for a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		TitleBar: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F9FAFB")).
			Background(t.Primary).
			Padding(0, 1).
			Bold(true),
		StatusBar: lipgloss.NewStyle().
			Foreground(t.Muted).
			Padding(0, 1),
		Help: lipgloss.NewStyle().
			Foreground(t.Muted),
		MutedText: lipgloss.NewStyle().
			Foreground(t.Muted),
		ErrorText: lipgloss.NewStyle().
			Foreground(t.Error).
			Bold(true).
			Padding(0, 1),
		ListItem: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Padding(0, 2),
		ListItemSelected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F9FAFB")).
			Background(t.Primary).
			Padding(0, 2).
			Bold(true),
		ReaderText: lipgloss.NewStyle().
			Foreground(t.Foreground),
		SelectionMark: lipgloss.NewStyle().
			Reverse(true),
		highlightStyles: map[domain.HighlightColor]lipgloss.Style{
			domain.ColorYellow: lipgloss.NewStyle().Background(lipgloss.Color("#FDE68A")).Foreground(lipgloss.Color("#111827")),
			domain.ColorGreen:  lipgloss.NewStyle().Background(lipgloss.Color("#A7F3D0")).Foreground(lipgloss.Color("#111827")),
			domain.ColorBlue:   lipgloss.NewStyle().Background(lipgloss.Color("#BFDBFE")).Foreground(lipgloss.Color("#111827")),
			domain.ColorPink:   lipgloss.NewStyle().Background(lipgloss.Color("#FBCFE8")).Foreground(lipgloss.Color("#111827")),
			domain.ColorOrange: lipgloss.NewStyle().Background(lipgloss.Color("#FED7AA")).Foreground(lipgloss.Color("#111827")),
		},
	}
}

// Highlight returns the style for a palette color.
func (s Styles) Highlight(c domain.HighlightColor) lipgloss.Style {
	if style, ok := s.highlightStyles[c]; ok {
		return style
	}
	return s.highlightStyles[domain.ColorYellow]
}
