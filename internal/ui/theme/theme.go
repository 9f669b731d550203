package theme

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette holds the Catppuccin colors the UI draws with.
type Palette struct {
	Base     lipgloss.Color
	Mantle   lipgloss.Color
	Surface0 lipgloss.Color
	Surface1 lipgloss.Color
	Text     lipgloss.Color
	Subtext0 lipgloss.Color
	Lavender lipgloss.Color
	Sapphire lipgloss.Color
	Green    lipgloss.Color
	Peach    lipgloss.Color
	Red      lipgloss.Color
}

var Mocha = Palette{
	Base:     lipgloss.Color("#1e1e2e"),
	Mantle:   lipgloss.Color("#181825"),
	Surface0: lipgloss.Color("#313244"),
	Surface1: lipgloss.Color("#45475a"),
	Text:     lipgloss.Color("#cdd6f4"),
	Subtext0: lipgloss.Color("#a6adc8"),
	Lavender: lipgloss.Color("#b4befe"),
	Sapphire: lipgloss.Color("#74c7ec"),
	Green:    lipgloss.Color("#a6e3a1"),
	Peach:    lipgloss.Color("#fab387"),
	Red:      lipgloss.Color("#f38ba8"),
}

var Latte = Palette{
	Base:     lipgloss.Color("#eff1f5"),
	Mantle:   lipgloss.Color("#e6e9ef"),
	Surface0: lipgloss.Color("#ccd0da"),
	Surface1: lipgloss.Color("#bcc0cc"),
	Text:     lipgloss.Color("#4c4f69"),
	Subtext0: lipgloss.Color("#6c6f85"),
	Lavender: lipgloss.Color("#7287fd"),
	Sapphire: lipgloss.Color("#209fb5"),
	Green:    lipgloss.Color("#40a02b"),
	Peach:    lipgloss.Color("#fe640b"),
	Red:      lipgloss.Color("#d20f39"),
}

// Theme is passed down to every view; nothing in the UI reads colors from
// package state.
type Theme struct {
	Palette

	App        lipgloss.Style
	Pane       lipgloss.Style
	PaneActive lipgloss.Style
	Title      lipgloss.Style
	Muted      lipgloss.Style
	Hot        lipgloss.Style
	Good       lipgloss.Style
	Bad        lipgloss.Style
	Selected   lipgloss.Style
	Bar        lipgloss.Style
}

func New(p Palette) Theme {
	pane := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Surface1).
		Background(p.Mantle).
		Foreground(p.Text).
		Padding(1)
	return Theme{
		Palette: p,
		App: lipgloss.NewStyle().
			Background(p.Base).
			Foreground(p.Text).
			Padding(1, 2),
		Pane:       pane,
		PaneActive: pane.BorderForeground(p.Lavender),
		Title:      lipgloss.NewStyle().Foreground(p.Sapphire).Bold(true),
		Muted:      lipgloss.NewStyle().Foreground(p.Subtext0),
		Hot:        lipgloss.NewStyle().Foreground(p.Peach).Bold(true),
		Good:       lipgloss.NewStyle().Foreground(p.Green),
		Bad:        lipgloss.NewStyle().Foreground(p.Red).Bold(true),
		Selected: lipgloss.NewStyle().
			Foreground(p.Base).
			Background(p.Lavender).
			Bold(true).
			Padding(0, 1),
		Bar: lipgloss.NewStyle().Background(p.Mantle),
	}
}

// ByName resolves a config theme name. Empty means mocha.
func ByName(name string) (Theme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mocha":
		return New(Mocha), nil
	case "latte":
		return New(Latte), nil
	default:
		return Theme{}, fmt.Errorf("unknown theme %q (want mocha or latte)", name)
	}
}

// Names lists the themes ByName accepts.
func Names() []string { return []string{"mocha", "latte"} }
