package components_test

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"carepanion/internal/ui/components"
	"carepanion/internal/ui/theme"
)

func TestPaletteSubmitsInput(t *testing.T) {
	t.Parallel()
	p := components.NewPalette(theme.New(theme.Mocha), components.Hints)
	if p.Visible() {
		t.Fatalf("palette should start hidden")
	}
	p.Open()
	for _, r := range "logout" {
		p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	if !strings.Contains(p.View(), "logout") {
		t.Fatalf("expected matching hint in view:\n%s", p.View())
	}
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if p.Visible() {
		t.Fatalf("palette should close on enter")
	}
	msg, ok := cmd().(components.PaletteSubmitMsg)
	if !ok || msg.Input != "logout" {
		t.Fatalf("unexpected submit msg %#v", msg)
	}
}

func TestPaletteCancel(t *testing.T) {
	t.Parallel()
	p := components.NewPalette(theme.New(theme.Latte), components.Hints)
	p.Open()
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if p.Visible() {
		t.Fatalf("palette should close on esc")
	}
	if _, ok := cmd().(components.PaletteCancelMsg); !ok {
		t.Fatalf("expected cancel msg")
	}
}
