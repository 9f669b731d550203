package theme_test

import (
	"testing"

	"carepanion/internal/ui/theme"
)

func TestByName(t *testing.T) {
	t.Parallel()
	cases := map[string]theme.Palette{
		"":       theme.Mocha,
		"mocha":  theme.Mocha,
		" Latte": theme.Latte,
	}
	for name, want := range cases {
		got, err := theme.ByName(name)
		if err != nil {
			t.Fatalf("ByName(%q): %v", name, err)
		}
		if got.Base != want.Base || got.Text != want.Text {
			t.Fatalf("ByName(%q) picked the wrong palette: base %s", name, got.Base)
		}
	}
	if _, err := theme.ByName("frappe"); err == nil {
		t.Fatalf("expected unknown theme error")
	}
}
