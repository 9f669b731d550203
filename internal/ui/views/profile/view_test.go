package profile_test

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	profiledto "carepanion/internal/modules/profile/dto"
	"carepanion/internal/ui/theme"
	profileview "carepanion/internal/ui/views/profile"
)

func options() profiledto.OptionsOutput {
	return profiledto.OptionsOutput{
		Genders:          []string{"Female", "Male", "Non-binary"},
		AgeBrackets:      []string{"60-69", "70-79"},
		HearingAbilities: []string{"Normal", "Mild loss"},
		Nationalities:    []profiledto.CountryOption{{Code: "TH", Name: "Thailand"}, {Code: "US", Name: "United States"}},
	}
}

func send(m profileview.Model, msgs ...tea.KeyMsg) (profileview.Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		m, cmd = m.Update(msg)
	}
	return m, cmd
}

var (
	left  = tea.KeyMsg{Type: tea.KeyLeft}
	right = tea.KeyMsg{Type: tea.KeyRight}
	down  = tea.KeyMsg{Type: tea.KeyDown}
	enter = tea.KeyMsg{Type: tea.KeyEnter}
)

func TestEnterRequiresEveryGroup(t *testing.T) {
	t.Parallel()
	m := profileview.New(theme.New(theme.Mocha), options())
	m, cmd := send(m, right, down, right, enter)
	if cmd != nil {
		t.Fatalf("incomplete profile must not submit")
	}
	if !strings.Contains(m.View(), "please choose: hearing ability, nationality") {
		t.Fatalf("expected missing groups in view:\n%s", m.View())
	}
}

func TestSelectionsAndWraparound(t *testing.T) {
	t.Parallel()
	m := profileview.New(theme.New(theme.Mocha), options())
	m, cmd := send(m,
		left,               // gender wraps to the last choice
		down, right, right, // 70-79
		down, right, // Normal
		down, right, right, right, // TH, US, back to TH
		enter,
	)
	if cmd == nil {
		t.Fatalf("complete profile should submit")
	}
	msg, ok := cmd().(profileview.SubmitMsg)
	if !ok {
		t.Fatalf("unexpected msg %T", cmd())
	}
	want := profiledto.SetupInput{Gender: "Non-binary", AgeBracket: "70-79", HearingAbility: "Normal", Nationality: "TH"}
	if msg.Input != want {
		t.Fatalf("input = %+v, want %+v", msg.Input, want)
	}
	if m.Input() != want {
		t.Fatalf("model input = %+v", m.Input())
	}
}
