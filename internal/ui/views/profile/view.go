package profile

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	profiledto "carepanion/internal/modules/profile/dto"
	"carepanion/internal/ui/theme"
)

// SubmitMsg asks the app to complete the profile.
type SubmitMsg struct{ Input profiledto.SetupInput }

type choice struct {
	label string
	value string
}

type group struct {
	title   string
	choices []choice
	// selected is -1 until the user picks something.
	selected int
}

func (g group) value() string {
	if g.selected < 0 {
		return ""
	}
	return g.choices[g.selected].value
}

const (
	rowGender = iota
	rowAge
	rowHearing
	rowNationality
	rowCount
)

// Model is the one-time demographic setup screen.
type Model struct {
	theme   theme.Theme
	groups  [rowCount]group
	row     int
	spinner spinner.Model
	busy    bool
	err     string
	width   int
	height  int
}

func New(th theme.Theme, opts profiledto.OptionsOutput) Model {
	plain := func(values []string) []choice {
		out := make([]choice, len(values))
		for i, v := range values {
			out[i] = choice{label: v, value: v}
		}
		return out
	}
	countries := make([]choice, len(opts.Nationalities))
	for i, c := range opts.Nationalities {
		countries[i] = choice{label: c.Code + " " + c.Name, value: c.Code}
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(th.Peach)

	return Model{
		theme: th,
		groups: [rowCount]group{
			rowGender:      {title: "Gender", choices: plain(opts.Genders), selected: -1},
			rowAge:         {title: "Age", choices: plain(opts.AgeBrackets), selected: -1},
			rowHearing:     {title: "Hearing ability", choices: plain(opts.HearingAbilities), selected: -1},
			rowNationality: {title: "Nationality", choices: countries, selected: -1},
		},
		spinner: sp,
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m *Model) Busy() tea.Cmd {
	m.busy = true
	m.err = ""
	return m.spinner.Tick
}

func (m *Model) Fail(err error) {
	m.busy = false
	if err != nil {
		m.err = err.Error()
	}
}

// Input returns the current selections.
func (m Model) Input() profiledto.SetupInput {
	return profiledto.SetupInput{
		Gender:         m.groups[rowGender].value(),
		AgeBracket:     m.groups[rowAge].value(),
		HearingAbility: m.groups[rowHearing].value(),
		Nationality:    m.groups[rowNationality].value(),
	}
}

func (m Model) missing() []string {
	var out []string
	for _, g := range m.groups {
		if g.selected < 0 {
			out = append(out, strings.ToLower(g.title))
		}
	}
	return out
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case spinner.TickMsg:
		if m.busy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		g := &m.groups[m.row]
		switch msg.String() {
		case "up", "k":
			m.row = (m.row + rowCount - 1) % rowCount
		case "down", "j", "tab":
			m.row = (m.row + 1) % rowCount
		case "left", "h":
			if len(g.choices) > 0 {
				if g.selected <= 0 {
					g.selected = len(g.choices) - 1
				} else {
					g.selected--
				}
			}
		case "right", "l", " ":
			if len(g.choices) > 0 {
				g.selected = (g.selected + 1) % len(g.choices)
			}
		case "enter":
			if missing := m.missing(); len(missing) > 0 {
				m.err = "please choose: " + strings.Join(missing, ", ")
				return m, nil
			}
			input := m.Input()
			return m, func() tea.Msg { return SubmitMsg{Input: input} }
		}
	}
	return m, nil
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(m.theme.Title.Render("Tell us about yourself") + "\n")
	sb.WriteString(m.theme.Muted.Render("Asked once, used to group labels by listener.") + "\n\n")

	for i, g := range m.groups {
		cursor := "  "
		title := m.theme.Muted.Render(g.title)
		if i == m.row {
			cursor = m.theme.Hot.Render("› ")
			title = m.theme.Hot.Render(g.title)
		}
		sb.WriteString(cursor + title + "\n    ")
		for j, c := range g.choices {
			if j == g.selected {
				sb.WriteString(m.theme.Selected.Render(c.label))
			} else {
				sb.WriteString(" " + c.label + " ")
			}
			sb.WriteString(" ")
		}
		sb.WriteString("\n\n")
	}

	switch {
	case m.busy:
		sb.WriteString(m.spinner.View() + " saving…\n")
	case m.err != "":
		sb.WriteString(m.theme.Bad.Render(m.err) + "\n")
	}
	sb.WriteString("\n" + m.theme.Muted.Render("↑/↓: field  ←/→: choose  enter: continue"))

	box := m.theme.PaneActive.Render(sb.String())
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
