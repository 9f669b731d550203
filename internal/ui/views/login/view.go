package login

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"carepanion/internal/ui/theme"
)

// SubmitMsg asks the app to log in with a typed identity.
type SubmitMsg struct{ Identity string }

// WalletMsg asks the app to log in through a wallet provider.
type WalletMsg struct{ Provider string }

// Model is the connect screen shown while logged out.
type Model struct {
	theme     theme.Theme
	input     textinput.Model
	spinner   spinner.Model
	minLength int
	provider  string
	busy      bool
	err       string
	width     int
	height    int
}

// New builds the screen. provider is the wallet plugin offered on ctrl+w;
// empty hides the option.
func New(th theme.Theme, minLength int, provider string) Model {
	ti := textinput.New()
	ti.Placeholder = "wallet address"
	ti.CharLimit = 128
	ti.Width = 50
	ti.Cursor.SetMode(cursor.CursorStatic)
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(th.Peach)

	return Model{theme: th, input: ti, spinner: sp, minLength: minLength, provider: provider}
}

func (m Model) Init() tea.Cmd { return nil }

// Busy marks a login in flight and starts the spinner.
func (m *Model) Busy() tea.Cmd {
	m.busy = true
	m.err = ""
	return m.spinner.Tick
}

// Fail ends a login attempt with an error shown under the input.
func (m *Model) Fail(err error) {
	m.busy = false
	if err != nil {
		m.err = err.Error()
	}
}

// Reset clears the input for a fresh login, keeping any error visible.
func (m *Model) Reset() tea.Cmd {
	m.busy = false
	m.input.SetValue("")
	return m.input.Focus()
}

// Typing reports whether keys go to the input rather than global bindings.
func (m Model) Typing() bool { return m.input.Focused() && !m.busy }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "enter":
			identity := strings.TrimSpace(m.input.Value())
			return m, func() tea.Msg { return SubmitMsg{Identity: identity} }
		case "ctrl+w":
			if m.provider == "" {
				m.err = "no wallet provider configured"
				return m, nil
			}
			provider := m.provider
			return m, func() tea.Msg { return WalletMsg{Provider: provider} }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(m.theme.Title.Render("Carepanion") + "\n")
	sb.WriteString(m.theme.Muted.Render("Connect your wallet to start labeling") + "\n\n")
	sb.WriteString(m.input.View() + "\n")

	n := len(strings.TrimSpace(m.input.Value()))
	counter := fmt.Sprintf("%d/%d characters", n, m.minLength)
	if n >= m.minLength {
		sb.WriteString(m.theme.Good.Render(counter) + "\n")
	} else {
		sb.WriteString(m.theme.Muted.Render(counter) + "\n")
	}

	switch {
	case m.busy:
		sb.WriteString("\n" + m.spinner.View() + " connecting…\n")
	case m.err != "":
		sb.WriteString("\n" + m.theme.Bad.Render(m.err) + "\n")
	}

	hints := "enter: connect"
	if m.provider != "" {
		hints += "  ctrl+w: use " + m.provider + " wallet"
	}
	sb.WriteString("\n" + m.theme.Muted.Render(hints))

	box := m.theme.PaneActive.Width(60).Render(sb.String())
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
