package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	profiledto "carepanion/internal/modules/profile/dto"
	sessiondto "carepanion/internal/modules/session/dto"
	apperrors "carepanion/internal/platform/errors"
	"carepanion/internal/ui/components"
	"carepanion/internal/ui/theme"
	labelingview "carepanion/internal/ui/views/labeling"
	loginview "carepanion/internal/ui/views/login"
	profileview "carepanion/internal/ui/views/profile"
)

// ─── ports ───────────────────────────────────────────────────────────────────
// Each port is the minimal interface that this orchestration layer requires.
// The labeling screen's port is defined in its own package.

type sessionPort interface {
	Login(ctx context.Context, identity, provider string) (sessiondto.StateOutput, error)
	Logout(ctx context.Context) (sessiondto.StateOutput, error)
	Status(ctx context.Context) (sessiondto.StateOutput, error)
	CompleteProfile(ctx context.Context, gender, ageBracket, hearing, nationality string) (sessiondto.StateOutput, error)
}

type profilePort interface {
	Options() profiledto.OptionsOutput
}

// Options carries the settings the screens need from config.
type Options struct {
	Theme             theme.Theme
	MinIdentityLength int
	WalletProvider    string
}

// ─── async messages ───────────────────────────────────────────────────────────

// stateMsg reports the session step after a restore, login, profile setup
// or logout.
type stateMsg struct {
	state  sessiondto.StateOutput
	err    error
	origin string
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
	Logout  key.Binding
	Fields  key.Binding
	Rate    key.Binding
	Notes   key.Binding
	Play    key.Binding
	Reset   key.Binding
	Submit  key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Logout:  key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "log out")),
		Fields:  key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "field")),
		Rate:    key.NewBinding(key.WithKeys("left", "right", "1", "2", "3", "4", "5"), key.WithHelp("←/→ 1-5", "rate")),
		Notes:   key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "notes")),
		Play:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "play clip")),
		Reset:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset form")),
		Submit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Fields, k.Rate, k.Notes},
		{k.Play, k.Reset, k.Submit},
		{k.Help, k.Palette, k.Logout, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It routes between the login, profile
// and labeling screens by session step and owns the status line, help
// overlay and command palette. Business logic stays behind the ports.
type Model struct {
	session sessionPort
	profile profilePort
	theme   theme.Theme

	loginView loginview.Model
	profView  profileview.Model
	labelView labelingview.Model

	state    sessiondto.StateOutput
	restored bool
	spinner  spinner.Model
	keys     keyMap
	help     help.Model
	showHelp bool
	palette  components.Palette
	status   string
	width    int
	height   int
}

// ─── constructor ─────────────────────────────────────────────────────────────

func NewModel(session sessionPort, profile profilePort, labeling labelingview.Port, opts Options) Model {
	var profOpts profiledto.OptionsOutput
	if profile != nil {
		profOpts = profile.Options()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(opts.Theme.Peach)

	return Model{
		session:   session,
		profile:   profile,
		theme:     opts.Theme,
		loginView: loginview.New(opts.Theme, opts.MinIdentityLength, opts.WalletProvider),
		profView:  profileview.New(opts.Theme, profOpts),
		labelView: labelingview.New(labeling, opts.Theme),
		spinner:   sp,
		keys:      defaultKeys(),
		help:      help.New(),
		palette:   components.NewPalette(opts.Theme, components.Hints),
		status:    "restoring session…",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loginView.Init(), m.restoreCmd())
}

// Step is the session step the model is showing.
func (m Model) Step() string { return m.state.Step }

// Status is the current status line text.
func (m Model) Status() string { return m.status }

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The open palette owns the keyboard. Everything else, including the
	// results of loads and submits started before it opened, still flows to
	// the screens.
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		if _, ok := msg.(tea.KeyMsg); ok {
			return m, cmd
		}
		next, routed := m.route(msg)
		return next, tea.Batch(cmd, routed)
	}
	return m.route(msg)
}

func (m Model) route(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case spinner.TickMsg:
		if !m.restored {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case stateMsg:
		return m.applyState(msg)

	case loginview.SubmitMsg:
		cmd := m.loginView.Busy()
		return m, tea.Batch(cmd, m.loginCmd(msg.Identity, ""))

	case loginview.WalletMsg:
		cmd := m.loginView.Busy()
		m.status = "waiting for " + msg.Provider + " wallet…"
		return m, tea.Batch(cmd, m.loginCmd("", msg.Provider))

	case profileview.SubmitMsg:
		cmd := m.profView.Busy()
		return m, tea.Batch(cmd, m.completeProfileCmd(msg.Input))

	case labelingview.LoadedMsg:
		if errors.Is(msg.Err, apperrors.ErrAuth) {
			return m.expire(msg.Err)
		}
	case labelingview.SubmittedMsg:
		if errors.Is(msg.Err, apperrors.ErrAuth) {
			return m.expire(msg.Err)
		}

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = ""
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		// Yield to the active screen while it has a text field focused.
		if !m.typing() {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "?":
				m.showHelp = true
				return m, nil
			case ":":
				cmd := m.palette.Open()
				return m, cmd
			case "ctrl+l":
				if m.state.Step != sessiondto.StepLoggedOut {
					return m, m.logoutCmd()
				}
			}
		}
	}

	var cmd tea.Cmd
	switch m.state.Step {
	case sessiondto.StepLoggedOut:
		m.loginView, cmd = m.loginView.Update(msg)
	case sessiondto.StepProfilePending:
		m.profView, cmd = m.profView.Update(msg)
	case sessiondto.StepLabeling:
		m.labelView, cmd = m.labelView.Update(msg)
	}
	return m, cmd
}

// applyState moves to the screen for the reported step. Leaving labeling
// ends the labeling run; entering it starts one.
func (m Model) applyState(msg stateMsg) (tea.Model, tea.Cmd) {
	m.restored = true
	prev := m.state.Step
	if msg.state.Step != "" {
		m.state = msg.state
	}

	switch {
	case msg.err != nil:
		m.status = msg.origin + " failed: " + msg.err.Error()
	case msg.state.Notice != "":
		m.status = msg.state.Notice
	default:
		m.status = ""
	}

	var cmds []tea.Cmd
	if prev == sessiondto.StepLabeling && m.state.Step != sessiondto.StepLabeling {
		m.labelView.Stop()
	}
	switch m.state.Step {
	case sessiondto.StepLoggedOut:
		if msg.origin == "login" {
			m.loginView.Fail(msg.err)
		} else {
			cmds = append(cmds, m.loginView.Reset())
		}
	case sessiondto.StepProfilePending:
		m.profView.Fail(msg.err)
		if prev != sessiondto.StepProfilePending && msg.err == nil {
			m.status = "welcome! a few questions before you start"
		}
	case sessiondto.StepLabeling:
		if prev != sessiondto.StepLabeling {
			cmds = append(cmds, m.labelView.Start(m.state.IdentityRef))
		}
	}
	m.propagateSize()
	return m, tea.Batch(cmds...)
}

// expire handles a token the backend no longer accepts: log out and show
// the login screen.
func (m Model) expire(err error) (tea.Model, tea.Cmd) {
	m.status = "session expired: " + err.Error()
	return m, func() tea.Msg {
		state, lerr := m.session.Logout(context.Background())
		state.Notice = "session expired, please log in again"
		return stateMsg{state: state, err: lerr, origin: "logout"}
	}
}

func (m Model) typing() bool {
	switch m.state.Step {
	case sessiondto.StepLoggedOut:
		return m.loginView.Typing()
	case sessiondto.StepLabeling:
		return m.labelView.Typing()
	}
	return false
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	header := m.renderHeader()
	statusBar := m.renderStatusBar()
	contentH := m.height - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case !m.restored:
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" restoring session…")
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	default:
		content = m.activeView()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

func (m Model) activeView() string {
	switch m.state.Step {
	case sessiondto.StepLoggedOut:
		return m.loginView.View()
	case sessiondto.StepProfilePending:
		return m.profView.View()
	case sessiondto.StepLabeling:
		return m.labelView.View()
	}
	return ""
}

func (m Model) renderHeader() string {
	bar := m.theme.Hot.Render(" carepanion ")
	if m.state.Step != "" && m.state.Step != sessiondto.StepLoggedOut {
		bar += m.theme.Muted.Render(" │ ") + m.state.ShortIdentity
		if m.state.TokenBalance > 0 {
			bar += m.theme.Muted.Render(fmt.Sprintf(" │ %.2f tokens", m.state.TokenBalance))
		}
	}
	return m.theme.Bar.Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if m.state.Step == sessiondto.StepLabeling {
		form := m.labelView.Form()
		left = m.theme.Hot.Render(fmt.Sprintf("● %d labeled", form.LabeledCount)) + "  " + left
	}
	right := m.theme.Muted.Render("?:help  :::palette  q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + m.theme.Bar.Width(m.width).Render(bar)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	if strings.TrimSpace(input) == "" {
		return m, nil
	}
	parts := strings.Fields(input)

	switch parts[0] {
	case "quit":
		return m, tea.Quit

	case "status":
		m.status = fmt.Sprintf("%s as %s", m.state.Step, m.state.ShortIdentity)
		return m, nil

	case "logout":
		if m.state.Step == sessiondto.StepLoggedOut {
			m.status = "not logged in"
			return m, nil
		}
		return m, m.logoutCmd()

	case "next", "play", "reset":
		if m.state.Step != sessiondto.StepLabeling {
			m.status = parts[0] + " is only available while labeling"
			return m, nil
		}
		var cmd tea.Cmd
		switch parts[0] {
		case "next":
			cmd = m.labelView.Reload()
		case "play":
			cmd = m.labelView.PlayClip()
		default:
			m.labelView.ResetForm()
		}
		return m, cmd

	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.loginView, _ = m.loginView.Update(sz)
	m.profView, _ = m.profView.Update(sz)
	m.labelView, _ = m.labelView.Update(sz)
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) restoreCmd() tea.Cmd {
	return func() tea.Msg {
		state, err := m.session.Status(context.Background())
		if err != nil && state.Step == "" {
			state.Step = sessiondto.StepLoggedOut
		}
		return stateMsg{state: state, err: err, origin: "restore"}
	}
}

func (m Model) loginCmd(identity, provider string) tea.Cmd {
	return func() tea.Msg {
		state, err := m.session.Login(context.Background(), identity, provider)
		return stateMsg{state: state, err: err, origin: "login"}
	}
}

func (m Model) completeProfileCmd(in profiledto.SetupInput) tea.Cmd {
	return func() tea.Msg {
		state, err := m.session.CompleteProfile(context.Background(), in.Gender, in.AgeBracket, in.HearingAbility, in.Nationality)
		return stateMsg{state: state, err: err, origin: "profile setup"}
	}
}

func (m Model) logoutCmd() tea.Cmd {
	return func() tea.Msg {
		state, err := m.session.Logout(context.Background())
		return stateMsg{state: state, err: err, origin: "logout"}
	}
}
