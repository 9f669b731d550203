package labeling

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"carepanion/internal/modules/labeling/dto"
	apperrors "carepanion/internal/platform/errors"
	"carepanion/internal/ui/theme"
)

// Port is the slice of the labeling controller this screen drives.
type Port interface {
	Begin(ctx context.Context, identity string) dto.FormOutput
	End()
	LoadNext(ctx context.Context) (dto.FormOutput, error)
	SetScore(field string, value int) (dto.FormOutput, error)
	SetChoice(field, value string) (dto.FormOutput, error)
	Submit(ctx context.Context) (dto.SubmitOutput, error)
	Reset() dto.FormOutput
	Snapshot() dto.FormOutput
	Play(ctx context.Context) error
	Options() dto.OptionsOutput
}

// LoadedMsg carries the form after a load. Err is nil when the queue is
// simply empty.
type LoadedMsg struct {
	Form dto.FormOutput
	Err  error
}

type SubmittedMsg struct {
	Out dto.SubmitOutput
	Err error
}

type PlayedMsg struct{ Err error }

type rowKind int

const (
	kindScore rowKind = iota
	kindChoice
	kindNotes
)

type row struct {
	field   string
	title   string
	kind    rowKind
	choices []string
}

// Model is the rating form.
type Model struct {
	port    Port
	theme   theme.Theme
	rows    []row
	opts    dto.OptionsOutput
	form    dto.FormOutput
	cursor  int
	notes   textarea.Model
	editing bool
	spinner spinner.Model
	status  string
	width   int
	height  int
}

func New(port Port, th theme.Theme) Model {
	var opts dto.OptionsOutput
	if port != nil {
		opts = port.Options()
	}

	ta := textarea.New()
	ta.Placeholder = "anything else about this clip (optional)"
	ta.ShowLineNumbers = false
	ta.CharLimit = 500
	ta.SetHeight(3)
	ta.SetWidth(50)
	ta.Cursor.SetMode(cursor.CursorStatic)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(th.Peach)

	return Model{
		port:  port,
		theme: th,
		opts:  opts,
		rows: []row{
			{field: "comfort_level", title: "Comfort", kind: kindScore},
			{field: "clarity", title: "Clarity", kind: kindScore},
			{field: "speaking_rate", title: "Speaking rate", kind: kindChoice, choices: opts.SpeakingRates},
			{field: "perceived_empathy", title: "Empathy", kind: kindChoice, choices: opts.EmpathyLevels},
			{field: "notes", title: "Notes", kind: kindNotes},
		},
		notes:   ta,
		spinner: sp,
	}
}

func (m Model) Init() tea.Cmd { return nil }

// Start begins a labeling run for identity and fetches the first clip.
func (m *Model) Start(identity string) tea.Cmd {
	if m.port == nil {
		return nil
	}
	m.form = dto.FormOutput{Loading: true}
	m.status = ""
	m.cursor = 0
	port := m.port
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx := context.Background()
		port.Begin(ctx, identity)
		form, err := port.LoadNext(ctx)
		return LoadedMsg{Form: form, Err: loadErr(err)}
	})
}

// Stop discards the run, for logout.
func (m *Model) Stop() {
	if m.port != nil {
		m.port.End()
	}
	m.form = dto.FormOutput{}
	m.editing = false
	m.notes.Blur()
	m.notes.SetValue("")
	m.status = ""
}

// Form returns the last snapshot the screen rendered.
func (m Model) Form() dto.FormOutput { return m.form }

// Typing reports whether the notes editor owns the keyboard.
func (m Model) Typing() bool { return m.editing }

// Busy reports whether a load or submit is running.
func (m Model) Busy() bool { return m.form.Loading || m.form.Submitting }

// Reload fetches a clip again, for the palette.
func (m *Model) Reload() tea.Cmd {
	if m.port == nil || m.Busy() {
		return nil
	}
	m.form.Loading = true
	return tea.Batch(m.spinner.Tick, m.loadCmd())
}

func (m *Model) PlayClip() tea.Cmd {
	if m.port == nil || m.form.Item == nil {
		return nil
	}
	port := m.port
	return func() tea.Msg {
		return PlayedMsg{Err: port.Play(context.Background())}
	}
}

func (m *Model) ResetForm() {
	if m.port == nil || m.Busy() {
		return
	}
	m.form = m.port.Reset()
	m.notes.SetValue("")
	m.status = "ratings cleared"
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.notes.SetWidth(min(60, max(20, msg.Width-24)))
		return m, nil

	case spinner.TickMsg:
		if !m.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case LoadedMsg:
		m.form = msg.Form
		m.notes.SetValue(msg.Form.Ratings.Notes)
		m.cursor = 0
		if msg.Err != nil {
			m.status = "could not load next clip: " + msg.Err.Error()
		} else if msg.Form.Exhausted {
			m.status = ""
		}
		return m, nil

	case SubmittedMsg:
		if msg.Err != nil {
			if m.port != nil {
				m.form = m.port.Snapshot()
			} else {
				m.form.Submitting = false
			}
			m.status = "submit failed: " + msg.Err.Error()
			if apperrors.Retryable(msg.Err) {
				m.status += " (enter to retry)"
			}
			return m, nil
		}
		m.form = msg.Out.Form
		m.notes.SetValue(msg.Out.Form.Ratings.Notes)
		m.cursor = 0
		m.status = fmt.Sprintf("label #%d saved", msg.Out.Receipt.LabelID)
		if sig := msg.Out.Receipt.TransactionSignature; sig != "" {
			m.status += " · tx " + shorten(sig)
		}
		return m, nil

	case PlayedMsg:
		if msg.Err != nil {
			m.status = "playback: " + msg.Err.Error()
		} else {
			m.status = "playing clip"
		}
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateNotes(msg)
		}
		return m.updateKeys(msg)
	}

	if m.editing {
		var cmd tea.Cmd
		m.notes, cmd = m.notes.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateNotes(msg tea.KeyMsg) (Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.editing = false
		m.notes.Blur()
		m.apply(m.port.SetChoice("notes", m.notes.Value()))
		return m, nil
	}
	var cmd tea.Cmd
	m.notes, cmd = m.notes.Update(msg)
	return m, cmd
}

// updateKeys handles navigation and rating keys. Everything but playback is
// ignored while a load or submit is running.
func (m Model) updateKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.port == nil {
		return m, nil
	}
	k := msg.String()
	if k == "p" {
		return m, m.PlayClip()
	}
	if m.Busy() {
		return m, nil
	}
	if m.form.Item == nil {
		if k == "n" || k == "enter" {
			cmd := m.Reload()
			return m, cmd
		}
		return m, nil
	}

	r := m.rows[m.cursor]
	switch k {
	case "up", "k":
		m.cursor = (m.cursor + len(m.rows) - 1) % len(m.rows)
	case "down", "j", "tab":
		m.cursor = (m.cursor + 1) % len(m.rows)
	case "left", "h":
		m.step(r, -1)
	case "right", "l":
		m.step(r, +1)
	case "1", "2", "3", "4", "5":
		n, _ := strconv.Atoi(k)
		switch r.kind {
		case kindScore:
			m.apply(m.port.SetScore(r.field, n))
		case kindChoice:
			if n <= len(r.choices) {
				m.apply(m.port.SetChoice(r.field, r.choices[n-1]))
			}
		}
	case "i":
		if r.kind == kindNotes {
			cmd := m.editNotes()
			return m, cmd
		}
	case "r":
		m.ResetForm()
	case "enter":
		if r.kind == kindNotes {
			cmd := m.editNotes()
			return m, cmd
		}
		return m.submit()
	case "s":
		return m.submit()
	}
	return m, nil
}

func (m *Model) editNotes() tea.Cmd {
	m.editing = true
	return m.notes.Focus()
}

func (m Model) submit() (Model, tea.Cmd) {
	if !m.form.CanSubmit {
		m.status = "still to rate: " + strings.Join(m.form.Missing, ", ")
		return m, nil
	}
	m.form.Submitting = true
	m.status = ""
	port := m.port
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		out, err := port.Submit(context.Background())
		return SubmittedMsg{Out: out, Err: err}
	})
}

func (m *Model) step(r row, delta int) {
	switch r.kind {
	case kindScore:
		cur := m.score(r.field)
		next := cur + delta
		if cur == 0 && delta > 0 {
			next = m.opts.MinScore
		}
		if next < m.opts.MinScore || next > m.opts.MaxScore {
			return
		}
		m.apply(m.port.SetScore(r.field, next))
	case kindChoice:
		if len(r.choices) == 0 {
			return
		}
		idx := indexOf(r.choices, m.choice(r.field))
		switch {
		case idx < 0 && delta > 0:
			idx = 0
		case idx < 0:
			idx = len(r.choices) - 1
		default:
			idx = (idx + delta + len(r.choices)) % len(r.choices)
		}
		m.apply(m.port.SetChoice(r.field, r.choices[idx]))
	}
}

func (m *Model) apply(form dto.FormOutput, err error) {
	m.form = form
	if err != nil {
		m.status = err.Error()
	}
}

func (m Model) score(field string) int {
	if field == "clarity" {
		return m.form.Ratings.Clarity
	}
	return m.form.Ratings.ComfortLevel
}

func (m Model) choice(field string) string {
	if field == "speaking_rate" {
		return m.form.Ratings.SpeakingRate
	}
	return m.form.Ratings.PerceivedEmpathy
}

func (m Model) loadCmd() tea.Cmd {
	port := m.port
	return func() tea.Msg {
		form, err := port.LoadNext(context.Background())
		return LoadedMsg{Form: form, Err: loadErr(err)}
	}
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	var body string
	switch {
	case m.form.Loading:
		body = m.spinner.View() + " fetching the next clip…"
	case m.form.Exhausted:
		body = m.renderDone()
	case m.form.Item == nil:
		body = m.theme.Muted.Render("No clip loaded. Press n to try again.")
		if m.status != "" {
			body += "\n\n" + m.theme.Bad.Render(m.status)
		}
	default:
		body = m.renderForm()
	}
	box := m.theme.Pane.Width(min(76, max(40, m.width-4))).Render(body)
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Top, box)
}

func (m Model) renderDone() string {
	var sb strings.Builder
	sb.WriteString(m.theme.Good.Render("All caught up!") + "\n\n")
	sb.WriteString("There are no more clips to label right now.\n")
	sb.WriteString(fmt.Sprintf("You labeled %d this session, %d on this device in total.\n",
		m.form.LabeledCount, m.form.LifetimeCount))
	if m.status != "" {
		sb.WriteString("\n" + m.theme.Muted.Render(m.status) + "\n")
	}
	sb.WriteString("\n" + m.theme.Muted.Render("n: check again"))
	return sb.String()
}

func (m Model) renderForm() string {
	item := m.form.Item
	var sb strings.Builder

	header := m.theme.Title.Render(fmt.Sprintf("Clip #%d", item.ID))
	if item.DurationSeconds > 0 {
		header += m.theme.Muted.Render(fmt.Sprintf("  %ds", item.DurationSeconds))
	}
	counts := m.theme.Muted.Render(fmt.Sprintf("labeled %d · total %d", m.form.LabeledCount, m.form.LifetimeCount))
	sb.WriteString(header + "   " + counts + "\n")
	sb.WriteString(m.theme.Muted.Render(item.SourceURL) + "\n\n")

	for i, r := range m.rows {
		cursor := "  "
		title := fmt.Sprintf("%-14s", r.title)
		if i == m.cursor && !m.form.Submitting {
			cursor = m.theme.Hot.Render("› ")
			title = m.theme.Hot.Render(title)
		}
		sb.WriteString(cursor + title + m.renderValue(r) + "\n")
	}

	sb.WriteString("\n" + m.theme.Muted.Render("state: "+m.form.State))
	if len(m.form.Missing) > 0 {
		sb.WriteString(m.theme.Muted.Render("   missing: " + strings.Join(m.form.Missing, ", ")))
	}
	sb.WriteString("\n\n")

	switch {
	case m.form.Submitting:
		sb.WriteString(m.spinner.View() + " submitting…")
	case m.form.CanSubmit:
		sb.WriteString(m.theme.Selected.Render("Submit") + m.theme.Muted.Render("  enter"))
	default:
		sb.WriteString(m.theme.Muted.Render("[ Submit ]"))
	}
	sb.WriteString("\n")

	if m.status != "" {
		style := m.theme.Muted
		if m.form.State == "failed" || strings.HasPrefix(m.status, "still") {
			style = m.theme.Bad
		}
		sb.WriteString("\n" + style.Render(m.status) + "\n")
	}
	hints := "↑/↓: field  ←/→ or 1-5: rate  i: notes  p: play  r: reset"
	if m.editing {
		hints = "esc: done editing notes"
	}
	sb.WriteString("\n" + m.theme.Muted.Render(hints))
	return sb.String()
}

func (m Model) renderValue(r row) string {
	switch r.kind {
	case kindScore:
		cur := m.score(r.field)
		var parts []string
		for n := m.opts.MinScore; n <= m.opts.MaxScore; n++ {
			parts = append(parts, m.option(strconv.Itoa(n), n == cur))
		}
		return strings.Join(parts, " ")
	case kindChoice:
		cur := m.choice(r.field)
		parts := make([]string, len(r.choices))
		for i, c := range r.choices {
			parts[i] = m.option(c, c == cur)
		}
		return strings.Join(parts, " ")
	default:
		if m.editing {
			return "\n" + m.notes.View()
		}
		if m.form.Ratings.Notes == "" {
			return m.theme.Muted.Render("(none)")
		}
		return m.form.Ratings.Notes
	}
}

func (m Model) option(label string, selected bool) string {
	if selected {
		return m.theme.Selected.Render(label)
	}
	return " " + label + " "
}

// loadErr drops the empty-queue error; the snapshot already says exhausted.
func loadErr(err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	return err
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return -1
}

func shorten(s string) string {
	if len(s) <= 12 {
		return s
	}
	return s[:8] + "…" + s[len(s)-4:]
}
