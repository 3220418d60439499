// Package display provides the terminal UI using Bubble Tea.
//
// The [UI] renders an assistant [Controller]: the ingredient field, the
// generated recipe in a scrollable viewport, and the speech controls
// panel. Key presses call the controller from tea.Cmds so Update never
// blocks on the assistant loop; the controller's change signal feeds
// fresh snapshots back in.
package display

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/hammamikhairi/cookassist/internal/assistant"
	"github.com/hammamikhairi/cookassist/internal/domain"
)

// Compile-time interface check.
var _ Controller = (*assistant.Assistant)(nil)

// Controller is the assistant surface the UI drives.
type Controller interface {
	Snapshot() assistant.View
	Changes() <-chan struct{}
	SetQuery(text string) error
	Submit(query string) error
	StartDictation() error
	Pause() error
	Resume() error
	Stop() error
	ReadAloud() error
	Copy() error
	TogglePanel() error
	DismissAlert() error
}

// UI text.
const (
	fieldLabel       = "Enter Ingredients (comma-separated)"
	placeholder      = "e.g. chicken, garlic, lemon"
	validationNotice = "Please fill out this field."
	listeningNotice  = "Listening for your ingredients..."
	loadingNotice    = "Generating..."
	recipeHeader     = "Generated Recipe:"
	voiceHint        = `Say "stop" to pause or "resume" to continue`
	copiedNotice     = "Copied to clipboard"
)

// ── Styles ───────────────────────────────────────────────────────

var (
	// BannerStyle is muted slate for the startup banner.
	BannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fde68a")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a1a1aa"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8"))

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0"))

	primaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8"))

	secondaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	chatStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bae6fd"))

	urgentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fca5a5"))

	recipeBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#52525b")).
			Padding(0, 1)

	panelBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#94a3b8")).
			Padding(0, 1).
			Width(panelWidth)
)

const (
	panelWidth    = 30
	minRecipeRows = 5
	// Rows used by everything except the recipe viewport.
	chromeRows = 14
)

// ── Keys ─────────────────────────────────────────────────────────

type keyMap struct {
	Submit    key.Binding
	Dictate   key.Binding
	Pause     key.Binding
	Resume    key.Binding
	Stop      key.Binding
	ReadAloud key.Binding
	Copy      key.Binding
	Panel     key.Binding
	Dismiss   key.Binding
	Quit      key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "get recipe")),
		Dictate:   key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "speak")),
		Pause:     key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "pause")),
		Resume:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "resume")),
		Stop:      key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "stop")),
		ReadAloud: key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "read aloud")),
		Copy:      key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy")),
		Panel:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "speech panel")),
		Dismiss:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss")),
		Quit:      key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Dictate, k.ReadAloud, k.Copy, k.Panel, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Dictate, k.ReadAloud, k.Copy},
		{k.Pause, k.Resume, k.Stop},
		{k.Panel, k.Dismiss, k.Quit},
	}
}

// ── UI ───────────────────────────────────────────────────────────

// UI manages the terminal through Bubble Tea.
type UI struct {
	ctrl    Controller
	program *tea.Program
	readyCh chan struct{}
	quitCh  chan struct{}
	done    atomic.Bool
}

// NewUI creates the display. Call Run() to start.
func NewUI(ctrl Controller) *UI {
	return &UI{
		ctrl:    ctrl,
		readyCh: make(chan struct{}),
		quitCh:  make(chan struct{}),
	}
}

// WaitReady blocks until the Bubble Tea event loop is running.
func (u *UI) WaitReady() { <-u.readyCh }

// Quit tells Bubble Tea to exit.
func (u *UI) Quit() {
	if u.program != nil && !u.done.Load() {
		u.program.Quit()
	}
}

// QuitChan is closed when Run returns.
func (u *UI) QuitChan() <-chan struct{} { return u.quitCh }

// Run starts the Bubble Tea event loop. Blocks until quit.
func (u *UI) Run() error {
	u.program = tea.NewProgram(newModel(u.ctrl, u.readyCh))
	_, err := u.program.Run()
	u.done.Store(true)
	close(u.quitCh)
	return err
}

// ── Bubble Tea model ─────────────────────────────────────────────

// Messages.
type (
	changedMsg struct{}

	opResultMsg struct {
		op  string
		err error
	}
)

type model struct {
	ctrl    Controller
	keys    keyMap
	help    help.Model
	input   textinput.Model
	spinner spinner.Model
	recipe  viewport.Model
	readyCh chan struct{}

	view     assistant.View
	queryRev uint64
	shown    string // text currently loaded in the viewport
	notice   string // validation or transient status line
	width    int
}

func newModel(ctrl Controller, readyCh chan struct{}) model {
	ti := textinput.New()
	// Plain-text prompt keeps textinput width math correct.
	ti.Prompt = "> "
	ti.PromptStyle = promptStyle
	ti.TextStyle = inputStyle
	ti.Placeholder = placeholder
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8"))
	ti.CharLimit = 500
	ti.Width = 60 // updated on first WindowSizeMsg
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = chatStyle

	vp := viewport.New(72, minRecipeRows*2)
	// Only keys the text field doesn't need.
	vp.KeyMap = viewport.KeyMap{
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
		Up:       key.NewBinding(key.WithKeys("up")),
		Down:     key.NewBinding(key.WithKeys("down")),
	}

	m := model{
		ctrl:    ctrl,
		keys:    defaultKeys(),
		help:    help.New(),
		input:   ti,
		spinner: sp,
		recipe:  vp,
		readyCh: readyCh,
	}
	m.apply(ctrl.Snapshot())
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tea.SetWindowTitle("CookAIssist"),
		waitForChange(m.ctrl),
		signalReady(m.readyCh),
	)
}

func signalReady(ch chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if ch != nil {
			close(ch)
		}
		return nil
	}
}

func waitForChange(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		<-ctrl.Changes()
		return changedMsg{}
	}
}

// call runs a controller operation off the Update goroutine.
func call(op string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return opResultMsg{op: op, err: fn()}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.recipe, cmd = m.recipe.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > len(m.input.Prompt) {
			m.input.Width = msg.Width - len(m.input.Prompt) - 1
		}
		m.help.Width = msg.Width
		m.recipe.Width = max(20, m.mainWidth()-4)
		m.recipe.Height = max(minRecipeRows, msg.Height-chromeRows)
		m.shown = ""
		m.loadRecipe()
		return m, nil

	case changedMsg:
		busyBefore := m.busy()
		m.apply(m.ctrl.Snapshot())
		cmds := []tea.Cmd{waitForChange(m.ctrl)}
		if m.busy() && !busyBefore {
			cmds = append(cmds, m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case opResultMsg:
		m.notice = noticeFor(msg.op, msg.err)
		return m, nil
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.ctrl
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit):
		v := m.input.Value()
		if strings.TrimSpace(v) == "" {
			m.notice = validationNotice
			return m, nil
		}
		m.notice = ""
		return m, call("submit", func() error { return c.Submit(v) })

	case key.Matches(msg, m.keys.Dictate):
		m.notice = ""
		return m, call("dictate", c.StartDictation)
	case key.Matches(msg, m.keys.Pause):
		return m, call("pause", c.Pause)
	case key.Matches(msg, m.keys.Resume):
		return m, call("resume", c.Resume)
	case key.Matches(msg, m.keys.Stop):
		return m, call("stop", c.Stop)
	case key.Matches(msg, m.keys.ReadAloud):
		return m, call("read", c.ReadAloud)
	case key.Matches(msg, m.keys.Copy):
		return m, call("copy", c.Copy)
	case key.Matches(msg, m.keys.Panel):
		return m, call("panel", c.TogglePanel)
	case key.Matches(msg, m.keys.Dismiss):
		m.notice = ""
		return m, call("dismiss", c.DismissAlert)

	case key.Matches(msg, m.recipe.KeyMap.PageUp, m.recipe.KeyMap.PageDown,
		m.recipe.KeyMap.Up, m.recipe.KeyMap.Down):
		var cmd tea.Cmd
		m.recipe, cmd = m.recipe.Update(msg)
		return m, cmd
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != before {
		if m.notice == validationNotice {
			m.notice = ""
		}
		return m, tea.Batch(cmd, call("type", func() error { return c.SetQuery(v) }))
	}
	return m, cmd
}

// apply loads a fresh snapshot. The text field is only overwritten when
// the assistant itself replaced the query.
func (m *model) apply(v assistant.View) {
	if v.QueryRev != m.queryRev {
		m.input.SetValue(v.Query)
		m.input.CursorEnd()
		m.queryRev = v.QueryRev
	}
	m.view = v
	m.loadRecipe()
}

func (m *model) loadRecipe() {
	text := ""
	if m.view.State.HasText() {
		text = m.view.State.Text
	}
	if text == m.shown {
		return
	}
	m.shown = text
	m.recipe.SetContent(lipgloss.NewStyle().Width(m.recipe.Width).Render(text))
	m.recipe.GotoTop()
}

func (m model) busy() bool {
	p := m.view.State.Phase
	return p == domain.PhaseLoading || p == domain.PhaseListening
}

func (m model) mainWidth() int {
	w := m.width
	if w <= 0 {
		w = 80
	}
	if m.view.PanelOpen && w >= 80 {
		w -= panelWidth + 4
	}
	return w
}

// noticeFor turns an operation result into the status line. Busy and
// closed controls are silent; unsupported capabilities surface through
// the alert instead.
func noticeFor(op string, err error) string {
	switch {
	case err == nil && op == "copy":
		return copiedNotice
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrEmptyQuery):
		return validationNotice
	case errors.Is(err, domain.ErrBusy), errors.Is(err, domain.ErrClosed), errors.Is(err, domain.ErrUnsupported):
		return ""
	default:
		return err.Error()
	}
}

// ── Rendering ────────────────────────────────────────────────────

func (m model) View() string {
	left := m.renderMain()
	if !m.view.PanelOpen {
		return left + "\n" + m.renderStatus() + "\n" + m.help.View(m.keys)
	}

	panel := m.renderPanel()
	if m.width > 0 && m.width < 80 {
		return left + "\n" + panel + "\n" + m.help.View(m.keys)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", panel) + "\n" + m.help.View(m.keys)
}

func (m model) renderMain() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("CookAIssist"))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render(fieldLabel))
	b.WriteByte('\n')
	b.WriteString(m.input.View())
	b.WriteByte('\n')

	switch m.view.State.Phase {
	case domain.PhaseListening:
		b.WriteString(m.spinner.View() + " " + secondaryStyle.Italic(true).Render(listeningNotice))
	case domain.PhaseLoading:
		b.WriteString(m.spinner.View() + " " + chatStyle.Render(loadingNotice))
	default:
		if m.notice == validationNotice {
			b.WriteString(urgentStyle.Render(m.notice))
		} else if m.notice != "" {
			b.WriteString(secondaryStyle.Render(m.notice))
		}
	}
	b.WriteByte('\n')

	if m.view.Alert != "" {
		b.WriteString(urgentStyle.Render("! "+m.view.Alert) + secondaryStyle.Render("  (esc to dismiss)"))
		b.WriteByte('\n')
	}

	if m.view.State.HasText() {
		b.WriteByte('\n')
		b.WriteString(headerStyle.Render(recipeHeader))
		b.WriteByte('\n')
		body := m.recipe.View()
		if m.view.State.Phase == domain.PhaseError {
			body = urgentStyle.Render(body)
		}
		b.WriteString(recipeBox.Render(body))
		b.WriteByte('\n')
	}
	return b.String()
}

// renderStatus is the one-line speech summary shown while the panel is
// closed.
func (m model) renderStatus() string {
	return secondaryStyle.Render("Speech: ") + primaryStyle.Render(m.view.Speech.String()) +
		secondaryStyle.Render("  ·  tab for speech controls")
}

func (m model) renderPanel() string {
	v := m.view
	var b strings.Builder
	b.WriteString(headerStyle.Render("Speech Controls"))
	b.WriteString("\n\n")
	b.WriteString(secondaryStyle.Render("Status: ") + primaryStyle.Bold(true).Render(v.Speech.String()))
	b.WriteString("\n\n")

	control := func(binding key.Binding, label string, enabled bool) string {
		style := primaryStyle
		if !enabled {
			style = secondaryStyle.Strikethrough(true)
		}
		return promptStyle.Render(binding.Help().Key) + " " + style.Render(label) + "\n"
	}
	b.WriteString(control(m.keys.Resume, "Resume", v.Speech == domain.SpeechPaused))
	b.WriteString(control(m.keys.Pause, "Pause", v.Speech == domain.SpeechSpeaking))
	b.WriteString(control(m.keys.Stop, "Stop", true))
	b.WriteByte('\n')

	if v.VoiceCommands {
		b.WriteString(secondaryStyle.Render("Voice Commands:\n" + voiceHint))
	} else {
		b.WriteString(secondaryStyle.Render("Voice commands unavailable"))
	}

	if len(v.Recent) > 0 {
		b.WriteString("\n\n" + headerStyle.Render("Recent") + "\n")
		for _, e := range v.Recent {
			mark := chatStyle.Render("✓ ")
			if e.Failed {
				mark = urgentStyle.Render("✗ ")
			}
			b.WriteString(mark + primaryStyle.Render(truncate(e.Ingredients, panelWidth-4)) + "\n")
			b.WriteString("  " + secondaryStyle.Render(humanize.Time(e.CreatedAt)) + "\n")
		}
	}
	return panelBox.Render(strings.TrimRight(b.String(), "\n"))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
