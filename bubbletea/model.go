package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/sdr"
)

var _ tea.Model = Model{}

const (
	assistantLabel   = "Catarina"
	visitorLabel     = "Você"
	inputPlaceholder = "Digite sua mensagem..."
	leadPlaceholder  = "Nome, Empresa, Telefone, base (fria/morna/quente)"
	handoffStatus    = "Atendimento Direcionado"
)

// quickKeys maps function keys to indexes into sdr.QuickActions.
var quickKeys = map[tea.KeyType]int{
	tea.KeyF1: 0,
	tea.KeyF2: 1,
	tea.KeyF3: 2,
	tea.KeyF4: 3,
	tea.KeyF5: 4,
}

// Model is the Bubble Tea model for the SDR chat simulator.
//
// The transcript is never kept in the model itself: every event re-reads the
// agent snapshot and re-renders it.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable conversation area. Exported for test access.
	Viewport viewport.Model

	agent   Agent
	events  <-chan sdr.Event
	styles  Styles
	spinner spinner.Model

	mode      sdr.Mode
	roster    Roster
	parseLead func(string) (sdr.Lead, error)
	leads     []sdr.Lead
	selected  int
	adding    bool

	snapshot  sdr.Snapshot
	target    sdr.Target
	sending   bool
	selecting bool
	err       error
	ready     bool
}

// Option configures a [Model].
type Option func(*Model)

// WithEvents sets the channel the agent's events are forwarded to. Without
// it the view only refreshes when a command completes.
func WithEvents(ch <-chan sdr.Event) Option {
	return func(m *Model) { m.events = ch }
}

// WithRoster switches the model to outreach mode over the roster's leads.
// The first lead is selected on start.
func WithRoster(r Roster) Option {
	return func(m *Model) {
		m.mode = sdr.ModeOutreach
		m.roster = r
		m.leads = r.List()
	}
}

// WithLeadParser enables registering leads by hand in outreach mode. parse
// turns the typed line into a lead, which is then added to the roster.
func WithLeadParser(parse func(string) (sdr.Lead, error)) Option {
	return func(m *Model) { m.parseLead = parse }
}

// New creates a TUI Model driving agent. It starts in inbound mode unless
// WithRoster is given.
func New(agent Agent, theme sdr.Theme, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = inputPlaceholder
	ti.Prompt = "› "
	ti.Focus()
	ti.CharLimit = 0

	styles := NewStyles(theme)
	m := Model{
		Input:  ti,
		agent:  agent,
		styles: styles,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(styles.Assistant),
		),
	}
	for _, o := range opts {
		o(&m)
	}
	m.selecting = m.hasTarget()
	return m
}

// Sending returns whether a message is in flight.
func (m Model) Sending() bool { return m.sending }

// Err returns the last error, if any.
func (m Model) Err() error { return m.err }

// Mode returns whether the model serves inbound visitors or outreach leads.
func (m Model) Mode() sdr.Mode { return m.mode }

// Selected returns the index of the selected outreach lead.
func (m Model) Selected() int { return m.selected }

// Adding returns whether the input is collecting a new lead.
func (m Model) Adding() bool { return m.adding }

// Leads returns the outreach leads in display order.
func (m Model) Leads() []sdr.Lead { return m.leads }

// Init implements tea.Model. It selects the initial target: the inbound
// visitor, greeted at once, or the first outreach lead.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.events != nil {
		cmds = append(cmds, listenForEvent(m.events))
	}
	switch {
	case m.mode == sdr.ModeInbound:
		cmds = append(cmds, selectTarget(m.agent, sdr.Inbound(), true))
	case len(m.leads) > 0:
		cmds = append(cmds, selectTarget(m.agent, sdr.Outreach(m.leads[0]), false))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m = m.handleWindowSize(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case EventMsg:
		m = m.refresh()
		if m.events != nil {
			return m, listenForEvent(m.events)
		}
		return m, nil

	case SelectedMsg:
		m.selecting = false
		m.sending = false
		m.err = visible(msg.Err)
		m = m.refresh()
		cmd := m.focus()
		return m, cmd

	case GreetedMsg:
		m.err = visible(msg.Err)
		m = m.refresh()
		return m, nil

	case SendDoneMsg:
		// A stale send belongs to a conversation that was replaced; the
		// selection that replaced it already cleared the sending state.
		if errors.Is(msg.Err, sdr.ErrStale) {
			return m, nil
		}
		m.sending = false
		m.err = visible(msg.Err)
		m = m.refresh()
		cmd := m.focus()
		return m, cmd

	case spinner.TickMsg:
		if !m.sending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Viewport always receives messages for scrolling (keyboard and mouse).
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	if m.canType() {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Carregando..."
	}

	var b strings.Builder

	if m.mode == sdr.ModeOutreach {
		panel := lipgloss.NewStyle().
			Width(leadPanelWidth).
			Height(m.Viewport.Height).
			MaxHeight(m.Viewport.Height).
			Render(renderLeads(m.leads, m.selected, leadPanelWidth, m.Viewport.Height, m.styles))
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, panel, " ", m.Viewport.View()))
	} else {
		b.WriteString(m.Viewport.View())
	}
	b.WriteString("\n")

	b.WriteString(m.statusLine())
	b.WriteString("\n")

	b.WriteString(m.Input.View())

	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	inputH := 1
	statusHeight := 1
	borderHeight := 2 // newlines between sections
	vpHeight := msg.Height - inputH - statusHeight - borderHeight

	if vpHeight < 1 {
		vpHeight = 1
	}
	vpWidth := msg.Width
	if m.mode == sdr.ModeOutreach {
		vpWidth = max(msg.Width-leadPanelWidth-1, 10)
	}

	if !m.ready {
		m.Viewport = viewport.New(vpWidth, vpHeight)
		m.ready = true
	} else {
		m.Viewport.Width = vpWidth
		m.Viewport.Height = vpHeight
	}
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()

	m.Input.Width = msg.Width
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyEnter:
		text := m.Input.Value()
		if m.adding {
			return m.addLead(text)
		}
		if strings.TrimSpace(text) == "" || !m.canSend() {
			return m, nil
		}
		return m.submit(text)

	case tea.KeyEsc:
		if !m.adding {
			break
		}
		m = m.stopAdding()
		m.err = nil
		cmd := m.focus()
		return m, cmd

	case tea.KeyCtrlA:
		if !m.canAdd() {
			return m, nil
		}
		m.adding = true
		m.err = nil
		m.Input.SetValue("")
		m.Input.Placeholder = leadPlaceholder
		return m, m.Input.Focus()

	case tea.KeyF1, tea.KeyF2, tea.KeyF3, tea.KeyF4, tea.KeyF5:
		if m.mode != sdr.ModeInbound || !m.canSend() {
			return m, nil
		}
		return m.submit(sdr.QuickActions()[quickKeys[msg.Type]])

	case tea.KeyCtrlN, tea.KeyCtrlP:
		// Selections run concurrently, so a switch waits for the previous
		// one to land.
		if m.mode != sdr.ModeOutreach || len(m.leads) == 0 || m.selecting || m.adding {
			return m, nil
		}
		step := 1
		if msg.Type == tea.KeyCtrlP {
			step = len(m.leads) - 1
		}
		return m.selectLead((m.selected + step) % len(m.leads))

	case tea.KeyCtrlO:
		if m.mode != sdr.ModeOutreach || !m.canSend() || m.snapshot.State != sdr.StateEmpty {
			return m, nil
		}
		return m, greet(m.agent)
	}

	// Pass keys to the input for typing and non-character keys to the
	// viewport for scrolling ('j'/'k' are both scroll keys and text).
	var cmd tea.Cmd
	var cmds []tea.Cmd

	if msg.Type != tea.KeyRunes {
		m.Viewport, cmd = m.Viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.canType() {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) submit(text string) (tea.Model, tea.Cmd) {
	m.Input.SetValue("")
	m.err = nil
	m.sending = true
	m.Input.Blur()
	return m, tea.Batch(send(m.agent, text), m.spinner.Tick)
}

// addLead registers the typed lead and selects it. Invalid input keeps the
// prompt open with the error in the status line.
func (m Model) addLead(text string) (tea.Model, tea.Cmd) {
	lead, err := m.parseLead(text)
	if err == nil {
		lead, err = m.roster.Add(lead)
	}
	if err != nil {
		m.err = err
		return m, nil
	}
	m = m.stopAdding()
	m.leads = m.roster.List()
	i := slices.IndexFunc(m.leads, func(l sdr.Lead) bool { return l.ID == lead.ID })
	return m.selectLead(max(i, 0))
}

func (m Model) stopAdding() Model {
	m.adding = false
	m.Input.SetValue("")
	m.Input.Placeholder = inputPlaceholder
	if m.snapshot.Terminal {
		m.Input.Placeholder = handoffStatus
	}
	return m
}

func (m Model) selectLead(i int) (tea.Model, tea.Cmd) {
	m.selected = i
	m.selecting = true
	m.sending = false
	m.err = nil
	m.Input.Blur()
	return m, selectTarget(m.agent, sdr.Outreach(m.leads[i]), false)
}

// refresh re-reads the agent snapshot and re-renders the conversation.
func (m Model) refresh() Model {
	m.snapshot = m.agent.Snapshot()
	m.target = m.agent.Target()
	switch {
	case m.adding:
	case m.snapshot.Terminal:
		m.Input.Blur()
		m.Input.Placeholder = handoffStatus
	default:
		m.Input.Placeholder = inputPlaceholder
	}
	if m.ready {
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
	}
	return m
}

func (m *Model) focus() tea.Cmd {
	if !m.canType() {
		m.Input.Blur()
		return nil
	}
	return m.Input.Focus()
}

// canType reports whether key presses reach the input.
func (m Model) canType() bool {
	return m.adding || m.canSend()
}

// canAdd reports whether a lead can be registered by hand.
func (m Model) canAdd() bool {
	return m.mode == sdr.ModeOutreach && m.roster != nil && m.parseLead != nil &&
		!m.adding && !m.selecting && !m.sending
}

// canSend reports whether the input accepts a new message.
func (m Model) canSend() bool {
	return m.hasTarget() && !m.sending && !m.selecting && !m.snapshot.Terminal
}

func (m Model) hasTarget() bool {
	return m.mode == sdr.ModeInbound || len(m.leads) > 0
}

func (m Model) renderContent() string {
	var blocks []MessageBlock
	if m.target.Mode == sdr.ModeOutreach {
		l := m.target.Lead
		blocks = append(blocks, NewNoticeBlock(
			fmt.Sprintf("%s · %s · base %s", l.Name, l.Company, l.Segment),
			m.styles.Muted,
		))
	}
	for _, t := range m.snapshot.Turns {
		blocks = append(blocks, NewTurnBlock(t, m.label(t), m.styles))
	}
	if m.snapshot.Terminal {
		blocks = append(blocks, NewNoticeBlock(handoffStatus, m.styles.Handoff))
	}

	var b strings.Builder
	for i, block := range blocks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(block.View(m.Viewport.Width))
	}
	return b.String()
}

func (m Model) label(t sdr.Turn) string {
	switch {
	case t.FromAssistant():
		return assistantLabel
	case m.target.Mode == sdr.ModeOutreach && m.target.Lead.Name != "":
		return m.target.Lead.Name
	default:
		return visitorLabel
	}
}

func (m Model) statusLine() string {
	switch {
	case m.err != nil:
		return m.styles.Error.Render(fmt.Sprintf("Erro: %v", m.err))
	case m.adding:
		return m.styles.Accent.Render("Novo lead") + "  " +
			m.styles.Muted.Render("Enter salva, Esc cancela")
	case m.snapshot.Terminal:
		return m.styles.Handoff.Render("● " + handoffStatus)
	case m.sending:
		return m.spinner.View() + " " + m.styles.Muted.Render(assistantLabel+" está digitando...")
	case m.selecting:
		return m.styles.Muted.Render("Conectando...")
	case !m.hasTarget() && m.canAdd():
		return m.styles.Muted.Render("Nenhum lead importado. Ctrl+A cadastra, Ctrl+C sai")
	case !m.hasTarget():
		return m.styles.Muted.Render("Nenhum lead importado. Ctrl+C para sair")
	case m.mode == sdr.ModeOutreach:
		hints := "Ctrl+N/Ctrl+P troca o lead, Ctrl+O envia a abertura"
		if m.canAdd() {
			hints += ", Ctrl+A novo lead"
		}
		return m.styles.Online.Render("● Online") + "  " + m.styles.Muted.Render(hints)
	default:
		return m.styles.Online.Render("● Online") + "  " +
			m.styles.Muted.Render("F1-F5 respostas rápidas, Enter envia, Ctrl+C sai")
	}
}

// visible filters out errors that need no attention from the user.
func visible(err error) error {
	switch {
	case err == nil,
		errors.Is(err, sdr.ErrStale),
		errors.Is(err, sdr.ErrConversationStarted),
		errors.Is(err, context.Canceled):
		return nil
	default:
		return err
	}
}

// selectTarget switches the agent to t and, when requested, appends the
// opening line.
func selectTarget(a Agent, t sdr.Target, greet bool) tea.Cmd {
	return func() tea.Msg {
		a.Select(context.Background(), t)
		if !greet {
			return SelectedMsg{Target: t}
		}
		_, err := a.Greet()
		return SelectedMsg{Target: t, Err: err}
	}
}

func greet(a Agent) tea.Cmd {
	return func() tea.Msg {
		_, err := a.Greet()
		return GreetedMsg{Err: err}
	}
}

// send blocks until the reply is appended.
func send(a Agent, text string) tea.Cmd {
	return func() tea.Msg {
		turn, err := a.Send(context.Background(), text)
		return SendDoneMsg{Turn: turn, Err: err}
	}
}

// listenForEvent waits for the next event from the channel.
func listenForEvent(ch <-chan sdr.Event) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return nil
		}
		return EventMsg{Event: evt}
	}
}
