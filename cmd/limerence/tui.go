package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/kenxiao1/limerence/internal/agent"
)

var (
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	toolStyle      = lipgloss.NewStyle().Faint(true).Foreground(lipgloss.Color("3"))
	errorStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	statusStyle    = lipgloss.NewStyle().Faint(true)
)

// chatModel is the bubbletea model driving the chat view: a scrolling
// transcript viewport, an input textarea, and a channel bridging the
// agent's event stream into tea.Msg values.
type chatModel struct {
	loop   *agent.Loop
	chat   viewport.Model
	input  textarea.Model
	render *glamour.TermRenderer

	transcript   strings.Builder
	streamBuffer strings.Builder

	events chan agent.Event
	cancel context.CancelFunc
	busy   bool
	status string

	width, height int
}

func newChatModel(loop *agent.Loop) *chatModel {
	input := textarea.New()
	input.Placeholder = "Say something..."
	input.Focus()
	input.CharLimit = 0
	input.SetHeight(3)

	chat := viewport.New(80, 20)
	renderer, _ := glamour.NewTermRenderer(glamour.WithAutoStyle())

	m := &chatModel{
		loop:   loop,
		chat:   chat,
		input:  input,
		render: renderer,
		status: fmt.Sprintf("talking to %s · session %s", loop.CharacterName(), loop.SessionID()),
	}
	return m
}

type agentEventMsg struct {
	event agent.Event
	ok    bool
}

func (m *chatModel) listenForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		e, ok := <-events
		return agentEventMsg{event: e, ok: ok}
	}
}

func (m *chatModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m *chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = typed.Width, typed.Height
		m.chat.Width = typed.Width
		m.chat.Height = typed.Height - 6
		m.input.SetWidth(typed.Width)
		return m, nil

	case tea.KeyMsg:
		switch typed.String() {
		case "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case "enter":
			if m.busy {
				return m, nil
			}
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.input.SetValue("")
			return m.startTurn(text)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(typed)
		return m, cmd

	case agentEventMsg:
		return m.handleAgentEvent(typed)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *chatModel) startTurn(text string) (tea.Model, tea.Cmd) {
	m.appendLine(userStyle.Render("you") + "\n" + text)
	m.streamBuffer.Reset()
	m.busy = true
	m.status = "thinking..."

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.events = make(chan agent.Event, 32)

	loop := m.loop
	events := m.events
	go loop.ProcessMessage(ctx, text, events)

	return m, m.listenForEvent()
}

func (m *chatModel) handleAgentEvent(msg agentEventMsg) (tea.Model, tea.Cmd) {
	if !msg.ok {
		m.finishTurn()
		return m, nil
	}

	switch msg.event.Kind {
	case agent.EventTextDelta:
		m.streamBuffer.WriteString(msg.event.Text)
		m.refreshStreamingView()
	case agent.EventToolCallStart:
		m.appendLine(toolStyle.Render(fmt.Sprintf("→ calling %s...", msg.event.ToolName)))
	case agent.EventToolCallResult:
		m.appendLine(toolStyle.Render(fmt.Sprintf("← %s result: %s", msg.event.ToolName, truncate(msg.event.Result, 300))))
	case agent.EventDone:
		m.flushAssistantText()
		m.finishTurn()
		return m, nil
	case agent.EventError:
		m.appendLine(errorStyle.Render("error: " + msg.event.Err))
		m.finishTurn()
		return m, nil
	}

	return m, m.listenForEvent()
}

func (m *chatModel) flushAssistantText() {
	text := m.streamBuffer.String()
	if text == "" {
		return
	}
	rendered := text
	if m.render != nil {
		if out, err := m.render.Render(text); err == nil {
			rendered = strings.TrimRight(out, "\n")
		}
	}
	m.appendLine(assistantStyle.Render(m.loop.CharacterName()) + "\n" + rendered)
	m.streamBuffer.Reset()
}

func (m *chatModel) refreshStreamingView() {
	preview := m.transcript.String() + "\n" + assistantStyle.Render(m.loop.CharacterName()) + "\n" + m.streamBuffer.String()
	m.chat.SetContent(preview)
	m.chat.GotoBottom()
}

func (m *chatModel) finishTurn() {
	m.busy = false
	m.cancel = nil
	m.status = fmt.Sprintf("talking to %s · session %s", m.loop.CharacterName(), m.loop.SessionID())
}

func (m *chatModel) appendLine(line string) {
	if m.transcript.Len() > 0 {
		m.transcript.WriteString("\n\n")
	}
	m.transcript.WriteString(line)
	m.chat.SetContent(m.transcript.String())
	m.chat.GotoBottom()
}

func (m *chatModel) View() string {
	return m.chat.View() + "\n" + statusStyle.Render(m.status) + "\n" + m.input.View()
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

func runTUI(loop *agent.Loop) error {
	model := newChatModel(loop)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
