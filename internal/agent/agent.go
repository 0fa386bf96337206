// Package agent implements the turn/tool-cycling control loop that drives a
// conversation: it streams an assistant reply, dispatches any tool calls the
// model requests, feeds their results back, and repeats until the model
// answers without requesting more tools.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/kenxiao1/limerence/internal/character"
	"github.com/kenxiao1/limerence/internal/config"
	"github.com/kenxiao1/limerence/internal/llmclient"
	"github.com/kenxiao1/limerence/internal/memory"
	"github.com/kenxiao1/limerence/internal/session"
	"github.com/kenxiao1/limerence/internal/tools"
	"github.com/rs/zerolog"
)

// EventKind discriminates Event variants emitted while processing a turn.
type EventKind int

const (
	EventTextDelta EventKind = iota
	EventToolCallStart
	EventToolCallResult
	EventDone
	EventError
)

// Event is forwarded from Loop.ProcessMessage to the caller (TUI or CLI) as
// the turn progresses.
type Event struct {
	Kind EventKind

	// EventTextDelta
	Text string

	// EventToolCallStart / EventToolCallResult
	ToolName string
	Result   string

	// EventError
	Err string
}

// MaxTurns bounds how many assistant-then-tools round trips a single
// ProcessMessage call will run before giving up, preventing a
// tool-call-forever loop from running unbounded.
const MaxTurns = 25

// Loop drives one character's conversation: it owns the session journal,
// the memory index, and the dispatcher for the six built-in tools.
type Loop struct {
	client     *llmclient.StreamDriver
	model      llmclient.Model
	character  character.Card
	session    *session.Store
	memory     *memory.Index
	dispatcher *tools.Dispatcher
	toolCtx    tools.Context
	logger     zerolog.Logger
}

// New builds a Loop for a freshly started or resumed session.
func New(client *llmclient.StreamDriver, cfg config.Config, card character.Card, sess *session.Store, mem *memory.Index, dispatcher *tools.Dispatcher, toolCtx tools.Context, logger zerolog.Logger) *Loop {
	return &Loop{
		client:     client,
		model:      cfg.ToModel(),
		character:  card,
		session:    sess,
		memory:     mem,
		dispatcher: dispatcher,
		toolCtx:    toolCtx,
		logger:     logger,
	}
}

// CharacterName returns the active character's display name.
func (l *Loop) CharacterName() string { return l.character.Data.Name }

// SessionID returns the underlying journal's identifier.
func (l *Loop) SessionID() string { return l.session.Header.ID }

// MemoryCount reports how many entries are currently indexed.
func (l *Loop) MemoryCount() int { return l.memory.EntryCount() }

// ProcessMessage appends userInput to the session, then runs the
// assistant-then-tools loop until the model replies without requesting a
// tool call, ctx is cancelled, or MaxTurns is exceeded. Every Event is sent
// to events before ProcessMessage returns; the caller owns events and
// should stop reading once it observes EventDone or EventError.
func (l *Loop) ProcessMessage(ctx context.Context, userInput string, events chan<- Event) {
	userMsg := llmclient.NewUserMessage(userInput)
	if err := l.session.Append(userMsg); err != nil {
		events <- Event{Kind: EventError, Err: fmt.Sprintf("save message: %v", err)}
		return
	}
	if err := l.memory.Add(memory.Entry{
		SessionID: l.session.Header.ID,
		Timestamp: time.Now().UTC(),
		Role:      "user",
		Content:   userInput,
	}); err != nil {
		l.logger.Warn().Err(err).Msg("memory index write failed")
	}

	toolDefs := l.dispatcher.ToolDefs()

	for turn := 0; turn < MaxTurns; turn++ {
		if ctx.Err() != nil {
			events <- Event{Kind: EventError, Err: ctx.Err().Error()}
			return
		}

		messages := append([]llmclient.Message{llmclient.NewSystemMessage(l.character.BuildSystemPrompt())}, l.session.Messages()...)

		streamEvents := make(chan llmclient.StreamEvent)
		streamDone := make(chan struct{})
		var assistantMsg llmclient.Message
		var streamErr error

		go func() {
			defer close(streamDone)
			assistantMsg, streamErr = l.client.Stream(ctx, l.model, messages, toolDefs, streamEvents)
		}()

		fullText := ""
		sawStreamError := false
	forward:
		for {
			select {
			case event, ok := <-streamEvents:
				if !ok {
					break forward
				}
				switch event.Kind {
				case llmclient.EventTextDelta:
					fullText += event.Text
					events <- Event{Kind: EventTextDelta, Text: event.Text}
				case llmclient.EventError:
					sawStreamError = true
					events <- Event{Kind: EventError, Err: event.Err}
				}
			case <-streamDone:
				break forward
			}
		}
		<-streamDone

		if streamErr != nil {
			// A provider-signaled error was already forwarded above; the
			// turn ends with that single Error event.
			if !sawStreamError {
				events <- Event{Kind: EventError, Err: streamErr.Error()}
			}
			return
		}

		if err := l.session.Append(assistantMsg); err != nil {
			events <- Event{Kind: EventError, Err: fmt.Sprintf("save message: %v", err)}
			return
		}
		if fullText != "" {
			if err := l.memory.Add(memory.Entry{
				SessionID: l.session.Header.ID,
				Timestamp: time.Now().UTC(),
				Role:      "assistant",
				Content:   fullText,
			}); err != nil {
				l.logger.Warn().Err(err).Msg("memory index write failed")
			}
		}

		if len(assistantMsg.ToolCalls) == 0 {
			events <- Event{Kind: EventDone}
			return
		}

		for _, call := range assistantMsg.ToolCalls {
			events <- Event{Kind: EventToolCallStart, ToolName: call.Function.Name}

			result := l.dispatcher.Dispatch(ctx, call.Function.Name, call.Function.Arguments, l.toolCtx)

			events <- Event{Kind: EventToolCallResult, ToolName: call.Function.Name, Result: result}

			toolMsg := llmclient.NewToolResultMessage(call.ID, result)
			if err := l.session.Append(toolMsg); err != nil {
				events <- Event{Kind: EventError, Err: fmt.Sprintf("save tool result: %v", err)}
				return
			}
		}
	}

	events <- Event{Kind: EventError, Err: "exceeded maximum turns without a final answer"}
}

// NewSession replaces the active session with a fresh one, keeping the same
// character, model, memory index, and tools.
func (l *Loop) NewSession(sessionsDir string) error {
	store, err := session.New(sessionsDir, l.character.Data.Name, l.model.ID)
	if err != nil {
		return fmt.Errorf("start new session: %w", err)
	}
	l.session = store
	return nil
}

// SwitchCharacter changes the active character, starting a fresh session
// under it.
func (l *Loop) SwitchCharacter(card character.Card, sessionsDir string) error {
	l.character = card
	return l.NewSession(sessionsDir)
}
