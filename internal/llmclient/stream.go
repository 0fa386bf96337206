package llmclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type wireMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []wireCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type wireCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

type wireTool struct {
	Type     string       `json:"type"`
	Function wireToolFunc `json:"function"`
}

type wireToolFunc struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type wireRequest struct {
	Model    string     `json:"model"`
	Messages []wireMessage `json:"messages"`
	Tools    []wireTool `json:"tools,omitempty"`
	Stream   bool       `json:"stream"`
}

func toWireMessage(m Message) wireMessage {
	wm := wireMessage{Role: string(m.Role), Content: m.Content, ToolCallID: m.ToolCallID}
	for _, tc := range m.ToolCalls {
		wm.ToolCalls = append(wm.ToolCalls, wireCall{ID: tc.ID, Type: "function", Function: tc.Function})
	}
	return wm
}

func toWireTool(t ToolDef) wireTool {
	return wireTool{
		Type: "function",
		Function: wireToolFunc{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		},
	}
}

// accumulator assembles the final assistant Message from a sequence of
// StreamEvents. It is a standalone state machine, deliberately not fused
// into the HTTP/SSE reading loop, so the assembly rules can be reasoned
// about (and tested) independently of transport concerns.
type accumulator struct {
	text      strings.Builder
	callOrder []int
	calls     map[int]*ToolCall
}

func newAccumulator() *accumulator {
	return &accumulator{calls: make(map[int]*ToolCall)}
}

func (a *accumulator) apply(event StreamEvent) {
	switch event.Kind {
	case EventTextDelta:
		a.text.WriteString(event.Text)
	case EventToolCallStart:
		call := a.callFor(event.Index)
		call.ID = event.ID
		call.Function.Name = event.Name
	case EventToolCallDelta:
		call := a.callFor(event.Index)
		call.Function.Arguments += event.Args
	}
}

func (a *accumulator) callFor(index int) *ToolCall {
	call, ok := a.calls[index]
	if !ok {
		call = &ToolCall{}
		a.calls[index] = call
		a.callOrder = append(a.callOrder, index)
	}
	return call
}

func (a *accumulator) message() Message {
	text := a.text.String()
	if len(a.callOrder) == 0 {
		return NewAssistantMessage(text)
	}
	calls := make([]ToolCall, 0, len(a.callOrder))
	for _, index := range a.callOrder {
		calls = append(calls, *a.calls[index])
	}
	return NewAssistantMessageWithTools(text, calls)
}

// Stream issues a streaming chat/completions request and forwards each
// parsed StreamEvent to events exactly once. It blocks until the stream
// ends, ctx is cancelled, or a transport/API error occurs, then returns the
// assembled assistant Message. The caller owns events and must drain it;
// Stream never closes it (the caller's receive loop observes EventDone or
// EventError to know when to stop reading).
func (d *StreamDriver) Stream(ctx context.Context, model Model, messages []Message, tools []ToolDef, events chan<- StreamEvent) (Message, error) {
	apiKey, ok := model.APIKey()
	if !ok {
		return Message{}, &ErrMissingAPIKey{EnvVar: model.APIKeyEnv}
	}

	wireMessages := make([]wireMessage, 0, len(messages))
	for _, m := range messages {
		wireMessages = append(wireMessages, toWireMessage(m))
	}
	var wireTools []wireTool
	for _, t := range tools {
		wireTools = append(wireTools, toWireTool(t))
	}

	body, err := json.Marshal(wireRequest{
		Model:    model.ID,
		Messages: wireMessages,
		Tools:    wireTools,
		Stream:   true,
	})
	if err != nil {
		return Message{}, fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, completionsURL(model.BaseURL), bytes.NewReader(body))
	if err != nil {
		return Message{}, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return Message{}, fmt.Errorf("send chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return Message{}, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	acc := newAccumulator()
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return Message{}, ctx.Err()
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		// The literal [DONE] sentinel ends the stream; it is not itself
		// forwarded as an event. A finish_reason-derived Done, by contrast,
		// is just one more event in the middle of the stream: forward it
		// and keep scanning for the sentinel or the body's true end.
		if payload, isData := strings.CutPrefix(line, "data: "); isData && payload == "[DONE]" {
			break
		}

		event, ok := ParseSSELine(line)
		if !ok {
			continue
		}

		acc.apply(event)
		events <- event

		if event.Kind == EventError {
			return Message{}, errors.New(event.Err)
		}
	}
	if err := scanner.Err(); err != nil {
		return Message{}, fmt.Errorf("read chat stream: %w", err)
	}

	events <- StreamEvent{Kind: EventDone}
	return acc.message(), nil
}
