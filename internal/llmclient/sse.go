package llmclient

import (
	"encoding/json"
	"strings"
)

// ParseSSELine parses one line of an OpenAI-compatible SSE stream into a
// StreamEvent. ok is false when the line carries no event worth forwarding
// (not a data line, empty payload, or a delta with nothing new in it).
//
// Precedence, matching the wire format exactly:
//  1. "[DONE]" payload -> EventDone
//  2. a top-level "error" field -> EventError
//  3. choices[0].delta.content, if non-empty -> EventTextDelta
//  4. choices[0].delta.tool_calls[], each entry:
//     - has id and function.name -> EventToolCallStart
//     - has non-empty function.arguments -> EventToolCallDelta
//  5. choices[0].finish_reason in {"stop","tool_calls"} -> EventDone
func ParseSSELine(line string) (StreamEvent, bool) {
	data, ok := strings.CutPrefix(line, "data: ")
	if !ok {
		return StreamEvent{}, false
	}

	if data == "[DONE]" {
		return StreamEvent{Kind: EventDone}, true
	}

	var payload struct {
		Error   json.RawMessage `json:"error"`
		Choices []struct {
			Delta struct {
				Content   string `json:"content"`
				ToolCalls []struct {
					Index    int `json:"index"`
					ID       string `json:"id"`
					Function struct {
						Name      string `json:"name"`
						Arguments string `json:"arguments"`
					} `json:"function"`
				} `json:"tool_calls"`
			} `json:"delta"`
			FinishReason *string `json:"finish_reason"`
		} `json:"choices"`
	}
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return StreamEvent{}, false
	}

	if len(payload.Error) > 0 && string(payload.Error) != "null" {
		return StreamEvent{Kind: EventError, Err: string(payload.Error)}, true
	}

	if len(payload.Choices) == 0 {
		return StreamEvent{}, false
	}
	choice := payload.Choices[0]

	if choice.Delta.Content != "" {
		return StreamEvent{Kind: EventTextDelta, Text: choice.Delta.Content}, true
	}

	for _, tc := range choice.Delta.ToolCalls {
		if tc.ID != "" && tc.Function.Name != "" {
			return StreamEvent{Kind: EventToolCallStart, Index: tc.Index, ID: tc.ID, Name: tc.Function.Name}, true
		}
		if tc.Function.Arguments != "" {
			return StreamEvent{Kind: EventToolCallDelta, Index: tc.Index, Args: tc.Function.Arguments}, true
		}
	}

	if choice.FinishReason != nil && (*choice.FinishReason == "stop" || *choice.FinishReason == "tool_calls") {
		return StreamEvent{Kind: EventDone}, true
	}

	return StreamEvent{}, false
}
