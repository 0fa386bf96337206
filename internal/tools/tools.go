// Package tools implements the six built-in tools the agent loop can call
// (memory_search, web_search, note_write, note_read, file_read,
// file_write), a path sandbox confining file tools to the workspace
// directory, and a registry that dispatches tool calls by name.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kenxiao1/limerence/internal/config"
	"github.com/kenxiao1/limerence/internal/llmclient"
	"github.com/kenxiao1/limerence/internal/memory"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Tool is a single callable tool. Execute never returns a Go error for
// expected failure conditions (missing argument, file not found, search
// failure); those are rendered as a human-readable string result instead,
// matching the behavior the model sees for every other tool outcome.
type Tool interface {
	Name() string
	Description() string
	Schema() map[string]any
	Execute(ctx context.Context, args json.RawMessage, tc Context) string
}

// Context is the shared state every tool executes against.
type Context struct {
	Memory       *memory.Index
	Sandbox      *Sandbox
	NotesDir     string
	SearchConfig config.Search
	Limiter      *rate.Limiter
	Logger       zerolog.Logger
}

// Dispatcher holds the fixed set of six built-in tools and routes calls to
// them by name, matching the table-driven dispatch the teacher uses for
// its (much larger) tool registry.
type Dispatcher struct {
	tools map[string]Tool
	order []string
}

// NewDispatcher builds the standard six-tool dispatcher.
func NewDispatcher() *Dispatcher {
	all := []Tool{
		&MemorySearchTool{},
		&WebSearchTool{},
		&NoteWriteTool{},
		&NoteReadTool{},
		&FileReadTool{},
		&FileWriteTool{},
	}
	d := &Dispatcher{tools: make(map[string]Tool, len(all))}
	for _, t := range all {
		d.tools[t.Name()] = t
		d.order = append(d.order, t.Name())
	}
	return d
}

// ToolDefs returns every tool's definition in a fixed order, suitable for
// advertising to the model on every turn.
func (d *Dispatcher) ToolDefs() []llmclient.ToolDef {
	defs := make([]llmclient.ToolDef, 0, len(d.order))
	for _, name := range d.order {
		t := d.tools[name]
		defs = append(defs, llmclient.ToolDef{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Schema(),
		})
	}
	return defs
}

// Dispatch executes the named tool, returning a result string suitable for
// feeding straight back to the model as a tool message. An unknown tool
// name produces an explanatory result rather than an error, since the
// model (not the caller) needs to see and recover from the mistake.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, rawArgs string, tc Context) string {
	tool, ok := d.tools[name]
	if !ok {
		return fmt.Sprintf("unknown tool: %s", name)
	}
	args := json.RawMessage(rawArgs)
	if len(args) == 0 || !json.Valid(args) {
		args = json.RawMessage("{}")
	}
	result := tool.Execute(ctx, args, tc)
	tc.Logger.Debug().Str("tool", name).Int("result_len", len(result)).Msg("tool dispatched")
	return result
}
