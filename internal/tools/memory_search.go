package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// MemorySearchTool searches the BM25 memory index for past conversation
// turns relevant to a query.
type MemorySearchTool struct{}

func (t *MemorySearchTool) Name() string { return "memory_search" }

func (t *MemorySearchTool) Description() string {
	return "Search past conversation memory for things the user has mentioned before."
}

func (t *MemorySearchTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Search keywords.",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum number of results to return, default 5.",
				"default":     5,
			},
		},
		"required": []string{"query"},
	}
}

func (t *MemorySearchTool) Execute(ctx context.Context, rawArgs json.RawMessage, tc Context) string {
	var args struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	_ = json.Unmarshal(rawArgs, &args)
	if args.Limit <= 0 {
		args.Limit = 5
	}
	if strings.TrimSpace(args.Query) == "" {
		return "Please provide a search query."
	}
	if tc.Memory == nil {
		return "No relevant memories found."
	}

	results := tc.Memory.Search(args.Query, args.Limit)
	if len(results) == 0 {
		return "No relevant memories found."
	}

	var out strings.Builder
	for i, r := range results {
		content := r.Content
		if runes := []rune(content); len(runes) > 200 {
			content = string(runes[:200]) + "..."
		}
		fmt.Fprintf(&out, "[%d] [%s] %s: %s\n", i+1, r.Timestamp.Format("2006-01-02 15:04"), displayRole(r.Role), content)
	}
	return out.String()
}

func displayRole(role string) string {
	switch role {
	case "user":
		return "user"
	case "assistant":
		return "assistant"
	default:
		return role
	}
}
