package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/kenxiao1/limerence/internal/memory"
	"github.com/kenxiao1/limerence/internal/testutil"
)

func TestMemorySearchReturnsFormattedResults(t *testing.T) {
	idx := memory.NewIndex(t.TempDir())
	testutil.RequireNoError(t, idx.Add(memory.Entry{SessionID: "s1", Role: "user", Content: "I adopted a cat named Mochi"}), "")
	testutil.RequireNoError(t, idx.Add(memory.Entry{SessionID: "s1", Role: "assistant", Content: "That's wonderful, tell me about Mochi"}), "")

	tool := &MemorySearchTool{}
	args, _ := json.Marshal(map[string]any{"query": "Mochi cat"})
	result := tool.Execute(context.Background(), args, Context{Memory: idx})

	testutil.RequireStringContains(t, result, "Mochi", "")
	testutil.RequireStringContains(t, result, "[1]", "")
}

func TestMemorySearchEmptyQuery(t *testing.T) {
	idx := memory.NewIndex(t.TempDir())
	tool := &MemorySearchTool{}

	args, _ := json.Marshal(map[string]any{"query": "  "})
	result := tool.Execute(context.Background(), args, Context{Memory: idx})
	testutil.RequireStringContains(t, result, "provide a search query", "")
}

func TestMemorySearchNoResults(t *testing.T) {
	idx := memory.NewIndex(t.TempDir())
	tool := &MemorySearchTool{}

	args, _ := json.Marshal(map[string]any{"query": "anything"})
	result := tool.Execute(context.Background(), args, Context{Memory: idx})
	testutil.RequireEqual(t, result, "No relevant memories found.", "")
}

func TestMemorySearchRespectsLimit(t *testing.T) {
	idx := memory.NewIndex(t.TempDir())
	for i := 0; i < 10; i++ {
		testutil.RequireNoError(t, idx.Add(memory.Entry{SessionID: "s1", Role: "user", Content: "coffee shop visit"}), "")
	}
	tool := &MemorySearchTool{}

	args, _ := json.Marshal(map[string]any{"query": "coffee", "limit": 3})
	result := tool.Execute(context.Background(), args, Context{Memory: idx})
	testutil.RequireStringContains(t, result, "[3]", "")
	if containsLabel(result, "[4]") {
		t.Fatalf("expected at most 3 results, got a 4th: %s", result)
	}
}

func containsLabel(s, label string) bool {
	for i := 0; i+len(label) <= len(s); i++ {
		if s[i:i+len(label)] == label {
			return true
		}
	}
	return false
}
