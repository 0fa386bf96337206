package character

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kenxiao1/limerence/internal/testutil"
)

func TestDefaultCardHasFallbackPrompt(t *testing.T) {
	card := Default()
	testutil.RequireEqual(t, card.Data.Name, "Limerence", "")
	testutil.RequireStringContains(t, card.BuildSystemPrompt(), "helpful", "")
}

func TestLoadParsesCardFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "card.json")
	content := `{
		"spec": "chara_card_v2",
		"spec_version": "2.0",
		"data": {
			"name": "Aria",
			"description": "A curious librarian.",
			"personality": "warm, inquisitive",
			"scenario": "In a quiet reading room.",
			"first_mes": "Welcome back!",
			"system_prompt": "You are Aria.",
			"mes_example": "User: hi\nAria: hello"
		}
	}`
	testutil.RequireNoError(t, os.WriteFile(path, []byte(content), 0o644), "")

	card, err := Load(path)
	testutil.RequireNoError(t, err, "")
	testutil.RequireEqual(t, card.Data.Name, "Aria", "")

	msg, ok := card.FirstMessage()
	testutil.RequireTrue(t, ok, "expected a first message")
	testutil.RequireEqual(t, msg, "Welcome back!", "")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/card.json")
	testutil.RequireTrue(t, err != nil, "expected an error for a missing file")
}

func TestFirstMessageAbsentWhenEmpty(t *testing.T) {
	card := Card{Data: Data{Name: "Empty"}}
	_, ok := card.FirstMessage()
	testutil.RequireTrue(t, !ok, "expected no first message")
}

func TestBuildSystemPromptIncludesAllFields(t *testing.T) {
	card := Card{Data: Data{
		Name:         "Aria",
		Description:  "A librarian.",
		Personality:  "curious",
		Scenario:     "library",
		SystemPrompt: "Base prompt.",
		MesExample:   "example dialogue",
	}}
	prompt := card.BuildSystemPrompt()

	for _, want := range []string{"Base prompt.", "Aria", "librarian", "curious", "library", "example dialogue", "memory_search"} {
		testutil.RequireStringContains(t, prompt, want, "")
	}
}

func TestLoadDefaultsSpecWhenMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "card.json")
	testutil.RequireNoError(t, os.WriteFile(path, []byte(`{"data":{"name":"Bare"}}`), 0o644), "")

	card, err := Load(path)
	testutil.RequireNoError(t, err, "")
	testutil.RequireEqual(t, card.Spec, "chara_card_v2", "")
	testutil.RequireEqual(t, card.SpecVersion, "2.0", "")
}
