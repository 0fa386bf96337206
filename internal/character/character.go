// Package character loads SillyTavern V2-compatible character cards and
// turns them into a system prompt for the agent loop.
package character

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Card is a SillyTavern V2 character card.
type Card struct {
	Spec        string `json:"spec"`
	SpecVersion string `json:"spec_version"`
	Data        Data   `json:"data"`
}

// Data holds the fields that feed BuildSystemPrompt.
type Data struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Personality  string `json:"personality"`
	Scenario     string `json:"scenario"`
	FirstMes     string `json:"first_mes"`
	SystemPrompt string `json:"system_prompt"`
	MesExample   string `json:"mes_example"`
}

// defaultCard is used when no --character flag is given.
func defaultCard() Card {
	return Card{
		Spec:        "chara_card_v2",
		SpecVersion: "2.0",
		Data: Data{
			Name:         "Limerence",
			SystemPrompt: "You are a helpful, terse conversational assistant running entirely on the user's machine.",
		},
	}
}

// Load reads a character card from path.
func Load(path string) (Card, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Card{}, fmt.Errorf("read character card: %w", err)
	}
	var card Card
	if err := json.Unmarshal(content, &card); err != nil {
		return Card{}, fmt.Errorf("parse character card: %w", err)
	}
	if card.Spec == "" {
		card.Spec = "chara_card_v2"
	}
	if card.SpecVersion == "" {
		card.SpecVersion = "2.0"
	}
	return card, nil
}

// Default returns the built-in fallback character.
func Default() Card {
	return defaultCard()
}

// FirstMessage returns the card's opening line, if it has one.
func (c Card) FirstMessage() (string, bool) {
	if c.Data.FirstMes == "" {
		return "", false
	}
	return c.Data.FirstMes, true
}

// BuildSystemPrompt assembles the agent's system prompt from the card's
// fields plus a fixed tool-usage primer describing the six built-in tools.
func (c Card) BuildSystemPrompt() string {
	d := c.Data
	var parts []string

	if d.SystemPrompt != "" {
		parts = append(parts, d.SystemPrompt)
	}

	parts = append(parts, fmt.Sprintf("Your name is %s.", d.Name))

	if d.Description != "" {
		parts = append(parts, fmt.Sprintf("Character description: %s", d.Description))
	}
	if d.Personality != "" {
		parts = append(parts, fmt.Sprintf("Personality: %s", d.Personality))
	}
	if d.Scenario != "" {
		parts = append(parts, fmt.Sprintf("Scenario: %s", d.Scenario))
	}
	if d.MesExample != "" {
		parts = append(parts, fmt.Sprintf("Example dialogue:\n%s", d.MesExample))
	}

	parts = append(parts, toolPrimer)

	return strings.Join(parts, "\n\n")
}

const toolPrimer = `You have access to the following tools:
- memory_search: search past conversation memory for things the user has mentioned before
- web_search: search the internet for current information
- note_write: write a persistent note, for recording important facts about the user
- note_read: read a previously written note
- file_read: read a file from the workspace
- file_write: create or overwrite a file in the workspace

Proactively use memory_search to recall things the user has mentioned before.
Use note_write to record things worth remembering (preferences, history, mood).`
