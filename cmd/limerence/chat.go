package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"golang.org/x/time/rate"

	"github.com/kenxiao1/limerence/internal/agent"
	"github.com/kenxiao1/limerence/internal/character"
	"github.com/kenxiao1/limerence/internal/config"
	"github.com/kenxiao1/limerence/internal/llmclient"
	"github.com/kenxiao1/limerence/internal/memory"
	"github.com/kenxiao1/limerence/internal/session"
	"github.com/kenxiao1/limerence/internal/telemetry"
	"github.com/kenxiao1/limerence/internal/tools"
)

// chatStreamTimeout bounds how long a single streamed model response may
// take before the HTTP client gives up.
const chatStreamTimeout = 120 * time.Second

// webSearchRate limits outbound web_search requests to one every two
// seconds, enough to stay polite to DuckDuckGo/SearXNG without stalling an
// interactive session.
const webSearchRate = 0.5

func chatCommand() *cobra.Command {
	var characterPath string
	var modelOverride string
	var resumeID string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(0) || !term.IsTerminal(1) {
				return errors.New("chat requires an interactive terminal")
			}
			loop, err := buildLoop(characterPath, modelOverride, resumeID, verbose)
			if err != nil {
				return err
			}
			return runTUI(loop)
		},
	}

	cmd.Flags().StringVar(&characterPath, "character", "", "Path to a SillyTavern V2 character card")
	cmd.Flags().StringVar(&modelOverride, "model", "", "Override the configured model ID")
	cmd.Flags().StringVar(&resumeID, "resume", "", "Resume an existing session by ID")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Enable debug-level logging")

	return cmd
}

func buildLoop(characterPath, modelOverride, resumeID string, verbose bool) (*agent.Loop, error) {
	logger := telemetry.New(os.Stderr, verbose)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if modelOverride != "" {
		cfg.Model.ID = modelOverride
	}

	card := character.Default()
	if characterPath != "" {
		loaded, err := character.Load(characterPath)
		if err != nil {
			return nil, err
		}
		card = loaded
	}

	sessionsDir, err := config.SessionsDir()
	if err != nil {
		return nil, err
	}
	memoryDir, err := config.MemoryDir()
	if err != nil {
		return nil, err
	}
	notesDir, err := config.NotesDir()
	if err != nil {
		return nil, err
	}
	workspaceDir, err := config.WorkspaceDir()
	if err != nil {
		return nil, err
	}

	var store *session.Store
	if resumeID != "" {
		store, err = session.Load(filepath.Join(sessionsDir, resumeID+".jsonl"))
		if err != nil {
			return nil, fmt.Errorf("resume session %s: %w", resumeID, err)
		}
	} else {
		store, err = session.New(sessionsDir, card.Data.Name, cfg.Model.ID)
		if err != nil {
			return nil, fmt.Errorf("start session: %w", err)
		}
	}

	mem := memory.NewIndex(memoryDir)
	mem.LoadFromDisk()

	dispatcher := tools.NewDispatcher()
	toolCtx := tools.Context{
		Memory:       mem,
		Sandbox:      tools.NewSandbox(workspaceDir),
		NotesDir:     notesDir,
		SearchConfig: cfg.Search,
		Limiter:      rate.NewLimiter(rate.Limit(webSearchRate), 1),
		Logger:       logger,
	}

	client := llmclient.NewStreamDriver(chatStreamTimeout)

	return agent.New(client, cfg, card, store, mem, dispatcher, toolCtx, logger), nil
}
