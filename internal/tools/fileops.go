package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileReadTool reads a file inside the workspace sandbox, or lists a
// directory's contents when the path names one.
type FileReadTool struct{}

func (t *FileReadTool) Name() string { return "file_read" }

func (t *FileReadTool) Description() string {
	return "Read a file in the workspace. Can also list a directory. Path is relative to the workspace root."
}

func (t *FileReadTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "File path relative to the workspace.",
			},
		},
		"required": []string{"path"},
	}
}

func (t *FileReadTool) Execute(ctx context.Context, rawArgs json.RawMessage, tc Context) string {
	var args struct {
		Path string `json:"path"`
	}
	_ = json.Unmarshal(rawArgs, &args)
	if args.Path == "" {
		args.Path = "."
	}

	full, err := tc.Sandbox.Resolve(args.Path)
	if err != nil {
		return "path escapes the workspace sandbox: not allowed"
	}

	info, err := os.Stat(full)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Sprintf("file does not exist: %s", args.Path)
	}
	if err != nil {
		return fmt.Sprintf("read failed: %v", err)
	}
	if info.IsDir() {
		return listDir(full)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return fmt.Sprintf("read failed: %v", err)
	}
	return string(data)
}

func listDir(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Sprintf("read failed: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return "Directory is empty."
	}
	return strings.Join(names, "\n")
}

// FileWriteTool creates or overwrites a file inside the workspace sandbox,
// creating any missing parent directories.
type FileWriteTool struct{}

func (t *FileWriteTool) Name() string { return "file_write" }

func (t *FileWriteTool) Description() string {
	return "Create or overwrite a file in the workspace. Path is relative to the workspace root; parent directories are created automatically."
}

func (t *FileWriteTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path":    map[string]any{"type": "string", "description": "File path relative to the workspace."},
			"content": map[string]any{"type": "string", "description": "File content."},
		},
		"required": []string{"path", "content"},
	}
}

func (t *FileWriteTool) Execute(ctx context.Context, rawArgs json.RawMessage, tc Context) string {
	var args struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	_ = json.Unmarshal(rawArgs, &args)
	if args.Path == "" {
		return "Please provide a file path."
	}

	full, err := tc.Sandbox.Resolve(args.Path)
	if err != nil {
		return "path escapes the workspace sandbox: not allowed"
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Sprintf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(full, []byte(args.Content), 0o644); err != nil {
		return fmt.Sprintf("write failed: %v", err)
	}
	return fmt.Sprintf("Wrote file: %s", args.Path)
}
