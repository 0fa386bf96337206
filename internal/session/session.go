// Package session persists conversation turns as an append-only JSONL
// journal: a single SessionHeader line followed by one SessionEntry line
// per message, each entry chained to its predecessor via ParentID.
package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/kenxiao1/limerence/internal/llmclient"
)

// Header is the first line of a session journal, written once at creation.
type Header struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Character string    `json:"character"`
	Model     string    `json:"model"`
}

// Entry is one journaled turn, chained to the previous entry by ParentID so
// the conversation can be reconstructed (and, eventually, branched) from
// the journal alone.
type Entry struct {
	ID        string          `json:"id"`
	ParentID  *string         `json:"parent_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Message   llmclient.Message `json:"message"`
}

// Store is a single live session: its header, its in-memory entries, and
// the open journal file path on disk.
type Store struct {
	Header      Header
	Entries     []Entry
	path        string
	lastEntryID *string
}

// New creates a fresh session journal under dir and writes its header line
// immediately, matching the original's write-header-at-creation semantics.
func New(dir string, character string, model string) (*Store, error) {
	id := uuid.NewString()
	header := Header{
		ID:        id,
		Timestamp: time.Now().UTC(),
		Character: character,
		Model:     model,
	}
	store := &Store{
		Header: header,
		path:   filepath.Join(dir, id+".jsonl"),
	}
	if err := store.writeHeader(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Store) writeHeader() error {
	line, err := json.Marshal(s.Header)
	if err != nil {
		return fmt.Errorf("encode session header: %w", err)
	}
	if err := os.WriteFile(s.path, append(line, '\n'), 0o644); err != nil {
		return fmt.Errorf("write session header: %w", err)
	}
	return nil
}

// Load reads a full session journal (header + entries) from path.
func Load(path string) (*Store, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open session journal: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	if !scanner.Scan() {
		return nil, fmt.Errorf("empty session journal: %s", path)
	}
	var header Header
	if err := json.Unmarshal(scanner.Bytes(), &header); err != nil {
		return nil, fmt.Errorf("decode session header: %w", err)
	}

	store := &Store{Header: header, path: path}
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		store.lastEntryID = &entry.ID
		store.Entries = append(store.Entries, entry)
	}
	return store, nil
}

// ListSessions returns every session header found under dir, newest first.
func ListSessions(dir string) ([]Header, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sessions dir: %w", err)
	}

	var headers []Header
	for _, de := range dirEntries {
		if de.IsDir() || filepath.Ext(de.Name()) != ".jsonl" {
			continue
		}
		file, err := os.Open(filepath.Join(dir, de.Name()))
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(file)
		if scanner.Scan() {
			var header Header
			if json.Unmarshal(scanner.Bytes(), &header) == nil {
				headers = append(headers, header)
			}
		}
		file.Close()
	}

	sort.Slice(headers, func(i, j int) bool {
		return headers[i].Timestamp.After(headers[j].Timestamp)
	})
	return headers, nil
}

// Append journals message as a new entry chained to the previous one, and
// records it in the in-memory Entries slice.
func (s *Store) Append(message llmclient.Message) error {
	entry := Entry{
		ID:        uuid.NewString(),
		ParentID:  s.lastEntryID,
		Timestamp: time.Now().UTC(),
		Message:   message,
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode session entry: %w", err)
	}
	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open session journal: %w", err)
	}
	defer file.Close()
	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append session entry: %w", err)
	}

	id := entry.ID
	s.lastEntryID = &id
	s.Entries = append(s.Entries, entry)
	return nil
}

// Messages returns the journaled messages in append order, suitable for
// feeding back to the model as conversation history.
func (s *Store) Messages() []llmclient.Message {
	messages := make([]llmclient.Message, 0, len(s.Entries))
	for _, entry := range s.Entries {
		messages = append(messages, entry.Message)
	}
	return messages
}
