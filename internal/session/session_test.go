package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kenxiao1/limerence/internal/llmclient"
	"github.com/kenxiao1/limerence/internal/testutil"
)

func TestNewWritesHeaderImmediately(testingHandle *testing.T) {
	dir := testingHandle.TempDir()
	store, err := New(dir, "Aria", "deepseek-chat")
	testutil.RequireNoError(testingHandle, err, "create session")
	testutil.RequireTrue(testingHandle, store.Header.ID != "", "expected generated session id")

	reloaded, err := Load(dir + "/" + store.Header.ID + ".jsonl")
	testutil.RequireNoError(testingHandle, err, "reload freshly created session")
	testutil.RequireEqual(testingHandle, reloaded.Header.ID, store.Header.ID, "header id mismatch")
	testutil.RequireEqual(testingHandle, len(reloaded.Entries), 0, "expected no entries before any append")
}

func TestAppendChainsParentIDs(testingHandle *testing.T) {
	dir := testingHandle.TempDir()
	store, err := New(dir, "Aria", "deepseek-chat")
	testutil.RequireNoError(testingHandle, err, "create session")

	testutil.RequireNoError(testingHandle, store.Append(llmclient.NewUserMessage("hello")), "append user message")
	testutil.RequireNoError(testingHandle, store.Append(llmclient.NewAssistantMessage("hi there")), "append assistant message")

	testutil.RequireEqual(testingHandle, len(store.Entries), 2, "expected two entries")
	testutil.RequireTrue(testingHandle, store.Entries[0].ParentID == nil, "expected first entry to have no parent")
	testutil.RequireTrue(testingHandle, store.Entries[1].ParentID != nil, "expected second entry to chain to first")
	testutil.RequireEqual(testingHandle, *store.Entries[1].ParentID, store.Entries[0].ID, "parent id mismatch")
}

func TestAppendLeavesChainUntouchedOnWriteFailure(testingHandle *testing.T) {
	dir := testingHandle.TempDir()
	store, err := New(dir, "Aria", "deepseek-chat")
	testutil.RequireNoError(testingHandle, err, "create session")

	goodPath := store.path
	blocker := filepath.Join(dir, "blocked-as-file")
	testutil.RequireNoError(testingHandle, os.WriteFile(blocker, []byte("not a directory"), 0o644), "create blocking file")
	store.path = filepath.Join(blocker, "nested.jsonl")

	err = store.Append(llmclient.NewUserMessage("hello"))
	testutil.RequireTrue(testingHandle, err != nil, "expected append to fail when journal path is blocked")
	testutil.RequireTrue(testingHandle, store.lastEntryID == nil, "expected lastEntryID to remain unset after a failed append")
	testutil.RequireEqual(testingHandle, len(store.Entries), 0, "expected no entry recorded after a failed append")

	store.path = goodPath
	testutil.RequireNoError(testingHandle, store.Append(llmclient.NewUserMessage("hello again")), "append after fixing path")
	testutil.RequireTrue(testingHandle, store.Entries[0].ParentID == nil, "expected the first successfully written entry to still have no parent")
}

func TestLoadRoundTripsHeaderAndEntries(testingHandle *testing.T) {
	dir := testingHandle.TempDir()
	store, err := New(dir, "Aria", "deepseek-chat")
	testutil.RequireNoError(testingHandle, err, "create session")
	testutil.RequireNoError(testingHandle, store.Append(llmclient.NewUserMessage("remember me")), "append")

	path := dir + "/" + store.Header.ID + ".jsonl"
	reloaded, err := Load(path)
	testutil.RequireNoError(testingHandle, err, "load session")
	testutil.RequireEqual(testingHandle, reloaded.Header.ID, store.Header.ID, "header id mismatch")
	testutil.RequireEqual(testingHandle, len(reloaded.Entries), 1, "expected one reloaded entry")
	testutil.RequireEqual(testingHandle, reloaded.Messages()[0].Content, "remember me", "message content mismatch")
}

func TestListSessionsOrdersNewestFirst(testingHandle *testing.T) {
	dir := testingHandle.TempDir()
	first, err := New(dir, "Aria", "deepseek-chat")
	testutil.RequireNoError(testingHandle, err, "create first session")
	second, err := New(dir, "Aria", "deepseek-chat")
	testutil.RequireNoError(testingHandle, err, "create second session")

	headers, err := ListSessions(dir)
	testutil.RequireNoError(testingHandle, err, "list sessions")
	testutil.RequireEqual(testingHandle, len(headers), 2, "expected two sessions")
	testutil.RequireEqual(testingHandle, headers[0].ID, second.Header.ID, "expected the newer session first")
	testutil.RequireEqual(testingHandle, headers[1].ID, first.Header.ID, "expected the older session last")
}

func TestListSessionsMissingDirReturnsEmpty(testingHandle *testing.T) {
	headers, err := ListSessions(testingHandle.TempDir() + "/does-not-exist")
	testutil.RequireNoError(testingHandle, err, "list missing sessions dir")
	testutil.RequireEqual(testingHandle, len(headers), 0, "expected no sessions")
}
