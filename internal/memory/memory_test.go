package memory

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kenxiao1/limerence/internal/testutil"
)

func TestIndexAddAndSearchRanksByRelevance(testingHandle *testing.T) {
	dir := testingHandle.TempDir()
	idx := NewIndex(dir)

	testutil.RequireNoError(testingHandle, idx.Add(Entry{
		SessionID: "s1",
		Timestamp: time.Now(),
		Role:      "user",
		Content:   "I love hiking in the mountains every weekend",
	}), "add entry 1")
	testutil.RequireNoError(testingHandle, idx.Add(Entry{
		SessionID: "s1",
		Timestamp: time.Now(),
		Role:      "assistant",
		Content:   "That sounds like a great way to relax",
	}), "add entry 2")
	testutil.RequireNoError(testingHandle, idx.Add(Entry{
		SessionID: "s1",
		Timestamp: time.Now(),
		Role:      "user",
		Content:   "mountains mountains mountains, I really love the mountains",
	}), "add entry 3")

	results := idx.Search("mountains", 5)
	testutil.RequireTrue(testingHandle, len(results) >= 2, "expected at least two matches")
	testutil.RequireTrue(testingHandle, results[0].Score >= results[len(results)-1].Score, "expected descending score order")
	testutil.RequireStringContains(testingHandle, results[0].Content, "mountains mountains mountains", "expected highest tf document to rank first")
}

func TestIndexSearchEmptyIndex(testingHandle *testing.T) {
	idx := NewIndex(testingHandle.TempDir())
	results := idx.Search("anything", 5)
	testutil.RequireEqual(testingHandle, len(results), 0, "expected no results from empty index")
}

func TestIndexSearchRespectsLimit(testingHandle *testing.T) {
	dir := testingHandle.TempDir()
	idx := NewIndex(dir)
	for i := 0; i < 10; i++ {
		testutil.RequireNoError(testingHandle, idx.Add(Entry{
			SessionID: "s1",
			Timestamp: time.Now(),
			Role:      "user",
			Content:   "common word shared across every entry",
		}), "add entry")
	}
	results := idx.Search("common", 3)
	testutil.RequireEqual(testingHandle, len(results), 3, "expected limit to cap results")
}

func TestIndexPersistsAndReloadsFromDisk(testingHandle *testing.T) {
	dir := testingHandle.TempDir()
	idx := NewIndex(dir)
	testutil.RequireNoError(testingHandle, idx.Add(Entry{
		SessionID: "session-a",
		Timestamp: time.Now(),
		Role:      "user",
		Content:   "remember that I prefer tea over coffee",
	}), "add entry")

	journalPath := filepath.Join(dir, "session-a.jsonl")
	testutil.RequireTrue(testingHandle, fileExists(journalPath), "expected journal file to be created")

	reloaded := NewIndex(dir)
	reloaded.LoadFromDisk()
	testutil.RequireEqual(testingHandle, reloaded.EntryCount(), 1, "expected reloaded index to contain persisted entry")

	results := reloaded.Search("tea", 5)
	testutil.RequireTrue(testingHandle, len(results) == 1, "expected reloaded index to be searchable")
}

func TestIndexCJKQuery(testingHandle *testing.T) {
	dir := testingHandle.TempDir()
	idx := NewIndex(dir)
	testutil.RequireNoError(testingHandle, idx.Add(Entry{
		SessionID: "s1",
		Timestamp: time.Now(),
		Role:      "user",
		Content:   "我喜欢在周末去爬山",
	}), "add entry")

	results := idx.Search("爬山", 5)
	testutil.RequireEqual(testingHandle, len(results), 1, "expected CJK substring query to match via shared character tokens")
}

func TestIndexAddAdvancesInMemoryStateDespitePersistFailure(testingHandle *testing.T) {
	dir := testingHandle.TempDir()
	blocked := filepath.Join(dir, "blocked")
	testutil.RequireNoError(testingHandle, os.WriteFile(blocked, []byte("not a directory"), 0o644), "create blocking file")

	idx := NewIndex(blocked)
	err := idx.Add(Entry{
		SessionID: "s1",
		Timestamp: time.Now(),
		Role:      "user",
		Content:   "hello world",
	})
	testutil.RequireTrue(testingHandle, err != nil, "expected journal write to fail when memory dir path is blocked")
	testutil.RequireEqual(testingHandle, idx.EntryCount(), 1, "expected in-memory index to advance regardless of journal failure")

	results := idx.Search("hello", 5)
	testutil.RequireTrue(testingHandle, len(results) == 1, "expected search to find the entry despite the journal failure")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
