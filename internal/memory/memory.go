// Package memory implements a zero-dependency BM25 search index over the
// agent's conversation history, persisted as one append-only JSONL journal
// per session under the memory directory.
package memory

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kenxiao1/limerence/internal/tokenizer"
)

const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// Entry is one indexed turn of conversation.
type Entry struct {
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
}

// SearchResult is a scored Entry returned from Index.Search.
type SearchResult struct {
	Timestamp time.Time
	Role      string
	Content   string
	Score     float64
}

// posting is one (entry index, term frequency) pair in the inverted index.
// tf is the term's count in the entry divided by max(dl, 1).
type posting struct {
	entryIndex int
	tf         float64
}

// Index is an in-memory BM25 index backed by per-session JSONL journals.
// It stores length-normalized term frequencies (count / max(dl, 1)) and a
// cached document length per entry, so Search never re-tokenizes an
// already-indexed entry's content.
type Index struct {
	dir     string
	entries []Entry
	lengths []float64 // cached tokenized length per entry, aligned with entries
	index   map[string][]posting
	avgDL   float64
}

// NewIndex constructs an empty index rooted at dir (the on-disk memory/
// directory). It does not read from disk; call LoadFromDisk for that.
func NewIndex(dir string) *Index {
	return &Index{
		dir:   dir,
		index: make(map[string][]posting),
	}
}

// LoadFromDisk reads every *.jsonl file under the index's directory and
// rebuilds the in-memory index from their contents. Malformed lines and
// unreadable files are skipped; LoadFromDisk never returns an error because
// an empty or corrupt memory store is not fatal to the agent.
func (idx *Index) LoadFromDisk() {
	entries, err := os.ReadDir(idx.dir)
	if err != nil {
		return
	}
	for _, dirEntry := range entries {
		if dirEntry.IsDir() || filepath.Ext(dirEntry.Name()) != ".jsonl" {
			continue
		}
		idx.loadFile(filepath.Join(idx.dir, dirEntry.Name()))
	}
	idx.rebuild()
}

func (idx *Index) loadFile(path string) {
	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		idx.entries = append(idx.entries, entry)
	}
}

// Add appends entry to the session's on-disk journal and updates the
// in-memory index incrementally. The in-memory index is updated regardless
// of whether the journal write succeeds: a failing persist is reported
// through the returned error, but the conversation's process-local state
// always advances, since a read-only filesystem must not kill the turn.
func (idx *Index) Add(entry Entry) error {
	persistErr := idx.persist(entry)

	entryIndex := len(idx.entries)
	tokens := tokenizer.Tokenize(entry.Content)
	dl := float64(len(tokens))

	n := float64(len(idx.entries))
	idx.avgDL = (idx.avgDL*n + dl) / (n + 1.0)

	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	denom := dl
	if denom < 1.0 {
		denom = 1.0
	}
	for term, count := range tf {
		idx.index[term] = append(idx.index[term], posting{
			entryIndex: entryIndex,
			tf:         float64(count) / denom,
		})
	}

	idx.entries = append(idx.entries, entry)
	idx.lengths = append(idx.lengths, dl)
	return persistErr
}

func (idx *Index) persist(entry Entry) error {
	if err := os.MkdirAll(idx.dir, 0o755); err != nil {
		return fmt.Errorf("create memory dir: %w", err)
	}
	path := filepath.Join(idx.dir, entry.SessionID+".jsonl")
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode memory entry: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open memory journal: %w", err)
	}
	defer file.Close()
	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write memory journal: %w", err)
	}
	return nil
}

// Search ranks indexed entries against query using BM25 (k1=1.2, b=0.75)
// and returns up to limit results ordered by descending score. Ties are
// broken by ascending entry position.
func (idx *Index) Search(query string, limit int) []SearchResult {
	if len(idx.entries) == 0 {
		return nil
	}

	queryTokens := tokenizer.Tokenize(query)
	n := float64(len(idx.entries))
	avgDL := idx.avgDL
	if avgDL < 1.0 {
		avgDL = 1.0
	}

	scores := make(map[int]float64)
	for _, token := range queryTokens {
		postings, ok := idx.index[token]
		if !ok {
			continue
		}
		df := float64(len(postings))
		idf := math.Log((n-df+0.5)/(df+0.5) + 1.0)

		for _, p := range postings {
			dl := idx.lengths[p.entryIndex]
			tfNorm := (p.tf * (bm25K1 + 1.0)) / (p.tf + bm25K1*(1.0-bm25B+bm25B*dl/avgDL))
			scores[p.entryIndex] += idf * tfNorm
		}
	}

	type scored struct {
		entryIndex int
		score      float64
	}
	ranked := make([]scored, 0, len(scores))
	for entryIndex, score := range scores {
		ranked = append(ranked, scored{entryIndex, score})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].entryIndex < ranked[j].entryIndex
	})
	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	results := make([]SearchResult, 0, len(ranked))
	for _, r := range ranked {
		entry := idx.entries[r.entryIndex]
		results = append(results, SearchResult{
			Timestamp: entry.Timestamp,
			Role:      entry.Role,
			Content:   entry.Content,
			Score:     r.score,
		})
	}
	return results
}

func (idx *Index) rebuild() {
	idx.index = make(map[string][]posting)
	idx.lengths = make([]float64, len(idx.entries))

	if len(idx.entries) == 0 {
		idx.avgDL = 0
		return
	}

	var totalDL float64
	for entryIndex, entry := range idx.entries {
		tokens := tokenizer.Tokenize(entry.Content)
		dl := float64(len(tokens))
		idx.lengths[entryIndex] = dl
		totalDL += dl

		tf := make(map[string]int, len(tokens))
		for _, t := range tokens {
			tf[t]++
		}
		denom := dl
		if denom < 1.0 {
			denom = 1.0
		}
		for term, count := range tf {
			idx.index[term] = append(idx.index[term], posting{
				entryIndex: entryIndex,
				tf:         float64(count) / denom,
			})
		}
	}

	idx.avgDL = totalDL / float64(len(idx.entries))
}

// EntryCount returns the number of indexed entries.
func (idx *Index) EntryCount() int {
	return len(idx.entries)
}
