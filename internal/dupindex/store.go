package dupindex

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"docfactory/internal/config"
	"docfactory/internal/fingerprint"
)

//go:embed schema.sql
var schemaSQL string

// Entry is one appended fingerprint record. Entries accumulate monotonically;
// the index never shrinks and rows are never mutated.
type Entry struct {
	DocumentID  string
	Fingerprint fingerprint.Fingerprint
	CreatedAt   time.Time
}

// Match describes an index entry whose similarity to a queried fingerprint
// met the threshold.
type Match struct {
	DocumentID string
	Similarity float64
	MatchedAt  time.Time
}

// Store is the append-only perceptual fingerprint index backed by SQLite.
// Reads may run concurrently; the decision-plus-append in Resolve is a single
// writer-exclusive critical section.
type Store struct {
	db        *sql.DB
	path      string
	threshold float64

	mu      sync.RWMutex
	entries []Entry
}

// Open initializes or connects to the index database inside the configured
// index directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.IndexDir, "dupindex.db"), cfg.Duplicates.SimilarityThreshold)
}

// OpenPath opens the index at an explicit path with the given similarity
// threshold.
func OpenPath(path string, threshold float64) (*Store, error) {
	if threshold <= 0 || threshold > 1 {
		return nil, fmt.Errorf("similarity threshold must be in (0, 1], got %v", threshold)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, threshold: threshold}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Threshold returns the configured similarity threshold.
func (s *Store) Threshold() float64 {
	return s.threshold
}

// Count returns the number of entries in the index.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Matches performs a read-only similarity query against the current index
// snapshot. Results are ranked by similarity descending; ties break toward
// the earliest created entry, which is treated as the original.
func (s *Store) Matches(fp fingerprint.Fingerprint) []Match {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matchesLocked(fp)
}

// Resolve runs the duplicate decision for one document: it queries the index
// for matches and appends the document's own fingerprint, atomically with
// respect to other writers. Both duplicates and originals are appended so
// later documents can be compared against either. A document never matches
// its own entries, and resolving the same document twice (a resumed run)
// does not append a second row.
func (s *Store) Resolve(ctx context.Context, documentID string, fp fingerprint.Fingerprint) ([]Match, error) {
	if documentID == "" {
		return nil, errors.New("document id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []Match
	for _, match := range s.matchesLocked(fp) {
		if match.DocumentID == documentID {
			continue
		}
		matches = append(matches, match)
	}

	for _, entry := range s.entries {
		if entry.DocumentID == documentID && entry.Fingerprint == fp {
			return matches, nil
		}
	}

	entry := Entry{
		DocumentID:  documentID,
		Fingerprint: fp,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := s.db.ExecContext(
		ctx,
		`INSERT INTO dup_index (document_id, fingerprint, created_at) VALUES (?, ?, ?)`,
		entry.DocumentID,
		entry.Fingerprint.String(),
		entry.CreatedAt.Format(time.RFC3339Nano),
	); err != nil {
		return nil, fmt.Errorf("append index entry: %w", err)
	}
	s.entries = append(s.entries, entry)

	return matches, nil
}

func (s *Store) matchesLocked(fp fingerprint.Fingerprint) []Match {
	var matches []Match
	for _, entry := range s.entries {
		similarity := fp.Similarity(entry.Fingerprint)
		if similarity >= s.threshold {
			matches = append(matches, Match{
				DocumentID: entry.DocumentID,
				Similarity: similarity,
				MatchedAt:  entry.CreatedAt,
			})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].MatchedAt.Before(matches[j].MatchedAt)
	})
	return matches
}

func (s *Store) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT document_id, fingerprint, created_at FROM dup_index ORDER BY id`)
	if err != nil {
		return fmt.Errorf("load index: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			docID      string
			fpRaw      string
			createdRaw string
		)
		if err := rows.Scan(&docID, &fpRaw, &createdRaw); err != nil {
			return fmt.Errorf("scan index entry: %w", err)
		}
		fp, err := fingerprint.Parse(fpRaw)
		if err != nil {
			return fmt.Errorf("corrupt index entry for %s: %w", docID, err)
		}
		created, err := time.Parse(time.RFC3339Nano, createdRaw)
		if err != nil {
			return fmt.Errorf("corrupt timestamp for %s: %w", docID, err)
		}
		entries = append(entries, Entry{DocumentID: docID, Fingerprint: fp, CreatedAt: created})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	return nil
}
