package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"docfactory/internal/logging"
)

// Store provides thread-safe durable access to document records. Records are
// persisted to a single JSON file; every mutation writes the file atomically
// via a temp file and rename so a crash never leaves a partial file behind.
type Store struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	records map[string]DocumentRecord // keyed by document ID
}

// Open loads the record store at path, creating an empty store when the file
// does not exist yet.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("record store path is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "records")

	s := &Store{
		path:    path,
		logger:  logger,
		records: make(map[string]DocumentRecord),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the record for the given document ID if present.
func (s *Store) Get(documentID string) (DocumentRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, found := s.records[documentID]
	return record, found
}

// FindByContentHash returns the most recent record with the given content
// hash. Used on restart to resume documents that were interrupted mid-flight.
func (s *Store) FindByContentHash(contentHash string) (DocumentRecord, bool) {
	if contentHash == "" {
		return DocumentRecord{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		best  DocumentRecord
		found bool
	)
	for _, record := range s.records {
		if record.ContentHash != contentHash {
			continue
		}
		if !found || record.DetectedAt.After(best.DetectedAt) {
			best = record
			found = true
		}
	}
	return best, found
}

// Save adds or updates a record and persists the store to disk. UpdatedAt is
// stamped on every save; CreatedAt is stamped on first save only.
func (s *Store) Save(record DocumentRecord) error {
	record.DocumentID = strings.TrimSpace(record.DocumentID)
	if record.DocumentID == "" {
		return errors.New("document ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, found := s.records[record.DocumentID]; found {
		record.CreatedAt = existing.CreatedAt
	} else if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	s.records[record.DocumentID] = record

	if err := s.save(); err != nil {
		return fmt.Errorf("persist records: %w", err)
	}

	s.logger.Debug("saved document record",
		logging.String(logging.FieldDocumentID, record.DocumentID),
		logging.String(logging.FieldStage, record.Stage),
		logging.String("status", record.Status))

	return nil
}

// List returns all records sorted by DetectedAt descending (newest first).
func (s *Store) List() []DocumentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]DocumentRecord, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DetectedAt.After(out[j].DetectedAt)
	})
	return out
}

// Count returns the number of records in the store.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil // fresh start
		}
		return fmt.Errorf("read record store: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var loaded []DocumentRecord
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parse record store: %w", err)
	}

	s.records = make(map[string]DocumentRecord, len(loaded))
	for _, record := range loaded {
		if strings.TrimSpace(record.DocumentID) != "" {
			s.records[record.DocumentID] = record
		}
	}

	s.logger.Debug("loaded document records",
		logging.Int("record_count", len(s.records)),
		logging.String("path", s.path))

	return nil
}

func (s *Store) save() error {
	out := make([]DocumentRecord, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, record)
	}

	// Sort for deterministic output
	sort.Slice(out, func(i, j int) bool {
		return out[i].DetectedAt.After(out[j].DetectedAt)
	})

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create record directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath) // cleanup on failure
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
