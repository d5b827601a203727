package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gauntlet/internal/game"
)

// FileStore keeps finished results in a single JSON file, rewritten in full
// on each append. The file is pretty-printed so a human can diff it.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by the given file path. The file is
// created on first append.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// ListAll reads the full result file. A missing file is an empty store; a
// corrupt one degrades to empty with the parse error returned for logging.
func (s *FileStore) ListAll() ([]game.FinishedResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAll()
}

// Append rewrites the file with the new record added. The write goes through
// a temp file and rename so a crash mid-write never leaves a truncated store.
func (s *FileStore) Append(result game.FinishedResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.readAll()
	if err != nil {
		// The prior contents are unparseable; start over rather than
		// refuse every future append.
		log.Error().Err(err).Str("path", s.path).Msg("result file unreadable, rewriting from scratch")
	}
	existing = append(existing, result)

	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".results-*.json")
	if err != nil {
		return fmt.Errorf("create temp result file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp result file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp result file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace result file: %w", err)
	}
	return nil
}

func (s *FileStore) readAll() ([]game.FinishedResult, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read result file: %w", err)
	}
	var results []game.FinishedResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("parse result file: %w", err)
	}
	return results, nil
}
