package results

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mcdev12/gauntlet/internal/game"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS finished_results (
	persistent_id TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	final_time    REAL NOT NULL,
	timers        TEXT NOT NULL,
	completed_at  TEXT NOT NULL
);`

// SQLiteStore persists finished results in an embedded SQLite database. The
// primary key on persistent_id makes the at-most-one-result-per-identity
// invariant a storage-level guarantee as well.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenSQLiteStore opens (creating if needed) a result database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open result db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init result db schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Append inserts a finished run. A duplicate persistent identity is ignored
// rather than rejected, keeping the store append-once per identity.
func (s *SQLiteStore) Append(result game.FinishedResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	timers, err := json.Marshal(result.Timers)
	if err != nil {
		return fmt.Errorf("marshal timers: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO finished_results (persistent_id, name, final_time, timers, completed_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(persistent_id) DO NOTHING`,
		result.PersistentID,
		result.Name,
		result.FinalTime,
		string(timers),
		result.CompletedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert finished result: %w", err)
	}
	return nil
}

// ListAll reads every stored run, oldest completion first.
func (s *SQLiteStore) ListAll() ([]game.FinishedResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT persistent_id, name, final_time, timers, completed_at
		 FROM finished_results ORDER BY completed_at`)
	if err != nil {
		return nil, fmt.Errorf("query finished results: %w", err)
	}
	defer rows.Close()

	var results []game.FinishedResult
	for rows.Next() {
		var (
			r           game.FinishedResult
			timers      string
			completedAt string
		)
		if err := rows.Scan(&r.PersistentID, &r.Name, &r.FinalTime, &timers, &completedAt); err != nil {
			return nil, fmt.Errorf("scan finished result: %w", err)
		}
		if err := json.Unmarshal([]byte(timers), &r.Timers); err != nil {
			return nil, fmt.Errorf("parse timers for %s: %w", r.PersistentID, err)
		}
		ts, err := time.Parse(time.RFC3339Nano, completedAt)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at for %s: %w", r.PersistentID, err)
		}
		r.CompletedAt = ts
		r.Status = game.StatusFinished
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate finished results: %w", err)
	}
	return results, nil
}
