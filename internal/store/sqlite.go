package store

import (
	"database/sql"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// stateKey is the fixed row key the session collection lives under.
const stateKey = "sessions"

// SQLite persists the session collection as one JSON blob row.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path and ensures the schema.
func NewSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "creating store directory")
		}
	}

	db, err := sql.Open("sqlite", path+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "pinging database")
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return nil, errors.Wrap(err, "creating state table")
	}

	return &SQLite{db: db}, nil
}

// Load reads the persisted session collection. Missing or unreadable data is
// reported as absent so the caller can bootstrap a fresh state.
func (s *SQLite) Load() (State, bool, error) {
	var blob string
	err := s.db.QueryRow(`SELECT value FROM state WHERE key = ?`, stateKey).Scan(&blob)
	if err == sql.ErrNoRows {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, errors.Wrap(err, "reading state")
	}

	var state State
	if err := json.Unmarshal([]byte(blob), &state); err != nil {
		log.Printf("[store] discarding corrupt session state: %v", err)
		return State{}, false, nil
	}
	return state, true, nil
}

// Save overwrites the persisted session collection.
func (s *SQLite) Save(state State) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "marshaling state")
	}
	_, err = s.db.Exec(`
		REPLACE INTO state (key, value, updated_at)
		VALUES (?, ?, ?)
	`, stateKey, string(blob), time.Now().UnixMicro())
	return errors.Wrap(err, "writing state")
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}
