package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/GoatWang/BopomofoLLM/internal/logging"
)

// Store represents the SQLite user phrase store.
type Store struct {
	db    *sql.DB
	path  string
	audit *logging.AuditLogger
	now   func() time.Time
}

// DefaultPath returns $XDG_DATA_HOME/bopomofo/phrases.db.
func DefaultPath() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "bopomofo", "phrases.db")
		}
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, "bopomofo", "phrases.db")
}

// Open opens or creates the SQLite database at the given path and runs migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := MigrateDB(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: path, now: time.Now}, nil
}

// SetAudit records every added or removed phrase to a.
func (s *Store) SetAudit(a *logging.AuditLogger) {
	s.audit = a
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// WritePhrase stores a phrase. Writing a stored phrase again succeeds and
// changes nothing. It implements session.PhraseWriter.
func (s *Store) WritePhrase(reading, value string) error {
	_, err := s.AddPhrase(reading, value)
	return err
}

// AddPhrase stores a phrase and reports whether it was new.
func (s *Store) AddPhrase(reading, value string) (bool, error) {
	p := Phrase{Reading: reading, Value: value}
	if err := p.Validate(); err != nil {
		return false, fmt.Errorf("%w: %q %q", err, reading, value)
	}

	result, err := s.db.Exec(`
		INSERT INTO user_phrases (reading, value, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (reading, value) DO NOTHING`,
		reading, value, s.now().UnixNano(),
	)
	if err != nil {
		err = fmt.Errorf("insert phrase: %w", err)
		s.audit.LogPhrase(true, reading, value, err)
		return false, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	if n > 0 {
		s.audit.LogPhrase(true, reading, value, nil)
	}
	return n > 0, nil
}

// RemovePhrase deletes a phrase and reports whether it existed.
func (s *Store) RemovePhrase(reading, value string) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM user_phrases WHERE reading = ? AND value = ?`, reading, value)
	if err != nil {
		err = fmt.Errorf("delete phrase: %w", err)
		s.audit.LogPhrase(false, reading, value, err)
		return false, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	if n > 0 {
		s.audit.LogPhrase(false, reading, value, nil)
	}
	return n > 0, nil
}

// Phrases returns every stored phrase, oldest first.
func (s *Store) Phrases() ([]Phrase, error) {
	return s.query(`SELECT id, reading, value, created_at FROM user_phrases ORDER BY id`)
}

// PhrasesWithReading returns the stored phrases read as reading.
func (s *Store) PhrasesWithReading(reading string) ([]Phrase, error) {
	return s.query(`SELECT id, reading, value, created_at FROM user_phrases WHERE reading = ? ORDER BY id`, reading)
}

func (s *Store) query(q string, args ...any) ([]Phrase, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query phrases: %w", err)
	}
	defer rows.Close()

	var phrases []Phrase
	for rows.Next() {
		var p Phrase
		var createdAt int64
		if err := rows.Scan(&p.ID, &p.Reading, &p.Value, &createdAt); err != nil {
			return nil, fmt.Errorf("scan phrase: %w", err)
		}
		p.CreatedAt = time.Unix(0, createdAt)
		phrases = append(phrases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read phrases: %w", err)
	}
	return phrases, nil
}

// Count returns the number of stored phrases.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM user_phrases`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count phrases: %w", err)
	}
	return n, nil
}

// Lexicon receives stored phrases.
type Lexicon interface {
	AddFirst(reading, value string) error
}

// LoadInto adds every stored phrase to lex, ahead of its built-in entries,
// and returns how many were added. Phrases lex refuses are skipped.
func (s *Store) LoadInto(lex Lexicon) (int, error) {
	phrases, err := s.Phrases()
	if err != nil {
		return 0, err
	}
	loaded := 0
	for _, p := range phrases {
		if err := lex.AddFirst(p.Reading, p.Value); err != nil {
			continue
		}
		loaded++
	}
	return loaded, nil
}
