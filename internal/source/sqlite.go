package source

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"persona-mcp/internal/persona"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const currentSchemaVersion = 1

// SQLiteStore keeps time entries in a local SQLite database. It is both a
// Source and the sink mockgen writes to.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and runs migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*SQLiteStore, error) {
	return OpenSQLite(":memory:")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version >= currentSchemaVersion {
		return nil
	}

	if version < 1 {
		const ddl = `
		CREATE TABLE IF NOT EXISTS time_entries (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			date      TEXT NOT NULL,
			persona   TEXT NOT NULL,
			hours     REAL NOT NULL CHECK (hours >= 0),
			day_type  TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_entries_date ON time_entries(date);
		`
		if _, err := s.db.Exec(ddl); err != nil {
			return err
		}
	}

	_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion))
	return err
}

// Insert appends entries in a single transaction.
func (s *SQLiteStore) Insert(ctx context.Context, entries []persona.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO time_entries (date, persona, hours, day_type) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Date.Format(persona.DateLayout), e.Persona.Label(), e.Hours, e.DayType.String()); err != nil {
			return fmt.Errorf("insert entry %s: %w", e.Date.Format(persona.DateLayout), err)
		}
	}
	return tx.Commit()
}

// Count returns the number of stored entries.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM time_entries`).Scan(&n)
	return n, err
}

func (s *SQLiteStore) Name() string { return "sqlite" }

// Fetch returns every stored entry in date order. Rows with unknown labels are skipped.
func (s *SQLiteStore) Fetch(ctx context.Context) ([]persona.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT date, persona, hours, day_type FROM time_entries ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []persona.Entry
	skipped := 0
	for rows.Next() {
		var date, label, dayType string
		var hours float64
		if err := rows.Scan(&date, &label, &hours, &dayType); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		d, err := persona.ParseDate(date)
		if err != nil {
			skipped++
			continue
		}
		p, err := persona.Parse(label)
		if err != nil {
			skipped++
			continue
		}
		dt, err := persona.ParseDayType(dayType)
		if err != nil {
			dt = persona.DayTypeOf(d)
		}
		entries = append(entries, persona.Entry{Date: d, Persona: p, Hours: hours, DayType: dt})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Msg("Skipped unreadable rows in entry database")
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("sqlite: %w", ErrNoEntries)
	}
	return entries, nil
}
