package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/entities"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/ids"
)

//go:embed schema.sql
var schemaSQL string

const currentSchemaVersion = 1

// SQLite is the durable Store used for indexing runs.
// Uses WAL mode for concurrent read access while the single indexer writes.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// Open creates or opens a SQLite entity store at the given path.
// Applies required pragmas and the schema automatically; safe to call
// multiple times.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, and the indexing model is
	// single-writer anyway, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load fetches one entity by composite key. A missing row returns
// (nil, false, nil).
func (s *SQLite) Load(kind entities.Kind, key ids.Key) (entities.Entity, bool, error) {
	var body string
	err := s.db.QueryRow(
		`SELECT body FROM entities WHERE kind = ? AND id = ?`,
		string(kind), string(key),
	).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s %s: %w", kind, key, err)
	}

	e, err := unmarshalEntity(kind, body)
	if err != nil {
		return nil, false, fmt.Errorf("load %s %s: %w", kind, key, err)
	}
	return e, true, nil
}

// Save upserts one entity. ON CONFLICT DO UPDATE makes redelivered events
// converge on the same row instead of failing.
func (s *SQLite) Save(e entities.Entity) error {
	body, err := marshalEntity(e)
	if err != nil {
		return fmt.Errorf("save %s %s: %w", e.EntityKind(), e.EntityKey(), err)
	}

	_, err = s.db.Exec(`
		INSERT INTO entities (kind, id, body)
		VALUES (?, ?, ?)
		ON CONFLICT(kind, id) DO UPDATE SET body = excluded.body
	`,
		string(e.EntityKind()),
		string(e.EntityKey()),
		body,
	)
	if err != nil {
		return fmt.Errorf("save %s %s: %w", e.EntityKind(), e.EntityKey(), err)
	}
	return nil
}

// Delete removes one entity. Deleting a missing row is a no-op.
func (s *SQLite) Delete(kind entities.Kind, key ids.Key) error {
	_, err := s.db.Exec(
		`DELETE FROM entities WHERE kind = ? AND id = ?`,
		string(kind), string(key),
	)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, key, err)
	}
	return nil
}

// List returns all entities of a kind ordered by key.
func (s *SQLite) List(kind entities.Kind) ([]entities.Entity, error) {
	rows, err := s.db.Query(
		`SELECT body FROM entities WHERE kind = ? ORDER BY id`,
		string(kind),
	)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	var out []entities.Entity
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("list %s: %w", kind, err)
		}
		e, err := unmarshalEntity(kind, body)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", kind, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	return out, nil
}

// Cursor returns the last durably-processed block for a data source, or
// (0, false) if the source has never advanced.
func (s *SQLite) Cursor(source string) (uint64, bool, error) {
	var block uint64
	err := s.db.QueryRow(
		`SELECT block_number FROM cursors WHERE source = ?`, source,
	).Scan(&block)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("cursor %s: %w", source, err)
	}
	return block, true, nil
}

// AdvanceCursor records that all events up to and including block have been
// processed for a source. The cursor never moves backwards; a replayed
// older block leaves it untouched.
func (s *SQLite) AdvanceCursor(source string, block uint64) error {
	_, err := s.db.Exec(`
		INSERT INTO cursors (source, block_number)
		VALUES (?, ?)
		ON CONFLICT(source) DO UPDATE SET block_number = excluded.block_number
		WHERE excluded.block_number > cursors.block_number
	`, source, block)
	if err != nil {
		return fmt.Errorf("advance cursor %s: %w", source, err)
	}
	return nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("pragma %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables and records the schema version.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	_, err := db.Exec(
		`INSERT INTO schema_version (version) VALUES (?) ON CONFLICT DO NOTHING`,
		currentSchemaVersion,
	)
	if err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return nil
}
