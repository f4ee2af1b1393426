package stats

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteBackend keeps stats in a local SQLite database. It mirrors the Redis
// layout with one table per concept.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (and creates if needed) the database at path.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	// Add connection parameters for better concurrency
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=10000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteBackend{db: db, path: path}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteBackend) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS node_usage (
		name TEXT PRIMARY KEY,
		count INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS node_combos (
		a TEXT NOT NULL,
		b TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (a, b)
	);

	CREATE TABLE IF NOT EXISTS workflow_patterns (
		pattern_key TEXT PRIMARY KEY,
		nodes TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS usage_examples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		example TEXT NOT NULL,
		created_at INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_examples_name ON usage_examples(name, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}

// WithTransaction runs a function within a SQLite transaction
func (s *SQLiteBackend) WithTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// --- Reads ---

func (s *SQLiteBackend) UsageCounts(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, count FROM node_usage WHERE count >= 0")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var name string
		var n int64
		if err := rows.Scan(&name, &n); err != nil {
			continue
		}
		out[name] = n
	}
	return out, rows.Err()
}

func (s *SQLiteBackend) ComboCounts(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT a, b, count FROM node_combos WHERE count >= 0")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var a, b string
		var n int64
		if err := rows.Scan(&a, &b, &n); err != nil {
			continue
		}
		out[ComboPair(a, b)] = n
	}
	return out, rows.Err()
}

func (s *SQLiteBackend) Patterns(ctx context.Context) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT pattern_key, nodes FROM workflow_patterns")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			continue
		}
		var nodes []string
		if err := json.Unmarshal([]byte(raw), &nodes); err != nil {
			continue
		}
		out[key] = nodes
	}
	return out, rows.Err()
}

func (s *SQLiteBackend) Complementary(ctx context.Context, name string, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b FROM node_combos
		WHERE a = ? AND count > 0
		ORDER BY count DESC, b ASC
		LIMIT ?`, name, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNames(rows)
}

func (s *SQLiteBackend) Examples(ctx context.Context, name string, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT example FROM usage_examples
		WHERE name = ?
		ORDER BY id DESC
		LIMIT ?`, name, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNames(rows)
}

func scanNames(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// --- Writes ---

func (s *SQLiteBackend) IncrUsage(ctx context.Context, name string, delta int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO node_usage (name, count) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET count = count + excluded.count`, name, delta)
	return err
}

func (s *SQLiteBackend) IncrCombo(ctx context.Context, a, b string, delta int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO node_combos (a, b, count) VALUES (?, ?, ?)
		ON CONFLICT(a, b) DO UPDATE SET count = count + excluded.count`, a, b, delta)
	return err
}

func (s *SQLiteBackend) AddExample(ctx context.Context, name, example string) error {
	return s.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO usage_examples (name, example, created_at) VALUES (?, ?, ?)",
			name, example, time.Now().Unix()); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			DELETE FROM usage_examples
			WHERE name = ? AND id NOT IN (
				SELECT id FROM usage_examples WHERE name = ? ORDER BY id DESC LIMIT ?
			)`, name, name, maxStoredExamples)
		return err
	})
}

func (s *SQLiteBackend) SetPattern(ctx context.Context, key string, nodes []string) error {
	data, err := json.Marshal(nodes)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workflow_patterns (pattern_key, nodes) VALUES (?, ?)
		ON CONFLICT(pattern_key) DO UPDATE SET nodes = excluded.nodes`, key, string(data))
	return err
}
