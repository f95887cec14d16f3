package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/staysite/site-sync-backend/internal/logging"
	"github.com/staysite/site-sync-backend/internal/projects/domain"
)

// SQLite is a device-local key/value file, the server-side stand-in for
// browser storage. The project list is one row in the kv table.
type SQLite struct {
	conn *sql.DB
	key  string
	log  *logging.Logger
}

var _ Cache = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) the cache database at path.
// The caller must Close it.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping cache database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	const ddl = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at TEXT NOT NULL
);`
	if _, err := conn.Exec(ddl); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}

	return &SQLite{conn: conn, key: Key, log: logging.New("cache")}, nil
}

func (s *SQLite) List(ctx context.Context) []domain.Project {
	var data []byte
	err := s.conn.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, s.key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return []domain.Project{}
	}
	if err != nil {
		s.log.Warnf("list", "backend=sqlite read failed: %v", err)
		return []domain.Project{}
	}
	return decodeList(s.log, "sqlite", data)
}

// Replace upserts the single row in one statement.
func (s *SQLite) Replace(ctx context.Context, projects []domain.Project) error {
	data, err := encodeList(projects)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at;`
	if _, err := s.conn.ExecContext(ctx, q, s.key, data, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to replace cached projects: %w", err)
	}
	return nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Close checkpoints the WAL and closes the database.
func (s *SQLite) Close() error {
	if s.conn == nil {
		return nil
	}
	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		s.log.Warnf("close", "failed to checkpoint WAL: %v", err)
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
