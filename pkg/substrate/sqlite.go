package substrate

import (
	"context"
	"database/sql"
	"log/slog"

	_ "modernc.org/sqlite"
)

// SQLite stores every document in a single kv table inside one database
// file. Suits a single-user local install where the data should survive
// restarts without a directory of loose JSON files.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and ensures the
// documents table exists.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS documents (
		key        TEXT PRIMARY KEY,
		doc        BLOB NOT NULL,
		updated_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

var _ Store = (*SQLite)(nil)

func (s *SQLite) Load(ctx context.Context, key string, out any) bool {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM documents WHERE key = ?`, key).Scan(&data)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		slog.Warn("failed to read document", "key", key, "error", err)
		return false
	}
	if err := open(data, out); err != nil {
		slog.Warn("failed to decode stored document", "key", key, "error", err)
		return false
	}
	return true
}

func (s *SQLite) Save(ctx context.Context, key string, v any) bool {
	data, err := seal(v)
	if err != nil {
		slog.Warn("failed to encode document", "key", key, "error", err)
		return false
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (key, doc, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET doc = excluded.doc, updated_at = datetime('now')
	`, key, data)
	if err != nil {
		slog.Warn("failed to write document", "key", key, "error", err)
		return false
	}
	return true
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}
