package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure Go SQLite driver

	"interpinfo/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS py_info (
	path     TEXT PRIMARY KEY,
	st_mtime REAL NOT NULL,
	content  TEXT NOT NULL
)`

// SQLiteStore keeps entries in a single SQLite database. Per-path locking
// still uses flock files so it serializes with other processes exactly like
// FileStore does.
type SQLiteStore struct {
	db      *sql.DB
	lockDir string
}

// OpenSQLite opens (creating if needed) appDataDir/py_info/<layout>/py_info.db.
func OpenSQLite(appDataDir string) (*SQLiteStore, error) {
	dir := filepath.Join(appDataDir, "py_info", layoutVersion)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "py_info.db"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteStore{db: db, lockDir: filepath.Join(dir, "locks")}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Locate returns the handle for path.
func (s *SQLiteStore) Locate(path string) domain.StoreHandle {
	return &sqliteHandle{
		db:   s.db,
		path: path,
		lock: filepath.Join(s.lockDir, keyFor(path)+".lock"),
	}
}

// Clear deletes every row.
func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM py_info`); err != nil {
		return fmt.Errorf("clear py_info: %w", err)
	}
	return nil
}

// Entries returns every row whose content decodes.
func (s *SQLiteStore) Entries() ([]domain.CacheEntry, error) {
	rows, err := s.db.Query(`SELECT path, st_mtime, content FROM py_info ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list py_info: %w", err)
	}
	defer rows.Close()

	var entries []domain.CacheEntry
	for rows.Next() {
		var (
			e       domain.CacheEntry
			content string
		)
		if err := rows.Scan(&e.Path, &e.STMtime, &content); err != nil {
			return nil, fmt.Errorf("scan py_info: %w", err)
		}
		if e.Content, err = decodeContent([]byte(content)); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type sqliteHandle struct {
	db   *sql.DB
	path string
	lock string
}

func (h *sqliteHandle) Locked(fn func() error) error {
	release, err := acquireLock(h.lock)
	if err != nil {
		return fmt.Errorf("lock %s: %w", h.lock, err)
	}
	defer release()
	return fn()
}

func (h *sqliteHandle) Exists() bool {
	var one int
	err := h.db.QueryRow(`SELECT 1 FROM py_info WHERE path = ?`, h.path).Scan(&one)
	return err == nil
}

func (h *sqliteHandle) Read() (domain.CacheEntry, error) {
	var (
		e       domain.CacheEntry
		content string
	)
	err := h.db.QueryRow(`SELECT path, st_mtime, content FROM py_info WHERE path = ?`, h.path).
		Scan(&e.Path, &e.STMtime, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CacheEntry{}, fmt.Errorf("read cache entry: %w", os.ErrNotExist)
	}
	if err != nil {
		return domain.CacheEntry{}, fmt.Errorf("read cache entry: %w", err)
	}
	if e.Content, err = decodeContent([]byte(content)); err != nil {
		return domain.CacheEntry{}, err
	}
	return e, nil
}

func (h *sqliteHandle) Write(e domain.CacheEntry) error {
	content, err := encodeContent(e.Content)
	if err != nil {
		return err
	}
	_, err = h.db.Exec(`
		INSERT INTO py_info (path, st_mtime, content) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET st_mtime = excluded.st_mtime, content = excluded.content`,
		h.path, e.STMtime, string(content))
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

func (h *sqliteHandle) Remove() error {
	if _, err := h.db.Exec(`DELETE FROM py_info WHERE path = ?`, h.path); err != nil {
		return fmt.Errorf("remove cache entry: %w", err)
	}
	return nil
}
