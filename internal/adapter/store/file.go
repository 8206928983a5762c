package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"interpinfo/internal/domain"
)

// layoutVersion is bumped whenever the stored record schema changes, so old
// entries are simply never looked at again.
const layoutVersion = "1"

// FileStore keeps one JSON file per executable path under a directory.
// Each entry has a sibling .lock file used for cross-process locking.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at appDataDir/py_info/<layout>.
func NewFileStore(appDataDir string) *FileStore {
	return &FileStore{dir: filepath.Join(appDataDir, "py_info", layoutVersion)}
}

// Dir returns the directory holding the entries.
func (s *FileStore) Dir() string {
	return s.dir
}

// Locate returns the handle for path.
func (s *FileStore) Locate(path string) domain.StoreHandle {
	return s.handle(keyFor(path))
}

func (s *FileStore) handle(key string) *fileHandle {
	return &fileHandle{
		file: filepath.Join(s.dir, key+".json"),
		lock: filepath.Join(s.dir, key+".lock"),
	}
}

// Clear removes every entry, taking each entry's lock in turn. Lock files
// are left in place since another process may be waiting on them.
func (s *FileStore) Clear() error {
	keys, err := s.keys()
	if err != nil {
		return err
	}
	for _, key := range keys {
		h := s.handle(key)
		if err := h.Locked(h.Remove); err != nil {
			return err
		}
	}
	return nil
}

// Entries returns every readable entry. Malformed files are skipped.
func (s *FileStore) Entries() ([]domain.CacheEntry, error) {
	keys, err := s.keys()
	if err != nil {
		return nil, err
	}
	entries := make([]domain.CacheEntry, 0, len(keys))
	for _, key := range keys {
		e, err := s.handle(key).Read()
		if err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *FileStore) keys() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(matches))
	for _, m := range matches {
		keys = append(keys, strings.TrimSuffix(filepath.Base(m), ".json"))
	}
	return keys, nil
}

type fileHandle struct {
	file string
	lock string
}

func (h *fileHandle) Locked(fn func() error) error {
	release, err := acquireLock(h.lock)
	if err != nil {
		return fmt.Errorf("lock %s: %w", h.lock, err)
	}
	defer release()
	return fn()
}

func (h *fileHandle) Exists() bool {
	info, err := os.Stat(h.file)
	return err == nil && !info.IsDir()
}

func (h *fileHandle) Read() (domain.CacheEntry, error) {
	data, err := os.ReadFile(h.file)
	if err != nil {
		return domain.CacheEntry{}, fmt.Errorf("read cache entry: %w", err)
	}
	return decodeEntry(data)
}

// Write replaces the entry atomically.
func (h *fileHandle) Write(e domain.CacheEntry) error {
	data, err := encodeEntry(e)
	if err != nil {
		return err
	}
	dir := filepath.Dir(h.file)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".entry-*")
	if err != nil {
		return fmt.Errorf("create temp entry: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close cache entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), h.file); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename cache entry: %w", err)
	}
	return nil
}

func (h *fileHandle) Remove() error {
	if err := os.Remove(h.file); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove cache entry: %w", err)
	}
	return nil
}
