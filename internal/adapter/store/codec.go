package store

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	json "github.com/goccy/go-json"

	"interpinfo/internal/domain"
)

// ErrMalformed marks a stored entry that cannot be decoded. Callers treat it
// as stale.
var ErrMalformed = errors.New("malformed cache entry")

// wireEntry is the stored form. Every key is required and no other key is
// accepted.
type wireEntry struct {
	Path    *string        `json:"path"`
	STMtime *float64       `json:"st_mtime"`
	Content map[string]any `json:"content"`
}

func encodeEntry(e domain.CacheEntry) ([]byte, error) {
	data, err := json.Marshal(wireEntry{Path: &e.Path, STMtime: &e.STMtime, Content: e.Content})
	if err != nil {
		return nil, fmt.Errorf("encode cache entry: %w", err)
	}
	return data, nil
}

func decodeEntry(data []byte) (domain.CacheEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	dec.UseNumber()

	var w wireEntry
	if err := dec.Decode(&w); err != nil {
		return domain.CacheEntry{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if w.Path == nil || w.STMtime == nil || w.Content == nil {
		return domain.CacheEntry{}, fmt.Errorf("%w: missing key", ErrMalformed)
	}
	return domain.CacheEntry{Path: *w.Path, STMtime: *w.STMtime, Content: w.Content}, nil
}

func encodeContent(m map[string]any) ([]byte, error) {
	if m == nil {
		return nil, errors.New("encode cache entry: empty content")
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode cache entry: %w", err)
	}
	return data, nil
}

// decodeContent decodes a standalone content mapping.
func decodeContent(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: empty content", ErrMalformed)
	}
	return m, nil
}

// keyFor derives the on-disk name for an executable path.
func keyFor(path string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(path))
}
