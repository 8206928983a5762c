package app

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"interpinfo/internal/domain"
)

// mockInterrogator counts calls and returns configured values.
type mockInterrogator struct {
	mu         sync.Mutex
	interrogFn func(exe string, env []string) (*domain.Info, error)
	calls      int
	lastEnv    []string
	delay      time.Duration
}

func (m *mockInterrogator) Interrogate(exe string, env []string) (*domain.Info, error) {
	m.mu.Lock()
	m.calls++
	m.lastEnv = env
	m.mu.Unlock()
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	return m.interrogFn(exe, env)
}

func (m *mockInterrogator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockLogger records every message.
type mockLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *mockLogger) log(level, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, fmt.Sprintf("%s %s %v", level, msg, args))
}

func (l *mockLogger) Debug(msg string, args ...any) { l.log("DEBUG", msg, args...) }
func (l *mockLogger) Info(msg string, args ...any)  { l.log("INFO", msg, args...) }
func (l *mockLogger) Error(msg string, args ...any) { l.log("ERROR", msg, args...) }

func (l *mockLogger) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.msgs...)
}

// mockRecorder tallies events.
type mockRecorder struct {
	mu      sync.Mutex
	tiers   []domain.Tier
	stale   []string
	results []error
}

func (r *mockRecorder) Lookup(tier domain.Tier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tiers = append(r.tiers, tier)
}

func (r *mockRecorder) StaleEntry(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stale = append(r.stale, reason)
}

func (r *mockRecorder) Interrogation(_ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, err)
}

// mockStore is an in-memory InfoStore whose failures can be switched on.
type mockStore struct {
	mu       sync.Mutex
	entries  map[string]domain.CacheEntry
	lockErr  error
	writeErr error
	locks    int
}

func newMockStore() *mockStore {
	return &mockStore{entries: map[string]domain.CacheEntry{}}
}

func (s *mockStore) Locate(path string) domain.StoreHandle {
	return &mockHandle{store: s, path: path}
}

func (s *mockStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.entries)
	return nil
}

func (s *mockStore) Entries() ([]domain.CacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CacheEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out, nil
}

type mockHandle struct {
	store *mockStore
	path  string
}

func (h *mockHandle) Locked(fn func() error) error {
	h.store.mu.Lock()
	h.store.locks++
	err := h.store.lockErr
	h.store.mu.Unlock()
	if err != nil {
		return err
	}
	return fn()
}

func (h *mockHandle) Exists() bool {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	_, ok := h.store.entries[h.path]
	return ok
}

func (h *mockHandle) Read() (domain.CacheEntry, error) {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	e, ok := h.store.entries[h.path]
	if !ok {
		return domain.CacheEntry{}, errors.New("no entry")
	}
	return e, nil
}

func (h *mockHandle) Write(e domain.CacheEntry) error {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	if h.store.writeErr != nil {
		return h.store.writeErr
	}
	h.store.entries[h.path] = e
	return nil
}

func (h *mockHandle) Remove() error {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	delete(h.store.entries, h.path)
	return nil
}
