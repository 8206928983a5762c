package store

import (
	"errors"

	"interpinfo/internal/domain"
)

// Disabled is a store that never holds anything. Every lookup misses and
// writes are dropped.
type Disabled struct{}

func (Disabled) Locate(string) domain.StoreHandle      { return disabledHandle{} }
func (Disabled) Clear() error                          { return nil }
func (Disabled) Entries() ([]domain.CacheEntry, error) { return nil, nil }

type disabledHandle struct{}

func (disabledHandle) Locked(fn func() error) error  { return fn() }
func (disabledHandle) Exists() bool                  { return false }
func (disabledHandle) Write(domain.CacheEntry) error { return nil }
func (disabledHandle) Remove() error                 { return nil }

func (disabledHandle) Read() (domain.CacheEntry, error) {
	return domain.CacheEntry{}, errors.New("store disabled")
}
