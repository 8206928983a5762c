package domain

import "time"

// Interrogator runs an executable with the bootstrap script and decodes the
// record it prints. env uses os.Environ form; nil means the current
// environment.
type Interrogator interface {
	Interrogate(exe string, env []string) (*Info, error)
}

// ScriptProvider materializes the bootstrap script on disk. release must be
// called once the script is no longer needed.
type ScriptProvider interface {
	Ensure() (path string, release func(), err error)
}

// CookieGenerator creates the delimiter tokens that bracket the payload.
type CookieGenerator interface {
	Generate() string
}

// InfoStore is the durable, cross-process cache of interpreter records.
type InfoStore interface {
	// Locate maps an executable path to its handle. It performs no I/O.
	Locate(path string) StoreHandle
	// Clear drops every entry.
	Clear() error
	// Entries lists every readable entry.
	Entries() ([]CacheEntry, error)
}

// StoreHandle addresses the durable entry of one executable path.
type StoreHandle interface {
	// Locked runs fn while holding an exclusive advisory lock on the entry.
	// The lock is released on every exit path from fn.
	Locked(fn func() error) error
	Exists() bool
	Read() (CacheEntry, error)
	Write(CacheEntry) error
	Remove() error
}

// Tier names where a lookup was answered.
type Tier string

const (
	TierMemory        Tier = "memory"
	TierDurable       Tier = "durable"
	TierInterrogation Tier = "interrogation"
)

// Recorder receives cache and interrogation events.
type Recorder interface {
	Lookup(tier Tier)
	StaleEntry(reason string)
	Interrogation(d time.Duration, err error)
}

// Logger provides structured logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}
