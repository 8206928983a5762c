package app

import (
	"os"
	"time"

	"interpinfo/internal/domain"
)

// Stale entry reasons reported to the Recorder.
const (
	staleMalformed        = "malformed"
	stalePathMismatch     = "path_mismatch"
	staleMtimeMismatch    = "mtime_mismatch"
	staleMissingSystemExe = "missing_system_executable"
)

// ResolveOptions tunes a single Resolve call.
type ResolveOptions struct {
	// Env is the child environment in os.Environ form. nil inherits ours.
	Env []string
	// IgnoreCache skips the memory lookup. The durable store is still
	// consulted and the memory entry is overwritten with the new outcome.
	IgnoreCache bool
	// SuppressErrors turns a failure into a logged (nil, nil) result.
	SuppressErrors bool
}

// Service resolves interpreter records through the memory cache, the durable
// store and, on a miss, a fresh interrogation.
type Service struct {
	memory   *MemoryCache
	store    domain.InfoStore
	prober   domain.Interrogator
	recorder domain.Recorder
	logger   domain.Logger
}

// NewService creates the coordinator with all dependencies injected.
// A nil recorder discards events.
func NewService(
	memory *MemoryCache,
	st domain.InfoStore,
	pr domain.Interrogator,
	rec domain.Recorder,
	lg domain.Logger,
) *Service {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Service{
		memory:   memory,
		store:    st,
		prober:   pr,
		recorder: rec,
		logger:   lg,
	}
}

// Resolve returns the record for exe. The returned record is a copy whose
// Executable is always exe, even when it was cached under another request or
// reported differently by the child.
func (s *Service) Resolve(exe string, opts ResolveOptions) (*domain.Info, error) {
	var (
		o  outcome
		ok bool
	)
	if !opts.IgnoreCache {
		o, ok = s.memory.get(exe)
	}
	if ok {
		s.recorder.Lookup(domain.TierMemory)
	} else {
		var err error
		o, err = s.viaStore(exe, opts.Env)
		if err != nil {
			// Store infrastructure failed; nothing was learned about exe.
			o = outcome{err: err}
		} else {
			s.memory.set(exe, o)
		}
	}

	if o.err != nil {
		if !opts.SuppressErrors {
			return nil, o.err
		}
		s.logger.Info("cannot query interpreter", "exe", exe, "err", o.err)
		return nil, nil
	}

	info := o.info.Clone()
	info.Executable = exe
	return info, nil
}

// viaStore consults and maintains the durable entry for exe while holding its
// lock, so concurrent resolvers interrogate at most once per path.
func (s *Service) viaStore(exe string, env []string) (outcome, error) {
	mtime := modTime(exe)
	h := s.store.Locate(exe)

	var o outcome
	err := h.Locked(func() error {
		if info := s.loadValid(h, exe, mtime); info != nil {
			s.recorder.Lookup(domain.TierDurable)
			o = outcome{info: info}
			return nil
		}

		s.recorder.Lookup(domain.TierInterrogation)
		start := time.Now()
		info, err := s.prober.Interrogate(exe, env)
		s.recorder.Interrogation(time.Since(start), err)
		if err != nil {
			s.logger.Debug("interrogation failed", "exe", exe, "err", err)
			o = outcome{err: err}
			return nil
		}

		entry := domain.CacheEntry{Path: exe, STMtime: mtime, Content: info.ToMap()}
		if err := h.Write(entry); err != nil {
			s.logger.Error("failed to persist interpreter info", "exe", exe, "err", err)
		}
		o = outcome{info: info}
		return nil
	})
	return o, err
}

// loadValid returns the stored record if it is still valid for exe at mtime.
// Stale or unreadable entries are removed.
func (s *Service) loadValid(h domain.StoreHandle, exe string, mtime float64) *domain.Info {
	if !h.Exists() {
		return nil
	}
	entry, err := h.Read()
	if err != nil {
		return s.discard(h, exe, staleMalformed, err)
	}
	if entry.Path != exe {
		return s.discard(h, exe, stalePathMismatch, nil)
	}
	if entry.STMtime != mtime {
		return s.discard(h, exe, staleMtimeMismatch, nil)
	}
	info, err := domain.FromMap(entry.Content)
	if err != nil {
		return s.discard(h, exe, staleMalformed, err)
	}
	if info.SystemExecutable != "" {
		if _, err := os.Stat(info.SystemExecutable); err != nil {
			return s.discard(h, exe, staleMissingSystemExe, err)
		}
	}
	return info
}

func (s *Service) discard(h domain.StoreHandle, exe, reason string, cause error) *domain.Info {
	s.recorder.StaleEntry(reason)
	if cause != nil {
		s.logger.Debug("discarding stale entry", "exe", exe, "reason", reason, "err", cause)
	} else {
		s.logger.Debug("discarding stale entry", "exe", exe, "reason", reason)
	}
	if err := h.Remove(); err != nil {
		s.logger.Error("failed to remove stale entry", "exe", exe, "err", err)
	}
	return nil
}

// Clear forgets every remembered outcome and empties the durable store.
func (s *Service) Clear() error {
	s.memory.Clear()
	return s.store.Clear()
}

// Entries lists the durable store.
func (s *Service) Entries() ([]domain.CacheEntry, error) {
	return s.store.Entries()
}

// modTime returns path's modification time in float seconds, -1 if it
// cannot be read.
func modTime(path string) float64 {
	fi, err := os.Stat(path)
	if err != nil {
		return -1
	}
	return float64(fi.ModTime().UnixNano()) / 1e9
}

type nopRecorder struct{}

func (nopRecorder) Lookup(domain.Tier)                 {}
func (nopRecorder) StaleEntry(string)                  {}
func (nopRecorder) Interrogation(time.Duration, error) {}
