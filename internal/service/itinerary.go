// Package service contains the business logic of the itinerary tool.
// ItineraryService owns the single draft+baseline pair; every write path, the
// HTTP handlers and the chat bridge alike, goes through it.
// No SQL or HTTP lives here: services depend on interfaces, not implementations.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gowebpki/jcs"

	"github.com/KarenSyu/travel/internal/domain"
	"github.com/KarenSyu/travel/internal/repo"
)

// RemoteStore is the spreadsheet the itinerary is committed to.
// *sheet.Client satisfies it.
type RemoteStore interface {
	Load(ctx context.Context) (domain.Itinerary, error)
	Save(ctx context.Context, it domain.Itinerary) error
}

// Mutation is a pure transformation of the draft. It receives a private copy
// and returns the next draft, or an error to leave the draft untouched.
type Mutation func(domain.Itinerary) (domain.Itinerary, error)

// State is a read-only view of the service at one instant.
type State struct {
	Itinerary domain.Itinerary `json:"itinerary"`
	Dirty     bool             `json:"dirty"`
	Revision  uint64           `json:"revision"`

	// Loading is true only while a load is in flight and no itinerary has ever
	// been available; Refreshing is true whenever a load is in flight.
	Loading    bool `json:"loading"`
	Refreshing bool `json:"refreshing"`
	Saving     bool `json:"saving"`
	Loaded     bool `json:"loaded"`

	LastError   string `json:"lastError,omitempty"`
	Fingerprint string `json:"fingerprint"`
}

// Busy reports whether a load or save is in flight.
func (st State) Busy() bool { return st.Refreshing || st.Saving }

// ItineraryService is the draft/commit state manager.
//
// The draft is the live, possibly edited itinerary; the baseline is the last
// loaded or saved one. Both are kept as independent deep copies. dirty is set
// by every successful mutation and cleared by load, save, and revert; revision
// increments on every change to the draft.
//
// Remote I/O runs without holding the lock. While a load or save is in flight
// every other write (mutation, revert, a second load or save) fails with
// domain.ErrBusy. Reads are always served.
type ItineraryService struct {
	remote   RemoteStore
	cache    repo.SnapshotRepo
	cacheKey string
	log      *slog.Logger

	mu       sync.Mutex
	draft    domain.Itinerary
	baseline domain.Itinerary
	loaded   bool
	dirty    bool
	revision uint64
	loading  bool
	saving   bool
	lastErr  error
}

// NewItineraryService constructs the service. cache may be nil, in which case
// nothing is persisted locally. A nil logger falls back to slog.Default().
func NewItineraryService(remote RemoteStore, cache repo.SnapshotRepo, cacheKey string, log *slog.Logger) *ItineraryService {
	if log == nil {
		log = slog.Default()
	}
	return &ItineraryService{
		remote:   remote,
		cache:    cache,
		cacheKey: cacheKey,
		log:      log,
		draft:    domain.Itinerary{Days: []domain.DayPlan{}},
		baseline: domain.Itinerary{Days: []domain.DayPlan{}},
	}
}

// Bootstrap seeds draft and baseline from the local cache. It is meant to run
// once at startup, before the first remote load. A cache miss is not an error.
// If a load has already completed, the cached snapshot is ignored.
func (s *ItineraryService) Bootstrap(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	it, err := s.cache.Get(ctx, s.cacheKey)
	if errors.Is(err, domain.ErrNotFound) {
		s.log.DebugContext(ctx, "no cached itinerary", "key", s.cacheKey)
		return nil
	}
	if err != nil {
		return fmt.Errorf("service.ItineraryService.Bootstrap: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}
	s.draft = it.Clone()
	s.baseline = it.Clone()
	s.loaded = true
	s.revision++
	s.log.InfoContext(ctx, "itinerary restored from cache",
		"days", len(it.Days), "activities", it.ActivityCount())
	return nil
}

// Load fetches the itinerary from the remote store and replaces both draft and
// baseline with it, discarding unsaved edits. On failure nothing changes except
// State().LastError; the returned State is valid either way.
func (s *ItineraryService) Load(ctx context.Context) (State, error) {
	s.mu.Lock()
	if s.loading || s.saving {
		st := s.stateLocked()
		s.mu.Unlock()
		return st, fmt.Errorf("service.ItineraryService.Load: %w", domain.ErrBusy)
	}
	s.loading = true
	s.mu.Unlock()

	it, err := s.remote.Load(ctx)

	s.mu.Lock()
	if err != nil {
		s.loading = false
		s.lastErr = err
		st := s.stateLocked()
		s.mu.Unlock()
		s.log.WarnContext(ctx, "remote load failed", "error", err, "cached", st.Loaded)
		return st, fmt.Errorf("service.ItineraryService.Load: %w", err)
	}
	s.draft = it.Clone()
	s.baseline = it.Clone()
	s.loaded = true
	s.dirty = false
	s.revision++
	s.lastErr = nil
	revision := s.revision
	s.mu.Unlock()

	s.log.InfoContext(ctx, "itinerary loaded",
		"days", len(it.Days), "activities", it.ActivityCount(), "revision", revision)

	// loading stays set until the cache holds it, so no save can commit a
	// newer baseline whose snapshot this write would then overwrite.
	s.writeCache(ctx, it)
	return s.finish(&s.loading), nil
}

// Save pushes a snapshot of the draft to the remote store. On success the
// baseline becomes that snapshot and dirty clears. On failure draft and
// baseline are left exactly as they were.
func (s *ItineraryService) Save(ctx context.Context) (State, error) {
	s.mu.Lock()
	if s.loading || s.saving {
		st := s.stateLocked()
		s.mu.Unlock()
		return st, fmt.Errorf("service.ItineraryService.Save: %w", domain.ErrBusy)
	}
	s.saving = true
	snapshot := s.draft.Clone()
	s.mu.Unlock()

	err := s.remote.Save(ctx, snapshot)

	s.mu.Lock()
	if err != nil {
		s.saving = false
		s.lastErr = err
		st := s.stateLocked()
		s.mu.Unlock()
		s.log.WarnContext(ctx, "remote save failed", "error", err)
		return st, fmt.Errorf("service.ItineraryService.Save: %w", err)
	}
	// Writes were rejected while saving, so the draft still equals snapshot.
	s.baseline = snapshot.Clone()
	s.dirty = false
	s.lastErr = nil
	revision := s.revision
	s.mu.Unlock()

	s.log.InfoContext(ctx, "itinerary saved",
		"days", len(snapshot.Days), "activities", snapshot.ActivityCount(), "revision", revision)
	s.writeCache(ctx, snapshot)
	return s.finish(&s.saving), nil
}

// finish clears an in-flight flag once the operation's cache write is done
// and returns the resulting state.
func (s *ItineraryService) finish(flag *bool) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	*flag = false
	return s.stateLocked()
}

// Revert restores the draft from the baseline. No network call is made.
// Rejected with domain.ErrBusy while a load or save is in flight.
func (s *ItineraryService) Revert(ctx context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading || s.saving {
		return s.stateLocked(), fmt.Errorf("service.ItineraryService.Revert: %w", domain.ErrBusy)
	}
	if s.dirty {
		s.draft = s.baseline.Clone()
		s.dirty = false
		s.revision++
		s.log.InfoContext(ctx, "draft reverted", "revision", s.revision)
	}
	return s.stateLocked(), nil
}

// Apply runs m against a copy of the live draft and, if it succeeds, installs
// the result as the new draft and marks it dirty. This is the only write path
// for edits. A failing mutation leaves the draft unchanged.
func (s *ItineraryService) Apply(ctx context.Context, m Mutation) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading || s.saving {
		return s.stateLocked(), fmt.Errorf("service.ItineraryService.Apply: %w", domain.ErrBusy)
	}

	next, err := m(s.draft.Clone())
	if err != nil {
		return s.stateLocked(), fmt.Errorf("service.ItineraryService.Apply: %w", err)
	}
	if err := next.Validate(); err != nil {
		return s.stateLocked(), fmt.Errorf("service.ItineraryService.Apply: %w", err)
	}

	s.draft = next
	s.dirty = true
	s.revision++
	s.log.DebugContext(ctx, "draft mutated", "revision", s.revision)
	return s.stateLocked(), nil
}

// AddActivity appends a to the given day of the draft.
func (s *ItineraryService) AddActivity(ctx context.Context, dayNumber int, a domain.Activity) (State, error) {
	return s.Apply(ctx, func(it domain.Itinerary) (domain.Itinerary, error) {
		return domain.AddActivity(it, dayNumber, a)
	})
}

// EditActivity replaces the activity at index of the given day.
func (s *ItineraryService) EditActivity(ctx context.Context, dayNumber, index int, a domain.Activity) (State, error) {
	return s.Apply(ctx, func(it domain.Itinerary) (domain.Itinerary, error) {
		return domain.EditActivity(it, dayNumber, index, a)
	})
}

// DeleteActivity removes the activity at index of the given day.
func (s *ItineraryService) DeleteActivity(ctx context.Context, dayNumber, index int) (State, error) {
	return s.Apply(ctx, func(it domain.Itinerary) (domain.Itinerary, error) {
		return domain.DeleteActivity(it, dayNumber, index)
	})
}

// MoveActivity moves an activity between positions, possibly across days.
func (s *ItineraryService) MoveActivity(ctx context.Context, srcDay, srcIndex, dstDay, dstIndex int) (State, error) {
	return s.Apply(ctx, func(it domain.Itinerary) (domain.Itinerary, error) {
		return domain.MoveActivity(it, srcDay, srcIndex, dstDay, dstIndex)
	})
}

// IsDirty reports whether the draft has unsaved changes.
func (s *ItineraryService) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Draft returns a deep copy of the current draft.
func (s *ItineraryService) Draft() domain.Itinerary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}

// Baseline returns a deep copy of the last committed itinerary.
func (s *ItineraryService) Baseline() domain.Itinerary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseline.Clone()
}

// State returns a snapshot of the service state.
func (s *ItineraryService) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *ItineraryService) stateLocked() State {
	st := State{
		Itinerary:   s.draft.Clone(),
		Dirty:       s.dirty,
		Revision:    s.revision,
		Loading:     s.loading && !s.loaded,
		Refreshing:  s.loading,
		Saving:      s.saving,
		Loaded:      s.loaded,
		Fingerprint: Fingerprint(s.draft),
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// writeCache persists it as the local snapshot. The remote store is the source
// of truth, so a failure here is logged and otherwise ignored. The write is
// detached from ctx cancellation so a disconnecting client cannot abort it.
func (s *ItineraryService) writeCache(ctx context.Context, it domain.Itinerary) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(context.WithoutCancel(ctx), s.cacheKey, it); err != nil {
		s.log.ErrorContext(ctx, "cache write failed", "key", s.cacheKey, "error", err)
	}
}

// Fingerprint returns the hex SHA-256 of the RFC 8785 canonical JSON of it.
// Structurally equal itineraries always share a fingerprint.
func Fingerprint(it domain.Itinerary) string {
	raw, err := json.Marshal(it.Clone())
	if err != nil {
		return ""
	}
	canon, err := jcs.Transform(raw)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:])
}
