package schedule

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrWindowTaken  = errors.New("window is taken")
	ErrHoldNotFound = errors.New("hold not found")
)

// CommittedEntry is one blocking booking window, as persisted.
type CommittedEntry struct {
	BookingID uuid.UUID
	VehicleID uuid.UUID
	Window    Window
}

type committed struct {
	bookingID uuid.UUID
	window    Window
}

type hold struct {
	id        uuid.UUID
	window    Window
	expiresAt time.Time
}

type vehicleIntervals struct {
	// committed is kept sorted by window start; windows never overlap.
	committed []committed
	holds     []hold
}

// Index is the in-memory interval index of committed booking windows plus
// short-lived provisional holds. It is the authoritative structure the
// reservation coordinator checks before committing; it must be rebuilt from
// persisted blocking bookings at startup.
//
// Plain availability reads see committed entries only. Holds are visible
// solely through CanHold/PlaceHold, which the coordinator calls inside the
// per-vehicle exclusive section.
type Index struct {
	mu        sync.RWMutex
	byVehicle map[uuid.UUID]*vehicleIntervals
}

func NewIndex() *Index {
	return &Index{
		byVehicle: make(map[uuid.UUID]*vehicleIntervals),
	}
}

// IsFree reports whether the window overlaps no committed entry for the
// vehicle. Provisional holds are deliberately invisible here.
func (x *Index) IsFree(vehicleID uuid.UUID, w Window) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()

	vi, ok := x.byVehicle[vehicleID]
	if !ok {
		return true
	}
	return !vi.overlapsCommitted(w)
}

// CanHold reports whether the window is free of committed entries and
// unexpired holds. Coordinator use only.
func (x *Index) CanHold(vehicleID uuid.UUID, w Window, now time.Time) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()

	vi, ok := x.byVehicle[vehicleID]
	if !ok {
		return true
	}
	return !vi.overlapsCommitted(w) && !vi.overlapsHold(w, now)
}

// PlaceHold registers a provisional hold for the window. Fails with
// ErrWindowTaken when any committed entry or live hold overlaps.
func (x *Index) PlaceHold(vehicleID, holdID uuid.UUID, w Window, ttl time.Duration, now time.Time) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	vi := x.vehicle(vehicleID)
	vi.pruneExpired(now)
	if vi.overlapsCommitted(w) || vi.overlapsHold(w, now) {
		return ErrWindowTaken
	}
	vi.holds = append(vi.holds, hold{id: holdID, window: w, expiresAt: now.Add(ttl)})
	return nil
}

// ReleaseHold drops a provisional hold. Releasing an unknown or already
// expired hold is a no-op.
func (x *Index) ReleaseHold(vehicleID, holdID uuid.UUID) {
	x.mu.Lock()
	defer x.mu.Unlock()

	vi, ok := x.byVehicle[vehicleID]
	if !ok {
		return
	}
	for i := range vi.holds {
		if vi.holds[i].id == holdID {
			vi.holds = append(vi.holds[:i], vi.holds[i+1:]...)
			return
		}
	}
}

// CommitHold promotes a provisional hold into a committed entry for
// bookingID. The hold must still exist; expiry is not re-checked because
// the caller holds the per-vehicle lock and placed the hold itself.
func (x *Index) CommitHold(vehicleID, holdID, bookingID uuid.UUID) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	vi, ok := x.byVehicle[vehicleID]
	if !ok {
		return ErrHoldNotFound
	}
	for i := range vi.holds {
		if vi.holds[i].id == holdID {
			w := vi.holds[i].window
			vi.holds = append(vi.holds[:i], vi.holds[i+1:]...)
			vi.insertCommitted(committed{bookingID: bookingID, window: w})
			return nil
		}
	}
	return ErrHoldNotFound
}

// Commit inserts a committed entry directly, bypassing the hold protocol.
// Used by the startup rebuild; fails if the window overlaps.
func (x *Index) Commit(vehicleID, bookingID uuid.UUID, w Window) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	vi := x.vehicle(vehicleID)
	if vi.overlapsCommitted(w) {
		return ErrWindowTaken
	}
	vi.insertCommitted(committed{bookingID: bookingID, window: w})
	return nil
}

// Release removes the committed entry for bookingID, if any. Called on
// transition to a non-blocking state (cancelled, completed, no-show).
func (x *Index) Release(vehicleID, bookingID uuid.UUID) {
	x.mu.Lock()
	defer x.mu.Unlock()

	vi, ok := x.byVehicle[vehicleID]
	if !ok {
		return
	}
	for i := range vi.committed {
		if vi.committed[i].bookingID == bookingID {
			vi.committed = append(vi.committed[:i], vi.committed[i+1:]...)
			return
		}
	}
}

// PruneExpired drops all expired holds.
func (x *Index) PruneExpired(now time.Time) {
	x.mu.Lock()
	defer x.mu.Unlock()

	for _, vi := range x.byVehicle {
		vi.pruneExpired(now)
	}
}

// Rebuild replaces the whole index with the given committed entries.
// Entries that overlap an already inserted one are reported back so the
// caller can surface the corruption instead of silently dropping it.
func (x *Index) Rebuild(entries []CommittedEntry) []CommittedEntry {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.byVehicle = make(map[uuid.UUID]*vehicleIntervals)
	var rejected []CommittedEntry
	for _, e := range entries {
		vi := x.vehicle(e.VehicleID)
		if vi.overlapsCommitted(e.Window) {
			rejected = append(rejected, e)
			continue
		}
		vi.insertCommitted(committed{bookingID: e.BookingID, window: e.Window})
	}
	return rejected
}

// CommittedWindows returns the committed windows for a vehicle in start
// order. Intended for diagnostics and tests.
func (x *Index) CommittedWindows(vehicleID uuid.UUID) []Window {
	x.mu.RLock()
	defer x.mu.RUnlock()

	vi, ok := x.byVehicle[vehicleID]
	if !ok {
		return nil
	}
	out := make([]Window, len(vi.committed))
	for i, c := range vi.committed {
		out[i] = c.window
	}
	return out
}

func (x *Index) vehicle(vehicleID uuid.UUID) *vehicleIntervals {
	vi, ok := x.byVehicle[vehicleID]
	if !ok {
		vi = &vehicleIntervals{}
		x.byVehicle[vehicleID] = vi
	}
	return vi
}

func (vi *vehicleIntervals) overlapsCommitted(w Window) bool {
	// First entry ending after w.start; only it and later entries can overlap.
	i := sort.Search(len(vi.committed), func(i int) bool {
		return vi.committed[i].window.End().After(w.Start())
	})
	return i < len(vi.committed) && vi.committed[i].window.Overlaps(w)
}

func (vi *vehicleIntervals) overlapsHold(w Window, now time.Time) bool {
	for _, h := range vi.holds {
		if h.expiresAt.After(now) && h.window.Overlaps(w) {
			return true
		}
	}
	return false
}

func (vi *vehicleIntervals) insertCommitted(c committed) {
	i := sort.Search(len(vi.committed), func(i int) bool {
		return vi.committed[i].window.Start().After(c.window.Start())
	})
	vi.committed = append(vi.committed, committed{})
	copy(vi.committed[i+1:], vi.committed[i:])
	vi.committed[i] = c
}

func (vi *vehicleIntervals) pruneExpired(now time.Time) {
	live := vi.holds[:0]
	for _, h := range vi.holds {
		if h.expiresAt.After(now) {
			live = append(live, h)
		}
	}
	vi.holds = live
}
