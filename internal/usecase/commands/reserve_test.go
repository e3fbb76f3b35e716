//go:build unit

package commands_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetbook/internal/domain/booking"
	"fleetbook/internal/domain/pricing"
	"fleetbook/internal/domain/schedule"
	"fleetbook/internal/domain/vehicle"
	"fleetbook/internal/infra"
	"fleetbook/internal/pkg/clock"
	"fleetbook/internal/pkg/config"
	"fleetbook/internal/pkg/errs"
	"fleetbook/internal/pkg/keymutex"
	"fleetbook/internal/usecase/commands"
)

var day = 24 * time.Hour

// In-memory fakes. Stateful on purpose: the coordinator tests exercise real
// sequences of calls, not single interactions.

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*booking.Booking
	failNext error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*booking.Booking)}
}

func (r *fakeBookingRepo) Create(_ context.Context, b *booking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}
	r.bookings[b.ID()] = b
	b.MarkHistoryPersisted()
	return nil
}

func (r *fakeBookingRepo) Update(_ context.Context, b *booking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[b.ID()]; !ok {
		return infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	r.bookings[b.ID()] = b
	b.MarkHistoryPersisted()
	return nil
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	return b, nil
}

func (r *fakeBookingRepo) ListBlocking(_ context.Context) ([]schedule.CommittedEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var entries []schedule.CommittedEntry
	for _, b := range r.bookings {
		if b.Status().IsBlocking() {
			entries = append(entries, schedule.CommittedEntry{
				BookingID: b.ID(), VehicleID: b.VehicleID(), Window: b.Window(),
			})
		}
	}
	return entries, nil
}

func (r *fakeBookingRepo) ListNoShowCandidates(_ context.Context, startedBefore time.Time) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uuid.UUID
	for _, b := range r.bookings {
		if b.Status() == booking.StatusConfirmed && b.PickupMileage() == nil && b.Window().Start().Before(startedBefore) {
			ids = append(ids, b.ID())
		}
	}
	return ids, nil
}

type fakeVehicleRepo struct {
	mu       sync.Mutex
	vehicles map[uuid.UUID]*vehicle.Vehicle
	mileage  map[uuid.UUID]int64
}

func newFakeVehicleRepo(vs ...*vehicle.Vehicle) *fakeVehicleRepo {
	r := &fakeVehicleRepo{
		vehicles: make(map[uuid.UUID]*vehicle.Vehicle),
		mileage:  make(map[uuid.UUID]int64),
	}
	for _, v := range vs {
		r.vehicles[v.ID()] = v
	}
	return r
}

func (r *fakeVehicleRepo) FindByID(_ context.Context, id uuid.UUID) (*vehicle.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[id]
	if !ok {
		return nil, infra.WrapRepoErr("vehicle not found", nil, infra.KindNotFound)
	}
	return v, nil
}

func (r *fakeVehicleRepo) RecordMileage(_ context.Context, vehicleID uuid.UUID, deltaMiles int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mileage[vehicleID] += deltaMiles
	return nil
}

type fakeCatalogRepo struct {
	catalog pricing.Catalog
}

func (r *fakeCatalogRepo) Current(_ context.Context) (pricing.Catalog, error) {
	return r.catalog, nil
}

type idemRecord struct {
	record    commands.IdempotencyRecord
	expiresAt time.Time
}

type fakeIdemRepo struct {
	mu      sync.Mutex
	clk     clock.Clock
	records map[string]*idemRecord
}

func newFakeIdemRepo(clk clock.Clock) *fakeIdemRepo {
	return &fakeIdemRepo{clk: clk, records: make(map[string]*idemRecord)}
}

func idemKey(key, requesterID uuid.UUID) string {
	return key.String() + "/" + requesterID.String()
}

func (r *fakeIdemRepo) TryInsert(_ context.Context, key, requesterID uuid.UUID, _, requestHash string, expiresAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := idemKey(key, requesterID)
	if existing, ok := r.records[k]; ok && existing.expiresAt.After(r.clk.Now()) {
		return false, nil
	}
	r.records[k] = &idemRecord{
		record:    commands.IdempotencyRecord{Status: "processing", RequestHash: requestHash},
		expiresAt: expiresAt,
	}
	return true, nil
}

func (r *fakeIdemRepo) Get(_ context.Context, key, requesterID uuid.UUID) (*commands.IdempotencyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[idemKey(key, requesterID)]
	if !ok || !rec.expiresAt.After(r.clk.Now()) {
		return nil, infra.WrapRepoErr("idempotency key not found", nil, infra.KindNotFound)
	}
	out := rec.record
	return &out, nil
}

func (r *fakeIdemRepo) MarkCompleted(_ context.Context, key, requesterID uuid.UUID, bookingID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[idemKey(key, requesterID)]
	if !ok {
		return infra.WrapRepoErr("idempotency key not found", nil, infra.KindNotFound)
	}
	rec.record.Status = "completed"
	rec.record.ResultBookingID = &bookingID
	return nil
}

func (r *fakeIdemRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var purged int64
	for k, rec := range r.records {
		if !rec.expiresAt.After(now) {
			delete(r.records, k)
			purged++
		}
	}
	return purged, nil
}

type fakeGateway struct {
	mu          sync.Mutex
	decline     bool
	onAuthorize func()
	captures    []int64
	refunds     []int64
}

func (g *fakeGateway) Authorize(_ context.Context, _ int64, _ string, _ uuid.UUID) (commands.AuthorizationResult, error) {
	if g.onAuthorize != nil {
		g.onAuthorize()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.decline {
		return commands.AuthorizationResult{Approved: false, DeclineReason: "insufficient funds"}, nil
	}
	return commands.AuthorizationResult{Approved: true, ReferenceID: "auth-" + uuid.NewString()}, nil
}

func (g *fakeGateway) Capture(_ context.Context, _ string, finalAmountCents int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.captures = append(g.captures, finalAmountCents)
	return nil
}

func (g *fakeGateway) Refund(_ context.Context, _ string, amountCents int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refunds = append(g.refunds, amountCents)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []commands.Event
}

func (p *fakePublisher) Publish(_ context.Context, evt commands.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *fakePublisher) kinds() []commands.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]commands.EventKind, len(p.events))
	for i, e := range p.events {
		out[i] = e.Kind
	}
	return out
}

// fixture wires a coordinator and lifecycle over shared in-memory state.
type fixture struct {
	bookings  *fakeBookingRepo
	vehicles  *fakeVehicleRepo
	idem      *fakeIdemRepo
	gateway   *fakeGateway
	publisher *fakePublisher
	index     *schedule.Index
	clk       *clock.MockClock
	cfg       config.BookingConfig

	reserve   commands.ReservationCommands
	lifecycle commands.BookingCommands

	vehicleID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := config.NewTestConfig().Booking
	clk := clock.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	v, err := vehicle.NewVehicle(uuid.New(), "FLEET-001", "Test Sedan",
		vehicle.CategoryEconomy, vehicle.StatusAvailable, 5000, 12000, nil)
	require.NoError(t, err)

	cancellation, err := cfg.CancellationPolicy()
	require.NoError(t, err)

	f := &fixture{
		bookings:  newFakeBookingRepo(),
		vehicles:  newFakeVehicleRepo(v),
		idem:      newFakeIdemRepo(clk),
		gateway:   &fakeGateway{},
		publisher: &fakePublisher{},
		index:     schedule.NewIndex(),
		clk:       clk,
		cfg:       cfg,
		vehicleID: v.ID(),
	}

	catalogs := &fakeCatalogRepo{catalog: pricing.Catalog{
		Version: 1,
		AddOns: map[string]pricing.AddOn{
			"gps": {Code: "gps", Name: "GPS unit", Mode: pricing.ModePerDay, RateCents: 500},
		},
		CategoryMultipliers: map[vehicle.Category]int{vehicle.CategoryEconomy: 100},
		Cancellation:        cancellation,
		Mileage:             cfg.MileagePolicy(),
		LateReturn:          cfg.LateReturnPolicy(),
	}}

	locks := keymutex.New()
	factory := booking.NewFactory(clk)
	logger := slog.New(slog.DiscardHandler)

	f.reserve = commands.NewReservationCommands(
		f.bookings, f.vehicles, catalogs, f.idem, f.gateway, f.publisher,
		f.index, locks, factory, clk, cfg, logger,
	)
	f.lifecycle = commands.NewBookingCommands(
		f.bookings, f.vehicles, catalogs, f.gateway, f.publisher,
		f.index, locks, clk, cfg, logger,
	)
	return f
}

func (f *fixture) params(lead, length time.Duration) commands.ReserveParams {
	start := f.clk.Now().Add(lead)
	return commands.ReserveParams{
		VehicleID:   f.vehicleID,
		RequesterID: uuid.New(),
		Start:       start,
		End:         start.Add(length),
	}
}

func TestReserve(t *testing.T) {
	ctx := context.Background()

	t.Run("successful reservation confirms and commits the window", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.reserve.Reserve(ctx, f.params(7*day, 3*day), uuid.New())
		require.NoError(t, err)

		b := res.Booking
		assert.False(t, res.IsReplayed)
		assert.Equal(t, booking.StatusConfirmed, b.Status())
		assert.Equal(t, int64(15000), b.Breakdown().TotalCents)
		assert.Equal(t, b.Breakdown().TotalCents, b.AuthorizedCents())
		assert.False(t, f.index.IsFree(f.vehicleID, b.Window()))
		assert.Equal(t, []commands.EventKind{commands.EventBookingConfirmed}, f.publisher.kinds())
	})

	t.Run("overlapping window is rejected", func(t *testing.T) {
		f := newFixture(t)
		p := f.params(7*day, 3*day)
		_, err := f.reserve.Reserve(ctx, p, uuid.New())
		require.NoError(t, err)

		clash := p
		clash.RequesterID = uuid.New()
		clash.Start = p.Start.Add(day)
		clash.End = p.End.Add(day)
		_, err = f.reserve.Reserve(ctx, clash, uuid.New())
		assert.ErrorIs(t, err, errs.ErrWindowConflict)
	})

	t.Run("adjacent windows both succeed", func(t *testing.T) {
		f := newFixture(t)
		p := f.params(7*day, 3*day)
		_, err := f.reserve.Reserve(ctx, p, uuid.New())
		require.NoError(t, err)

		next := f.params(10*day, 2*day)
		_, err = f.reserve.Reserve(ctx, next, uuid.New())
		assert.NoError(t, err)
	})

	t.Run("concurrent requests for the same window produce one booking", func(t *testing.T) {
		f := newFixture(t)
		p1 := f.params(7*day, 3*day)
		p2 := p1
		p2.RequesterID = uuid.New()

		var wg sync.WaitGroup
		errors := make([]error, 2)
		for i, p := range []commands.ReserveParams{p1, p2} {
			wg.Add(1)
			go func(i int, p commands.ReserveParams) {
				defer wg.Done()
				_, errors[i] = f.reserve.Reserve(ctx, p, uuid.New())
			}(i, p)
		}
		wg.Wait()

		var confirmed, conflicts int
		for _, err := range errors {
			switch {
			case err == nil:
				confirmed++
			default:
				require.ErrorIs(t, err, errs.ErrWindowConflict)
				conflicts++
			}
		}
		assert.Equal(t, 1, confirmed)
		assert.Equal(t, 1, conflicts)
	})

	t.Run("declined payment discards the provisional booking", func(t *testing.T) {
		f := newFixture(t)
		f.gateway.decline = true

		p := f.params(7*day, 3*day)
		_, err := f.reserve.Reserve(ctx, p, uuid.New())
		require.ErrorIs(t, err, errs.ErrPaymentDeclined)

		// The window is immediately free again.
		w, werr := schedule.NewWindow(p.Start, p.End)
		require.NoError(t, werr)
		assert.True(t, f.index.IsFree(f.vehicleID, w))

		f.gateway.decline = false
		_, err = f.reserve.Reserve(ctx, p, uuid.New())
		assert.NoError(t, err)
	})

	t.Run("hold expiring during authorization releases the payment", func(t *testing.T) {
		f := newFixture(t)
		// A slow gateway round-trip outlives the hold and the sweeper
		// prunes it; the commit must fail and void the authorization.
		f.gateway.onAuthorize = func() {
			f.clk.Add(f.cfg.HoldTTL + time.Minute)
			f.index.PruneExpired(f.clk.Now())
		}

		p := f.params(7*day, 3*day)
		_, err := f.reserve.Reserve(ctx, p, uuid.New())
		require.ErrorIs(t, err, errs.ErrWindowConflict)

		require.Len(t, f.gateway.refunds, 1)
		assert.Equal(t, int64(15000), f.gateway.refunds[0])

		w, werr := schedule.NewWindow(p.Start, p.End)
		require.NoError(t, werr)
		assert.True(t, f.index.IsFree(f.vehicleID, w))
	})

	t.Run("window in the past", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.reserve.Reserve(ctx, f.params(-2*day, day), uuid.New())
		assert.ErrorIs(t, err, errs.ErrInvalidWindow)
	})

	t.Run("inverted window", func(t *testing.T) {
		f := newFixture(t)
		p := f.params(7*day, 3*day)
		p.Start, p.End = p.End, p.Start
		_, err := f.reserve.Reserve(ctx, p, uuid.New())
		assert.ErrorIs(t, err, errs.ErrInvalidWindow)
	})

	t.Run("unknown vehicle", func(t *testing.T) {
		f := newFixture(t)
		p := f.params(7*day, day)
		p.VehicleID = uuid.New()
		_, err := f.reserve.Reserve(ctx, p, uuid.New())
		assert.ErrorIs(t, err, errs.ErrVehicleNotFound)
	})

	t.Run("vehicle in maintenance", func(t *testing.T) {
		f := newFixture(t)
		v, err := vehicle.NewVehicle(uuid.New(), "FLEET-002", "Workshop Van",
			vehicle.CategoryVan, vehicle.StatusMaintenance, 8000, 0, nil)
		require.NoError(t, err)
		f.vehicles.vehicles[v.ID()] = v

		p := f.params(7*day, day)
		p.VehicleID = v.ID()
		_, err = f.reserve.Reserve(ctx, p, uuid.New())
		assert.ErrorIs(t, err, errs.ErrVehicleUnavailable)
	})

	t.Run("unknown add-on", func(t *testing.T) {
		f := newFixture(t)
		p := f.params(7*day, day)
		p.AddOns = []string{"jetpack"}
		_, err := f.reserve.Reserve(ctx, p, uuid.New())
		assert.ErrorIs(t, err, errs.ErrUnknownAddOn)
	})
}

func TestReserveIdempotency(t *testing.T) {
	ctx := context.Background()

	t.Run("replay returns the original booking", func(t *testing.T) {
		f := newFixture(t)
		key := uuid.New()
		p := f.params(7*day, 3*day)

		first, err := f.reserve.Reserve(ctx, p, key)
		require.NoError(t, err)

		second, err := f.reserve.Reserve(ctx, p, key)
		require.NoError(t, err)

		assert.True(t, second.IsReplayed)
		assert.Equal(t, first.Booking.ID(), second.Booking.ID())
		assert.Len(t, f.bookings.bookings, 1)
	})

	t.Run("same key with different parameters is rejected", func(t *testing.T) {
		f := newFixture(t)
		key := uuid.New()
		p := f.params(7*day, 3*day)

		_, err := f.reserve.Reserve(ctx, p, key)
		require.NoError(t, err)

		changed := p
		changed.End = p.End.Add(day)
		_, err = f.reserve.Reserve(ctx, changed, key)
		assert.ErrorIs(t, err, errs.ErrDuplicateRequest)
	})

	t.Run("key still processing reports in progress", func(t *testing.T) {
		f := newFixture(t)
		key := uuid.New()
		p := f.params(7*day, 3*day)

		// First attempt claims the key but dies before completion, leaving
		// the record in processing state.
		f.bookings.failNext = errs.New("storage down")
		_, err := f.reserve.Reserve(ctx, p, key)
		require.Error(t, err)

		_, err = f.reserve.Reserve(ctx, p, key)
		assert.ErrorIs(t, err, errs.ErrRequestInProgress)
	})

	t.Run("expired key is reclaimed instead of replaying forever", func(t *testing.T) {
		f := newFixture(t)
		key := uuid.New()
		p := f.params(30*day, 3*day)

		first, err := f.reserve.Reserve(ctx, p, key)
		require.NoError(t, err)

		// Past the 24h retention the key accepts a new request, even with
		// different parameters.
		f.clk.Add(25 * time.Hour)
		changed := p
		changed.Start = p.End.Add(day)
		changed.End = changed.Start.Add(day)

		res, err := f.reserve.Reserve(ctx, changed, key)
		require.NoError(t, err)
		assert.False(t, res.IsReplayed)
		assert.NotEqual(t, first.Booking.ID(), res.Booking.ID())
	})

	t.Run("purge drops only expired keys", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.reserve.Reserve(ctx, f.params(30*day, day), uuid.New())
		require.NoError(t, err)

		f.clk.Add(25 * time.Hour)
		_, err = f.reserve.Reserve(ctx, f.params(30*day, day), uuid.New())
		require.NoError(t, err)

		purged, err := f.idem.DeleteExpired(ctx, f.clk.Now())
		require.NoError(t, err)
		assert.Equal(t, int64(1), purged)
	})
}

func TestLifecycle(t *testing.T) {
	ctx := context.Background()

	reserveOne := func(t *testing.T, f *fixture, lead, length time.Duration) *booking.Booking {
		t.Helper()
		res, err := f.reserve.Reserve(ctx, f.params(lead, length), uuid.New())
		require.NoError(t, err)
		return res.Booking
	}

	t.Run("cancel frees the window for rebooking", func(t *testing.T) {
		f := newFixture(t)
		b := reserveOne(t, f, 7*day, 3*day)

		cancelled, err := f.lifecycle.Cancel(ctx, b.ID(), "requester", "change of plans")
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCancelled, cancelled.Status())
		assert.True(t, f.index.IsFree(f.vehicleID, b.Window()))

		p := commands.ReserveParams{
			VehicleID:   f.vehicleID,
			RequesterID: uuid.New(),
			Start:       b.Window().Start(),
			End:         b.Window().End(),
		}
		_, err = f.reserve.Reserve(ctx, p, uuid.New())
		assert.NoError(t, err)
	})

	t.Run("cancel with generous lead refunds in full", func(t *testing.T) {
		f := newFixture(t)
		b := reserveOne(t, f, 200*time.Hour, 3*day)

		_, err := f.lifecycle.Cancel(ctx, b.ID(), "requester", "")
		require.NoError(t, err)
		require.Len(t, f.gateway.refunds, 1)
		assert.Equal(t, int64(15000), f.gateway.refunds[0])
	})

	t.Run("late cancel keeps the full charge", func(t *testing.T) {
		f := newFixture(t)
		b := reserveOne(t, f, 12*time.Hour, 3*day)

		_, err := f.lifecycle.Cancel(ctx, b.ID(), "requester", "")
		require.NoError(t, err)
		assert.Empty(t, f.gateway.refunds)
	})

	t.Run("pickup then return captures the final amount", func(t *testing.T) {
		f := newFixture(t)
		b := reserveOne(t, f, 7*day, 3*day)

		f.clk.Add(7 * day)
		_, err := f.lifecycle.Pickup(ctx, b.ID(), "requester", 12000)
		require.NoError(t, err)

		f.clk.Add(3 * day)
		returned, err := f.lifecycle.Return(ctx, b.ID(), "requester", 12350)
		require.NoError(t, err)

		assert.Equal(t, booking.StatusCompleted, returned.Status())
		assert.True(t, f.index.IsFree(f.vehicleID, b.Window()))
		// 50 miles over the 300-mile allowance at 20 cents.
		require.Len(t, f.gateway.captures, 1)
		assert.Equal(t, int64(16000), f.gateway.captures[0])
		assert.Equal(t, int64(350), f.vehicles.mileage[f.vehicleID])
	})

	t.Run("dispute holds the interval until resolution", func(t *testing.T) {
		f := newFixture(t)
		b := reserveOne(t, f, 7*day, 3*day)

		f.clk.Add(7 * day)
		_, err := f.lifecycle.Pickup(ctx, b.ID(), "requester", 0)
		require.NoError(t, err)

		_, err = f.lifecycle.OpenDispute(ctx, b.ID(), "agent", "damage on return")
		require.NoError(t, err)
		assert.False(t, f.index.IsFree(f.vehicleID, b.Window()))

		_, err = f.lifecycle.ResolveDispute(ctx, b.ID(), "admin", -2000, "goodwill")
		require.NoError(t, err)
		assert.True(t, f.index.IsFree(f.vehicleID, b.Window()))
		require.Len(t, f.gateway.refunds, 1)
		assert.Equal(t, int64(2000), f.gateway.refunds[0])
	})

	t.Run("unknown booking maps to not found", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.lifecycle.Pickup(ctx, uuid.New(), "requester", 0)
		assert.ErrorIs(t, err, errs.ErrBookingNotFound)

		_, err = f.lifecycle.Cancel(ctx, uuid.New(), "requester", "")
		assert.ErrorIs(t, err, errs.ErrBookingNotFound)
	})

	t.Run("pickup after a no-show sweep is rejected", func(t *testing.T) {
		f := newFixture(t)
		b := reserveOne(t, f, 7*day, 3*day)

		f.clk.Add(7*day + 2*time.Hour)
		swept, err := f.lifecycle.SweepNoShows(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, swept)

		// The late pickup must not resurrect the swept booking or reclaim
		// its window.
		_, err = f.lifecycle.Pickup(ctx, b.ID(), "requester", 100)
		assert.ErrorIs(t, err, errs.ErrInvalidState)
		assert.True(t, f.index.IsFree(f.vehicleID, b.Window()))

		stored, ferr := f.bookings.FindByID(ctx, b.ID())
		require.NoError(t, ferr)
		assert.Equal(t, booking.StatusNoShow, stored.Status())
	})

	t.Run("invalid transition surfaces as state error", func(t *testing.T) {
		f := newFixture(t)
		b := reserveOne(t, f, 7*day, 3*day)

		_, err := f.lifecycle.Return(ctx, b.ID(), "requester", 100)
		assert.ErrorIs(t, err, errs.ErrInvalidState)
	})

	t.Run("sweep marks stale confirmed bookings as no-show", func(t *testing.T) {
		f := newFixture(t)
		b := reserveOne(t, f, 7*day, 3*day)

		f.clk.Add(7*day + 2*time.Hour)
		swept, err := f.lifecycle.SweepNoShows(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, swept)

		stored, err := f.bookings.FindByID(ctx, b.ID())
		require.NoError(t, err)
		assert.Equal(t, booking.StatusNoShow, stored.Status())
		assert.True(t, f.index.IsFree(f.vehicleID, b.Window()))
	})

	t.Run("sweep skips bookings inside the grace window", func(t *testing.T) {
		f := newFixture(t)
		reserveOne(t, f, 7*day, 3*day)

		f.clk.Add(7*day + 30*time.Minute)
		swept, err := f.lifecycle.SweepNoShows(ctx)
		require.NoError(t, err)
		assert.Zero(t, swept)
	})

	t.Run("sweep skips picked-up bookings", func(t *testing.T) {
		f := newFixture(t)
		b := reserveOne(t, f, 7*day, 3*day)

		f.clk.Add(7 * day)
		_, err := f.lifecycle.Pickup(ctx, b.ID(), "requester", 0)
		require.NoError(t, err)

		f.clk.Add(2 * time.Hour)
		swept, err := f.lifecycle.SweepNoShows(ctx)
		require.NoError(t, err)
		assert.Zero(t, swept)
	})
}
