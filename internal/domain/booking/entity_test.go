//go:build unit

package booking_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetbook/internal/domain/booking"
	"fleetbook/internal/domain/pricing"
	"fleetbook/internal/domain/schedule"
	"fleetbook/internal/pkg/clock"
)

var day = 24 * time.Hour

func testPolicy() pricing.CancellationPolicy {
	return pricing.CancellationPolicy{
		Tiers: []pricing.CancellationTier{
			{Within: 24 * time.Hour, Percent: 100},
			{Within: 72 * time.Hour, Percent: 50},
			{Within: 168 * time.Hour, Percent: 25},
		},
	}
}

func newRequested(t *testing.T, clk *clock.MockClock, lead time.Duration) *booking.Booking {
	t.Helper()
	start := clk.Now().Add(lead)
	w, err := schedule.NewWindow(start, start.Add(3*day))
	require.NoError(t, err)

	bd := pricing.NewBreakdown(15000, nil, 0, nil)
	factory := booking.NewFactory(clk)
	return factory.CreateBooking(uuid.New(), uuid.New(), w, bd, "requester")
}

func confirmed(t *testing.T, clk *clock.MockClock, lead time.Duration) *booking.Booking {
	t.Helper()
	b := newRequested(t, clk, lead)
	require.NoError(t, b.Confirm("auth-000001", "system", clk.Now()))
	return b
}

func TestBookingConfirm(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	t.Run("requested confirms with payment reference", func(t *testing.T) {
		b := newRequested(t, clk, 7*day)
		require.NoError(t, b.Confirm("auth-000001", "system", clk.Now()))

		assert.Equal(t, booking.StatusConfirmed, b.Status())
		assert.Equal(t, b.Breakdown().TotalCents, b.AuthorizedCents())
		assert.Equal(t, "auth-000001", b.PaymentRef())
	})

	t.Run("missing payment reference", func(t *testing.T) {
		b := newRequested(t, clk, 7*day)
		assert.ErrorIs(t, b.Confirm("", "system", clk.Now()), booking.ErrMissingPaymentRef)
	})

	t.Run("double confirm fails loudly", func(t *testing.T) {
		b := confirmed(t, clk, 7*day)
		err := b.Confirm("auth-000002", "system", clk.Now())

		var stateErr *booking.StateError
		require.ErrorAs(t, err, &stateErr)
		assert.Equal(t, booking.StatusConfirmed, stateErr.Current)
		assert.Equal(t, booking.EventConfirm, stateErr.Event)
	})
}

func TestBookingPickupAndComplete(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	mileage := pricing.MileagePolicy{IncludedMilesPerDay: 100, OverageCentsPerMile: 20}
	late := pricing.LateReturnPolicy{Grace: 30 * time.Minute, FeeCentsPerHour: 1500}

	t.Run("pickup records the starting odometer", func(t *testing.T) {
		b := confirmed(t, clk, 7*day)
		require.NoError(t, b.Pickup(12000, "requester", clk.Now().Add(7*day)))

		assert.Equal(t, booking.StatusActive, b.Status())
		require.NotNil(t, b.PickupMileage())
		assert.Equal(t, int64(12000), *b.PickupMileage())
	})

	t.Run("pickup from requested fails", func(t *testing.T) {
		b := newRequested(t, clk, 7*day)
		var stateErr *booking.StateError
		assert.ErrorAs(t, b.Pickup(12000, "requester", clk.Now()), &stateErr)
	})

	t.Run("on-time return within allowance has no penalty", func(t *testing.T) {
		b := confirmed(t, clk, 7*day)
		require.NoError(t, b.Pickup(12000, "requester", clk.Now().Add(7*day)))

		res, err := b.Complete(12250, "requester", mileage, late, b.Window().End().Add(-time.Hour))
		require.NoError(t, err)

		assert.Equal(t, booking.StatusCompleted, b.Status())
		assert.Equal(t, int64(250), res.DrivenMiles)
		assert.Zero(t, res.PenaltyCents)
		assert.Equal(t, b.Breakdown().TotalCents, res.FinalCents)
	})

	t.Run("mileage overage is charged per mile", func(t *testing.T) {
		b := confirmed(t, clk, 7*day)
		require.NoError(t, b.Pickup(12000, "requester", clk.Now().Add(7*day)))

		// 3-day rental includes 300 miles; 350 driven leaves 50 over at 20c.
		res, err := b.Complete(12350, "requester", mileage, late, b.Window().End().Add(-time.Hour))
		require.NoError(t, err)

		assert.Equal(t, int64(1000), res.PenaltyCents)
		assert.Equal(t, 2, b.Breakdown().Revision)
		require.Len(t, b.Breakdown().Penalties, 1)
		assert.Equal(t, pricing.ReasonExcessMileage, b.Breakdown().Penalties[0].Reason)
	})

	t.Run("late return pays per started hour", func(t *testing.T) {
		b := confirmed(t, clk, 7*day)
		require.NoError(t, b.Pickup(12000, "requester", clk.Now().Add(7*day)))

		res, err := b.Complete(12100, "requester", mileage, late, b.Window().End().Add(90*time.Minute))
		require.NoError(t, err)

		// 90 minutes late, grace exceeded: two started hours.
		assert.Equal(t, int64(3000), res.PenaltyCents)
	})

	t.Run("return odometer below pickup", func(t *testing.T) {
		b := confirmed(t, clk, 7*day)
		require.NoError(t, b.Pickup(12000, "requester", clk.Now().Add(7*day)))

		_, err := b.Complete(11999, "requester", mileage, late, b.Window().End())
		assert.ErrorIs(t, err, booking.ErrMileageBelowPickup)
	})
}

func TestBookingCancel(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	t.Run("requested cancels without penalty", func(t *testing.T) {
		b := newRequested(t, clk, 7*day)
		res, err := b.Cancel("changed plans", "requester", testPolicy(), clk.Now())
		require.NoError(t, err)

		assert.Equal(t, booking.StatusCancelled, b.Status())
		assert.Zero(t, res.PenaltyCents)
		assert.Zero(t, res.RefundCents)
	})

	t.Run("late cancellation pays the tightest tier", func(t *testing.T) {
		b := confirmed(t, clk, 12*time.Hour)
		res, err := b.Cancel("", "requester", testPolicy(), clk.Now())
		require.NoError(t, err)

		assert.Equal(t, int64(15000), res.PenaltyCents)
		assert.Zero(t, res.RefundCents)
		require.Len(t, b.Breakdown().Penalties, 1)
		assert.Equal(t, pricing.ReasonCancellation, b.Breakdown().Penalties[0].Reason)
	})

	t.Run("mid tier splits penalty and refund", func(t *testing.T) {
		b := confirmed(t, clk, 48*time.Hour)
		res, err := b.Cancel("", "requester", testPolicy(), clk.Now())
		require.NoError(t, err)

		assert.Equal(t, int64(7500), res.PenaltyCents)
		assert.Equal(t, int64(7500), res.RefundCents)
	})

	t.Run("generous lead cancels free", func(t *testing.T) {
		b := confirmed(t, clk, 200*time.Hour)
		res, err := b.Cancel("", "requester", testPolicy(), clk.Now())
		require.NoError(t, err)

		assert.Zero(t, res.PenaltyCents)
		assert.Equal(t, int64(15000), res.RefundCents)
	})

	t.Run("cancelling a completed booking fails", func(t *testing.T) {
		b := confirmed(t, clk, 7*day)
		mileage := pricing.MileagePolicy{IncludedMilesPerDay: 100, OverageCentsPerMile: 20}
		late := pricing.LateReturnPolicy{}
		require.NoError(t, b.Pickup(0, "requester", clk.Now()))
		_, err := b.Complete(10, "requester", mileage, late, b.Window().End())
		require.NoError(t, err)

		_, err = b.Cancel("", "requester", testPolicy(), clk.Now())
		var stateErr *booking.StateError
		assert.ErrorAs(t, err, &stateErr)
	})
}

func TestBookingNoShow(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	t.Run("no-show applies the maximum tier", func(t *testing.T) {
		b := confirmed(t, clk, 7*day)
		res, err := b.MarkNoShow("sweeper", testPolicy(), clk.Now().Add(8*day))
		require.NoError(t, err)

		assert.Equal(t, booking.StatusNoShow, b.Status())
		assert.Equal(t, int64(15000), res.PenaltyCents)
		assert.Zero(t, res.RefundCents)
	})

	t.Run("active booking cannot no-show", func(t *testing.T) {
		b := confirmed(t, clk, 7*day)
		require.NoError(t, b.Pickup(0, "requester", clk.Now().Add(7*day)))

		_, err := b.MarkNoShow("sweeper", testPolicy(), clk.Now())
		var stateErr *booking.StateError
		assert.ErrorAs(t, err, &stateErr)
	})
}

func TestBookingDispute(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	active := func(t *testing.T) *booking.Booking {
		b := confirmed(t, clk, 7*day)
		require.NoError(t, b.Pickup(0, "requester", clk.Now().Add(7*day)))
		return b
	}

	t.Run("dispute blocks completion until resolved", func(t *testing.T) {
		b := active(t)
		require.NoError(t, b.OpenDispute("damage on return", "agent", clk.Now()))
		assert.Equal(t, booking.StatusDisputed, b.Status())

		mileage := pricing.MileagePolicy{IncludedMilesPerDay: 100, OverageCentsPerMile: 20}
		_, err := b.Complete(10, "requester", mileage, pricing.LateReturnPolicy{}, clk.Now())
		var stateErr *booking.StateError
		assert.ErrorAs(t, err, &stateErr)
	})

	t.Run("positive adjustment charges extra", func(t *testing.T) {
		b := active(t)
		require.NoError(t, b.OpenDispute("damage", "agent", clk.Now()))
		before := b.Breakdown().TotalCents

		require.NoError(t, b.ResolveDispute(5000, "scratch repair", "admin", clk.Now()))
		assert.Equal(t, booking.StatusCompleted, b.Status())
		assert.Equal(t, before+5000, b.Breakdown().TotalCents)
	})

	t.Run("negative adjustment grants a credit", func(t *testing.T) {
		b := active(t)
		require.NoError(t, b.OpenDispute("overcharge", "agent", clk.Now()))
		before := b.Breakdown().TotalCents

		require.NoError(t, b.ResolveDispute(-2000, "goodwill", "admin", clk.Now()))
		assert.Equal(t, before-2000, b.Breakdown().TotalCents)
	})

	t.Run("zero adjustment leaves the breakdown revision alone", func(t *testing.T) {
		b := active(t)
		require.NoError(t, b.OpenDispute("mistake", "agent", clk.Now()))
		rev := b.Breakdown().Revision

		require.NoError(t, b.ResolveDispute(0, "", "admin", clk.Now()))
		assert.Equal(t, rev, b.Breakdown().Revision)
	})
}

func TestBookingHistory(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	t.Run("every transition appends an entry", func(t *testing.T) {
		b := newRequested(t, clk, 7*day)
		require.NoError(t, b.Confirm("auth-1", "system", clk.Now()))
		require.NoError(t, b.Pickup(0, "requester", clk.Now().Add(7*day)))

		history := b.History()
		require.Len(t, history, 3)
		assert.Equal(t, booking.StatusRequested, history[0].Status)
		assert.Equal(t, booking.StatusConfirmed, history[1].Status)
		assert.Equal(t, booking.StatusActive, history[2].Status)
	})

	t.Run("pending history tracks unsaved entries", func(t *testing.T) {
		b := newRequested(t, clk, 7*day)
		assert.Len(t, b.PendingHistory(), 1)

		b.MarkHistoryPersisted()
		assert.Empty(t, b.PendingHistory())

		require.NoError(t, b.Confirm("auth-1", "system", clk.Now()))
		assert.Len(t, b.PendingHistory(), 1)
	})
}
