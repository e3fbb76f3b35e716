package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleetbook/internal/domain/booking"
	"fleetbook/internal/domain/pricing"
	"fleetbook/internal/domain/schedule"
	"fleetbook/internal/infra"
)

// BookingRepository persists the booking aggregate. The bookings table
// carries an exclusion constraint over (vehicle_id, slot) for blocking
// statuses as a second line of defense behind the coordinator's in-memory
// check; a violation surfaces as KindConflict.
type BookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{db: db}
}

const insertBookingSQL = `
INSERT INTO bookings (
	id, reference, vehicle_id, requester_id, slot, status,
	breakdown, authorized_cents, payment_ref, pickup_mileage, return_mileage,
	created_at, updated_at
) VALUES ($1, $2, $3, $4, tstzrange($5, $6, '[)'), $7, $8, $9, $10, $11, $12, $13, $14)`

const updateBookingSQL = `
UPDATE bookings SET
	status = $2,
	breakdown = $3,
	authorized_cents = $4,
	payment_ref = $5,
	pickup_mileage = $6,
	return_mileage = $7,
	updated_at = $8
WHERE id = $1`

const insertHistorySQL = `
INSERT INTO booking_status_history (booking_id, status, actor, note, created_at)
VALUES ($1, $2, $3, $4, $5)`

const selectBookingSQL = `
SELECT id, reference, vehicle_id, requester_id,
	lower(slot), upper(slot), status,
	breakdown, authorized_cents, payment_ref, pickup_mileage, return_mileage,
	created_at, updated_at
FROM bookings
WHERE id = $1`

const selectHistorySQL = `
SELECT status, actor, note, created_at
FROM booking_status_history
WHERE booking_id = $1
ORDER BY id`

const selectBlockingSQL = `
SELECT id, vehicle_id, lower(slot), upper(slot)
FROM bookings
WHERE status IN ('confirmed', 'active', 'disputed')`

const selectNoShowCandidatesSQL = `
SELECT id
FROM bookings
WHERE status = 'confirmed' AND lower(slot) < $1`

func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	breakdown, err := json.Marshal(b.Breakdown())
	if err != nil {
		return infra.WrapRepoErr("failed to marshal breakdown", err)
	}

	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		w := b.Window()
		if _, err := tx.Exec(ctx, insertBookingSQL,
			b.ID(), b.Reference(), b.VehicleID(), b.RequesterID(),
			w.Start(), w.End(), b.Status().String(),
			breakdown, b.AuthorizedCents(), b.PaymentRef(),
			b.PickupMileage(), b.ReturnMileage(),
			b.CreatedAt(), b.UpdatedAt(),
		); err != nil {
			return err
		}
		return insertPendingHistory(ctx, tx, b)
	})
	if err != nil {
		return infra.WrapRepoErr("failed to create booking", err, kindOf(err))
	}

	b.MarkHistoryPersisted()
	return nil
}

func (r *BookingRepository) Update(ctx context.Context, b *booking.Booking) error {
	breakdown, err := json.Marshal(b.Breakdown())
	if err != nil {
		return infra.WrapRepoErr("failed to marshal breakdown", err)
	}

	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, updateBookingSQL,
			b.ID(), b.Status().String(), breakdown, b.AuthorizedCents(),
			b.PaymentRef(), b.PickupMileage(), b.ReturnMileage(), b.UpdatedAt(),
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return insertPendingHistory(ctx, tx, b)
	})
	if err != nil {
		if isNoRows(err) {
			return infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return infra.WrapRepoErr("failed to update booking", err, kindOf(err))
	}

	b.MarkHistoryPersisted()
	return nil
}

func (r *BookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	row := r.db.QueryRow(ctx, selectBookingSQL, id)

	var (
		bookingID, vehicleID, requesterID uuid.UUID
		reference, status, paymentRef     string
		start, end, createdAt, updatedAt  time.Time
		breakdownRaw                      []byte
		authorizedCents                   int64
		pickupMileage, returnMileage      *int64
	)
	if err := row.Scan(
		&bookingID, &reference, &vehicleID, &requesterID,
		&start, &end, &status,
		&breakdownRaw, &authorizedCents, &paymentRef, &pickupMileage, &returnMileage,
		&createdAt, &updatedAt,
	); err != nil {
		if isNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking by ID", err)
	}

	var bd pricing.Breakdown
	if err := json.Unmarshal(breakdownRaw, &bd); err != nil {
		return nil, infra.WrapRepoErr("failed to unmarshal breakdown", err)
	}

	w, err := schedule.NewWindow(start, end)
	if err != nil {
		return nil, infra.WrapRepoErr("persisted booking window is invalid", err)
	}

	history, err := r.loadHistory(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	return booking.ReconstructBooking(
		bookingID, reference, vehicleID, requesterID, w,
		booking.Status(status), bd, authorizedCents, paymentRef,
		pickupMileage, returnMileage, history, createdAt, updatedAt,
	), nil
}

func (r *BookingRepository) ListBlocking(ctx context.Context) ([]schedule.CommittedEntry, error) {
	rows, err := r.db.Query(ctx, selectBlockingSQL)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list blocking bookings", err)
	}
	defer rows.Close()

	var entries []schedule.CommittedEntry
	for rows.Next() {
		var (
			bookingID, vehicleID uuid.UUID
			start, end           time.Time
		)
		if err := rows.Scan(&bookingID, &vehicleID, &start, &end); err != nil {
			return nil, infra.WrapRepoErr("failed to scan blocking booking", err)
		}
		w, err := schedule.NewWindow(start, end)
		if err != nil {
			return nil, infra.WrapRepoErr("persisted booking window is invalid", err)
		}
		entries = append(entries, schedule.CommittedEntry{
			BookingID: bookingID,
			VehicleID: vehicleID,
			Window:    w,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate blocking bookings", err)
	}
	return entries, nil
}

func (r *BookingRepository) ListNoShowCandidates(ctx context.Context, startedBefore time.Time) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, selectNoShowCandidatesSQL, startedBefore)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list no-show candidates", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, infra.WrapRepoErr("failed to scan no-show candidate", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate no-show candidates", err)
	}
	return ids, nil
}

func (r *BookingRepository) loadHistory(ctx context.Context, bookingID uuid.UUID) ([]booking.HistoryEntry, error) {
	rows, err := r.db.Query(ctx, selectHistorySQL, bookingID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load booking history", err)
	}
	defer rows.Close()

	var history []booking.HistoryEntry
	for rows.Next() {
		var (
			status, actor, note string
			at                  time.Time
		)
		if err := rows.Scan(&status, &actor, &note, &at); err != nil {
			return nil, infra.WrapRepoErr("failed to scan history entry", err)
		}
		history = append(history, booking.HistoryEntry{
			Status: booking.Status(status),
			Actor:  actor,
			Note:   note,
			At:     at,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate booking history", err)
	}
	return history, nil
}

func insertPendingHistory(ctx context.Context, tx pgx.Tx, b *booking.Booking) error {
	for _, h := range b.PendingHistory() {
		if _, err := tx.Exec(ctx, insertHistorySQL,
			b.ID(), h.Status.String(), h.Actor, h.Note, h.At,
		); err != nil {
			return err
		}
	}
	return nil
}
