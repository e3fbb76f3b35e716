package readstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleetbook/internal/domain/pricing"
	"fleetbook/internal/infra"
	"fleetbook/internal/usecase/queries"
)

type BookingReadStore struct {
	db *pgxpool.Pool
}

func NewBookingReadStore(db *pgxpool.Pool) *BookingReadStore {
	return &BookingReadStore{db: db}
}

const selectBookingViewSQL = `
SELECT id, reference, vehicle_id, requester_id,
	lower(slot), upper(slot), status,
	breakdown, authorized_cents, pickup_mileage, return_mileage,
	created_at, updated_at
FROM bookings
WHERE id = $1`

const selectBookingHistorySQL = `
SELECT status, actor, note, created_at
FROM booking_status_history
WHERE booking_id = $1
ORDER BY id`

const selectBookingsByRequesterSQL = `
SELECT id, reference, vehicle_id, lower(slot), upper(slot), status,
	(breakdown->>'total_cents')::bigint, created_at
FROM bookings
WHERE requester_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

func (s *BookingReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.BookingView, error) {
	row := s.db.QueryRow(ctx, selectBookingViewSQL, id)

	var (
		view         queries.BookingView
		breakdownRaw []byte
	)
	if err := row.Scan(
		&view.ID, &view.Reference, &view.VehicleID, &view.RequesterID,
		&view.Start, &view.End, &view.Status,
		&breakdownRaw, &view.AuthorizedCents, &view.PickupMileage, &view.ReturnMileage,
		&view.CreatedAt, &view.UpdatedAt,
	); err != nil {
		if isNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking view", err)
	}

	var bd pricing.Breakdown
	if err := json.Unmarshal(breakdownRaw, &bd); err != nil {
		return nil, infra.WrapRepoErr("failed to unmarshal breakdown", err)
	}
	view.Breakdown = bd

	history, err := s.loadHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	view.History = history

	return &view, nil
}

func (s *BookingReadStore) FindByRequester(ctx context.Context, requesterID uuid.UUID, limit, offset int32) ([]*queries.BookingListItem, error) {
	rows, err := s.db.Query(ctx, selectBookingsByRequesterSQL, requesterID, limit, offset)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list bookings by requester", err)
	}
	defer rows.Close()

	var items []*queries.BookingListItem
	for rows.Next() {
		var item queries.BookingListItem
		if err := rows.Scan(
			&item.ID, &item.Reference, &item.VehicleID,
			&item.Start, &item.End, &item.Status, &item.TotalCents, &item.CreatedAt,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan booking list item", err)
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate bookings by requester", err)
	}
	return items, nil
}

func (s *BookingReadStore) loadHistory(ctx context.Context, bookingID uuid.UUID) ([]queries.HistoryEntryView, error) {
	rows, err := s.db.Query(ctx, selectBookingHistorySQL, bookingID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load booking history", err)
	}
	defer rows.Close()

	var history []queries.HistoryEntryView
	for rows.Next() {
		var (
			entry queries.HistoryEntryView
			at    time.Time
		)
		if err := rows.Scan(&entry.Status, &entry.Actor, &entry.Note, &at); err != nil {
			return nil, infra.WrapRepoErr("failed to scan history entry", err)
		}
		entry.At = at
		history = append(history, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate booking history", err)
	}
	return history, nil
}
