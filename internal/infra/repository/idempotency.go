package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleetbook/internal/infra"
	"fleetbook/internal/usecase/commands"
)

// IdempotencyRepository claims request keys in Postgres. Concurrent claims
// of the same key race on the primary key; ON CONFLICT DO NOTHING makes the
// loser observe inserted=false and fall back to replay handling.
type IdempotencyRepository struct {
	db *pgxpool.Pool
}

func NewIdempotencyRepository(db *pgxpool.Pool) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

// The conflict arm reclaims rows whose retention window has passed, so an
// expired key behaves like a fresh one instead of replaying forever.
const insertIdempotencyKeySQL = `
INSERT INTO idempotency_keys (key, requester_id, endpoint, request_hash, status, expires_at, created_at)
VALUES ($1, $2, $3, $4, 'processing', $5, now())
ON CONFLICT (key, requester_id) DO UPDATE
SET endpoint = EXCLUDED.endpoint,
    request_hash = EXCLUDED.request_hash,
    status = 'processing',
    result_booking_id = NULL,
    expires_at = EXCLUDED.expires_at,
    created_at = now()
WHERE idempotency_keys.expires_at <= now()`

const selectIdempotencyKeySQL = `
SELECT status, request_hash, result_booking_id
FROM idempotency_keys
WHERE key = $1 AND requester_id = $2 AND expires_at > now()`

const completeIdempotencyKeySQL = `
UPDATE idempotency_keys SET status = 'completed', result_booking_id = $3
WHERE key = $1 AND requester_id = $2`

func (r *IdempotencyRepository) TryInsert(ctx context.Context, key, requesterID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, insertIdempotencyKeySQL, key, requesterID, endpoint, requestHash, expiresAt)
	if err != nil {
		return false, infra.WrapRepoErr("failed to claim idempotency key", err, kindOf(err))
	}
	return tag.RowsAffected() > 0, nil
}

func (r *IdempotencyRepository) Get(ctx context.Context, key, requesterID uuid.UUID) (*commands.IdempotencyRecord, error) {
	row := r.db.QueryRow(ctx, selectIdempotencyKeySQL, key, requesterID)

	var rec commands.IdempotencyRecord
	if err := row.Scan(&rec.Status, &rec.RequestHash, &rec.ResultBookingID); err != nil {
		if isNoRows(err) {
			return nil, infra.WrapRepoErr("idempotency key not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to load idempotency key", err)
	}
	return &rec, nil
}

func (r *IdempotencyRepository) MarkCompleted(ctx context.Context, key, requesterID uuid.UUID, bookingID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, completeIdempotencyKeySQL, key, requesterID, bookingID)
	if err != nil {
		return infra.WrapRepoErr("failed to complete idempotency key", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("idempotency key not found", nil, infra.KindNotFound)
	}
	return nil
}

const deleteExpiredIdempotencyKeysSQL = `
DELETE FROM idempotency_keys WHERE expires_at <= $1`

func (r *IdempotencyRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, deleteExpiredIdempotencyKeysSQL, now)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to purge expired idempotency keys", err)
	}
	return tag.RowsAffected(), nil
}
