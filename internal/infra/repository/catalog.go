package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleetbook/internal/domain/pricing"
	"fleetbook/internal/domain/vehicle"
	"fleetbook/internal/infra"
	"fleetbook/internal/pkg/config"
)

// CatalogRepository assembles the pricing snapshot: add-ons, promotions and
// category multipliers from storage, penalty policies from configuration.
// The version is the epoch-millisecond of the newest catalog row, so two
// quotes with the same version saw identical inputs.
type CatalogRepository struct {
	db  *pgxpool.Pool
	cfg config.BookingConfig
}

func NewCatalogRepository(db *pgxpool.Pool, cfg config.BookingConfig) *CatalogRepository {
	return &CatalogRepository{db: db, cfg: cfg}
}

const selectAddOnsSQL = `
SELECT code, name, pricing_mode, rate_cents, updated_at
FROM add_ons
WHERE active`

const selectPromotionsSQL = `
SELECT id, code, percent_off, amount_off_cents, min_days, min_lead_hours, categories, valid_from, valid_to, created_at, updated_at
FROM promotions
WHERE active`

const selectMultipliersSQL = `
SELECT category, multiplier_percent, updated_at
FROM category_multipliers`

func (r *CatalogRepository) Current(ctx context.Context) (pricing.Catalog, error) {
	cancellation, err := r.cfg.CancellationPolicy()
	if err != nil {
		return pricing.Catalog{}, infra.WrapRepoErr("invalid cancellation policy configuration", err)
	}

	cat := pricing.Catalog{
		AddOns:              make(map[string]pricing.AddOn),
		CategoryMultipliers: make(map[vehicle.Category]int),
		Stacking:            r.cfg.PromotionStacking,
		Cancellation:        cancellation,
		Mileage:             r.cfg.MileagePolicy(),
		LateReturn:          r.cfg.LateReturnPolicy(),
	}

	var newest time.Time

	if err := r.loadAddOns(ctx, &cat, &newest); err != nil {
		return pricing.Catalog{}, err
	}
	if err := r.loadPromotions(ctx, &cat, &newest); err != nil {
		return pricing.Catalog{}, err
	}
	if err := r.loadMultipliers(ctx, &cat, &newest); err != nil {
		return pricing.Catalog{}, err
	}

	cat.Version = newest.UnixMilli()
	return cat, nil
}

func (r *CatalogRepository) loadAddOns(ctx context.Context, cat *pricing.Catalog, newest *time.Time) error {
	rows, err := r.db.Query(ctx, selectAddOnsSQL)
	if err != nil {
		return infra.WrapRepoErr("failed to load add-ons", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			code, name, mode string
			rateCents        int64
			updatedAt        time.Time
		)
		if err := rows.Scan(&code, &name, &mode, &rateCents, &updatedAt); err != nil {
			return infra.WrapRepoErr("failed to scan add-on", err)
		}
		cat.AddOns[code] = pricing.AddOn{
			Code:      code,
			Name:      name,
			Mode:      pricing.PricingMode(mode),
			RateCents: rateCents,
		}
		bumpNewest(newest, updatedAt)
	}
	if err := rows.Err(); err != nil {
		return infra.WrapRepoErr("failed to iterate add-ons", err)
	}
	return nil
}

func (r *CatalogRepository) loadPromotions(ctx context.Context, cat *pricing.Catalog, newest *time.Time) error {
	rows, err := r.db.Query(ctx, selectPromotionsSQL)
	if err != nil {
		return infra.WrapRepoErr("failed to load promotions", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id                   uuid.UUID
			code                 string
			percentOff           *float64
			amountOffCents       *int64
			minDays              int
			minLeadHours         int
			rawCategories        []string
			validFrom, validTo   *time.Time
			createdAt, updatedAt time.Time
		)
		if err := rows.Scan(
			&id, &code, &percentOff, &amountOffCents, &minDays, &minLeadHours,
			&rawCategories, &validFrom, &validTo, &createdAt, &updatedAt,
		); err != nil {
			return infra.WrapRepoErr("failed to scan promotion", err)
		}

		categories := make([]vehicle.Category, 0, len(rawCategories))
		for _, c := range rawCategories {
			categories = append(categories, vehicle.Category(c))
		}

		promo, err := pricing.NewPromotion(
			id, code, percentOff, amountOffCents,
			minDays, time.Duration(minLeadHours)*time.Hour,
			categories, validFrom, validTo, createdAt,
		)
		if err != nil {
			return infra.WrapRepoErr("persisted promotion is invalid", err)
		}
		cat.Promotions = append(cat.Promotions, promo)
		bumpNewest(newest, updatedAt)
	}
	if err := rows.Err(); err != nil {
		return infra.WrapRepoErr("failed to iterate promotions", err)
	}
	return nil
}

func (r *CatalogRepository) loadMultipliers(ctx context.Context, cat *pricing.Catalog, newest *time.Time) error {
	rows, err := r.db.Query(ctx, selectMultipliersSQL)
	if err != nil {
		return infra.WrapRepoErr("failed to load category multipliers", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			category  string
			percent   int
			updatedAt time.Time
		)
		if err := rows.Scan(&category, &percent, &updatedAt); err != nil {
			return infra.WrapRepoErr("failed to scan category multiplier", err)
		}
		cat.CategoryMultipliers[vehicle.Category(category)] = percent
		bumpNewest(newest, updatedAt)
	}
	if err := rows.Err(); err != nil {
		return infra.WrapRepoErr("failed to iterate category multipliers", err)
	}
	return nil
}

func bumpNewest(newest *time.Time, candidate time.Time) {
	if candidate.After(*newest) {
		*newest = candidate
	}
}
