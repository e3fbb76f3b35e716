//go:build unit

package pricing_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetbook/internal/domain/pricing"
	"fleetbook/internal/domain/schedule"
	"fleetbook/internal/domain/vehicle"
)

var day = 24 * time.Hour

func testCatalog(t *testing.T, promos ...*pricing.Promotion) pricing.Catalog {
	t.Helper()
	return pricing.Catalog{
		Version: 1,
		AddOns: map[string]pricing.AddOn{
			"gps":       {Code: "gps", Name: "GPS unit", Mode: pricing.ModePerDay, RateCents: 500},
			"childseat": {Code: "childseat", Name: "Child seat", Mode: pricing.ModeFlat, RateCents: 1500},
		},
		CategoryMultipliers: map[vehicle.Category]int{
			vehicle.CategoryEconomy: 100,
			vehicle.CategoryLuxury:  180,
		},
		Promotions: promos,
	}
}

func economySpec() pricing.VehicleSpec {
	return pricing.VehicleSpec{
		ID:             uuid.New(),
		Category:       vehicle.CategoryEconomy,
		DailyRateCents: 5000,
	}
}

func percentPromo(t *testing.T, code string, pct float64, createdAt time.Time) *pricing.Promotion {
	t.Helper()
	p, err := pricing.NewPromotion(uuid.New(), code, &pct, nil, 0, 0, nil, nil, nil, createdAt)
	require.NoError(t, err)
	return p
}

func amountPromo(t *testing.T, code string, off int64, createdAt time.Time) *pricing.Promotion {
	t.Helper()
	p, err := pricing.NewPromotion(uuid.New(), code, nil, &off, 0, 0, nil, nil, nil, createdAt)
	require.NoError(t, err)
	return p
}

func TestQuote(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	start := now.Add(7 * day)

	t.Run("base price is rate times days", func(t *testing.T) {
		w := mustWindow(t, start, start.Add(3*day))
		bd, err := pricing.Quote(economySpec(), w, nil, testCatalog(t), now)
		require.NoError(t, err)

		assert.Equal(t, int64(15000), bd.BaseCents)
		assert.Equal(t, int64(15000), bd.TotalCents)
		assert.Equal(t, 1, bd.Revision)
	})

	t.Run("category multiplier scales the base", func(t *testing.T) {
		spec := economySpec()
		spec.Category = vehicle.CategoryLuxury
		w := mustWindow(t, start, start.Add(2*day))

		bd, err := pricing.Quote(spec, w, nil, testCatalog(t), now)
		require.NoError(t, err)
		assert.Equal(t, int64(18000), bd.BaseCents)
	})

	t.Run("per-day add-on bills each day, flat bills once", func(t *testing.T) {
		w := mustWindow(t, start, start.Add(3*day))
		bd, err := pricing.Quote(economySpec(), w, []string{"gps", "childseat"}, testCatalog(t), now)
		require.NoError(t, err)

		require.Len(t, bd.AddOns, 2)
		assert.Equal(t, int64(1500), bd.AddOns[0].AmountCents)
		assert.Equal(t, 3, bd.AddOns[0].Units)
		assert.Equal(t, int64(1500), bd.AddOns[1].AmountCents)
		assert.Equal(t, 1, bd.AddOns[1].Units)
		assert.Equal(t, int64(18000), bd.TotalCents)
	})

	t.Run("unknown add-on", func(t *testing.T) {
		w := mustWindow(t, start, start.Add(day))
		_, err := pricing.Quote(economySpec(), w, []string{"jetpack"}, testCatalog(t), now)
		assert.ErrorIs(t, err, pricing.ErrUnknownAddOn)
	})

	t.Run("duplicate add-on", func(t *testing.T) {
		w := mustWindow(t, start, start.Add(day))
		_, err := pricing.Quote(economySpec(), w, []string{"gps", "gps"}, testCatalog(t), now)
		assert.ErrorIs(t, err, pricing.ErrDuplicateAddOn)
	})

	t.Run("unknown category", func(t *testing.T) {
		spec := economySpec()
		spec.Category = vehicle.CategorySUV
		w := mustWindow(t, start, start.Add(day))
		_, err := pricing.Quote(spec, w, nil, testCatalog(t), now)
		assert.ErrorIs(t, err, pricing.ErrUnknownCategory)
	})

	t.Run("identical inputs produce identical breakdowns", func(t *testing.T) {
		w := mustWindow(t, start, start.Add(3*day))
		cat := testCatalog(t, percentPromo(t, "SPRING10", 10, now.Add(-day)))

		first, err := pricing.Quote(economySpec(), w, []string{"gps"}, cat, now)
		require.NoError(t, err)
		second, err := pricing.Quote(economySpec(), w, []string{"gps"}, cat, now)
		require.NoError(t, err)

		assert.Empty(t, cmp.Diff(first, second))
	})

	t.Run("breakdown totals obey the identity", func(t *testing.T) {
		w := mustWindow(t, start, start.Add(3*day))
		cat := testCatalog(t, percentPromo(t, "SPRING10", 10, now.Add(-day)))

		bd, err := pricing.Quote(economySpec(), w, []string{"gps", "childseat"}, cat, now)
		require.NoError(t, err)

		var addOns int64
		for _, l := range bd.AddOns {
			addOns += l.AmountCents
		}
		assert.Equal(t, bd.BaseCents+addOns-bd.DiscountCents, bd.TotalCents)
	})
}

func TestQuotePromotions(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	start := now.Add(7 * day)
	w := mustWindow(t, start, start.Add(2*day)) // economy base 10000

	t.Run("highest discount wins", func(t *testing.T) {
		cat := testCatalog(t,
			percentPromo(t, "SMALL", 5, now.Add(-2*day)),
			percentPromo(t, "BIG", 20, now.Add(-day)),
		)
		bd, err := pricing.Quote(economySpec(), w, nil, cat, now)
		require.NoError(t, err)

		assert.Equal(t, int64(2000), bd.DiscountCents)
		require.NotNil(t, bd.PromotionCode)
		assert.Equal(t, "BIG", *bd.PromotionCode)
	})

	t.Run("equal discounts break ties by earliest created", func(t *testing.T) {
		cat := testCatalog(t,
			percentPromo(t, "LATER", 10, now.Add(-day)),
			percentPromo(t, "EARLIER", 10, now.Add(-2*day)),
		)
		bd, err := pricing.Quote(economySpec(), w, nil, cat, now)
		require.NoError(t, err)

		require.NotNil(t, bd.PromotionCode)
		assert.Equal(t, "EARLIER", *bd.PromotionCode)
	})

	t.Run("stacking applies promotions sequentially", func(t *testing.T) {
		cat := testCatalog(t,
			percentPromo(t, "TEN", 10, now.Add(-2*day)),
			amountPromo(t, "FLAT5", 500, now.Add(-day)),
		)
		cat.Stacking = true

		bd, err := pricing.Quote(economySpec(), w, nil, cat, now)
		require.NoError(t, err)

		// 10% off 10000, then 500 off the remainder.
		assert.Equal(t, int64(1500), bd.DiscountCents)
		require.NotNil(t, bd.PromotionCode)
		assert.Equal(t, "TEN+FLAT5", *bd.PromotionCode)
	})

	t.Run("ineligible promotions are skipped", func(t *testing.T) {
		pct := 15.0
		p, err := pricing.NewPromotion(uuid.New(), "LONGTRIP", &pct, nil, 5, 0, nil, nil, nil, now.Add(-day))
		require.NoError(t, err)

		bd, err := pricing.Quote(economySpec(), w, nil, testCatalog(t, p), now)
		require.NoError(t, err)
		assert.Zero(t, bd.DiscountCents)
		assert.Nil(t, bd.PromotionCode)
	})

	t.Run("discount never exceeds the amount", func(t *testing.T) {
		cat := testCatalog(t, amountPromo(t, "HUGE", 999999, now.Add(-day)))
		bd, err := pricing.Quote(economySpec(), w, nil, cat, now)
		require.NoError(t, err)

		assert.Equal(t, int64(10000), bd.DiscountCents)
		assert.Zero(t, bd.TotalCents)
	})
}

func mustWindow(t *testing.T, start, end time.Time) schedule.Window {
	t.Helper()
	w, err := schedule.NewWindow(start, end)
	require.NoError(t, err)
	return w
}
