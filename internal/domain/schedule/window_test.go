//go:build unit

package schedule_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetbook/internal/domain/schedule"
)

func mustWindow(t *testing.T, start, end time.Time) schedule.Window {
	t.Helper()
	w, err := schedule.NewWindow(start, end)
	require.NoError(t, err)
	return w
}

func TestNewWindow(t *testing.T) {
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	t.Run("valid window", func(t *testing.T) {
		w, err := schedule.NewWindow(base, base.Add(24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, base, w.Start())
		assert.Equal(t, base.Add(24*time.Hour), w.End())
	})

	t.Run("start equal to end", func(t *testing.T) {
		_, err := schedule.NewWindow(base, base)
		assert.ErrorIs(t, err, schedule.ErrEmptyWindow)
	})

	t.Run("start after end", func(t *testing.T) {
		_, err := schedule.NewWindow(base.Add(time.Hour), base)
		assert.ErrorIs(t, err, schedule.ErrEmptyWindow)
	})

	t.Run("normalizes to UTC", func(t *testing.T) {
		loc := time.FixedZone("JST", 9*60*60)
		w, err := schedule.NewWindow(base.In(loc), base.Add(time.Hour).In(loc))
		require.NoError(t, err)
		assert.Equal(t, time.UTC, w.Start().Location())
		assert.True(t, w.Start().Equal(base))
	})
}

func TestWindowDays(t *testing.T) {
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		dur  time.Duration
		want int
	}{
		{name: "exactly one day", dur: 24 * time.Hour, want: 1},
		{name: "exactly three days", dur: 72 * time.Hour, want: 3},
		{name: "partial day rounds up", dur: 25 * time.Hour, want: 2},
		{name: "one hour counts as a day", dur: time.Hour, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := mustWindow(t, base, base.Add(tt.dur))
			assert.Equal(t, tt.want, w.Days())
		})
	}
}

func TestWindowOverlaps(t *testing.T) {
	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	a := mustWindow(t, base, base.Add(2*day))

	tests := []struct {
		name  string
		other schedule.Window
		want  bool
	}{
		{name: "identical", other: mustWindow(t, base, base.Add(2*day)), want: true},
		{name: "contained", other: mustWindow(t, base.Add(day/2), base.Add(day)), want: true},
		{name: "partial overlap at end", other: mustWindow(t, base.Add(day), base.Add(3*day)), want: true},
		{name: "adjacent after does not overlap", other: mustWindow(t, base.Add(2*day), base.Add(3*day)), want: false},
		{name: "adjacent before does not overlap", other: mustWindow(t, base.Add(-day), base), want: false},
		{name: "disjoint", other: mustWindow(t, base.Add(5*day), base.Add(6*day)), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(a))
		})
	}
}

func TestWindowValidateNotPast(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	grace := 5 * time.Minute

	t.Run("future start passes", func(t *testing.T) {
		w := mustWindow(t, now.Add(time.Hour), now.Add(25*time.Hour))
		assert.NoError(t, w.ValidateNotPast(now, grace))
	})

	t.Run("start within grace passes", func(t *testing.T) {
		w := mustWindow(t, now.Add(-4*time.Minute), now.Add(time.Hour))
		assert.NoError(t, w.ValidateNotPast(now, grace))
	})

	t.Run("start beyond grace fails", func(t *testing.T) {
		w := mustWindow(t, now.Add(-6*time.Minute), now.Add(time.Hour))
		assert.ErrorIs(t, w.ValidateNotPast(now, grace), schedule.ErrWindowInPast)
	})
}
