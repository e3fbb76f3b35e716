package schedule

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrEmptyWindow  = errors.New("window start must be before end")
	ErrWindowInPast = errors.New("window starts in the past")
)

// Window is a half-open interval [start, end).
type Window struct {
	start time.Time
	end   time.Time
}

func NewWindow(start, end time.Time) (Window, error) {
	if !start.Before(end) {
		return Window{}, ErrEmptyWindow
	}
	return Window{start: start.UTC(), end: end.UTC()}, nil
}

func (w Window) Start() time.Time { return w.start }
func (w Window) End() time.Time   { return w.end }

func (w Window) Duration() time.Duration {
	return w.end.Sub(w.start)
}

// Days is the billable day count. Partial days round up.
func (w Window) Days() int {
	d := w.Duration()
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// Overlaps reports whether two half-open intervals intersect:
// startA < endB && startB < endA.
func (w Window) Overlaps(other Window) bool {
	return w.start.Before(other.end) && other.start.Before(w.end)
}

func (w Window) IsZero() bool {
	return w.start.IsZero() && w.end.IsZero()
}

// ValidateNotPast rejects windows starting earlier than now minus grace.
func (w Window) ValidateNotPast(now time.Time, grace time.Duration) error {
	if w.start.Before(now.Add(-grace)) {
		return ErrWindowInPast
	}
	return nil
}

// LeadTime is the span between now and the window start. Negative once the
// window has begun.
func (w Window) LeadTime(now time.Time) time.Duration {
	return w.start.Sub(now)
}

// ToTstzrange renders the window in PostgreSQL range syntax.
func (w Window) ToTstzrange() string {
	return fmt.Sprintf("[%s,%s)", w.start.Format(time.RFC3339Nano), w.end.Format(time.RFC3339Nano))
}
