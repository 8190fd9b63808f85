// Package scheduling holds the time-interval arithmetic and the defaulting
// policy shared by procedure creation and conflict checking, so the two paths
// can never disagree on what an unset field means.
package scheduling

import "time"

// Defaults applied when optional procedure fields are absent. Consulted by
// both the lifecycle engine and the availability checker.
const (
	DefaultDurationMinutes = 60
	DefaultProcedureType   = "therapeutic"
	DefaultPriority        = "normal"
	DefaultComplexity      = "medium"
)

// MaxPlausibleDuration bounds how far back the availability checker looks for
// candidate bookings. A procedure starting earlier than this before the
// proposed slot cannot still be running when the slot begins.
const MaxPlausibleDuration = 24 * time.Hour

// DurationOrDefault returns the estimated duration in minutes, applying the
// default when unset.
func DurationOrDefault(minutes *int) int {
	if minutes == nil || *minutes <= 0 {
		return DefaultDurationMinutes
	}
	return *minutes
}

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval builds the half-open interval covered by a booking.
func NewInterval(start time.Time, durationMinutes int) Interval {
	return Interval{
		Start: start,
		End:   start.Add(time.Duration(durationMinutes) * time.Minute),
	}
}

// Overlaps reports whether two half-open intervals intersect. Touching
// endpoints (one booking ending exactly when another starts) do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && i.End.After(other.Start)
}

// MinutesBetween returns the elapsed minutes between two instants, rounded to
// the nearest whole minute. Used to derive the real duration on completion.
func MinutesBetween(start, end time.Time) int {
	return int(end.Sub(start).Round(time.Minute) / time.Minute)
}
