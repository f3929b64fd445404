// Package interval provides the half-open time range used for reservation
// scheduling. An interval includes its start instant and excludes its end,
// so back-to-back reservations on the same lab do not collide.
package interval

import "time"

type Interval struct {
	Start time.Time `json:"start" bson:"start"`
	End   time.Time `json:"end" bson:"end"`
}

// IsValid reports whether the interval is well-formed. Zero-length and
// inverted intervals are invalid.
func (iv Interval) IsValid() bool {
	return iv.End.After(iv.Start)
}

// Overlaps reports whether two intervals share any instant. Touching
// endpoints (iv.End == other.Start) do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}
