package common

import "time"

// Range - min/max bounds for one environmental parameter
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v falls inside the range (inclusive).
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Timestamp formats t the way the mobile clients expect (ISO 8601).
func Timestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}

// Now returns the current time formatted for storage.
func Now() string {
	return Timestamp(time.Now())
}
