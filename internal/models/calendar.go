package models

import "time"

// Interval is an occupied span of absolute local time.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether the two half-open intervals share any time.
// Touching intervals do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// FreeSlot is a contiguous span with no busy time, labeled with at most one energy level.
type FreeSlot struct {
	Start  time.Time   `json:"start"`
	End    time.Time   `json:"end"`
	Energy EnergyLevel `json:"energy,omitempty"`
}

func (s FreeSlot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// ExternalEvent is one event of a calendar snapshot used for reconciliation.
type ExternalEvent struct {
	ID    string    `json:"id"`
	Title string    `json:"title,omitempty"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	// Free marks all-day and transparent events. They never block time and
	// never conflict with tracked events.
	Free bool `json:"free,omitempty"`
}

func (e ExternalEvent) Interval() Interval {
	return Interval{Start: e.Start, End: e.End}
}

// TrackedEvent links a task to the calendar event that materialized its suggestion.
type TrackedEvent struct {
	ID              string    `json:"id"`
	TaskID          string    `json:"task_id"`
	ExternalEventID string    `json:"external_event_id"`
	OriginalStart   time.Time `json:"original_start"`
	OriginalEnd     time.Time `json:"original_end"`
	Active          bool      `json:"active"`
	UpdatedAt       time.Time `json:"updated_at"`
}
