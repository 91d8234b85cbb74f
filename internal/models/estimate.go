package models

import "time"

// DurationEstimate is the learned duration history of one group.
// Samples are ordered oldest first.
type DurationEstimate struct {
	Key       string          `json:"key"`
	Samples   []time.Duration `json:"samples"`
	Average   time.Duration   `json:"average"`
	UpdatedAt time.Time       `json:"updated_at"`
}
