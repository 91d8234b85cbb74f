package models

import (
	"sort"
	"time"
)

// EnergySource explains how a suggestion's slot relates to the task's energy requirement.
type EnergySource string

const (
	EnergySourceMatched  EnergySource = "matched"  // slot label equals the requirement
	EnergySourceFallback EnergySource = "fallback" // no matching slot, any slot used
	EnergySourceAny      EnergySource = "any"      // energy matching disabled
)

// DurationSource records which estimation tier produced a duration.
type DurationSource string

const (
	DurationSourceHint    DurationSource = "hint"
	DurationSourceKeyword DurationSource = "keyword"
	DurationSourceList    DurationSource = "list"
	DurationSourceDefault DurationSource = "default"
)

// Suggestion is a proposed allocation. BlockIndex is zero for an unsplit task;
// split tasks number their blocks from 1 to TotalBlocks.
type Suggestion struct {
	TaskID         string         `json:"task_id"`
	Start          time.Time      `json:"start"`
	End            time.Time      `json:"end"`
	BlockIndex     int            `json:"block_index,omitempty"`
	TotalBlocks    int            `json:"total_blocks,omitempty"`
	EnergySource   EnergySource   `json:"energy_source"`
	DurationSource DurationSource `json:"duration_source"`
}

func (s Suggestion) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// IsSplit reports whether the suggestion is one block of a split task.
func (s Suggestion) IsSplit() bool {
	return s.BlockIndex > 0
}

type ResidualReason string

const (
	ResidualDailyLimit ResidualReason = "daily_limit"
	ResidualNoCapacity ResidualReason = "no_capacity"
	ResidualPartial    ResidualReason = "partial"
)

// Residual reports a task that got no allocation, or only part of one.
// CarryOver is the time still to be placed on a later day.
type Residual struct {
	TaskID    string         `json:"task_id"`
	Estimated time.Duration  `json:"estimated"`
	CarryOver time.Duration  `json:"carry_over"`
	Reason    ResidualReason `json:"reason"`
}

// DayPlan is the outcome of a single-day scan.
type DayPlan struct {
	Date        string       `json:"date"` // YYYY-MM-DD format
	Suggestions []Suggestion `json:"suggestions"`
	Residual    []Residual   `json:"residual"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// Chronological returns the suggestions ordered by start time.
func (p DayPlan) Chronological() []Suggestion {
	out := make([]Suggestion, len(p.Suggestions))
	copy(out, p.Suggestions)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

// SuggestionsFor returns the blocks allocated to a task in emission order.
func (p DayPlan) SuggestionsFor(taskID string) []Suggestion {
	var out []Suggestion
	for _, s := range p.Suggestions {
		if s.TaskID == taskID {
			out = append(out, s)
		}
	}
	return out
}

// Assignment places a task on a day of a weekly plan.
type Assignment struct {
	TaskID         string         `json:"task_id"`
	Duration       time.Duration  `json:"duration"`
	DurationSource DurationSource `json:"duration_source"`
	Pinned         bool           `json:"pinned"` // placed because of its due date
	CarryOver      time.Duration  `json:"carry_over,omitempty"`
}

// DayAssignment is one day of a weekly plan.
type DayAssignment struct {
	Date          string        `json:"date"`
	Capacity      time.Duration `json:"capacity"`
	Used          time.Duration `json:"used"`
	Assignments   []Assignment  `json:"assignments"`
	OverCommitted bool          `json:"over_committed"`
}

// WeeklyPlan spreads tasks over a week of daily capacity.
type WeeklyPlan struct {
	Start      string          `json:"start"`
	Days       []DayAssignment `json:"days"`
	Unassigned []Residual      `json:"unassigned"`
}
