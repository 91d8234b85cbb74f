package models

import "time"

// SlotPreference controls the order in which free slots are offered to tasks.
type SlotPreference string

const (
	PreferMorningFirst   SlotPreference = "morning_first"
	PreferAfternoonFirst SlotPreference = "afternoon_first"
	PreferSpreadEvenly   SlotPreference = "spread_evenly"
)

// TimeRange is a time-of-day range in HH:MM format.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// EnergyWindow labels a time-of-day range with an energy level.
type EnergyWindow struct {
	Start string      `json:"start"`
	End   string      `json:"end"`
	Level EnergyLevel `json:"level"`
}

// Settings represents the scheduling configuration
type Settings struct {
	WorkingHoursStart    string         `json:"working_hours_start"`       // e.g. "09:00"
	WorkingHoursEnd      string         `json:"working_hours_end"`         // e.g. "17:00"
	WorkingDays          []time.Weekday `json:"working_days"`              // days scans may allocate on
	BufferMin            int            `json:"buffer_min"`                // padding kept next to busy time
	MinimumSlotMin       int            `json:"minimum_slot_min"`          // shortest usable free slot
	DefaultTaskDuration  int            `json:"default_task_duration_min"` // estimate when nothing was learned
	MaxSuggestionsPerDay int            `json:"max_suggestions_per_day"`   // tasks scheduled per day
	MatchEnergyToTasks   bool           `json:"match_energy_to_tasks"`     // prefer slots whose energy matches the task
	PreferredSlotTimes   SlotPreference `json:"preferred_slot_times"`      // slot ordering
	EnergyLevels         []EnergyWindow `json:"energy_levels"`             // non-overlapping energy windows
	FocusTimeBlocks      []TimeRange    `json:"focus_time_blocks"`         // treated as busy every working day
	Timezone             string         `json:"timezone"`                  // IANA timezone name or "Local"
}
