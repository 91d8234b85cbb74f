package constants

const (
	SettingWorkingHoursStart    = "working_hours_start"
	SettingWorkingHoursEnd      = "working_hours_end"
	SettingWorkingDays          = "working_days"
	SettingBufferMin            = "buffer_min"
	SettingMinimumSlotMin       = "minimum_slot_min"
	SettingDefaultTaskDuration  = "default_task_duration_min"
	SettingMaxSuggestionsPerDay = "max_suggestions_per_day"
	SettingMatchEnergyToTasks   = "match_energy_to_tasks"
	SettingPreferredSlotTimes   = "preferred_slot_times"
	SettingEnergyLevels         = "energy_levels"
	SettingFocusTimeBlocks      = "focus_time_blocks"
	SettingTimezone             = "timezone"

	// Default Settings Values
	DefaultWorkingHoursStart    = "09:00"
	DefaultWorkingHoursEnd      = "17:00"
	DefaultBufferMin            = 10
	DefaultMinimumSlotMin       = 15
	DefaultTaskDurationMin      = 30
	DefaultMaxSuggestionsPerDay = 8
	DefaultMatchEnergyToTasks   = true
	DefaultPreferredSlotTimes   = "morning_first"
	DefaultTimezone             = "Local" // Use system local timezone by default
)
