package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/julianstephens/dayfill/internal/constants"
)

// DefaultSettings returns a fully populated Settings value.
func DefaultSettings() Settings {
	return Settings{
		WorkingHoursStart:    constants.DefaultWorkingHoursStart,
		WorkingHoursEnd:      constants.DefaultWorkingHoursEnd,
		WorkingDays:          []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		BufferMin:            constants.DefaultBufferMin,
		MinimumSlotMin:       constants.DefaultMinimumSlotMin,
		DefaultTaskDuration:  constants.DefaultTaskDurationMin,
		MaxSuggestionsPerDay: constants.DefaultMaxSuggestionsPerDay,
		MatchEnergyToTasks:   constants.DefaultMatchEnergyToTasks,
		PreferredSlotTimes:   constants.DefaultPreferredSlotTimes,
		Timezone:             constants.DefaultTimezone,
	}
}

// MapToSettings converts a map of key-value pairs to a Settings struct.
func MapToSettings(data map[string]string) (Settings, error) {
	settings := Settings{}

	for key, value := range data {
		switch key {
		case constants.SettingWorkingHoursStart:
			settings.WorkingHoursStart = value
		case constants.SettingWorkingHoursEnd:
			settings.WorkingHoursEnd = value
		case constants.SettingWorkingDays:
			var days []int
			if err := json.Unmarshal([]byte(value), &days); err != nil {
				return Settings{}, fmt.Errorf("parsing working_days: %w", err)
			}
			for _, d := range days {
				if d < 0 || d > 6 {
					return Settings{}, fmt.Errorf("parsing working_days: weekday %d out of range", d)
				}
				settings.WorkingDays = append(settings.WorkingDays, time.Weekday(d))
			}
		case constants.SettingBufferMin:
			if _, err := fmt.Sscanf(value, "%d", &settings.BufferMin); err != nil {
				return Settings{}, fmt.Errorf("parsing buffer_min: %w", err)
			}
		case constants.SettingMinimumSlotMin:
			if _, err := fmt.Sscanf(value, "%d", &settings.MinimumSlotMin); err != nil {
				return Settings{}, fmt.Errorf("parsing minimum_slot_min: %w", err)
			}
		case constants.SettingDefaultTaskDuration:
			if _, err := fmt.Sscanf(value, "%d", &settings.DefaultTaskDuration); err != nil {
				return Settings{}, fmt.Errorf("parsing default_task_duration_min: %w", err)
			}
		case constants.SettingMaxSuggestionsPerDay:
			if _, err := fmt.Sscanf(value, "%d", &settings.MaxSuggestionsPerDay); err != nil {
				return Settings{}, fmt.Errorf("parsing max_suggestions_per_day: %w", err)
			}
		case constants.SettingMatchEnergyToTasks:
			settings.MatchEnergyToTasks = value == "true"
		case constants.SettingPreferredSlotTimes:
			settings.PreferredSlotTimes = SlotPreference(value)
		case constants.SettingEnergyLevels:
			if err := json.Unmarshal([]byte(value), &settings.EnergyLevels); err != nil {
				return Settings{}, fmt.Errorf("parsing energy_levels: %w", err)
			}
		case constants.SettingFocusTimeBlocks:
			if err := json.Unmarshal([]byte(value), &settings.FocusTimeBlocks); err != nil {
				return Settings{}, fmt.Errorf("parsing focus_time_blocks: %w", err)
			}
		case constants.SettingTimezone:
			settings.Timezone = value
		}
	}
	return settings, nil
}

// SettingsToMap converts a Settings struct to a map of key-value pairs.
func SettingsToMap(settings Settings) (map[string]string, error) {
	days := make([]int, 0, len(settings.WorkingDays))
	for _, d := range settings.WorkingDays {
		days = append(days, int(d))
	}
	daysJSON, err := json.Marshal(days)
	if err != nil {
		return nil, err
	}
	energy := settings.EnergyLevels
	if energy == nil {
		energy = []EnergyWindow{}
	}
	energyJSON, err := json.Marshal(energy)
	if err != nil {
		return nil, err
	}
	focus := settings.FocusTimeBlocks
	if focus == nil {
		focus = []TimeRange{}
	}
	focusJSON, err := json.Marshal(focus)
	if err != nil {
		return nil, err
	}

	return map[string]string{
		constants.SettingWorkingHoursStart:    settings.WorkingHoursStart,
		constants.SettingWorkingHoursEnd:      settings.WorkingHoursEnd,
		constants.SettingWorkingDays:          string(daysJSON),
		constants.SettingBufferMin:            fmt.Sprintf("%d", settings.BufferMin),
		constants.SettingMinimumSlotMin:       fmt.Sprintf("%d", settings.MinimumSlotMin),
		constants.SettingDefaultTaskDuration:  fmt.Sprintf("%d", settings.DefaultTaskDuration),
		constants.SettingMaxSuggestionsPerDay: fmt.Sprintf("%d", settings.MaxSuggestionsPerDay),
		constants.SettingMatchEnergyToTasks:   fmt.Sprintf("%v", settings.MatchEnergyToTasks),
		constants.SettingPreferredSlotTimes:   string(settings.PreferredSlotTimes),
		constants.SettingEnergyLevels:         string(energyJSON),
		constants.SettingFocusTimeBlocks:      string(focusJSON),
		constants.SettingTimezone:             settings.Timezone,
	}, nil
}

// ApplyDefaultSettings applies default values to missing settings.
// Booleans cannot be told apart from an explicit false and are left alone.
func ApplyDefaultSettings(settings *Settings) {
	defaults := DefaultSettings()
	if settings.WorkingHoursStart == "" {
		settings.WorkingHoursStart = defaults.WorkingHoursStart
	}
	if settings.WorkingHoursEnd == "" {
		settings.WorkingHoursEnd = defaults.WorkingHoursEnd
	}
	if settings.WorkingDays == nil {
		settings.WorkingDays = defaults.WorkingDays
	}
	if settings.MinimumSlotMin == 0 {
		settings.MinimumSlotMin = defaults.MinimumSlotMin
	}
	if settings.DefaultTaskDuration == 0 {
		settings.DefaultTaskDuration = defaults.DefaultTaskDuration
	}
	if settings.MaxSuggestionsPerDay == 0 {
		settings.MaxSuggestionsPerDay = defaults.MaxSuggestionsPerDay
	}
	if settings.PreferredSlotTimes == "" {
		settings.PreferredSlotTimes = defaults.PreferredSlotTimes
	}
	if settings.Timezone == "" {
		settings.Timezone = defaults.Timezone
	}
}
