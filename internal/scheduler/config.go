package scheduler

import (
	"fmt"
	"sort"
	"time"

	"github.com/julianstephens/dayfill/internal/models"
	"github.com/julianstephens/dayfill/internal/utils"
)

// clockRange is a time-of-day range expressed as offsets from midnight.
type clockRange struct {
	Start time.Duration
	End   time.Duration
	Level models.EnergyLevel
}

// Config is the typed form of the persisted scheduling settings. All
// components receive it explicitly; none of them read settings on their own.
type Config struct {
	WorkStart       time.Duration
	WorkEnd         time.Duration
	WorkingDays     map[time.Weekday]bool
	Buffer          time.Duration
	MinimumSlot     time.Duration
	DefaultDuration time.Duration
	MaxSuggestions  int
	MatchEnergy     bool
	Preference      models.SlotPreference
	Location        *time.Location

	energy []clockRange
	focus  []clockRange
}

// ConfigFromSettings validates settings and converts them to a Config.
func ConfigFromSettings(s models.Settings) (Config, error) {
	models.ApplyDefaultSettings(&s)

	var cfg Config
	var err error
	if cfg.WorkStart, err = utils.ParseClock(s.WorkingHoursStart); err != nil {
		return Config{}, fmt.Errorf("working hours start: %w", err)
	}
	if cfg.WorkEnd, err = utils.ParseClock(s.WorkingHoursEnd); err != nil {
		return Config{}, fmt.Errorf("working hours end: %w", err)
	}
	if cfg.WorkEnd <= cfg.WorkStart {
		return Config{}, fmt.Errorf("working hours end %s must be after start %s", s.WorkingHoursEnd, s.WorkingHoursStart)
	}

	cfg.WorkingDays = make(map[time.Weekday]bool, len(s.WorkingDays))
	for _, d := range s.WorkingDays {
		cfg.WorkingDays[d] = true
	}

	if s.BufferMin < 0 {
		return Config{}, fmt.Errorf("buffer_min must not be negative, got %d", s.BufferMin)
	}
	if s.MinimumSlotMin < 0 {
		return Config{}, fmt.Errorf("minimum_slot_min must not be negative, got %d", s.MinimumSlotMin)
	}
	if s.DefaultTaskDuration <= 0 {
		return Config{}, fmt.Errorf("default_task_duration_min must be positive, got %d", s.DefaultTaskDuration)
	}
	if s.MaxSuggestionsPerDay <= 0 {
		return Config{}, fmt.Errorf("max_suggestions_per_day must be positive, got %d", s.MaxSuggestionsPerDay)
	}
	cfg.Buffer = time.Duration(s.BufferMin) * time.Minute
	cfg.MinimumSlot = time.Duration(s.MinimumSlotMin) * time.Minute
	cfg.DefaultDuration = time.Duration(s.DefaultTaskDuration) * time.Minute
	cfg.MaxSuggestions = s.MaxSuggestionsPerDay
	cfg.MatchEnergy = s.MatchEnergyToTasks

	switch s.PreferredSlotTimes {
	case models.PreferMorningFirst, models.PreferAfternoonFirst, models.PreferSpreadEvenly:
		cfg.Preference = s.PreferredSlotTimes
	default:
		return Config{}, fmt.Errorf("invalid preferred_slot_times %q", s.PreferredSlotTimes)
	}

	if cfg.Location, err = utils.LoadLocation(s.Timezone); err != nil {
		return Config{}, fmt.Errorf("invalid timezone %q: %w", s.Timezone, err)
	}

	if cfg.energy, err = parseEnergyWindows(s.EnergyLevels); err != nil {
		return Config{}, err
	}
	for _, r := range s.FocusTimeBlocks {
		cr, err := parseRange(r.Start, r.End)
		if err != nil {
			return Config{}, fmt.Errorf("focus block: %w", err)
		}
		cfg.focus = append(cfg.focus, cr)
	}

	return cfg, nil
}

func parseRange(start, end string) (clockRange, error) {
	s, err := utils.ParseClock(start)
	if err != nil {
		return clockRange{}, err
	}
	e, err := utils.ParseClock(end)
	if err != nil {
		return clockRange{}, err
	}
	if e <= s {
		return clockRange{}, fmt.Errorf("range %s-%s ends before it starts", start, end)
	}
	return clockRange{Start: s, End: e}, nil
}

// ValidateEnergyWindows checks that every window parses, carries a level,
// and that no two windows overlap.
func ValidateEnergyWindows(windows []models.EnergyWindow) error {
	_, err := parseEnergyWindows(windows)
	return err
}

func parseEnergyWindows(windows []models.EnergyWindow) ([]clockRange, error) {
	out := make([]clockRange, 0, len(windows))
	for _, w := range windows {
		cr, err := parseRange(w.Start, w.End)
		if err != nil {
			return nil, fmt.Errorf("energy window: %w", err)
		}
		if w.Level == models.EnergyNone {
			return nil, fmt.Errorf("energy window %s-%s has no level", w.Start, w.End)
		}
		if _, err := models.ParseEnergyLevel(string(w.Level)); err != nil {
			return nil, fmt.Errorf("energy window %s-%s: %w", w.Start, w.End, err)
		}
		cr.Level = w.Level
		out = append(out, cr)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	for i := 1; i < len(out); i++ {
		if out[i].Start < out[i-1].End {
			return nil, fmt.Errorf("energy windows %s-%s and %s-%s overlap",
				utils.FormatClock(out[i-1].Start), utils.FormatClock(out[i-1].End),
				utils.FormatClock(out[i].Start), utils.FormatClock(out[i].End))
		}
	}
	return out, nil
}

// IsWorkingDay reports whether scans may allocate time on the day.
func (c Config) IsWorkingDay(day time.Time) bool {
	return c.WorkingDays[day.In(c.Zone()).Weekday()]
}

// Zone returns the configured location, defaulting to the local zone.
func (c Config) Zone() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// WorkingWindow returns the allocatable window of day. The start is clamped
// to now when now falls inside the window. ok is false on a non-working day
// or when now is already past the end of the window.
func (c Config) WorkingWindow(day, now time.Time) (start, end time.Time, ok bool) {
	day = utils.StartOfDay(day.In(c.Zone()))
	if !c.WorkingDays[day.Weekday()] {
		return time.Time{}, time.Time{}, false
	}
	start = utils.AtOffset(day, c.WorkStart)
	end = utils.AtOffset(day, c.WorkEnd)
	if !now.IsZero() && now.After(start) {
		start = now.In(c.Zone())
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// DayRequest builds the SlotFinder input for day from the busy snapshot.
// Focus and energy windows are projected onto the day's calendar date.
func (c Config) DayRequest(day time.Time, busy []models.Interval, now time.Time) (SlotRequest, bool) {
	start, end, ok := c.WorkingWindow(day, now)
	if !ok {
		return SlotRequest{}, false
	}
	date := utils.StartOfDay(day.In(c.Zone()))

	req := SlotRequest{
		WindowStart: start,
		WindowEnd:   end,
		Busy:        busy,
		Buffer:      c.Buffer,
		MinimumSlot: c.MinimumSlot,
	}
	for _, f := range c.focus {
		req.Focus = append(req.Focus, models.Interval{
			Start: utils.AtOffset(date, f.Start),
			End:   utils.AtOffset(date, f.End),
		})
	}
	for _, e := range c.energy {
		req.Energy = append(req.Energy, EnergyBlock{
			Start: utils.AtOffset(date, e.Start),
			End:   utils.AtOffset(date, e.End),
			Level: e.Level,
		})
	}
	return req, true
}

// MatchOptions returns the SlotMatcher settings carried by the config.
func (c Config) MatchOptions() Options {
	return Options{
		MatchEnergy:     c.MatchEnergy,
		Preference:      c.Preference,
		MaxSuggestions:  c.MaxSuggestions,
		MinimumSlot:     c.MinimumSlot,
		DefaultDuration: c.DefaultDuration,
	}
}
