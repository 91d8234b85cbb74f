// Package calendar turns ICS files into the busy-time and event snapshots the
// engine consumes, and writes accepted suggestions back out as events.
package calendar

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/julianstephens/dayfill/internal/logger"
)

// Source is one calendar file on disk.
type Source struct {
	ID   string
	Path string
}

// Event is a VEVENT reduced to the fields the snapshots need.
type Event struct {
	UID          string
	Summary      string
	Start        time.Time
	End          time.Time
	AllDay       bool
	Transparent  bool
	Cancelled    bool
	RRule        string
	ExDates      []time.Time
	RecurrenceID *time.Time // set on an override of one recurring instance
	TaskID       string     // set on events exported by dayfill
}

// Parse reads every VEVENT of an ICS stream. Events that cannot be parsed
// are logged and skipped.
func Parse(r io.Reader) ([]Event, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	var out []Event
	for _, ve := range cal.Events() {
		ev, err := parseEvent(ve)
		if err != nil {
			logger.Warn("Skipping calendar event", "error", err)
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

// ParseFile parses the ICS file of src.
func ParseFile(src Source) ([]Event, error) {
	f, err := os.Open(src.Path)
	if err != nil {
		return nil, fmt.Errorf("open calendar %s: %w", src.ID, err)
	}
	defer f.Close()

	events, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("calendar %s: %w", src.ID, err)
	}
	logger.Debug("Parsed calendar", "id", src.ID, "path", src.Path, "events", len(events))
	return events, nil
}

func parseEvent(ve *ical.VEvent) (Event, error) {
	var out Event

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uid.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(taskProperty); p != nil {
		out.TaskID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil {
		out.Cancelled = strings.EqualFold(p.Value, "CANCELLED")
	}
	if p := ve.GetProperty(ical.ComponentProperty("TRANSP")); p != nil {
		out.Transparent = strings.EqualFold(p.Value, "TRANSPARENT")
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, fmt.Errorf("event %s: missing DTSTART", out.UID)
	}
	if vs, ok := dtStart.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		out.AllDay = true
	}
	if !strings.Contains(dtStart.Value, "T") {
		out.AllDay = true
	}

	if out.AllDay {
		start, err := parseICSTime(dtStart.Value, time.Local)
		if err != nil {
			return out, fmt.Errorf("event %s: %w", out.UID, err)
		}
		out.Start = start
		out.End = start.AddDate(0, 0, 1)
	} else {
		start, err := ve.GetStartAt()
		if err != nil {
			return out, fmt.Errorf("event %s: start: %w", out.UID, err)
		}
		end, err := ve.GetEndAt()
		if err != nil {
			end = start
		}
		out.Start, out.End = start, end
	}
	if out.End.Before(out.Start) {
		return out, fmt.Errorf("event %s ends before it starts", out.UID)
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RRule = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(part, out.Start.Location()); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}
	if p := ve.GetProperty(ical.ComponentProperty("RECURRENCE-ID")); p != nil {
		if t, err := parseICSTime(p.Value, out.Start.Location()); err == nil {
			out.RecurrenceID = &t
		}
	}

	return out, nil
}

// parseICSTime handles the UTC, floating and date-only forms.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	}
	return time.ParseInLocation("20060102", v, loc)
}

// ParseSources parses every source in order. Any unreadable source fails
// the whole parse.
func ParseSources(sources []Source) ([]Event, error) {
	var all []Event
	for _, src := range sources {
		events, err := ParseFile(src)
		if err != nil {
			return nil, err
		}
		all = append(all, events...)
	}
	return all, nil
}

// Load parses every source and expands the combined events over [from, to).
func Load(sources []Source, from, to time.Time, loc *time.Location) (Snapshot, error) {
	all, err := ParseSources(sources)
	if err != nil {
		return Snapshot{}, err
	}
	return Expand(all, from, to, loc)
}

// Bounds returns the earliest start and latest end of the single,
// non-recurring events whose UID is in uids, wherever they lie in time.
func Bounds(events []Event, uids map[string]bool) (from, to time.Time, ok bool) {
	for _, ev := range events {
		if !uids[ev.UID] || ev.Cancelled || ev.RRule != "" || ev.RecurrenceID != nil {
			continue
		}
		if !ok || ev.Start.Before(from) {
			from = ev.Start
		}
		if !ok || ev.End.After(to) {
			to = ev.End
		}
		ok = true
	}
	return from, to, ok
}
