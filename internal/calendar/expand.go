package calendar

import (
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/julianstephens/dayfill/internal/logger"
	"github.com/julianstephens/dayfill/internal/models"
)

const maxOccurrencesPerEvent = 2000

// Snapshot is the calendar state in a time range: busy time for the slot
// finder and identified events for reconciliation.
type Snapshot struct {
	Busy   []models.Interval
	Events []models.ExternalEvent
}

// occurrence is one concrete instance of an event.
type occurrence struct {
	id          string
	title       string
	start, end  time.Time
	allDay      bool
	transparent bool
}

// InstanceID identifies one instance of a recurring event by its UID and
// original start. Single events use their UID alone.
func InstanceID(uid string, originalStart time.Time) string {
	return uid + "@" + originalStart.UTC().Format(time.RFC3339)
}

// Expand resolves recurrences and overrides in [from, to) and builds the
// snapshot in loc. All-day and transparent events are left out of busy time
// and marked Free; cancelled events are left out entirely.
func Expand(events []Event, from, to time.Time, loc *time.Location) (Snapshot, error) {
	if !from.Before(to) {
		return Snapshot{}, fmt.Errorf("expand: empty range %s - %s", from, to)
	}
	if loc == nil {
		loc = time.Local
	}

	bases := make(map[string][]Event)
	overrides := make(map[string][]Event)
	var uids []string
	for _, ev := range events {
		if ev.RecurrenceID != nil {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
			continue
		}
		if _, seen := bases[ev.UID]; !seen {
			uids = append(uids, ev.UID)
		}
		bases[ev.UID] = append(bases[ev.UID], ev)
	}
	sort.Strings(uids)

	var occs []occurrence
	for _, uid := range uids {
		for _, ev := range bases[uid] {
			occs = append(occs, expandEvent(ev, overrides[uid], from, to)...)
		}
	}

	snap := Snapshot{Busy: []models.Interval{}, Events: []models.ExternalEvent{}}
	for _, o := range occs {
		start, end := o.start.In(loc), o.end.In(loc)
		free := o.allDay || o.transparent
		snap.Events = append(snap.Events, models.ExternalEvent{ID: o.id, Title: o.title, Start: start, End: end, Free: free})
		if !free && end.After(start) {
			snap.Busy = append(snap.Busy, models.Interval{Start: start, End: end})
		}
	}
	sort.SliceStable(snap.Busy, func(i, j int) bool { return snap.Busy[i].Start.Before(snap.Busy[j].Start) })
	sort.SliceStable(snap.Events, func(i, j int) bool {
		if !snap.Events[i].Start.Equal(snap.Events[j].Start) {
			return snap.Events[i].Start.Before(snap.Events[j].Start)
		}
		return snap.Events[i].ID < snap.Events[j].ID
	})
	return snap, nil
}

// inRange reports whether [start, end) intersects [from, to). Zero-length
// events count when their instant falls inside the range.
func inRange(start, end, from, to time.Time) bool {
	if start.Equal(end) {
		return !start.Before(from) && start.Before(to)
	}
	return start.Before(to) && end.After(from)
}

func expandEvent(ev Event, overrides []Event, from, to time.Time) []occurrence {
	if ev.Cancelled {
		return nil
	}
	if ev.RRule == "" {
		if !inRange(ev.Start, ev.End, from, to) {
			return nil
		}
		return []occurrence{makeOccurrence(ev, ev.UID, ev.Start, ev.End)}
	}

	rule, err := rrule.StrToRRule(ev.RRule)
	if err != nil {
		logger.Warn("Skipping event with invalid RRULE", "uid", ev.UID, "rrule", ev.RRule, "error", err)
		return nil
	}
	rule.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(rule)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	length := ev.End.Sub(ev.Start)
	// Widen the lower bound so instances already running at from are kept.
	starts := set.Between(from.Add(-length).In(ev.Start.Location()), to.In(ev.Start.Location()), true)
	if len(starts) > maxOccurrencesPerEvent {
		logger.Warn("Truncating recurring event", "uid", ev.UID, "occurrences", len(starts))
		starts = starts[:maxOccurrencesPerEvent]
	}

	var out []occurrence
	for _, s := range starts {
		id := InstanceID(ev.UID, s)
		if o, ok := findOverride(overrides, s); ok {
			if o.Cancelled || !inRange(o.Start, o.End, from, to) {
				continue
			}
			out = append(out, makeOccurrence(o, id, o.Start, o.End))
			continue
		}
		e := s.Add(length)
		if !inRange(s, e, from, to) {
			continue
		}
		out = append(out, makeOccurrence(ev, id, s, e))
	}
	return out
}

func findOverride(overrides []Event, start time.Time) (Event, bool) {
	for _, o := range overrides {
		if o.RecurrenceID.Equal(start) {
			return o, true
		}
	}
	return Event{}, false
}

func makeOccurrence(ev Event, id string, start, end time.Time) occurrence {
	return occurrence{
		id:          id,
		title:       ev.Summary,
		start:       start,
		end:         end,
		allDay:      ev.AllDay,
		transparent: ev.Transparent,
	}
}
