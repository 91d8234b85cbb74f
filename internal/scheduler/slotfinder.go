package scheduler

import (
	"sort"
	"time"

	"github.com/julianstephens/dayfill/internal/models"
)

// EnergyBlock is an energy window projected onto a calendar day.
type EnergyBlock struct {
	Start time.Time
	End   time.Time
	Level models.EnergyLevel
}

// SlotRequest is the input of one SlotFinder pass.
type SlotRequest struct {
	WindowStart time.Time
	WindowEnd   time.Time
	Busy        []models.Interval
	Focus       []models.Interval // treated as busy
	Buffer      time.Duration
	MinimumSlot time.Duration
	Energy      []EnergyBlock // must not overlap
}

// gap is a raw free span plus the nearest busy edges around it, which may lie
// outside the working window.
type gap struct {
	start     time.Time
	end       time.Time
	prevEnd   time.Time
	nextStart time.Time
	hasPrev   bool
	hasNext   bool
}

// FindSlots returns the free, energy-labeled slots of the working window,
// sorted by start. Slots never overlap each other or any buffered busy time,
// and each is at least MinimumSlot long.
func FindSlots(req SlotRequest) []models.FreeSlot {
	slots := []models.FreeSlot{}
	if !req.WindowStart.Before(req.WindowEnd) {
		return slots
	}

	busy := mergeIntervals(req.Busy, req.Focus)
	energy := make([]EnergyBlock, len(req.Energy))
	copy(energy, req.Energy)
	sort.SliceStable(energy, func(i, j int) bool { return energy[i].Start.Before(energy[j].Start) })

	for _, g := range complement(busy, req.WindowStart, req.WindowEnd) {
		start, end := g.start, g.end
		if g.hasPrev {
			if padded := g.prevEnd.Add(req.Buffer); padded.After(start) {
				start = padded
			}
		}
		if g.hasNext {
			if padded := g.nextStart.Add(-req.Buffer); padded.Before(end) {
				end = padded
			}
		}
		if !start.Before(end) || end.Sub(start) < req.MinimumSlot {
			continue
		}
		for _, s := range splitByEnergy(start, end, energy) {
			if s.Duration() > 0 && s.Duration() >= req.MinimumSlot {
				slots = append(slots, s)
			}
		}
	}
	return slots
}

// mergeIntervals collapses overlapping or touching intervals into a minimal sorted set.
func mergeIntervals(sets ...[]models.Interval) []models.Interval {
	var all []models.Interval
	for _, set := range sets {
		for _, iv := range set {
			if iv.End.After(iv.Start) {
				all = append(all, iv)
			}
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Start.Before(all[j].Start) })

	var merged []models.Interval
	for _, iv := range all {
		if n := len(merged); n > 0 && !iv.Start.After(merged[n-1].End) {
			if iv.End.After(merged[n-1].End) {
				merged[n-1].End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// complement returns the gaps of the window not covered by busy. Busy must be
// merged and sorted. Busy time just outside the window still bounds the
// first and last gap so their buffer is kept.
func complement(busy []models.Interval, ws, we time.Time) []gap {
	var gaps []gap
	cursor := ws
	var prev time.Time
	hasPrev := false
	for _, iv := range busy {
		if !iv.End.After(cursor) {
			prev, hasPrev = iv.End, true
			continue
		}
		if !iv.Start.Before(we) {
			return append(gaps, gap{start: cursor, end: we, prevEnd: prev, hasPrev: hasPrev, nextStart: iv.Start, hasNext: true})
		}
		if iv.Start.After(cursor) {
			gaps = append(gaps, gap{start: cursor, end: iv.Start, prevEnd: prev, hasPrev: hasPrev, nextStart: iv.Start, hasNext: true})
		}
		cursor = iv.End
		prev, hasPrev = iv.End, true
		if !cursor.Before(we) {
			return gaps
		}
	}
	return append(gaps, gap{start: cursor, end: we, prevEnd: prev, hasPrev: hasPrev})
}

func splitByEnergy(start, end time.Time, energy []EnergyBlock) []models.FreeSlot {
	var out []models.FreeSlot
	pos := start
	for _, b := range energy {
		if !b.End.After(pos) || !b.Start.Before(end) {
			continue
		}
		if b.Start.After(pos) {
			out = append(out, models.FreeSlot{Start: pos, End: b.Start})
			pos = b.Start
		}
		stop := b.End
		if stop.After(end) {
			stop = end
		}
		out = append(out, models.FreeSlot{Start: pos, End: stop, Energy: b.Level})
		pos = stop
	}
	if pos.Before(end) {
		out = append(out, models.FreeSlot{Start: pos, End: end})
	}
	return out
}

// TotalFree sums the durations of slots.
func TotalFree(slots []models.FreeSlot) time.Duration {
	var total time.Duration
	for _, s := range slots {
		total += s.Duration()
	}
	return total
}
