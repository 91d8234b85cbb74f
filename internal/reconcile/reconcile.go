package reconcile

import (
	"fmt"
	"sort"
	"time"

	"github.com/julianstephens/dayfill/internal/logger"
	"github.com/julianstephens/dayfill/internal/models"
)

// Move reports a tracked event that was moved on the calendar.
type Move struct {
	TaskID          string    `json:"task_id"`
	ExternalEventID string    `json:"external_event_id"`
	OldStart        time.Time `json:"old_start"`
	OldEnd          time.Time `json:"old_end"`
	NewStart        time.Time `json:"new_start"`
	NewEnd          time.Time `json:"new_end"`
}

// Conflict reports a tracked event that now overlaps other calendar events.
// Resolving it (reschedule, keep both, cancel) is left to the user.
type Conflict struct {
	TaskID          string    `json:"task_id"`
	ExternalEventID string    `json:"external_event_id"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	OverlappingIDs  []string  `json:"overlapping_ids"`
}

// Failure is a record that could not be evaluated. Other records are unaffected.
type Failure struct {
	TaskID          string `json:"task_id"`
	ExternalEventID string `json:"external_event_id"`
	Err             error  `json:"-"`
}

func (f Failure) Error() string {
	return fmt.Sprintf("task %s (event %s): %v", f.TaskID, f.ExternalEventID, f.Err)
}

// Result is the outcome of one reconciliation pass.
type Result struct {
	Transitions []models.Transition   `json:"transitions"`
	Moves       []Move                `json:"moves"`
	Conflicts   []Conflict            `json:"conflicts"`
	Failures    []Failure             `json:"failures"`
	Updated     []models.TrackedEvent `json:"updated"` // records to persist
}

// Empty reports whether the pass changed nothing.
func (r Result) Empty() bool {
	return len(r.Transitions) == 0 && len(r.Moves) == 0 && len(r.Conflicts) == 0 && len(r.Updated) == 0
}

// Reconcile compares the active records of reg against a fresh calendar
// snapshot. states holds the current state of every tracked task.
//
// A record whose event is gone cancels its task and is deactivated. A moved
// event updates the record and is reported as a Move. An event overlapping
// any other busy snapshot event marks its task conflicted. Transitions are only
// emitted when they change a task's state, so reconciling the same snapshot
// twice emits nothing the second time.
func Reconcile(reg *Registry, states map[string]models.TaskState, snapshot []models.ExternalEvent, now time.Time) Result {
	res := Result{}

	byID := make(map[string][]int, len(snapshot))
	for i, ev := range snapshot {
		byID[ev.ID] = append(byID[ev.ID], i)
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	for _, rec := range reg.sorted(true) {
		live := reg.records[rec.ID]
		state, known := states[rec.TaskID]
		if !known {
			res.fail(rec, ErrUnknownTask)
			continue
		}

		if state.IsTerminal() {
			live.Active = false
			live.UpdatedAt = now
			res.Updated = append(res.Updated, *live)
			logger.Debug("Stopped tracking finished task", "task", rec.TaskID, "state", state)
			continue
		}

		matches := byID[rec.ExternalEventID]
		switch {
		case len(matches) == 0:
			if !models.CanTransition(state, models.StateCancelled) {
				res.fail(rec, fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, state, models.StateCancelled))
				continue
			}
			res.transition(rec.TaskID, state, models.StateCancelled, models.ReasonEventDeleted, now)
			live.Active = false
			live.UpdatedAt = now
			res.Updated = append(res.Updated, *live)
			continue
		case len(matches) > 1:
			res.fail(rec, fmt.Errorf("%w: %d events share id %s", ErrAmbiguousMatch, len(matches), rec.ExternalEventID))
			continue
		}

		idx := matches[0]
		ev := snapshot[idx]
		if !ev.Start.Equal(live.OriginalStart) || !ev.End.Equal(live.OriginalEnd) {
			res.Moves = append(res.Moves, Move{
				TaskID:          rec.TaskID,
				ExternalEventID: rec.ExternalEventID,
				OldStart:        live.OriginalStart,
				OldEnd:          live.OriginalEnd,
				NewStart:        ev.Start,
				NewEnd:          ev.End,
			})
			live.OriginalStart = ev.Start
			live.OriginalEnd = ev.End
			live.UpdatedAt = now
			res.Updated = append(res.Updated, *live)
		}

		overlapping := overlaps(snapshot, idx)
		if len(overlapping) == 0 || state == models.StateConflicted {
			continue
		}
		if !models.CanTransition(state, models.StateConflicted) {
			res.fail(rec, fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, state, models.StateConflicted))
			continue
		}
		res.transition(rec.TaskID, state, models.StateConflicted, models.ReasonEventOverlap, now)
		res.Conflicts = append(res.Conflicts, Conflict{
			TaskID:          rec.TaskID,
			ExternalEventID: rec.ExternalEventID,
			Start:           ev.Start,
			End:             ev.End,
			OverlappingIDs:  overlapping,
		})
	}

	return res
}

func overlaps(snapshot []models.ExternalEvent, idx int) []string {
	target := snapshot[idx]
	if target.Free {
		return nil
	}
	var ids []string
	for i, other := range snapshot {
		if i == idx || other.ID == target.ID || other.Free {
			continue
		}
		if target.Interval().Overlaps(other.Interval()) {
			ids = append(ids, other.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

func (r *Result) transition(taskID string, from, to models.TaskState, reason models.TransitionReason, at time.Time) {
	r.Transitions = append(r.Transitions, models.Transition{
		TaskID: taskID,
		From:   from,
		To:     to,
		Reason: reason,
		At:     at,
	})
}

func (r *Result) fail(rec models.TrackedEvent, err error) {
	logger.Warn("Reconciliation skipped record", "task", rec.TaskID, "event", rec.ExternalEventID, "error", err)
	r.Failures = append(r.Failures, Failure{TaskID: rec.TaskID, ExternalEventID: rec.ExternalEventID, Err: err})
}
