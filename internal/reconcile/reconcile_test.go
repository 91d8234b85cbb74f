package reconcile

import (
	"errors"
	"testing"
	"time"

	"github.com/julianstephens/dayfill/internal/models"
)

var now = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func clock(hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, time.UTC)
}

func tracked(id, taskID, extID string, start, end time.Time) models.TrackedEvent {
	return models.TrackedEvent{ID: id, TaskID: taskID, ExternalEventID: extID, OriginalStart: start, OriginalEnd: end, Active: true}
}

func newRegistry(t *testing.T, events ...models.TrackedEvent) *Registry {
	t.Helper()
	reg := NewRegistry()
	for _, ev := range events {
		if err := reg.Track(ev); err != nil {
			t.Fatalf("Track(%s) failed: %v", ev.ID, err)
		}
	}
	return reg
}

// apply plays transitions onto states the way the engine persists them.
func apply(states map[string]models.TaskState, res Result) {
	for _, tr := range res.Transitions {
		states[tr.TaskID] = tr.To
	}
}

func TestReconcile_DeletedEventCancelsOnce(t *testing.T) {
	reg := newRegistry(t, tracked("r1", "task-1", "evt-1", clock(9, 0), clock(10, 0)))
	states := map[string]models.TaskState{"task-1": models.StateApproved}

	res := Reconcile(reg, states, nil, now)
	if len(res.Transitions) != 1 {
		t.Fatalf("expected one transition, got %+v", res.Transitions)
	}
	tr := res.Transitions[0]
	if tr.From != models.StateApproved || tr.To != models.StateCancelled || tr.Reason != models.ReasonEventDeleted {
		t.Errorf("transition = %+v", tr)
	}
	if len(reg.Active()) != 0 {
		t.Error("record should be inactive after cancellation")
	}
	if len(res.Updated) != 1 || res.Updated[0].Active {
		t.Errorf("updated = %+v", res.Updated)
	}
	apply(states, res)

	again := Reconcile(reg, states, nil, now.Add(time.Minute))
	if !again.Empty() || len(again.Failures) != 0 {
		t.Errorf("second pass should be a no-op, got %+v", again)
	}
	if states["task-1"] != models.StateCancelled {
		t.Errorf("state = %s, want cancelled", states["task-1"])
	}
}

func TestReconcile_MovedEventUpdatesOriginal(t *testing.T) {
	reg := newRegistry(t, tracked("r1", "task-1", "evt-1", clock(9, 0), clock(10, 0)))
	states := map[string]models.TaskState{"task-1": models.StateInProgress}
	snapshot := []models.ExternalEvent{{ID: "evt-1", Start: clock(14, 0), End: clock(15, 0)}}

	res := Reconcile(reg, states, snapshot, now)
	if len(res.Transitions) != 0 {
		t.Errorf("a move alone should not transition, got %+v", res.Transitions)
	}
	if len(res.Moves) != 1 {
		t.Fatalf("expected one move, got %+v", res.Moves)
	}
	mv := res.Moves[0]
	if !mv.OldStart.Equal(clock(9, 0)) || !mv.NewStart.Equal(clock(14, 0)) || !mv.NewEnd.Equal(clock(15, 0)) {
		t.Errorf("move = %+v", mv)
	}

	rec, ok := reg.ForTask("task-1")
	if !ok || !rec.OriginalStart.Equal(clock(14, 0)) {
		t.Errorf("record not updated: %+v", rec)
	}

	if again := Reconcile(reg, states, snapshot, now); !again.Empty() {
		t.Errorf("second pass should be a no-op, got %+v", again)
	}
}

func TestReconcile_OverlapMarksConflicted(t *testing.T) {
	reg := newRegistry(t,
		tracked("r1", "task-1", "evt-1", clock(9, 0), clock(10, 0)),
		tracked("r2", "task-2", "evt-2", clock(10, 0), clock(11, 0)),
	)
	states := map[string]models.TaskState{
		"task-1": models.StateApproved,
		"task-2": models.StateApproved,
	}
	snapshot := []models.ExternalEvent{
		{ID: "evt-1", Start: clock(9, 0), End: clock(10, 0)},
		{ID: "evt-2", Start: clock(10, 0), End: clock(11, 0)}, // touches evt-1 only
		{ID: "meeting", Start: clock(9, 30), End: clock(9, 45)},
	}

	res := Reconcile(reg, states, snapshot, now)
	if len(res.Transitions) != 1 || res.Transitions[0].TaskID != "task-1" || res.Transitions[0].To != models.StateConflicted {
		t.Fatalf("transitions = %+v", res.Transitions)
	}
	if len(res.Conflicts) != 1 {
		t.Fatalf("conflicts = %+v", res.Conflicts)
	}
	if ids := res.Conflicts[0].OverlappingIDs; len(ids) != 1 || ids[0] != "meeting" {
		t.Errorf("overlapping = %v", ids)
	}
	apply(states, res)

	again := Reconcile(reg, states, snapshot, now)
	if !again.Empty() {
		t.Errorf("second pass should be a no-op, got %+v", again)
	}
}

func TestReconcile_FreeEventsNeverConflict(t *testing.T) {
	reg := newRegistry(t, tracked("r1", "task-1", "evt-1", clock(9, 0), clock(10, 0)))
	states := map[string]models.TaskState{"task-1": models.StateApproved}
	snapshot := []models.ExternalEvent{
		{ID: "holiday", Start: clock(0, 0), End: clock(0, 0).AddDate(0, 0, 1), Free: true},
		{ID: "evt-1", Start: clock(9, 0), End: clock(10, 0)},
		{ID: "focus-hint", Start: clock(9, 15), End: clock(9, 45), Free: true},
	}

	res := Reconcile(reg, states, snapshot, now)
	if !res.Empty() {
		t.Fatalf("free events should not conflict, got %+v", res)
	}

	// A free event is still matched by id when it is the tracked one.
	reg = newRegistry(t, tracked("r2", "task-2", "holiday", clock(0, 0), clock(0, 0).AddDate(0, 0, 1)))
	states = map[string]models.TaskState{"task-2": models.StateApproved}
	if res := Reconcile(reg, states, snapshot, now); !res.Empty() {
		t.Errorf("tracked free event = %+v", res)
	}
}

func TestReconcile_MoveIntoOverlap(t *testing.T) {
	reg := newRegistry(t, tracked("r1", "task-1", "evt-1", clock(9, 0), clock(10, 0)))
	states := map[string]models.TaskState{"task-1": models.StateAwaitingReview}
	snapshot := []models.ExternalEvent{
		{ID: "evt-1", Start: clock(13, 0), End: clock(14, 0)},
		{ID: "lunch", Start: clock(12, 30), End: clock(13, 30)},
	}

	res := Reconcile(reg, states, snapshot, now)
	if len(res.Moves) != 1 || len(res.Conflicts) != 1 {
		t.Fatalf("moves=%+v conflicts=%+v", res.Moves, res.Conflicts)
	}
	if !res.Conflicts[0].Start.Equal(clock(13, 0)) {
		t.Errorf("conflict should use the moved time, got %v", res.Conflicts[0].Start)
	}
}

func TestReconcile_FailuresAreIsolated(t *testing.T) {
	reg := newRegistry(t,
		tracked("r1", "task-1", "dup", clock(9, 0), clock(10, 0)),
		tracked("r2", "task-2", "gone", clock(11, 0), clock(12, 0)),
		tracked("r3", "task-3", "evt-3", clock(13, 0), clock(14, 0)),
	)
	states := map[string]models.TaskState{
		"task-1": models.StateApproved,
		"task-2": models.StateApproved,
	}
	snapshot := []models.ExternalEvent{
		{ID: "dup", Start: clock(9, 0), End: clock(10, 0)},
		{ID: "dup", Start: clock(15, 0), End: clock(16, 0)},
	}

	res := Reconcile(reg, states, snapshot, now)
	if len(res.Failures) != 2 {
		t.Fatalf("failures = %+v", res.Failures)
	}
	if !errors.Is(res.Failures[0].Err, ErrAmbiguousMatch) {
		t.Errorf("task-1 failure = %v, want ErrAmbiguousMatch", res.Failures[0].Err)
	}
	if !errors.Is(res.Failures[1].Err, ErrUnknownTask) {
		t.Errorf("task-3 failure = %v, want ErrUnknownTask", res.Failures[1].Err)
	}
	if len(res.Transitions) != 1 || res.Transitions[0].TaskID != "task-2" {
		t.Errorf("task-2 should still be cancelled, got %+v", res.Transitions)
	}
}

func TestReconcile_TerminalTaskStopsTracking(t *testing.T) {
	reg := newRegistry(t, tracked("r1", "task-1", "evt-1", clock(9, 0), clock(10, 0)))
	states := map[string]models.TaskState{"task-1": models.StateCompleted}

	res := Reconcile(reg, states, nil, now)
	if len(res.Transitions) != 0 {
		t.Errorf("finished task should not transition, got %+v", res.Transitions)
	}
	if len(reg.Active()) != 0 {
		t.Error("finished task should no longer be tracked")
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	reg := newRegistry(t,
		tracked("r1", "a", "evt-a", clock(9, 0), clock(10, 0)),
		tracked("r2", "b", "evt-b", clock(10, 0), clock(11, 0)),
		tracked("r3", "c", "evt-c", clock(13, 0), clock(14, 0)),
	)
	states := map[string]models.TaskState{
		"a": models.StateApproved,
		"b": models.StateInProgress,
		"c": models.StateAwaitingReview,
	}
	snapshot := []models.ExternalEvent{
		{ID: "evt-b", Start: clock(10, 30), End: clock(11, 30)},
		{ID: "evt-c", Start: clock(13, 0), End: clock(14, 0)},
		{ID: "standup", Start: clock(11, 0), End: clock(11, 15)},
	}

	apply(states, Reconcile(reg, states, snapshot, now))
	once := map[string]models.TaskState{}
	for k, v := range states {
		once[k] = v
	}
	apply(states, Reconcile(reg, states, snapshot, now))

	for k, v := range once {
		if states[k] != v {
			t.Errorf("%s: %s after one pass, %s after two", k, v, states[k])
		}
	}
	want := map[string]models.TaskState{"a": models.StateCancelled, "b": models.StateConflicted, "c": models.StateAwaitingReview}
	for k, v := range want {
		if states[k] != v {
			t.Errorf("%s = %s, want %s", k, states[k], v)
		}
	}
}

func TestRegistry_TrackRules(t *testing.T) {
	reg := newRegistry(t, tracked("r1", "task-1", "evt-1", clock(9, 0), clock(10, 0)))

	if err := reg.Track(tracked("r2", "task-1", "evt-2", clock(9, 0), clock(10, 0))); !errors.Is(err, ErrAlreadyTracked) {
		t.Errorf("second event for a task: err = %v", err)
	}
	if err := reg.Track(tracked("r3", "task-2", "evt-1", clock(9, 0), clock(10, 0))); !errors.Is(err, ErrAlreadyTracked) {
		t.Errorf("second task for an event: err = %v", err)
	}

	if _, ok := reg.Untrack("task-1"); !ok {
		t.Fatal("Untrack should find the active record")
	}
	if err := reg.Track(tracked("r4", "task-1", "evt-4", clock(9, 0), clock(10, 0))); err != nil {
		t.Errorf("re-tracking after untrack failed: %v", err)
	}
	if got := len(reg.All()); got != 2 {
		t.Errorf("All() has %d records, want 2", got)
	}
}

func TestRegistry_Replace(t *testing.T) {
	reg := newRegistry(t, tracked("r1", "task-1", "evt-1", clock(9, 0), clock(10, 0)))

	next := []models.TrackedEvent{tracked("r2", "task-2", "evt-2", clock(11, 0), clock(12, 0))}
	if err := reg.Replace(next); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if _, ok := reg.ForTask("task-1"); ok {
		t.Error("task-1 should be gone after Replace")
	}
	if _, ok := reg.ForTask("task-2"); !ok {
		t.Error("task-2 should be tracked after Replace")
	}

	dup := []models.TrackedEvent{
		tracked("r3", "task-3", "evt-3", clock(9, 0), clock(10, 0)),
		tracked("r4", "task-3", "evt-4", clock(9, 0), clock(10, 0)),
	}
	if err := reg.Replace(dup); !errors.Is(err, ErrAlreadyTracked) {
		t.Errorf("Replace with duplicates err = %v", err)
	}
	if _, ok := reg.ForTask("task-2"); !ok {
		t.Error("a failed Replace should keep the previous records")
	}
}
