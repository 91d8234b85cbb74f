package models

import (
	"errors"
	"testing"
	"time"
)

func TestTaskTransition(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	task := Task{ID: "t1", State: StatePending}

	path := []TaskState{StateApproved, StateInProgress, StateAwaitingReview, StateCompleted}
	for _, to := range path {
		from := task.State
		tr, err := task.Transition(to, ReasonManual, at)
		if err != nil {
			t.Fatalf("%s -> %s: %v", from, to, err)
		}
		if tr.From != from || tr.To != to || tr.TaskID != "t1" || !tr.At.Equal(at) {
			t.Errorf("transition = %+v", tr)
		}
	}
	if !task.State.IsTerminal() || task.State.IsTracked() {
		t.Errorf("completed: terminal %v tracked %v", task.State.IsTerminal(), task.State.IsTracked())
	}

	_, err := task.Transition(StateApproved, ReasonManual, at)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if task.State != StateCompleted {
		t.Errorf("rejected transition changed state to %s", task.State)
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to TaskState
		want     bool
	}{
		{StatePending, StateApproved, true},
		{StatePending, StateInProgress, false},
		{StateApproved, StateConflicted, true},
		{StateConflicted, StateApproved, true},
		{StateConflicted, StateInProgress, false},
		{StateAwaitingReview, StateSkipped, true},
		{StateInProgress, StateCompleted, false},
		{StateCancelled, StatePending, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v", tt.from, tt.to, got)
		}
	}
}

func TestParseEnums(t *testing.T) {
	if p, err := ParsePriority(" High "); err != nil || p != PriorityHigh {
		t.Errorf("ParsePriority = %v, %v", p, err)
	}
	if p, err := ParsePriority(""); err != nil || p != PriorityNone {
		t.Errorf("ParsePriority(empty) = %v, %v", p, err)
	}
	if _, err := ParsePriority("urgent"); err == nil {
		t.Error("expected an error for an unknown priority")
	}
	if e, err := ParseEnergyLevel("none"); err != nil || e != EnergyNone || e.String() != "none" {
		t.Errorf("ParseEnergyLevel(none) = %q, %v", e, err)
	}
	if _, err := ParseEnergyLevel("max"); err == nil {
		t.Error("expected an error for an unknown energy level")
	}
	if st, err := ParseTaskState("awaiting_review"); err != nil || st != StateAwaitingReview {
		t.Errorf("ParseTaskState = %v, %v", st, err)
	}
	if _, err := ParseTaskState("done"); err == nil {
		t.Error("expected an error for an unknown state")
	}
}

func TestSettingsMapRoundTrip(t *testing.T) {
	in := DefaultSettings()
	in.EnergyLevels = []EnergyWindow{{Start: "09:00", End: "11:00", Level: EnergyHigh}}
	in.FocusTimeBlocks = []TimeRange{{Start: "13:00", End: "14:00"}}

	m, err := SettingsToMap(in)
	if err != nil {
		t.Fatalf("SettingsToMap failed: %v", err)
	}
	if m["working_days"] != "[1,2,3,4,5]" {
		t.Errorf("working_days = %q", m["working_days"])
	}
	out, err := MapToSettings(m)
	if err != nil {
		t.Fatalf("MapToSettings failed: %v", err)
	}
	if len(out.WorkingDays) != 5 || out.WorkingDays[0] != time.Monday {
		t.Errorf("working days = %v", out.WorkingDays)
	}
	if len(out.EnergyLevels) != 1 || out.EnergyLevels[0].Level != EnergyHigh || len(out.FocusTimeBlocks) != 1 {
		t.Errorf("settings = %+v", out)
	}

	if _, err := MapToSettings(map[string]string{"working_days": "[7]"}); err == nil {
		t.Error("expected an out-of-range weekday to fail")
	}
	if _, err := MapToSettings(map[string]string{"buffer_min": "ten"}); err == nil {
		t.Error("expected a non-numeric buffer to fail")
	}
}

func TestApplyDefaultSettings(t *testing.T) {
	s := Settings{BufferMin: 5, WorkingHoursStart: "08:00"}
	ApplyDefaultSettings(&s)
	def := DefaultSettings()
	if s.WorkingHoursStart != "08:00" || s.BufferMin != 5 {
		t.Errorf("explicit values overwritten: %+v", s)
	}
	if s.WorkingHoursEnd != def.WorkingHoursEnd || s.MaxSuggestionsPerDay != def.MaxSuggestionsPerDay || s.Timezone != def.Timezone {
		t.Errorf("defaults not applied: %+v", s)
	}
}

func TestPlannedDuration(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	task := Task{ID: "t1"}
	if task.PlannedDuration() != 0 {
		t.Errorf("unscheduled = %v", task.PlannedDuration())
	}
	task.Reschedule(start, start.Add(30*time.Minute))
	if task.PlannedDuration() != 30*time.Minute {
		t.Errorf("scheduled span = %v", task.PlannedDuration())
	}
	task.Planned = 90 * time.Minute
	if task.PlannedDuration() != 90*time.Minute {
		t.Errorf("planned = %v", task.PlannedDuration())
	}
}
