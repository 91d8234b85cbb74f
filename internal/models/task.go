package models

import (
	"fmt"
	"strings"
	"time"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
	PriorityNone   Priority = "none"
)

type EnergyLevel string

const (
	EnergyHigh   EnergyLevel = "high"
	EnergyMedium EnergyLevel = "medium"
	EnergyLow    EnergyLevel = "low"
	// EnergyNone marks an unlabeled slot or a task without an energy requirement.
	EnergyNone EnergyLevel = ""
)

// ParsePriority accepts the canonical names plus an empty string for "none".
func ParsePriority(s string) (Priority, error) {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityHigh:
		return PriorityHigh, nil
	case PriorityMedium:
		return PriorityMedium, nil
	case PriorityLow:
		return PriorityLow, nil
	case PriorityNone, "":
		return PriorityNone, nil
	}
	return PriorityNone, fmt.Errorf("invalid priority %q (use high, medium, low or none)", s)
}

// ParseEnergyLevel accepts high, medium, low, or an empty string / "none" for no requirement.
func ParseEnergyLevel(s string) (EnergyLevel, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "high":
		return EnergyHigh, nil
	case "medium":
		return EnergyMedium, nil
	case "low":
		return EnergyLow, nil
	case "", "none":
		return EnergyNone, nil
	}
	return EnergyNone, fmt.Errorf("invalid energy level %q (use high, medium, low or none)", s)
}

func (e EnergyLevel) String() string {
	if e == EnergyNone {
		return "none"
	}
	return string(e)
}

// Task is an open reminder the engine can schedule, plus the lifecycle
// state it reached after its suggestion was approved.
type Task struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Notes    string      `json:"notes,omitempty"`
	Priority Priority    `json:"priority"`
	DueDate  *time.Time  `json:"due_date,omitempty"`
	List     string      `json:"list"`   // duration group key
	Energy   EnergyLevel `json:"energy"` // required energy level
	State    TaskState   `json:"state"`

	ScheduledStart *time.Time `json:"scheduled_start,omitempty"`
	ScheduledEnd   *time.Time `json:"scheduled_end,omitempty"`
	// Planned is the total of all accepted blocks. A split task is tracked
	// by its first block only, so the scheduled span can be shorter.
	Planned time.Duration `json:"planned,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Schedulable reports whether the scheduler should consider the task.
func (t Task) Schedulable() bool {
	return t.State == StatePending
}

// Transition moves the task to the given state if the edge is allowed and
// returns the transition record describing the change.
func (t *Task) Transition(to TaskState, reason TransitionReason, at time.Time) (Transition, error) {
	if !CanTransition(t.State, to) {
		return Transition{}, fmt.Errorf("%w: %s -> %s for task %s", ErrInvalidTransition, t.State, to, t.ID)
	}
	tr := Transition{
		TaskID: t.ID,
		From:   t.State,
		To:     to,
		Reason: reason,
		At:     at,
	}
	t.State = to
	t.UpdatedAt = at
	return tr, nil
}

// PlannedDuration returns the accepted total, or the scheduled span for
// tasks accepted without one.
func (t Task) PlannedDuration() time.Duration {
	if t.Planned > 0 {
		return t.Planned
	}
	if t.ScheduledStart != nil && t.ScheduledEnd != nil {
		return t.ScheduledEnd.Sub(*t.ScheduledStart)
	}
	return 0
}

// Reschedule records new suggested times for the task.
func (t *Task) Reschedule(start, end time.Time) {
	t.ScheduledStart = &start
	t.ScheduledEnd = &end
}
