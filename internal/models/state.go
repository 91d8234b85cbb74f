package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTransition is returned for any edge outside the task state machine.
var ErrInvalidTransition = errors.New("invalid task state transition")

type TaskState string

const (
	StatePending        TaskState = "pending"
	StateApproved       TaskState = "approved"
	StateInProgress     TaskState = "in_progress"
	StateAwaitingReview TaskState = "awaiting_review"
	StateCompleted      TaskState = "completed"
	StatePartiallyDone  TaskState = "partially_done"
	StateRescheduled    TaskState = "rescheduled"
	StateSkipped        TaskState = "skipped"
	StateConflicted     TaskState = "conflicted"
	StateCancelled      TaskState = "cancelled"
)

// AllTaskStates lists every state in lifecycle order.
var AllTaskStates = []TaskState{
	StatePending,
	StateApproved,
	StateInProgress,
	StateAwaitingReview,
	StateCompleted,
	StatePartiallyDone,
	StateRescheduled,
	StateSkipped,
	StateConflicted,
	StateCancelled,
}

// ParseTaskState validates a state name.
func ParseTaskState(s string) (TaskState, error) {
	for _, st := range AllTaskStates {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown task state %q", s)
}

// CanTransition is the task lifecycle:
//
//	pending -> approved -> in_progress -> awaiting_review -> {completed | partially_done | rescheduled | skipped}
//
// approved, in_progress and awaiting_review may also move to conflicted or
// cancelled; conflicted resolves back to approved or to cancelled.
func CanTransition(from, to TaskState) bool {
	switch from {
	case StatePending:
		return to == StateApproved
	case StateApproved:
		return to == StateInProgress || to == StateConflicted || to == StateCancelled
	case StateInProgress:
		return to == StateAwaitingReview || to == StateConflicted || to == StateCancelled
	case StateAwaitingReview:
		switch to {
		case StateCompleted, StatePartiallyDone, StateRescheduled, StateSkipped, StateConflicted, StateCancelled:
			return true
		}
		return false
	case StateConflicted:
		return to == StateApproved || to == StateCancelled
	case StateCompleted, StatePartiallyDone, StateRescheduled, StateSkipped, StateCancelled:
		return false
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s TaskState) IsTerminal() bool {
	switch s {
	case StateCompleted, StatePartiallyDone, StateRescheduled, StateSkipped, StateCancelled:
		return true
	}
	return false
}

// IsTracked reports whether a task in this state is expected to have a live calendar event.
func (s TaskState) IsTracked() bool {
	switch s {
	case StateApproved, StateInProgress, StateAwaitingReview, StateConflicted:
		return true
	}
	return false
}

type TransitionReason string

const (
	ReasonApproved     TransitionReason = "approved"
	ReasonStarted      TransitionReason = "started"
	ReasonReview       TransitionReason = "review"
	ReasonCompleted    TransitionReason = "completed"
	ReasonPartial      TransitionReason = "partial"
	ReasonRescheduled  TransitionReason = "rescheduled"
	ReasonSkipped      TransitionReason = "skipped"
	ReasonResolved     TransitionReason = "resolved"
	ReasonManual       TransitionReason = "manual"
	ReasonEventDeleted TransitionReason = "event_deleted"
	ReasonEventOverlap TransitionReason = "event_overlap"
)

// Transition is a single state change emitted to collaborators.
type Transition struct {
	TaskID string           `json:"task_id"`
	From   TaskState        `json:"from"`
	To     TaskState        `json:"to"`
	Reason TransitionReason `json:"reason"`
	At     time.Time        `json:"at"`
}
