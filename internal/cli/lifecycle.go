package cli

import (
	"fmt"
	"time"

	"github.com/julianstephens/dayfill/internal/models"
	"github.com/julianstephens/dayfill/internal/storage"
)

// ReasonFor names the reason recorded for a user-driven transition.
func ReasonFor(from, to models.TaskState) models.TransitionReason {
	switch to {
	case models.StateApproved:
		if from == models.StateConflicted {
			return models.ReasonResolved
		}
		return models.ReasonApproved
	case models.StateInProgress:
		return models.ReasonStarted
	case models.StateAwaitingReview:
		return models.ReasonReview
	case models.StateCompleted:
		return models.ReasonCompleted
	case models.StatePartiallyDone:
		return models.ReasonPartial
	case models.StateRescheduled:
		return models.ReasonRescheduled
	case models.StateSkipped:
		return models.ReasonSkipped
	}
	return models.ReasonManual
}

// LifecyclePath returns the shortest sequence of states leading from one
// state to another, excluding from. It is nil when to is unreachable.
func LifecyclePath(from, to models.TaskState) []models.TaskState {
	if from == to {
		return nil
	}
	prev := map[models.TaskState]models.TaskState{from: ""}
	queue := []models.TaskState{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range models.AllTaskStates {
			if _, seen := prev[next]; seen || !models.CanTransition(cur, next) {
				continue
			}
			prev[next] = cur
			if next == to {
				var path []models.TaskState
				for s := to; s != from; s = prev[s] {
					path = append([]models.TaskState{s}, path...)
				}
				return path
			}
			queue = append(queue, next)
		}
	}
	return nil
}

// ChangeState walks a task through the lifecycle to the target state and
// returns everything that has to be persisted. A task reaching a terminal
// state stops being tracked.
func (c *Context) ChangeState(task *models.Task, to models.TaskState, at time.Time) (storage.ChangeSet, error) {
	if task.State == to {
		return storage.ChangeSet{}, fmt.Errorf("task %s is already %s", task.ID, to)
	}
	path := LifecyclePath(task.State, to)
	if path == nil {
		return storage.ChangeSet{}, fmt.Errorf("%w: %s -> %s for task %s", models.ErrInvalidTransition, task.State, to, task.ID)
	}

	var cs storage.ChangeSet
	for _, next := range path {
		tr, err := task.Transition(next, ReasonFor(task.State, next), at)
		if err != nil {
			return storage.ChangeSet{}, err
		}
		cs.Transitions = append(cs.Transitions, tr)
	}
	cs.Tasks = []models.Task{*task}

	if to.IsTerminal() {
		if rec, ok := c.Engine.Registry().Untrack(task.ID); ok {
			rec.UpdatedAt = at
			cs.Tracked = append(cs.Tracked, rec)
		}
	}
	return cs, nil
}
