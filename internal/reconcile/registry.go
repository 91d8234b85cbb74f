// Package reconcile keeps approved tasks consistent with an external calendar
// that users edit independently of dayfill.
package reconcile

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/julianstephens/dayfill/internal/models"
)

var (
	ErrAlreadyTracked = errors.New("already tracked")
	ErrAmbiguousMatch = errors.New("ambiguous event match")
	ErrUnknownTask    = errors.New("tracked task has no known state")
)

// Registry holds the tracked events linking tasks to calendar events. A task
// has at most one active record and an external event belongs to at most one
// active record.
type Registry struct {
	mu      sync.Mutex
	records map[string]*models.TrackedEvent
}

func NewRegistry() *Registry {
	return &Registry{records: make(map[string]*models.TrackedEvent)}
}

// Load fills the registry from persisted records, enforcing the same rules as Track
// for active ones.
func (r *Registry) Load(events []models.TrackedEvent) error {
	for _, ev := range events {
		if !ev.Active {
			r.mu.Lock()
			cp := ev
			r.records[ev.ID] = &cp
			r.mu.Unlock()
			continue
		}
		if err := r.Track(ev); err != nil {
			return err
		}
	}
	return nil
}

// Replace swaps the registry contents for persisted records, as Load would
// on an empty registry. The registry is left unchanged on error.
func (r *Registry) Replace(events []models.TrackedEvent) error {
	fresh := NewRegistry()
	if err := fresh.Load(events); err != nil {
		return err
	}
	r.mu.Lock()
	r.records = fresh.records
	r.mu.Unlock()
	return nil
}

// Track adds an active record.
func (r *Registry) Track(ev models.TrackedEvent) error {
	if ev.ID == "" || ev.TaskID == "" || ev.ExternalEventID == "" {
		return fmt.Errorf("tracked event needs id, task id and external event id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[ev.ID]; exists {
		return fmt.Errorf("%w: record %s", ErrAlreadyTracked, ev.ID)
	}
	for _, rec := range r.records {
		if !rec.Active {
			continue
		}
		if rec.TaskID == ev.TaskID {
			return fmt.Errorf("%w: task %s has event %s", ErrAlreadyTracked, ev.TaskID, rec.ExternalEventID)
		}
		if rec.ExternalEventID == ev.ExternalEventID {
			return fmt.Errorf("%w: event %s belongs to task %s", ErrAlreadyTracked, ev.ExternalEventID, rec.TaskID)
		}
	}
	cp := ev
	cp.Active = true
	r.records[ev.ID] = &cp
	return nil
}

// ForTask returns the active record of a task.
func (r *Registry) ForTask(taskID string) (models.TrackedEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.Active && rec.TaskID == taskID {
			return *rec, true
		}
	}
	return models.TrackedEvent{}, false
}

// Untrack deactivates the active record of a task and returns it.
func (r *Registry) Untrack(taskID string) (models.TrackedEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.Active && rec.TaskID == taskID {
			rec.Active = false
			return *rec, true
		}
	}
	return models.TrackedEvent{}, false
}

// Active returns the active records ordered by task id.
func (r *Registry) Active() []models.TrackedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(true)
}

// All returns every record, active or not, ordered by task id.
func (r *Registry) All() []models.TrackedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(false)
}

func (r *Registry) sorted(activeOnly bool) []models.TrackedEvent {
	out := make([]models.TrackedEvent, 0, len(r.records))
	for _, rec := range r.records {
		if activeOnly && !rec.Active {
			continue
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TaskID != out[j].TaskID {
			return out[i].TaskID < out[j].TaskID
		}
		return out[i].ID < out[j].ID
	})
	return out
}
