package storage

import (
	"database/sql"
	"fmt"

	"github.com/julianstephens/dayfill/internal/models"
)

func (s *Store) GetTrackedEvents() ([]models.TrackedEvent, error) {
	rows, err := s.db.Query(`
		SELECT id, task_id, external_event_id, original_start, original_end, active, updated_at
		FROM tracked_events ORDER BY task_id, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.TrackedEvent{}
	for rows.Next() {
		var (
			ev                  models.TrackedEvent
			start, end, updated string
		)
		if err := rows.Scan(&ev.ID, &ev.TaskID, &ev.ExternalEventID, &start, &end, &ev.Active, &updated); err != nil {
			return nil, err
		}
		if ev.OriginalStart, err = parseTime(start); err != nil {
			return nil, fmt.Errorf("tracked event %s: %w", ev.ID, err)
		}
		if ev.OriginalEnd, err = parseTime(end); err != nil {
			return nil, fmt.Errorf("tracked event %s: %w", ev.ID, err)
		}
		if ev.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, fmt.Errorf("tracked event %s: %w", ev.ID, err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// GetTransitions returns the transition log of a task, oldest first. An
// empty taskID returns the whole log.
func (s *Store) GetTransitions(taskID string) ([]models.Transition, error) {
	query := "SELECT task_id, from_state, to_state, reason, at FROM transitions"
	var args []any
	if taskID != "" {
		query += " WHERE task_id = ?"
		args = append(args, taskID)
	}
	query += " ORDER BY id"

	rows, err := s.db.Query(s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Transition{}
	for rows.Next() {
		var (
			tr               models.Transition
			from, to, reason string
			at               string
		)
		if err := rows.Scan(&tr.TaskID, &from, &to, &reason, &at); err != nil {
			return nil, err
		}
		tr.From, tr.To, tr.Reason = models.TaskState(from), models.TaskState(to), models.TransitionReason(reason)
		if tr.At, err = parseTime(at); err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

// Apply writes task updates, tracked event records and transitions together.
func (s *Store) Apply(cs ChangeSet) error {
	if cs.Empty() {
		return nil
	}
	return s.inTx(func(tx *sql.Tx) error {
		for _, t := range cs.Tasks {
			if err := s.upsertTask(tx, t); err != nil {
				return fmt.Errorf("task %s: %w", t.ID, err)
			}
		}
		for _, ev := range cs.Tracked {
			err := s.exec(tx, `
				INSERT INTO tracked_events (id, task_id, external_event_id, original_start, original_end, active, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (id) DO UPDATE SET
					external_event_id = excluded.external_event_id,
					original_start = excluded.original_start,
					original_end = excluded.original_end,
					active = excluded.active,
					updated_at = excluded.updated_at`,
				ev.ID, ev.TaskID, ev.ExternalEventID, formatTime(ev.OriginalStart), formatTime(ev.OriginalEnd),
				ev.Active, formatTime(ev.UpdatedAt))
			if err != nil {
				return fmt.Errorf("tracked event %s: %w", ev.ID, err)
			}
		}
		for _, tr := range cs.Transitions {
			err := s.exec(tx, `INSERT INTO transitions (task_id, from_state, to_state, reason, at) VALUES (?, ?, ?, ?, ?)`,
				tr.TaskID, string(tr.From), string(tr.To), string(tr.Reason), formatTime(tr.At))
			if err != nil {
				return fmt.Errorf("transition for task %s: %w", tr.TaskID, err)
			}
		}
		return nil
	})
}
