package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/dayfill/internal/models"
)

const taskColumns = `id, title, notes, priority, due_date, list, energy, state,
	scheduled_start, scheduled_end, planned_sec, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (models.Task, error) {
	var (
		t                    models.Task
		due, start, end      sql.NullString
		created, updated     string
		priority, energy, st string
		planned              int64
	)
	err := row.Scan(&t.ID, &t.Title, &t.Notes, &priority, &due, &t.List, &energy, &st,
		&start, &end, &planned, &created, &updated)
	if err != nil {
		return models.Task{}, err
	}
	t.Priority = models.Priority(priority)
	t.Energy = models.EnergyLevel(energy)
	t.State = models.TaskState(st)
	t.Planned = time.Duration(planned) * time.Second

	if t.DueDate, err = parseNullTime(due); err != nil {
		return models.Task{}, fmt.Errorf("task %s due_date: %w", t.ID, err)
	}
	if t.ScheduledStart, err = parseNullTime(start); err != nil {
		return models.Task{}, fmt.Errorf("task %s scheduled_start: %w", t.ID, err)
	}
	if t.ScheduledEnd, err = parseNullTime(end); err != nil {
		return models.Task{}, fmt.Errorf("task %s scheduled_end: %w", t.ID, err)
	}
	if t.CreatedAt, err = parseTime(created); err != nil {
		return models.Task{}, fmt.Errorf("task %s created_at: %w", t.ID, err)
	}
	if t.UpdatedAt, err = parseTime(updated); err != nil {
		return models.Task{}, fmt.Errorf("task %s updated_at: %w", t.ID, err)
	}
	return t, nil
}

func (s *Store) AddTask(task models.Task) error {
	if task.ID == "" {
		return errors.New("task id is required")
	}
	if strings.TrimSpace(task.Title) == "" {
		return errors.New("task title is required")
	}
	if task.State == "" {
		task.State = models.StatePending
	}
	return s.upsertTask(s.db, task)
}

func (s *Store) UpdateTask(task models.Task) error {
	if _, err := s.GetTask(task.ID); err != nil {
		return err
	}
	return s.upsertTask(s.db, task)
}

func (s *Store) upsertTask(ex execer, t models.Task) error {
	return s.exec(ex, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			notes = excluded.notes,
			priority = excluded.priority,
			due_date = excluded.due_date,
			list = excluded.list,
			energy = excluded.energy,
			state = excluded.state,
			scheduled_start = excluded.scheduled_start,
			scheduled_end = excluded.scheduled_end,
			planned_sec = excluded.planned_sec,
			updated_at = excluded.updated_at`,
		t.ID, t.Title, t.Notes, string(t.Priority), nullTime(t.DueDate), t.List, string(t.Energy), string(t.State),
		nullTime(t.ScheduledStart), nullTime(t.ScheduledEnd), int64(t.Planned/time.Second),
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
	)
}

func (s *Store) GetTask(id string) (models.Task, error) {
	row := s.db.QueryRow(s.rebind("SELECT "+taskColumns+" FROM tasks WHERE id = ?"), id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return t, err
}

// GetTasks returns tasks in any of the given states, or all tasks when
// none are given, ordered by creation time.
func (s *Store) GetTasks(states ...models.TaskState) ([]models.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks"
	args := make([]any, 0, len(states))
	if len(states) > 0 {
		marks := make([]string, len(states))
		for i, st := range states {
			marks[i] = "?"
			args = append(args, string(st))
		}
		query += " WHERE state IN (" + strings.Join(marks, ", ") + ")"
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.Query(s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
