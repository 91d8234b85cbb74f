package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/julianstephens/dayfill/internal/models"
)

// SavePlan replaces the stored plan for the plan's date.
func (s *Store) SavePlan(plan models.DayPlan) error {
	if plan.Date == "" {
		return errors.New("plan date is required")
	}
	payload, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	return s.exec(s.db, `
		INSERT INTO plans (date, payload, generated_at) VALUES (?, ?, ?)
		ON CONFLICT (date) DO UPDATE SET payload = excluded.payload, generated_at = excluded.generated_at`,
		plan.Date, string(payload), formatTime(plan.GeneratedAt))
}

func (s *Store) GetPlan(date string) (models.DayPlan, error) {
	var payload string
	err := s.db.QueryRow(s.rebind("SELECT payload FROM plans WHERE date = ?"), date).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DayPlan{}, fmt.Errorf("plan for %s: %w", date, ErrNotFound)
	}
	if err != nil {
		return models.DayPlan{}, err
	}
	var plan models.DayPlan
	if err := json.Unmarshal([]byte(payload), &plan); err != nil {
		return models.DayPlan{}, fmt.Errorf("decode plan for %s: %w", date, err)
	}
	return plan, nil
}
