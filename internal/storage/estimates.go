package storage

import (
	"database/sql"
	"errors"
	"time"

	"github.com/julianstephens/dayfill/internal/constants"
	"github.com/julianstephens/dayfill/internal/models"
)

// AddDurationSample appends a completion to a group and drops samples that
// fell out of the group's window.
func (s *Store) AddDurationSample(key string, d time.Duration, at time.Time) error {
	if key == "" {
		return errors.New("duration group key is required")
	}
	secs := int64(d.Round(time.Second) / time.Second)
	if secs <= 0 {
		return errors.New("duration sample must be positive")
	}
	return s.inTx(func(tx *sql.Tx) error {
		if err := s.exec(tx, `INSERT INTO duration_samples (group_key, duration_sec, recorded_at) VALUES (?, ?, ?)`,
			key, secs, formatTime(at)); err != nil {
			return err
		}
		return s.exec(tx, `
			DELETE FROM duration_samples
			WHERE group_key = ? AND id NOT IN (
				SELECT id FROM duration_samples WHERE group_key = ? ORDER BY id DESC LIMIT ?
			)`, key, key, constants.DurationWindowSize)
	})
}

// GetDurationEstimates rebuilds every group's window, oldest sample first.
func (s *Store) GetDurationEstimates() ([]models.DurationEstimate, error) {
	rows, err := s.db.Query(`SELECT group_key, duration_sec, recorded_at FROM duration_samples ORDER BY group_key, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DurationEstimate
	for rows.Next() {
		var (
			key      string
			secs     int64
			recorded string
		)
		if err := rows.Scan(&key, &secs, &recorded); err != nil {
			return nil, err
		}
		at, err := parseTime(recorded)
		if err != nil {
			return nil, err
		}
		if len(out) == 0 || out[len(out)-1].Key != key {
			out = append(out, models.DurationEstimate{Key: key})
		}
		est := &out[len(out)-1]
		est.Samples = append(est.Samples, time.Duration(secs)*time.Second)
		est.UpdatedAt = at
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		samples := out[i].Samples
		if len(samples) > constants.DurationWindowSize {
			samples = samples[len(samples)-constants.DurationWindowSize:]
			out[i].Samples = samples
		}
		var sum time.Duration
		for _, d := range samples {
			sum += d
		}
		out[i].Average = sum / time.Duration(len(samples))
	}
	return out, nil
}
