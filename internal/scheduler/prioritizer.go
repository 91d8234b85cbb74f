package scheduler

import (
	"sort"
	"time"

	"github.com/julianstephens/dayfill/internal/models"
	"github.com/julianstephens/dayfill/internal/utils"
)

type bucket int

const (
	bucketOverdue bucket = iota
	bucketDueToday
	bucketDueThisWeek
	bucketHigh
	bucketMedium
	bucketLow
)

func priorityBucket(p models.Priority) bucket {
	switch p {
	case models.PriorityHigh:
		return bucketHigh
	case models.PriorityMedium:
		return bucketMedium
	}
	return bucketLow
}

func classify(t models.Task, today, weekEnd time.Time) bucket {
	if t.DueDate == nil {
		return priorityBucket(t.Priority)
	}
	due := utils.StartOfDay(t.DueDate.In(today.Location()))
	switch {
	case due.Before(today):
		return bucketOverdue
	case due.Equal(today):
		return bucketDueToday
	case due.Before(weekEnd):
		return bucketDueThisWeek
	}
	return priorityBucket(t.Priority)
}

// Prioritize returns tasks in allocation order: overdue (most overdue first),
// due today, due later this week, then high, medium and low or no priority.
// Dated buckets put the earlier due date first. Ties keep their input order.
func Prioritize(tasks []models.Task, now time.Time) []models.Task {
	today := utils.StartOfDay(now)
	weekEnd := utils.StartOfWeek(now).AddDate(0, 0, 7)

	type ranked struct {
		task   models.Task
		bucket bucket
	}
	items := make([]ranked, len(tasks))
	for i, t := range tasks {
		items[i] = ranked{task: t, bucket: classify(t, today, weekEnd)}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.bucket != b.bucket {
			return a.bucket < b.bucket
		}
		if a.bucket <= bucketDueThisWeek {
			return a.task.DueDate.Before(*b.task.DueDate)
		}
		return false
	})

	out := make([]models.Task, len(items))
	for i, it := range items {
		out[i] = it.task
	}
	return out
}
