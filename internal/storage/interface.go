package storage

import (
	"errors"
	"time"

	"github.com/julianstephens/dayfill/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ChangeSet is written in a single transaction.
type ChangeSet struct {
	Tasks       []models.Task
	Tracked     []models.TrackedEvent
	Transitions []models.Transition
}

func (c ChangeSet) Empty() bool {
	return len(c.Tasks) == 0 && len(c.Tracked) == 0 && len(c.Transitions) == 0
}

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error
	Migrate(logFn func(string)) (int, error)

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error

	// Tasks
	AddTask(models.Task) error
	GetTask(id string) (models.Task, error)
	GetTasks(states ...models.TaskState) ([]models.Task, error)
	UpdateTask(models.Task) error

	// Duration history
	AddDurationSample(key string, d time.Duration, at time.Time) error
	GetDurationEstimates() ([]models.DurationEstimate, error)

	// Reconciliation
	GetTrackedEvents() ([]models.TrackedEvent, error)
	GetTransitions(taskID string) ([]models.Transition, error)
	Apply(ChangeSet) error

	// Plans
	SavePlan(models.DayPlan) error
	GetPlan(date string) (models.DayPlan, error)

	// Utils
	GetConfigPath() string
	IsSQLite() bool
}
