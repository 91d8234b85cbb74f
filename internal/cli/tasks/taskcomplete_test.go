package tasks

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/dayfill/internal/cli"
	"github.com/julianstephens/dayfill/internal/config"
	"github.com/julianstephens/dayfill/internal/engine"
	"github.com/julianstephens/dayfill/internal/models"
	"github.com/julianstephens/dayfill/internal/storage"
)

var fixedNow = time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)

func newTestContext(t *testing.T) *cli.Context {
	t.Helper()
	dir := t.TempDir()
	store := storage.NewSQLiteStore(filepath.Join(dir, "dayfill.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := config.DefaultConfig()
	cfg.Export = filepath.Join(dir, "suggestions.ics")
	clock := func() time.Time { return fixedNow }
	return &cli.Context{
		Store:      store,
		Engine:     engine.New(nil, nil, engine.WithClock(clock)),
		Config:     cfg,
		ConfigPath: filepath.Join(dir, "config.yaml"),
		Now:        clock,
	}
}

func TestTaskComplete_DefaultsToPlannedTotal(t *testing.T) {
	tests := []struct {
		name    string
		planned time.Duration
		actual  time.Duration
		want    time.Duration
	}{
		{name: "split task", planned: 90 * time.Minute, want: 90 * time.Minute},
		{name: "accepted before planned totals", want: 30 * time.Minute},
		{name: "explicit actual", planned: 90 * time.Minute, actual: 50 * time.Minute, want: 50 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newTestContext(t)
			start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
			task := models.Task{
				ID: "t1", Title: "Write report", List: "Work", State: models.StateApproved,
				Planned: tt.planned, CreatedAt: fixedNow, UpdatedAt: fixedNow,
			}
			task.Reschedule(start, start.Add(30*time.Minute))
			if err := ctx.Store.AddTask(task); err != nil {
				t.Fatal(err)
			}

			cmd := &TaskCompleteCmd{ID: "t1", Actual: tt.actual}
			if err := cmd.Run(ctx); err != nil {
				t.Fatalf("Run failed: %v", err)
			}

			got, _ := ctx.Store.GetTask("t1")
			if got.State != models.StateCompleted {
				t.Errorf("state = %s", got.State)
			}
			ests, err := ctx.Store.GetDurationEstimates()
			if err != nil {
				t.Fatal(err)
			}
			if len(ests) != 2 {
				t.Fatalf("estimates = %+v", ests)
			}
			for _, e := range ests {
				if e.Average != tt.want {
					t.Errorf("%s average = %v, want %v", e.Key, e.Average, tt.want)
				}
			}
			if avg, ok := ctx.Engine.Estimator().Average("Work"); !ok || avg != tt.want {
				t.Errorf("estimator average = %v, %v", avg, ok)
			}
		})
	}
}

func TestTaskComplete_PartialRecordsNothing(t *testing.T) {
	ctx := newTestContext(t)
	task := models.Task{ID: "t1", Title: "Write report", List: "Work", State: models.StateApproved, Planned: time.Hour, CreatedAt: fixedNow, UpdatedAt: fixedNow}
	if err := ctx.Store.AddTask(task); err != nil {
		t.Fatal(err)
	}
	if err := (&TaskCompleteCmd{ID: "t1", Partial: true}).Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	ests, _ := ctx.Store.GetDurationEstimates()
	if len(ests) != 0 {
		t.Errorf("estimates = %+v", ests)
	}
}
