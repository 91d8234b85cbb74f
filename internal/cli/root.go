package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/dayfill/internal/backup"
	"github.com/julianstephens/dayfill/internal/calendar"
	"github.com/julianstephens/dayfill/internal/config"
	"github.com/julianstephens/dayfill/internal/engine"
	"github.com/julianstephens/dayfill/internal/logger"
	"github.com/julianstephens/dayfill/internal/models"
	"github.com/julianstephens/dayfill/internal/reconcile"
	"github.com/julianstephens/dayfill/internal/scheduler"
	"github.com/julianstephens/dayfill/internal/storage"
	"github.com/julianstephens/dayfill/internal/utils"
)

type Context struct {
	Store      storage.Provider
	Engine     *engine.Engine
	Config     *config.Config
	ConfigPath string
	Now        func() time.Time
}

func (c *Context) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Hydrate loads persisted duration history and tracked events into the
// engine. It may be called again to pick up changes made by other processes.
func (c *Context) Hydrate() error {
	estimates, err := c.Store.GetDurationEstimates()
	if err != nil {
		return fmt.Errorf("failed to load duration history: %w", err)
	}
	c.Engine.Estimator().Restore(estimates)

	tracked, err := c.Store.GetTrackedEvents()
	if err != nil {
		return fmt.Errorf("failed to load tracked events: %w", err)
	}
	if err := c.Engine.Registry().Replace(tracked); err != nil {
		return fmt.Errorf("failed to load tracked events: %w", err)
	}
	logger.Debug("Hydrated engine", "duration_groups", len(estimates), "tracked", len(tracked))
	return nil
}

func (c *Context) SchedulerConfig() (scheduler.Config, error) {
	settings, err := c.Store.GetSettings()
	if err != nil {
		return scheduler.Config{}, fmt.Errorf("failed to get settings: %w", err)
	}
	cfg, err := scheduler.ConfigFromSettings(settings)
	if err != nil {
		return scheduler.Config{}, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}

// Snapshot reads the configured calendars and the export file over [from, to).
// Exported suggestions count as busy time and are the events reconciliation
// tracks.
func (c *Context) Snapshot(from, to time.Time, loc *time.Location, extra ...string) (calendar.Snapshot, error) {
	sources, err := c.sources(extra...)
	if err != nil {
		return calendar.Snapshot{}, err
	}
	return calendar.Load(sources, from, to, loc)
}

func (c *Context) sources(extra ...string) ([]calendar.Source, error) {
	sources, err := c.Config.Sources()
	if err != nil {
		return nil, err
	}
	if exportPath, err := c.Config.ExportPath(); err == nil {
		if _, statErr := os.Stat(exportPath); statErr == nil {
			sources = append(sources, calendar.Source{ID: "export", Path: exportPath})
		}
	}
	for i, p := range extra {
		path, err := utils.ExpandPath(p)
		if err != nil {
			return nil, err
		}
		sources = append(sources, calendar.Source{ID: fmt.Sprintf("extra%d", i+1), Path: path})
	}
	return sources, nil
}

// widen extends [from, to) to whole days covering [start, end).
func widen(from, to, start, end time.Time, loc *time.Location) (time.Time, time.Time) {
	if start.Before(from) {
		from = utils.StartOfDay(start.In(loc))
	}
	if end.After(to) {
		to = utils.AddDays(utils.StartOfDay(end.In(loc)), 1)
	}
	return from, to
}

// PerformAutomaticBackup creates a backup before a destructive change and
// only logs failures.
func (c *Context) PerformAutomaticBackup() {
	if !c.Store.IsSQLite() {
		return
	}
	mgr := backup.NewManager(c.Store.GetConfigPath())
	if _, err := mgr.Create(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// Reconcile runs one reconciliation pass against fresh calendar data and
// persists its outcome. Unless force is set the pass is subject to the
// engine's rate limit and may return engine.ErrThrottled.
func (c *Context) Reconcile(force bool) (reconcile.Result, error) {
	cfg, err := c.SchedulerConfig()
	if err != nil {
		return reconcile.Result{}, err
	}
	loc := cfg.Zone()

	tasks, err := c.Store.GetTasks()
	if err != nil {
		return reconcile.Result{}, fmt.Errorf("failed to get tasks: %w", err)
	}
	states := make(map[string]models.TaskState, len(tasks))
	byID := make(map[string]*models.Task, len(tasks))
	for i := range tasks {
		states[tasks[i].ID] = tasks[i].State
		byID[tasks[i].ID] = &tasks[i]
	}

	sources, err := c.sources()
	if err != nil {
		return reconcile.Result{}, err
	}
	events, err := calendar.ParseSources(sources)
	if err != nil {
		return reconcile.Result{}, err
	}

	// The range covers the horizon, where tracked events were, and where
	// they are now, so an event dragged far away is seen as moved.
	now := c.now().In(loc)
	from := utils.StartOfDay(now)
	to := utils.AddDays(from, c.Config.HorizonDays+1)
	uids := map[string]bool{}
	for _, rec := range c.Engine.Registry().Active() {
		from, to = widen(from, to, rec.OriginalStart, rec.OriginalEnd, loc)
		uids[rec.ExternalEventID] = true
	}
	if start, end, ok := calendar.Bounds(events, uids); ok {
		from, to = widen(from, to, start, end, loc)
	}

	snap, err := calendar.Expand(events, from, to, loc)
	if err != nil {
		return reconcile.Result{}, err
	}

	var res reconcile.Result
	if force {
		res = c.Engine.ReconcileNow(states, snap.Events)
	} else if res, err = c.Engine.Reconcile(states, snap.Events); err != nil {
		return res, err
	}

	changed := map[string]bool{}
	for _, tr := range res.Transitions {
		t, ok := byID[tr.TaskID]
		if !ok {
			continue
		}
		if _, err := t.Transition(tr.To, tr.Reason, tr.At); err != nil {
			logger.Warn("Skipping transition", "task", tr.TaskID, "error", err)
			continue
		}
		changed[t.ID] = true
	}
	for _, mv := range res.Moves {
		t, ok := byID[mv.TaskID]
		if !ok {
			continue
		}
		t.Reschedule(mv.NewStart, mv.NewEnd)
		t.UpdatedAt = now
		changed[t.ID] = true
	}
	for _, f := range res.Failures {
		logger.Warn("Could not reconcile tracked event", "task", f.TaskID, "event", f.ExternalEventID, "error", f.Err)
	}

	cs := storage.ChangeSet{Tracked: res.Updated, Transitions: res.Transitions}
	ids := make([]string, 0, len(changed))
	for id := range changed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		cs.Tasks = append(cs.Tasks, *byID[id])
	}
	if err := c.Store.Apply(cs); err != nil {
		return res, fmt.Errorf("failed to save reconciliation: %w", err)
	}
	return res, nil
}

// Confirm asks a yes/no question. assumeYes skips the prompt.
func Confirm(title string, assumeYes bool) (bool, error) {
	if assumeYes {
		return true, nil
	}
	ok := false
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}
