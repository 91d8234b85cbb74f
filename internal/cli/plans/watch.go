package plans

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julianstephens/dayfill/internal/cli"
	"github.com/julianstephens/dayfill/internal/engine"
	"github.com/julianstephens/dayfill/internal/logger"
	"github.com/julianstephens/dayfill/internal/watch"
)

// WatchCmd keeps reconciling until interrupted.
type WatchCmd struct {
	NoSchedule bool `help:"Only react to calendar file changes."`
}

func (c *WatchCmd) Run(ctx *cli.Context) error {
	cfg, err := ctx.SchedulerConfig()
	if err != nil {
		return err
	}
	loc := cfg.Zone()

	sources, err := ctx.Config.Sources()
	if err != nil {
		return err
	}
	files := make([]string, 0, len(sources)+1)
	for _, s := range sources {
		files = append(files, s.Path)
	}
	if exportPath, err := ctx.Config.ExportPath(); err == nil {
		files = append(files, exportPath)
	}

	schedule := ctx.Config.Refresh
	if c.NoSchedule {
		schedule = ""
	}

	var w *watch.Watcher
	w, err = watch.New(watch.Config{Files: files, Schedule: schedule, Location: loc}, func(t watch.Trigger) {
		if err := ctx.Hydrate(); err != nil {
			logger.Error("Could not reload tracked events", "error", err)
			return
		}
		res, err := ctx.Reconcile(false)
		if errors.Is(err, engine.ErrThrottled) {
			logger.Debug("Pass throttled, retrying later", "trigger", t)
			time.AfterFunc(ctx.Config.ReconcileMinInterval, func() { w.Notify(watch.TriggerRetry) })
			return
		}
		if err != nil {
			logger.Error("Reconciliation failed", "trigger", t, "error", err)
			return
		}
		if res.Empty() && len(res.Failures) == 0 {
			logger.Debug("Calendar in sync", "trigger", t)
			return
		}
		tasks, err := ctx.Store.GetTasks()
		if err != nil {
			logger.Error("Failed to get tasks", "error", err)
			return
		}
		printReconcile(res, titles(tasks), loc)
	})
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Watching calendars", "files", len(files), "schedule", schedule)
	return w.Run(sigCtx)
}
