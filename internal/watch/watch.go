// Package watch triggers reconciliation passes when calendar files change
// and on a cron schedule.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"github.com/julianstephens/dayfill/internal/constants"
	"github.com/julianstephens/dayfill/internal/logger"
)

type Trigger string

const (
	TriggerStart    Trigger = "start"
	TriggerFile     Trigger = "file"
	TriggerSchedule Trigger = "schedule"
	TriggerRetry    Trigger = "retry"
)

const (
	restartBackoffBase = 250 * time.Millisecond
	restartBackoffMax  = 5 * time.Second
)

type Config struct {
	Files    []string       // calendar files to watch
	Schedule string         // cron spec, empty disables periodic passes
	Location *time.Location // schedule time zone
	Debounce time.Duration
}

// Watcher funnels file events and schedule ticks into one handler that
// never runs concurrently with itself. Triggers arriving while the handler
// runs are coalesced into a single follow-up call.
type Watcher struct {
	cfg     Config
	files   map[string]bool
	handler func(Trigger)
	pending chan Trigger
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

func New(cfg Config, handler func(Trigger)) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watch handler is required")
	}
	if cfg.Schedule != "" {
		if _, err := parser.Parse(cfg.Schedule); err != nil {
			return nil, fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
		}
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = constants.WatchDebounce
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	files := make(map[string]bool, len(cfg.Files))
	for _, f := range cfg.Files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, err
		}
		files[abs] = true
	}
	return &Watcher{cfg: cfg, files: files, handler: handler, pending: make(chan Trigger, 1)}, nil
}

// Notify queues a pass. It never blocks.
func (w *Watcher) Notify(t Trigger) {
	select {
	case w.pending <- t:
	default:
		logger.Debug("Coalesced watch trigger", "trigger", t)
	}
}

// Run blocks until ctx is done. One pass runs at start.
func (w *Watcher) Run(ctx context.Context) error {
	if w.cfg.Schedule != "" {
		c := cron.New(cron.WithParser(parser), cron.WithLocation(w.cfg.Location))
		if _, err := c.AddFunc(w.cfg.Schedule, func() { w.Notify(TriggerSchedule) }); err != nil {
			return err
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
		logger.Info("Scheduled periodic passes", "schedule", w.cfg.Schedule, "tz", w.cfg.Location.String())
	}

	var wg sync.WaitGroup
	if len(w.files) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.watchFiles(ctx)
		}()
	}
	defer wg.Wait()

	w.Notify(TriggerStart)
	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-w.pending:
			w.handler(t)
		}
	}
}

func (w *Watcher) dirs() []string {
	seen := map[string]bool{}
	var out []string
	for f := range w.files {
		d := filepath.Dir(f)
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

// watchFiles recreates the fsnotify watcher with backoff whenever it breaks.
func (w *Watcher) watchFiles(ctx context.Context) {
	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	debounce := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.cfg.Debounce, func() { w.Notify(TriggerFile) })
	}
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	backoff := restartBackoffBase
	for ctx.Err() == nil {
		err := w.watchOnce(ctx, debounce)
		if ctx.Err() != nil {
			return
		}
		logger.Warn("Calendar watcher stopped, restarting", "error", err, "backoff", backoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, restartBackoffMax)
	}
}

func (w *Watcher) watchOnce(ctx context.Context, onChange func()) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	for _, d := range w.dirs() {
		if _, err := os.Stat(d); err != nil {
			logger.Warn("Skipping missing calendar directory", "dir", d)
			continue
		}
		if err := fw.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}
	logger.Debug("Watching calendar files", "files", len(w.files))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return errors.New("event channel closed")
			}
			if !w.files[filepath.Clean(ev.Name)] {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				logger.Debug("Calendar file changed", "path", ev.Name, "op", ev.Op.String())
				onChange()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return errors.New("error channel closed")
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) || strings.Contains(strings.ToLower(err.Error()), "overflow") {
				logger.Warn("Calendar watch overflow, forcing a pass", "error", err)
				onChange()
				continue
			}
			logger.Warn("Calendar watch error", "error", err)
		}
	}
}
