// Package engine runs scans and reconciliation passes on top of the
// scheduler and reconcile packages. It serializes scans and rate-limits
// reconciliation; all inputs arrive as snapshots and no I/O happens here.
package engine

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/julianstephens/dayfill/internal/constants"
	"github.com/julianstephens/dayfill/internal/estimator"
	"github.com/julianstephens/dayfill/internal/logger"
	"github.com/julianstephens/dayfill/internal/models"
	"github.com/julianstephens/dayfill/internal/reconcile"
	"github.com/julianstephens/dayfill/internal/scheduler"
	"github.com/julianstephens/dayfill/internal/utils"
)

var (
	ErrScanInProgress = errors.New("a scan is already in progress")
	ErrThrottled      = errors.New("reconciliation throttled")
)

type Option func(*Engine)

// WithClock overrides the engine clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithReconcileInterval sets the minimum spacing between rate-limited passes.
func WithReconcileInterval(d time.Duration) Option {
	return func(e *Engine) { e.interval = d }
}

type Engine struct {
	estimator *estimator.Estimator
	registry  *reconcile.Registry
	limiter   *rate.Limiter
	interval  time.Duration
	scanning  atomic.Bool
	now       func() time.Time
}

func New(est *estimator.Estimator, reg *reconcile.Registry, opts ...Option) *Engine {
	e := &Engine{
		estimator: est,
		registry:  reg,
		interval:  constants.DefaultReconcileInterval,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.estimator == nil {
		e.estimator = estimator.New()
	}
	if e.registry == nil {
		e.registry = reconcile.NewRegistry()
	}
	e.limiter = rate.NewLimiter(rate.Every(e.interval), 1)
	return e
}

func (e *Engine) Estimator() *estimator.Estimator { return e.estimator }
func (e *Engine) Registry() *reconcile.Registry   { return e.registry }

// begin claims the scan slot. Requests arriving during a scan are dropped,
// not queued: the next scan recomputes everything from fresh inputs anyway.
func (e *Engine) begin() error {
	if !e.scanning.CompareAndSwap(false, true) {
		return ErrScanInProgress
	}
	return nil
}

func (e *Engine) end() { e.scanning.Store(false) }

// DayInput is the snapshot needed to scan one day.
type DayInput struct {
	Date   time.Time
	Busy   []models.Interval
	Tasks  []models.Task
	Config scheduler.Config
}

func candidates(tasks []models.Task) []models.Task {
	var out []models.Task
	for _, t := range tasks {
		if t.Schedulable() {
			out = append(out, t)
		}
	}
	return out
}

// ScanDay produces suggestions for one day. It returns a complete plan or an
// error, never a partial plan.
func (e *Engine) ScanDay(in DayInput) (models.DayPlan, error) {
	if err := e.begin(); err != nil {
		return models.DayPlan{}, err
	}
	defer e.end()

	if in.Date.IsZero() {
		return models.DayPlan{}, fmt.Errorf("scan date is required")
	}
	now := e.now().In(in.Config.Zone())
	day := utils.StartOfDay(in.Date.In(in.Config.Zone()))

	var slots []models.FreeSlot
	if req, ok := in.Config.DayRequest(day, in.Busy, now); ok {
		slots = scheduler.FindSlots(req)
	}
	tasks := scheduler.Prioritize(candidates(in.Tasks), now)

	plan := scheduler.Match(scheduler.MatchRequest{
		Date:      day,
		Tasks:     tasks,
		Slots:     slots,
		Options:   in.Config.MatchOptions(),
		Estimator: e.estimator,
	})
	plan.GeneratedAt = now

	logger.Info("Scanned day", "date", plan.Date, "slots", len(slots), "tasks", len(tasks),
		"suggestions", len(plan.Suggestions), "residual", len(plan.Residual))
	return plan, nil
}

// WeekInput is the snapshot needed to distribute tasks over a week.
type WeekInput struct {
	Date   time.Time // any day of the week
	Busy   []models.Interval
	Tasks  []models.Task
	Config scheduler.Config
}

// ScanWeek spreads tasks over the remaining working days of the Monday-start
// week containing in.Date.
func (e *Engine) ScanWeek(in WeekInput) (models.WeeklyPlan, error) {
	if err := e.begin(); err != nil {
		return models.WeeklyPlan{}, err
	}
	defer e.end()

	if in.Date.IsZero() {
		return models.WeeklyPlan{}, fmt.Errorf("scan date is required")
	}
	now := e.now().In(in.Config.Zone())
	start := utils.StartOfWeek(in.Date.In(in.Config.Zone()))

	var days []scheduler.DayCapacity
	for i := 0; i < 7; i++ {
		day := utils.AddDays(start, i)
		req, ok := in.Config.DayRequest(day, in.Busy, now)
		if !ok {
			continue
		}
		days = append(days, scheduler.Capacity(day, scheduler.FindSlots(req)))
	}

	plan := scheduler.DistributeWeek(scheduler.WeekRequest{
		Start:     start,
		Days:      days,
		Tasks:     candidates(in.Tasks),
		Now:       now,
		Options:   in.Config.MatchOptions(),
		Estimator: e.estimator,
	})

	logger.Info("Scanned week", "start", plan.Start, "days", len(plan.Days), "unassigned", len(plan.Unassigned))
	return plan, nil
}

// Reconcile runs a pass unless one ran less than the reconcile interval ago,
// in which case it returns ErrThrottled and changes nothing.
func (e *Engine) Reconcile(states map[string]models.TaskState, snapshot []models.ExternalEvent) (reconcile.Result, error) {
	if !e.limiter.AllowN(e.now(), 1) {
		return reconcile.Result{}, ErrThrottled
	}
	return e.ReconcileNow(states, snapshot), nil
}

// ReconcileNow runs a pass regardless of the rate limit.
func (e *Engine) ReconcileNow(states map[string]models.TaskState, snapshot []models.ExternalEvent) reconcile.Result {
	res := reconcile.Reconcile(e.registry, states, snapshot, e.now())
	logger.Info("Reconciled calendar", "events", len(snapshot), "transitions", len(res.Transitions),
		"moves", len(res.Moves), "conflicts", len(res.Conflicts), "failures", len(res.Failures))
	return res
}
