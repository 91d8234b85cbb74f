// Package estimator learns task durations from completion history.
//
// Every group key keeps a bounded window of the most recent completions.
// Groups are keyed by list name and by list plus title keyword, so a
// recurring "Standup notes" task in the "Work" list learns both "Work" and
// "Work#standup".
package estimator

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/julianstephens/dayfill/internal/constants"
	"github.com/julianstephens/dayfill/internal/models"
)

var ErrInvalidSample = errors.New("invalid duration sample")

type window struct {
	samples [constants.DurationWindowSize]time.Duration
	next    int
	count   int
	sum     time.Duration
}

func (w *window) push(d time.Duration) {
	if w.count == len(w.samples) {
		w.sum -= w.samples[w.next]
	} else {
		w.count++
	}
	w.samples[w.next] = d
	w.sum += d
	w.next = (w.next + 1) % len(w.samples)
}

func (w *window) average() time.Duration {
	if w.count == 0 {
		return 0
	}
	return w.sum / time.Duration(w.count)
}

// ordered returns the samples oldest first.
func (w *window) ordered() []time.Duration {
	out := make([]time.Duration, 0, w.count)
	start := (w.next - w.count + len(w.samples)) % len(w.samples)
	for i := 0; i < w.count; i++ {
		out = append(out, w.samples[(start+i)%len(w.samples)])
	}
	return out
}

type group struct {
	mu        sync.RWMutex
	win       window
	updatedAt time.Time
}

func (g *group) snapshot(key string) models.DurationEstimate {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.estimateLocked(key)
}

// estimateLocked builds the group's estimate. The caller holds g.mu.
func (g *group) estimateLocked(key string) models.DurationEstimate {
	return models.DurationEstimate{
		Key:       key,
		Samples:   g.win.ordered(),
		Average:   g.win.average(),
		UpdatedAt: g.updatedAt,
	}
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithClock overrides the clock used to stamp updates.
func WithClock(now func() time.Time) Option {
	return func(e *Estimator) { e.now = now }
}

// Estimator is safe for concurrent use. Writers to one key never block
// readers or writers of another.
type Estimator struct {
	mu     sync.Mutex
	groups map[string]*group
	now    func() time.Time
}

func New(opts ...Option) *Estimator {
	e := &Estimator{
		groups: make(map[string]*group),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Estimator) lookup(key string, create bool) *group {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, ok := e.groups[key]
	if !ok && create {
		g = &group{}
		e.groups[key] = g
	}
	return g
}

// RecordCompletion appends an actual duration to the group window, evicting
// the oldest sample once the window is full.
func (e *Estimator) RecordCompletion(key string, actual time.Duration) (models.DurationEstimate, error) {
	if key == "" {
		return models.DurationEstimate{}, fmt.Errorf("%w: empty group key", ErrInvalidSample)
	}
	if actual <= 0 {
		return models.DurationEstimate{}, fmt.Errorf("%w: %s for %q", ErrInvalidSample, actual, key)
	}

	g := e.lookup(key, true)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.win.push(actual)
	g.updatedAt = e.now()
	return g.estimateLocked(key), nil
}

// RecordTask records a completion under every group the task belongs to.
func (e *Estimator) RecordTask(task models.Task, actual time.Duration) ([]models.DurationEstimate, error) {
	var out []models.DurationEstimate
	for _, key := range GroupKeys(task) {
		est, err := e.RecordCompletion(key, actual)
		if err != nil {
			return out, err
		}
		out = append(out, est)
	}
	return out, nil
}

// GroupKeys returns the list key then the keyword key of a task, skipping empty ones.
func GroupKeys(task models.Task) []string {
	var keys []string
	if k := ListKey(task.List); k != "" {
		keys = append(keys, k)
	}
	if k := KeywordKey(task.List, Keyword(task.Title)); k != "" {
		keys = append(keys, k)
	}
	return keys
}

// Average returns the mean of the group window, or false when the group has no samples.
func (e *Estimator) Average(key string) (time.Duration, bool) {
	g := e.lookup(key, false)
	if g == nil {
		return 0, false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.win.count == 0 {
		return 0, false
	}
	return g.win.average(), true
}

// Estimate picks a duration for the task, most specific source first:
// a bracketed hint in the notes, the keyword group, the list group, then fallback.
// Learned averages are rounded to the minute.
func (e *Estimator) Estimate(task models.Task, fallback time.Duration) (time.Duration, models.DurationSource) {
	if d, ok := ParseHint(task.Notes); ok {
		return d, models.DurationSourceHint
	}
	if key := KeywordKey(task.List, Keyword(task.Title)); key != "" {
		if avg, ok := e.Average(key); ok {
			return roundMinute(avg), models.DurationSourceKeyword
		}
	}
	if key := ListKey(task.List); key != "" {
		if avg, ok := e.Average(key); ok {
			return roundMinute(avg), models.DurationSourceList
		}
	}
	return fallback, models.DurationSourceDefault
}

func roundMinute(d time.Duration) time.Duration {
	r := d.Round(time.Minute)
	if r < time.Minute {
		return time.Minute
	}
	return r
}

// Snapshot returns the current window of one group.
func (e *Estimator) Snapshot(key string) (models.DurationEstimate, bool) {
	g := e.lookup(key, false)
	if g == nil {
		return models.DurationEstimate{}, false
	}
	return g.snapshot(key), true
}

// Snapshots returns every group sorted by key.
func (e *Estimator) Snapshots() []models.DurationEstimate {
	e.mu.Lock()
	keys := make([]string, 0, len(e.groups))
	groups := make(map[string]*group, len(e.groups))
	for k, g := range e.groups {
		keys = append(keys, k)
		groups[k] = g
	}
	e.mu.Unlock()

	sort.Strings(keys)
	out := make([]models.DurationEstimate, 0, len(keys))
	for _, k := range keys {
		out = append(out, groups[k].snapshot(k))
	}
	return out
}

// Restore replaces the windows of the given groups with persisted history.
// Only the newest samples that fit in the window are kept.
func (e *Estimator) Restore(estimates []models.DurationEstimate) {
	for _, est := range estimates {
		if est.Key == "" {
			continue
		}
		g := e.lookup(est.Key, true)
		g.mu.Lock()
		g.win = window{}
		for _, s := range est.Samples {
			if s > 0 {
				g.win.push(s)
			}
		}
		g.updatedAt = est.UpdatedAt
		g.mu.Unlock()
	}
}
