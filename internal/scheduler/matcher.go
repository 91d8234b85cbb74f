package scheduler

import (
	"sort"
	"time"

	"github.com/julianstephens/dayfill/internal/constants"
	"github.com/julianstephens/dayfill/internal/logger"
	"github.com/julianstephens/dayfill/internal/models"
)

// Estimator supplies task duration estimates to the matcher and distributor.
type Estimator interface {
	Estimate(task models.Task, fallback time.Duration) (time.Duration, models.DurationSource)
}

// Options are the SlotMatcher settings.
type Options struct {
	MatchEnergy     bool
	Preference      models.SlotPreference
	MaxSuggestions  int // zero means no cap
	MinimumSlot     time.Duration
	DefaultDuration time.Duration
}

// MatchRequest is the input of one SlotMatcher pass. Tasks must already be
// in priority order. Slots are copied; the caller's slice is not modified.
type MatchRequest struct {
	Date      time.Time
	Tasks     []models.Task
	Slots     []models.FreeSlot
	Options   Options
	Estimator Estimator
}

func estimate(est Estimator, task models.Task, opts Options) (time.Duration, models.DurationSource) {
	fallback := opts.DefaultDuration
	if fallback <= 0 {
		fallback = time.Duration(constants.DefaultTaskDurationMin) * time.Minute
	}
	if est == nil {
		return fallback, models.DurationSourceDefault
	}
	d, src := est.Estimate(task, fallback)
	if d <= 0 {
		return fallback, models.DurationSourceDefault
	}
	return d, src
}

type matcher struct {
	opts       Options
	pool       []models.FreeSlot
	descending bool
}

// order returns the indexes of non-empty pool slots in preference order.
func (m *matcher) order() []int {
	idx := make([]int, 0, len(m.pool))
	for i, s := range m.pool {
		if s.Duration() > 0 {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		sa, sb := m.pool[idx[a]].Start, m.pool[idx[b]].Start
		if m.descending {
			return sa.After(sb)
		}
		return sa.Before(sb)
	})
	return idx
}

type candidate struct {
	index  int
	source models.EnergySource
}

// candidates returns the ordered slots for task. With energy matching on,
// only slots whose energy matches the task are offered; the full list is
// used as fallback only when no matching slot has time left.
func (m *matcher) candidates(task models.Task) []candidate {
	order := m.order()
	out := make([]candidate, 0, len(order))
	if m.opts.MatchEnergy && task.Energy != models.EnergyNone {
		for _, i := range order {
			if m.pool[i].Energy == task.Energy {
				out = append(out, candidate{index: i, source: models.EnergySourceMatched})
			}
		}
		if len(out) > 0 {
			return out
		}
		for _, i := range order {
			out = append(out, candidate{index: i, source: models.EnergySourceFallback})
		}
		return out
	}
	for _, i := range order {
		out = append(out, candidate{index: i, source: models.EnergySourceAny})
	}
	return out
}

// take consumes d from the start of pool slot i.
func (m *matcher) take(i int, d time.Duration) (time.Time, time.Time) {
	start := m.pool[i].Start
	end := start.Add(d)
	m.pool[i].Start = end
	return start, end
}

// Match assigns tasks to free slots greedily and deterministically. A task
// that fits a single slot gets one suggestion; otherwise it is split across
// slots in preference order and any remainder is reported as carry-over.
// Tasks past MaxSuggestions are reported with a daily limit residual.
func Match(req MatchRequest) models.DayPlan {
	plan := models.DayPlan{
		Date:        req.Date.Format(constants.DateFormat),
		Suggestions: []models.Suggestion{},
		Residual:    []models.Residual{},
	}

	m := &matcher{
		opts:       req.Options,
		pool:       make([]models.FreeSlot, len(req.Slots)),
		descending: req.Options.Preference == models.PreferAfternoonFirst,
	}
	copy(m.pool, req.Slots)
	sort.SliceStable(m.pool, func(i, j int) bool { return m.pool[i].Start.Before(m.pool[j].Start) })

	scheduled := 0
	for _, task := range req.Tasks {
		dur, src := estimate(req.Estimator, task, req.Options)

		if req.Options.MaxSuggestions > 0 && scheduled >= req.Options.MaxSuggestions {
			plan.Residual = append(plan.Residual, models.Residual{
				TaskID: task.ID, Estimated: dur, CarryOver: dur, Reason: models.ResidualDailyLimit,
			})
			continue
		}

		blocks, remaining := m.place(task, dur, src)
		if len(blocks) == 0 {
			logger.Debug("No capacity for task", "task", task.ID, "duration", dur)
			plan.Residual = append(plan.Residual, models.Residual{
				TaskID: task.ID, Estimated: dur, CarryOver: dur, Reason: models.ResidualNoCapacity,
			})
			continue
		}

		plan.Suggestions = append(plan.Suggestions, blocks...)
		scheduled++
		if remaining > 0 {
			plan.Residual = append(plan.Residual, models.Residual{
				TaskID: task.ID, Estimated: dur, CarryOver: remaining, Reason: models.ResidualPartial,
			})
		}
		if req.Options.Preference == models.PreferSpreadEvenly {
			m.descending = !m.descending
		}
	}

	return plan
}

// place allocates one task and returns its suggestions plus the unplaced remainder.
func (m *matcher) place(task models.Task, dur time.Duration, src models.DurationSource) ([]models.Suggestion, time.Duration) {
	cands := m.candidates(task)

	for _, c := range cands {
		if m.pool[c.index].Duration() >= dur {
			start, end := m.take(c.index, dur)
			return []models.Suggestion{{
				TaskID:         task.ID,
				Start:          start,
				End:            end,
				EnergySource:   c.source,
				DurationSource: src,
			}}, 0
		}
	}

	var blocks []models.Suggestion
	remaining := dur
	for _, c := range cands {
		if remaining <= 0 {
			break
		}
		alloc := m.pool[c.index].Duration()
		if alloc > remaining {
			alloc = remaining
		}
		if alloc <= 0 || alloc < m.opts.MinimumSlot {
			continue
		}
		start, end := m.take(c.index, alloc)
		blocks = append(blocks, models.Suggestion{
			TaskID:         task.ID,
			Start:          start,
			End:            end,
			BlockIndex:     len(blocks) + 1,
			EnergySource:   c.source,
			DurationSource: src,
		})
		remaining -= alloc
	}
	for i := range blocks {
		blocks[i].TotalBlocks = len(blocks)
	}
	return blocks, remaining
}
