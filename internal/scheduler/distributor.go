package scheduler

import (
	"time"

	"github.com/julianstephens/dayfill/internal/constants"
	"github.com/julianstephens/dayfill/internal/logger"
	"github.com/julianstephens/dayfill/internal/models"
	"github.com/julianstephens/dayfill/internal/utils"
)

// DayCapacity summarizes the free time of one working day.
type DayCapacity struct {
	Date       time.Time
	Free       time.Duration
	HighEnergy time.Duration
}

// Capacity sums a day's free slots, tracking high-energy time separately.
func Capacity(date time.Time, slots []models.FreeSlot) DayCapacity {
	c := DayCapacity{Date: utils.StartOfDay(date)}
	for _, s := range slots {
		c.Free += s.Duration()
		if s.Energy == models.EnergyHigh {
			c.HighEnergy += s.Duration()
		}
	}
	return c
}

// WeekRequest is the input of the weekly distributor. Days are the working
// days of the week in calendar order.
type WeekRequest struct {
	Start     time.Time
	Days      []DayCapacity
	Tasks     []models.Task
	Now       time.Time
	Options   Options
	Estimator Estimator
}

type dayState struct {
	cap       DayCapacity
	remaining time.Duration
	high      time.Duration
	count     int
	out       models.DayAssignment
}

func (d *dayState) assign(a models.Assignment) {
	d.out.Assignments = append(d.out.Assignments, a)
	d.out.Used += a.Duration
	d.count++
	if d.remaining > a.Duration {
		d.remaining -= a.Duration
	} else {
		d.remaining = 0
	}
	if d.out.Used > d.out.Capacity {
		d.out.OverCommitted = true
	}
}

// DistributeWeek spreads tasks over the week's capacity. Tasks with a due date
// go to the earliest day on or before the due date with enough room, or are
// forced onto the due day and flag it over-committed. Overdue tasks take the
// earliest day with room and over-commit the first day only when none has. Dateless tasks go to the
// earliest day with room and an open suggestion slot; high-energy tasks
// prefer days whose high-energy time is not used up yet.
func DistributeWeek(req WeekRequest) models.WeeklyPlan {
	plan := models.WeeklyPlan{
		Start:      utils.StartOfDay(req.Start).Format(constants.DateFormat),
		Days:       []models.DayAssignment{},
		Unassigned: []models.Residual{},
	}

	days := make([]*dayState, len(req.Days))
	for i, c := range req.Days {
		days[i] = &dayState{
			cap:       c,
			remaining: c.Free,
			high:      c.HighEnergy,
			out: models.DayAssignment{
				Date:        c.Date.Format(constants.DateFormat),
				Capacity:    c.Free,
				Assignments: []models.Assignment{},
			},
		}
	}

	ordered := Prioritize(req.Tasks, req.Now)
	var dateless []models.Task
	for _, task := range ordered {
		if task.DueDate == nil {
			dateless = append(dateless, task)
			continue
		}
		dur, src := estimate(req.Estimator, task, req.Options)
		if len(days) == 0 {
			plan.Unassigned = append(plan.Unassigned, noCapacity(task.ID, dur))
			continue
		}
		pinDated(&plan, days, task, dur, src)
	}

	for _, task := range dateless {
		dur, src := estimate(req.Estimator, task, req.Options)
		placeDateless(&plan, days, task, dur, src, req.Options.MaxSuggestions)
	}

	for _, d := range days {
		plan.Days = append(plan.Days, d.out)
	}
	return plan
}

func noCapacity(taskID string, dur time.Duration) models.Residual {
	return models.Residual{TaskID: taskID, Estimated: dur, CarryOver: dur, Reason: models.ResidualNoCapacity}
}

func pinDated(plan *models.WeeklyPlan, days []*dayState, task models.Task, dur time.Duration, src models.DurationSource) {
	due := utils.StartOfDay(task.DueDate.In(days[0].cap.Date.Location()))
	// Overdue tasks are due as soon as possible: any day of the week will do.
	overdue := due.Before(days[0].cap.Date)

	for _, d := range days {
		if !overdue && d.cap.Date.After(due) {
			break
		}
		if d.remaining >= dur {
			d.assign(models.Assignment{TaskID: task.ID, Duration: dur, DurationSource: src, Pinned: true})
			return
		}
	}

	last := days[len(days)-1].cap.Date
	if due.After(last) {
		// No room before a due date past this week; leave it to next week's plan.
		plan.Unassigned = append(plan.Unassigned, noCapacity(task.ID, dur))
		return
	}

	target := days[0]
	for _, d := range days {
		if d.cap.Date.After(due) {
			break
		}
		target = d
	}
	logger.Debug("Over-committing day for dated task", "task", task.ID, "day", target.out.Date)
	target.assign(models.Assignment{TaskID: task.ID, Duration: dur, DurationSource: src, Pinned: true})
	target.out.OverCommitted = true
}

func placeDateless(plan *models.WeeklyPlan, days []*dayState, task models.Task, dur time.Duration, src models.DurationSource, limit int) {
	open := func(d *dayState) bool { return limit <= 0 || d.count < limit }

	var chosen *dayState
	if task.Energy == models.EnergyHigh {
		for _, d := range days {
			if open(d) && d.remaining >= dur && d.high > 0 {
				chosen = d
				break
			}
		}
	}
	if chosen == nil {
		for _, d := range days {
			if open(d) && d.remaining >= dur {
				chosen = d
				break
			}
		}
	}
	if chosen != nil {
		if task.Energy == models.EnergyHigh {
			chosen.high -= min(chosen.high, dur)
		}
		chosen.assign(models.Assignment{TaskID: task.ID, Duration: dur, DurationSource: src})
		return
	}

	// Nothing holds the whole task: take what the earliest open day has left.
	limited := false
	for _, d := range days {
		if d.remaining <= 0 {
			continue
		}
		if !open(d) {
			limited = true
			continue
		}
		placed := d.remaining
		carry := dur - placed
		if task.Energy == models.EnergyHigh {
			d.high -= min(d.high, placed)
		}
		d.assign(models.Assignment{TaskID: task.ID, Duration: placed, DurationSource: src, CarryOver: carry})
		plan.Unassigned = append(plan.Unassigned, models.Residual{
			TaskID: task.ID, Estimated: dur, CarryOver: carry, Reason: models.ResidualPartial,
		})
		return
	}

	reason := models.ResidualNoCapacity
	if limited {
		reason = models.ResidualDailyLimit
	}
	plan.Unassigned = append(plan.Unassigned, models.Residual{
		TaskID: task.ID, Estimated: dur, CarryOver: dur, Reason: reason,
	})
}
