package system

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/dayfill/internal/backup"
	"github.com/julianstephens/dayfill/internal/cli"
	"github.com/julianstephens/dayfill/internal/models"
	"github.com/julianstephens/dayfill/internal/utils"
)

type DoctorCmd struct{}

type outcome int

const (
	outcomeOK outcome = iota
	outcomeWarn
	outcomeFail
	outcomeSkipped
)

func report(name string, err error, warnOnly bool) outcome {
	switch {
	case err == nil:
		fmt.Printf("✓ %s: OK\n", name)
		return outcomeOK
	case warnOnly:
		fmt.Printf("⚠ %s: WARNING\n", name)
		fmt.Printf("   %v\n", err)
		return outcomeWarn
	}
	fmt.Printf("❌ %s: FAIL\n", name)
	fmt.Printf("   Error: %v\n", err)
	return outcomeFail
}

func skip(name, why string) outcome {
	fmt.Printf("⊘ %s: SKIPPED (%s)\n", name, why)
	return outcomeSkipped
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	var results []outcome
	results = append(results, report("Configuration", ctx.Config.Validate(), false))

	dbErr := ctx.Store.Load()
	results = append(results, report("Database reachable", dbErr, false))
	if dbErr == nil {
		results = append(results,
			report("Settings", checkSettings(ctx), false),
			report("Task integrity", checkTasks(ctx), false),
			report("Tracked events", checkTracked(ctx), false),
		)
	} else {
		results = append(results,
			skip("Settings", "database not reachable"),
			skip("Task integrity", "database not reachable"),
			skip("Tracked events", "database not reachable"),
		)
	}

	results = append(results, report("Calendars readable", checkCalendars(ctx), false))
	if ctx.Store.IsSQLite() {
		results = append(results, report("Backups present", checkBackups(ctx), true))
	} else {
		results = append(results, skip("Backups present", "PostgreSQL manages its own backups"))
	}

	fmt.Println()
	for _, r := range results {
		if r == outcomeFail {
			fmt.Println("Diagnostics completed with errors.")
			return errors.New("one or more health checks failed")
		}
	}
	fmt.Println("All diagnostics passed!")
	return nil
}

func checkSettings(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return err
	}
	if !utils.ValidateTimezone(settings.Timezone) {
		return fmt.Errorf("unknown timezone %q", settings.Timezone)
	}
	_, err = ctx.SchedulerConfig()
	return err
}

func checkTasks(ctx *cli.Context) error {
	tasks, err := ctx.Store.GetTasks()
	if err != nil {
		return err
	}
	var problems []error
	for _, t := range tasks {
		if _, err := models.ParseTaskState(string(t.State)); err != nil {
			problems = append(problems, fmt.Errorf("task %s: %w", t.ID, err))
		}
		if (t.ScheduledStart == nil) != (t.ScheduledEnd == nil) {
			problems = append(problems, fmt.Errorf("task %s has half a schedule", t.ID))
		}
		if t.ScheduledStart != nil && t.ScheduledEnd != nil && !t.ScheduledEnd.After(*t.ScheduledStart) {
			problems = append(problems, fmt.Errorf("task %s ends before it starts", t.ID))
		}
	}
	return errors.Join(problems...)
}

// checkTracked flags active records whose task is no longer in a tracked state.
func checkTracked(ctx *cli.Context) error {
	records, err := ctx.Store.GetTrackedEvents()
	if err != nil {
		return err
	}
	var problems []error
	for _, rec := range records {
		if !rec.Active {
			continue
		}
		t, err := ctx.Store.GetTask(rec.TaskID)
		if err != nil {
			problems = append(problems, fmt.Errorf("tracked event %s: %w", rec.ID, err))
			continue
		}
		if !t.State.IsTracked() {
			problems = append(problems, fmt.Errorf("task %s is %s but still tracked; run 'dayfill reconcile'", t.ID, t.State))
		}
	}
	return errors.Join(problems...)
}

func checkCalendars(ctx *cli.Context) error {
	now := time.Now()
	from := utils.StartOfDay(now)
	_, err := ctx.Snapshot(from, utils.AddDays(from, 1), now.Location())
	return err
}

func checkBackups(ctx *cli.Context) error {
	mgr := backup.NewManager(ctx.Store.GetConfigPath())
	backups, err := mgr.List()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found in %s; run 'dayfill backup create'", mgr.Dir())
	}
	if age := time.Since(backups[0].Timestamp); age > 7*24*time.Hour {
		return fmt.Errorf("latest backup is %d days old", int(age.Hours()/24))
	}
	return nil
}
