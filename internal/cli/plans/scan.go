package plans

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/dayfill/internal/calendar"
	"github.com/julianstephens/dayfill/internal/cli"
	"github.com/julianstephens/dayfill/internal/engine"
	"github.com/julianstephens/dayfill/internal/logger"
	"github.com/julianstephens/dayfill/internal/models"
	"github.com/julianstephens/dayfill/internal/storage"
	"github.com/julianstephens/dayfill/internal/utils"
)

type ScanCmd struct {
	Date     string   `arg:"" optional:"" help:"Day to scan (YYYY-MM-DD, today or tomorrow)." default:"today"`
	Calendar []string `short:"c" help:"Extra ICS files to read for busy time." type:"path"`
	Accept   bool     `help:"Approve the suggestions and add them to the export calendar."`
	Yes      bool     `short:"y" help:"Do not ask for confirmation."`
}

func (c *ScanCmd) Run(ctx *cli.Context) error {
	cfg, err := ctx.SchedulerConfig()
	if err != nil {
		return err
	}
	loc := cfg.Zone()
	now := ctx.Now().In(loc)
	day, err := utils.ResolveDate(c.Date, now)
	if err != nil {
		return err
	}

	tasks, err := ctx.Store.GetTasks(models.StatePending)
	if err != nil {
		return fmt.Errorf("failed to get tasks: %w", err)
	}
	snap, err := ctx.Snapshot(day, utils.AddDays(day, 1), loc, c.Calendar...)
	if err != nil {
		return err
	}

	plan, err := ctx.Engine.ScanDay(engine.DayInput{Date: day, Busy: snap.Busy, Tasks: tasks, Config: cfg})
	if err != nil {
		return err
	}
	if err := ctx.Store.SavePlan(plan); err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}

	printPlan(plan, titles(tasks), loc)

	if !c.Accept || len(plan.Suggestions) == 0 {
		return nil
	}
	ok, err := cli.Confirm(fmt.Sprintf("Approve %d suggestion(s) for %s?", len(plan.Suggestions), plan.Date), c.Yes)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("Nothing approved.")
		return nil
	}
	approved, err := accept(ctx, plan, tasks, now)
	if err != nil {
		return err
	}
	fmt.Printf("Approved %d task(s)\n", approved)
	return nil
}

func titles(tasks []models.Task) map[string]string {
	out := make(map[string]string, len(tasks))
	for _, t := range tasks {
		out[t.ID] = t.Title
	}
	return out
}

// accept approves every task of the plan, writes its blocks to the export
// calendar and starts tracking the earliest block of each task.
func accept(ctx *cli.Context, plan models.DayPlan, tasks []models.Task, now time.Time) (int, error) {
	exportPath, err := ctx.Config.ExportPath()
	if err != nil {
		return 0, err
	}
	ctx.PerformAutomaticBackup()

	byID := make(map[string]*models.Task, len(tasks))
	for i := range tasks {
		byID[tasks[i].ID] = &tasks[i]
	}

	var (
		items []calendar.ExportItem
		cs    storage.ChangeSet
		seen  = map[string]bool{}
	)
	for _, s := range plan.Suggestions {
		if seen[s.TaskID] {
			continue
		}
		seen[s.TaskID] = true

		task, ok := byID[s.TaskID]
		if !ok || task.State != models.StatePending {
			continue
		}
		blocks := plan.SuggestionsFor(task.ID)
		sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Start.Before(blocks[j].Start) })

		taskItems := make([]calendar.ExportItem, len(blocks))
		for i, b := range blocks {
			taskItems[i] = calendar.ExportItem{
				UID:         uuid.New().String(),
				TaskID:      task.ID,
				Title:       task.Title,
				Notes:       task.Notes,
				Start:       b.Start,
				End:         b.End,
				BlockIndex:  b.BlockIndex,
				TotalBlocks: b.TotalBlocks,
			}
		}

		rec := models.TrackedEvent{
			ID:              uuid.New().String(),
			TaskID:          task.ID,
			ExternalEventID: taskItems[0].UID,
			OriginalStart:   blocks[0].Start,
			OriginalEnd:     blocks[0].End,
			Active:          true,
			UpdatedAt:       now,
		}
		if err := ctx.Engine.Registry().Track(rec); err != nil {
			logger.Warn("Skipping task", "task", task.ID, "error", err)
			continue
		}
		tr, err := task.Transition(models.StateApproved, models.ReasonApproved, now)
		if err != nil {
			ctx.Engine.Registry().Untrack(task.ID)
			logger.Warn("Skipping task", "task", task.ID, "error", err)
			continue
		}
		task.Reschedule(blocks[0].Start, blocks[0].End)
		task.Planned = 0
		for _, b := range blocks {
			task.Planned += b.Duration()
		}

		items = append(items, taskItems...)
		cs.Tasks = append(cs.Tasks, *task)
		cs.Tracked = append(cs.Tracked, rec)
		cs.Transitions = append(cs.Transitions, tr)
	}
	if len(cs.Tasks) == 0 {
		return 0, errors.New("no suggestion could be approved")
	}

	if err := calendar.MergeFile(exportPath, items, now); err != nil {
		return 0, fmt.Errorf("failed to write export calendar: %w", err)
	}
	if err := ctx.Store.Apply(cs); err != nil {
		return 0, fmt.Errorf("failed to save approvals: %w", err)
	}
	logger.Info("Approved suggestions", "date", plan.Date, "tasks", len(cs.Tasks), "events", len(items), "export", exportPath)
	return len(cs.Tasks), nil
}
