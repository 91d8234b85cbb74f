package tasks

import (
	"fmt"

	"github.com/julianstephens/dayfill/internal/cli"
	"github.com/julianstephens/dayfill/internal/constants"
	"github.com/julianstephens/dayfill/internal/models"
)

type TaskListCmd struct {
	State   []string `short:"s" help:"Only show tasks in these states." sep:","`
	ShowIDs bool     `help:"Show full task IDs." name:"show-ids"`
}

func (c *TaskListCmd) Run(ctx *cli.Context) error {
	var states []models.TaskState
	for _, s := range c.State {
		st, err := models.ParseTaskState(s)
		if err != nil {
			return err
		}
		states = append(states, st)
	}

	tasks, err := ctx.Store.GetTasks(states...)
	if err != nil {
		return fmt.Errorf("failed to get tasks: %w", err)
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks found")
		return nil
	}

	cfg, err := ctx.SchedulerConfig()
	if err != nil {
		return err
	}
	loc := cfg.Zone()

	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		id := cli.ShortID(t.ID)
		if c.ShowIDs {
			id = t.ID
		}
		due := ""
		if t.DueDate != nil {
			due = t.DueDate.In(loc).Format(constants.DateFormat)
		}
		scheduled := ""
		if t.ScheduledStart != nil && t.ScheduledEnd != nil {
			scheduled = t.ScheduledStart.In(loc).Format(constants.DateFormat) + " " +
				cli.FormatSpan(*t.ScheduledStart, *t.ScheduledEnd, loc)
		}
		est, src := ctx.Engine.Estimator().Estimate(t, cfg.DefaultDuration)
		rows = append(rows, []string{
			id, t.Title, string(t.State), string(t.Priority), due, t.List, t.Energy.String(),
			fmt.Sprintf("%s (%s)", cli.FormatDuration(est), src), scheduled,
		})
	}

	fmt.Print(cli.RenderTable(
		[]string{"ID", "TITLE", "STATE", "PRIORITY", "DUE", "LIST", "ENERGY", "ESTIMATE", "SCHEDULED"},
		rows,
	))
	return nil
}
