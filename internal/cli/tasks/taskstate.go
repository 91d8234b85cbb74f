package tasks

import (
	"fmt"

	"github.com/julianstephens/dayfill/internal/cli"
	"github.com/julianstephens/dayfill/internal/models"
)

type TaskStateCmd struct {
	ID    string `arg:"" help:"Task ID or unique prefix."`
	State string `arg:"" help:"Target state (approved, in_progress, awaiting_review, completed, partially_done, rescheduled, skipped, cancelled)."`
}

func (c *TaskStateCmd) Run(ctx *cli.Context) error {
	to, err := models.ParseTaskState(c.State)
	if err != nil {
		return err
	}
	task, err := findTask(ctx, c.ID)
	if err != nil {
		return err
	}

	from := task.State
	cs, err := ctx.ChangeState(&task, to, ctx.Now())
	if err != nil {
		return err
	}
	if err := ctx.Store.Apply(cs); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	fmt.Printf("%s: %s -> %s\n", task.Title, from, to)
	return nil
}

type TaskHistoryCmd struct {
	ID string `arg:"" help:"Task ID or unique prefix."`
}

func (c *TaskHistoryCmd) Run(ctx *cli.Context) error {
	task, err := findTask(ctx, c.ID)
	if err != nil {
		return err
	}
	log, err := ctx.Store.GetTransitions(task.ID)
	if err != nil {
		return fmt.Errorf("failed to get transitions: %w", err)
	}
	if len(log) == 0 {
		fmt.Printf("%s has no recorded transitions\n", task.Title)
		return nil
	}

	rows := make([][]string, 0, len(log))
	for _, tr := range log {
		rows = append(rows, []string{tr.At.Local().Format("2006-01-02 15:04"), string(tr.From), string(tr.To), string(tr.Reason)})
	}
	fmt.Println(task.Title)
	fmt.Print(cli.RenderTable([]string{"AT", "FROM", "TO", "REASON"}, rows))
	return nil
}
