package tasks

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/dayfill/internal/cli"
	"github.com/julianstephens/dayfill/internal/estimator"
	"github.com/julianstephens/dayfill/internal/logger"
	"github.com/julianstephens/dayfill/internal/models"
)

type TaskCompleteCmd struct {
	ID      string        `arg:"" help:"Task ID or unique prefix."`
	Actual  time.Duration `short:"a" help:"Time actually spent (e.g. 45m). Defaults to the planned time of all blocks."`
	Partial bool          `help:"Mark the task partially done instead of completed."`
}

func (c *TaskCompleteCmd) Run(ctx *cli.Context) error {
	task, err := findTask(ctx, c.ID)
	if err != nil {
		return err
	}

	actual := c.Actual
	if actual == 0 {
		actual = task.PlannedDuration()
	}
	if actual < 0 {
		return errors.New("actual duration must be positive")
	}

	to := models.StateCompleted
	if c.Partial {
		to = models.StatePartiallyDone
	}
	now := ctx.Now()
	cs, err := ctx.ChangeState(&task, to, now)
	if err != nil {
		return err
	}
	if err := ctx.Store.Apply(cs); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	// Partial completions say little about how long the whole task takes.
	if actual > 0 && !c.Partial {
		if _, err := ctx.Engine.Estimator().RecordTask(task, actual); err != nil {
			return err
		}
		for _, key := range estimator.GroupKeys(task) {
			if err := ctx.Store.AddDurationSample(key, actual, now); err != nil {
				return fmt.Errorf("failed to save duration sample: %w", err)
			}
		}
		logger.Info("Recorded completion", "task", task.ID, "actual", actual, "groups", len(estimator.GroupKeys(task)))
	}

	fmt.Printf("%s: %s", task.Title, to)
	if actual > 0 {
		fmt.Printf(" in %s", cli.FormatDuration(actual))
	}
	fmt.Println()
	return nil
}
