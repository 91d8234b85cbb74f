package tasks

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/julianstephens/dayfill/internal/cli"
	"github.com/julianstephens/dayfill/internal/models"
	"github.com/julianstephens/dayfill/internal/utils"
)

type TaskAddCmd struct {
	Title    string `arg:"" help:"Task title."`
	Notes    string `short:"n" help:"Notes. A bracketed hint like [45m] or [1h30m] sets the duration."`
	Priority string `short:"p" help:"Priority (high|medium|low|none)." default:"none"`
	Due      string `short:"d" help:"Due date (YYYY-MM-DD, today or tomorrow)."`
	List     string `short:"l" help:"List the task belongs to. Durations are learned per list."`
	Energy   string `short:"e" help:"Energy the task needs (high|medium|low|none)." default:"none"`
}

func (c *TaskAddCmd) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("title must not be empty")
	}
	if _, err := models.ParsePriority(c.Priority); err != nil {
		return err
	}
	if _, err := models.ParseEnergyLevel(c.Energy); err != nil {
		return err
	}
	return nil
}

func (c *TaskAddCmd) Run(ctx *cli.Context) error {
	cfg, err := ctx.SchedulerConfig()
	if err != nil {
		return err
	}
	now := ctx.Now().In(cfg.Zone())

	priority, _ := models.ParsePriority(c.Priority)
	energy, _ := models.ParseEnergyLevel(c.Energy)

	task := models.Task{
		ID:        uuid.New().String(),
		Title:     strings.TrimSpace(c.Title),
		Notes:     c.Notes,
		Priority:  priority,
		List:      strings.TrimSpace(c.List),
		Energy:    energy,
		State:     models.StatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if c.Due != "" {
		due, err := utils.ResolveDate(c.Due, now)
		if err != nil {
			return fmt.Errorf("invalid due date: %w", err)
		}
		task.DueDate = &due
	}

	if err := ctx.Store.AddTask(task); err != nil {
		return err
	}

	est, src := ctx.Engine.Estimator().Estimate(task, cfg.DefaultDuration)
	fmt.Printf("Added task: %s (ID: %s, estimate %s from %s)\n", task.Title, task.ID, cli.FormatDuration(est), src)
	return nil
}
