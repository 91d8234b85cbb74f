package plans

import (
	"fmt"

	"github.com/julianstephens/dayfill/internal/cli"
	"github.com/julianstephens/dayfill/internal/engine"
	"github.com/julianstephens/dayfill/internal/models"
	"github.com/julianstephens/dayfill/internal/utils"
)

type WeekCmd struct {
	Date     string   `arg:"" optional:"" help:"Any day of the week to plan (YYYY-MM-DD, today or tomorrow)." default:"today"`
	Calendar []string `short:"c" help:"Extra ICS files to read for busy time." type:"path"`
}

func (c *WeekCmd) Run(ctx *cli.Context) error {
	cfg, err := ctx.SchedulerConfig()
	if err != nil {
		return err
	}
	loc := cfg.Zone()
	day, err := utils.ResolveDate(c.Date, ctx.Now().In(loc))
	if err != nil {
		return err
	}
	start := utils.StartOfWeek(day)

	tasks, err := ctx.Store.GetTasks(models.StatePending)
	if err != nil {
		return fmt.Errorf("failed to get tasks: %w", err)
	}
	snap, err := ctx.Snapshot(start, utils.AddDays(start, 7), loc, c.Calendar...)
	if err != nil {
		return err
	}

	plan, err := ctx.Engine.ScanWeek(engine.WeekInput{Date: day, Busy: snap.Busy, Tasks: tasks, Config: cfg})
	if err != nil {
		return err
	}
	printWeek(plan, titles(tasks))
	return nil
}
