package plans

import (
	"errors"
	"fmt"

	"github.com/julianstephens/dayfill/internal/cli"
	"github.com/julianstephens/dayfill/internal/constants"
	"github.com/julianstephens/dayfill/internal/storage"
	"github.com/julianstephens/dayfill/internal/utils"
)

// ShowCmd prints the last scan saved for a day without rescanning.
type ShowCmd struct {
	Date string `arg:"" optional:"" help:"Day to show (YYYY-MM-DD, today or tomorrow)." default:"today"`
}

func (c *ShowCmd) Run(ctx *cli.Context) error {
	cfg, err := ctx.SchedulerConfig()
	if err != nil {
		return err
	}
	loc := cfg.Zone()
	day, err := utils.ResolveDate(c.Date, ctx.Now().In(loc))
	if err != nil {
		return err
	}
	date := day.Format(constants.DateFormat)

	plan, err := ctx.Store.GetPlan(date)
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Printf("No plan saved for %s. Run 'dayfill scan %s' first.\n", date, date)
		return nil
	}
	if err != nil {
		return err
	}

	tasks, err := ctx.Store.GetTasks()
	if err != nil {
		return fmt.Errorf("failed to get tasks: %w", err)
	}
	printPlan(plan, titles(tasks), loc)
	fmt.Println(cli.MutedStyle.Render("\nGenerated " + plan.GeneratedAt.In(loc).Format("2006-01-02 15:04")))
	return nil
}
