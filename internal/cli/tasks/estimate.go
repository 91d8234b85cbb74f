package tasks

import (
	"fmt"

	"github.com/julianstephens/dayfill/internal/cli"
)

type EstimateCmd struct {
	Task string `short:"t" help:"Explain the estimate of one task."`
}

func (c *EstimateCmd) Run(ctx *cli.Context) error {
	if c.Task != "" {
		cfg, err := ctx.SchedulerConfig()
		if err != nil {
			return err
		}
		task, err := findTask(ctx, c.Task)
		if err != nil {
			return err
		}
		d, src := ctx.Engine.Estimator().Estimate(task, cfg.DefaultDuration)
		fmt.Printf("%s: %s (source: %s)\n", task.Title, cli.FormatDuration(d), src)
		return nil
	}

	groups := ctx.Engine.Estimator().Snapshots()
	if len(groups) == 0 {
		fmt.Println("No completions recorded yet.")
		return nil
	}
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []string{
			g.Key, cli.FormatDuration(g.Average), fmt.Sprintf("%d", len(g.Samples)),
			g.UpdatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	fmt.Print(cli.RenderTable([]string{"GROUP", "AVERAGE", "SAMPLES", "UPDATED"}, rows))
	return nil
}
