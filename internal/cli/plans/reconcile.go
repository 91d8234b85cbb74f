package plans

import (
	"fmt"

	"github.com/julianstephens/dayfill/internal/cli"
)

type ReconcileCmd struct{}

func (c *ReconcileCmd) Run(ctx *cli.Context) error {
	res, err := ctx.Reconcile(true)
	if err != nil {
		return err
	}
	cfg, err := ctx.SchedulerConfig()
	if err != nil {
		return err
	}
	tasks, err := ctx.Store.GetTasks()
	if err != nil {
		return fmt.Errorf("failed to get tasks: %w", err)
	}
	printReconcile(res, titles(tasks), cfg.Zone())
	return nil
}
