package tasks

import (
	"fmt"
	"strings"

	"github.com/julianstephens/dayfill/internal/cli"
	"github.com/julianstephens/dayfill/internal/models"
)

// findTask accepts a full id or a unique id prefix as shown by task list.
func findTask(ctx *cli.Context, ref string) (models.Task, error) {
	if t, err := ctx.Store.GetTask(ref); err == nil {
		return t, nil
	}
	all, err := ctx.Store.GetTasks()
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to get tasks: %w", err)
	}
	var matches []models.Task
	for _, t := range all {
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return models.Task{}, fmt.Errorf("no task matches %q", ref)
	case 1:
		return matches[0], nil
	}
	return models.Task{}, fmt.Errorf("%q matches %d tasks, use a longer prefix", ref, len(matches))
}
