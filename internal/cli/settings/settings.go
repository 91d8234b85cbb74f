package settings

import (
	"fmt"
	"sort"

	"github.com/julianstephens/dayfill/internal/cli"
	"github.com/julianstephens/dayfill/internal/models"
	"github.com/julianstephens/dayfill/internal/scheduler"
)

type SettingsCmd struct {
	Set map[string]string `short:"s" help:"Set a value, e.g. --set buffer_min=15. Lists and windows take JSON." placeholder:"KEY=VALUE"`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if len(c.Set) == 0 {
		return list(settings)
	}

	updated, err := applyOverrides(settings, c.Set)
	if err != nil {
		return err
	}
	if err := ctx.Store.SaveSettings(updated); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	fmt.Println("Settings updated successfully.")
	return nil
}

func list(settings models.Settings) error {
	m, err := models.SettingsToMap(settings)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, m[k]})
	}
	fmt.Print(cli.RenderTable([]string{"SETTING", "VALUE"}, rows))
	return nil
}

// applyOverrides sets raw values on a copy of settings and rejects unknown
// keys and anything the scheduler would refuse.
func applyOverrides(settings models.Settings, set map[string]string) (models.Settings, error) {
	m, err := models.SettingsToMap(settings)
	if err != nil {
		return models.Settings{}, err
	}
	for k, v := range set {
		if _, ok := m[k]; !ok {
			return models.Settings{}, fmt.Errorf("unknown setting %q", k)
		}
		m[k] = v
	}
	updated, err := models.MapToSettings(m)
	if err != nil {
		return models.Settings{}, err
	}
	if _, err := scheduler.ConfigFromSettings(updated); err != nil {
		return models.Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return updated, nil
}
