package settings

import (
	"fmt"
	"os"

	"github.com/julianstephens/dayfill/internal/cli"
	"github.com/julianstephens/dayfill/internal/config"
	"github.com/julianstephens/dayfill/internal/utils"
)

type CalendarListCmd struct{}

func (c *CalendarListCmd) Run(ctx *cli.Context) error {
	if len(ctx.Config.Calendars) == 0 {
		fmt.Printf("No calendars configured. Add one with 'dayfill calendar add <file.ics>'.\n")
		return nil
	}
	rows := make([][]string, 0, len(ctx.Config.Calendars))
	for _, cal := range ctx.Config.Calendars {
		status := "ok"
		if path, err := utils.ExpandPath(cal.Path); err != nil {
			status = err.Error()
		} else if _, err := os.Stat(path); err != nil {
			status = "missing"
		}
		rows = append(rows, []string{cal.ID, cal.Name, cal.Path, status})
	}
	fmt.Print(cli.RenderTable([]string{"ID", "NAME", "PATH", "STATUS"}, rows))
	if export, err := ctx.Config.ExportPath(); err == nil {
		fmt.Println(cli.MutedStyle.Render("Approved suggestions are written to " + export))
	}
	return nil
}

type CalendarAddCmd struct {
	Path string `arg:"" help:"ICS file to read busy time from." type:"path"`
	Name string `short:"n" help:"Display name."`
	ID   string `help:"Identifier. Generated when empty."`
}

func (c *CalendarAddCmd) Run(ctx *cli.Context) error {
	cfg := *ctx.Config
	cfg.Calendars = append(append([]config.CalendarConfig{}, ctx.Config.Calendars...),
		config.CalendarConfig{ID: c.ID, Name: c.Name, Path: c.Path})
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(ctx.ConfigPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	*ctx.Config = cfg
	added := cfg.Calendars[len(cfg.Calendars)-1]
	fmt.Printf("Added calendar %s (%s)\n", added.ID, added.Path)
	return nil
}

type CalendarRemoveCmd struct {
	ID string `arg:"" help:"Calendar identifier."`
}

func (c *CalendarRemoveCmd) Run(ctx *cli.Context) error {
	cfg := *ctx.Config
	cfg.Calendars = nil
	for _, cal := range ctx.Config.Calendars {
		if cal.ID != c.ID {
			cfg.Calendars = append(cfg.Calendars, cal)
		}
	}
	if len(cfg.Calendars) == len(ctx.Config.Calendars) {
		return fmt.Errorf("no calendar with id %q", c.ID)
	}
	if err := cfg.Save(ctx.ConfigPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	*ctx.Config = cfg
	fmt.Printf("Removed calendar %s\n", c.ID)
	return nil
}
