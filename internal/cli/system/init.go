package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/dayfill/internal/cli"
)

type InitCmd struct {
	Force bool `help:"Delete an existing SQLite database before initializing."`
	Yes   bool `short:"y" help:"Do not ask for confirmation."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if !ctx.Store.IsSQLite() {
			return fmt.Errorf("--force only applies to SQLite databases")
		}
		dbPath := ctx.Store.GetConfigPath()
		if _, err := os.Stat(dbPath); err == nil {
			ok, err := cli.Confirm(fmt.Sprintf("Delete %s and start over?", dbPath), c.Yes)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Init cancelled.")
				return nil
			}
			ctx.PerformAutomaticBackup()
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			fmt.Printf("Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	fmt.Printf("Initialized %s storage at: %s\n", "dayfill", ctx.Store.GetConfigPath())
	fmt.Printf("Configuration: %s\n", ctx.ConfigPath)
	return nil
}
