package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/dayfill/internal/cli"
	"github.com/julianstephens/dayfill/internal/cli/backups"
	"github.com/julianstephens/dayfill/internal/cli/plans"
	"github.com/julianstephens/dayfill/internal/cli/settings"
	"github.com/julianstephens/dayfill/internal/cli/system"
	"github.com/julianstephens/dayfill/internal/cli/tasks"
	"github.com/julianstephens/dayfill/internal/config"
	"github.com/julianstephens/dayfill/internal/constants"
	"github.com/julianstephens/dayfill/internal/engine"
	apperrors "github.com/julianstephens/dayfill/internal/errors"
	"github.com/julianstephens/dayfill/internal/keyring"
	"github.com/julianstephens/dayfill/internal/logger"
	"github.com/julianstephens/dayfill/internal/storage"
	"github.com/julianstephens/dayfill/internal/utils"
)

// keyringDatabase in the config file selects the connection string stored in the OS keyring.
const keyringDatabase = "keyring"

type cliArgs struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"path" default:"~/.config/dayfill/config.yaml"`
	DB      string `name:"db" help:"SQLite path or PostgreSQL connection string. Overrides the config file and $DAYFILL_DB_CONNECTION. Credentials must NOT be embedded in PostgreSQL connection strings."`
	Debug   bool   `help:"Log debug output to stderr."`

	Init      system.InitCmd       `cmd:"" help:"Initialize dayfill storage."`
	Migrate   system.MigrateCmd    `cmd:"" help:"Run database migrations."`
	Doctor    system.DoctorCmd     `cmd:"" help:"Run health checks and diagnostics."`
	Scan      plans.ScanCmd        `cmd:"" help:"Suggest time blocks for pending tasks on one day." default:"withargs"`
	Week      plans.WeekCmd        `cmd:"" help:"Spread pending tasks over the working days of a week."`
	Show      plans.ShowCmd        `cmd:"" help:"Show the last scan saved for a day."`
	Reconcile plans.ReconcileCmd   `cmd:"" help:"Sync approved tasks with calendar changes."`
	Watch     plans.WatchCmd       `cmd:"" help:"Reconcile whenever calendars change and on the refresh schedule."`
	Estimate  tasks.EstimateCmd    `cmd:"" help:"Show learned task durations."`
	Settings  settings.SettingsCmd `cmd:"" help:"View or change scheduling settings."`
	Task      struct {
		Add      tasks.TaskAddCmd      `cmd:"" help:"Add a new task."`
		List     tasks.TaskListCmd     `cmd:"" help:"List tasks."`
		State    tasks.TaskStateCmd    `cmd:"" help:"Move a task to another state."`
		Complete tasks.TaskCompleteCmd `cmd:"" help:"Mark a task done and record how long it took."`
		History  tasks.TaskHistoryCmd  `cmd:"" help:"Show the state transitions of a task."`
	} `cmd:"" help:"Manage tasks."`
	Calendar struct {
		List   settings.CalendarListCmd   `cmd:"" help:"List configured calendars." default:"1"`
		Add    settings.CalendarAddCmd    `cmd:"" help:"Add an ICS calendar file."`
		Remove settings.CalendarRemoveCmd `cmd:"" help:"Remove a calendar."`
	} `cmd:"" help:"Manage calendar sources."`
	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store a PostgreSQL connection string in the OS keyring."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show the stored connection string with its password masked."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check whether the OS keyring is usable." default:"1"`
	} `cmd:"" help:"Manage database credentials in the OS keyring."`
}

// resolveDatabase picks the database location: flag, then environment, then
// the config file.
func resolveDatabase(flag string, cfg *config.Config) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if env := os.Getenv(constants.DBConnectionEnv); env != "" {
		return env, nil
	}
	if cfg.Database == keyringDatabase {
		connStr, err := keyring.GetConnectionString()
		if err != nil {
			return "", apperrors.WithHint(err, "store one with 'dayfill keyring set <connection-string>'")
		}
		return connStr, nil
	}
	return cfg.Database, nil
}

// needsStore reports whether a command works on an initialized database.
func needsStore(command string) bool {
	name, _, _ := strings.Cut(command, " ")
	switch name {
	case "init", "keyring", "doctor", "calendar":
		return false
	}
	return true
}

func newParser(args *cliArgs, opts ...kong.Option) (*kong.Kong, error) {
	opts = append([]kong.Option{
		kong.Name(constants.AppName),
		kong.Description("Fills the free time in your calendar with your tasks."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	}, opts...)
	return kong.New(args, opts...)
}

func run(args *cliArgs, kctx *kong.Context) error {
	configPath, err := utils.ExpandPath(args.Config)
	if err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return apperrors.WithHint(err, "fix or remove "+configPath)
	}

	if err := logger.Init(logger.Config{Debug: args.Debug || cfg.Debug, ConfigDir: filepath.Dir(configPath)}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	dsn, err := resolveDatabase(args.DB, cfg)
	if err != nil {
		return err
	}
	store, err := storage.Open(dsn)
	if errors.Is(err, storage.ErrEmbeddedCredentials) {
		return apperrors.WithHint(err,
			"use 'dayfill keyring set' with database: keyring, $"+constants.DBConnectionEnv+", or a .pgpass file")
	}
	if err != nil {
		return err
	}
	defer store.Close()

	appCtx := &cli.Context{
		Store:      store,
		Engine:     engine.New(nil, nil, engine.WithReconcileInterval(cfg.ReconcileMinInterval)),
		Config:     cfg,
		ConfigPath: configPath,
		Now:        time.Now,
	}

	if needsStore(kctx.Command()) {
		if err := store.Load(); err != nil {
			return err
		}
		if err := appCtx.Hydrate(); err != nil {
			return err
		}
	}

	logger.Debug("Running command", "command", kctx.Command(), "database", keyring.Mask(dsn))
	return kctx.Run(appCtx)
}

func main() {
	var args cliArgs
	parser, err := newParser(&args)
	if err != nil {
		panic(err)
	}
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	apperrors.Fatal(run(&args, kctx))
}
