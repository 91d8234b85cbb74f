// Package config holds the application bootstrap configuration stored as
// YAML next to the database. Scheduling settings live in the database.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/dayfill/internal/calendar"
	"github.com/julianstephens/dayfill/internal/constants"
	"github.com/julianstephens/dayfill/internal/utils"
)

const (
	defaultRefresh     = "*/15 * * * *"
	defaultHorizonDays = 14
)

// CalendarConfig is one ICS file read for busy time.
type CalendarConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// Config is the top-level application configuration.
type Config struct {
	// Database is a SQLite file path or a PostgreSQL URL without credentials.
	Database string `yaml:"database"`

	// Calendars are read on every scan and reconciliation pass.
	Calendars []CalendarConfig `yaml:"calendars"`

	// Export is the ICS file accepted suggestions are written to.
	Export string `yaml:"export"`

	// Refresh is the cron schedule of periodic passes in watch mode.
	Refresh string `yaml:"refresh"`

	// ReconcileMinInterval is the minimum spacing between automatic passes.
	ReconcileMinInterval time.Duration `yaml:"reconcile_min_interval"`

	// HorizonDays bounds how far ahead tracked events are looked up.
	HorizonDays int `yaml:"horizon_days"`

	Debug bool `yaml:"debug"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Database:             constants.DefaultDBPath,
		Calendars:            []CalendarConfig{},
		Export:               filepath.Join(constants.DefaultConfigDir, "suggestions.ics"),
		Refresh:              defaultRefresh,
		ReconcileMinInterval: constants.DefaultReconcileInterval,
		HorizonDays:          defaultHorizonDays,
	}
}

// Normalize fills in missing values so that partial files still work.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Database == "" {
		c.Database = def.Database
	}
	if c.Calendars == nil {
		c.Calendars = []CalendarConfig{}
	}
	for i := range c.Calendars {
		if c.Calendars[i].ID == "" {
			c.Calendars[i].ID = fmt.Sprintf("cal%d", i+1)
		}
	}
	if c.Export == "" {
		c.Export = def.Export
	}
	if c.Refresh == "" {
		c.Refresh = def.Refresh
	}
	if c.ReconcileMinInterval <= 0 {
		c.ReconcileMinInterval = def.ReconcileMinInterval
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = def.HorizonDays
	}
}

// Validate checks values Normalize cannot repair.
func (c *Config) Validate() error {
	if _, err := cron.ParseStandard(c.Refresh); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", c.Refresh, err)
	}
	seen := make(map[string]bool, len(c.Calendars))
	for _, cal := range c.Calendars {
		if cal.Path == "" {
			return fmt.Errorf("calendar %s has no path", cal.ID)
		}
		if seen[cal.ID] {
			return fmt.Errorf("duplicate calendar id %s", cal.ID)
		}
		seen[cal.ID] = true
	}
	return nil
}

// Sources resolves the configured calendars into readable sources.
func (c *Config) Sources() ([]calendar.Source, error) {
	out := make([]calendar.Source, 0, len(c.Calendars))
	for _, cal := range c.Calendars {
		path, err := utils.ExpandPath(cal.Path)
		if err != nil {
			return nil, err
		}
		out = append(out, calendar.Source{ID: cal.ID, Path: path})
	}
	return out, nil
}

// ExportPath returns Export with "~" expanded.
func (c *Config) ExportPath() (string, error) {
	return utils.ExpandPath(c.Export)
}

// Load reads the YAML file at path. A missing file is created with the
// default configuration and 0600 permissions.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes cfg to path atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".dayfill-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
