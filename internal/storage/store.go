// Package storage persists settings, tasks, duration history, tracked events,
// transitions and plans in SQLite or PostgreSQL.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	pq "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/julianstephens/dayfill/internal/logger"
	"github.com/julianstephens/dayfill/internal/migration"
	"github.com/julianstephens/dayfill/internal/models"
	"github.com/julianstephens/dayfill/internal/utils"
	"github.com/julianstephens/dayfill/migrations"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

var (
	ErrInvalidConnectionString = errors.New("invalid PostgreSQL connection string")
	ErrEmbeddedCredentials     = errors.New("connection string must not contain a password")
)

// Store is the database/sql Provider. Queries are written with "?"
// placeholders and rebound for PostgreSQL.
type Store struct {
	dsn     string
	dialect dialect
	db      *sql.DB
}

func NewSQLiteStore(path string) *Store {
	return &Store{dsn: path, dialect: dialectSQLite}
}

func NewPostgresStore(connStr string) *Store {
	return &Store{dsn: connStr, dialect: dialectPostgres}
}

// Open picks the dialect from the shape of dsn.
func Open(dsn string) (*Store, error) {
	if utils.IsPostgresConnString(dsn) || strings.Contains(dsn, "host=") {
		if _, err := ValidateConnString(dsn); err != nil {
			return nil, err
		}
		return NewPostgresStore(dsn), nil
	}
	path, err := utils.ExpandPath(dsn)
	if err != nil {
		return nil, err
	}
	return NewSQLiteStore(path), nil
}

// ValidateConnString checks a PostgreSQL URL or key=value string and
// rejects embedded passwords.
func ValidateConnString(connStr string) (bool, error) {
	if strings.TrimSpace(connStr) == "" {
		return false, fmt.Errorf("%w: connection string cannot be empty", ErrInvalidConnectionString)
	}
	if _, err := pq.NewConnector(connStr); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidConnectionString, err)
	}

	if utils.IsPostgresConnString(connStr) {
		u, err := url.Parse(connStr)
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrInvalidConnectionString, err)
		}
		if _, set := u.User.Password(); set {
			return false, ErrEmbeddedCredentials
		}
		if u.Host == "" && (u.Path == "" || u.Path == "/") {
			return false, fmt.Errorf("%w: connection URL is incomplete", ErrInvalidConnectionString)
		}
		return true, nil
	}

	for _, pair := range strings.Fields(connStr) {
		if k, _, ok := strings.Cut(pair, "="); ok && strings.EqualFold(strings.TrimSpace(k), "password") {
			return false, ErrEmbeddedCredentials
		}
	}
	return true, nil
}

func (s *Store) driver() string {
	if s.dialect == dialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

func (s *Store) migrationFS() fs.FS {
	if s.dialect == dialectPostgres {
		return migrations.Postgres()
	}
	return migrations.SQLite()
}

func (s *Store) open() error {
	db, err := sql.Open(s.driver(), s.dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if s.dialect == dialectSQLite {
		// One writer at a time keeps modernc from returning SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	s.db = db
	return nil
}

// Init creates the database if needed, applies migrations and writes
// default settings when none are stored.
func (s *Store) Init() error {
	if s.dialect == dialectSQLite {
		if err := os.MkdirAll(filepath.Dir(s.dsn), 0o700); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if s.db == nil {
		if err := s.open(); err != nil {
			return err
		}
	}
	if _, err := s.Migrate(nil); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if _, err := s.GetSettings(); errors.Is(err, ErrNotFound) {
		if err := s.SaveSettings(models.DefaultSettings()); err != nil {
			return fmt.Errorf("failed to save default settings: %w", err)
		}
	} else if err != nil {
		return err
	}
	return nil
}

// Load opens an initialized database and checks its schema version.
func (s *Store) Load() error {
	if s.db != nil {
		return nil
	}
	if s.dialect == dialectSQLite {
		if _, err := os.Stat(s.dsn); os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run 'dayfill init' first")
		}
	}
	if err := s.open(); err != nil {
		return err
	}
	return migration.NewRunner(s.db, s.migrationFS()).Validate()
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Migrate applies pending migrations to an open database.
func (s *Store) Migrate(logFn func(string)) (int, error) {
	if s.db == nil {
		return 0, errors.New("database is not open")
	}
	n, err := migration.NewRunner(s.db, s.migrationFS()).Apply(logFn)
	if err == nil && n > 0 {
		logger.Info("Database migrated", "driver", s.driver(), "applied", n)
	}
	return n, err
}

func (s *Store) GetConfigPath() string {
	return s.dsn
}

func (s *Store) IsSQLite() bool {
	return s.dialect == dialectSQLite
}

// rebind rewrites "?" placeholders to "$n" for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (s *Store) exec(ex execer, query string, args ...any) error {
	_, err := ex.Exec(s.rebind(query), args...)
	return err
}

// inTx runs fn in a transaction, committing only when fn succeeds.
func (s *Store) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Times are stored as UTC RFC 3339 text in both dialects.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
