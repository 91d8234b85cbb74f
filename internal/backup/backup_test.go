package backup

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/dayfill/internal/constants"
)

func setupTestDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "dayfill.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	defer db.Close()

	for _, stmt := range []string{
		`CREATE TABLE tasks (id TEXT PRIMARY KEY, title TEXT)`,
		`INSERT INTO tasks (id, title) VALUES ('t1', 'Report'), ('t2', 'Inbox')`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
	}
	return dbPath
}

func countTasks(t *testing.T, path string) int {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM tasks").Scan(&n); err != nil {
		t.Fatalf("query %s: %v", path, err)
	}
	return n
}

// stepClock advances one minute per call.
func stepClock() func() time.Time {
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)
	return func() time.Time {
		ts = ts.Add(time.Minute)
		return ts
	}
}

func TestCreate(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	path, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if filepath.Dir(path) != filepath.Join(filepath.Dir(dbPath), constants.BackupDirName) {
		t.Errorf("backup written to %s", path)
	}
	if n := countTasks(t, path); n != 2 {
		t.Errorf("backup has %d tasks, want 2", n)
	}
}

func TestCreate_MissingDatabase(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "missing.db"))
	if _, err := mgr.Create(); err == nil {
		t.Error("expected an error for a missing database")
	}
}

func TestCreate_SameSecondGetsCounter(t *testing.T) {
	dbPath := setupTestDB(t)
	fixed := time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)
	mgr := NewManager(dbPath, WithClock(func() time.Time { return fixed }))

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		path, err := mgr.Create()
		if err != nil {
			t.Fatalf("Create #%d failed: %v", i, err)
		}
		if seen[path] {
			t.Errorf("duplicate backup name %s", path)
		}
		seen[path] = true
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("got %d backups, want 3", len(backups))
	}
	for _, b := range backups {
		if !b.Timestamp.Equal(fixed) {
			t.Errorf("timestamp = %v, want %v", b.Timestamp, fixed)
		}
	}
}

func TestRotation(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath, WithClock(stepClock()), WithRetention(3))

	var last string
	for i := 0; i < 5; i++ {
		path, err := mgr.Create()
		if err != nil {
			t.Fatalf("Create #%d failed: %v", i, err)
		}
		last = path
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("got %d backups after rotation, want 3", len(backups))
	}
	if backups[0].Path != last {
		t.Errorf("newest = %s, want %s", backups[0].Path, last)
	}
	for i := 1; i < len(backups); i++ {
		if backups[i].Timestamp.After(backups[i-1].Timestamp) {
			t.Errorf("backups not sorted newest first: %v", backups)
		}
	}
}

func TestList_IgnoresForeignFiles(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)
	if err := os.MkdirAll(mgr.Dir(), 0o700); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"notes.txt", constants.BackupFilePrefix + "garbage" + constants.BackupFileSuffix} {
		if err := os.WriteFile(filepath.Join(mgr.Dir(), name), []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	backups, err := mgr.List()
	if err != nil || len(backups) != 0 {
		t.Errorf("List = %v, %v", backups, err)
	}
}

func TestRestore(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath, WithClock(stepClock()))

	saved, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("DELETE FROM tasks"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	previous, err := mgr.Restore(saved)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if n := countTasks(t, dbPath); n != 2 {
		t.Errorf("restored database has %d tasks, want 2", n)
	}
	if previous == "" || countTasks(t, previous) != 0 {
		t.Errorf("pre-restore backup %q should hold the emptied database", previous)
	}
}

func TestRestore_RejectsInvalidBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	bad := filepath.Join(t.TempDir(), "bad.db")
	if err := os.WriteFile(bad, []byte("this is not a database"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.Restore(bad); err == nil {
		t.Error("expected an error for a corrupted backup")
	}
	if _, err := mgr.Restore(filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Error("expected an error for a missing backup")
	}
	if n := countTasks(t, dbPath); n != 2 {
		t.Errorf("database changed after failed restore: %d tasks", n)
	}
}

func TestParseName(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{constants.BackupFilePrefix + "20260302-090000" + constants.BackupFileSuffix, true},
		{constants.BackupFilePrefix + "20260302-090000-2" + constants.BackupFileSuffix, true},
		{constants.BackupFilePrefix + "20260302-090000-x" + constants.BackupFileSuffix, false},
		{constants.BackupFilePrefix + "2026" + constants.BackupFileSuffix, false},
		{"other-20260302-090000.db", false},
	}
	for _, tt := range tests {
		if _, ok := parseName(tt.name); ok != tt.ok {
			t.Errorf("parseName(%q) ok = %v, want %v", tt.name, ok, tt.ok)
		}
	}
}
