package main

import (
	"testing"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/dayfill/internal/config"
	"github.com/julianstephens/dayfill/internal/constants"
	"github.com/julianstephens/dayfill/internal/keyring"
)

func TestResolveDatabase(t *testing.T) {
	gokeyring.MockInit()
	cfg := config.DefaultConfig()
	cfg.Database = "/data/dayfill.db"

	t.Setenv(constants.DBConnectionEnv, "")
	if got, err := resolveDatabase("", cfg); err != nil || got != "/data/dayfill.db" {
		t.Errorf("config: got %q, %v", got, err)
	}

	t.Setenv(constants.DBConnectionEnv, "postgres://dayfill@db/dayfill")
	if got, _ := resolveDatabase("", cfg); got != "postgres://dayfill@db/dayfill" {
		t.Errorf("env: got %q", got)
	}
	if got, _ := resolveDatabase("/tmp/other.db", cfg); got != "/tmp/other.db" {
		t.Errorf("flag: got %q", got)
	}

	t.Setenv(constants.DBConnectionEnv, "")
	cfg.Database = keyringDatabase
	if _, err := resolveDatabase("", cfg); err == nil {
		t.Error("expected an error with an empty keyring")
	}
	if err := keyring.SetConnectionString("postgres://dayfill@keyring/dayfill"); err != nil {
		t.Fatal(err)
	}
	if got, err := resolveDatabase("", cfg); err != nil || got != "postgres://dayfill@keyring/dayfill" {
		t.Errorf("keyring: got %q, %v", got, err)
	}
}

func TestNeedsStore(t *testing.T) {
	tests := map[string]bool{
		"init":                            false,
		"keyring set <connection-string>": false,
		"doctor":                          false,
		"calendar add <path>":             false,
		"scan":                            true,
		"task add <title>":                true,
		"backup create":                   true,
	}
	for cmd, want := range tests {
		if got := needsStore(cmd); got != want {
			t.Errorf("needsStore(%q) = %v, want %v", cmd, got, want)
		}
	}
}
