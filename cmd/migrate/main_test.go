package main

import (
	"errors"
	"io/fs"
	"testing"

	appconfig "github.com/wolfman30/psychwebmd-intake/internal/config"
	appmigrations "github.com/wolfman30/psychwebmd-intake/migrations"
)

func TestRunRequiresDatabaseURL(t *testing.T) {
	err := run(&appconfig.Config{}, nil)
	if !errors.Is(err, appconfig.ErrDatabaseURLRequired) {
		t.Fatalf("expected ErrDatabaseURLRequired, got %v", err)
	}
}

func TestMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(appmigrations.FS, "*.up.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	downs, err := fs.Glob(appmigrations.FS, "*.down.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(ups) == 0 || len(ups) != len(downs) {
		t.Fatalf("expected paired migrations, got %d up and %d down", len(ups), len(downs))
	}
}
