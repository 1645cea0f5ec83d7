package bootstrap

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/orderbot/core/config"
	coredatabase "github.com/m3rciful/orderbot/core/database"
)

func TestRunOrder(t *testing.T) {
	var steps []string
	opts := Options{
		Config: &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error {
			steps = append(steps, "logger")
			return nil
		},
		Migrate: func(coredatabase.Config, fs.FS) error {
			steps = append(steps, "migrate")
			return nil
		},
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			steps = append(steps, "connect")
			return nil, nil
		},
	}
	if _, err := Run(opts); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []string{"logger", "migrate", "connect"}
	if len(steps) != len(want) {
		t.Fatalf("steps = %v, want %v", steps, want)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Fatalf("steps = %v, want %v", steps, want)
		}
	}
}

func TestRunStopsOnMigrationFailure(t *testing.T) {
	boom := errors.New("boom")
	connected := false
	_, err := Run(Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { return nil },
		Migrate:    func(coredatabase.Config, fs.FS) error { return boom },
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			connected = true
			return nil, nil
		},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped migration error, got %v", err)
	}
	if connected {
		t.Fatal("connect must not run after failed migrations")
	}
}

func TestRunRequiresConfig(t *testing.T) {
	if _, err := Run(Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}
