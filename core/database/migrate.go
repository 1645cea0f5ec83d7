package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/m3rciful/orderbot/core/logger"
)

// RunMigrations applies all up migrations. Files come from cfg.MigrationsDir when set,
// otherwise from the <driver>/ directory of the embedded filesystem.
func RunMigrations(cfg Config, embedded fs.FS) error {
	ctx := context.Background()
	if err := cfg.Normalize(); err != nil {
		return fmt.Errorf("db config: %w", err)
	}

	dbURL := cfg.MigrateURL()
	if cfg.Driver == DriverPostgres {
		if err := WaitForPostgres(dbURL, 30*time.Second); err != nil {
			logger.Error(ctx, "db.migrate", "db.migrate",
				slog.String("status", "fail"),
				slog.String("reason", "db_not_ready"),
				slog.String("err", err.Error()),
			)
			return fmt.Errorf("database not ready: %w", err)
		}
	}

	m, files, err := newMigrator(cfg, embedded, dbURL)
	if err != nil {
		logger.Error(ctx, "db.migrate", "db.migrate",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer m.Close()

	preview, truncated := logger.SummarizeStrings(files, 6)
	logger.Debug(ctx, "db.migrate", "resolve",
		slog.String("driver", cfg.Driver),
		slog.Int("files_total", len(files)),
		slog.String("files_preview", preview),
		slog.Bool("files_truncated", truncated),
	)

	fromVer, _, _ := m.Version()
	start := time.Now()
	upErr := m.Up()
	took := time.Since(start)

	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		logger.Error(ctx, "db.migrate", "apply",
			slog.String("status", "fail"),
			slog.String("err", upErr.Error()),
			slog.Duration("duration", took),
		)
		return fmt.Errorf("migration execution failed: %w", upErr)
	}

	toVer, _, _ := m.Version()
	logger.Info(ctx, "db.migrate", "summary",
		slog.String("status", "ok"),
		slog.Uint64("from_ver", uint64(fromVer)),
		slog.Uint64("to_ver", uint64(toVer)),
		slog.Int("files", countApplied(files, uint64(fromVer), uint64(toVer))),
		slog.Duration("duration", took),
	)
	return nil
}

func newMigrator(cfg Config, embedded fs.FS, dbURL string) (*migrate.Migrate, []string, error) {
	if dir := strings.TrimSpace(cfg.MigrationsDir); dir != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve migrations dir: %w", err)
		}
		files := listMigrationFiles(os.DirFS(abs), ".")
		m, err := migrate.New("file://"+filepath.ToSlash(abs), dbURL)
		return m, files, err
	}
	if embedded == nil {
		return nil, nil, fmt.Errorf("no migrations source configured")
	}
	src, err := iofs.New(embedded, cfg.Driver)
	if err != nil {
		return nil, nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	return m, listMigrationFiles(embedded, cfg.Driver), err
}

func listMigrationFiles(fsys fs.FS, dir string) []string {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func parseVersion(name string) uint64 {
	prefix, _, _ := strings.Cut(name, "_")
	v, _ := strconv.ParseUint(prefix, 10, 64)
	return v
}

func countApplied(files []string, from, to uint64) int {
	c := 0
	for _, f := range files {
		if v := parseVersion(f); v > from && v <= to {
			c++
		}
	}
	return c
}
