package database

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"

	"gorm.io/gorm"
)

//go:embed migrations
var migrationFS embed.FS

// RunMigrations applies the embedded SQL migrations of db's dialect in lexical order.
// Every statement is idempotent, so reruns are safe.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	dir := path.Join("migrations", migrationDir(db))
	entries, err := migrationFS.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	slog.Default().InfoContext(ctx, "migrations started",
		"module", "database",
		"layer", "adapter",
		"operation", "run_migrations",
		"outcome", "start",
		"dialect", db.Dialector.Name(),
		"migration_count", len(names),
	)

	for _, name := range names {
		raw, err := migrationFS.ReadFile(path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := db.WithContext(ctx).Exec(string(raw)).Error; err != nil {
			return fmt.Errorf("exec migration %s: %w", name, err)
		}
		slog.Default().InfoContext(ctx, "migration applied",
			"module", "database",
			"layer", "adapter",
			"operation", "apply_migration",
			"outcome", "success",
			"migration", name,
		)
	}
	slog.Default().InfoContext(ctx, "migrations completed",
		"module", "database",
		"layer", "adapter",
		"operation", "run_migrations",
		"outcome", "success",
		"migration_count", len(names),
	)
	return nil
}

func migrationDir(db *gorm.DB) string {
	if db.Dialector.Name() == "sqlite" {
		return DriverSQLite
	}
	return DriverPostgres
}
