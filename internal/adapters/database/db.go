package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Options selects the storage engine and its pool size.
type Options struct {
	Driver   string
	URL      string
	MaxConns int32
}

// Connect opens a GORM connection for the configured driver and pings it.
func Connect(ctx context.Context, opts Options) (*gorm.DB, error) {
	switch opts.Driver {
	case DriverPostgres, "":
		return ConnectPostgres(ctx, opts.URL, opts.MaxConns)
	case DriverSQLite:
		return ConnectSQLite(ctx, opts.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
}

// ConnectPostgres opens and validates a Postgres-backed GORM connection pool.
func ConnectPostgres(ctx context.Context, databaseURL string, maxConns int32) (*gorm.DB, error) {
	logConnect(ctx, DriverPostgres, "start")
	db, err := gorm.Open(postgres.Open(databaseURL), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}
	if maxConns > 0 {
		sqlDB.SetMaxOpenConns(int(maxConns))
		sqlDB.SetMaxIdleConns(int(maxConns) / 2)
	}
	sqlDB.SetConnMaxIdleTime(15 * time.Minute)
	sqlDB.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logConnect(ctx, DriverPostgres, "success")
	return db, nil
}

// ConnectSQLite opens a single-connection SQLite database at path.
// One connection serializes every transaction, which the stock decrement relies on.
func ConnectSQLite(ctx context.Context, path string) (*gorm.DB, error) {
	logConnect(ctx, DriverSQLite, "start")
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if err := db.WithContext(ctx).Exec(pragma).Error; err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	logConnect(ctx, DriverSQLite, "success")
	return db, nil
}

// Close releases the pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

func logConnect(ctx context.Context, driver, outcome string) {
	slog.Default().InfoContext(ctx, "database connect "+outcome,
		"module", "database",
		"layer", "adapter",
		"operation", "connect",
		"outcome", outcome,
		"driver", driver,
	)
}
