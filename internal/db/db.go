// Package db owns the database handle: connecting, migrating, and nothing
// else. The pipeline receives the *gorm.DB explicitly; there is no package
// level singleton.
package db

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// Blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/invoice-etl/internal/config"
	"github.com/diewo77/invoice-etl/internal/models"
)

const (
	connectAttempts = 10
	connectBackoff  = 2 * time.Second
)

// Connect opens the PostgreSQL connection with a bounded retry to let the
// database come up, then verifies connectivity.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := NormalizeDSN(envOr("DATABASE_DSN", cfg.DSN()))

	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	var conn *gorm.DB
	var err error
	for i := 0; i < connectAttempts; i++ {
		conn, err = gorm.Open(postgres.Open(dsn), gormCfg)
		if err == nil {
			break
		}
		slog.Warn("database connection failed, retrying", "attempt", i+1, "error", err)
		time.Sleep(connectBackoff)
	}
	if err != nil {
		return nil, fmt.Errorf("connect database after %d attempts: %w", connectAttempts, err)
	}

	if pingErr := conn.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	return conn, nil
}

// Migrate brings the schema up to date. With cfg.Migrations enabled it runs
// the SQL migration files through golang-migrate against url; otherwise it
// falls back to GORM AutoMigrate, which is the development convenience path.
func Migrate(conn *gorm.DB, cfg config.AppConfig, url string) error {
	if cfg.Migrations {
		if err := runSQLMigrations(cfg.MigrationsDir, url); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		for _, m := range models.All() {
			if err := conn.AutoMigrate(m); err != nil {
				return fmt.Errorf("automigrate %T: %w", m, err)
			}
		}
	}

	// sanity check: the tables the pipeline writes must exist
	for _, table := range []string{"documents", "vendors", "customers", "invoices"} {
		if !conn.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// runSQLMigrations executes the migrations in dir using the file source.
func runSQLMigrations(dir, url string) error {
	m, err := migrate.New("file://"+dir, url)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
