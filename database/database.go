// Package database owns the MySQL connection and the versioned schema
// migrations the backend runs against it. Tests use sqlite through
// testutil instead; nothing here is imported by the entity packages.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Config holds MySQL connection settings.
type Config struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
}

// dsn renders the go-sql-driver DSN. parseTime is required so DATETIME
// columns scan into time.Time.
func (c Config) dsn() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// Connect opens a pooled gorm connection to MySQL. gorm's own query
// logging stays off; the stores log through the application logger.
func Connect(cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(gormmysql.Open(cfg.dsn()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	// Recycle connections well inside MySQL's wait_timeout.
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// RunMigrations applies all pending migrations from the given directory.
// An up-to-date schema is not an error.
func RunMigrations(db *sql.DB, path string) error {
	m, err := newMigrator(db, path)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// RollbackMigration rolls back the most recently applied migration.
func RollbackMigration(db *sql.DB, path string) error {
	m, err := newMigrator(db, path)
	if err != nil {
		return err
	}
	if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}
	return nil
}

// MigrationVersion reports the currently applied schema version. A fresh
// database with no applied migrations reports version 0, not an error.
// dirty means the last migration failed partway and needs manual repair.
func MigrationVersion(db *sql.DB, path string) (version uint, dirty bool, err error) {
	m, err := newMigrator(db, path)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read migration version: %w", err)
	}
	return version, dirty, nil
}

// newMigrator wires golang-migrate to the given connection. The
// migrator is never closed here: closing it would close the *sql.DB the
// caller still owns.
func newMigrator(db *sql.DB, path string) (*migrate.Migrate, error) {
	driver, err := migratemysql.WithInstance(db, &migratemysql.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to prepare migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+path, "mysql", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to open migrations at %s: %w", path, err)
	}
	return m, nil
}
