// Package db provides an explicitly constructed GORM connector for the
// dashboard database. The connector is created once at startup and injected
// into every store; there is no ambient singleton.
package db

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds database connection settings.
type Config struct {
	// Type is one of "postgres", "mysql", or "sqlite".
	Type string
	// DSN is the driver-specific connection string. For sqlite it is a
	// file path (or ":memory:").
	DSN string
	// MaxOpenConns bounds the connection pool. Zero means the driver default.
	MaxOpenConns int
	// ConnMaxLifetime bounds how long a pooled connection may live.
	ConnMaxLifetime time.Duration
}

// Connect opens the database described by cfg and verifies the connection.
// A missing DSN or an unreachable database is a startup failure, not a
// deferred first-query failure.
func Connect(cfg Config) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	var dialector gorm.Dialector
	switch cfg.Type {
	case "postgres", "":
		dialector = postgres.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database type %q (expected postgres, mysql, or sqlite)", cfg.Type)
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Type, err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return gormDB, nil
}
