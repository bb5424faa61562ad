package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erp/resale/internal/infrastructure/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database owns the gorm handle and its connection pool
type Database struct {
	DB    *gorm.DB
	sqlDB *sql.DB
}

// Open connects to PostgreSQL, sizes the pool from cfg and pings once.
// A nil gormLogger keeps gorm silent.
func Open(ctx context.Context, cfg *config.DatabaseConfig, gormLogger logger.Interface) (*Database, error) {
	if gormLogger == nil {
		gormLogger = logger.Discard
	}
	gdb, err := gorm.Open(postgres.Open(cfg.DSN()), GormConfig(gormLogger))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db, err := wrap(gdb)
	if err != nil {
		return nil, err
	}
	configurePool(db.sqlDB, cfg)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func wrap(gdb *gorm.DB) (*Database, error) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return &Database{DB: gdb, sqlDB: sqlDB}, nil
}

// configurePool applies the pool limits. Lifetimes are configured in minutes.
func configurePool(sqlDB *sql.DB, cfg *config.DatabaseConfig) {
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
}

// GormConfig returns the gorm settings shared by every connection.
// TranslateError turns unique violations into gorm.ErrDuplicatedKey, which
// repositories report as shared.ErrAlreadyExists.
func GormConfig(gormLogger logger.Interface) *gorm.Config {
	return &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
	}
}

// PingContext lets the readiness probe check the pool directly
func (d *Database) PingContext(ctx context.Context) error {
	return d.sqlDB.PingContext(ctx)
}

// Close closes the pool
func (d *Database) Close() error {
	return d.sqlDB.Close()
}
