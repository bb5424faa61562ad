package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled          bool          // Enable database tracing
	LogFullSQL       bool          // Include query variables in spans (dev only)
	SlowQueryThresh  time.Duration // Threshold for marking queries as slow (default: 200ms)
	DBSystem         string        // Database system name (default: "postgresql")
	WithoutVariables bool          // Exclude query variables from SQL statement
}

// DefaultDBTracingConfig returns default configuration for database tracing.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		Enabled:          false,
		LogFullSQL:       false,
		SlowQueryThresh:  200 * time.Millisecond,
		DBSystem:         "postgresql",
		WithoutVariables: true,
	}
}

// DBTracingPlugin wraps the otelgorm plugin with slow query detection.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a new database tracing plugin with the given configuration.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DBTracingPlugin{
		config: cfg,
		logger: logger,
	}
}

type contextKey string

const queryStartTimeKey contextKey = "otel_query_start_time"

// gormProcessor names one GORM callback chain
type gormProcessor struct {
	name   string
	before func(db *gorm.DB) error
	after  func(db *gorm.DB) error
}

// RegisterOtelGorm registers otelgorm on db together with callbacks that
// annotate each span with table, rows affected, errors and slowness.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{
		otelgorm.WithDBName(p.config.DBSystem),
	}
	if !p.config.LogFullSQL || p.config.WithoutVariables {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	for _, proc := range p.processors(db) {
		if err := proc.before(db); err != nil {
			return err
		}
		if err := proc.after(db); err != nil {
			return err
		}
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_system", p.config.DBSystem),
	)
	return nil
}

func (p *DBTracingPlugin) processors(db *gorm.DB) []gormProcessor {
	cb := db.Callback()
	return []gormProcessor{
		{"create",
			func(db *gorm.DB) error {
				return cb.Create().Before("gorm:create").Register("otel_timing:before_create", p.markStart)
			},
			func(db *gorm.DB) error {
				return cb.Create().After("gorm:create").Register("otel_timing:after_create", p.annotate)
			}},
		{"query",
			func(db *gorm.DB) error {
				return cb.Query().Before("gorm:query").Register("otel_timing:before_query", p.markStart)
			},
			func(db *gorm.DB) error {
				return cb.Query().After("gorm:query").Register("otel_timing:after_query", p.annotate)
			}},
		{"update",
			func(db *gorm.DB) error {
				return cb.Update().Before("gorm:update").Register("otel_timing:before_update", p.markStart)
			},
			func(db *gorm.DB) error {
				return cb.Update().After("gorm:update").Register("otel_timing:after_update", p.annotate)
			}},
		{"delete",
			func(db *gorm.DB) error {
				return cb.Delete().Before("gorm:delete").Register("otel_timing:before_delete", p.markStart)
			},
			func(db *gorm.DB) error {
				return cb.Delete().After("gorm:delete").Register("otel_timing:after_delete", p.annotate)
			}},
		{"row",
			func(db *gorm.DB) error {
				return cb.Row().Before("gorm:row").Register("otel_timing:before_row", p.markStart)
			},
			func(db *gorm.DB) error {
				return cb.Row().After("gorm:row").Register("otel_timing:after_row", p.annotate)
			}},
		{"raw",
			func(db *gorm.DB) error {
				return cb.Raw().Before("gorm:raw").Register("otel_timing:before_raw", p.markStart)
			},
			func(db *gorm.DB) error {
				return cb.Raw().After("gorm:raw").Register("otel_timing:after_raw", p.annotate)
			}},
	}
}

func (p *DBTracingPlugin) markStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartTimeKey, time.Now())
	}
}

func (p *DBTracingPlugin) annotate(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}

	// A missing row is an expected outcome of lookups
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if startTime, ok := ctx.Value(queryStartTimeKey).(time.Time); ok {
		elapsed := time.Since(startTime)
		if elapsed > p.config.SlowQueryThresh {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
			span.AddEvent("slow_query_warning", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
			))
		}
	}
}
