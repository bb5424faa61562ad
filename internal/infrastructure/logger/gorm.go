package logger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultMaxSQLLength caps the logged statement. Staging a large batch
// produces multi-row INSERTs that would otherwise flood the log.
const DefaultMaxSQLLength = 2048

// GormLogger implements GORM's logger interface using zap
type GormLogger struct {
	logger                    *zap.Logger
	logLevel                  gormlogger.LogLevel
	slowThreshold             time.Duration
	ignoreRecordNotFoundError bool
	parameterizedQueries      bool
	maxSQLLength              int
}

// GormLoggerOption is a function that configures a GormLogger
type GormLoggerOption func(*GormLogger)

// WithSlowThreshold sets the slow query threshold
func WithSlowThreshold(threshold time.Duration) GormLoggerOption {
	return func(l *GormLogger) {
		l.slowThreshold = threshold
	}
}

// WithIgnoreRecordNotFoundError configures whether to ignore record not found errors
func WithIgnoreRecordNotFoundError(ignore bool) GormLoggerOption {
	return func(l *GormLogger) {
		l.ignoreRecordNotFoundError = ignore
	}
}

// WithParameterizedQueries logs statements with placeholders instead of
// bound values. Staged orders carry buyer names and addresses.
func WithParameterizedQueries(enabled bool) GormLoggerOption {
	return func(l *GormLogger) {
		l.parameterizedQueries = enabled
	}
}

// WithMaxSQLLength truncates logged statements longer than n bytes; 0 disables truncation
func WithMaxSQLLength(n int) GormLoggerOption {
	return func(l *GormLogger) {
		l.maxSQLLength = n
	}
}

// NewGormLogger creates a new GORM logger backed by zap
func NewGormLogger(zapLogger *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	gl := &GormLogger{
		logger:                    zapLogger.Named("gorm"),
		logLevel:                  level,
		slowThreshold:             200 * time.Millisecond,
		ignoreRecordNotFoundError: true,
		parameterizedQueries:      true,
		maxSQLLength:              DefaultMaxSQLLength,
	}

	for _, opt := range opts {
		opt(gl)
	}

	return gl
}

// LogMode returns a copy at the given level; GORM calls it for Session(Logger) and Debug()
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	newLogger := *l
	newLogger.logLevel = level
	return &newLogger
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	l.logf(ctx, gormlogger.Info, zapcore.InfoLevel, msg, data)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.logf(ctx, gormlogger.Warn, zapcore.WarnLevel, msg, data)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	l.logf(ctx, gormlogger.Error, zapcore.ErrorLevel, msg, data)
}

func (l *GormLogger) logf(ctx context.Context, min gormlogger.LogLevel, lvl zapcore.Level, msg string, data []any) {
	if l.logLevel < min {
		return
	}
	if ce := l.logger.Check(lvl, fmt.Sprintf(msg, data...)); ce != nil {
		ce.Write(FieldsFrom(ctx).zapFields()...)
	}
}

// ParamsFilter is called by GORM before a statement is rendered for Trace.
// Dropping the params leaves the $n placeholders in the logged SQL.
func (l *GormLogger) ParamsFilter(ctx context.Context, sql string, params ...any) (string, []any) {
	if l.parameterizedQueries {
		return sql, nil
	}
	return sql, params
}

// Trace logs one executed statement: failures at error, statements over
// the slow threshold at warn, everything else at debug when the level is Info.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	elapsed := time.Since(begin)
	lvl, msg, ok := l.classify(elapsed, err)
	if !ok {
		return
	}
	ce := l.logger.Check(lvl, msg)
	if ce == nil {
		return
	}

	sql, rows := fc()
	fields := append([]zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", l.truncate(sql)),
	}, FieldsFrom(ctx).zapFields()...)
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	ce.Write(fields...)
}

func (l *GormLogger) classify(elapsed time.Duration, err error) (zapcore.Level, string, bool) {
	switch {
	case l.logLevel <= gormlogger.Silent:
		return 0, "", false
	case err != nil && l.logLevel >= gormlogger.Error:
		if l.ignoreRecordNotFoundError && errors.Is(err, gormlogger.ErrRecordNotFound) {
			return 0, "", false
		}
		return zapcore.ErrorLevel, "SQL Error", true
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.logLevel >= gormlogger.Warn:
		return zapcore.WarnLevel, fmt.Sprintf("SLOW SQL >= %v", l.slowThreshold), true
	case l.logLevel >= gormlogger.Info:
		return zapcore.DebugLevel, "SQL Query", true
	}
	return 0, "", false
}

func (l *GormLogger) truncate(sql string) string {
	if l.maxSQLLength <= 0 || len(sql) <= l.maxSQLLength {
		return sql
	}
	return fmt.Sprintf("%s... (%d bytes)", sql[:l.maxSQLLength], len(sql))
}

// MapGormLogLevel maps string log level to GORM log level
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "warn", "warning":
		return gormlogger.Warn
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
