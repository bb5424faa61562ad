package logger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

var _ gormlogger.Interface = (*GormLogger)(nil)

func observedGorm(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), logs
}

func statement(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestNewGormLogger_Defaults(t *testing.T) {
	gl, _ := observedGorm(gormlogger.Warn)

	assert.Equal(t, gormlogger.Warn, gl.logLevel)
	assert.Equal(t, 200*time.Millisecond, gl.slowThreshold)
	assert.True(t, gl.ignoreRecordNotFoundError)
	assert.True(t, gl.parameterizedQueries)
	assert.Equal(t, DefaultMaxSQLLength, gl.maxSQLLength)

	gl, _ = observedGorm(gormlogger.Warn,
		WithSlowThreshold(time.Second),
		WithIgnoreRecordNotFoundError(false),
		WithParameterizedQueries(false),
		WithMaxSQLLength(0),
	)
	assert.Equal(t, time.Second, gl.slowThreshold)
	assert.False(t, gl.ignoreRecordNotFoundError)
	assert.False(t, gl.parameterizedQueries)
	assert.Zero(t, gl.maxSQLLength)
}

func TestGormLogger_LogModeReturnsCopy(t *testing.T) {
	gl, _ := observedGorm(gormlogger.Info)

	changed, ok := gl.LogMode(gormlogger.Error).(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Error, changed.logLevel)
	assert.Equal(t, gormlogger.Info, gl.logLevel)
}

func TestGormLogger_Messages(t *testing.T) {
	tests := []struct {
		name      string
		level     gormlogger.LogLevel
		log       func(gl *GormLogger)
		wantLevel zapcore.Level
		wantMsg   string
	}{
		{
			name:      "info",
			level:     gormlogger.Info,
			log:       func(gl *GormLogger) { gl.Info(context.Background(), "migrated %s", "staged_orders") },
			wantLevel: zapcore.InfoLevel,
			wantMsg:   "migrated staged_orders",
		},
		{
			name:      "warn",
			level:     gormlogger.Warn,
			log:       func(gl *GormLogger) { gl.Warn(context.Background(), "%d rows skipped", 3) },
			wantLevel: zapcore.WarnLevel,
			wantMsg:   "3 rows skipped",
		},
		{
			name:      "error",
			level:     gormlogger.Error,
			log:       func(gl *GormLogger) { gl.Error(context.Background(), "lost connection") },
			wantLevel: zapcore.ErrorLevel,
			wantMsg:   "lost connection",
		},
		{
			name:  "info below level",
			level: gormlogger.Warn,
			log:   func(gl *GormLogger) { gl.Info(context.Background(), "hidden") },
		},
		{
			name:  "silent",
			level: gormlogger.Silent,
			log:   func(gl *GormLogger) { gl.Error(context.Background(), "hidden") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gl, logs := observedGorm(tt.level)
			tt.log(gl)

			if tt.wantMsg == "" {
				assert.Zero(t, logs.Len())
				return
			}
			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, tt.wantLevel, entry.Level)
			assert.Equal(t, tt.wantMsg, entry.Message)
		})
	}
}

func TestGormLogger_Trace(t *testing.T) {
	const query = "SELECT * FROM staged_orders WHERE batch_id = $1"

	tests := []struct {
		name      string
		level     gormlogger.LogLevel
		opts      []GormLoggerOption
		begin     time.Time
		err       error
		wantLevel zapcore.Level
		wantMsg   string
	}{
		{
			name:      "query error",
			level:     gormlogger.Error,
			err:       errors.New("deadlock detected"),
			wantLevel: zapcore.ErrorLevel,
			wantMsg:   "SQL Error",
		},
		{
			name:  "record not found is ignored",
			level: gormlogger.Error,
			err:   gormlogger.ErrRecordNotFound,
		},
		{
			name:      "record not found reported when asked",
			level:     gormlogger.Error,
			opts:      []GormLoggerOption{WithIgnoreRecordNotFoundError(false)},
			err:       gormlogger.ErrRecordNotFound,
			wantLevel: zapcore.ErrorLevel,
			wantMsg:   "SQL Error",
		},
		{
			name:      "slow query",
			level:     gormlogger.Warn,
			opts:      []GormLoggerOption{WithSlowThreshold(time.Millisecond)},
			begin:     time.Now().Add(-time.Second),
			wantLevel: zapcore.WarnLevel,
			wantMsg:   "SLOW SQL >= 1ms",
		},
		{
			name:  "slow query check disabled",
			level: gormlogger.Warn,
			opts:  []GormLoggerOption{WithSlowThreshold(0)},
			begin: time.Now().Add(-time.Second),
		},
		{
			name:      "regular query at info",
			level:     gormlogger.Info,
			wantLevel: zapcore.DebugLevel,
			wantMsg:   "SQL Query",
		},
		{
			name:  "regular query below info",
			level: gormlogger.Warn,
		},
		{
			name:  "silent",
			level: gormlogger.Silent,
			err:   errors.New("ignored"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gl, logs := observedGorm(tt.level, tt.opts...)
			begin := tt.begin
			if begin.IsZero() {
				begin = time.Now()
			}

			gl.Trace(context.Background(), begin, statement(query, 4), tt.err)

			if tt.wantMsg == "" {
				assert.Zero(t, logs.Len())
				return
			}
			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, tt.wantLevel, entry.Level)
			assert.Equal(t, tt.wantMsg, entry.Message)

			fields := entry.ContextMap()
			assert.Equal(t, query, fields["sql"])
			assert.EqualValues(t, 4, fields["rows"])
			assert.Contains(t, fields, "elapsed")
			if tt.err != nil {
				assert.Equal(t, tt.err.Error(), fields["error"])
			}
		})
	}
}

func TestGormLogger_Trace_CarriesCorrelationFields(t *testing.T) {
	gl, logs := observedGorm(gormlogger.Info)

	ctx, _ := WithFields(context.Background(), zap.NewNop(), Fields{RequestID: "req-7"})
	ctx, _ = WithFields(ctx, zap.NewNop(), Fields{BatchID: "batch-1", StagedOrderID: "order-1"})
	gl.Trace(ctx, time.Now(), statement("SELECT * FROM staged_orders WHERE id = $1 FOR UPDATE", 1), nil)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-7", fields["request_id"])
	assert.Equal(t, "batch-1", fields["batch_id"])
	assert.Equal(t, "order-1", fields["staged_order_id"])
}

func TestGormLogger_Trace_WithoutCorrelationFields(t *testing.T) {
	gl, logs := observedGorm(gormlogger.Info)

	gl.Trace(context.Background(), time.Now(), statement("SELECT 1", 1), nil)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.NotContains(t, fields, "request_id")
	assert.NotContains(t, fields, "batch_id")
}

func TestGormLogger_ParamsFilter(t *testing.T) {
	const query = "INSERT INTO staged_orders (buyer_name) VALUES ($1)"

	hidden, _ := observedGorm(gormlogger.Info)
	sql, params := hidden.ParamsFilter(context.Background(), query, "Jane Doe")
	assert.Equal(t, query, sql)
	assert.Nil(t, params)

	shown, _ := observedGorm(gormlogger.Info, WithParameterizedQueries(false))
	_, params = shown.ParamsFilter(context.Background(), query, "Jane Doe")
	assert.Equal(t, []any{"Jane Doe"}, params)
}

func TestGormLogger_Truncate(t *testing.T) {
	long := "INSERT INTO staged_order_lines VALUES " + strings.Repeat("(?),", 200)

	gl, logs := observedGorm(gormlogger.Info, WithMaxSQLLength(16))
	gl.Trace(context.Background(), time.Now(), statement(long, 200), nil)

	require.Equal(t, 1, logs.Len())
	logged, ok := logs.All()[0].ContextMap()["sql"].(string)
	require.True(t, ok)
	assert.Equal(t, long[:16]+fmt.Sprintf("... (%d bytes)", len(long)), logged)

	unlimited, _ := observedGorm(gormlogger.Info, WithMaxSQLLength(0))
	assert.Equal(t, long, unlimited.truncate(long))
	assert.Equal(t, "SELECT 1", gl.truncate("SELECT 1"))
}

func TestMapGormLogLevel(t *testing.T) {
	tests := map[string]gormlogger.LogLevel{
		"silent":  gormlogger.Silent,
		"error":   gormlogger.Error,
		"warn":    gormlogger.Warn,
		"WARNING": gormlogger.Warn,
		"info":    gormlogger.Info,
		" Info ":  gormlogger.Info,
		"debug":   gormlogger.Info,
		"unknown": gormlogger.Warn,
		"":        gormlogger.Warn,
	}

	for level, want := range tests {
		assert.Equal(t, want, MapGormLogLevel(level), "level %q", level)
	}
}
