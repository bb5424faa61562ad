package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// stagedRow is a cut-down staged order row
type stagedRow struct {
	ID              uint   `gorm:"primaryKey"`
	ExternalOrderID string `gorm:"size:100"`
	CreatedAt       time.Time
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&stagedRow{}))
	return db
}

func setupRecorder(t *testing.T) (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, recorder
}

func attrsOf(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		m[kv.Key] = kv.Value
	}
	return m
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()

	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgresql", cfg.DBSystem)
	assert.True(t, cfg.WithoutVariables)
}

func TestNewDBTracingPlugin_DefaultsThreshold(t *testing.T) {
	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true}, nil)

	assert.Equal(t, 200*time.Millisecond, plugin.config.SlowQueryThresh)
	assert.NotNil(t, plugin.logger)
}

func TestDBTracingPlugin_RegisterOtelGorm(t *testing.T) {
	t.Run("disabled registers nothing", func(t *testing.T) {
		db := setupTestDB(t)
		plugin := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())

		require.NoError(t, plugin.RegisterOtelGorm(db))
		assert.Nil(t, db.Callback().Query().Get("otel_timing:after_query"))
	})

	t.Run("enabled registers callbacks", func(t *testing.T) {
		db := setupTestDB(t)
		cfg := DefaultDBTracingConfig()
		cfg.Enabled = true
		cfg.DBSystem = "sqlite"
		plugin := NewDBTracingPlugin(cfg, zap.NewNop())

		require.NoError(t, plugin.RegisterOtelGorm(db))
		assert.NotNil(t, db.Callback().Create().Get("otel_timing:before_create"))
		assert.NotNil(t, db.Callback().Query().Get("otel_timing:after_query"))
		assert.NotNil(t, db.Callback().Raw().Get("otel_timing:after_raw"))

		require.NoError(t, db.Create(&stagedRow{ExternalOrderID: "AO-1"}).Error)
		var found stagedRow
		require.NoError(t, db.First(&found, "external_order_id = ?", "AO-1").Error)
		assert.Equal(t, "AO-1", found.ExternalOrderID)
	})
}

func TestDBTracingPlugin_Annotate(t *testing.T) {
	tp, recorder := setupRecorder(t)
	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true, SlowQueryThresh: 200 * time.Millisecond}, zap.NewNop())

	ctx, span := tp.Tracer("test").Start(context.Background(), "apply")
	ctx = context.WithValue(ctx, queryStartTimeKey, time.Now().Add(-time.Second))

	db := setupTestDB(t).WithContext(ctx)
	db.Statement.Table = "staged_orders"
	db.Statement.RowsAffected = 3
	db.Error = errors.New("deadlock detected")

	plugin.annotate(db)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	attrs := attrsOf(spans[0])
	assert.Equal(t, "staged_orders", attrs["db.sql.table"].AsString())
	assert.Equal(t, int64(3), attrs["db.rows_affected"].AsInt64())
	assert.True(t, attrs["db.slow_query"].AsBool())
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	var eventNames []string
	for _, ev := range spans[0].Events() {
		eventNames = append(eventNames, ev.Name)
	}
	assert.Contains(t, eventNames, "slow_query_warning")
}

func TestDBTracingPlugin_AnnotateIgnoresRecordNotFound(t *testing.T) {
	tp, recorder := setupRecorder(t)
	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true}, zap.NewNop())

	ctx, span := tp.Tracer("test").Start(context.Background(), "lookup")
	db := setupTestDB(t).WithContext(ctx)
	db.Error = gorm.ErrRecordNotFound

	plugin.annotate(db)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
	_, slow := attrsOf(spans[0])["db.slow_query"]
	assert.False(t, slow)
}

func TestDBTracingPlugin_AnnotateWithoutSpan(t *testing.T) {
	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true}, zap.NewNop())
	db := setupTestDB(t).WithContext(context.Background())

	assert.NotPanics(t, func() { plugin.annotate(db) })
}
