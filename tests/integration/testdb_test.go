// Package integration runs the marketplace flows against a real PostgreSQL
// started with testcontainers and migrated with the embedded schema.
package integration

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/erp/resale/internal/infrastructure/logger"
	"github.com/erp/resale/internal/infrastructure/migration"
	"github.com/erp/resale/internal/infrastructure/persistence"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// One container serves the whole package; tests truncate before seeding.
var shared struct {
	once      sync.Once
	container *tcpostgres.PostgresContainer
	dsn       string
	err       error
}

func TestMain(m *testing.M) {
	flag.Parse()
	code := m.Run()
	if shared.container != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		_ = shared.container.Terminate(ctx)
		cancel()
	}
	os.Exit(code)
}

// TestDB is a connection to the package database
type TestDB struct {
	DB *gorm.DB
	t  *testing.T
}

// NewSharedTestDB starts and migrates the package container on first use
// and opens a connection closed with the test. Set TEST_DB_DEBUG to log SQL.
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()

	shared.once.Do(func() {
		shared.container, shared.dsn, shared.err = startPostgres(context.Background())
	})
	require.NoError(t, shared.err, "start PostgreSQL container")

	level := gormlogger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = gormlogger.Info
	}
	db, err := gorm.Open(gormpostgres.Open(shared.dsn),
		persistence.GormConfig(logger.NewGormLogger(zaptest.NewLogger(t), level)))
	require.NoError(t, err, "connect to database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(10)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return &TestDB{DB: db, t: t}
}

func startPostgres(ctx context.Context) (*tcpostgres.PostgresContainer, string, error) {
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("resale_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return nil, "", err
	}
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return container, "", err
	}
	if err := migrateUp(dsn); err != nil {
		return container, "", fmt.Errorf("migrate: %w", err)
	}
	return container, dsn, nil
}

// migrateUp applies the embedded schema over its own connection; closing
// the migrator closes the handle it was given.
func migrateUp(dsn string) error {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, zap.NewNop())
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	defer m.Close()
	return m.Up()
}

// CleanTables truncates every table except the migration bookkeeping
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()

	var tables []string
	err := tdb.DB.Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public' AND tablename <> 'schema_migrations'
	`).Scan(&tables).Error
	require.NoError(tdb.t, err, "list tables")

	for _, table := range tables {
		require.NoError(tdb.t, tdb.DB.Exec(fmt.Sprintf(`TRUNCATE TABLE %q CASCADE`, table)).Error, table)
	}
}
