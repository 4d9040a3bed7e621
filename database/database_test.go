/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type widget struct {
	bun.BaseModel `bun:"table:db_test_widget,alias:w"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull"`
}

func init() {
	RegisteredModel(NewModelAdapter((*widget)(nil), 0))
}

func memoryConfig(t *testing.T) *ConnectionConfig {
	cfg := DefaultConnectionConfig()
	cfg.DBName = fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	cfg.HealthCheckInterval = 0
	cfg.SlowQueryTime = 0
	return cfg
}

func connect(t *testing.T, cfg *ConnectionConfig) AbstractDatabaseManager {
	t.Helper()
	m := NewDatabaseManager(cfg)
	require.NoError(t, m.Connect(context.Background()))
	t.Cleanup(func() { _ = m.Disconnect() })
	return m
}

func TestIsSqlError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		is   bool
		kind SQLError
	}{
		{"nil", nil, false, UnknownErr},
		{"no rows", fmt.Errorf("find: %w", sql.ErrNoRows), true, NoRowsErr},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, true, DuplicateKeyErr},
		{"mysql unknown column", &mysql.MySQLError{Number: 1054}, true, NoColumnErr},
		{"sqlite missing table", errors.New("SQL logic error: no such table: member (1)"), true, NoTableErr},
		{"sqlite table exists", errors.New("table member already exists"), true, ExistTableErr},
		{"postgres relation exists", errors.New(`pq: relation "member" already exists`), true, ExistTableErr},
		{"sqlite unique", errors.New("UNIQUE constraint failed: team.name"), true, DuplicateKeyErr},
		{"sqlite foreign key", errors.New("FOREIGN KEY constraint failed"), true, ForeignKeyViolationErr},
		{"other", errors.New("connection refused"), false, UnknownErr},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			is, kind := IsSqlError(tc.err)
			assert.Equal(t, tc.is, is)
			assert.Equal(t, tc.kind, kind, "got %s", kind)
		})
	}
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "app.db", sqliteDSN("app"))
	assert.Equal(t, ":memory:", sqliteDSN(":memory:"))
	assert.Equal(t, "file:x?mode=memory&cache=shared", sqliteDSN("file:x?mode=memory&cache=shared"))
	assert.Equal(t, "file::memory:?cache=shared", sqliteDSN(""))
	assert.True(t, isSQLiteMemory("file:x?mode=memory"))
	assert.False(t, isSQLiteMemory("file:data.db"))
}

func TestManagerLifecycle(t *testing.T) {
	ctx := context.Background()
	m := connect(t, memoryConfig(t))

	require.NoError(t, m.Ping(ctx))
	status := m.HealthCheck(ctx)
	assert.True(t, status.Healthy)
	assert.True(t, status.Connected)
	assert.Empty(t, status.LastError)
	assert.Equal(t, 1, m.GetStats().MaxOpenConns)

	require.NoError(t, m.Disconnect())
	assert.Nil(t, m.GetDB())
	assert.Error(t, m.Ping(ctx))
	assert.False(t, m.HealthCheck(ctx).Healthy)
}

func TestFactoryRejectsUnknownType(t *testing.T) {
	cfg := DefaultConnectionConfig()
	cfg.Type = "oracle"
	_, err := NewDatabaseFactory().CreateFromConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestFactoryEnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_ENABLE_METRICS", "true")
	t.Setenv("DB_ENABLE_RECONNECT", "0")
	t.Setenv("DB_SLOW_QUERY_TIME", "250ms")
	t.Setenv("DB_CONN_MAX_LIFETIME", "90")
	t.Setenv("DB_RECONNECT_INTERVAL", "1m30s")

	cfg := DefaultConnectionConfig()
	NewDatabaseFactory().overrideFromEnv(cfg)

	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 5433, cfg.Port)
	assert.True(t, cfg.EnableMetrics)
	assert.False(t, cfg.EnableReconnect)
	assert.Equal(t, 250*time.Millisecond, cfg.SlowQueryTime)
	assert.Equal(t, 90*time.Second, cfg.ConnMaxLifetime)
	assert.Equal(t, 90*time.Second, cfg.ReconnectInterval)
}

func TestFactoryEnvOverridesIgnoreGarbage(t *testing.T) {
	t.Setenv("DB_SLOW_QUERY_TIME", "soon")
	t.Setenv("DB_ENABLE_QUERY_LOG", "maybe")

	cfg := DefaultConnectionConfig()
	NewDatabaseFactory().overrideFromEnv(cfg)

	assert.Equal(t, 2*time.Second, cfg.SlowQueryTime)
	assert.False(t, cfg.EnableQueryLog)
}

func TestCreateSchemaIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := connect(t, memoryConfig(t)).GetDB()

	require.NoError(t, CreateSchema(ctx, db, SchemaConfig{WithForeignKeys: true}, GetLogger()))
	require.NoError(t, CreateSchema(ctx, db, SchemaConfig{WithForeignKeys: true}, GetLogger()))

	_, err := db.NewInsert().Model(&widget{Name: "a"}).Exec(ctx)
	require.NoError(t, err)
	n, err := db.NewSelect().Model((*widget)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMetricsHook(t *testing.T) {
	ctx := context.Background()
	db := connect(t, memoryConfig(t)).GetDB()
	require.NoError(t, CreateSchema(ctx, db, SchemaConfig{}, nil))

	reg := prometheus.NewRegistry()
	metrics := NewQueryMetrics(reg, QueryMetricsConfig{Namespace: "test"})
	db.AddQueryHook(NewMetricsHook(metrics))

	_, err := db.NewSelect().Model((*widget)(nil)).Count(ctx)
	require.NoError(t, err)
	_, err = db.NewSelect().Table("missing_table").Column("id").Exec(ctx)
	require.Error(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.queriesTotal.WithLabelValues("SELECT", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.queriesTotal.WithLabelValues("SELECT", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.queryDuration))
}

func TestRegistryOrdersByPriority(t *testing.T) {
	r := newModelRegistry()
	r.Register(NewModelAdapter("second", 1))
	r.Register(NewModelAdapter("first", 0))
	r.Register(NewModelAdapter("third", 1))

	models := r.Models()
	require.Len(t, models, 3)
	assert.Equal(t, "first", models[0].Instance())
	assert.Equal(t, "second", models[1].Instance())
	assert.Equal(t, "third", models[2].Instance())
}

type recordingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *recordingLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *recordingLogger) SetLevel(LogLevel)                  {}
func (l *recordingLogger) Debug(msg string, _ ...interface{}) { l.record(msg) }
func (l *recordingLogger) Info(msg string, _ ...interface{})  { l.record(msg) }
func (l *recordingLogger) Warn(msg string, _ ...interface{})  { l.record(msg) }
func (l *recordingLogger) Error(msg string, _ ...interface{}) { l.record(msg) }

func (l *recordingLogger) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.messages...)
}

func useGlobalLogger(t *testing.T, l Logger) {
	globalLoggerMu.Lock()
	saved := globalLogger
	globalLogger = l
	globalLoggerMu.Unlock()
	t.Cleanup(func() {
		globalLoggerMu.Lock()
		globalLogger = saved
		globalLoggerMu.Unlock()
	})
}

func useModels(t *testing.T, models ...SQLModel) {
	saved := defaultRegistry
	defaultRegistry = newModelRegistry()
	RegisteredModel(models...)
	t.Cleanup(func() { defaultRegistry = saved })
}

type unbuildable struct {
	bun.BaseModel `bun:"table:db_test_unbuildable"`

	ID int64 `bun:"id,pk,type:bogus)"`
}

func TestInitDBClosesConnectionWhenSchemaFails(t *testing.T) {
	logger := &recordingLogger{}
	useGlobalLogger(t, logger)
	useModels(t, NewModelAdapter((*unbuildable)(nil), 0))
	t.Cleanup(func() { _ = CloseDB() })

	cfg := &Config{
		ConnectionConfig: *memoryConfig(t),
		SchemaConfig:     SchemaConfig{CreateOnStartup: true},
	}
	db, err := InitDB(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unbuildable")
	assert.Nil(t, db)

	assert.Contains(t, logger.Messages(), "Database connection closed")
	assert.Nil(t, GetDB())
	assert.False(t, GetHealthStatus(context.Background()).Connected)
	assert.Zero(t, GetDatabaseStats().OpenConns)
}

func TestInitDBAndGlobals(t *testing.T) {
	useModels(t, NewModelAdapter((*widget)(nil), 0))
	ctx := context.Background()

	cfg := &Config{
		ConnectionConfig: *memoryConfig(t),
		SchemaConfig:     SchemaConfig{CreateOnStartup: true},
	}
	db, err := InitDB(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseDB() })
	assert.Same(t, db, GetDB())

	_, err = db.NewInsert().Model(&widget{Name: "a"}).Exec(ctx)
	require.NoError(t, err)

	status := GetHealthStatus(ctx)
	assert.True(t, status.Healthy)
	assert.Equal(t, 1, GetDatabaseStats().MaxOpenConns)

	require.NoError(t, CloseDB())
	assert.Nil(t, GetDB())
	assert.False(t, GetHealthStatus(ctx).Healthy)
}

func fileConfig(t *testing.T) *ConnectionConfig {
	cfg := DefaultConnectionConfig()
	cfg.DBName = filepath.Join(t.TempDir(), "reconnect")
	cfg.HealthCheckInterval = 0
	cfg.SlowQueryTime = 0
	cfg.ReconnectInterval = 0
	cfg.MaxReconnectTries = 1
	return cfg
}

func TestManagerReconnect(t *testing.T) {
	ctx := context.Background()
	m := connect(t, fileConfig(t))
	db := m.GetDB()
	require.NoError(t, CreateSchema(ctx, db, SchemaConfig{}, nil))
	_, err := db.NewInsert().Model(&widget{Name: "kept"}).Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, m.Reconnect(ctx))
	assert.NotSame(t, db, m.GetDB())
	n, err := m.GetDB().NewSelect().Model((*widget)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestHandleReconnect(t *testing.T) {
	ctx := context.Background()

	t.Run("restores a dropped connection", func(t *testing.T) {
		dm := NewDatabaseManager(fileConfig(t)).(*defaultDatabaseManager)
		require.NoError(t, dm.Connect(ctx))
		t.Cleanup(func() { _ = dm.Disconnect() })
		require.NoError(t, dm.Disconnect())

		dm.handleReconnect()
		assert.Zero(t, dm.reconnectTries)
		assert.NoError(t, dm.Ping(ctx))
	})

	t.Run("gives up after max tries", func(t *testing.T) {
		dm := NewDatabaseManager(fileConfig(t)).(*defaultDatabaseManager)
		require.NoError(t, dm.Connect(ctx))
		require.NoError(t, dm.Disconnect())
		dm.reconnectTries = dm.config.MaxReconnectTries

		dm.handleReconnect()
		assert.Nil(t, dm.GetDB())
		assert.Error(t, dm.Ping(ctx))
	})
}
