package database

import (
	"context"
	"strconv"
	"testing"
	"time"

	"tapandbuy/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestNewPool_InvalidHost(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := NewPool(ctx, config.DatabaseConfig{
		Host:           "invalid-host",
		Port:           5432,
		User:           "user",
		Password:       "pass",
		Database:       "db",
		MaxConnections: 2,
		MinConnections: 1,
	}, zerolog.Nop())

	require.Error(t, err)
	assert.Nil(t, pool)
}

func TestNewPool_ContextCancelledDuringRetry(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewPool(ctx, config.DatabaseConfig{
		Host:           "127.0.0.1",
		Port:           1,
		User:           "user",
		Password:       "pass",
		Database:       "db",
		MaxConnections: 1,
	}, zerolog.Nop())

	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second, "retries must stop when the context ends")
}

func TestPoolSettings(t *testing.T) {
	pc, err := poolSettings(config.DatabaseConfig{
		Host:            "db",
		Port:            5432,
		User:            "u",
		Password:        "p",
		Database:        "shop",
		MaxConnections:  12,
		MinConnections:  3,
		MaxConnLifetime: 90,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(12), pc.MaxConns)
	assert.Equal(t, int32(3), pc.MinConns)
	assert.Equal(t, 90*time.Second, pc.MaxConnLifetime)
	assert.Equal(t, "shop", pc.ConnConfig.Database)
}

func TestNewPoolAndMigrate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgContainer.Terminate(context.Background()) })

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	pool, err := NewPool(ctx, config.DatabaseConfig{
		Host:            host,
		Port:            portNum,
		User:            "postgres",
		Password:        "postgres",
		Database:        "testdb",
		MaxConnections:  4,
		MinConnections:  1,
		MaxConnLifetime: 60,
	}, zerolog.Nop())
	require.NoError(t, err)
	defer pool.Close()

	require.NoError(t, Migrate(ctx, pool, zerolog.Nop()))
	require.NoError(t, Migrate(ctx, pool, zerolog.Nop()), "schema must be re-appliable")

	var tables int
	err = pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = 'public'
	`).Scan(&tables)
	require.NoError(t, err)
	assert.Equal(t, 13, tables)
}
