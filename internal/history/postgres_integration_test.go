//go:build integration

package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgres starts a Postgres container and returns its DSN.
func setupPostgres(t *testing.T) (string, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "loti",
			"POSTGRES_DB":       "lotismart",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Postgres container: %v", err)
	}

	host, err := pgC.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := pgC.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://postgres:loti@%s:%s/lotismart?sslmode=disable", host, port.Port())
	cleanup := func() {
		if err := pgC.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate Postgres container: %v", err)
		}
	}
	return dsn, cleanup
}

func TestPostgresLog_AppendAndList(t *testing.T) {
	dsn, cleanup := setupPostgres(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	l, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	defer l.Close()

	// Schema creation is idempotent
	require.NoError(t, l.EnsureSchema(ctx))

	for i := 1; i <= 3; i++ {
		require.NoError(t, l.Append(ctx, sampleRecord(i)))
	}

	records, err := l.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "run-001", records[0].ID)
	assert.Equal(t, 3, records[2].LotCount)
	assert.True(t, records[1].Timestamp.Equal(sampleRecord(2).Timestamp))

	// Duplicate IDs are rejected
	assert.Error(t, l.Append(ctx, sampleRecord(1)))
}
