// Package dbtest starts a disposable PostgreSQL container for repository
// integration tests. Tests using it are skipped unless DOCKER_AVAILABLE is set.
package dbtest

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"agri-supply/internal/platform/database"

	"github.com/jackc/pgx/v5/pgxpool"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const startupTimeout = 60 * time.Second

// RequireDocker skips t when no Docker daemon has been advertised.
func RequireDocker(t *testing.T) {
	t.Helper()
	if v := os.Getenv("DOCKER_AVAILABLE"); v != "true" && v != "1" {
		t.Skip("docker not available")
	}
}

// StartPostgres launches postgres:16-alpine, applies the schema and returns a pool.
// The container and pool are released through t.Cleanup.
func StartPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	RequireDocker(t)

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "farm",
			"POSTGRES_PASSWORD": "farm",
			"POSTGRES_DB":       "farm",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(startupTimeout),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("failed to get mapped port: %v", err)
	}

	url := fmt.Sprintf("postgres://farm:farm@%s:%s/farm?sslmode=disable", host, port.Port())
	pool, err := database.NewPool(ctx, url, database.Options{MaxConns: 4, TxIdleTimeout: 10 * time.Second})
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := database.ApplySchema(ctx, pool); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	return pool
}
