// Package testutil provides testing helpers that need real infrastructure.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// SetupPostgres starts a PostgreSQL testcontainer and returns its DSN.
// The container is cleaned up when the test finishes. Tests are skipped
// when Docker is unavailable (set SAASIFY_TEST_SKIP_DOCKER to force).
func SetupPostgres(t testing.TB) string {
	t.Helper()

	if os.Getenv("SAASIFY_TEST_SKIP_DOCKER") != "" {
		t.Skip("skipping container-backed test: SAASIFY_TEST_SKIP_DOCKER set")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("saasify_test"),
		postgres.WithUsername("saasify"),
		postgres.WithPassword("saasify"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("could not start PostgreSQL container (is Docker running?): %v", err)
	}

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	return dsn
}
