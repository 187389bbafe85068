//go:build integration

package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
)

// securityTables are the relations every suite touches. A migration set that
// drifts from the fixtures fails fast here instead of mid-test.
var securityTables = []string{
	"users",
	"session_records",
	"anomalies",
	"trusted_devices",
	"pin_credentials",
	"login_attempts",
	"security_nonces",
	"security_event_outbox",
}

// newMigrate wraps migrate.New for integration tests.
func newMigrate(sourceURL, databaseURL string) (*migrate.Migrate, error) {
	return migrate.New(sourceURL, databaseURL)
}

// verifySchema confirms the migrated database carries the security tables.
func verifySchema(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, table := range securityTables {
		var exists bool
		err := pool.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM information_schema.tables WHERE table_name = $1)",
			table).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check table %s: %w", table, err)
		}
		if !exists {
			return fmt.Errorf("migrations left table %s missing", table)
		}
	}
	return nil
}
