//go:build integration

package testutil

import (
	"context"
	"time"
)

// CleanAll truncates all tables in dependency-safe order.
func (env *TestEnv) CleanAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tables := []string{
		"security_event_outbox",
		"security_nonces",
		"login_attempts",
		"pin_credentials",
		"trusted_devices",
		"anomalies",
		"session_records",
		"users",
	}

	for _, table := range tables {
		_, err := env.Pool.Exec(ctx, "TRUNCATE TABLE "+table+" CASCADE")
		if err != nil {
			env.t.Logf("cleanup %s: %v", table, err)
		}
	}
}
