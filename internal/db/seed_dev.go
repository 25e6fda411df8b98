package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SeedDev inserts a starter device so a fresh dev environment has something
// to heartbeat against.  Safe to call repeatedly.
func SeedDev(ctx context.Context, conn *sql.DB) error {
	now := time.Now().UTC().UnixMilli()

	if _, err := conn.ExecContext(ctx, `
INSERT OR IGNORE INTO devices(
  device_id, name, location, role, address, port,
  active, timeout_ms, retry_attempts, logging_enabled, owner,
  created_at_ms, updated_at_ms
) VALUES ('DOOR-001', 'Main Entrance', 'Dev', 'both', '192.168.1.10', 8080,
  1, 5000, 3, 1, 'dev-admin', ?, ?);`, now, now); err != nil {
		return fmt.Errorf("seed device DOOR-001: %w", err)
	}

	return nil
}
