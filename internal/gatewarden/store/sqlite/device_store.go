package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/gatewarden/server/internal/db"
	"github.com/gatewarden/server/internal/gatewarden/store"
)

type DeviceStore struct {
	conn   *sql.DB
	writer *dbpkg.Writer
}

func NewDeviceStore(conn *sql.DB, writer *dbpkg.Writer) *DeviceStore {
	return &DeviceStore{conn: conn, writer: writer}
}

const deviceColumns = `
device_id, name, location, role, address, port,
active, last_heartbeat_ms, timeout_ms, retry_attempts, logging_enabled,
owner, created_at_ms, updated_at_ms`

func (s *DeviceStore) Insert(ctx context.Context, rec store.DeviceRecord) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		// The duplicate check and the insert share a transaction on the
		// single writer goroutine, so the check cannot race another insert.
		var one int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM devices WHERE device_id = ?;`, rec.DeviceID,
		).Scan(&one)
		if err == nil {
			return store.ErrDeviceExists
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("Insert check device: %w", err)
		}

		var hbMs any
		if rec.LastHeartbeat != nil {
			hbMs = rec.LastHeartbeat.UTC().UnixMilli()
		}

		if _, err := tx.ExecContext(ctx, `
INSERT INTO devices(
  device_id, name, location, role, address, port,
  active, last_heartbeat_ms, timeout_ms, retry_attempts, logging_enabled,
  owner, created_at_ms, updated_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
			rec.DeviceID, rec.Name, rec.Location, rec.Role, rec.Address, rec.Port,
			boolToInt(rec.Active), hbMs, rec.TimeoutMs, rec.RetryAttempts,
			boolToInt(rec.LoggingEnabled), rec.Owner,
			rec.CreatedAt.UTC().UnixMilli(), rec.UpdatedAt.UTC().UnixMilli(),
		); err != nil {
			return fmt.Errorf("Insert device %s: %w", rec.DeviceID, err)
		}
		return nil
	})
}

func (s *DeviceStore) Get(ctx context.Context, deviceID string) (store.DeviceRecord, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE device_id = ?;`, deviceID)

	rec, err := scanDevice(row)
	if err == sql.ErrNoRows {
		return store.DeviceRecord{}, store.ErrDeviceNotFound
	}
	if err != nil {
		return store.DeviceRecord{}, fmt.Errorf("Get device %s: %w", deviceID, err)
	}
	return rec, nil
}

func (s *DeviceStore) List(ctx context.Context) ([]store.DeviceRecord, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+deviceColumns+` FROM devices ORDER BY device_id;`)
	if err != nil {
		return nil, fmt.Errorf("List devices: %w", err)
	}
	defer rows.Close()

	var out []store.DeviceRecord
	for rows.Next() {
		rec, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("List scan: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *DeviceStore) SetLastHeartbeat(ctx context.Context, deviceID string, t time.Time) error {
	return s.updateOne(ctx, deviceID, `
UPDATE devices
SET last_heartbeat_ms = ?,
    updated_at_ms     = ?
WHERE device_id = ?;`, t.UTC().UnixMilli(), t.UTC().UnixMilli(), deviceID)
}

func (s *DeviceStore) SetActive(ctx context.Context, deviceID string, active bool, t time.Time) error {
	return s.updateOne(ctx, deviceID, `
UPDATE devices
SET active        = ?,
    updated_at_ms = ?
WHERE device_id = ?;`, boolToInt(active), t.UTC().UnixMilli(), deviceID)
}

func (s *DeviceStore) updateOne(ctx context.Context, deviceID, query string, args ...any) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("update device %s: %w", deviceID, err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return store.ErrDeviceNotFound
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (store.DeviceRecord, error) {
	var (
		rec       store.DeviceRecord
		active    int
		hbMs      sql.NullInt64
		logging   int
		createdMs int64
		updatedMs int64
	)
	err := row.Scan(
		&rec.DeviceID, &rec.Name, &rec.Location, &rec.Role, &rec.Address, &rec.Port,
		&active, &hbMs, &rec.TimeoutMs, &rec.RetryAttempts, &logging,
		&rec.Owner, &createdMs, &updatedMs,
	)
	if err != nil {
		return store.DeviceRecord{}, err
	}

	rec.Active = active == 1
	rec.LoggingEnabled = logging == 1
	if hbMs.Valid {
		t := time.UnixMilli(hbMs.Int64).UTC()
		rec.LastHeartbeat = &t
	}
	rec.CreatedAt = time.UnixMilli(createdMs).UTC()
	rec.UpdatedAt = time.UnixMilli(updatedMs).UTC()
	return rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
