package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	dbpkg "github.com/gatewarden/server/internal/db"
	"github.com/gatewarden/server/internal/gatewarden/store"
)

type AttendanceEventStore struct {
	conn   *sql.DB
	writer *dbpkg.Writer
}

func NewAttendanceEventStore(conn *sql.DB, writer *dbpkg.Writer) *AttendanceEventStore {
	return &AttendanceEventStore{conn: conn, writer: writer}
}

const eventColumns = `
event_id, member_id, device_id, event_type, timestamp_ms, method, outcome,
reason, duration_minutes, location, source_address, metadata, recorded_by,
recorded_at_ms`

func (s *AttendanceEventStore) Append(ctx context.Context, rec store.EventRecord) error {
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}

	var reason any
	if rec.Reason != "" {
		reason = rec.Reason
	}
	var duration any
	if rec.DurationMinutes != nil {
		duration = *rec.DurationMinutes
	}
	var recordedBy any
	if rec.RecordedBy != "" {
		recordedBy = rec.RecordedBy
	}
	var metadata any
	if len(rec.Metadata) > 0 {
		b, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("Append marshal metadata: %w", err)
		}
		metadata = string(b)
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO attendance_events(
  event_id, member_id, device_id, event_type, timestamp_ms, method, outcome,
  reason, duration_minutes, location, source_address, metadata, recorded_by,
  recorded_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
			rec.ID, rec.MemberID, rec.DeviceID, rec.EventType,
			rec.Timestamp.UTC().UnixMilli(), rec.Method, rec.Outcome,
			reason, duration, rec.Location, rec.SourceAddress, metadata,
			recordedBy, rec.RecordedAt.UTC().UnixMilli(),
		); err != nil {
			return fmt.Errorf("Append insert: %w", err)
		}
		return nil
	})
}

func (s *AttendanceEventStore) LatestForMember(ctx context.Context, memberID string, successOnly bool) (*store.EventRecord, error) {
	query := `SELECT ` + eventColumns + ` FROM attendance_events WHERE member_id = ?`
	if successOnly {
		query += ` AND outcome = 'success'`
	}
	query += ` ORDER BY timestamp_ms DESC, seq DESC LIMIT 1;`

	rec, err := scanEvent(s.conn.QueryRowContext(ctx, query, memberID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("LatestForMember %s: %w", memberID, err)
	}
	return &rec, nil
}

func (s *AttendanceEventStore) FirstCheckoutAfter(ctx context.Context, memberID string, after time.Time, successOnly bool) (*store.EventRecord, error) {
	// Strictly after: a backdated or clock-skewed checkout that precedes the
	// check-in must never match.
	query := `SELECT ` + eventColumns + ` FROM attendance_events
WHERE member_id = ? AND event_type = 'check-out' AND timestamp_ms > ?`
	if successOnly {
		query += ` AND outcome = 'success'`
	}
	query += ` ORDER BY timestamp_ms ASC, seq ASC LIMIT 1;`

	rec, err := scanEvent(s.conn.QueryRowContext(ctx, query, memberID, after.UTC().UnixMilli()))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FirstCheckoutAfter %s: %w", memberID, err)
	}
	return &rec, nil
}

func (s *AttendanceEventStore) RecentForMember(ctx context.Context, memberID string, limit int) ([]store.EventRecord, error) {
	return s.recent(ctx, "member_id", memberID, limit)
}

func (s *AttendanceEventStore) RecentForDevice(ctx context.Context, deviceID string, limit int) ([]store.EventRecord, error) {
	return s.recent(ctx, "device_id", deviceID, limit)
}

func (s *AttendanceEventStore) recent(ctx context.Context, column, id string, limit int) ([]store.EventRecord, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM attendance_events
WHERE `+column+` = ? ORDER BY timestamp_ms DESC, seq DESC LIMIT ?;`, id, limit)
	if err != nil {
		return nil, fmt.Errorf("recent by %s: %w", column, err)
	}
	defer rows.Close()

	var out []store.EventRecord
	for rows.Next() {
		rec, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("recent scan: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanEvent(row rowScanner) (store.EventRecord, error) {
	var (
		rec        store.EventRecord
		tsMs       int64
		reason     sql.NullString
		duration   sql.NullInt64
		metadata   sql.NullString
		recordedBy sql.NullString
		recordedMs int64
	)
	err := row.Scan(
		&rec.ID, &rec.MemberID, &rec.DeviceID, &rec.EventType, &tsMs,
		&rec.Method, &rec.Outcome, &reason, &duration, &rec.Location,
		&rec.SourceAddress, &metadata, &recordedBy, &recordedMs,
	)
	if err != nil {
		return store.EventRecord{}, err
	}

	rec.Timestamp = time.UnixMilli(tsMs).UTC()
	rec.RecordedAt = time.UnixMilli(recordedMs).UTC()
	if reason.Valid {
		rec.Reason = reason.String
	}
	if duration.Valid {
		d := int(duration.Int64)
		rec.DurationMinutes = &d
	}
	if recordedBy.Valid {
		rec.RecordedBy = recordedBy.String
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &rec.Metadata); err != nil {
			return store.EventRecord{}, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return rec, nil
}
