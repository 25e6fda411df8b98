package store

import (
	"context"
	"time"
)

// EventRecord is one row of the append-only attendance log.  eventType,
// timestamp, memberID and deviceID never change once written.
type EventRecord struct {
	ID              string
	MemberID        string
	DeviceID        string
	EventType       string
	Timestamp       time.Time
	Method          string
	Outcome         string
	Reason          string
	DurationMinutes *int
	Location        string
	SourceAddress   string
	Metadata        map[string]string
	RecordedBy      string // empty for device-originated events
	RecordedAt      time.Time
}

// AttendanceEventStore persists attendance events and answers the two access
// patterns the resolver needs: latest-by-member and first-checkout-after.
// Both must be efficient on (member, timestamp desc); listings additionally
// exercise (device, timestamp desc).
type AttendanceEventStore interface {
	Append(ctx context.Context, rec EventRecord) error

	// LatestForMember returns the member's most recent event by timestamp,
	// later insertion breaking ties, or nil if the member has no events.
	// With successOnly set, only outcome=success events are considered.
	LatestForMember(ctx context.Context, memberID string, successOnly bool) (*EventRecord, error)

	// FirstCheckoutAfter returns the earliest check-out event strictly after
	// the given instant, or nil.  The strict filter keeps backdated or
	// clock-skewed checkouts from closing a session they precede.
	FirstCheckoutAfter(ctx context.Context, memberID string, after time.Time, successOnly bool) (*EventRecord, error)

	RecentForMember(ctx context.Context, memberID string, limit int) ([]EventRecord, error)
	RecentForDevice(ctx context.Context, deviceID string, limit int) ([]EventRecord, error)
}
