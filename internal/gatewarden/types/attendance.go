package types

import "time"

type EventType string

const (
	EventCheckIn  EventType = "check-in"
	EventCheckOut EventType = "check-out"
)

type Method string

const (
	MethodCard      Method = "card"
	MethodBiometric Method = "biometric"
	MethodMobile    Method = "mobile"
	MethodManual    Method = "manual"
)

// Outcome describes what happened at the door.  denied/error are valid,
// successfully-recorded outcomes, not failures of this subsystem.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeDenied  Outcome = "denied"
	OutcomeError   Outcome = "error"
)

// Presence is a member's derived check-in state.
type Presence string

const (
	PresenceIn  Presence = "in"
	PresenceOut Presence = "out"
)

type AppendEventRequest struct {
	MemberID        string            `json:"member_id"`
	DeviceID        string            `json:"device_id"`
	EventType       string            `json:"event_type"`
	Timestamp       string            `json:"timestamp,omitempty"` // optional device timestamp
	Method          string            `json:"method"`
	Outcome         string            `json:"outcome"`
	Reason          string            `json:"reason,omitempty"`
	DurationMinutes *int              `json:"duration_minutes,omitempty"`
	Location        string            `json:"location,omitempty"`
	SourceAddress   string            `json:"source_address,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	RecordedBy      string            `json:"recorded_by,omitempty"` // set for manual corrections
}

// AttendanceEvent is immutable once written.  Corrections are appended as
// new events, never made by mutation.
type AttendanceEvent struct {
	ID              string            `json:"id"`
	MemberID        string            `json:"member_id"`
	DeviceID        string            `json:"device_id"`
	EventType       EventType         `json:"event_type"`
	Timestamp       time.Time         `json:"timestamp"`
	Method          Method            `json:"method"`
	Outcome         Outcome           `json:"outcome"`
	Reason          string            `json:"reason,omitempty"`
	DurationMinutes *int              `json:"duration_minutes,omitempty"`
	Location        string            `json:"location,omitempty"`
	SourceAddress   string            `json:"source_address,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	RecordedBy      string            `json:"recorded_by,omitempty"`
	RecordedAt      time.Time         `json:"recorded_at"`
}
