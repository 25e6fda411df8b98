package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatewarden/server/internal/gatewarden/store"
	"github.com/gatewarden/server/internal/gatewarden/types"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// AttendanceService appends check-in/check-out events to the audit log.
// It performs structural validation only; whether an entry was permitted is
// decided upstream by the door controller and merely recorded via outcome.
type AttendanceService struct {
	events store.AttendanceEventStore
	logger *zap.Logger
	locks  memberLocks
}

func NewAttendanceService(events store.AttendanceEventStore, logger *zap.Logger) *AttendanceService {
	return &AttendanceService{events: events, logger: logger}
}

// Append validates and records one event.  Validation failures are reported
// before any write.  Appends for the same member are serialized by a
// per-member lock held only for the duration of the append, so concurrent
// duplicate swipes commit in a consistent total order; different members
// never contend.
func (s *AttendanceService) Append(ctx context.Context, req types.AppendEventRequest) (types.AttendanceEvent, error) {
	memberID := strings.TrimSpace(req.MemberID)
	if memberID == "" {
		return types.AttendanceEvent{}, &ValidationError{Field: "member_id", Reason: "required"}
	}
	deviceID := NormalizeDeviceID(req.DeviceID)
	if deviceID == "" {
		return types.AttendanceEvent{}, &ValidationError{Field: "device_id", Reason: "required"}
	}

	eventType := types.EventType(strings.TrimSpace(req.EventType))
	switch eventType {
	case types.EventCheckIn, types.EventCheckOut:
	default:
		return types.AttendanceEvent{}, &ValidationError{Field: "event_type", Reason: "must be check-in or check-out"}
	}

	method := types.Method(strings.TrimSpace(req.Method))
	switch method {
	case types.MethodCard, types.MethodBiometric, types.MethodMobile, types.MethodManual:
	default:
		return types.AttendanceEvent{}, &ValidationError{Field: "method", Reason: "must be card, biometric, mobile or manual"}
	}

	outcome := types.Outcome(strings.TrimSpace(req.Outcome))
	switch outcome {
	case types.OutcomeSuccess, types.OutcomeDenied, types.OutcomeError:
	default:
		return types.AttendanceEvent{}, &ValidationError{Field: "outcome", Reason: "must be success, denied or error"}
	}

	if req.DurationMinutes != nil && *req.DurationMinutes < 0 {
		return types.AttendanceEvent{}, &ValidationError{Field: "duration_minutes", Reason: "must not be negative"}
	}

	now := time.Now().UTC()
	timestamp := now
	if req.Timestamp != "" {
		t := parseOptionalTimestamp(req.Timestamp)
		if t == nil {
			return types.AttendanceEvent{}, &ValidationError{Field: "timestamp", Reason: "must be RFC3339"}
		}
		timestamp = *t
	}

	rec := store.EventRecord{
		ID:              uuid.NewString(),
		MemberID:        memberID,
		DeviceID:        deviceID,
		EventType:       string(eventType),
		Timestamp:       timestamp,
		Method:          string(method),
		Outcome:         string(outcome),
		Reason:          strings.TrimSpace(req.Reason),
		DurationMinutes: req.DurationMinutes,
		Location:        strings.TrimSpace(req.Location),
		SourceAddress:   strings.TrimSpace(req.SourceAddress),
		Metadata:        req.Metadata,
		RecordedBy:      strings.TrimSpace(req.RecordedBy),
		RecordedAt:      now,
	}

	unlock := s.locks.lock(memberID)
	err := s.events.Append(ctx, rec)
	unlock()
	if err != nil {
		return types.AttendanceEvent{}, err
	}

	s.logger.Info("attendance event recorded",
		zap.String("event_id", rec.ID),
		zap.String("member_id", memberID),
		zap.String("device_id", deviceID),
		zap.String("event_type", string(eventType)),
		zap.String("outcome", string(outcome)))

	return eventToWire(rec), nil
}

func (s *AttendanceService) RecentForMember(ctx context.Context, memberID string, limit int) ([]types.AttendanceEvent, error) {
	recs, err := s.events.RecentForMember(ctx, strings.TrimSpace(memberID), clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return eventsToWire(recs), nil
}

func (s *AttendanceService) RecentForDevice(ctx context.Context, deviceID string, limit int) ([]types.AttendanceEvent, error) {
	recs, err := s.events.RecentForDevice(ctx, NormalizeDeviceID(deviceID), clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return eventsToWire(recs), nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// parseOptionalTimestamp parses a device-reported timestamp.  Returns nil if
// the string is empty or unparseable.
func parseOptionalTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		u := t.UTC()
		return &u
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		u := t.UTC()
		return &u
	}
	return nil
}

// memberLocks hands out one mutex per member id.  Locks are never reclaimed;
// the member population is small and bounded.
type memberLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *memberLocks) lock(memberID string) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	mu, ok := l.locks[memberID]
	if !ok {
		mu = &sync.Mutex{}
		l.locks[memberID] = mu
	}
	l.mu.Unlock()

	mu.Lock()
	return mu.Unlock
}

func eventToWire(rec store.EventRecord) types.AttendanceEvent {
	return types.AttendanceEvent{
		ID:              rec.ID,
		MemberID:        rec.MemberID,
		DeviceID:        rec.DeviceID,
		EventType:       types.EventType(rec.EventType),
		Timestamp:       rec.Timestamp,
		Method:          types.Method(rec.Method),
		Outcome:         types.Outcome(rec.Outcome),
		Reason:          rec.Reason,
		DurationMinutes: rec.DurationMinutes,
		Location:        rec.Location,
		SourceAddress:   rec.SourceAddress,
		Metadata:        rec.Metadata,
		RecordedBy:      rec.RecordedBy,
		RecordedAt:      rec.RecordedAt,
	}
}

func eventsToWire(recs []store.EventRecord) []types.AttendanceEvent {
	out := make([]types.AttendanceEvent, 0, len(recs))
	for _, rec := range recs {
		out = append(out, eventToWire(rec))
	}
	return out
}
