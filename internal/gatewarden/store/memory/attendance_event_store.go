package memory

import (
	"context"
	"sync"
	"time"

	"github.com/gatewarden/server/internal/gatewarden/store"
)

type storedEvent struct {
	seq int64 // insertion order, breaks timestamp ties
	rec store.EventRecord
}

// AttendanceEventStore is an in-memory append-only attendance log for tests
// and dev environments.
type AttendanceEventStore struct {
	mu      sync.Mutex
	nextSeq int64
	events  []storedEvent
}

func NewAttendanceEventStore() *AttendanceEventStore {
	return &AttendanceEventStore{}
}

func (s *AttendanceEventStore) Append(_ context.Context, rec store.EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	s.events = append(s.events, storedEvent{seq: s.nextSeq, rec: rec})
	return nil
}

func (s *AttendanceEventStore) LatestForMember(_ context.Context, memberID string, successOnly bool) (*store.EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var best *storedEvent
	for i := range s.events {
		ev := &s.events[i]
		if ev.rec.MemberID != memberID {
			continue
		}
		if successOnly && ev.rec.Outcome != "success" {
			continue
		}
		if best == nil || laterThan(ev, best) {
			best = ev
		}
	}
	if best == nil {
		return nil, nil
	}
	out := best.rec
	return &out, nil
}

func (s *AttendanceEventStore) FirstCheckoutAfter(_ context.Context, memberID string, after time.Time, successOnly bool) (*store.EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var best *storedEvent
	for i := range s.events {
		ev := &s.events[i]
		if ev.rec.MemberID != memberID || ev.rec.EventType != "check-out" {
			continue
		}
		if successOnly && ev.rec.Outcome != "success" {
			continue
		}
		if !ev.rec.Timestamp.After(after) {
			continue
		}
		if best == nil || earlierThan(ev, best) {
			best = ev
		}
	}
	if best == nil {
		return nil, nil
	}
	out := best.rec
	return &out, nil
}

func (s *AttendanceEventStore) RecentForMember(_ context.Context, memberID string, limit int) ([]store.EventRecord, error) {
	return s.recent(func(rec store.EventRecord) bool { return rec.MemberID == memberID }, limit), nil
}

func (s *AttendanceEventStore) RecentForDevice(_ context.Context, deviceID string, limit int) ([]store.EventRecord, error) {
	return s.recent(func(rec store.EventRecord) bool { return rec.DeviceID == deviceID }, limit), nil
}

func (s *AttendanceEventStore) recent(match func(store.EventRecord) bool, limit int) []store.EventRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]storedEvent, 0)
	for _, ev := range s.events {
		if match(ev.rec) {
			matched = append(matched, ev)
		}
	}

	// Selection sort, newest first.  The memory store only backs tests and
	// dev, so the quadratic pass is fine.
	out := make([]store.EventRecord, 0, limit)
	for len(matched) > 0 && len(out) < limit {
		bestIdx := 0
		for i := 1; i < len(matched); i++ {
			if laterThan(&matched[i], &matched[bestIdx]) {
				bestIdx = i
			}
		}
		out = append(out, matched[bestIdx].rec)
		matched = append(matched[:bestIdx], matched[bestIdx+1:]...)
	}
	return out
}

// laterThan orders by timestamp, insertion sequence breaking ties, matching
// the sqlite store's ORDER BY timestamp_ms DESC, seq DESC.
func laterThan(a, b *storedEvent) bool {
	if !a.rec.Timestamp.Equal(b.rec.Timestamp) {
		return a.rec.Timestamp.After(b.rec.Timestamp)
	}
	return a.seq > b.seq
}

func earlierThan(a, b *storedEvent) bool {
	if !a.rec.Timestamp.Equal(b.rec.Timestamp) {
		return a.rec.Timestamp.Before(b.rec.Timestamp)
	}
	return a.seq < b.seq
}
