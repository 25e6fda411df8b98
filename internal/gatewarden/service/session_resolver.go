package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gatewarden/server/internal/gatewarden/store"
	"github.com/gatewarden/server/internal/gatewarden/types"
)

// PresencePolicy controls which events participate in presence derivation.
// With SuccessfulOnly set, denied/error events are recorded in the log but
// cannot flip a member's presence or close a session.
type PresencePolicy struct {
	SuccessfulOnly bool
}

var (
	// DefaultPresencePolicy counts only successful events.  A denied swipe
	// at the door did not move anyone through it.
	DefaultPresencePolicy = PresencePolicy{SuccessfulOnly: true}

	// LegacyPresencePolicy reproduces the historical behavior of looking at
	// event type alone, outcome ignored.
	LegacyPresencePolicy = PresencePolicy{SuccessfulOnly: false}
)

// SessionResolver derives a member's presence and session duration from the
// event log on demand.  Nothing here is cached or stored; state is always
// recomputed from the latest qualifying events.
type SessionResolver struct {
	events store.AttendanceEventStore
	policy PresencePolicy
}

func NewSessionResolver(events store.AttendanceEventStore, policy PresencePolicy) *SessionResolver {
	return &SessionResolver{events: events, policy: policy}
}

// CurrentStatus reports "in" iff the member's latest qualifying event is a
// check-in.  An empty log means "out".
func (s *SessionResolver) CurrentStatus(ctx context.Context, memberID string) (types.Presence, error) {
	ev, err := s.events.LatestForMember(ctx, strings.TrimSpace(memberID), s.policy.SuccessfulOnly)
	if err != nil {
		return "", err
	}
	if ev == nil {
		return types.PresenceOut, nil
	}
	if ev.EventType == string(types.EventCheckIn) {
		return types.PresenceIn, nil
	}
	return types.PresenceOut, nil
}

// SessionDuration returns the whole minutes between checkIn and the first
// qualifying check-out strictly after it, or nil when no such check-out
// exists.  An open session and one that was never closed are
// indistinguishable; both yield nil.
func (s *SessionResolver) SessionDuration(ctx context.Context, memberID string, checkIn time.Time) (*int, error) {
	co, err := s.events.FirstCheckoutAfter(ctx, strings.TrimSpace(memberID), checkIn, s.policy.SuccessfulOnly)
	if err != nil {
		return nil, err
	}
	if co == nil {
		return nil, nil
	}
	minutes := int(co.Timestamp.Sub(checkIn) / time.Minute)
	return &minutes, nil
}

// FormatDuration renders minutes as "45m" or "2h 5m".  nil stays nil.
func FormatDuration(minutes *int) *string {
	if minutes == nil {
		return nil
	}
	var out string
	if *minutes >= 60 {
		out = fmt.Sprintf("%dh %dm", *minutes/60, *minutes%60)
	} else {
		out = fmt.Sprintf("%dm", *minutes)
	}
	return &out
}
