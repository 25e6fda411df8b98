package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gatewarden/server/internal/gatewarden/service"
	"github.com/gatewarden/server/internal/gatewarden/store/memory"
	"github.com/gatewarden/server/internal/gatewarden/types"
)

func validAppendRequest() types.AppendEventRequest {
	return types.AppendEventRequest{
		MemberID:      "M1",
		DeviceID:      "door-001",
		EventType:     "check-in",
		Method:        "card",
		Outcome:       "success",
		Location:      "Lobby",
		SourceAddress: "192.168.1.10",
		Metadata:      map[string]string{"card_id": "AABBCCDD"},
	}
}

// ── Append ───────────────────────────────────────────────────────────────────

func TestAppend_RoundTripThroughLatest(t *testing.T) {
	es := memory.NewAttendanceEventStore()
	svc := service.NewAttendanceService(es, zap.NewNop())

	event, err := svc.Append(context.Background(), validAppendRequest())
	require.NoError(t, err)
	require.NotEmpty(t, event.ID)
	require.Equal(t, "DOOR-001", event.DeviceID) // normalized like the registry
	require.False(t, event.Timestamp.IsZero())

	latest, err := es.LatestForMember(context.Background(), "M1", false)
	require.NoError(t, err)
	require.NotNil(t, latest)
	require.Equal(t, event.ID, latest.ID)
	require.Equal(t, "check-in", latest.EventType)
	require.Equal(t, "card", latest.Method)
	require.Equal(t, "success", latest.Outcome)
	require.Equal(t, "Lobby", latest.Location)
	require.Equal(t, "192.168.1.10", latest.SourceAddress)
	require.Equal(t, map[string]string{"card_id": "AABBCCDD"}, latest.Metadata)
}

func TestAppend_DeviceTimestampPreserved(t *testing.T) {
	es := memory.NewAttendanceEventStore()
	svc := service.NewAttendanceService(es, zap.NewNop())

	req := validAppendRequest()
	req.Timestamp = "2026-03-02T09:00:00Z"

	event, err := svc.Append(context.Background(), req)
	require.NoError(t, err)
	require.True(t, event.Timestamp.Equal(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)))
	// recorded_at is always ingestion time.
	require.WithinDuration(t, time.Now().UTC(), event.RecordedAt, 5*time.Second)
}

func TestAppend_DeniedOutcomeIsRecordedNotRejected(t *testing.T) {
	es := memory.NewAttendanceEventStore()
	svc := service.NewAttendanceService(es, zap.NewNop())

	req := validAppendRequest()
	req.Outcome = "denied"
	req.Reason = "membership expired"

	event, err := svc.Append(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, types.OutcomeDenied, event.Outcome)
	require.Equal(t, "membership expired", event.Reason)
}

func TestAppend_ManualCorrectionKeepsRecordedBy(t *testing.T) {
	es := memory.NewAttendanceEventStore()
	svc := service.NewAttendanceService(es, zap.NewNop())

	req := validAppendRequest()
	req.Method = "manual"
	req.RecordedBy = "admin-1"

	event, err := svc.Append(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "admin-1", event.RecordedBy)
}

// ── Validation (nothing persisted) ───────────────────────────────────────────

func TestAppend_ValidationFailures_NothingWritten(t *testing.T) {
	cases := map[string]func(*types.AppendEventRequest){
		"missing member_id": func(r *types.AppendEventRequest) { r.MemberID = "" },
		"missing device_id": func(r *types.AppendEventRequest) { r.DeviceID = " " },
		"bad event_type":    func(r *types.AppendEventRequest) { r.EventType = "check-sideways" },
		"bad method":        func(r *types.AppendEventRequest) { r.Method = "telepathy" },
		"bad outcome":       func(r *types.AppendEventRequest) { r.Outcome = "maybe" },
		"bad timestamp":     func(r *types.AppendEventRequest) { r.Timestamp = "yesterday" },
		"negative duration": func(r *types.AppendEventRequest) { d := -5; r.DurationMinutes = &d },
	}

	for name, mutate := range cases {
		es := memory.NewAttendanceEventStore()
		svc := service.NewAttendanceService(es, zap.NewNop())

		req := validAppendRequest()
		mutate(&req)

		_, err := svc.Append(context.Background(), req)
		var validationErr *service.ValidationError
		require.ErrorAs(t, err, &validationErr, "case %q", name)

		latest, err := es.LatestForMember(context.Background(), "M1", false)
		require.NoError(t, err)
		require.Nil(t, latest, "case %q should not persist anything", name)
	}
}

// ── Concurrency ──────────────────────────────────────────────────────────────

func TestAppend_ConcurrentSameMember_AllRecorded(t *testing.T) {
	es := memory.NewAttendanceEventStore()
	svc := service.NewAttendanceService(es, zap.NewNop())
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := validAppendRequest()
			if i%2 == 1 {
				req.EventType = "check-out"
			}
			_, err := svc.Append(ctx, req)
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()

	events, err := es.RecentForMember(ctx, "M1", n+1)
	require.NoError(t, err)
	require.Len(t, events, n)
}

// ── Listings ─────────────────────────────────────────────────────────────────

func TestRecentForDevice_NewestFirstAndLimited(t *testing.T) {
	es := memory.NewAttendanceEventStore()
	svc := service.NewAttendanceService(es, zap.NewNop())
	ctx := context.Background()

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		req := validAppendRequest()
		req.MemberID = "M1"
		req.Timestamp = base.Add(time.Duration(i) * time.Minute).Format(time.RFC3339)
		_, err := svc.Append(ctx, req)
		require.NoError(t, err)
	}

	events, err := svc.RecentForDevice(ctx, "door-001", 3)
	require.NoError(t, err)
	require.Len(t, events, 3)
	require.True(t, events[0].Timestamp.Equal(base.Add(4*time.Minute)))
	require.True(t, events[1].Timestamp.Equal(base.Add(3*time.Minute)))
	require.True(t, events[2].Timestamp.Equal(base.Add(2*time.Minute)))
}
