package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gatewarden/server/internal/gatewarden/service"
)

// recordingGateway captures every command for inspection.
type recordingGateway struct {
	reminders []string
	suspended []string
	confirmed []struct {
		memberID    string
		amountCents int64
	}
	err error
}

func (g *recordingGateway) PaymentReminder(_ context.Context, memberID string) error {
	g.reminders = append(g.reminders, memberID)
	return g.err
}

func (g *recordingGateway) AccessSuspended(_ context.Context, memberID string) error {
	g.suspended = append(g.suspended, memberID)
	return g.err
}

func (g *recordingGateway) PaymentConfirmed(_ context.Context, memberID string, amountCents int64) error {
	g.confirmed = append(g.confirmed, struct {
		memberID    string
		amountCents int64
	}{memberID, amountCents})
	return g.err
}

func TestBillingNotifier_ForwardsCommands(t *testing.T) {
	gw := &recordingGateway{}
	notifier := service.NewBillingNotifier(gw, zap.NewNop())
	ctx := context.Background()

	notifier.MemberOverdue(ctx, "M1")
	notifier.MemberSuspended(ctx, "M2")
	notifier.PaymentReceived(ctx, "M3", 4999)

	require.Equal(t, []string{"M1"}, gw.reminders)
	require.Equal(t, []string{"M2"}, gw.suspended)
	require.Len(t, gw.confirmed, 1)
	require.Equal(t, "M3", gw.confirmed[0].memberID)
	require.Equal(t, int64(4999), gw.confirmed[0].amountCents)
}

func TestBillingNotifier_GatewayErrorsLoggedNotPropagated(t *testing.T) {
	core, observed := observer.New(zap.WarnLevel)

	gw := &recordingGateway{err: errors.New("gateway down")}
	notifier := service.NewBillingNotifier(gw, zap.New(core))

	// Fire-and-forget: no panic, no error surfaces to the caller.
	notifier.MemberSuspended(context.Background(), "M1")

	logs := observed.FilterMessage("access suspended notification failed").All()
	require.Len(t, logs, 1)
	require.Equal(t, "M1", logs[0].ContextMap()["member_id"])
}
