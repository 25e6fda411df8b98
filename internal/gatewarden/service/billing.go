package service

import (
	"context"

	"go.uber.org/zap"
)

// NotificationGateway is the narrow outbound contract to the notification
// collaborator.  Commands are fire-and-forget; delivery is out of scope.
type NotificationGateway interface {
	PaymentReminder(ctx context.Context, memberID string) error
	AccessSuspended(ctx context.Context, memberID string) error
	PaymentConfirmed(ctx context.Context, memberID string, amountCents int64) error
}

// BillingNotifier translates billing state changes reported by the caller
// into notification commands.  Gateway errors are logged, never propagated —
// a failed notification must not affect the operation that triggered it.
type BillingNotifier struct {
	gateway NotificationGateway
	logger  *zap.Logger
}

func NewBillingNotifier(gateway NotificationGateway, logger *zap.Logger) *BillingNotifier {
	return &BillingNotifier{gateway: gateway, logger: logger}
}

func (n *BillingNotifier) MemberOverdue(ctx context.Context, memberID string) {
	if err := n.gateway.PaymentReminder(ctx, memberID); err != nil {
		n.logger.Warn("payment reminder failed",
			zap.String("member_id", memberID), zap.Error(err))
	}
}

func (n *BillingNotifier) MemberSuspended(ctx context.Context, memberID string) {
	if err := n.gateway.AccessSuspended(ctx, memberID); err != nil {
		n.logger.Warn("access suspended notification failed",
			zap.String("member_id", memberID), zap.Error(err))
	}
}

func (n *BillingNotifier) PaymentReceived(ctx context.Context, memberID string, amountCents int64) {
	if err := n.gateway.PaymentConfirmed(ctx, memberID, amountCents); err != nil {
		n.logger.Warn("payment confirmation failed",
			zap.String("member_id", memberID), zap.Error(err))
	}
}
