// Package notify provides NotificationGateway implementations.  This core
// only decides when to send a command; delivery belongs to the collaborator
// behind the gateway's base URL.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPGateway posts notification commands as JSON to a remote notification
// service.  No retries: retry policy, if any, belongs to the receiver.
type HTTPGateway struct {
	client *resty.Client
}

func NewHTTPGateway(baseURL string, timeout time.Duration) *HTTPGateway {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &HTTPGateway{client: client}
}

func (g *HTTPGateway) PaymentReminder(ctx context.Context, memberID string) error {
	return g.post(ctx, "/notifications/payment-reminder", map[string]any{
		"member_id": memberID,
	})
}

func (g *HTTPGateway) AccessSuspended(ctx context.Context, memberID string) error {
	return g.post(ctx, "/notifications/access-suspended", map[string]any{
		"member_id": memberID,
	})
}

func (g *HTTPGateway) PaymentConfirmed(ctx context.Context, memberID string, amountCents int64) error {
	return g.post(ctx, "/notifications/payment-confirmed", map[string]any{
		"member_id":    memberID,
		"amount_cents": amountCents,
	})
}

func (g *HTTPGateway) post(ctx context.Context, path string, body map[string]any) error {
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(path)
	if err != nil {
		return fmt.Errorf("notify %s: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("notify %s: unexpected status %s", path, resp.Status())
	}
	return nil
}
