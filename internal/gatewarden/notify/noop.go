package notify

import "context"

// NoopGateway discards every command.  Used when no notification service is
// configured, and in tests.
type NoopGateway struct{}

func (NoopGateway) PaymentReminder(context.Context, string) error { return nil }

func (NoopGateway) AccessSuspended(context.Context, string) error { return nil }

func (NoopGateway) PaymentConfirmed(context.Context, string, int64) error { return nil }
