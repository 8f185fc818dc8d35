package notify

import "context"

// NopTransport accepts every message without delivering it. Used when no
// mail transport is configured (local development, tests): checkout still
// exercises the full dispatch path, receipts just go nowhere.
type NopTransport struct{}

var _ Transport = NopTransport{}

// Name implements Transport.
func (NopTransport) Name() string { return "nop" }

// Send implements Transport.
func (NopTransport) Send(context.Context, Message) error { return nil }
