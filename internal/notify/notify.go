// Package notify implements best-effort delivery of order receipts.
//
// Delivery is decoupled from the request path: a completed order is handed
// to a bounded worker pool and the HTTP response returns immediately. The
// pool retries a small fixed number of times with a short backoff and then
// gives up; failures are logged and counted, never surfaced to the customer.
package notify

import "context"

// Message is a single receipt to deliver. A copy always goes to the
// operator mailbox so the shop sees every sale even if the customer
// address bounces.
type Message struct {
	OrderID      string
	Recipient    string
	OperatorCopy string
	Subject      string
	HTML         string
}

// Transport delivers a message over one concrete channel (SMTP submission,
// a hosted transactional-email HTTP API, ...). Implementations must respect
// ctx cancellation and return an error instead of panicking, whatever the
// failure mode.
type Transport interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}
