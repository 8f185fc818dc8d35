package notify

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/rcaps4street/storefront/internal/domain/order"
)

// DispatcherConfig controls the worker pool and the bounded retry policy.
type DispatcherConfig struct {
	// Workers is the number of concurrent delivery goroutines.
	Workers int
	// QueueSize bounds the pending queue; Enqueue drops when it is full.
	QueueSize int
	// MaxAttempts is the total delivery attempts per message.
	MaxAttempts int
	// Backoff is the fixed delay between attempts.
	Backoff time.Duration
	// AttemptTimeout bounds each individual transport call.
	AttemptTimeout time.Duration
	// OperatorEmail receives a copy of every receipt.
	OperatorEmail string
}

func (c *DispatcherConfig) applyDefaults() {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.Backoff <= 0 {
		c.Backoff = 2 * time.Second
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = 15 * time.Second
	}
}

// Dispatcher is the fire-and-forget delivery pool. The request path only
// ever performs a non-blocking channel send; everything slow (connects,
// TLS handshakes, greylisting stalls) happens on pool goroutines against a
// detached context, so a hung mail server can never hold an HTTP response
// hostage.
type Dispatcher struct {
	cfg       DispatcherConfig
	transport Transport
	lg        *zap.Logger

	queue chan Message
	wg    sync.WaitGroup

	delivered metric.Int64Counter
	failed    metric.Int64Counter
	dropped   metric.Int64Counter
}

// NewDispatcher creates a Dispatcher; call Start before enqueueing.
func NewDispatcher(transport Transport, cfg DispatcherConfig, lg *zap.Logger) *Dispatcher {
	cfg.applyDefaults()

	meter := otel.Meter("storefront/notify")
	delivered, _ := meter.Int64Counter("notify.delivered")
	failed, _ := meter.Int64Counter("notify.failed")
	dropped, _ := meter.Int64Counter("notify.dropped")

	return &Dispatcher{
		cfg:       cfg,
		transport: transport,
		lg:        lg.Named("notify"),
		queue:     make(chan Message, cfg.QueueSize),
		delivered: delivered,
		failed:    failed,
		dropped:   dropped,
	}
}

// Start launches the worker pool. Workers run until Close is called and the
// queue drains; they are deliberately not tied to any request context.
func (d *Dispatcher) Start() {
	for range d.cfg.Workers {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for msg := range d.queue {
				d.deliver(msg)
			}
		}()
	}
}

// Close stops accepting messages and waits for in-flight deliveries, bounded
// by ctx. Receipts still queued when the deadline hits are abandoned; the
// order records they describe are already durable.
func (d *Dispatcher) Close(ctx context.Context) error {
	close(d.queue)

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "drain notify queue")
	}
}

// Enqueue hands a message to the pool without blocking. When the queue is
// full the message is dropped and counted; dropping a receipt is preferable
// to stalling a checkout response.
func (d *Dispatcher) Enqueue(ctx context.Context, msg Message) bool {
	select {
	case d.queue <- msg:
		return true
	default:
		d.dropped.Add(ctx, 1)
		d.lg.Warn("notification queue full, dropping receipt",
			zap.String("order_id", msg.OrderID),
			zap.String("recipient", msg.Recipient),
		)
		return false
	}
}

// OrderPlaced implements order.Notifier: it renders the receipt and
// enqueues it. Rendering failure is logged and swallowed like any other
// delivery failure.
func (d *Dispatcher) OrderPlaced(ctx context.Context, o *order.Order) {
	html, err := RenderReceipt(o)
	if err != nil {
		zctx.From(ctx).Error("render receipt",
			zap.String("order_id", o.OrderID),
			zap.Error(err),
		)
		return
	}

	d.Enqueue(ctx, Message{
		OrderID:      o.OrderID,
		Recipient:    o.CustomerEmail,
		OperatorCopy: d.cfg.OperatorEmail,
		Subject:      "Order #" + o.OrderID + " Confirmed - RCAPS4STREET",
		HTML:         html,
	})
}

// deliver runs the bounded-attempt retry loop for one message. Attempts use
// a detached context: request lifetimes have no bearing on delivery.
func (d *Dispatcher) deliver(msg Message) {
	lg := d.lg.With(
		zap.String("order_id", msg.OrderID),
		zap.String("transport", d.transport.Name()),
	)

	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.AttemptTimeout)
		err := d.transport.Send(ctx, msg)
		cancel()

		if err == nil {
			d.delivered.Add(context.Background(), 1)
			lg.Info("receipt delivered", zap.Int("attempt", attempt))
			return
		}

		lg.Warn("receipt delivery failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", d.cfg.MaxAttempts),
			zap.Error(err),
		)

		if attempt < d.cfg.MaxAttempts {
			time.Sleep(d.cfg.Backoff)
		}
	}

	d.failed.Add(context.Background(), 1)
	lg.Error("receipt delivery abandoned",
		zap.Int("attempts", d.cfg.MaxAttempts),
		zap.String("recipient", msg.Recipient),
	)
}
