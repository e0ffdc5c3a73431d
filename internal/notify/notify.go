// Package notify delivers order lifecycle events to an external sink (mail
// relay, queue or topic) without holding up the request that produced them.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Event types.
const (
	OrderCreated              = "order.created"
	OrderStatusChanged        = "order.status_changed"
	OrderPaymentStatusChanged = "order.payment_status_changed"
	OrderCancelled            = "order.cancelled"
)

// Event is the payload handed to every sink.
type Event struct {
	Type          string          `json:"type"`
	OrderID       int64           `json:"orderId"`
	UserID        int64           `json:"userId"`
	UserEmail     string          `json:"userEmail"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"paymentStatus"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

// Sink sends a single event somewhere.
type Sink interface {
	Send(ctx context.Context, ev Event) error
	Close() error
}

// Dispatcher queues events in memory and hands them to a Sink from a single
// background goroutine. Publish never blocks: when the buffer is full the
// event is dropped and logged.
type Dispatcher struct {
	sink    Sink
	log     zerolog.Logger
	timeout time.Duration

	queue chan Event
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(sink Sink, buffer int, logger zerolog.Logger) *Dispatcher {
	if buffer <= 0 {
		buffer = 1
	}
	d := &Dispatcher{
		sink:    sink,
		log:     logger.With().Str("component", "notify").Logger(),
		timeout: 5 * time.Second,
		queue:   make(chan Event, buffer),
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

// Publish enqueues ev for delivery.
func (d *Dispatcher) Publish(ev Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	select {
	case d.queue <- ev:
	default:
		d.log.Warn().Str("type", ev.Type).Int64("order_id", ev.OrderID).Msg("notification buffer full, event dropped")
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for ev := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.sink.Send(ctx, ev); err != nil {
			d.log.Error().Err(err).Str("type", ev.Type).Int64("order_id", ev.OrderID).Msg("notification delivery failed")
		}
		cancel()
	}
}

// Close stops accepting events, delivers what is already queued and closes
// the sink.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.done
	return d.sink.Close()
}
