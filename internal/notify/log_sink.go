package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSink writes each event as a log line instead of delivering it. It stands
// in for the mail relay during development.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{log: logger}
}

func (s *LogSink) Send(_ context.Context, ev Event) error {
	s.log.Info().
		Str("type", ev.Type).
		Int64("order_id", ev.OrderID).
		Int64("user_id", ev.UserID).
		Str("to", ev.UserEmail).
		Str("status", ev.Status).
		Str("payment_status", ev.PaymentStatus).
		Str("total", ev.TotalAmount.StringFixed(2)).
		Msg("order notification")
	return nil
}

func (s *LogSink) Close() error { return nil }
