package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerMailer stops calling a failing relay for a cool-down period. While
// open, sends fail fast and the task is retried by the queue.
type BreakerMailer struct {
	next    Mailer
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
}

// NewBreakerMailer wraps next. The breaker trips once at least five sends in
// a ten second window fail half the time, and probes again after 30s.
func NewBreakerMailer(next Mailer, logger *slog.Logger) *BreakerMailer {
	if logger == nil {
		logger = slog.Default()
	}
	st := gobreaker.Settings{
		Name:        "mailer:" + next.Transport(),
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}
	return &BreakerMailer{
		next:    next,
		cb:      gobreaker.NewCircuitBreaker(st),
		timeout: 20 * time.Second,
	}
}

// Send delivers through the wrapped mailer unless the breaker is open.
func (m *BreakerMailer) Send(ctx context.Context, msg SendEmailPayload) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	_, err := m.cb.Execute(func() (interface{}, error) {
		return nil, m.next.Send(ctx, msg)
	})
	return err
}

// Transport reports the wrapped transport.
func (m *BreakerMailer) Transport() string { return m.next.Transport() }

// State exposes the breaker state for health reporting.
func (m *BreakerMailer) State() gobreaker.State { return m.cb.State() }
