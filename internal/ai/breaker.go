package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/emilythestrangee/cheffry/backend/internal/logging"
	"github.com/emilythestrangee/cheffry/backend/internal/metrics"
)

var (
	// ErrUnavailable is returned while a provider's circuit is open.
	ErrUnavailable = errors.New("ai provider unavailable")
	// ErrNotConfigured is returned when a provider has no API key.
	ErrNotConfigured = errors.New("ai provider not configured")
	// ErrBadResponse is returned when a provider reply cannot be decoded.
	ErrBadResponse = errors.New("ai provider returned an unusable response")
)

// Breaker guards calls to one provider. It opens after a run of
// consecutive failures and half-opens after the timeout.
type Breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker[struct{}]
}

func NewBreaker(name string, failures uint32, timeout time.Duration) *Breaker {
	if failures == 0 {
		failures = 5
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// a caller hanging up is not a provider failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
	return &Breaker{name: name, cb: cb}
}

// Do runs fn through the breaker and records the outcome under operation.
func (b *Breaker) Do(operation string, fn func() error) error {
	start := time.Now()
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordAICall(b.name, operation, "rejected", 0)
		return fmt.Errorf("%s: %w", b.name, ErrUnavailable)
	case err != nil:
		metrics.RecordAICall(b.name, operation, "failure", time.Since(start))
		return err
	}
	metrics.RecordAICall(b.name, operation, "success", time.Since(start))
	return nil
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
