// Package resilience guards calls to external collaborators with a per-call
// deadline and a circuit breaker.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"capital-trader/internal/config"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState string

const (
	CircuitClosed   CircuitState = "CLOSED"    // Normal operation
	CircuitOpen     CircuitState = "OPEN"      // Failing, rejecting calls
	CircuitHalfOpen CircuitState = "HALF_OPEN" // Probing whether the collaborator recovered
)

// BreakerConfig holds circuit breaker configuration.
type BreakerConfig struct {
	// CallTimeout bounds each guarded call. Zero means no deadline beyond the caller's.
	CallTimeout time.Duration
	// FailureThreshold is the number of consecutive failures before opening.
	FailureThreshold int
	// Cooldown is how long the circuit stays open before a probe is allowed.
	Cooldown time.Duration
}

// DefaultBreakerConfig returns the defaults used for the trend provider.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		CallTimeout:      2 * time.Second,
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
	}
}

// BreakerConfigFrom maps the analytics section of the application config.
func BreakerConfigFrom(cfg config.AnalyticsConfig) BreakerConfig {
	return BreakerConfig{
		CallTimeout:      cfg.TrendTimeout,
		FailureThreshold: cfg.FailureThreshold,
		Cooldown:         cfg.Cooldown,
	}
}

// ErrCircuitOpen is returned when the circuit is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Breaker implements the circuit breaker pattern for one collaborator.
type Breaker struct {
	name   string
	config BreakerConfig
	logger zerolog.Logger
	now    func() time.Time

	mu          sync.Mutex
	state       CircuitState
	failures    int
	openedAt    time.Time
	probing     bool
	calls       int64
	rejected    int64
	timeouts    int64
	lastFailure error
}

// NewBreaker creates a closed circuit breaker.
func NewBreaker(name string, cfg BreakerConfig, logger zerolog.Logger) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 1
	}
	return &Breaker{
		name:   name,
		config: cfg,
		logger: logger.With().Str("breaker", name).Logger(),
		now:    time.Now,
		state:  CircuitClosed,
	}
}

// Call runs fn under the breaker with the configured deadline.
//
// fn receives a context that is cancelled when the deadline passes; Call
// returns as soon as the deadline passes even if fn does not observe it.
func Call[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if err := b.allow(); err != nil {
		return zero, err
	}

	if b.config.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.config.CallTimeout)
		defer cancel()
	}

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			b.recordFailure(r.err, false)
			return zero, r.err
		}
		b.recordSuccess()
		return r.value, nil
	case <-ctx.Done():
		err := ctx.Err()
		b.recordFailure(err, true)
		return zero, err
	}
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls++
	switch b.state {
	case CircuitOpen:
		if b.now().Sub(b.openedAt) < b.config.Cooldown {
			b.rejected++
			return ErrCircuitOpen
		}
		b.transitionTo(CircuitHalfOpen)
		b.probing = true
		return nil
	case CircuitHalfOpen:
		// One probe at a time.
		if b.probing {
			b.rejected++
			return ErrCircuitOpen
		}
		b.probing = true
	}
	return nil
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.probing = false
	if b.state != CircuitClosed {
		b.transitionTo(CircuitClosed)
	}
}

func (b *Breaker) recordFailure(err error, timeout bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailure = err
	b.probing = false
	if timeout {
		b.timeouts++
	}

	switch b.state {
	case CircuitClosed:
		b.failures++
		if b.failures >= b.config.FailureThreshold {
			b.transitionTo(CircuitOpen)
		}
	case CircuitHalfOpen:
		b.transitionTo(CircuitOpen)
	}
}

// transitionTo must be called with mu held.
func (b *Breaker) transitionTo(state CircuitState) {
	if state == CircuitOpen {
		b.openedAt = b.now()
	}
	b.logger.Info().
		Str("from", string(b.state)).
		Str("to", string(state)).
		AnErr("last_error", b.lastFailure).
		Msg("Circuit state changed")
	b.state = state
	b.failures = 0
}

// State returns the current circuit state.
func (b *Breaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Name returns the breaker name.
func (b *Breaker) Name() string {
	return b.name
}

// Stats returns breaker counters.
func (b *Breaker) Stats() BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BreakerStats{
		Name:     b.name,
		State:    b.state,
		Calls:    b.calls,
		Rejected: b.rejected,
		Timeouts: b.timeouts,
		Failures: b.failures,
	}
}

// Reset closes the circuit.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = CircuitClosed
	b.failures = 0
	b.probing = false
}

// BreakerStats holds breaker counters.
type BreakerStats struct {
	Name     string       `json:"name"`
	State    CircuitState `json:"state"`
	Calls    int64        `json:"calls"`
	Rejected int64        `json:"rejected"`
	Timeouts int64        `json:"timeouts"`
	Failures int          `json:"consecutive_failures"`
}
