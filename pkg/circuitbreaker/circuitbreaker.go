// Package circuitbreaker stops calling a failing journal source or cache for
// a while. An open breaker rejects calls at once and never retries them;
// callers decide whether that means unavailable data or a cache bypass.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is the breaker position.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var (
	// ErrCircuitOpen is returned while the breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrTooManyRequests is returned when every half-open trial slot is taken.
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// IsRejected reports whether err came from the breaker rather than the call.
func IsRejected(err error) bool {
	return errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrTooManyRequests)
}

type settings struct {
	failureThreshold int
	successThreshold int
	openFor          time.Duration
	trialSlots       int
	onStateChange    func(name string, from, to State)
}

// Option tunes a breaker.
type Option func(*settings)

// WithFailureThreshold sets how many consecutive failures open the breaker.
func WithFailureThreshold(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.failureThreshold = n
		}
	}
}

// WithSuccessThreshold sets how many half-open successes close it again.
func WithSuccessThreshold(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.successThreshold = n
		}
	}
}

// WithTimeout sets how long the breaker stays open before a trial call.
// Non-positive values keep the current setting.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.openFor = d
		}
	}
}

// WithMaxHalfOpenRequests caps concurrent trial calls.
func WithMaxHalfOpenRequests(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.trialSlots = n
		}
	}
}

// WithOnStateChange is called on every transition, under the breaker lock.
func WithOnStateChange(fn func(name string, from, to State)) Option {
	return func(s *settings) {
		s.onStateChange = fn
	}
}

// CircuitBreaker counts consecutive failures. It is safe for concurrent use.
type CircuitBreaker struct {
	name string
	set  settings

	mu        sync.Mutex
	state     State
	failures  int
	successes int
	trials    int
	openedAt  time.Time
}

// New returns a closed breaker: 5 failures open it for 30s, 1 success closes it.
func New(name string, opts ...Option) *CircuitBreaker {
	set := settings{failureThreshold: 5, successThreshold: 1, openFor: 30 * time.Second, trialSlots: 1}
	for _, opt := range opts {
		opt(&set)
	}
	return &CircuitBreaker{name: name, set: set}
}

// Execute runs fn unless the breaker rejects it.
// Cancellation is neither a failure nor a success.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := cb.admit(); err != nil {
		return err
	}
	err := fn(ctx)
	cb.record(err)
	return err
}

// Call is Execute for functions that return a value.
func Call[T any](ctx context.Context, cb *CircuitBreaker, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := cb.Execute(ctx, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if time.Since(cb.openedAt) < cb.set.openFor {
			return ErrCircuitOpen
		}
		cb.moveTo(StateHalfOpen)
		fallthrough
	case StateHalfOpen:
		if cb.trials >= cb.set.trialSlots {
			return ErrTooManyRequests
		}
		cb.trials++
	}
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	// A call admitted before the breaker opened reports into nothing.
	if cb.state == StateOpen {
		return
	}
	trial := cb.state == StateHalfOpen
	if trial && cb.trials > 0 {
		cb.trials--
	}
	switch {
	case errors.Is(err, context.Canceled):
	case err != nil && trial:
		cb.moveTo(StateOpen)
	case err != nil:
		if cb.failures++; cb.failures >= cb.set.failureThreshold {
			cb.moveTo(StateOpen)
		}
	case trial:
		if cb.successes++; cb.successes >= cb.set.successThreshold {
			cb.moveTo(StateClosed)
		}
	default:
		cb.failures = 0
	}
}

// moveTo must be called with mu held.
func (cb *CircuitBreaker) moveTo(to State) {
	from := cb.state
	cb.state = to
	cb.failures, cb.successes, cb.trials = 0, 0, 0
	if to == StateOpen {
		cb.openedAt = time.Now()
	}
	if cb.set.onStateChange != nil && from != to {
		cb.set.onStateChange(cb.name, from, to)
	}
}

// State returns the current position.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) Name() string   { return cb.name }
func (cb *CircuitBreaker) IsOpen() bool   { return cb.State() == StateOpen }
func (cb *CircuitBreaker) IsClosed() bool { return cb.State() == StateClosed }

// ══════════════════════════════════════════════════════════════════════════════
// PRESETS
// ══════════════════════════════════════════════════════════════════════════════

// SourceBreaker guards the journal input source. An open breaker surfaces as
// unavailable data for the whole batch.
func SourceBreaker(onStateChange func(name string, from, to State), opts ...Option) *CircuitBreaker {
	return New("journal-source", append([]Option{
		WithFailureThreshold(3),
		WithSuccessThreshold(1),
		WithTimeout(10 * time.Second),
		WithMaxHalfOpenRequests(1),
		WithOnStateChange(onStateChange),
	}, opts...)...)
}

// CacheBreaker guards Redis. An open breaker means reads go to the source.
func CacheBreaker(onStateChange func(name string, from, to State), opts ...Option) *CircuitBreaker {
	return New("redis-cache", append([]Option{
		WithFailureThreshold(5),
		WithSuccessThreshold(1),
		WithTimeout(30 * time.Second),
		WithMaxHalfOpenRequests(2),
		WithOnStateChange(onStateChange),
	}, opts...)...)
}
