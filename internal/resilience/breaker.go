package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when a call is refused because its breaker
// is open. It is never retried within a single Do invocation.
var ErrCircuitOpen = errors.New("circuit open")

const (
	defaultFailureThreshold = 3
	defaultOpenFor          = 60 * time.Second
)

type breakerState struct {
	failures  int
	openUntil time.Time
}

// Breakers tracks consecutive failures per breaker key. A key whose
// failure count reaches the threshold opens for a fixed duration and
// fails fast until it elapses; the record is lazily evicted afterwards.
// There is no half-open probe state: an expired breaker is simply
// closed again with a fresh counter.
type Breakers struct {
	mu        sync.Mutex
	states    map[string]*breakerState
	threshold int
	openFor   time.Duration
	now       func() time.Time
}

func NewBreakers(threshold int, openFor time.Duration) *Breakers {
	if threshold <= 0 {
		threshold = defaultFailureThreshold
	}
	if openFor <= 0 {
		openFor = defaultOpenFor
	}
	return &Breakers{
		states:    map[string]*breakerState{},
		threshold: threshold,
		openFor:   openFor,
		now:       time.Now,
	}
}

// IsOpen reports whether key is currently open. An expired record is
// evicted on the way.
func (b *Breakers) IsOpen(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	state, ok := b.states[key]
	if !ok {
		return false
	}
	if state.openUntil.IsZero() {
		return false
	}
	if b.now().Before(state.openUntil) {
		return true
	}
	delete(b.states, key)
	return false
}

// RecordFailure counts one failure against key, opening the breaker
// once the threshold is reached.
func (b *Breakers) RecordFailure(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	state, ok := b.states[key]
	if !ok {
		state = &breakerState{}
		b.states[key] = state
	}
	state.failures++
	if state.failures >= b.threshold {
		state.openUntil = b.now().Add(b.openFor)
	}
}

// Reset clears all failure state for key.
func (b *Breakers) Reset(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.states, key)
}
