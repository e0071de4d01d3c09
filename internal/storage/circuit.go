package storage

import (
	"context"
	"errors"
	"sync"
	"time"
)

// CircuitState is the breaker position of a guarded adapter.
type CircuitState string

const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "half_open"
)

// BreakerAdapter guards a backend with a minimal circuit breaker: after
// Threshold consecutive failures every operation fails fast with
// ErrCircuitOpen until Cooldown passes, then one probe operation is let
// through. Layered on top of the adapter contract; the engine itself
// carries no retry or breaker logic.
type BreakerAdapter struct {
	Threshold int
	Cooldown  time.Duration

	inner Adapter

	mu       sync.Mutex
	state    CircuitState
	failures int
	openedAt time.Time
}

// NewBreakerAdapter wraps inner. Non-positive threshold and cooldown
// fall back to 5 failures and 30 seconds.
func NewBreakerAdapter(inner Adapter, threshold int, cooldown time.Duration) *BreakerAdapter {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &BreakerAdapter{
		Threshold: threshold,
		Cooldown:  cooldown,
		inner:     inner,
		state:     CircuitClosed,
	}
}

// State returns the current breaker position.
func (b *BreakerAdapter) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *BreakerAdapter) allow(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != CircuitOpen {
		return true
	}
	if now.Sub(b.openedAt) >= b.Cooldown {
		b.state = CircuitHalfOpen
		return true
	}
	return false
}

func (b *BreakerAdapter) record(err error, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil || errors.Is(err, ErrNotFound) {
		b.state = CircuitClosed
		b.failures = 0
		return
	}
	if b.state == CircuitHalfOpen {
		b.state = CircuitOpen
		b.openedAt = now
		return
	}
	b.failures++
	if b.failures >= b.Threshold {
		b.state = CircuitOpen
		b.openedAt = now
	}
}

func (b *BreakerAdapter) do(id, field string, op func() error) error {
	if !b.allow(time.Now()) {
		return &StorageError{Backend: b.inner.FullPath(), ID: id, Field: field, Err: ErrCircuitOpen}
	}
	err := op()
	b.record(err, time.Now())
	return err
}

func (b *BreakerAdapter) PutValue(ctx context.Context, id, field string, data []byte) error {
	return b.do(id, field, func() error { return b.inner.PutValue(ctx, id, field, data) })
}

func (b *BreakerAdapter) PutAppend(ctx context.Context, id, field string, entries map[int][]byte) error {
	return b.do(id, field, func() error { return b.inner.PutAppend(ctx, id, field, entries) })
}

func (b *BreakerAdapter) GetValue(ctx context.Context, id, field string) ([]byte, error) {
	var out []byte
	err := b.do(id, field, func() error {
		var err error
		out, err = b.inner.GetValue(ctx, id, field)
		return err
	})
	return out, err
}

func (b *BreakerAdapter) GetAppend(ctx context.Context, id, field string) (map[int][]byte, error) {
	var out map[int][]byte
	err := b.do(id, field, func() error {
		var err error
		out, err = b.inner.GetAppend(ctx, id, field)
		return err
	})
	return out, err
}

func (b *BreakerAdapter) Bound(ctx context.Context, id string) (int, error) {
	bound := -1
	err := b.do(id, "", func() error {
		var err error
		bound, err = b.inner.Bound(ctx, id)
		return err
	})
	return bound, err
}

func (b *BreakerAdapter) Delete(ctx context.Context, id string) error {
	return b.do(id, "", func() error { return b.inner.Delete(ctx, id) })
}

func (b *BreakerAdapter) DeleteAll(ctx context.Context) error {
	return b.do("", "", func() error { return b.inner.DeleteAll(ctx) })
}

func (b *BreakerAdapter) Keys(ctx context.Context) ([]string, error) {
	var out []string
	err := b.do("", "", func() error {
		var err error
		out, err = b.inner.Keys(ctx)
		return err
	})
	return out, err
}

func (b *BreakerAdapter) FullPath() string { return b.inner.FullPath() }

func (b *BreakerAdapter) Close() error { return b.inner.Close() }
