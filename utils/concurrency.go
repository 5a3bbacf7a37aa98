package utils

import (
	"context"
	"sync"
	"time"
)

// Gate bounds how many calls run at once and spaces out their start times.
// It is used in front of outbound API calls.
type Gate struct {
	minInterval time.Duration
	semaphore   chan struct{}
	mu          sync.Mutex
	lastStart   time.Time
}

// NewGate creates a Gate with the given concurrency and rate limit.
func NewGate(maxConcurrent, rateLimitMs int) *Gate {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Gate{
		minInterval: time.Duration(rateLimitMs) * time.Millisecond,
		semaphore:   make(chan struct{}, maxConcurrent),
	}
}

// Acquire blocks until a slot is free and the rate limit allows a new start.
// The returned release func must be called exactly once.
func (g *Gate) Acquire(ctx context.Context) (release func(), err error) {
	select {
	case g.semaphore <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := g.waitTurn(ctx); err != nil {
		<-g.semaphore
		return nil, err
	}

	var once sync.Once
	return func() { once.Do(func() { <-g.semaphore }) }, nil
}

// Run acquires the gate, runs fn and releases.
func (g *Gate) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	release, err := g.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx)
}

func (g *Gate) waitTurn(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.lastStart.IsZero() {
		if wait := g.minInterval - time.Since(g.lastStart); wait > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	g.lastStart = time.Now()
	return nil
}
