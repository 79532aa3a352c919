// Package sema provides the admission limiter that bounds how many encode
// jobs run concurrently. It is a counting semaphore with one extra property
// a plain counter cannot offer: Close wakes every blocked waiter in a single
// step, so shutdown never has to wait for tokens to trickle back one at a
// time.
package sema

import (
	"errors"
	"sync"
)

// ErrClosed is returned by Acquire once the limiter has been closed.
var ErrClosed = errors.New("admission limiter closed")

// Limiter is a closeable counting semaphore. The token pool is a buffered
// channel pre-filled to the ceiling; closure is a second channel whose close
// is observable by every blocked Acquire simultaneously.
type Limiter struct {
	tokens    chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
}

// New creates a Limiter admitting at most ceiling concurrent holders.
// ceiling must be at least 1.
func New(ceiling int) *Limiter {
	if ceiling < 1 {
		ceiling = 1
	}
	l := &Limiter{
		tokens: make(chan struct{}, ceiling),
		closed: make(chan struct{}),
	}
	for i := 0; i < ceiling; i++ {
		l.tokens <- struct{}{}
	}
	return l
}

// Acquire blocks until a token is available or the limiter is closed.
// It returns nil when a token was granted and ErrClosed otherwise.
// After Close, Acquire always returns ErrClosed immediately: even if a
// token happens to be available at the same instant, it is handed back
// and the closure wins.
func (l *Limiter) Acquire() error {
	select {
	case <-l.closed:
		return ErrClosed
	default:
	}

	select {
	case <-l.tokens:
		// This select may have raced with Close; closure takes
		// precedence over a simultaneously available token.
		select {
		case <-l.closed:
			l.put()
			return ErrClosed
		default:
			return nil
		}
	case <-l.closed:
		return ErrClosed
	}
}

// Release returns a token to the pool. It must be called exactly once per
// successful Acquire, including on failure paths. After Close it is a safe
// no-op; the pool is no longer meaningful.
func (l *Limiter) Release() {
	l.put()
}

// Close closes the limiter, waking all current and future Acquire callers.
// It is idempotent and safe to call concurrently with Acquire/Release.
func (l *Limiter) Close() {
	l.closeOnce.Do(func() {
		close(l.closed)
	})
}

// put returns a token without blocking. The pool capacity equals the
// ceiling, so a send only fails on an over-release, which is discarded.
func (l *Limiter) put() {
	select {
	case l.tokens <- struct{}{}:
	default:
	}
}
