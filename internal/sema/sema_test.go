package sema

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireUpToCeiling(t *testing.T) {
	l := New(2)

	require.NoError(t, l.Acquire())
	require.NoError(t, l.Acquire())

	// Third acquire must block until a release.
	acquired := make(chan error, 1)
	go func() { acquired <- l.Acquire() }()

	select {
	case err := <-acquired:
		t.Fatalf("third Acquire returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	l.Release()

	select {
	case err := <-acquired:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Acquire did not proceed after Release")
	}
}

func TestCeilingNeverExceeded(t *testing.T) {
	const ceiling = 3
	const workers = 20

	l := New(ceiling)
	var current, max atomic.Int64

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !assert.NoError(t, l.Acquire()) {
				return
			}
			defer l.Release()

			n := current.Add(1)
			for {
				m := max.Load()
				if n <= m || max.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			current.Add(-1)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, max.Load(), int64(ceiling))
}

func TestCloseWakesAllWaiters(t *testing.T) {
	l := New(1)
	require.NoError(t, l.Acquire())

	const waiters = 5
	errs := make(chan error, waiters)
	for i := 0; i < waiters; i++ {
		go func() { errs <- l.Acquire() }()
	}

	// Give the waiters time to block.
	time.Sleep(20 * time.Millisecond)
	l.Close()

	for i := 0; i < waiters; i++ {
		select {
		case err := <-errs:
			assert.ErrorIs(t, err, ErrClosed)
		case <-time.After(time.Second):
			t.Fatal("waiter not woken by Close")
		}
	}
}

func TestAcquireAfterClose(t *testing.T) {
	l := New(2)
	l.Close()

	// Tokens are still sitting in the pool; closure must win anyway.
	assert.ErrorIs(t, l.Acquire(), ErrClosed)
	assert.ErrorIs(t, l.Acquire(), ErrClosed)
}

func TestReleaseAfterCloseIsNoop(t *testing.T) {
	l := New(1)
	require.NoError(t, l.Acquire())
	l.Close()

	// Must not panic or block.
	l.Release()
	l.Release()
}

func TestCloseIdempotent(t *testing.T) {
	l := New(1)
	l.Close()
	l.Close()
	assert.ErrorIs(t, l.Acquire(), ErrClosed)
}

func TestMinimumCeiling(t *testing.T) {
	l := New(0)
	require.NoError(t, l.Acquire())
	l.Release()
}
