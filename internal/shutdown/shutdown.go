// Package shutdown owns the process-wide shutdown state: a write-once flag
// plus a broadcast channel, replacing the legacy flag-file polling with an
// explicit wake mechanism. A single job failing never signals shutdown;
// only an operator interrupt or a setup failure does.
package shutdown

import (
	"sync"
	"sync/atomic"
)

// Controller coordinates run-wide cancellation. The zero value is not
// usable; create one with New.
type Controller struct {
	shuttingDown atomic.Bool
	done         chan struct{}

	mu    sync.Mutex
	hooks []func()
	fired bool
}

// New returns a ready Controller.
func New() *Controller {
	return &Controller{done: make(chan struct{})}
}

// Signal transitions the shutdown flag false→true. The first call closes
// Done and runs the registered hooks in registration order; subsequent
// calls are no-ops.
func (c *Controller) Signal() {
	if !c.shuttingDown.CompareAndSwap(false, true) {
		return
	}
	close(c.done)

	c.mu.Lock()
	c.fired = true
	hooks := c.hooks
	c.hooks = nil
	c.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// IsShuttingDown reports whether Signal has been called. It never blocks
// and once true it stays true for the remainder of the run.
func (c *Controller) IsShuttingDown() bool {
	return c.shuttingDown.Load()
}

// Done returns a channel closed on the first Signal. Running supervisors
// watch it to forward a terminate request to their child process.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// OnSignal registers fn to run once when Signal fires. Hooks run in
// registration order. Registering after Signal runs fn immediately.
func (c *Controller) OnSignal(fn func()) {
	c.mu.Lock()
	if c.fired {
		c.mu.Unlock()
		fn()
		return
	}
	c.hooks = append(c.hooks, fn)
	c.mu.Unlock()
}
