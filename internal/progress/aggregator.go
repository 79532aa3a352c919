package progress

import "sync"

// Snapshot is the derived global progress state, recomputed on every event
// from each job's last-known elapsed value.
type Snapshot struct {
	TotalJobs    int
	TotalElapsed int64 // sum of the latest elapsed seconds across jobs
	Completed    int   // jobs with an end event observed
	InProgress   int   // jobs that reported at least one event and no end yet
	Queued       int   // jobs that have not reported anything
}

// Aggregator fans progress events from many producers (one per running job)
// into a single consumer loop that owns the per-job map. Producers call
// Push; exactly one goroutine runs Run. The map is never touched outside
// the consumer loop, so concurrent pushes cannot interleave a
// read-modify-write of the same entry.
type Aggregator struct {
	events chan Event
	done   chan struct{}

	totalJobs int

	mu   sync.RWMutex
	snap Snapshot

	// Owned exclusively by the Run goroutine.
	elapsed map[string]int64
	ended   map[string]struct{}
}

// NewAggregator creates an Aggregator expecting totalJobs jobs. The event
// channel is buffered so short bursts from job readers do not block them.
func NewAggregator(totalJobs int) *Aggregator {
	return &Aggregator{
		events:    make(chan Event, 64),
		done:      make(chan struct{}),
		totalJobs: totalJobs,
		elapsed:   make(map[string]int64),
		ended:     make(map[string]struct{}),
		snap:      Snapshot{TotalJobs: totalJobs, Queued: totalJobs},
	}
}

// Push delivers one event to the consumer loop. Callers must not Push after
// Close; the orchestrator guarantees this by closing only once every job
// supervisor (and therefore every producer) has returned.
func (a *Aggregator) Push(ev Event) {
	a.events <- ev
}

// Run is the single-consumer loop. It exits when Close is called and the
// channel has drained. Run it in its own goroutine.
func (a *Aggregator) Run() {
	defer close(a.done)
	for ev := range a.events {
		a.apply(ev)
	}
}

// Close ends the consumer loop after the remaining events drain.
func (a *Aggregator) Close() {
	close(a.events)
}

// Done is closed once the consumer loop has fully drained and exited.
func (a *Aggregator) Done() <-chan struct{} {
	return a.done
}

// Snapshot returns the current global progress state.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snap
}

// apply merges one event: last-value-wins on the job's elapsed seconds (each
// event reports the job's total so far, never a delta) and set-insert on
// completion, so repeated running events never double-count a job.
func (a *Aggregator) apply(ev Event) {
	a.elapsed[ev.JobID] = ev.Elapsed
	if ev.Phase == PhaseEnd {
		a.ended[ev.JobID] = struct{}{}
	}

	var total int64
	for _, e := range a.elapsed {
		total += e
	}

	seen := len(a.elapsed)
	completed := len(a.ended)

	a.mu.Lock()
	a.snap = Snapshot{
		TotalJobs:    a.totalJobs,
		TotalElapsed: total,
		Completed:    completed,
		InProgress:   seen - completed,
		Queued:       a.totalJobs - seen,
	}
	a.mu.Unlock()
}
