// Package progress merges the progress streams of many concurrently running
// encode jobs into one coherent global state, and renders that state as a
// single terminal status line.
package progress

// Phase is the lifecycle phase carried by a progress event.
type Phase string

const (
	// PhaseRunning reports intermediate progress while the encode runs.
	PhaseRunning Phase = "running"
	// PhaseEnd marks the final event for a job. Every job that reaches
	// the spawn step produces exactly one end event.
	PhaseEnd Phase = "end"
)

// Event is one progress report from one job. Elapsed is the job's total
// encoded seconds so far, not a delta; consumers merge events with
// last-value-wins semantics.
type Event struct {
	JobID   string
	Elapsed int64
	Phase   Phase
}
