// Package encode supervises one external ffmpeg invocation per job: spawn,
// forward the progress stream, wait for exit, classify the outcome. Each
// Job is owned exclusively by the supervisor goroutine running it.
package encode

import (
	"github.com/google/uuid"

	"github.com/backmassage/normherd/internal/probe"
)

// Status is a job's lifecycle state.
type Status string

const (
	StatusQueued      Status = "queued"
	StatusAdmitted    Status = "admitted"
	StatusRunning     Status = "running"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusInterrupted Status = "interrupted"
)

// Job is one input file scheduled for normalization.
type Job struct {
	// ID keys this job's progress events; stable for the run.
	ID         string
	InputPath  string
	OutputPath string

	// EstimatedDurationSeconds is the probed duration, 0 when unknown.
	EstimatedDurationSeconds int64

	// Probe is the metadata snapshot the planner derives parameters from.
	Probe *probe.Result

	Status Status
}

// NewJob creates a queued Job for inputPath writing to outputPath.
func NewJob(inputPath, outputPath string, pr *probe.Result) *Job {
	return &Job{
		ID:                       uuid.NewString(),
		InputPath:                inputPath,
		OutputPath:               outputPath,
		EstimatedDurationSeconds: pr.DurationSeconds,
		Probe:                    pr,
		Status:                   StatusQueued,
	}
}

// Outcome is the terminal result of one supervised job.
type Outcome struct {
	Job    *Job
	Status Status
	Err    error // non-nil for StatusFailed; best-effort detail otherwise
}
