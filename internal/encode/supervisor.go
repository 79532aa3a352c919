package encode

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/backmassage/normherd/internal/config"
	"github.com/backmassage/normherd/internal/probe"
	"github.com/backmassage/normherd/internal/progress"
	"github.com/backmassage/normherd/internal/sema"
	"github.com/backmassage/normherd/internal/shutdown"
)

// ParamProvider supplies the ordered ffmpeg output options for one input
// file. In two-pass mode the call blocks for the measurement run.
type ParamProvider interface {
	ParamsFor(ctx context.Context, inputPath string, pr *probe.Result) ([]string, error)
}

// Supervisor drives jobs through admission, spawn, progress forwarding,
// wait, and outcome classification. One Supervisor serves all jobs; Run is
// called from one goroutine per job.
type Supervisor struct {
	cfg     *config.Config
	log     *zap.SugaredLogger
	limiter *sema.Limiter
	ctrl    *shutdown.Controller
	agg     *progress.Aggregator
	params  ParamProvider

	// start spawns the external encode process; replaced in tests.
	start startFunc
}

// NewSupervisor wires a Supervisor over the shared run infrastructure.
func NewSupervisor(
	cfg *config.Config,
	log *zap.SugaredLogger,
	limiter *sema.Limiter,
	ctrl *shutdown.Controller,
	agg *progress.Aggregator,
	params ParamProvider,
) *Supervisor {
	s := &Supervisor{
		cfg:     cfg,
		log:     log,
		limiter: limiter,
		ctrl:    ctrl,
		agg:     agg,
		params:  params,
	}
	s.start = s.startFFmpeg
	return s
}

// Run takes job from Queued to a terminal status. Every successful Acquire
// is matched by exactly one Release on every exit path, and every job that
// reaches the spawn step emits exactly one phase=end event.
func (s *Supervisor) Run(ctx context.Context, job *Job) Outcome {
	if s.ctrl.IsShuttingDown() {
		return s.finish(job, StatusInterrupted, nil)
	}

	if err := s.limiter.Acquire(); err != nil {
		return s.finish(job, StatusInterrupted, nil)
	}
	job.Status = StatusAdmitted

	// Signal may have fired between the pre-check and the grant; the
	// post-acquire re-check hands the token back unused. Skipping this
	// check would let a job start work after shutdown began.
	if s.ctrl.IsShuttingDown() {
		s.limiter.Release()
		return s.finish(job, StatusInterrupted, nil)
	}
	defer s.limiter.Release()

	args, err := s.params.ParamsFor(ctx, job.InputPath, job.Probe)
	if err != nil {
		if s.ctrl.IsShuttingDown() {
			return s.finish(job, StatusInterrupted, err)
		}
		return s.finish(job, StatusFailed, err)
	}

	proc, err := s.start(job, args)
	if err != nil {
		if s.ctrl.IsShuttingDown() {
			return s.finish(job, StatusInterrupted, err)
		}
		return s.finish(job, StatusFailed, err)
	}
	job.Status = StatusRunning
	s.log.Debugf("Started: %s", job.InputPath)

	// Forward a terminate request when shutdown fires while this job
	// runs. There is no kill timeout: a child that ignores SIGTERM is a
	// liveness bug to surface, not to paper over.
	watchStop := make(chan struct{})
	go func() {
		select {
		case <-s.ctrl.Done():
			if err := proc.Terminate(); err != nil {
				s.log.Debugf("Terminate %s: %v", job.InputPath, err)
			}
		case <-watchStop:
		}
	}()

	// The reader goroutine translates raw progress lines into aggregator
	// events; per-job ordering is preserved because it is the only
	// producer for this job.
	readerDone := make(chan struct{})
	var sawEnd bool
	var lastElapsed int64
	go func() {
		defer close(readerDone)
		sawEnd, lastElapsed = progress.ParseStream(proc.Progress(), job.ID, s.agg.Push)
	}()

	<-readerDone
	waitErr := proc.Wait()
	close(watchStop)

	// A killed process never writes progress=end; synthesize the terminal
	// event so the aggregator can always reconcile its counts.
	if !sawEnd {
		s.agg.Push(progress.Event{JobID: job.ID, Elapsed: lastElapsed, Phase: progress.PhaseEnd})
	}

	switch {
	case waitErr == nil:
		return s.finish(job, StatusCompleted, nil)
	case s.ctrl.IsShuttingDown():
		// The process failed because we terminated it; attribute the
		// exit to shutdown, not to the job.
		return s.finish(job, StatusInterrupted, waitErr)
	default:
		return s.finish(job, StatusFailed, &ffmpegError{err: waitErr, stderrTail: proc.StderrTail()})
	}
}

// finish records the terminal status and builds the Outcome.
func (s *Supervisor) finish(job *Job, st Status, err error) Outcome {
	job.Status = st
	return Outcome{Job: job, Status: st, Err: err}
}

// ffmpegError carries the last stderr lines alongside the exit error.
type ffmpegError struct {
	err        error
	stderrTail string
}

func (e *ffmpegError) Error() string {
	if e.stderrTail == "" {
		return e.err.Error()
	}
	return e.err.Error() + ": " + e.stderrTail
}

func (e *ffmpegError) Unwrap() error { return e.err }

var _ error = (*ffmpegError)(nil)
var _ interface{ Unwrap() error } = (*ffmpegError)(nil)

// errProcessGone reported by Terminate when the child already exited.
var errProcessGone = errors.New("process already exited")
