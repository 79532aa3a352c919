package pipeline

import (
	"context"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/backmassage/normherd/internal/encode"
	"github.com/backmassage/normherd/internal/progress"
)

// JobRunner runs one job to a terminal outcome. Satisfied by
// *encode.Supervisor; tests substitute fakes.
type JobRunner interface {
	Run(ctx context.Context, job *encode.Job) encode.Outcome
}

// Orchestrator drives the whole batch: it owns the duration estimate and
// the aggregator's lifetime, fans one goroutine out per job immediately
// (admission, not goroutine count, is what is bounded), and reconciles the
// summary from supervisor outcomes.
type Orchestrator struct {
	log    *zap.SugaredLogger
	runner JobRunner
	agg    *progress.Aggregator

	renderOut io.Writer
	tty       bool
}

// New creates an Orchestrator. agg must be the same aggregator the runner's
// supervisors push into.
func New(log *zap.SugaredLogger, runner JobRunner, agg *progress.Aggregator, renderOut io.Writer, tty bool) *Orchestrator {
	return &Orchestrator{
		log:       log,
		runner:    runner,
		agg:       agg,
		renderOut: renderOut,
		tty:       tty,
	}
}

// RunAll executes every job concurrently and blocks until all have reached
// a terminal status, then drains the aggregator and returns the Summary.
func (o *Orchestrator) RunAll(ctx context.Context, jobs []*encode.Job) Summary {
	summary := Summary{Total: len(jobs)}
	for _, j := range jobs {
		summary.EstimatedSeconds += j.EstimatedDurationSeconds
	}

	go o.agg.Run()

	renderer := progress.NewRenderer(o.agg, summary.EstimatedSeconds, o.renderOut, o.tty)
	rendererDone := make(chan struct{})
	go func() {
		defer close(rendererDone)
		renderer.Run(o.agg.Done())
	}()

	// All jobs start immediately and queue on the admission limiter; there
	// is no separate queueing structure.
	outcomes := make(chan encode.Outcome, len(jobs))
	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		go func(j *encode.Job) {
			defer wg.Done()
			outcomes <- o.runner.Run(ctx, j)
		}(job)
	}
	wg.Wait()

	// Every producer has returned; close the event stream and wait for
	// the consumer loop (and the final render) to drain.
	o.agg.Close()
	<-rendererDone

	close(outcomes)
	for out := range outcomes {
		summary.Record(out.Status)
		o.logOutcome(out)
	}
	return summary
}

func (o *Orchestrator) logOutcome(out encode.Outcome) {
	switch out.Status {
	case encode.StatusCompleted:
		o.log.Infof("Done: %s", out.Job.OutputPath)
	case encode.StatusInterrupted:
		o.log.Warnf("Interrupted: %s", out.Job.InputPath)
	case encode.StatusFailed:
		o.log.Errorf("Failed: %s: %v", out.Job.InputPath, out.Err)
	}
}
