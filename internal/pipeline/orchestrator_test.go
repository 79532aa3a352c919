package pipeline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/backmassage/normherd/internal/encode"
	"github.com/backmassage/normherd/internal/probe"
	"github.com/backmassage/normherd/internal/progress"
)

type runnerFunc func(ctx context.Context, job *encode.Job) encode.Outcome

func (f runnerFunc) Run(ctx context.Context, job *encode.Job) encode.Outcome {
	return f(ctx, job)
}

func jobWithDuration(path string, dur int64) *encode.Job {
	return encode.NewJob(path, path+".norm.mkv", &probe.Result{DurationSeconds: dur, HasAudio: true})
}

func TestRunAll_AllCompleted(t *testing.T) {
	jobs := []*encode.Job{
		jobWithDuration("/in/a.mkv", 60),
		jobWithDuration("/in/b.mkv", 30),
		jobWithDuration("/in/c.mkv", 0), // unknown duration
	}

	agg := progress.NewAggregator(len(jobs))
	runner := runnerFunc(func(_ context.Context, j *encode.Job) encode.Outcome {
		agg.Push(progress.Event{JobID: j.ID, Elapsed: j.EstimatedDurationSeconds, Phase: progress.PhaseEnd})
		j.Status = encode.StatusCompleted
		return encode.Outcome{Job: j, Status: encode.StatusCompleted}
	})

	var buf bytes.Buffer
	orch := New(zap.NewNop().Sugar(), runner, agg, &buf, false)
	summary := orch.RunAll(context.Background(), jobs)

	if summary.Total != 3 || summary.Completed != 3 {
		t.Errorf("summary = %+v, want 3/3 completed", summary)
	}
	if summary.EstimatedSeconds != 90 {
		t.Errorf("estimated = %d, want 90 (unknown durations contribute 0)", summary.EstimatedSeconds)
	}

	// The final render line reflects the drained aggregator.
	if !strings.Contains(buf.String(), "3 done, 0 running, 0 queued") {
		t.Errorf("final render line missing, got %q", buf.String())
	}
}

func TestRunAll_MixedOutcomes(t *testing.T) {
	jobs := []*encode.Job{
		jobWithDuration("/in/ok.mkv", 10),
		jobWithDuration("/in/bad.mkv", 10),
		jobWithDuration("/in/cut.mkv", 10),
	}

	agg := progress.NewAggregator(len(jobs))
	runner := runnerFunc(func(_ context.Context, j *encode.Job) encode.Outcome {
		agg.Push(progress.Event{JobID: j.ID, Phase: progress.PhaseEnd})
		switch {
		case strings.Contains(j.InputPath, "bad"):
			return encode.Outcome{Job: j, Status: encode.StatusFailed, Err: errors.New("exit status 1")}
		case strings.Contains(j.InputPath, "cut"):
			return encode.Outcome{Job: j, Status: encode.StatusInterrupted}
		default:
			return encode.Outcome{Job: j, Status: encode.StatusCompleted}
		}
	})

	var buf bytes.Buffer
	orch := New(zap.NewNop().Sugar(), runner, agg, &buf, false)
	summary := orch.RunAll(context.Background(), jobs)

	if summary.Completed != 1 || summary.Failed != 1 || summary.Interrupted != 1 {
		t.Errorf("summary = %+v, want one of each", summary)
	}
}

func TestRunAll_NoEventsStillDrains(t *testing.T) {
	// Jobs interrupted before admission never push an event; RunAll must
	// still terminate and report them.
	jobs := []*encode.Job{
		jobWithDuration("/in/a.mkv", 10),
		jobWithDuration("/in/b.mkv", 10),
	}

	agg := progress.NewAggregator(len(jobs))
	runner := runnerFunc(func(_ context.Context, j *encode.Job) encode.Outcome {
		return encode.Outcome{Job: j, Status: encode.StatusInterrupted}
	})

	var buf bytes.Buffer
	orch := New(zap.NewNop().Sugar(), runner, agg, &buf, false)
	summary := orch.RunAll(context.Background(), jobs)

	if summary.Interrupted != 2 {
		t.Errorf("interrupted = %d, want 2", summary.Interrupted)
	}
	if !strings.Contains(buf.String(), "2 queued") {
		t.Errorf("final line should show jobs still queued, got %q", buf.String())
	}
}

func TestSummaryRecord(t *testing.T) {
	var s Summary
	s.Record(encode.StatusCompleted)
	s.Record(encode.StatusCompleted)
	s.Record(encode.StatusFailed)
	s.Record(encode.StatusInterrupted)
	s.Record(encode.StatusQueued) // non-terminal, ignored

	if s.Completed != 2 || s.Failed != 1 || s.Interrupted != 1 {
		t.Errorf("summary = %+v", s)
	}
}
