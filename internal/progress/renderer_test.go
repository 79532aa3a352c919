package progress

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRendererLine_WithEstimate(t *testing.T) {
	r := NewRenderer(nil, 200, nil, false)

	line := r.line(Snapshot{
		TotalJobs:    5,
		TotalElapsed: 100,
		Completed:    2,
		InProgress:   2,
		Queued:       1,
	})

	assert.Contains(t, line, "50%")
	assert.Contains(t, line, "00:01:40 / 00:03:20")
	assert.Contains(t, line, "2 done, 2 running, 1 queued")
	assert.True(t, strings.HasPrefix(line, "["))
}

func TestRendererLine_UnknownEstimate(t *testing.T) {
	r := NewRenderer(nil, 0, nil, false)

	line := r.line(Snapshot{TotalElapsed: 75, InProgress: 1, Queued: 2})

	// No denominator, no bar or percentage.
	assert.Equal(t, "00:01:15 elapsed | 0 done, 1 running, 2 queued", line)
}

func TestRendererLine_ClampsOverrun(t *testing.T) {
	// Elapsed can exceed the estimate when probes under-reported.
	r := NewRenderer(nil, 100, nil, false)

	line := r.line(Snapshot{TotalElapsed: 150})

	assert.Contains(t, line, "100%")
}

func TestRendererRun_FinalLine(t *testing.T) {
	a := NewAggregator(1)
	go a.Run()
	a.Push(Event{JobID: "a", Elapsed: 30, Phase: PhaseEnd})
	a.Close()
	<-a.Done()

	var buf strings.Builder
	r := NewRenderer(a, 30, &buf, false)

	stop := make(chan struct{})
	close(stop)
	r.Run(stop)

	out := buf.String()
	assert.Contains(t, out, "1 done, 0 running, 0 queued")
	assert.True(t, strings.HasSuffix(out, "\n"))
}
