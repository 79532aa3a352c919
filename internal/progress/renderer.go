package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/backmassage/normherd/internal/display"
)

// Renderer periodically turns aggregator snapshots into a single status
// line. On a TTY the line is redrawn in place; otherwise a plain line is
// printed at a much lower cadence so logs stay readable. Purely cosmetic:
// it only ever reads snapshots.
type Renderer struct {
	agg       *Aggregator
	out       io.Writer
	estTotal  int64 // estimated total seconds across all jobs, 0 if unknown
	tty       bool
	interval  time.Duration
	plainSkip int // ticks between plain-mode lines
}

// NewRenderer creates a renderer over agg. estTotal is the run-wide duration
// estimate used as the percentage denominator; 0 disables the percentage.
func NewRenderer(agg *Aggregator, estTotal int64, out io.Writer, tty bool) *Renderer {
	return &Renderer{
		agg:       agg,
		out:       out,
		estTotal:  estTotal,
		tty:       tty,
		interval:  500 * time.Millisecond,
		plainSkip: 20, // every 10s in plain mode
	}
}

// Run renders until stop is closed, then draws a final line. Run it in its
// own goroutine; the orchestrator passes the aggregator's Done channel so
// the last events are always reflected.
func (r *Renderer) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	ticks := 0
	for {
		select {
		case <-ticker.C:
			ticks++
			if r.tty {
				fmt.Fprintf(r.out, "\r%s\x1b[K", r.line(r.agg.Snapshot()))
			} else if ticks%r.plainSkip == 0 {
				fmt.Fprintln(r.out, r.line(r.agg.Snapshot()))
			}
		case <-stop:
			if r.tty {
				fmt.Fprintf(r.out, "\r%s\x1b[K\n", r.line(r.agg.Snapshot()))
			} else {
				fmt.Fprintln(r.out, r.line(r.agg.Snapshot()))
			}
			return
		}
	}
}

// line formats one status line from a snapshot, e.g.
//
//	[=====>          ]  46% | 00:12:34 / 00:27:10 | 3 done, 2 running, 2 queued
func (r *Renderer) line(s Snapshot) string {
	counts := fmt.Sprintf("%d done, %d running, %d queued",
		s.Completed, s.InProgress, s.Queued)

	if r.estTotal <= 0 {
		return fmt.Sprintf("%s elapsed | %s",
			display.FormatClock(s.TotalElapsed), counts)
	}

	frac := clamp01(float64(s.TotalElapsed) / float64(r.estTotal))
	return fmt.Sprintf("%s %3.0f%% | %s / %s | %s",
		display.Bar(16, frac),
		100*frac,
		display.FormatClock(s.TotalElapsed),
		display.FormatClock(r.estTotal),
		counts)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
