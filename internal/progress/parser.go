package progress

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// microsPerSecond converts ffmpeg's out_time_us values to whole seconds.
const microsPerSecond = 1_000_000

// ParseStream reads ffmpeg -progress key=value lines from r and calls push
// for each completed progress block. Recognized keys are out_time_us (total
// encoded microseconds) and progress (continue|end); everything else is
// ignored. It returns whether an end event was emitted and the last elapsed
// value seen, so the caller can synthesize a terminal event for processes
// that died before writing progress=end.
func ParseStream(r io.Reader, jobID string, push func(Event)) (sawEnd bool, lastElapsed int64) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok {
			continue
		}

		switch key {
		case "out_time_us":
			us, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
			if err != nil || us < 0 {
				// ffmpeg emits "N/A" before the first timestamp.
				continue
			}
			lastElapsed = us / microsPerSecond
		case "progress":
			phase := PhaseRunning
			if strings.TrimSpace(value) == "end" {
				phase = PhaseEnd
				sawEnd = true
			}
			push(Event{JobID: jobID, Elapsed: lastElapsed, Phase: phase})
		}
	}
	return sawEnd, lastElapsed
}
