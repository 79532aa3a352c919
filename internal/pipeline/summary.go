package pipeline

import "github.com/backmassage/normherd/internal/encode"

// Summary tallies terminal job statuses for a batch run. Counts come from
// supervisor outcomes, never from aggregator end-events, so a job whose
// process died without a final progress report is still accounted for.
type Summary struct {
	Total       int
	Completed   int
	Failed      int
	Interrupted int
	Skipped     int

	// EstimatedSeconds is the up-front duration estimate for the batch.
	EstimatedSeconds int64
}

// Record tallies one terminal status.
func (s *Summary) Record(st encode.Status) {
	switch st {
	case encode.StatusCompleted:
		s.Completed++
	case encode.StatusFailed:
		s.Failed++
	case encode.StatusInterrupted:
		s.Interrupted++
	}
}
