package pipeline

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/backmassage/normherd/internal/config"
	"github.com/backmassage/normherd/internal/encode"
	"github.com/backmassage/normherd/internal/naming"
	"github.com/backmassage/normherd/internal/probe"
)

// Prober is the duration-probe collaborator: it returns estimated metadata
// for one input item. Probe failures are not errors for the batch; the job
// simply runs with an unknown (zero) duration.
type Prober func(ctx context.Context, path string) (*probe.Result, error)

// BuildJobs enumerates the discovered files into queued jobs: probe each
// input, derive and collision-resolve its output path, and honor
// skip-existing. It returns the jobs plus the count of skipped files.
func BuildJobs(
	ctx context.Context,
	cfg *config.Config,
	log *zap.SugaredLogger,
	files []string,
	prober Prober,
) ([]*encode.Job, int) {
	resolver := naming.NewCollisionResolver()

	var jobs []*encode.Job
	skipped := 0

	for _, path := range files {
		pr, err := prober(ctx, path)
		if err != nil {
			// Unknown duration, file still gets processed.
			log.Warnf("Probe failed for %s, duration unknown: %v", path, err)
			pr = &probe.Result{HasAudio: true}
		}

		out := resolver.Resolve(path, naming.OutputPath(path, cfg.OutputDir))

		if cfg.SkipExisting {
			if _, err := os.Stat(out); err == nil {
				log.Infof("Skip (exists): %s", out)
				skipped++
				continue
			}
		}

		jobs = append(jobs, encode.NewJob(path, out, pr))
	}

	return jobs, skipped
}
