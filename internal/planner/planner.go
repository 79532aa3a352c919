// Package planner is the encoding-parameter provider: given a probed input
// file it returns the ordered ffmpeg output options for loudness
// normalization. Video and subtitle streams are always stream-copied; the
// only encode decision is the audio filter graph, plus HDR color metadata
// passthrough when the source carries it.
package planner

import (
	"context"
	"fmt"

	"github.com/backmassage/normherd/internal/config"
	"github.com/backmassage/normherd/internal/probe"
)

// Planner builds per-file ffmpeg parameter lists. It is a pure function of
// probed metadata plus, in two-pass mode, one synchronous measurement run.
type Planner struct {
	cfg *config.Config
}

// New creates a Planner over cfg.
func New(cfg *config.Config) *Planner {
	return &Planner{cfg: cfg}
}

// ParamsFor returns the ffmpeg output options for inputPath. In two-pass
// mode it first runs the loudnorm measurement pass, which blocks until the
// whole file has been scanned; ctx cancels the measurement process.
func (p *Planner) ParamsFor(ctx context.Context, inputPath string, pr *probe.Result) ([]string, error) {
	args := []string{"-map", "0", "-c:v", "copy", "-c:s", "copy"}

	if pr.HasAudio {
		filter, err := p.loudnormFilter(ctx, inputPath)
		if err != nil {
			return nil, err
		}
		args = append(args,
			"-c:a", "aac",
			"-b:a", p.cfg.AudioBitrate,
			"-af", filter,
		)
	} else {
		// Nothing to normalize; pass the streams through untouched.
		args = append(args, "-c:a", "copy")
	}

	if pr.HDRType() == "hdr10" {
		args = append(args, hdrColorArgs(pr)...)
	}

	return args, nil
}

// loudnormFilter builds the loudnorm filter string for the configured mode.
func (p *Planner) loudnormFilter(ctx context.Context, inputPath string) (string, error) {
	base := fmt.Sprintf("loudnorm=I=%g:TP=%g:LRA=%g",
		p.cfg.TargetI, p.cfg.TargetTP, p.cfg.TargetLRA)

	if p.cfg.Mode != config.ModeTwoPass {
		return base, nil
	}

	m, err := p.measure(ctx, inputPath)
	if err != nil {
		return "", fmt.Errorf("loudness measurement: %w", err)
	}

	return p.applyFilter(m), nil
}

// applyFilter builds the second-pass filter string from measured statistics.
// linear=true keeps the gain constant across the file instead of loudnorm's
// default dynamic behavior.
func (p *Planner) applyFilter(m *measurement) string {
	return fmt.Sprintf(
		"loudnorm=I=%g:TP=%g:LRA=%g:measured_I=%s:measured_TP=%s:measured_LRA=%s:measured_thresh=%s:offset=%s:linear=true",
		p.cfg.TargetI, p.cfg.TargetTP, p.cfg.TargetLRA,
		m.InputI, m.InputTP, m.InputLRA, m.InputThresh, m.TargetOffset,
	)
}

// hdrColorArgs returns the container color metadata flags that keep HDR
// signaling intact while the video stream is copied. Probed values win;
// the HDR10 defaults cover streams tagged bt2020 primaries only.
func hdrColorArgs(pr *probe.Result) []string {
	primaries := pr.ColorPrimaries
	if primaries == "" {
		primaries = "bt2020"
	}
	transfer := pr.ColorTransfer
	if transfer == "" {
		transfer = "smpte2084"
	}
	return []string{
		"-color_primaries", primaries,
		"-color_trc", transfer,
		"-colorspace", "bt2020nc",
	}
}
