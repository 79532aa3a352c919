// Package probe inspects input files with a single ffprobe JSON call. It
// supplies the two facts the pipeline needs before encoding: the estimated
// duration (the denominator of the aggregated progress display) and the
// color metadata that drives HDR passthrough.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Result is the probed metadata for one input file.
type Result struct {
	// DurationSeconds is the container duration rounded down to whole
	// seconds; 0 when ffprobe reports nothing usable. An unknown duration
	// is never an error: the file still gets processed, it just doesn't
	// contribute to the progress denominator.
	DurationSeconds int64

	ColorTransfer  string
	ColorPrimaries string
	HasAudio       bool
}

// Probe runs ffprobe against path and returns the parsed result.
func Probe(ctx context.Context, bin, path string) (*Result, error) {
	cmd := exec.CommandContext(ctx, bin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %q: %w", path, err)
	}

	return ParseJSON(out)
}

// ParseJSON converts raw ffprobe JSON output into a Result.
// Exported for testing without a real ffprobe binary.
func ParseJSON(data []byte) (*Result, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	return buildResult(&raw), nil
}

// HDRType returns "hdr10" if the primary video stream carries HDR color
// metadata, otherwise "sdr": smpte2084/arib-std-b67 transfer or bt2020
// primaries.
func (r *Result) HDRType() string {
	switch r.ColorTransfer {
	case "smpte2084", "arib-std-b67":
		return "hdr10"
	}
	if r.ColorPrimaries == "bt2020" {
		return "hdr10"
	}
	return "sdr"
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

type ffprobeStream struct {
	CodecType      string         `json:"codec_type"`
	ColorTransfer  string         `json:"color_transfer"`
	ColorPrimaries string         `json:"color_primaries"`
	Disposition    map[string]int `json:"disposition"`
}

func buildResult(raw *ffprobeOutput) *Result {
	r := &Result{
		DurationSeconds: parseDuration(raw.Format.Duration),
	}

	for i := range raw.Streams {
		s := &raw.Streams[i]
		switch s.CodecType {
		case "video":
			if s.Disposition["attached_pic"] == 1 {
				continue
			}
			if r.ColorTransfer == "" && r.ColorPrimaries == "" {
				r.ColorTransfer = s.ColorTransfer
				r.ColorPrimaries = s.ColorPrimaries
			}
		case "audio":
			r.HasAudio = true
		}
	}
	return r
}

// parseDuration leniently converts ffprobe's duration string to whole
// seconds. Non-numeric (e.g. "N/A") or negative values map to 0.
func parseDuration(s string) int64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		return 0
	}
	return int64(f)
}
