package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// measurement holds the loudnorm first-pass statistics. ffmpeg prints the
// numbers as JSON strings and the second-pass filter accepts them verbatim,
// so they stay strings end to end.
type measurement struct {
	InputI       string `json:"input_i"`
	InputTP      string `json:"input_tp"`
	InputLRA     string `json:"input_lra"`
	InputThresh  string `json:"input_thresh"`
	TargetOffset string `json:"target_offset"`
}

// measure runs the loudnorm measurement pass against inputPath and parses
// the JSON block ffmpeg prints on stderr. The measured values are also
// written to a scratch file under the configured temp dir so operators can
// inspect them; that write is best-effort.
func (p *Planner) measure(ctx context.Context, inputPath string) (*measurement, error) {
	filter := fmt.Sprintf("loudnorm=I=%g:TP=%g:LRA=%g:print_format=json",
		p.cfg.TargetI, p.cfg.TargetTP, p.cfg.TargetLRA)

	cmd := exec.CommandContext(ctx, p.cfg.FFmpegBin,
		"-hide_banner", "-nostdin",
		"-i", inputPath,
		"-af", filter,
		"-f", "null", "-",
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg measurement pass %q: %w", inputPath, err)
	}

	raw, err := extractJSON(stderr.String())
	if err != nil {
		return nil, fmt.Errorf("measurement output for %q: %w", inputPath, err)
	}

	var m measurement
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse measurement JSON for %q: %w", inputPath, err)
	}

	p.saveScratch(inputPath, raw)
	return &m, nil
}

// extractJSON pulls the trailing JSON object out of the measurement pass
// stderr. loudnorm prints it last, after the regular encode log lines.
func extractJSON(stderr string) ([]byte, error) {
	start := strings.LastIndex(stderr, "{")
	end := strings.LastIndex(stderr, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON block found in ffmpeg output")
	}
	return []byte(stderr[start : end+1]), nil
}

// saveScratch writes the raw measurement JSON to the temp-dir root. Failures
// are ignored; the scratch copy is purely diagnostic.
func (p *Planner) saveScratch(inputPath string, raw []byte) {
	name := fmt.Sprintf("normherd-%s.loudnorm.json",
		strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath)))
	_ = os.WriteFile(filepath.Join(p.cfg.TempDir, name), raw, 0o644)
}
