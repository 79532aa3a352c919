// Package check provides system diagnostics (--check mode) and pre-run
// dependency validation (CheckDeps) for ffmpeg, ffprobe, and the loudnorm
// and AAC components the normalizer relies on.
package check

import (
	"errors"
	"os/exec"
	"strings"

	"github.com/backmassage/normherd/internal/config"
)

// Sentinel errors returned by CheckDeps when a required tool is missing.
var (
	ErrFfmpegNotFound  = errors.New("ffmpeg not found on PATH")
	ErrFfprobeNotFound = errors.New("ffprobe not found on PATH")
	ErrLoudnormMissing = errors.New("ffmpeg build lacks the loudnorm filter")
)

// Logger is the minimal logging interface needed by RunCheck. Defined here
// (rather than importing a logger type) so check stays testable with a mock.
// Satisfied by *zap.SugaredLogger.
type Logger interface {
	Infof(string, ...interface{})
	Warnf(string, ...interface{})
	Errorf(string, ...interface{})
}

// RunCheck runs the interactive --check flow: ffmpeg/ffprobe availability,
// loudnorm filter support, and a minimal AAC test encode. Informational
// only; it reports everything it can and returns false if anything a run
// would need is missing.
func RunCheck(cfg *config.Config, log Logger) bool {
	log.Infof("=== System Check ===")

	ok := checkBinary(cfg.FFmpegBin, log)
	ok = checkBinary(cfg.FFprobeBin, log) && ok

	if hasLoudnorm(cfg) {
		log.Infof("loudnorm filter: available")
	} else {
		log.Errorf("loudnorm filter: missing from this ffmpeg build")
		ok = false
	}

	log.Infof("Testing AAC encoder...")
	if runSilent(cfg.FFmpegBin,
		"-hide_banner", "-nostdin",
		"-f", "lavfi", "-i", "sine=frequency=1000:duration=0.1",
		"-c:a", "aac", "-f", "null", "-",
	) {
		log.Infof("AAC encoder works")
	} else {
		log.Errorf("AAC encoder test failed")
		ok = false
	}

	return ok
}

// checkBinary verifies bin is on PATH and logs its version line.
func checkBinary(bin string, log Logger) bool {
	if _, err := exec.LookPath(bin); err != nil {
		log.Errorf("%s not found", bin)
		return false
	}
	out, err := exec.Command(bin, "-version").Output()
	if err != nil {
		log.Warnf("%s found but -version failed: %v", bin, err)
		return true
	}
	firstLine := strings.TrimSpace(string(out))
	if idx := strings.Index(firstLine, "\n"); idx > 0 {
		firstLine = firstLine[:idx]
	}
	log.Infof("%s", firstLine)
	return true
}

// CheckDeps is the pre-run validation: ffmpeg and ffprobe must be on PATH
// and the ffmpeg build must include the loudnorm filter. Returns a sentinel
// error on failure.
func CheckDeps(cfg *config.Config) error {
	if _, err := exec.LookPath(cfg.FFmpegBin); err != nil {
		return ErrFfmpegNotFound
	}
	if _, err := exec.LookPath(cfg.FFprobeBin); err != nil {
		return ErrFfprobeNotFound
	}
	if !hasLoudnorm(cfg) {
		return ErrLoudnormMissing
	}
	return nil
}

// hasLoudnorm reports whether the ffmpeg build includes the loudnorm filter.
func hasLoudnorm(cfg *config.Config) bool {
	out, err := exec.Command(cfg.FFmpegBin, "-hide_banner", "-filters").Output()
	if err != nil {
		return false
	}
	return strings.Contains(string(out), "loudnorm")
}

// runSilent runs a command and returns true if it exits with status 0.
// Both stdout and stderr are discarded.
func runSilent(name string, args ...string) bool {
	cmd := exec.Command(name, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run() == nil
}
