// Package config holds runtime configuration: defaults, validation, and the
// enum types for validated string fields. Values are populated from CLI
// flags and NORMHERD_* environment variables by the root command.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// --- Enum types for validated string fields ---

// NormMode selects the loudness normalization strategy.
type NormMode string

const (
	// ModeSingle applies loudnorm in one dynamic pass (default).
	ModeSingle NormMode = "single"
	// ModeTwoPass measures first, then applies linear normalization with
	// the measured values. Slower, more accurate.
	ModeTwoPass NormMode = "two-pass"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Config holds all runtime settings. It is populated by [DefaultConfig] and
// then mutated by the root command before being passed (by pointer) to
// packages that need it.
type Config struct {
	// Inputs (positional args: files and/or directories).
	Inputs    []string
	OutputDir string // Default: "./normalized".

	// Normalization settings.
	Mode      NormMode // Default: single.
	TargetI   float64  // Integrated loudness target in LUFS. Default: -16.
	TargetTP  float64  // True peak ceiling in dBTP. Default: -1.5.
	TargetLRA float64  // Loudness range target in LU. Default: 11.

	// Audio encoding.
	AudioBitrate string // Default: "256k".

	// Concurrency.
	Jobs int // Admission ceiling. Default: 2, minimum 1.

	// Behavior flags.
	DryRun       bool
	SkipExisting bool   // Default: true. Cleared by --force.
	TempDir      string // Scratch root for two-pass measurement. Default: os.TempDir().

	// Display and logging.
	Verbose   bool
	ColorMode ColorMode // Default: "auto".
	LogFile   string    // Optional log file path.
	CheckOnly bool      // Run --check diagnostics and exit.

	// External binaries (override for exotic installs).
	FFmpegBin  string // Default: "ffmpeg".
	FFprobeBin string // Default: "ffprobe".
}

// DefaultConfig returns a Config with all defaults matching the legacy
// normalize script behavior. Used as the base before CLI overrides apply.
func DefaultConfig() Config {
	return Config{
		OutputDir:    "normalized",
		Mode:         ModeSingle,
		TargetI:      -16.0,
		TargetTP:     -1.5,
		TargetLRA:    11.0,
		AudioBitrate: "256k",
		Jobs:         2,
		SkipExisting: true,
		TempDir:      os.TempDir(),
		ColorMode:    ColorAuto,
		FFmpegBin:    "ffmpeg",
		FFprobeBin:   "ffprobe",
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an
// empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks enum fields, loudness target ranges, and concurrency.
// When not in CheckOnly mode it also requires at least one input path and
// a non-empty output directory.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeSingle, ModeTwoPass:
		// valid
	default:
		return errors.New("invalid mode (use 'single' or 'two-pass')")
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	if c.Jobs < 1 {
		return errors.New("jobs must be at least 1")
	}

	// loudnorm's accepted ranges.
	if c.TargetI < -70 || c.TargetI > -5 {
		return fmt.Errorf("target loudness %g out of range (-70..-5 LUFS)", c.TargetI)
	}
	if c.TargetTP < -9 || c.TargetTP > 0 {
		return fmt.Errorf("true peak %g out of range (-9..0 dBTP)", c.TargetTP)
	}
	if c.TargetLRA < 1 || c.TargetLRA > 50 {
		return fmt.Errorf("loudness range %g out of range (1..50 LU)", c.TargetLRA)
	}

	normalizedBitrate, err := normalizeAudioBitrate(c.AudioBitrate)
	if err != nil {
		return err
	}
	c.AudioBitrate = normalizedBitrate

	if c.CheckOnly {
		return nil
	}
	if len(c.Inputs) == 0 {
		return errors.New("need at least one input file or directory")
	}
	if c.OutputDir == "" {
		return errors.New("output directory must not be empty")
	}
	return nil
}

// normalizeAudioBitrate validates and canonicalizes user bitrate input.
// Accepted forms: "256", "256k", "256K", "256kbps". Output is "<n>k".
func normalizeAudioBitrate(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", errors.New("audio bitrate must not be empty")
	}
	if strings.HasSuffix(s, "kbps") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "kbps"))
	} else if strings.HasSuffix(s, "k") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "k"))
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return "", fmt.Errorf("invalid audio bitrate %q (use positive Kbps value, e.g. 128k)", raw)
	}
	return fmt.Sprintf("%dk", n), nil
}
