package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/backmassage/normherd/internal/check"
	"github.com/backmassage/normherd/internal/config"
	"github.com/backmassage/normherd/internal/display"
	"github.com/backmassage/normherd/internal/encode"
	"github.com/backmassage/normherd/internal/logging"
	"github.com/backmassage/normherd/internal/pipeline"
	"github.com/backmassage/normherd/internal/planner"
	"github.com/backmassage/normherd/internal/probe"
	"github.com/backmassage/normherd/internal/progress"
	"github.com/backmassage/normherd/internal/sema"
	"github.com/backmassage/normherd/internal/shutdown"
	"github.com/backmassage/normherd/internal/term"
)

// version and commit are set at build time via -ldflags (e.g. Makefile).
var (
	version = "1.0.0-dev"
	commit  = "unknown"
)

// Process exit codes. Interrupt takes precedence over per-job failures.
const (
	exitOK          = 0
	exitFailed      = 1
	exitInterrupted = 130
)

func run() int {
	cfg := config.DefaultConfig()
	code := exitOK

	root := newRootCmd(&cfg, &code)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "normherd: %v\n", err)
		if code == exitOK {
			code = exitFailed
		}
	}
	return code
}

// newRootCmd builds the CLI surface. Flags write directly into cfg; enum
// fields go through local string vars so validation happens in one place.
func newRootCmd(cfg *config.Config, code *int) *cobra.Command {
	var (
		mode      string
		colorMode string
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "normherd [flags] <file-or-dir>...",
		Short: "Batch loudness normalization for media files",
		Long: `NormHerd normalizes the audio loudness of media files with ffmpeg's
loudnorm filter while stream-copying video and subtitles. Directories are
walked recursively for media files; outputs land in the output directory
with a .norm suffix.

Modes:
  single      one dynamic loudnorm pass (default, fast)
  two-pass    measure first, then apply linear normalization (accurate)

Configuration:
  Every flag can also be set via a NORMHERD_* environment variable,
  e.g. NORMHERD_JOBS=4 or NORMHERD_OUTPUT_DIR=/mnt/out.`,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindEnv(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Mode = config.NormMode(mode)
			cfg.ColorMode = config.ColorMode(colorMode)
			cfg.SkipExisting = !force
			cfg.Inputs = args
			cfg.OutputDir = config.NormalizeDirArg(cfg.OutputDir)
			if err := cfg.Validate(); err != nil {
				return err
			}

			rc, err := runNormalize(cfg)
			*code = rc
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&mode, "mode", string(cfg.Mode), "normalization mode: single or two-pass")
	f.IntVarP(&cfg.Jobs, "jobs", "j", cfg.Jobs, "max concurrent encodes")
	f.StringVarP(&cfg.OutputDir, "output-dir", "o", cfg.OutputDir, "output directory")
	f.Float64Var(&cfg.TargetI, "target-i", cfg.TargetI, "integrated loudness target (LUFS)")
	f.Float64Var(&cfg.TargetTP, "target-tp", cfg.TargetTP, "true peak ceiling (dBTP)")
	f.Float64Var(&cfg.TargetLRA, "target-lra", cfg.TargetLRA, "loudness range target (LU)")
	f.StringVar(&cfg.AudioBitrate, "audio-bitrate", cfg.AudioBitrate, "AAC bitrate for normalized audio")
	f.BoolVar(&force, "force", false, "overwrite existing outputs instead of skipping them")
	f.BoolVar(&cfg.DryRun, "dry-run", false, "list what would be done without encoding")
	f.StringVar(&cfg.TempDir, "temp-dir", cfg.TempDir, "scratch directory for two-pass measurements")
	f.StringVar(&colorMode, "color", string(cfg.ColorMode), "color output: auto, always or never")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", false, "debug logging")
	f.StringVarP(&cfg.LogFile, "log", "l", "", "also write the log to this file")
	f.BoolVarP(&cfg.CheckOnly, "check", "c", false, "run system diagnostics and exit")
	f.StringVar(&cfg.FFmpegBin, "ffmpeg", cfg.FFmpegBin, "ffmpeg binary to use")
	f.StringVar(&cfg.FFprobeBin, "ffprobe", cfg.FFprobeBin, "ffprobe binary to use")

	return cmd
}

// bindEnv overlays NORMHERD_* environment variables onto flags the user did
// not set explicitly, so precedence is flag > env > default.
func bindEnv(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix("NORMHERD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if bindErr != nil {
			return
		}
		if err := v.BindPFlag(f.Name, f); err != nil {
			bindErr = err
			return
		}
		if !f.Changed && v.IsSet(f.Name) {
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); err != nil {
				bindErr = fmt.Errorf("env NORMHERD_%s: %w",
					strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_")), err)
			}
		}
	})
	return bindErr
}

// runNormalize is the batch run: check, discover, probe, then concurrent
// normalization under the admission limiter. The returned code is the
// process exit code.
func runNormalize(cfg *config.Config) (int, error) {
	term.Configure(cfg.ColorMode)

	log, err := logging.NewLogger(cfg)
	if err != nil {
		return exitFailed, err
	}
	defer func() { _ = log.Sync() }()

	display.PrintBanner()

	if cfg.CheckOnly {
		if !check.RunCheck(cfg, log) {
			return exitFailed, nil
		}
		return exitOK, nil
	}

	if err := check.CheckDeps(cfg); err != nil {
		return exitFailed, err
	}

	files, err := pipeline.Discover(cfg.Inputs)
	if err != nil {
		return exitFailed, err
	}
	if len(files) == 0 {
		log.Warnf("No media files found")
		return exitOK, nil
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return exitFailed, fmt.Errorf("create output directory %s: %w", cfg.OutputDir, err)
	}

	ctrl := shutdown.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctrl.OnSignal(cancel)

	limiter := sema.New(cfg.Jobs)
	ctrl.OnSignal(limiter.Close)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		log.Warnf("Interrupt received, stopping (running jobs are being terminated)...")
		ctrl.Signal()
	}()

	jobs, skipped := pipeline.BuildJobs(ctx, cfg, log, files,
		func(ctx context.Context, path string) (*probe.Result, error) {
			return probe.Probe(ctx, cfg.FFprobeBin, path)
		})

	log.Infof("=== NormHerd v%s ===", version)
	log.Infof("Mode: %s  Jobs: %d  Target: I=%g TP=%g LRA=%g",
		cfg.Mode, cfg.Jobs, cfg.TargetI, cfg.TargetTP, cfg.TargetLRA)
	log.Infof("Out:  %s", cfg.OutputDir)

	if cfg.DryRun {
		log.Warnf("DRY RUN")
		for _, j := range jobs {
			log.Infof("Would normalize: %s -> %s", j.InputPath, j.OutputPath)
		}
		log.Infof("%d file(s) to process, %d skipped", len(jobs), skipped)
		return exitOK, nil
	}

	if len(jobs) == 0 {
		log.Infof("Nothing to do (%d skipped)", skipped)
		return exitOK, nil
	}

	agg := progress.NewAggregator(len(jobs))
	sup := encode.NewSupervisor(cfg, log, limiter, ctrl, agg, planner.New(cfg))
	orch := pipeline.New(log, sup, agg, os.Stdout, term.IsTerminal(os.Stdout))

	summary := orch.RunAll(ctx, jobs)
	summary.Skipped = skipped

	log.Infof("=== Summary ===")
	log.Infof("Completed:   %d/%d", summary.Completed, summary.Total)
	if summary.Failed > 0 {
		log.Errorf("Failed:      %d", summary.Failed)
	}
	if summary.Interrupted > 0 {
		log.Warnf("Interrupted: %d", summary.Interrupted)
	}
	if summary.Skipped > 0 {
		log.Infof("Skipped:     %d", summary.Skipped)
	}

	switch {
	case ctrl.IsShuttingDown():
		return exitInterrupted, nil
	case summary.Failed > 0:
		return exitFailed, nil
	default:
		return exitOK, nil
	}
}
