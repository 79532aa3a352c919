package encode

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"syscall"
)

// process abstracts the spawned external encode for the supervisor: a
// progress stream to drain, a wait, and a terminate request. Tests provide
// fakes; production uses ffmpegProcess.
type process interface {
	// Progress is the raw key=value progress stream; it reaches EOF when
	// the process exits. Callers must drain it before Wait.
	Progress() io.Reader
	Wait() error
	Terminate() error
	StderrTail() string
}

// startFunc spawns the encode process for a job with the planner's params.
type startFunc func(job *Job, params []string) (process, error)

// startFFmpeg builds and starts the real ffmpeg invocation: input, planner
// output options, then the progress channel on stdout and the output path.
func (s *Supervisor) startFFmpeg(job *Job, params []string) (process, error) {
	args := []string{"-hide_banner", "-nostdin", "-y", "-i", job.InputPath}
	args = append(args, params...)
	args = append(args, "-progress", "pipe:1", "-nostats", job.OutputPath)

	cmd := exec.Command(s.cfg.FFmpegBin, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("progress pipe: %w", err)
	}

	p := &ffmpegProcess{cmd: cmd, progress: stdout}
	cmd.Stderr = &p.stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}
	return p, nil
}

// ffmpegProcess wraps a running ffmpeg command. Stderr is captured in full
// for failure reporting; stdout carries the -progress channel.
type ffmpegProcess struct {
	cmd      *exec.Cmd
	progress io.ReadCloser
	stderr   bytes.Buffer
}

func (p *ffmpegProcess) Progress() io.Reader { return p.progress }

func (p *ffmpegProcess) Wait() error { return p.cmd.Wait() }

// Terminate sends SIGTERM, letting ffmpeg shut down its muxer cleanly.
func (p *ffmpegProcess) Terminate() error {
	if p.cmd.Process == nil {
		return errProcessGone
	}
	return p.cmd.Process.Signal(syscall.SIGTERM)
}

// StderrTail returns the last few stderr lines for error reporting.
// Only valid after Wait has returned.
func (p *ffmpegProcess) StderrTail() string {
	const tail = 5
	lines := strings.Split(strings.TrimSpace(p.stderr.String()), "\n")
	if len(lines) > tail {
		lines = lines[len(lines)-tail:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
