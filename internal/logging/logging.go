// Package logging builds the run-wide zap logger: console encoding for
// humans, colored levels when the terminal allows, and an optional file
// sink appended via OutputPaths.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/backmassage/normherd/internal/config"
	"github.com/backmassage/normherd/internal/term"
)

// NewLogger creates the application logger from cfg. Level is Debug when
// Verbose is set, Info otherwise. When LogFile is set its directory is
// created and the file is added as a second sink.
func NewLogger(cfg *config.Config) (*zap.SugaredLogger, error) {
	level := zap.InfoLevel
	if cfg.Verbose {
		level = zap.DebugLevel
	}

	encodeLevel := zapcore.CapitalLevelEncoder
	if term.Enabled() {
		encodeLevel = zapcore.CapitalColorLevelEncoder
	}

	outputs := []string{"stdout"}
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		outputs = append(outputs, cfg.LogFile)
	}

	loggerCfg := zap.Config{
		Level:    zap.NewAtomicLevelAt(level),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "time",
			LevelKey:       "level",
			MessageKey:     "message",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"),
			EncodeLevel:    encodeLevel,
			EncodeDuration: zapcore.SecondsDurationEncoder,
		},
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := loggerCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Sugar(), nil
}
