// Package logging builds the zap logger used across carlist.
//
// The TUI owns the terminal, so log output goes to a file instead of stderr.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultFile is the log file name used when no path is given
const DefaultFile = "carlist.log"

// Options controls logger construction
type Options struct {
	Path    string // log file path; "-" writes to stderr
	Verbose bool   // debug level when set
}

// New creates a logger writing JSON lines to opts.Path.
// The returned close function syncs and releases the file.
func New(opts Options) (*zap.Logger, func(), error) {
	path := opts.Path
	if path == "" {
		path = DefaultFile
	}

	config := zap.NewProductionConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = true
	if opts.Verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	if path == "-" {
		config.OutputPaths = []string{"stderr"}
	} else {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		config.OutputPaths = []string{path}
	}
	config.ErrorOutputPaths = config.OutputPaths

	logger, err := config.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger, func() { _ = logger.Sync() }, nil
}
