// logging_hclog.go: hashicorp/go-hclog backend for the Logger interface
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package touchportal

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
)

// HCLogger adapts an hclog.Logger to the Logger interface.
type HCLogger struct {
	logger hclog.Logger
}

// NewHCLogger wraps an existing hclog logger.
func NewHCLogger(logger hclog.Logger) *HCLogger {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &HCLogger{logger: logger}
}

// NewDefaultHCLogger builds an hclog logger writing to stderr.
// Unknown levels fall back to info.
func NewDefaultHCLogger(name, level string) *HCLogger {
	return NewHCLoggerTo(name, level, os.Stderr)
}

// NewHCLoggerTo builds an hclog logger writing to w.
func NewHCLoggerTo(name, level string, w io.Writer) *HCLogger {
	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		lvl = hclog.Info
	}
	return NewHCLogger(hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Level:  lvl,
		Output: w,
	}))
}

// Debug logs at debug level
func (h *HCLogger) Debug(msg string, args ...any) { h.logger.Debug(msg, args...) }

// Info logs at info level
func (h *HCLogger) Info(msg string, args ...any) { h.logger.Info(msg, args...) }

// Warn logs at warn level
func (h *HCLogger) Warn(msg string, args ...any) { h.logger.Warn(msg, args...) }

// Error logs at error level
func (h *HCLogger) Error(msg string, args ...any) { h.logger.Error(msg, args...) }

// With returns a logger carrying the given key-value pairs.
func (h *HCLogger) With(args ...any) Logger {
	return &HCLogger{logger: h.logger.With(args...)}
}

// Unwrap returns the underlying hclog logger.
func (h *HCLogger) Unwrap() hclog.Logger {
	return h.logger
}

func asHCLogger(v any) (hclog.Logger, bool) {
	hl, ok := v.(hclog.Logger)
	return hl, ok
}
