// Package logger provides opinionated logging capabilities for gemchat
package logger

import (
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a console logger writing to w. A nil writer logs to stdout.
// The interactive chat passes a log file (or io.Discard) so log lines never
// land on top of the terminal UI.
func NewLogger(debug bool, w io.Writer) *zap.Logger {
	if w == nil {
		w = os.Stdout
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	if w == os.Stdout || w == os.Stderr {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	// Set log level
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(w),
		level,
	)

	return zap.New(core, zap.AddCaller())
}

// Truncate shortens s to at most maxLen bytes for log previews, flattening
// newlines. The cut never splits a UTF-8 sequence.
func Truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
