package logger

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = zapcore.WarnLevel

// New returns a console logger writing to w at the named level. An empty level
// selects DefaultLevel.
func New(level string, w zapcore.WriteSyncer) (*zap.Logger, error) {
	lvl := DefaultLevel
	if level = strings.TrimSpace(level); level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid log level %q", level)
		}

		lvl = parsed
	}

	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), w, zap.NewAtomicLevelAt(lvl))
	return zap.New(core, zap.ErrorOutput(w)), nil
}

// Stderr returns a logger writing to standard error.
func Stderr(level string) (*zap.Logger, error) {
	return New(level, zapcore.Lock(os.Stderr))
}
