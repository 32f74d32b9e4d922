// Package logutil builds the zap loggers used by the command line tools.
package logutil

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// File rotation settings for a configured log file.
const (
	maxSizeMB  = 64
	maxBackups = 4
	maxAgeDays = 14
)

// New returns a logger writing at level to file, or to stderr when file is
// empty. A file is rotated once it reaches maxSizeMB.
func New(level, file string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "log level %q", level)
	}

	var out zapcore.WriteSyncer
	if file == "" {
		out = zapcore.Lock(os.Stderr)
	} else {
		out = zapcore.AddSync(&lumberjack.Logger{
			Filename:   file,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
		})
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), out, lvl)
	return zap.New(core, zap.AddCaller()), nil
}
