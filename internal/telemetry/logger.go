package telemetry

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap.Logger whose level follows the configuration's
// 0..4 log-level scale (0 = debug, 4 = only fatal messages get through).
func NewLogger(logLevel int) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(levelFor(logLevel))
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func levelFor(logLevel int) zapcore.Level {
	switch {
	case logLevel <= 0:
		return zapcore.DebugLevel
	case logLevel == 1:
		return zapcore.InfoLevel
	case logLevel == 2:
		return zapcore.WarnLevel
	case logLevel == 3:
		return zapcore.ErrorLevel
	default:
		return zapcore.FatalLevel
	}
}
