// pkg/logger/logger.go
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Sugared = *zap.SugaredLogger

// New builds the process logger. Production output is JSON at info level,
// everything else is the console encoder at debug level.
func New(env string) Sugared {
	var z *zap.Logger
	if env == "prod" {
		zc := zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "ts"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		z, _ = zc.Build()
	} else {
		z, _ = zap.NewDevelopment()
	}
	return z.Sugar().With("service", "idp-rest")
}

// Nop is used by tests and by components constructed without a logger.
func Nop() Sugared { return zap.NewNop().Sugar() }

// OrNop returns log, or a no-op logger when log is nil.
func OrNop(log Sugared) Sugared {
	if log == nil {
		return Nop()
	}
	return log
}
