package utils

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns a zap logger. When debug is true, uses development config
// (human-readable, debug level); otherwise uses production config (JSON, info level,
// ISO8601 timestamps). Every entry carries the service name.
func NewLogger(debug bool) (*zap.Logger, error) {
	service := zap.Fields(zap.String("service", "kurasu"))
	if debug {
		return zap.NewDevelopment(service)
	}
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build(service)
}
