// Package logging builds the zap logger shared by every binary and
// component, matching the structured fields the original service's
// StructuredFormatter attached to every record (service name, version).
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production zap.Logger tagged with the given service name,
// honoring level as a lowercase zapcore level name (debug, info, warn,
// error).
func New(serviceName, level string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	_ = lvl.UnmarshalText([]byte(level))

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(
		zap.String("service", serviceName),
		zap.String("version", "0.1.0"),
	), nil
}
