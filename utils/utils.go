package utils

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger. An empty level means "info".
func NewLogger(level string, development bool) (*zap.Logger, error) {
	var zapConfig zap.Config
	if development {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}
	if level != "" {
		parsedLevel, levelErr := zapcore.ParseLevel(level)
		if levelErr != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, levelErr)
		}
		zapConfig.Level = zap.NewAtomicLevelAt(parsedLevel)
	}
	return zapConfig.Build()
}

// ModuleLogger returns a child logger tagged with the module name.
func ModuleLogger(logger *zap.Logger, module string) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger.Named(module)
}
