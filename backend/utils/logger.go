package utils

import (
	"strings"

	"go.uber.org/zap"
)

// InitLogger builds a zap logger. "json" (the default) gives the production
// encoder, anything else the development console encoder.
func InitLogger(format string) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(format) {
	case "", "json", "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Named("coursemarket"), nil
}
