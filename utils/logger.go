package utils

import (
	"strings"

	"go.uber.org/zap"
)

// Log is the process-wide sugared logger. InitLogger must run before any
// service touches it; it defaults to a no-op-ish development logger so tests
// that never call InitLogger still work.
var Log *zap.SugaredLogger = zap.NewNop().Sugar()

func InitLogger(mode string) error {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production", "release":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	Log = logger.Sugar()
	return nil
}

func SyncLogger() {
	_ = Log.Sync()
}
