// Package logger provides the shared zap sugared logger for the application.
// It is configured once at startup from config.LogConfig; callers before
// Init see a sane development logger.
package logger

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"billclarity/internal/config"
)

var (
	mu  sync.RWMutex
	log *zap.SugaredLogger
)

// Init builds the global logger from config. Format "json" selects the
// production encoder; anything else gets the console development encoder.
func Init(cfg *config.LogConfig) error {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	built, err := zapCfg.Build()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}

	mu.Lock()
	log = built.Sugar()
	mu.Unlock()
	return nil
}

// GetLogger returns the shared sugared logger, building a development logger
// on first use if Init was never called (tests).
func GetLogger() *zap.SugaredLogger {
	mu.RLock()
	l := log
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if log == nil {
		built, err := zap.NewDevelopment()
		if err != nil {
			panic(fmt.Sprintf("failed to initialize fallback logger: %v", err))
		}
		log = built.Sugar()
	}
	return log
}

// Sync flushes any buffered log entries. Call before the process exits.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	if log == nil {
		return nil
	}
	return log.Sync()
}
