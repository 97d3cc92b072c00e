package utils

import (
	"os"
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// GetLogger returns the process-wide logger, building it on first use.
// LOG_MODE=development switches to the human-readable console encoder.
func GetLogger() *zap.Logger {
	loggerOnce.Do(func() {
		var err error
		if os.Getenv("LOG_MODE") == "development" {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		if err != nil {
			panic("logger setup: " + err.Error())
		}
	})
	return logger
}
