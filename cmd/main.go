package main

import (
	"log"

	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/app"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/app/config"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/platform/logger"
)

func main() {
	cfg := config.MustLoad()

	appLogger, err := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		Encoding:   cfg.Logger.Encoding,
		TimeFormat: cfg.Logger.TimeFormat,
	})
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	if err := app.Run(cfg, appLogger); err != nil {
		appLogger.Fatalf("service exited with error: %v", err)
	}
}
