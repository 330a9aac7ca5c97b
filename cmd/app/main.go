package main

import (
	"tutorhub/config"
	"tutorhub/di"
	"tutorhub/shared/logger"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	scheduler := di.InitializeScheduler()
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start periodic jobs")
	}

	defer scheduler.Stop()

	http := di.InitializeService()
	http.Serve()
}
