package main

import (
	"context"

	"kbox/config"
	"kbox/di"
	"kbox/shared/logger"
)

func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	app := di.InitializeApp()

	go app.Reaper.Run(context.Background())

	app.HTTP.Serve()
}
