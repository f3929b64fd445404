package main

import (
	healthhandler "labbook/internal/health/handler"
	"labbook/internal/labs/handler"
	"labbook/internal/labs/repository"
	"labbook/internal/labs/service"
	"labbook/internal/labs/validator"
	"labbook/pkg/app"
	"labbook/pkg/config"
)

func main() {
	cfg := config.Load("labs")
	cfg.SetMongo()

	labService := service.NewLabService(
		repository.NewMongoLabRepository(cfg),
		validator.NewLabValidator(cfg.Log),
		cfg,
	)

	application := app.NewApplication(cfg)
	application.SetApp(
		handler.NewLabHandler(labService, cfg),
		healthhandler.NewHealthHandler(cfg, "labs"),
	)
	application.Run()
}
