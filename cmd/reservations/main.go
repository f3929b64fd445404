package main

import (
	labsrepository "labbook/internal/labs/repository"
	plansrepository "labbook/internal/plans/repository"

	healthhandler "labbook/internal/health/handler"
	"labbook/internal/reservations/events"
	"labbook/internal/reservations/handler"
	"labbook/internal/reservations/repository"
	"labbook/internal/reservations/service"
	"labbook/internal/reservations/validator"
	"labbook/pkg/app"
	"labbook/pkg/config"
	"labbook/pkg/kafka"
	kafkaconfig "labbook/pkg/kafka/config"
	kafkamiddleware "labbook/pkg/kafka/middleware"
)

func main() {
	cfg := config.Load("reservations")
	cfg.SetMongo()

	var publisher *events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(kafkaconfig.Default(cfg.KafkaBrokers), cfg.KafkaTopic)
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
		}
		defer producer.Close()

		producer.Use(kafkamiddleware.PublishLogging(cfg.Log))
		publisher = events.NewPublisher(producer, cfg.Log)
	} else {
		cfg.Log.Info("Kafka brokers not configured, event publishing disabled")
	}

	reservationRepo := repository.NewMongoReservationRepository(cfg)
	historyRepo := repository.NewStatusHistoryRepository(cfg)
	lockRepo := repository.NewLabLockRepository(cfg)
	labRepo := labsrepository.NewMongoLabRepository(cfg)
	planRepo := plansrepository.NewMongoPlanRepository(cfg)

	reservationService := service.NewReservationService(
		reservationRepo,
		historyRepo,
		lockRepo,
		labRepo,
		planRepo,
		publisher,
		validator.NewReservationValidator(cfg.Log),
		cfg,
	)

	application := app.NewApplication(cfg)
	application.SetApp(
		handler.NewReservationHandler(reservationService, cfg),
		healthhandler.NewHealthHandler(cfg, "reservations"),
	)
	application.Run()
}
