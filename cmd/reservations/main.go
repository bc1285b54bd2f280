package main

import (
	"context"

	offersrepository "bookstay/internal/offers/repository"
	offersservice "bookstay/internal/offers/service"
	offersvalidator "bookstay/internal/offers/validator"
	"bookstay/internal/reservations/handler"
	"bookstay/internal/reservations/reclaimer"
	"bookstay/internal/reservations/repository"
	"bookstay/internal/reservations/service"
	"bookstay/internal/reservations/validator"
	"bookstay/pkg/app"
	"bookstay/pkg/client"
	"bookstay/pkg/config"
	"bookstay/pkg/kafka"
	kafkaconfig "bookstay/pkg/kafka/config"
	"bookstay/pkg/model"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Reservations service")
	reservationService := initServices(cfg)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewReservationHandler(reservationService, cfg.Log))
	serverApp.AddWorker(reclaimer.New(reservationService, cfg))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.ReservationService {
	reservationValidator := validator.NewReservationValidator(cfg.Log)
	reservationRepo := repository.NewMongoReservationRepository(cfg)
	availabilityRepo := repository.NewMongoAvailabilityRepository(cfg)
	lockRepo := repository.NewOfferLockRepository(cfg)

	reservationService := service.NewReservationService(
		reservationRepo,
		availabilityRepo,
		lockRepo,
		reservationValidator,
		initCatalog(cfg),
		initEvents(cfg),
		cfg,
	)

	cfg.Log.Info("Reservation service initialized", "database", cfg.MongoDatabaseName)
	return reservationService
}

// initCatalog resolves offers over HTTP when a catalog base URL is configured,
// otherwise straight from the shared database.
func initCatalog(cfg *config.Config) service.OfferCatalog {
	if cfg.OffersBaseURL != "" {
		cfg.Log.Info("Using remote offer catalog", "base_url", cfg.OffersBaseURL)
		return client.NewOffersClient(cfg.OffersBaseURL)
	}

	offerService := offersservice.NewOfferService(
		offersrepository.NewMongoOfferRepository(cfg),
		offersvalidator.NewOfferValidator(),
		cfg,
	)
	return catalogAdapter{svc: offerService}
}

func initEvents(cfg *config.Config) service.EventPublisher {
	kafkaCfg := kafkaconfig.Load()
	if !kafkaCfg.Enabled {
		cfg.Log.Info("Kafka disabled, reservation events will not be published")
		return nil
	}

	producer, err := kafka.NewProducer(kafkaCfg, model.ReservationEventsTopic, model.ReservationEventsDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	cfg.Log.Info("Kafka producer initialized", "topic", model.ReservationEventsTopic)
	return producer
}

type catalogAdapter struct {
	svc offersservice.OfferService
}

func (c catalogAdapter) FindByID(ctx context.Context, id string) (*model.Offer, error) {
	return c.svc.GetByID(ctx, id)
}
