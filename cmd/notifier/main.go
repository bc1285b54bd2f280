package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"bookstay/pkg/config"
	"bookstay/pkg/kafka"
	kafkaconfig "bookstay/pkg/kafka/config"
	"bookstay/pkg/model"
)

const (
	ServiceName     = "notifier"
	ConsumerGroupID = "notifier"
)

// The notifier consumes reservation lifecycle events and tells guests what
// happened to their stay. Delivery is a log line for now; the consumer group
// keeps offsets so a real channel can slot in behind the same handler.
func main() {
	cfg := config.Load(ServiceName)

	kafkaCfg := kafkaconfig.Load()
	if !kafkaCfg.Enabled {
		cfg.Log.Fatal("Kafka must be enabled for the notifier service")
	}

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		model.ReservationEventsTopic,
		ConsumerGroupID,
		model.ReservationEventsDLQTopic,
		handleEvent(cfg),
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			cfg.Log.Error("Failed to close consumer", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Notifier started", "topic", model.ReservationEventsTopic, "group_id", ConsumerGroupID)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Fatal("Consumer stopped with error", "error", err)
	}
	cfg.Log.Info("Notifier stopped")
}

func handleEvent(cfg *config.Config) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var event model.ReservationEvent
		if err := msg.DecodeValue(&event); err != nil {
			return err
		}

		switch msg.GetEventType() {
		case model.EventReservationCreated:
			cfg.Log.Info("Notify guest: reservation held",
				"guest_id", event.GuestID,
				"reservation_id", event.ReservationID,
				"date_from", event.DateFrom,
				"date_until", event.DateUntil,
			)
		case model.EventReservationConfirmed:
			cfg.Log.Info("Notify guest: reservation confirmed",
				"guest_id", event.GuestID,
				"reservation_id", event.ReservationID,
			)
		case model.EventReservationCancelled:
			cfg.Log.Info("Notify guest: reservation cancelled",
				"guest_id", event.GuestID,
				"reservation_id", event.ReservationID,
			)
		case model.EventReservationReclaimed:
			cfg.Log.Info("Notify guest: reservation expired unpaid",
				"guest_id", event.GuestID,
				"reservation_id", event.ReservationID,
			)
		default:
			cfg.Log.Warn("Unknown event type", "event_type", msg.GetEventType())
		}

		return nil
	}
}
