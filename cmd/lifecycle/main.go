package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"admarket/internal/config"
	"admarket/internal/database"
	"admarket/internal/events"
	"admarket/internal/logger"
	"admarket/internal/modules/ad"
	"admarket/internal/modules/booking"
	"admarket/internal/repository"

	"github.com/joho/godotenv"
)

// lifecycle advances bookings and expires ads once. Run it daily from cron.
func main() {
	_ = godotenv.Load()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "lifecycle: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(&cfg.Logger)

	db, err := database.Connect(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer func() { _ = database.Close(db) }()

	var publisher events.Publisher = events.Nop{}
	if cfg.Kafka.Enabled {
		producer, err := events.NewProducer(&cfg.Kafka, log)
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		defer func() { _ = producer.Close() }()
		publisher = producer
	}

	store := repository.NewStore(db)
	ads := ad.NewService(store, publisher, log)
	bookings := booking.NewService(store, publisher, ads, log, cfg.Lifecycle.ReminderDaysAhead)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	_, err = bookings.AdvanceLifecycle(ctx, time.Now())
	return err
}
