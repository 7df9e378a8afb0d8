package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"ms-tryon/internal/config"
	"ms-tryon/internal/kafka"
	"ms-tryon/internal/logger"
	"ms-tryon/internal/storage"
	"ms-tryon/internal/tryon"
	"ms-tryon/internal/tryon/qr"
)

// openStore opens the configured persistence. With Kafka enabled, changes
// made here are announced so running services reload.
func openStore(ctx context.Context, cfg *config.Config) (*tryon.Store, func(), error) {
	log := logger.NewWriterLogger(os.Stderr)
	log.SetLevel(logger.ParseLevel(cfg.Log.Level))

	persistence, closeStorage, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := []func(){closeStorage}
	closeAll := func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}

	opts := []tryon.Option{
		tryon.WithLogger(log),
		tryon.WithQRGenerator(qr.NewGenerator(cfg.QR.Prefix, cfg.QR.SiteDomain, cfg.QR.ImageSize)),
		tryon.WithOrigin("cli-" + uuid.NewString()),
	}
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
		cleanup = append(cleanup, func() { producer.Close() })
		opts = append(opts, tryon.WithEventSinks(kafka.NewReservationPublisher(producer, cfg.Kafka.Topic)))
	}

	store, err := tryon.NewStore(ctx, persistence, opts...)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	return store, closeAll, nil
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	root, closeStore := newRootCmd(cfg, func(ctx context.Context) (*tryon.Store, func(), error) {
		return openStore(ctx, cfg)
	})
	err := root.Execute()
	closeStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
