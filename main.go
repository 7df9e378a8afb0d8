package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"ms-tryon/internal/analytics"
	"ms-tryon/internal/auth"
	"ms-tryon/internal/config"
	"ms-tryon/internal/kafka"
	"ms-tryon/internal/logger"
	"ms-tryon/internal/models"
	"ms-tryon/internal/sse"
	"ms-tryon/internal/storage"
	"ms-tryon/internal/tryon"
	"ms-tryon/internal/tryon/api"
	"ms-tryon/internal/tryon/qr"
)

func newVerifier(ctx context.Context, cfg *config.Config, log *logger.Logger) auth.Verifier {
	if cfg.Auth.OIDCIssuer != "" {
		v, err := auth.NewOIDCVerifier(ctx, cfg.Auth.OIDCIssuer, cfg.Auth.AdminRole)
		if err != nil {
			log.Fatal("AUTH", err.Error())
		}
		log.Info("AUTH", "Verifying tokens against OIDC issuer "+cfg.Auth.OIDCIssuer)
		return v
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("CONFIG", "either OIDC_ISSUER or JWT_SECRET must be set")
	}
	log.Info("AUTH", "Verifying HS256 tokens with JWT_SECRET")
	return auth.NewHMACVerifier(cfg.Auth.JWTSecret, cfg.Auth.AdminRole)
}

// startKafka wires the reservation publisher and a consumer that reloads
// the store when another instance announces a change.
func startKafka(ctx context.Context, cfg *config.Config, origin string, log *logger.Logger) (*kafka.Producer, *kafka.Consumer, tryon.EventSink) {
	if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{cfg.Kafka.Topic}, log); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	}
	producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
	// every instance needs every event, so each gets its own group
	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID+"-"+origin, log)
	log.Info("KAFKA", "Kafka producer and consumer initialized")
	return producer, consumer, kafka.NewReservationPublisher(producer, cfg.Kafka.Topic)
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, ".env file not found, using environment variables")
	}
	cfg := config.Load()

	log, err := logger.NewLogger("tryon-service", cfg.Log.Dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()
	log.SetLevel(logger.ParseLevel(cfg.Log.Level))
	log.Info("APP", "Starting try-on reservation service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	persistence, closeStorage, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("STORAGE", err.Error())
	}
	defer closeStorage()

	origin := uuid.NewString()
	broker := sse.NewBroker()
	sinks := []tryon.EventSink{broker}

	var consumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		var producer *kafka.Producer
		var publisher tryon.EventSink
		producer, consumer, publisher = startKafka(ctx, cfg, origin, log)
		defer producer.Close()
		defer consumer.Close()
		sinks = append(sinks, publisher)
	}

	codes := qr.NewGenerator(cfg.QR.Prefix, cfg.QR.SiteDomain, cfg.QR.ImageSize)
	store, err := tryon.NewStore(ctx, persistence,
		tryon.WithLogger(log),
		tryon.WithQRGenerator(codes),
		tryon.WithEventSinks(sinks...),
		tryon.WithOrigin(origin),
	)
	if err != nil {
		log.Fatal("STORE", err.Error())
	}
	log.Info("STORE", fmt.Sprintf("Store ready with %d festivals", len(store.Festivals())))

	if consumer != nil {
		go func() {
			err := consumer.Start(ctx, func(ctx context.Context, evt models.ReservationEvent) {
				if evt.Origin == origin {
					return
				}
				if err := store.Reload(ctx); err != nil {
					log.Error("KAFKA", fmt.Sprintf("Reload after %s from %s failed: %v", evt.Type, evt.Origin, err))
					return
				}
				_ = broker.Publish(ctx, evt)
			})
			if err != nil {
				log.Error("KAFKA", fmt.Sprintf("Consumer stopped: %v", err))
			}
		}()
	}

	handler := &api.Handler{
		Store:     store,
		Codes:     codes,
		Broker:    broker,
		Analytics: analytics.NewService(store),
		Verifier:  newVerifier(ctx, cfg, log),
		AdminRole: cfg.Auth.AdminRole,
		Logger:    log,
	}
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	handler.RegisterRoutes(r)
	log.Info("ROUTER", "Try-on routes registered under /api/tryon")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		// cancelled on shutdown so open SSE streams end
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Info("HTTP", "Try-on service running on "+cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	<-ctx.Done()
	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "Try-on service shutdown complete")
	}
}
