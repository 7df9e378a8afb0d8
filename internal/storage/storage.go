package storage

import (
	"context"
	"fmt"

	"ms-tryon/internal/config"
	"ms-tryon/internal/logger"
	"ms-tryon/internal/storage/kv"
	rediswrap "ms-tryon/internal/storage/redis"
	"ms-tryon/internal/tryon"
)

// Open returns the persistence selected by cfg.Storage.Backend and a close
// func for the underlying connection.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (tryon.Persistence, func(), error) {
	backend := cfg.Storage.Backend
	switch backend {
	case "memory":
		log.LogStorage("OPEN", backend, "snapshot kept in process only")
		return tryon.NewMemoryPersistence(), func() {}, nil

	case "sqlite", "postgres":
		if backend == "postgres" {
			if err := kv.MigratePostgres(cfg.Storage.DSN); err != nil {
				return nil, nil, err
			}
			log.LogStorage("MIGRATE", backend, "schema up to date")
		}
		db, err := kv.Open(backend, cfg.Storage.DSN)
		if err != nil {
			return nil, nil, err
		}
		store, err := kv.New(ctx, db, cfg.Storage.StoreName)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		log.LogStorage("OPEN", backend, fmt.Sprintf("record %q in kv_store", cfg.Storage.StoreName))
		return store, func() { db.Close() }, nil

	case "redis":
		client, err := rediswrap.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		log.LogStorage("OPEN", backend, fmt.Sprintf("key %q on %s", cfg.Storage.StoreName, cfg.Redis.Addr))
		return rediswrap.NewRedis(client, cfg.Storage.StoreName), func() { client.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
