package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"ms-tryon/internal/models"
	"ms-tryon/internal/tryon"
)

// Redis keeps the store snapshot as a JSON string under one key.
type Redis struct {
	Client *redis.Client
	Key    string
}

func NewRedis(client *redis.Client, key string) *Redis {
	return &Redis{Client: client, Key: key}
}

// Connect dials and pings addr.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func (r *Redis) Load(ctx context.Context) (*models.Snapshot, error) {
	data, err := r.Client.Get(ctx, r.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", r.Key, err)
	}
	return tryon.DecodeSnapshot(data)
}

func (r *Redis) Save(ctx context.Context, snap *models.Snapshot) error {
	data, err := tryon.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := r.Client.Set(ctx, r.Key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.Key, err)
	}
	return nil
}
