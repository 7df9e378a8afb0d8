package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"ms-tryon/internal/models"
	"ms-tryon/internal/tryon"
)

// setupTestRedis runs an in-memory miniredis server.
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}

	client, err := Connect(context.Background(), mr.Addr(), "", 0)
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to connect to miniredis: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func TestLoad_MissingKeyIsAbsent(t *testing.T) {
	client, _ := setupTestRedis(t)
	r := NewRedis(client, "kh-tryon-store")

	snap, err := r.Load(context.Background())

	assert.NoError(t, err)
	assert.Nil(t, snap)
}

func TestSave_WritesJSONUnderKey(t *testing.T) {
	client, mr := setupTestRedis(t)
	r := NewRedis(client, "kh-tryon-store")

	require.NoError(t, r.Save(context.Background(), &models.Snapshot{Festivals: tryon.DefaultCatalog()}))

	raw, err := mr.Get("kh-tryon-store")
	require.NoError(t, err)
	assert.Contains(t, raw, `"bangkok-kiz-2024"`)
	assert.False(t, mr.Exists("other-key"))
}

func TestLoad_CorruptPayload(t *testing.T) {
	client, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("kh-tryon-store", "{not json"))

	_, err := NewRedis(client, "kh-tryon-store").Load(context.Background())

	assert.ErrorContains(t, err, "decode snapshot")
}

func TestLoad_ServerDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	_, err = NewRedis(client, "kh-tryon-store").Load(context.Background())

	assert.Error(t, err)
}

func TestStoreRoundTripThroughRedis(t *testing.T) {
	ctx := context.Background()
	client, _ := setupTestRedis(t)
	p := NewRedis(client, "kh-tryon-store")

	store, err := tryon.NewStore(ctx, p)
	require.NoError(t, err)
	r, err := store.CreateReservation(ctx, tryon.NewReservation{
		UserID:          "user-1",
		UserEmail:       "user-1@example.com",
		Pieces:          []string{"p1"},
		PrimaryFestival: "saigon-urban-kiz-2025",
	})
	require.NoError(t, err)
	_, err = store.AddNote(ctx, r.ID, "prefers evening slot")
	require.NoError(t, err)

	reloaded, err := tryon.NewStore(ctx, p)
	require.NoError(t, err)

	before, after := store.Snapshot(), reloaded.Snapshot()
	assert.Equal(t, before.Festivals, after.Festivals)
	assert.Equal(t, before.Reservations, after.Reservations)
}

func TestRedisIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}

	ctx := context.Background()
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("Docker not available: %v", err)
	}
	defer redisContainer.Terminate(ctx)

	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := Connect(ctx, host+":"+port.Port(), "", 0)
	require.NoError(t, err)
	defer client.Close()

	p := NewRedis(client, "kh-tryon-store")
	snap := &models.Snapshot{Festivals: tryon.DefaultCatalog()}
	require.NoError(t, p.Save(ctx, snap))

	got, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.Festivals, got.Festivals)
}
