package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-tryon/internal/config"
	"ms-tryon/internal/logger"
	"ms-tryon/internal/models"
	"ms-tryon/internal/tryon"
)

func testConfig(backend string) *config.Config {
	cfg := config.Load()
	cfg.Storage.Backend = backend
	cfg.Storage.DSN = "file::memory:?cache=shared"
	cfg.Storage.StoreName = "storage-test"
	return cfg
}

func roundTrip(t *testing.T, p tryon.Persistence) {
	t.Helper()
	ctx := context.Background()
	snap := &models.Snapshot{Festivals: tryon.DefaultCatalog(), Reservations: []models.Reservation{}}
	require.NoError(t, p.Save(ctx, snap))

	got, err := p.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, snap.Festivals, got.Festivals)
}

func TestOpen_Memory(t *testing.T) {
	p, closeFn, err := Open(context.Background(), testConfig("memory"), logger.Discard())
	require.NoError(t, err)
	defer closeFn()

	roundTrip(t, p)
}

func TestOpen_SQLite(t *testing.T) {
	p, closeFn, err := Open(context.Background(), testConfig("sqlite"), logger.Discard())
	require.NoError(t, err)
	defer closeFn()

	roundTrip(t, p)
}

func TestOpen_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig("redis")
	cfg.Redis.Addr = mr.Addr()

	p, closeFn, err := Open(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	defer closeFn()

	roundTrip(t, p)
	assert.True(t, mr.Exists("storage-test"))
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, _, err := Open(context.Background(), testConfig("floppy"), logger.Discard())
	assert.Error(t, err)
}
