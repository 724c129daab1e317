package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ev-route-service/internal/adapters/repositories"
	"ev-route-service/internal/config"
	"ev-route-service/internal/domain"
	"ev-route-service/internal/platform/db"
)

func TestSeedBundledStations(t *testing.T) {
	conn, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ctx := context.Background()
	path := filepath.Join("..", "..", "data", "seeds", "stations.json")
	require.NoError(t, seed(ctx, zerolog.Nop(), conn, config.DialectSQLite, path))

	repo := repositories.NewSqliteStationRepository(conn)
	found, err := repo.StationsNear(ctx, domain.Coordinates{Lat: 46.99, Lon: -120.55}, 5)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Shell Recharge Ellensburg", found[0].Name)

	// Seeding twice upserts rather than duplicating.
	require.NoError(t, seed(ctx, zerolog.Nop(), conn, config.DialectSQLite, path))
	found, err = repo.StationsNear(ctx, domain.Coordinates{Lat: 46.99, Lon: -120.55}, 5)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestSeedRejectsMissingFile(t *testing.T) {
	conn, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	err = seed(context.Background(), zerolog.Nop(), conn, config.DialectSQLite, "does-not-exist.json")
	assert.Error(t, err)
}
