package repositories

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ev-route-service/internal/domain"
	"ev-route-service/internal/platform/db"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, InitSchema(context.Background(), conn, db.DialectSQLite))
	return conn
}

func sampleStations() []domain.ChargingStation {
	return []domain.ChargingStation{
		{ID: "ellensburg", Name: "Shell Recharge Ellensburg", Position: domain.Coordinates{Lat: 46.99, Lon: -120.55}, Connectors: []string{"CCS"}, MaxKw: 350, Operational: true},
		{ID: "yakima", Name: "Tesla Supercharger - Yakima", Position: domain.Coordinates{Lat: 46.60, Lon: -120.51}, Connectors: []string{"Tesla"}, MaxKw: 250, Operational: true},
		{ID: "kennewick", Name: "Electrify America - Kennewick", Position: domain.Coordinates{Lat: 46.21, Lon: -119.14}, Connectors: []string{"CCS", "CHAdeMO"}, MaxKw: 150, Operational: false},
	}
}

func TestSqliteStationRepository_StationsNear(t *testing.T) {
	ctx := context.Background()
	repo := NewSqliteStationRepository(openTestDB(t))
	require.NoError(t, repo.UpsertStations(ctx, sampleStations()))

	got, err := repo.StationsNear(ctx, domain.Coordinates{Lat: 46.95, Lon: -120.55}, 60)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ellensburg", got[0].ID)
	assert.Equal(t, "yakima", got[1].ID)
	assert.Equal(t, []string{"CCS"}, got[0].Connectors)
	assert.True(t, got[0].Operational)

	got, err = repo.StationsNear(ctx, domain.Coordinates{Lat: 46.21, Lon: -119.14}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].Operational)
	assert.Equal(t, []string{"CCS", "CHAdeMO"}, got[0].Connectors)
}

func TestSqliteStationRepository_UpsertReplaces(t *testing.T) {
	ctx := context.Background()
	repo := NewSqliteStationRepository(openTestDB(t))
	require.NoError(t, repo.UpsertStations(ctx, sampleStations()))

	updated := sampleStations()[0]
	updated.MaxKw = 50
	updated.Operational = false
	require.NoError(t, repo.UpsertStations(ctx, []domain.ChargingStation{updated}))

	got, err := repo.StationsNear(ctx, updated.Position, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 50.0, got[0].MaxKw)
	assert.False(t, got[0].Operational)
}

func TestSqliteStationRepository_InvalidQuery(t *testing.T) {
	repo := NewSqliteStationRepository(openTestDB(t))
	_, err := repo.StationsNear(context.Background(), domain.Coordinates{Lat: 0, Lon: 0}, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMemoryStationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStationRepository(sampleStations())

	got, err := repo.StationsNear(ctx, domain.Coordinates{Lat: 46.60, Lon: -120.51}, 50)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "yakima", got[0].ID)

	require.NoError(t, repo.UpsertStations(ctx, []domain.ChargingStation{
		{ID: "new", Position: domain.Coordinates{Lat: 46.61, Lon: -120.51}, MaxKw: 50, Operational: true},
	}))
	assert.Equal(t, 4, repo.Len())
}

func TestLoadStationSeeds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stations.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id": "a", "name": "A", "lat": 47.0, "lng": -120.0, "connectors": ["CCS"], "maxKw": 150},
		{"id": "b", "name": "B", "lat": 47.1, "lng": -120.1, "maxKw": 50, "operational": false}
	]`), 0o600))

	got, err := LoadStationSeeds(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Operational)
	assert.False(t, got[1].Operational)
	assert.Equal(t, []string{}, got[1].Connectors)

	repo := NewSqliteStationRepository(openTestDB(t))
	n, err := SeedStations(context.Background(), repo, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestLoadStationSeeds_Invalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"empty id":  `[{"id": " ", "lat": 1, "lng": 1, "maxKw": 10}]`,
		"duplicate": `[{"id": "a", "lat": 1, "lng": 1, "maxKw": 10}, {"id": "a", "lat": 1, "lng": 1, "maxKw": 10}]`,
		"bad lat":   `[{"id": "a", "lat": 100, "lng": 1, "maxKw": 10}]`,
		"zero kw":   `[{"id": "a", "lat": 1, "lng": 1, "maxKw": 0}]`,
		"not json":  `{`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, "stations.json")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
			_, err := LoadStationSeeds(path)
			assert.Error(t, err)
		})
	}
}

func TestBoxAround(t *testing.T) {
	b := boxAround(domain.Coordinates{Lat: 0, Lon: 0}, 111.19492664455873)
	assert.InDelta(t, -1, b.MinLat, 1e-9)
	assert.InDelta(t, 1, b.MaxLat, 1e-9)
	assert.InDelta(t, 1, b.MaxLon, 1e-9)

	wrap := boxAround(domain.Coordinates{Lat: 0, Lon: 179.9}, 50)
	assert.Equal(t, -180.0, wrap.MinLon)
	assert.Equal(t, 180.0, wrap.MaxLon)
}

func TestInitSchema_UnsupportedDialect(t *testing.T) {
	conn, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer conn.Close()
	assert.Error(t, InitSchema(context.Background(), conn, "mysql"))
}
