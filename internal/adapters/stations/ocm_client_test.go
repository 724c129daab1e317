package stations

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ev-route-service/internal/domain"
)

const ocmFixture = `[
  {"ID": 3, "StatusTypeID": 50,
   "AddressInfo": {"Title": "Electrify America - Kennewick", "Latitude": 46.21, "Longitude": -119.14},
   "Connections": [{"ConnectionTypeID": 33, "PowerKW": 150}, {"ConnectionTypeID": 2, "PowerKW": 50}]},
  {"ID": 1, "StatusTypeID": 100,
   "AddressInfo": {"Title": "Broken charger", "Latitude": 46.22, "Longitude": -119.15},
   "Connections": [{"ConnectionTypeID": 33, "PowerKW": 50}]},
  {"ID": 2,
   "AddressInfo": {"Title": "", "Latitude": 46.20, "Longitude": -119.13},
   "Connections": [{"ConnectionTypeID": 27, "PowerKW": 250}, {"ConnectionTypeID": 999, "PowerKW": null}]},
  {"ID": 4, "StatusTypeID": 50,
   "AddressInfo": {"Title": "Unknown power", "Latitude": 46.21, "Longitude": -119.14},
   "Connections": [{"ConnectionTypeID": 1, "PowerKW": null}]},
  {"ID": 5, "StatusTypeID": 50,
   "AddressInfo": {"Title": "Far away", "Latitude": 47.60, "Longitude": -122.33},
   "Connections": [{"ConnectionTypeID": 33, "PowerKW": 350}]}
]`

func TestOCMStationsNear(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/poi", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "KM", q.Get("distanceunit"))
		assert.Equal(t, "true", q.Get("compact"))
		assert.Equal(t, "25", q.Get("maxresults"))
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		_, _ = w.Write([]byte(ocmFixture))
	}))
	defer srv.Close()

	d := NewOCMDirectory(OCMOptions{APIKey: "secret", BaseURL: srv.URL, MaxResults: 25})
	origin := domain.Coordinates{Lat: 46.21, Lon: -119.14}

	got, err := d.StationsNear(context.Background(), origin, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "OCM-3", got[0].ID)
	assert.Equal(t, 150.0, got[0].MaxKw)
	assert.Equal(t, []string{"CCS2", "CHAdeMO"}, got[0].Connectors)
	assert.True(t, got[0].Operational)

	byID := domain.NewStationIndex(got)
	broken, ok := byID.Lookup("OCM-1")
	require.True(t, ok)
	assert.False(t, broken.Operational)

	tesla, ok := byID.Lookup("OCM-2")
	require.True(t, ok)
	assert.Equal(t, "OCM station 2", tesla.Name)
	assert.Equal(t, []string{"Other", "Tesla"}, tesla.Connectors)
	assert.True(t, tesla.Operational)

	_, ok = byID.Lookup("OCM-4")
	assert.False(t, ok)
	_, ok = byID.Lookup("OCM-5")
	assert.False(t, ok)
}

func TestOCMStationsNear_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d := NewOCMDirectory(OCMOptions{BaseURL: srv.URL, RetryBackoff: time.Millisecond})
	_, err := d.StationsNear(context.Background(), domain.Coordinates{Lat: 1, Lon: 1}, 5)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestOCMStationsNear_InvalidArgs(t *testing.T) {
	d := NewOCMDirectory(OCMOptions{})
	_, err := d.StationsNear(context.Background(), domain.Coordinates{Lat: 95, Lon: 0}, 5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = d.StationsNear(context.Background(), domain.Coordinates{Lat: 1, Lon: 1}, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
