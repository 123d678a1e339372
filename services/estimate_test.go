package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/meinhoongagan/trucktrack/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pune   = &LatLng{Lat: 18.5204, Lng: 73.8567}
	mumbai = &LatLng{Lat: 19.076, Lng: 72.8777}
)

func TestEstimator_Estimate(t *testing.T) {
	routes := &fakeRoutes{route: &Route{DurationSeconds: 3600, DurationText: "1 hour", DistanceMeters: 10000}}
	est := NewEstimator(routes, 45, time.UTC)

	got, err := est.Estimate(context.Background(), pune, mumbai, "2024-06-10")
	require.NoError(t, err)

	assert.True(t, got.Available)
	assert.Equal(t, 10.0, got.DistanceKm)
	assert.Equal(t, 450.0, got.Price)
	assert.Equal(t, "2024-06-10 10:00", got.ArrivalTime)
	assert.Equal(t, "1 hour", got.TravelTime)
}

func TestEstimator_Rounding(t *testing.T) {
	routes := &fakeRoutes{route: &Route{DurationSeconds: 5400, DistanceMeters: 12345}}
	est := NewEstimator(routes, 45, time.UTC)

	got, err := est.Estimate(context.Background(), pune, mumbai, "2024-06-10")
	require.NoError(t, err)

	assert.Equal(t, 12.35, got.DistanceKm)
	assert.Equal(t, 555.75, got.Price)
	assert.Equal(t, "2024-06-10 10:30", got.ArrivalTime)
	assert.Equal(t, "1h30m0s", got.TravelTime)
}

func TestEstimator_Unavailable(t *testing.T) {
	ok := &fakeRoutes{route: &Route{DurationSeconds: 60, DistanceMeters: 100}}

	tests := []struct {
		name        string
		est         *Estimator
		origin      *LatLng
		destination *LatLng
		date        string
		want        error
	}{
		{"missing origin", NewEstimator(ok, 45, nil), nil, mumbai, "2024-06-10", common.ErrRouteUnavailable},
		{"missing destination", NewEstimator(ok, 45, nil), pune, nil, "2024-06-10", common.ErrRouteUnavailable},
		{"missing date", NewEstimator(ok, 45, nil), pune, mumbai, "", common.ErrRouteUnavailable},
		{"no provider", NewEstimator(nil, 45, nil), pune, mumbai, "2024-06-10", common.ErrRouteUnavailable},
		{"bad date", NewEstimator(ok, 45, nil), pune, mumbai, "10/06/2024", common.ErrValidation},
		{"provider failure", NewEstimator(&fakeRoutes{err: common.ErrRouteUnavailable}, 45, nil), pune, mumbai, "2024-06-10", common.ErrRouteUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.est.Estimate(context.Background(), tt.origin, tt.destination, tt.date)
			assert.ErrorIs(t, err, tt.want)
			assert.False(t, got.Available)
		})
	}
}

func TestEstimate_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Estimate{})
	require.NoError(t, err)
	var na map[string]any
	require.NoError(t, json.Unmarshal(data, &na))
	assert.Equal(t, false, na["available"])
	for _, k := range []string{"travelTime", "arrivalTime", "distance", "price"} {
		assert.Equal(t, NotAvailable, na[k], k)
	}

	data, err = json.Marshal(Estimate{Available: true, TravelTime: "1 hour", ArrivalTime: "2024-06-10 10:00", DistanceKm: 10, Price: 450})
	require.NoError(t, err)
	var ok map[string]any
	require.NoError(t, json.Unmarshal(data, &ok))
	assert.Equal(t, 450.0, ok["price"])
	assert.Equal(t, 10.0, ok["distance"])
}

func directionsStub(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "driving", r.URL.Query().Get("mode"))
		assert.Equal(t, "18.5204,73.8567", r.URL.Query().Get("origin"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGoogleDirections_Route(t *testing.T) {
	srv := directionsStub(t, http.StatusOK, `{
		"status": "OK",
		"routes": [{"legs": [{"duration": {"value": 3600, "text": "1 hour"}, "distance": {"value": 10000, "text": "10 km"}}]}]
	}`)

	g := NewGoogleDirections("test-key").WithBaseURL(srv.URL)
	route, err := g.Route(context.Background(), *pune, *mumbai)
	require.NoError(t, err)
	assert.Equal(t, int64(3600), route.DurationSeconds)
	assert.Equal(t, "1 hour", route.DurationText)
	assert.Equal(t, int64(10000), route.DistanceMeters)
}

func TestGoogleDirections_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"zero results", http.StatusOK, `{"status": "ZERO_RESULTS", "routes": []}`},
		{"denied", http.StatusOK, `{"status": "REQUEST_DENIED", "error_message": "bad key"}`},
		{"no legs", http.StatusOK, `{"status": "OK", "routes": [{"legs": []}]}`},
		{"server error", http.StatusInternalServerError, `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := directionsStub(t, tt.status, tt.body)
			_, err := NewGoogleDirections("test-key").WithBaseURL(srv.URL).Route(context.Background(), *pune, *mumbai)
			assert.ErrorIs(t, err, common.ErrRouteUnavailable)
		})
	}
}
