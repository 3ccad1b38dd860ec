package routing

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fsanano/food-market/internal/geo"
)

var (
	vendorPoint   = geo.Point{Lat: 48.8566, Lng: 2.3522}
	customerPoint = geo.Point{Lat: 48.8738, Lng: 2.2950}
)

func TestEstimate_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		expectedAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("client_id:api_key"))
		if auth != expectedAuth {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		assert.Equal(t, "48.856600,2.352200", r.URL.Query().Get("from"))
		w.Header().Set("Content-Type", "application/json")

		if r.URL.Query().Get("mode") == ModeDriving {
			json.NewEncoder(w).Encode(RawRoute{Mode: ModeDriving, DistanceMeters: 5400, DurationSeconds: 900})
		} else {
			json.NewEncoder(w).Encode(RawRoute{Mode: ModeCycling, DistanceMeters: 4800, DurationSeconds: 1230})
		}
	}))
	defer ts.Close()

	client := NewClient(Config{APIURL: ts.URL, ClientID: "client_id", APIKey: "api_key"})

	est, err := client.Estimate(context.Background(), vendorPoint, customerPoint)
	require.NoError(t, err)

	assert.Equal(t, SourceAPI, est.Source)
	require.Len(t, est.Modes, 2)
	assert.Equal(t, ModeEstimate{Mode: ModeDriving, DistanceKM: 5.4, DurationMinutes: 15}, est.Modes[0])
	assert.Equal(t, ModeEstimate{Mode: ModeCycling, DistanceKM: 4.8, DurationMinutes: 21}, est.Modes[1])
	require.NotNil(t, est.Fastest)
	assert.Equal(t, ModeDriving, est.Fastest.Mode)
	assert.InDelta(t, 4.56, est.StraightLineKM, 0.1)
}

func TestEstimate_Cache(t *testing.T) {
	var requestCount atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)
		json.NewEncoder(w).Encode(RawRoute{DistanceMeters: 1000, DurationSeconds: 60})
	}))
	defer ts.Close()

	client := NewClient(Config{APIURL: ts.URL})

	_, err := client.Estimate(context.Background(), vendorPoint, customerPoint)
	assert.NoError(t, err)
	assert.Equal(t, int32(2), requestCount.Load())

	_, err = client.Estimate(context.Background(), vendorPoint, customerPoint)
	assert.NoError(t, err)
	assert.Equal(t, int32(2), requestCount.Load(), "Should not increment request count due to caching")
}

func TestEstimate_Brotli(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "br", r.Header.Get("Accept-Encoding"))
		w.Header().Set("Content-Encoding", "br")
		bw := brotli.NewWriter(w)
		json.NewEncoder(bw).Encode(RawRoute{DistanceMeters: 2000, DurationSeconds: 300})
		bw.Close()
	}))
	defer ts.Close()

	client := NewClient(Config{APIURL: ts.URL})

	est, err := client.Estimate(context.Background(), vendorPoint, customerPoint)
	require.NoError(t, err)
	assert.Equal(t, 2.0, est.Modes[0].DistanceKM)
	assert.Equal(t, 5, est.Modes[0].DurationMinutes)
}

func TestEstimate_APIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"errors":[{"id":"server_error","message":"Something went wrong"}]}`))
	}))
	defer ts.Close()

	client := NewClient(Config{APIURL: ts.URL})

	_, err := client.Estimate(context.Background(), vendorPoint, customerPoint)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch")

	var apiErr *ErrorResponse
	assert.ErrorAs(t, err, &apiErr)
}

func TestEstimate_InvalidJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`invalid-json`))
	}))
	defer ts.Close()

	client := NewClient(Config{APIURL: ts.URL})

	_, err := client.Estimate(context.Background(), vendorPoint, customerPoint)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid character")
}

func TestEstimate_StraightLineFallback(t *testing.T) {
	client := NewClient(Config{})

	est, err := client.Estimate(context.Background(), vendorPoint, customerPoint)
	require.NoError(t, err)

	assert.Equal(t, SourceStraightLine, est.Source)
	require.Len(t, est.Modes, 2)
	// 4.6 km at 30 km/h and 15 km/h.
	assert.Equal(t, 10, est.Modes[0].DurationMinutes)
	assert.Equal(t, 19, est.Modes[1].DurationMinutes)
	assert.Equal(t, ModeDriving, est.Fastest.Mode)
}
