package integration_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/city-weather-report/internal/domain"
	"github.com/couchcryptid/city-weather-report/internal/pipeline"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeOWM serves current-weather payloads for known cities and 404 for the rest.
type fakeOWM struct {
	mu       sync.Mutex
	weather  map[string]domain.WeatherRecord
	requests []string
}

func newFakeOWM(t *testing.T, records ...domain.WeatherRecord) (*fakeOWM, *httptest.Server) {
	t.Helper()
	f := &fakeOWM{weather: make(map[string]domain.WeatherRecord, len(records))}
	for _, r := range records {
		f.weather[r.City] = r
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeOWM) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	city := q.Get("q")

	f.mu.Lock()
	f.requests = append(f.requests, city)
	rec, ok := f.weather[city]
	f.mu.Unlock()

	if q.Get("appid") != "integration-key" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"name":    rec.City,
		"main":    map[string]any{"temp": rec.Temperature, "feels_like": rec.Temperature - 1, "humidity": rec.Humidity, "pressure": rec.Pressure},
		"weather": []map[string]any{{"id": 800, "main": "Clear", "description": rec.Weather}},
		"wind":    map[string]any{"speed": rec.WindSpeed, "deg": 200},
		"clouds":  map[string]any{"all": rec.Cloudiness},
	})
}

func (f *fakeOWM) requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func workspace(t *testing.T, cities string) (pipeline.Files, string) {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "city_names.csv")
	require.NoError(t, os.WriteFile(in, []byte(cities), 0o644))
	return pipeline.Files{
		Cities:  in,
		Dataset: filepath.Join(dir, "weather_data.csv"),
		Report:  filepath.Join(dir, "weather_statistics_report.txt"),
	}, filepath.Join(dir, "plots")
}
