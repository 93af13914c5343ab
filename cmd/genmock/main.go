// Command genmock generates deterministic mock OpenWeatherMap data so the
// weather report can be exercised without an API key. It can write a sample
// city list and serve current-weather responses for those cities.
//
// Usage:
//
//	go run ./cmd/genmock -cities-out city_names.csv -serve 127.0.0.1:8089
//	OPENWEATHER_BASE_URL=http://127.0.0.1:8089/weather OPENWEATHER_API_KEY=mock \
//	  go run ./cmd/weather-report
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/city-weather-report/internal/domain"
)

var sampleCities = []string{
	"London", "Paris", "Tokyo", "New York", "Sydney", "Cairo", "São Paulo",
	"Moscow", "Mumbai", "Toronto", "Reykjavik", "Nairobi", "Lima", "Oslo",
	"Singapore", "Cape Town", "Mexico City", "Anchorage", "Dubai", "Auckland",
}

var descriptions = []string{
	"clear sky", "few clouds", "scattered clouds", "broken clouds",
	"overcast clouds", "light rain", "moderate rain", "mist", "snow",
}

// unknownCity is always answered with 404 so failure handling can be exercised.
const unknownCity = "Atlantis"

func main() {
	citiesOut := flag.String("cities-out", "", "write a sample city list CSV to this path")
	count := flag.Int("count", len(sampleCities), "number of sample cities to write")
	includeUnknown := flag.Bool("include-unknown", true, "append a city the mock API does not know")
	addr := flag.String("serve", "", "serve mock current-weather responses on this address")
	flag.Parse()

	if *citiesOut == "" && *addr == "" {
		flag.Usage()
		os.Exit(1)
	}
	if err := run(*citiesOut, *count, *includeUnknown, *addr); err != nil {
		slog.Error("genmock failed", "error", err)
		os.Exit(1)
	}
}

func run(citiesOut string, count int, includeUnknown bool, addr string) error {
	if citiesOut != "" {
		cities := sampleCities[:min(max(count, 0), len(sampleCities))]
		if includeUnknown {
			cities = append(slices.Clone(cities), unknownCity)
		}
		if err := writeCities(citiesOut, cities); err != nil {
			return err
		}
		fmt.Printf("Wrote %d cities to %s\n", len(cities), citiesOut)
	}
	if addr == "" {
		return nil
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           newHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("mock openweathermap serving", "addr", addr, "path", "/weather")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeCities(path string, cities []string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"City"}); err != nil {
		return err
	}
	for _, c := range cities {
		if err := w.Write([]string{c}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// mockRecord derives stable, plausible weather for a city from its name.
func mockRecord(city string) domain.WeatherRecord {
	h := fnv.New64a()
	_, _ = h.Write([]byte(city))
	seed := h.Sum64()

	pick := func(shift uint, lo, hi float64) float64 {
		frac := float64((seed>>shift)&0xffff) / 0xffff
		return lo + frac*(hi-lo)
	}
	return domain.WeatherRecord{
		City:        city,
		Temperature: math.Round(pick(0, -15, 38)*100) / 100,
		Humidity:    int(pick(8, 10, 100)),
		Pressure:    int(pick(16, 980, 1040)),
		Weather:     descriptions[seed%uint64(len(descriptions))],
		WindSpeed:   math.Round(pick(24, 0, 14)*100) / 100,
		Cloudiness:  int(pick(32, 0, 100)),
	}
}

func newHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /weather", handleWeather)
	return mux
}

func handleWeather(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("appid") == "" {
		sharedobs.WriteJSON(w, http.StatusUnauthorized, map[string]any{"cod": 401, "message": "Invalid API key"})
		return
	}
	city := q.Get("q")
	if city == "" || city == unknownCity {
		sharedobs.WriteJSON(w, http.StatusNotFound, map[string]any{"cod": "404", "message": "city not found"})
		return
	}

	rec := mockRecord(city)
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{
		"name":    rec.City,
		"main":    map[string]any{"temp": rec.Temperature, "humidity": rec.Humidity, "pressure": rec.Pressure},
		"weather": []map[string]any{{"description": rec.Weather}},
		"wind":    map[string]any{"speed": rec.WindSpeed},
		"clouds":  map[string]any{"all": rec.Cloudiness},
		"cod":     200,
	})
}
