package pipeline

import (
	"context"

	"github.com/couchcryptid/city-weather-report/internal/domain"
)

// Fetcher retrieves the current weather for one city.
type Fetcher interface {
	Fetch(ctx context.Context, city string) (domain.WeatherRecord, error)
}

// FetchOutcome is the result of folding Fetch over a city list. Records keep
// the input order; every city lands in exactly one of the two slices.
type FetchOutcome struct {
	Records  []domain.WeatherRecord
	Failures []domain.FetchFailure
}

// Observer is called after each city with its position in the list and the
// outcome of the fetch. err is nil on success.
type Observer func(i int, city string, rec domain.WeatherRecord, err error)

// FetchAll fetches cities one at a time, in order. A failed city is recorded
// and skipped; it never stops the fold.
func FetchAll(ctx context.Context, f Fetcher, cities []string, observe Observer) FetchOutcome {
	out := FetchOutcome{Records: make([]domain.WeatherRecord, 0, len(cities))}
	for i, city := range cities {
		rec, err := f.Fetch(ctx, city)
		if observe != nil {
			observe(i, city, rec, err)
		}
		if err != nil {
			out.Failures = append(out.Failures, domain.FetchFailure{City: city, Err: err})
			continue
		}
		out.Records = append(out.Records, rec)
	}
	return out
}
