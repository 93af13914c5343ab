// Package stats computes the descriptive statistics reported for each numeric
// dataset column.
package stats

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/city-weather-report/internal/domain"
)

// FieldStats holds the summary of one numeric column. Values are NaN when the
// column has too few observations.
type FieldStats struct {
	Field  string
	Count  int
	Mean   float64
	Median float64
	StdDev float64 // sample standard deviation, n-1 denominator
}

// Summary holds FieldStats for every column in domain.Fields, in that order.
type Summary struct {
	Count  int
	Fields []FieldStats
}

// Get returns the statistics of the named column.
func (s Summary) Get(field string) (FieldStats, bool) {
	for _, fs := range s.Fields {
		if fs.Field == field {
			return fs, true
		}
	}
	return FieldStats{}, false
}

// Summarize describes every numeric column of records.
func Summarize(records []domain.WeatherRecord) Summary {
	s := Summary{Count: len(records), Fields: make([]FieldStats, 0, len(domain.Fields))}
	for _, f := range domain.Fields {
		s.Fields = append(s.Fields, Describe(f.Name, f.Values(records)))
	}
	return s
}

// Describe computes mean, median, and sample standard deviation of values.
// Mean and median are NaN for no values; the standard deviation is NaN for
// fewer than two.
func Describe(field string, values []float64) FieldStats {
	fs := FieldStats{
		Field:  field,
		Count:  len(values),
		Mean:   math.NaN(),
		Median: math.NaN(),
		StdDev: math.NaN(),
	}
	if len(values) == 0 {
		return fs
	}
	fs.Mean = stat.Mean(values, nil)
	fs.Median = Median(values)
	if len(values) >= 2 {
		fs.StdDev = stat.StdDev(values, nil)
	}
	return fs
}

// Median returns the 50th percentile of values, averaging the two central
// values when the count is even. It does not modify values.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	lo, hi := sorted[n/2-1], sorted[n/2]
	return lo + (hi-lo)/2
}
