// Package csvfile reads the city list and writes and re-reads the weather
// dataset as CSV.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"

	"github.com/couchcryptid/city-weather-report/internal/domain"
)

// CityColumn is the header of the input column holding city names.
const CityColumn = "City"

// ReadCities returns the City column of the CSV at path, one entry per data
// row, in file order. Duplicates are kept.
func ReadCities(path string) ([]string, error) {
	f, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s: no header row", domain.ErrMalformedInput, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrMalformedInput, path, err)
	}

	col := slices.Index(header, CityColumn)
	if col < 0 {
		return nil, fmt.Errorf("%w: %s: missing %q column", domain.ErrMalformedInput, path, CityColumn)
	}

	cities := []string{}
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrMalformedInput, path, err)
		}
		if col >= len(row) {
			line, _ := r.FieldPos(0)
			return nil, fmt.Errorf("%w: %s: line %d has no %q value", domain.ErrMalformedInput, path, line, CityColumn)
		}
		cities = append(cities, row[col])
	}
	return cities, nil
}

func openInput(path string) (*os.File, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrInputNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
