package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/city-weather-report/internal/domain"
)

// WriteDataset writes records to a new CSV file at path with the header
// domain.Columns. An existing file is never touched: the call returns
// domain.ErrOutputConflict and the caller is expected to carry on with
// whatever the file already holds.
func WriteDataset(path string, records []domain.WeatherRecord) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	// O_EXCL closes the window between an existence check and the create.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %s", domain.ErrOutputConflict, path)
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(domain.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		if err := w.Write(formatRecord(r)); err != nil {
			return fmt.Errorf("write %s: %w", r.City, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

func formatRecord(r domain.WeatherRecord) []string {
	return []string{
		r.City,
		strconv.FormatFloat(r.Temperature, 'f', -1, 64),
		strconv.Itoa(r.Humidity),
		strconv.Itoa(r.Pressure),
		r.Weather,
		strconv.FormatFloat(r.WindSpeed, 'f', -1, 64),
		strconv.Itoa(r.Cloudiness),
	}
}

// ReadDataset loads the dataset CSV at path. Columns are located by header
// name. A zero-byte file or a header-only file yields an empty dataset.
func ReadDataset(path string) ([]domain.WeatherRecord, error) {
	f, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []domain.WeatherRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrMalformedInput, path, err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, name := range domain.Columns {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("%w: %s: missing %q column", domain.ErrMalformedInput, path, name)
		}
	}

	records := []domain.WeatherRecord{}
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrMalformedInput, path, err)
		}
		line, _ := r.FieldPos(0)
		p := rowParser{row: row, idx: idx}
		rec := domain.WeatherRecord{
			City:        p.str("City"),
			Temperature: p.float("Temperature"),
			Humidity:    p.int("Humidity"),
			Pressure:    p.int("Pressure"),
			Weather:     p.str("Weather"),
			WindSpeed:   p.float("Wind Speed"),
			Cloudiness:  p.int("Cloudiness"),
		}
		if p.err != nil {
			return nil, fmt.Errorf("%w: %s: line %d: %v", domain.ErrMalformedInput, path, line, p.err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// rowParser converts cells of one row, keeping the first error.
type rowParser struct {
	row []string
	idx map[string]int
	err error
}

func (p *rowParser) str(col string) string {
	return p.row[p.idx[col]]
}

func (p *rowParser) float(col string) float64 {
	raw := p.str(col)
	v, err := strconv.ParseFloat(raw, 64)
	if p.err != nil {
		return v
	}
	switch {
	case err != nil:
		p.err = fmt.Errorf("column %q: %w", col, err)
	case math.IsNaN(v) || math.IsInf(v, 0):
		p.err = fmt.Errorf("column %q: %q is not a finite number", col, raw)
	}
	return v
}

// int accepts "76" and also "76.0", which other CSV writers emit for whole
// numbers.
func (p *rowParser) int(col string) int {
	s := p.str(col)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v != math.Trunc(v) || math.IsInf(v, 0) {
		if p.err == nil {
			p.err = fmt.Errorf("column %q: %q is not a whole number", col, s)
		}
		return 0
	}
	return int(v)
}
