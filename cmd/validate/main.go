// Command validate performs offline integrity checks on the outputs of a
// weather-report run: the dataset CSV, the statistics report, and optionally
// the city list the dataset was built from. It verifies column order, value
// ranges, report structure, and that the report's figures match the dataset.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -dataset weather_data.csv \
//	  -report weather_statistics_report.txt \
//	  -cities city_names.csv
package main

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/couchcryptid/city-weather-report/internal/adapter/csvfile"
	"github.com/couchcryptid/city-weather-report/internal/domain"
	"github.com/couchcryptid/city-weather-report/internal/report"
	"github.com/couchcryptid/city-weather-report/internal/stats"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	datasetPath := flag.String("dataset", "weather_data.csv", "dataset CSV written by weather-report")
	reportPath := flag.String("report", "weather_statistics_report.txt", "statistics report written by weather-report")
	citiesPath := flag.String("cities", "", "optional city list the dataset was built from")
	flag.Parse()

	if code := run(os.Stdout, *datasetPath, *reportPath, *citiesPath); code != 0 {
		os.Exit(code)
	}
}

func run(out io.Writer, datasetPath, reportPath, citiesPath string) int {
	fmt.Fprintln(out, "=== Weather Report Integrity Validation ===")
	fmt.Fprintln(out)

	header, err := readHeader(datasetPath)
	if err != nil {
		fmt.Fprintf(out, "FATAL: load dataset: %v\n", err)
		return 1
	}
	reportBody, err := os.ReadFile(reportPath)
	if err != nil {
		fmt.Fprintf(out, "FATAL: load report: %v\n", err)
		return 1
	}
	var cities []string
	if citiesPath != "" {
		if cities, err = csvfile.ReadCities(citiesPath); err != nil {
			fmt.Fprintf(out, "FATAL: load cities: %v\n", err)
			return 1
		}
	}

	records, readErr := csvfile.ReadDataset(datasetPath)

	phases := []*phase{
		validateHeader(header),
		validateRows(records, readErr),
		validateReportStructure(reportBody),
		validateReportFigures(reportBody, records, readErr),
	}
	if citiesPath != "" {
		phases = append(phases, validateProvenance(records, cities))
	}

	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Records: %d dataset rows", len(records))
	if citiesPath != "" {
		fmt.Fprintf(out, ", %d input cities", len(cities))
	}
	fmt.Fprintln(out)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// ── Data loading ──

// readHeader returns the first row of the dataset, or nil for a zero-byte file.
func readHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if err == io.EOF {
		return nil, nil
	}
	return header, err
}

// ── Phase 1: Dataset header ──

func validateHeader(header []string) *phase {
	p := &phase{name: "Phase 1: Dataset Header"}
	if header == nil {
		p.errorf("dataset is empty (no header row)")
		return p
	}
	if !slices.Equal(header, domain.Columns) {
		p.errorf("header is %q, want %q", header, domain.Columns)
	}
	return p
}

// ── Phase 2: Dataset rows ──
// Every row parses with integral integer columns and plausible ranges.

func validateRows(records []domain.WeatherRecord, readErr error) *phase {
	p := &phase{name: "Phase 2: Dataset Rows"}
	if readErr != nil {
		p.errorf("%v", readErr)
		return p
	}
	for i, r := range records {
		line := i + 2
		if r.City == "" {
			p.errorf("line %d: empty City", line)
		}
		if r.Weather == "" {
			p.errorf("line %d (%s): empty Weather", line, r.City)
		}
		checkPercent(p, line, r.City, "Humidity", r.Humidity)
		checkPercent(p, line, r.City, "Cloudiness", r.Cloudiness)
		if r.Pressure <= 0 {
			p.errorf("line %d (%s): Pressure %d is not positive", line, r.City, r.Pressure)
		}
		if r.WindSpeed < 0 {
			p.errorf("line %d (%s): Wind Speed %g is negative", line, r.City, r.WindSpeed)
		}
		if r.Temperature < -100 || r.Temperature > 70 {
			p.errorf("line %d (%s): Temperature %g°C is out of range", line, r.City, r.Temperature)
		}
	}
	return p
}

func checkPercent(p *phase, line int, city, col string, v int) {
	if v < 0 || v > 100 {
		p.errorf("line %d (%s): %s %d is outside 0-100", line, city, col, v)
	}
}

// ── Phase 3: Report structure ──

func validateReportStructure(body []byte) *phase {
	p := &phase{name: "Phase 3: Report Structure"}
	if err := report.Verify(bytes.NewReader(body)); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			p.errorf("%s", line)
		}
	}
	return p
}

// ── Phase 4: Report figures ──
// The statistic lines of the report match figures recomputed from the dataset.
// A mismatch usually means the report predates the dataset on disk.

func validateReportFigures(body []byte, records []domain.WeatherRecord, readErr error) *phase {
	p := &phase{name: "Phase 4: Report Figures (vs dataset)"}
	if readErr != nil {
		p.errorf("dataset unreadable, figures not checked")
		return p
	}

	var want bytes.Buffer
	if err := report.Render(&want, stats.Summarize(records), report.Meta{}); err != nil {
		p.errorf("render expected report: %v", err)
		return p
	}

	wantLines := statisticLines(want.Bytes())
	gotLines := statisticLines(body)
	if len(gotLines) != len(wantLines) {
		p.errorf("report has %d statistic lines, want %d", len(gotLines), len(wantLines))
		return p
	}
	for i := range wantLines {
		if gotLines[i] != wantLines[i] {
			p.errorf("got %q, want %q", gotLines[i], wantLines[i])
		}
	}
	if !bytes.Contains(body, []byte(fmt.Sprintf("Cities analyzed: %d\n", len(records)))) {
		p.errorf("report does not state %d cities analyzed", len(records))
	}
	return p
}

func statisticLines(body []byte) []string {
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(body))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); strings.HasPrefix(line, "- ") {
			out = append(out, line)
		}
	}
	return out
}

// ── Phase 5: Provenance ──
// Dataset cities appear in the input list, in input order.

func validateProvenance(records []domain.WeatherRecord, cities []string) *phase {
	p := &phase{name: "Phase 5: Provenance (dataset vs city list)"}
	next := 0
	for i, r := range records {
		j := slices.Index(cities[next:], r.City)
		if j < 0 {
			if slices.Contains(cities, r.City) {
				p.errorf("line %d: %q is out of input order", i+2, r.City)
			} else {
				p.errorf("line %d: %q is not in the city list", i+2, r.City)
			}
			continue
		}
		next += j + 1
	}
	if len(records) > len(cities) {
		p.errorf("dataset has %d rows but only %d cities were requested", len(records), len(cities))
	}
	return p
}
