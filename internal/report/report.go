// Package report renders dataset statistics as a plain-text document and as a
// console summary.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/city-weather-report/internal/domain"
	"github.com/couchcryptid/city-weather-report/internal/stats"
)

const (
	// Title is the first line of every report.
	Title = "Weather Data Analysis Report"
	// ConclusionHeading introduces the closing narrative.
	ConclusionHeading = "Conclusion"
	// EndMarker is the last line of every report.
	EndMarker = "End of Report"
)

// Meta is run information printed in the title block.
type Meta struct {
	GeneratedAt time.Time
	Dataset     string
}

// nouns phrase each column inside sentences.
var nouns = map[string]string{
	"Temperature": "temperature",
	"Humidity":    "humidity level",
	"Pressure":    "atmospheric pressure",
	"Wind Speed":  "wind speed",
	"Cloudiness":  "cloudiness",
}

// Render writes the full report for summary to w.
func Render(w io.Writer, summary stats.Summary, meta Meta) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, Title)
	fmt.Fprintln(bw, strings.Repeat("=", len(Title)))
	if !meta.GeneratedAt.IsZero() {
		fmt.Fprintf(bw, "Generated: %s\n", meta.GeneratedAt.UTC().Format(time.RFC3339))
	}
	if meta.Dataset != "" {
		fmt.Fprintf(bw, "Dataset: %s\n", meta.Dataset)
	}
	fmt.Fprintf(bw, "Cities analyzed: %d\n\n", summary.Count)

	for i, fs := range summary.Fields {
		unit := unitOf(fs.Field)
		noun := nouns[fs.Field]
		heading := fmt.Sprintf("%d. %s", i+1, fs.Field)

		fmt.Fprintln(bw, heading)
		fmt.Fprintln(bw, strings.Repeat("-", len(heading)))
		fmt.Fprintf(bw, "- Mean: The average %s across all cities is %.2f%s.\n", noun, fs.Mean, unit)
		fmt.Fprintf(bw, "- Median: The median %s is %.2f%s.\n", noun, fs.Median, unit)
		fmt.Fprintf(bw, "- Standard Deviation: The standard deviation of %s is %.2f%s.\n\n", noun, fs.StdDev, unit)
	}

	fmt.Fprintln(bw, ConclusionHeading)
	fmt.Fprintln(bw, strings.Repeat("-", len(ConclusionHeading)))
	fmt.Fprintln(bw, "The mean, median, and standard deviation of each attribute describe both the typical "+
		"conditions across the sampled cities and how much they vary from place to place.")
	if summary.Count < 2 {
		fmt.Fprintln(bw, "Fewer than two cities were analyzed, so the spread of each attribute is undefined (NaN).")
	}
	fmt.Fprintln(bw, "Histograms of every attribute and a pairwise plot of all attributes accompany this "+
		"report, illustrating their distributions and the relationships between them.")
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, EndMarker)

	return bw.Flush()
}

// WriteFile renders the report to path, replacing any previous report.
func WriteFile(path string, summary stats.Summary, meta Meta) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close report: %w", cerr)
		}
	}()
	return Render(f, summary, meta)
}

// Echo prints the statistics to w in a compact console layout.
func Echo(w io.Writer, summary stats.Summary) error {
	bw := bufio.NewWriter(w)
	for _, fs := range summary.Fields {
		fmt.Fprintf(bw, "\nStatistics for %s:\n", fs.Field)
		fmt.Fprintf(bw, "  Mean: %.2f\n", fs.Mean)
		fmt.Fprintf(bw, "  Median: %.2f\n", fs.Median)
		fmt.Fprintf(bw, "  Standard Deviation: %.2f\n", fs.StdDev)
	}
	return bw.Flush()
}

func unitOf(field string) string {
	if f, ok := domain.FieldByName(field); ok {
		return f.Unit
	}
	return ""
}
