// Package plot renders distribution charts of the weather dataset as PNG files.
package plot

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/colornames"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/couchcryptid/city-weather-report/internal/domain"
)

// PairPlotFile is the file name of the pairwise-relationship grid.
const PairPlotFile = "pairplot_weather_data.png"

// HistogramFile returns the file name of a column's histogram.
func HistogramFile(f domain.Field) string {
	return f.Slug + "_distribution.png"
}

// Renderer writes one histogram per numeric column and a pairwise grid into a
// directory.
type Renderer struct {
	dir    string
	logger *slog.Logger
}

// NewRenderer creates a Renderer that writes into dir.
func NewRenderer(dir string, logger *slog.Logger) *Renderer {
	return &Renderer{dir: dir, logger: logger}
}

// Render draws all charts for records and returns the paths written. Records
// holding a NaN or infinite value are left out, and a dataset with nothing
// left to draw is skipped with a warning. A chart that fails does not stop
// the others; the failures are joined into the returned error.
func (r *Renderer) Render(records []domain.WeatherRecord) ([]string, error) {
	records, dropped := finiteRecords(records)
	if dropped > 0 {
		r.logger.Warn("records with non-finite values left out of plots", "count", dropped)
	}
	if len(records) == 0 {
		r.logger.Warn("dataset is empty, skipping plots")
		return nil, nil
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", r.dir, err)
	}

	var (
		written []string
		errs    []error
	)
	for _, f := range domain.Fields {
		path := filepath.Join(r.dir, HistogramFile(f))
		if err := saveHistogram(path, f, f.Values(records)); err != nil {
			errs = append(errs, fmt.Errorf("%s histogram: %w", f.Name, err))
			continue
		}
		r.logger.Debug("plot saved", "path", path)
		written = append(written, path)
	}

	path := filepath.Join(r.dir, PairPlotFile)
	if err := savePairPlot(path, records); err != nil {
		errs = append(errs, fmt.Errorf("pair plot: %w", err))
	} else {
		r.logger.Debug("plot saved", "path", path)
		written = append(written, path)
	}

	return written, errors.Join(errs...)
}

func finiteRecords(records []domain.WeatherRecord) ([]domain.WeatherRecord, int) {
	kept := make([]domain.WeatherRecord, 0, len(records))
	for _, rec := range records {
		if isFinite(rec) {
			kept = append(kept, rec)
		}
	}
	return kept, len(records) - len(kept)
}

func isFinite(rec domain.WeatherRecord) bool {
	for _, f := range domain.Fields {
		if v := f.Value(rec); math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func saveHistogram(path string, f domain.Field, values []float64) error {
	p := plot.New()
	p.Title.Text = f.Name + " Distribution"
	p.X.Label.Text = axisLabel(f)
	p.Y.Label.Text = "Frequency"
	p.Add(plotter.NewGrid())

	h := newHistogram(values, fieldColor(f))
	p.Add(h)

	if curve, ok := density(values, h.Width, 200); ok {
		line, err := plotter.NewLine(curve)
		if err != nil {
			return err
		}
		line.LineStyle.Color = fieldColor(f)
		line.LineStyle.Width = vg.Points(2)
		p.Add(line)
	}

	return p.Save(12*vg.Inch, 6*vg.Inch, path)
}

func newHistogram(values []float64, c color.RGBA) *plotter.Histogram {
	b := bins(values)
	return &plotter.Histogram{
		Bins:      b,
		Width:     b[0].Max - b[0].Min,
		FillColor: color.NRGBA{R: c.R, G: c.G, B: c.B, A: 150},
		LineStyle: plotter.DefaultLineStyle,
	}
}

// savePairPlot draws an n×n grid: histograms on the diagonal and a scatter of
// column j against column i everywhere else.
func savePairPlot(path string, records []domain.WeatherRecord) (err error) {
	n := len(domain.Fields)
	columns := make([][]float64, n)
	for i, f := range domain.Fields {
		columns[i] = f.Values(records)
	}

	plots := make([][]*plot.Plot, n)
	for i := range plots {
		plots[i] = make([]*plot.Plot, n)
		for j := range plots[i] {
			p := plot.New()
			if i == j {
				p.Add(newHistogram(columns[i], colornames.Steelblue))
			} else {
				s, err := plotter.NewScatter(pairXYs(columns[j], columns[i]))
				if err != nil {
					return err
				}
				s.GlyphStyle.Color = colornames.Steelblue
				s.GlyphStyle.Radius = vg.Points(2.5)
				s.GlyphStyle.Shape = draw.CircleGlyph{}
				p.Add(s)
			}
			if i == n-1 {
				p.X.Label.Text = domain.Fields[j].Name
			}
			if j == 0 {
				p.Y.Label.Text = domain.Fields[i].Name
			}
			plots[i][j] = p
		}
	}

	img := vgimg.New(12*vg.Inch, 12*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: n, Cols: n,
		PadX: vg.Millimeter, PadY: vg.Millimeter,
		PadTop: vg.Points(4), PadBottom: vg.Points(4),
		PadLeft: vg.Points(4), PadRight: vg.Points(4),
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		for j := range plots[i] {
			plots[i][j].Draw(canvases[i][j])
		}
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	_, err = vgimg.PngCanvas{Canvas: img}.WriteTo(out)
	return err
}

func pairXYs(xs, ys []float64) plotter.XYs {
	xys := make(plotter.XYs, len(xs))
	for k := range xs {
		xys[k].X = xs[k]
		xys[k].Y = ys[k]
	}
	return xys
}

func axisLabel(f domain.Field) string {
	return fmt.Sprintf("%s (%s)", f.Name, strings.TrimSpace(f.Unit))
}

func fieldColor(f domain.Field) color.RGBA {
	if c, ok := colornames.Map[f.Color]; ok {
		return c
	}
	return colornames.Black
}
