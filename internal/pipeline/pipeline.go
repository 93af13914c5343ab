// Package pipeline runs the batch job: load cities, fetch, persist, re-read,
// aggregate, report and plot.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/city-weather-report/internal/adapter/csvfile"
	"github.com/couchcryptid/city-weather-report/internal/domain"
	"github.com/couchcryptid/city-weather-report/internal/observability"
	"github.com/couchcryptid/city-weather-report/internal/report"
	"github.com/couchcryptid/city-weather-report/internal/stats"
)

// Publisher delivers a run's freshly fetched records to a message broker.
type Publisher interface {
	Publish(ctx context.Context, runID string, observedAt time.Time, records []domain.WeatherRecord) error
}

// Archiver appends a run's freshly fetched records to long-term storage.
type Archiver interface {
	Archive(ctx context.Context, runID string, observedAt time.Time, records []domain.WeatherRecord) error
}

// Renderer draws charts of the analyzed dataset and returns the files written.
type Renderer interface {
	Render(records []domain.WeatherRecord) ([]string, error)
}

// Files are the input and output paths of a run.
type Files struct {
	Cities  string
	Dataset string
	Report  string
}

// Result summarizes a completed run.
type Result struct {
	RunID          string
	Requested      int
	Fetched        int
	Failures       []domain.FetchFailure
	DatasetWritten bool
	Analyzed       int
	Summary        stats.Summary
	Plots          []string

	// Warnings holds the conditions that were logged without failing the
	// run, such as domain.ErrOutputConflict or domain.ErrEmptyDataset.
	Warnings []error
}

// Warning joins Warnings into a single error for errors.Is checks. It is nil
// when the run had nothing to warn about.
func (r Result) Warning() error {
	return errors.Join(r.Warnings...)
}

// Option configures optional stages of a Pipeline.
type Option func(*Pipeline)

// WithRenderer enables plotting. Without it the plot stage is skipped.
func WithRenderer(r Renderer) Option { return func(p *Pipeline) { p.renderer = r } }

// WithPublisher enables publishing fetched records.
func WithPublisher(pub Publisher) Option { return func(p *Pipeline) { p.publisher = pub } }

// WithArchiver enables archiving fetched records.
func WithArchiver(a Archiver) Option { return func(p *Pipeline) { p.archiver = a } }

// WithConsole sets where the statistics echo is printed. Defaults to stdout.
func WithConsole(w io.Writer) Option { return func(p *Pipeline) { p.console = w } }

// Pipeline orchestrates a single run. Stages execute strictly in sequence.
type Pipeline struct {
	fetcher   Fetcher
	files     Files
	renderer  Renderer
	publisher Publisher
	archiver  Archiver
	console   io.Writer
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Pipeline reading and writing files and fetching through f.
func New(f Fetcher, files Files, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher: f,
		files:   files,
		console: os.Stdout,
		logger:  logger,
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness returns nil once a run has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("run has not completed yet")
	}
	return nil
}

// Run executes one pass of the job. A missing or malformed city list fails
// before any request is made. Per-city fetch failures, an existing dataset
// file, sink failures and plot failures are logged and do not fail the run.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	res := Result{RunID: uuid.NewString()}
	logger := p.logger.With("run_id", res.RunID)
	clock := domain.Clock()
	start := clock.Now()
	p.metrics.LastRunSuccess.Set(0)

	cities, err := csvfile.ReadCities(p.files.Cities)
	if err != nil {
		return res, err
	}
	res.Requested = len(cities)
	logger.Info("cities loaded", "file", p.files.Cities, "count", len(cities))

	outcome := FetchAll(ctx, p.fetcher, cities, p.observer(logger, len(cities)))
	observedAt := clock.Now()
	res.Fetched = len(outcome.Records)
	res.Failures = outcome.Failures
	logger.Info("fetch complete",
		"fetched", res.Fetched,
		"failed", len(res.Failures),
		"duration", clock.Since(start),
	)

	res.Warnings = append(res.Warnings, p.deliver(ctx, logger, res.RunID, observedAt, outcome.Records)...)

	switch err := csvfile.WriteDataset(p.files.Dataset, outcome.Records); {
	case errors.Is(err, domain.ErrOutputConflict):
		p.metrics.DatasetConflicts.Inc()
		res.Warnings = append(res.Warnings, err)
		logger.Warn("dataset file already exists, skipping write; analyzing existing file",
			"file", p.files.Dataset)
	case err != nil:
		return res, fmt.Errorf("write dataset: %w", err)
	default:
		res.DatasetWritten = true
		logger.Info("dataset written", "file", p.files.Dataset, "rows", len(outcome.Records))
	}

	records, err := csvfile.ReadDataset(p.files.Dataset)
	if err != nil {
		return res, fmt.Errorf("read dataset: %w", err)
	}
	res.Analyzed = len(records)
	p.metrics.DatasetRecords.Set(float64(len(records)))
	if len(records) == 0 {
		empty := fmt.Errorf("%w: %s", domain.ErrEmptyDataset, p.files.Dataset)
		res.Warnings = append(res.Warnings, empty)
		logger.Warn("no records to analyze, statistics will be NaN", "error", empty)
	}

	res.Summary = stats.Summarize(records)
	if err := report.Echo(p.console, res.Summary); err != nil {
		logger.Warn("print statistics failed", "error", err)
	}

	meta := report.Meta{GeneratedAt: clock.Now(), Dataset: p.files.Dataset}
	if err := report.WriteFile(p.files.Report, res.Summary, meta); err != nil {
		return res, fmt.Errorf("write report: %w", err)
	}
	logger.Info("report written", "file", p.files.Report)

	if p.renderer != nil {
		plots, err := p.renderer.Render(records)
		res.Plots = plots
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Errorf("render plots: %w", err))
			logger.Warn("plot rendering failed", "error", err)
		} else if len(plots) > 0 {
			logger.Info("plots written", "count", len(plots))
		}
	}

	p.metrics.LastRunSuccess.Set(1)
	p.ready.Store(true)
	logger.Info("run complete", "duration", clock.Since(start))
	return res, nil
}

func (p *Pipeline) observer(logger *slog.Logger, total int) Observer {
	return func(i int, city string, rec domain.WeatherRecord, err error) {
		p.metrics.CitiesRequested.Inc()
		progress := fmt.Sprintf("%d/%d", i+1, total)
		if err != nil {
			reason := reasonOf(err)
			p.metrics.FetchErrors.WithLabelValues(reason).Inc()
			logger.Warn("fetch failed, skipping city",
				"city", city,
				"progress", progress,
				"reason", reason,
				"error", err,
			)
			return
		}
		p.metrics.RecordsFetched.Inc()
		logger.Info("weather fetched",
			"city", city,
			"progress", progress,
			"temperature", rec.Temperature,
			"weather", rec.Weather,
		)
	}
}

// deliver hands fresh records to the optional sinks. Failures are counted,
// logged and returned as warnings.
func (p *Pipeline) deliver(ctx context.Context, logger *slog.Logger, runID string, at time.Time, records []domain.WeatherRecord) []error {
	if len(records) == 0 {
		return nil
	}
	var warnings []error
	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, runID, at, records); err != nil {
			p.metrics.PublishErrors.WithLabelValues("kafka").Inc()
			logger.Warn("publish records failed", "error", err)
			warnings = append(warnings, fmt.Errorf("publish records: %w", err))
		}
	}
	if p.archiver != nil {
		if err := p.archiver.Archive(ctx, runID, at, records); err != nil {
			p.metrics.PublishErrors.WithLabelValues("archive").Inc()
			logger.Warn("archive records failed", "error", err)
			warnings = append(warnings, fmt.Errorf("archive records: %w", err))
		}
	}
	return warnings
}

func reasonOf(err error) string {
	var fe *domain.FetchError
	if errors.As(err, &fe) {
		return fe.Reason
	}
	return domain.ReasonRequest
}
