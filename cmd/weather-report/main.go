// Command weather-report fetches current weather for a list of cities, writes
// the dataset CSV, and produces a statistics report and distribution plots.
//
// Usage:
//
//	OPENWEATHER_API_KEY=... go run ./cmd/weather-report \
//	  -input city_names.csv \
//	  -output weather_data.csv \
//	  -report weather_statistics_report.txt \
//	  -plot-dir plots
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/couchcryptid/city-weather-report/internal/adapter/csvfile"
	httpadapter "github.com/couchcryptid/city-weather-report/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/city-weather-report/internal/adapter/kafka"
	"github.com/couchcryptid/city-weather-report/internal/adapter/openweather"
	"github.com/couchcryptid/city-weather-report/internal/adapter/sqlite"
	"github.com/couchcryptid/city-weather-report/internal/config"
	"github.com/couchcryptid/city-weather-report/internal/observability"
	"github.com/couchcryptid/city-weather-report/internal/pipeline"
	"github.com/couchcryptid/city-weather-report/internal/plot"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, observability.NewMetrics()))
}

func run(args []string, stdout io.Writer, metrics *observability.Metrics) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	if err := parseFlags(cfg, args); err != nil {
		return 1
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)

	if cfg.DryRun {
		return dryRun(cfg, stdout, logger)
	}

	client := openweather.NewClient(cfg.APIKey, cfg.BaseURL, cfg.HTTPTimeout, metrics, logger)
	opts := []pipeline.Option{pipeline.WithConsole(stdout)}

	if !cfg.SkipPlots {
		opts = append(opts, pipeline.WithRenderer(plot.NewRenderer(cfg.PlotDir, logger)))
	} else {
		logger.Info("plot rendering disabled")
	}

	if len(cfg.KafkaBrokers) > 0 {
		pub := kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer func() {
			if err := pub.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}()
		opts = append(opts, pipeline.WithPublisher(pub))
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic)
	}

	if cfg.ArchiveDB != "" {
		archive, err := sqlite.Open(cfg.ArchiveDB)
		if err != nil {
			logger.Warn("archive unavailable, continuing without it", "path", cfg.ArchiveDB, "error", err)
		} else {
			defer func() {
				if err := archive.Close(); err != nil {
					logger.Error("archive close error", "error", err)
				}
			}()
			opts = append(opts, pipeline.WithArchiver(archive))
			logger.Info("run archive enabled", "path", cfg.ArchiveDB)
		}
	}

	files := pipeline.Files{Cities: cfg.CityFile, Dataset: cfg.DatasetFile, Report: cfg.ReportFile}
	p := pipeline.New(client, files, logger, metrics, opts...)

	if cfg.MetricsAddr != "" {
		srv := httpadapter.NewServer(cfg.MetricsAddr, p, metrics.Gatherer(), logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	// The fetch loop is not interruptible; the context only carries request timeouts.
	res, err := p.Run(context.Background())

	if cfg.MetricsFile != "" {
		if werr := metrics.WriteTextfile(cfg.MetricsFile); werr != nil {
			logger.Error("write metrics file failed", "path", cfg.MetricsFile, "error", werr)
		}
	}

	if err != nil {
		logger.Error("run failed", "error", err)
		return 1
	}
	logger.Info("weather report complete",
		"run_id", res.RunID,
		"requested", res.Requested,
		"fetched", res.Fetched,
		"failed", len(res.Failures),
		"analyzed", res.Analyzed,
		"report", cfg.ReportFile,
		"plots", len(res.Plots),
		"warnings", len(res.Warnings),
	)
	return 0
}

// parseFlags overrides environment settings with any flags given.
func parseFlags(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("weather-report", flag.ContinueOnError)
	fs.StringVar(&cfg.CityFile, "input", cfg.CityFile, "CSV file with a City column")
	fs.StringVar(&cfg.DatasetFile, "output", cfg.DatasetFile, "dataset CSV to create (left untouched if it exists)")
	fs.StringVar(&cfg.ReportFile, "report", cfg.ReportFile, "statistics report file")
	fs.StringVar(&cfg.PlotDir, "plot-dir", cfg.PlotDir, "directory for PNG plots")
	fs.StringVar(&cfg.APIKey, "api-key", cfg.APIKey, "OpenWeatherMap API key (overrides OPENWEATHER_API_KEY)")
	fs.BoolVar(&cfg.SkipPlots, "skip-plots", cfg.SkipPlots, "do not render plots")
	fs.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "list the cities that would be fetched and exit")
	return fs.Parse(args)
}

func dryRun(cfg *config.Config, stdout io.Writer, logger *slog.Logger) int {
	cities, err := csvfile.ReadCities(cfg.CityFile)
	if err != nil {
		logger.Error("failed to load cities", "error", err)
		return 1
	}
	fmt.Fprintf(stdout, "Dry run: %d cities from %s would be fetched\n", len(cities), cfg.CityFile)
	for i, c := range cities {
		fmt.Fprintf(stdout, "  %3d. %s\n", i+1, c)
	}
	fmt.Fprintf(stdout, "Dataset: %s\nReport: %s\n", cfg.DatasetFile, cfg.ReportFile)
	if !cfg.SkipPlots {
		fmt.Fprintf(stdout, "Plots: %s\n", cfg.PlotDir)
	}
	return 0
}
