package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all job settings, populated from environment variables and
// optionally overridden by command-line flags.
type Config struct {
	APIKey      string        `env:"OPENWEATHER_API_KEY" validate:"required_unless=DryRun true"`
	BaseURL     string        `env:"OPENWEATHER_BASE_URL" validate:"required,url"`
	HTTPTimeout time.Duration `env:"OPENWEATHER_TIMEOUT"`

	CityFile    string `env:"CITY_FILE" validate:"required"`
	DatasetFile string `env:"DATASET_FILE" validate:"required"`
	ReportFile  string `env:"REPORT_FILE" validate:"required"`
	PlotDir     string `env:"PLOT_DIR" validate:"required"`
	SkipPlots   bool   `env:"SKIP_PLOTS"`
	DryRun      bool   `env:"DRY_RUN"`

	LogLevel  string `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat string `env:"LOG_FORMAT" validate:"oneof=json text"`

	// Optional sinks, disabled when empty.
	MetricsAddr  string   `env:"METRICS_ADDR"`
	MetricsFile  string   `env:"METRICS_FILE"`
	KafkaBrokers []string `env:"KAFKA_BROKERS"`
	KafkaTopic   string   `env:"KAFKA_TOPIC" validate:"required_with=KafkaBrokers"`
	ArchiveDB    string   `env:"ARCHIVE_DB"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is loaded first if present;
// variables already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	timeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("OPENWEATHER_TIMEOUT", "15s"))
	if err != nil || timeout <= 0 {
		return nil, errors.New("invalid OPENWEATHER_TIMEOUT")
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	skipPlots, err := parseBool("SKIP_PLOTS")
	if err != nil {
		return nil, err
	}
	dryRun, err := parseBool("DRY_RUN")
	if err != nil {
		return nil, err
	}

	return &Config{
		APIKey:      os.Getenv("OPENWEATHER_API_KEY"),
		BaseURL:     sharedcfg.EnvOrDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5/weather"),
		HTTPTimeout: timeout,

		CityFile:    sharedcfg.EnvOrDefault("CITY_FILE", "city_names.csv"),
		DatasetFile: sharedcfg.EnvOrDefault("DATASET_FILE", "weather_data.csv"),
		ReportFile:  sharedcfg.EnvOrDefault("REPORT_FILE", "weather_statistics_report.txt"),
		PlotDir:     sharedcfg.EnvOrDefault("PLOT_DIR", "."),
		SkipPlots:   skipPlots,
		DryRun:      dryRun,

		LogLevel:  strings.ToLower(sharedcfg.EnvOrDefault("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(sharedcfg.EnvOrDefault("LOG_FORMAT", "text")),

		MetricsAddr:  os.Getenv("METRICS_ADDR"),
		MetricsFile:  os.Getenv("METRICS_FILE"),
		KafkaBrokers: sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "weather-observations"),
		ArchiveDB:    os.Getenv("ARCHIVE_DB"),

		ShutdownTimeout: shutdownTimeout,
	}, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// Validate checks the final configuration, after flag overrides. It must run
// before any network activity so a missing credential is reported up front.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_unless", "required_with":
		return fe.Field() + " is required"
	case "url":
		return fmt.Sprintf("%s must be a URL, got %q", fe.Field(), fe.Value())
	case "oneof":
		return fmt.Sprintf("invalid %s %q (allowed: %s)", fe.Field(), fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("invalid %s", fe.Field())
	}
}

func parseBool(key string) (bool, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", key, s)
	}
	return b, nil
}
