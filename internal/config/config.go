package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/TC94615/binance-data-downloader/internal/catalog"
	"github.com/TC94615/binance-data-downloader/internal/task"
)

const dateLayout = "2006-01-02"

// Config holds all configuration for one downloader run.
type Config struct {
	// Selectors
	Markets     []string `mapstructure:"markets" validate:"min=1,dive,oneof=spot futures-um futures-cm option"`
	DataTypes   []string `mapstructure:"data-types" validate:"min=1"`
	Symbols     []string `mapstructure:"symbols"`
	Frequencies []string `mapstructure:"frequencies" validate:"min=1"`
	Periods     []string `mapstructure:"periods" validate:"min=1,dive,oneof=daily monthly"`
	StartDate   string   `mapstructure:"start-date" validate:"omitempty,datetime=2006-01-02"`
	EndDate     string   `mapstructure:"end-date" validate:"omitempty,datetime=2006-01-02"`

	// Pipeline tuning
	OutputDir    string        `mapstructure:"output-dir" validate:"required"`
	BaseURL      string        `mapstructure:"base-url" validate:"omitempty,url"`
	Concurrency  int           `mapstructure:"concurrency" validate:"gte=1"`
	Retries      int           `mapstructure:"retries" validate:"gte=0"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0"`
	RateLimit    float64       `mapstructure:"rate-limit" validate:"gte=0"`
	KeepArchives bool          `mapstructure:"keep-archives"`

	LogLevel string `mapstructure:"log-level" validate:"oneof=debug info warn error"`
}

// Load reads configuration from CLI flags, environment variables and an
// optional config file. Flags take precedence over environment variables,
// which take precedence over the file.
//
// Environment variables use the BINANCE_DL prefix with underscores,
// e.g. BINANCE_DL_OUTPUT_DIR, BINANCE_DL_CONCURRENCY.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("binance-data-downloader", pflag.ContinueOnError)

	fs.StringSlice("markets", marketNames(), "markets to download")
	fs.StringSlice("data-types", dataTypeNames(), "data types to download")
	fs.StringSlice("symbols", nil, "trading symbols; all tradable symbols are listed when empty")
	fs.StringSlice("frequencies", frequencyNames(), "kline frequencies")
	fs.StringSlice("periods", []string{string(catalog.PeriodDaily), string(catalog.PeriodMonthly)}, "archive periods (daily, monthly)")
	fs.String("start-date", "", "start date (YYYY-MM-DD)")
	fs.String("end-date", "", "end date (YYYY-MM-DD)")
	fs.String("output-dir", "./downloaded_data", "output directory for extracted data")
	fs.String("base-url", "", "data portal base URL override")
	fs.Int("concurrency", 5, "maximum concurrent downloads")
	fs.Int("retries", 3, "retry attempts per fetch after the first failure")
	fs.Duration("timeout", 5*time.Minute, "per-request timeout")
	fs.Float64("rate-limit", 0, "requests per second toward the portal (0 = unlimited)")
	fs.Bool("keep-archives", false, "keep zip archives after extraction")
	fs.String("log-level", "info", "logging level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("BINANCE_DL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Optional config file next to the binary or in the home config dir
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.binance-data-downloader")
	_ = v.ReadInConfig()

	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.StartDate != "" && cfg.EndDate != "" && cfg.EndDate < cfg.StartDate {
		return nil, fmt.Errorf("end date %s precedes start date %s", cfg.EndDate, cfg.StartDate)
	}

	return cfg, nil
}

// Selection converts the configuration into the typed selector matrix the
// enumerator consumes. Unknown data types or frequencies are rejected here,
// before any task is created.
func (c *Config) Selection() (task.Selection, error) {
	var sel task.Selection

	for _, s := range c.Markets {
		market, err := catalog.ParseMarket(s)
		if err != nil {
			return task.Selection{}, err
		}
		sel.Markets = append(sel.Markets, market)
	}

	for _, s := range c.DataTypes {
		dataType, err := catalog.ParseDataType(s)
		if err != nil {
			return task.Selection{}, err
		}
		sel.DataTypes = append(sel.DataTypes, dataType)
	}

	for _, s := range c.Frequencies {
		freq, err := catalog.ParseFrequency(s)
		if err != nil {
			return task.Selection{}, err
		}
		sel.Frequencies = append(sel.Frequencies, freq)
	}

	for _, s := range c.Periods {
		period, err := catalog.ParsePeriod(s)
		if err != nil {
			return task.Selection{}, err
		}
		sel.Periods = append(sel.Periods, period)
	}

	sel.Symbols = c.Symbols

	if c.StartDate != "" {
		start, err := time.Parse(dateLayout, c.StartDate)
		if err != nil {
			return task.Selection{}, fmt.Errorf("invalid start date: %w", err)
		}
		sel.Start = start
	}
	if c.EndDate != "" {
		end, err := time.Parse(dateLayout, c.EndDate)
		if err != nil {
			return task.Selection{}, fmt.Errorf("invalid end date: %w", err)
		}
		sel.End = end
	}

	return sel, nil
}

func marketNames() []string {
	var names []string
	for _, m := range catalog.Markets() {
		names = append(names, string(m))
	}
	return names
}

func dataTypeNames() []string {
	var names []string
	for _, dt := range catalog.DataTypes() {
		names = append(names, string(dt))
	}
	return names
}

func frequencyNames() []string {
	var names []string
	for _, f := range catalog.Frequencies() {
		names = append(names, string(f))
	}
	return names
}
