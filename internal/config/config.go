package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`
	Data     struct {
		ListingsFile string `yaml:"listings_file" validate:"required"`
		OutputFile   string `yaml:"output_file" validate:"required"`
	} `yaml:"data"`
	Market struct {
		BaseURL        string        `yaml:"base_url" validate:"omitempty,url"`
		TickerSuffix   string        `yaml:"ticker_suffix"`
		HistoryPeriod  string        `yaml:"history_period" validate:"required"`
		RequestDelay   time.Duration `yaml:"request_delay" validate:"gte=0"`
		RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
		Proxy          string        `yaml:"proxy" validate:"omitempty,url"`
	} `yaml:"market"`
	Currency struct {
		Local           string        `yaml:"local" validate:"required,len=3,alpha"`
		FallbackUSDRate float64       `yaml:"fallback_usd_rate" validate:"gt=0"`
		CacheTTL        time.Duration `yaml:"cache_ttl" validate:"gt=0"`
		RequestTimeout  time.Duration `yaml:"request_timeout" validate:"gt=0"`
		QuoteURL        string        `yaml:"quote_url" validate:"required,url"`
		CentralBankURL  string        `yaml:"central_bank_url" validate:"required,url"`
		ExchangeAPIURL  string        `yaml:"exchange_api_url" validate:"required,url"`
	} `yaml:"currency"`
	Retry struct {
		Attempts      int           `yaml:"attempts" validate:"min=1,max=10"`
		InitialDelay  time.Duration `yaml:"initial_delay" validate:"gte=0"`
		BackoffFactor float64       `yaml:"backoff_factor" validate:"gte=1"`
	} `yaml:"retry"`
	Smoothing struct {
		ThresholdMultiplier float64 `yaml:"threshold_multiplier" validate:"gt=1"`
		MinLength           int     `yaml:"min_length" validate:"min=3"`
		MaxPoints           int     `yaml:"max_points" validate:"min=10"`
	} `yaml:"smoothing"`
	Valuation struct {
		LargeCapThreshold      float64 `yaml:"large_cap_threshold" validate:"gt=0"`
		LargeEmployeeThreshold int64   `yaml:"large_employee_threshold" validate:"gt=0"`
	} `yaml:"valuation"`
	Schedule struct {
		DailyCron string `yaml:"daily_cron" validate:"required"`
	} `yaml:"schedule"`
}

// Load reads config from a YAML file, loads any .env files, then applies
// environment variable overrides and defaults. Missing files are ignored.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("FINANSLE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("FINANSLE_LISTINGS"); v != "" {
		cfg.Data.ListingsFile = v
	}
	if v := os.Getenv("FINANSLE_OUTPUT"); v != "" {
		cfg.Data.OutputFile = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Market.Proxy = v
	}
	if v := os.Getenv("FINANSLE_LOCAL_CURRENCY"); v != "" {
		cfg.Currency.Local = v
	}
	if v := os.Getenv("FINANSLE_FALLBACK_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Currency.FallbackUSDRate = rate
		}
	}
	if v := os.Getenv("FINANSLE_DAILY_CRON"); v != "" {
		cfg.Schedule.DailyCron = v
	}
	if v := os.Getenv("FINANSLE_ANOMALY_THRESHOLD"); v != "" {
		if m, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Smoothing.ThresholdMultiplier = m
		}
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Data.ListingsFile == "" {
		cfg.Data.ListingsFile = "data/obx.json"
	}
	if cfg.Data.OutputFile == "" {
		cfg.Data.OutputFile = "data/daily.json"
	}
	if cfg.Market.TickerSuffix == "" {
		cfg.Market.TickerSuffix = ".OL"
	}
	if cfg.Market.HistoryPeriod == "" {
		cfg.Market.HistoryPeriod = "5y"
	}
	if cfg.Market.RequestDelay == 0 {
		cfg.Market.RequestDelay = 2 * time.Second
	}
	if cfg.Market.RequestTimeout == 0 {
		cfg.Market.RequestTimeout = 30 * time.Second
	}
	if cfg.Currency.Local == "" {
		cfg.Currency.Local = "NOK"
	}
	if cfg.Currency.FallbackUSDRate == 0 {
		cfg.Currency.FallbackUSDRate = 10.5
	}
	if cfg.Currency.CacheTTL == 0 {
		cfg.Currency.CacheTTL = time.Hour
	}
	if cfg.Currency.RequestTimeout == 0 {
		cfg.Currency.RequestTimeout = 5 * time.Second
	}
	if cfg.Currency.QuoteURL == "" {
		cfg.Currency.QuoteURL = "https://query1.finance.yahoo.com/v7/finance/quote"
	}
	if cfg.Currency.CentralBankURL == "" {
		cfg.Currency.CentralBankURL = "https://data.norges-bank.no/api/data/EXR"
	}
	if cfg.Currency.ExchangeAPIURL == "" {
		cfg.Currency.ExchangeAPIURL = "https://api.exchangerate-api.com/v4/latest"
	}
	if cfg.Retry.Attempts == 0 {
		cfg.Retry.Attempts = 3
	}
	if cfg.Retry.InitialDelay == 0 {
		cfg.Retry.InitialDelay = time.Second
	}
	if cfg.Retry.BackoffFactor == 0 {
		cfg.Retry.BackoffFactor = 1.5
	}
	if cfg.Smoothing.ThresholdMultiplier == 0 {
		cfg.Smoothing.ThresholdMultiplier = 3.0
	}
	if cfg.Smoothing.MinLength == 0 {
		cfg.Smoothing.MinLength = 10
	}
	if cfg.Smoothing.MaxPoints == 0 {
		cfg.Smoothing.MaxPoints = 800
	}
	if cfg.Valuation.LargeCapThreshold == 0 {
		cfg.Valuation.LargeCapThreshold = 50e9
	}
	if cfg.Valuation.LargeEmployeeThreshold == 0 {
		cfg.Valuation.LargeEmployeeThreshold = 10000
	}
	if cfg.Schedule.DailyCron == "" {
		cfg.Schedule.DailyCron = "0 0 6 * * *"
	}
}

var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate checks field constraints and that the cron spec parses.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := cronParser.Parse(c.Schedule.DailyCron); err != nil {
		return fmt.Errorf("schedule.daily_cron: %w", err)
	}
	return nil
}
