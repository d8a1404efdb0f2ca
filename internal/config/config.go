// Package config loads the YAML configuration file and applies environment
// variable overrides on top of it.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"systemtrade/internal/domain"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the systemtrade platform.
type Config struct {
	Storage  Storage        `yaml:"storage"`
	Server   Server         `yaml:"server"`
	Alpaca   Alpaca         `yaml:"alpaca"`
	Logging  Logging        `yaml:"logging"`
	Gather   GatherConfig   `yaml:"gather"`
	Backtest BacktestConfig `yaml:"backtest"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Server holds network listener configuration for the results API.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Alpaca holds credentials and endpoints for the Alpaca market data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
	DataURL   string `yaml:"data_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// GatherConfig holds parameters for the daily bar gathering job.
type GatherConfig struct {
	Symbols         []string `yaml:"symbols"`
	StartDate       string   `yaml:"start_date"`
	BatchSize       int      `yaml:"batch_size"`
	RateLimitPerMin int      `yaml:"rate_limit_per_min"`
	MaxRetries      int      `yaml:"max_retries"`
}

// BacktestConfig defines one backtest run: its universe, capital, and the
// strategies to drive it.
type BacktestConfig struct {
	Symbols        []string         `yaml:"symbols"`
	Market         string           `yaml:"market"`
	StartDate      string           `yaml:"start_date"`
	EndDate        string           `yaml:"end_date"`
	InitialCapital float64          `yaml:"initial_capital"`
	Allocation     int              `yaml:"allocation"`
	Commission     float64          `yaml:"commission"`
	Period         string           `yaml:"period"`
	HeartbeatMS    int              `yaml:"heartbeat_ms"`
	Strategies     []StrategyConfig `yaml:"strategies"`
}

// StrategyConfig names one strategy and its window parameters. Zero-valued
// windows fall back to the strategy's defaults.
type StrategyConfig struct {
	Name         string `yaml:"name"`
	ShortWindow  int    `yaml:"short_window"`
	LongWindow   int    `yaml:"long_window"`
	SignalWindow int    `yaml:"signal_window"`
	HighWindow   int    `yaml:"high_window"`
	LowWindow    int    `yaml:"low_window"`
	Window       int    `yaml:"window"`
	EMAWindow    int    `yaml:"ema_window"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Backtest.Period != "" {
		switch domain.Period(c.Backtest.Period) {
		case domain.PeriodDaily, domain.PeriodHourly, domain.PeriodMinutely, domain.PeriodSecondly:
		default:
			return fmt.Errorf("invalid backtest period %q", c.Backtest.Period)
		}
	}
	for _, s := range c.Backtest.Strategies {
		if s.Name == "" {
			return fmt.Errorf("backtest strategy with no name")
		}
	}
	return nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Standard Alpaca env vars (highest priority — canonical names used by SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}
