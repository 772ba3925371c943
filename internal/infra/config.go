package infra

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config holds every runtime setting of the simulator. Load it once at
// bootstrap; environment variables override file values afterwards.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Strategy struct {
		PairWidth          decimal.Decimal `yaml:"pair_width"`
		OrderQty           decimal.Decimal `yaml:"order_qty"`
		ProcessIntervalMS  int             `yaml:"process_interval_ms"`
		MaxPairDurationSec int             `yaml:"max_pair_duration_sec"`
	} `yaml:"strategy"`

	Gateway struct {
		MinTickIntervalMS int `yaml:"min_tick_interval_ms"`
	} `yaml:"gateway"`

	Feed struct {
		Source  string `yaml:"source"` // "csv" or "ws"
		CSVPath string `yaml:"csv_path"`
		WSURL   string `yaml:"ws_url"`
		Symbol  string `yaml:"symbol"`
	} `yaml:"feed"`

	Recorder struct {
		Enabled bool   `yaml:"enabled"`
		Dir     string `yaml:"dir"`
	} `yaml:"recorder"`

	Storage struct {
		Enabled bool   `yaml:"enabled"`
		DBPath  string `yaml:"db_path"`
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Strategy.PairWidth.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("strategy.pair_width: must be positive")
	}
	if c.Strategy.OrderQty.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("strategy.order_qty: must be positive")
	}
	if c.Strategy.ProcessIntervalMS <= 0 {
		return fmt.Errorf("strategy.process_interval_ms: must be positive")
	}
	if c.Gateway.MinTickIntervalMS < 0 {
		return fmt.Errorf("gateway.min_tick_interval_ms: must not be negative")
	}

	switch c.Feed.Source {
	case "csv":
		if c.Feed.CSVPath == "" {
			return fmt.Errorf("feed.csv_path: required for csv source")
		}
	case "ws":
		if !strings.HasPrefix(c.Feed.WSURL, "ws://") && !strings.HasPrefix(c.Feed.WSURL, "wss://") {
			return fmt.Errorf("feed.ws_url: must be a ws:// or wss:// URL")
		}
	default:
		return fmt.Errorf("feed.source: must be csv or ws")
	}

	return nil
}

// ProcessInterval returns the strategy cycle interval as a duration.
func (c *Config) ProcessInterval() time.Duration {
	return time.Duration(c.Strategy.ProcessIntervalMS) * time.Millisecond
}

// MaxPairDuration returns the pair expiry age; zero disables expiry.
func (c *Config) MaxPairDuration() time.Duration {
	return time.Duration(c.Strategy.MaxPairDurationSec) * time.Second
}

// MinTickInterval returns the gateway matching throttle.
func (c *Config) MinTickInterval() time.Duration {
	return time.Duration(c.Gateway.MinTickIntervalMS) * time.Millisecond
}

// overrideWithEnv applies environment overrides when present.
func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("GRIDSIM_FEED_SOURCE"); v != "" {
		cfg.Feed.Source = v
	}
	if v := os.Getenv("GRIDSIM_FEED_CSV"); v != "" {
		cfg.Feed.CSVPath = v
	}
	if v := os.Getenv("GRIDSIM_FEED_WS_URL"); v != "" {
		cfg.Feed.WSURL = v
	}
	if v := os.Getenv("GRIDSIM_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("GRIDSIM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
