package infra

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/tjena007/Ticketing-System/internal/domain"
)

// Config는 애플리케이션의 모든 설정을 담습니다.
// DefaultConfig 위에 파일을 덮어쓰고, 그 다음 환경 변수를 적용합니다.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Theater struct {
		Count        int `yaml:"count"`          // K
		MaxPriceCuts int `yaml:"max_price_cuts"` // tmax
		MaxCycles    int `yaml:"max_cycles"`     // 0 = unlimited
	} `yaml:"theater"`

	Broker struct {
		Count          int  `yaml:"count"` // N
		Threshold      int  `yaml:"threshold"`
		IdleIntervalMS int  `yaml:"idle_interval_ms"`
		QuantityMin    int  `yaml:"quantity_min"` // inclusive
		QuantityMax    int  `yaml:"quantity_max"` // exclusive
		BulkOnStart    bool `yaml:"bulk_on_start"`
	} `yaml:"broker"`

	Buffer struct {
		Capacity     int `yaml:"capacity"`
		WritePermits int `yaml:"write_permits"`
		ReadPermits  int `yaml:"read_permits"`
	} `yaml:"buffer"`

	Pricing struct {
		Min int `yaml:"min"` // inclusive
		Max int `yaml:"max"` // exclusive
	} `yaml:"pricing"`

	Processing struct {
		Tax            decimal.Decimal `yaml:"tax"`
		LocationCharge decimal.Decimal `yaml:"location_charge"`
	} `yaml:"processing"`

	Storage struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"` // empty = user config dir
	} `yaml:"storage"`

	Monitor struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"monitor"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// DefaultConfig returns the reference configuration: one theater, five brokers,
// a two-cell buffer with two write permits and one read permit, twenty price cuts.
func DefaultConfig() *Config {
	var cfg Config
	cfg.App.Name = "ticketing"
	cfg.App.Version = "dev"

	cfg.Theater.Count = 1
	cfg.Theater.MaxPriceCuts = 20

	cfg.Broker.Count = 5
	cfg.Broker.Threshold = 120
	cfg.Broker.IdleIntervalMS = 1000
	cfg.Broker.QuantityMin = 20
	cfg.Broker.QuantityMax = 38
	cfg.Broker.BulkOnStart = true

	cfg.Buffer.Capacity = 2
	cfg.Buffer.WritePermits = 2
	cfg.Buffer.ReadPermits = 1

	cfg.Pricing.Min = 40
	cfg.Pricing.Max = 200

	cfg.Processing.Tax = decimal.NewFromInt(5)
	cfg.Processing.LocationCharge = decimal.NewFromInt(30)

	cfg.Storage.Enabled = true
	cfg.Monitor.Addr = "localhost:8080"

	cfg.Logging.Level = "info"
	cfg.Logging.Dir = "logs"
	return &cfg
}

// LoadConfig는 설정 파일을 읽고 파싱합니다.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// DefaultConfigFromEnv는 설정 파일 없이 기본값과 환경 변수만으로 설정을 만듭니다.
func DefaultConfigFromEnv() (*Config, error) {
	cfg := DefaultConfig()
	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// IdleInterval returns the broker idle interval as a duration.
func (c *Config) IdleInterval() time.Duration {
	return time.Duration(c.Broker.IdleIntervalMS) * time.Millisecond
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	positive := func(field string, v int) error {
		if v <= 0 {
			return &domain.ConfigError{Field: field, Err: fmt.Errorf("must be positive, got %d", v)}
		}
		return nil
	}

	checks := []struct {
		field string
		value int
	}{
		{"theater.count", c.Theater.Count},
		{"theater.max_price_cuts", c.Theater.MaxPriceCuts},
		{"broker.count", c.Broker.Count}, // no producers leaves every theater parked in Take
		{"broker.idle_interval_ms", c.Broker.IdleIntervalMS},
		{"broker.quantity_min", c.Broker.QuantityMin},
		{"buffer.capacity", c.Buffer.Capacity},
		{"buffer.write_permits", c.Buffer.WritePermits},
		{"buffer.read_permits", c.Buffer.ReadPermits},
	}
	for _, chk := range checks {
		if err := positive(chk.field, chk.value); err != nil {
			return err
		}
	}

	if c.Theater.MaxCycles < 0 {
		return &domain.ConfigError{Field: "theater.max_cycles", Err: errors.New("must not be negative")}
	}
	if c.Broker.QuantityMax <= c.Broker.QuantityMin {
		return &domain.ConfigError{Field: "broker.quantity_max", Err: errors.New("must be greater than quantity_min")}
	}
	if c.Pricing.Min < 0 {
		return &domain.ConfigError{Field: "pricing.min", Err: errors.New("must not be negative")}
	}
	if c.Pricing.Max <= c.Pricing.Min {
		return &domain.ConfigError{Field: "pricing.max", Err: errors.New("must be greater than pricing.min")}
	}
	if c.Processing.Tax.IsNegative() || c.Processing.LocationCharge.IsNegative() {
		return &domain.ConfigError{Field: "processing", Err: errors.New("charges must not be negative")}
	}
	if c.Monitor.Enabled && c.Monitor.Addr == "" {
		return &domain.ConfigError{Field: "monitor.addr", Err: errors.New("required when monitor is enabled")}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error", "":
	default:
		return &domain.ConfigError{Field: "logging.level", Err: fmt.Errorf("unknown level %q", c.Logging.Level)}
	}

	return nil
}

// overrideWithEnv는 환경 변수가 존재할 경우 설정 값을 덮어씁니다.
func overrideWithEnv(cfg *Config) {
	if level := os.Getenv("TICKET_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if path := os.Getenv("TICKET_DB_PATH"); path != "" {
		cfg.Storage.Path = path
	}
	if addr := os.Getenv("TICKET_MONITOR_ADDR"); addr != "" {
		cfg.Monitor.Addr = addr
		cfg.Monitor.Enabled = true
	}
}
