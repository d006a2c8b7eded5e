package infra

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"lpool/internal/domain"
	"lpool/internal/event"
	"lpool/pkg/fixed"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when LPOOL_CONFIG is not set.
	DefaultConfigPath = "configs/config.yaml"

	defaultInboxSize   = 64
	defaultJournalPath = "data/lpool.db"
	defaultFunding     = 1000
)

// Config holds every application setting.
// It is loaded by LoadConfig and then overridden from the environment.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"` // empty disables the rotating file
	} `yaml:"logging"`

	Journal struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"journal"`

	Engine struct {
		InboxSize int `yaml:"inbox_size"`
	} `yaml:"engine"`

	Pools []PoolConfig `yaml:"pools"`
	Demo  []DemoStep   `yaml:"demo"`

	// DemoFunding is what the demo participant holds before the first step.
	// An omitted field defaults; an explicit zero is kept.
	DemoFunding struct {
		Base   *decimal.Decimal `yaml:"base"`
		Staked *decimal.Decimal `yaml:"staked"`
	} `yaml:"demo_funding"`
}

// PoolConfig describes one pool. Fees are percentages.
type PoolConfig struct {
	Name            string          `yaml:"name"`
	Price           decimal.Decimal `yaml:"price"`
	MinFeePct       decimal.Decimal `yaml:"min_fee_pct"`
	MaxFeePct       decimal.Decimal `yaml:"max_fee_pct"`
	LiquidityTarget decimal.Decimal `yaml:"liquidity_target"`
	Precision       int             `yaml:"precision"`
	Accounting      string          `yaml:"accounting"` // "proportional" (default) or "retain"
}

// Params converts the config into pool parameters.
func (p PoolConfig) Params() (domain.PoolParams, error) {
	accounting, err := domain.ParseAccounting(p.Accounting)
	if err != nil {
		return domain.PoolParams{}, err
	}
	return domain.PoolParams{
		Price:           p.Price,
		MinFeePct:       p.MinFeePct,
		MaxFeePct:       p.MaxFeePct,
		LiquidityTarget: p.LiquidityTarget,
		Precision:       p.Precision,
		Accounting:      accounting,
	}, nil
}

// DemoStep is one operation of the demo run.
type DemoStep struct {
	Op     event.Type      `yaml:"op"`
	Amount decimal.Decimal `yaml:"amount"`
}

// DefaultDemo is the reference operation sequence run when no demo steps are configured.
func DefaultDemo() []DemoStep {
	return []DemoStep{
		{Op: event.TypeAddLiquidity, Amount: decimal.NewFromInt(100)},
		{Op: event.TypeSwap, Amount: decimal.NewFromInt(6)},
		{Op: event.TypeAddLiquidity, Amount: decimal.NewFromInt(10)},
		{Op: event.TypeSwap, Amount: decimal.NewFromInt(30)},
		{Op: event.TypeRemoveLiquidity, Amount: decimal.NewFromInt(100)},
	}
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, err
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML, applies defaults and environment overrides, and validates.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	// Environment wins over the file
	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "lpool"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = defaultJournalPath
	}
	if cfg.Engine.InboxSize == 0 {
		cfg.Engine.InboxSize = defaultInboxSize
	}
	if len(cfg.Demo) == 0 {
		cfg.Demo = DefaultDemo()
	}
	if cfg.DemoFunding.Base == nil {
		base := decimal.NewFromInt(defaultFunding)
		cfg.DemoFunding.Base = &base
	}
	if cfg.DemoFunding.Staked == nil {
		staked := decimal.NewFromInt(defaultFunding)
		cfg.DemoFunding.Staked = &staked
	}
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return &domain.ConfigError{Field: "logging.level", Err: err}
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return &domain.ConfigError{Field: "journal.path", Err: errors.New("path is required when the journal is enabled")}
	}
	if c.Engine.InboxSize < 0 {
		return &domain.ConfigError{Field: "engine.inbox_size", Err: errors.New("must not be negative")}
	}

	if len(c.Pools) == 0 {
		return &domain.ConfigError{Field: "pools", Err: errors.New("at least one pool is required")}
	}
	seen := make(map[string]bool, len(c.Pools))
	for i, p := range c.Pools {
		field := fmt.Sprintf("pools[%d]", i)
		if p.Name == "" {
			return &domain.ConfigError{Field: field + ".name", Err: errors.New("name is required")}
		}
		if seen[p.Name] {
			return &domain.ConfigError{Field: field + ".name", Err: fmt.Errorf("duplicate pool %q", p.Name)}
		}
		seen[p.Name] = true

		if _, err := fixed.NewScale(p.Precision); err != nil {
			return &domain.ConfigError{Field: field + ".precision", Err: err}
		}
		if _, err := domain.ParseAccounting(p.Accounting); err != nil {
			return &domain.ConfigError{Field: field + ".accounting", Err: err}
		}
	}

	if isNegative(c.DemoFunding.Base) || isNegative(c.DemoFunding.Staked) {
		return &domain.ConfigError{Field: "demo_funding", Err: domain.ErrInvalidArgument}
	}
	for i, step := range c.Demo {
		field := fmt.Sprintf("demo[%d]", i)
		if _, ok := event.New(step.Op, step.Amount); !ok {
			return &domain.ConfigError{Field: field + ".op", Err: fmt.Errorf("unknown operation %q", step.Op)}
		}
		if step.Amount.IsNegative() {
			return &domain.ConfigError{Field: field + ".amount", Err: domain.ErrInvalidArgument}
		}
	}

	return nil
}

func isNegative(d *decimal.Decimal) bool {
	return d != nil && d.IsNegative()
}

// ParseLevel maps a config level name to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// overrideWithEnv replaces settings with environment variables when present.
func overrideWithEnv(cfg *Config) {
	if level := os.Getenv("LPOOL_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if path := os.Getenv("LPOOL_JOURNAL_PATH"); path != "" {
		cfg.Journal.Path = path
	}
	if enabled := os.Getenv("LPOOL_JOURNAL_ENABLED"); enabled != "" {
		if v, err := strconv.ParseBool(enabled); err == nil {
			cfg.Journal.Enabled = v
		}
	}
}
