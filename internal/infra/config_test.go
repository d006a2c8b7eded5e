package infra

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"lpool/internal/domain"
	"lpool/internal/event"
)

const sampleConfig = `
app:
  name: lpool-test
logging:
  level: debug
journal:
  enabled: true
  path: /tmp/journal.db
pools:
  - name: reference
    price: 1.5
    min_fee_pct: 0.1
    max_fee_pct: 9
    liquidity_target: 90
    precision: 7
  - name: legacy
    price: "2.0"
    min_fee_pct: "10"
    max_fee_pct: "50"
    liquidity_target: "100"
    precision: 2
    accounting: retain
demo:
  - op: add_liquidity
    amount: 100
  - op: swap
    amount: 6
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}

	if cfg.App.Name != "lpool-test" || cfg.Logging.Level != "debug" {
		t.Errorf("Unexpected header: %+v", cfg.App)
	}
	if cfg.Engine.InboxSize != defaultInboxSize {
		t.Errorf("Expected default inbox size, got %d", cfg.Engine.InboxSize)
	}
	if len(cfg.Pools) != 2 {
		t.Fatalf("Expected 2 pools, got %d", len(cfg.Pools))
	}
	if cfg.Pools[0].Price.String() != "1.5" || cfg.Pools[0].MinFeePct.String() != "0.1" {
		t.Errorf("Unexpected decimals: %+v", cfg.Pools[0])
	}

	params, err := cfg.Pools[1].Params()
	if err != nil {
		t.Fatalf("Params failed: %v", err)
	}
	if params.Accounting != domain.AccountingRetain || params.Precision != 2 {
		t.Errorf("Unexpected params: %+v", params)
	}
	if _, err := domain.NewLiquidityPool(params); err != nil {
		t.Errorf("Params should build a pool: %v", err)
	}

	if len(cfg.Demo) != 2 || cfg.Demo[1].Op != event.TypeSwap || cfg.Demo[1].Amount.String() != "6" {
		t.Errorf("Unexpected demo steps: %+v", cfg.Demo)
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"no pools", "logging: {level: info}", "pools"},
		{"bad level", "logging: {level: loud}\npools: [{name: a}]", "logging.level"},
		{"missing name", "pools: [{precision: 2}]", "pools[0].name"},
		{"duplicate name", "pools: [{name: a}, {name: a}]", "pools[1].name"},
		{"precision", "pools: [{name: a, precision: 19}]", "pools[0].precision"},
		{"accounting", "pools: [{name: a, accounting: burn}]", "pools[0].accounting"},
		{"demo op", "pools: [{name: a}]\ndemo: [{op: mint, amount: 1}]", "demo[0].op"},
		{"demo amount", "pools: [{name: a}]\ndemo: [{op: swap, amount: -1}]", "demo[0].amount"},
		{"funding", "pools: [{name: a}]\ndemo_funding: {base: -1}", "demo_funding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			var ce *domain.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("Expected ConfigError, got %v", err)
			}
			if ce.Field != tt.field {
				t.Errorf("Field = %q, want %q", ce.Field, tt.field)
			}
		})
	}
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("pools: [{name: a, price: 1.5, max_fee_pct: 9, liquidity_target: 90}]"))
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}
	if len(cfg.Demo) != 5 || cfg.Demo[4].Op != event.TypeRemoveLiquidity {
		t.Errorf("Expected the reference demo, got %+v", cfg.Demo)
	}
	if cfg.DemoFunding.Base == nil || cfg.DemoFunding.Base.IntPart() != defaultFunding ||
		cfg.DemoFunding.Staked == nil || cfg.DemoFunding.Staked.IntPart() != defaultFunding {
		t.Errorf("Unexpected funding: %+v", cfg.DemoFunding)
	}
	if cfg.Journal.Enabled || cfg.Journal.Path != defaultJournalPath {
		t.Errorf("Unexpected journal defaults: %+v", cfg.Journal)
	}
}

func TestParseConfig_ExplicitZeroFunding(t *testing.T) {
	cfg, err := ParseConfig([]byte("pools: [{name: a}]\ndemo_funding: {base: 0, staked: 25}"))
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}
	if !cfg.DemoFunding.Base.IsZero() {
		t.Errorf("Explicit zero base was replaced with %s", cfg.DemoFunding.Base)
	}
	if cfg.DemoFunding.Staked.String() != "25" {
		t.Errorf("Expected staked 25, got %s", cfg.DemoFunding.Staked)
	}

	cfg, err = ParseConfig([]byte("pools: [{name: a}]\ndemo_funding: {staked: 0}"))
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}
	if cfg.DemoFunding.Base.IntPart() != defaultFunding || !cfg.DemoFunding.Staked.IsZero() {
		t.Errorf("Expected default base and zero staked, got %s / %s", cfg.DemoFunding.Base, cfg.DemoFunding.Staked)
	}
}

func TestParseConfig_EnvOverride(t *testing.T) {
	t.Setenv("LPOOL_LOG_LEVEL", "error")
	t.Setenv("LPOOL_JOURNAL_PATH", "/tmp/override.db")
	t.Setenv("LPOOL_JOURNAL_ENABLED", "false")

	cfg, err := ParseConfig([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Expected level override, got %s", cfg.Logging.Level)
	}
	if cfg.Journal.Path != "/tmp/override.db" || cfg.Journal.Enabled {
		t.Errorf("Expected journal override, got %+v", cfg.Journal)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	if !errors.Is(err, domain.ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Pools[0].Name != "reference" {
		t.Errorf("Unexpected pool: %+v", cfg.Pools[0])
	}
}

func TestNewLogger(t *testing.T) {
	cfg := &Config{}
	cfg.Logging.Level = "warn"
	cfg.Logging.File = filepath.Join(t.TempDir(), "logs", "lpool.log")

	logger := NewLogger(cfg)
	logger.Warn("written")

	if _, err := os.Stat(cfg.Logging.File); err != nil {
		t.Errorf("Expected log file to exist: %v", err)
	}

	if NewLogger(&Config{}) == nil {
		t.Error("Expected a stderr logger without a file")
	}
}
