package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Universe != "NIFTY50" {
		t.Errorf("Expected universe NIFTY50, got %s", cfg.Universe)
	}
	if cfg.Thresholds.VolSurgeThreshold != 1.3 {
		t.Errorf("Expected vol surge 1.3, got %f", cfg.Thresholds.VolSurgeThreshold)
	}
	if cfg.Risk.StopATRMultiplier != 0.8 || cfg.Risk.TargetRRRatio != 2.0 {
		t.Errorf("Unexpected risk defaults: %+v", cfg.Risk)
	}
	if cfg.Weights.Trend != 3 || cfg.Weights.IBSExtreme != 1 {
		t.Errorf("Unexpected weight defaults: %+v", cfg.Weights)
	}
	if cfg.Benchmark != "^NSEI" {
		t.Errorf("Expected yahoo benchmark ^NSEI, got %s", cfg.Benchmark)
	}
	if cfg.RetryDelay != 2*time.Second {
		t.Errorf("Expected retry delay 2s, got %v", cfg.RetryDelay)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults should validate, got %v", err)
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.TopN != 25 {
		t.Errorf("Expected top_n 25, got %d", cfg.TopN)
	}
}

func TestLoadConfig_OverridesFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
universe: custom
custom_symbols: [AAPL, MSFT]
source: alpaca
period: 90d
workers: 2
thresholds:
  vol_surge_threshold: 1.5
  rs_threshold_pct: 2.5
weights:
  trend: 4
risk:
  risk_per_trade: 1000
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Universe != "CUSTOM" {
		t.Errorf("Expected universe to be upper-cased, got %s", cfg.Universe)
	}
	if cfg.Benchmark != "SPY" || cfg.Exchange != "xnys" {
		t.Errorf("Expected alpaca benchmark SPY on xnys, got %s on %s", cfg.Benchmark, cfg.Exchange)
	}
	if cfg.Thresholds.VolSurgeThreshold != 1.5 {
		t.Errorf("Expected vol surge 1.5, got %f", cfg.Thresholds.VolSurgeThreshold)
	}
	if cfg.Thresholds.RSThresholdPct != 2.5 {
		t.Errorf("Expected relative strength threshold 2.5, got %f", cfg.Thresholds.RSThresholdPct)
	}
	if cfg.Thresholds.MinVolume != 1000000 {
		t.Errorf("Expected untouched min volume default, got %d", cfg.Thresholds.MinVolume)
	}
	if cfg.Weights.Trend != 4 || cfg.Weights.Breakout != 3 {
		t.Errorf("Unexpected weights: %+v", cfg.Weights)
	}
	if cfg.Risk.RiskPerTrade != 1000 {
		t.Errorf("Expected risk per trade 1000, got %f", cfg.Risk.RiskPerTrade)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"negative weight", "weights:\n  trend: -1\n", "Config.Weights.Trend"},
		{"zero retries", "max_retries: 0\n", "Config.MaxRetries"},
		{"bad source", "source: bloomberg\n", "Config.Source"},
		{"bad period", "period: soon\n", "period"},
		{"empty custom", "universe: CUSTOM\n", "custom_symbols"},
		{"inverted rsi bands", "thresholds:\n  rsi_oversold: 80\n  rsi_overbought: 70\n", "Config.Thresholds.RSIOverbought"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.body), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadConfig(path)
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Expected ConfigurationError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, cfgErr.Field)
			}
		})
	}
}

func TestParsePeriod(t *testing.T) {
	end := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		period string
		start  time.Time
	}{
		{"6mo", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"1y", time.Date(2023, 7, 15, 0, 0, 0, 0, time.UTC)},
		{"90d", end.AddDate(0, 0, -90)},
		{"2w", end.AddDate(0, 0, -14)},
		{"48h", end.AddDate(0, 0, -2)},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			lb, err := ParsePeriod(tt.period)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got := lb.Start(end); !got.Equal(tt.start) {
				t.Errorf("Expected start %v, got %v", tt.start, got)
			}
		})
	}

	for _, bad := range []string{"", "0mo", "-3y", "abc"} {
		if _, err := ParsePeriod(bad); err == nil {
			t.Errorf("Expected error for period %q", bad)
		}
	}
}

func TestLoadConfig_OverridesBeforeDerivedDefaults(t *testing.T) {
	cfg, err := LoadConfig("", func(c *Config) {
		c.Source = "alpaca"
		c.Universe = "dow30"
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Benchmark != "SPY" || cfg.Exchange != "xnys" {
		t.Errorf("Expected alpaca benchmark SPY on xnys, got %s on %s", cfg.Benchmark, cfg.Exchange)
	}
	if cfg.Universe != "DOW30" {
		t.Errorf("Expected DOW30, got %s", cfg.Universe)
	}

	_, err = LoadConfig("", func(c *Config) { c.Workers = 0 })
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("Expected ConfigurationError for zero workers, got %v", err)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	cfg.Universe = "CUSTOM"
	cfg.CustomSymbols = []string{"TCS.NS", "INFY.NS"}
	cfg.RetryDelay = 500 * time.Millisecond
	cfg.Weights.Breakout = 4

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.RetryDelay != cfg.RetryDelay || got.Weights.Breakout != 4 || len(got.CustomSymbols) != 2 {
		t.Errorf("Expected saved values to load back, got %+v", got)
	}
}

func TestDisplayConfiguration(t *testing.T) {
	var buf bytes.Buffer
	DisplayConfiguration(&buf, Default())
	out := buf.String()
	for _, want := range []string{"Universe: NIFTY50", "Volume Surge: 1.30", "Trend: 3", "Risk Per Trade: 5000.00", "Database Sink: Disabled"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output", want)
		}
	}
}
