package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is loaded once per run and passed by value to every component.
type Config struct {
	Universe      string   `yaml:"universe" default:"NIFTY50" validate:"required"`
	CustomSymbols []string `yaml:"custom_symbols"`
	Period        string   `yaml:"period" default:"6mo" validate:"required"`
	Source        string   `yaml:"source" default:"yahoo" validate:"oneof=yahoo alpaca"`
	Benchmark     string   `yaml:"benchmark"`
	Exchange      string   `yaml:"exchange"`

	MaxRetries   int           `yaml:"max_retries" default:"3" validate:"gte=1,lte=10"`
	RetryDelay   time.Duration `yaml:"retry_delay" default:"2s" validate:"gte=0"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" default:"15s" validate:"gte=0"`
	Workers      int           `yaml:"workers" default:"4" validate:"gte=1,lte=64"`

	TopN              int `yaml:"top_n" default:"25" validate:"gte=1"`
	MinCandidateScore int `yaml:"min_candidate_score" default:"1" validate:"gte=0"`

	Thresholds Thresholds `yaml:"thresholds"`
	Weights    Weights    `yaml:"weights"`
	Risk       Risk       `yaml:"risk"`

	OutputDir     string `yaml:"output_dir" default:"eod_scanner_output" validate:"required"`
	Timezone      string `yaml:"timezone" default:"Asia/Kolkata"`
	SectorMapFile string `yaml:"sector_map_file"`
	DatabaseURL   string `yaml:"database_url"`
	MetricsFile   string `yaml:"metrics_file"`

	Log LogConfig `yaml:"log"`
}

// Thresholds feed the setup detector and the relative-strength rating.
type Thresholds struct {
	MinVolume           int64   `yaml:"min_volume" default:"1000000" validate:"gte=0"`
	VolSurgeThreshold   float64 `yaml:"vol_surge_threshold" default:"1.3" validate:"gt=0"`
	CPRNarrowPercentile float64 `yaml:"cpr_narrow_percentile" default:"0.2" validate:"gte=0,lte=1"`
	BBSqueezePercentile float64 `yaml:"bb_squeeze_percentile" default:"0.2" validate:"gte=0,lte=1"`
	IBSExtremeThreshold float64 `yaml:"ibs_extreme_threshold" default:"0.2" validate:"gte=0,lt=0.5"`
	RSIOversold         float64 `yaml:"rsi_oversold" default:"30" validate:"gte=0,lte=100"`
	RSIOverbought       float64 `yaml:"rsi_overbought" default:"70" validate:"gte=0,lte=100,gtfield=RSIOversold"`
	RSThresholdPct      float64 `yaml:"rs_threshold_pct" default:"1.0" validate:"gte=0"`
}

// Weights are the per-rule contributions to the composite score.
type Weights struct {
	Trend          int `yaml:"trend" default:"3" validate:"gte=0"`
	Breakout       int `yaml:"breakout" default:"3" validate:"gte=0"`
	MACDCross      int `yaml:"macd_cross" default:"2" validate:"gte=0"`
	Momentum       int `yaml:"momentum" default:"2" validate:"gte=0"`
	Volume         int `yaml:"volume" default:"2" validate:"gte=0"`
	Sector         int `yaml:"sector" default:"2" validate:"gte=0"`
	CPRCompression int `yaml:"cpr_compression" default:"1" validate:"gte=0"`
	IBSExtreme     int `yaml:"ibs_extreme" default:"1" validate:"gte=0"`
}

// Risk holds the position-sizing parameters.
type Risk struct {
	RiskPerTrade      float64 `yaml:"risk_per_trade" default:"5000" validate:"gt=0"`
	StopATRMultiplier float64 `yaml:"stop_atr_multiplier" default:"0.8" validate:"gt=0"`
	TargetRRRatio     float64 `yaml:"target_rr_ratio" default:"2.0" validate:"gt=0"`
	PriceTick         float64 `yaml:"price_tick" default:"0.01" validate:"gt=0"`
	StopEpsilon       float64 `yaml:"stop_epsilon" default:"0.000001" validate:"gt=0"`
	// LotSize rounds share counts down to whole lots.
	LotSize int64 `yaml:"lot_size" default:"1" validate:"gte=1"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" default:"console" validate:"oneof=console json"`
}

// ConfigurationError is fatal: the run stops before any data is fetched.
type ConfigurationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

var validate = validator.New()

// Default returns a fully defaulted configuration.
func Default() Config {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	cfg.applyDerivedDefaults()
	return cfg
}

// Override adjusts a loaded config before derived defaults and validation.
type Override func(*Config)

// LoadConfig reads a YAML file. A missing file yields the defaults.
// Environment values apply on top of the file, then the overrides.
func LoadConfig(path string, overrides ...Override) (Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return Config{}, &ConfigurationError{Reason: "apply defaults", Err: err}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, &ConfigurationError{Field: "config", Reason: err.Error(), Err: err}
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, &ConfigurationError{Field: "config", Reason: "parse yaml: " + err.Error(), Err: err}
			}
		}
	}

	cfg.applyEnv()
	for _, o := range overrides {
		o(&cfg)
	}
	cfg.applyDerivedDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" && c.DatabaseURL == "" {
		c.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("EOD_SCANNER_OUTPUT_DIR")); v != "" {
		c.OutputDir = v
	}
}

func (c *Config) applyDerivedDefaults() {
	c.Universe = strings.ToUpper(strings.TrimSpace(c.Universe))
	if c.Benchmark == "" {
		if c.Source == "alpaca" {
			c.Benchmark = "SPY"
		} else {
			c.Benchmark = "^NSEI"
		}
	}
	if c.Exchange == "" {
		if c.Source == "alpaca" {
			c.Exchange = "xnys"
		} else {
			c.Exchange = "xnse"
		}
	}
}

// Validate checks field constraints and cross-field rules.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &ConfigurationError{
				Field:  fe.Namespace(),
				Reason: fmt.Sprintf("failed %q (value %v)", fe.Tag(), fe.Value()),
				Err:    err,
			}
		}
		return &ConfigurationError{Reason: err.Error(), Err: err}
	}

	if _, err := ParsePeriod(c.Period); err != nil {
		return &ConfigurationError{Field: "period", Reason: err.Error(), Err: err}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return &ConfigurationError{Field: "timezone", Reason: err.Error(), Err: err}
	}
	if c.Universe == "CUSTOM" && len(c.CustomSymbols) == 0 {
		return &ConfigurationError{Field: "custom_symbols", Reason: "CUSTOM universe needs at least one symbol"}
	}
	return nil
}

// Location returns the configured timezone, UTC if it cannot be loaded.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func SaveConfig(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
