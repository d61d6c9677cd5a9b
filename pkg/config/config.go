package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	ceTypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/younsl/costboard/pkg/source"
	"github.com/younsl/costboard/pkg/utils"
)

// Environment variables read by ApplyEnv
const (
	EnvRegion      = "AWS_REGION"
	EnvRoleARN     = "ROLE_ARN"
	EnvPort        = "PORT"
	EnvSource      = "COSTBOARD_SOURCE"
	EnvFixturePath = "COSTBOARD_FIXTURE"
)

// Config holds all costboard configuration.
type Config struct {
	Listen      string            `yaml:"listen"`
	Source      string            `yaml:"source"`
	FixturePath string            `yaml:"fixture_path"`
	AWS         AWSConfig         `yaml:"aws"`
	Aggregation AggregationConfig `yaml:"aggregation"`
	Pricing     PricingConfig     `yaml:"pricing"`
	Cache       CacheConfig       `yaml:"cache"`
	Log         LogConfig         `yaml:"log"`
	CORS        CORSConfig        `yaml:"cors"`
}

// AWSConfig controls how AWS credentials are obtained.
// An empty Region is discovered at startup.
type AWSConfig struct {
	Region          string        `yaml:"region"`
	RoleARN         string        `yaml:"role_arn"`
	SessionName     string        `yaml:"session_name"`
	SessionDuration time.Duration `yaml:"session_duration"`
}

// AggregationConfig holds request defaults and upstream fetch limits.
type AggregationConfig struct {
	LookbackDays      int           `yaml:"lookback_days"`
	GroupBy           string        `yaml:"group_by"`
	UtilizationWindow time.Duration `yaml:"utilization_window"`
	UtilizationPeriod time.Duration `yaml:"utilization_period"`
	FetchConcurrency  int           `yaml:"fetch_concurrency"`
	FetchTimeout      time.Duration `yaml:"fetch_timeout"`
}

// PricingConfig controls hourly price resolution.
type PricingConfig struct {
	UsePricingAPI bool          `yaml:"use_pricing_api"`
	Timeout       time.Duration `yaml:"timeout"`
}

// CacheConfig controls dashboard memoization. A zero TTL disables it.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// LogConfig controls the root logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CORSConfig lists the origins allowed to call the API. "*" allows any.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen: ":4000",
		Source: string(source.KindLive),
		AWS: AWSConfig{
			SessionName:     "EC2ObservabilitySession",
			SessionDuration: time.Hour,
		},
		Aggregation: AggregationConfig{
			LookbackDays:      7,
			GroupBy:           "REGION",
			UtilizationWindow: time.Hour,
			UtilizationPeriod: 5 * time.Minute,
			FetchConcurrency:  10,
			FetchTimeout:      10 * time.Second,
		},
		Pricing: PricingConfig{
			Timeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides settings from the environment. Unset or empty
// variables leave the current value alone.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvRegion); v != "" {
		c.AWS.Region = v
	}
	if v := os.Getenv(EnvRoleARN); v != "" {
		c.AWS.RoleARN = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		c.Listen = ":" + v
	}
	if v := os.Getenv(EnvSource); v != "" {
		c.Source = v
	}
	if v := os.Getenv(EnvFixturePath); v != "" {
		c.FixturePath = v
	}
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	kind, err := source.ParseKind(c.Source)
	if err != nil {
		errs = append(errs, err)
	}
	if kind == source.KindFixture && c.FixturePath == "" {
		errs = append(errs, errors.New("fixture_path is required when source is fixture"))
	}

	if c.AWS.Region != "" && !utils.IsValidRegion(c.AWS.Region) {
		errs = append(errs, fmt.Errorf("unknown region %q", c.AWS.Region))
	}
	if c.AWS.RoleARN != "" && c.AWS.SessionDuration < 15*time.Minute {
		errs = append(errs, fmt.Errorf("session_duration must be at least 15m, got %s", c.AWS.SessionDuration))
	}

	agg := c.Aggregation
	if agg.LookbackDays <= 0 {
		errs = append(errs, fmt.Errorf("lookback_days must be positive, got %d", agg.LookbackDays))
	}
	if !slices.Contains(ceTypes.Dimension("").Values(), ceTypes.Dimension(agg.GroupBy)) {
		errs = append(errs, fmt.Errorf("group_by %q is not a cost explorer dimension", agg.GroupBy))
	}
	if agg.UtilizationWindow <= 0 || agg.UtilizationPeriod <= 0 {
		errs = append(errs, errors.New("utilization_window and utilization_period must be positive"))
	}
	if agg.FetchConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("fetch_concurrency must be positive, got %d", agg.FetchConcurrency))
	}
	if agg.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("fetch_timeout must be positive, got %s", agg.FetchTimeout))
	}
	if c.Pricing.UsePricingAPI && c.Pricing.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("pricing timeout must be positive, got %s", c.Pricing.Timeout))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache ttl must not be negative, got %s", c.Cache.TTL))
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Log.Level))
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log format must be console or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

