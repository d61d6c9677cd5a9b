package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/rs/zerolog"

	"github.com/younsl/costboard/pkg/aws"
	"github.com/younsl/costboard/pkg/config"
	"github.com/younsl/costboard/pkg/pipeline"
	"github.com/younsl/costboard/pkg/pricing"
	"github.com/younsl/costboard/pkg/source"
)

// app holds the components shared by the serve and collect commands
type app struct {
	cfg        *config.Config
	logger     zerolog.Logger
	region     string
	provider   source.Provider
	resolver   pricing.Resolver
	aggregator *pipeline.Aggregator
}

// loadConfig reads the config file if one is given, applies environment
// overrides and validates the result
func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the root logger from the log config
func newLogger(cfg config.LogConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// newApp wires the data source, price resolver and aggregator selected by cfg
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	kind, err := source.ParseKind(cfg.Source)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}

	var awsCfg sdkaws.Config
	needAWS := kind == source.KindLive || cfg.Pricing.UsePricingAPI || strings.HasPrefix(cfg.FixturePath, "s3://")

	if kind == source.KindLive {
		a.region = aws.ResolveRegion(ctx, cfg.AWS.Region, aws.NewMetadataClient(), logger)
	} else {
		a.region = aws.ResolveRegion(ctx, cfg.AWS.Region, nil, logger)
	}

	if needAWS {
		awsCfg, err = aws.LoadConfig(ctx, aws.SessionOptions{
			Region:          a.region,
			RoleARN:         cfg.AWS.RoleARN,
			SessionName:     cfg.AWS.SessionName,
			SessionDuration: cfg.AWS.SessionDuration,
		})
		if err != nil {
			return nil, err
		}
	}

	switch kind {
	case source.KindLive:
		a.provider = source.NewLive(awsCfg, cfg.Aggregation.UtilizationWindow, cfg.Aggregation.UtilizationPeriod)
	case source.KindFixture:
		var remote source.ObjectReader
		if strings.HasPrefix(cfg.FixturePath, "s3://") {
			remote = aws.NewS3Client(awsCfg)
		}
		a.provider, err = source.LoadFixture(ctx, cfg.FixturePath, remote)
		if err != nil {
			return nil, err
		}
	}

	if cfg.Pricing.UsePricingAPI {
		a.resolver = pricing.NewAPIResolverFromConfig(awsCfg, cfg.Pricing.Timeout, logger)
	} else {
		a.resolver = pricing.StaticResolver{}
	}

	a.aggregator = pipeline.NewAggregator(a.provider, a.resolver, pipeline.Options{
		LookbackDays:     cfg.Aggregation.LookbackDays,
		GroupBy:          cfg.Aggregation.GroupBy,
		FetchConcurrency: cfg.Aggregation.FetchConcurrency,
		FetchTimeout:     cfg.Aggregation.FetchTimeout,
		Region:           a.region,
	}, logger)

	logger.Info().
		Str("source", string(kind)).
		Str("region", a.region).
		Bool("pricing_api", cfg.Pricing.UsePricingAPI).
		Msg("Data source ready")

	return a, nil
}

// setup loads config and wires the app for a command
func setup(ctx context.Context, configPath string) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Log, os.Stderr)

	return newApp(ctx, cfg, logger)
}
