package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/younsl/costboard/internal/models"
	"github.com/younsl/costboard/pkg/pricing"
	"github.com/younsl/costboard/pkg/source"
	"github.com/younsl/costboard/pkg/utils"
)

const (
	DefaultLookbackDays     = 7
	DefaultGroupBy          = "REGION"
	DefaultFetchConcurrency = 10
	DefaultFetchTimeout     = 10 * time.Second
)

// ErrInvalidRequest is returned for aggregation requests that cannot be served
var ErrInvalidRequest = errors.New("invalid aggregation request")

// Request holds per-request aggregation options. Zero values select the
// aggregator defaults.
type Request struct {
	LookbackDays int    `json:"lookbackDays"`
	GroupBy      string `json:"groupBy"`
}

// Options configures an Aggregator
type Options struct {
	LookbackDays     int
	GroupBy          string
	FetchConcurrency int
	FetchTimeout     time.Duration
	// Region is the region prices are resolved for
	Region string
}

// DashboardSource produces a dashboard for a request
type DashboardSource interface {
	Aggregate(ctx context.Context, req Request) (*models.Dashboard, error)
}

// Aggregator runs the fetch, normalize, join and aggregate stages for one
// request. It holds no per-request state and is safe for concurrent use.
type Aggregator struct {
	provider source.Provider
	resolver pricing.Resolver
	opts     Options
	logger   zerolog.Logger
	now      func() time.Time
}

// NewAggregator creates an Aggregator. Unset options fall back to defaults.
func NewAggregator(provider source.Provider, resolver pricing.Resolver, opts Options, logger zerolog.Logger) *Aggregator {
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = DefaultLookbackDays
	}
	if opts.GroupBy == "" {
		opts.GroupBy = DefaultGroupBy
	}
	if opts.FetchConcurrency <= 0 {
		opts.FetchConcurrency = DefaultFetchConcurrency
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if resolver == nil {
		resolver = pricing.StaticResolver{}
	}

	return &Aggregator{
		provider: provider,
		resolver: resolver,
		opts:     opts,
		logger:   logger.With().Str("component", "aggregator").Logger(),
		now:      time.Now,
	}
}

// SetClock replaces the clock used for uptime and the billing period
func (a *Aggregator) SetClock(now func() time.Time) {
	a.now = now
}

// Aggregate fetches inventory, utilization and billing and folds them into a
// Dashboard. Billing is fetched concurrently with inventory; utilization is
// fetched per instance with bounded concurrency. Any fetch failure aborts the
// whole request.
func (a *Aggregator) Aggregate(ctx context.Context, req Request) (*models.Dashboard, error) {
	req, err := a.Resolve(req)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	now := a.now()
	start, end := utils.LookbackPeriod(now, req.LookbackDays)
	period := models.TimePeriod{Start: utils.FormatDate(start), End: utils.FormatDate(end)}

	var (
		raws    []models.RawInstance
		samples [][]models.UtilizationSample
		billing []models.BillingDay
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// The billing API takes an exclusive end date.
		days, err := a.provider.DailyCost(gctx, period.Start, utils.FormatDate(end.AddDate(0, 0, 1)), req.GroupBy)
		if err != nil {
			return fmt.Errorf("error fetching billing: %w", upstreamError(err))
		}
		billing = days
		return nil
	})

	g.Go(func() error {
		instances, err := a.provider.ListInstances(gctx)
		if err != nil {
			return fmt.Errorf("error listing instances: %w", upstreamError(err))
		}
		raws = instances

		samples, err = a.fetchUtilization(gctx, instances)
		return err
	})

	if err := g.Wait(); err != nil {
		a.logger.Error().
			Err(err).
			Str("kind", models.ErrorKind(err)).
			Str("source", string(a.provider.Kind())).
			Msg("Aggregation fetch failed")
		return nil, err
	}

	a.logger.Debug().
		Int("instances", len(raws)).
		Int("billing_days", len(billing)).
		Dur("fetch_duration", time.Since(started)).
		Msg("Fetched upstream data")

	prices := a.resolver.Resolve(ctx, distinctInstanceTypes(raws), a.opts.Region)

	normalized, err := NormalizeInstances(raws, prices, now)
	if err != nil {
		return nil, fmt.Errorf("error normalizing inventory: %w", err)
	}

	utilization := make(map[string]int, len(normalized))
	for i, instance := range normalized {
		utilization[instance.InstanceID] = NormalizeUtilization(samples[i])
	}

	records, err := Join(normalized, utilization)
	if err != nil {
		return nil, fmt.Errorf("error joining inventory with utilization: %w", err)
	}

	days, err := NormalizeBilling(billing)
	if err != nil {
		return nil, fmt.Errorf("error normalizing billing: %w", err)
	}

	summary, trend := AggregateCost(period, req.GroupBy, days)
	if trend.InsufficientData {
		a.logger.Warn().
			Str("start", period.Start).
			Str("end", period.End).
			Msg("Billing returned no days, burn metrics left at zero")
	}

	a.logger.Debug().
		Int("instances", len(records)).
		Float64("total_cost", summary.TotalCost).
		Dur("duration", time.Since(started)).
		Msg("Aggregation complete")

	return &models.Dashboard{
		AllInstances: records,
		CostData:     summary,
		TrendData:    trend,
	}, nil
}

// fetchUtilization reads CPU samples for every instance. Results are indexed
// like instances.
func (a *Aggregator) fetchUtilization(ctx context.Context, instances []models.RawInstance) ([][]models.UtilizationSample, error) {
	for i, instance := range instances {
		if utils.SafeDeref(instance.InstanceID) == "" {
			return nil, fmt.Errorf("inventory entry %d has no instance id: %w", i, models.ErrMalformedUpstreamData)
		}
	}

	results := make([][]models.UtilizationSample, len(instances))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.FetchConcurrency)

	for i, instance := range instances {
		instanceID := *instance.InstanceID
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, a.opts.FetchTimeout)
			defer cancel()

			s, err := a.provider.CPUSamples(callCtx, instanceID)
			if err != nil {
				return fmt.Errorf("error fetching utilization for %s: %w", instanceID, upstreamError(err))
			}
			results[i] = s
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Resolve fills unset request fields with the aggregator defaults and
// rejects requests that cannot be served
func (a *Aggregator) Resolve(req Request) (Request, error) {
	if req.LookbackDays < 0 {
		return req, fmt.Errorf("%w: lookback days must not be negative, got %d", ErrInvalidRequest, req.LookbackDays)
	}
	if req.LookbackDays == 0 {
		req.LookbackDays = a.opts.LookbackDays
	}
	if req.GroupBy == "" {
		req.GroupBy = a.opts.GroupBy
	}
	return req, nil
}

// upstreamError makes sure a fetch error carries an error kind. Errors from
// providers that did not classify them count as upstream unavailability.
func upstreamError(err error) error {
	if models.ErrorKind(err) != "internal" {
		return err
	}
	return fmt.Errorf("%w: %w", models.ErrUpstreamUnavailable, err)
}

func distinctInstanceTypes(instances []models.RawInstance) []string {
	seen := make(map[string]struct{}, len(instances))
	types := make([]string, 0, len(instances))
	for _, instance := range instances {
		if _, ok := seen[instance.InstanceType]; ok {
			continue
		}
		seen[instance.InstanceType] = struct{}{}
		types = append(types, instance.InstanceType)
	}
	return types
}
