package pricing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/aws/aws-sdk-go-v2/service/pricing/types"
	"github.com/rs/zerolog"

	"github.com/younsl/costboard/pkg/utils"
)

// PricingAPIRegion is where the AWS Pricing API is served from
const PricingAPIRegion = "us-east-1"

// ProductsAPI is the subset of the Pricing API client used here
type ProductsAPI interface {
	GetProducts(ctx context.Context, params *pricing.GetProductsInput, optFns ...func(*pricing.Options)) (*pricing.GetProductsOutput, error)
}

// Resolver resolves hourly prices for a set of instance types.
// Types it cannot price are left out of the returned table.
type Resolver interface {
	Resolve(ctx context.Context, instanceTypes []string, region string) Table
}

// StaticResolver prices instance types from KnownHourlyCosts only
type StaticResolver struct{}

// Resolve implements Resolver
func (StaticResolver) Resolve(_ context.Context, instanceTypes []string, _ string) Table {
	table := make(Table, len(instanceTypes))
	for _, instanceType := range instanceTypes {
		if cost, ok := KnownHourlyCosts[instanceType]; ok {
			table[instanceType] = Price{PerHour: cost, Source: PricingSourceTable}
		}
	}
	return table
}

// APIResolver prices instance types from KnownHourlyCosts, falling back to
// the AWS Pricing API for types missing from the table. API results are cached.
type APIResolver struct {
	client  ProductsAPI
	timeout time.Duration
	logger  zerolog.Logger
	stats   *Stats

	cacheLock sync.RWMutex
	cache     map[string]float64
}

// NewAPIResolver creates an APIResolver backed by the given Pricing API client
func NewAPIResolver(client ProductsAPI, timeout time.Duration, logger zerolog.Logger) *APIResolver {
	return &APIResolver{
		client:  client,
		timeout: timeout,
		logger:  logger,
		stats:   NewStats(),
		cache:   make(map[string]float64),
	}
}

// NewAPIResolverFromConfig creates an APIResolver using the Pricing API endpoint region
func NewAPIResolverFromConfig(cfg aws.Config, timeout time.Duration, logger zerolog.Logger) *APIResolver {
	pricingCfg := cfg.Copy()
	pricingCfg.Region = PricingAPIRegion
	return NewAPIResolver(pricing.NewFromConfig(pricingCfg), timeout, logger)
}

// Stats returns the lookup statistics of this resolver
func (r *APIResolver) Stats() *Stats {
	return r.stats
}

// Resolve implements Resolver
func (r *APIResolver) Resolve(ctx context.Context, instanceTypes []string, region string) Table {
	table := make(Table, len(instanceTypes))
	for _, instanceType := range instanceTypes {
		if cost, ok := KnownHourlyCosts[instanceType]; ok {
			r.stats.record("table")
			table[instanceType] = Price{PerHour: cost, Source: PricingSourceTable}
			continue
		}

		cacheKey := fmt.Sprintf("%s:%s", region, instanceType)

		r.cacheLock.RLock()
		cost, exists := r.cache[cacheKey]
		r.cacheLock.RUnlock()
		if exists {
			r.stats.record("cache")
			table[instanceType] = Price{PerHour: cost, Source: PricingSourceCache}
			continue
		}

		cost, err := r.getEC2PriceFromAPI(ctx, instanceType, region)
		if err != nil {
			r.stats.record("failure")
			r.logger.Warn().Err(err).
				Str("instance_type", instanceType).
				Str("region", region).
				Msg("pricing lookup failed, using placeholder")
			continue
		}

		r.stats.record("api")
		r.cacheLock.Lock()
		r.cache[cacheKey] = cost
		r.cacheLock.Unlock()
		table[instanceType] = Price{PerHour: cost, Source: PricingSourceAPI}
	}
	return table
}

// getEC2PriceFromAPI retrieves EC2 instance pricing from the AWS Pricing API
func (r *APIResolver) getEC2PriceFromAPI(ctx context.Context, instanceType, region string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// Construct filters for EC2 Linux on-demand instances
	filters := []types.Filter{
		termMatch("instanceType", instanceType),
		termMatch("location", utils.GetRegionDescriptiveName(region)),
		termMatch("operatingSystem", "Linux"),
		termMatch("tenancy", "Shared"),
		termMatch("preInstalledSw", "NA"),
		termMatch("capacitystatus", "Used"),
	}

	resp, err := r.client.GetProducts(ctx, &pricing.GetProductsInput{
		ServiceCode: aws.String("AmazonEC2"),
		Filters:     filters,
		MaxResults:  aws.Int32(1),
	})
	if err != nil {
		return 0, fmt.Errorf("error calling AWS Pricing API: %w", err)
	}

	if len(resp.PriceList) == 0 {
		return 0, fmt.Errorf("no pricing found for %s in region %s", instanceType, region)
	}

	return ExtractOnDemandPrice(resp.PriceList[0])
}

func termMatch(field, value string) types.Filter {
	return types.Filter{
		Type:  types.FilterTypeTermMatch,
		Field: aws.String(field),
		Value: aws.String(value),
	}
}
