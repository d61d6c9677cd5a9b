// Package source defines the upstream data collaborators of the aggregation
// pipeline and their two implementations: live AWS APIs and a static fixture.
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/younsl/costboard/internal/models"
)

// Kind selects a Provider implementation
type Kind string

const (
	KindLive    Kind = "live"
	KindFixture Kind = "fixture"
)

// ParseKind validates a provider kind name
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindLive, KindFixture:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown data source %q (want %q or %q)", s, KindLive, KindFixture)
}

// InventoryLister lists compute instances
type InventoryLister interface {
	ListInstances(ctx context.Context) ([]models.RawInstance, error)
}

// MetricsReader reads CPU utilization samples for one instance, newest
// first. CPUSamples covers the configured utilization window; CPUSeries
// covers an explicit window averaged in period buckets.
type MetricsReader interface {
	CPUSamples(ctx context.Context, instanceID string) ([]models.UtilizationSample, error)
	CPUSeries(ctx context.Context, instanceID string, window, period time.Duration) ([]models.UtilizationSample, error)
}

// CostReader reads daily costs grouped by a dimension. start is inclusive
// and end is exclusive, both YYYY-MM-DD.
type CostReader interface {
	DailyCost(ctx context.Context, start, end, groupBy string) ([]models.BillingDay, error)
}

// Provider supplies all three upstream data sets
type Provider interface {
	InventoryLister
	MetricsReader
	CostReader
	Kind() Kind
}
