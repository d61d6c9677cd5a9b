package pricing

// PricingSource represents the source of pricing information
type PricingSource string

const (
	// PricingSourceTable indicates the price came from the built-in known-cost table
	PricingSourceTable PricingSource = "Table"

	// PricingSourceAPI indicates pricing data came from AWS API
	PricingSourceAPI PricingSource = "API"

	// PricingSourceCache indicates pricing data came from cache
	PricingSourceCache PricingSource = "Cache"

	// PricingSourcePlaceholder indicates no price was found and PlaceholderHourlyCost is used
	PricingSourcePlaceholder PricingSource = "Placeholder"
)

// PlaceholderHourlyCost is the hourly cost reported for instance types with no
// known price. It is a fixed sentinel, not an estimate.
const PlaceholderHourlyCost = 0.25

// KnownHourlyCosts holds on-demand Linux hourly prices for common instance types
var KnownHourlyCosts = map[string]float64{
	"t2.medium":   0.0416,
	"t3.micro":    0.0104,
	"t3.small":    0.0208,
	"t3.medium":   0.0416,
	"t3.large":    0.0832,
	"m5.large":    0.096,
	"c5.large":    0.085,
	"g4dn.xlarge": 0.526,
	"g5.xlarge":   1.006,
	"p3.2xlarge":  3.06,
}

// Price is an hourly price with the source it came from
type Price struct {
	PerHour float64
	Source  PricingSource
}

// Table maps instance types to resolved prices
type Table map[string]Price

// Lookup returns the price for an exact instance type match
func (t Table) Lookup(instanceType string) (Price, bool) {
	p, ok := t[instanceType]
	return p, ok
}

// Placeholder returns the sentinel price used on a lookup miss
func Placeholder() Price {
	return Price{PerHour: PlaceholderHourlyCost, Source: PricingSourcePlaceholder}
}
