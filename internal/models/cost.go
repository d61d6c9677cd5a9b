package models

// BillingGroup is one (dimension key, amount) pair of a billing day.
// Amount is the decimal string returned by the billing API.
type BillingGroup struct {
	Keys   []string `json:"keys" yaml:"keys"`
	Amount string   `json:"amount" yaml:"amount"`
}

// BillingDay is one day of a grouped cost report
type BillingDay struct {
	Start  string         `json:"start" yaml:"start"`
	End    string         `json:"end" yaml:"end"`
	Groups []BillingGroup `json:"groups" yaml:"groups"`
}

// CostEntry is a parsed billing group. An empty Key means the amount could
// not be attributed to any dimension value.
type CostEntry struct {
	Key    string
	Amount float64
}

// DailyCost is a normalized billing day
type DailyCost struct {
	Date    string
	Entries []CostEntry
}

// TimePeriod is an inclusive calendar date range in YYYY-MM-DD form
type TimePeriod struct {
	Start string `json:"Start"`
	End   string `json:"End"`
}

// CostSummary is the cost breakdown over a period
type CostSummary struct {
	TimePeriod      TimePeriod         `json:"timePeriod"`
	GroupBy         string             `json:"groupBy"`
	TotalCost       float64            `json:"totalCost"`
	AttributedCost  float64            `json:"attributedCost"`
	UnaccountedCost float64            `json:"unaccountedCost"`
	Breakdown       map[string]float64 `json:"breakdown"`
}

// TrendPoint is the cost of a single day
type TrendPoint struct {
	Date string  `json:"date"`
	Cost float64 `json:"cost"`
}

// TrendSeries holds the daily cost trend and burn metrics.
// InsufficientData is set when the period had no days, in which case the
// burn metrics are zero rather than undefined.
type TrendSeries struct {
	Total            float64      `json:"total"`
	DailyBurn        float64      `json:"dailyBurn"`
	ProjectedMonthly float64      `json:"projectedMonthly"`
	Trend            []TrendPoint `json:"trend"`
	InsufficientData bool         `json:"insufficientData,omitempty"`
}

// SpikePoint is a trend day with its spike flag
type SpikePoint struct {
	TrendPoint
	Spike bool `json:"spike"`
}

// SpikeReport is the result of spike detection over a trend series
type SpikeReport struct {
	Mean      float64      `json:"mean"`
	Threshold float64      `json:"threshold"`
	Days      []SpikePoint `json:"days"`
}
