package models

// Dashboard is the aggregation result served to the dashboard
type Dashboard struct {
	AllInstances []InstanceRecord `json:"allInstances"`
	CostData     CostSummary      `json:"costData"`
	TrendData    TrendSeries      `json:"trendData"`
}

// FilterState selects instances by region, instance type and waste level.
// An empty slice places no restriction on that dimension.
type FilterState struct {
	Region       []string `json:"region"`
	InstanceType []string `json:"instanceType"`
	Waste        []string `json:"waste"`
}

// IsEmpty reports whether no dimension is restricted
func (f FilterState) IsEmpty() bool {
	return len(f.Region) == 0 && len(f.InstanceType) == 0 && len(f.Waste) == 0
}

// FilterOptions lists the values selectable in each filter dimension
type FilterOptions struct {
	Region       []string `json:"region"`
	InstanceType []string `json:"instanceType"`
	Waste        []string `json:"waste"`
}

// SortOrder is the direction of a sort
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ViewRequest is a filter and sort selection from the presentation layer
type ViewRequest struct {
	Filters FilterState `json:"filters"`
	OrderBy string      `json:"orderBy"`
	Order   SortOrder   `json:"order"`
}

// View is a filtered, sorted projection of a Dashboard
type View struct {
	Instances []AnnotatedInstance `json:"instances"`
	CostData  CostSummary         `json:"costData"`
	TrendData TrendSeries         `json:"trendData"`
	Spikes    SpikeReport         `json:"spikes"`
	Options   FilterOptions       `json:"options"`
}
