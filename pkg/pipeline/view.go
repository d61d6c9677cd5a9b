package pipeline

import (
	"fmt"

	"github.com/younsl/costboard/internal/models"
)

// BuildView projects a dashboard through a filter and sort selection.
// The dashboard itself is left untouched, so the same result can back any
// number of views.
func BuildView(dashboard *models.Dashboard, req models.ViewRequest) (models.View, error) {
	filtered := ApplyFilter(dashboard.AllInstances, req.Filters)

	sorted, err := SortInstances(Annotate(filtered), req.OrderBy, req.Order)
	if err != nil {
		return models.View{}, fmt.Errorf("error sorting instances: %w", err)
	}

	return models.View{
		Instances: sorted,
		CostData:  FilterCost(dashboard.CostData, req.Filters),
		TrendData: dashboard.TrendData,
		Spikes:    DetectSpikes(dashboard.TrendData.Trend),
		Options:   FilterOptions(dashboard.AllInstances),
	}, nil
}
