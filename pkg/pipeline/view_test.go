package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/younsl/costboard/internal/models"
)

func sampleDashboard() *models.Dashboard {
	summary, trend := AggregateCost(models.TimePeriod{Start: "2025-07-01", End: "2025-07-07"}, "REGION", weekOfBilling())
	return &models.Dashboard{
		AllInstances: sampleRecords(),
		CostData:     summary,
		TrendData:    trend,
	}
}

func TestBuildView(t *testing.T) {
	dashboard := sampleDashboard()

	view, err := BuildView(dashboard, models.ViewRequest{
		Filters: models.FilterState{Region: []string{"us-east-1"}},
		OrderBy: "costPerHour",
		Order:   models.SortDesc,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"i-xyz789", "i-abc123", "i-jkl345"}, annotatedIDs(view.Instances))
	assert.Equal(t, models.WasteHigh, view.Instances[0].Waste)
	assert.Equal(t, 710.0, view.CostData.TotalCost)
	assert.Equal(t, map[string]float64{"us-east-1": 710}, view.CostData.Breakdown)
	assert.Equal(t, dashboard.TrendData, view.TrendData)
	assert.Equal(t, 204.64, view.Spikes.Threshold)
	assert.Equal(t, []string{"us-east-1", "us-west-2"}, view.Options.Region)

	// The dashboard backing the view is unchanged
	assert.Equal(t, sampleDashboard(), dashboard)
}

func TestBuildViewEmptyRequest(t *testing.T) {
	dashboard := sampleDashboard()

	view, err := BuildView(dashboard, models.ViewRequest{})
	require.NoError(t, err)

	require.Len(t, view.Instances, len(dashboard.AllInstances))
	for i, instance := range view.Instances {
		assert.Equal(t, dashboard.AllInstances[i], instance.InstanceRecord)
	}
	assert.Equal(t, dashboard.CostData, view.CostData)
}

func TestBuildViewUnknownColumn(t *testing.T) {
	_, err := BuildView(sampleDashboard(), models.ViewRequest{OrderBy: "owner"})
	assert.ErrorIs(t, err, ErrUnknownSortColumn)
}
