package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/younsl/costboard/internal/models"
	"github.com/younsl/costboard/pkg/pipeline"
	"github.com/younsl/costboard/pkg/pricing"
	"github.com/younsl/costboard/pkg/source"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeDashboards struct {
	dashboard *models.Dashboard
	err       error
	requests  []pipeline.Request
}

func (f *fakeDashboards) Aggregate(_ context.Context, req pipeline.Request) (*models.Dashboard, error) {
	f.requests = append(f.requests, req)
	return f.dashboard, f.err
}

func testDashboard() *models.Dashboard {
	return &models.Dashboard{
		AllInstances: []models.InstanceRecord{
			{InstanceID: "i-abc123", InstanceType: "g4dn.xlarge", Region: "us-east-1", CPU: 12, GPU: true, UptimeHours: 60, CostPerHour: 0.526},
			{InstanceID: "i-def456", InstanceType: "t3.medium", Region: "us-west-2", CPU: 72, UptimeHours: 17, CostPerHour: 0.0416},
		},
		CostData: models.CostSummary{
			TimePeriod: models.TimePeriod{Start: "2025-07-01", End: "2025-07-07"},
			GroupBy:    "REGION",
			TotalCost:  955,
			Breakdown:  map[string]float64{"us-east-1": 745, "us-west-2": 210},
		},
		TrendData: models.TrendSeries{
			Total:            955,
			DailyBurn:        136.43,
			ProjectedMonthly: 4092.86,
			Trend: []models.TrendPoint{
				{Date: "2025-07-01", Cost: 90}, {Date: "2025-07-02", Cost: 100}, {Date: "2025-07-03", Cost: 110},
				{Date: "2025-07-04", Cost: 210}, {Date: "2025-07-05", Cost: 105}, {Date: "2025-07-06", Cost: 120},
				{Date: "2025-07-07", Cost: 220},
			},
		},
	}
}

func newTestServer(src pipeline.DashboardSource, origins ...string) *Server {
	return New(src, nil, NewMetrics(), Options{AllowedOrigins: origins}, zerolog.Nop())
}

// newFixtureServer serves timelines from the shared fixture through a real aggregator
func newFixtureServer(t *testing.T) *Server {
	t.Helper()
	fixture, err := source.LoadFixture(context.Background(), "../source/testdata/fixture.yaml", nil)
	require.NoError(t, err)
	agg := pipeline.NewAggregator(fixture, pricing.StaticResolver{}, pipeline.Options{}, zerolog.Nop())
	return New(agg, agg, NewMetrics(), Options{}, zerolog.Nop())
}

type failingTimelines struct{}

func (failingTimelines) Timeline(_ context.Context, _ string, _ models.UtilizationWindow) (models.UtilizationTimeline, error) {
	return models.UtilizationTimeline{}, fmt.Errorf("reading series: %w", models.ErrUpstreamUnavailable)
}

func do(s *Server, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestGetEC2Data(t *testing.T) {
	src := &fakeDashboards{dashboard: testDashboard()}
	s := newTestServer(src)

	rec := do(s, http.MethodGet, "/api/getEC2Data", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "allInstances")
	assert.Contains(t, body, "costData")
	assert.Contains(t, body, "trendData")

	var instances []map[string]interface{}
	require.NoError(t, json.Unmarshal(body["allInstances"], &instances))
	require.Len(t, instances, 2)
	assert.Equal(t, "i-abc123", instances[0]["instanceId"])
	assert.Equal(t, "us-east-1", instances[0]["region"])
	assert.Equal(t, true, instances[0]["gpu"])
	assert.EqualValues(t, 12, instances[0]["cpu"])
	assert.NotContains(t, instances[0], "unknownCost")

	var cost map[string]interface{}
	require.NoError(t, json.Unmarshal(body["costData"], &cost))
	assert.Equal(t, map[string]interface{}{"Start": "2025-07-01", "End": "2025-07-07"}, cost["timePeriod"])

	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
	assert.Equal(t, []pipeline.Request{{}}, src.requests)
}

func TestGetEC2DataQueryParameters(t *testing.T) {
	src := &fakeDashboards{dashboard: testDashboard()}
	s := newTestServer(src)

	rec := do(s, http.MethodGet, "/api/getEC2Data?lookbackDays=30&groupBy=SERVICE", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []pipeline.Request{{LookbackDays: 30, GroupBy: "SERVICE"}}, src.requests)

	for _, query := range []string{"lookbackDays=abc", "lookbackDays=0", "groupBy=COLOR"} {
		rec = do(s, http.MethodGet, "/api/getEC2Data?"+query, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
	assert.Len(t, src.requests, 1)
}

func TestGetEC2DataFailure(t *testing.T) {
	kinds := []error{
		fmt.Errorf("error assuming role: %w", models.ErrUpstreamAuth),
		fmt.Errorf("error listing instances: %w", models.ErrUpstreamUnavailable),
		fmt.Errorf("error joining: %w", models.ErrMalformedUpstreamData),
		errors.New("unexpected"),
	}

	for _, err := range kinds {
		t.Run(models.ErrorKind(err), func(t *testing.T) {
			s := newTestServer(&fakeDashboards{err: err})

			rec := do(s, http.MethodGet, "/api/getEC2Data", "")
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.JSONEq(t, `{"error":"Failed to fetch EC2 data"}`, rec.Body.String())
		})
	}
}

func TestGetEC2DataInvalidRequest(t *testing.T) {
	s := newTestServer(&fakeDashboards{err: fmt.Errorf("%w: bad lookback", pipeline.ErrInvalidRequest)})

	rec := do(s, http.MethodGet, "/api/getEC2Data", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestView(t *testing.T) {
	src := &fakeDashboards{dashboard: testDashboard()}
	s := newTestServer(src)

	rec := do(s, http.MethodPost, "/api/view",
		`{"filters":{"region":["us-east-1"],"instanceType":[],"waste":["High"]},"orderBy":"cpu","order":"desc","lookbackDays":14}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var view models.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Instances, 1)
	assert.Equal(t, "i-abc123", view.Instances[0].InstanceID)
	assert.Equal(t, models.WasteHigh, view.Instances[0].Waste)
	assert.Equal(t, 745.0, view.CostData.TotalCost)
	assert.Equal(t, []string{"us-east-1", "us-west-2"}, view.Options.Region)
	assert.Equal(t, []pipeline.Request{{LookbackDays: 14}}, src.requests)
}

func TestViewBadRequests(t *testing.T) {
	src := &fakeDashboards{dashboard: testDashboard()}
	s := newTestServer(src)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"filters":`},
		{"unknown sort column", `{"orderBy":"owner"}`},
		{"unknown sort order", `{"orderBy":"cpu","order":"up"}`},
		{"negative lookback", `{"lookbackDays":-3}`},
		{"unknown group by", `{"groupBy":"COLOR"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(s, http.MethodPost, "/api/view", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	// rejected before any upstream aggregation
	assert.Empty(t, src.requests)
}

func TestSpikes(t *testing.T) {
	s := newTestServer(&fakeDashboards{dashboard: testDashboard()})

	rec := do(s, http.MethodGet, "/api/trend/spikes", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var report models.SpikeReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 204.64, report.Threshold)

	var spikeDates []string
	for _, day := range report.Days {
		if day.Spike {
			spikeDates = append(spikeDates, day.Date)
		}
	}
	assert.Equal(t, []string{"2025-07-04", "2025-07-07"}, spikeDates)
}

func TestOptions(t *testing.T) {
	s := newTestServer(&fakeDashboards{dashboard: testDashboard()})

	rec := do(s, http.MethodGet, "/api/options", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"region":["us-east-1","us-west-2"],"instanceType":["g4dn.xlarge","t3.medium"],"waste":["Low","Medium","High"]}`,
		rec.Body.String())
}

func TestHealthAndVersion(t *testing.T) {
	s := newTestServer(&fakeDashboards{})

	rec := do(s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(s, http.MethodGet, "/version", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"dev"`)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(&fakeDashboards{err: fmt.Errorf("denied: %w", models.ErrUpstreamAuth)})

	do(s, http.MethodGet, "/api/getEC2Data", "")

	rec := do(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.Contains(t, out, `costboard_aggregation_failures_total{kind="upstream_auth"} 1`)
	assert.Contains(t, out, `costboard_aggregation_duration_seconds_count{outcome="failure"} 1`)
	assert.Contains(t, out, `costboard_http_requests_total{code="500",route="/api/getEC2Data"} 1`)
}

func TestRequestIDIsPropagated(t *testing.T) {
	s := newTestServer(&fakeDashboards{})

	rec := do(s, http.MethodGet, "/healthz", "", requestIDHeader, "req-123")
	assert.Equal(t, "req-123", rec.Header().Get(requestIDHeader))
}

func TestCORS(t *testing.T) {
	t.Run("any origin", func(t *testing.T) {
		s := newTestServer(&fakeDashboards{}, "*")

		rec := do(s, http.MethodGet, "/healthz", "", "Origin", "http://localhost:3000")
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("allow list", func(t *testing.T) {
		s := newTestServer(&fakeDashboards{}, "http://localhost:3000")

		rec := do(s, http.MethodGet, "/healthz", "", "Origin", "http://localhost:3000")
		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

		rec = do(s, http.MethodGet, "/healthz", "", "Origin", "http://evil.example")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		s := newTestServer(&fakeDashboards{}, "http://localhost:3000")

		rec := do(s, http.MethodOptions, "/api/view", "", "Origin", "http://localhost:3000")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")

		rec = do(s, http.MethodOptions, "/api/view", "", "Origin", "http://evil.example")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestTimeline(t *testing.T) {
	s := newFixtureServer(t)

	rec := do(s, http.MethodGet, "/api/instances/i-abc123/utilization?window=7d", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var timeline models.UtilizationTimeline
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &timeline))
	assert.Equal(t, "i-abc123", timeline.InstanceID)
	assert.Equal(t, models.WindowWeek, timeline.Window)
	require.Len(t, timeline.Points, 2)
	assert.Equal(t, 30.2, timeline.Points[0].CPU)
	assert.Equal(t, 12.4, timeline.Points[1].CPU)

	rec = do(s, http.MethodGet, "/api/instances/i-ghi012/utilization", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &timeline))
	assert.Equal(t, models.DefaultUtilizationWindow, timeline.Window)
	assert.Empty(t, timeline.Points)
}

func TestTimelineErrors(t *testing.T) {
	rec := do(newFixtureServer(t), http.MethodGet, "/api/instances/i-abc123/utilization?window=30d", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s := New(&fakeDashboards{}, failingTimelines{}, NewMetrics(), Options{}, zerolog.Nop())
	rec = do(s, http.MethodGet, "/api/instances/i-abc123/utilization", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch utilization data"}`, rec.Body.String())
}
