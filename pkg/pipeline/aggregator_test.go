package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwTypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	ceTypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2Types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/younsl/costboard/internal/models"
	costaws "github.com/younsl/costboard/pkg/aws"
	"github.com/younsl/costboard/pkg/pricing"
	"github.com/younsl/costboard/pkg/source"
)

const fixturePath = "../source/testdata/fixture.yaml"

var fixtureNow = time.Date(2025, 7, 8, 12, 0, 0, 0, time.UTC)

type fakeProvider struct {
	instances  []models.RawInstance
	samples    map[string][]models.UtilizationSample
	billing    []models.BillingDay
	listErr    error
	billingErr error
	cpuErr     map[string]error
	cpuDelay   time.Duration
	blockCPU   bool

	mu          sync.Mutex
	inFlight    int
	maxInFlight int
	costArgs    []string
	seriesArgs  []time.Duration
}

func (f *fakeProvider) Kind() source.Kind { return source.KindFixture }

func (f *fakeProvider) ListInstances(_ context.Context) ([]models.RawInstance, error) {
	return f.instances, f.listErr
}

func (f *fakeProvider) CPUSamples(ctx context.Context, instanceID string) ([]models.UtilizationSample, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.blockCPU {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.cpuDelay > 0 {
		time.Sleep(f.cpuDelay)
	}
	if err := f.cpuErr[instanceID]; err != nil {
		return nil, err
	}
	return f.samples[instanceID], nil
}

func (f *fakeProvider) CPUSeries(_ context.Context, instanceID string, window, period time.Duration) ([]models.UtilizationSample, error) {
	f.mu.Lock()
	f.seriesArgs = []time.Duration{window, period}
	f.mu.Unlock()
	if err := f.cpuErr[instanceID]; err != nil {
		return nil, err
	}
	return f.samples[instanceID], nil
}

func (f *fakeProvider) DailyCost(_ context.Context, start, end, groupBy string) ([]models.BillingDay, error) {
	f.mu.Lock()
	f.costArgs = []string{start, end, groupBy}
	f.mu.Unlock()
	return f.billing, f.billingErr
}

func newTestAggregator(provider source.Provider, opts Options) *Aggregator {
	agg := NewAggregator(provider, pricing.StaticResolver{}, opts, zerolog.Nop())
	agg.SetClock(func() time.Time { return fixtureNow })
	return agg
}

func loadTestFixture(t *testing.T) *source.Fixture {
	t.Helper()
	fixture, err := source.LoadFixture(context.Background(), fixturePath, nil)
	require.NoError(t, err)
	return fixture
}

func TestAggregateFixture(t *testing.T) {
	agg := newTestAggregator(loadTestFixture(t), Options{})

	dashboard, err := agg.Aggregate(context.Background(), Request{})
	require.NoError(t, err)

	assert.Equal(t, []models.InstanceRecord{
		{InstanceID: "i-abc123", InstanceType: "g4dn.xlarge", Region: "us-east-1", CPU: 12, GPU: true, UptimeHours: 60, CostPerHour: 0.526},
		{InstanceID: "i-def456", InstanceType: "t3.medium", Region: "us-west-2", CPU: 72, UptimeHours: 17, CostPerHour: 0.0416},
		{InstanceID: "i-xyz789", InstanceType: "p3.2xlarge", Region: "us-east-1", CPU: 9, GPU: true, UptimeHours: 36, CostPerHour: 3.06},
		{InstanceID: "i-ghi012", InstanceType: "m7i.large", Region: "eu-west-2", CPU: 0, UptimeHours: 180, CostPerHour: pricing.PlaceholderHourlyCost, UnknownCost: true},
	}, dashboard.AllInstances)

	assert.Equal(t, models.TimePeriod{Start: "2025-07-01", End: "2025-07-07"}, dashboard.CostData.TimePeriod)
	assert.Equal(t, "REGION", dashboard.CostData.GroupBy)
	assert.Equal(t, 955.0, dashboard.CostData.TotalCost)
	assert.Equal(t, map[string]float64{"us-east-1": 745, "us-west-2": 210}, dashboard.CostData.Breakdown)
	assert.Zero(t, dashboard.CostData.UnaccountedCost)

	assert.Equal(t, 136.43, dashboard.TrendData.DailyBurn)
	assert.Equal(t, 4092.86, dashboard.TrendData.ProjectedMonthly)
	assert.Len(t, dashboard.TrendData.Trend, 7)
}

func TestAggregatePassesPeriodAndGroupBy(t *testing.T) {
	provider := &fakeProvider{}
	agg := newTestAggregator(provider, Options{})

	_, err := agg.Aggregate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-07-01", "2025-07-08", "REGION"}, provider.costArgs)

	dashboard, err := agg.Aggregate(context.Background(), Request{LookbackDays: 30, GroupBy: "SERVICE"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-06-08", "2025-07-08", "SERVICE"}, provider.costArgs)
	assert.Equal(t, models.TimePeriod{Start: "2025-06-08", End: "2025-07-07"}, dashboard.CostData.TimePeriod)
}

func TestAggregateNoBillingDays(t *testing.T) {
	agg := newTestAggregator(&fakeProvider{}, Options{})

	dashboard, err := agg.Aggregate(context.Background(), Request{})
	require.NoError(t, err)

	assert.NotNil(t, dashboard.AllInstances)
	assert.Empty(t, dashboard.AllInstances)
	assert.True(t, dashboard.TrendData.InsufficientData)
	assert.Zero(t, dashboard.TrendData.DailyBurn)
}

func TestAggregateRejectsNegativeLookback(t *testing.T) {
	agg := newTestAggregator(&fakeProvider{}, Options{})

	_, err := agg.Aggregate(context.Background(), Request{LookbackDays: -1})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestAggregateAbortsOnFetchFailure(t *testing.T) {
	instances := []models.RawInstance{
		{InstanceID: aws.String("i-1"), InstanceType: "t3.medium", AvailabilityZone: "us-east-1a"},
		{InstanceID: aws.String("i-2"), InstanceType: "t3.medium", AvailabilityZone: "us-east-1b"},
	}

	tests := []struct {
		name     string
		provider *fakeProvider
		wantErr  error
	}{
		{
			name:     "inventory unavailable",
			provider: &fakeProvider{listErr: errors.New("connection reset")},
			wantErr:  models.ErrUpstreamUnavailable,
		},
		{
			name: "billing denied",
			provider: &fakeProvider{
				instances:  instances,
				billingErr: fmt.Errorf("error querying cost and usage: %w", models.ErrUpstreamAuth),
			},
			wantErr: models.ErrUpstreamAuth,
		},
		{
			name: "one utilization call fails",
			provider: &fakeProvider{
				instances: instances,
				cpuErr:    map[string]error{"i-2": errors.New("throttled")},
			},
			wantErr: models.ErrUpstreamUnavailable,
		},
		{
			name: "instance without id",
			provider: &fakeProvider{
				instances: append(instances, models.RawInstance{InstanceType: "t3.medium"}),
			},
			wantErr: models.ErrMalformedUpstreamData,
		},
		{
			name: "duplicate instance id",
			provider: &fakeProvider{
				instances: append(instances, instances[0]),
			},
			wantErr: models.ErrMalformedUpstreamData,
		},
		{
			name: "malformed billing amount",
			provider: &fakeProvider{
				instances: instances,
				billing: []models.BillingDay{{
					Start:  "2025-07-01",
					Groups: []models.BillingGroup{{Keys: []string{"us-east-1"}, Amount: "twelve"}},
				}},
			},
			wantErr: models.ErrMalformedUpstreamData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := newTestAggregator(tt.provider, Options{})

			dashboard, err := agg.Aggregate(context.Background(), Request{})
			assert.Nil(t, dashboard)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAggregateUtilizationTimeout(t *testing.T) {
	provider := &fakeProvider{
		instances: []models.RawInstance{{InstanceID: aws.String("i-slow"), AvailabilityZone: "us-east-1a"}},
		blockCPU:  true,
	}
	agg := newTestAggregator(provider, Options{FetchTimeout: 20 * time.Millisecond})

	_, err := agg.Aggregate(context.Background(), Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, models.ErrUpstreamUnavailable)
}

func TestAggregateBoundsUtilizationConcurrency(t *testing.T) {
	provider := &fakeProvider{cpuDelay: 10 * time.Millisecond}
	for i := 0; i < 12; i++ {
		provider.instances = append(provider.instances, models.RawInstance{
			InstanceID:       aws.String(fmt.Sprintf("i-%02d", i)),
			AvailabilityZone: "us-east-1a",
		})
	}
	agg := newTestAggregator(provider, Options{FetchConcurrency: 3})

	dashboard, err := agg.Aggregate(context.Background(), Request{})
	require.NoError(t, err)

	assert.Len(t, dashboard.AllInstances, 12)
	assert.LessOrEqual(t, provider.maxInFlight, 3)
	for i, record := range dashboard.AllInstances {
		assert.Equal(t, fmt.Sprintf("i-%02d", i), record.InstanceID)
	}
}

// SDK fakes serving a fixture document, so the live provider can be run
// against the same raw data as the fixture provider

type fakeEC2 struct{ doc source.Document }

func (f fakeEC2) DescribeInstances(_ context.Context, _ *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	reservation := ec2Types.Reservation{}
	for _, raw := range f.doc.Instances {
		reservation.Instances = append(reservation.Instances, ec2Types.Instance{
			InstanceId:   raw.InstanceID,
			InstanceType: ec2Types.InstanceType(raw.InstanceType),
			Placement:    &ec2Types.Placement{AvailabilityZone: aws.String(raw.AvailabilityZone)},
			LaunchTime:   raw.LaunchTime,
		})
	}
	return &ec2.DescribeInstancesOutput{Reservations: []ec2Types.Reservation{reservation}}, nil
}

type fakeCloudWatch struct{ doc source.Document }

func (f fakeCloudWatch) GetMetricStatistics(_ context.Context, params *cloudwatch.GetMetricStatisticsInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error) {
	instanceID := aws.ToString(params.Dimensions[0].Value)
	out := &cloudwatch.GetMetricStatisticsOutput{}
	for _, sample := range f.doc.Utilization[instanceID] {
		out.Datapoints = append(out.Datapoints, cwTypes.Datapoint{
			Timestamp: aws.Time(sample.Timestamp),
			Average:   aws.Float64(sample.Average),
		})
	}
	return out, nil
}

type fakeCostExplorer struct{ doc source.Document }

func (f fakeCostExplorer) GetCostAndUsage(_ context.Context, _ *costexplorer.GetCostAndUsageInput, _ ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error) {
	out := &costexplorer.GetCostAndUsageOutput{}
	for _, day := range f.doc.Billing {
		result := ceTypes.ResultByTime{
			TimePeriod: &ceTypes.DateInterval{Start: aws.String(day.Start), End: aws.String(day.End)},
		}
		for _, group := range day.Groups {
			result.Groups = append(result.Groups, ceTypes.Group{
				Keys:    group.Keys,
				Metrics: map[string]ceTypes.MetricValue{"UnblendedCost": {Amount: aws.String(group.Amount), Unit: aws.String("USD")}},
			})
		}
		out.ResultsByTime = append(out.ResultsByTime, result)
	}
	return out, nil
}

func TestAggregateFixtureMatchesLive(t *testing.T) {
	data, err := os.ReadFile(fixturePath)
	require.NoError(t, err)
	doc, err := source.DecodeDocument(data, ".yaml")
	require.NoError(t, err)

	live := &source.Live{
		EC2Client:          costaws.NewEC2ClientWithAPI(fakeEC2{doc}, "us-east-1"),
		CloudWatchClient:   costaws.NewCloudWatchClientWithAPI(fakeCloudWatch{doc}, time.Hour, 5*time.Minute),
		CostExplorerClient: costaws.NewCostExplorerClientWithAPI(fakeCostExplorer{doc}),
	}

	fromFixture, err := newTestAggregator(source.NewFixture(doc), Options{}).Aggregate(context.Background(), Request{})
	require.NoError(t, err)
	fromLive, err := newTestAggregator(live, Options{}).Aggregate(context.Background(), Request{})
	require.NoError(t, err)

	assert.Equal(t, fromFixture, fromLive)
}
