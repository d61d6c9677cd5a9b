package aws

import (
	"context"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwTypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/younsl/costboard/internal/models"
)

const (
	namespaceEC2         = "AWS/EC2"
	metricCPUUtilization = "CPUUtilization"
)

// MetricStatisticsAPI is the subset of the CloudWatch client used here
type MetricStatisticsAPI interface {
	GetMetricStatistics(ctx context.Context, params *cloudwatch.GetMetricStatisticsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error)
}

// CloudWatchClient reads instance CPU utilization from CloudWatch
type CloudWatchClient struct {
	client MetricStatisticsAPI
	window time.Duration
	period time.Duration
	now    func() time.Time
}

// NewCloudWatchClient creates a CloudWatchClient averaging over window in period buckets
func NewCloudWatchClient(cfg aws.Config, window, period time.Duration) *CloudWatchClient {
	return NewCloudWatchClientWithAPI(cloudwatch.NewFromConfig(cfg), window, period)
}

// NewCloudWatchClientWithAPI creates a CloudWatchClient around an existing API client
func NewCloudWatchClientWithAPI(api MetricStatisticsAPI, window, period time.Duration) *CloudWatchClient {
	return &CloudWatchClient{
		client: api,
		window: window,
		period: period,
		now:    time.Now,
	}
}

// CPUSamples returns the average CPU utilization datapoints of an instance
// over the lookback window, newest first. An instance with no datapoints
// yields an empty slice.
func (c *CloudWatchClient) CPUSamples(ctx context.Context, instanceID string) ([]models.UtilizationSample, error) {
	return c.CPUSeries(ctx, instanceID, c.window, c.period)
}

// CPUSeries is CPUSamples over an explicit window and period
func (c *CloudWatchClient) CPUSeries(ctx context.Context, instanceID string, window, period time.Duration) ([]models.UtilizationSample, error) {
	endTime := c.now()
	startTime := endTime.Add(-window)

	result, err := c.client.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String(namespaceEC2),
		MetricName: aws.String(metricCPUUtilization),
		Dimensions: []cwTypes.Dimension{
			{
				Name:  aws.String("InstanceId"),
				Value: aws.String(instanceID),
			},
		},
		StartTime:  aws.Time(startTime),
		EndTime:    aws.Time(endTime),
		Period:     aws.Int32(int32(period.Seconds())),
		Statistics: []cwTypes.Statistic{cwTypes.StatisticAverage},
	})
	if err != nil {
		return nil, classifyError("reading CPU utilization for "+instanceID, err)
	}

	samples := make([]models.UtilizationSample, 0, len(result.Datapoints))
	for _, datapoint := range result.Datapoints {
		if datapoint.Average == nil {
			continue
		}
		samples = append(samples, models.UtilizationSample{
			Timestamp: aws.ToTime(datapoint.Timestamp),
			Average:   *datapoint.Average,
		})
	}

	// Sort by timestamp (descending)
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp.After(samples[j].Timestamp)
	})

	return samples, nil
}
