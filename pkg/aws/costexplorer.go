package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	ceTypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"

	"github.com/younsl/costboard/internal/models"
)

const metricUnblendedCost = "UnblendedCost"

// CostAndUsageAPI is the subset of the Cost Explorer client used here
type CostAndUsageAPI interface {
	GetCostAndUsage(ctx context.Context, params *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error)
}

// CostExplorerClient reads daily grouped costs from Cost Explorer
type CostExplorerClient struct {
	client CostAndUsageAPI
}

// NewCostExplorerClient creates a new CostExplorerClient from an AWS config
func NewCostExplorerClient(cfg aws.Config) *CostExplorerClient {
	return &CostExplorerClient{client: costexplorer.NewFromConfig(cfg)}
}

// NewCostExplorerClientWithAPI creates a CostExplorerClient around an existing API client
func NewCostExplorerClientWithAPI(api CostAndUsageAPI) *CostExplorerClient {
	return &CostExplorerClient{client: api}
}

// DailyCost returns unblended cost per day between start (inclusive) and
// end (exclusive), grouped by the given dimension. Days are returned in the
// order Cost Explorer reports them.
func (c *CostExplorerClient) DailyCost(ctx context.Context, start, end, groupBy string) ([]models.BillingDay, error) {
	input := &costexplorer.GetCostAndUsageInput{
		TimePeriod: &ceTypes.DateInterval{
			Start: aws.String(start),
			End:   aws.String(end),
		},
		Granularity: ceTypes.GranularityDaily,
		Metrics:     []string{metricUnblendedCost},
		GroupBy: []ceTypes.GroupDefinition{
			{
				Type: ceTypes.GroupDefinitionTypeDimension,
				Key:  aws.String(groupBy),
			},
		},
	}

	days := []models.BillingDay{}
	for {
		result, err := c.client.GetCostAndUsage(ctx, input)
		if err != nil {
			return nil, classifyError(fmt.Sprintf("querying cost and usage for %s..%s", start, end), err)
		}

		for _, byTime := range result.ResultsByTime {
			day := models.BillingDay{}
			if byTime.TimePeriod != nil {
				day.Start = aws.ToString(byTime.TimePeriod.Start)
				day.End = aws.ToString(byTime.TimePeriod.End)
			}

			for _, group := range byTime.Groups {
				metric, ok := group.Metrics[metricUnblendedCost]
				if !ok {
					continue
				}
				day.Groups = append(day.Groups, models.BillingGroup{
					Keys:   group.Keys,
					Amount: aws.ToString(metric.Amount),
				})
			}

			days = append(days, day)
		}

		if result.NextPageToken == nil || *result.NextPageToken == "" {
			break
		}
		input.NextPageToken = result.NextPageToken
	}

	return days, nil
}
