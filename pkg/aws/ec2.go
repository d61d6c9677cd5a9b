package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/younsl/costboard/internal/models"
)

// EC2Client lists EC2 instances in a single region
type EC2Client struct {
	client ec2.DescribeInstancesAPIClient
	region string
}

// NewEC2Client creates a new EC2Client from an AWS config
func NewEC2Client(cfg aws.Config) *EC2Client {
	return &EC2Client{
		client: ec2.NewFromConfig(cfg),
		region: cfg.Region,
	}
}

// NewEC2ClientWithAPI creates an EC2Client around an existing API client
func NewEC2ClientWithAPI(api ec2.DescribeInstancesAPIClient, region string) *EC2Client {
	return &EC2Client{client: api, region: region}
}

// ListInstances returns every instance across all reservations, in the order
// the API returns them
func (c *EC2Client) ListInstances(ctx context.Context) ([]models.RawInstance, error) {
	instances := []models.RawInstance{}

	paginator := ec2.NewDescribeInstancesPaginator(c.client, &ec2.DescribeInstancesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classifyError("querying EC2 instances in "+c.region, err)
		}

		for _, reservation := range page.Reservations {
			for _, instance := range reservation.Instances {
				raw := models.RawInstance{
					InstanceID:   instance.InstanceId,
					InstanceType: string(instance.InstanceType),
					LaunchTime:   instance.LaunchTime,
				}
				if instance.Placement != nil {
					raw.AvailabilityZone = aws.ToString(instance.Placement.AvailabilityZone)
				}
				instances = append(instances, raw)
			}
		}
	}

	return instances, nil
}
