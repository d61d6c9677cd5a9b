package source

import (
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"

	"github.com/younsl/costboard/pkg/aws"
)

// Live reads inventory from EC2, utilization from CloudWatch and billing
// from Cost Explorer
type Live struct {
	*aws.EC2Client
	*aws.CloudWatchClient
	*aws.CostExplorerClient
}

// NewLive creates a Live provider from a credentialed AWS config
func NewLive(cfg sdkaws.Config, utilizationWindow, utilizationPeriod time.Duration) *Live {
	return &Live{
		EC2Client:          aws.NewEC2Client(cfg),
		CloudWatchClient:   aws.NewCloudWatchClient(cfg, utilizationWindow, utilizationPeriod),
		CostExplorerClient: aws.NewCostExplorerClient(cfg),
	}
}

// Kind implements Provider
func (l *Live) Kind() Kind {
	return KindLive
}
