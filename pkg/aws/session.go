package aws

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/rs/zerolog"

	"github.com/younsl/costboard/internal/models"
	"github.com/younsl/costboard/pkg/utils"
)

// SessionOptions configures how AWS credentials are obtained
type SessionOptions struct {
	Region          string
	RoleARN         string
	SessionName     string
	SessionDuration time.Duration
}

// RegionMetadataAPI is the subset of the IMDS client used for region discovery
type RegionMetadataAPI interface {
	GetRegion(ctx context.Context, params *imds.GetRegionInput, optFns ...func(*imds.Options)) (*imds.GetRegionOutput, error)
}

// ResolveRegion returns the configured region, falling back to AWS_REGION,
// then to the instance metadata service, then to the default region
func ResolveRegion(ctx context.Context, configured string, metadata RegionMetadataAPI, logger zerolog.Logger) string {
	if configured != "" {
		return configured
	}
	if region := os.Getenv("AWS_REGION"); region != "" {
		return region
	}

	if metadata != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		out, err := metadata.GetRegion(ctx, &imds.GetRegionInput{})
		if err == nil && out.Region != "" {
			logger.Debug().Str("region", out.Region).Msg("region discovered from instance metadata")
			return out.Region
		}
		logger.Debug().Err(err).Msg("instance metadata unavailable")
	}

	return utils.GetDefaultRegion()
}

// NewMetadataClient creates an IMDS client for region discovery
func NewMetadataClient() *imds.Client {
	return imds.New(imds.Options{})
}

// LoadConfig loads the AWS configuration for the given options. When a role
// ARN is set the returned config uses temporary credentials obtained by
// assuming that role. Credentials are retrieved once up front so that an
// auth failure surfaces here instead of on the first API call.
func LoadConfig(ctx context.Context, opts SessionOptions) (aws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithRetryMode(aws.RetryModeStandard),
		config.WithEC2IMDSClientEnableState(imds.ClientEnabled),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("error loading AWS config: %w: %w", models.ErrUpstreamAuth, err)
	}

	if opts.RoleARN != "" {
		provider := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(cfg), opts.RoleARN, func(o *stscreds.AssumeRoleOptions) {
			o.RoleSessionName = opts.SessionName
			if opts.SessionDuration > 0 {
				o.Duration = opts.SessionDuration
			}
		})
		cfg.Credentials = aws.NewCredentialsCache(provider)
	}

	if _, err := cfg.Credentials.Retrieve(ctx); err != nil {
		return aws.Config{}, fmt.Errorf("error retrieving AWS credentials: %w: %w", models.ErrUpstreamAuth, err)
	}

	return cfg, nil
}
