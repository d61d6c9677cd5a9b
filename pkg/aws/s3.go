package aws

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// GetObjectAPI is the subset of the S3 client used here
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Client reads objects from S3
type S3Client struct {
	client GetObjectAPI
}

// NewS3Client creates a new S3Client from an AWS config
func NewS3Client(cfg aws.Config) *S3Client {
	return &S3Client{client: s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})}
}

// NewS3ClientWithAPI creates an S3Client around an existing API client
func NewS3ClientWithAPI(api GetObjectAPI) *S3Client {
	return &S3Client{client: api}
}

// ParseS3URI splits an s3://bucket/key URI
func ParseS3URI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 uri: %q", uri)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 uri must be s3://bucket/key: %q", uri)
	}
	return bucket, key, nil
}

// ReadObject returns the full body of s3://bucket/key
func (c *S3Client) ReadObject(ctx context.Context, uri string) ([]byte, error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}

	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, classifyError("reading "+uri, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, classifyError("reading "+uri, err)
	}
	return body, nil
}
