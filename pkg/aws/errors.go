package aws

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"

	"github.com/younsl/costboard/internal/models"
)

// authErrorCodes are API error codes that mean the caller's credentials were rejected
var authErrorCodes = map[string]bool{
	"AccessDenied":                true,
	"AccessDeniedException":       true,
	"AuthFailure":                 true,
	"ExpiredToken":                true,
	"ExpiredTokenException":       true,
	"InvalidAccessKeyId":          true,
	"InvalidClientTokenId":        true,
	"SignatureDoesNotMatch":       true,
	"UnauthorizedOperation":       true,
	"UnrecognizedClientException": true,
}

// classifyError wraps err with the pipeline error kind it maps to
func classifyError(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && authErrorCodes[apiErr.ErrorCode()] {
		return fmt.Errorf("error %s: %w: %w", op, models.ErrUpstreamAuth, err)
	}
	return fmt.Errorf("error %s: %w: %w", op, models.ErrUpstreamUnavailable, err)
}
