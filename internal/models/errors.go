package models

import "errors"

// Error kinds surfaced by the aggregation pipeline
var (
	// ErrUpstreamAuth indicates the credential or role exchange failed
	ErrUpstreamAuth = errors.New("upstream authentication failed")

	// ErrUpstreamUnavailable indicates an inventory, metrics or billing call failed or timed out
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrMalformedUpstreamData indicates a required field such as a join key was missing
	ErrMalformedUpstreamData = errors.New("malformed upstream data")

	// ErrInsufficientPeriodData indicates a cost period with no days
	ErrInsufficientPeriodData = errors.New("insufficient period data")
)

// ErrorKind returns a short label for the error kind of err, for logs and metrics
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUpstreamAuth):
		return "upstream_auth"
	case errors.Is(err, ErrUpstreamUnavailable):
		return "upstream_unavailable"
	case errors.Is(err, ErrMalformedUpstreamData):
		return "malformed_upstream_data"
	case errors.Is(err, ErrInsufficientPeriodData):
		return "insufficient_period_data"
	default:
		return "internal"
	}
}
