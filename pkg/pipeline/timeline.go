package pipeline

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/younsl/costboard/internal/models"
)

// TimelineSource produces the utilization timeline of one instance
type TimelineSource interface {
	Timeline(ctx context.Context, instanceID string, window models.UtilizationWindow) (models.UtilizationTimeline, error)
}

// BuildTimeline orders samples oldest first and clamps each average to
// 0-100, rounded to 2 decimal places. NaN samples are dropped.
func BuildTimeline(instanceID string, window models.UtilizationWindow, samples []models.UtilizationSample) models.UtilizationTimeline {
	points := make([]models.TimelinePoint, 0, len(samples))
	for _, sample := range samples {
		if math.IsNaN(sample.Average) {
			continue
		}
		points = append(points, models.TimelinePoint{
			Timestamp: sample.Timestamp.UTC(),
			CPU:       Round2(math.Max(0, math.Min(100, sample.Average))),
		})
	}

	slices.SortStableFunc(points, func(a, b models.TimelinePoint) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	return models.UtilizationTimeline{
		InstanceID: instanceID,
		Window:     window,
		Points:     points,
	}
}

// Timeline fetches the CPU series of one instance over window. An instance
// without datapoints yields an empty timeline.
func (a *Aggregator) Timeline(ctx context.Context, instanceID string, window models.UtilizationWindow) (models.UtilizationTimeline, error) {
	instanceID = strings.TrimSpace(instanceID)
	if instanceID == "" {
		return models.UtilizationTimeline{}, fmt.Errorf("%w: empty instance id", ErrInvalidRequest)
	}
	window, err := models.ParseUtilizationWindow(string(window))
	if err != nil {
		return models.UtilizationTimeline{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, a.opts.FetchTimeout)
	defer cancel()

	started := time.Now()
	samples, err := a.provider.CPUSeries(callCtx, instanceID, window.Duration(), window.Period())
	if err != nil {
		err = fmt.Errorf("error fetching utilization timeline for %s: %w", instanceID, upstreamError(err))
		a.logger.Error().
			Err(err).
			Str("kind", models.ErrorKind(err)).
			Str("instance_id", instanceID).
			Msg("Timeline failed")
		return models.UtilizationTimeline{}, err
	}

	timeline := BuildTimeline(instanceID, window, samples)
	a.logger.Debug().
		Str("instance_id", instanceID).
		Str("window", string(window)).
		Int("points", len(timeline.Points)).
		Dur("elapsed", time.Since(started)).
		Msg("Timeline built")

	return timeline, nil
}
