package models

import (
	"fmt"
	"time"
)

// UtilizationWindow names a lookback window for a utilization timeline
type UtilizationWindow string

const (
	WindowHour UtilizationWindow = "1h"
	WindowDay  UtilizationWindow = "24h"
	WindowWeek UtilizationWindow = "7d"
)

// DefaultUtilizationWindow is used when no window is requested
const DefaultUtilizationWindow = WindowDay

// UtilizationWindows lists the supported windows, shortest first
var UtilizationWindows = []UtilizationWindow{WindowHour, WindowDay, WindowWeek}

// ParseUtilizationWindow validates a window name. An empty name selects
// DefaultUtilizationWindow.
func ParseUtilizationWindow(s string) (UtilizationWindow, error) {
	switch w := UtilizationWindow(s); w {
	case "":
		return DefaultUtilizationWindow, nil
	case WindowHour, WindowDay, WindowWeek:
		return w, nil
	}
	return "", fmt.Errorf("unknown utilization window %q (want 1h, 24h or 7d)", s)
}

// Duration returns how far back the window reaches
func (w UtilizationWindow) Duration() time.Duration {
	switch w {
	case WindowHour:
		return time.Hour
	case WindowWeek:
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Period returns the bucket size datapoints are averaged over, keeping
// every window at a chartable number of points
func (w UtilizationWindow) Period() time.Duration {
	switch w {
	case WindowHour:
		return 5 * time.Minute
	case WindowWeek:
		return 6 * time.Hour
	default:
		return time.Hour
	}
}

// TimelinePoint is one CPU datapoint of a utilization timeline
type TimelinePoint struct {
	Timestamp time.Time `json:"timestamp"`
	CPU       float64   `json:"cpu"`
}

// UtilizationTimeline is the CPU series of one instance over a window,
// oldest point first
type UtilizationTimeline struct {
	InstanceID string            `json:"instanceId"`
	Window     UtilizationWindow `json:"window"`
	Points     []TimelinePoint   `json:"points"`
}
