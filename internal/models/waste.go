package models

import (
	"fmt"
	"strings"
)

// WasteLevel classifies how much of an instance's spend is likely wasted.
// The numeric value is the sort ordinal.
type WasteLevel int

const (
	WasteLow    WasteLevel = 1
	WasteMedium WasteLevel = 2
	WasteHigh   WasteLevel = 3
)

// WasteLevels lists every level in ascending order
var WasteLevels = []WasteLevel{WasteLow, WasteMedium, WasteHigh}

// ClassifyWaste returns the waste level for the given CPU percentage and uptime.
// Every caller that needs a waste level must go through this function.
func ClassifyWaste(cpuPercent, uptimeHours int) WasteLevel {
	if cpuPercent < 30 && uptimeHours > 24 {
		return WasteHigh
	}
	if cpuPercent < 50 {
		return WasteMedium
	}
	return WasteLow
}

func (w WasteLevel) String() string {
	switch w {
	case WasteLow:
		return "Low"
	case WasteMedium:
		return "Medium"
	case WasteHigh:
		return "High"
	default:
		return fmt.Sprintf("WasteLevel(%d)", int(w))
	}
}

// ParseWasteLevel parses "Low", "Medium" or "High" (case-insensitive)
func ParseWasteLevel(s string) (WasteLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return WasteLow, nil
	case "medium":
		return WasteMedium, nil
	case "high":
		return WasteHigh, nil
	}
	return 0, fmt.Errorf("unknown waste level %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (w WasteLevel) MarshalText() ([]byte, error) {
	if w < WasteLow || w > WasteHigh {
		return nil, fmt.Errorf("invalid waste level %d", int(w))
	}
	return []byte(w.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (w *WasteLevel) UnmarshalText(text []byte) error {
	level, err := ParseWasteLevel(string(text))
	if err != nil {
		return err
	}
	*w = level
	return nil
}
