package models

import "time"

// RawInstance is an inventory entry as returned by the inventory source,
// before normalization. InstanceID is a pointer so a missing id can be
// told apart from an empty one.
type RawInstance struct {
	InstanceID       *string    `json:"instanceId" yaml:"instance_id"`
	InstanceType     string     `json:"instanceType" yaml:"instance_type"`
	AvailabilityZone string     `json:"availabilityZone" yaml:"availability_zone"`
	LaunchTime       *time.Time `json:"launchTime" yaml:"launch_time"`
}

// UtilizationSample is one averaged CPU datapoint for an instance
type UtilizationSample struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Average   float64   `json:"average" yaml:"average"`
}

// NormalizedInstance is an inventory entry with every derived field filled in
type NormalizedInstance struct {
	InstanceID   string
	InstanceType string
	Region       string
	GPUPresent   bool
	UptimeHours  int
	CostPerHour  float64
	UnknownCost  bool
}

// InstanceRecord is the joined per-instance record exposed to the dashboard
type InstanceRecord struct {
	InstanceID   string  `json:"instanceId"`
	InstanceType string  `json:"instanceType"`
	Region       string  `json:"region"`
	CPU          int     `json:"cpu"`
	GPU          bool    `json:"gpu"`
	UptimeHours  int     `json:"uptimeHours"`
	CostPerHour  float64 `json:"costPerHour"`
	UnknownCost  bool    `json:"unknownCost,omitempty"` // CostPerHour is a placeholder
}

// AnnotatedInstance is an InstanceRecord with its computed waste level
type AnnotatedInstance struct {
	InstanceRecord
	Waste WasteLevel `json:"waste"`
}
