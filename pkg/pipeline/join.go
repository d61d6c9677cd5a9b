package pipeline

import (
	"fmt"

	"github.com/younsl/costboard/internal/models"
)

// Join merges normalized inventory with CPU percentages keyed by instance id.
// Output order follows inventory order. Instances with no utilization entry
// get 0. An empty or repeated instance id is a contract violation and fails
// the join.
func Join(instances []models.NormalizedInstance, utilization map[string]int) ([]models.InstanceRecord, error) {
	records := make([]models.InstanceRecord, 0, len(instances))
	seen := make(map[string]struct{}, len(instances))

	for i, instance := range instances {
		if instance.InstanceID == "" {
			return nil, fmt.Errorf("inventory entry %d has no instance id: %w", i, models.ErrMalformedUpstreamData)
		}
		if _, dup := seen[instance.InstanceID]; dup {
			return nil, fmt.Errorf("instance id %s appears more than once: %w", instance.InstanceID, models.ErrMalformedUpstreamData)
		}
		seen[instance.InstanceID] = struct{}{}

		records = append(records, models.InstanceRecord{
			InstanceID:   instance.InstanceID,
			InstanceType: instance.InstanceType,
			Region:       instance.Region,
			CPU:          utilization[instance.InstanceID],
			GPU:          instance.GPUPresent,
			UptimeHours:  instance.UptimeHours,
			CostPerHour:  instance.CostPerHour,
			UnknownCost:  instance.UnknownCost,
		})
	}

	return records, nil
}
