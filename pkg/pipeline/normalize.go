package pipeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/younsl/costboard/internal/models"
	"github.com/younsl/costboard/pkg/pricing"
	"github.com/younsl/costboard/pkg/utils"
)

// GPUFamilyTokens are instance-type substrings that identify GPU instance families
var GPUFamilyTokens = []string{"g4", "g5", "g6", "p3", "p4", "p5"}

// DeriveRegion strips the zone letter from an availability zone
// ("us-east-1a" -> "us-east-1"). The last character is removed
// unconditionally, whatever it is.
func DeriveRegion(availabilityZone string) string {
	if availabilityZone == "" {
		return ""
	}
	_, size := utf8.DecodeLastRuneInString(availabilityZone)
	return availabilityZone[:len(availabilityZone)-size]
}

// HasGPU reports whether the instance type belongs to a GPU family
func HasGPU(instanceType string) bool {
	lower := strings.ToLower(instanceType)
	for _, token := range GPUFamilyTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

// NormalizeInstance fills in the derived fields of an inventory entry.
// Instance types missing from prices get the placeholder cost and are
// flagged UnknownCost.
func NormalizeInstance(raw models.RawInstance, prices pricing.Table, now time.Time) (models.NormalizedInstance, error) {
	instanceID := utils.SafeDeref(raw.InstanceID)
	if instanceID == "" {
		return models.NormalizedInstance{}, fmt.Errorf("instance of type %q in %q has no instance id: %w",
			raw.InstanceType, raw.AvailabilityZone, models.ErrMalformedUpstreamData)
	}

	price, ok := prices.Lookup(raw.InstanceType)
	if !ok {
		price = pricing.Placeholder()
	}

	uptime := 0
	if raw.LaunchTime != nil {
		uptime = utils.CalculateUptimeHours(*raw.LaunchTime, now)
	}

	return models.NormalizedInstance{
		InstanceID:   instanceID,
		InstanceType: raw.InstanceType,
		Region:       DeriveRegion(raw.AvailabilityZone),
		GPUPresent:   HasGPU(raw.InstanceType),
		UptimeHours:  uptime,
		CostPerHour:  price.PerHour,
		UnknownCost:  price.Source == pricing.PricingSourcePlaceholder,
	}, nil
}

// NormalizeInstances normalizes every inventory entry, keeping order. Any
// entry without an id fails the whole batch.
func NormalizeInstances(raws []models.RawInstance, prices pricing.Table, now time.Time) ([]models.NormalizedInstance, error) {
	normalized := make([]models.NormalizedInstance, 0, len(raws))
	for i, raw := range raws {
		instance, err := NormalizeInstance(raw, prices, now)
		if err != nil {
			return nil, fmt.Errorf("inventory entry %d: %w", i, err)
		}
		normalized = append(normalized, instance)
	}
	return normalized, nil
}

// NormalizeUtilization reduces utilization samples to a CPU percentage: the
// newest sample's average, rounded and clamped to 0-100. No samples yields 0.
func NormalizeUtilization(samples []models.UtilizationSample) int {
	if len(samples) == 0 {
		return 0
	}

	newest := samples[0]
	for _, sample := range samples[1:] {
		if sample.Timestamp.After(newest.Timestamp) {
			newest = sample
		}
	}

	if math.IsNaN(newest.Average) {
		return 0
	}
	cpu := math.Round(newest.Average)
	return int(math.Max(0, math.Min(100, cpu)))
}

// NormalizeBilling parses billing days into DailyCost records, keeping order.
// A group without keys is kept with an empty key so its amount counts as
// unattributed.
func NormalizeBilling(days []models.BillingDay) ([]models.DailyCost, error) {
	normalized := make([]models.DailyCost, 0, len(days))
	for _, day := range days {
		daily := models.DailyCost{
			Date:    day.Start,
			Entries: make([]models.CostEntry, 0, len(day.Groups)),
		}

		for _, group := range day.Groups {
			amount, err := strconv.ParseFloat(strings.TrimSpace(group.Amount), 64)
			if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
				return nil, fmt.Errorf("billing day %s has invalid amount %q: %w",
					day.Start, group.Amount, models.ErrMalformedUpstreamData)
			}

			entry := models.CostEntry{Amount: amount}
			if len(group.Keys) > 0 {
				entry.Key = group.Keys[0]
			}
			daily.Entries = append(daily.Entries, entry)
		}

		normalized = append(normalized, daily)
	}
	return normalized, nil
}
