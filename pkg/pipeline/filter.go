package pipeline

import (
	"sort"

	"github.com/younsl/costboard/internal/models"
)

// ApplyFilter returns the instances matching every restricted dimension of
// state, in their original order. Within a dimension, values are OR-ed.
// The input slice is never modified.
func ApplyFilter(instances []models.InstanceRecord, state models.FilterState) []models.InstanceRecord {
	regions := toSet(state.Region)
	instanceTypes := toSet(state.InstanceType)
	wastes := wasteSet(state.Waste)

	filtered := make([]models.InstanceRecord, 0, len(instances))
	for _, instance := range instances {
		if !allows(regions, instance.Region) {
			continue
		}
		if !allows(instanceTypes, instance.InstanceType) {
			continue
		}
		if !allows(wastes, models.ClassifyWaste(instance.CPU, instance.UptimeHours).String()) {
			continue
		}
		filtered = append(filtered, instance)
	}
	return filtered
}

// FilterCost restricts the cost breakdown to the selected regions and
// recomputes the total over the remaining entries. Attributed and
// unaccounted costs describe the whole period and are left unchanged.
// Without a region restriction the summary is returned as is.
func FilterCost(summary models.CostSummary, state models.FilterState) models.CostSummary {
	if len(state.Region) == 0 {
		return summary
	}
	regions := toSet(state.Region)

	keys := make([]string, 0, len(summary.Breakdown))
	for key := range summary.Breakdown {
		if allows(regions, key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	filtered := summary
	filtered.Breakdown = make(map[string]float64, len(keys))
	var total float64
	for _, key := range keys {
		filtered.Breakdown[key] = summary.Breakdown[key]
		total += summary.Breakdown[key]
	}
	filtered.TotalCost = Round2(total)

	return filtered
}

// FilterOptions lists the distinct regions and instance types of the instance set
// in first-seen order, plus every waste level.
func FilterOptions(instances []models.InstanceRecord) models.FilterOptions {
	opts := models.FilterOptions{
		Region:       []string{},
		InstanceType: []string{},
		Waste:        make([]string, 0, len(models.WasteLevels)),
	}

	seenRegion := make(map[string]struct{})
	seenType := make(map[string]struct{})
	for _, instance := range instances {
		if _, ok := seenRegion[instance.Region]; !ok {
			seenRegion[instance.Region] = struct{}{}
			opts.Region = append(opts.Region, instance.Region)
		}
		if _, ok := seenType[instance.InstanceType]; !ok {
			seenType[instance.InstanceType] = struct{}{}
			opts.InstanceType = append(opts.InstanceType, instance.InstanceType)
		}
	}
	for _, level := range models.WasteLevels {
		opts.Waste = append(opts.Waste, level.String())
	}

	return opts
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// wasteSet canonicalizes waste level names. Unparseable values are kept
// verbatim so they restrict the dimension without matching anything.
func wasteSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if level, err := models.ParseWasteLevel(v); err == nil {
			set[level.String()] = struct{}{}
			continue
		}
		set[v] = struct{}{}
	}
	return set
}

// allows reports whether value passes a dimension; a nil set is unrestricted
func allows(set map[string]struct{}, value string) bool {
	if set == nil {
		return true
	}
	_, ok := set[value]
	return ok
}
