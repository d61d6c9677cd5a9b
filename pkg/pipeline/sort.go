package pipeline

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/younsl/costboard/internal/models"
)

var (
	// ErrUnknownSortColumn is returned for a column no comparator exists for
	ErrUnknownSortColumn = errors.New("unknown sort column")

	// ErrUnknownSortOrder is returned for an order other than asc or desc
	ErrUnknownSortOrder = errors.New("unknown sort order")
)

// DefaultSortColumn is the column the CLI sorts by unless told otherwise
const DefaultSortColumn = "instanceId"

type comparator func(a, b models.AnnotatedInstance) int

var comparators = map[string]comparator{
	"instanceId": func(a, b models.AnnotatedInstance) int {
		return strings.Compare(a.InstanceID, b.InstanceID)
	},
	"instanceType": func(a, b models.AnnotatedInstance) int {
		return strings.Compare(a.InstanceType, b.InstanceType)
	},
	"region": func(a, b models.AnnotatedInstance) int {
		return strings.Compare(a.Region, b.Region)
	},
	"cpu": func(a, b models.AnnotatedInstance) int {
		return cmp.Compare(a.CPU, b.CPU)
	},
	"gpu": func(a, b models.AnnotatedInstance) int {
		return compareBool(a.GPU, b.GPU)
	},
	"uptimeHours": func(a, b models.AnnotatedInstance) int {
		return cmp.Compare(a.UptimeHours, b.UptimeHours)
	},
	"costPerHour": func(a, b models.AnnotatedInstance) int {
		return cmp.Compare(a.CostPerHour, b.CostPerHour)
	},
	"waste": func(a, b models.AnnotatedInstance) int {
		return cmp.Compare(a.Waste, b.Waste)
	},
}

// SortColumns returns the sortable column names in table order
func SortColumns() []string {
	return []string{"instanceId", "instanceType", "region", "cpu", "gpu", "uptimeHours", "costPerHour", "waste"}
}

// ValidateSort checks a column and order selection without sorting. An
// empty column is valid and leaves rows in input order.
func ValidateSort(orderBy string, order models.SortOrder) error {
	_, _, err := sortSelection(orderBy, order)
	return err
}

// SortInstances returns a sorted copy of instances. The sort is stable in
// both directions: equal rows keep their input order. Waste sorts by
// severity (Low < Medium < High), booleans sort false before true. Without
// a column the copy keeps input order.
func SortInstances(instances []models.AnnotatedInstance, orderBy string, order models.SortOrder) ([]models.AnnotatedInstance, error) {
	compare, desc, err := sortSelection(orderBy, order)
	if err != nil {
		return nil, err
	}

	sorted := slices.Clone(instances)
	if compare == nil {
		return sorted, nil
	}
	slices.SortStableFunc(sorted, func(a, b models.AnnotatedInstance) int {
		if desc {
			return compare(b, a)
		}
		return compare(a, b)
	})

	return sorted, nil
}

func sortSelection(orderBy string, order models.SortOrder) (comparator, bool, error) {
	var desc bool
	switch order {
	case "", models.SortAsc:
	case models.SortDesc:
		desc = true
	default:
		return nil, false, fmt.Errorf("%w: %q", ErrUnknownSortOrder, order)
	}

	if orderBy == "" {
		return nil, desc, nil
	}
	compare, ok := comparators[orderBy]
	if !ok {
		return nil, false, fmt.Errorf("%w: %q", ErrUnknownSortColumn, orderBy)
	}
	return compare, desc, nil
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
