package formatter

import (
	"fmt"
	"io"
	"sort"

	"github.com/younsl/costboard/internal/models"
	"github.com/younsl/costboard/pkg/utils"
)

// PrintCostBreakdown prints the cost summary grouped by its dimension,
// largest first
func PrintCostBreakdown(out io.Writer, summary models.CostSummary) {
	fmt.Fprintf(out, "\n## Cost by %s (%s to %s)\n", summary.GroupBy, summary.TimePeriod.Start, summary.TimePeriod.End)

	keys := make([]string, 0, len(summary.Breakdown))
	for key := range summary.Breakdown {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := summary.Breakdown[keys[i]], summary.Breakdown[keys[j]]
		if a != b {
			return a > b
		}
		return keys[i] < keys[j]
	})

	w := newTableWriter(out)
	fmt.Fprintln(w, "KEY\tNAME\tCOST\tSHARE")

	for _, key := range keys {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			key,
			keyName(summary.GroupBy, key),
			formatCost(summary.Breakdown[key]),
			share(summary.Breakdown[key], summary.TotalCost),
		)
	}
	if summary.UnaccountedCost != 0 {
		fmt.Fprintf(w, "<unaccounted>\t-\t%s\t%s\n",
			formatCost(summary.UnaccountedCost),
			share(summary.UnaccountedCost, summary.TotalCost),
		)
	}
	fmt.Fprintf(w, "Total:\t\t%s\t\n", formatCost(summary.TotalCost))

	w.Flush()
}

// keyName returns a descriptive name for region keys and "-" otherwise
func keyName(groupBy, key string) string {
	if groupBy != "REGION" || !utils.IsValidRegion(key) {
		return "-"
	}
	return utils.GetRegionDescriptiveName(key)
}

func share(part, total float64) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", part/total*100)
}

// PrintTrend prints daily cost with spike markers and the burn rate
func PrintTrend(out io.Writer, trend models.TrendSeries, spikes models.SpikeReport) {
	fmt.Fprintln(out, "\n## Daily Cost Trend")

	if trend.InsufficientData {
		fmt.Fprintln(out, "No billing days in the period.")
		return
	}

	w := newTableWriter(out)
	fmt.Fprintln(w, "DATE\tCOST\tSPIKE")

	for _, day := range spikes.Days {
		marker := ""
		if day.Spike {
			marker = "SPIKE"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", day.Date, formatCost(day.Cost), marker)
	}
	w.Flush()

	fmt.Fprintf(out, "Daily burn: %s, projected monthly: %s (spike threshold %s)\n",
		formatCost(trend.DailyBurn),
		formatCost(trend.ProjectedMonthly),
		formatCost(spikes.Threshold),
	)
}
