package formatter

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/younsl/costboard/internal/models"
	"github.com/younsl/costboard/pkg/utils"
)

// PrintInstancesTable prints a formatted table of instances in the given order
func PrintInstancesTable(out io.Writer, instances []models.AnnotatedInstance) {
	if len(instances) == 0 {
		fmt.Fprintln(out, "No instances found.")
		return
	}

	w := newTableWriter(out)

	fmt.Fprintln(w, "INSTANCE ID\tTYPE\tREGION\tCPU\tGPU\tUPTIME (H)\tCOST/HR\tWASTE")

	var unknownCost bool
	for _, instance := range instances {
		cost := fmt.Sprintf("$%.4f", instance.CostPerHour)
		if instance.UnknownCost {
			cost += "*"
			unknownCost = true
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%d%%\t%s\t%s\t%s\t%s\n",
			instance.InstanceID,
			instance.InstanceType,
			instance.Region,
			instance.CPU,
			formatGPU(instance.GPU),
			humanize.Comma(int64(instance.UptimeHours)),
			cost,
			instance.Waste,
		)
	}

	printTotals(w, instances)

	w.Flush()

	if unknownCost {
		fmt.Fprintln(out, "* no known price for this instance type, placeholder cost shown")
	}
}

func formatGPU(gpu bool) string {
	if gpu {
		return "yes"
	}
	return "no"
}

// printTotals prints the instance count and run-rate cost at the bottom of the table
func printTotals(w *tabwriter.Writer, instances []models.AnnotatedInstance) {
	var hourly float64
	for _, instance := range instances {
		hourly += instance.CostPerHour
	}
	monthly := hourly * 24 * utils.GetMonthlyDays()

	fmt.Fprintf(w, "Total: %d\t\t\t\t\t\t%s\t%s/mo\n",
		len(instances),
		formatCost(hourly),
		formatCost(monthly),
	)
}

// PrintWasteSummary prints how many instances fall in each waste level
func PrintWasteSummary(out io.Writer, instances []models.AnnotatedInstance) {
	if len(instances) == 0 {
		return
	}

	counts := make(map[models.WasteLevel]int, len(models.WasteLevels))
	hourly := make(map[models.WasteLevel]float64, len(models.WasteLevels))
	for _, instance := range instances {
		counts[instance.Waste]++
		hourly[instance.Waste] += instance.CostPerHour
	}

	fmt.Fprintln(out, "\n## Waste Summary")

	w := newTableWriter(out)
	fmt.Fprintln(w, "WASTE\tINSTANCE COUNT\tCOST/MO")

	// Highest waste first
	for i := len(models.WasteLevels) - 1; i >= 0; i-- {
		level := models.WasteLevels[i]
		fmt.Fprintf(w, "%s\t%d\t%s\n",
			level,
			counts[level],
			formatCost(hourly[level]*24*utils.GetMonthlyDays()),
		)
	}

	w.Flush()
}
