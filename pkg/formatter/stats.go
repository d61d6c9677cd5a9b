package formatter

import (
	"fmt"
	"io"
)

// pricingOutcomes is the display order of pricing lookup outcomes
var pricingOutcomes = []string{"table", "cache", "api", "failure"}

// PrintPricingStats prints how instance prices were resolved
func PrintPricingStats(out io.Writer, stats map[string]int) {
	if len(stats) == 0 {
		return
	}

	fmt.Fprintln(out, "\n## Pricing Lookup Statistics")

	w := newTableWriter(out)
	fmt.Fprintln(w, "SOURCE\tLOOKUPS\tSHARE")

	var total int
	for _, count := range stats {
		total += count
	}

	for _, outcome := range pricingOutcomes {
		count := stats[outcome]
		fmt.Fprintf(w, "%s\t%d\t%s\n", outcome, count, share(float64(count), float64(total)))
	}

	w.Flush()
}
