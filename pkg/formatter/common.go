package formatter

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
)

// newTableWriter returns a kubectl style tabwriter
func newTableWriter(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
}

// formatCost formats a dollar amount with thousands separators and 2 decimals
func formatCost(v float64) string {
	return "$" + humanize.FormatFloat("#,###.##", v)
}

// PrintTimestamp prints the collection timestamp and duration
func PrintTimestamp(out io.Writer, collectedAt time.Time, duration time.Duration) {
	timeStr := collectedAt.Format("2006-01-02 15:04:05")
	durationStr := fmt.Sprintf("%.2fs", duration.Seconds())

	fmt.Fprintf(out, "Collected at %s (took %s)\n", timeStr, durationStr)
}
