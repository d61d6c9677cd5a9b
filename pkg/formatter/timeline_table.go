package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/younsl/costboard/internal/models"
)

const timelineBarWidth = 20

// PrintTimeline prints a utilization timeline oldest first with a bar per point
func PrintTimeline(out io.Writer, timeline models.UtilizationTimeline) {
	fmt.Fprintf(out, "\n## CPU Utilization of %s (last %s)\n", timeline.InstanceID, timeline.Window)

	if len(timeline.Points) == 0 {
		fmt.Fprintln(out, "No datapoints in this window.")
		return
	}

	w := newTableWriter(out)
	fmt.Fprintln(w, "TIMESTAMP\tCPU\t")
	for _, point := range timeline.Points {
		fmt.Fprintf(w, "%s\t%.2f%%\t%s\n",
			point.Timestamp.Format("2006-01-02 15:04"),
			point.CPU,
			cpuBar(point.CPU),
		)
	}
	w.Flush()
}

func cpuBar(cpu float64) string {
	filled := int(cpu / 100 * timelineBarWidth)
	if filled < 0 {
		filled = 0
	}
	if filled > timelineBarWidth {
		filled = timelineBarWidth
	}
	return strings.Repeat("#", filled) + strings.Repeat(".", timelineBarWidth-filled)
}
