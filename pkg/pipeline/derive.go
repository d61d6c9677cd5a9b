package pipeline

import "github.com/younsl/costboard/internal/models"

// SpikeFactor is the multiple of the mean daily cost above which a day is a spike
const SpikeFactor = 1.5

// Annotate attaches the waste level to each record, keeping order
func Annotate(records []models.InstanceRecord) []models.AnnotatedInstance {
	annotated := make([]models.AnnotatedInstance, len(records))
	for i, record := range records {
		annotated[i] = models.AnnotatedInstance{
			InstanceRecord: record,
			Waste:          models.ClassifyWaste(record.CPU, record.UptimeHours),
		}
	}
	return annotated
}

// DetectSpikes flags trend days whose cost exceeds SpikeFactor times the mean
// daily cost of the whole series. An empty series has no spikes.
func DetectSpikes(trend []models.TrendPoint) models.SpikeReport {
	report := models.SpikeReport{Days: make([]models.SpikePoint, len(trend))}
	if len(trend) == 0 {
		return report
	}

	var sum float64
	for _, day := range trend {
		sum += day.Cost
	}
	mean := sum / float64(len(trend))
	threshold := mean * SpikeFactor

	for i, day := range trend {
		report.Days[i] = models.SpikePoint{TrendPoint: day, Spike: day.Cost > threshold}
	}
	report.Mean = Round2(mean)
	report.Threshold = Round2(threshold)

	return report
}
