package pipeline

import (
	"fmt"
	"math"

	"github.com/younsl/costboard/internal/models"
	"github.com/younsl/costboard/pkg/utils"
)

// Round2 rounds a monetary value to 2 decimal places, half away from zero
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// BurnRate returns the average daily cost. A period with no days has no
// burn rate and yields ErrInsufficientPeriodData.
func BurnRate(total float64, days int) (float64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("cannot compute burn rate over %d days: %w", days, models.ErrInsufficientPeriodData)
	}
	return total / float64(days), nil
}

// AggregateCost folds daily billing into a cost summary and a trend series.
// Days keep their source order. Values are accumulated unrounded and only
// rounded to cents on the way out.
func AggregateCost(period models.TimePeriod, groupBy string, days []models.DailyCost) (models.CostSummary, models.TrendSeries) {
	breakdown := make(map[string]float64)
	trend := make([]models.TrendPoint, 0, len(days))
	var total, attributed, unaccounted float64

	for _, day := range days {
		var dayTotal float64
		for _, entry := range day.Entries {
			dayTotal += entry.Amount
			if entry.Key == "" {
				unaccounted += entry.Amount
				continue
			}
			breakdown[entry.Key] += entry.Amount
			attributed += entry.Amount
		}

		total += dayTotal
		trend = append(trend, models.TrendPoint{Date: day.Date, Cost: Round2(dayTotal)})
	}

	roundedBreakdown := make(map[string]float64, len(breakdown))
	for key, amount := range breakdown {
		roundedBreakdown[key] = Round2(amount)
	}

	summary := models.CostSummary{
		TimePeriod:      period,
		GroupBy:         groupBy,
		TotalCost:       Round2(total),
		AttributedCost:  Round2(attributed),
		UnaccountedCost: Round2(math.Max(unaccounted, 0)),
		Breakdown:       roundedBreakdown,
	}

	series := models.TrendSeries{
		Total: Round2(total),
		Trend: trend,
	}

	burn, err := BurnRate(total, len(days))
	if err != nil {
		series.InsufficientData = true
		return summary, series
	}
	series.DailyBurn = Round2(burn)
	series.ProjectedMonthly = Round2(burn * utils.GetMonthlyDays())

	return summary, series
}
