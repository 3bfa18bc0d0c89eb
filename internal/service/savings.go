package service

import (
	"math"
	"sort"
	"time"

	"solarshare/internal/models"
)

const (
	// savingsWindow is how many post-installation periods the report charts.
	savingsWindow = 6
	// co2KgPerKWh converts saved grid energy to avoided emissions.
	co2KgPerKWh = 0.85
)

// SavingsPoint compares one post-installation period with the pre-solar baseline.
type SavingsPoint struct {
	Period            string  `json:"period"`
	PreSolar          float64 `json:"pre_solar"`
	PostSolar         float64 `json:"post_solar"`
	Savings           float64 `json:"savings"`
	SavingsPercentage float64 `json:"savings_percentage"`
}

// SavingsSummary is the savings series and its totals.
type SavingsSummary struct {
	Series                   []SavingsPoint `json:"series"`
	TotalSaved               float64        `json:"total_saved_kwh"`
	AverageSavingsPercentage float64        `json:"average_savings_percentage"`
	CO2AvoidedKG             float64        `json:"co2_avoided_kg"`
}

// ComputeSavings derives savings from stored consumption. Entries whose period
// started before completedAt form the baseline; the latest post-completion
// entries are compared against it, oldest first. A nil completedAt or an empty
// baseline yields an empty series.
func ComputeSavings(entries []models.EnergyConsumption, completedAt *time.Time) SavingsSummary {
	summary := SavingsSummary{Series: []SavingsPoint{}}
	if completedAt == nil {
		return summary
	}

	var before, after []models.EnergyConsumption
	for _, e := range entries {
		if e.PeriodStart.Before(*completedAt) {
			before = append(before, e)
		} else {
			after = append(after, e)
		}
	}
	if len(before) == 0 || len(after) == 0 {
		return summary
	}

	var sum float64
	for _, e := range before {
		sum += e.UnitsConsumed
	}
	pre := math.Round(sum / float64(len(before)))

	sort.SliceStable(after, func(i, j int) bool {
		return after[i].PeriodStart.Before(after[j].PeriodStart)
	})
	if len(after) > savingsWindow {
		after = after[len(after)-savingsWindow:]
	}

	var pctSum float64
	for _, e := range after {
		saved := math.Max(0, pre-e.UnitsConsumed)
		var pct float64
		if pre > 0 {
			pct = round1(saved / pre * 100)
		}
		summary.Series = append(summary.Series, SavingsPoint{
			Period:            e.Period,
			PreSolar:          pre,
			PostSolar:         e.UnitsConsumed,
			Savings:           saved,
			SavingsPercentage: pct,
		})
		summary.TotalSaved += saved
		pctSum += pct
	}
	summary.AverageSavingsPercentage = round1(pctSum / float64(len(summary.Series)))
	summary.CO2AvoidedKG = round1(summary.TotalSaved * co2KgPerKWh)
	return summary
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
