package service

import (
	"testing"
	"time"

	"solarshare/internal/models"
	"solarshare/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(t *testing.T, label string, units float64) models.EnergyConsumption {
	t.Helper()
	p, err := validation.ParseBillingPeriod(label)
	require.NoError(t, err)
	return models.EnergyConsumption{Period: p.Label(), PeriodStart: p.Start(), UnitsConsumed: units}
}

func TestComputeSavings(t *testing.T) {
	entries := []models.EnergyConsumption{
		entry(t, "Jan-Feb 2023", 400),
		entry(t, "Mar-Apr 2023", 420),
		entry(t, "May-Jun 2023", 410),
		entry(t, "Jul-Aug 2023", 300),
		entry(t, "Sep-Oct 2023", 450),
	}
	completed := time.Date(2023, time.June, 20, 0, 0, 0, 0, time.UTC)

	s := ComputeSavings(entries, &completed)
	require.Len(t, s.Series, 2)

	assert.Equal(t, "Jul-Aug 2023", s.Series[0].Period)
	assert.Equal(t, 410.0, s.Series[0].PreSolar)
	assert.Equal(t, 300.0, s.Series[0].PostSolar)
	assert.Equal(t, 110.0, s.Series[0].Savings)
	assert.Equal(t, 26.8, s.Series[0].SavingsPercentage)

	assert.Equal(t, 0.0, s.Series[1].Savings, "higher usage never yields negative savings")
	assert.Equal(t, 0.0, s.Series[1].SavingsPercentage)

	assert.Equal(t, 110.0, s.TotalSaved)
	assert.Equal(t, 13.4, s.AverageSavingsPercentage)
	assert.Equal(t, 93.5, s.CO2AvoidedKG)
}

func TestComputeSavings_WindowKeepsLatestSix(t *testing.T) {
	entries := []models.EnergyConsumption{entry(t, "Nov-Dec 2021", 500)}
	for _, label := range []string{
		"Jan-Feb 2022", "Mar-Apr 2022", "May-Jun 2022", "Jul-Aug 2022",
		"Sep-Oct 2022", "Nov-Dec 2022", "Jan-Feb 2023", "Mar-Apr 2023",
	} {
		entries = append(entries, entry(t, label, 250))
	}
	completed := time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)

	s := ComputeSavings(entries, &completed)
	require.Len(t, s.Series, 6)
	assert.Equal(t, "May-Jun 2022", s.Series[0].Period)
	assert.Equal(t, "Mar-Apr 2023", s.Series[5].Period)
	assert.Equal(t, 1500.0, s.TotalSaved)
	assert.Equal(t, 50.0, s.AverageSavingsPercentage)
}

func TestComputeSavings_Empty(t *testing.T) {
	entries := []models.EnergyConsumption{entry(t, "Jan-Feb 2024", 400)}

	none := ComputeSavings(entries, nil)
	assert.Empty(t, none.Series)
	assert.NotNil(t, none.Series)
	assert.Zero(t, none.TotalSaved)

	early := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	noBaseline := ComputeSavings(entries, &early)
	assert.Empty(t, noBaseline.Series)
	assert.Zero(t, noBaseline.CO2AvoidedKG)
}

func TestComputeSavings_Deterministic(t *testing.T) {
	entries := []models.EnergyConsumption{
		entry(t, "Jan-Feb 2023", 400),
		entry(t, "Mar-Apr 2023", 350),
	}
	completed := time.Date(2023, time.February, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, ComputeSavings(entries, &completed), ComputeSavings(entries, &completed))
}
