package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBillingPeriod(t *testing.T) {
	t.Parallel()

	p, err := ParseBillingPeriod("Mar-Apr 2024")
	require.NoError(t, err)
	assert.Equal(t, BillingPeriod{Year: 2024, Slot: 1}, p)
	assert.Equal(t, "Mar-Apr 2024", p.Label())
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), p.Start())

	for _, bad := range []string{"", "Feb-Mar 2024", "Jan-Feb 24", "jan-feb 2024", "Jan-Feb 2024 ", "Nov-Dec 0999"} {
		_, err := ParseBillingPeriod(bad)
		assert.Error(t, err, bad)
	}
}

func TestBillingPeriodPrevWrapsYear(t *testing.T) {
	p := BillingPeriod{Year: 2024, Slot: 0}
	assert.Equal(t, "Nov-Dec 2023", p.Prev().Label())
}

func TestBillingPeriods(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, time.April, 15, 12, 0, 0, 0, time.UTC)

	got := BillingPeriods(now, 0)
	assert.Equal(t, []string{
		"Jan-Feb 2023", "Mar-Apr 2023", "May-Jun 2023", "Jul-Aug 2023",
		"Sep-Oct 2023", "Nov-Dec 2023", "Jan-Feb 2024", "Mar-Apr 2024",
	}, got)

	assert.Equal(t, []string{"Nov-Dec 2023", "Jan-Feb 2024", "Mar-Apr 2024"}, BillingPeriods(now, 3))
}
