package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// MinEnergyEntries is the minimum number of billing periods per submission.
const MinEnergyEntries = 6

// DefaultBillingPeriodCount is how many labels BillingPeriods offers by default.
const DefaultBillingPeriodCount = 8

// billingSlots are the bi-monthly billing windows of a calendar year.
var billingSlots = [...]string{"Jan-Feb", "Mar-Apr", "May-Jun", "Jul-Aug", "Sep-Oct", "Nov-Dec"}

var billingPeriodRegex = regexp.MustCompile(`^([A-Z][a-z]{2}-[A-Z][a-z]{2}) ([0-9]{4})$`)

// BillingPeriod is a parsed bi-monthly billing label such as "Jan-Feb 2024".
type BillingPeriod struct {
	Year int
	Slot int // 0..5
}

// Label renders the period as it is stored.
func (p BillingPeriod) Label() string {
	return fmt.Sprintf("%s %04d", billingSlots[p.Slot], p.Year)
}

// Start is the first day of the period in UTC.
func (p BillingPeriod) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Slot*2+1), 1, 0, 0, 0, 0, time.UTC)
}

// Prev returns the preceding billing period.
func (p BillingPeriod) Prev() BillingPeriod {
	if p.Slot == 0 {
		return BillingPeriod{Year: p.Year - 1, Slot: len(billingSlots) - 1}
	}
	return BillingPeriod{Year: p.Year, Slot: p.Slot - 1}
}

// ParseBillingPeriod parses a label like "Mar-Apr 2024".
func ParseBillingPeriod(label string) (BillingPeriod, error) {
	m := billingPeriodRegex.FindStringSubmatch(label)
	if m == nil {
		return BillingPeriod{}, fmt.Errorf("invalid billing period %q", label)
	}
	year, err := strconv.Atoi(m[2])
	if err != nil || year < 1900 {
		return BillingPeriod{}, fmt.Errorf("invalid billing period year %q", m[2])
	}
	for i, s := range billingSlots {
		if s == m[1] {
			return BillingPeriod{Year: year, Slot: i}, nil
		}
	}
	return BillingPeriod{}, fmt.Errorf("invalid billing period %q", label)
}

// BillingPeriodAt returns the period containing t.
func BillingPeriodAt(t time.Time) BillingPeriod {
	return BillingPeriod{Year: t.Year(), Slot: (int(t.Month()) - 1) / 2}
}

// BillingPeriods lists the latest n labels, oldest first, ending with the period containing now.
func BillingPeriods(now time.Time, n int) []string {
	if n <= 0 {
		n = DefaultBillingPeriodCount
	}
	out := make([]string, n)
	p := BillingPeriodAt(now)
	for i := n - 1; i >= 0; i-- {
		out[i] = p.Label()
		p = p.Prev()
	}
	return out
}
