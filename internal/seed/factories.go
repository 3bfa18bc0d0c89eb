// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"solarshare/internal/models"
	"solarshare/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

// Factory builds domain entities and persists the ones that have no service
// entry point (accounts). Everything else is built as service input.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
	seq   int
	hash  string
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{db: db, opts: opts, faker: gofakeit.New(seed), nextID: 1000}
}

func (f *Factory) passwordHash() string {
	if f.opts.SkipBcrypt {
		return DefaultPassword
	}
	if f.hash == "" {
		hashed, _ := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		f.hash = string(hashed)
	}
	return f.hash
}

func (f *Factory) phone() string {
	return fmt.Sprintf("+91 9%04d %05d", f.faker.Number(0, 9999), f.faker.Number(0, 99999))
}

// ZipCode returns a six digit postal code.
func (f *Factory) ZipCode() string {
	return fmt.Sprintf("%06d", f.faker.Number(110001, 855117))
}

// CommunityName returns a plausible residential community name.
func (f *Factory) CommunityName() string {
	suffixes := []string{"Residency", "Villas", "Heights", "Gardens", "Enclave", "Apartments"}
	return f.faker.LastName() + " " + f.faker.RandomString(suffixes)
}

// CreateResident persists a confirmed, non-provider account.
func (f *Factory) CreateResident(overrides ...func(*models.Profile)) (*models.Profile, error) {
	first, last := f.faker.FirstName(), f.faker.LastName()
	return f.createProfile(&models.Profile{
		Email: f.email(first + "." + last),
		Name:  first + " " + last,
		Phone: f.phone(),
	}, overrides)
}

// CreateProvider persists a confirmed solar provider account.
func (f *Factory) CreateProvider(overrides ...func(*models.Profile)) (*models.Profile, error) {
	company := f.faker.Company() + " Solar"
	return f.createProfile(&models.Profile{
		Email:           f.email(company),
		Name:            company,
		Phone:           f.phone(),
		IsSolarProvider: true,
	}, overrides)
}

func (f *Factory) email(local string) string {
	f.seq++
	local = strings.ToLower(strings.Join(strings.Fields(local), "."))
	local = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, local)
	return fmt.Sprintf("%s.%d@example.com", strings.Trim(local, "."), f.seq)
}

func (f *Factory) createProfile(p *models.Profile, overrides []func(*models.Profile)) (*models.Profile, error) {
	now := time.Now().UTC()
	p.PasswordHash = f.passwordHash()
	p.EmailConfirmedAt = &now
	for _, override := range overrides {
		override(p)
	}
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))

	if f.opts.DryRun {
		f.nextID++
		p.ID = f.nextID
		log.Printf("[dry-run] CreateProfile: %s provider=%t", p.Email, p.IsSolarProvider)
		return p, nil
	}
	if err := f.db.Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// EnergyEntries builds one consumption entry per period. Usage follows a
// household base load with a seasonal swing; bills apply a flat tariff.
func (f *Factory) EnergyEntries(periods []string) []service.EnergyEntryInput {
	base := f.faker.Float64Range(180, 420)
	tariff := decimal.NewFromFloat(f.faker.Float64Range(6.5, 8.5)).Round(2)
	entries := make([]service.EnergyEntryInput, 0, len(periods))
	for i, period := range periods {
		swing := 1 + 0.25*math.Sin(float64(i)*math.Pi/3)
		units := math.Round(base*swing*f.faker.Float64Range(0.92, 1.08)*10) / 10
		entries = append(entries, service.EnergyEntryInput{
			Period:        period,
			UnitsConsumed: units,
			BillAmount:    decimal.NewFromFloat(units).Mul(tariff).Round(2),
		})
	}
	return entries
}

// Quote builds a provider offer for a community of the given size.
func (f *Factory) Quote(members int) (decimal.Decimal, models.QuoteDetails) {
	if members < 1 {
		members = 1
	}
	sizeKW := math.Round(float64(members)*f.faker.Float64Range(2.5, 4.0)*10) / 10
	panelWatts := f.faker.RandomString([]string{"400", "450", "540"})
	watts, _ := decimal.NewFromString(panelWatts)
	panels := int(decimal.NewFromFloat(sizeKW * 1000).Div(watts).Ceil().IntPart())
	perKW := decimal.NewFromFloat(f.faker.Float64Range(42000, 58000)).Round(0)

	details := models.QuoteDetails{
		SystemSizeKW:                 sizeKW,
		PanelCount:                   panels,
		PanelType:                    panelWatts + "W " + f.faker.RandomString([]string{"Monocrystalline", "Mono PERC", "Bifacial"}),
		InverterType:                 f.faker.RandomString([]string{"String inverter", "Microinverters", "Hybrid inverter"}),
		WarrantyYears:                f.faker.RandomInt([]int{10, 15, 20, 25}),
		EstimatedAnnualProductionKWh: math.Round(sizeKW * f.faker.Float64Range(1350, 1550)),
		InstallationTimeframe:        fmt.Sprintf("%d-%d weeks", f.faker.Number(3, 5), f.faker.Number(6, 10)),
	}
	return perKW.Mul(decimal.NewFromFloat(sizeKW)).Round(2), details
}

// Pick returns a random index below n.
func (f *Factory) Pick(n int) int {
	if n <= 1 {
		return 0
	}
	return f.faker.Number(0, n-1)
}
