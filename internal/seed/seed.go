package seed

import (
	"context"
	"fmt"
	"log"

	"solarshare/internal/cache"
	"solarshare/internal/database"
	"solarshare/internal/models"
	"solarshare/internal/repository"
	"solarshare/internal/service"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	Communities         int
	MembersPerCommunity int
	Providers           int
	ShouldClean         bool
	SkipBcrypt          bool
	DryRun              bool
	// RandomSeed makes generated data reproducible; 0 uses the clock.
	RandomSeed int64
}

// Summary counts what a seeding run created.
type Summary struct {
	Providers     int
	Residents     int
	Communities   int
	EnergyEntries int
	QuoteRequests int
	Quotes        int
	Votes         int
	Projects      int
}

// Seeder applies scenarios through the service layer so seeded data obeys
// the same rules as data entered through the API.
type Seeder struct {
	db          *gorm.DB
	opts        Options
	factory     *Factory
	communities *service.CommunityService
	energy      *service.EnergyService
	quotes      *service.QuoteService
	voting      *service.VotingService
	reports     *service.ReportService
}

// NewSeeder wires a seeder around db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	store := cache.NewStore(nil)
	profileRepo := repository.NewProfileRepository(db, store)
	communityRepo := repository.NewCommunityRepository(db, store)
	energyRepo := repository.NewEnergyRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	projectRepo := repository.NewProjectRepository(db)

	return &Seeder{
		db:          db,
		opts:        opts,
		factory:     NewFactory(db, opts),
		communities: service.NewCommunityService(communityRepo),
		energy:      service.NewEnergyService(energyRepo, communityRepo),
		quotes:      service.NewQuoteService(quoteRepo, communityRepo, profileRepo),
		voting: service.NewVotingService(service.VotingDeps{
			Quotes:      quoteRepo,
			Votes:       repository.NewVoteRepository(db),
			Communities: communityRepo,
		}),
		reports: service.NewReportService(communityRepo, projectRepo, energyRepo),
	}
}

// Seed populates the database with a generated scenario.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Summary, error) {
	return NewSeeder(db, opts).Apply(ctx, DefaultScenario(opts))
}

// Apply creates every provider and community of sc.
func (s *Seeder) Apply(ctx context.Context, sc *Scenario) (*Summary, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if s.opts.DryRun {
		log.Printf("[dry-run] scenario: %d providers, %d communities (no DB write)", len(sc.Providers), len(sc.Communities))
		return &Summary{}, nil
	}
	log.Printf("🌱 Seeding %d providers and %d communities...", len(sc.Providers), len(sc.Communities))

	if s.opts.ShouldClean {
		if err := clearData(ctx, s.db); err != nil {
			return nil, fmt.Errorf("clear data: %w", err)
		}
	}

	sum := &Summary{}
	providers := make([]*models.Profile, 0, len(sc.Providers))
	for _, spec := range sc.Providers {
		p, err := s.factory.CreateProvider(func(p *models.Profile) {
			if spec.Name != "" {
				p.Name = spec.Name
			}
			if spec.Email != "" {
				p.Email = spec.Email
			}
		})
		if err != nil {
			return nil, fmt.Errorf("create provider: %w", err)
		}
		providers = append(providers, p)
	}
	sum.Providers = len(providers)

	for i, spec := range sc.Communities {
		if err := s.applyCommunity(ctx, spec, providers, sum); err != nil {
			return nil, fmt.Errorf("community %d: %w", i+1, err)
		}
	}

	log.Printf("🎉 Seeded %d communities, %d residents, %d quotes, %d votes, %d projects",
		sum.Communities, sum.Residents, sum.Quotes, sum.Votes, sum.Projects)
	return sum, nil
}

func (s *Seeder) applyCommunity(ctx context.Context, spec CommunitySpec, providers []*models.Profile, sum *Summary) error {
	admin, err := s.factory.CreateResident()
	if err != nil {
		return err
	}
	sum.Residents++

	name := spec.Name
	if name == "" {
		name = s.factory.CommunityName()
	}
	zip := spec.ZipCode
	if zip == "" {
		zip = s.factory.ZipCode()
	}
	community, err := s.communities.CreateCommunity(ctx, service.CreateCommunityInput{
		UserID:      admin.ID,
		Name:        name,
		ZipCode:     zip,
		Description: spec.Description,
	})
	if err != nil {
		return err
	}
	sum.Communities++

	members := []*models.Profile{admin}
	for len(members) < spec.Members {
		m, err := s.factory.CreateResident()
		if err != nil {
			return err
		}
		if _, err := s.communities.JoinCommunity(ctx, m.ID, community.CommunityCode); err != nil {
			return err
		}
		members = append(members, m)
		sum.Residents++
	}

	periods := s.energy.BillingPeriods(6)
	for _, m := range members {
		rows, err := s.energy.SubmitEntries(ctx, m.ID, community.ID, s.factory.EnergyEntries(periods))
		if err != nil {
			return err
		}
		sum.EnergyEntries += len(rows)
	}

	if spec.Quotes == 0 {
		return nil
	}
	req, err := s.quotes.CreateQuoteRequest(ctx, admin.ID, community.ID)
	if err != nil {
		return err
	}
	sum.QuoteRequests++

	quotes := make([]*models.ProviderQuote, 0, spec.Quotes)
	for _, p := range providers[:spec.Quotes] {
		cost, details := s.factory.Quote(len(members))
		q, err := s.quotes.SubmitQuote(ctx, service.SubmitQuoteInput{
			ProviderID: p.ID,
			RequestID:  req.ID,
			TotalCost:  cost,
			Details:    details,
		})
		if err != nil {
			return err
		}
		quotes = append(quotes, q)
	}
	sum.Quotes += len(quotes)

	if spec.Vote {
		for _, m := range members {
			choice := quotes[s.factory.Pick(len(quotes))]
			if _, err := s.voting.CastVote(ctx, m.ID, req.ID, choice.ID); err != nil {
				return err
			}
			sum.Votes++
		}
	}

	if !spec.CloseVoting {
		return nil
	}
	// Without votes the admin picks the first quote.
	var pick *uint
	if !spec.Vote {
		pick = &quotes[0].ID
	}
	res, err := s.voting.EndVoting(ctx, admin.ID, req.ID, pick)
	if err != nil {
		return err
	}
	sum.Projects++

	return s.advance(ctx, res.Project, spec.Progress)
}

// stageProgress is the progress recorded when a project reaches each stage.
var stageProgress = map[models.ProjectStatus]int{
	models.ProjectStatusProcurement:  30,
	models.ProjectStatusInstallation: 65,
	models.ProjectStatusCompleted:    100,
}

// advance walks the project forward one stage at a time up to target.
func (s *Seeder) advance(ctx context.Context, project models.Project, target models.ProjectStatus) error {
	if target == "" || target == models.ProjectStatusPlanning {
		return nil
	}
	for _, stage := range []models.ProjectStatus{
		models.ProjectStatusProcurement,
		models.ProjectStatusInstallation,
		models.ProjectStatusCompleted,
	} {
		if stage.Rank() > target.Rank() {
			break
		}
		if _, err := s.reports.UpdateProjectProgress(ctx, service.ProgressInput{
			UserID:    project.ProviderID,
			ProjectID: project.ID,
			Status:    stage,
			Progress:  stageProgress[stage],
		}); err != nil {
			return err
		}
	}
	return nil
}

// clearData deletes every row of every application table, children first.
func clearData(ctx context.Context, db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	all := database.PersistentModels()
	tx := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for i := len(all) - 1; i >= 0; i-- {
		if err := tx.Delete(all[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
