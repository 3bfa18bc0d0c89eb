package service

import (
	"context"
	"time"

	"solarshare/internal/featureflags"
	"solarshare/internal/models"
	"solarshare/internal/repository"

	"github.com/shopspring/decimal"
)

// openRequestLimit caps the requests listed on the provider dashboard.
const openRequestLimit = 50

// DashboardService assembles the member and provider landing pages.
type DashboardService struct {
	profiles    repository.ProfileRepository
	communities repository.CommunityRepository
	quotes      repository.QuoteRepository
	projects    repository.ProjectRepository
	energy      repository.EnergyRepository
	flags       *featureflags.Manager
}

// DashboardDeps groups the collaborators of DashboardService.
type DashboardDeps struct {
	Profiles    repository.ProfileRepository
	Communities repository.CommunityRepository
	Quotes      repository.QuoteRepository
	Projects    repository.ProjectRepository
	Energy      repository.EnergyRepository
	Flags       *featureflags.Manager
}

// UserDashboard is the member landing page.
type UserDashboard struct {
	Profile            models.Session          `json:"profile"`
	Membership         *Membership             `json:"membership"`
	OpenQuoteRequestID *uint                   `json:"open_quote_request_id"`
	Project            *repository.ProjectView `json:"project"`
	EnergyEntryCount   int64                   `json:"energy_entry_count"`
}

// OpenRequestSummary is a quote request a provider may bid on.
type OpenRequestSummary struct {
	RequestID           uint             `json:"quote_request_id"`
	CommunityID         uint             `json:"community_id"`
	CommunityName       string           `json:"community_name"`
	ZipCode             string           `json:"zip_code"`
	MemberCount         int64            `json:"member_count"`
	TotalConsumptionKWh *float64         `json:"total_consumption_kwh,omitempty"`
	AverageBill         *decimal.Decimal `json:"average_bill,omitempty"`
	HasQuoted           bool             `json:"has_quoted"`
	CreatedAt           time.Time        `json:"created_at"`
}

// ProviderDashboard is the provider landing page.
type ProviderDashboard struct {
	Profile           models.Session           `json:"profile"`
	OpenRequests      []OpenRequestSummary     `json:"open_quote_requests"`
	Quotes            []models.ProviderQuote   `json:"quotes"`
	ActiveProjects    []repository.ProjectView `json:"active_projects"`
	CompletedProjects []repository.ProjectView `json:"completed_projects"`
}

func NewDashboardService(d DashboardDeps) *DashboardService {
	return &DashboardService{
		profiles:    d.Profiles,
		communities: d.Communities,
		quotes:      d.Quotes,
		projects:    d.Projects,
		energy:      d.Energy,
		flags:       d.Flags,
	}
}

// UserDashboard summarizes the caller's community, its open request and
// latest project.
func (s *DashboardService) UserDashboard(ctx context.Context, userID uint) (*UserDashboard, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	dash := &UserDashboard{Profile: models.SessionOf(profile)}

	if dash.EnergyEntryCount, err = s.energy.CountForUser(ctx, userID); err != nil {
		return nil, err
	}

	membership, err := NewCommunityService(s.communities).CheckMembership(ctx, userID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return dash, nil
	}
	dash.Membership = membership
	communityID := membership.Community.ID

	open, err := s.quotes.GetOpenRequest(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		dash.OpenQuoteRequestID = &open.ID
	}

	views, err := s.projects.ListForCommunity(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if views = withDisplayNames(views); len(views) > 0 {
		dash.Project = &views[0]
	}
	return dash, nil
}

// ProviderDashboard lists open requests with community statistics, the
// provider's quotes and their projects split by completion.
func (s *DashboardService) ProviderDashboard(ctx context.Context, userID uint) (*ProviderDashboard, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !profile.IsSolarProvider {
		return nil, models.NewForbiddenError("Only solar providers can view the provider dashboard")
	}

	quotes, err := s.quotes.ListQuotesByProvider(ctx, userID)
	if err != nil {
		return nil, err
	}
	if quotes == nil {
		quotes = []models.ProviderQuote{}
	}
	quoted := make(map[uint]bool, len(quotes))
	for _, q := range quotes {
		quoted[q.QuoteRequestID] = true
	}

	open, err := s.openRequests(ctx, userID, quoted)
	if err != nil {
		return nil, err
	}

	views, err := s.projects.ListForProvider(ctx, userID)
	if err != nil {
		return nil, err
	}
	dash := &ProviderDashboard{
		Profile:           models.SessionOf(profile),
		OpenRequests:      open,
		Quotes:            quotes,
		ActiveProjects:    []repository.ProjectView{},
		CompletedProjects: []repository.ProjectView{},
	}
	for _, v := range withDisplayNames(views) {
		if v.Status == models.ProjectStatusCompleted {
			dash.CompletedProjects = append(dash.CompletedProjects, v)
		} else {
			dash.ActiveProjects = append(dash.ActiveProjects, v)
		}
	}
	return dash, nil
}

func (s *DashboardService) openRequests(ctx context.Context, userID uint, quoted map[uint]bool) ([]OpenRequestSummary, error) {
	reqs, err := s.quotes.ListOpenRequests(ctx, openRequestLimit)
	if err != nil {
		return nil, err
	}
	out := make([]OpenRequestSummary, 0, len(reqs))
	if len(reqs) == 0 {
		return out, nil
	}

	ids := make([]uint, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.CommunityID)
	}
	counts, err := s.communities.MemberCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	var stats map[uint]repository.CommunityEnergyStats
	if s.flags.Enabled(featureflags.ProviderCommunityStats, userID) {
		if stats, err = s.energy.CommunityStats(ctx, ids); err != nil {
			return nil, err
		}
	}

	for _, r := range reqs {
		summary := OpenRequestSummary{
			RequestID:     r.ID,
			CommunityID:   r.CommunityID,
			CommunityName: unknownCommunity,
			MemberCount:   counts[r.CommunityID],
			HasQuoted:     quoted[r.ID],
			CreatedAt:     r.CreatedAt,
		}
		if r.Community != nil {
			summary.CommunityName = r.Community.Name
			summary.ZipCode = r.Community.ZipCode
		}
		if stats != nil {
			st, ok := stats[r.CommunityID]
			if !ok {
				st = repository.CommunityEnergyStats{CommunityID: r.CommunityID, AverageBill: decimal.Zero}
			}
			summary.TotalConsumptionKWh = &st.TotalUnits
			summary.AverageBill = &st.AverageBill
		}
		out = append(out, summary)
	}
	return out, nil
}
