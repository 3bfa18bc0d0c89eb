package service

import (
	"context"
	"time"

	"solarshare/internal/models"
	"solarshare/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	unknownCommunity = "Unknown Community"
	unknownProvider  = "Unknown Provider"
)

// ReportService serves installation tracking, consumption reports and
// provider progress updates.
type ReportService struct {
	communities repository.CommunityRepository
	projects    repository.ProjectRepository
	energy      repository.EnergyRepository
	now         func() time.Time
}

// ConsumptionReport is the caller's consumption history with savings.
type ConsumptionReport struct {
	CommunityID uint                       `json:"community_id"`
	Entries     []models.EnergyConsumption `json:"entries"`
	TotalUnits  float64                    `json:"total_units"`
	TotalBill   decimal.Decimal            `json:"total_bill"`
	ProjectID   *uint                      `json:"completed_project_id,omitempty"`
	Savings     SavingsSummary             `json:"savings"`
}

// ProgressInput moves a project along its installation pipeline.
type ProgressInput struct {
	UserID    uint
	ProjectID uint
	Status    models.ProjectStatus
	Progress  int
}

func NewReportService(communities repository.CommunityRepository, projects repository.ProjectRepository, energy repository.EnergyRepository) *ReportService {
	return &ReportService{communities: communities, projects: projects, energy: energy, now: time.Now}
}

// InstallationTracking lists the projects of the caller's community. A caller
// without a community gets an empty list.
func (s *ReportService) InstallationTracking(ctx context.Context, userID uint) ([]repository.ProjectView, error) {
	member, err := s.communities.GetMembership(ctx, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return []repository.ProjectView{}, nil
	}
	views, err := s.projects.ListForCommunity(ctx, member.CommunityID)
	if err != nil {
		return nil, err
	}
	return withDisplayNames(views), nil
}

func withDisplayNames(views []repository.ProjectView) []repository.ProjectView {
	if views == nil {
		return []repository.ProjectView{}
	}
	for i := range views {
		if views[i].CommunityName == "" {
			views[i].CommunityName = unknownCommunity
		}
		if views[i].ProviderName == "" {
			views[i].ProviderName = unknownProvider
		}
	}
	return views
}

// ConsumptionReport returns the caller's entries, newest first, with totals
// and savings measured against the community's completed installation.
func (s *ReportService) ConsumptionReport(ctx context.Context, userID uint) (*ConsumptionReport, error) {
	member, err := s.communities.GetMembership(ctx, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, models.NewNotFoundMessage("You have not joined a community yet")
	}

	entries, err := s.energy.ListForUser(ctx, userID, member.CommunityID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.EnergyConsumption{}
	}
	report := &ConsumptionReport{
		CommunityID: member.CommunityID,
		Entries:     entries,
		TotalBill:   decimal.Zero,
	}
	for _, e := range entries {
		report.TotalUnits += e.UnitsConsumed
		report.TotalBill = report.TotalBill.Add(e.BillAmount)
	}

	project, err := s.projects.LatestCompleted(ctx, member.CommunityID)
	if err != nil {
		return nil, err
	}
	var completedAt *time.Time
	if project != nil {
		report.ProjectID = &project.ID
		completedAt = project.CompletedAt
	}
	report.Savings = ComputeSavings(entries, completedAt)
	return report, nil
}

// UpdateProjectProgress lets the project's provider move it forward. Status
// never moves backwards and progress never decreases; completing a project
// sets progress to 100 and stamps completed_at.
func (s *ReportService) UpdateProjectProgress(ctx context.Context, in ProgressInput) (*models.Project, error) {
	project, err := s.projects.GetByID(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.ProviderID != in.UserID {
		return nil, models.NewForbiddenError("Only the selected provider can update this project")
	}
	if project.Status == models.ProjectStatusCompleted {
		return nil, models.NewConflictError("", "Project is already completed")
	}

	if !in.Status.Valid() {
		return nil, models.NewValidationError("Unknown project status")
	}
	if in.Status.Rank() < project.Status.Rank() {
		return nil, models.NewValidationError("Project status cannot move backwards")
	}
	if in.Progress < 0 || in.Progress > 100 {
		return nil, models.NewValidationError("Progress must be between 0 and 100")
	}

	update := repository.ProgressUpdate{Project: project, Status: in.Status, Progress: in.Progress}
	if in.Status == models.ProjectStatusCompleted {
		now := s.now().UTC()
		update.Progress = 100
		update.CompletedAt = &now
	}
	if update.Progress < project.ProgressPercentage {
		return nil, models.NewValidationError("Progress cannot decrease")
	}
	return s.projects.UpdateProgress(ctx, update)
}
