package repository

import (
	"context"
	"errors"
	"time"

	"solarshare/internal/models"

	"gorm.io/gorm"
)

// ErrProjectChanged is returned when a progress update lost a race with another update.
var ErrProjectChanged = errors.New("project was updated concurrently")

// ProjectView is a project joined with the names shown on the tracking page.
type ProjectView struct {
	models.Project
	CommunityName string `json:"community_name"`
	ProviderName  string `json:"provider_name"`
}

// ProgressUpdate moves a project forward from the state it was read in.
type ProgressUpdate struct {
	Project     *models.Project
	Status      models.ProjectStatus
	Progress    int
	CompletedAt *time.Time
}

// ProjectRepository defines persistence operations for installation projects.
type ProjectRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Project, error)
	ListForCommunity(ctx context.Context, communityID uint) ([]ProjectView, error)
	ListForProvider(ctx context.Context, providerID uint) ([]ProjectView, error)
	LatestCompleted(ctx context.Context, communityID uint) (*models.Project, error)
	UpdateProgress(ctx context.Context, update ProgressUpdate) (*models.Project, error)
}

type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository returns a new ProjectRepository implementation.
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) GetByID(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).First(&project, id).Error; err != nil {
		return nil, notFoundOr(err, "Project", id)
	}
	return &project, nil
}

func (r *projectRepository) views(ctx context.Context) *gorm.DB {
	return readDB(r.db).WithContext(ctx).
		Table("projects").
		Select("projects.*, communities.name AS community_name, profiles.name AS provider_name").
		Joins("LEFT JOIN communities ON communities.id = projects.community_id").
		Joins("LEFT JOIN profiles ON profiles.id = projects.provider_id")
}

// ListForCommunity returns the community's projects, newest first.
func (r *projectRepository) ListForCommunity(ctx context.Context, communityID uint) ([]ProjectView, error) {
	var rows []ProjectView
	err := r.views(ctx).
		Where("projects.community_id = ?", communityID).
		Order("projects.created_at DESC").Order("projects.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}

func (r *projectRepository) ListForProvider(ctx context.Context, providerID uint) ([]ProjectView, error) {
	var rows []ProjectView
	err := r.views(ctx).
		Where("projects.provider_id = ?", providerID).
		Order("projects.created_at DESC").Order("projects.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}

// LatestCompleted returns the most recently completed project of a community, or nil, nil.
func (r *projectRepository) LatestCompleted(ctx context.Context, communityID uint) (*models.Project, error) {
	var project models.Project
	err := readDB(r.db).WithContext(ctx).
		Where("community_id = ? AND status = ? AND completed_at IS NOT NULL", communityID, models.ProjectStatusCompleted).
		Order("completed_at DESC").
		First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &project, nil
}

// UpdateProgress applies the update only if the row still holds the status and
// progress it was read with, and appends a project.progressed event.
func (r *projectRepository) UpdateProgress(ctx context.Context, u ProgressUpdate) (*models.Project, error) {
	var updated models.Project
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fields := map[string]any{
			"status":              u.Status,
			"progress_percentage": u.Progress,
			"updated_at":          time.Now(),
		}
		if u.CompletedAt != nil {
			fields["completed_at"] = *u.CompletedAt
		}
		res := tx.Model(&models.Project{}).
			Where("id = ? AND status = ? AND progress_percentage = ?", u.Project.ID, u.Project.Status, u.Project.ProgressPercentage).
			Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrProjectChanged
		}
		if err := tx.First(&updated, u.Project.ID).Error; err != nil {
			return err
		}
		return appendOutbox(tx, models.EventProjectProgressed, updated.ID, models.ProjectProgressedPayload{
			ProjectID:          updated.ID,
			CommunityID:        updated.CommunityID,
			Status:             updated.Status,
			ProgressPercentage: updated.ProgressPercentage,
		})
	})
	if err != nil {
		if errors.Is(err, ErrProjectChanged) {
			return nil, models.NewConflictError("", "Project was updated by someone else, reload and try again")
		}
		return nil, models.NewInternalError(err)
	}
	return &updated, nil
}
