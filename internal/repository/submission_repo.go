package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/compass-api/internal/models"
)

// SubmissionRepository defines read operations for task submissions.
type SubmissionRepository interface {
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	ListForTeacher(ctx context.Context, teacherID uint) ([]models.Submission, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Task").
		Preload("Group").
		Preload("Submitter")
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) ListForTeacher(ctx context.Context, teacherID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.baseQuery(ctx).
		Joins("JOIN tasks ON tasks.id = projects.task_id").
		Where("tasks.teacher_id = ?", teacherID).
		Order("projects.submitted_at DESC, projects.id DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}
