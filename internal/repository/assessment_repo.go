package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/compass-api/internal/models"
)

// RatingWrite is one criterion's chosen performance level.
type RatingWrite struct {
	CriterionID        uint
	PerformanceLevelID uint
	Feedback           string
}

// AssessmentWrite carries everything persisted by a single assessment recording.
type AssessmentWrite struct {
	SubmissionID uint
	StudentID    uint
	TaskID       uint
	CompetencyID uint
	Feedback     string
	Ratings      []RatingWrite
	AssessedAt   time.Time
}

// AssessmentRepository persists and reads competency assessments.
type AssessmentRepository interface {
	Record(ctx context.Context, write AssessmentWrite) (models.Assessment, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Assessment, error)
	GetWithRatings(ctx context.Context, id uint) (models.Assessment, error)
}

type assessmentRepository struct {
	db *gorm.DB
}

// NewAssessmentRepository constructs the assessment repository.
func NewAssessmentRepository(db *gorm.DB) AssessmentRepository {
	return &assessmentRepository{db: db}
}

// Record upserts the assessment keyed by (student, task, competency), upserts one rating per
// criterion keyed by (assessment, criterion), stores the overall score and flags the
// submission as assessed. Every write shares one transaction.
func (r *assessmentRepository) Record(ctx context.Context, write AssessmentWrite) (models.Assessment, error) {
	if len(write.Ratings) == 0 {
		return models.Assessment{}, errors.New("assessment requires at least one rating")
	}
	if write.AssessedAt.IsZero() {
		write.AssessedAt = time.Now()
	}

	var stored models.Assessment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		assessment := models.Assessment{
			StudentID:    write.StudentID,
			TaskID:       write.TaskID,
			CompetencyID: write.CompetencyID,
			Feedback:     write.Feedback,
			AssessedAt:   write.AssessedAt,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "task_id"}, {Name: "competency_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"feedback", "assessed_at", "updated_at"}),
		}).Create(&assessment).Error; err != nil {
			return err
		}

		if err := tx.
			Where("student_id = ? AND task_id = ? AND competency_id = ?", write.StudentID, write.TaskID, write.CompetencyID).
			First(&stored).Error; err != nil {
			return err
		}

		for _, rating := range write.Ratings {
			var level models.PerformanceLevel
			if err := tx.Select("id").First(&level, rating.PerformanceLevelID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %d", ErrPerformanceLevelNotFound, rating.PerformanceLevelID)
				}
				return err
			}

			row := models.CriteriaRating{
				AssessmentID:       stored.ID,
				CriterionID:        rating.CriterionID,
				PerformanceLevelID: rating.PerformanceLevelID,
				Feedback:           rating.Feedback,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "assessment_id"}, {Name: "criterion_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"performance_level_id", "feedback", "updated_at"}),
			}).Create(&row).Error; err != nil {
				return err
			}
		}

		// The score covers every stored rating, not only the ones in this write, so a
		// partial re-rating keeps the other criteria in the mean.
		var values []float64
		if err := tx.Model(&models.CriteriaRating{}).
			Joins("JOIN performance ON performance.id = criteria_ratings.performance_level_id").
			Where("criteria_ratings.assessment_id = ?", stored.ID).
			Pluck("performance.score_value", &values).Error; err != nil {
			return err
		}

		if score, ok := models.OverallScore(values); ok {
			if err := tx.Model(&models.Assessment{}).
				Where("id = ?", stored.ID).
				Update("overall_score", score).Error; err != nil {
				return err
			}
			stored.OverallScore = &score
		}

		// The flag and its timestamp are written once; re-assessments leave them untouched.
		return tx.Model(&models.Submission{}).
			Where("id = ? AND is_assessed = ?", write.SubmissionID, false).
			UpdateColumns(map[string]interface{}{
				"is_assessed":     true,
				"assessment_time": write.AssessedAt,
			}).Error
	})
	if err != nil {
		return models.Assessment{}, err
	}

	return stored, nil
}

func (r *assessmentRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Assessment, error) {
	var assessments []models.Assessment
	if err := r.db.WithContext(ctx).
		Preload("Task").
		Preload("Competency").
		Where("student_id = ?", studentID).
		Order("assessed_at DESC, id DESC").
		Find(&assessments).Error; err != nil {
		return nil, err
	}
	return assessments, nil
}

func (r *assessmentRepository) GetWithRatings(ctx context.Context, id uint) (models.Assessment, error) {
	var assessment models.Assessment
	if err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Task").
		Preload("Competency").
		Preload("Ratings", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("criterion_id ASC")
		}).
		Preload("Ratings.Criterion").
		Preload("Ratings.PerformanceLevel").
		First(&assessment, id).Error; err != nil {
		return models.Assessment{}, err
	}
	return assessment, nil
}
