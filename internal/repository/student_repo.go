package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/compass-api/internal/models"
)

// StudentRepository provides student, group and guardianship lookups.
type StudentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Student, error)
	GroupMembers(ctx context.Context, groupID uint) ([]models.Student, error)
	ChildrenOf(ctx context.Context, parentID uint) ([]models.Student, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}
	return student, nil
}

func (r *studentRepository) GroupMembers(ctx context.Context, groupID uint) ([]models.Student, error) {
	var students []models.Student
	if err := r.db.WithContext(ctx).
		Joins("JOIN group_members ON group_members.student_id = students.id").
		Where("group_members.group_id = ?", groupID).
		Order("students.name ASC, students.id ASC").
		Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

func (r *studentRepository) ChildrenOf(ctx context.Context, parentID uint) ([]models.Student, error) {
	var students []models.Student
	if err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("name ASC, id ASC").
		Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}
