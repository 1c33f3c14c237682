package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/compass-api/internal/models"
	"github.com/noah-isme/compass-api/internal/repository"
)

// AssessmentTarget is the set of students a submission is assessed for, together with the
// competency the submission's task is evaluated against.
type AssessmentTarget struct {
	Submission models.Submission
	Competency models.Competency
	Students   []models.Student
}

// Includes reports whether the student belongs to the target set.
func (t AssessmentTarget) Includes(studentID uint) bool {
	for _, student := range t.Students {
		if student.ID == studentID {
			return true
		}
	}
	return false
}

// SubmissionResolver determines who must be assessed for a submission.
type SubmissionResolver interface {
	Resolve(ctx context.Context, submission models.Submission) (AssessmentTarget, error)
}

type submissionResolver struct {
	catalog  repository.CatalogRepository
	students repository.StudentRepository
}

// NewSubmissionResolver constructs the resolver.
func NewSubmissionResolver(catalog repository.CatalogRepository, students repository.StudentRepository) SubmissionResolver {
	return &submissionResolver{catalog: catalog, students: students}
}

// Resolve returns every group member for a group submission, or the submitter otherwise.
func (r *submissionResolver) Resolve(ctx context.Context, submission models.Submission) (AssessmentTarget, error) {
	competency, err := r.catalog.LinkedCompetency(ctx, submission.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AssessmentTarget{}, ErrNoLinkedCompetency
		}
		return AssessmentTarget{}, err
	}

	var students []models.Student
	if submission.IsGroup() {
		students, err = r.students.GroupMembers(ctx, *submission.GroupID)
		if err != nil {
			return AssessmentTarget{}, err
		}
	} else {
		student, err := r.students.GetByID(ctx, submission.SubmitterID)
		switch {
		case err == nil:
			students = []models.Student{student}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return AssessmentTarget{}, err
		}
	}

	if len(students) == 0 {
		return AssessmentTarget{}, ErrNoStudentsToAssess
	}

	return AssessmentTarget{
		Submission: submission,
		Competency: competency,
		Students:   students,
	}, nil
}
