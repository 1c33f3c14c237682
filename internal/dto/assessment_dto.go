package dto

import (
	"time"

	"github.com/noah-isme/compass-api/internal/models"
)

// RatingInput selects a performance level for one criterion.
type RatingInput struct {
	CriterionID        uint   `json:"criterion_id" validate:"required,gt=0"`
	PerformanceLevelID uint   `json:"performance_level_id" validate:"required,gt=0"`
	Feedback           string `json:"feedback" validate:"max=2000"`
}

// RecordAssessmentRequest is submitted by a teacher to assess one student.
// Ratings may cover a subset of the competency's criteria.
type RecordAssessmentRequest struct {
	StudentID       uint          `json:"student_id" validate:"required,gt=0"`
	GeneralFeedback string        `json:"general_feedback" validate:"max=5000"`
	Ratings         []RatingInput `json:"ratings" validate:"dive"`
}

// RecordAssessmentResponse is returned after an assessment is stored.
type RecordAssessmentResponse struct {
	AssessmentID uint      `json:"assessment_id"`
	StudentID    uint      `json:"student_id"`
	OverallScore float64   `json:"overall_score"`
	AssessedAt   time.Time `json:"assessed_at"`
}

// StudentLite summarizes a student without exposing full profile data.
type StudentLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SubmissionSummary describes a submission in the teacher's queue.
type SubmissionSummary struct {
	ID             uint       `json:"id"`
	TaskID         uint       `json:"task_id"`
	TaskTitle      string     `json:"task_title"`
	SubmitterID    uint       `json:"submitter_id"`
	SubmitterName  string     `json:"submitter_name"`
	GroupID        *uint      `json:"group_id"`
	GroupName      string     `json:"group_name,omitempty"`
	FileName       string     `json:"file_name"`
	IsLate         bool       `json:"is_late"`
	IsAssessed     bool       `json:"is_assessed"`
	AssessmentTime *time.Time `json:"assessment_time"`
	SubmittedAt    time.Time  `json:"submitted_at"`
}

// AssessmentFormResponse carries everything a teacher needs to assess a submission.
type AssessmentFormResponse struct {
	Submission        SubmissionSummary          `json:"submission"`
	Competency        CompetencyResponse         `json:"competency"`
	Students          []StudentLite              `json:"students"`
	Criteria          []CriterionResponse        `json:"criteria"`
	PerformanceLevels []PerformanceLevelResponse `json:"performance_levels"`
	Rubric            []RubricEntryResponse      `json:"rubric"`
	Activity          []ActivityResponse         `json:"activity"`
}

// AssessmentSummary is one entry of a student's assessment history.
type AssessmentSummary struct {
	ID             uint      `json:"id"`
	TaskID         uint      `json:"task_id"`
	TaskTitle      string    `json:"task_title"`
	CompetencyID   uint      `json:"competency_id"`
	CompetencyName string    `json:"competency_name"`
	OverallScore   *float64  `json:"overall_score"`
	Feedback       string    `json:"feedback"`
	AssessedAt     time.Time `json:"assessed_at"`
}

// AssessmentHistoryResponse lists a student's assessments, newest first.
type AssessmentHistoryResponse struct {
	StudentID uint                `json:"student_id"`
	Items     []AssessmentSummary `json:"items"`
	CacheHit  bool                `json:"cache_hit"`
}

// CriteriaRatingResponse is one criterion's result within a breakdown.
type CriteriaRatingResponse struct {
	CriterionID        uint    `json:"criterion_id"`
	CriterionName      string  `json:"criterion_name"`
	PerformanceLevelID uint    `json:"performance_level_id"`
	LevelName          string  `json:"level_name"`
	LevelDescription   string  `json:"level_description"`
	ScoreValue         float64 `json:"score_value"`
	Feedback           string  `json:"feedback"`
}

// CriteriaBreakdownResponse is an assessment with its per-criterion ratings.
type CriteriaBreakdownResponse struct {
	Assessment AssessmentSummary        `json:"assessment"`
	Student    StudentLite              `json:"student"`
	Ratings    []CriteriaRatingResponse `json:"ratings"`
}

// NewStudentLite converts a student model.
func NewStudentLite(model models.Student) StudentLite {
	return StudentLite{
		ID:    model.ID,
		Name:  model.Name,
		Email: model.Email,
	}
}

// NewStudentLites converts student models preserving order.
func NewStudentLites(items []models.Student) []StudentLite {
	responses := make([]StudentLite, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewStudentLite(item))
	}
	return responses
}

// NewSubmissionSummary converts a submission with preloaded task, group and submitter.
func NewSubmissionSummary(model models.Submission) SubmissionSummary {
	summary := SubmissionSummary{
		ID:             model.ID,
		TaskID:         model.TaskID,
		TaskTitle:      model.Task.Title,
		SubmitterID:    model.SubmitterID,
		SubmitterName:  model.Submitter.Name,
		GroupID:        model.GroupID,
		FileName:       model.FileName,
		IsLate:         model.IsLate,
		IsAssessed:     model.IsAssessed,
		AssessmentTime: model.AssessmentTime,
		SubmittedAt:    model.SubmittedAt,
	}
	if model.Group != nil {
		summary.GroupName = model.Group.Name
	}
	return summary
}

// NewAssessmentSummary converts an assessment with preloaded task and competency.
func NewAssessmentSummary(model models.Assessment) AssessmentSummary {
	return AssessmentSummary{
		ID:             model.ID,
		TaskID:         model.TaskID,
		TaskTitle:      model.Task.Title,
		CompetencyID:   model.CompetencyID,
		CompetencyName: model.Competency.Name,
		OverallScore:   model.OverallScore,
		Feedback:       model.Feedback,
		AssessedAt:     model.AssessedAt,
	}
}

// NewCriteriaBreakdownResponse converts an assessment with preloaded ratings.
func NewCriteriaBreakdownResponse(model models.Assessment) CriteriaBreakdownResponse {
	ratings := make([]CriteriaRatingResponse, 0, len(model.Ratings))
	for _, rating := range model.Ratings {
		ratings = append(ratings, CriteriaRatingResponse{
			CriterionID:        rating.CriterionID,
			CriterionName:      rating.Criterion.Name,
			PerformanceLevelID: rating.PerformanceLevelID,
			LevelName:          rating.PerformanceLevel.Name,
			LevelDescription:   rating.PerformanceLevel.Description,
			ScoreValue:         rating.PerformanceLevel.ScoreValue,
			Feedback:           rating.Feedback,
		})
	}

	return CriteriaBreakdownResponse{
		Assessment: NewAssessmentSummary(model),
		Student:    NewStudentLite(model.Student),
		Ratings:    ratings,
	}
}
