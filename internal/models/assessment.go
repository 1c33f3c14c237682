package models

import (
	"math"
	"time"
)

// Assessment is one student's scored evaluation of a task against one competency.
type Assessment struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	StudentID    uint             `gorm:"not null;uniqueIndex:idx_assessment_subject" json:"student_id"`
	TaskID       uint             `gorm:"not null;uniqueIndex:idx_assessment_subject" json:"task_id"`
	CompetencyID uint             `gorm:"not null;uniqueIndex:idx_assessment_subject" json:"competency_id"`
	OverallScore *float64         `json:"overall_score"`
	Feedback     string           `gorm:"type:text" json:"feedback"`
	AssessedAt   time.Time        `gorm:"not null;index" json:"assessed_at"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	Student      Student          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Task         Task             `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Competency   Competency       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Ratings      []CriteriaRating `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"ratings,omitempty"`
}

// TableName overrides the default table name.
func (Assessment) TableName() string {
	return "competency_assessments"
}

// CriteriaRating is the performance level chosen for one criterion within an assessment.
type CriteriaRating struct {
	ID                 uint             `gorm:"primaryKey" json:"id"`
	AssessmentID       uint             `gorm:"not null;uniqueIndex:idx_rating_assessment_criterion" json:"assessment_id"`
	CriterionID        uint             `gorm:"not null;uniqueIndex:idx_rating_assessment_criterion" json:"criterion_id"`
	PerformanceLevelID uint             `gorm:"not null;index" json:"performance_level_id"`
	Feedback           string           `gorm:"type:text" json:"feedback"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
	Criterion          Criterion        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	PerformanceLevel   PerformanceLevel `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

// TableName overrides the default table name.
func (CriteriaRating) TableName() string {
	return "criteria_ratings"
}

// OverallScore returns the mean of the given score values rounded to two decimals.
// The boolean is false when there is nothing to average.
func OverallScore(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}

	var total float64
	for _, value := range values {
		total += value
	}

	return math.Round(total/float64(len(values))*100) / 100, true
}
