package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrSubmissionOwner indicates a submission references both or neither of a student and a group.
var ErrSubmissionOwner = errors.New("submission must reference either a student or a group")

// Submission represents the artifact uploaded for a task, by a student or on behalf of a group.
type Submission struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	TaskID         uint       `gorm:"not null;index" json:"task_id"`
	StudentID      *uint      `gorm:"index" json:"student_id"`
	GroupID        *uint      `gorm:"index" json:"group_id"`
	SubmitterID    uint       `gorm:"not null" json:"submitter_id"`
	FileName       string     `gorm:"size:255" json:"file_name"`
	FilePath       string     `gorm:"size:512" json:"file_path"`
	IsLate         bool       `gorm:"not null;default:false" json:"is_late"`
	IsAssessed     bool       `gorm:"not null;default:false" json:"is_assessed"`
	AssessmentTime *time.Time `json:"assessment_time"`
	SubmittedAt    time.Time  `gorm:"not null" json:"submitted_at"`
	Task           Task       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"task"`
	Group          *Group     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"group,omitempty"`
	Submitter      Student    `gorm:"foreignKey:SubmitterID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"submitter"`
}

// TableName overrides the default table name.
func (Submission) TableName() string {
	return "projects"
}

// IsGroup reports whether the submission was made on behalf of a group.
func (s Submission) IsGroup() bool {
	return s.GroupID != nil
}

// BeforeCreate enforces that exactly one of StudentID and GroupID is set.
func (s *Submission) BeforeCreate(_ *gorm.DB) error {
	if (s.StudentID == nil) == (s.GroupID == nil) {
		return ErrSubmissionOwner
	}
	if s.SubmittedAt.IsZero() {
		s.SubmittedAt = time.Now()
	}
	return nil
}
