package models

import "time"

// Competency is a skill area that tasks are evaluated against.
type Competency struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Name        string      `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Criteria    []Criterion `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"criteria,omitempty"`
}

// TableName overrides the default table name.
func (Competency) TableName() string {
	return "competencies"
}

// Criterion is an independently rated dimension within a competency.
type Criterion struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	CompetencyID uint       `gorm:"not null;uniqueIndex:idx_criteria_competency_name" json:"competency_id"`
	Name         string     `gorm:"size:255;not null;uniqueIndex:idx_criteria_competency_name" json:"name"`
	Description  string     `gorm:"type:text" json:"description"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Competency   Competency `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

// TableName overrides the default table name.
func (Criterion) TableName() string {
	return "criteria"
}

// PerformanceLevel is a named point on the global scoring scale.
type PerformanceLevel struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:128;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	ScoreValue  float64   `gorm:"not null" json:"score_value"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName overrides the default table name.
func (PerformanceLevel) TableName() string {
	return "performance"
}

// RubricEntry holds display text for a (criterion, performance level) pair.
// It never participates in scoring.
type RubricEntry struct {
	ID                 uint             `gorm:"primaryKey" json:"id"`
	CriterionID        uint             `gorm:"not null;uniqueIndex:idx_rubric_pair" json:"criterion_id"`
	PerformanceLevelID uint             `gorm:"not null;uniqueIndex:idx_rubric_pair" json:"performance_level_id"`
	Description        string           `gorm:"type:text" json:"description"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
	Criterion          Criterion        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	PerformanceLevel   PerformanceLevel `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

// TableName overrides the default table name.
func (RubricEntry) TableName() string {
	return "rubric"
}
