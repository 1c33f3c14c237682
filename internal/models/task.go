package models

import "time"

// Task is a piece of work set by a teacher and linked to the competencies it evaluates.
type Task struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	TeacherID    uint         `gorm:"not null;index" json:"teacher_id"`
	Title        string       `gorm:"size:255;not null" json:"title"`
	Description  string       `gorm:"type:text" json:"description"`
	DueDate      time.Time    `gorm:"not null" json:"due_date"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Teacher      Teacher      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Competencies []Competency `gorm:"many2many:task_competencies" json:"competencies,omitempty"`
}

// OwnedBy reports whether the task belongs to the given teacher.
func (t Task) OwnedBy(teacherID uint) bool {
	return teacherID != 0 && t.TeacherID == teacherID
}
