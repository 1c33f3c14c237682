package service

import (
	"strings"

	"github.com/noah-isme/compass-api/internal/models"
)

// Roles recognised by the access checks.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
	RoleParent  = "parent"
)

// Actor is the authenticated identity performing an operation. ID is the id of the
// teacher, student or parent row matching Role.
type Actor struct {
	ID   uint
	Role string
}

// Is reports whether the actor holds the given role.
func (a Actor) Is(role string) bool {
	return a.ID != 0 && strings.EqualFold(strings.TrimSpace(a.Role), role)
}

// CanAssess reports whether the actor may record assessments for submissions of the task.
func CanAssess(actor Actor, task models.Task) bool {
	return actor.Is(RoleTeacher) && task.OwnedBy(actor.ID)
}

// CanViewStudent reports whether the actor may read the student's assessment results.
func CanViewStudent(actor Actor, student models.Student) bool {
	switch {
	case actor.Is(RoleStudent):
		return actor.ID == student.ID
	case actor.Is(RoleParent):
		return student.HasParent(actor.ID)
	default:
		return false
	}
}
