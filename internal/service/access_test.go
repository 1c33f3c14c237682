package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/compass-api/internal/models"
)

func TestCanAssess(t *testing.T) {
	task := models.Task{ID: 1, TeacherID: 10}

	require.True(t, CanAssess(Actor{ID: 10, Role: "teacher"}, task))
	require.True(t, CanAssess(Actor{ID: 10, Role: " Teacher"}, task))
	require.False(t, CanAssess(Actor{ID: 11, Role: "teacher"}, task))
	require.False(t, CanAssess(Actor{ID: 10, Role: "student"}, task))
	require.False(t, CanAssess(Actor{Role: "teacher"}, models.Task{}))
}

func TestCanViewStudent(t *testing.T) {
	parentID := uint(7)
	student := models.Student{ID: 3, ParentID: &parentID}
	orphan := models.Student{ID: 4}

	require.True(t, CanViewStudent(Actor{ID: 3, Role: RoleStudent}, student))
	require.True(t, CanViewStudent(Actor{ID: 7, Role: RoleParent}, student))
	require.False(t, CanViewStudent(Actor{ID: 4, Role: RoleStudent}, student))
	require.False(t, CanViewStudent(Actor{ID: 8, Role: RoleParent}, student))
	require.False(t, CanViewStudent(Actor{ID: 7, Role: RoleParent}, orphan))
	require.False(t, CanViewStudent(Actor{ID: 3, Role: RoleTeacher}, student))
	require.False(t, CanViewStudent(Actor{ID: 3, Role: RoleAdmin}, student))
}
