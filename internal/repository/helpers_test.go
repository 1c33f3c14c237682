package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/compass-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

type fixture struct {
	teacher    models.Teacher
	parent     models.Parent
	students   []models.Student
	group      models.Group
	competency models.Competency
	criteria   []models.Criterion
	levels     []models.PerformanceLevel
	task       models.Task
	submission models.Submission
}

func seedFixture(t *testing.T, db *gorm.DB) fixture {
	t.Helper()

	var f fixture
	f.teacher = models.Teacher{Name: "Teacher", Email: "teacher@school.test"}
	require.NoError(t, db.Create(&f.teacher).Error)
	f.parent = models.Parent{Name: "Parent", Email: "parent@home.test"}
	require.NoError(t, db.Create(&f.parent).Error)

	for _, name := range []string{"Zoe", "Adam", "Mia"} {
		student := models.Student{Name: name, Email: strings.ToLower(name) + "@school.test"}
		if name == "Mia" {
			student.ParentID = &f.parent.ID
		}
		require.NoError(t, db.Create(&student).Error)
		f.students = append(f.students, student)
	}

	f.group = models.Group{Name: "Team", Members: f.students}
	require.NoError(t, db.Create(&f.group).Error)

	f.competency = models.Competency{Name: "Inquiry"}
	require.NoError(t, db.Create(&f.competency).Error)
	for _, name := range []string{"Questioning", "Evidence"} {
		criterion := models.Criterion{CompetencyID: f.competency.ID, Name: name}
		require.NoError(t, db.Create(&criterion).Error)
		f.criteria = append(f.criteria, criterion)
	}

	for _, level := range []models.PerformanceLevel{{Name: "Low", ScoreValue: 1}, {Name: "High", ScoreValue: 4}, {Name: "Mid", ScoreValue: 2}} {
		level := level
		require.NoError(t, db.Create(&level).Error)
		f.levels = append(f.levels, level)
	}

	f.task = models.Task{TeacherID: f.teacher.ID, Title: "Lab report", DueDate: time.Now(), Competencies: []models.Competency{f.competency}}
	require.NoError(t, db.Create(&f.task).Error)

	f.submission = models.Submission{TaskID: f.task.ID, GroupID: &f.group.ID, SubmitterID: f.students[0].ID}
	require.NoError(t, db.Create(&f.submission).Error)

	return f
}
