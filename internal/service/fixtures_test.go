package service

import (
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/compass-api/internal/models"
	"github.com/noah-isme/compass-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func uintPtr(v uint) *uint {
	return &v
}

// newTestDB opens an isolated in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

type school struct {
	Teacher      models.Teacher
	OtherTeacher models.Teacher
	Parent       models.Parent
	Alice        models.Student
	Bob          models.Student
	Carol        models.Student
	Dave         models.Student
	Group        models.Group
	Empty        models.Group
	Competency   models.Competency
	Criteria     []models.Criterion
	Excellent    models.PerformanceLevel
	Good         models.PerformanceLevel
	Fair         models.PerformanceLevel
	Task         models.Task
	Unlinked     models.Task
	Individual   models.Submission
	GroupWork    models.Submission
	EmptyGroup   models.Submission
	Orphan       models.Submission
}

// seedSchool creates one teacher-owned task linked to a three-criterion competency, an
// individual submission by Alice and a group submission by Alice, Bob and Carol.
func seedSchool(t *testing.T, db *gorm.DB) school {
	t.Helper()

	var s school
	s.Teacher = models.Teacher{Name: "Ms Rivera", Email: "rivera@school.test"}
	s.OtherTeacher = models.Teacher{Name: "Mr Okafor", Email: "okafor@school.test"}
	require.NoError(t, db.Create(&s.Teacher).Error)
	require.NoError(t, db.Create(&s.OtherTeacher).Error)

	s.Parent = models.Parent{Name: "Jordan Lee", Email: "jordan@home.test"}
	require.NoError(t, db.Create(&s.Parent).Error)

	s.Alice = models.Student{Name: "Alice", Email: "alice@school.test", ParentID: &s.Parent.ID}
	s.Bob = models.Student{Name: "Bob", Email: "bob@school.test"}
	s.Carol = models.Student{Name: "Carol", Email: "carol@school.test"}
	s.Dave = models.Student{Name: "Dave", Email: "dave@school.test"}
	for _, student := range []*models.Student{&s.Alice, &s.Bob, &s.Carol, &s.Dave} {
		require.NoError(t, db.Create(student).Error)
	}

	s.Group = models.Group{Name: "Team Orion", Members: []models.Student{s.Alice, s.Bob, s.Carol}}
	require.NoError(t, db.Create(&s.Group).Error)
	s.Empty = models.Group{Name: "Team Nobody"}
	require.NoError(t, db.Create(&s.Empty).Error)

	s.Competency = models.Competency{Name: "Problem Solving", Description: "Breaks problems down"}
	require.NoError(t, db.Create(&s.Competency).Error)
	for _, name := range []string{"Analysis", "Planning", "Execution"} {
		criterion := models.Criterion{CompetencyID: s.Competency.ID, Name: name}
		require.NoError(t, db.Create(&criterion).Error)
		s.Criteria = append(s.Criteria, criterion)
	}

	s.Excellent = models.PerformanceLevel{Name: "Excellent", ScoreValue: 5}
	s.Good = models.PerformanceLevel{Name: "Good", ScoreValue: 4}
	s.Fair = models.PerformanceLevel{Name: "Fair", ScoreValue: 3}
	for _, level := range []*models.PerformanceLevel{&s.Fair, &s.Excellent, &s.Good} {
		require.NoError(t, db.Create(level).Error)
	}

	due := time.Now().Add(72 * time.Hour)
	s.Task = models.Task{TeacherID: s.Teacher.ID, Title: "Bridge design", DueDate: due, Competencies: []models.Competency{s.Competency}}
	require.NoError(t, db.Create(&s.Task).Error)
	s.Unlinked = models.Task{TeacherID: s.Teacher.ID, Title: "Free reading", DueDate: due}
	require.NoError(t, db.Create(&s.Unlinked).Error)

	s.Individual = models.Submission{TaskID: s.Task.ID, StudentID: &s.Alice.ID, SubmitterID: s.Alice.ID, FileName: "bridge.pdf"}
	s.GroupWork = models.Submission{TaskID: s.Task.ID, GroupID: &s.Group.ID, SubmitterID: s.Bob.ID, FileName: "orion.zip"}
	s.EmptyGroup = models.Submission{TaskID: s.Task.ID, GroupID: &s.Empty.ID, SubmitterID: s.Dave.ID, FileName: "empty.zip"}
	s.Orphan = models.Submission{TaskID: s.Unlinked.ID, StudentID: &s.Dave.ID, SubmitterID: s.Dave.ID, FileName: "essay.txt"}
	for _, submission := range []*models.Submission{&s.Individual, &s.GroupWork, &s.EmptyGroup, &s.Orphan} {
		require.NoError(t, db.Create(submission).Error)
	}

	return s
}

func newCatalogServiceForTest(db *gorm.DB, seed CatalogSeedOptions) CatalogService {
	return NewCatalogService(repository.NewCatalogRepository(db), validator.New(), seed, testLogger())
}
