package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/compass-api/internal/dto"
	"github.com/noah-isme/compass-api/internal/models"
	"github.com/noah-isme/compass-api/internal/repository"
)

func newReaderForTest(t *testing.T, h *assessmentHarness) AssessmentReader {
	t.Helper()
	return NewAssessmentReader(
		repository.NewAssessmentRepository(h.db),
		repository.NewStudentRepository(h.db),
		h.cache,
		time.Minute,
		testLogger(),
	)
}

func TestAssessmentReaderBreakdownAuthorization(t *testing.T) {
	h := newAssessmentHarness(t)
	s := h.school
	ctx := context.Background()

	recorded, err := h.service.Record(ctx, h.teacher(), s.Individual.ID, dto.RecordAssessmentRequest{
		StudentID: s.Alice.ID,
		Ratings: []dto.RatingInput{
			{CriterionID: s.Criteria[2].ID, PerformanceLevelID: s.Fair.ID, Feedback: "Rushed"},
			{CriterionID: s.Criteria[0].ID, PerformanceLevelID: s.Excellent.ID},
		},
	})
	require.NoError(t, err)

	reader := newReaderForTest(t, h)

	asStudent, err := reader.Breakdown(ctx, Actor{ID: s.Alice.ID, Role: RoleStudent}, recorded.AssessmentID)
	require.NoError(t, err)
	require.Equal(t, s.Alice.ID, asStudent.Student.ID)
	require.Equal(t, "Bridge design", asStudent.Assessment.TaskTitle)
	require.Equal(t, "Problem Solving", asStudent.Assessment.CompetencyName)
	require.Len(t, asStudent.Ratings, 2)
	require.Equal(t, s.Criteria[0].ID, asStudent.Ratings[0].CriterionID)
	require.Equal(t, "Excellent", asStudent.Ratings[0].LevelName)
	require.Equal(t, "Execution", asStudent.Ratings[1].CriterionName)
	require.InDelta(t, 3.0, asStudent.Ratings[1].ScoreValue, 0.0001)
	require.Equal(t, "Rushed", asStudent.Ratings[1].Feedback)

	asParent, err := reader.Breakdown(ctx, Actor{ID: s.Parent.ID, Role: RoleParent}, recorded.AssessmentID)
	require.NoError(t, err)
	require.Equal(t, asStudent.Assessment.ID, asParent.Assessment.ID)

	_, err = reader.Breakdown(ctx, Actor{ID: s.Bob.ID, Role: RoleStudent}, recorded.AssessmentID)
	require.ErrorIs(t, err, ErrNotStudentViewer)

	_, err = reader.Breakdown(ctx, Actor{ID: s.Teacher.ID, Role: RoleTeacher}, recorded.AssessmentID)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = reader.Breakdown(ctx, Actor{ID: s.Alice.ID, Role: RoleStudent}, 999)
	require.ErrorIs(t, err, ErrAssessmentNotFound)
}

func TestAssessmentReaderHistoryOrderingAndCache(t *testing.T) {
	h := newAssessmentHarness(t)
	s := h.school
	ctx := context.Background()

	_, err := h.service.Record(ctx, h.teacher(), s.Individual.ID, dto.RecordAssessmentRequest{StudentID: s.Alice.ID, Ratings: h.rate(s.Good)})
	require.NoError(t, err)

	later := models.Task{TeacherID: s.Teacher.ID, Title: "Tower design", DueDate: h.clock, Competencies: []models.Competency{s.Competency}}
	require.NoError(t, h.db.Create(&later).Error)
	laterWork := models.Submission{TaskID: later.ID, StudentID: &s.Alice.ID, SubmitterID: s.Alice.ID}
	require.NoError(t, h.db.Create(&laterWork).Error)

	h.clock = h.clock.Add(time.Hour)
	_, err = h.service.Record(ctx, h.teacher(), laterWork.ID, dto.RecordAssessmentRequest{StudentID: s.Alice.ID, Ratings: h.rate(s.Fair)})
	require.NoError(t, err)

	reader := newReaderForTest(t, h)
	alice := Actor{ID: s.Alice.ID, Role: RoleStudent}

	first, err := reader.History(ctx, alice, s.Alice.ID)
	require.NoError(t, err)
	require.False(t, first.CacheHit)
	require.Len(t, first.Items, 2)
	require.Equal(t, "Tower design", first.Items[0].TaskTitle)
	require.Equal(t, "Bridge design", first.Items[1].TaskTitle)
	require.Equal(t, "Problem Solving", first.Items[1].CompetencyName)

	second, err := reader.History(ctx, alice, s.Alice.ID)
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	require.Equal(t, first.Items[0].ID, second.Items[0].ID)

	// The group submission shares Alice's task, so it updates her existing row.
	_, err = h.service.Record(ctx, h.teacher(), s.GroupWork.ID, dto.RecordAssessmentRequest{StudentID: s.Alice.ID, Ratings: h.rate(s.Excellent)})
	require.NoError(t, err)

	third, err := reader.History(ctx, Actor{ID: s.Parent.ID, Role: RoleParent}, s.Alice.ID)
	require.NoError(t, err)
	require.False(t, third.CacheHit)
	require.Len(t, third.Items, 2)
	require.Equal(t, "Bridge design", third.Items[1].TaskTitle)
	require.InDelta(t, 5.0, *third.Items[1].OverallScore, 0.0001)

	_, err = reader.History(ctx, Actor{ID: s.Parent.ID, Role: RoleParent}, s.Bob.ID)
	require.ErrorIs(t, err, ErrNotStudentViewer)

	_, err = reader.History(ctx, alice, 999)
	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestAssessmentReaderHistoryWithoutCache(t *testing.T) {
	h := newAssessmentHarness(t)
	s := h.school

	reader := NewAssessmentReader(repository.NewAssessmentRepository(h.db), repository.NewStudentRepository(h.db), nil, time.Minute, testLogger())
	history, err := reader.History(context.Background(), Actor{ID: s.Bob.ID, Role: RoleStudent}, s.Bob.ID)
	require.NoError(t, err)
	require.Empty(t, history.Items)
	require.False(t, history.CacheHit)
}

func TestAssessmentReaderHistoryToleratesCacheOutage(t *testing.T) {
	h := newAssessmentHarness(t)
	s := h.school

	mini, err := miniredis.Run()
	require.NoError(t, err)
	broken := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	mini.Close()

	reader := NewAssessmentReader(repository.NewAssessmentRepository(h.db), repository.NewStudentRepository(h.db), broken, time.Minute, testLogger())
	_, err = reader.History(context.Background(), Actor{ID: s.Alice.ID, Role: RoleStudent}, s.Alice.ID)
	require.NoError(t, err)
}

func TestAssessmentReaderChildren(t *testing.T) {
	h := newAssessmentHarness(t)
	s := h.school
	reader := newReaderForTest(t, h)

	children, err := reader.Children(context.Background(), Actor{ID: s.Parent.ID, Role: RoleParent})
	require.NoError(t, err)
	require.Len(t, children, 1)
	require.Equal(t, s.Alice.ID, children[0].ID)

	_, err = reader.Children(context.Background(), Actor{ID: s.Alice.ID, Role: RoleStudent})
	require.ErrorIs(t, err, ErrForbidden)
}
