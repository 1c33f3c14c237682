package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/compass-api/internal/dto"
	"github.com/noah-isme/compass-api/internal/handler"
	"github.com/noah-isme/compass-api/internal/service"
)

type mockAssessmentService struct {
	err          error
	lastActor    service.Actor
	lastID       uint
	lastPayload  dto.RecordAssessmentRequest
	submissions  []dto.SubmissionSummary
	recordResult dto.RecordAssessmentResponse
}

func (m *mockAssessmentService) Submissions(_ context.Context, actor service.Actor) ([]dto.SubmissionSummary, error) {
	m.lastActor = actor
	return m.submissions, m.err
}

func (m *mockAssessmentService) Prepare(_ context.Context, actor service.Actor, submissionID uint) (dto.AssessmentFormResponse, error) {
	m.lastActor = actor
	m.lastID = submissionID
	if m.err != nil {
		return dto.AssessmentFormResponse{}, m.err
	}
	return dto.AssessmentFormResponse{Submission: dto.SubmissionSummary{ID: submissionID}}, nil
}

func (m *mockAssessmentService) Record(_ context.Context, actor service.Actor, submissionID uint, payload dto.RecordAssessmentRequest) (dto.RecordAssessmentResponse, error) {
	m.lastActor = actor
	m.lastID = submissionID
	m.lastPayload = payload
	if m.err != nil {
		return dto.RecordAssessmentResponse{}, m.err
	}
	return m.recordResult, nil
}

func newAssessmentApp(svc service.AssessmentService) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/teacher", withIdentity(5, "teacher"))
	handler.NewAssessmentHandler(svc, testLogger()).Register(group)
	return app
}

func TestAssessmentHandlerRecordJSON(t *testing.T) {
	svc := &mockAssessmentService{recordResult: dto.RecordAssessmentResponse{AssessmentID: 11, StudentID: 3, OverallScore: 4, AssessedAt: time.Now()}}
	app := newAssessmentApp(svc)

	body, err := json.Marshal(dto.RecordAssessmentRequest{
		StudentID:       3,
		GeneralFeedback: "Great",
		Ratings:         []dto.RatingInput{{CriterionID: 1, PerformanceLevelID: 2}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/teacher/submissions/9/assessment", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var payload envelope
	decodeResponse(t, resp, &payload)
	require.True(t, payload.Success)

	var result dto.RecordAssessmentResponse
	require.NoError(t, json.Unmarshal(payload.Data, &result))
	require.Equal(t, uint(11), result.AssessmentID)

	require.Equal(t, uint(9), svc.lastID)
	require.Equal(t, service.Actor{ID: 5, Role: "teacher"}, svc.lastActor)
	require.Equal(t, "Great", svc.lastPayload.GeneralFeedback)
	require.Len(t, svc.lastPayload.Ratings, 1)
}

func TestAssessmentHandlerRecordForm(t *testing.T) {
	svc := &mockAssessmentService{}
	app := newAssessmentApp(svc)

	form := url.Values{}
	form.Set("student_id", "3")
	form.Set("general_feedback", "Nice teamwork")
	form.Set("criteria_7", "2")
	form.Set("criteria_4", "1")
	form.Set("criteria_9", "")
	form.Set("feedback_7", "Clear plan")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/teacher/submissions/9/assessment", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	require.Equal(t, uint(3), svc.lastPayload.StudentID)
	require.Equal(t, "Nice teamwork", svc.lastPayload.GeneralFeedback)
	require.Equal(t, []dto.RatingInput{
		{CriterionID: 4, PerformanceLevelID: 1},
		{CriterionID: 7, PerformanceLevelID: 2, Feedback: "Clear plan"},
	}, svc.lastPayload.Ratings)
}

func TestAssessmentHandlerRecordRejectsMalformedInput(t *testing.T) {
	svc := &mockAssessmentService{}
	app := newAssessmentApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/teacher/submissions/abc/assessment", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/teacher/submissions/1/assessment", strings.NewReader("criteria_1=high"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/teacher/submissions/1/assessment", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAssessmentHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{name: "validation", err: &service.ValidationError{Reason: "no criteria selected"}, status: fiber.StatusBadRequest},
		{name: "forbidden", err: service.ErrNotTaskOwner, status: fiber.StatusForbidden},
		{name: "not found", err: service.ErrSubmissionNotFound, status: fiber.StatusNotFound},
		{name: "no students", err: service.ErrNoStudentsToAssess, status: fiber.StatusNotFound},
		{name: "configuration", err: service.ErrNoCriteria, status: fiber.StatusConflict},
		{name: "system", err: errors.New("connection reset"), status: fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newAssessmentApp(&mockAssessmentService{err: tc.err})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/teacher/submissions/1/assessment", strings.NewReader(`{"student_id":1}`))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			var payload envelope
			decodeResponse(t, resp, &payload)
			require.False(t, payload.Success)
			if tc.status == fiber.StatusInternalServerError {
				require.Equal(t, "internal server error", payload.Message)
			}
			if tc.name == "validation" {
				require.Equal(t, "no criteria selected", payload.Message)
			}
		})
	}
}

func TestAssessmentHandlerQueueAndForm(t *testing.T) {
	svc := &mockAssessmentService{submissions: []dto.SubmissionSummary{{ID: 1}, {ID: 2}}}
	app := newAssessmentApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/teacher/submissions", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload envelope
	decodeResponse(t, resp, &payload)
	require.Equal(t, float64(2), payload.Meta["count"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/teacher/submissions/4/assessment", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(4), svc.lastID)
}

func TestAssessmentHandlerRecordGuardsRun(t *testing.T) {
	svc := &mockAssessmentService{}
	app := fiber.New()
	group := app.Group("/t", withIdentity(5, "teacher"))
	handler.NewAssessmentHandler(svc, testLogger()).Register(group, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusTooManyRequests)
	})

	req := httptest.NewRequest(http.MethodPost, "/t/submissions/1/assessment", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	require.Zero(t, svc.lastID)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/t/submissions", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
