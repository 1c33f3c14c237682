package handler

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/compass-api/internal/dto"
	"github.com/noah-isme/compass-api/internal/service"
	"github.com/noah-isme/compass-api/internal/utils"
)

const (
	criteriaFieldPrefix = "criteria_"
	feedbackFieldPrefix = "feedback_"
)

// AssessmentHandler serves the teacher assessment workflow.
type AssessmentHandler struct {
	service service.AssessmentService
	logger  zerolog.Logger
}

// NewAssessmentHandler constructs an assessment handler.
func NewAssessmentHandler(service service.AssessmentService, logger zerolog.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		service: service,
		logger:  logger.With().Str("component", "assessment_handler").Logger(),
	}
}

// Register wires teacher routes. recordGuards run before the recording endpoint only.
func (h *AssessmentHandler) Register(router fiber.Router, recordGuards ...fiber.Handler) {
	router.Get("/submissions", h.queue)
	router.Get("/submissions/:id/assessment", h.form)

	record := append(append([]fiber.Handler{}, recordGuards...), h.record)
	router.Post("/submissions/:id/assessment", record...)
}

func (h *AssessmentHandler) queue(c *fiber.Ctx) error {
	items, err := h.service.Submissions(c.UserContext(), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.OK(c, items, "submissions retrieved", fiber.Map{"count": len(items)})
}

func (h *AssessmentHandler) form(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	form, err := h.service.Prepare(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "assessment form retrieved", form)
}

func (h *AssessmentHandler) record(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payload, err := parseRecordRequest(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	actor := actorFromContext(c)
	result, err := h.service.Record(c.UserContext(), actor, id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	requestLogger(h.logger, c).Info().
		Uint("submission_id", id).
		Uint("student_id", result.StudentID).
		Uint("teacher_id", actor.ID).
		Float64("overall_score", result.OverallScore).
		Msg("assessment recorded")

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assessment recorded", result)
}

// parseRecordRequest accepts a JSON body or the classic form encoding, where criteria_<id>
// selects a performance level and feedback_<id> carries per-criterion feedback.
func parseRecordRequest(c *fiber.Ctx) (dto.RecordAssessmentRequest, error) {
	var payload dto.RecordAssessmentRequest
	if c.Is("json") {
		if err := c.BodyParser(&payload); err != nil {
			return dto.RecordAssessmentRequest{}, errors.New("invalid request body")
		}
		return payload, nil
	}

	values, err := formValues(c)
	if err != nil {
		return dto.RecordAssessmentRequest{}, err
	}

	if raw := strings.TrimSpace(values["student_id"]); raw != "" {
		studentID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return dto.RecordAssessmentRequest{}, errors.New("invalid student_id")
		}
		payload.StudentID = uint(studentID)
	}
	payload.GeneralFeedback = values["general_feedback"]

	for key, raw := range values {
		if !strings.HasPrefix(key, criteriaFieldPrefix) || strings.TrimSpace(raw) == "" {
			continue
		}
		criterionID, err := strconv.ParseUint(strings.TrimPrefix(key, criteriaFieldPrefix), 10, 64)
		if err != nil {
			return dto.RecordAssessmentRequest{}, errors.New("invalid field " + key)
		}
		levelID, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return dto.RecordAssessmentRequest{}, errors.New("invalid performance level for " + key)
		}
		payload.Ratings = append(payload.Ratings, dto.RatingInput{
			CriterionID:        uint(criterionID),
			PerformanceLevelID: uint(levelID),
			Feedback:           values[feedbackFieldPrefix+strconv.FormatUint(criterionID, 10)],
		})
	}

	sort.Slice(payload.Ratings, func(i, j int) bool {
		return payload.Ratings[i].CriterionID < payload.Ratings[j].CriterionID
	})
	return payload, nil
}

func formValues(c *fiber.Ctx) (map[string]string, error) {
	values := map[string]string{}
	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, errors.New("invalid form body")
		}
		for key, items := range form.Value {
			if len(items) > 0 {
				values[key] = items[0]
			}
		}
		return values, nil
	}

	c.Request().PostArgs().VisitAll(func(key, value []byte) {
		values[string(key)] = string(value)
	})
	return values, nil
}
