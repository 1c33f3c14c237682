package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/compass-api/internal/service"
	"github.com/noah-isme/compass-api/internal/utils"
)

// ResultsHandler serves assessment results to students and parents.
type ResultsHandler struct {
	reader service.AssessmentReader
	logger zerolog.Logger
}

// NewResultsHandler constructs a results handler.
func NewResultsHandler(reader service.AssessmentReader, logger zerolog.Logger) *ResultsHandler {
	return &ResultsHandler{
		reader: reader,
		logger: logger.With().Str("component", "results_handler").Logger(),
	}
}

// RegisterStudent wires routes for the authenticated student's own results.
func (h *ResultsHandler) RegisterStudent(router fiber.Router) {
	router.Get("/assessments", h.ownHistory)
	router.Get("/assessments/:id", h.breakdown)
}

// RegisterParent wires routes for a parent browsing their children's results.
func (h *ResultsHandler) RegisterParent(router fiber.Router) {
	router.Get("/children", h.children)
	router.Get("/children/:studentId/assessments", h.childHistory)
	router.Get("/assessments/:id", h.breakdown)
}

func (h *ResultsHandler) ownHistory(c *fiber.Ctx) error {
	actor := actorFromContext(c)
	return h.history(c, actor, actor.ID)
}

func (h *ResultsHandler) childHistory(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	return h.history(c, actorFromContext(c), studentID)
}

func (h *ResultsHandler) history(c *fiber.Ctx, actor service.Actor, studentID uint) error {
	history, err := h.reader.History(c.UserContext(), actor, studentID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.OK(c, history, "assessment history retrieved", fiber.Map{
		"count":     len(history.Items),
		"cache_hit": history.CacheHit,
	})
}

func (h *ResultsHandler) breakdown(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	breakdown, err := h.reader.Breakdown(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "assessment retrieved", breakdown)
}

func (h *ResultsHandler) children(c *fiber.Ctx) error {
	children, err := h.reader.Children(c.UserContext(), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.OK(c, children, "children retrieved", fiber.Map{"count": len(children)})
}
