package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/compass-api/internal/dto"
	"github.com/noah-isme/compass-api/internal/service"
	"github.com/noah-isme/compass-api/internal/utils"
)

// CatalogHandler exposes the competency reference data.
type CatalogHandler struct {
	service service.CatalogService
	logger  zerolog.Logger
}

// NewCatalogHandler constructs a catalog handler.
func NewCatalogHandler(service service.CatalogService, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger.With().Str("component", "catalog_handler").Logger(),
	}
}

// Register wires read-only catalog routes. guard wraps each handler.
func (h *CatalogHandler) Register(router fiber.Router, guard func(fiber.Handler) fiber.Handler) {
	if guard == nil {
		guard = func(next fiber.Handler) fiber.Handler { return next }
	}
	router.Get("/performance-levels", guard(h.levels))
	router.Get("/competencies/:id/criteria", guard(h.criteria))
	router.Get("/competencies/:id/rubric", guard(h.rubric))
}

func (h *CatalogHandler) levels(c *fiber.Ctx) error {
	levels, err := h.service.PerformanceLevels(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "performance levels retrieved", dto.NewPerformanceLevelResponses(levels))
}

func (h *CatalogHandler) criteria(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	criteria, err := h.service.CriteriaFor(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "criteria retrieved", dto.NewCriterionResponses(criteria))
}

func (h *CatalogHandler) rubric(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	matrix, err := h.service.RubricMatrix(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "rubric retrieved", matrix)
}
