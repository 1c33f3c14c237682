package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/compass-api/internal/dto"
	"github.com/noah-isme/compass-api/internal/service"
	"github.com/noah-isme/compass-api/internal/utils"
)

// SeedHeader carries the shared secret for the seeding tools.
const SeedHeader = "X-Seed-Token"

// SeedHandler exposes tooling endpoints for loading reference data.
type SeedHandler struct {
	service service.CatalogService
	logger  zerolog.Logger
}

// NewSeedHandler constructs a seed handler.
func NewSeedHandler(service service.CatalogService, logger zerolog.Logger) *SeedHandler {
	return &SeedHandler{
		service: service,
		logger:  logger.With().Str("component", "seed_handler").Logger(),
	}
}

// Register wires seed routes.
func (h *SeedHandler) Register(router fiber.Router) {
	router.Post("/catalog", h.catalog)
}

func (h *SeedHandler) catalog(c *fiber.Ctx) error {
	var payload dto.CatalogSeedRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.Seed(c.UserContext(), c.Get(SeedHeader), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "catalog seeded", result)
}
