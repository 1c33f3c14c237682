package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/compass-api/internal/dto"
	"github.com/noah-isme/compass-api/internal/models"
	"github.com/noah-isme/compass-api/internal/repository"
)

// CatalogService exposes the competency reference data used for assessment.
type CatalogService interface {
	CriteriaFor(ctx context.Context, competencyID uint) ([]models.Criterion, error)
	PerformanceLevels(ctx context.Context) ([]models.PerformanceLevel, error)
	RubricMatrix(ctx context.Context, competencyID uint) (dto.RubricMatrixResponse, error)
	Seed(ctx context.Context, token string, payload dto.CatalogSeedRequest) (dto.CatalogSeedResponse, error)
}

// CatalogSeedOptions gates the seeding tool.
type CatalogSeedOptions struct {
	Enabled bool
	Token   string
}

type catalogService struct {
	repo      repository.CatalogRepository
	validator *validator.Validate
	seed      CatalogSeedOptions
	logger    zerolog.Logger
}

// NewCatalogService constructs the catalog service.
func NewCatalogService(repo repository.CatalogRepository, validate *validator.Validate, seed CatalogSeedOptions, logger zerolog.Logger) CatalogService {
	return &catalogService{
		repo:      repo,
		validator: validate,
		seed:      seed,
		logger:    logger.With().Str("component", "catalog_service").Logger(),
	}
}

// CriteriaFor returns the competency's criteria ordered by id. An empty result is a
// configuration error because nothing could be rated.
func (s *catalogService) CriteriaFor(ctx context.Context, competencyID uint) ([]models.Criterion, error) {
	criteria, err := s.repo.CriteriaByCompetency(ctx, competencyID)
	if err != nil {
		return nil, err
	}
	if len(criteria) == 0 {
		return nil, ErrNoCriteria
	}
	return criteria, nil
}

// PerformanceLevels returns every level ordered by score value, highest first.
func (s *catalogService) PerformanceLevels(ctx context.Context) ([]models.PerformanceLevel, error) {
	levels, err := s.repo.PerformanceLevels(ctx)
	if err != nil {
		return nil, err
	}
	if len(levels) == 0 {
		return nil, ErrNoPerformanceLevels
	}
	return levels, nil
}

func (s *catalogService) RubricMatrix(ctx context.Context, competencyID uint) (dto.RubricMatrixResponse, error) {
	competency, err := s.repo.GetCompetency(ctx, competencyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RubricMatrixResponse{}, ErrCompetencyNotFound
		}
		return dto.RubricMatrixResponse{}, err
	}

	criteria, err := s.CriteriaFor(ctx, competency.ID)
	if err != nil {
		return dto.RubricMatrixResponse{}, err
	}

	levels, err := s.PerformanceLevels(ctx)
	if err != nil {
		return dto.RubricMatrixResponse{}, err
	}

	entries, err := s.repo.RubricByCompetency(ctx, competency.ID)
	if err != nil {
		return dto.RubricMatrixResponse{}, err
	}

	return dto.RubricMatrixResponse{
		Competency:        dto.NewCompetencyResponse(competency),
		Criteria:          dto.NewCriterionResponses(criteria),
		PerformanceLevels: dto.NewPerformanceLevelResponses(levels),
		Entries:           dto.NewRubricEntryResponses(entries),
	}, nil
}

func (s *catalogService) Seed(ctx context.Context, token string, payload dto.CatalogSeedRequest) (dto.CatalogSeedResponse, error) {
	if !s.seed.Enabled {
		return dto.CatalogSeedResponse{}, ErrSeedDisabled
	}
	if !s.validToken(token) {
		return dto.CatalogSeedResponse{}, ErrSeedUnauthorized
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.CatalogSeedResponse{}, err
	}

	result, err := s.repo.Upsert(ctx, toCatalogSeed(payload))
	if err != nil {
		if errors.Is(err, repository.ErrPerformanceLevelNotFound) {
			return dto.CatalogSeedResponse{}, validationErrorf("invalid rubric: %v", err)
		}
		return dto.CatalogSeedResponse{}, err
	}

	response := dto.CatalogSeedResponse{
		PerformanceLevels: result.PerformanceLevels,
		Competencies:      result.Competencies,
		Criteria:          result.Criteria,
		RubricEntries:     result.RubricEntries,
		Pruned:            []uint{},
		KeptInUse:         []uint{},
	}

	if payload.Prune {
		if err := s.pruneLevels(ctx, payload.PerformanceLevels, &response); err != nil {
			return dto.CatalogSeedResponse{}, err
		}
	}

	s.logger.Info().
		Int64("performance_levels", response.PerformanceLevels).
		Int64("competencies", response.Competencies).
		Int64("criteria", response.Criteria).
		Int64("rubric_entries", response.RubricEntries).
		Int("pruned", len(response.Pruned)).
		Msg("catalog seeded")

	return response, nil
}

func (s *catalogService) pruneLevels(ctx context.Context, keep []dto.PerformanceLevelSeed, response *dto.CatalogSeedResponse) error {
	names := make(map[string]struct{}, len(keep))
	for _, level := range keep {
		names[strings.TrimSpace(level.Name)] = struct{}{}
	}

	levels, err := s.repo.PerformanceLevels(ctx)
	if err != nil {
		return err
	}

	for _, level := range levels {
		if _, ok := names[level.Name]; ok {
			continue
		}
		err := s.repo.DeletePerformanceLevel(ctx, level.ID)
		switch {
		case err == nil:
			response.Pruned = append(response.Pruned, level.ID)
		case errors.Is(err, repository.ErrCatalogInUse):
			response.KeptInUse = append(response.KeptInUse, level.ID)
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return err
		}
	}

	return nil
}

func (s *catalogService) validToken(token string) bool {
	expected := strings.TrimSpace(s.seed.Token)
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(token))) == 1
}

func toCatalogSeed(payload dto.CatalogSeedRequest) repository.CatalogSeed {
	seed := repository.CatalogSeed{
		PerformanceLevels: make([]models.PerformanceLevel, 0, len(payload.PerformanceLevels)),
		Competencies:      make([]repository.CompetencySeed, 0, len(payload.Competencies)),
	}

	for _, level := range payload.PerformanceLevels {
		seed.PerformanceLevels = append(seed.PerformanceLevels, models.PerformanceLevel{
			Name:        strings.TrimSpace(level.Name),
			Description: strings.TrimSpace(level.Description),
			ScoreValue:  level.ScoreValue,
		})
	}

	for _, competency := range payload.Competencies {
		item := repository.CompetencySeed{
			Competency: models.Competency{
				Name:        strings.TrimSpace(competency.Name),
				Description: strings.TrimSpace(competency.Description),
			},
		}
		for _, criterion := range competency.Criteria {
			rubric := make(map[string]string, len(criterion.Rubric))
			for level, text := range criterion.Rubric {
				rubric[strings.TrimSpace(level)] = strings.TrimSpace(text)
			}
			item.Criteria = append(item.Criteria, repository.CriterionSeed{
				Criterion: models.Criterion{
					Name:        strings.TrimSpace(criterion.Name),
					Description: strings.TrimSpace(criterion.Description),
				},
				Rubric: rubric,
			})
		}
		seed.Competencies = append(seed.Competencies, item)
	}

	return seed
}
