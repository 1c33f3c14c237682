package dto

import "github.com/noah-isme/compass-api/internal/models"

// CompetencyResponse summarizes a competency.
type CompetencyResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CriterionResponse describes a criterion of a competency.
type CriterionResponse struct {
	ID           uint   `json:"id"`
	CompetencyID uint   `json:"competency_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
}

// PerformanceLevelResponse describes a point on the scoring scale.
type PerformanceLevelResponse struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ScoreValue  float64 `json:"score_value"`
}

// RubricEntryResponse is display text for a (criterion, level) pair.
type RubricEntryResponse struct {
	CriterionID        uint   `json:"criterion_id"`
	PerformanceLevelID uint   `json:"performance_level_id"`
	Description        string `json:"description"`
}

// RubricMatrixResponse groups everything needed to render a competency's rubric.
type RubricMatrixResponse struct {
	Competency        CompetencyResponse         `json:"competency"`
	Criteria          []CriterionResponse        `json:"criteria"`
	PerformanceLevels []PerformanceLevelResponse `json:"performance_levels"`
	Entries           []RubricEntryResponse      `json:"entries"`
}

// PerformanceLevelSeed is a performance level in a catalog seed payload.
type PerformanceLevelSeed struct {
	Name        string  `json:"name" validate:"required,max=128"`
	Description string  `json:"description" validate:"max=2000"`
	ScoreValue  float64 `json:"score_value" validate:"gte=0"`
}

// CriterionSeed is a criterion in a catalog seed payload. Rubric maps level names to text.
type CriterionSeed struct {
	Name        string            `json:"name" validate:"required,max=255"`
	Description string            `json:"description" validate:"max=2000"`
	Rubric      map[string]string `json:"rubric" validate:"omitempty,dive,keys,required,endkeys,max=2000"`
}

// CompetencySeed is a competency with its criteria in a catalog seed payload.
type CompetencySeed struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description" validate:"max=2000"`
	Criteria    []CriterionSeed `json:"criteria" validate:"dive"`
}

// CatalogSeedRequest loads reference data. With Prune set, performance levels missing
// from the payload are removed unless still referenced.
type CatalogSeedRequest struct {
	PerformanceLevels []PerformanceLevelSeed `json:"performance_levels" validate:"dive"`
	Competencies      []CompetencySeed       `json:"competencies" validate:"dive"`
	Prune             bool                   `json:"prune"`
}

// CatalogSeedResponse reports what a seed run changed.
type CatalogSeedResponse struct {
	PerformanceLevels int64  `json:"performance_levels"`
	Competencies      int64  `json:"competencies"`
	Criteria          int64  `json:"criteria"`
	RubricEntries     int64  `json:"rubric_entries"`
	Pruned            []uint `json:"pruned"`
	KeptInUse         []uint `json:"kept_in_use"`
}

// NewCompetencyResponse converts a competency model.
func NewCompetencyResponse(model models.Competency) CompetencyResponse {
	return CompetencyResponse{
		ID:          model.ID,
		Name:        model.Name,
		Description: model.Description,
	}
}

// NewCriterionResponses converts criteria models preserving order.
func NewCriterionResponses(items []models.Criterion) []CriterionResponse {
	responses := make([]CriterionResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, CriterionResponse{
			ID:           item.ID,
			CompetencyID: item.CompetencyID,
			Name:         item.Name,
			Description:  item.Description,
		})
	}
	return responses
}

// NewPerformanceLevelResponses converts performance level models preserving order.
func NewPerformanceLevelResponses(items []models.PerformanceLevel) []PerformanceLevelResponse {
	responses := make([]PerformanceLevelResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, PerformanceLevelResponse{
			ID:          item.ID,
			Name:        item.Name,
			Description: item.Description,
			ScoreValue:  item.ScoreValue,
		})
	}
	return responses
}

// NewRubricEntryResponses converts rubric models preserving order.
func NewRubricEntryResponses(items []models.RubricEntry) []RubricEntryResponse {
	responses := make([]RubricEntryResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, RubricEntryResponse{
			CriterionID:        item.CriterionID,
			PerformanceLevelID: item.PerformanceLevelID,
			Description:        item.Description,
		})
	}
	return responses
}
