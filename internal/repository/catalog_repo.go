package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/compass-api/internal/models"
)

var (
	// ErrCatalogInUse indicates a reference row is still referenced and cannot be deleted.
	ErrCatalogInUse = errors.New("catalog entry is still referenced")
	// ErrPerformanceLevelNotFound indicates a performance level id or name does not resolve.
	ErrPerformanceLevelNotFound = errors.New("performance level not found")
)

// CriterionSeed couples a criterion with rubric text keyed by performance level name.
type CriterionSeed struct {
	Criterion models.Criterion
	Rubric    map[string]string
}

// CompetencySeed couples a competency with its criteria.
type CompetencySeed struct {
	Competency models.Competency
	Criteria   []CriterionSeed
}

// CatalogSeed is a batch of reference data upserted by natural key.
type CatalogSeed struct {
	PerformanceLevels []models.PerformanceLevel
	Competencies      []CompetencySeed
}

// CatalogSeedResult reports how many rows each upsert touched.
type CatalogSeedResult struct {
	PerformanceLevels int64
	Competencies      int64
	Criteria          int64
	RubricEntries     int64
}

// CatalogRepository reads and maintains competency reference data.
type CatalogRepository interface {
	GetCompetency(ctx context.Context, id uint) (models.Competency, error)
	LinkedCompetency(ctx context.Context, taskID uint) (models.Competency, error)
	CriteriaByCompetency(ctx context.Context, competencyID uint) ([]models.Criterion, error)
	PerformanceLevels(ctx context.Context) ([]models.PerformanceLevel, error)
	RubricByCompetency(ctx context.Context, competencyID uint) ([]models.RubricEntry, error)
	Upsert(ctx context.Context, seed CatalogSeed) (CatalogSeedResult, error)
	DeletePerformanceLevel(ctx context.Context, id uint) error
	DeleteCriterion(ctx context.Context, id uint) error
}

type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository constructs the catalog repository.
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) GetCompetency(ctx context.Context, id uint) (models.Competency, error) {
	var competency models.Competency
	if err := r.db.WithContext(ctx).First(&competency, id).Error; err != nil {
		return models.Competency{}, err
	}
	return competency, nil
}

func (r *catalogRepository) LinkedCompetency(ctx context.Context, taskID uint) (models.Competency, error) {
	var competency models.Competency
	if err := r.db.WithContext(ctx).
		Joins("JOIN task_competencies ON task_competencies.competency_id = competencies.id").
		Where("task_competencies.task_id = ?", taskID).
		First(&competency).Error; err != nil {
		return models.Competency{}, err
	}
	return competency, nil
}

func (r *catalogRepository) CriteriaByCompetency(ctx context.Context, competencyID uint) ([]models.Criterion, error) {
	var criteria []models.Criterion
	if err := r.db.WithContext(ctx).
		Where("competency_id = ?", competencyID).
		Order("id ASC").
		Find(&criteria).Error; err != nil {
		return nil, err
	}
	return criteria, nil
}

func (r *catalogRepository) PerformanceLevels(ctx context.Context) ([]models.PerformanceLevel, error) {
	var levels []models.PerformanceLevel
	if err := r.db.WithContext(ctx).
		Order("score_value DESC, id ASC").
		Find(&levels).Error; err != nil {
		return nil, err
	}
	return levels, nil
}

func (r *catalogRepository) RubricByCompetency(ctx context.Context, competencyID uint) ([]models.RubricEntry, error) {
	var entries []models.RubricEntry
	if err := r.db.WithContext(ctx).
		Joins("JOIN criteria ON criteria.id = rubric.criterion_id").
		Where("criteria.competency_id = ?", competencyID).
		Order("rubric.criterion_id ASC, rubric.performance_level_id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *catalogRepository) Upsert(ctx context.Context, seed CatalogSeed) (CatalogSeedResult, error) {
	var result CatalogSeedResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(seed.PerformanceLevels) > 0 {
			levels := make([]models.PerformanceLevel, len(seed.PerformanceLevels))
			for i, level := range seed.PerformanceLevels {
				level.ID = 0
				levels[i] = level
			}
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"description", "score_value", "updated_at"}),
			}).Create(&levels)
			if res.Error != nil {
				return res.Error
			}
			result.PerformanceLevels = res.RowsAffected
		}

		var levels []models.PerformanceLevel
		if err := tx.Find(&levels).Error; err != nil {
			return err
		}
		levelIDs := make(map[string]uint, len(levels))
		for _, level := range levels {
			levelIDs[level.Name] = level.ID
		}

		for _, item := range seed.Competencies {
			competency := item.Competency
			competency.ID = 0
			competency.Criteria = nil
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"description", "updated_at"}),
			}).Create(&competency)
			if res.Error != nil {
				return res.Error
			}
			result.Competencies += res.RowsAffected

			if err := tx.Where("name = ?", competency.Name).First(&competency).Error; err != nil {
				return err
			}

			for _, criterionSeed := range item.Criteria {
				criterion := criterionSeed.Criterion
				criterion.ID = 0
				criterion.CompetencyID = competency.ID
				res := tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "competency_id"}, {Name: "name"}},
					DoUpdates: clause.AssignmentColumns([]string{"description", "updated_at"}),
				}).Create(&criterion)
				if res.Error != nil {
					return res.Error
				}
				result.Criteria += res.RowsAffected

				if err := tx.Where("competency_id = ? AND name = ?", competency.ID, criterion.Name).First(&criterion).Error; err != nil {
					return err
				}

				for levelName, description := range criterionSeed.Rubric {
					levelID, ok := levelIDs[levelName]
					if !ok {
						return fmt.Errorf("%w: %q", ErrPerformanceLevelNotFound, levelName)
					}
					entry := models.RubricEntry{
						CriterionID:        criterion.ID,
						PerformanceLevelID: levelID,
						Description:        description,
					}
					res := tx.Clauses(clause.OnConflict{
						Columns:   []clause.Column{{Name: "criterion_id"}, {Name: "performance_level_id"}},
						DoUpdates: clause.AssignmentColumns([]string{"description", "updated_at"}),
					}).Create(&entry)
					if res.Error != nil {
						return res.Error
					}
					result.RubricEntries += res.RowsAffected
				}
			}
		}

		return nil
	})
	if err != nil {
		return CatalogSeedResult{}, err
	}

	return result, nil
}

func (r *catalogRepository) DeletePerformanceLevel(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inUse, err := isReferenced(tx, id, "performance_level_id", &models.CriteriaRating{}, &models.RubricEntry{})
		if err != nil {
			return err
		}
		if inUse {
			return ErrCatalogInUse
		}

		res := tx.Delete(&models.PerformanceLevel{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *catalogRepository) DeleteCriterion(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inUse, err := isReferenced(tx, id, "criterion_id", &models.CriteriaRating{}, &models.RubricEntry{})
		if err != nil {
			return err
		}
		if inUse {
			return ErrCatalogInUse
		}

		res := tx.Delete(&models.Criterion{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func isReferenced(tx *gorm.DB, id uint, column string, tables ...interface{}) (bool, error) {
	for _, table := range tables {
		var count int64
		if err := tx.Model(table).Where(column+" = ?", id).Count(&count).Error; err != nil {
			return false, err
		}
		if count > 0 {
			return true, nil
		}
	}
	return false, nil
}
